package providers

import (
	"context"
	"log/slog"

	"github.com/samber/do/v2"

	"github.com/classdeskapp/classdesk-server/internal/config"
	"github.com/classdeskapp/classdesk-server/internal/logger"
	"github.com/classdeskapp/classdesk-server/internal/sse"
	"github.com/classdeskapp/classdesk-server/internal/store/sqlite"
)

// SSEManagerHandle owns the event stream dispatch loop.
type SSEManagerHandle struct {
	*sse.Manager
	stop context.CancelFunc
}

// Shutdown drains queued events, then stops the dispatch loop.
func (h *SSEManagerHandle) Shutdown() error {
	defer h.stop()
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Manager.Shutdown(ctx)
}

// ProvideSSEManager starts the plan and lesson change feed.
func ProvideSSEManager(i do.Injector) (*SSEManagerHandle, error) {
	slogger := do.MustInvoke[*slog.Logger](i)

	m := sse.NewManager(slogger.With("component", "events"))
	ctx, stop := context.WithCancel(context.Background())
	go m.Start(ctx)

	return &SSEManagerHandle{Manager: m, stop: stop}, nil
}

// StoreHandle closes the SQLite database on shutdown.
type StoreHandle struct {
	*sqlite.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore opens the lesson plan database under the data path.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	slogger := do.MustInvoke[*slog.Logger](i)

	path := cfg.Data.DatabasePath()
	st, err := sqlite.Open(path, slogger.With("component", "store"))
	if err != nil {
		return nil, err
	}
	slogger.Info("database ready", "path", path)
	return &StoreHandle{Store: st}, nil
}

// ProvideSlogLogger exposes the *slog.Logger inside logger.Logger.
func ProvideSlogLogger(i do.Injector) (*slog.Logger, error) {
	return do.MustInvoke[*logger.Logger](i).Logger, nil
}
