package search

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/blevesearch/bleve/v2"
)

// BookIndex wraps a Bleve index of the book catalog.
//
// All public methods are safe for concurrent use. The mutex guards the
// index handle while Rebuild swaps it.
type BookIndex struct {
	index  bleve.Index
	path   string
	logger *slog.Logger
	mu     sync.RWMutex
}

// Options configures the book index.
type Options struct {
	Path   string       // Index directory; empty keeps the index in memory
	Logger *slog.Logger // Uses discard if nil
}

// mappingVersion is incremented whenever the index mapping changes.
// A mismatch on startup drops and recreates the index.
const mappingVersion = "1"

// NewBookIndex creates or opens the index at opts.Path.
// A corrupted index or one built with an older mapping is removed and recreated;
// callers repopulate it with ReindexAll.
func NewBookIndex(opts Options) (*BookIndex, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	if opts.Path == "" {
		index, err := bleve.NewMemOnly(newBookMapping())
		if err != nil {
			return nil, fmt.Errorf("create memory index: %w", err)
		}
		return &BookIndex{index: index, logger: logger}, nil
	}

	versionPath := opts.Path + ".version"
	needsRebuild := false

	indexExists := false
	if _, statErr := os.Stat(opts.Path); statErr == nil {
		indexExists = true
	}

	if indexExists {
		existingVersion, readErr := os.ReadFile(versionPath)
		if readErr != nil || string(existingVersion) != mappingVersion {
			logger.Info("search index mapping version changed, will rebuild",
				"old_version", string(existingVersion),
				"new_version", mappingVersion,
			)
			needsRebuild = true
		}
	}

	var index bleve.Index
	var err error
	if !needsRebuild && indexExists {
		index, err = bleve.Open(opts.Path)
		if err != nil {
			logger.Warn("failed to open existing index, will recreate",
				"path", opts.Path,
				"error", err,
			)
			needsRebuild = true
		}
	}

	if needsRebuild {
		if removeErr := os.RemoveAll(opts.Path); removeErr != nil {
			return nil, fmt.Errorf("remove old index: %w", removeErr)
		}
		index = nil
	}

	if index == nil {
		if err := os.MkdirAll(filepath.Dir(opts.Path), 0o755); err != nil {
			return nil, fmt.Errorf("create index dir: %w", err)
		}
		index, err = bleve.New(opts.Path, newBookMapping())
		if err != nil {
			return nil, fmt.Errorf("create index: %w", err)
		}
		if writeErr := os.WriteFile(versionPath, []byte(mappingVersion), 0o644); writeErr != nil {
			logger.Warn("failed to write search version file", "error", writeErr)
		}
		logger.Info("created new search index", "path", opts.Path, "mapping_version", mappingVersion)
	} else {
		logger.Info("opened existing search index", "path", opts.Path)
	}

	return &BookIndex{
		index:  index,
		path:   opts.Path,
		logger: logger,
	}, nil
}

// Close closes the index and releases resources.
func (s *BookIndex) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.Close()
}

// IndexBook adds or replaces a book's document.
func (s *BookIndex) IndexBook(doc *BookDocument) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.Index(doc.ID, doc.ToMap())
}

// DeleteBook removes a book's document.
func (s *BookIndex) DeleteBook(id string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.Delete(id)
}

// DocumentCount returns the total number of indexed documents.
func (s *BookIndex) DocumentCount() (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.DocCount()
}

// ReindexAll drops every document and indexes docs in batches.
func (s *BookIndex) ReindexAll(docs []*BookDocument) error {
	if err := s.rebuild(); err != nil {
		return err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	const batchSize = 500
	for i := 0; i < len(docs); i += batchSize {
		end := min(i+batchSize, len(docs))

		batch := s.index.NewBatch()
		for _, doc := range docs[i:end] {
			if err := batch.Index(doc.ID, doc.ToMap()); err != nil {
				return fmt.Errorf("batch index %s: %w", doc.ID, err)
			}
		}
		if err := s.index.Batch(batch); err != nil {
			return fmt.Errorf("commit batch %d-%d: %w", i, end, err)
		}
	}

	s.logger.Info("reindexed books", "count", len(docs))
	return nil
}

// rebuild replaces the index with an empty one. It blocks all other operations.
func (s *BookIndex) rebuild() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.index.Close(); err != nil {
		return fmt.Errorf("close index: %w", err)
	}

	var (
		index bleve.Index
		err   error
	)
	if s.path == "" {
		index, err = bleve.NewMemOnly(newBookMapping())
	} else {
		if err := os.RemoveAll(s.path); err != nil {
			return fmt.Errorf("remove index: %w", err)
		}
		index, err = bleve.New(s.path, newBookMapping())
	}
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}

	s.index = index
	return nil
}
