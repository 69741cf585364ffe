// Package search provides full-text search over the book catalog using Bleve.
package search

import (
	"github.com/classdeskapp/classdesk-server/internal/domain"
)

// BookDocument is the indexed form of a domain.Book.
type BookDocument struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	LevelTag  string `json:"level_tag,omitempty"`
	Scheme    string `json:"scheme"`
	Kind      string `json:"kind"`
	UnitCount int    `json:"unit_count,omitempty"`

	CreatedAt int64 `json:"created_at"` // Unix millis
	UpdatedAt int64 `json:"updated_at"` // Unix millis
}

// ToMap converts the document to a map with lowercase field names.
// Bleve uses Go struct field names by default; the mapping is lowercase.
func (d *BookDocument) ToMap() map[string]any {
	m := map[string]any{
		"id":         d.ID,
		"name":       d.Name,
		"scheme":     d.Scheme,
		"kind":       d.Kind,
		"created_at": d.CreatedAt,
		"updated_at": d.UpdatedAt,
	}
	if d.LevelTag != "" {
		m["level_tag"] = d.LevelTag
	}
	if d.UnitCount > 0 {
		m["unit_count"] = d.UnitCount
	}
	return m
}

// BookToDocument converts a normalized domain Book.
func BookToDocument(book *domain.Book) *BookDocument {
	return &BookDocument{
		ID:        book.ID,
		Name:      book.Name,
		LevelTag:  book.LevelTag,
		Scheme:    string(book.Scheme),
		Kind:      string(book.Kind),
		UnitCount: book.UnitCount,
		CreatedAt: book.CreatedAt.UnixMilli(),
		UpdatedAt: book.UpdatedAt.UnixMilli(),
	}
}
