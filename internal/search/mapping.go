package search

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/mapping"
)

// Exact-match fields. Level tags like "T9" must not be stemmed or split.
var keywordFields = []string{"id", "level_tag", "scheme", "kind"}

var numericFields = []string{"unit_count", "created_at", "updated_at"}

// newBookMapping maps BookDocument: stemmed English name, keyword enums,
// stored numerics for range filters.
func newBookMapping() mapping.IndexMapping {
	doc := bleve.NewDocumentMapping()

	name := bleve.NewTextFieldMapping()
	name.Analyzer = en.AnalyzerName
	name.IncludeTermVectors = true
	doc.AddFieldMappingsAt("name", name)

	for _, f := range keywordFields {
		doc.AddFieldMappingsAt(f, bleve.NewKeywordFieldMapping())
	}
	for _, f := range numericFields {
		doc.AddFieldMappingsAt(f, bleve.NewNumericFieldMapping())
	}

	im := bleve.NewIndexMapping()
	im.DefaultAnalyzer = en.AnalyzerName
	im.DefaultMapping = doc
	return im
}
