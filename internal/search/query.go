package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

// Params configures a catalog search.
type Params struct {
	Query   string   // Free text matched against name and level tag
	Kinds   []string // Filter by book kind (empty = all)
	Schemes []string // Filter by progression scheme (empty = all)

	Limit  int
	Offset int

	SortBy string // "relevance", "name", "recent"
}

// DefaultParams returns sensible defaults.
func DefaultParams() Params {
	return Params{
		Limit:  20,
		SortBy: "relevance",
	}
}

// Result is a page of search hits.
type Result struct {
	Query  string       `json:"query"`
	Total  uint64       `json:"total"`
	TookMs int64        `json:"took_ms"`
	Hits   []Hit        `json:"hits"`
	Kinds  []FacetCount `json:"kinds,omitempty"`
}

// Hit is a single matching book.
type Hit struct {
	ID        string  `json:"id"`
	Score     float64 `json:"score"`
	Name      string  `json:"name"`
	LevelTag  string  `json:"level_tag,omitempty"`
	Scheme    string  `json:"scheme"`
	Kind      string  `json:"kind"`
	Highlight string  `json:"highlight,omitempty"`
}

// FacetCount represents a facet value and its count.
type FacetCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// Search executes a catalog query.
func (s *BookIndex) Search(ctx context.Context, params Params) (*Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if params.Limit <= 0 {
		params.Limit = DefaultParams().Limit
	}

	req := bleve.NewSearchRequestOptions(buildQuery(params), params.Limit, params.Offset, false)
	addSorting(req, params.SortBy)
	req.AddFacet("kind", bleve.NewFacetRequest("kind", 10))
	if params.Query != "" {
		req.Highlight = bleve.NewHighlight()
		req.Highlight.AddField("name")
	}
	req.Fields = []string{"name", "level_tag", "scheme", "kind"}

	res, err := s.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	result := &Result{
		Query:  params.Query,
		Total:  res.Total,
		TookMs: res.Took.Milliseconds(),
		Hits:   make([]Hit, 0, len(res.Hits)),
	}
	for _, h := range res.Hits {
		hit := Hit{ID: h.ID, Score: h.Score}
		hit.Name, _ = h.Fields["name"].(string)
		hit.LevelTag, _ = h.Fields["level_tag"].(string)
		hit.Scheme, _ = h.Fields["scheme"].(string)
		hit.Kind, _ = h.Fields["kind"].(string)
		if frags := h.Fragments["name"]; len(frags) > 0 {
			hit.Highlight = frags[0]
		}
		result.Hits = append(result.Hits, hit)
	}

	if f, ok := res.Facets["kind"]; ok && f.Terms != nil {
		for _, term := range f.Terms.Terms() {
			result.Kinds = append(result.Kinds, FacetCount{Value: term.Term, Count: term.Count})
		}
	}

	return result, nil
}

// buildQuery constructs the Bleve query from params.
func buildQuery(params Params) query.Query {
	var queries []query.Query

	if q := strings.TrimSpace(params.Query); q != "" {
		nameMatch := bleve.NewMatchQuery(q)
		nameMatch.SetField("name")
		nameMatch.SetBoost(3.0)

		// Typo tolerance on single words.
		fuzzy := bleve.NewFuzzyQuery(strings.ToLower(q))
		fuzzy.SetFuzziness(1)
		fuzzy.SetField("name")
		fuzzy.SetBoost(0.8)

		tag := bleve.NewTermQuery(q)
		tag.SetField("level_tag")
		tag.SetBoost(2.0)

		textQueries := []query.Query{nameMatch, fuzzy, tag}
		if len(q) >= 2 {
			prefix := bleve.NewPrefixQuery(strings.ToLower(q))
			prefix.SetField("name")
			prefix.SetBoost(0.5)
			textQueries = append(textQueries, prefix)
		}
		queries = append(queries, bleve.NewDisjunctionQuery(textQueries...))
	}

	if f := termFilter("kind", params.Kinds); f != nil {
		queries = append(queries, f)
	}
	if f := termFilter("scheme", params.Schemes); f != nil {
		queries = append(queries, f)
	}

	switch len(queries) {
	case 0:
		return bleve.NewMatchAllQuery()
	case 1:
		return queries[0]
	}
	return bleve.NewConjunctionQuery(queries...)
}

// termFilter ORs exact matches on a keyword field.
func termFilter(field string, values []string) query.Query {
	if len(values) == 0 {
		return nil
	}
	qs := make([]query.Query, len(values))
	for i, v := range values {
		tq := bleve.NewTermQuery(v)
		tq.SetField(field)
		qs[i] = tq
	}
	return bleve.NewDisjunctionQuery(qs...)
}

func addSorting(req *bleve.SearchRequest, sortBy string) {
	switch sortBy {
	case "name":
		req.SortBy([]string{"name", "_id"})
	case "recent":
		req.SortBy([]string{"-created_at"})
	default:
		req.SortBy([]string{"-_score", "_id"})
	}
}
