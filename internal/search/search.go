package search

import (
	"log/slog"
	"strings"

	lfuzzy "github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/sahilm/fuzzy"

	"qbank/internal/domain"
)

// FilterItem is one searchable question with its prebuilt haystack text.
type FilterItem struct {
	Question domain.Question
	Haystack string
}

// FilterResult is a search hit with match metadata for highlighting.
type FilterResult struct {
	FilterItem
	MatchedIndexes []int
	Score          int
}

// Filters restrict a search to exact metadata values. Empty fields are
// ignored.
type Filters struct {
	Difficulty string
	Chapter    string
	Subject    string
	Lesson     string
}

// Service ranks questions against a free-text query. Matching runs over
// the question text plus its metadata fields, so "easy algebra" finds
// easy questions in the algebra chapter as readily as a question whose
// text mentions algebra.
type Service struct {
	logger *slog.Logger
}

// NewService creates a search service.
func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// Filter returns questions matching query, best first. An empty query
// with non-empty filters returns every question passing the filters in
// their original order; an empty query with empty filters returns nil.
func (s *Service) Filter(query string, questions []domain.Question, filters Filters) []FilterResult {
	query = strings.TrimSpace(query)

	items := gather(questions, filters)
	if len(items) == 0 {
		return nil
	}

	if query == "" {
		if filters == (Filters{}) {
			return nil
		}
		results := make([]FilterResult, len(items))
		for i, item := range items {
			results[i] = FilterResult{FilterItem: item}
		}
		return results
	}

	// Cheap containment pass first; the subsequence ranker below is
	// quadratic in the haystack and question text can be long.
	candidates := items[:0:0]
	for _, item := range items {
		if lfuzzy.MatchNormalizedFold(query, item.Haystack) {
			candidates = append(candidates, item)
		}
	}
	if len(candidates) == 0 {
		return nil
	}

	matches := fuzzy.FindFrom(query, haystacks(candidates))

	results := make([]FilterResult, len(matches))
	for i, m := range matches {
		results[i] = FilterResult{
			FilterItem:     candidates[m.Index],
			MatchedIndexes: m.MatchedIndexes,
			Score:          m.Score,
		}
	}
	return results
}

func gather(questions []domain.Question, f Filters) []FilterItem {
	var items []FilterItem
	for _, q := range questions {
		if !passes(q, f) {
			continue
		}
		items = append(items, FilterItem{
			Question: q,
			Haystack: buildHaystack(q),
		})
	}
	return items
}

func passes(q domain.Question, f Filters) bool {
	if f.Difficulty != "" && q.Difficulty != f.Difficulty {
		return false
	}
	if f.Chapter != "" && q.Chapter != f.Chapter {
		return false
	}
	if f.Subject != "" && q.Subject != f.Subject {
		return false
	}
	if f.Lesson != "" && q.Lesson != f.Lesson {
		return false
	}
	return true
}

func buildHaystack(q domain.Question) string {
	parts := []string{q.Text, q.Chapter, q.Subject, q.Lesson, q.Difficulty}
	nonEmpty := parts[:0]
	for _, p := range parts {
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, " ")
}

// haystacks adapts a FilterItem slice to the ranker's source interface.
type haystacks []FilterItem

func (h haystacks) String(i int) string { return h[i].Haystack }
func (h haystacks) Len() int            { return len(h) }
