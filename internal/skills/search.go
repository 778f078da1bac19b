package skills

import (
	"cmp"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/sahilm/fuzzy"
)

// Threshold is the minimum similarity a match needs to be listed. The
// similarity of a match is the length of the query over the span of text
// it matched, so a substring hit scores 1.
const Threshold = 0.4

// MaxQueryLength is how much of a query is considered.
const MaxQueryLength = 100

// Index is an in-memory list of skills, kept in stored order (most starred
// first).
type Index struct {
	items []Summary
	name  fieldSource
	desc  fieldSource
	tags  fieldSource
}

// NewIndex builds an index over the given summaries. The order is kept as
// given.
func NewIndex(items []Summary) *Index {
	idx := &Index{items: slices.Clone(items)}
	idx.name = make(fieldSource, len(items))
	idx.desc = make(fieldSource, len(items))
	idx.tags = make(fieldSource, len(items))
	for i, it := range items {
		idx.name[i] = strings.ToLower(it.Name)
		idx.desc[i] = strings.ToLower(it.ShortDesc)
		idx.tags[i] = strings.ToLower(strings.Join(it.Tags, " "))
	}
	return idx
}

// Len is the number of skills in the index.
func (idx *Index) Len() int { return len(idx.items) }

// All returns every skill in stored order.
func (idx *Index) All() []Summary { return slices.Clone(idx.items) }

type fieldSource []string

func (f fieldSource) String(i int) string { return f[i] }
func (f fieldSource) Len() int            { return len(f) }

// Search returns the skills matching the query, best first. An empty query
// returns everything in stored order; no match is an empty, non nil, list.
func (idx *Index) Search(query string) []Summary {
	query = normalizeQuery(query)
	if query == "" {
		return idx.All()
	}

	best := map[int]int{}
	for _, src := range []fieldSource{idx.name, idx.desc, idx.tags} {
		for _, m := range fuzzy.FindFromNoSort(query, src) {
			if similarity(query, m) < Threshold {
				continue
			}
			if score, ok := best[m.Index]; !ok || m.Score > score {
				best[m.Index] = m.Score
			}
		}
	}

	hits := make([]int, 0, len(best))
	for i := range best {
		hits = append(hits, i)
	}
	slices.SortFunc(hits, func(a, b int) int {
		if c := cmp.Compare(best[b], best[a]); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})

	out := make([]Summary, 0, len(hits))
	for _, i := range hits {
		out = append(out, idx.items[i])
	}
	return out
}

func normalizeQuery(q string) string {
	q = strings.ToLower(strings.TrimSpace(q))
	if utf8.RuneCountInString(q) > MaxQueryLength {
		q = string([]rune(q)[:MaxQueryLength])
	}
	return q
}

// similarity is the query length over the span of text the match covers.
// MatchedIndexes are byte offsets, so the span is measured in runes of the
// matched text.
func similarity(query string, m fuzzy.Match) float64 {
	if strings.Contains(m.Str, query) {
		return 1
	}
	if len(m.MatchedIndexes) == 0 {
		return 0
	}
	first := m.MatchedIndexes[0]
	last := m.MatchedIndexes[len(m.MatchedIndexes)-1]
	_, size := utf8.DecodeRuneInString(m.Str[last:])
	span := utf8.RuneCountInString(m.Str[first : last+size])
	if span == 0 {
		return 0
	}
	return min(float64(utf8.RuneCountInString(query))/float64(span), 1)
}

// Page is one page of a search.
type Page struct {
	Skills   []Summary `json:"skills"`
	Total    int       `json:"total"`
	Page     int       `json:"page"`
	PageSize int       `json:"pageSize"`
}

// Page size bounds.
const (
	DefaultPageSize = 30
	MaxPageSize     = 100
)

// Page searches and returns the requested page. Out of range values are
// brought back to the nearest valid one: page starts at 1, the size is
// between 1 and MaxPageSize and zero means the default.
func (idx *Index) Page(query string, page, size int) Page {
	if page < 1 {
		page = 1
	}
	switch {
	case size == 0:
		size = DefaultPageSize
	case size < 1:
		size = 1
	case size > MaxPageSize:
		size = MaxPageSize
	}

	all := idx.Search(query)
	start := len(all)
	if page-1 <= len(all)/size {
		start = min((page-1)*size, len(all))
	}
	end := min(start+size, len(all))
	return Page{
		Skills:   all[start:end:end],
		Total:    len(all),
		Page:     page,
		PageSize: size,
	}
}
