package skills

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func testIndex() *Index {
	return NewIndex([]Summary{
		{ID: "github-pr", Name: "GitHub PR Reviewer", ShortDesc: "Review pull requests automatically", Tags: []string{"git", "review"}, Stars: 900},
		{ID: "web-search", Name: "Web Search", ShortDesc: "Search the web with Brave", Tags: []string{"search", "browser"}, Stars: 500},
		{ID: "pdf-reader", Name: "PDF Reader", ShortDesc: "Extract text from PDF files", Tags: []string{"documents"}, Stars: 300},
		{ID: "calendar", Name: "Calendar Sync", ShortDesc: "Sync events with Google Calendar", Tags: []string{"google", "productivity"}, Stars: 100},
	})
}

func ids(items []Summary) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}

func TestSearchEmptyQuery(t *testing.T) {
	idx := testIndex()
	for _, q := range []string{"", "   ", "\t\n"} {
		require.Equal(t, []string{"github-pr", "web-search", "pdf-reader", "calendar"}, ids(idx.Search(q)))
	}
}

func TestSearch(t *testing.T) {
	idx := testIndex()
	for q, want := range map[string][]string{
		"pdf":      {"pdf-reader"},
		"PDF":      {"pdf-reader"},
		"calendar": {"calendar"},
		"search":   {"web-search"},
		"  brave ": {"web-search"},
	} {
		t.Run(q, func(t *testing.T) {
			require.Equal(t, want, ids(idx.Search(q)))
		})
	}

	t.Run("no match", func(t *testing.T) {
		got := idx.Search("zzz")
		require.NotNil(t, got)
		require.Empty(t, got)
	})
}

func TestSearchThreshold(t *testing.T) {
	idx := NewIndex([]Summary{
		{ID: "spread", Name: "axxxxxxxxxxxxxxxxxxb"},
		{ID: "close", Name: "axb"},
	})
	require.Equal(t, []string{"close"}, ids(idx.Search("ab")))
}

func TestSearchRanking(t *testing.T) {
	idx := NewIndex([]Summary{
		{ID: "later", Name: "the web tool", Stars: 10},
		{ID: "first", Name: "web tool", Stars: 5},
		{ID: "twin", Name: "web tool", Stars: 1},
	})
	require.Equal(t, []string{"first", "twin", "later"}, ids(idx.Search("web")))
}

func TestSearchLongQuery(t *testing.T) {
	idx := NewIndex([]Summary{{ID: "a", Name: strings.Repeat("a", MaxQueryLength)}})
	require.Len(t, idx.Search(strings.Repeat("a", 300)), 1)
}

func TestPage(t *testing.T) {
	items := make([]Summary, 0, 75)
	for i := range 75 {
		items = append(items, Summary{ID: string(rune('A'+i%26)) + strings.Repeat("x", i/26), Name: "skill"})
	}
	idx := NewIndex(items)

	p := idx.Page("", 1, 0)
	require.Equal(t, DefaultPageSize, p.PageSize)
	require.Len(t, p.Skills, 30)
	require.Equal(t, 75, p.Total)

	p = idx.Page("skill", 3, 30)
	require.Len(t, p.Skills, 15)
	require.Equal(t, 3, p.Page)

	p = idx.Page("", 9, 30)
	require.Empty(t, p.Skills)

	p = idx.Page("", -2, 500)
	require.Equal(t, 1, p.Page)
	require.Equal(t, MaxPageSize, p.PageSize)
	require.Len(t, p.Skills, 75)

	p = idx.Page("", 1, -5)
	require.Equal(t, 1, p.PageSize)

	p = idx.Page("", math.MaxInt, 30)
	require.Empty(t, p.Skills)
	require.Equal(t, math.MaxInt, p.Page)
	require.Equal(t, 75, p.Total)
}
