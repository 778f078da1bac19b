package main

import (
	"io"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/getclawkit/clawkit/internal/skills"
	"github.com/stretchr/testify/require"
)

func testBrowseModel(pageSize int) browseModel {
	idx := skills.NewIndex([]skills.Summary{
		{ID: "pdf", Name: "PDF Tools", ShortDesc: "Read and fill PDFs", Stars: 10},
		{ID: "web", Name: "Web Search", ShortDesc: "Search the web", Stars: 5},
	})
	return newBrowseModel(makeStyles(lipgloss.NewRenderer(io.Discard)), skills.NewBrowser(idx, pageSize))
}

func TestBrowseDebounce(t *testing.T) {
	var m tea.Model = testBrowseModel(30)
	var cmd tea.Cmd
	for _, r := range "pdf" {
		m, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		require.NotNil(t, cmd)
	}
	bm := m.(browseModel)
	require.Equal(t, uint64(3), bm.seq)
	require.Equal(t, 2, bm.browser.Total(), "no search before the pause")

	m, _ = m.Update(searchMsg{seq: 1, query: "p"})
	require.Equal(t, 2, m.(browseModel).browser.Total(), "stale searches are dropped")

	m, _ = m.Update(searchMsg{seq: 3, query: "pdf"})
	bm = m.(browseModel)
	require.Equal(t, "pdf", bm.browser.Query())
	require.Equal(t, 1, bm.browser.Total())

	m, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	bm = m.(browseModel)
	require.NotNil(t, bm.selected)
	require.Equal(t, "pdf", bm.selected.ID)
}

func TestBrowseLoadMore(t *testing.T) {
	var m tea.Model = testBrowseModel(1)
	require.Len(t, m.(browseModel).browser.Visible(), 1)
	require.Contains(t, m.View(), "load 1 more (1 remaining)")

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	bm := m.(browseModel)
	require.Len(t, bm.browser.Visible(), 2)
	require.Equal(t, 1, bm.cursor)
	require.NotContains(t, m.View(), "remaining")

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	require.Equal(t, 1, m.(browseModel).cursor)
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyUp})
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyUp})
	require.Equal(t, 0, m.(browseModel).cursor)
}

func TestBrowseQuitWithoutSelection(t *testing.T) {
	var m tea.Model = testBrowseModel(30)
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	require.Nil(t, m.(browseModel).selected)
}
