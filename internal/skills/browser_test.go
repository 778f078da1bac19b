package skills

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBrowser(t *testing.T) {
	items := make([]Summary, 0, 70)
	for i := range 70 {
		name := fmt.Sprintf("tool %d", i)
		if i%2 == 0 {
			name = fmt.Sprintf("agent %d", i)
		}
		items = append(items, Summary{ID: fmt.Sprint(i), Name: name})
	}
	b := NewBrowser(NewIndex(items), 30)

	require.Equal(t, 70, b.Total())
	require.Len(t, b.Visible(), 30)
	require.Equal(t, 40, b.Remaining())
	require.Equal(t, 30, b.NextBatch())

	require.True(t, b.LoadMore())
	require.Len(t, b.Visible(), 60)
	require.Equal(t, 10, b.NextBatch())

	require.True(t, b.LoadMore())
	require.Len(t, b.Visible(), 70)
	require.False(t, b.HasMore())
	require.False(t, b.LoadMore())

	b.SetQuery("agent")
	require.Equal(t, "agent", b.Query())
	require.Equal(t, 35, b.Total())
	require.Len(t, b.Visible(), 30, "a new query starts on the first page")
	require.Equal(t, 5, b.Remaining())

	b.SetQuery("nothing like it")
	require.Empty(t, b.Visible())
	require.False(t, b.HasMore())
}

func TestBrowserDefaultPageSize(t *testing.T) {
	b := NewBrowser(NewIndex(nil), 0)
	require.Empty(t, b.Visible())
	require.Zero(t, b.NextBatch())
}
