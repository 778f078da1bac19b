package skills

// Browser is the state of a directory listing: the current query, its
// results and how many of them have been revealed with "load more".
type Browser struct {
	index    *Index
	pageSize int
	query    string
	results  []Summary
	pages    int
}

// NewBrowser returns a browser showing the whole index.
func NewBrowser(idx *Index, pageSize int) *Browser {
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	b := &Browser{index: idx, pageSize: pageSize}
	b.SetQuery("")
	return b
}

// SetQuery runs a new search and goes back to the first page.
func (b *Browser) SetQuery(q string) {
	b.query = q
	b.results = b.index.Search(q)
	b.pages = 1
}

// Query returns the current query.
func (b *Browser) Query() string { return b.query }

// Total is the number of results of the current query.
func (b *Browser) Total() int { return len(b.results) }

// Visible returns the results revealed so far.
func (b *Browser) Visible() []Summary {
	return b.results[:b.shown()]
}

// HasMore reports whether there are results left to load.
func (b *Browser) HasMore() bool { return b.Remaining() > 0 }

// Remaining is the number of results not yet shown.
func (b *Browser) Remaining() int { return len(b.results) - b.shown() }

// NextBatch is how many results the next LoadMore reveals.
func (b *Browser) NextBatch() int { return min(b.Remaining(), b.pageSize) }

// LoadMore reveals the next page. It reports whether anything was added.
func (b *Browser) LoadMore() bool {
	if !b.HasMore() {
		return false
	}
	b.pages++
	return true
}

func (b *Browser) shown() int {
	return min(b.pages*b.pageSize, len(b.results))
}
