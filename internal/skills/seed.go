package skills

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"
)

// SeedReport is the outcome of a seed run.
type SeedReport struct {
	Total   int      `json:"total"`
	Created int      `json:"created"`
	Updated int      `json:"updated"`
	Skipped int      `json:"skipped"`
	Errors  []string `json:"errors,omitempty"`
}

// Written is the number of records saved.
func (r SeedReport) Written() int { return r.Created + r.Updated }

// MaxReportedErrors caps the errors kept in a report.
const MaxReportedErrors = 20

// BatchSize is how many records are written concurrently.
const BatchSize = 50

// Seed upserts every skill of the feed, BatchSize records at a time. A
// failing record is reported and does not stop the run; only a canceled
// context does. The progress callback, if set, is called after every batch.
func Seed(ctx context.Context, store *Store, feed Feed, progress func(done, total int)) (SeedReport, error) {
	rep := SeedReport{Total: feed.Total, Skipped: feed.Skipped}
	var mu sync.Mutex
	for start := 0; start < len(feed.Skills); start += BatchSize {
		if err := ctx.Err(); err != nil {
			return rep, fmt.Errorf("seed interrupted: %w", err)
		}
		batch := feed.Skills[start:min(start+BatchSize, len(feed.Skills))]
		var g errgroup.Group
		for _, sk := range batch {
			g.Go(func() error {
				created, err := store.Upsert(ctx, sk)
				mu.Lock()
				defer mu.Unlock()
				switch {
				case err != nil:
					rep.addError(fmt.Sprintf("%s: %v", sk.ID, err))
				case created:
					rep.Created++
				default:
					rep.Updated++
				}
				return nil
			})
		}
		_ = g.Wait()
		if progress != nil {
			progress(start+len(batch), len(feed.Skills))
		}
	}
	return rep, nil
}

func (r *SeedReport) addError(msg string) {
	if len(r.Errors) < MaxReportedErrors {
		r.Errors = append(r.Errors, msg)
	}
}

// Verification compares a feed with the store.
type Verification struct {
	FeedCount  int      `json:"feedCount"`
	StoreCount int      `json:"storeCount"`
	Missing    []string `json:"missingInStore"`
	Extra      []string `json:"extraInStore"`
}

// OK reports whether the store holds exactly the feed.
func (v Verification) OK() bool {
	return len(v.Missing) == 0 && len(v.Extra) == 0
}

// Verify reports the IDs of the feed that are not stored and the stored IDs
// that are not in the feed, both sorted.
func Verify(ctx context.Context, store *Store, feed Feed) (Verification, error) {
	stored, err := store.IDs(ctx)
	if err != nil {
		return Verification{}, err
	}
	want := map[string]struct{}{}
	for _, id := range feed.IDs() {
		want[id] = struct{}{}
	}
	have := map[string]struct{}{}
	for _, id := range stored {
		have[id] = struct{}{}
	}

	v := Verification{
		FeedCount:  len(want),
		StoreCount: len(have),
		Missing:    []string{},
		Extra:      []string{},
	}
	for id := range want {
		if _, ok := have[id]; !ok {
			v.Missing = append(v.Missing, id)
		}
	}
	for id := range have {
		if _, ok := want[id]; !ok {
			v.Extra = append(v.Extra, id)
		}
	}
	slices.Sort(v.Missing)
	slices.Sort(v.Extra)
	return v, nil
}
