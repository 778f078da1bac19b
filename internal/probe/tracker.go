package probe

import (
	"context"
	"sync"

	"github.com/getclawkit/clawkit/internal/agentconfig"
)

// Tracker makes sure only the most recent probe is reported. Starting a
// probe cancels the one in flight, and results carrying an older sequence
// number are dropped.
type Tracker struct {
	mu     sync.Mutex
	seq    uint64
	cancel context.CancelFunc
	latest Result
}

// Start begins a new probe. It cancels the previous one and returns the
// context the new probe must run under, with its sequence number.
func (t *Tracker) Start(ctx context.Context) (context.Context, uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancel != nil {
		t.cancel()
	}
	t.seq++
	ctx, t.cancel = context.WithCancel(ctx)
	return ctx, t.seq
}

// Accept records the result if it belongs to the latest probe. It reports
// whether the result was kept.
func (t *Tracker) Accept(seq uint64, res Result) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if seq != t.seq {
		return false
	}
	res.Seq = seq
	t.latest = res
	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
	return true
}

// Reset invalidates any probe in flight, as happens when the configuration
// is edited.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
	t.seq++
	t.latest = Result{}
}

// Latest returns the last accepted result.
func (t *Tracker) Latest() (Result, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.latest, t.latest.Status != ""
}

// Run starts a probe through the tracker and returns its result, and
// whether it is still the latest.
func (t *Tracker) Run(ctx context.Context, p *Prober, llm agentconfig.LLM) (Result, bool) {
	ctx, seq := t.Start(ctx)
	res := p.Test(ctx, llm)
	res.Seq = seq
	return res, t.Accept(seq, res)
}
