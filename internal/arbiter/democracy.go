package arbiter

import (
	"github.com/jetsetilly/crowdcade/internal/button"
	"github.com/jetsetilly/crowdcade/internal/rng"
)

// voteKey identifies a distinct candidate in a democracy window's tally.
// Critically, "right" and "right3" are different candidates: tallying by
// the literal token (button + multiplier), not just the button, is what
// lets a single heavily-multiplied vote expand differently from several
// plain votes for the same button — see the democracy pop semantics in
// Arbiter.PopNext.
type voteKey struct {
	wait bool
	btn  button.Button
	mult int // 1 for a bare button vote
}

// democracyWindow is the DemocracyState half of the tagged variant: a
// fixed-duration plurality vote, plus any pending button presses still
// draining from the previous window's winner.
type democracyWindow struct {
	deadlineMs int64
	tally      map[voteKey]int
	voters     map[string]bool
	pending    []button.Button
}

func newDemocracyWindow(deadlineMs int64) *democracyWindow {
	return &democracyWindow{
		deadlineMs: deadlineMs,
		tally:      make(map[voteKey]int),
		voters:     make(map[string]bool),
	}
}

// vote records user's ballot if they haven't already voted this window.
// Returns whether the vote was accepted.
func (w *democracyWindow) vote(user string, key voteKey) bool {
	if w.voters[user] {
		return false
	}
	w.voters[user] = true
	weight := key.mult
	if weight == 0 {
		weight = 1
	}
	w.tally[key] += weight
	return true
}

// close picks the plurality winner (uniform tie-break among the top tally
// via rnd) and, unless the winner is "wait" or the tally is empty, queues
// that winning candidate's own expansion into pending.
func (w *democracyWindow) close(rnd rng.Source) {
	if len(w.tally) == 0 {
		return
	}

	best := 0
	var top []voteKey
	for k, v := range w.tally {
		switch {
		case v > best:
			best = v
			top = []voteKey{k}
		case v == best:
			top = append(top, k)
		}
	}

	winner := top[0]
	if len(top) > 1 {
		winner = top[rnd.Intn(len(top))]
	}

	if winner.wait {
		return
	}

	n := winner.mult
	if n == 0 {
		n = 1
	}
	for i := 0; i < n; i++ {
		w.pending = append(w.pending, winner.btn)
	}
}

// popPending drains one queued button from a resolved window, if any.
func (w *democracyWindow) popPending() (button.Button, bool) {
	if len(w.pending) == 0 {
		return 0, false
	}
	b := w.pending[0]
	w.pending = w.pending[1:]
	return b, true
}
