// Package arbiter is the vote/input engine: it turns accepted chat tokens
// into a single arbitrated button per emulator tick, under one of two
// interchangeable modes (anarchy or windowed democracy), with a meta-vote
// that flips between them under hysteresis.
//
// The whole engine is a single mutex-protected value. Submit and PopNext
// are its only two operations that matter on the hot path; everything else
// (mode flips, throttle bookkeeping) happens inside their critical
// sections. Dynamic dispatch on mode is modelled as a tagged variant — the
// anarchy and democracy fields are swapped wholesale on a flip — rather
// than subclass polymorphism, since Go has no subclassing to reach for
// anyway.
package arbiter

import (
	"sync"
	"time"

	"github.com/jetsetilly/crowdcade/internal/button"
	"github.com/jetsetilly/crowdcade/internal/grammar"
	"github.com/jetsetilly/crowdcade/internal/rng"
)

// Mode is the arbiter's process-wide, single-writer operating mode.
type Mode int

const (
	Anarchy Mode = iota
	Democracy
)

func (m Mode) String() string {
	if m == Democracy {
		return "democracy"
	}
	return "anarchy"
}

// Config holds every tunable named in the arbiter's design: rate limits,
// queue/ring capacities, vote window length, and meta-vote thresholds.
type Config struct {
	RateLimit          time.Duration // R_user, per-user accept floor
	StartThrottle      time.Duration // R_start, global floor between Start presses
	ThrottlePurgeAge    time.Duration // entries older than this are evicted from the throttle map
	QueueCapacity       int           // C_q, anarchy queue capacity
	RecentInputsCap     int           // ring capacity (~64)
	RecentInputsSnapshot int          // entries returned by Snapshot (~18)
	VoteWindow          time.Duration // W_v
	MetaVoteHorizon     time.Duration // 60s
	MetaVoteThreshold   float64       // F, 0.75
	MetaVoteMinTotal    int           // N_min, 8
	MetaVoteCooldown    time.Duration // 300s
}

// DefaultConfig returns the numeric constants named throughout the design.
func DefaultConfig() Config {
	return Config{
		RateLimit:            200 * time.Millisecond,
		StartThrottle:        5 * time.Second,
		ThrottlePurgeAge:     10 * time.Second,
		QueueCapacity:        32,
		RecentInputsCap:      64,
		RecentInputsSnapshot: 18,
		VoteWindow:           10 * time.Second,
		MetaVoteHorizon:      60 * time.Second,
		MetaVoteThreshold:    0.75,
		MetaVoteMinTotal:     8,
		MetaVoteCooldown:     300 * time.Second,
	}
}

// InputRecord is one accepted input, kept in the recent-inputs ring.
type InputRecord struct {
	User   string
	Button button.Button
	TsMs   int64
}

// Snapshot is the read-only, mutex-consistent view returned by
// Arbiter.Snapshot. It supplies every arbiter-owned field of the game state
// event; the supervisor adds uptime_s and emulator_fps, which it alone owns.
type Snapshot struct {
	Mode                Mode
	QueueDepth          int
	RecentInputs        []InputRecord  // newest-first, capped at RecentInputsSnapshot
	Votes               map[string]int // democracy tally by button name ("wait" included if voted)
	VoteTimeRemainingMs int64
	ModeVotes           map[string]int // {"anarchy": n, "democracy": n}, from the active meta-vote set
	TotalInputs         uint64
}

// Arbiter is the single mutex-protected engine. Zero value is not usable;
// construct with New.
type Arbiter struct {
	mu  sync.Mutex
	cfg Config
	rnd rng.Source

	mode      Mode
	anarchy   *anarchyQueue
	democracy *democracyWindow

	recent []InputRecord // newest-first, capped at cfg.RecentInputsCap

	lastAccept map[string]int64 // user -> last accepted ts_ms (anarchy)
	lastStart  int64
	hasStart   bool

	metaVotes    map[string]metaVoteEntry
	lastSwitchMs int64
	hasSwitched  bool // false until the first flip, so the cooldown never blocks it

	totalInputs uint64

	// onModeSwitch, if set, is invoked (outside any lock reacquisition —
	// called from inside the critical section, so it must not call back
	// into the arbiter) whenever a meta-vote or admin override flips mode.
	onModeSwitch func(Mode)
}

// New constructs an Arbiter starting in startMode.
func New(cfg Config, rnd rng.Source, startMode Mode, onModeSwitch func(Mode)) *Arbiter {
	a := &Arbiter{
		cfg:          cfg,
		rnd:          rnd,
		mode:         startMode,
		anarchy:      &anarchyQueue{},
		lastAccept:   make(map[string]int64),
		metaVotes:    make(map[string]metaVoteEntry),
		onModeSwitch: onModeSwitch,
	}
	// the first window is assumed to open at the arbiter's own t=0; nowMs
	// passed into Submit/PopNext is expected to be a monotonic millisecond
	// counter that starts near zero at process start, matching every
	// example in the design (ts=0,100,200,...), not a wall-clock unix
	// timestamp.
	a.democracy = newDemocracyWindow(cfg.VoteWindow.Milliseconds())
	return a
}

// Mode returns the arbiter's current mode.
func (a *Arbiter) Mode() Mode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.mode
}

// SetMode forces the arbiter into mode, bypassing the meta-vote threshold
// entirely. Used by the admin surface's POST mode endpoint. Resets the
// cooldown timestamp, same as a meta-vote-triggered flip.
func (a *Arbiter) SetMode(mode Mode, nowMs int64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if mode == a.mode {
		return
	}
	a.flipMode(mode, nowMs)
}

// Submit parses text and, if it yields a legal token for the current mode,
// applies throttles and mutates state accordingly. All rejections are
// silent: the only observable trace of a drop is the absence of a
// recent-inputs entry.
func (a *Arbiter) Submit(user, text string, nowMs int64) {
	toks := grammar.Parse(text)
	if len(toks) == 0 {
		return
	}
	tok := toks[0]

	a.mu.Lock()
	defer a.mu.Unlock()

	a.expireMetaVotes(nowMs)

	switch tok.Kind {
	case grammar.KindVoteAnarchy:
		a.submitMetaVote(user, Anarchy, nowMs)
	case grammar.KindVoteDemocracy:
		a.submitMetaVote(user, Democracy, nowMs)
	case grammar.KindWait:
		if a.mode != Democracy {
			return
		}
		a.closeExpiredWindow(nowMs)
		if a.democracy.vote(user, voteKey{wait: true}) {
			a.totalInputs++
		}
	case grammar.KindButton:
		a.submitButtonLike(user, tok.Button, 1, nowMs)
	case grammar.KindMultiplier:
		if a.mode != Democracy {
			// multipliers are a democracy-only construct; anarchy drops them
			return
		}
		a.submitButtonLike(user, tok.Button, tok.Multiplier, nowMs)
	}
}

// submitButtonLike handles a KindButton (mult==1) or KindMultiplier vote,
// dispatching to whichever mode is active.
func (a *Arbiter) submitButtonLike(user string, b button.Button, mult int, nowMs int64) {
	if a.mode == Anarchy {
		if mult != 1 {
			return // multipliers illegal in anarchy; Submit already filters this, belt and braces
		}
		a.submitAnarchy(user, b, nowMs)
		return
	}

	a.closeExpiredWindow(nowMs)
	if a.democracy.vote(user, voteKey{btn: b, mult: mult}) {
		a.totalInputs++
		a.appendRecent(InputRecord{User: user, Button: b, TsMs: nowMs})
	}
}

// submitAnarchy applies the per-user and Start-global throttles, then
// enqueues on success. Overflow policy is reject-the-newest: see
// anarchyQueue.tryEnqueue.
func (a *Arbiter) submitAnarchy(user string, b button.Button, nowMs int64) {
	if last, ok := a.lastAccept[user]; ok {
		if nowMs-last < a.cfg.RateLimit.Milliseconds() {
			return
		}
	}

	if b == button.Start {
		if a.hasStart && nowMs-a.lastStart < a.cfg.StartThrottle.Milliseconds() {
			return
		}
	}

	a.lastAccept[user] = nowMs
	a.purgeThrottleMap(nowMs)

	if b == button.Start {
		a.lastStart = nowMs
		a.hasStart = true
	}

	if !a.anarchy.tryEnqueue(a.cfg.QueueCapacity, b, user) {
		return
	}

	a.totalInputs++
	a.appendRecent(InputRecord{User: user, Button: b, TsMs: nowMs})
}

func (a *Arbiter) purgeThrottleMap(nowMs int64) {
	purgeAge := a.cfg.ThrottlePurgeAge.Milliseconds()
	for user, last := range a.lastAccept {
		if nowMs-last > purgeAge {
			delete(a.lastAccept, user)
		}
	}
}

// closeExpiredWindow closes the current democracy window and opens the
// next one if the deadline has passed. The new deadline is old_deadline +
// W_v, not now + W_v, so a run of empty windows doesn't let real time drift
// the schedule — see the boundary case in the design's testable properties.
func (a *Arbiter) closeExpiredWindow(nowMs int64) {
	for nowMs >= a.democracy.deadlineMs {
		a.democracy.close(a.rnd)
		pending := a.democracy.pending
		nextDeadline := a.democracy.deadlineMs + a.cfg.VoteWindow.Milliseconds()
		a.democracy = newDemocracyWindow(nextDeadline)
		a.democracy.pending = pending
	}
}

// PopNext is called once per emulator tick. It returns the next button to
// deliver, or none.
func (a *Arbiter) PopNext(nowMs int64) (button.Button, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.mode == Anarchy {
		return a.anarchy.pop()
	}

	a.closeExpiredWindow(nowMs)
	return a.democracy.popPending()
}

// appendRecent pushes a new record to the front of the ring (newest-first),
// trimming to capacity.
func (a *Arbiter) appendRecent(r InputRecord) {
	a.recent = append([]InputRecord{r}, a.recent...)
	if len(a.recent) > a.cfg.RecentInputsCap {
		a.recent = a.recent[:a.cfg.RecentInputsCap]
	}
}

// Snapshot takes a consistent, read-only view of all arbiter-owned state.
// nowMs is used only to compute VoteTimeRemainingMs; it does not mutate
// window state (a stale read of an already-expired window simply reports a
// zero or negative remaining time until the next PopNext/Submit rolls it
// over).
func (a *Arbiter) Snapshot(nowMs int64) Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	n := a.cfg.RecentInputsSnapshot
	if n > len(a.recent) {
		n = len(a.recent)
	}
	recent := make([]InputRecord, n)
	copy(recent, a.recent[:n])

	s := Snapshot{
		Mode:        a.mode,
		TotalInputs: a.totalInputs,
		RecentInputs: recent,
		ModeVotes:   map[string]int{"anarchy": 0, "democracy": 0},
	}

	if a.mode == Anarchy {
		s.QueueDepth = a.anarchy.len()
	} else {
		votes := make(map[string]int, len(a.democracy.tally))
		for k, v := range a.democracy.tally {
			if k.wait {
				votes["wait"] += v
			} else {
				votes[k.btn.String()] += v
			}
		}
		s.Votes = votes
		s.VoteTimeRemainingMs = a.democracy.deadlineMs - nowMs
		s.QueueDepth = len(a.democracy.pending)
	}

	for _, e := range a.metaVotes {
		s.ModeVotes[e.wantMode.String()]++
	}

	return s
}
