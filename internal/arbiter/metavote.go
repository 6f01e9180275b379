package arbiter

// metaVoteEntry is one user's currently-standing preference for which mode
// the arbiter should be in. A user resubmitting a meta-vote replaces their
// previous entry rather than accumulating an unbounded history — this keeps
// the meta-vote set bounded by active participants instead of by message
// volume, while the 60s horizon in expireMetaVotes still ages out anyone
// who stops reiterating their preference.
type metaVoteEntry struct {
	wantMode Mode
	tsMs     int64
}

// expireMetaVotes drops entries older than the horizon. Called before every
// evaluation so a stale majority can never trigger a flip.
func (a *Arbiter) expireMetaVotes(nowMs int64) {
	for user, e := range a.metaVotes {
		if nowMs-e.tsMs > a.cfg.MetaVoteHorizon.Milliseconds() {
			delete(a.metaVotes, user)
		}
	}
}

// submitMetaVote records user's standing preference and, if the threshold,
// minimum participation, and cooldown all clear, flips the mode.
func (a *Arbiter) submitMetaVote(user string, wantMode Mode, nowMs int64) {
	a.expireMetaVotes(nowMs)
	a.metaVotes[user] = metaVoteEntry{wantMode: wantMode, tsMs: nowMs}

	other := otherMode(a.mode)
	total := len(a.metaVotes)
	if total < a.cfg.MetaVoteMinTotal {
		return
	}

	var countOther int
	for _, e := range a.metaVotes {
		if e.wantMode == other {
			countOther++
		}
	}

	if float64(countOther)/float64(total) < a.cfg.MetaVoteThreshold {
		return
	}

	if a.hasSwitched && nowMs-a.lastSwitchMs < a.cfg.MetaVoteCooldown.Milliseconds() {
		return
	}

	a.flipMode(other, nowMs)
}

// flipMode replaces the active mode's state wholesale, per the tagged
// variant design: a flip swaps AnarchyState/DemocracyState rather than
// mutating either in place.
func (a *Arbiter) flipMode(to Mode, nowMs int64) {
	a.mode = to
	a.anarchy = &anarchyQueue{}
	a.democracy = newDemocracyWindow(nowMs + a.cfg.VoteWindow.Milliseconds())
	a.lastSwitchMs = nowMs
	a.hasSwitched = true
	a.metaVotes = make(map[string]metaVoteEntry)
	if a.onModeSwitch != nil {
		a.onModeSwitch(to)
	}
}

func otherMode(m Mode) Mode {
	if m == Anarchy {
		return Democracy
	}
	return Anarchy
}
