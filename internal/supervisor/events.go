package supervisor

import (
	"context"
	"encoding/json"
	"math"

	"github.com/jetsetilly/crowdcade/internal/logger"
)

func bitsFromFloat64(f float64) uint64 { return math.Float64bits(f) }
func float64FromBits(b uint64) float64 { return math.Float64frombits(b) }

// gameState mirrors the "Game state event" record in the data model,
// adding the two fields (uptime_s, emulator_fps) only the supervisor owns.
type gameState struct {
	Mode                string         `json:"mode"`
	QueueDepth          int            `json:"queue_depth"`
	RecentInputs        []recentInput  `json:"recent_inputs"`
	Votes               map[string]int `json:"votes"`
	VoteTimeRemainingMs int64          `json:"vote_time_remaining_ms"`
	ModeVotes           map[string]int `json:"mode_votes"`
	TotalInputs         uint64         `json:"total_inputs"`
	UptimeSecs          float64        `json:"uptime_s"`
	EmulatorFPS         float64        `json:"emulator_fps"`
}

type recentInput struct {
	User   string `json:"user"`
	Button string `json:"button"`
	TsMs   int64  `json:"ts_ms"`
}

func (s *Supervisor) publishState(nowMs int64) {
	snap := s.arb.Snapshot(nowMs)

	recents := make([]recentInput, len(snap.RecentInputs))
	for i, r := range snap.RecentInputs {
		recents[i] = recentInput{User: r.User, Button: r.Button.String(), TsMs: r.TsMs}
	}

	gs := gameState{
		Mode:                snap.Mode.String(),
		QueueDepth:          snap.QueueDepth,
		RecentInputs:        recents,
		Votes:               snap.Votes,
		VoteTimeRemainingMs: snap.VoteTimeRemainingMs,
		ModeVotes:           snap.ModeVotes,
		TotalInputs:         snap.TotalInputs,
		UptimeSecs:          s.Uptime().Seconds(),
		EmulatorFPS:         s.FPS(),
	}

	data, err := json.Marshal(gs)
	if err != nil {
		logger.Errorf(logger.Allow, "supervisor", "marshal game state: %v", err)
		return
	}
	s.pub.PublishState(data)
}

func (s *Supervisor) publishParty(ctx context.Context) {
	party, ok, err := s.probe.Party(ctx)
	if err != nil {
		logger.Warnf(logger.Allow, "probe", "party read: %v", err)
		return
	}
	if !ok {
		return
	}
	data, err := json.Marshal(party)
	if err != nil {
		logger.Errorf(logger.Allow, "probe", "marshal party: %v", err)
		return
	}
	s.pub.PublishParty(data)
}

func (s *Supervisor) publishLocation(ctx context.Context) {
	loc, ok, err := s.probe.Location(ctx)
	if err != nil {
		logger.Warnf(logger.Allow, "probe", "location read: %v", err)
		return
	}
	if !ok {
		return
	}
	data, err := json.Marshal(loc)
	if err != nil {
		logger.Errorf(logger.Allow, "probe", "marshal location: %v", err)
		return
	}
	s.pub.PublishLocation(data)
}
