// Package supervisor runs the dedicated frame loop: it drives the emulator
// at a fixed wall-clock cadence, pulls exactly one arbitrated input per
// frame, merges in any back-channel held keys, and publishes frame, audio,
// state, party and location events. Cadence correction is adapted from the
// teacher's performance/limiter package (deadline-based self-correcting
// sleep) generalized from a single Wait() call into the full per-tick
// pipeline described in the design.
package supervisor

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jetsetilly/crowdcade/internal/arbiter"
	"github.com/jetsetilly/crowdcade/internal/assertx"
	"github.com/jetsetilly/crowdcade/internal/button"
	"github.com/jetsetilly/crowdcade/internal/curated"
	"github.com/jetsetilly/crowdcade/internal/emulator"
	"github.com/jetsetilly/crowdcade/internal/logger"
	"github.com/jetsetilly/crowdcade/internal/notifications"
	"github.com/jetsetilly/crowdcade/internal/probe"
	"github.com/jetsetilly/crowdcade/internal/save"
)

// Publisher is the fabric-facing outbound surface. Declared here (rather
// than imported from the fabric package) so neither package imports the
// other; the cli package adapts a fabric.Hub to it.
type Publisher interface {
	PublishFrame(emulator.Frame)
	PublishAudio(emulator.AudioChunk)
	PublishState(data []byte)
	PublishParty(data []byte)
	PublishLocation(data []byte)
}

// CommandKind enumerates the terminal/admin commands the frame loop
// recognises, as named in the design's cadence description.
type CommandKind int

const (
	CmdSaveNow CommandKind = iota
	CmdPause
	CmdResume
	CmdShutdown
	CmdLoad
)

// Command is one request delivered non-blockingly into the frame loop.
// SnapshotID is only meaningful for CmdLoad. Err, if non-nil, receives the
// command's result (nil on success) once it has been fully applied, or an
// error if the command queue was full (used by the admin surface's POST
// save, which waits up to 2s for completion).
type Command struct {
	Kind       CommandKind
	SnapshotID string
	Err        chan<- error
}

// Config holds the supervisor's own cadence tunables.
type Config struct {
	TickRate              time.Duration // T_f, nominal 1/60s
	StateTickInterval     time.Duration // ~250ms
	SaveTickInterval      time.Duration // default 5min
	PartyProbeInterval    time.Duration // ~1Hz
	LocationProbeInterval time.Duration // ~2Hz
}

// DefaultConfig returns the cadences named in the design.
func DefaultConfig() Config {
	return Config{
		TickRate:              time.Second / 60,
		StateTickInterval:     250 * time.Millisecond,
		SaveTickInterval:      5 * time.Minute,
		PartyProbeInterval:    time.Second,
		LocationProbeInterval: 500 * time.Millisecond,
	}
}

// Supervisor owns the emulator, runs the fixed-cadence frame loop, and
// coordinates the arbiter, save manager, memory probe, and fabric
// publisher around it.
type Supervisor struct {
	cfg   Config
	emu   emulator.Capability
	arb   *arbiter.Arbiter
	saver *save.Manager
	pub   Publisher
	probe *probe.Probe
	notify notifications.Notify

	cmds chan Command

	paused atomic.Bool
	fps    atomic.Uint64 // bits of a float64, observed fps

	heldMu       sync.Mutex
	heldByClient map[string]uint16

	startedAt time.Time

	// loopGoroutine catches the one way the concurrency model in §5 could
	// silently break: something else getting scheduled onto the frame
	// loop's goroutine.
	loopGoroutine assertx.SameGoroutine
}

// New constructs a Supervisor. probeSrc may be nil if the loaded title
// isn't a recognised Gen III game, in which case party/location ticks are
// silently skipped.
func New(cfg Config, emu emulator.Capability, arb *arbiter.Arbiter, saver *save.Manager, pub Publisher, probeSrc *probe.Probe) *Supervisor {
	return &Supervisor{
		cfg:          cfg,
		emu:          emu,
		arb:          arb,
		saver:        saver,
		pub:          pub,
		probe:        probeSrc,
		cmds:         make(chan Command, 8),
		heldByClient: make(map[string]uint16),
	}
}

// SetNotifier wires a subscriber for save and game-detection notices.
// Optional; a Supervisor with no notifier set simply skips the call.
func (s *Supervisor) SetNotifier(n notifications.Notify) {
	s.notify = n
	if s.probe == nil {
		return
	}
	if s.probe.Recognised() {
		s.fire(notifications.NotifyGameDetected)
	} else {
		s.fire(notifications.NotifyGameUnrecognised)
	}
}

func (s *Supervisor) fire(n notifications.Notice) {
	if s.notify == nil {
		return
	}
	if err := s.notify.Notify(n); err != nil {
		logger.Debugf(logger.Allow, "supervisor", "notify %s: %v", n, err)
	}
}

// SubmitCommand enqueues cmd for the next tick. Non-blocking: if the
// command channel is full, the command is dropped and an error logged —
// the admin surface is expected to retry or surface a timeout to its
// caller.
func (s *Supervisor) SubmitCommand(cmd Command) {
	select {
	case s.cmds <- cmd:
	default:
		logger.Warnf(logger.Allow, "supervisor", "command channel full, dropping %v", cmd.Kind)
		if cmd.Err != nil {
			cmd.Err <- curated.Errorf(curated.Supervisor, "command queue full")
		}
	}
}

// SetHeldKey records clientID's contribution to the held-key bitmask.
// Multiple clients holding the same button OR together; releasing one
// client's hold of a button other clients still hold leaves it set.
func (s *Supervisor) SetHeldKey(clientID string, b button.Button, down bool) {
	s.heldMu.Lock()
	defer s.heldMu.Unlock()
	mask := s.heldByClient[clientID]
	if down {
		mask |= b.Bit()
	} else {
		mask &^= b.Bit()
	}
	s.heldByClient[clientID] = mask
}

// ReleaseClient clears every button clientID was holding, called by the
// fabric on disconnect.
func (s *Supervisor) ReleaseClient(clientID string) {
	s.heldMu.Lock()
	defer s.heldMu.Unlock()
	delete(s.heldByClient, clientID)
}

func (s *Supervisor) heldMask() uint16 {
	s.heldMu.Lock()
	defer s.heldMu.Unlock()
	var mask uint16
	for _, m := range s.heldByClient {
		mask |= m
	}
	return mask
}

// FPS returns the supervisor's observed cadence, not the nominal target.
func (s *Supervisor) FPS() float64 {
	return float64FromBits(s.fps.Load())
}

// Uptime returns wall-clock time since Run was entered.
func (s *Supervisor) Uptime() time.Duration {
	if s.startedAt.IsZero() {
		return 0
	}
	return time.Since(s.startedAt)
}

// Paused reports whether the loop is currently paused.
func (s *Supervisor) Paused() bool {
	return s.paused.Load()
}

// Run drives the frame loop until ctx is cancelled or a shutdown command
// is processed. It never returns an error for ordinary cadence drift; it
// returns non-nil only for a supervisor-fatal condition (a StepFrame error
// the emulator capability could not recover from).
func (s *Supervisor) Run(ctx context.Context) error {
	s.startedAt = time.Now()

	var fpsWindow []time.Time
	const fpsWindowSize = 60

	nowMs := func() int64 { return time.Since(s.startedAt).Milliseconds() }

	nextTick := time.Now()
	nextStateTick := time.Now()
	nextSaveTick := time.Now().Add(s.cfg.SaveTickInterval)
	nextPartyTick := time.Now()
	nextLocationTick := time.Now()

	for {
		if !s.loopGoroutine.Check() {
			logger.Errorf(logger.Allow, "supervisor", "frame loop invoked from an unexpected goroutine")
		}

		select {
		case <-ctx.Done():
			return nil
		case cmd := <-s.cmds:
			if shutdown, err := s.applyCommand(ctx, cmd); err != nil {
				return err
			} else if shutdown {
				return nil
			}
		default:
		}

		if s.paused.Load() {
			time.Sleep(s.cfg.TickRate)
			continue
		}

		b, ok := s.arb.PopNext(nowMs())
		mask := s.heldMask()
		if ok {
			mask |= b.Bit()
		}

		frame, audio, err := s.emu.StepFrame(mask)
		if err != nil {
			return curated.Op(curated.Supervisor, "step emulator frame", "%w", err)
		}

		now := time.Now()
		fpsWindow = append(fpsWindow, now)
		if len(fpsWindow) > fpsWindowSize {
			fpsWindow = fpsWindow[len(fpsWindow)-fpsWindowSize:]
		}
		if len(fpsWindow) >= 2 {
			elapsed := fpsWindow[len(fpsWindow)-1].Sub(fpsWindow[0]).Seconds()
			if elapsed > 0 {
				s.fps.Store(bitsFromFloat64(float64(len(fpsWindow)-1) / elapsed))
			}
		}

		if !now.Before(nextTick) {
			s.pub.PublishFrame(frame)
			s.pub.PublishAudio(audio)
		}

		if !now.Before(nextStateTick) {
			s.publishState(nowMs())
			nextStateTick = nextStateTick.Add(s.cfg.StateTickInterval)
		}
		if !now.Before(nextSaveTick) {
			s.requestSave(ctx)
			nextSaveTick = nextSaveTick.Add(s.cfg.SaveTickInterval)
		}
		if s.probe != nil && s.probe.Recognised() {
			if !now.Before(nextPartyTick) {
				s.publishParty(ctx)
				nextPartyTick = nextPartyTick.Add(s.cfg.PartyProbeInterval)
			}
			if !now.Before(nextLocationTick) {
				s.publishLocation(ctx)
				nextLocationTick = nextLocationTick.Add(s.cfg.LocationProbeInterval)
			}
		}

		nextTick = nextTick.Add(s.cfg.TickRate)
		if sleep := time.Until(nextTick); sleep > 0 {
			time.Sleep(sleep)
		} else if -sleep > s.cfg.TickRate {
			// clock has drifted past by more than one frame: resync the
			// deadline to now. We still stepped the emulator above —
			// dropped frames never mean dropped inputs.
			nextTick = time.Now()
		}
	}
}

// applyCommand executes one admin/terminal command. Returns shutdown=true
// when the loop should exit.
func (s *Supervisor) applyCommand(ctx context.Context, cmd Command) (shutdown bool, err error) {
	switch cmd.Kind {
	case CmdPause:
		s.paused.Store(true)
		s.ack(cmd, nil)
	case CmdResume:
		s.paused.Store(false)
		s.ack(cmd, nil)
	case CmdSaveNow:
		s.ack(cmd, s.requestSave(ctx))
	case CmdLoad:
		s.ack(cmd, s.loadSnapshot(cmd.SnapshotID))
	case CmdShutdown:
		saveErr := s.requestSave(ctx)
		if saveErr != nil {
			logger.Errorf(logger.Allow, "supervisor", "final save before shutdown failed: %v", saveErr)
		}
		if err := s.saver.WriteCleanShutdownMarker(); err != nil {
			logger.Errorf(logger.Allow, "supervisor", "writing clean shutdown marker: %v", err)
		}
		s.fire(notifications.NotifyCleanShutdown)
		s.ack(cmd, nil)
		return true, nil
	}
	return false, nil
}

func (s *Supervisor) ack(cmd Command, err error) {
	if cmd.Err != nil {
		cmd.Err <- err
	}
}

func (s *Supervisor) requestSave(ctx context.Context) error {
	blob, err := s.emu.SaveState()
	if err != nil {
		logger.Errorf(logger.Allow, "save", "serialise emulator state: %v", err)
		return curated.Op(curated.Save, "serialise emulator state", "%w", err)
	}
	name, err := s.saver.Snapshot(ctx, blob, time.Now())
	if err != nil {
		logger.Errorf(logger.Allow, "save", "write snapshot: %v", err)
		return err
	}
	logger.Logf(logger.Allow, "save", "wrote snapshot %s", name)
	s.fire(notifications.NotifySaveWritten)
	return nil
}

func (s *Supervisor) loadSnapshot(name string) error {
	blob, err := s.saver.Read(name)
	if err != nil {
		return err
	}
	if err := s.emu.LoadState(blob); err != nil {
		return curated.Op(curated.Save, "restore snapshot "+name, "%w", err)
	}
	s.fire(notifications.NotifySaveRestored)
	return nil
}
