package supervisor_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jetsetilly/crowdcade/internal/arbiter"
	"github.com/jetsetilly/crowdcade/internal/button"
	"github.com/jetsetilly/crowdcade/internal/emulator"
	"github.com/jetsetilly/crowdcade/internal/rng"
	"github.com/jetsetilly/crowdcade/internal/save"
	"github.com/jetsetilly/crowdcade/internal/supervisor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePublisher struct {
	mu     sync.Mutex
	frames int
	states int
}

func (p *fakePublisher) PublishFrame(emulator.Frame) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.frames++
}
func (p *fakePublisher) PublishAudio(emulator.AudioChunk) {}
func (p *fakePublisher) PublishState(data []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.states++
}
func (p *fakePublisher) PublishParty(data []byte)    {}
func (p *fakePublisher) PublishLocation(data []byte) {}

func (p *fakePublisher) counts() (frames, states int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.frames, p.states
}

func newTestSupervisor(t *testing.T) (*supervisor.Supervisor, *fakePublisher, *emulator.Fake) {
	t.Helper()
	emu := emulator.NewFake("BPEE")
	arb := arbiter.New(arbiter.DefaultConfig(), rng.NewZeroSeed(), arbiter.Anarchy, nil)
	saver := save.New(t.TempDir())
	pub := &fakePublisher{}

	cfg := supervisor.DefaultConfig()
	cfg.TickRate = time.Millisecond
	cfg.StateTickInterval = 5 * time.Millisecond
	cfg.SaveTickInterval = time.Hour

	sup := supervisor.New(cfg, emu, arb, saver, pub, nil)
	return sup, pub, emu
}

func TestRunStepsFramesUntilCancelled(t *testing.T) {
	sup, pub, emu := newTestSupervisor(t)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	err := sup.Run(ctx)
	require.NoError(t, err)

	frames, states := pub.counts()
	assert.Greater(t, frames, 0)
	assert.Greater(t, states, 0)
	assert.Greater(t, emu.FrameCount(), uint64(0))
}

func TestPauseCommandStopsStepping(t *testing.T) {
	sup, _, emu := newTestSupervisor(t)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- sup.Run(ctx) }()

	time.Sleep(5 * time.Millisecond)
	sup.SubmitCommand(supervisor.Command{Kind: supervisor.CmdPause})
	time.Sleep(5 * time.Millisecond)
	assert.True(t, sup.Paused())

	countAtPause := emu.FrameCount()
	time.Sleep(15 * time.Millisecond)
	// frame count should not have grown much (loop sleeps a full tick while paused)
	assert.LessOrEqual(t, emu.FrameCount()-countAtPause, uint64(2))

	sup.SubmitCommand(supervisor.Command{Kind: supervisor.CmdResume})
	<-done
}

func TestHeldKeyMergesIntoStepMask(t *testing.T) {
	sup, _, emu := newTestSupervisor(t)
	sup.SetHeldKey("client1", button.A, true)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	require.NoError(t, sup.Run(ctx))

	assert.NotZero(t, emu.LastHeld()&button.A.Bit())
}

func TestReleaseClientClearsHeldKeys(t *testing.T) {
	sup, _, emu := newTestSupervisor(t)
	sup.SetHeldKey("client1", button.A, true)
	sup.ReleaseClient("client1")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	require.NoError(t, sup.Run(ctx))

	assert.Zero(t, emu.LastHeld()&button.A.Bit())
}

func TestSaveNowCommandWritesSnapshot(t *testing.T) {
	sup, _, _ := newTestSupervisor(t)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	errCh := make(chan error, 1)
	go func() { require.NoError(t, sup.Run(ctx)) }()

	time.Sleep(2 * time.Millisecond)
	sup.SubmitCommand(supervisor.Command{Kind: supervisor.CmdSaveNow, Err: errCh})

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("save command never acknowledged")
	}
}

func TestShutdownCommandEndsLoop(t *testing.T) {
	sup, _, _ := newTestSupervisor(t)

	ctx := context.Background()
	done := make(chan error, 1)
	go func() { done <- sup.Run(ctx) }()

	time.Sleep(2 * time.Millisecond)
	sup.SubmitCommand(supervisor.Command{Kind: supervisor.CmdShutdown})

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("shutdown never took effect")
	}
}
