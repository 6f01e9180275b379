package cli

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jetsetilly/crowdcade/internal/emulator"
	"github.com/jetsetilly/crowdcade/internal/save"
)

func TestGBAGameCodeReadsFixedOffset(t *testing.T) {
	rom := make([]byte, 0xB0)
	copy(rom[0xAC:0xB0], []byte("BPEE"))
	assert.Equal(t, "BPEE", gbaGameCode(rom))
}

func TestGBAGameCodeShortHeaderReturnsEmpty(t *testing.T) {
	assert.Equal(t, "", gbaGameCode(make([]byte, 4)))
}

func TestRestoreConsumesCleanShutdownMarker(t *testing.T) {
	m := save.New(t.TempDir())
	require.NoError(t, m.WriteCleanShutdownMarker())
	emu := emulator.NewFake("BPEE")

	require.NoError(t, restore(m, emu, true))
	assert.False(t, m.CleanShutdownMarkerPresent())
	assert.Equal(t, uint64(0), emu.FrameCount())
}

func TestRestoreLoadsNewestSnapshotOnCrash(t *testing.T) {
	m := save.New(t.TempDir())
	emu := emulator.NewFake("BPEE")
	emu.StepFrame(0)
	emu.StepFrame(0)
	blob, err := emu.SaveState()
	require.NoError(t, err)

	_, err = m.Snapshot(context.Background(), blob, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	fresh := emulator.NewFake("BPEE")
	require.NoError(t, restore(m, fresh, true))
	assert.Equal(t, uint64(2), fresh.FrameCount())
}

func TestRestoreSkipsCorruptNewestSnapshot(t *testing.T) {
	m := save.New(t.TempDir())
	good := emulator.NewFake("BPEE")
	good.StepFrame(0)
	goodBlob, err := good.SaveState()
	require.NoError(t, err)

	_, err = m.Snapshot(context.Background(), goodBlob, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	_, err = m.Snapshot(context.Background(), []byte("not a valid state blob"), time.Date(2026, 1, 1, 0, 0, 1, 0, time.UTC))
	require.NoError(t, err)

	fresh := emulator.NewFake("BPEE")
	require.NoError(t, restore(m, fresh, true))
	assert.Equal(t, uint64(1), fresh.FrameCount())
}

func TestRestoreDisabledLeavesEmulatorFresh(t *testing.T) {
	m := save.New(t.TempDir())
	good := emulator.NewFake("BPEE")
	good.StepFrame(0)
	goodBlob, err := good.SaveState()
	require.NoError(t, err)
	_, err = m.Snapshot(context.Background(), goodBlob, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	fresh := emulator.NewFake("BPEE")
	require.NoError(t, restore(m, fresh, false))
	assert.Equal(t, uint64(0), fresh.FrameCount())
}

func TestHostPortDefaultsHost(t *testing.T) {
	assert.Equal(t, "0.0.0.0:8081", hostPort("", "8081"))
	assert.Equal(t, "127.0.0.1:8081", hostPort("127.0.0.1", "8081"))
}

func TestHasHostPort(t *testing.T) {
	assert.False(t, hasHostPort("8082"))
	assert.True(t, hasHostPort(":8082"))
	assert.True(t, hasHostPort("localhost:8082"))
}
