package emulator

import (
	"context"
	"encoding/binary"
	"fmt"
)

// Fake is a deterministic in-memory Capability used by tests and by the
// supervisor's own test suite. It does not decode or execute a cartridge: it
// advances a frame counter, writes it into a fixed memory region so the
// probe package has something real to read, and echoes the held keypad
// state back as "audio" so tests can assert on what was actually stepped.
type Fake struct {
	gameCode string
	mem      [1 << 16]byte
	frame    uint64
	lastHeld uint16
	failNext bool
}

// NewFake returns a Fake reporting gameCode from GameCode.
func NewFake(gameCode string) *Fake {
	return &Fake{gameCode: gameCode}
}

// WriteMem pokes a byte directly into the fake's memory, for tests that set
// up probe fixtures.
func (f *Fake) WriteMem(addr uint32, b byte) {
	f.mem[uint16(addr)] = b
}

// FailNextStep makes the following StepFrame call return an error once.
func (f *Fake) FailNextStep() {
	f.failNext = true
}

func (f *Fake) StepFrame(held uint16) (Frame, AudioChunk, error) {
	if f.failNext {
		f.failNext = false
		return nil, nil, fmt.Errorf("fake emulator: forced step failure")
	}
	f.frame++
	f.lastHeld = held
	binary.LittleEndian.PutUint64(f.mem[0:8], f.frame)

	frame := make(Frame, FrameWidth*FrameHeight/8)
	for i := range frame {
		frame[i] = byte(f.frame)
	}

	audio := make(AudioChunk, 4)
	binary.LittleEndian.PutUint16(audio[0:2], held)
	binary.LittleEndian.PutUint16(audio[2:4], uint16(f.frame))

	return frame, audio, nil
}

func (f *Fake) ReadU8(_ context.Context, addr uint32) (byte, error) {
	return f.mem[uint16(addr)], nil
}

func (f *Fake) SaveState() ([]byte, error) {
	state := make([]byte, 8+len(f.mem))
	binary.LittleEndian.PutUint64(state[0:8], f.frame)
	copy(state[8:], f.mem[:])
	return state, nil
}

func (f *Fake) LoadState(b []byte) error {
	if len(b) != 8+len(f.mem) {
		return fmt.Errorf("fake emulator: state blob wrong size: got %d want %d", len(b), 8+len(f.mem))
	}
	f.frame = binary.LittleEndian.Uint64(b[0:8])
	copy(f.mem[:], b[8:])
	return nil
}

func (f *Fake) GameCode() string {
	return f.gameCode
}

// LastHeld reports the keypad bitmask passed to the most recent StepFrame,
// for supervisor tests asserting on held-key merging.
func (f *Fake) LastHeld() uint16 {
	return f.lastHeld
}

// FrameCount reports how many frames have been stepped.
func (f *Fake) FrameCount() uint64 {
	return f.frame
}
