package probe

import "context"

// memReader is the one emulator capability the probe needs. It is
// satisfied by emulator.Capability but declared locally so this package
// doesn't import emulator just for one method's shape.
type memReader interface {
	ReadU8(ctx context.Context, addr uint32) (byte, error)
}

// Probe binds a detected game to a memory source and exposes the two
// telemetry reads the supervisor schedules at their own cadence (~1 Hz
// party, ~2 Hz location).
type Probe struct {
	mem  memReader
	game Game
}

// New detects the game from code and returns a bound Probe. If code isn't
// a recognised Gen III title, Party and Location both return their zero
// value with ok=false — callers should log once and stop scheduling probe
// reads for the session.
func New(mem memReader, code string) *Probe {
	return &Probe{mem: mem, game: DetectGame(code)}
}

// Recognised reports whether the detected game has known offset tables.
func (p *Probe) Recognised() bool {
	return p.game != Unknown
}

// Game returns the detected title.
func (p *Probe) Game() Game {
	return p.game
}

// Party reads the current party, or (nil, false, nil) if the title is
// unrecognised.
func (p *Probe) Party(ctx context.Context) ([]Pokemon, bool, error) {
	if !p.Recognised() {
		return nil, false, nil
	}
	party, err := ReadParty(ctx, p.mem, p.game)
	if err != nil {
		return nil, false, err
	}
	return party, true, nil
}

// Location reads the player's current position, or (Location{}, false,
// nil) if the title is unrecognised.
func (p *Probe) Location(ctx context.Context) (Location, bool, error) {
	if !p.Recognised() {
		return Location{}, false, nil
	}
	loc, err := ReadLocation(ctx, p.mem)
	if err != nil {
		return Location{}, false, err
	}
	return loc, true, nil
}
