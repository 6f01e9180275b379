// Package button defines the fixed set of console inputs that the grammar,
// arbiter, and emulator supervisor all speak in terms of.
package button

import "fmt"

// Button is a closed set of the ten console inputs. The zero value is A;
// construct via the named constants or Parse.
type Button int

const (
	A Button = iota
	B
	Select
	Start
	Right
	Left
	Up
	Down
	R
	L
)

// count is the number of valid buttons, used to size bitmasks and validate
// wire ids.
const count = 10

// names gives Button's wire-stable string form, also used as the grammar's
// bare-token vocabulary (lowercased by the caller before lookup).
var names = [count]string{
	A:      "a",
	B:      "b",
	Select: "select",
	Start:  "start",
	Right:  "right",
	Left:   "left",
	Up:     "up",
	Down:   "down",
	R:      "r",
	L:      "l",
}

// String returns the button's canonical lowercase name.
func (b Button) String() string {
	if b < 0 || int(b) >= count {
		return fmt.Sprintf("button(%d)", int(b))
	}
	return names[b]
}

// Valid reports whether b is one of the ten defined buttons.
func (b Button) Valid() bool {
	return b >= 0 && int(b) < count
}

// Bit returns the button's one-hot position in a held-key bitmask: bit
// index equal to its wire id.
func (b Button) Bit() uint16 {
	return 1 << uint16(b)
}

// Parse looks up a button by its lowercase name, as produced by the chat
// grammar. The second return value is false if name isn't a recognised
// button.
func Parse(name string) (Button, bool) {
	for i, n := range names {
		if n == name {
			return Button(i), true
		}
	}
	return 0, false
}

// All returns every defined button in wire-id order, for iteration (e.g.
// building a tally in the democracy vote window).
func All() []Button {
	out := make([]Button, count)
	for i := range out {
		out[i] = Button(i)
	}
	return out
}
