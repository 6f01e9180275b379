// Package grammar turns one line of chat text into a sequence of canonical
// tokens. It is a pure function of the string — it never consults arbiter
// state, so the same line always parses the same way regardless of mode.
// Mode legality (e.g. "wait" only makes sense in democracy) is the
// arbiter's concern, not the grammar's.
package grammar

import (
	"strconv"
	"strings"

	"github.com/jetsetilly/crowdcade/internal/button"
)

// Kind distinguishes the shape of a parsed Token.
type Kind int

const (
	// KindButton is a bare button press, multiplier 1.
	KindButton Kind = iota
	// KindMultiplier is a democracy-only "<button><digit>" repeat.
	KindMultiplier
	// KindWait means "do nothing this window if I win" (democracy only).
	KindWait
	// KindVoteAnarchy requests a meta-vote switch to anarchy.
	KindVoteAnarchy
	// KindVoteDemocracy requests a meta-vote switch to democracy.
	KindVoteDemocracy
)

// minMultiplier and maxMultiplier bound the digit suffix on a compound
// token, e.g. right3 expands to three Right presses.
const (
	minMultiplier = 2
	maxMultiplier = 4
)

// Token is one parsed unit of chat input.
type Token struct {
	Kind       Kind
	Button     button.Button // valid for KindButton and KindMultiplier
	Multiplier int           // valid for KindMultiplier, always in [2,4]
}

// Expand returns the sequence of plain button presses this token represents
// once a mode has decided it's legal: a bare button expands to itself once,
// a multiplier expands to Multiplier copies, and Wait/meta-vote tokens
// expand to nothing (they never reach the emulator).
func (t Token) Expand() []button.Button {
	switch t.Kind {
	case KindButton:
		return []button.Button{t.Button}
	case KindMultiplier:
		out := make([]button.Button, t.Multiplier)
		for i := range out {
			out[i] = t.Button
		}
		return out
	default:
		return nil
	}
}

const (
	waitWord     = "wait"
	anarchyWord  = "anarchy"
	democracyWord = "democracy"
)

// Parse maps one line of chat text to zero or one tokens. Chat commands in
// this system are single-word — a line carries exactly one instruction, not
// a sequence — so the result is never more than one Token; callers that fed
// a whole message simply get nil back if it wasn't recognised.
func Parse(text string) []Token {
	word := strings.ToLower(strings.TrimSpace(text))
	if word == "" {
		return nil
	}

	switch word {
	case waitWord:
		return []Token{{Kind: KindWait}}
	case anarchyWord:
		return []Token{{Kind: KindVoteAnarchy}}
	case democracyWord:
		return []Token{{Kind: KindVoteDemocracy}}
	}

	if b, ok := button.Parse(word); ok {
		return []Token{{Kind: KindButton, Button: b}}
	}

	if tok, ok := parseMultiplier(word); ok {
		return []Token{tok}
	}

	return nil
}

// parseMultiplier splits a trailing single digit off word and checks that
// what remains is a button name and that the digit is in [2,4].
func parseMultiplier(word string) (Token, bool) {
	if len(word) < 2 {
		return Token{}, false
	}

	last := word[len(word)-1]
	if last < '0' || last > '9' {
		return Token{}, false
	}
	// reject a second trailing digit (e.g. "right10") outright: this
	// grammar only ever recognises a single trailing digit.
	if len(word) >= 3 {
		secondLast := word[len(word)-2]
		if secondLast >= '0' && secondLast <= '9' {
			return Token{}, false
		}
	}

	name := word[:len(word)-1]
	b, ok := button.Parse(name)
	if !ok {
		return Token{}, false
	}

	n, err := strconv.Atoi(string(last))
	if err != nil || n < minMultiplier || n > maxMultiplier {
		return Token{}, false
	}

	return Token{Kind: KindMultiplier, Button: b, Multiplier: n}, true
}
