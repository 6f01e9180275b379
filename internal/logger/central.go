// This file is part of Gopher2600.
//
// Gopher2600 is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Gopher2600 is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Gopher2600.  If not, see <https://www.gnu.org/licenses/>.

package logger

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// only one central log for the entire process. there's no need for more.
var central *logger

// maximum number of entries kept in the central ring, independent of
// whatever zerolog's own output is doing.
const maxCentral = 256

func init() {
	central = newLogger(maxCentral, zerolog.New(os.Stdout).With().Timestamp().Logger().Level(zerolog.InfoLevel))
}

// Init reconfigures the central logger's output level and writer. Call once
// at startup after config has been loaded; safe to leave uncalled, in which
// case the central logger writes leveled JSON to stdout at info level.
func Init(level zerolog.Level, w io.Writer) {
	central.mu.Lock()
	defer central.mu.Unlock()
	central.zl = zerolog.New(w).With().Timestamp().Logger().Level(level)
}

// Log adds an info-level entry to the central logger.
func Log(perm Permission, tag, detail string) {
	if perm == Allow || perm.AllowLogging() {
		central.log(zerolog.InfoLevel, tag, detail)
	}
}

// Logf adds a formatted info-level entry to the central logger.
func Logf(perm Permission, tag, detail string, args ...interface{}) {
	if perm == Allow || perm.AllowLogging() {
		central.logf(zerolog.InfoLevel, tag, detail, args...)
	}
}

// Warn adds a warn-level entry to the central logger.
func Warn(perm Permission, tag, detail string) {
	if perm == Allow || perm.AllowLogging() {
		central.log(zerolog.WarnLevel, tag, detail)
	}
}

// Warnf adds a formatted warn-level entry to the central logger.
func Warnf(perm Permission, tag, detail string, args ...interface{}) {
	if perm == Allow || perm.AllowLogging() {
		central.logf(zerolog.WarnLevel, tag, detail, args...)
	}
}

// Error adds an error-level entry to the central logger.
func Error(perm Permission, tag, detail string) {
	if perm == Allow || perm.AllowLogging() {
		central.log(zerolog.ErrorLevel, tag, detail)
	}
}

// Errorf adds a formatted error-level entry to the central logger.
func Errorf(perm Permission, tag, detail string, args ...interface{}) {
	if perm == Allow || perm.AllowLogging() {
		central.logf(zerolog.ErrorLevel, tag, detail, args...)
	}
}

// Debugf adds a formatted debug-level entry to the central logger.
func Debugf(perm Permission, tag, detail string, args ...interface{}) {
	if perm == Allow || perm.AllowLogging() {
		central.logf(zerolog.DebugLevel, tag, detail, args...)
	}
}

// Clear removes all entries from the ring (does not affect the underlying
// zerolog output, which has already been written).
func Clear() {
	central.clear()
}

// Tail returns the last n entries of the ring, oldest first. The admin
// surface does not expose the ring.
func Tail(n int) []Entry {
	return central.tail(n)
}

// BorrowLog gives f the critical section and direct access to the ring.
func BorrowLog(f func([]Entry)) {
	central.borrowLog(f)
}
