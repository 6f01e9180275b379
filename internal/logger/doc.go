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

// Package logger is a thin central-logging facade over zerolog. All
// components log through the package-level functions here rather than
// holding their own zerolog.Logger, so every entry, regardless of which
// goroutine logged it, lands in a single bounded ring of recent entries
// readable in-process through Tail and BorrowLog. The admin surface does not
// expose the ring.
package logger
