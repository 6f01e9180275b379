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

// Package curated is a helper package for the plain Go language error type.
// Curated errors carry a Category alongside the usual wrapped cause, so
// callers at a boundary (HTTP handler, command dispatch, startup) can decide
// what to do with an error without string-matching its message.
//
// Errors are created with Errorf(), which behaves like fmt.Errorf but also
// tags the result with a Category:
//
//	err := curated.Errorf(curated.Save, "rotate saves: %w", cause)
//
// CategoryOf() extracts the tag, defaulting to Uncategorised for plain errors
// that didn't pass through this package:
//
//	if curated.CategoryOf(err) == curated.Admin {
//		w.WriteHeader(http.StatusForbidden)
//	}
//
// Errors created here wrap with %w so errors.Is/errors.As continue to work
// through curated.Errorf the same as they would through fmt.Errorf.
package curated
