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

package paths

import (
	"os"
	"path"
)

// the base path for all resources, relative to either the current
// directory or the user's config directory. use DefaultSaveDir() rather
// than this constant directly.
const baseResourcePath = ".crowdcade"

// DefaultSaveDir returns a save-snapshot directory: baseResourcePath/saves
// under the current working directory if baseResourcePath already exists
// there, otherwise crowdcade/saves (no leading dot) under the user's config
// directory.
//
// Note this doesn't check that the resource exists, only that the base
// directory can be resolved to somewhere sensible.
func DefaultSaveDir() string {
	return path.Join(getBasePath(), "saves")
}

func getBasePath() string {
	if _, err := os.Stat(baseResourcePath); err == nil {
		return baseResourcePath
	}

	home, err := os.UserConfigDir()
	if err != nil {
		return baseResourcePath
	}
	return path.Join(home, baseResourcePath[1:])
}
