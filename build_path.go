// Copyright (C) 2022  Shanhu Tech Inc.
//
// This program is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the
// Free Software Foundation, either version 3 of the License, or (at your
// option) any later version.
//
// This program is distributed in the hope that it will be useful, but WITHOUT
// ANY WARRANTY; without even the implied warranty of MERCHANTABILITY or
// FITNESS FOR A PARTICULAR PURPOSE.  See the GNU Affero General Public License
// for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package craft

import (
	"path"
	"path/filepath"
	"strings"
)

// makeRelPath makes a path that is under p.
// It cannot escape p.
func makeRelPath(p, f string) string {
	f = path.Clean(path.Join("/", f))
	return strings.TrimPrefix(path.Join("/", p, f), "/")
}

// makePath canonicalizes file f referenced from directory p. Paths are
// slash separated and relative to the build root; an absolute f is
// taken as relative to the build root.
func makePath(p, f string) string {
	f = filepath.ToSlash(f)
	if path.IsAbs(f) {
		return strings.TrimPrefix(path.Clean(f), "/")
	}
	return makeRelPath(p, f)
}

func makePaths(p string, files []string) []string {
	ret := make([]string, 0, len(files))
	for _, f := range files {
		ret = append(ret, makePath(p, f))
	}
	return ret
}
