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
	"fmt"
	"strings"
)

const optionalMarker = "?"

type partiteColumn struct {
	name  string
	files []string
}

// Partite splits the build set into one child per item of the named file
// sets. A name suffixed with "?" is optional: when the build set does not
// have it, the children do not have it either. All present sets must have
// the same length. Every child holds element i of each present set, and
// has exactly the source build set as its lineage.
func (b *BuildSet) Partite(names ...string) ([]*BuildSet, error) {
	var cols []*partiteColumn
	seen := make(map[string]bool)
	for _, n := range names {
		name := strings.TrimSuffix(n, optionalMarker)
		optional := name != n
		if seen[name] {
			continue
		}
		seen[name] = true

		files, ok := b.sets[name]
		if !ok {
			if optional {
				continue
			}
			return nil, newError(
				KindStructure, "build set %d has no file set %q", b.id, name,
			)
		}
		cols = append(cols, &partiteColumn{name: name, files: files})
	}
	if len(cols) == 0 {
		return nil, newError(
			KindStructure, "no file set to partite on in %q",
			strings.Join(names, ", "),
		)
	}

	n := len(cols[0].files)
	for _, col := range cols[1:] {
		if len(col.files) != n {
			return nil, mismatchError(cols)
		}
	}

	var children []*BuildSet
	for i := 0; i < n; i++ {
		child := b.g.newBuildSet(b.dir)
		child.inputs = []*BuildSet{b}
		for _, col := range cols {
			child.addCanonical(col.name, []string{col.files[i]})
		}
		children = append(children, child)
	}
	return children, nil
}

func mismatchError(cols []*partiteColumn) error {
	var parts []string
	for _, col := range cols {
		parts = append(parts, fmt.Sprintf("%q (%d)", col.name, len(col.files)))
	}
	return newError(
		KindStructure, "mismatching set sizes: %s", strings.Join(parts, ", "),
	)
}
