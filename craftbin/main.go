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

package craftbin

import (
	"shanhu.io/misc/subcmd"
)

func cmd() *subcmd.List {
	c := subcmd.New()
	c.Add("show", "prints the saved build graph", cmdShow)
	c.Add("check", "checks the saved build graph", cmdCheck)
	c.Add("dot", "prints the saved build graph in graphviz format", cmdDot)
	c.Add("diff", "compares a graph file with the saved build graph", cmdDiff)
	c.Add("dirty", "lists operators changed since last record", cmdDirty)
	c.Add("record", "records operator digests of the saved graph", cmdRecord)
	return c
}

// Main is the main entrance of the craft command.
func Main() { cmd().Main() }
