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
	"sort"
)

// FileSet is a named, ordered list of files.
type FileSet struct {
	Name  string
	Files []string
}

// BuildSet is a bundle of named file sets and variables. When attached to
// an operator, it is one unit of work of the operator. Otherwise it lists
// existing files, or a subset of the files of its inputs.
type BuildSet struct {
	g   *Graph
	id  int
	dir string

	inputs   []*BuildSet
	sets     map[string][]string
	setOrder []string
	vars     map[string]string

	// Description is a human readable template of what the build set does.
	Description string
	Alias       string

	op *Operator
}

// BuildSetOptions are the options for creating a build set.
type BuildSetOptions struct {
	// Inputs are the lineage parents.
	Inputs []*BuildSet

	// From are parents whose file sets and variables are merged into the
	// new build set. When From is not empty, an input that is already
	// reachable through From is not linked again.
	From []*BuildSet

	Files       []*FileSet
	Vars        map[string]string
	Description string
	Alias       string
}

func (g *Graph) newBuildSet(dir string) *BuildSet {
	b := &BuildSet{
		g:    g,
		id:   len(g.sets),
		dir:  dir,
		sets: make(map[string][]string),
		vars: make(map[string]string),
	}
	g.sets = append(g.sets, b)
	return b
}

// NewBuildSet creates a new build set in the graph. Relative file names are
// resolved against dir, which is relative to the build root.
func (g *Graph) NewBuildSet(dir string, opts *BuildSetOptions) (
	*BuildSet, error,
) {
	if opts == nil {
		opts = new(BuildSetOptions)
	}
	for _, in := range opts.From {
		if err := g.checkBuildSet(in); err != nil {
			return nil, err
		}
	}
	for _, in := range opts.Inputs {
		if err := g.checkBuildSet(in); err != nil {
			return nil, err
		}
	}

	b := g.newBuildSet(dir)
	b.Description = opts.Description
	b.Alias = opts.Alias
	for _, from := range opts.From {
		b.AddFrom(from)
	}
	for _, in := range opts.Inputs {
		if len(opts.From) > 0 && b.HasTransitiveInput(in) {
			continue
		}
		b.addInput(in)
	}
	for _, fs := range opts.Files {
		b.AddFiles(fs.Name, fs.Files)
	}
	for k, v := range opts.Vars {
		b.vars[k] = v
	}
	return b, nil
}

func (g *Graph) checkBuildSet(b *BuildSet) error {
	if b == nil || b.g != g {
		return newError(KindIdentity, "build set not in graph")
	}
	return nil
}

// ID returns the index of the build set in its graph.
func (b *BuildSet) ID() int { return b.id }

// Dir returns the directory relative file names are resolved against.
func (b *BuildSet) Dir() string { return b.dir }

// Operator returns the operator the build set is attached to, or nil.
func (b *BuildSet) Operator() *Operator { return b.op }

// Inputs returns the lineage parents.
func (b *BuildSet) Inputs() []*BuildSet {
	return append([]*BuildSet{}, b.inputs...)
}

func (b *BuildSet) addInput(in *BuildSet) {
	for _, x := range b.inputs {
		if x == in {
			return
		}
	}
	b.inputs = append(b.inputs, in)
}

// AddInput links in as a lineage parent. Linking a parent twice is a no-op.
func (b *BuildSet) AddInput(in *BuildSet) error {
	if err := b.g.checkBuildSet(in); err != nil {
		return err
	}
	if in == b || in.HasTransitiveInput(b) {
		return newError(
			KindIdentity, "build set %d would be its own input", b.id,
		)
	}
	b.addInput(in)
	return nil
}

// HasTransitiveInput tells if x is reachable from b through lineage.
func (b *BuildSet) HasTransitiveInput(x *BuildSet) bool {
	visited := make([]bool, len(b.g.sets))
	stack := append([]*BuildSet{}, b.inputs...)
	for len(stack) > 0 {
		n := len(stack) - 1
		cur := stack[n]
		stack = stack[:n]
		if cur == x {
			return true
		}
		if visited[cur.id] {
			continue
		}
		visited[cur.id] = true
		stack = append(stack, cur.inputs...)
	}
	return false
}

// AddFrom links from as a parent and merges its file sets and variables.
// Existing variables are not overwritten.
func (b *BuildSet) AddFrom(from *BuildSet) {
	b.addInput(from)
	for _, name := range from.setOrder {
		b.addCanonical(name, from.sets[name])
	}
	for k, v := range from.vars {
		if _, ok := b.vars[k]; !ok {
			b.vars[k] = v
		}
	}
}

// AddFiles adds files into the named file set, resolving relative names
// against the build set's directory. A file already in the set is skipped.
func (b *BuildSet) AddFiles(name string, files []string) []string {
	canon := makePaths(b.dir, files)
	b.addCanonical(name, canon)
	return canon
}

func (b *BuildSet) addCanonical(name string, files []string) {
	cur, ok := b.sets[name]
	if !ok {
		b.setOrder = append(b.setOrder, name)
		cur = []string{}
	}
	for _, f := range files {
		if !containsString(cur, f) {
			cur = append(cur, f)
		}
	}
	b.sets[name] = cur
}

// MapFiles replaces every file in the named set with f(file). The mapped
// names are relative to the build root.
func (b *BuildSet) MapFiles(name string, f func(file string) string) {
	files, ok := b.sets[name]
	if !ok {
		return
	}
	b.sets[name] = []string{}
	var mapped []string
	for _, file := range files {
		mapped = append(mapped, f(file))
	}
	b.addCanonical(name, makePaths("", mapped))
}

// RemoveFileSet removes the named file set.
func (b *BuildSet) RemoveFileSet(name string) {
	if _, ok := b.sets[name]; !ok {
		return
	}
	delete(b.sets, name)
	for i, n := range b.setOrder {
		if n == name {
			b.setOrder = append(b.setOrder[:i:i], b.setOrder[i+1:]...)
			break
		}
	}
}

// HasFileSet tells if the build set has a file set of the name.
func (b *BuildSet) HasFileSet(name string) bool {
	_, ok := b.sets[name]
	return ok
}

// SetNames returns the file set names in insertion order.
func (b *BuildSet) SetNames() []string {
	return append([]string{}, b.setOrder...)
}

// Files returns a copy of the named file set; nil if it does not exist.
func (b *BuildSet) Files(name string) []string {
	files, ok := b.sets[name]
	if !ok {
		return nil
	}
	return append([]string{}, files...)
}

// FileSets returns copies of all file sets in insertion order.
func (b *BuildSet) FileSets() []*FileSet {
	var ret []*FileSet
	for _, name := range b.setOrder {
		ret = append(ret, &FileSet{Name: name, Files: b.Files(name)})
	}
	return ret
}

// InputFiles concatenates the named file set of all the lineage parents.
func (b *BuildSet) InputFiles(name string) []string {
	ret := []string{}
	for _, in := range b.inputs {
		for _, f := range in.sets[name] {
			if !containsString(ret, f) {
				ret = append(ret, f)
			}
		}
	}
	return ret
}

func (b *BuildSet) hasInputSet(name string) bool {
	for _, in := range b.inputs {
		if in.HasFileSet(name) {
			return true
		}
	}
	return false
}

// SetVar sets a variable.
func (b *BuildSet) SetVar(k, v string) { b.vars[k] = v }

// Vars returns a copy of the variables.
func (b *BuildSet) Vars() map[string]string {
	ret := make(map[string]string)
	for k, v := range b.vars {
		ret[k] = v
	}
	return ret
}

func (b *BuildSet) varNames() []string {
	var names []string
	for k := range b.vars {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Var looks up a variable, first in the build set, then in its operator.
func (b *BuildSet) Var(name string) (string, bool) {
	if v, ok := b.vars[name]; ok {
		return v, true
	}
	if b.op != nil {
		v, ok := b.op.vars[name]
		return v, ok
	}
	return "", false
}

func containsString(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}
