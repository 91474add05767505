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
	"strings"
)

// Graph holds all the targets of one build variant, with their operators
// and build sets.
type Graph struct {
	variant string
	main    string

	schema    *PropertySet
	depSchema *PropertySet

	scopes     map[string]*Scope
	scopeOrder []*Scope

	targets     map[string]*Target
	targetOrder []*Target

	sets    []*BuildSet
	outputs map[string]*BuildSet

	options map[string]interface{}
}

// NewGraph creates an empty graph. schema declares the target properties,
// and depSchema declares the dependency properties. A nil schema is an
// empty one.
func NewGraph(variant string, schema, depSchema *PropertySet) *Graph {
	if schema == nil {
		schema = NewPropertySet()
	}
	if depSchema == nil {
		depSchema = NewPropertySet()
	}
	return &Graph{
		variant:   variant,
		schema:    schema,
		depSchema: depSchema,
		scopes:    make(map[string]*Scope),
		targets:   make(map[string]*Target),
		outputs:   make(map[string]*BuildSet),
		options:   make(map[string]interface{}),
	}
}

// Variant returns the build variant tag.
func (g *Graph) Variant() string { return g.variant }

// Main returns the name of the main module.
func (g *Graph) Main() string { return g.main }

// SetMain sets the main module.
func (g *Graph) SetMain(scope string) error {
	if _, err := g.Scope(scope); err != nil {
		return err
	}
	g.main = scope
	return nil
}

// Schema returns the target property schema.
func (g *Graph) Schema() *PropertySet { return g.schema }

// DepSchema returns the dependency property schema.
func (g *Graph) DepSchema() *PropertySet { return g.depSchema }

// SetOptions sets the property overrides. Keys are "scope:prop" or
// "scope@target:prop".
func (g *Graph) SetOptions(opts map[string]interface{}) {
	g.options = make(map[string]interface{})
	for k, v := range opts {
		g.options[k] = v
	}
}

// Options returns a copy of the property overrides.
func (g *Graph) Options() map[string]interface{} {
	ret := make(map[string]interface{})
	for k, v := range g.options {
		ret[k] = v
	}
	return ret
}

func (g *Graph) option(t *Target, prop string) (interface{}, bool) {
	if v, ok := g.options[t.ID()+":"+prop]; ok {
		return v, true
	}
	v, ok := g.options[t.scope.Name+":"+prop]
	return v, ok
}

func (g *Graph) newTargetProps(t *Target) *Properties {
	p := NewProperties(t, g.schema)
	p.option = func(prop string) (interface{}, bool) {
		return g.option(t, prop)
	}
	return p
}

// AddScope adds a new scope. Scope names are unique in the graph.
func (g *Graph) AddScope(name, version, dir string) (*Scope, error) {
	if !scopeNameRE.MatchString(name) {
		return nil, newError(KindIdentity, "invalid scope name %q", name)
	}
	if _, ok := g.scopes[name]; ok {
		return nil, newError(KindIdentity, "scope %q already exists", name)
	}
	s := &Scope{
		Name:      name,
		Version:   version,
		Directory: strings.Trim(cleanPath(dir), "/"),
		g:         g,
		targets:   make(map[string]*Target),
	}
	if s.Directory == "." {
		s.Directory = ""
	}
	g.scopes[name] = s
	g.scopeOrder = append(g.scopeOrder, s)
	return s, nil
}

// Scope looks up a scope by name.
func (g *Graph) Scope(name string) (*Scope, error) {
	s, ok := g.scopes[name]
	if !ok {
		return nil, newError(KindIdentity, "scope %q not found", name)
	}
	return s, nil
}

// Scopes returns all scopes in creation order.
func (g *Graph) Scopes() []*Scope {
	return append([]*Scope{}, g.scopeOrder...)
}

func (g *Graph) addTarget(t *Target) error {
	id := t.ID()
	if _, ok := g.targets[id]; ok {
		return newError(KindIdentity, "target %q already exists", id)
	}
	g.targets[id] = t
	g.targetOrder = append(g.targetOrder, t)
	return nil
}

// Target looks up a target by its identity "scope@name".
func (g *Graph) Target(id string) (*Target, error) {
	t, ok := g.targets[id]
	if !ok {
		return nil, newError(KindIdentity, "target %q not found", id)
	}
	return t, nil
}

// Targets returns all targets in creation order.
func (g *Graph) Targets() []*Target {
	return append([]*Target{}, g.targetOrder...)
}

// Operators returns all operators, in target and creation order.
func (g *Graph) Operators() []*Operator {
	var ret []*Operator
	for _, t := range g.targetOrder {
		ret = append(ret, t.operators...)
	}
	return ret
}

// Operator looks up an operator by its identity "scope@target:name".
func (g *Graph) Operator(id string) (*Operator, error) {
	i := strings.LastIndex(id, ":")
	if i < 0 {
		return nil, newError(KindIdentity, "invalid operator id %q", id)
	}
	t, err := g.Target(id[:i])
	if err != nil {
		return nil, err
	}
	return t.Operator(id[i+1:])
}

// BuildSets returns all build sets in creation order.
func (g *Graph) BuildSets() []*BuildSet {
	return append([]*BuildSet{}, g.sets...)
}

// BuildSet returns the build set of the given index.
func (g *Graph) BuildSet(i int) (*BuildSet, error) {
	if i < 0 || i >= len(g.sets) {
		return nil, newError(KindIdentity, "build set %d not found", i)
	}
	return g.sets[i], nil
}

// Producer returns the build set whose operator produces file, or nil.
func (g *Graph) Producer(file string) *BuildSet {
	return g.outputs[file]
}

func (g *Graph) declareOutputs(b *BuildSet, names []string) error {
	var files []string
	for _, name := range names {
		for _, f := range b.sets[name] {
			if other, ok := g.outputs[f]; ok && other != b {
				return newError(
					KindIdentity, "%q is produced by build set %d and %d",
					f, other.id, b.id,
				)
			}
			files = append(files, f)
		}
	}
	for _, f := range files {
		g.outputs[f] = b
	}
	return nil
}

// truncateBuildSets drops the build sets created after the first n.
func (g *Graph) truncateBuildSets(n int) {
	if n >= len(g.sets) {
		return
	}
	for f, b := range g.outputs {
		if b.id >= n {
			delete(g.outputs, f)
		}
	}
	g.sets = g.sets[:n]
}

// SortBuildSets returns the build sets in topological order of lineage:
// every build set comes after all of its inputs. Ties are broken by
// creation order.
func (g *Graph) SortBuildSets() []*BuildSet {
	n := len(g.sets)
	pending := make([]int, n)
	users := make([][]*BuildSet, n)
	for _, b := range g.sets {
		pending[b.id] = len(b.inputs)
		for _, in := range b.inputs {
			users[in.id] = append(users[in.id], b)
		}
	}

	var ret []*BuildSet
	ready := make([]bool, n)
	for {
		progress := false
		for _, b := range g.sets {
			if ready[b.id] || pending[b.id] > 0 {
				continue
			}
			ready[b.id] = true
			ret = append(ret, b)
			for _, u := range users[b.id] {
				pending[u.id]--
			}
			progress = true
			break
		}
		if !progress {
			break
		}
	}
	return ret
}
