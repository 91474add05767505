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
	"iter"
)

// Dependency is a directed edge from one target to another.
type Dependency struct {
	from   *Target
	to     *Target
	public bool
	props  *Properties
}

// From returns the depending target.
func (d *Dependency) From() *Target { return d.from }

// To returns the target depended on.
func (d *Dependency) To() *Target { return d.to }

// Public tells if the dependency is exported to the dependents of From.
func (d *Dependency) Public() bool { return d.public }

// Props returns the properties of the edge.
func (d *Dependency) Props() *Properties { return d.props }

// ID returns the identity of the edge, "from->to".
func (d *Dependency) ID() string { return d.from.ID() + "->" + d.to.ID() }

// Directory returns the directory of the depending target.
func (d *Dependency) Directory() string { return d.from.Directory() }

// AddDependency adds an edge to target to. When an edge already exists,
// it returns an error in strict mode; otherwise the visibility is merged
// and the existing edge is returned.
func (t *Target) AddDependency(to *Target, public, strict bool) (
	*Dependency, error,
) {
	if to == nil {
		return nil, newError(KindIdentity, "%s: nil dependency", t.ID())
	}
	if to == t {
		return nil, newError(KindIdentity, "%s depends on itself", t.ID())
	}
	g := t.scope.g
	if got, ok := g.targets[to.ID()]; !ok || got != to {
		return nil, newError(
			KindIdentity, "%s: target %q not in graph", t.ID(), to.ID(),
		)
	}

	if d, ok := t.depIndex[to]; ok {
		if strict {
			return nil, newError(
				KindIdentity, "dependency %s already exists", d.ID(),
			)
		}
		d.public = d.public || public
		return d, nil
	}

	d := &Dependency{from: t, to: to, public: public}
	d.props = NewProperties(d, g.depSchema)
	t.deps = append(t.deps, d)
	t.depIndex[to] = d
	return d, nil
}

// TransitiveDependencies walks the dependency edges reachable from t, depth
// first. All edges of t are walked; beyond t only public edges are
// followed. Each destination target is yielded once, with the first edge
// reaching it.
func (t *Target) TransitiveDependencies() iter.Seq[*Dependency] {
	return func(yield func(*Dependency) bool) {
		visited := map[*Target]bool{t: true}
		var walk func(deps []*Dependency, root bool) bool
		walk = func(deps []*Dependency, root bool) bool {
			for _, d := range deps {
				if !root && !d.public {
					continue
				}
				if visited[d.to] {
					continue
				}
				visited[d.to] = true
				if !yield(d) {
					return false
				}
				if !walk(d.to.deps, false) {
					return false
				}
			}
			return true
		}
		walk(t.deps, true)
	}
}

// Dependents returns the targets in the graph that directly depend on t.
func (t *Target) Dependents() []*Target {
	var ret []*Target
	for _, other := range t.scope.g.targetOrder {
		if _, ok := other.depIndex[t]; ok {
			ret = append(ret, other)
		}
	}
	return ret
}
