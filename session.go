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

// Session evaluates build modules into a graph. It keeps the binding
// stack of the current scope, and through the scope, the current target
// and build set. A session is not safe for concurrent use.
type Session struct {
	g     *Graph
	stack []*Scope
}

// NewSession creates a session that populates g.
func NewSession(g *Graph) *Session {
	return &Session{g: g}
}

// Graph returns the graph being populated.
func (s *Session) Graph() *Graph { return s.g }

// EnterScope creates a new scope and makes it the current scope. The first
// scope entered becomes the main module unless one is already set.
func (s *Session) EnterScope(name, version, dir string) (*Scope, error) {
	scope, err := s.g.AddScope(name, version, dir)
	if err != nil {
		return nil, err
	}
	if s.g.main == "" {
		s.g.main = name
	}
	s.stack = append(s.stack, scope)
	return scope, nil
}

// ExitScope finalizes all targets of the current scope, and pops it. The
// scope is popped even when a finalizer fails.
func (s *Session) ExitScope() error {
	scope, err := s.CurrentScope()
	if err != nil {
		return err
	}
	defer func() { s.stack = s.stack[:len(s.stack)-1] }()

	if cur := scope.current; cur != nil {
		if err := s.Finalize(cur); err != nil {
			return err
		}
	}
	for _, t := range scope.order {
		if err := s.Finalize(t); err != nil {
			return err
		}
	}
	return nil
}

// CurrentScope returns the current scope.
func (s *Session) CurrentScope() (*Scope, error) {
	if len(s.stack) == 0 {
		return nil, newError(KindContext, "no current scope")
	}
	return s.stack[len(s.stack)-1], nil
}

// CurrentTarget returns the current target of the current scope.
func (s *Session) CurrentTarget() (*Target, error) {
	scope, err := s.CurrentScope()
	if err != nil {
		return nil, err
	}
	if scope.current == nil {
		return nil, newError(
			KindContext, "no current target in scope %q", scope.Name,
		)
	}
	return scope.current, nil
}

// CurrentBuildSet returns the current build set of the current target.
func (s *Session) CurrentBuildSet() (*BuildSet, error) {
	t, err := s.CurrentTarget()
	if err != nil {
		return nil, err
	}
	if t.currentBuildSet == nil {
		return nil, newError(
			KindContext, "no current build set in target %q", t.ID(),
		)
	}
	return t.currentBuildSet, nil
}

// CreateTarget creates a target in the current scope. When bind is true,
// the previously current target is finalized and the new one becomes
// current.
func (s *Session) CreateTarget(name string, bind bool) (*Target, error) {
	scope, err := s.CurrentScope()
	if err != nil {
		return nil, err
	}
	if bind && scope.current != nil {
		if err := s.Finalize(scope.current); err != nil {
			return nil, err
		}
	}
	t, err := scope.NewTarget(name)
	if err != nil {
		return nil, err
	}
	if bind {
		scope.current = t
	}
	return t, nil
}

// BindTarget makes t the current target of the current scope.
func (s *Session) BindTarget(t *Target) error {
	scope, err := s.CurrentScope()
	if err != nil {
		return err
	}
	if t.scope != scope {
		return newError(
			KindIdentity, "target %q is not in scope %q", t.ID(), scope.Name,
		)
	}
	scope.current = t
	return nil
}

// BindBuildSet makes b the current build set of the current target.
func (s *Session) BindBuildSet(b *BuildSet) error {
	t, err := s.CurrentTarget()
	if err != nil {
		return err
	}
	if err := s.g.checkBuildSet(b); err != nil {
		return err
	}
	t.currentBuildSet = b
	return nil
}

// Finalize runs the finalizers of t, at most once. While they run, t is the
// current target of its scope; the previous binding is restored afterwards.
func (s *Session) Finalize(t *Target) error {
	if t.finalized {
		return nil
	}
	t.finalized = true

	scope := t.scope
	prev := scope.current
	scope.current = t
	defer func() { scope.current = prev }()

	for _, f := range t.finalizers {
		if err := f(s, t); err != nil {
			return err
		}
	}
	return nil
}

// Resolve resolves a target reference: either an identity "scope@name", or
// a local name in the current scope.
func (s *Session) Resolve(ref string) (*Target, error) {
	if strings.Contains(ref, "@") {
		return s.g.Target(ref)
	}
	scope, err := s.CurrentScope()
	if err != nil {
		return nil, err
	}
	return scope.Target(ref)
}

// Depend adds a dependency from the current target to ref.
func (s *Session) Depend(ref string, public bool) (*Dependency, error) {
	t, err := s.CurrentTarget()
	if err != nil {
		return nil, err
	}
	to, err := s.Resolve(ref)
	if err != nil {
		return nil, err
	}
	return t.AddDependency(to, public, false)
}

// SetProps sets properties on the current target.
func (s *Session) SetProps(m map[string]interface{}, tolerant bool) error {
	t, err := s.CurrentTarget()
	if err != nil {
		return err
	}
	return t.SetProps(m, tolerant)
}

// Fail returns a module error raised from the current scope.
func (s *Session) Fail(format string, args ...interface{}) error {
	e := &Error{Kind: KindModule, Msg: fmt.Sprintf(format, args...)}
	if scope, err := s.CurrentScope(); err == nil {
		e.Scope = scope.Name
	}
	return e
}

// CreateBuildSet creates a build set whose relative files are resolved
// against the current scope's directory. When bind is true, it becomes the
// current build set.
func (s *Session) CreateBuildSet(opts *BuildSetOptions, bind bool) (
	*BuildSet, error,
) {
	scope, err := s.CurrentScope()
	if err != nil {
		return nil, err
	}
	var t *Target
	if bind {
		if t, err = s.CurrentTarget(); err != nil {
			return nil, err
		}
	}
	b, err := s.g.NewBuildSet(scope.Directory, opts)
	if err != nil {
		return nil, err
	}
	if t != nil {
		t.currentBuildSet = b
	}
	return b, nil
}

// BuildSetUpdate lists changes to apply on a build set.
type BuildSetUpdate struct {
	// Map rewrites every file of the named sets.
	Map map[string]func(f string) string

	Remove []string   // File sets to remove.
	Files  []*FileSet // Files to add.
	Vars   map[string]string
}

// UpdateBuildSet updates the current build set.
func (s *Session) UpdateBuildSet(u *BuildSetUpdate) error {
	b, err := s.CurrentBuildSet()
	if err != nil {
		return err
	}
	if b.op != nil {
		return newError(
			KindIdentity, "build set %d is attached to %s", b.id, b.op.ID(),
		)
	}
	for name, f := range u.Map {
		b.MapFiles(name, f)
	}
	for _, name := range u.Remove {
		b.RemoveFileSet(name)
	}
	for _, fs := range u.Files {
		b.AddFiles(fs.Name, fs.Files)
	}
	for k, v := range u.Vars {
		b.vars[k] = v
	}
	return nil
}

// CreateOperator creates an operator in the current target, and attaches
// build sets derived from the current build set. Without forEach, one
// build set is attached, with the current build set as input and its
// output sets and variables copied. With forEach, the current build set is
// partitioned on all the file sets the command references, and one build
// set is attached per part. Then an aggregate of all the attached build
// sets becomes the current build set.
func (s *Session) CreateOperator(opts *OperatorOptions, forEach bool) (
	*Operator, error,
) {
	t, err := s.CurrentTarget()
	if err != nil {
		return nil, err
	}
	op, err := NewOperator(opts)
	if err != nil {
		return nil, err
	}
	ins := op.cmd.inputs
	outs := op.cmd.outputs

	cur := t.currentBuildSet
	if cur == nil && len(ins)+len(outs) > 0 {
		return nil, newError(
			KindContext, "no current build set in target %q", t.ID(),
		)
	}
	if err := op.checkSource(s.g, cur); err != nil {
		return nil, err
	}

	// Nothing below may leave a partial operator in the graph.
	n := len(s.g.sets)
	count, counted := t.opCounter[opts.Name]
	added := false
	fail := func(err error) (*Operator, error) {
		if added {
			t.removeOperator(op)
		}
		if counted {
			t.opCounter[opts.Name] = count
		} else {
			delete(t.opCounter, opts.Name)
		}
		s.g.truncateBuildSets(n)
		return nil, err
	}

	if cur == nil {
		cur = s.g.newBuildSet(t.scope.Directory)
	}
	parts := []*BuildSet{cur}
	names := append(append([]string{}, ins...), outs...)
	if forEach && len(names) > 0 {
		parts, err = cur.Partite(names...)
		if err != nil {
			return fail(err)
		}
	}

	op.name = t.operatorName(opts.Name)
	if err := t.AddOperator(op); err != nil {
		return fail(err)
	}
	added = true
	for _, part := range parts {
		child := s.g.newBuildSet(part.dir)
		child.inputs = []*BuildSet{part}
		for _, name := range outs {
			child.addCanonical(name, part.sets[name])
		}
		for k, v := range cur.vars {
			child.vars[k] = v
		}
		if err := op.AddBuildSet(child); err != nil {
			return fail(err)
		}
	}

	if forEach {
		agg, err := s.g.NewBuildSet(
			cur.dir, &BuildSetOptions{From: op.BuildSets()},
		)
		if err != nil {
			return fail(err)
		}
		t.currentBuildSet = agg
	}
	return op, nil
}
