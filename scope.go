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
	"regexp"
)

var (
	scopeNameRE  = regexp.MustCompile(`^[\w\-/.]+$`)
	targetNameRE = regexp.MustCompile(`^[\w\-]+$`)
)

// Scope is the namespace of one build module.
type Scope struct {
	Name      string
	Version   string
	Directory string

	g       *Graph
	targets map[string]*Target
	order   []*Target

	current *Target // Bound target while the scope is being evaluated.
}

// Targets returns the targets in the scope in creation order.
func (s *Scope) Targets() []*Target {
	return append([]*Target{}, s.order...)
}

// Target looks up a target by its local name.
func (s *Scope) Target(name string) (*Target, error) {
	t, ok := s.targets[name]
	if !ok {
		return nil, newError(
			KindIdentity, "target %q not found in scope %q", name, s.Name,
		)
	}
	return t, nil
}

// NewTarget creates a new target in the scope.
func (s *Scope) NewTarget(name string) (*Target, error) {
	if !targetNameRE.MatchString(name) {
		return nil, newError(KindIdentity, "invalid target name %q", name)
	}
	if _, ok := s.targets[name]; ok {
		return nil, newError(
			KindIdentity, "target %q already defined", targetID(s.Name, name),
		)
	}
	t := newTarget(s, name)
	if err := s.g.addTarget(t); err != nil {
		return nil, err
	}
	s.targets[name] = t
	s.order = append(s.order, t)
	return t, nil
}

// Current returns the target currently bound in the scope, or nil.
func (s *Scope) Current() *Target { return s.current }
