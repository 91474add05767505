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
	"log"
	"sort"
	"strconv"
	"strings"
)

func targetID(scope, name string) string { return scope + "@" + name }

// Finalizer is called once when a target stops being the current target.
type Finalizer func(s *Session, t *Target) error

// Target is a named node of the build graph.
type Target struct {
	scope *Scope
	name  string

	private *Properties
	public  *Properties

	deps     []*Dependency
	depIndex map[*Target]*Dependency

	operators []*Operator
	opIndex   map[string]*Operator
	opCounter map[string]int

	finalized  bool
	finalizers []Finalizer

	currentBuildSet *BuildSet
}

func newTarget(s *Scope, name string) *Target {
	t := &Target{
		scope:     s,
		name:      name,
		depIndex:  make(map[*Target]*Dependency),
		opIndex:   make(map[string]*Operator),
		opCounter: make(map[string]int),
	}
	t.private = s.g.newTargetProps(t)
	t.public = s.g.newTargetProps(t)
	return t
}

// ID returns the identity of the target, "scope@name".
func (t *Target) ID() string { return targetID(t.scope.Name, t.name) }

// Name returns the local name of the target in its scope.
func (t *Target) Name() string { return t.name }

// Scope returns the scope of the target.
func (t *Target) Scope() *Scope { return t.scope }

// Directory returns the directory of the target's scope.
func (t *Target) Directory() string { return t.scope.Directory }

// Private returns the private property container.
func (t *Target) Private() *Properties { return t.private }

// Public returns the public (exported) property container.
func (t *Target) Public() *Properties { return t.public }

// Finalized tells if the finalizers of the target has run.
func (t *Target) Finalized() bool { return t.finalized }

// AddFinalizer appends a finalizer.
func (t *Target) AddFinalizer(f Finalizer) {
	t.finalizers = append(t.finalizers, f)
}

// Dependencies returns the direct dependency edges in declaration order.
func (t *Target) Dependencies() []*Dependency {
	return append([]*Dependency{}, t.deps...)
}

// Operators returns the operators of the target in creation order.
func (t *Target) Operators() []*Operator {
	return append([]*Operator{}, t.operators...)
}

// Operator looks up an operator by name.
func (t *Target) Operator(name string) (*Operator, error) {
	op, ok := t.opIndex[name]
	if !ok {
		return nil, newError(
			KindIdentity, "operator %q not found in %q", name, t.ID(),
		)
	}
	return op, nil
}

// SetProp sets a property by a key using the naming convention: a leading
// "@" writes the public container, a leading or trailing "+" appends.
func (t *Target) SetProp(key string, v interface{}) error {
	name, public, appendMode := ParseKey(key)
	props := t.private
	if public {
		props = t.public
	}
	if appendMode {
		return props.Append(name, v)
	}
	return props.Set(name, v)
}

// SetProps sets a batch of properties in key order. When tolerant is true,
// undeclared properties are logged and dropped instead of failing.
func (t *Target) SetProps(m map[string]interface{}, tolerant bool) error {
	var keys []string
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		err := t.SetProp(k, m[k])
		if err == nil {
			continue
		}
		if tolerant && IsKind(err, KindSchema) {
			log.Printf("%s: property %q does not exist, dropped", t.ID(), k)
			continue
		}
		return err
	}
	return nil
}

// Prop resolves a property. Without inheritance, it returns the private
// value, else the public value, else the default. With inheritance, and
// when the property is declared inheritable, it merges the target's public
// value, private value and then the public values of all transitive
// dependencies in traversal order. When no value is set, both fall back to
// the option override of the target, then to the default.
func (t *Target) Prop(name string, inherit bool) (interface{}, error) {
	prop, err := t.private.schema.Lookup(name)
	if err != nil {
		return nil, err
	}

	if !inherit || !prop.Inherit {
		if v, ok := t.private.values[name]; ok {
			return copyValue(v), nil
		}
		if v, ok := t.public.values[name]; ok {
			return copyValue(v), nil
		}
		return t.private.defaultOf(prop)
	}

	var values []interface{}
	if v, ok := t.public.values[name]; ok {
		values = append(values, v)
	}
	if v, ok := t.private.values[name]; ok {
		values = append(values, v)
	}
	for dep := range t.TransitiveDependencies() {
		if v, ok := dep.to.public.values[name]; ok {
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return t.private.defaultOf(prop)
	}
	return copyValue(prop.Kind.merge(values)), nil
}

// PropString resolves a string or path property.
func (t *Target) PropString(name string, inherit bool) (string, error) {
	v, err := t.Prop(name, inherit)
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", typeError(name, "string", v)
	}
	return s, nil
}

// PropBool resolves a bool property.
func (t *Target) PropBool(name string, inherit bool) (bool, error) {
	v, err := t.Prop(name, inherit)
	if err != nil {
		return false, err
	}
	b, ok := v.(bool)
	if !ok {
		return false, typeError(name, "bool", v)
	}
	return b, nil
}

// PropStrings resolves a list property.
func (t *Target) PropStrings(name string, inherit bool) ([]string, error) {
	v, err := t.Prop(name, inherit)
	if err != nil {
		return nil, err
	}
	list, ok := v.([]string)
	if !ok {
		return nil, typeError(name, "list of strings", v)
	}
	return list, nil
}

// operatorName disambiguates an operator name with a per-name counter
// unless the caller already provided a "#" suffix.
func (t *Target) operatorName(base string) string {
	if strings.Contains(base, "#") {
		return base
	}
	n := t.opCounter[base] + 1
	t.opCounter[base] = n
	return base + "#" + strconv.Itoa(n)
}

// AddOperator adds an operator into the target.
func (t *Target) AddOperator(op *Operator) error {
	if op.target != nil && op.target != t {
		return newError(
			KindIdentity, "operator %q belongs to %q", op.name, op.target.ID(),
		)
	}
	if _, ok := t.opIndex[op.name]; ok {
		return newError(
			KindIdentity, "operator %q already exists in %q", op.name, t.ID(),
		)
	}
	op.target = t
	t.opIndex[op.name] = op
	t.operators = append(t.operators, op)
	return nil
}

func (t *Target) removeOperator(op *Operator) {
	if t.opIndex[op.name] != op {
		return
	}
	delete(t.opIndex, op.name)
	for i, x := range t.operators {
		if x == op {
			t.operators = append(t.operators[:i:i], t.operators[i+1:]...)
			break
		}
	}
	op.target = nil
}
