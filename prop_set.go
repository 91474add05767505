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

// Owner is the owner of a property container.
type Owner interface {
	// ID returns the identity of the owner.
	ID() string

	// Directory returns the directory the owner's relative paths are
	// resolved against.
	Directory() string
}

// PropOptions are the options when declaring a property.
type PropOptions struct {
	// Inherit makes the property inherit values across dependencies.
	Inherit bool

	// DefaultFunc computes the default from the owner. When set, it is
	// used instead of the static default.
	DefaultFunc func(owner Owner) interface{}
}

// Property is a declared, typed property.
type Property struct {
	Name    string
	Kind    PropKind
	Default interface{} // Static default, already coerced.
	Inherit bool

	defaultFunc func(owner Owner) interface{}
}

// HasDefaultFunc tells if the default value depends on the owner.
func (p *Property) HasDefaultFunc() bool { return p.defaultFunc != nil }

// DefaultFor returns the default value of the property for an owner. A nil
// owner resolves to the static default.
func (p *Property) DefaultFor(owner Owner) (interface{}, error) {
	if p.defaultFunc != nil && owner != nil {
		v := p.defaultFunc(owner)
		if v == nil {
			return p.Kind.zero(), nil
		}
		return p.Kind.coerce(p.Name, v)
	}
	if p.Default == nil {
		return p.Kind.zero(), nil
	}
	return copyValue(p.Default), nil
}

// PropertySet is a schema of properties. A property set is shared by many
// property containers.
type PropertySet struct {
	props map[string]*Property
	names []string
}

// NewPropertySet creates an empty property set.
func NewPropertySet() *PropertySet {
	return &PropertySet{props: make(map[string]*Property)}
}

// Declare declares a new property. def can be nil, in which case the zero
// value of the kind is the default.
func (s *PropertySet) Declare(
	name string, kind PropKind, def interface{}, opts *PropOptions,
) (*Property, error) {
	if name == "" {
		return nil, newError(KindIdentity, "property name is empty")
	}
	if _, ok := s.props[name]; ok {
		return nil, newError(KindIdentity, "property %q already declared", name)
	}
	if !kind.valid() {
		return nil, newError(KindType, "%s: invalid kind %d", name, int(kind))
	}

	p := &Property{Name: name, Kind: kind}
	if def != nil {
		v, err := kind.coerce(name, def)
		if err != nil {
			return nil, err
		}
		p.Default = v
	}
	if opts != nil {
		p.Inherit = opts.Inherit
		p.defaultFunc = opts.DefaultFunc
	}

	s.props[name] = p
	s.names = append(s.names, name)
	return p, nil
}

// MustDeclare declares a property and panics on error. It is for
// declaring static schemas.
func (s *PropertySet) MustDeclare(
	name string, kind PropKind, def interface{}, opts *PropOptions,
) *Property {
	p, err := s.Declare(name, kind, def, opts)
	if err != nil {
		panic(err)
	}
	return p
}

// Lookup finds a declared property.
func (s *PropertySet) Lookup(name string) (*Property, error) {
	p, ok := s.props[name]
	if !ok {
		return nil, noSuchProperty(name)
	}
	return p, nil
}

// Has tells if a property is declared.
func (s *PropertySet) Has(name string) bool {
	_, ok := s.props[name]
	return ok
}

// Names returns the declared property names in declaration order.
func (s *PropertySet) Names() []string {
	return append([]string{}, s.names...)
}

// Len returns the number of declared properties.
func (s *PropertySet) Len() int { return len(s.names) }
