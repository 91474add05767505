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

	"shanhu.io/misc/strutil"
)

// Key markers of the property naming convention.
const (
	publicMarker = "@"
	appendMarker = "+"
)

// ParseKey strips the markers from a property key. A leading "@" writes to
// the public container; a leading or trailing "+" appends instead of
// overwriting.
func ParseKey(key string) (name string, public, appendMode bool) {
	name = key
	for {
		switch {
		case strings.HasPrefix(name, publicMarker):
			public = true
			name = strings.TrimPrefix(name, publicMarker)
			continue
		case strings.HasPrefix(name, appendMarker):
			appendMode = true
			name = strings.TrimPrefix(name, appendMarker)
			continue
		}
		break
	}
	if strings.HasSuffix(name, appendMarker) {
		appendMode = true
		name = strings.TrimSuffix(name, appendMarker)
	}
	return name, public, appendMode
}

// optionFunc looks up a configuration override for a property.
type optionFunc func(prop string) (interface{}, bool)

// Properties is a sparse container of property values bound to an owner and
// a property set.
type Properties struct {
	owner  Owner
	schema *PropertySet
	values map[string]interface{}
	option optionFunc
}

// NewProperties creates an empty property container.
func NewProperties(owner Owner, schema *PropertySet) *Properties {
	return &Properties{
		owner:  owner,
		schema: schema,
		values: make(map[string]interface{}),
	}
}

// Schema returns the property set the container is bound to.
func (p *Properties) Schema() *PropertySet { return p.schema }

// Owner returns the owner of the container.
func (p *Properties) Owner() Owner { return p.owner }

// Get returns the value of a property: the set value, else the
// configuration override, else the default.
func (p *Properties) Get(name string) (interface{}, error) {
	prop, err := p.schema.Lookup(name)
	if err != nil {
		return nil, err
	}
	if v, ok := p.values[name]; ok {
		return copyValue(v), nil
	}
	return p.defaultOf(prop)
}

func (p *Properties) defaultOf(prop *Property) (interface{}, error) {
	if p.option != nil {
		if v, ok := p.option(prop.Name); ok {
			return prop.Kind.parseOption(prop.Name, v)
		}
	}
	return prop.DefaultFor(p.owner)
}

// Lookup returns the explicitly set value of a property.
func (p *Properties) Lookup(name string) (interface{}, bool, error) {
	if !p.schema.Has(name) {
		return nil, false, noSuchProperty(name)
	}
	v, ok := p.values[name]
	if !ok {
		return nil, false, nil
	}
	return copyValue(v), true, nil
}

// IsSet tells if a property has an explicitly set value.
func (p *Properties) IsSet(name string) bool {
	_, ok := p.values[name]
	return ok
}

// Set sets a property, overwriting the existing value. Setting nil unsets
// the property.
func (p *Properties) Set(name string, v interface{}) error {
	prop, err := p.schema.Lookup(name)
	if err != nil {
		return err
	}
	if v == nil {
		delete(p.values, name)
		return nil
	}
	c, err := prop.Kind.coerce(name, v)
	if err != nil {
		return err
	}
	p.values[name] = c
	return nil
}

// Append merges v into the existing value of the property using the merge
// rule of its kind. When nothing is set yet, it is the same as Set.
func (p *Properties) Append(name string, v interface{}) error {
	prop, err := p.schema.Lookup(name)
	if err != nil {
		return err
	}
	c, err := prop.Kind.coerce(name, v)
	if err != nil {
		return err
	}
	old, ok := p.values[name]
	if !ok || !prop.Kind.isList() {
		p.values[name] = c
		return nil
	}
	p.values[name] = prop.Kind.merge([]interface{}{old, c})
	return nil
}

// SetKey sets a value by a key that may carry an append marker.
func (p *Properties) SetKey(key string, v interface{}) error {
	name, _, appendMode := ParseKey(key)
	if appendMode {
		return p.Append(name, v)
	}
	return p.Set(name, v)
}

// Unset removes the set value of a property.
func (p *Properties) Unset(name string) { delete(p.values, name) }

// Keys returns the names of the explicitly set properties, sorted.
func (p *Properties) Keys() []string {
	m := make(map[string]bool)
	for k := range p.values {
		m[k] = true
	}
	return strutil.SortedList(m)
}

// Len returns the number of explicitly set properties.
func (p *Properties) Len() int { return len(p.values) }
