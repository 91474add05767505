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

	"shanhu.io/misc/errcode"
	"shanhu.io/misc/jsonx"
)

// Config provides the configuration of a build.
type Config struct {
	Root    string // Build root directory, where graphs are saved.
	Variant string // Build variant, like "debug" or "release".

	// Options are property overrides, keyed by "scope:prop" or
	// "scope@target:prop".
	Options map[string]interface{}
}

func splitOptionKey(key string) (scope, prop string, err error) {
	i := strings.LastIndex(key, ":")
	if i <= 0 || i == len(key)-1 {
		return "", "", errcode.InvalidArgf(
			"option %q is not in the form of scope:prop", key,
		)
	}
	return key[:i], key[i+1:], nil
}

// SetOptions applies overrides in the form of "scope:prop=value". A key
// without a value sets the option to "true"; an empty value removes the
// option.
func (c *Config) SetOptions(args []string) error {
	if c.Options == nil {
		c.Options = make(map[string]interface{})
	}
	for _, arg := range args {
		key, value, hasValue := strings.Cut(arg, "=")
		if _, _, err := splitOptionKey(key); err != nil {
			return err
		}
		if !hasValue {
			c.Options[key] = "true"
			continue
		}
		if value == "" {
			delete(c.Options, key)
			continue
		}
		c.Options[key] = value
	}
	return nil
}

// ParseOptions parses overrides in the form of "scope:prop=value".
func ParseOptions(args []string) (map[string]interface{}, error) {
	c := new(Config)
	if err := c.SetOptions(args); err != nil {
		return nil, err
	}
	return c.Options, nil
}

// ReadOptions reads overrides from a jsonx file, which holds an object
// keyed by "scope:prop".
func ReadOptions(file string) (map[string]interface{}, error) {
	m := make(map[string]interface{})
	if err := jsonx.ReadFile(file, &m); err != nil {
		return nil, errcode.Annotate(err, "read options")
	}
	for key := range m {
		if _, _, err := splitOptionKey(key); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// NewGraph creates an empty graph of the configured variant with the
// configured overrides.
func (c *Config) NewGraph(schema, depSchema *PropertySet) *Graph {
	g := NewGraph(c.Variant, schema, depSchema)
	g.SetOptions(c.Options)
	return g
}

// LoadGraph loads the graph saved in the last run. found is false when
// there is none.
func (c *Config) LoadGraph() (g *Graph, found bool, err error) {
	g, found, err = LoadGraph(c.Root, c.Variant)
	if err != nil {
		return nil, false, err
	}
	g.SetOptions(c.Options)
	return g, found, nil
}

// SaveGraph saves the graph under the build root.
func (c *Config) SaveGraph(g *Graph) error {
	return SaveGraph(c.Root, g)
}

// OpenBuildCache opens the digest cache of the variant.
func (c *Config) OpenBuildCache() (*BuildCache, error) {
	return OpenBuildCache(BuildCacheFile(c.Root, c.Variant), c.Variant)
}
