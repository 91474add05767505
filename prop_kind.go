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
	"encoding/json"
	"fmt"
	"math"
	"path"
	"path/filepath"
	"strconv"

	"github.com/google/shlex"
)

// PropKind is the value type of a property.
type PropKind int

// Property kinds.
const (
	PropString PropKind = iota + 1
	PropBool
	PropInt
	PropStringList
	PropPath
	PropPathList
)

var propKindNames = map[PropKind]string{
	PropString:     "string",
	PropBool:       "bool",
	PropInt:        "int",
	PropStringList: "stringlist",
	PropPath:       "path",
	PropPathList:   "pathlist",
}

func (k PropKind) String() string {
	if s, ok := propKindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("propkind(%d)", int(k))
}

// MarshalText marshals the kind into its name.
func (k PropKind) MarshalText() ([]byte, error) {
	s, ok := propKindNames[k]
	if !ok {
		return nil, newError(KindType, "invalid property kind %d", int(k))
	}
	return []byte(s), nil
}

// UnmarshalText parses a kind name.
func (k *PropKind) UnmarshalText(b []byte) error {
	s := string(b)
	for kind, name := range propKindNames {
		if name == s {
			*k = kind
			return nil
		}
	}
	return newError(KindType, "invalid property kind %q", s)
}

func (k PropKind) valid() bool {
	_, ok := propKindNames[k]
	return ok
}

func (k PropKind) isList() bool {
	return k == PropStringList || k == PropPathList
}

func (k PropKind) zero() interface{} {
	switch k {
	case PropString, PropPath:
		return ""
	case PropBool:
		return false
	case PropInt:
		return 0
	}
	return []string{}
}

func typeError(name, want string, v interface{}) error {
	return newError(KindType, "%s: expect %s, got %T", name, want, v)
}

func cleanPath(p string) string {
	if p == "" {
		return ""
	}
	return path.Clean(filepath.ToSlash(p))
}

func coerceStrings(name string, v interface{}) ([]string, error) {
	switch v := v.(type) {
	case []string:
		return append([]string{}, v...), nil
	case []interface{}:
		ret := make([]string, 0, len(v))
		for i, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, typeError(
					fmt.Sprintf("%s[%d]", name, i), "string", item,
				)
			}
			ret = append(ret, s)
		}
		return ret, nil
	}
	return nil, typeError(name, "list of strings", v)
}

// coerce checks v against the kind and returns a private copy of it.
func (k PropKind) coerce(name string, v interface{}) (interface{}, error) {
	switch k {
	case PropString:
		if s, ok := v.(string); ok {
			return s, nil
		}
		return nil, typeError(name, "string", v)
	case PropPath:
		if s, ok := v.(string); ok {
			return cleanPath(s), nil
		}
		return nil, typeError(name, "path string", v)
	case PropBool:
		if b, ok := v.(bool); ok {
			return b, nil
		}
		return nil, typeError(name, "bool", v)
	case PropInt:
		switch v := v.(type) {
		case int:
			return v, nil
		case int32:
			return int(v), nil
		case int64:
			return int(v), nil
		case float64: // decoded from JSON
			if v == math.Trunc(v) {
				return int(v), nil
			}
		case json.Number:
			if i, err := v.Int64(); err == nil {
				return int(i), nil
			}
		}
		return nil, typeError(name, "int", v)
	case PropStringList:
		return coerceStrings(name, v)
	case PropPathList:
		list, err := coerceStrings(name, v)
		if err != nil {
			return nil, err
		}
		for i, p := range list {
			list[i] = cleanPath(p)
		}
		return list, nil
	}
	return nil, newError(KindType, "%s: invalid kind %d", name, int(k))
}

// parseOption coerces a configuration override. Overrides often come from
// the command line as plain strings.
func (k PropKind) parseOption(name string, v interface{}) (interface{}, error) {
	s, ok := v.(string)
	if !ok {
		return k.coerce(name, v)
	}
	switch k {
	case PropBool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return nil, typeError(name, "bool", v)
		}
		return b, nil
	case PropInt:
		i, err := strconv.Atoi(s)
		if err != nil {
			return nil, typeError(name, "int", v)
		}
		return i, nil
	case PropStringList, PropPathList:
		list, err := shlex.Split(s)
		if err != nil {
			return nil, newError(KindType, "%s: split %q: %s", name, s, err)
		}
		return k.coerce(name, list)
	}
	return k.coerce(name, v)
}

// merge merges an ordered sequence of candidate values. Lists are
// concatenated without de-duplication; for scalars the first one wins.
func (k PropKind) merge(values []interface{}) interface{} {
	if len(values) == 0 {
		return nil
	}
	if !k.isList() {
		return values[0]
	}
	ret := []string{}
	for _, v := range values {
		ret = append(ret, v.([]string)...)
	}
	return ret
}

// copyValue returns a copy of v that does not alias list storage.
func copyValue(v interface{}) interface{} {
	if list, ok := v.([]string); ok {
		return append([]string{}, list...)
	}
	return v
}
