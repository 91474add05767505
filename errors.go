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
	"errors"
	"fmt"
)

// Kind classifies errors raised by the build graph.
type Kind int

// Error kinds.
const (
	KindSchema    Kind = iota + 1 // property not declared
	KindType                      // value or argument has the wrong shape
	KindIdentity                  // name collision or unresolvable identity
	KindStructure                 // file-set mismatch
	KindContext                   // no current scope, target or build set
	KindModule                    // raised by a build script
)

var kindNames = map[Kind]string{
	KindSchema:    "no such property",
	KindType:      "type error",
	KindIdentity:  "identity error",
	KindStructure: "structure mismatch",
	KindContext:   "no context",
	KindModule:    "module error",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is an error of the build graph core.
type Error struct {
	Kind  Kind
	Scope string // Originating scope, set for module errors.
	Msg   string
}

func (e *Error) Error() string {
	if e.Scope != "" {
		return fmt.Sprintf("%s: %s: %s", e.Scope, e.Kind, e.Msg)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func newError(k Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: k, Msg: fmt.Sprintf(format, args...)}
}

// IsKind checks if err is a build graph error of kind k.
func IsKind(err error, k Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == k
	}
	return false
}

func noSuchProperty(name string) error {
	return newError(KindSchema, "%q", name)
}
