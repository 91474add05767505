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
	"strings"

	"github.com/google/shlex"
)

// Placeholders: $var, ${var}, $<in, ${<in}, $@out, ${@out}.
var placeholderRE = regexp.MustCompile(`\$(?:\{([@<]?\w*)\}|([@<]?\w+))`)

const (
	inputMarker  = '<'
	outputMarker = '@'
)

type argKind int

const (
	argLiteral argKind = iota
	argVar
	argInput
	argOutput
)

type cmdArg struct {
	kind   argKind
	prefix string // Literal text for a literal argument.
	name   string
	suffix string
}

func parseArg(s string) (*cmdArg, error) {
	m := placeholderRE.FindStringSubmatchIndex(s)
	if m == nil {
		return &cmdArg{kind: argLiteral, prefix: s}, nil
	}

	var ref string
	if m[2] >= 0 { // braced
		ref = s[m[2]:m[3]]
	} else {
		ref = s[m[4]:m[5]]
	}

	arg := &cmdArg{prefix: s[:m[0]], suffix: s[m[1]:]}
	switch {
	case ref != "" && ref[0] == inputMarker:
		arg.kind = argInput
		arg.name = ref[1:]
	case ref != "" && ref[0] == outputMarker:
		arg.kind = argOutput
		arg.name = ref[1:]
	default:
		arg.kind = argVar
		arg.name = ref
	}
	if arg.name == "" {
		return nil, newError(KindType, "empty placeholder in %q", s)
	}
	if placeholderRE.MatchString(arg.suffix) {
		return nil, newError(KindType, "more than one placeholder in %q", s)
	}
	return arg, nil
}

// Command is a parsed list of command line templates.
type Command struct {
	lines [][]string
	args  [][]*cmdArg

	inputs  []string
	outputs []string
	vars    []string
}

// ParseCommands parses command line templates. Each argument holds at most
// one placeholder; the literal text around it is kept around every element
// the placeholder expands to.
func ParseCommands(lines [][]string) (*Command, error) {
	c := &Command{}
	seen := make(map[argKind]map[string]bool)
	for _, k := range []argKind{argVar, argInput, argOutput} {
		seen[k] = make(map[string]bool)
	}

	for _, line := range lines {
		if len(line) == 0 {
			return nil, newError(KindType, "empty command line")
		}
		var args []*cmdArg
		for _, s := range line {
			arg, err := parseArg(s)
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if arg.kind == argLiteral || seen[arg.kind][arg.name] {
				continue
			}
			seen[arg.kind][arg.name] = true
			switch arg.kind {
			case argVar:
				c.vars = append(c.vars, arg.name)
			case argInput:
				c.inputs = append(c.inputs, arg.name)
			case argOutput:
				c.outputs = append(c.outputs, arg.name)
			}
		}
		c.lines = append(c.lines, append([]string{}, line...))
		c.args = append(c.args, args)
	}
	return c, nil
}

// SplitCommand splits a shell-like command line into arguments.
func SplitCommand(s string) ([]string, error) {
	args, err := shlex.Split(s)
	if err != nil {
		return nil, newError(KindType, "split command %q: %s", s, err)
	}
	return args, nil
}

// Lines returns a copy of the command templates.
func (c *Command) Lines() [][]string {
	var ret [][]string
	for _, line := range c.lines {
		ret = append(ret, append([]string{}, line...))
	}
	return ret
}

// Inputs returns the names of the input file sets referenced.
func (c *Command) Inputs() []string { return append([]string{}, c.inputs...) }

// Outputs returns the names of the output file sets referenced.
func (c *Command) Outputs() []string { return append([]string{}, c.outputs...) }

// Vars returns the names of the variables referenced.
func (c *Command) Vars() []string { return append([]string{}, c.vars...) }

func expandArg(arg *cmdArg, b *BuildSet) ([]string, error) {
	var values []string
	switch arg.kind {
	case argLiteral:
		return []string{arg.prefix}, nil
	case argInput:
		values = b.InputFiles(arg.name)
	case argOutput:
		if !b.HasFileSet(arg.name) {
			return nil, newError(
				KindStructure, "build set %d has no file set %q",
				b.id, arg.name,
			)
		}
		values = b.sets[arg.name]
	case argVar:
		v, ok := b.Var(arg.name)
		if !ok {
			return nil, newError(
				KindStructure, "build set %d has no variable %q",
				b.id, arg.name,
			)
		}
		values = []string{v}
	}

	var ret []string
	for _, v := range values {
		ret = append(ret, arg.prefix+v+arg.suffix)
	}
	return ret, nil
}

func (c *Command) render(b *BuildSet) ([][]string, error) {
	var ret [][]string
	for _, args := range c.args {
		line := []string{}
		for _, arg := range args {
			expanded, err := expandArg(arg, b)
			if err != nil {
				return nil, err
			}
			line = append(line, expanded...)
		}
		ret = append(ret, line)
	}
	return ret, nil
}

// Commands returns the command lines of the build set's operator, with
// placeholders expanded.
func (b *BuildSet) Commands() ([][]string, error) {
	if b.op == nil {
		return nil, newError(
			KindContext, "build set %d not attached to an operator", b.id,
		)
	}
	return b.op.cmd.render(b)
}

// DescriptionText returns the description with placeholders expanded when
// the build set is attached to an operator.
func (b *BuildSet) DescriptionText() (string, error) {
	if b.op == nil || b.Description == "" {
		return b.Description, nil
	}
	words, err := SplitCommand(b.Description)
	if err != nil {
		return "", err
	}
	c, err := ParseCommands([][]string{words})
	if err != nil {
		return "", err
	}
	lines, err := c.render(b)
	if err != nil {
		return "", err
	}
	return strings.Join(lines[0], " "), nil
}
