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

// Operator names are "base" or "base#suffix"; the "#n" suffix is added
// when the name is assigned.
var operatorNameRE = regexp.MustCompile(`^[\w\-.]+(#[\w\-.]+)?$`)

// OperatorOptions are the options for creating an operator.
type OperatorOptions struct {
	Name     string
	Commands [][]string
	Vars     map[string]string

	// Explicit operators are only built when asked for explicitly.
	Explicit bool

	// Syncio operators need exclusive access to the terminal.
	Syncio bool
}

// Operator is a named action: a command template that is run once per
// attached build set.
type Operator struct {
	target *Target
	name   string
	cmd    *Command
	vars   map[string]string

	explicit bool
	syncio   bool

	sets []*BuildSet
}

// NewOperator creates an operator that is not yet added into a target.
func NewOperator(opts *OperatorOptions) (*Operator, error) {
	if !operatorNameRE.MatchString(opts.Name) {
		return nil, newError(KindIdentity, "invalid operator name %q", opts.Name)
	}
	cmd, err := ParseCommands(opts.Commands)
	if err != nil {
		return nil, err
	}
	vars := make(map[string]string)
	for k, v := range opts.Vars {
		vars[k] = v
	}
	return &Operator{
		name:     opts.Name,
		cmd:      cmd,
		vars:     vars,
		explicit: opts.Explicit,
		syncio:   opts.Syncio,
	}, nil
}

// ID returns the identity of the operator, "scope@target:name".
func (op *Operator) ID() string {
	if op.target == nil {
		return op.name
	}
	return op.target.ID() + ":" + op.name
}

// Name returns the name of the operator, including the "#n" suffix.
func (op *Operator) Name() string { return op.name }

// Target returns the target the operator was added to.
func (op *Operator) Target() *Target { return op.target }

// Command returns the parsed command template.
func (op *Operator) Command() *Command { return op.cmd }

// Explicit tells if the operator is built only when asked for.
func (op *Operator) Explicit() bool { return op.explicit }

// Syncio tells if the operator needs exclusive access to the terminal.
func (op *Operator) Syncio() bool { return op.syncio }

// Vars returns a copy of the operator's variables.
func (op *Operator) Vars() map[string]string {
	ret := make(map[string]string)
	for k, v := range op.vars {
		ret[k] = v
	}
	return ret
}

// BuildSets returns the attached build sets in order.
func (op *Operator) BuildSets() []*BuildSet {
	return append([]*BuildSet{}, op.sets...)
}

// checkBuildSet checks that b provides everything the command template
// references.
func (op *Operator) checkBuildSet(b *BuildSet) error {
	for _, name := range op.cmd.outputs {
		if !b.HasFileSet(name) {
			return newError(
				KindStructure,
				"%s requires ${@%s} which build set %d does not provide",
				op.ID(), name, b.id,
			)
		}
	}
	for _, name := range op.cmd.inputs {
		if !b.hasInputSet(name) {
			return newError(
				KindStructure,
				"%s requires ${<%s} which inputs of build set %d "+
					"do not provide",
				op.ID(), name, b.id,
			)
		}
	}
	for _, name := range op.cmd.vars {
		if _, ok := b.vars[name]; ok {
			continue
		}
		if _, ok := op.vars[name]; ok {
			continue
		}
		return newError(
			KindStructure,
			"%s requires ${%s} which build set %d does not provide",
			op.ID(), name, b.id,
		)
	}
	return nil
}

// checkSource checks that the build sets derived from src provide what the
// command template references. src is nil when there is no current build
// set.
func (op *Operator) checkSource(g *Graph, src *BuildSet) error {
	var vars map[string]string
	if src != nil {
		vars = src.vars
	}
	for _, name := range op.cmd.vars {
		if _, ok := vars[name]; ok {
			continue
		}
		if _, ok := op.vars[name]; ok {
			continue
		}
		return newError(
			KindStructure, "%s requires ${%s} which is not defined",
			op.name, name,
		)
	}
	if src == nil {
		return nil
	}

	for _, name := range op.cmd.inputs {
		if !src.HasFileSet(name) {
			return newError(
				KindStructure, "%s requires ${<%s} which build set %d "+
					"does not provide",
				op.name, name, src.id,
			)
		}
	}
	for _, name := range op.cmd.outputs {
		if !src.HasFileSet(name) {
			return newError(
				KindStructure, "%s requires ${@%s} which build set %d "+
					"does not provide",
				op.name, name, src.id,
			)
		}
		for _, f := range src.sets[name] {
			if other, ok := g.outputs[f]; ok {
				return newError(
					KindIdentity, "%q is already produced by build set %d",
					f, other.id,
				)
			}
		}
	}
	return nil
}

// AddBuildSet attaches a build set to the operator. A build set belongs to
// at most one operator, and an output file is produced by at most one
// build set.
func (op *Operator) AddBuildSet(b *BuildSet) error {
	if op.target == nil {
		return newError(
			KindContext, "operator %q is not added to a target", op.name,
		)
	}
	g := op.target.scope.g
	if err := g.checkBuildSet(b); err != nil {
		return err
	}
	if b.op == op {
		return newError(
			KindIdentity, "build set %d already added to %s", b.id, op.ID(),
		)
	}
	if b.op != nil {
		return newError(
			KindIdentity, "build set %d belongs to %s", b.id, b.op.ID(),
		)
	}
	if err := op.checkBuildSet(b); err != nil {
		return err
	}
	if err := g.declareOutputs(b, op.cmd.outputs); err != nil {
		return err
	}

	b.op = op
	op.sets = append(op.sets, b)
	return nil
}

// attach attaches a loaded build set without checking it against the
// command template. Graph.Check reports what does not match.
func (op *Operator) attach(b *BuildSet) error {
	if b.op != nil {
		return newError(
			KindIdentity, "build set %d belongs to %s", b.id, b.op.ID(),
		)
	}
	g := op.target.scope.g
	if err := g.declareOutputs(b, op.cmd.outputs); err != nil {
		return err
	}
	b.op = op
	op.sets = append(op.sets, b)
	return nil
}
