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
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"shanhu.io/misc/errcode"
)

var digestEncMode cbor.EncMode

func init() {
	opts := cbor.CoreDetEncOptions()
	opts.TextMarshaler = cbor.TextMarshalerTextString
	m, err := opts.EncMode()
	if err != nil {
		panic("craft: cbor encoder: " + err.Error())
	}
	digestEncMode = m
}

// buildSetAction is a structure for creating the digest of the execution
// of a build set.
type buildSetAction struct {
	Commands [][]string
	Inputs   map[string][]string `cbor:",omitempty"`
	Outputs  map[string][]string `cbor:",omitempty"`
}

// operatorAction is a structure for creating the digest of an operator.
type operatorAction struct {
	Explicit  bool `cbor:",omitempty"`
	Syncio    bool `cbor:",omitempty"`
	BuildSets []*buildSetAction
}

func makeDigest(t, name string, v interface{}) (string, error) {
	buf := new(bytes.Buffer)
	fmt.Fprintln(buf, t)
	fmt.Fprintln(buf, name)
	bs, err := digestEncMode.Marshal(v)
	if err != nil {
		return "", errcode.Annotate(err, "cbor marshal")
	}
	buf.Write(bs)
	sum := sha256.Sum256(buf.Bytes())
	return "sha256:" + hex.EncodeToString(sum[:]), nil
}

func makeBuildSetAction(op *Operator, b *BuildSet) (*buildSetAction, error) {
	cmds, err := b.Commands()
	if err != nil {
		return nil, err
	}
	a := &buildSetAction{
		Commands: cmds,
		Inputs:   make(map[string][]string),
		Outputs:  make(map[string][]string),
	}
	for _, name := range op.cmd.inputs {
		a.Inputs[name] = b.InputFiles(name)
	}
	for _, name := range op.cmd.outputs {
		a.Outputs[name] = b.Files(name)
	}
	return a, nil
}

// OperatorDigest returns the digest of what the operator executes: its
// expanded commands with input and output files of every build set.
func OperatorDigest(op *Operator) (string, error) {
	a := &operatorAction{
		Explicit:  op.explicit,
		Syncio:    op.syncio,
		BuildSets: []*buildSetAction{},
	}
	for _, b := range op.sets {
		ba, err := makeBuildSetAction(op, b)
		if err != nil {
			return "", errcode.Annotatef(err, "build set %d", b.id)
		}
		a.BuildSets = append(a.BuildSets, ba)
	}
	return makeDigest("operator", op.ID(), a)
}

// Digests returns the digests of all operators in the graph, keyed by
// operator ID.
func Digests(g *Graph) (map[string]string, error) {
	m := make(map[string]string)
	for _, op := range g.Operators() {
		d, err := OperatorDigest(op)
		if err != nil {
			return nil, errcode.Annotatef(err, "digest %q", op.ID())
		}
		m[op.ID()] = d
	}
	return m, nil
}
