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
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"shanhu.io/misc/errcode"
	"shanhu.io/misc/jsonutil"
)

const graphFileName = "graph.json"

var variantRE = regexp.MustCompile(`^[\w\-.]+$`)

// GraphFile returns the graph file of a build variant under root.
func GraphFile(root, variant string) string {
	return filepath.Join(root, variant, graphFileName)
}

type propDecl struct {
	Name    string
	Kind    PropKind
	Inherit bool        `json:",omitempty"`
	Default interface{} `json:",omitempty"`
}

type scopeDump struct {
	Name      string
	Version   string `json:",omitempty"`
	Directory string `json:",omitempty"`
}

type depDump struct {
	To     string
	Public bool                   `json:",omitempty"`
	Props  map[string]interface{} `json:",omitempty"`
}

type operatorDump struct {
	Name      string
	Commands  [][]string
	Vars      map[string]string `json:",omitempty"`
	BuildSets []int
	Explicit  bool `json:",omitempty"`
	Syncio    bool `json:",omitempty"`
}

type targetDump struct {
	Scope     string
	Name      string
	Private   map[string]interface{} `json:",omitempty"`
	Public    map[string]interface{} `json:",omitempty"`
	Deps      []*depDump             `json:",omitempty"`
	Finalized bool                   `json:",omitempty"`
	Operators []*operatorDump        `json:",omitempty"`
}

type buildSetDump struct {
	Dir         string            `json:",omitempty"`
	Sets        []*FileSet        `json:",omitempty"`
	Vars        map[string]string `json:",omitempty"`
	Description string            `json:",omitempty"`
	Alias       string            `json:",omitempty"`
	Inputs      []int             `json:",omitempty"`
}

type graphDump struct {
	Variant   string
	Main      string `json:",omitempty"`
	Schema    []*propDecl
	DepSchema []*propDecl
	Scopes    []*scopeDump
	Targets   []*targetDump
	BuildSets []*buildSetDump
}

func dumpSchema(s *PropertySet) []*propDecl {
	decls := []*propDecl{}
	for _, name := range s.names {
		p := s.props[name]
		decls = append(decls, &propDecl{
			Name:    p.Name,
			Kind:    p.Kind,
			Inherit: p.Inherit,
			Default: p.Default,
		})
	}
	return decls
}

func dumpValues(p *Properties) map[string]interface{} {
	if len(p.values) == 0 {
		return nil
	}
	m := make(map[string]interface{})
	for k, v := range p.values {
		m[k] = copyValue(v)
	}
	return m
}

func copyVars(m map[string]string) map[string]string {
	if len(m) == 0 {
		return nil
	}
	ret := make(map[string]string)
	for k, v := range m {
		ret[k] = v
	}
	return ret
}

func dumpGraph(g *Graph) *graphDump {
	d := &graphDump{
		Variant:   g.variant,
		Main:      g.main,
		Schema:    dumpSchema(g.schema),
		DepSchema: dumpSchema(g.depSchema),
		Scopes:    []*scopeDump{},
		Targets:   []*targetDump{},
		BuildSets: []*buildSetDump{},
	}
	for _, s := range g.scopeOrder {
		d.Scopes = append(d.Scopes, &scopeDump{
			Name:      s.Name,
			Version:   s.Version,
			Directory: s.Directory,
		})
	}
	for _, t := range g.targetOrder {
		td := &targetDump{
			Scope:     t.scope.Name,
			Name:      t.name,
			Private:   dumpValues(t.private),
			Public:    dumpValues(t.public),
			Finalized: t.finalized,
		}
		for _, dep := range t.deps {
			td.Deps = append(td.Deps, &depDump{
				To:     dep.to.ID(),
				Public: dep.public,
				Props:  dumpValues(dep.props),
			})
		}
		for _, op := range t.operators {
			od := &operatorDump{
				Name:      op.name,
				Commands:  op.cmd.Lines(),
				Vars:      copyVars(op.vars),
				BuildSets: []int{},
				Explicit:  op.explicit,
				Syncio:    op.syncio,
			}
			for _, b := range op.sets {
				od.BuildSets = append(od.BuildSets, b.id)
			}
			td.Operators = append(td.Operators, od)
		}
		d.Targets = append(d.Targets, td)
	}
	for _, b := range g.sets {
		bd := &buildSetDump{
			Dir:         b.dir,
			Sets:        b.FileSets(),
			Vars:        copyVars(b.vars),
			Description: b.Description,
			Alias:       b.Alias,
		}
		for _, in := range b.inputs {
			bd.Inputs = append(bd.Inputs, in.id)
		}
		d.BuildSets = append(d.BuildSets, bd)
	}
	return d
}

func loadSchema(decls []*propDecl) (*PropertySet, error) {
	s := NewPropertySet()
	for _, decl := range decls {
		opts := &PropOptions{Inherit: decl.Inherit}
		if _, err := s.Declare(
			decl.Name, decl.Kind, decl.Default, opts,
		); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func loadValues(p *Properties, m map[string]interface{}) error {
	for k, v := range m {
		if err := p.Set(k, v); err != nil {
			return err
		}
	}
	return nil
}

func staleError(format string, args ...interface{}) error {
	e := newError(KindIdentity, format, args...)
	e.Msg = "stale graph: " + e.Msg
	return e
}

// recountOperator makes sure the name counter of t will not reuse the
// counter of a loaded operator name "base#n".
func (t *Target) recountOperator(name string) {
	i := strings.LastIndex(name, "#")
	if i < 0 {
		return
	}
	var n int
	for _, c := range name[i+1:] {
		if c < '0' || c > '9' {
			return
		}
		n = n*10 + int(c-'0')
	}
	if base := name[:i]; n > t.opCounter[base] {
		t.opCounter[base] = n
	}
}

func loadGraph(d *graphDump) (*Graph, error) {
	schema, err := loadSchema(d.Schema)
	if err != nil {
		return nil, errcode.Annotate(err, "load schema")
	}
	depSchema, err := loadSchema(d.DepSchema)
	if err != nil {
		return nil, errcode.Annotate(err, "load dependency schema")
	}

	g := NewGraph(d.Variant, schema, depSchema)
	for _, sd := range d.Scopes {
		if _, err := g.AddScope(sd.Name, sd.Version, sd.Directory); err != nil {
			return nil, err
		}
	}
	if d.Main != "" {
		if err := g.SetMain(d.Main); err != nil {
			return nil, staleError("main module %q not found", d.Main)
		}
	}

	for _, bd := range d.BuildSets {
		b := g.newBuildSet(bd.Dir)
		for _, fs := range bd.Sets {
			b.addCanonical(fs.Name, fs.Files)
		}
		for k, v := range bd.Vars {
			b.vars[k] = v
		}
		b.Description = bd.Description
		b.Alias = bd.Alias
	}
	for i, bd := range d.BuildSets {
		for _, in := range bd.Inputs {
			if in < 0 || in >= len(g.sets) {
				return nil, staleError(
					"build set %d has unknown input %d", i, in,
				)
			}
			g.sets[i].addInput(g.sets[in])
		}
	}

	var targets []*Target
	for _, td := range d.Targets {
		s, ok := g.scopes[td.Scope]
		if !ok {
			return nil, staleError(
				"scope %q of target %q not found", td.Scope, td.Name,
			)
		}
		t, err := s.NewTarget(td.Name)
		if err != nil {
			return nil, err
		}
		t.finalized = td.Finalized
		if err := loadValues(t.private, td.Private); err != nil {
			return nil, errcode.Annotatef(err, "load %q", t.ID())
		}
		if err := loadValues(t.public, td.Public); err != nil {
			return nil, errcode.Annotatef(err, "load %q", t.ID())
		}
		targets = append(targets, t)
	}

	for i, td := range d.Targets {
		t := targets[i]
		for _, dd := range td.Deps {
			to, ok := g.targets[dd.To]
			if !ok {
				return nil, staleError(
					"target %q depends on unknown target %q", t.ID(), dd.To,
				)
			}
			dep, err := t.AddDependency(to, dd.Public, true)
			if err != nil {
				return nil, err
			}
			if err := loadValues(dep.props, dd.Props); err != nil {
				return nil, errcode.Annotatef(err, "load %q", dep.ID())
			}
		}

		for _, od := range td.Operators {
			op, err := NewOperator(&OperatorOptions{
				Name:     od.Name,
				Commands: od.Commands,
				Vars:     od.Vars,
				Explicit: od.Explicit,
				Syncio:   od.Syncio,
			})
			if err != nil {
				return nil, errcode.Annotatef(err, "load %q", od.Name)
			}
			if err := t.AddOperator(op); err != nil {
				return nil, err
			}
			t.recountOperator(od.Name)
			for _, i := range od.BuildSets {
				if i < 0 || i >= len(g.sets) {
					return nil, staleError(
						"operator %q has unknown build set %d", op.ID(), i,
					)
				}
				if err := op.attach(g.sets[i]); err != nil {
					return nil, err
				}
			}
		}
	}
	return g, nil
}

// ReadGraph reads a graph from a graph file.
func ReadGraph(file string) (*Graph, error) {
	if _, err := os.Stat(file); err != nil {
		if os.IsNotExist(err) {
			return nil, errcode.NotFoundf("graph file %q not found", file)
		}
		return nil, errcode.Annotate(err, "stat graph file")
	}

	d := new(graphDump)
	if err := jsonutil.ReadFile(file, d); err != nil {
		return nil, errcode.Annotate(err, "read graph file")
	}
	return loadGraph(d)
}

// WriteGraph writes the graph into a graph file.
func WriteGraph(file string, g *Graph) error {
	if err := os.MkdirAll(filepath.Dir(file), 0700); err != nil {
		return errcode.Annotate(err, "make graph dir")
	}
	return jsonutil.WriteFile(file, dumpGraph(g))
}

func checkVariant(variant string) error {
	if !variantRE.MatchString(variant) || variant == "." || variant == ".." {
		return errcode.InvalidArgf("invalid build variant %q", variant)
	}
	return nil
}

// SaveGraph saves the graph into its variant's graph file under root.
func SaveGraph(root string, g *Graph) error {
	if err := checkVariant(g.variant); err != nil {
		return err
	}
	return WriteGraph(GraphFile(root, g.variant), g)
}

// LoadGraph loads the graph of a build variant saved under root. When the
// graph file does not exist, it returns an empty graph, and found is false.
func LoadGraph(root, variant string) (g *Graph, found bool, err error) {
	if err := checkVariant(variant); err != nil {
		return nil, false, err
	}
	g, err = ReadGraph(GraphFile(root, variant))
	if err != nil {
		if errcode.IsNotFound(err) {
			return NewGraph(variant, nil, nil), false, nil
		}
		return nil, false, err
	}
	if g.variant != variant {
		return nil, false, errcode.InvalidArgf(
			"graph file has variant %q, want %q", g.variant, variant,
		)
	}
	return g, true, nil
}
