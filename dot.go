package craft

import (
	"bufio"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
)

var dotEscaper = strings.NewReplacer(
	`\`, `\\`, `"`, `\"`, "{", `\{`, "}", `\}`, "\n", `\n`,
)

func dotQuote(s string) string { return `"` + dotEscaper.Replace(s) + `"` }

type dotWriter struct {
	w      *bufio.Writer
	indent int
	seen   map[*BuildSet]bool
}

func (w *dotWriter) printf(format string, args ...interface{}) {
	w.w.WriteString(strings.Repeat("  ", w.indent))
	fmt.Fprintf(w.w, format, args...)
	w.w.WriteString("\n")
}

func dotAttrs(attrs map[string]string) string {
	var keys []string
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var parts []string
	for _, k := range keys {
		parts = append(parts, k+"="+dotQuote(attrs[k]))
	}
	return strings.Join(parts, " ")
}

func buildSetKey(b *BuildSet) string { return fmt.Sprintf("BuildSet:%d", b.id) }

func (w *dotWriter) buildSet(b *BuildSet) {
	if w.seen[b] {
		return
	}
	w.seen[b] = true

	var lines []string
	if b.Alias != "" {
		lines = append(lines, b.Alias)
	}
	for _, name := range b.setOrder {
		var bases []string
		for _, f := range b.sets[name] {
			bases = append(bases, path.Base(f))
		}
		lines = append(lines, fmt.Sprintf(
			"%s = [%s]", name, strings.Join(bases, ", "),
		))
	}
	for _, k := range b.varNames() {
		lines = append(lines, fmt.Sprintf("%s = %q", k, b.vars[k]))
	}

	attrs := map[string]string{
		"label": strings.Join(lines, "\n"),
		"style": "filled",
	}
	switch {
	case b.op != nil:
		attrs["color"] = "slateblue3"
		attrs["fillcolor"] = "slateblue1"
	case len(b.inputs) > 0:
		attrs["color"] = "gray72"
		attrs["fillcolor"] = "gray86"
	default:
		attrs["color"] = "orange4"
		attrs["fillcolor"] = "orange2"
	}
	w.printf("%s [%s];", dotQuote(buildSetKey(b)), dotAttrs(attrs))
	for _, in := range b.inputs {
		w.buildSet(in)
		w.printf("%s -> %s;", dotQuote(buildSetKey(in)), dotQuote(buildSetKey(b)))
	}
}

func (w *dotWriter) operator(op *Operator) {
	key := "Operator:" + op.ID()
	w.printf("subgraph %s {", dotQuote("cluster_"+key))
	w.indent++
	w.printf("label=%s;", dotQuote("Operator: "+op.name))
	w.printf(`color="skyblue4"; fillcolor="skyblue"; style="filled";`)

	var lines []string
	for _, line := range op.cmd.lines {
		lines = append(lines, strings.Join(line, " "))
	}
	w.printf("%s [%s];", dotQuote(key), dotAttrs(map[string]string{
		"label":     strings.Join(lines, "\n"),
		"shape":     "rectangle",
		"color":     "skyblue4",
		"fillcolor": "skyblue4",
		"style":     "filled,rounded",
	}))
	for _, b := range op.sets {
		w.buildSet(b)
	}
	w.indent--
	w.printf("}")
}

func (w *dotWriter) target(t *Target) {
	key := "Target:" + t.ID()
	w.printf("subgraph %s {", dotQuote("cluster_"+key))
	w.indent++
	w.printf("label=%s;", dotQuote("Target: "+t.ID()))
	w.printf(`color="seagreen3"; fillcolor="seagreen1"; style="filled";`)
	w.printf("%s [%s];", dotQuote(key), dotAttrs(map[string]string{
		"label": t.ID(),
		"shape": "box",
	}))
	for _, op := range t.operators {
		w.operator(op)
	}
	w.indent--
	w.printf("}")
}

// WriteDot writes the graph in graphviz dot format: targets contain their
// operators, which contain their build sets; edges are build set lineage.
func WriteDot(out io.Writer, g *Graph) error {
	w := &dotWriter{
		w:    bufio.NewWriter(out),
		seen: make(map[*BuildSet]bool),
	}
	w.printf("digraph {")
	w.indent++
	w.printf(`graph [fontsize=10 fontname="monospace"];`)
	w.printf(`node [shape=record fontsize=10 fontname="monospace"];`)
	for _, t := range g.targetOrder {
		w.target(t)
	}
	for _, b := range g.sets {
		w.buildSet(b)
	}
	for _, t := range g.targetOrder {
		for _, dep := range t.deps {
			style := "dashed"
			if dep.public {
				style = "solid"
			}
			w.printf(
				"%s -> %s [style=%s];",
				dotQuote("Target:"+t.ID()), dotQuote("Target:"+dep.to.ID()),
				dotQuote(style),
			)
		}
	}
	w.indent--
	w.printf("}")
	return w.w.Flush()
}
