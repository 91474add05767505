package craft

import (
	"bytes"
	"strings"
	"testing"
)

func TestWriteDot(t *testing.T) {
	g := buildTestGraph(t, "a.c", "b.c")
	buf := new(bytes.Buffer)
	ne(t, WriteDot(buf, g))
	out := buf.String()

	for _, want := range []string{
		"digraph {",
		`subgraph "cluster_Target:app@main" {`,
		`subgraph "cluster_Operator:app@main:cc#1" {`,
		`"BuildSet:0" -> "BuildSet:1";`,
		`"BuildSet:1" -> "BuildSet:3";`,
		`"Target:app@main" -> "Target:app@lib" [style="solid"];`,
		`objs = [a.c.o]`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output does not contain %q:\n%s", want, out)
		}
	}
	if !strings.HasSuffix(out, "}\n") {
		t.Error("graph not closed")
	}
}
