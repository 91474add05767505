package craft

import (
	"strings"
	"testing"
)

func TestGraph_Check(t *testing.T) {
	g := buildTestGraph(t, "a.c", "b.c")
	if errs := g.Check(); errs != nil {
		t.Fatalf("got errors: %v", errs)
	}

	main, err := g.Target("app@main")
	ne(t, err)
	lib, err := g.Target("app@lib")
	ne(t, err)
	_, err = lib.AddDependency(main, false, false)
	ne(t, err)

	b := main.Operators()[0].BuildSets()[0]
	b.RemoveFileSet("objs")

	errs := g.Check()
	if len(errs) != 2 {
		t.Fatalf("got %d errors, want 2: %v", len(errs), errs)
	}
	if msg := errs[0].Err.Error(); !strings.Contains(msg, "dependency cycle") {
		t.Errorf("got %q, want a dependency cycle", msg)
	}
	if msg := errs[1].Err.Error(); !strings.Contains(msg, "${@objs}") {
		t.Errorf("got %q, want a missing output", msg)
	}
}
