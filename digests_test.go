package craft

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDigests(t *testing.T) {
	d1, err := Digests(buildTestGraph(t, "a.c", "b.c"))
	ne(t, err)
	d2, err := Digests(buildTestGraph(t, "a.c", "b.c"))
	ne(t, err)
	if !cmp.Equal(d1, d2) {
		t.Errorf("same graph got different digests: %v vs %v", d1, d2)
	}
	d, ok := d1["app@main:cc#1"]
	if !ok {
		t.Fatalf("no digest for the operator: %v", d1)
	}
	if !strings.HasPrefix(d, "sha256:") {
		t.Errorf("got digest %q", d)
	}

	d3, err := Digests(buildTestGraph(t, "a.c", "c.c"))
	ne(t, err)
	if d3["app@main:cc#1"] == d {
		t.Error("digest not changed with the inputs")
	}
}

func TestDiffGraphs(t *testing.T) {
	old := buildTestGraph(t, "a.c")
	cur := buildTestGraph(t, "a.c", "b.c")

	diff, err := DiffGraphs(old, old)
	ne(t, err)
	if !diff.Empty() {
		t.Errorf("got diff %+v on the same graph", diff)
	}

	diff, err = DiffGraphs(old, cur)
	ne(t, err)
	if want := []string{"app@main:cc#1"}; !cmp.Equal(diff.Changed, want) {
		t.Errorf("got changed %q, want %q", diff.Changed, want)
	}

	diff, err = DiffGraphs(nil, cur)
	ne(t, err)
	if want := []string{"app@main:cc#1"}; !cmp.Equal(diff.Added, want) {
		t.Errorf("got added %q, want %q", diff.Added, want)
	}

	empty := NewGraph("debug", nil, nil)
	diff, err = DiffGraphs(cur, empty)
	ne(t, err)
	if want := []string{"app@main:cc#1"}; !cmp.Equal(diff.Removed, want) {
		t.Errorf("got removed %q, want %q", diff.Removed, want)
	}
}
