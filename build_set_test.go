package craft

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestBuildSet_files(t *testing.T) {
	g := NewGraph("debug", nil, nil)
	b, err := g.NewBuildSet("src/app", nil)
	ne(t, err)

	got := b.AddFiles("srcs", []string{"a.c", "./b.c", "../lib/c.c", "/gen/d.c"})
	want := []string{"src/app/a.c", "src/app/b.c", "src/app/lib/c.c", "gen/d.c"}
	if !cmp.Equal(got, want) {
		t.Errorf("got %q, want %q", got, want)
	}
	b.AddFiles("srcs", []string{"a.c"})
	if got := b.Files("srcs"); !cmp.Equal(got, want) {
		t.Errorf("duplicate added: %q", got)
	}
	if b.Files("nothing") != nil {
		t.Error("missing file set is not nil")
	}

	b.AddFiles("hdrs", []string{"a.h"})
	b.MapFiles("srcs", func(f string) string { return f + ".o" })
	if got := b.Files("srcs")[0]; got != "src/app/a.c.o" {
		t.Errorf("mapped to %q", got)
	}
	if got, want := b.SetNames(), []string{"srcs", "hdrs"}; !cmp.Equal(got, want) {
		t.Errorf("got set names %q, want %q", got, want)
	}
	b.RemoveFileSet("srcs")
	if got, want := b.SetNames(), []string{"hdrs"}; !cmp.Equal(got, want) {
		t.Errorf("got set names %q, want %q", got, want)
	}
}

func TestBuildSet_lineage(t *testing.T) {
	g := NewGraph("debug", nil, nil)
	p, err := g.NewBuildSet("", &BuildSetOptions{
		Files: []*FileSet{{Name: "a", Files: []string{"p1"}}},
	})
	ne(t, err)
	q, err := g.NewBuildSet("", &BuildSetOptions{
		Inputs: []*BuildSet{p},
		Files:  []*FileSet{{Name: "a", Files: []string{"q1"}}},
		Vars:   map[string]string{"v": "q"},
	})
	ne(t, err)

	dup, err := g.NewBuildSet("", &BuildSetOptions{
		Inputs: []*BuildSet{p, p},
	})
	ne(t, err)
	if n := len(dup.Inputs()); n != 1 {
		t.Errorf("got %d inputs, want 1", n)
	}

	// p is reachable through q, so it is not linked again.
	agg, err := g.NewBuildSet("", &BuildSetOptions{
		From:   []*BuildSet{q},
		Inputs: []*BuildSet{p, dup},
		Vars:   map[string]string{"v": "agg"},
	})
	ne(t, err)
	if got := agg.Inputs(); !cmp.Equal(ids(got), []int{q.ID(), dup.ID()}) {
		t.Errorf("got inputs %v", ids(got))
	}
	if got := agg.Files("a"); !cmp.Equal(got, []string{"q1"}) {
		t.Errorf("got merged files %q", got)
	}
	if v, _ := agg.Var("v"); v != "agg" {
		t.Errorf("got var %q, want agg", v)
	}
	if got := agg.InputFiles("a"); !cmp.Equal(got, []string{"q1"}) {
		t.Errorf("got input files %q", got)
	}
	if !agg.HasTransitiveInput(p) || p.HasTransitiveInput(agg) {
		t.Error("wrong reachability")
	}

	wantKind(t, p.AddInput(agg), KindIdentity)
	wantKind(t, p.AddInput(p), KindIdentity)

	other := NewGraph("debug", nil, nil)
	_, err = other.NewBuildSet("", &BuildSetOptions{Inputs: []*BuildSet{p}})
	wantKind(t, err, KindIdentity)
}

func ids(sets []*BuildSet) []int {
	var ret []int
	for _, b := range sets {
		ret = append(ret, b.ID())
	}
	return ret
}

func TestBuildSet_deepLineage(t *testing.T) {
	g := NewGraph("debug", nil, nil)
	first, err := g.NewBuildSet("", nil)
	ne(t, err)
	last := first
	for i := 0; i < 100000; i++ {
		b, err := g.NewBuildSet("", &BuildSetOptions{Inputs: []*BuildSet{last}})
		ne(t, err)
		last = b
	}
	if !last.HasTransitiveInput(first) {
		t.Error("first build set not reachable")
	}
}
