package craft

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSession_context(t *testing.T) {
	s := newTestSession()
	_, err := s.CurrentScope()
	wantKind(t, err, KindContext)
	_, err = s.CreateTarget("a", true)
	wantKind(t, err, KindContext)
	wantKind(t, s.ExitScope(), KindContext)

	_, err = s.EnterScope("app", "1.0", "src")
	ne(t, err)
	_, err = s.CurrentTarget()
	wantKind(t, err, KindContext)
	_, err = s.CreateBuildSet(nil, true)
	wantKind(t, err, KindContext)

	newTestTarget(t, s, "main")
	_, err = s.CurrentBuildSet()
	wantKind(t, err, KindContext)
	_, err = s.CreateOperator(&OperatorOptions{
		Name:     "cc",
		Commands: [][]string{{"cc", "$<srcs"}},
	}, false)
	wantKind(t, err, KindContext)
	wantKind(t, s.UpdateBuildSet(&BuildSetUpdate{}), KindContext)
}

func TestSession_Fail(t *testing.T) {
	s := newTestSession()
	_, err := s.EnterScope("app", "1.0", "src")
	ne(t, err)
	err = s.Fail("missing %s", "compiler")
	wantKind(t, err, KindModule)
	e := err.(*Error)
	if e.Scope != "app" || e.Msg != "missing compiler" {
		t.Errorf("got error %+v", e)
	}
}

func TestSession_Resolve(t *testing.T) {
	s := newTestSession()
	_, err := s.EnterScope("lib", "1.0", "lib")
	ne(t, err)
	lib := newTestTarget(t, s, "lib")
	ne(t, s.ExitScope())

	_, err = s.EnterScope("app", "1.0", "app")
	ne(t, err)
	main := newTestTarget(t, s, "main")
	tool, err := s.CreateTarget("tool", false)
	ne(t, err)
	cur, err := s.CurrentTarget()
	ne(t, err)
	if cur != main {
		t.Errorf("unbound target became current")
	}

	if got, err := s.Resolve("lib@lib"); err != nil || got != lib {
		t.Errorf("resolve lib@lib got %v, %v", got, err)
	}
	if got, err := s.Resolve("tool"); err != nil || got != tool {
		t.Errorf("resolve tool got %v, %v", got, err)
	}
	_, err = s.Resolve("lib")
	wantKind(t, err, KindIdentity)

	dep, err := s.Depend("lib@lib", true)
	ne(t, err)
	if dep.From() != main || dep.To() != lib || !dep.Public() {
		t.Errorf("got dependency %s", dep.ID())
	}

	wantKind(t, s.BindTarget(lib), KindIdentity)
	ne(t, s.BindTarget(tool))
	ne(t, s.SetProps(map[string]interface{}{"name": "t"}, false))
	if v, _ := tool.PropString("name", false); v != "t" {
		t.Errorf("props set on the wrong target")
	}
}

func TestSession_CreateOperator(t *testing.T) {
	s := newTestSession()
	_, err := s.EnterScope("app", "1.0", "src")
	ne(t, err)
	tgt := newTestTarget(t, s, "main")

	src, err := s.CreateBuildSet(&BuildSetOptions{
		Files: []*FileSet{
			{Name: "srcs", Files: []string{"a.c", "b.c"}},
			{Name: "objs", Files: []string{"a.o", "b.o"}},
		},
		Vars: map[string]string{"cflags": "-O2"},
	}, true)
	ne(t, err)

	cc, err := s.CreateOperator(&OperatorOptions{
		Name:     "cc",
		Commands: [][]string{{"cc", "$cflags", "-c", "$<srcs", "-o", "$@objs"}},
	}, true)
	ne(t, err)
	if cc.Name() != "cc#1" {
		t.Errorf("got operator name %q", cc.Name())
	}

	sets := cc.BuildSets()
	if len(sets) != 2 {
		t.Fatalf("got %d build sets, want 2", len(sets))
	}
	for i, want := range [][][]string{
		{{"cc", "-O2", "-c", "src/a.c", "-o", "src/a.o"}},
		{{"cc", "-O2", "-c", "src/b.c", "-o", "src/b.o"}},
	} {
		got, err := sets[i].Commands()
		ne(t, err)
		if !cmp.Equal(got, want) {
			t.Errorf("build set %d got %q, want %q", i, got, want)
		}
		part := sets[i].Inputs()
		if len(part) != 1 || len(part[0].Inputs()) != 1 ||
			part[0].Inputs()[0] != src {
			t.Errorf("build set %d has wrong lineage", i)
		}
	}

	agg, err := s.CurrentBuildSet()
	ne(t, err)
	if agg == src {
		t.Fatal("aggregate build set not bound")
	}
	if got, want := agg.Files("objs"), []string{"src/a.o", "src/b.o"}; !cmp.Equal(got, want) {
		t.Errorf("aggregate got objs %q, want %q", got, want)
	}
	if got, want := ids(agg.Inputs()), ids(sets); !cmp.Equal(got, want) {
		t.Errorf("aggregate got inputs %v, want %v", got, want)
	}

	ne(t, s.UpdateBuildSet(&BuildSetUpdate{
		Files: []*FileSet{{Name: "bin", Files: []string{"app"}}},
	}))
	ld, err := s.CreateOperator(&OperatorOptions{
		Name:     "ld",
		Commands: [][]string{{"ld", "-o", "$@bin", "$<objs"}},
	}, false)
	ne(t, err)
	sets = ld.BuildSets()
	if len(sets) != 1 {
		t.Fatalf("got %d build sets, want 1", len(sets))
	}
	got, err := sets[0].Commands()
	ne(t, err)
	want := [][]string{{"ld", "-o", "src/app", "src/a.o", "src/b.o"}}
	if !cmp.Equal(got, want) {
		t.Errorf("got %q, want %q", got, want)
	}
	if cur, _ := s.CurrentBuildSet(); cur != agg {
		t.Error("current build set changed")
	}

	_, err = s.CreateOperator(&OperatorOptions{
		Name:     "strip",
		Commands: [][]string{{"strip", "$@stripped"}},
	}, false)
	wantKind(t, err, KindStructure)

	echo, err := s.CreateOperator(&OperatorOptions{
		Name:     "ld",
		Commands: [][]string{{"echo", "done"}},
	}, false)
	ne(t, err)
	if echo.Name() != "ld#2" {
		t.Errorf("got operator name %q, want ld#2", echo.Name())
	}
	named, err := s.CreateOperator(&OperatorOptions{
		Name:     "ld#final",
		Commands: [][]string{{"echo", "done"}},
	}, false)
	ne(t, err)
	if named.Name() != "ld#final" {
		t.Errorf("got operator name %q", named.Name())
	}

	var names []string
	for _, op := range tgt.Operators() {
		names = append(names, op.Name())
	}
	if want := []string{"cc#1", "ld#1", "ld#2", "ld#final"}; !cmp.Equal(names, want) {
		t.Errorf("got operators %q, want %q", names, want)
	}
}

func TestSession_CreateOperator_noBuildSet(t *testing.T) {
	s := newTestSession()
	_, err := s.EnterScope("app", "1.0", "")
	ne(t, err)
	newTestTarget(t, s, "main")

	op, err := s.CreateOperator(&OperatorOptions{
		Name:     "hello",
		Commands: [][]string{{"echo", "hello"}},
	}, false)
	ne(t, err)
	sets := op.BuildSets()
	if len(sets) != 1 {
		t.Fatalf("got %d build sets", len(sets))
	}
	got, err := sets[0].Commands()
	ne(t, err)
	if want := [][]string{{"echo", "hello"}}; !cmp.Equal(got, want) {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestSession_UpdateBuildSet(t *testing.T) {
	s := newTestSession()
	_, err := s.EnterScope("app", "1.0", "src")
	ne(t, err)
	newTestTarget(t, s, "main")
	b, err := s.CreateBuildSet(&BuildSetOptions{
		Files: []*FileSet{
			{Name: "srcs", Files: []string{"a.c"}},
			{Name: "junk", Files: []string{"x"}},
		},
	}, true)
	ne(t, err)

	ne(t, s.UpdateBuildSet(&BuildSetUpdate{
		Map: map[string]func(string) string{
			"srcs": func(f string) string { return f + ".o" },
		},
		Remove: []string{"junk"},
		Vars:   map[string]string{"v": "1"},
	}))
	if got, want := b.FileSets(), []*FileSet{
		{Name: "srcs", Files: []string{"src/a.c.o"}},
	}; !cmp.Equal(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
	if v, ok := b.Var("v"); !ok || v != "1" {
		t.Errorf("got var %q", v)
	}
}

func TestSession_CreateOperator_rollback(t *testing.T) {
	s := newTestSession()
	_, err := s.EnterScope("app", "1.0", "src")
	ne(t, err)
	tgt := newTestTarget(t, s, "main")
	g := s.Graph()

	_, err = s.CreateBuildSet(&BuildSetOptions{
		Files: []*FileSet{
			{Name: "srcs", Files: []string{"a.c", "b.c"}},
			{Name: "objs", Files: []string{"a.o", "b.o"}},
		},
	}, true)
	ne(t, err)
	_, err = s.CreateOperator(&OperatorOptions{
		Name:     "cc",
		Commands: [][]string{{"cc", "-c", "$<srcs", "-o", "$@objs"}},
	}, true)
	ne(t, err)
	cur, err := s.CurrentBuildSet()
	ne(t, err)
	nsets := len(g.BuildSets())

	for _, test := range []struct {
		name    string
		op      string
		cmd     []string
		forEach bool
		kind    Kind
	}{
		{"missing input", "link", []string{"echo", "$<missing"}, false, KindStructure},
		{"undefined var", "link", []string{"echo", "$flags"}, false, KindStructure},
		{"second producer", "link", []string{"touch", "$@objs"}, true, KindIdentity},
		{"taken name", "cc#1", []string{"ar", "$<objs"}, true, KindIdentity},
	} {
		_, err := s.CreateOperator(&OperatorOptions{
			Name:     test.op,
			Commands: [][]string{test.cmd},
		}, test.forEach)
		if !IsKind(err, test.kind) {
			t.Errorf("%s: got %v, want %s error", test.name, err, test.kind)
		}

		var names []string
		for _, op := range tgt.Operators() {
			names = append(names, op.Name())
		}
		if want := []string{"cc#1"}; !cmp.Equal(names, want) {
			t.Errorf("%s: got operators %q, want %q", test.name, names, want)
		}
		if n := len(g.BuildSets()); n != nsets {
			t.Errorf("%s: got %d build sets, want %d", test.name, n, nsets)
		}
		if b, _ := s.CurrentBuildSet(); b != cur {
			t.Errorf("%s: current build set changed", test.name)
		}
	}

	op, err := s.CreateOperator(&OperatorOptions{
		Name:     "link",
		Commands: [][]string{{"echo", "$<objs"}},
	}, false)
	ne(t, err)
	if op.Name() != "link#1" {
		t.Errorf("got operator name %q, want link#1", op.Name())
	}
	if got := op.BuildSets()[0].ID(); got != nsets {
		t.Errorf("got build set %d, want %d", got, nsets)
	}
}
