package craft

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseKey(t *testing.T) {
	for _, test := range []struct {
		key    string
		name   string
		public bool
		append bool
	}{
		{"defines", "defines", false, false},
		{"@defines", "defines", true, false},
		{"+defines", "defines", false, true},
		{"defines+", "defines", false, true},
		{"@+defines", "defines", true, true},
		{"+@defines", "defines", true, true},
		{"@defines+", "defines", true, true},
	} {
		name, public, appendMode := ParseKey(test.key)
		if name != test.name || public != test.public ||
			appendMode != test.append {
			t.Errorf(
				"ParseKey(%q) = %q, %t, %t; want %q, %t, %t",
				test.key, name, public, appendMode,
				test.name, test.public, test.append,
			)
		}
	}
}

func TestPropertySet_Declare(t *testing.T) {
	s := NewPropertySet()
	_, err := s.Declare("name", PropString, "x", nil)
	ne(t, err)
	_, err = s.Declare("name", PropString, "y", nil)
	wantKind(t, err, KindIdentity)
	_, err = s.Declare("jobs", PropInt, "many", nil)
	wantKind(t, err, KindType)
	_, err = s.Lookup("nothing")
	wantKind(t, err, KindSchema)

	if got := s.Names(); !cmp.Equal(got, []string{"name"}) {
		t.Errorf("got names %q", got)
	}
}

func TestProperties(t *testing.T) {
	s := newTestSession()
	_, err := s.EnterScope("app", "1.0", "src/app")
	ne(t, err)
	tgt := newTestTarget(t, s, "main")
	p := tgt.Private()

	v, err := p.Get("name")
	ne(t, err)
	if v != "noname" {
		t.Errorf("got default %v, want noname", v)
	}
	v, err = p.Get("outdir")
	ne(t, err)
	if v != "src/app/out" {
		t.Errorf("got owner default %v, want src/app/out", v)
	}

	_, err = p.Get("nothing")
	wantKind(t, err, KindSchema)
	wantKind(t, p.Set("nothing", "x"), KindSchema)
	wantKind(t, p.Set("debug", "yes"), KindType)
	wantKind(t, p.Set("defines", []interface{}{"a", 3}), KindType)

	ne(t, p.Set("jobs", 3.0))
	if v, _ := p.Get("jobs"); v != 3 {
		t.Errorf("got jobs %v, want 3", v)
	}
	wantKind(t, p.Set("jobs", 3.5), KindType)

	ne(t, p.Set("srcs", []string{"./a.c", "x/../b.c"}))
	v, err = p.Get("srcs")
	ne(t, err)
	if want := []string{"a.c", "b.c"}; !cmp.Equal(v, want) {
		t.Errorf("got srcs %v, want %v", v, want)
	}

	ne(t, p.Set("defines", []string{"A"}))
	ne(t, p.Append("defines", []string{"B", "A"}))
	v, err = p.Get("defines")
	ne(t, err)
	if want := []string{"A", "B", "A"}; !cmp.Equal(v, want) {
		t.Errorf("got defines %v, want %v", v, want)
	}

	// Returned lists do not alias the stored value.
	v.([]string)[0] = "Z"
	if v, _ := p.Get("defines"); v.([]string)[0] != "A" {
		t.Error("stored list modified through a returned value")
	}

	ne(t, p.Append("name", "x"))
	ne(t, p.Append("name", "y"))
	if v, _ := p.Get("name"); v != "y" {
		t.Errorf("append on scalar got %v, want y", v)
	}

	if got, want := p.Keys(), []string{"defines", "jobs", "name", "srcs"}; !cmp.Equal(got, want) {
		t.Errorf("got keys %q, want %q", got, want)
	}
	ne(t, p.Set("name", nil))
	if p.IsSet("name") {
		t.Error("name still set after setting nil")
	}
}

func TestProperties_options(t *testing.T) {
	s := newTestSession()
	s.Graph().SetOptions(map[string]interface{}{
		"app:jobs":        "4",
		"app:debug":       "true",
		"app@tool:jobs":   8,
		"app:defines":     "A 'B C'",
		"other.app:debug": "false",
	})
	_, err := s.EnterScope("app", "1.0", "src/app")
	ne(t, err)
	main := newTestTarget(t, s, "main")
	tool := newTestTarget(t, s, "tool")

	for _, test := range []struct {
		t    *Target
		prop string
		want interface{}
	}{
		{main, "jobs", 4},
		{main, "debug", true},
		{main, "defines", []string{"A", "B C"}},
		{tool, "jobs", 8},
		{tool, "name", "noname"},
	} {
		got, err := test.t.Prop(test.prop, false)
		if err != nil {
			t.Errorf("%s %s: %s", test.t.ID(), test.prop, err)
			continue
		}
		if !cmp.Equal(got, test.want) {
			t.Errorf(
				"%s %s: got %v, want %v", test.t.ID(), test.prop,
				got, test.want,
			)
		}
	}

	// Nothing set anywhere along the dependencies: the override applies.
	v, err := main.Prop("defines", true)
	ne(t, err)
	if want := []string{"A", "B C"}; !cmp.Equal(v, want) {
		t.Errorf("inherited override got %v, want %v", v, want)
	}

	ne(t, main.SetProp("jobs", 2))
	if v, _ := main.Prop("jobs", false); v != 2 {
		t.Errorf("explicit value got %v, want 2", v)
	}
}
