package craft

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestConfig_SetOptions(t *testing.T) {
	c := &Config{Options: map[string]interface{}{"app:jobs": "2"}}
	ne(t, c.SetOptions([]string{
		"app:debug",
		"app:jobs=",
		"lib.sub:defines=A B",
		"app@main:name=x=y",
	}))
	want := map[string]interface{}{
		"app:debug":       "true",
		"lib.sub:defines": "A B",
		"app@main:name":   "x=y",
	}
	if !cmp.Equal(c.Options, want) {
		t.Errorf("got %v, want %v", c.Options, want)
	}

	for _, bad := range []string{"debug", ":debug", "app:", "=1"} {
		if _, err := ParseOptions([]string{bad}); err == nil {
			t.Errorf("option %q accepted", bad)
		}
	}
}

func TestReadOptions(t *testing.T) {
	file := filepath.Join(t.TempDir(), "options.jsonx")
	ne(t, os.WriteFile(file, []byte(`{"app:name": "x", "app:debug": "true"}`), 0600))
	m, err := ReadOptions(file)
	ne(t, err)
	want := map[string]interface{}{"app:name": "x", "app:debug": "true"}
	if !cmp.Equal(m, want) {
		t.Errorf("got %v, want %v", m, want)
	}
}

func TestConfig_graph(t *testing.T) {
	c := &Config{
		Root:    t.TempDir(),
		Variant: "release",
		Options: map[string]interface{}{"app:debug": "true"},
	}
	g := c.NewGraph(testSchema(), testDepSchema())
	s := NewSession(g)
	_, err := s.EnterScope("app", "1.0", "")
	ne(t, err)
	tgt := newTestTarget(t, s, "main")
	if v, err := tgt.PropBool("debug", false); err != nil || !v {
		t.Errorf("got debug %t, %v", v, err)
	}
	ne(t, s.ExitScope())
	ne(t, c.SaveGraph(g))

	loaded, found, err := c.LoadGraph()
	ne(t, err)
	if !found {
		t.Fatal("graph not found")
	}
	tgt, err = loaded.Target("app@main")
	ne(t, err)
	if v, err := tgt.PropBool("debug", false); err != nil || !v {
		t.Errorf("reloaded graph got debug %t, %v", v, err)
	}
}
