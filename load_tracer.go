package craft

// loadTracer traces a path of targets being walked, to detect dependency
// cycles.
type loadTracer struct {
	trace []string
	m     map[string]bool
}

func newLoadTracer() *loadTracer {
	return &loadTracer{
		m: make(map[string]bool),
	}
}

func (t *loadTracer) push(id string) bool {
	if t.m[id] {
		return false
	}
	t.trace = append(t.trace, id)
	t.m[id] = true
	return true
}

func (t *loadTracer) pop() {
	n := len(t.trace)
	if n == 0 {
		return
	}
	last := t.trace[n-1]
	delete(t.m, last)
	t.trace = t.trace[:n-1]
}

// cycle returns the loop on the trace that ends with id.
func (t *loadTracer) cycle(id string) []string {
	for i, x := range t.trace {
		if x == id {
			ret := append([]string{}, t.trace[i:]...)
			return append(ret, id)
		}
	}
	return nil
}
