package craft

import (
	"strings"

	"shanhu.io/text/lexing"
)

type checker struct {
	g       *Graph
	errList *lexing.ErrorList
	tracer  *loadTracer
	done    map[*Target]bool
}

func (c *checker) checkDeps(t *Target) {
	if c.done[t] {
		return
	}
	if !c.tracer.push(t.ID()) {
		c.errList.Errorf(
			nil, "dependency cycle: %s",
			strings.Join(c.tracer.cycle(t.ID()), " -> "),
		)
		return
	}
	for _, dep := range t.deps {
		c.checkDeps(dep.to)
	}
	c.tracer.pop()
	c.done[t] = true
}

func (c *checker) checkOperator(op *Operator) {
	for _, b := range op.sets {
		if err := op.checkBuildSet(b); err != nil {
			c.errList.Errorf(nil, "%s", err)
			continue
		}
		if _, err := b.Commands(); err != nil {
			c.errList.Errorf(nil, "%s: %s", op.ID(), err)
		}
	}
}

// Check checks the consistency of the graph: the main module exists, the
// dependencies have no cycle, and every build set provides what its
// operator's commands reference.
func (g *Graph) Check() []*lexing.Error {
	c := &checker{
		g:       g,
		errList: lexing.NewErrorList(),
		tracer:  newLoadTracer(),
		done:    make(map[*Target]bool),
	}
	if g.main != "" {
		if _, ok := g.scopes[g.main]; !ok {
			c.errList.Errorf(nil, "main module %q not found", g.main)
		}
	}
	for _, t := range g.targetOrder {
		c.checkDeps(t)
	}
	for _, op := range g.Operators() {
		c.checkOperator(op)
	}
	return c.errList.Errs()
}
