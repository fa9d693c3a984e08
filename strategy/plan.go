package strategy

import (
	"fmt"
	"strings"
)

// Step is one merge: every block at the Consume levels is removed and a single
// new block is built at Level from their elements, plus the inserted element
// when Insert is set.
type Step struct {
	Consume []int
	Level   int
	Insert  bool
}

// Plan is the ordered list of steps realizing one insertion.
type Plan struct {
	Steps []Step
}

// Consumed returns every level consumed by the plan, in step order.
func (p Plan) Consumed() []int {
	var out []int
	for _, st := range p.Steps {
		out = append(out, st.Consume...)
	}
	return out
}

// Elements returns how many elements the plan feeds into builds, given the
// digit vector it was computed from. Blocks built by earlier steps count when
// a later step consumes them.
func (p Plan) Elements(s Strategy, before Digits) int {
	d := before.Clone()
	var n int
	for _, st := range p.Steps {
		for _, lvl := range st.Consume {
			n += int(d.At(lvl)) * s.Weight(lvl)
			if lvl < len(d) {
				d[lvl] = 0
			}
		}
		if st.Insert {
			n++
		}
		d = d.grow(st.Level)
		d[st.Level]++
	}
	return n
}

func (p Plan) String() string {
	parts := make([]string, 0, len(p.Steps))
	for _, st := range p.Steps {
		src := make([]string, 0, len(st.Consume)+1)
		for _, lvl := range st.Consume {
			src = append(src, fmt.Sprintf("L%d", lvl))
		}
		if st.Insert {
			src = append(src, "+1")
		}
		parts = append(parts, fmt.Sprintf("[%s]->L%d", strings.Join(src, ","), st.Level))
	}
	return strings.Join(parts, " ")
}
