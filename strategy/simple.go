package strategy

// SimpleBinary is the binary decomposition realized as a chain of pairwise
// merges.
//
// The new element starts at level 0. While the target level is occupied, its
// block is merged with the incoming one and the result moves up a level, so
// an insertion that lands at level i issues i builds of 2, 4, ..., 2^i
// elements. The resulting layout is the same as Binary's; only the merge
// schedule differs. Each element still takes part in at most one merge per
// level.
type SimpleBinary struct{}

func (SimpleBinary) Name() string { return "simple-binary" }

func (SimpleBinary) MaxDigit() uint8 { return 1 }

func (SimpleBinary) Weight(level int) int { return 1 << level }

func (SimpleBinary) PlanInsert(d Digits) (Digits, Plan) {
	next := d.Clone()

	i := 0
	for i < len(next) && next[i] != 0 {
		i++
	}

	if i == 0 {
		next = next.grow(0)
		next[0] = 1
		return next, Plan{Steps: []Step{{Level: 0, Insert: true}}}
	}

	steps := make([]Step, 0, i)
	steps = append(steps, Step{Consume: []int{0}, Level: 1, Insert: true})
	for lvl := 1; lvl < i; lvl++ {
		steps = append(steps, Step{Consume: []int{lvl}, Level: lvl + 1})
	}

	for lvl := 0; lvl < i; lvl++ {
		next[lvl] = 0
	}
	next = next.grow(i)
	next[i] = 1

	return next, Plan{Steps: steps}
}

func (SimpleBinary) Decompose(n int) Digits { return Binary{}.Decompose(n) }
