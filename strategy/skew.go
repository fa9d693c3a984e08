package strategy

// SkewBinary is the skew-binary decomposition.
//
// A block at level i holds 2^(i+1)-1 elements. Digits are 0, 1 or 2 and only
// the lowest nonzero digit may be 2, so at most two equally sized blocks
// share a level. An insertion either adds a singleton block at level 0 or,
// when the lowest nonzero level j holds two blocks, merges both with the new
// element into one block at level j+1 (2*(2^(j+1)-1)+1 = 2^(j+2)-1).
//
// Every insertion issues exactly one build and consumes at most two blocks,
// so no insertion triggers a cascade. The block count is bounded by
// 2*log2(n+1).
//
// The bound is on builds, not on elements: the single build at level j+1
// copies 2^(j+2)-1 elements, so one insertion can still touch a number of
// elements linear in n, just like Binary. Amortized, each element is copied
// at most once per level.
type SkewBinary struct{}

func (SkewBinary) Name() string { return "skew-binary" }

func (SkewBinary) MaxDigit() uint8 { return 2 }

func (SkewBinary) Weight(level int) int { return 1<<(level+1) - 1 }

func (SkewBinary) PlanInsert(d Digits) (Digits, Plan) {
	next := d.Clone()

	j := next.LowestNonZero()
	if j >= 0 && next[j] == 2 {
		next[j] = 0
		next = next.grow(j + 1)
		next[j+1]++
		return next, Plan{Steps: []Step{{Consume: []int{j}, Level: j + 1, Insert: true}}}
	}

	next = next.grow(0)
	next[0]++
	return next, Plan{Steps: []Step{{Level: 0, Insert: true}}}
}

// Decompose returns the canonical skew-binary form of n. Taking the largest
// weight greedily yields it: after placing a 2 at level i the remainder is
// below 1 because n < 2^(i+2)-1 = 2*w(i)+1.
func (s SkewBinary) Decompose(n int) Digits {
	if n <= 0 {
		return nil
	}
	top := 0
	for s.Weight(top+1) <= n {
		top++
	}
	d := make(Digits, top+1)
	for lvl := top; lvl >= 0 && n > 0; lvl-- {
		w := s.Weight(lvl)
		q := n / w
		d[lvl] = uint8(q)
		n -= q * w
	}
	return d
}
