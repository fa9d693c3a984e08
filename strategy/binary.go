package strategy

// Binary is the classical binary (Bentley-Saxe) decomposition.
//
// A block at level i holds 2^i elements. An insertion finds the lowest zero
// digit i, merges every block below it together with the new element and
// stores the result at level i. A single insertion can rebuild the whole
// collection (going from 2^k-1 to 2^k elements), but each element takes part
// in at most one merge per level, which bounds the amortized cost.
type Binary struct{}

func (Binary) Name() string { return "binary" }

func (Binary) MaxDigit() uint8 { return 1 }

func (Binary) Weight(level int) int { return 1 << level }

func (Binary) PlanInsert(d Digits) (Digits, Plan) {
	next := d.Clone()

	i := 0
	for i < len(next) && next[i] != 0 {
		i++
	}

	consume := make([]int, 0, i)
	for lvl := 0; lvl < i; lvl++ {
		consume = append(consume, lvl)
		next[lvl] = 0
	}
	next = next.grow(i)
	next[i] = 1

	return next, Plan{Steps: []Step{{Consume: consume, Level: i, Insert: true}}}
}

func (Binary) Decompose(n int) Digits {
	var d Digits
	for n > 0 {
		d = append(d, uint8(n&1))
		n >>= 1
	}
	return d
}
