package strategy

import (
	"strconv"
	"strings"
)

// Digits is a digit vector indexed by level, least significant level first.
// Trailing zero digits are trimmed by every strategy in this package.
type Digits []uint8

// Clone returns an independent copy of d.
func (d Digits) Clone() Digits {
	if d == nil {
		return nil
	}
	c := make(Digits, len(d))
	copy(c, d)
	return c
}

// Len returns the number of levels in d.
func (d Digits) Len() int { return len(d) }

// At returns the digit at level, zero beyond the end of the vector.
func (d Digits) At(level int) uint8 {
	if level < 0 || level >= len(d) {
		return 0
	}
	return d[level]
}

// Blocks returns the total number of blocks the vector describes.
func (d Digits) Blocks() int {
	var n int
	for _, v := range d {
		n += int(v)
	}
	return n
}

// LowestNonZero returns the lowest level with a nonzero digit, or -1.
func (d Digits) LowestNonZero() int {
	for i, v := range d {
		if v != 0 {
			return i
		}
	}
	return -1
}

// Equal reports whether d and o describe the same vector.
func (d Digits) Equal(o Digits) bool {
	a, b := d.trim(), o.trim()
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// String renders the vector most significant level first, like a number.
func (d Digits) String() string {
	t := d.trim()
	if len(t) == 0 {
		return "0"
	}
	var sb strings.Builder
	for i := len(t) - 1; i >= 0; i-- {
		sb.WriteString(strconv.Itoa(int(t[i])))
	}
	return sb.String()
}

func (d Digits) trim() Digits {
	n := len(d)
	for n > 0 && d[n-1] == 0 {
		n--
	}
	return d[:n]
}

// grow returns d extended with zero digits up to level inclusive.
func (d Digits) grow(level int) Digits {
	for len(d) <= level {
		d = append(d, 0)
	}
	return d
}

// Decode returns the element count represented by d under s.
func Decode(s Strategy, d Digits) int {
	var n int
	for level, v := range d {
		n += int(v) * s.Weight(level)
	}
	return n
}
