package testutil

import (
	"cmp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRNGReset(t *testing.T) {
	rng := NewRNG(4711)
	a := rng.Ints(16, 1000)
	rng.Reset()
	b := rng.Ints(16, 1000)

	assert.Equal(t, a, b)
	assert.Equal(t, uint64(4711), rng.Seed())
}

func TestZipfSkew(t *testing.T) {
	rng := NewRNG(4711)
	vals := rng.Zipf(10000, 100, 1.5)

	counts := make([]int, 100)
	for _, v := range vals {
		assert.GreaterOrEqual(t, v, 0)
		assert.Less(t, v, 100)
		counts[v]++
	}
	assert.Greater(t, counts[0], counts[50])
	assert.Greater(t, counts[0], 1000)
}

func TestModel(t *testing.T) {
	m := NewModel(cmp.Compare[int])
	for _, x := range []int{5, 1, 3, 3, 9} {
		m.Insert(x)
	}

	assert.Equal(t, []int{1, 3, 3, 5, 9}, m.Sorted())
	assert.Equal(t, []int{3, 3, 5}, m.Range(2, 5))
	assert.True(t, m.Delete(3))
	assert.False(t, m.Delete(4))
	assert.Equal(t, []int{1, 3, 5, 9}, m.Sorted())
	assert.Equal(t, 4, m.Len())
	assert.Contains(t, m.Sorted(), m.Pick(NewRNG(1)))
}

func TestShuffleKeepsElements(t *testing.T) {
	s := []int{1, 2, 3, 4, 5, 6, 7, 8}
	Shuffle(NewRNG(7), s)
	assert.ElementsMatch(t, []int{1, 2, 3, 4, 5, 6, 7, 8}, s)
}
