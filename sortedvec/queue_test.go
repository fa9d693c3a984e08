package sortedvec_test

import (
	"cmp"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/dynamize"
	"github.com/hupe1980/dynamize/sortedvec"
	"github.com/hupe1980/dynamize/strategy"
)

var strategies = []strategy.Strategy{strategy.Binary{}, strategy.SimpleBinary{}, strategy.SkewBinary{}}

func TestQueueDrainsInDescendingOrder(t *testing.T) {
	for _, s := range strategies {
		t.Run(s.Name(), func(t *testing.T) {
			rng := rand.New(rand.NewPCG(42, 0))

			for _, size := range []int{0, 1, 2, 3, 4, 5, 10, 100, 1000} {
				q, err := sortedvec.NewQueue(cmp.Compare[int32], dynamize.WithStrategy(s))
				require.NoError(t, err)

				want := make([]int32, 0, size)
				for range size {
					x := rng.Int32()
					want = append(want, x)
					require.NoError(t, q.Push(x))
				}
				slices.Sort(want)
				slices.Reverse(want)

				got := make([]int32, 0, size)
				for q.Len() > 0 {
					x, ok, err := q.Pop()
					require.NoError(t, err)
					require.True(t, ok)
					got = append(got, x)
				}

				assert.Equal(t, want, got, "size %d", size)
				assert.True(t, q.IsEmpty())
			}
		})
	}
}

func TestQueueInterleaved(t *testing.T) {
	for _, s := range strategies {
		t.Run(s.Name(), func(t *testing.T) {
			rng := rand.New(rand.NewPCG(7, 0))

			q, err := sortedvec.NewQueue(cmp.Compare[int], dynamize.WithStrategy(s))
			require.NoError(t, err)

			var model []int // kept ascending
			for range 2000 {
				if rng.IntN(3) < 2 || len(model) == 0 {
					x := rng.IntN(50)
					require.NoError(t, q.Push(x))
					i, _ := slices.BinarySearch(model, x)
					model = slices.Insert(model, i, x)
				} else {
					x, ok, err := q.Pop()
					require.NoError(t, err)
					require.True(t, ok)
					assert.Equal(t, model[len(model)-1], x)
					model = model[:len(model)-1]
				}

				require.Equal(t, len(model), q.Len())

				top, ok, err := q.Peek()
				require.NoError(t, err)
				if len(model) == 0 {
					assert.False(t, ok)
				} else {
					assert.True(t, ok)
					assert.Equal(t, model[len(model)-1], top)
				}
			}

			c := q.Container()
			assert.LessOrEqual(t, float64(c.DeadWeight()), 0.5*float64(c.Len()))
		})
	}
}

func TestQueuePopsExactElementAmongTies(t *testing.T) {
	type job struct {
		prio int
		id   int
	}
	byPrio := func(a, b job) int { return cmp.Compare(a.prio, b.prio) }

	q, err := sortedvec.NewQueue(byPrio, dynamize.WithoutRebuild())
	require.NoError(t, err)

	for i := range 20 {
		require.NoError(t, q.Push(job{prio: i % 3, id: i}))
	}

	seen := make(map[int]bool)
	for q.Len() > 0 {
		top, ok, err := q.Peek()
		require.NoError(t, err)
		require.True(t, ok)

		popped, ok, err := q.Pop()
		require.NoError(t, err)
		require.True(t, ok)

		assert.Equal(t, top, popped)
		assert.False(t, seen[popped.id], "job %d popped twice", popped.id)
		seen[popped.id] = true
	}
	assert.Len(t, seen, 20)
}

func TestQueueEmpty(t *testing.T) {
	q, err := sortedvec.NewQueue(cmp.Compare[int])
	require.NoError(t, err)

	_, ok, err := q.Pop()
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = q.Peek()
	require.NoError(t, err)
	assert.False(t, ok)
}
