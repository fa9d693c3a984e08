package sortedvec_test

import (
	"math/rand/v2"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/dynamize"
	"github.com/hupe1980/dynamize/sortedvec"
)

func TestMapAgainstBuiltinMap(t *testing.T) {
	for _, s := range strategies {
		t.Run(s.Name(), func(t *testing.T) {
			rng := rand.New(rand.NewPCG(42, 0))

			for _, size := range []int{0, 1, 2, 3, 4, 5, 10, 100, 1000} {
				m, err := sortedvec.NewMap[int, int](dynamize.WithStrategy(s))
				require.NoError(t, err)
				model := make(map[int]int)

				for range size {
					k := rng.IntN(100)
					v := rng.Int()

					if rng.IntN(10) < 7 {
						prev, ok, err := m.Insert(k, v)
						require.NoError(t, err)
						want, wantOK := model[k]
						assert.Equal(t, wantOK, ok)
						assert.Equal(t, want, prev)
						model[k] = v
					} else {
						prev, ok, err := m.Remove(k)
						require.NoError(t, err)
						want, wantOK := model[k]
						assert.Equal(t, wantOK, ok)
						assert.Equal(t, want, prev)
						delete(model, k)
					}

					require.Equal(t, len(model), m.Len())
				}

				for k := range 100 {
					got, ok, err := m.Get(k)
					require.NoError(t, err)
					want, wantOK := model[k]
					assert.Equal(t, wantOK, ok, "key %d", k)
					assert.Equal(t, want, got, "key %d", k)
				}

				keys, err := m.Keys()
				require.NoError(t, err)
				wantKeys := make([]int, 0, len(model))
				for k := range model {
					wantKeys = append(wantKeys, k)
				}
				slices.Sort(wantKeys)
				assert.Equal(t, wantKeys, keys)
			}
		})
	}
}

func TestMapFunc(t *testing.T) {
	m, err := sortedvec.NewMapFunc[string, int](func(a, b string) int {
		return strings.Compare(strings.ToLower(a), strings.ToLower(b))
	})
	require.NoError(t, err)

	_, ok, err := m.Insert("Go", 1)
	require.NoError(t, err)
	assert.False(t, ok)

	prev, ok, err := m.Insert("GO", 2)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, prev)

	v, ok, err := m.Get("go")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 2, v)
	assert.Equal(t, 1, m.Len())
}

func TestMapInsertFailureKeepsPreviousEntry(t *testing.T) {
	m, err := sortedvec.NewMap[int, string](dynamize.WithMaxLevels(2))
	require.NoError(t, err)

	for i, v := range []string{"one", "two", "three"} {
		_, _, err := m.Insert(i+1, v)
		require.NoError(t, err)
	}

	_, ok, err := m.Insert(1, "new")
	require.ErrorIs(t, err, dynamize.ErrCapacityOverflow)
	assert.False(t, ok)

	v, ok, err := m.Get(1)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "one", v)
	assert.Equal(t, 3, m.Len())
	assert.Zero(t, m.Container().DeadWeight())
}
