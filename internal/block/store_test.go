package block

import (
	"errors"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/dynamize/resource"
	"github.com/hupe1980/dynamize/strategy"
)

var errBoom = errors.New("boom")

type vec struct{ elems []int }

// sliceBuilder keeps elements in input order and can be told to fail.
type sliceBuilder struct {
	failAt  int // fail builds of exactly this many elements
	builds  int
	badSize bool
}

func (b *sliceBuilder) Build(elems []int) (*vec, error) {
	b.builds++
	if b.failAt > 0 && len(elems) == b.failAt {
		return nil, errBoom
	}
	return &vec{elems: slices.Clone(elems)}, nil
}

func (b *sliceBuilder) Iterate(s *vec, fn func(row uint32, elem int) error) error {
	for i, e := range s.elems {
		if err := fn(uint32(i), e); err != nil {
			return err
		}
	}
	return nil
}

func (b *sliceBuilder) Size(s *vec) int {
	if b.badSize {
		return len(s.elems) + 1
	}
	return len(s.elems)
}

func insertAll(t *testing.T, b *sliceBuilder, s strategy.Strategy, st *Store[int, *vec], d strategy.Digits, elems ...int) (*Store[int, *vec], strategy.Digits) {
	t.Helper()
	for _, e := range elems {
		var p strategy.Plan
		d, p = s.PlanInsert(d)
		var err error
		st, _, err = st.Execute(b, nil, p, e)
		require.NoError(t, err)
		require.True(t, d.Equal(st.Digits()), "digits %s vs store %s", d, st.Digits())
	}
	return st, d
}

func TestExecute_BinaryScenario(t *testing.T) {
	b := &sliceBuilder{}
	st, d := insertAll(t, b, strategy.Binary{}, Empty[int, *vec](), nil, 1, 2, 3, 4, 5, 6, 7, 8)

	assert.Equal(t, "1000", d.String())
	require.Equal(t, 1, st.Len())
	blk := st.Level(3)[0]
	assert.Equal(t, 3, blk.Level)
	assert.Equal(t, 8, blk.Size)
	assert.ElementsMatch(t, []int{1, 2, 3, 4, 5, 6, 7, 8}, blk.Structure.elems)
	for lvl := range 3 {
		assert.Empty(t, st.Level(lvl))
	}

	st2, _ := insertAll(t, b, strategy.Binary{}, st, d, 9)
	require.Equal(t, 2, st2.Len())
	assert.Equal(t, 1, st2.Level(0)[0].Size)
	assert.Equal(t, 8, st2.Level(3)[0].Size)
	assert.Equal(t, 9, st2.Size())

	// The level-3 block is shared, not rebuilt.
	assert.Same(t, blk, st2.Level(3)[0])
	// The old store is untouched.
	assert.Equal(t, 1, st.Len())
}

func TestExecute_SkewBinaryTwoBlocksPerLevel(t *testing.T) {
	b := &sliceBuilder{}
	st, d := insertAll(t, b, strategy.SkewBinary{}, Empty[int, *vec](), nil, 1, 2)

	assert.Equal(t, "2", d.String())
	require.Len(t, st.Level(0), 2)
	assert.Less(t, st.Level(0)[0].Seq, st.Level(0)[1].Seq)

	st, d = insertAll(t, b, strategy.SkewBinary{}, st, d, 3)
	assert.Equal(t, "10", d.String())
	require.Len(t, st.Level(1), 1)
	assert.Equal(t, []int{1, 2, 3}, st.Level(1)[0].Structure.elems)
}

func TestExecute_SimpleBinaryPairwiseChain(t *testing.T) {
	b := &sliceBuilder{}
	s := strategy.SimpleBinary{}
	st, d := insertAll(t, b, s, Empty[int, *vec](), nil, 1, 2, 3, 4, 5, 6, 7)
	assert.Equal(t, "111", d.String())

	next, p := s.PlanInsert(d)
	builds := b.builds
	st2, res, err := st.Execute(b, nil, p, 8)
	require.NoError(t, err)
	assert.True(t, next.Equal(st2.Digits()))

	assert.Equal(t, 3, b.builds-builds)
	assert.Equal(t, ExecResult{Consumed: 5, Elements: 2 + 4 + 8, Built: 3}, res)
	assert.Equal(t, p.Elements(s, d), res.Elements)
	require.Equal(t, 1, st2.Len())
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8}, st2.Level(3)[0].Structure.elems)

	t.Run("FailureMidChain", func(t *testing.T) {
		b.failAt = 4
		defer func() { b.failAt = 0 }()

		failed, _, err := st.Execute(b, nil, p, 8)
		require.ErrorIs(t, err, errBoom)
		assert.Nil(t, failed)
		assert.Equal(t, 3, st.Len())
		assert.Equal(t, 7, st.Size())
	})
}

func TestExecute_FailureLeavesStoreIntact(t *testing.T) {
	b := &sliceBuilder{}
	st, d := insertAll(t, b, strategy.Binary{}, Empty[int, *vec](), nil, 1, 2, 3)
	before := st.Blocks()

	b.failAt = 4
	_, p := strategy.Binary{}.PlanInsert(d)
	next, res, err := st.Execute(b, nil, p, 4)
	require.Error(t, err)
	assert.Nil(t, next)
	assert.Zero(t, res)

	var be *BuildError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, 2, be.Level)
	assert.Equal(t, 4, be.Elements)
	assert.ErrorIs(t, err, errBoom)
	assert.ErrorIs(t, err, ErrBuild)

	assert.Equal(t, before, st.Blocks())
	assert.Equal(t, 3, st.Size())
}

func TestExecute_SizeMismatch(t *testing.T) {
	b := &sliceBuilder{badSize: true}
	_, p := strategy.Binary{}.PlanInsert(nil)
	_, _, err := Empty[int, *vec]().Execute(b, nil, p, 1)
	assert.ErrorIs(t, err, ErrEnumeration)
	assert.ErrorIs(t, err, ErrBuild)
}

func TestExecute_CarriesTombstones(t *testing.T) {
	b := &sliceBuilder{}
	s := strategy.Binary{}
	st, d := insertAll(t, b, s, Empty[int, *vec](), nil, 10, 20, 30)

	// Delete 30, the singleton at level 0.
	blk, row, ok, err := st.Locate(findEqual(b, 30))
	require.NoError(t, err)
	require.True(t, ok)
	st, err = st.MarkDeleted(blk, row)
	require.NoError(t, err)
	assert.Equal(t, 1, st.Dead())

	st, _ = insertAll(t, b, s, st, d, 40)
	require.Equal(t, 1, st.Len())
	merged := st.Level(2)[0]
	assert.Equal(t, 1, merged.Dead())
	assert.Equal(t, 3, merged.Live())
	assert.Equal(t, 1, st.Dead())

	live, err := st.LiveElements(b)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int{10, 20, 40}, live)

	var deleted []int
	merged.Deleted().ForEach(func(r uint32) bool {
		deleted = append(deleted, merged.Structure.elems[r])
		return true
	})
	assert.Equal(t, []int{30}, deleted)
}

func TestMarkDeleted(t *testing.T) {
	b := &sliceBuilder{}
	st, _ := insertAll(t, b, strategy.Binary{}, Empty[int, *vec](), nil, 1, 2)
	blk := st.Level(1)[0]

	next, err := st.MarkDeleted(blk, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, st.Dead())
	assert.Equal(t, 1, next.Dead())
	assert.Nil(t, blk.Deleted())
	assert.NotNil(t, next.Level(1)[0].Deleted())

	again, err := next.MarkDeleted(next.Level(1)[0], 0)
	require.NoError(t, err)
	assert.Same(t, next, again)

	_, err = st.MarkDeleted(blk, 5)
	assert.Error(t, err)
}

func TestLocate_SkipsDeletedDuplicates(t *testing.T) {
	b := &sliceBuilder{}
	st, _ := insertAll(t, b, strategy.Binary{}, Empty[int, *vec](), nil, 7, 7, 7)

	for range 3 {
		blk, row, ok, err := st.Locate(findEqual(b, 7))
		require.NoError(t, err)
		require.True(t, ok)
		st, err = st.MarkDeleted(blk, row)
		require.NoError(t, err)
	}

	_, _, ok, err := st.Locate(findEqual(b, 7))
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 3, st.Dead())
}

func TestRebuild(t *testing.T) {
	b := &sliceBuilder{}
	rc := resource.NewController(resource.Config{MaxConcurrentBuilds: 4})

	for _, s := range []strategy.Strategy{strategy.Binary{}, strategy.SkewBinary{}} {
		t.Run(s.Name(), func(t *testing.T) {
			live := make([]int, 23)
			for i := range live {
				live[i] = i
			}
			d := s.Decompose(len(live))

			st, err := Empty[int, *vec]().Rebuild(b, rc, s, d, live)
			require.NoError(t, err)
			assert.True(t, d.Equal(st.Digits()))
			assert.Equal(t, 23, st.Size())
			assert.Equal(t, 0, st.Dead())

			for _, blk := range st.Blocks() {
				assert.Equal(t, s.Weight(blk.Level), blk.Size)
			}

			got, err := st.LiveElements(b)
			require.NoError(t, err)
			assert.ElementsMatch(t, live, got)
			assert.Equal(t, int64(0), rc.RunningBuilds())
		})
	}
}

func TestRebuild_Failure(t *testing.T) {
	b := &sliceBuilder{failAt: 4}
	s := strategy.Binary{}
	live := []int{1, 2, 3, 4, 5, 6, 7}

	_, err := Empty[int, *vec]().Rebuild(b, nil, s, s.Decompose(len(live)), live)
	assert.ErrorIs(t, err, errBoom)

	_, err = Empty[int, *vec]().Rebuild(b, nil, s, s.Decompose(3), live)
	assert.Error(t, err)
}

func TestEach_StopsEarly(t *testing.T) {
	b := &sliceBuilder{}
	st, _ := insertAll(t, b, strategy.Binary{}, Empty[int, *vec](), nil, 1, 2, 3, 4, 5)

	var seen []int
	require.NoError(t, st.Each(b, func(e int) bool {
		seen = append(seen, e)
		return len(seen) < 2
	}))
	assert.Len(t, seen, 2)
}

func findEqual(b *sliceBuilder, target int) func(blk *Block[*vec], fn func(row uint32) bool) error {
	return func(blk *Block[*vec], fn func(row uint32) bool) error {
		return b.Iterate(blk.Structure, func(row uint32, elem int) error {
			if elem == target && !fn(row) {
				return errStop
			}
			return nil
		})
	}
}
