package queueselect

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cidas/job-scheduler/pkg/job"
	"github.com/cidas/job-scheduler/pkg/staging"
)

func levels(lens ...int) []staging.Container {
	out := make([]staging.Container, len(lens))
	for i, n := range lens {
		l := staging.NewHeapList(i)
		for j := 0; j < n; j++ {
			jb := &job.Job{ID: "x"}
			jb.SortKey = j
			l.Insert(jb)
		}
		out[i] = l
	}
	return out
}

func TestTopLevelPicksLowestNonEmpty(t *testing.T) {
	ls := levels(0, 2, 3)
	got := TopLevel{}.SelectQueue(ls)
	assert.Equal(t, 1, got.Level())
}

func TestTopLevelFallsBackToZeroWhenAllEmpty(t *testing.T) {
	ls := levels(0, 0, 0)
	got := TopLevel{}.SelectQueue(ls)
	assert.Equal(t, 0, got.Level())
}

func TestWeightedRandomSkipsEmptyLevel(t *testing.T) {
	ls := levels(0, 5, 5)
	s := NewWeightedRandom([]float64{10, 0, 0}, rand.New(rand.NewSource(1)))
	got := s.SelectQueue(ls)
	assert.NotEqual(t, 0, got.Level())
}

func TestWeightedRandomAllZeroFallsBackToLevel0(t *testing.T) {
	ls := levels(3, 3, 3)
	s := NewWeightedRandom([]float64{0, 0, 0}, rand.New(rand.NewSource(1)))
	got := s.SelectQueue(ls)
	assert.Equal(t, 0, got.Level())
}

func TestZipServesQuotaThenAdvances(t *testing.T) {
	ls := levels(5, 5, 5)
	s := NewOrder([]int{2, 1, 1})

	got := s.SelectQueue(ls)
	require.Equal(t, 0, got.Level())
	s.Advance() // curr=2, still quota 2

	got = s.SelectQueue(ls)
	require.Equal(t, 0, got.Level())
	s.Advance() // curr exceeds quota 2, cross -> 1

	got = s.SelectQueue(ls)
	assert.Equal(t, 1, got.Level())
}

func TestZipSkipsEmptyLevelAndResetsCurr(t *testing.T) {
	ls := levels(0, 5, 5)
	s := NewOrder([]int{3, 2, 1})

	got := s.SelectQueue(ls)
	require.Equal(t, 1, got.Level())
	assert.Equal(t, 2, s.curr)
}

func TestZipWrapsAtMostOnceWhenAllEmpty(t *testing.T) {
	ls := levels(0, 0, 0)
	s := NewOrder([]int{1, 1, 1})

	got := s.SelectQueue(ls)
	assert.Equal(t, 0, got.Len())
}

func TestNewFactory(t *testing.T) {
	sel, err := New(MethodTopLevel, nil, nil)
	require.NoError(t, err)
	assert.IsType(t, TopLevel{}, sel)

	sel, err = New(MethodWeightRandom, []float64{1, 2, 3}, nil)
	require.NoError(t, err)
	assert.IsType(t, &WeightedRandom{}, sel)

	sel, err = New(MethodZip, nil, []int{1, 2, 3})
	require.NoError(t, err)
	assert.IsType(t, &Zip{}, sel)

	_, err = New(Method("bogus"), nil, nil)
	assert.Error(t, err)
}
