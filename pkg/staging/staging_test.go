package staging

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cidas/job-scheduler/pkg/job"
)

func jobWithKey(id string, key int) *job.Job {
	j := &job.Job{ID: id}
	j.SortKey = key
	return j
}

func TestExtractLevel(t *testing.T) {
	limit := []int{600, 1200}
	assert.Equal(t, 0, ExtractLevel(100, limit))
	assert.Equal(t, 0, ExtractLevel(599, limit))
	assert.Equal(t, 1, ExtractLevel(600, limit))
	assert.Equal(t, 1, ExtractLevel(1199, limit))
	assert.Equal(t, 2, ExtractLevel(1200, limit))
	assert.Equal(t, 2, ExtractLevel(5000, limit))
}

func testHeapOrdering(t *testing.T, c Container) {
	c.Insert(jobWithKey("a", 30))
	c.Insert(jobWithKey("b", 10))
	c.Insert(jobWithKey("c", 20))

	j, ok := c.Pop()
	require.True(t, ok)
	assert.Equal(t, "b", j.ID)

	j, ok = c.Pop()
	require.True(t, ok)
	assert.Equal(t, "c", j.ID)

	j, ok = c.Pop()
	require.True(t, ok)
	assert.Equal(t, "a", j.ID)

	_, ok = c.Pop()
	assert.False(t, ok)
}

func TestHeapListOrdering(t *testing.T) {
	testHeapOrdering(t, NewHeapList(0))
}

func TestHeapListFIFOTieBreak(t *testing.T) {
	l := NewHeapList(0)
	l.Insert(jobWithKey("first", 10))
	l.Insert(jobWithKey("second", 10))

	j, ok := l.Pop()
	require.True(t, ok)
	assert.Equal(t, "first", j.ID)

	j, ok = l.Pop()
	require.True(t, ok)
	assert.Equal(t, "second", j.ID)
}

func TestHeapListRemove(t *testing.T) {
	l := NewHeapList(0)
	a := jobWithKey("a", 10)
	b := jobWithKey("b", 20)
	l.Insert(a)
	l.Insert(b)

	assert.True(t, l.Remove(a))
	assert.Equal(t, 1, l.Len())
	j, ok := l.Peek()
	require.True(t, ok)
	assert.Equal(t, "b", j.ID)
	assert.False(t, l.Remove(a))
}

func TestHeapListToListDoesNotMutate(t *testing.T) {
	l := NewHeapList(0)
	l.Insert(jobWithKey("a", 30))
	l.Insert(jobWithKey("b", 10))

	out := l.ToList()
	require.Len(t, out, 2)
	assert.Equal(t, "b", out[0].ID)
	assert.Equal(t, "a", out[1].ID)
	assert.Equal(t, 2, l.Len())
}

func TestSortedListInsertAscending(t *testing.T) {
	l := NewSortedList(0)
	l.Insert(jobWithKey("a", 30))
	l.Insert(jobWithKey("b", 10))
	l.Insert(jobWithKey("c", 20))

	out := l.ToList()
	require.Len(t, out, 3)
	assert.Equal(t, []string{"b", "c", "a"}, []string{out[0].ID, out[1].ID, out[2].ID})
}

func TestSortedListPopsFromTail(t *testing.T) {
	l := NewSortedList(0)
	l.Insert(jobWithKey("urgent", 10))
	l.Insert(jobWithKey("slack", 30))

	j, ok := l.Pop()
	require.True(t, ok)
	assert.Equal(t, "slack", j.ID, "bisect variant pops highest-slack tail element, per repository semantics")
}

func TestFIFOListPopsHead(t *testing.T) {
	l := NewFIFOList(0)
	l.Insert(jobWithKey("a", 99))
	l.Insert(jobWithKey("b", 1))

	j, ok := l.Pop()
	require.True(t, ok)
	assert.Equal(t, "a", j.ID)
}

func TestRenewJobsPriorityReordersHeap(t *testing.T) {
	const dateFormat = "%Y-%m-%dT%H:%M:%S"

	// a's construction-time schedule_time (10s) is more urgent than b's
	// (50s), but their independent request_time origins mean a common
	// "now" reference reverses that once renewed.
	aPayload := job.Payload{JobType: "t"}
	aPayload.JobConfig.Deadline = "2026-01-01T00:01:40"
	aPayload.JobConfig.RequestTime = "2026-01-01T00:01:30"
	a, err := job.New("a", aPayload, job.SortKeyScheduleTime, dateFormat)
	require.NoError(t, err)

	bPayload := job.Payload{JobType: "t"}
	bPayload.JobConfig.Deadline = "2026-01-01T00:00:50"
	bPayload.JobConfig.RequestTime = "2026-01-01T00:00:00"
	b, err := job.New("b", bPayload, job.SortKeyScheduleTime, dateFormat)
	require.NoError(t, err)

	require.Equal(t, 10, a.Times.ScheduleTime)
	require.Equal(t, 50, b.Times.ScheduleTime)

	l := NewHeapList(0)
	l.Insert(a)
	l.Insert(b)

	j, ok := l.Peek()
	require.True(t, ok)
	assert.Equal(t, "a", j.ID)

	now, err := time.Parse(job.StrftimeToGoLayout(dateFormat), "2026-01-01T00:00:20")
	require.NoError(t, err)
	l.RenewJobsPriority(now)

	j, ok = l.Peek()
	require.True(t, ok)
	assert.Equal(t, "b", j.ID, "after renewal b's slack (30s) is lower than a's (80s)")
}

func TestNewFactory(t *testing.T) {
	assert.IsType(t, &HeapList{}, New(VariantHeap, 0))
	assert.IsType(t, &FIFOList{}, New(VariantDeque, 0))
	assert.IsType(t, &SortedList{}, New(VariantBisect, 0))
	assert.IsType(t, &HeapList{}, New(Variant("unknown"), 0))
}
