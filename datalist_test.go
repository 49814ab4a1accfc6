package vipflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFIFOBounded(t *testing.T) {
	l := NewDataList(FIFO)
	l.SetLimits(DataListDefaults{LimitKind: LimitCount, MaxCount: 3})

	for i := 0; i < 5; i++ {
		l.Push(NewAnyData(i))
	}

	require.Equal(t, 3, l.Size())

	first, ok := l.Next()
	require.True(t, ok)
	assert.Equal(t, 2, first.Data())

	second, ok := l.Next()
	require.True(t, ok)
	assert.Equal(t, 3, second.Data())
}

func TestSyncFIFOOrdering(t *testing.T) {
	l := NewDataList(FIFO)
	l.SetLimits(DataListDefaults{LimitKind: LimitCount, MaxCount: 10})

	for i := 0; i < 4; i++ {
		l.Push(NewAnyData(i))
	}

	var got []interface{}
	for {
		d, ok := l.Next()
		if !ok {
			break
		}
		got = append(got, d.Data())
	}

	assert.Equal(t, []interface{}{0, 1, 2, 3}, got)
}

func TestLIFOPopsMostRecent(t *testing.T) {
	l := NewDataList(LIFO)
	l.SetLimits(DataListDefaults{LimitKind: LimitCount, MaxCount: 10})

	l.Push(NewAnyData(1))
	l.Push(NewAnyData(2))
	l.Push(NewAnyData(3))

	d, ok := l.Next()
	require.True(t, ok)
	assert.Equal(t, 3, d.Data())
}

func TestLastOnlyReplacesSlot(t *testing.T) {
	l := NewDataList(LastOnly)

	l.Push(NewAnyData(1))
	l.Push(NewAnyData(2))
	l.Push(NewAnyData(3))
	assert.Equal(t, 1, l.Size())

	d, ok := l.Next()
	require.True(t, ok)
	assert.Equal(t, 3, d.Data())
}

func TestDataListStatusTransitions(t *testing.T) {
	l := NewDataList(FIFO)
	assert.Equal(t, -1, l.Status(), "never produced")

	l.Push(NewAnyData(1))
	assert.Equal(t, 1, l.Status(), "fresh")

	_, ok := l.Next()
	require.True(t, ok)
	assert.Equal(t, 0, l.Status(), "stale after drain")
}

func TestDataListProbeReturnsLastPopped(t *testing.T) {
	l := NewDataList(FIFO)
	_, ok := l.Probe()
	assert.False(t, ok)

	l.Push(NewAnyData(42))
	_, _ = l.Next()

	d, ok := l.Probe()
	require.True(t, ok)
	assert.Equal(t, 42, d.Data())
}
