package vipflow

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestStreamingGeneratorNoDropsWhenRateMatches exercises the "streaming
// cosine" scenario's core guarantee at the node/DataList level: when a
// generator's production rate stays within a bounded FIFO's capacity, a
// consumer that keeps up observes every sample and the input never raises
// InputBufferFull. The curve-windowing and display-refresh behaviour the
// full scenario also describes lives in plotitem/display and is exercised
// there.
func TestStreamingGeneratorNoDropsWhenRateMatches(t *testing.T) {
	var received int32
	var bufferFull int32

	consumer := NewNode("Curve", "curve", ProcessorFunc(func(n *Node) error {
		n.InputAt(0).Data()
		atomic.AddInt32(&received, 1)
		return nil
	}))
	consumer.SetSchedule(OneInput | Asynchronous)
	in := consumer.AddInput("t")
	in.SetLimits(DataListDefaults{LimitKind: LimitCount, MaxCount: 50})

	consumer.Subscribe(func(e Event) {
		if e.Kind == ErrorRaised && e.Err.Code == InputBufferFull {
			atomic.AddInt32(&bufferFull, 1)
		}
	})

	const samples = 100
	for i := 0; i < samples; i++ {
		in.setData(NewAnyData(float64(i)))
		time.Sleep(time.Millisecond)
	}

	require.True(t, consumer.Wait(false, 2*time.Second))
	assert.Equal(t, int32(samples), atomic.LoadInt32(&received))
	assert.Equal(t, int32(0), atomic.LoadInt32(&bufferFull))
}

// TestBackPressureDropsExcessWithoutDeadlock exercises the "back-pressure
// drop" scenario: a producer far outpaces a slow consumer into a small
// capped FIFO. The consumer must still make steady progress, the input
// must raise InputBufferFull for what it drops, and the whole exchange
// must finish within a bounded wait (no deadlock, no unbounded growth).
func TestBackPressureDropsExcessWithoutDeadlock(t *testing.T) {
	var applied int32

	consumer := NewNode("Sink", "slow", ProcessorFunc(func(n *Node) error {
		atomic.AddInt32(&applied, 1)
		time.Sleep(time.Millisecond)
		return nil
	}))
	consumer.SetSchedule(OneInput | Asynchronous)
	in := consumer.AddInput("in")
	in.SetLimits(DataListDefaults{LimitKind: LimitCount, MaxCount: 10})

	var dropped int32
	consumer.Subscribe(func(e Event) {
		if e.Kind == ErrorRaised && e.Err.Code == InputBufferFull {
			atomic.AddInt32(&dropped, 1)
		}
	})

	const pushes = 500
	for i := 0; i < pushes; i++ {
		in.setData(NewAnyData(i))
	}

	require.True(t, consumer.Wait(false, 5*time.Second))
	assert.Greater(t, atomic.LoadInt32(&applied), int32(0))
	assert.Greater(t, atomic.LoadInt32(&dropped), int32(0))
	assert.LessOrEqual(t, in.list.Size(), 10)
}
