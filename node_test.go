package vipflow

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingProcessor struct {
	mu       sync.Mutex
	inflight int32
	overlap  bool
	calls    int
}

func (c *countingProcessor) Apply(n *Node) error {
	if atomic.AddInt32(&c.inflight, 1) > 1 {
		c.mu.Lock()
		c.overlap = true
		c.mu.Unlock()
	}
	time.Sleep(time.Millisecond)
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	atomic.AddInt32(&c.inflight, -1)
	return nil
}

func TestNodeApplyMutualExclusion(t *testing.T) {
	proc := &countingProcessor{}
	n := NewNode("Counter", "counter", proc)
	n.SetSchedule(OneInput | Asynchronous)
	in := n.AddInput("in")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(v int) {
			defer wg.Done()
			in.setData(NewAnyData(v))
		}(i)
	}
	wg.Wait()

	require.True(t, n.Wait(false, 2*time.Second))

	proc.mu.Lock()
	defer proc.mu.Unlock()
	assert.False(t, proc.overlap, "apply ran concurrently with itself")
	assert.Greater(t, proc.calls, 0)
}

func TestSourcesCompleteBeforeSyncUpdateReturns(t *testing.T) {
	var order []string
	var mu sync.Mutex
	record := func(name string) {
		mu.Lock()
		order = append(order, name)
		mu.Unlock()
	}

	source := NewNode("Source", "source", ProcessorFunc(func(n *Node) error {
		record("source")
		n.OutputAt(0).SetData(NewAnyData(1))
		return nil
	}))
	source.SetSchedule(OneInput | NoThread | AcceptEmptyInput)
	source.AddOutput("out")

	sink := NewNode("Sink", "sink", ProcessorFunc(func(n *Node) error {
		record("sink")
		return nil
	}))
	sink.SetSchedule(OneInput | NoThread)
	sinkIn := sink.AddInput("in")

	require.NoError(t, setupConnection(source.OutputAt(0), sinkIn))

	ok := sink.Update(false)
	require.True(t, ok)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, order, 2)
	assert.Equal(t, "source", order[0])
	assert.Equal(t, "sink", order[1])
}

func TestAcceptEmptyInputOffSkipsApply(t *testing.T) {
	var calls int32
	n := NewNode("Sink", "sink", ProcessorFunc(func(n *Node) error {
		atomic.AddInt32(&calls, 1)
		return nil
	}))
	n.SetSchedule(OneInput | NoThread)
	n.AddInput("in")

	ok := n.Update(false)
	assert.False(t, ok)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestAcceptEmptyInputOnRunsDespiteNeverProduced(t *testing.T) {
	var calls int32
	n := NewNode("Sink", "sink", ProcessorFunc(func(n *Node) error {
		atomic.AddInt32(&calls, 1)
		return nil
	}))
	n.SetSchedule(OneInput | NoThread | AcceptEmptyInput)
	n.AddInput("in")

	ok := n.Update(false)
	assert.True(t, ok)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestDisabledNodeIgnoresUpdate(t *testing.T) {
	var calls int32
	n := NewNode("Sink", "sink", ProcessorFunc(func(n *Node) error {
		atomic.AddInt32(&calls, 1)
		return nil
	}))
	n.SetSchedule(OneInput | NoThread | AcceptEmptyInput)
	n.AddInput("in")
	n.SetEnabled(false)

	ok := n.Update(false)
	assert.False(t, ok)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestDestroyDisablesInputsAndDrainsTaskPool(t *testing.T) {
	proc := &countingProcessor{}
	n := NewNode("Counter", "counter", proc)
	n.SetSchedule(OneInput | Asynchronous)
	in := n.AddInput("in")

	in.setData(NewAnyData(1))
	n.Destroy()

	assert.False(t, in.Enabled())

	before := proc.calls
	in.setData(NewAnyData(2))
	assert.Equal(t, before, proc.calls, "destroyed node must ignore further pushes")
}
