package vipflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scaleStage struct {
	factor int
}

func (s *scaleStage) Apply(n *Node) error {
	v := n.InputAt(0).Data().Data().(int)
	n.OutputAt(0).SetData(NewAnyData(v * s.factor))
	return nil
}

type addStage struct {
	delta int
}

func (s *addStage) Apply(n *Node) error {
	v := n.InputAt(0).Data().Data().(int)
	n.OutputAt(0).SetData(NewAnyData(v + s.delta))
	return nil
}

func TestProcessingListChain(t *testing.T) {
	pl := NewProcessingList("chain")

	double := &scaleStage{factor: 2}
	doubleNode := NewNode("Scale", "double", double)
	doubleNode.AddInput("in")
	doubleNode.AddOutput("out")
	pl.Append(doubleNode)

	plusOne := &addStage{delta: 1}
	plusOneNode := NewNode("Add", "plus-one", plusOne)
	plusOneNode.AddInput("in")
	plusOneNode.AddOutput("out")
	pl.Append(plusOneNode)

	require.Equal(t, 2, pl.Len())

	pl.InputAt(0).setSlotOnly(NewAnyData(3))
	ok := pl.Update(false)
	require.True(t, ok)

	assert.Equal(t, 7, pl.OutputAt(0).Data().Data())
}

func TestProcessingListSkipsDisabledStage(t *testing.T) {
	pl := NewProcessingList("chain")

	double := &scaleStage{factor: 2}
	doubleNode := NewNode("Scale", "double", double)
	doubleNode.AddInput("in")
	doubleNode.AddOutput("out")
	pl.Append(doubleNode)
	doubleNode.SetEnabled(false)

	plusOne := &addStage{delta: 1}
	plusOneNode := NewNode("Add", "plus-one", plusOne)
	plusOneNode.AddInput("in")
	plusOneNode.AddOutput("out")
	pl.Append(plusOneNode)

	pl.InputAt(0).setSlotOnly(NewAnyData(3))
	require.True(t, pl.Update(false))

	assert.Equal(t, 4, pl.OutputAt(0).Data().Data())
}

func TestProcessingListEmptyChainPassesInputThrough(t *testing.T) {
	pl := NewProcessingList("empty-chain")

	pl.InputAt(0).setSlotOnly(NewAnyData(9))
	require.True(t, pl.Update(false))

	assert.Equal(t, 9, pl.OutputAt(0).Data().Data())
}

// TestProcessingListMultipleFramesEachUseTheirOwnInput guards against the
// list mistaking its own stage-by-stage forward run for an out-of-band
// inner-node edit: every stage's Update(true) inside Apply fires the same
// ProcessingDone callback a real mid-chain parameter edit would, and
// without a guard the list fixates on the last stage, replaying stale
// cached output instead of each frame's new input.
func TestProcessingListMultipleFramesEachUseTheirOwnInput(t *testing.T) {
	pl := NewProcessingList("chain")

	double := &scaleStage{factor: 2}
	doubleNode := NewNode("Scale", "double", double)
	doubleNode.AddInput("in")
	doubleNode.AddOutput("out")
	pl.Append(doubleNode)

	plusOne := &addStage{delta: 1}
	plusOneNode := NewNode("Add", "plus-one", plusOne)
	plusOneNode.AddInput("in")
	plusOneNode.AddOutput("out")
	pl.Append(plusOneNode)

	for _, tc := range []struct {
		in   int
		want int
	}{
		{in: 3, want: 7},
		{in: 4, want: 9},
		{in: 10, want: 21},
	} {
		pl.InputAt(0).setSlotOnly(NewAnyData(tc.in))
		require.True(t, pl.Update(false))
		assert.Equal(t, tc.want, pl.OutputAt(0).Data().Data(), "input %d", tc.in)
	}
}

// TestProcessingListMidChainEditRestartsSuffixThenResumesStreaming checks
// that a genuine out-of-band edit on an inner node still restarts the
// chain at that stage once, and that the next ordinary outer push goes
// back to running the full chain rather than getting stuck restarting
// from the edited stage forever.
func TestProcessingListMidChainEditRestartsSuffixThenResumesStreaming(t *testing.T) {
	pl := NewProcessingList("chain")

	double := &scaleStage{factor: 2}
	doubleNode := NewNode("Scale", "double", double)
	doubleNode.AddInput("in")
	doubleNode.AddOutput("out")
	pl.Append(doubleNode)

	plusOne := &addStage{delta: 1}
	plusOneNode := NewNode("Add", "plus-one", plusOne)
	plusOneNode.AddInput("in")
	plusOneNode.AddOutput("out")
	pl.Append(plusOneNode)

	pl.InputAt(0).setSlotOnly(NewAnyData(3))
	require.True(t, pl.Update(false))
	assert.Equal(t, 7, pl.OutputAt(0).Data().Data())

	// Edit the second stage out-of-band: it reruns on its own cached
	// input (6, the first stage's last output) and should propagate.
	plusOne.delta = 10
	plusOneNode.Reload()
	assert.Equal(t, 16, pl.OutputAt(0).Data().Data())

	// A fresh outer push must process the new input through the whole
	// chain, not replay the stale carry from the edit above.
	pl.InputAt(0).setSlotOnly(NewAnyData(5))
	require.True(t, pl.Update(false))
	assert.Equal(t, 20, pl.OutputAt(0).Data().Data())
}
