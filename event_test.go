package vipflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscribeReceivesProcessingChangedOnEnableToggle(t *testing.T) {
	n := NewNode("Gen", "gen", nil)

	var kinds []EventKind
	n.Subscribe(func(e Event) {
		kinds = append(kinds, e.Kind)
	})

	n.SetEnabled(false)
	n.SetEnabled(false) // no-op: state already false, must not re-fire

	require.Len(t, kinds, 1)
	assert.Equal(t, ProcessingChanged, kinds[0])
}

func TestSubscribeReceivesIOChangedOnPortCreation(t *testing.T) {
	n := NewNode("Gen", "gen", nil)

	var events []Event
	n.Subscribe(func(e Event) { events = append(events, e) })

	out := n.AddOutput("out")

	require.Len(t, events, 1)
	assert.Equal(t, IOChanged, events[0].Kind)
	assert.Equal(t, out, events[0].Port)
}

func TestSubscribeReceivesConnectionOpenedOnBothSides(t *testing.T) {
	src := NewNode("Gen", "src", nil)
	out := src.AddOutput("out")

	dst := NewNode("Sink", "dst", nil)
	in := dst.AddInput("in")

	var srcKinds, dstKinds []EventKind
	src.Subscribe(func(e Event) { srcKinds = append(srcKinds, e.Kind) })
	dst.Subscribe(func(e Event) { dstKinds = append(dstKinds, e.Kind) })

	require.NoError(t, setupConnection(out, in))

	assert.Contains(t, srcKinds, ConnectionOpened)
	assert.Contains(t, dstKinds, ConnectionOpened)

	removeConnection(out, in)
	assert.Contains(t, srcKinds, ConnectionClosed)
	assert.Contains(t, dstKinds, ConnectionClosed)
}

func TestSubscribeReceivesDataSentAndReceived(t *testing.T) {
	src := NewNode("Gen", "src", nil)
	src.SetSchedule(OneInput | NoThread)
	out := src.AddOutput("out")

	dst := NewNode("Sink", "dst", ProcessorFunc(func(n *Node) error { return nil }))
	dst.SetSchedule(OneInput | NoThread | AcceptEmptyInput)
	in := dst.AddInput("in")

	var srcKinds, dstKinds []EventKind
	src.Subscribe(func(e Event) { srcKinds = append(srcKinds, e.Kind) })
	dst.Subscribe(func(e Event) { dstKinds = append(dstKinds, e.Kind) })

	require.NoError(t, setupConnection(out, in))

	out.SetData(NewAnyData(5))

	assert.Contains(t, srcKinds, DataSent)
	assert.Contains(t, dstKinds, DataReceived)
	assert.Contains(t, dstKinds, ProcessingDone)
}

func TestSubscribeReceivesErrorRaised(t *testing.T) {
	n := NewNode("Gen", "gen", nil)

	var events []Event
	n.Subscribe(func(e Event) { events = append(events, e) })

	n.setError(NodeError{Code: RuntimeError, Message: "boom"})

	require.Len(t, events, 1)
	assert.Equal(t, ErrorRaised, events[0].Kind)
	assert.Equal(t, "boom", events[0].Err.Message)
}

func TestSubscribeReceivesDestroyed(t *testing.T) {
	n := NewNode("Gen", "gen", nil)
	n.AddInput("in")

	var kinds []EventKind
	n.Subscribe(func(e Event) { kinds = append(kinds, e.Kind) })

	n.Destroy()

	assert.Contains(t, kinds, Destroyed)
}

func TestSetImageTransformPropagatesToSources(t *testing.T) {
	src := NewNode("Gen", "src", nil)
	out := src.AddOutput("out")

	dst := NewNode("Sink", "dst", nil)
	in := dst.AddInput("in")
	require.NoError(t, setupConnection(out, in))

	var srcKinds []EventKind
	src.Subscribe(func(e Event) { srcKinds = append(srcKinds, e.Kind) })

	dst.SetImageTransform("rot90")

	assert.Contains(t, srcKinds, ImageTransformChanged)
	v, ok := dst.Attribute("imageTransform")
	require.True(t, ok)
	assert.Equal(t, "rot90", v)
}
