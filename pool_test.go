package vipflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGraphSerializeDeserializeReconnect(t *testing.T) {
	p := NewPool("root", nil)

	source := NewNode("Source", "source", nil)
	source.AddOutput("out")
	require.NoError(t, p.AddNode("source", source))

	srcAddr := Address{Class: "Source", Node: "source", Port: "out"}
	dstAddr := Address{Class: "Sink", Node: "sink", Port: "in"}

	// Forward reference: "sink" hasn't been registered yet, mirroring a
	// graph deserialized in declaration order where a later node is
	// addressed before it exists.
	err := p.Connect(source, srcAddr, dstAddr)
	assert.Error(t, err)
	assert.False(t, source.OutputAt(0).Connection().IsOpen())

	sink := NewNode("Sink", "sink", nil)
	sink.AddInput("in")
	require.NoError(t, p.AddNode("sink", sink))

	require.NoError(t, p.OpenAllConnections())

	assert.True(t, source.OutputAt(0).Connection().IsOpen())
	assert.Equal(t, sink.InputAt(0), source.OutputAt(0).Connection().sink)

	source.OutputAt(0).SetData(NewAnyData(99))
	assert.Equal(t, 99, sink.InputAt(0).Probe().Data())
}

func TestPoolDOTListsNodesAndEdges(t *testing.T) {
	p := NewPool("demo", nil)

	a := NewNode("Gen", "a", nil)
	a.AddOutput("out")
	require.NoError(t, p.AddNode("a", a))

	b := NewNode("Sink", "b", nil)
	b.AddInput("in")
	require.NoError(t, p.AddNode("b", b))

	require.NoError(t, setupConnection(a.OutputAt(0), b.InputAt(0)))

	dot := p.DOT()
	assert.Contains(t, dot, `"a"`)
	assert.Contains(t, dot, `"b"`)
	assert.Contains(t, dot, `"a" -> "b"`)
}

func TestPoolAddNodeRejectsDuplicateName(t *testing.T) {
	p := NewPool("root", nil)
	n1 := NewNode("Gen", "dup", nil)
	n2 := NewNode("Gen", "dup", nil)

	require.NoError(t, p.AddNode("dup", n1))
	assert.ErrorIs(t, p.AddNode("dup", n2), ErrDuplicateName)
}
