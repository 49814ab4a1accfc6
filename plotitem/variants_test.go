package plotitem

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScatterBoundingRectOverPoints(t *testing.T) {
	s := NewScatter("s1")
	s.SetRawData([]ScatterPoint{{X: -1, Y: 2}, {X: 3, Y: -4}, {X: 1, Y: 1}})

	minX, minY, maxX, maxY := s.BoundingRect()
	assert.Equal(t, -1.0, minX)
	assert.Equal(t, -4.0, minY)
	assert.Equal(t, 3.0, maxX)
	assert.Equal(t, 2.0, maxY)
}

func TestScatterDefaultsAndSetters(t *testing.T) {
	s := NewScatter("s2")
	assert.Equal(t, 6.0, s.SymbolSize())
	assert.Equal(t, SymbolCircle, s.Symbol())

	s.SetSymbol(SymbolTriangle)
	s.SetSymbolSize(10)
	assert.Equal(t, SymbolTriangle, s.Symbol())
	assert.Equal(t, 10.0, s.SymbolSize())
}

func TestQuiverArrowEndpointsAppliesMagnitudeScale(t *testing.T) {
	q := NewQuiver("q1")
	q.SetRawData([]QuiverPoint{{X: 0, Y: 0, DX: 1, DY: 2}})
	q.SetMagnitudeScale(3)

	ends := q.ArrowEndpoints()
	if assert.Len(t, ends, 1) {
		assert.Equal(t, Point{X: 0, Y: 0}, ends[0][0])
		assert.Equal(t, Point{X: 3, Y: 6}, ends[0][1])
	}
}

func TestBarsRectsCenteredOnPosWithBaseline(t *testing.T) {
	b := NewBars("b1")
	b.SetBaseline(0)
	b.SetWidth(2)
	b.SetRawData([]BarValue{{Label: "a", Pos: 5, Value: 10}, {Label: "b", Pos: 10, Value: -4}})

	rects := b.Rects()
	if assert.Len(t, rects, 2) {
		assert.Equal(t, Bar{MinX: 4, MaxX: 6, MinY: 0, MaxY: 10}, rects[0])
		assert.Equal(t, Bar{MinX: 9, MaxX: 11, MinY: -4, MaxY: 0}, rects[1])
	}
}

func TestMarkerLabelAndLine(t *testing.T) {
	m := NewMarker("m1")
	assert.Equal(t, MarkerNoLine, m.Line())

	m.SetRawData(Point{X: 1, Y: 2})
	m.SetLabel("peak")
	m.SetLine(MarkerCross)

	assert.Equal(t, Point{X: 1, Y: 2}, m.RawData())
	assert.Equal(t, "peak", m.Label())
	assert.Equal(t, MarkerCross, m.Line())
}
