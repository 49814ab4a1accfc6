package plotitem

/*
   Copyright 2018 Bruno Moura <brunotm@gmail.com>

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       http://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License.
*/

import "math"

// SymbolShape selects the marker glyph a Scatter draws at each point.
type SymbolShape int

const (
	SymbolCircle SymbolShape = iota
	SymbolSquare
	SymbolTriangle
	SymbolCross
)

// ScatterPoint is one sample of a Scatter: a position plus an optional
// per-point size and color-map value, letting a single Scatter encode a
// 3rd and 4th dimension through symbol size and color.
type ScatterPoint struct {
	X, Y  float64
	Size  float64
	Value float64
}

// Scatter renders a cloud of independent points, each with its own size
// and color-mapped value, unlike Curve which connects samples in order.
// It shares Curve's "set payload then mark-dirty" contract but carries no
// NaN-separator or connectivity semantics of its own.
type Scatter struct {
	DataType[[]ScatterPoint]
	symbol     SymbolShape
	symbolSize float64
}

// NewScatter creates an empty, named Scatter.
func NewScatter(name string) *Scatter {
	return &Scatter{DataType: newDataType[[]ScatterPoint](name, "scatter"), symbolSize: 6}
}

// SetSymbol sets the glyph drawn at every point.
func (s *Scatter) SetSymbol(sym SymbolShape) { s.symbol = sym }

// Symbol returns the configured glyph.
func (s *Scatter) Symbol() SymbolShape { return s.symbol }

// SetSymbolSize sets the default glyph size used for points with Size == 0.
func (s *Scatter) SetSymbolSize(size float64) { s.symbolSize = size }

// SymbolSize returns the default glyph size.
func (s *Scatter) SymbolSize() float64 { return s.symbolSize }

// BoundingRect returns the data extent over every point, (0,0,0,0) when
// empty.
func (s *Scatter) BoundingRect() (minX, minY, maxX, maxY float64) {
	pts := s.RawData()
	for i, p := range pts {
		if i == 0 {
			minX, maxX, minY, maxY = p.X, p.X, p.Y, p.Y
			continue
		}
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}
	return minX, minY, maxX, maxY
}

// QuiverPoint is one vector sample of a Quiver field: an anchor position
// plus a direction vector, drawn as an arrow from (X,Y) to
// (X+DX, Y+DY) scaled by the item's magnitude scale.
type QuiverPoint struct {
	X, Y   float64
	DX, DY float64
}

// Quiver renders a 2-D vector field as an array of arrows, one per
// sample, sharing Curve's payload contract.
type Quiver struct {
	DataType[[]QuiverPoint]
	scale float64
}

// NewQuiver creates an empty, named Quiver with a unit magnitude scale.
func NewQuiver(name string) *Quiver {
	return &Quiver{DataType: newDataType[[]QuiverPoint](name, "quiver"), scale: 1}
}

// SetMagnitudeScale sets the factor applied to every (DX, DY) before
// drawing, letting a caller exaggerate or shrink arrow length uniformly.
func (q *Quiver) SetMagnitudeScale(s float64) { q.scale = s }

// MagnitudeScale returns the configured magnitude scale.
func (q *Quiver) MagnitudeScale() float64 { return q.scale }

// ArrowEndpoints returns, for each sample, the start and scaled end point
// of its arrow.
func (q *Quiver) ArrowEndpoints() [][2]Point {
	pts := q.RawData()
	out := make([][2]Point, len(pts))
	for i, p := range pts {
		out[i] = [2]Point{
			{X: p.X, Y: p.Y},
			{X: p.X + p.DX*q.scale, Y: p.Y + p.DY*q.scale},
		}
	}
	return out
}

// BarValue is one category of a Bars item: a label, position on the
// category axis, and value. Unlike Histogram, Bars categories are
// discrete and unordered rather than contiguous intervals on a numeric
// axis.
type BarValue struct {
	Label string
	Pos   float64
	Value float64
}

// Bars renders one rectangle per category from a shared baseline, the
// categorical counterpart to Histogram's interval-binned bars.
type Bars struct {
	DataType[[]BarValue]
	baseline float64
	width    float64
}

// NewBars creates an empty, named Bars with a zero baseline and a default
// bar width of 0.8 category units.
func NewBars(name string) *Bars {
	return &Bars{DataType: newDataType[[]BarValue](name, "bars"), width: 0.8}
}

// SetBaseline sets the value each bar rectangle extends from.
func (b *Bars) SetBaseline(y float64) { b.baseline = y }

// Baseline returns the configured baseline.
func (b *Bars) Baseline() float64 { return b.baseline }

// SetWidth sets each bar's width in category-axis units.
func (b *Bars) SetWidth(w float64) { b.width = w }

// Width returns the configured bar width.
func (b *Bars) Width() float64 { return b.width }

// Rects returns one Bar rectangle per category, centered on its Pos.
func (b *Bars) Rects() []Bar {
	values := b.RawData()
	out := make([]Bar, len(values))
	half := b.width / 2
	for i, v := range values {
		out[i] = Bar{
			MinX: v.Pos - half,
			MaxX: v.Pos + half,
			MinY: math.Min(b.baseline, v.Value),
			MaxY: math.Max(b.baseline, v.Value),
		}
	}
	return out
}

// MarkerLine selects which crosshair lines a Marker draws through its
// position.
type MarkerLine int

const (
	MarkerNoLine MarkerLine = iota
	MarkerHLine
	MarkerVLine
	MarkerCross
)

// Marker is a single labeled position with an optional crosshair,
// VipPlotMarker's closest Go counterpart: a point annotation rather than
// a data series.
type Marker struct {
	DataType[Point]
	label string
	line  MarkerLine
}

// NewMarker creates a Marker at the origin with no crosshair.
func NewMarker(name string) *Marker {
	return &Marker{DataType: newDataType[Point](name, "marker")}
}

// SetLabel sets the text drawn next to the marker's position.
func (m *Marker) SetLabel(text string) { m.label = text }

// Label returns the configured label text.
func (m *Marker) Label() string { return m.label }

// SetLine sets which crosshair lines are drawn through the marker.
func (m *Marker) SetLine(line MarkerLine) { m.line = line }

// Line returns the configured crosshair mode.
func (m *Marker) Line() MarkerLine { return m.line }
