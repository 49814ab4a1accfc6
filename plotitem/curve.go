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

import (
	"math"
	"strconv"
	"sync"
)

// Point is a single (x, y) sample.
type Point struct {
	X, Y float64
}

// EnvelopePoint collapses a run of consecutive same-X samples in a
// continuous sub-curve into one vertical min/max span, the fast path
// VipPlotCurve takes for dense oversampled data.
type EnvelopePoint struct {
	X    float64
	MinY float64
	MaxY float64
}

// FillRegion is the area between two consecutive sub-curves, filled
// instead of each sub-curve's own baseline when FillMultiCurves is set.
type FillRegion struct {
	Upper []Point
	Lower []Point
}

// Curve renders a polyline built from [][2]float64-style samples, split
// into sub-curves at NaN separators: a single point whose X or Y is NaN
// closes the current sub-curve and starts a new one, matching the source system's
// VipPointVector convention for drawing discontinuous data without a
// dedicated "gap" flag.
type Curve struct {
	DataType[[]Point]

	mu              sync.RWMutex
	baseline        float64
	filled          bool
	fillMultiCurves bool

	fn           func(float64) float64
	fnMin, fnMax float64
}

// NewCurve creates an empty, named Curve.
func NewCurve(name string) *Curve {
	return &Curve{DataType: newDataType[[]Point](name, "curve")}
}

// SetBaseline sets the fill baseline used when Filled is set.
func (c *Curve) SetBaseline(y float64) { c.mu.Lock(); c.baseline = y; c.mu.Unlock() }

// Baseline returns the fill baseline.
func (c *Curve) Baseline() float64 { c.mu.RLock(); defer c.mu.RUnlock(); return c.baseline }

// SetFilled enables filling each sub-curve's area down to the baseline.
func (c *Curve) SetFilled(on bool) { c.mu.Lock(); c.filled = on; c.mu.Unlock() }

// Filled reports whether baseline filling is enabled.
func (c *Curve) Filled() bool { c.mu.RLock(); defer c.mu.RUnlock(); return c.filled }

// SetFillMultiCurves enables VipPlotCurve::FillMultiCurves: instead of
// filling each sub-curve to the baseline, the space between consecutive
// sub-curve pairs is filled.
func (c *Curve) SetFillMultiCurves(on bool) { c.mu.Lock(); c.fillMultiCurves = on; c.mu.Unlock() }

// FillMultiCurves reports whether multi-curve fill mode is enabled.
func (c *Curve) FillMultiCurves() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.fillMultiCurves
}

// SetItemProperty adds the curve-family geometry properties (baseline,
// filled, fill-multi-curves) on top of itemCore's shared pen/brush/text
// set.
func (c *Curve) SetItemProperty(name, value string, index int) bool {
	tok := tokenAt(value, index)
	switch name {
	case "baseline":
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return false
		}
		c.SetBaseline(v)
	case "filled":
		v, err := strconv.ParseBool(tok)
		if err != nil {
			return false
		}
		c.SetFilled(v)
	case "fill-multi-curves":
		v, err := strconv.ParseBool(tok)
		if err != nil {
			return false
		}
		c.SetFillMultiCurves(v)
	default:
		return c.itemCore.SetItemProperty(name, value, index)
	}
	return true
}

// SubCurves splits the raw point sequence at NaN separators, where a
// separator is any point whose X or Y is NaN. A curve made entirely of
// separators (or empty) has zero sub-curves, not one empty sub-curve.
func (c *Curve) SubCurves() [][]Point {
	pts := c.RawData()
	var out [][]Point
	var cur []Point
	flush := func() {
		if len(cur) > 0 {
			out = append(out, cur)
			cur = nil
		}
	}
	for _, p := range pts {
		if math.IsNaN(p.X) || math.IsNaN(p.Y) {
			flush()
			continue
		}
		cur = append(cur, p)
	}
	flush()
	return out
}

// BoundingRect returns the curve's data extent (min/max over both axes).
// It ignores NaN separators and returns (0,0,0,0) for an all-NaN or empty
// curve.
func (c *Curve) BoundingRect() (minX, minY, maxX, maxY float64) {
	first := true
	for _, sub := range c.SubCurves() {
		for _, p := range sub {
			if first {
				minX, maxX = p.X, p.X
				minY, maxY = p.Y, p.Y
				first = false
				continue
			}
			minX = math.Min(minX, p.X)
			maxX = math.Max(maxX, p.X)
			minY = math.Min(minY, p.Y)
			maxY = math.Max(maxY, p.Y)
		}
	}
	return minX, minY, maxX, maxY
}

// isContinuous reports whether sub is sorted in ascending X, the
// precondition for the envelope fast path and for FillMultiCurves.
func isContinuous(sub []Point) bool {
	for i := 1; i < len(sub); i++ {
		if sub[i].X < sub[i-1].X {
			return false
		}
	}
	return true
}

// SubContinuous reports, per sub-curve, whether it is sorted ascending in
// X (VipPlotCurve::continuousVectors).
func (c *Curve) SubContinuous() []bool {
	subs := c.SubCurves()
	out := make([]bool, len(subs))
	for i, sub := range subs {
		out[i] = isContinuous(sub)
	}
	return out
}

// FullContinuous reports whether every sub-curve is sorted ascending in
// X; the order of one sub-curve relative to the next is not checked
// (VipPlotCurve::isFullContinuous).
func (c *Curve) FullContinuous() bool {
	for _, sub := range c.SubCurves() {
		if !isContinuous(sub) {
			return false
		}
	}
	return true
}

// Envelope collapses consecutive same-X runs in sub into a single
// min/max vertical span, the fast path a continuous sub-curve takes for
// dense, oversampled data. sub that isn't continuous is returned
// unchanged as one EnvelopePoint per sample.
func Envelope(sub []Point) []EnvelopePoint {
	if len(sub) == 0 {
		return nil
	}
	if !isContinuous(sub) {
		out := make([]EnvelopePoint, len(sub))
		for i, p := range sub {
			out[i] = EnvelopePoint{X: p.X, MinY: p.Y, MaxY: p.Y}
		}
		return out
	}

	var out []EnvelopePoint
	cur := EnvelopePoint{X: sub[0].X, MinY: sub[0].Y, MaxY: sub[0].Y}
	for _, p := range sub[1:] {
		if p.X == cur.X {
			cur.MinY = math.Min(cur.MinY, p.Y)
			cur.MaxY = math.Max(cur.MaxY, p.Y)
			continue
		}
		out = append(out, cur)
		cur = EnvelopePoint{X: p.X, MinY: p.Y, MaxY: p.Y}
	}
	out = append(out, cur)
	return out
}

// FilledAreas returns, for each sub-curve, the closed polygon obtained by
// walking the sub-curve forward then the baseline backward, used to
// render Filled when FillMultiCurves is off.
func (c *Curve) FilledAreas() [][]Point {
	if !c.Filled() || c.FillMultiCurves() {
		return nil
	}
	base := c.Baseline()
	var out [][]Point
	for _, sub := range c.SubCurves() {
		if len(sub) == 0 {
			continue
		}
		area := make([]Point, 0, len(sub)+2)
		area = append(area, sub...)
		area = append(area, Point{X: sub[len(sub)-1].X, Y: base}, Point{X: sub[0].X, Y: base})
		out = append(out, area)
	}
	return out
}

// FillRegions pairs up consecutive sub-curves and returns the area
// between each pair, used to render FillMultiCurves. Sub-curves are
// paired (0,1), (2,3), ... ; a trailing unpaired sub-curve is dropped,
// matching "applied 2 curves by 2 curves" (VipPlotCurve::FillMultiCurves).
func (c *Curve) FillRegions() []FillRegion {
	if !c.FillMultiCurves() {
		return nil
	}
	subs := c.SubCurves()
	var out []FillRegion
	for i := 0; i+1 < len(subs); i += 2 {
		out = append(out, FillRegion{Upper: subs[i], Lower: subs[i+1]})
	}
	return out
}

// SetFunction switches the curve to function mode: instead of the raw
// point sequence, it renders y = fn(x) sampled over [min, max].
// RawData/SubCurves are ignored while function mode is active.
func (c *Curve) SetFunction(fn func(x float64) float64, min, max float64) {
	c.mu.Lock()
	c.fn = fn
	c.fnMin, c.fnMax = min, max
	c.mu.Unlock()
}

// ResetFunction disables function mode, reverting to the raw point
// sequence.
func (c *Curve) ResetFunction() {
	c.mu.Lock()
	c.fn = nil
	c.mu.Unlock()
}

// IsFunction reports whether function mode is active.
func (c *Curve) IsFunction() bool { c.mu.RLock(); defer c.mu.RUnlock(); return c.fn != nil }

// FunctionPoints samples the current function at n evenly spaced points
// across its interval. It returns nil when function mode is inactive or
// n < 2.
func (c *Curve) FunctionPoints(n int) []Point {
	c.mu.RLock()
	fn, min, max := c.fn, c.fnMin, c.fnMax
	c.mu.RUnlock()
	if fn == nil || n < 2 {
		return nil
	}
	pts := make([]Point, n)
	step := (max - min) / float64(n-1)
	for i := 0; i < n; i++ {
		x := min + step*float64(i)
		pts[i] = Point{X: x, Y: fn(x)}
	}
	return pts
}
