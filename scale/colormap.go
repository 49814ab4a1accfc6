package scale

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
	"image"
	"image/color"

	"github.com/couchbase/ghistogram"
)

// ColorMapMode selects how the 256-entry table's alpha channel behaves.
type ColorMapMode int

const (
	// LinearMap renders fully opaque entries.
	LinearMap ColorMapMode = iota
	// AlphaMap fades entries toward transparent near the low end, used
	// for overlay heatmaps blended atop another layer.
	AlphaMap
)

// OutOfRange selects the treatment of values outside the active interval.
type OutOfRange int

const (
	// Clamp maps below-range to entry 0 and above-range to entry 255.
	Clamp OutOfRange = iota
	// Sentinel maps out-of-range values to a fixed configured color.
	Sentinel
)

const tableSize = 256

// SliderGrip is an interactive value tethered to a Scale; dragging it
// edits the owning ColorMap's active [Low,High] interval.
type SliderGrip struct {
	scale *Scale
	value float64
}

// NewSliderGrip creates a grip bound to s at the given initial value.
func NewSliderGrip(s *Scale, value float64) *SliderGrip {
	return &SliderGrip{scale: s, value: value}
}

// Value returns the grip's current value.
func (g *SliderGrip) Value() float64 { return g.value }

// SetValue moves the grip, clamped to the bound scale's division.
func (g *SliderGrip) SetValue(v float64) {
	d := g.scale.Div()
	if v < d.Min {
		v = d.Min
	}
	if v > d.Max {
		v = d.Max
	}
	g.value = v
}

// ColorMap is a compact 256-entry color table keyed by normalized
// position within the active interval defined by two SliderGrips. An
// optional flat-histogram mode remaps the table to equalize the visible
// contrast of the current image, blending linearly with the unequalized
// table by a 0-100 strength.
type ColorMap struct {
	mode       ColorMapMode
	outOfRange OutOfRange
	sentinel   color.RGBA

	low, high *SliderGrip

	table [tableSize]color.RGBA

	flatHistogram bool
	strength      int // 0..100
	equalized     [tableSize]color.RGBA

	hist *ghistogram.Histogram
}

// NewColorMap creates a ColorMap with a black-to-white linear gradient
// bound to low/high as its active-interval grips.
func NewColorMap(low, high *SliderGrip) *ColorMap {
	cm := &ColorMap{low: low, high: high, mode: LinearMap}
	for i := 0; i < tableSize; i++ {
		v := uint8(i)
		cm.table[i] = color.RGBA{R: v, G: v, B: v, A: 255}
	}
	return cm
}

// SetTable replaces the 256-entry gradient wholesale (e.g. loading a
// named palette).
func (cm *ColorMap) SetTable(entries [256]color.RGBA) {
	cm.table = entries
}

// SetMode selects opaque vs alpha-fading rendering.
func (cm *ColorMap) SetMode(m ColorMapMode) { cm.mode = m }

// SetOutOfRangePolicy selects clamp-to-edge vs sentinel-color handling.
func (cm *ColorMap) SetOutOfRangePolicy(p OutOfRange, sentinel color.RGBA) {
	cm.outOfRange = p
	cm.sentinel = sentinel
}

// SetFlatHistogram enables or disables histogram-equalized remapping and
// sets the linear/equalized blend strength (0..100).
func (cm *ColorMap) SetFlatHistogram(enabled bool, strength int) {
	cm.flatHistogram = enabled
	if strength < 0 {
		strength = 0
	}
	if strength > 100 {
		strength = 100
	}
	cm.strength = strength
}

// ComputeHistogram builds the cumulative histogram of img's luminance and
// derives the equalized table used by Lookup when flat-histogram mode is
// on. It should be called once per new image before the corresponding
// Lookup calls, matching the source system's "precompute at colour-apply
// time" policy. The per-bucket counts driving the equalized remap are
// tallied directly; the same samples are also fed into a ghistogram
// histogram kept on the ColorMap so HistogramReport can surface the
// distribution for diagnostics without a second pass over the image.
func (cm *ColorMap) ComputeHistogram(img image.Image) {
	cm.hist = ghistogram.NewHistogram(tableSize, 1, 0)

	var counts [tableSize]uint64
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			lum := (299*r + 587*g + 114*bl) / 1000
			bucket := lum >> 8 // 0..255
			counts[bucket]++
			cm.hist.Add(uint64(bucket), 1)
		}
	}

	var cumulative uint64
	total := cm.hist.Total()
	if total == 0 {
		cm.equalized = cm.table
		return
	}

	for i := 0; i < tableSize; i++ {
		cumulative += counts[i]
		pos := int(float64(cumulative) / float64(total) * float64(tableSize-1))
		if pos < 0 {
			pos = 0
		}
		if pos >= tableSize {
			pos = tableSize - 1
		}
		cm.equalized[i] = cm.table[pos]
	}
}

// HistogramReport returns a human-readable rendering of the most
// recently computed luminance histogram, or "" if none has been computed
// yet.
func (cm *ColorMap) HistogramReport() string {
	if cm.hist == nil {
		return ""
	}
	return cm.hist.String()
}

// Lookup maps a data value to its color, applying the active interval
// (the two grips), the out-of-range policy, and — when enabled — the
// flat-histogram blend between the linear and equalized tables.
func (cm *ColorMap) Lookup(value float64) color.RGBA {
	lo, hi := cm.low.Value(), cm.high.Value()
	if hi < lo {
		lo, hi = hi, lo
	}

	if value < lo || value > hi {
		if cm.outOfRange == Sentinel {
			return cm.sentinel
		}
	}

	pos := 0.0
	if hi > lo {
		pos = (value - lo) / (hi - lo)
	}
	if pos < 0 {
		pos = 0
	}
	if pos > 1 {
		pos = 1
	}

	idx := int(pos * float64(tableSize-1))
	c := cm.table[idx]

	if cm.flatHistogram && cm.strength > 0 {
		eq := cm.equalized[idx]
		t := float64(cm.strength) / 100
		c = blend(c, eq, t)
	}

	if cm.mode == AlphaMap {
		c.A = uint8(pos * 255)
	}
	return c
}

func blend(a, b color.RGBA, t float64) color.RGBA {
	lerp := func(x, y uint8) uint8 {
		return uint8(float64(x)*(1-t) + float64(y)*t)
	}
	return color.RGBA{
		R: lerp(a.R, b.R),
		G: lerp(a.G, b.G),
		B: lerp(a.B, b.B),
		A: lerp(a.A, b.A),
	}
}
