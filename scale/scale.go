// Package scale implements numeric-to-screen axis mapping (linear or
// log), tick computation, and the color-map scale used by raster/
// spectrogram plot items.
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
	"fmt"
	"math"
	"time"
)

// Engine selects the value<->position mapping.
type Engine int

const (
	Linear Engine = iota
	Log
)

// ValueToText formats a scale value into its label string. Fixed,
// time-based and generic (numeric, exponent-aware) formatters all
// implement it.
type ValueToText interface {
	Format(value float64) string
}

// GenericText formats with a shared exponent computed from the scale's
// interval magnitude, unless Exponent is explicitly overridden (non-nil).
type GenericText struct {
	Exponent *int
	Decimals int
}

// Format renders value scaled by 10^Exponent, or unscaled when Exponent
// is nil. A Scale fills Exponent from its interval magnitude unless one
// is pinned with SetExponent.
func (g GenericText) Format(value float64) string {
	exp := 0
	if g.Exponent != nil {
		exp = *g.Exponent
	}
	scaled := value / math.Pow10(exp)
	if exp == 0 {
		return fmt.Sprintf("%.*f", g.Decimals, scaled)
	}
	return fmt.Sprintf("%.*fe%+d", g.Decimals, scaled, exp)
}

// FixedText maps values to hand-assigned labels, used for categorical
// axes with one label per tick.
type FixedText struct {
	Labels map[float64]string
}

// Format looks value up in Labels, falling back to its raw representation.
func (f FixedText) Format(value float64) string {
	if s, ok := f.Labels[value]; ok {
		return s
	}
	return fmt.Sprintf("%g", value)
}

// TimeText formats value as Unix nanoseconds using layout.
type TimeText struct {
	Layout string
}

// Format renders value (nanoseconds since epoch) with t.Layout.
func (t TimeText) Format(value float64) string {
	return time.Unix(0, int64(value)).Format(t.Layout)
}

// Div is a computed scale division: bounds and the three tick tiers.
type Div struct {
	Min, Max    float64
	MajorTicks  []float64
	MediumTicks []float64
	MinorTicks  []float64
}

// Scale owns a division, an engine, a label formatter, and an auto-scale
// flag. It is the axis object PlotItems bind to through a coordinate
// system.
type Scale struct {
	div       Div
	engine    Engine
	formatter ValueToText
	autoScale bool
	exponent  *int
}

// NewScale creates a linear, auto-scaling Scale over [min,max], matching
// the source system's default axis behaviour.
func NewScale(min, max float64) *Scale {
	s := &Scale{
		div:       Div{Min: min, Max: max},
		engine:    Linear,
		autoScale: true,
		formatter: GenericText{Decimals: 3},
	}
	s.computeTicksLocked()
	return s
}

func (s *Scale) Engine() Engine { return s.engine }

// SetEngine switches the mapping function and recomputes ticks.
func (s *Scale) SetEngine(e Engine) {
	s.engine = e
	s.computeTicksLocked()
}

// AutoScale reports whether this scale recomputes its bounds from data.
func (s *Scale) AutoScale() bool { return s.autoScale }

// SetAutoScale toggles auto-scaling.
func (s *Scale) SetAutoScale(v bool) { s.autoScale = v }

// SetRange manually sets [min,max] and recomputes ticks; has no effect on
// AutoScale's own flag (callers typically disable it separately when they
// want a manual range to stick).
func (s *Scale) SetRange(min, max float64) {
	s.div.Min, s.div.Max = min, max
	s.computeTicksLocked()
}

// SetFormatter overrides the value-to-text mapping.
func (s *Scale) SetFormatter(f ValueToText) { s.formatter = f }

// SetExponent pins the label exponent; pass nil to return to automatic
// (computed from the interval's magnitude, applied uniformly to every
// label).
func (s *Scale) SetExponent(exp *int) {
	s.exponent = exp
	if g, ok := s.formatter.(GenericText); ok {
		g.Exponent = exp
		s.formatter = g
	}
	if exp == nil {
		s.computeTicksLocked()
	}
}

// Div returns the current scale division.
func (s *Scale) Div() Div { return s.div }

// Label formats value with the configured formatter.
func (s *Scale) Label(value float64) string {
	if s.formatter == nil {
		return fmt.Sprintf("%g", value)
	}
	return s.formatter.Format(value)
}

// Transform maps a data value to a normalized [0,1] screen position
// within [min,max], honoring the engine (linear or log10).
func (s *Scale) Transform(value float64) float64 {
	lo, hi := s.div.Min, s.div.Max
	if s.engine == Log {
		if lo <= 0 {
			lo = math.SmallestNonzeroFloat64
		}
		if value <= 0 {
			value = math.SmallestNonzeroFloat64
		}
		lo, hi, value = math.Log10(lo), math.Log10(hi), math.Log10(value)
	}
	if hi == lo {
		return 0
	}
	return (value - lo) / (hi - lo)
}

// InvTransform is Transform's inverse: normalized position -> data value.
func (s *Scale) InvTransform(pos float64) float64 {
	lo, hi := s.div.Min, s.div.Max
	if s.engine == Log {
		if lo <= 0 {
			lo = math.SmallestNonzeroFloat64
		}
		lo, hi = math.Log10(lo), math.Log10(hi)
		return math.Pow(10, lo+pos*(hi-lo))
	}
	return lo + pos*(hi-lo)
}

// computeTicksLocked derives major/medium/minor ticks and the label
// exponent from the current [min,max] and engine, matching the source
// system's "exponent computed from interval magnitude, applied uniformly"
// rule when no manual exponent override is set.
func (s *Scale) computeTicksLocked() {
	lo, hi := s.div.Min, s.div.Max
	if hi < lo {
		lo, hi = hi, lo
	}
	span := hi - lo
	if span <= 0 {
		s.div.MajorTicks = []float64{lo}
		return
	}

	if s.engine == Log {
		s.div.MajorTicks = logTicks(lo, hi)
		return
	}

	step := niceStep(span / 8)
	var major []float64
	for v := math.Ceil(lo/step) * step; v <= hi+step*1e-9; v += step {
		major = append(major, v)
	}
	s.div.MajorTicks = major

	var medium, minor []float64
	for i := 0; i < len(major)-1; i++ {
		mid := (major[i] + major[i+1]) / 2
		medium = append(medium, mid)
		minor = append(minor, major[i]+step/4, major[i]+step/2, major[i]+3*step/4)
	}
	s.div.MediumTicks = medium
	s.div.MinorTicks = minor

	if s.exponent == nil {
		exp := computeExponent(span)
		if g, ok := s.formatter.(GenericText); ok {
			g.Exponent = &exp
			s.formatter = g
		}
	}
}

func niceStep(raw float64) float64 {
	if raw <= 0 {
		return 1
	}
	exp := math.Floor(math.Log10(raw))
	base := raw / math.Pow10(int(exp))
	var nice float64
	switch {
	case base < 1.5:
		nice = 1
	case base < 3:
		nice = 2
	case base < 7:
		nice = 5
	default:
		nice = 10
	}
	return nice * math.Pow10(int(exp))
}

func computeExponent(span float64) int {
	if span <= 0 {
		return 0
	}
	return int(math.Floor(math.Log10(span)))
}

func logTicks(lo, hi float64) []float64 {
	if lo <= 0 {
		lo = 1e-12
	}
	var ticks []float64
	startDecade := int(math.Floor(math.Log10(lo)))
	endDecade := int(math.Ceil(math.Log10(hi)))
	for d := startDecade; d <= endDecade; d++ {
		ticks = append(ticks, math.Pow10(d))
	}
	return ticks
}
