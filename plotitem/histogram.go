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
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
)

// Bin is one histogram bucket: its left edge, width, and count.
type Bin struct {
	Left, Width float64
	Count       float64
}

// Right returns the bin's right edge (Left + Width).
func (b Bin) Right() float64 { return b.Left + b.Width }

// BarStyle selects how a Histogram's bins are rendered, matching
// VipPlotHistogram::HistogramStyle.
type BarStyle int

const (
	// Outline draws a single polyline tracing the bar tops.
	Outline BarStyle = iota
	// Columns draws each bin as a filled bar from the baseline.
	Columns
	// Lines draws a single vertical segment per bin, from the baseline
	// to the bin's count, at the bin's midpoint.
	Lines
)

// TextPosition places a bin's formatted text relative to its bar.
type TextPosition int

const (
	TextOutside TextPosition = iota
	TextInside
)

// TextAlign is a bitmask of horizontal/vertical text anchor flags.
type TextAlign int

const (
	AlignLeft TextAlign = 1 << iota
	AlignHCenter
	AlignRight
	AlignTop
	AlignVCenter
	AlignBottom
)

// Bar is an axis-aligned box in data coordinates, used to describe one
// Columns-style bar.
type Bar struct {
	MinX, MinY, MaxX, MaxY float64
}

// BinText is one bin's formatted label and the anchor point it should be
// drawn at.
type BinText struct {
	Text   string
	Anchor Point
}

var binTokenPattern = regexp.MustCompile(`#(value|min|max)(%[-+0 #]*[0-9]*(?:\.[0-9]+)?[a-zA-Z])?`)

// FormatBinText expands #value/#min/#max tokens in tpl against b. Each
// token may be followed by a printf-style verb (e.g. "#value%.2f"); with
// none, the value is formatted with %g.
func FormatBinText(tpl string, b Bin) string {
	return binTokenPattern.ReplaceAllStringFunc(tpl, func(tok string) string {
		m := binTokenPattern.FindStringSubmatch(tok)
		var v float64
		switch m[1] {
		case "value":
			v = b.Count
		case "min":
			v = b.Left
		case "max":
			v = b.Right()
		}
		format := m[2]
		if format == "" {
			format = "%g"
		}
		return fmt.Sprintf(format, v)
	})
}

// Histogram renders a set of discrete bins as adjacent bars, the plot
// item counterpart of a ghistogram.Histogram snapshot.
type Histogram struct {
	DataType[[]Bin]

	mu       sync.RWMutex
	barStyle BarStyle
	baseline float64
	text     string
	textPos  TextPosition
	align    TextAlign
}

// NewHistogram creates an empty, named Histogram.
func NewHistogram(name string) *Histogram {
	return &Histogram{DataType: newDataType[[]Bin](name, "histogram"), align: AlignHCenter | AlignVCenter}
}

// SetBarStyle selects the render style (Outline/Columns/Lines).
func (h *Histogram) SetBarStyle(s BarStyle) { h.mu.Lock(); h.barStyle = s; h.mu.Unlock() }

// BarStyleValue returns the current render style.
func (h *Histogram) BarStyleValue() BarStyle { h.mu.RLock(); defer h.mu.RUnlock(); return h.barStyle }

// SetBaseline sets the common baseline every bar starts from.
func (h *Histogram) SetBaseline(v float64) { h.mu.Lock(); h.baseline = v; h.mu.Unlock() }

// Baseline returns the current baseline.
func (h *Histogram) Baseline() float64 { h.mu.RLock(); defer h.mu.RUnlock(); return h.baseline }

// SetText sets the per-bar text template (#value/#min/#max tokens).
// An empty template draws no text.
func (h *Histogram) SetText(tpl string) { h.mu.Lock(); h.text = tpl; h.mu.Unlock() }

// Text returns the current per-bar text template.
func (h *Histogram) Text() string { h.mu.RLock(); defer h.mu.RUnlock(); return h.text }

// SetTextPosition places per-bar text inside or outside the bar.
func (h *Histogram) SetTextPosition(p TextPosition) { h.mu.Lock(); h.textPos = p; h.mu.Unlock() }

// TextPositionValue returns the current text position.
func (h *Histogram) TextPositionValue() TextPosition {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.textPos
}

// SetTextAlignment sets the per-bar text anchor alignment flags.
func (h *Histogram) SetTextAlignment(a TextAlign) { h.mu.Lock(); h.align = a; h.mu.Unlock() }

// TextAlignment returns the current text anchor alignment flags.
func (h *Histogram) TextAlignment() TextAlign { h.mu.RLock(); defer h.mu.RUnlock(); return h.align }

// parseTextAlign parses a '|'-separated list of alignment flag names
// ("left", "hcenter", "right", "top", "vcenter", "bottom") into a
// TextAlign bitmask.
func parseTextAlign(s string) (TextAlign, bool) {
	var a TextAlign
	for _, part := range strings.Split(s, "|") {
		switch strings.TrimSpace(part) {
		case "left":
			a |= AlignLeft
		case "hcenter":
			a |= AlignHCenter
		case "right":
			a |= AlignRight
		case "top":
			a |= AlignTop
		case "vcenter":
			a |= AlignVCenter
		case "bottom":
			a |= AlignBottom
		default:
			return 0, false
		}
	}
	return a, true
}

// SetItemProperty adds the histogram-family properties (bar style,
// baseline, per-bar text template/position/alignment) on top of
// itemCore's shared pen/brush/text set.
func (h *Histogram) SetItemProperty(name, value string, index int) bool {
	if name == "text" {
		h.SetText(strings.TrimSpace(value))
		return true
	}
	tok := tokenAt(value, index)
	switch name {
	case "bar-style":
		switch tok {
		case "outline":
			h.SetBarStyle(Outline)
		case "columns":
			h.SetBarStyle(Columns)
		case "lines":
			h.SetBarStyle(Lines)
		default:
			return false
		}
	case "baseline":
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return false
		}
		h.SetBaseline(v)
	case "text-position":
		switch tok {
		case "inside":
			h.SetTextPosition(TextInside)
		case "outside":
			h.SetTextPosition(TextOutside)
		default:
			return false
		}
	case "text-align":
		align, ok := parseTextAlign(tok)
		if !ok {
			return false
		}
		h.SetTextAlignment(align)
	default:
		return h.itemCore.SetItemProperty(name, value, index)
	}
	return true
}

// Total returns the sum of every bin's count.
func (h *Histogram) Total() float64 {
	var total float64
	for _, b := range h.RawData() {
		total += b.Count
	}
	return total
}

// MaxCount returns the largest single bin count, used by callers to scale
// the Y axis to fit.
func (h *Histogram) MaxCount() float64 {
	var max float64
	for _, b := range h.RawData() {
		if b.Count > max {
			max = b.Count
		}
	}
	return max
}

// OutlinePoints traces the bar tops as a single continuous polyline, one
// rising/falling step per bin, for BarStyle Outline.
func (h *Histogram) OutlinePoints() []Point {
	bins := h.RawData()
	pts := make([]Point, 0, len(bins)*2)
	for _, b := range bins {
		pts = append(pts, Point{X: b.Left, Y: b.Count}, Point{X: b.Right(), Y: b.Count})
	}
	return pts
}

// ColumnRects returns one filled bar per bin from the baseline to the
// bin's count, for BarStyle Columns.
func (h *Histogram) ColumnRects() []Bar {
	base := h.Baseline()
	bins := h.RawData()
	rects := make([]Bar, len(bins))
	for i, b := range bins {
		minY, maxY := base, b.Count
		if minY > maxY {
			minY, maxY = maxY, minY
		}
		rects[i] = Bar{MinX: b.Left, MinY: minY, MaxX: b.Right(), MaxY: maxY}
	}
	return rects
}

// LineSegments returns one vertical segment per bin, from the baseline to
// the bin's count at the bin's horizontal midpoint, for BarStyle Lines.
func (h *Histogram) LineSegments() [][2]Point {
	base := h.Baseline()
	bins := h.RawData()
	segs := make([][2]Point, len(bins))
	for i, b := range bins {
		mid := b.Left + b.Width/2
		segs[i] = [2]Point{{X: mid, Y: base}, {X: mid, Y: b.Count}}
	}
	return segs
}

// BinTexts formats each bin's text using the current template, returning
// nil when no template is set. Inside positions anchor at the bar's
// vertical midpoint; Outside anchors just above the bar's top.
func (h *Histogram) BinTexts() []BinText {
	tpl := h.Text()
	if tpl == "" {
		return nil
	}
	base := h.Baseline()
	bins := h.RawData()
	out := make([]BinText, len(bins))
	for i, b := range bins {
		mid := b.Left + b.Width/2
		y := b.Count
		if h.TextPositionValue() == TextInside {
			y = (base + b.Count) / 2
		}
		out[i] = BinText{Text: FormatBinText(tpl, b), Anchor: Point{X: mid, Y: y}}
	}
	return out
}
