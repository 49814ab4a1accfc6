package plotitem

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStylesheetRoundTrip(t *testing.T) {
	want := Style{
		Pen:      Pen{Color: color.RGBA{R: 10, G: 20, B: 30, A: 255}, Width: 2.5},
		Brush:    Brush{Color: color.RGBA{R: 1, G: 2, B: 3, A: 255}, Hatch: "diag"},
		Text:     TextStyle{Color: color.RGBA{R: 0, G: 0, B: 0, A: 255}, FontSize: 12, Bold: true},
		BoxStyle: "rounded",
		DrawText: true,
	}

	text := FormatStylesheet(want)
	got := ParseStylesheet(text)

	assert.Equal(t, want, got)
}

func TestStylesheetParseIgnoresUnknownAndMalformed(t *testing.T) {
	got := ParseStylesheet("unknown-key: whatever; malformed-no-colon; pen-width: 4\n")
	assert.Equal(t, 4.0, got.Pen.Width)
}

func TestParseSelectorForms(t *testing.T) {
	cases := map[string]Selector{
		"curve":              {ClassName: "curve"},
		"curve:selected":     {ClassName: "curve", State: "selected"},
		"curve[roi]":         {ClassName: "curve", Prop: "roi"},
		"curve:selected[roi]": {ClassName: "curve", State: "selected", Prop: "roi"},
		"":                   {},
	}
	for text, want := range cases {
		got, ok := ParseSelector(text)
		assert.True(t, ok, text)
		assert.Equal(t, want, got, text)
	}

	_, ok := ParseSelector("curve::bad[")
	assert.False(t, ok)
}

func TestStyleSheetApplySetsMatchingItemsOnly(t *testing.T) {
	c1 := NewCurve("c1")
	c2 := NewCurve("c2")
	c2.SetSelected(true)
	h := NewHistogram("h1")

	ss := ParseStyleSheet(`
		curve { pen-width: 2; }
		curve:selected { pen-color: #ff0000ff; }
		histogram { bar-style: columns; text-align: hcenter|vcenter; }
	`)
	ss.Apply([]PlotItem{c1, c2, h})

	assert.Equal(t, 2.0, c1.Style().Pen.Width)
	assert.Equal(t, color.RGBA{}, c1.Style().Pen.Color)

	assert.Equal(t, 2.0, c2.Style().Pen.Width)
	assert.Equal(t, color.RGBA{R: 0xff, A: 0xff}, c2.Style().Pen.Color)

	assert.Equal(t, Columns, h.BarStyleValue())
	assert.Equal(t, AlignHCenter|AlignVCenter, h.TextAlignment())
}

func TestStyleSheetApplyCyclesCommaValueByIndex(t *testing.T) {
	c1 := NewCurve("c1")
	c2 := NewCurve("c2")
	c3 := NewCurve("c3")

	ss := ParseStyleSheet(`curve { pen-color: #ff0000ff,#00ff00ff,#0000ffff; }`)
	ss.Apply([]PlotItem{c1, c2, c3})

	assert.Equal(t, color.RGBA{R: 0xff, A: 0xff}, c1.Style().Pen.Color)
	assert.Equal(t, color.RGBA{G: 0xff, A: 0xff}, c2.Style().Pen.Color)
	assert.Equal(t, color.RGBA{B: 0xff, A: 0xff}, c3.Style().Pen.Color)
}

func TestStyleSheetApplyCurveGeometryProperties(t *testing.T) {
	c := NewCurve("c1")
	ss := ParseStyleSheet(`curve { baseline: -2.5; filled: true; fill-multi-curves: false; }`)
	ss.Apply([]PlotItem{c})

	assert.Equal(t, -2.5, c.Baseline())
	assert.True(t, c.Filled())
	assert.False(t, c.FillMultiCurves())
}

func TestStyleSheetApplyPropSelectorRequiresAttribute(t *testing.T) {
	shape := NewShape("s1", "g", 1)
	ss := ParseStyleSheet(`shape[roi] { pen-width: 3; }`)

	ss.Apply([]PlotItem{shape})
	assert.Equal(t, 0.0, shape.Style().Pen.Width)

	shape.SetAttribute("roi", "1")
	ss.Apply([]PlotItem{shape})
	assert.Equal(t, 3.0, shape.Style().Pen.Width)
}
