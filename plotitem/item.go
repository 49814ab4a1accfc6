// Package plotitem implements the scene-graph hierarchy bound to one or
// more scale.Scale axes: curves, rasters, spectrograms, histograms and
// shapes, all sharing a common style/attribute/z-order core.
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
	"image/color"
	"strconv"
	"strings"
	"sync"

	"github.com/brunotm/vipflow/scale"
)

// Attribute is the item-attributes bitfield.
type Attribute uint32

const (
	VisibleInLegend Attribute = 1 << iota
	ClipToScaleRect
	IgnoreMouseEvents
	AutoScale
)

// Pen is a stroke style.
type Pen struct {
	Color color.RGBA
	Width float64
	Dash  []float64
}

// Brush is a fill style.
type Brush struct {
	Color color.RGBA
	Hatch string
}

// TextStyle is the item's label font/color.
type TextStyle struct {
	Color    color.RGBA
	FontSize float64
	Bold     bool
}

// Style bundles an item's box/pen/brush/text-style attributes, matching
// the source system's stylesheet-serializable property set.
type Style struct {
	Pen       Pen
	Brush     Brush
	Text      TextStyle
	BoxStyle  string
	DrawText  bool
}

// CoordinateSystem binds 1-3 scales (axes) a PlotItem is drawn against.
type CoordinateSystem struct {
	X, Y, Z *scale.Scale
}

// PlotItem is the common interface every scene-graph node implements. It
// deliberately flattens the source system's five-level C++ inheritance
// (QwtPlotItem -> VipPlotItem -> VipPlotItemData -> ... ) into one
// interface plus a single composed "item-core" struct, since Go favors
// composition over deep subclassing.
type PlotItem interface {
	Name() string
	SetName(string)
	ZValue() float64
	SetZValue(float64)
	Selected() bool
	SetSelected(bool)
	Attributes() Attribute
	SetAttributes(Attribute)
	Style() Style
	SetStyle(Style)
	CoordinateSystem() CoordinateSystem
	SetCoordinateSystem(CoordinateSystem)
	OnDataChanged(func())

	// ClassName identifies the item's family for style-sheet selector
	// matching ("curve", "raster", "histogram", ...).
	ClassName() string

	// SetItemProperty is the setter side of the style-sheet grammar: it
	// applies one named declaration, with index identifying the item's
	// position within the set a rule matched (letting a comma-separated
	// value like "pen-color: red,blue,green" cycle across matches). It
	// reports whether name was recognized.
	SetItemProperty(name, value string, index int) bool
}

// Attributer is implemented by items that carry an arbitrary string
// attribute map queryable by a style-sheet `type[prop]` selector.
type Attributer interface {
	Attribute(name string) (string, bool)
}

// itemCore implements PlotItem's bookkeeping; embedded by every concrete
// item type (Curve, Raster, Spectrogram, Histogram, Shape).
type itemCore struct {
	mu         sync.RWMutex
	name       string
	className  string
	z          float64
	selected   bool
	attrs      Attribute
	style      Style
	coord      CoordinateSystem
	changedFns []func()
}

func newItemCore(name, className string) itemCore {
	return itemCore{
		name:      name,
		className: className,
		attrs:     VisibleInLegend | ClipToScaleRect,
		style:     Style{DrawText: false},
	}
}

// ClassName returns the item's style-sheet family name.
func (c *itemCore) ClassName() string { return c.className }

func (c *itemCore) Name() string { c.mu.RLock(); defer c.mu.RUnlock(); return c.name }
func (c *itemCore) SetName(n string) { c.mu.Lock(); c.name = n; c.mu.Unlock() }

func (c *itemCore) ZValue() float64 { c.mu.RLock(); defer c.mu.RUnlock(); return c.z }
func (c *itemCore) SetZValue(z float64) { c.mu.Lock(); c.z = z; c.mu.Unlock() }

func (c *itemCore) Selected() bool { c.mu.RLock(); defer c.mu.RUnlock(); return c.selected }
func (c *itemCore) SetSelected(s bool) { c.mu.Lock(); c.selected = s; c.mu.Unlock() }

func (c *itemCore) Attributes() Attribute { c.mu.RLock(); defer c.mu.RUnlock(); return c.attrs }
func (c *itemCore) SetAttributes(a Attribute) { c.mu.Lock(); c.attrs = a; c.mu.Unlock() }

func (c *itemCore) Style() Style { c.mu.RLock(); defer c.mu.RUnlock(); return c.style }
func (c *itemCore) SetStyle(s Style) { c.mu.Lock(); c.style = s; c.mu.Unlock() }

func (c *itemCore) CoordinateSystem() CoordinateSystem {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.coord
}

func (c *itemCore) SetCoordinateSystem(cs CoordinateSystem) {
	c.mu.Lock()
	c.coord = cs
	c.mu.Unlock()
}

// OnDataChanged registers a callback invoked by emitDataChanged, used by
// setRawData implementations after replacing the payload under the data
// lock.
func (c *itemCore) OnDataChanged(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.changedFns = append(c.changedFns, fn)
}

func (c *itemCore) emitDataChanged() {
	c.mu.RLock()
	fns := make([]func(), len(c.changedFns))
	copy(fns, c.changedFns)
	c.mu.RUnlock()
	for _, fn := range fns {
		fn()
	}
}

// DataType is a PlotItem that also carries a typed payload behind a data
// lock: setRawData acquires the lock, replaces the payload, and emits
// dataChanged, matching PlotItemDataType<T>'s contract.
type DataType[T any] struct {
	itemCore
	dataMu sync.RWMutex
	data   T
}

func newDataType[T any](name, className string) DataType[T] {
	return DataType[T]{itemCore: newItemCore(name, className)}
}

// RawData returns a copy of the current payload.
func (d *DataType[T]) RawData() T {
	d.dataMu.RLock()
	defer d.dataMu.RUnlock()
	return d.data
}

// SetRawData replaces the payload under the data lock and emits
// dataChanged to every registered observer.
func (d *DataType[T]) SetRawData(v T) {
	d.dataMu.Lock()
	d.data = v
	d.dataMu.Unlock()
	d.emitDataChanged()
}

// tokenAt splits value on commas and returns the token at index, cycling
// if index exceeds the token count; a value with no commas always
// returns itself regardless of index.
func tokenAt(value string, index int) string {
	toks := strings.Split(value, ",")
	if len(toks) == 1 {
		return strings.TrimSpace(toks[0])
	}
	if index < 0 {
		index = 0
	}
	return strings.TrimSpace(toks[index%len(toks)])
}

// SetItemProperty implements the common property set every item family
// shares (pen, brush, text style, box style), matching FormatStylesheet/
// ParseStylesheet's declaration names. Concrete item types override this
// to add family-specific properties, falling back to itemCore's
// implementation for the shared ones.
func (c *itemCore) SetItemProperty(name, value string, index int) bool {
	tok := tokenAt(value, index)
	c.mu.Lock()
	defer c.mu.Unlock()

	switch name {
	case "pen-color":
		c.style.Pen.Color = parseHexColor(tok)
	case "pen-width":
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return false
		}
		c.style.Pen.Width = v
	case "brush-color":
		c.style.Brush.Color = parseHexColor(tok)
	case "brush-hatch":
		c.style.Brush.Hatch = tok
	case "text-color":
		c.style.Text.Color = parseHexColor(tok)
	case "text-size":
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return false
		}
		c.style.Text.FontSize = v
	case "text-bold":
		v, err := strconv.ParseBool(tok)
		if err != nil {
			return false
		}
		c.style.Text.Bold = v
	case "box-style":
		c.style.BoxStyle = tok
	case "draw-text":
		v, err := strconv.ParseBool(tok)
		if err != nil {
			return false
		}
		c.style.DrawText = v
	default:
		return false
	}
	return true
}
