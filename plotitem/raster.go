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
	"image"
	"image/color"
	"image/draw"
	"sync"

	"github.com/brunotm/vipflow/scale"
)

// Rect is an axis-aligned rectangle in data coordinates.
type Rect struct {
	Left, Top, Right, Bottom float64
}

// overlaps reports whether r fully or partially overlaps other.
func (r Rect) overlaps(other Rect) bool {
	return r.Left < other.Right && r.Right > other.Left &&
		r.Top < other.Bottom && r.Bottom > other.Top
}

// Raster renders a RasterData converter mapped through a scale.ColorMap,
// restricted to the area covered by its bound scale rect: a draw request
// whose destination rect doesn't overlap the scale's current [min,max]
// box on both axes produces nothing, matching the source system's
// "nothing to draw outside the visible scale window" behaviour.
type Raster struct {
	DataType[RasterData]
	colorMap *scale.ColorMap
	cache    *RasterCache

	mu                 sync.RWMutex
	superimpose        image.Image
	superimposeOpacity float64
	background         image.Image
}

// NewRaster creates an empty, named Raster bound to cm.
func NewRaster(name string, cm *scale.ColorMap) *Raster {
	return &Raster{DataType: newDataType[RasterData](name, "raster"), colorMap: cm}
}

// SetColorMap rebinds the color map used to render the raster's samples.
func (r *Raster) SetColorMap(cm *scale.ColorMap) { r.colorMap = cm }

// ColorMap returns the bound color map.
func (r *Raster) ColorMap() *scale.ColorMap { return r.colorMap }

// SetCache attaches a bypass cache consulted by Render before recomputing
// a colorized tile for a given destination rect: it caches the extracted
// and colorized base image, before the superimpose/background layers are
// composited, so toggling an overlay never forces a re-extract.
func (r *Raster) SetCache(c *RasterCache) { r.cache = c }

// SetSuperimpose sets a foreground image alpha-blended on top of the
// colorized raster at the given opacity (0-1), or clears it when img is
// nil.
func (r *Raster) SetSuperimpose(img image.Image, opacity float64) {
	r.mu.Lock()
	r.superimpose = img
	r.superimposeOpacity = opacity
	r.mu.Unlock()
}

// SetBackground sets an image drawn below the colorized raster, visible
// through any transparent pixel of it, or clears it when img is nil.
func (r *Raster) SetBackground(img image.Image) {
	r.mu.Lock()
	r.background = img
	r.mu.Unlock()
}

// scaleRect derives the current visible data-space rectangle from the
// item's bound X/Y scales, or a zero Rect if either axis is unset.
func (r *Raster) scaleRect() (Rect, bool) {
	cs := r.CoordinateSystem()
	if cs.X == nil || cs.Y == nil {
		return Rect{}, false
	}
	xd, yd := cs.X.Div(), cs.Y.Div()
	return Rect{Left: xd.Min, Top: yd.Min, Right: xd.Max, Bottom: yd.Max}, true
}

// Render renders the bound RasterData through the color map, producing a
// destW x destH image covering dest in data space: (1) check that dest
// overlaps the item's current scale rect (dest itself is not clipped to
// it), (2) extract a sub-array sized to
// destW x destH, (3) colorize, (4) composite background/superimpose
// layers. It returns nil without drawing when dest doesn't overlap the
// scale rect, or when no RasterData has been set.
func (r *Raster) Render(dest Rect, destW, destH int) *image.RGBA {
	data := r.RawData()
	if data == nil || destW <= 0 || destH <= 0 {
		return nil
	}

	if rect, ok := r.scaleRect(); ok && !rect.overlaps(dest) {
		return nil
	}

	base := r.colorizedBase(data, dest, destW, destH)
	return r.composite(base)
}

// colorizedBase performs steps (1-3): it is the unit the bypass cache
// covers, so an overlay-only change skips straight to composite.
func (r *Raster) colorizedBase(data RasterData, dest Rect, destW, destH int) *image.RGBA {
	if r.cache != nil {
		if cached, ok := r.cache.Get(dest); ok {
			return cached
		}
	}

	values := data.Extract(dest, destW, destH)
	out := image.NewRGBA(image.Rect(0, 0, destW, destH))
	for y := 0; y < destH; y++ {
		row := values[y]
		for x := 0; x < destW; x++ {
			out.Set(x, y, r.colorMap.Lookup(row[x]))
		}
	}

	if r.cache != nil {
		r.cache.Set(dest, out)
	}
	return out
}

// composite draws the background behind base, base itself, then the
// superimpose layer on top at its configured opacity.
func (r *Raster) composite(base *image.RGBA) *image.RGBA {
	r.mu.RLock()
	bg, fg, opacity := r.background, r.superimpose, r.superimposeOpacity
	r.mu.RUnlock()

	out := image.NewRGBA(base.Bounds())
	if bg != nil {
		draw.Draw(out, out.Bounds(), nearestResize(bg, out.Bounds()), image.Point{}, draw.Src)
	}
	draw.Draw(out, out.Bounds(), base, base.Bounds().Min, draw.Over)

	if fg != nil && opacity > 0 {
		blendOver(out, fg, opacity)
	}
	return out
}

// nearestResize resamples src, nearest-neighbor, onto an image the size of
// bounds.
func nearestResize(src image.Image, bounds image.Rectangle) *image.RGBA {
	sb := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	out := image.NewRGBA(image.Rect(0, 0, w, h))
	if w == 0 || h == 0 || sb.Dx() == 0 || sb.Dy() == 0 {
		return out
	}
	for y := 0; y < h; y++ {
		sy := sb.Min.Y + y*sb.Dy()/h
		for x := 0; x < w; x++ {
			sx := sb.Min.X + x*sb.Dx()/w
			out.Set(x, y, src.At(sx, sy))
		}
	}
	return out
}

// blendOver draws src onto dst, resized to dst's bounds, at a fixed
// opacity in [0,1] combined with src's own per-pixel alpha.
func blendOver(dst *image.RGBA, src image.Image, opacity float64) {
	if opacity > 1 {
		opacity = 1
	}
	scaled := nearestResize(src, dst.Bounds())
	mask := image.NewUniform(color.Alpha{A: uint8(opacity * 255)})
	draw.DrawMask(dst, dst.Bounds(), scaled, image.Point{}, mask, image.Point{}, draw.Over)
}
