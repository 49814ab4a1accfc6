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
	"math"
)

// RasterData is the abstract data source a Raster or Spectrogram renders:
// a bounding rect in data coordinates, a coarse type tag, sub-rect
// extraction sized to a destination pixel box, point picking and value
// bounds over a validity interval. Concrete converters adapt a 2-D
// array, an image.Image-like pixel buffer, or a user-supplied tiler
// function to this one contract.
type RasterData interface {
	BoundingRect() Rect
	DataType() string
	Extract(rect Rect, destW, destH int) [][]float64
	Pick(pos Point) (float64, bool)
	Bounds(valid Rect) (min, max float64)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func intersectRect(a, b Rect) Rect {
	return Rect{
		Left:   math.Max(a.Left, b.Left),
		Top:    math.Max(a.Top, b.Top),
		Right:  math.Min(a.Right, b.Right),
		Bottom: math.Min(a.Bottom, b.Bottom),
	}
}

// ArrayConverter adapts a row-major Grid mapped onto a fixed data-space
// bounding rect, the "2D array" converter.
type ArrayConverter struct {
	Grid Grid
	Rect Rect
}

// BoundingRect returns the converter's fixed data-space rect.
func (a ArrayConverter) BoundingRect() Rect { return a.Rect }

// DataType identifies this converter's source kind.
func (a ArrayConverter) DataType() string { return "array" }

func (a ArrayConverter) cell(x, y float64) (row, col int, ok bool) {
	w := a.Rect.Right - a.Rect.Left
	h := a.Rect.Bottom - a.Rect.Top
	if a.Grid.Rows == 0 || a.Grid.Cols == 0 || w == 0 || h == 0 {
		return 0, 0, false
	}
	fx := (x - a.Rect.Left) / w
	fy := (y - a.Rect.Top) / h
	if fx < 0 || fx > 1 || fy < 0 || fy > 1 {
		return 0, 0, false
	}
	col = clampInt(int(fx*float64(a.Grid.Cols)), 0, a.Grid.Cols-1)
	row = clampInt(int(fy*float64(a.Grid.Rows)), 0, a.Grid.Rows-1)
	return row, col, true
}

// Extract resamples the grid, nearest-neighbor, onto a destW x destH
// array covering the intersection of rect and the converter's bound.
func (a ArrayConverter) Extract(rect Rect, destW, destH int) [][]float64 {
	inter := intersectRect(a.Rect, rect)
	out := make([][]float64, destH)
	for y := 0; y < destH; y++ {
		out[y] = make([]float64, destW)
		dataY := inter.Top + (float64(y)+0.5)/float64(destH)*(inter.Bottom-inter.Top)
		for x := 0; x < destW; x++ {
			dataX := inter.Left + (float64(x)+0.5)/float64(destW)*(inter.Right-inter.Left)
			if row, col, ok := a.cell(dataX, dataY); ok {
				out[y][x] = a.Grid.At(row, col)
			}
		}
	}
	return out
}

// Pick returns the grid value at the cell containing pos.
func (a ArrayConverter) Pick(pos Point) (float64, bool) {
	row, col, ok := a.cell(pos.X, pos.Y)
	if !ok {
		return 0, false
	}
	return a.Grid.At(row, col), true
}

// Bounds scans every cell whose mapped data position lies within valid,
// returning its min/max value.
func (a ArrayConverter) Bounds(valid Rect) (min, max float64) {
	first := true
	w := a.Rect.Right - a.Rect.Left
	h := a.Rect.Bottom - a.Rect.Top
	for row := 0; row < a.Grid.Rows; row++ {
		y := a.Rect.Top + (float64(row)+0.5)/float64(a.Grid.Rows)*h
		if y < valid.Top || y > valid.Bottom {
			continue
		}
		for col := 0; col < a.Grid.Cols; col++ {
			x := a.Rect.Left + (float64(col)+0.5)/float64(a.Grid.Cols)*w
			if x < valid.Left || x > valid.Right {
				continue
			}
			v := a.Grid.At(row, col)
			if first {
				min, max = v, v
				first = false
				continue
			}
			if v < min {
				min = v
			}
			if v > max {
				max = v
			}
		}
	}
	return min, max
}

// ImageConverter adapts an image.Image mapped onto a fixed data-space
// bounding rect, sampling grayscale luminance as the cell value.
type ImageConverter struct {
	Image image.Image
	Rect  Rect
}

// BoundingRect returns the converter's fixed data-space rect.
func (c ImageConverter) BoundingRect() Rect { return c.Rect }

// DataType identifies this converter's source kind.
func (c ImageConverter) DataType() string { return "image" }

func luminance(img image.Image, x, y int) float64 {
	r, g, b, _ := img.At(x, y).RGBA()
	return float64((r + g + b) / 3 >> 8)
}

func (c ImageConverter) pixel(x, y float64) (px, py int, ok bool) {
	b := c.Image.Bounds()
	w := c.Rect.Right - c.Rect.Left
	h := c.Rect.Bottom - c.Rect.Top
	if w == 0 || h == 0 || b.Dx() == 0 || b.Dy() == 0 {
		return 0, 0, false
	}
	fx := (x - c.Rect.Left) / w
	fy := (y - c.Rect.Top) / h
	if fx < 0 || fx > 1 || fy < 0 || fy > 1 {
		return 0, 0, false
	}
	px = b.Min.X + clampInt(int(fx*float64(b.Dx())), 0, b.Dx()-1)
	py = b.Min.Y + clampInt(int(fy*float64(b.Dy())), 0, b.Dy()-1)
	return px, py, true
}

// Extract resamples the image's luminance, nearest-neighbor, onto a
// destW x destH array covering the intersection of rect and the bound.
func (c ImageConverter) Extract(rect Rect, destW, destH int) [][]float64 {
	inter := intersectRect(c.Rect, rect)
	out := make([][]float64, destH)
	for y := 0; y < destH; y++ {
		out[y] = make([]float64, destW)
		dataY := inter.Top + (float64(y)+0.5)/float64(destH)*(inter.Bottom-inter.Top)
		for x := 0; x < destW; x++ {
			dataX := inter.Left + (float64(x)+0.5)/float64(destW)*(inter.Right-inter.Left)
			if px, py, ok := c.pixel(dataX, dataY); ok {
				out[y][x] = luminance(c.Image, px, py)
			}
		}
	}
	return out
}

// Pick returns the luminance of the pixel containing pos.
func (c ImageConverter) Pick(pos Point) (float64, bool) {
	px, py, ok := c.pixel(pos.X, pos.Y)
	if !ok {
		return 0, false
	}
	return luminance(c.Image, px, py), true
}

// Bounds scans every pixel whose mapped data position lies within valid,
// returning its min/max luminance.
func (c ImageConverter) Bounds(valid Rect) (min, max float64) {
	first := true
	b := c.Image.Bounds()
	w := c.Rect.Right - c.Rect.Left
	h := c.Rect.Bottom - c.Rect.Top
	for py := b.Min.Y; py < b.Max.Y; py++ {
		y := c.Rect.Top + (float64(py-b.Min.Y)+0.5)/float64(b.Dy())*h
		if y < valid.Top || y > valid.Bottom {
			continue
		}
		for px := b.Min.X; px < b.Max.X; px++ {
			x := c.Rect.Left + (float64(px-b.Min.X)+0.5)/float64(b.Dx())*w
			if x < valid.Left || x > valid.Right {
				continue
			}
			v := luminance(c.Image, px, py)
			if first {
				min, max = v, v
				first = false
				continue
			}
			if v < min {
				min = v
			}
			if v > max {
				max = v
			}
		}
	}
	return min, max
}

// TilerFunc lazily computes a value at a data-space position, the
// "user-supplied tiler" converter: no backing buffer is materialized,
// useful for procedurally generated or externally fetched tiles.
type TilerFunc func(x, y float64) (float64, bool)

// TilerConverter adapts a TilerFunc over a fixed data-space bounding rect.
type TilerConverter struct {
	Fn   TilerFunc
	Rect Rect
}

// BoundingRect returns the converter's fixed data-space rect.
func (t TilerConverter) BoundingRect() Rect { return t.Rect }

// DataType identifies this converter's source kind.
func (t TilerConverter) DataType() string { return "tiler" }

// Extract samples Fn at the center of each destination pixel.
func (t TilerConverter) Extract(rect Rect, destW, destH int) [][]float64 {
	inter := intersectRect(t.Rect, rect)
	out := make([][]float64, destH)
	for y := 0; y < destH; y++ {
		out[y] = make([]float64, destW)
		dataY := inter.Top + (float64(y)+0.5)/float64(destH)*(inter.Bottom-inter.Top)
		for x := 0; x < destW; x++ {
			dataX := inter.Left + (float64(x)+0.5)/float64(destW)*(inter.Right-inter.Left)
			if v, ok := t.Fn(dataX, dataY); ok {
				out[y][x] = v
			}
		}
	}
	return out
}

// Pick samples Fn directly at pos.
func (t TilerConverter) Pick(pos Point) (float64, bool) { return t.Fn(pos.X, pos.Y) }

// Bounds samples Fn on a fixed 32x32 grid over valid, since a tiler has
// no enumerable cell set of its own.
func (t TilerConverter) Bounds(valid Rect) (min, max float64) {
	const n = 32
	first := true
	for j := 0; j < n; j++ {
		y := valid.Top + (float64(j)+0.5)/n*(valid.Bottom-valid.Top)
		for i := 0; i < n; i++ {
			x := valid.Left + (float64(i)+0.5)/n*(valid.Right-valid.Left)
			v, ok := t.Fn(x, y)
			if !ok {
				continue
			}
			if first {
				min, max = v, v
				first = false
				continue
			}
			if v < min {
				min = v
			}
			if v > max {
				max = v
			}
		}
	}
	return min, max
}
