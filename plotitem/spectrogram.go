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
	"sync"
	"sync/atomic"

	"github.com/brunotm/vipflow/scale"
)

// Grid is a row-major 2-D sample grid, the raw payload type for a
// Spectrogram: one float64 per (row, col) cell.
type Grid struct {
	Rows, Cols int
	Values     []float64
}

// At returns the value at (row, col).
func (g Grid) At(row, col int) float64 {
	return g.Values[row*g.Cols+col]
}

// ContourLevel is one level of a contour overlay computed from a Grid.
type ContourLevel struct {
	Value    float64
	Segments [][2]Point
}

// Spectrogram renders a Grid through a color map plus an optional set of
// contour lines at fixed levels, matching the source system's combined
// "colorized image + iso-value curves" plot item.
type Spectrogram struct {
	DataType[Grid]
	colorMap *scale.ColorMap

	mu            sync.Mutex
	levels        []float64
	cache         map[float64]ContourLevel
	cachedVersion uint64
	dataVersion   uint64
}

// NewSpectrogram creates an empty, named Spectrogram bound to cm.
func NewSpectrogram(name string, cm *scale.ColorMap) *Spectrogram {
	s := &Spectrogram{DataType: newDataType[Grid](name, "spectrogram"), colorMap: cm}
	s.OnDataChanged(func() { atomic.AddUint64(&s.dataVersion, 1) })
	return s
}

// SetContourLevels sets the fixed values contour lines are computed at.
// It does not itself invalidate any level's cached polyline: a level
// whose value reappears in a later call still hits the cache, so editing
// one level in an otherwise-unchanged set only recomputes that level.
func (s *Spectrogram) SetContourLevels(levels []float64) {
	s.mu.Lock()
	s.levels = levels
	s.mu.Unlock()
}

// ColorMap returns the bound color map.
func (s *Spectrogram) ColorMap() *scale.ColorMap { return s.colorMap }

// Contours computes one ContourLevel per configured level using a
// marching-triangle variant: each grid cell is split along its
// (row,col)-(row+1,col+1) diagonal into two triangles, each interpolated
// independently, avoiding the saddle-point ambiguity of marching
// squares. Levels are cached by value, and the cache is only dropped
// when the underlying Grid itself changes: replacing one level in
// SetContourLevels while the rest are unchanged recomputes only that
// level's polyline, returning the same ContourLevel.Segments slice for
// every other level.
func (s *Spectrogram) Contours() []ContourLevel {
	g := s.RawData()
	version := atomic.LoadUint64(&s.dataVersion)

	s.mu.Lock()
	defer s.mu.Unlock()

	if version != s.cachedVersion || s.cache == nil {
		s.cache = make(map[float64]ContourLevel, len(s.levels))
		s.cachedVersion = version
	}

	out := make([]ContourLevel, 0, len(s.levels))
	for _, lvl := range s.levels {
		cl, ok := s.cache[lvl]
		if !ok {
			cl = ContourLevel{Value: lvl, Segments: marchingTriangles(g, lvl)}
			s.cache[lvl] = cl
		}
		out = append(out, cl)
	}
	return out
}

// marchingTriangles extracts the iso-value polyline at lvl from g,
// triangulating each 2x2 cell into two triangles along its main
// diagonal.
func marchingTriangles(g Grid, lvl float64) [][2]Point {
	var segs [][2]Point
	for row := 0; row < g.Rows-1; row++ {
		for col := 0; col < g.Cols-1; col++ {
			p00 := Point{X: float64(col), Y: float64(row)}
			p10 := Point{X: float64(col + 1), Y: float64(row)}
			p01 := Point{X: float64(col), Y: float64(row + 1)}
			p11 := Point{X: float64(col + 1), Y: float64(row + 1)}
			v00, v10 := g.At(row, col), g.At(row, col+1)
			v01, v11 := g.At(row+1, col), g.At(row+1, col+1)

			if seg, ok := triangleSegment([3]Point{p00, p10, p11}, [3]float64{v00, v10, v11}, lvl); ok {
				segs = append(segs, seg)
			}
			if seg, ok := triangleSegment([3]Point{p00, p11, p01}, [3]float64{v00, v11, v01}, lvl); ok {
				segs = append(segs, seg)
			}
		}
	}
	return segs
}

// triangleSegment interpolates the points at which lvl crosses the
// triangle's three edges. A triangle is cut by a single scalar level at
// exactly two edges (the degenerate all-equal or single-vertex-touch
// cases are reported as no crossing).
func triangleSegment(pts [3]Point, vals [3]float64, lvl float64) ([2]Point, bool) {
	var cross []Point
	for i := 0; i < 3; i++ {
		j := (i + 1) % 3
		a, b := vals[i], vals[j]
		if !crosses(a, b, lvl) {
			continue
		}
		t := interp(a, b, lvl)
		cross = append(cross, Point{
			X: pts[i].X + t*(pts[j].X-pts[i].X),
			Y: pts[i].Y + t*(pts[j].Y-pts[i].Y),
		})
	}
	if len(cross) != 2 {
		return [2]Point{}, false
	}
	return [2]Point{cross[0], cross[1]}, true
}

func crosses(a, b, lvl float64) bool {
	return (a <= lvl && b > lvl) || (a > lvl && b <= lvl)
}

func interp(a, b, lvl float64) float64 {
	if b == a {
		return 0
	}
	return (lvl - a) / (b - a)
}
