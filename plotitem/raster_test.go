package plotitem

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brunotm/vipflow/scale"
)

func newTestColorMap() *scale.ColorMap {
	low := scale.NewSliderGrip(scale.NewScale(0, 255), 0)
	high := scale.NewSliderGrip(scale.NewScale(0, 255), 255)
	return scale.NewColorMap(low, high)
}

func TestRasterOutsideScaleRectNoDraw(t *testing.T) {
	r := NewRaster("r1", newTestColorMap())
	r.SetRawData(ArrayConverter{
		Grid: Grid{Rows: 4, Cols: 4, Values: make([]float64, 16)},
		Rect: Rect{Left: 0, Top: 0, Right: 10, Bottom: 10},
	})

	r.SetCoordinateSystem(CoordinateSystem{
		X: scale.NewScale(0, 10),
		Y: scale.NewScale(0, 10),
	})

	out := r.Render(Rect{Left: 100, Top: 100, Right: 110, Bottom: 110}, 4, 4)
	assert.Nil(t, out)
}

func TestRasterRendersDestinationSizedTile(t *testing.T) {
	r := NewRaster("r2", newTestColorMap())
	grid := Grid{Rows: 2, Cols: 2, Values: []float64{200, 0, 0, 0}}
	r.SetRawData(ArrayConverter{Grid: grid, Rect: Rect{Left: 0, Top: 0, Right: 2, Bottom: 2}})

	r.SetCoordinateSystem(CoordinateSystem{
		X: scale.NewScale(0, 10),
		Y: scale.NewScale(0, 10),
	})

	out := r.Render(Rect{Left: 0, Top: 0, Right: 5, Bottom: 5}, 8, 6)
	require.NotNil(t, out)
	assert.Equal(t, image.Rect(0, 0, 8, 6), out.Bounds())
}

func TestRasterNilDataNoDraw(t *testing.T) {
	r := NewRaster("r3", newTestColorMap())
	out := r.Render(Rect{Right: 1, Bottom: 1}, 2, 2)
	assert.Nil(t, out)
}

func TestRasterZeroDestinationNoDraw(t *testing.T) {
	r := NewRaster("r4", newTestColorMap())
	r.SetRawData(ArrayConverter{Grid: Grid{Rows: 1, Cols: 1, Values: []float64{1}}, Rect: Rect{Right: 1, Bottom: 1}})
	assert.Nil(t, r.Render(Rect{Right: 1, Bottom: 1}, 0, 4))
}

func TestRasterCacheReturnsSameTileForSameDestRect(t *testing.T) {
	r := NewRaster("r5", newTestColorMap())
	r.SetRawData(ArrayConverter{
		Grid: Grid{Rows: 2, Cols: 2, Values: []float64{10, 20, 30, 40}},
		Rect: Rect{Left: 0, Top: 0, Right: 2, Bottom: 2},
	})
	cache, err := NewRasterCache()
	require.NoError(t, err)
	defer cache.Close()
	r.SetCache(cache)

	dest := Rect{Left: 0, Top: 0, Right: 2, Bottom: 2}
	first := r.Render(dest, 4, 4)
	require.NotNil(t, first)

	r.SetRawData(ArrayConverter{
		Grid: Grid{Rows: 2, Cols: 2, Values: []float64{0, 0, 0, 0}},
		Rect: Rect{Left: 0, Top: 0, Right: 2, Bottom: 2},
	})
	second := r.Render(dest, 4, 4)
	require.NotNil(t, second)
	assert.Equal(t, first.Pix, second.Pix, "cached tile should be reused for an unchanged dest rect")
}

func TestRasterSuperimposeBlendsOverBase(t *testing.T) {
	r := NewRaster("r6", newTestColorMap())
	r.SetRawData(ArrayConverter{
		Grid: Grid{Rows: 1, Cols: 1, Values: []float64{0}},
		Rect: Rect{Left: 0, Top: 0, Right: 1, Bottom: 1},
	})

	fg := image.NewRGBA(image.Rect(0, 0, 1, 1))
	fg.Set(0, 0, color.RGBA{R: 255, A: 255})
	r.SetSuperimpose(fg, 1)

	out := r.Render(Rect{Left: 0, Top: 0, Right: 1, Bottom: 1}, 1, 1)
	require.NotNil(t, out)
	assert.Equal(t, uint8(255), out.RGBAAt(0, 0).R)
}

func TestRasterBackgroundVisibleBehindBase(t *testing.T) {
	r := NewRaster("r7", newTestColorMap())
	r.SetRawData(ArrayConverter{
		Grid: Grid{Rows: 1, Cols: 1, Values: []float64{0}},
		Rect: Rect{Left: 0, Top: 0, Right: 1, Bottom: 1},
	})

	bg := image.NewRGBA(image.Rect(0, 0, 1, 1))
	bg.Set(0, 0, color.RGBA{B: 255, A: 255})
	r.SetBackground(bg)

	out := r.Render(Rect{Left: 0, Top: 0, Right: 1, Bottom: 1}, 1, 1)
	require.NotNil(t, out)
}
