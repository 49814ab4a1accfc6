package plotitem

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCurveAllNaNSeparatorsZeroSubcurves(t *testing.T) {
	c := NewCurve("c1")
	nan := math.NaN()
	c.SetRawData([]Point{{X: nan, Y: nan}, {X: nan, Y: 0}, {X: 0, Y: nan}})

	assert.Empty(t, c.SubCurves())

	minX, minY, maxX, maxY := c.BoundingRect()
	assert.Equal(t, 0.0, minX)
	assert.Equal(t, 0.0, minY)
	assert.Equal(t, 0.0, maxX)
	assert.Equal(t, 0.0, maxY)
}

func TestCurveSubCurvesSplitAtSeparators(t *testing.T) {
	c := NewCurve("c2")
	nan := math.NaN()
	c.SetRawData([]Point{
		{X: 0, Y: 0}, {X: 1, Y: 1},
		{X: nan, Y: nan},
		{X: 2, Y: 2}, {X: 3, Y: 3}, {X: 4, Y: 1},
	})

	subs := c.SubCurves()
	if assert.Len(t, subs, 2) {
		assert.Len(t, subs[0], 2)
		assert.Len(t, subs[1], 3)
	}

	minX, minY, maxX, maxY := c.BoundingRect()
	assert.Equal(t, 0.0, minX)
	assert.Equal(t, 0.0, minY)
	assert.Equal(t, 4.0, maxX)
	assert.Equal(t, 3.0, maxY)
}

func TestCurveSubContinuousDetectsDescendingRun(t *testing.T) {
	c := NewCurve("c3")
	nan := math.NaN()
	c.SetRawData([]Point{
		{X: 0, Y: 0}, {X: 1, Y: 1}, {X: 2, Y: 2},
		{X: nan, Y: nan},
		{X: 5, Y: 0}, {X: 3, Y: 1},
	})

	assert.Equal(t, []bool{true, false}, c.SubContinuous())
	assert.False(t, c.FullContinuous())
}

func TestCurveEnvelopeCollapsesEqualXRuns(t *testing.T) {
	sub := []Point{{X: 0, Y: 1}, {X: 0, Y: 5}, {X: 0, Y: 3}, {X: 1, Y: 2}}
	env := Envelope(sub)
	assert.Equal(t, []EnvelopePoint{
		{X: 0, MinY: 1, MaxY: 5},
		{X: 1, MinY: 2, MaxY: 2},
	}, env)
}

func TestCurveEnvelopeNonContinuousPassesThrough(t *testing.T) {
	sub := []Point{{X: 1, Y: 1}, {X: 0, Y: 2}}
	env := Envelope(sub)
	assert.Equal(t, []EnvelopePoint{
		{X: 1, MinY: 1, MaxY: 1},
		{X: 0, MinY: 2, MaxY: 2},
	}, env)
}

func TestCurveFilledAreasCloseAgainstBaseline(t *testing.T) {
	c := NewCurve("c4")
	c.SetBaseline(-1)
	c.SetFilled(true)
	c.SetRawData([]Point{{X: 0, Y: 0}, {X: 1, Y: 2}})

	areas := c.FilledAreas()
	if assert.Len(t, areas, 1) {
		assert.Equal(t, []Point{
			{X: 0, Y: 0}, {X: 1, Y: 2},
			{X: 1, Y: -1}, {X: 0, Y: -1},
		}, areas[0])
	}
}

func TestCurveFillMultiCurvesPairsSubcurves(t *testing.T) {
	c := NewCurve("c5")
	c.SetFillMultiCurves(true)
	nan := math.NaN()
	c.SetRawData([]Point{
		{X: 0, Y: 0}, {X: 1, Y: 0},
		{X: nan, Y: nan},
		{X: 0, Y: 1}, {X: 1, Y: 1},
		{X: nan, Y: nan},
		{X: 0, Y: 2},
	})

	regions := c.FillRegions()
	if assert.Len(t, regions, 1) {
		assert.Equal(t, []Point{{X: 0, Y: 0}, {X: 1, Y: 0}}, regions[0].Upper)
		assert.Equal(t, []Point{{X: 0, Y: 1}, {X: 1, Y: 1}}, regions[0].Lower)
	}

	assert.Empty(t, c.FilledAreas(), "FillMultiCurves and per-sub-curve Filled are mutually exclusive")
}

func TestCurveFunctionModeSamplesOverInterval(t *testing.T) {
	c := NewCurve("c6")
	assert.False(t, c.IsFunction())

	c.SetFunction(func(x float64) float64 { return x * x }, 0, 2)
	assert.True(t, c.IsFunction())

	pts := c.FunctionPoints(3)
	assert.Equal(t, []Point{{X: 0, Y: 0}, {X: 1, Y: 1}, {X: 2, Y: 4}}, pts)

	c.ResetFunction()
	assert.False(t, c.IsFunction())
	assert.Nil(t, c.FunctionPoints(3))
}
