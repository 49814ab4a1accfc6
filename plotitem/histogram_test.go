package plotitem

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistogramTotalSumsBinCounts(t *testing.T) {
	h := NewHistogram("h1")
	h.SetRawData([]Bin{
		{Left: 0, Width: 1, Count: 3},
		{Left: 1, Width: 1, Count: 7},
		{Left: 2, Width: 1, Count: 2},
	})

	assert.Equal(t, 12.0, h.Total())
}

func TestHistogramMaxCountPicksLargestBin(t *testing.T) {
	h := NewHistogram("h1")
	h.SetRawData([]Bin{
		{Left: 0, Width: 1, Count: 3},
		{Left: 1, Width: 1, Count: 7},
		{Left: 2, Width: 1, Count: 2},
	})

	assert.Equal(t, 7.0, h.MaxCount())
}

func TestHistogramEmptyBinsReportZero(t *testing.T) {
	h := NewHistogram("h1")

	assert.Equal(t, 0.0, h.Total())
	assert.Equal(t, 0.0, h.MaxCount())
}

func TestHistogramSetRawDataReplacesPriorBins(t *testing.T) {
	h := NewHistogram("h1")
	h.SetRawData([]Bin{{Left: 0, Width: 1, Count: 10}})
	assert.Equal(t, 10.0, h.Total())

	h.SetRawData([]Bin{{Left: 0, Width: 1, Count: 1}, {Left: 1, Width: 1, Count: 1}})
	assert.Equal(t, 2.0, h.Total())
}

func TestHistogramOutlinePointsTraceBarTops(t *testing.T) {
	h := NewHistogram("h1")
	h.SetRawData([]Bin{{Left: 0, Width: 1, Count: 3}, {Left: 1, Width: 2, Count: 5}})

	pts := h.OutlinePoints()
	assert.Equal(t, []Point{
		{X: 0, Y: 3}, {X: 1, Y: 3},
		{X: 1, Y: 5}, {X: 3, Y: 5},
	}, pts)
}

func TestHistogramColumnRectsUseBaseline(t *testing.T) {
	h := NewHistogram("h1")
	h.SetBaseline(1)
	h.SetRawData([]Bin{{Left: 0, Width: 2, Count: 4}})

	rects := h.ColumnRects()
	require.Len(t, rects, 1)
	assert.Equal(t, Bar{MinX: 0, MinY: 1, MaxX: 2, MaxY: 4}, rects[0])
}

func TestHistogramLineSegmentsAtBinMidpoint(t *testing.T) {
	h := NewHistogram("h1")
	h.SetRawData([]Bin{{Left: 0, Width: 4, Count: 6}})

	segs := h.LineSegments()
	require.Len(t, segs, 1)
	assert.Equal(t, Point{X: 2, Y: 0}, segs[0][0])
	assert.Equal(t, Point{X: 2, Y: 6}, segs[0][1])
}

func TestHistogramBinTextsEmptyWithoutTemplate(t *testing.T) {
	h := NewHistogram("h1")
	h.SetRawData([]Bin{{Left: 0, Width: 1, Count: 3}})
	assert.Empty(t, h.BinTexts())
}

func TestHistogramBinTextsSubstituteTokensWithFormat(t *testing.T) {
	h := NewHistogram("h1")
	h.SetText("#value%.1f in [#min,#max]")
	h.SetRawData([]Bin{{Left: 2, Width: 3, Count: 7.25}})

	texts := h.BinTexts()
	require.Len(t, texts, 1)
	assert.Equal(t, "7.2 in [2,5]", texts[0].Text)
}

func TestHistogramBinTextsInsideAnchorsBetweenBaselineAndTop(t *testing.T) {
	h := NewHistogram("h1")
	h.SetBaseline(0)
	h.SetText("#value")
	h.SetTextPosition(TextInside)
	h.SetRawData([]Bin{{Left: 0, Width: 2, Count: 10}})

	texts := h.BinTexts()
	require.Len(t, texts, 1)
	assert.Equal(t, 5.0, texts[0].Anchor.Y)
}
