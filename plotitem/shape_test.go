package plotitem

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShapeContainsAndArea(t *testing.T) {
	s := NewShape("roi", "ROI", 1)
	s.SetRawData([]Point{{X: 0, Y: 0}, {X: 4, Y: 0}, {X: 4, Y: 4}, {X: 0, Y: 4}})

	assert.True(t, s.Contains(2, 2))
	assert.False(t, s.Contains(10, 10))
	assert.Equal(t, 16.0, s.Area())
}

func TestShapeAttributes(t *testing.T) {
	s := NewShape("roi", "ROI", 1)
	_, ok := s.Attribute("temperature")
	assert.False(t, ok)

	s.SetAttribute("temperature", "120C")
	v, ok := s.Attribute("temperature")
	require.True(t, ok)
	assert.Equal(t, "120C", v)
	assert.Equal(t, map[string]string{"temperature": "120C"}, s.Attributes())
}

func TestSceneModelAddRemoveAndGroups(t *testing.T) {
	sm := NewSceneModel()
	s1 := NewShape("r1", "ROI", 1)
	s2 := NewShape("r2", "ROI", 2)
	s3 := NewShape("t1", "Target", 1)
	sm.Add(s1)
	sm.Add(s2)
	sm.Add(s3)

	assert.Equal(t, []string{"ROI", "Target"}, sm.Groups())
	assert.Len(t, sm.Shapes("ROI"), 2)
	assert.Same(t, s2, sm.Find("ROI", 2))
	assert.Len(t, sm.AllShapes(), 3)

	sm.Remove(s1)
	assert.Len(t, sm.Shapes("ROI"), 1)
	assert.Nil(t, sm.Find("ROI", 1))
}

func TestSceneModelChangeBusFiresOnAddRemove(t *testing.T) {
	sm := NewSceneModel()
	var kinds []SceneEventKind
	sm.OnChanged(func(ev SceneModelEvent) { kinds = append(kinds, ev.Kind) })

	s := NewShape("r1", "ROI", 1)
	sm.Add(s)
	sm.Remove(s)

	assert.Equal(t, []SceneEventKind{ShapeAdded, ShapeRemoved}, kinds)
}

func TestPlotSceneModelAggregateCreatesOneResizerPerShape(t *testing.T) {
	sm := NewSceneModel()
	sm.Add(NewShape("r1", "ROI", 1))
	sm.Add(NewShape("r2", "ROI", 2))

	p := NewPlotSceneModel("scene")
	p.SetMode(Movable)
	p.SetSceneModel(sm)

	require.Len(t, p.Resizers(), 2)
}

func TestPlotSceneModelFixedModeHasNoResizers(t *testing.T) {
	sm := NewSceneModel()
	sm.Add(NewShape("r1", "ROI", 1))

	p := NewPlotSceneModel("scene")
	p.SetSceneModel(sm)

	assert.Empty(t, p.Resizers())
}

func TestPlotSceneModelUniqueItemHasNoResizersButMergesShapes(t *testing.T) {
	sm := NewSceneModel()
	s1 := NewShape("r1", "ROI", 1)
	s1.SetRawData([]Point{{X: 0, Y: 0}, {X: 1, Y: 0}})
	s2 := NewShape("r2", "ROI", 2)
	s2.SetRawData([]Point{{X: 2, Y: 2}, {X: 3, Y: 2}})
	sm.Add(s1)
	sm.Add(s2)

	p := NewPlotSceneModel("scene")
	p.SetMode(Resizable)
	p.SetCompositeMode(UniqueItem)
	p.SetSceneModel(sm)

	assert.Empty(t, p.Resizers())
	assert.Len(t, p.CompositeShape(), 4)
}

func TestResizeItemMoveAndFinishChangePropagates(t *testing.T) {
	sm := NewSceneModel()
	s := NewShape("r1", "ROI", 1)
	s.SetRawData([]Point{{X: 0, Y: 0}, {X: 2, Y: 0}, {X: 2, Y: 2}, {X: 0, Y: 2}})
	sm.Add(s)

	var changed []SceneEventKind
	sm.OnChanged(func(ev SceneModelEvent) { changed = append(changed, ev.Kind) })

	p := NewPlotSceneModel("scene")
	p.SetMode(Movable)
	p.SetSceneModel(sm)

	resizers := p.Resizers()
	require.Len(t, resizers, 1)
	r := resizers[0]

	r.Move(1, 1)
	pts := s.RawData()
	assert.Equal(t, Point{X: 1, Y: 1}, pts[0])

	r.FinishChange()
	require.NotEmpty(t, changed)
	assert.Equal(t, ShapeChanged, changed[len(changed)-1])
}

func TestResizeItemFixedModeRejectsEdits(t *testing.T) {
	s := NewShape("r1", "ROI", 1)
	s.SetRawData([]Point{{X: 0, Y: 0}, {X: 2, Y: 0}})

	r := newResizeItem(s, Fixed)
	r.Move(5, 5)
	assert.Equal(t, []Point{{X: 0, Y: 0}, {X: 2, Y: 0}}, s.RawData())
}

func TestResizeItemResizeScalesAboutCentroid(t *testing.T) {
	s := NewShape("r1", "ROI", 1)
	s.SetRawData([]Point{{X: -1, Y: -1}, {X: 1, Y: -1}, {X: 1, Y: 1}, {X: -1, Y: 1}})
	r := newResizeItem(s, Resizable)

	r.Resize(2, 2)
	pts := s.RawData()
	assert.Equal(t, Point{X: -2, Y: -2}, pts[0])
	assert.Equal(t, Point{X: 2, Y: 2}, pts[2])
}

func TestResizeItemRotateAboutCentroid(t *testing.T) {
	s := NewShape("r1", "ROI", 1)
	s.SetRawData([]Point{{X: 1, Y: 0}, {X: 0, Y: 1}})
	r := newResizeItem(s, Resizable)

	r.Rotate(math.Pi / 2)
	pts := s.RawData()
	assert.InDelta(t, 1, pts[0].X, 1e-9)
	assert.InDelta(t, 1, pts[0].Y, 1e-9)
}
