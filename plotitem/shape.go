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
	"math"
	"sort"
	"sync"
)

// ShapeKind distinguishes how a Shape's point sequence is interpreted.
type ShapeKind int

const (
	ShapePolygon ShapeKind = iota
	ShapePolyline
	ShapePath
)

// Shape is a user-drawn region of interest: a polygon/polyline/path in
// data coordinates plus a free-form identifier group and attribute map,
// matching the source system's VipShape/VipPlotShape pairing (geometry
// separated from its rendering item).
type Shape struct {
	DataType[[]Point]
	group string
	id    int
	kind  ShapeKind
	attrs map[string]string
}

// NewShape creates an empty, named Shape in group with the given id.
func NewShape(name, group string, id int) *Shape {
	return &Shape{DataType: newDataType[[]Point](name, "shape"), group: group, id: id}
}

// Group returns the shape's group identifier (e.g. "ROI").
func (s *Shape) Group() string { return s.group }

// ID returns the shape's identifier within its group.
func (s *Shape) ID() int { return s.id }

// Kind returns how the point sequence should be interpreted.
func (s *Shape) Kind() ShapeKind { s.mu.RLock(); defer s.mu.RUnlock(); return s.kind }

// SetKind sets the shape's interpretation (polygon/polyline/path).
func (s *Shape) SetKind(k ShapeKind) { s.mu.Lock(); s.kind = k; s.mu.Unlock() }

// SetAttribute sets a free-form (name, value) pair on the shape, used by
// a VipPlotShape-style "components" draw flag (#group, #id, #<attr>
// substitution tokens) and by callers tagging shapes out of band.
func (s *Shape) SetAttribute(name, value string) {
	s.mu.Lock()
	if s.attrs == nil {
		s.attrs = make(map[string]string)
	}
	s.attrs[name] = value
	s.mu.Unlock()
}

// Attribute looks up a previously set attribute.
func (s *Shape) Attribute(name string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.attrs[name]
	return v, ok
}

// Attributes returns a copy of the shape's attribute map.
func (s *Shape) Attributes() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.attrs))
	for k, v := range s.attrs {
		out[k] = v
	}
	return out
}

// Contains reports whether (x, y) lies inside the polygon, using a
// standard even-odd ray-casting test.
func (s *Shape) Contains(x, y float64) bool {
	pts := s.RawData()
	if len(pts) < 3 {
		return false
	}
	inside := false
	for i, j := 0, len(pts)-1; i < len(pts); j, i = i, i+1 {
		pi, pj := pts[i], pts[j]
		if (pi.Y > y) != (pj.Y > y) &&
			x < (pj.X-pi.X)*(y-pi.Y)/(pj.Y-pi.Y)+pi.X {
			inside = !inside
		}
	}
	return inside
}

// Area computes the polygon's area via the shoelace formula.
func (s *Shape) Area() float64 {
	pts := s.RawData()
	if len(pts) < 3 {
		return 0
	}
	var sum float64
	for i := range pts {
		j := (i + 1) % len(pts)
		sum += pts[i].X*pts[j].Y - pts[j].X*pts[i].Y
	}
	if sum < 0 {
		sum = -sum
	}
	return sum / 2
}

// centroid returns the arithmetic mean of the shape's points, used as the
// pivot for Resize/Rotate.
func (s *Shape) centroid() Point {
	pts := s.RawData()
	if len(pts) == 0 {
		return Point{}
	}
	var cx, cy float64
	for _, p := range pts {
		cx += p.X
		cy += p.Y
	}
	n := float64(len(pts))
	return Point{X: cx / n, Y: cy / n}
}

// SceneEventKind classifies a SceneModel change.
type SceneEventKind int

const (
	ShapeAdded SceneEventKind = iota
	ShapeRemoved
	ShapeChanged
)

// SceneModelEvent describes one change posted to a SceneModel's change bus.
type SceneModelEvent struct {
	Kind  SceneEventKind
	Group string
	Shape *Shape
}

// SceneModel is a group -> []Shape map with a change-signal bus, matching
// VipSceneModel: shapes are gathered into named groups, and any addition,
// removal or in-place edit is broadcast to every registered observer so a
// bound PlotSceneModel can keep its rendering in sync.
type SceneModel struct {
	mu     sync.RWMutex
	groups map[string][]*Shape
	fns    []func(SceneModelEvent)
}

// NewSceneModel creates an empty SceneModel.
func NewSceneModel() *SceneModel {
	return &SceneModel{groups: make(map[string][]*Shape)}
}

// Add appends s to its own Group(). Emits ShapeAdded.
func (sm *SceneModel) Add(s *Shape) {
	sm.mu.Lock()
	sm.groups[s.Group()] = append(sm.groups[s.Group()], s)
	sm.mu.Unlock()
	sm.emit(SceneModelEvent{Kind: ShapeAdded, Group: s.Group(), Shape: s})
}

// Remove deletes s from its group, if present. Emits ShapeRemoved.
func (sm *SceneModel) Remove(s *Shape) {
	sm.mu.Lock()
	list := sm.groups[s.Group()]
	for i, cur := range list {
		if cur == s {
			sm.groups[s.Group()] = append(list[:i:i], list[i+1:]...)
			break
		}
	}
	sm.mu.Unlock()
	sm.emit(SceneModelEvent{Kind: ShapeRemoved, Group: s.Group(), Shape: s})
}

// Groups returns the scene model's group names, sorted for determinism.
func (sm *SceneModel) Groups() []string {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	out := make([]string, 0, len(sm.groups))
	for g := range sm.groups {
		out = append(out, g)
	}
	sort.Strings(out)
	return out
}

// Shapes returns a copy of the shapes in group.
func (sm *SceneModel) Shapes(group string) []*Shape {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	list := sm.groups[group]
	out := make([]*Shape, len(list))
	copy(out, list)
	return out
}

// AllShapes returns every shape across every group, ordered by group name
// then insertion order within the group.
func (sm *SceneModel) AllShapes() []*Shape {
	var out []*Shape
	for _, g := range sm.Groups() {
		out = append(out, sm.Shapes(g)...)
	}
	return out
}

// Find returns the shape with the given group and id, if present.
func (sm *SceneModel) Find(group string, id int) *Shape {
	for _, s := range sm.Shapes(group) {
		if s.ID() == id {
			return s
		}
	}
	return nil
}

// OnChanged registers an observer invoked on every Add/Remove/propagated
// edit.
func (sm *SceneModel) OnChanged(fn func(SceneModelEvent)) {
	sm.mu.Lock()
	sm.fns = append(sm.fns, fn)
	sm.mu.Unlock()
}

func (sm *SceneModel) emit(ev SceneModelEvent) {
	sm.mu.RLock()
	fns := make([]func(SceneModelEvent), len(sm.fns))
	copy(fns, sm.fns)
	sm.mu.RUnlock()
	for _, fn := range fns {
		fn(ev)
	}
}

// InteractionMode controls how a PlotSceneModel lets the user edit its
// shapes through their ResizeItem handles.
type InteractionMode int

const (
	// Fixed allows selecting/unselecting shapes but no geometry edits.
	Fixed InteractionMode = iota
	// Movable allows translating a shape as a whole.
	Movable
	// Resizable allows translating, scaling and rotating a shape.
	Resizable
)

// CompositeMode selects how a PlotSceneModel renders and exposes its
// shapes: Aggregate keeps each shape as its own selectable/draggable
// child, UniqueItem merges every shape into a single composite outline.
type CompositeMode int

const (
	Aggregate CompositeMode = iota
	UniqueItem
)

// ResizeItem is the interactive handle frame bound to one shape in
// Movable/Resizable mode, matching VipResizeItem: move/resize/rotate
// edit the shape's points directly, and FinishChange propagates the
// completed edit back to the owning SceneModel.
type ResizeItem struct {
	mu    sync.Mutex
	shape *Shape
	mode  InteractionMode
	fns   []func(*Shape)
}

func newResizeItem(shape *Shape, mode InteractionMode) *ResizeItem {
	return &ResizeItem{shape: shape, mode: mode}
}

// Shape returns the shape this resize frame edits.
func (r *ResizeItem) Shape() *Shape { r.mu.Lock(); defer r.mu.Unlock(); return r.shape }

// Mode returns the current interaction mode.
func (r *ResizeItem) Mode() InteractionMode { r.mu.Lock(); defer r.mu.Unlock(); return r.mode }

// Move translates the shape's points by (dx, dy). Allowed in Movable and
// Resizable modes.
func (r *ResizeItem) Move(dx, dy float64) {
	if r.Mode() == Fixed {
		return
	}
	pts := r.shape.RawData()
	moved := make([]Point, len(pts))
	for i, p := range pts {
		moved[i] = Point{X: p.X + dx, Y: p.Y + dy}
	}
	r.shape.SetRawData(moved)
}

// Resize scales the shape's points by (sx, sy) about its centroid.
// Allowed only in Resizable mode.
func (r *ResizeItem) Resize(sx, sy float64) {
	if r.Mode() != Resizable {
		return
	}
	c := r.shape.centroid()
	pts := r.shape.RawData()
	scaled := make([]Point, len(pts))
	for i, p := range pts {
		scaled[i] = Point{X: c.X + (p.X-c.X)*sx, Y: c.Y + (p.Y-c.Y)*sy}
	}
	r.shape.SetRawData(scaled)
}

// Rotate rotates the shape's points by angle radians about its centroid.
// Allowed only in Resizable mode.
func (r *ResizeItem) Rotate(angle float64) {
	if r.Mode() != Resizable {
		return
	}
	c := r.shape.centroid()
	sin, cos := math.Sincos(angle)
	pts := r.shape.RawData()
	rotated := make([]Point, len(pts))
	for i, p := range pts {
		dx, dy := p.X-c.X, p.Y-c.Y
		rotated[i] = Point{X: c.X + dx*cos - dy*sin, Y: c.Y + dx*sin + dy*cos}
	}
	r.shape.SetRawData(rotated)
}

// OnFinishedChange registers an observer called by FinishChange.
func (r *ResizeItem) OnFinishedChange(fn func(*Shape)) {
	r.mu.Lock()
	r.fns = append(r.fns, fn)
	r.mu.Unlock()
}

// FinishChange marks an interactive move/resize/rotate complete,
// propagating it to observers (a bound PlotSceneModel uses this to
// re-broadcast the edit on its SceneModel's change bus).
func (r *ResizeItem) FinishChange() {
	r.mu.Lock()
	shape := r.shape
	fns := make([]func(*Shape), len(r.fns))
	copy(fns, r.fns)
	r.mu.Unlock()
	for _, fn := range fns {
		fn(shape)
	}
}

// PlotSceneModel is a composite PlotItem rendering a bound SceneModel,
// matching VipPlotSceneModel. In Aggregate mode every shape keeps its own
// ResizeItem handle frame (when mode != Fixed); in UniqueItem mode shapes
// merge into a single composite outline and no handles are created.
type PlotSceneModel struct {
	itemCore

	mu        sync.RWMutex
	model     *SceneModel
	mode      InteractionMode
	composite CompositeMode
	resizers  map[*Shape]*ResizeItem
}

// NewPlotSceneModel creates an empty PlotSceneModel in Aggregate/Fixed mode.
func NewPlotSceneModel(name string) *PlotSceneModel {
	return &PlotSceneModel{
		itemCore: newItemCore(name, "scenemodel"),
		resizers: make(map[*Shape]*ResizeItem),
	}
}

// SetSceneModel binds m, replacing any previously bound model. Resize
// handles are rebuilt immediately and again on every subsequent change.
func (p *PlotSceneModel) SetSceneModel(m *SceneModel) {
	p.mu.Lock()
	p.model = m
	p.mu.Unlock()

	if m != nil {
		m.OnChanged(func(SceneModelEvent) { p.syncResizers() })
	}
	p.syncResizers()
	p.emitDataChanged()
}

// SceneModel returns the currently bound model, or nil.
func (p *PlotSceneModel) SceneModel() *SceneModel {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.model
}

// SetMode sets the interaction mode applied to every shape's ResizeItem.
func (p *PlotSceneModel) SetMode(mode InteractionMode) {
	p.mu.Lock()
	p.mode = mode
	p.mu.Unlock()
	p.syncResizers()
}

// Mode returns the current interaction mode.
func (p *PlotSceneModel) Mode() InteractionMode {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.mode
}

// SetCompositeMode switches between Aggregate and UniqueItem rendering.
func (p *PlotSceneModel) SetCompositeMode(m CompositeMode) {
	p.mu.Lock()
	p.composite = m
	p.mu.Unlock()
	p.syncResizers()
}

// CompositeMode returns the current composite mode.
func (p *PlotSceneModel) CompositeMode() CompositeMode {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.composite
}

// syncResizers rebuilds the shape -> ResizeItem map so it always matches
// the bound model's current shape set. Existing ResizeItems are reused
// (not recreated) for shapes that survive a sync, preserving any
// in-progress interaction state.
func (p *PlotSceneModel) syncResizers() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.model == nil || p.mode == Fixed || p.composite == UniqueItem {
		p.resizers = make(map[*Shape]*ResizeItem)
		return
	}

	shapes := p.model.AllShapes()
	next := make(map[*Shape]*ResizeItem, len(shapes))
	model := p.model
	for _, s := range shapes {
		if r, ok := p.resizers[s]; ok {
			r.mu.Lock()
			r.mode = p.mode
			r.mu.Unlock()
			next[s] = r
			continue
		}
		r := newResizeItem(s, p.mode)
		r.OnFinishedChange(func(shape *Shape) {
			model.emit(SceneModelEvent{Kind: ShapeChanged, Group: shape.Group(), Shape: shape})
		})
		next[s] = r
	}
	p.resizers = next
}

// Resizers returns the current per-shape resize-frame child items. Empty
// outside Aggregate mode or while Fixed.
func (p *PlotSceneModel) Resizers() []*ResizeItem {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]*ResizeItem, 0, len(p.resizers))
	for _, r := range p.resizers {
		out = append(out, r)
	}
	return out
}

// CompositeShape concatenates every bound shape's points into a single
// outline, used for rendering/hit-testing in UniqueItem mode.
func (p *PlotSceneModel) CompositeShape() []Point {
	p.mu.RLock()
	m := p.model
	p.mu.RUnlock()
	if m == nil {
		return nil
	}
	var all []Point
	for _, s := range m.AllShapes() {
		all = append(all, s.RawData()...)
	}
	return all
}
