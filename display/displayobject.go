// Package display implements DisplayObject: the node type that bridges
// worker-thread data preparation and main-thread (or main-executor)
// rendering, the terminal stage of a processing graph bound to a visible
// plot item.
package display

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

	vipflow "github.com/brunotm/vipflow"
)

// Prepared is the output of the worker-side prepareForDisplay step: a
// value ready to hand to the main executor without further computation.
type Prepared struct {
	Data        vipflow.AnyData
	Fingerprint uint64
}

// Preparer does the potentially expensive, thread-safe half of rendering
// (e.g. building an *image.RGBA from a raw sample) off the main executor.
// The bool it returns reports whether rendering is already complete: true
// means the preparer committed the result itself and DisplayData must be
// skipped, false means Prepared still needs posting to the renderer.
type Preparer interface {
	PrepareForDisplay(d vipflow.AnyData) (Prepared, bool)
}

// PreparerFunc adapts a function to Preparer.
type PreparerFunc func(d vipflow.AnyData) (Prepared, bool)

// PrepareForDisplay calls f(d).
func (f PreparerFunc) PrepareForDisplay(d vipflow.AnyData) (Prepared, bool) { return f(d) }

// Renderer does the cheap half (committing Prepared to whatever owns the
// screen), which DisplayObject runs on the bound MainExecutor, or inline
// on the calling goroutine when no executor is bound.
type Renderer interface {
	DisplayData(p Prepared)
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(p Prepared)

// DisplayData calls f(p).
func (f RendererFunc) DisplayData(p Prepared) { f(p) }

// DisplayObject is a vipflow.Processor splitting apply() into a worker
// step (PrepareForDisplay, run inline on the node's own goroutine like any
// other apply) and a main-executor step (DisplayData, posted via
// Node.SetMainExecutor). Honoring updateOnHidden, a hidden node still runs
// PrepareForDisplay (so its last-known state stays current) but skips
// posting DisplayData, avoiding wasted render work for an item no one can
// see.
type DisplayObject struct {
	preparer Preparer
	renderer Renderer

	updateOnHidden bool

	mu          sync.Mutex
	lastFP      uint64
	haveLastFP  bool
	formatCalls int64
}

// New creates a DisplayObject pairing preparer and renderer.
func New(preparer Preparer, renderer Renderer) *DisplayObject {
	return &DisplayObject{preparer: preparer, renderer: renderer}
}

// SetUpdateOnHidden controls whether DisplayData still posts while the
// owning node is invisible (Node.Visible() == false). Default is false,
// matching the source system's "don't waste the paint event" default.
func (d *DisplayObject) SetUpdateOnHidden(v bool) { d.updateOnHidden = v }

// FormatCalls reports how many times the formatting hook actually fired
// (i.e. the fingerprint changed), for tests and diagnostics.
func (d *DisplayObject) FormatCalls() int64 { return atomic.LoadInt64(&d.formatCalls) }

// Apply implements vipflow.Processor: it reads InputAt(0), runs
// PrepareForDisplay inline, fires the formatting hook if the
// Name/stylesheet/XUnit/YUnit/ZUnit fingerprint changed since the last
// call, and — unless PrepareForDisplay reports rendering already done, or
// the node is hidden and updateOnHidden is off — posts DisplayData to the
// bound MainExecutor.
func (d *DisplayObject) Apply(n *vipflow.Node) error {
	in := n.InputAt(0)
	if in == nil {
		return nil
	}
	raw := in.Data()

	if d.fingerprintChanged(raw) {
		atomic.AddInt64(&d.formatCalls, 1)
	}

	prepared, done := d.preparer.PrepareForDisplay(raw)
	if done {
		return nil
	}

	if !n.Visible() && !d.updateOnHidden {
		return nil
	}

	executor := n.MainExecutor()
	if executor == nil {
		d.renderer.DisplayData(prepared)
		return nil
	}
	executor.Post(func() {
		d.renderer.DisplayData(prepared)
	})
	return nil
}

func (d *DisplayObject) fingerprintChanged(data vipflow.AnyData) bool {
	fp := data.Fingerprint()
	d.mu.Lock()
	defer d.mu.Unlock()
	changed := !d.haveLastFP || fp != d.lastFP
	d.lastFP = fp
	d.haveLastFP = true
	return changed
}
