package vipflow

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
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/brunotm/vipflow/log"
)

// ScheduleFlag is the node's schedule-strategy bitfield.
type ScheduleFlag uint32

const (
	// OneInput is the default: apply consumes one value per input per
	// call. It has no dedicated bit; it is simply the absence of
	// AllInputs.
	OneInput ScheduleFlag = 0
	// AllInputs refuses to run unless every input has fresh data.
	AllInputs ScheduleFlag = 1 << iota
	// AcceptEmptyInput runs even if an input is stale, passing whatever
	// is cached (the DataList's last-popped probe).
	AcceptEmptyInput
	// Asynchronous dispatches via the node's TaskPool instead of the
	// calling goroutine.
	Asynchronous
	// NoThread runs in the caller's goroutine; mutually exclusive with
	// Asynchronous.
	NoThread
	// SkipIfBusy drops pushes that arrive while the TaskPool is non-empty.
	SkipIfBusy
	// SkipIfNoInput drops the whole task, at run entry, if no input has
	// fresh data.
	SkipIfNoInput
)

var nodeIDSeq int64

// Processor is the Go-idiomatic analogue of the source system's virtual
// apply(): the unit of computation a Node dispatches to. Implementations
// read InputAt(i).Data(), compute, and call OutputAt(j).SetData(...).
type Processor interface {
	Apply(n *Node) error
}

// ProcessorFunc adapts a plain function to Processor.
type ProcessorFunc func(n *Node) error

// Apply calls f(n).
func (f ProcessorFunc) Apply(n *Node) error { return f(n) }

// MainExecutor abstracts the UI-thread-equivalent event loop that
// DisplayObject nodes and TaskPool.WaitForDone coordinate with. Post
// schedules fn to run on the executor's own goroutine; PumpFor processes
// queued work as it arrives until d has elapsed.
type MainExecutor interface {
	Post(fn func())
	PumpFor(d time.Duration)
}

// Node is the unit of computation in the graph: it owns ports, a
// schedule policy, an error buffer, and a TaskPool.
type Node struct {
	id        int64
	className string
	name      string
	pool      *Pool

	mu         sync.RWMutex
	enabled    bool
	visible    bool
	async      bool
	schedule   ScheduleFlag
	attributes map[string]interface{}

	inputs     []*InputPort
	outputs    []*OutputPort
	properties []*PropertyPort

	initialized bool

	processor Processor
	executor  MainExecutor

	errors *errorRing

	updateMu sync.Mutex
	runMu    sync.Mutex

	taskPool *TaskPool

	lastDuration time.Duration
	rate         float64 // exponentially smoothed items/sec

	disablePropagation bool

	doneMu   sync.Mutex
	doneFns  []func(*Node)
	errorFns []func(*Node, NodeError)

	eventMu  sync.Mutex
	eventFns []func(Event)
}

// EventKind enumerates the node lifecycle signals an observer can
// Subscribe to. The set is fixed: these are the only documented
// integration points external code has into a running graph.
type EventKind int

const (
	ProcessingChanged EventKind = iota
	IOChanged
	ConnectionOpened
	ConnectionClosed
	DataReceived
	DataSent
	ImageTransformChanged
	ProcessingDone
	ErrorRaised
	Destroyed
)

func (k EventKind) String() string {
	switch k {
	case ProcessingChanged:
		return "ProcessingChanged"
	case IOChanged:
		return "IOChanged"
	case ConnectionOpened:
		return "ConnectionOpened"
	case ConnectionClosed:
		return "ConnectionClosed"
	case DataReceived:
		return "DataReceived"
	case DataSent:
		return "DataSent"
	case ImageTransformChanged:
		return "ImageTransformChanged"
	case ProcessingDone:
		return "ProcessingDone"
	case ErrorRaised:
		return "ErrorRaised"
	case Destroyed:
		return "Destroyed"
	default:
		return "Unknown"
	}
}

// Event is the payload delivered to a Subscribe callback. Only the fields
// relevant to Kind are populated; the rest carry their zero value.
type Event struct {
	Kind    EventKind
	Node    *Node
	Port    Port
	Data    AnyData
	Address Address
	Mode    OpenMode
	Err     NodeError
	Nanos   int64
}

// Subscribe registers fn against every lifecycle signal this node emits:
// ProcessingChanged, IOChanged, ConnectionOpened, ConnectionClosed,
// DataReceived, DataSent, ImageTransformChanged, ProcessingDone,
// ErrorRaised and Destroyed. There is no unsubscribe; callbacks live for
// the node's lifetime, matching the source system's connect-for-life
// signal/slot usage in the visualization layer.
func (n *Node) Subscribe(fn func(Event)) {
	n.eventMu.Lock()
	defer n.eventMu.Unlock()
	n.eventFns = append(n.eventFns, fn)
}

func (n *Node) emit(e Event) {
	e.Node = n
	n.eventMu.Lock()
	fns := make([]func(Event), len(n.eventFns))
	copy(fns, n.eventFns)
	n.eventMu.Unlock()
	for _, fn := range fns {
		fn(e)
	}
}

// NewNode creates a Node of className bound to processor. The schedule
// defaults to OneInput|Asynchronous, matching the source system's default
// "runs on its own worker, one value per input" behavior.
func NewNode(className, name string, processor Processor) *Node {
	n := &Node{
		id:        atomic.AddInt64(&nodeIDSeq, 1),
		className: className,
		name:      name,
		enabled:   true,
		visible:   true,
		async:     true,
		schedule:  OneInput | Asynchronous,
		processor: processor,
		errors:    newErrorRing(3),
	}
	n.taskPool = newTaskPool(n)
	return n
}

// ID returns the node's process-unique identity, used as AnyData.SourceID.
func (n *Node) ID() int64    { return n.id }
func (n *Node) Name() string { return n.name }
func (n *Node) ClassName() string { return n.className }

// SetMainExecutor binds the executor TaskPool.WaitForDone pumps while
// blocking, and that DisplayObject nodes post their render callback to.
func (n *Node) SetMainExecutor(e MainExecutor) { n.executor = e }

// MainExecutor returns the bound executor, or nil if none was set.
func (n *Node) MainExecutor() MainExecutor { return n.executor }

// Enabled reports whether the node accepts pushes and schedules work.
func (n *Node) Enabled() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.enabled
}

// SetEnabled toggles the node. Disabling does not itself disable
// individual ports (Destroy does); it only gates Update.
func (n *Node) SetEnabled(e bool) {
	n.mu.Lock()
	changed := n.enabled != e
	n.enabled = e
	n.mu.Unlock()
	if changed {
		n.emit(Event{Kind: ProcessingChanged})
	}
}

// Visible reports the node's visibility flag, consulted by DisplayObject's
// updateOnHidden policy.
func (n *Node) Visible() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.visible
}

// SetVisible sets the visibility flag.
func (n *Node) SetVisible(v bool) {
	n.mu.Lock()
	changed := n.visible != v
	n.visible = v
	n.mu.Unlock()
	if changed {
		n.emit(Event{Kind: ProcessingChanged})
	}
}

// Asynchronous reports whether this node dispatches through its TaskPool.
func (n *Node) Asynchronous() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.async
}

// Schedule returns the current schedule-strategy bitfield.
func (n *Node) Schedule() ScheduleFlag {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.schedule
}

// SetSchedule replaces the schedule-strategy bitfield. Toggling the
// Asynchronous bit clears every input buffer, since a stale sample
// carried across the mode switch would skew timing.
func (n *Node) SetSchedule(s ScheduleFlag) {
	n.mu.Lock()
	wasAsync := n.async
	n.schedule = s
	n.async = s&Asynchronous != 0
	switchedMode := wasAsync != n.async
	inputs := n.inputs
	n.mu.Unlock()

	if switchedMode {
		for _, in := range inputs {
			in.clearBuffer()
		}
	}
	n.emit(Event{Kind: ProcessingChanged})
}

// SetDisableSourcePropertyPropagation gates the recursive source-property
// walk in SetSourceProperty; useful on nodes with very large or cyclic
// fan-in where the walk's cost is undesirable.
func (n *Node) SetDisableSourcePropertyPropagation(disable bool) {
	n.mu.Lock()
	n.disablePropagation = disable
	n.mu.Unlock()
}

// Attribute returns a user attribute, and whether it was present.
func (n *Node) Attribute(name string) (interface{}, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	v, ok := n.attributes[name]
	return v, ok
}

// SetAttribute sets a user attribute.
func (n *Node) SetAttribute(name string, value interface{}) {
	n.mu.Lock()
	if n.attributes == nil {
		n.attributes = make(map[string]interface{})
	}
	n.attributes[name] = value
	n.mu.Unlock()
}

// SetSourceProperty sets a "source property" (name must be accepted by
// IsSourceProperty) on this node, then recursively walks every input's
// source node and sets the same property there, breaking cycles by node
// identity. This mirrors the source system's rule that a property tagged
// as a "source property" propagates upstream so every ancestor carries
// it, used for things like a shared time origin.
func (n *Node) SetSourceProperty(name string, value interface{}) {
	n.setSourceProperty(name, value, make(map[*Node]bool))
}

func (n *Node) setSourceProperty(name string, value interface{}, visited map[*Node]bool) {
	if visited[n] {
		return
	}
	visited[n] = true
	n.SetAttribute(name, value)

	n.mu.RLock()
	disabled := n.disablePropagation
	inputs := n.inputs
	n.mu.RUnlock()
	if disabled {
		return
	}

	for _, in := range inputs {
		src := in.Source()
		if src == nil {
			continue
		}
		if parent := src.Node(); parent != nil {
			parent.setSourceProperty(name, value, visited)
		}
	}
}

// --- ports ---

// AddInput declares a new input named base (or base with a "_1", "_2"...
// suffix on collision) and returns it.
func (n *Node) AddInput(base string) *InputPort {
	n.mu.Lock()
	name := n.uniqueNameLocked(base)
	p := newInputPort(n, name)
	n.inputs = append(n.inputs, p)
	n.mu.Unlock()
	n.emit(Event{Kind: IOChanged, Port: p})
	return p
}

// AddOutput declares a new output.
func (n *Node) AddOutput(base string) *OutputPort {
	n.mu.Lock()
	name := n.uniqueNameLocked(base)
	p := newOutputPort(n, name)
	n.outputs = append(n.outputs, p)
	n.mu.Unlock()
	n.emit(Event{Kind: IOChanged, Port: p})
	return p
}

// AddProperty declares a new property.
func (n *Node) AddProperty(base string) *PropertyPort {
	n.mu.Lock()
	name := n.uniqueNameLocked(base)
	p := newPropertyPort(n, name)
	n.properties = append(n.properties, p)
	n.mu.Unlock()
	n.emit(Event{Kind: IOChanged, Port: p})
	return p
}

// uniqueNameLocked appends _1, _2... to base until no existing port (of
// any kind) on this node already uses that name. Caller must hold n.mu.
func (n *Node) uniqueNameLocked(base string) string {
	taken := func(name string) bool {
		for _, p := range n.inputs {
			if p.name == name {
				return true
			}
		}
		for _, p := range n.outputs {
			if p.name == name {
				return true
			}
		}
		for _, p := range n.properties {
			if p.name == name {
				return true
			}
		}
		return false
	}
	if !taken(base) {
		return base
	}
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s_%d", base, i)
		if !taken(candidate) {
			return candidate
		}
	}
}

func (n *Node) Inputs() []*InputPort {
	n.mu.RLock()
	defer n.mu.RUnlock()
	out := make([]*InputPort, len(n.inputs))
	copy(out, n.inputs)
	return out
}

func (n *Node) Outputs() []*OutputPort {
	n.mu.RLock()
	defer n.mu.RUnlock()
	out := make([]*OutputPort, len(n.outputs))
	copy(out, n.outputs)
	return out
}

func (n *Node) Properties() []*PropertyPort {
	n.mu.RLock()
	defer n.mu.RUnlock()
	out := make([]*PropertyPort, len(n.properties))
	copy(out, n.properties)
	return out
}

// InputAt returns the i-th input, or nil if out of range.
func (n *Node) InputAt(i int) *InputPort {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if i < 0 || i >= len(n.inputs) {
		return nil
	}
	return n.inputs[i]
}

// OutputAt returns the j-th output, or nil if out of range.
func (n *Node) OutputAt(j int) *OutputPort {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if j < 0 || j >= len(n.outputs) {
		return nil
	}
	return n.outputs[j]
}

func (n *Node) portByName(name string) (Port, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	for _, p := range n.inputs {
		if p.name == name {
			return p, true
		}
	}
	for _, p := range n.outputs {
		if p.name == name {
			return p, true
		}
	}
	for _, p := range n.properties {
		if p.name == name {
			return p, true
		}
	}
	return nil, false
}

// --- errors ---

// Errors returns the node's bounded error ring, most recent last.
func (n *Node) Errors() []NodeError {
	return n.errors.last()
}

// setError appends e to the node's error ring, logs it if the process-wide
// filter (or a future per-node override) allows, and notifies any
// registered error callbacks. Errors are never fatal.
func (n *Node) setError(e NodeError) {
	n.errors.push(e)

	if Manager().ShouldLog(e.Code) {
		log.New("node", n.name, "class", n.className).Errorw("node error",
			"code", e.Code.String(), "message", e.Message)
	}

	n.doneMu.Lock()
	fns := make([]func(*Node, NodeError), len(n.errorFns))
	copy(fns, n.errorFns)
	n.doneMu.Unlock()
	for _, fn := range fns {
		fn(n, e)
	}
	n.emit(Event{Kind: ErrorRaised, Err: e})
}

// OnError registers a callback invoked every time setError fires.
func (n *Node) OnError(fn func(*Node, NodeError)) {
	n.doneMu.Lock()
	defer n.doneMu.Unlock()
	n.errorFns = append(n.errorFns, fn)
}

// OnProcessingDone registers a callback invoked after apply() completes
// and outputs have been set.
func (n *Node) OnProcessingDone(fn func(*Node)) {
	n.doneMu.Lock()
	defer n.doneMu.Unlock()
	n.doneFns = append(n.doneFns, fn)
}

func (n *Node) emitProcessingDone() {
	n.doneMu.Lock()
	fns := make([]func(*Node), len(n.doneFns))
	copy(fns, n.doneFns)
	n.doneMu.Unlock()
	for _, fn := range fns {
		fn(n)
	}
}

// --- lifecycle ---

// onDataReceived emits DataReceived for p. It runs on the pushing
// goroutine, ahead of any scheduling decision, mirroring the source
// system's dataReceived signal firing before the node is woken.
func (n *Node) onDataReceived(p *InputPort, d AnyData) {
	n.emit(Event{Kind: DataReceived, Port: p, Data: d})
}

// onDataSent emits DataSent for p, after the value has been cached on the
// port but before it reaches any connected sink.
func (n *Node) onDataSent(p *OutputPort, d AnyData) {
	n.emit(Event{Kind: DataSent, Port: p, Data: d})
}

// SetImageTransform records t as this node's image transform attribute
// and propagates the change upstream to every source node, the same walk
// SetSourceProperty performs, stopping at cycles. It mirrors the source
// system's notion that a geometric transform applied anywhere in a
// processing chain must be visible to every ancestor producing data for
// it (so a display downstream of several transforms can compose them).
func (n *Node) SetImageTransform(t interface{}) {
	n.SetAttribute("imageTransform", t)
	n.emitImageTransformChanged(make(map[*Node]bool))
}

func (n *Node) emitImageTransformChanged(visited map[*Node]bool) {
	if visited[n] {
		return
	}
	visited[n] = true
	n.emit(Event{Kind: ImageTransformChanged})

	for _, in := range n.Inputs() {
		src := in.Source()
		if src == nil {
			continue
		}
		if parent := src.Node(); parent != nil {
			parent.emitImageTransformChanged(visited)
		}
	}
}

// Destroy disables every input (no further pushes accepted), drains the
// TaskPool, then releases connections. It does not remove the node from
// its owning Pool; call Pool.RemoveNode for that.
func (n *Node) Destroy() {
	n.mu.Lock()
	for _, in := range n.inputs {
		in.SetEnabled(false)
	}
	inputs := n.inputs
	outputs := n.outputs
	n.mu.Unlock()

	n.taskPool.stop()
	n.taskPool.waitForDone(time.Second)

	for _, in := range inputs {
		if in.conn != nil {
			removeConnection(in.conn.source, in)
		}
	}
	for _, out := range outputs {
		for _, sink := range out.sinks {
			removeConnection(out, sink)
		}
	}
	n.emit(Event{Kind: Destroyed})
}

// --- update / run protocol ---

// Update is the bottom half of the push protocol (spec's push/update
// split). force bypasses the SkipIfBusy check, used when a downstream
// parameter change demands a rerun regardless of current pending work.
func (n *Node) Update(force bool) bool {
	if !n.Enabled() {
		return false
	}

	n.updateMu.Lock()
	defer n.updateMu.Unlock()

	async := n.Asynchronous()
	schedule := n.Schedule()

	if !async {
		for _, in := range n.Inputs() {
			if src := in.Source(); src != nil {
				if parent := src.Node(); parent != nil {
					parent.Update(false)
				}
			}
		}
	}

	if !n.inputsReady(schedule) {
		return false
	}

	if !force && schedule&SkipIfBusy != 0 && n.taskPool.remaining() > 0 {
		return false
	}

	switch {
	case async:
		n.taskPool.push()
		return true
	case schedule&NoThread != 0:
		n.runMu.Lock()
		err := n.runNoLock()
		n.runMu.Unlock()
		return err == nil
	default:
		n.taskPool.push()
		n.taskPool.waitForDone(0)
		return true
	}
}

// inputsReady implements step 4 of Update: -1 never produced, 0 stale,
// >0 fresh count. A stale or never-produced input rejects the run unless
// AcceptEmptyInput is set; AllInputs additionally demands every input
// currently be fresh (>0), never-produced included.
func (n *Node) inputsReady(schedule ScheduleFlag) bool {
	inputs := n.Inputs()
	if len(inputs) == 0 {
		return true
	}

	for _, in := range inputs {
		if !in.Enabled() {
			continue
		}
		status := in.status()

		if status <= 0 && schedule&AcceptEmptyInput == 0 {
			return false
		}
		if schedule&AllInputs != 0 && status <= 0 {
			return false
		}
	}

	return true
}

// run is the TaskPool-invoked dispatcher: it acquires the run-lock,
// handles SkipIfNoInput, and calls runNoLock.
func (n *Node) run() error {
	n.runMu.Lock()
	defer n.runMu.Unlock()
	return n.runLocked()
}

// runLocked is run()'s body, factored out so TaskPool.drainBatch can hold
// the run-lock across an entire coalesced batch instead of re-acquiring
// it per iteration.
func (n *Node) runLocked() error {
	schedule := n.Schedule()
	if schedule&SkipIfNoInput != 0 && !n.anyInputFresh() {
		return nil
	}
	return n.runNoLock()
}

func (n *Node) anyInputFresh() bool {
	for _, in := range n.Inputs() {
		if in.Enabled() && in.status() > 0 {
			return true
		}
	}
	return false
}

// runNoLock invokes apply() directly, assuming the caller already holds
// the run-lock (so two apply() calls never overlap). It records timing,
// updates the smoothed processing rate, and emits processingDone *after*
// outputs have been set, matching the required ordering.
func (n *Node) runNoLock() (err error) {
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("vipflow: panic in node %q apply: %v", n.name, r)
		}
		elapsed := time.Since(start)
		n.mu.Lock()
		n.lastDuration = elapsed
		n.updateRateLocked(elapsed)
		n.mu.Unlock()
		Manager().observeLatency(elapsed.Nanoseconds())

		if err != nil {
			n.setError(NodeError{Code: RuntimeError, Message: err.Error()})
		}
		n.emitProcessingDone()
		n.emit(Event{Kind: ProcessingDone, Nanos: elapsed.Nanoseconds()})
	}()

	if n.processor == nil {
		return nil
	}
	return n.processor.Apply(n)
}

// updateRateLocked applies an exponential moving average (alpha=0.2) to
// the node's items/sec estimate. Caller must hold n.mu.
func (n *Node) updateRateLocked(elapsed time.Duration) {
	const alpha = 0.2
	if elapsed <= 0 {
		return
	}
	instant := 1.0 / elapsed.Seconds()
	if n.rate == 0 {
		n.rate = instant
		return
	}
	n.rate = alpha*instant + (1-alpha)*n.rate
}

// LastDuration returns the duration of the most recently completed apply.
func (n *Node) LastDuration() time.Duration {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.lastDuration
}

// Rate returns the exponentially smoothed processing rate, in items/sec.
func (n *Node) Rate() float64 {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.rate
}

// Wait drains this node's TaskPool, optionally first waiting on every
// source node (walked back to front, mirroring declaration order so
// upstream producers settle before their consumers). If a MainExecutor is
// bound, it pumps that executor's loop while waiting, from whichever
// goroutine called Wait, so display callbacks queued by this drain can
// themselves run.
// It returns false if timeout elapses first (0 means no timeout).
func (n *Node) Wait(withSources bool, timeout time.Duration) bool {
	if withSources {
		inputs := n.Inputs()
		for i := len(inputs) - 1; i >= 0; i-- {
			if src := inputs[i].Source(); src != nil {
				if parent := src.Node(); parent != nil {
					if !parent.Wait(true, timeout) {
						return false
					}
				}
			}
		}
	}
	return n.taskPool.waitForDone(timeout)
}

// Reload forces a rerun unless the update-lock is currently held or more
// than one task is already queued (in which case a pending run will pick
// up the new state anyway).
func (n *Node) Reload() bool {
	if !n.updateMu.TryLock() {
		return false
	}
	n.updateMu.Unlock()
	if n.taskPool.remaining() > 1 {
		return false
	}
	return n.Update(true)
}
