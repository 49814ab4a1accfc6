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
)

// PortKind distinguishes the three singular port flavors.
type PortKind int

const (
	KindInput PortKind = iota
	KindOutput
	KindProperty
)

func (k PortKind) String() string {
	switch k {
	case KindInput:
		return "Input"
	case KindOutput:
		return "Output"
	case KindProperty:
		return "Property"
	default:
		return "Unknown"
	}
}

// Port is the common interface shared by InputPort, OutputPort and
// PropertyPort: a named, enable-able, connected endpoint owned by a Node.
type Port interface {
	Name() string
	Node() *Node
	Enabled() bool
	SetEnabled(bool)
	Kind() PortKind
	Connection() *Connection
	setName(string)
	setConnection(*Connection)
}

// portCore implements the common Port behavior; embedded by each concrete
// port type.
type portCore struct {
	name    string
	node    *Node
	kind    PortKind
	enabled bool
	conn    *Connection
}

func (p *portCore) Name() string             { return p.name }
func (p *portCore) Node() *Node              { return p.node }
func (p *portCore) Enabled() bool            { return p.enabled }
func (p *portCore) SetEnabled(e bool)        { p.enabled = e }
func (p *portCore) Kind() PortKind           { return p.kind }
func (p *portCore) Connection() *Connection  { return p.conn }
func (p *portCore) setName(n string)         { p.name = n }
func (p *portCore) setConnection(c *Connection) { p.conn = c }

// InputPort is a declared input endpoint. In synchronous mode it holds a
// single replaceable slot; in asynchronous mode it buffers through a
// DataList per the node's configured discipline/bounds.
type InputPort struct {
	portCore
	mu         sync.Mutex
	list       *DataList
	slot       AnyData
	slotValid  bool
}

// NewInputPort creates a disabled-by-default-false (enabled) input with a
// FIFO DataList, matching the source system's default list type.
func newInputPort(node *Node, name string) *InputPort {
	return &InputPort{
		portCore: portCore{name: name, node: node, kind: KindInput, enabled: true},
		list:     NewDataList(FIFO),
	}
}

// SetListType replaces this input's buffering discipline.
func (p *InputPort) SetListType(d ListDiscipline) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.list = NewDataList(d)
}

// SetLimits overrides this input's bounds explicitly.
func (p *InputPort) SetLimits(d DataListDefaults) {
	p.list.SetLimits(d)
}

// Source returns the upstream Output this input is connected to, or nil.
func (p *InputPort) Source() *OutputPort {
	if p.conn == nil {
		return nil
	}
	return p.conn.source
}

// setData implements the push protocol's "Input::setData" half (spec.md
// §4.3). It never blocks; at worst it drops and raises InputBufferFull.
func (p *InputPort) setData(d AnyData) {
	if !p.node.Enabled() || !p.enabled {
		return
	}

	if !p.node.Asynchronous() {
		p.mu.Lock()
		p.slot = d
		p.slotValid = true
		p.mu.Unlock()
		p.node.onDataReceived(p, d)
		p.node.Update(false)
		return
	}

	previousSize := p.list.Push(d)
	currentSize := p.list.Size()
	p.node.onDataReceived(p, d)

	if previousSize != currentSize {
		p.node.Update(false)
	} else if previousSize >= currentSize {
		p.node.setError(NodeError{
			Code:    InputBufferFull,
			Message: fmt.Sprintf("input %q dropped a value: buffer full", p.name),
		})
	}
}

// status mirrors DataList.Status for synchronous single-slot mode, or
// delegates to the DataList in asynchronous mode.
func (p *InputPort) status() int {
	if !p.node.Asynchronous() {
		p.mu.Lock()
		defer p.mu.Unlock()
		if p.slotValid {
			return 1
		}
		return -1
	}
	return p.list.Status()
}

// Data pulls the next buffered value (asynchronous) or the single slot
// (synchronous), falling back to the last-popped probe when empty.
func (p *InputPort) Data() AnyData {
	if !p.node.Asynchronous() {
		p.mu.Lock()
		defer p.mu.Unlock()
		return p.slot
	}
	if d, ok := p.list.Next(); ok {
		return d
	}
	d, _ := p.list.Probe()
	return d
}

// Probe returns the current value without consuming it from the buffer,
// used by ProcessingList and image-transform bookkeeping that need to
// peek at the head input's shape without disturbing FIFO order. In
// asynchronous mode that is the entry Data would pop next, or the
// last-popped value when the buffer is empty.
func (p *InputPort) Probe() AnyData {
	if !p.node.Asynchronous() {
		p.mu.Lock()
		defer p.mu.Unlock()
		return p.slot
	}
	l := p.list
	l.mu.Lock()
	if n := len(l.entries); n > 0 {
		d := l.entries[0]
		if l.discipline == LIFO {
			d = l.entries[n-1]
		}
		l.mu.Unlock()
		return d
	}
	l.mu.Unlock()
	d, _ := l.Probe()
	return d
}

// setSlotOnly replaces the synchronous single-slot value without
// triggering Node.Update, used by ProcessingList to drive its inner
// nodes' input/update steps explicitly and in strict sequence.
func (p *InputPort) setSlotOnly(d AnyData) {
	p.mu.Lock()
	p.slot = d
	p.slotValid = true
	p.mu.Unlock()
}

func (p *InputPort) clearBuffer() {
	p.mu.Lock()
	p.slotValid = false
	p.mu.Unlock()
	p.list.Clear()
}

// OutputPort is a declared output endpoint with a cached last value and an
// optional bounded history ring.
type OutputPort struct {
	portCore
	mu         sync.Mutex
	last       AnyData
	history    []AnyData
	historyCap int
	sinks      []*InputPort
}

func newOutputPort(node *Node, name string) *OutputPort {
	return &OutputPort{
		portCore: portCore{name: name, node: node, kind: KindOutput, enabled: true},
	}
}

// SetHistoryCapacity enables (>0) or disables (0) the recent-values ring.
func (p *OutputPort) SetHistoryCapacity(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.historyCap = n
	if n == 0 {
		p.history = nil
	}
}

// Data returns the most recently set value.
func (p *OutputPort) Data() AnyData {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last
}

// History returns a copy of the recent-values ring, oldest first.
func (p *OutputPort) History() []AnyData {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]AnyData, len(p.history))
	copy(out, p.history)
	return out
}

// SetData caches d and forwards it to every connected Input, implementing
// the push protocol's "Output::setData" half (spec.md §4.3). This call
// runs to completion synchronously on the caller, which is usually the
// producing node's own worker.
func (p *OutputPort) SetData(d AnyData) {
	d = d.SetSourceID(p.node.id)

	p.mu.Lock()
	p.last = d
	if p.historyCap > 0 {
		p.history = append(p.history, d)
		if len(p.history) > p.historyCap {
			p.history = p.history[len(p.history)-p.historyCap:]
		}
	}
	sinks := make([]*InputPort, len(p.sinks))
	copy(sinks, p.sinks)
	p.mu.Unlock()

	p.node.onDataSent(p, d)

	for _, in := range sinks {
		in.setData(d)
	}
}

func (p *OutputPort) addSink(in *InputPort) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, s := range p.sinks {
		if s == in {
			return
		}
	}
	p.sinks = append(p.sinks, in)
}

func (p *OutputPort) removeSink(in *InputPort) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, s := range p.sinks {
		if s == in {
			p.sinks = append(p.sinks[:i], p.sinks[i+1:]...)
			return
		}
	}
}

func (p *OutputPort) clearBufferedData() AnyData {
	p.mu.Lock()
	defer p.mu.Unlock()
	d := p.last
	p.last = AnyData{}
	p.history = nil
	return d
}

// PropertyPort is a cached value with a thread-safe setter; it has no
// buffering discipline, since a property models "current configuration",
// not a stream of samples.
type PropertyPort struct {
	portCore
	mu    sync.Mutex
	value interface{}
}

func newPropertyPort(node *Node, name string) *PropertyPort {
	return &PropertyPort{
		portCore: portCore{name: name, node: node, kind: KindProperty, enabled: true},
	}
}

// Data returns the cached value.
func (p *PropertyPort) Data() interface{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.value
}

// SetData sets the cached value. It never triggers a node update by
// itself; call Node.Reload() if the new value should force a rerun.
func (p *PropertyPort) SetData(v interface{}) {
	p.mu.Lock()
	p.value = v
	p.mu.Unlock()
}
