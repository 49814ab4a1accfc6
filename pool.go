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
	"sort"
	"strings"
	"sync"
)

// pendingConnection is a Connect() call that failed to resolve at the
// time it was made; Pool.OpenAllConnections retries it once, typically
// after a bulk graph load has finished registering every node.
type pendingConnection struct {
	owner  *Node
	source Address
	sink   Address
}

// Pool is a named container of Nodes and, recursively, of child Pools. It
// is the graph: node registry, connection bookkeeping, and the unit a
// ManagerRegistry diagnostics surface or an Archive serializes.
type Pool struct {
	name   string
	parent *Pool

	mu       sync.RWMutex
	nodes    map[string]*Node
	children map[string]*Pool

	pending []pendingConnection

	started bool
}

// NewPool creates a Pool named name, optionally nested under parent.
func NewPool(name string, parent *Pool) *Pool {
	p := &Pool{
		name:     name,
		parent:   parent,
		nodes:    make(map[string]*Node),
		children: make(map[string]*Pool),
	}
	if parent != nil {
		parent.mu.Lock()
		parent.children[name] = p
		parent.mu.Unlock()
	}
	return p
}

func (p *Pool) Name() string { return p.name }

// AddNode registers n under name, binding n to this pool. Returns
// ErrDuplicateName if the name is already taken.
func (p *Pool) AddNode(name string, n *Node) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, exists := p.nodes[name]; exists {
		return ErrDuplicateName
	}
	n.name = name
	n.pool = p
	p.nodes[name] = n
	return nil
}

// RemoveNode destroys and unregisters the named node.
func (p *Pool) RemoveNode(name string) {
	p.mu.Lock()
	n, ok := p.nodes[name]
	if ok {
		delete(p.nodes, name)
	}
	p.mu.Unlock()

	if ok {
		n.Destroy()
	}
}

// Node looks up a node registered directly on this pool by name.
func (p *Pool) Node(name string) (*Node, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	n, ok := p.nodes[name]
	return n, ok
}

func (p *Pool) node(name string) (*Node, bool) { return p.Node(name) }

// Nodes returns every node registered directly on this pool, sorted by
// name for deterministic iteration (diagnostics, DOT export).
func (p *Pool) Nodes() []*Node {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]*Node, 0, len(p.nodes))
	for _, n := range p.nodes {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}

// findPool resolves a pool by name: itself, a direct child, or — failing
// that — the root pool itself or one of the root's direct children;
// deeper descendants are not searched. A nested connection address with no
// pool segment always resolves relative to the node's own pool, handled
// by the caller passing that pool in directly rather than through this
// lookup.
func (p *Pool) findPool(name string) *Pool {
	if p.name == name {
		return p
	}
	p.mu.RLock()
	child, ok := p.children[name]
	p.mu.RUnlock()
	if ok {
		return child
	}
	root := p.root()
	if root != p {
		return root.findPool(name)
	}
	return nil
}

func (p *Pool) root() *Pool {
	r := p
	for r.parent != nil {
		r = r.parent
	}
	return r
}

// Connect resolves srcAddr (must name an Output) and dstAddr (must name
// an Input or Property) against this pool and, on success, wires them
// symmetrically via setupConnection. owner is the node charged with the
// ConnectionNotOpen error should resolution fail; failed connections are
// queued for a later retry via OpenAllConnections and are not retried
// automatically otherwise.
func (p *Pool) Connect(owner *Node, srcAddr, dstAddr Address) error {
	if err := p.tryConnect(srcAddr, dstAddr); err != nil {
		owner.setError(NodeError{Code: ConnectionNotOpen, Message: fmt.Sprintf("%s -> %s: %v", srcAddr, dstAddr, err)})
		p.mu.Lock()
		p.pending = append(p.pending, pendingConnection{owner: owner, source: srcAddr, sink: dstAddr})
		p.mu.Unlock()
		return err
	}
	return nil
}

func (p *Pool) tryConnect(srcAddr, dstAddr Address) error {
	_, srcPort, err := resolve(p, srcAddr)
	if err != nil {
		return err
	}
	out, ok := srcPort.(*OutputPort)
	if !ok {
		return ErrWrongPortDirection
	}

	_, dstPort, err := resolve(p, dstAddr)
	if err != nil {
		return err
	}
	switch dstPort.(type) {
	case *InputPort, *PropertyPort:
	default:
		return ErrWrongPortDirection
	}

	return setupConnection(out, dstPort)
}

// OpenAllConnections retries every connection that failed to resolve when
// first requested. Called once after a bulk graph load (deserialization,
// or scripted topology construction) has finished registering nodes, so
// forward references resolve. Connections that still fail remain pending
// and their owner's error ring keeps the latest failure.
func (p *Pool) OpenAllConnections() error {
	p.mu.Lock()
	pending := p.pending
	p.pending = nil
	p.mu.Unlock()

	var firstErr error
	var stillPending []pendingConnection
	for _, c := range pending {
		if err := p.tryConnect(c.source, c.sink); err != nil {
			c.owner.setError(NodeError{Code: ConnectionNotOpen, Message: fmt.Sprintf("%s -> %s: %v", c.source, c.sink, err)})
			stillPending = append(stillPending, c)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
	}

	p.mu.Lock()
	p.pending = append(p.pending, stillPending...)
	p.mu.Unlock()

	return firstErr
}

// Start seals the process-wide ManagerRegistry's node-type registry
// (no further RegisterNodeType calls are accepted) and marks this pool
// as running.
func (p *Pool) Start() {
	p.mu.Lock()
	p.started = true
	p.mu.Unlock()
	Manager().Seal()
}

// DOT renders this pool's node/connection graph in Graphviz dot format,
// the same representation the diagnostics /graph route serves.
func (p *Pool) DOT() string {
	var b strings.Builder
	fmt.Fprintf(&b, "digraph %q {\n", p.name)
	for _, n := range p.Nodes() {
		fmt.Fprintf(&b, "  %q [shape=box];\n", n.Name())
	}
	for _, n := range p.Nodes() {
		for _, out := range n.Outputs() {
			for _, sink := range out.sinks {
				fmt.Fprintf(&b, "  %q -> %q [label=%q];\n", n.Name(), sink.Node().Name(), out.Name()+"->"+sink.Name())
			}
		}
	}
	b.WriteString("}\n")
	return b.String()
}
