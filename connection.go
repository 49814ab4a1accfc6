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
	"strings"
)

// OpenMode reports which side of an edge a Connection represents, once
// resolved.
type OpenMode int

const (
	Unknown OpenMode = iota
	OpenInput
	OpenOutput
)

// Address is a parsed connection address of the form
// "class-name:pool-name;node-name;port-name", with pool-name optional (a
// two-part body is pool-relative to the resolving node's own pool).
type Address struct {
	Class string
	Pool  string
	Node  string
	Port  string
}

// String renders the canonical form: pool dropped when empty.
func (a Address) String() string {
	if a.Pool == "" {
		return fmt.Sprintf("%s:%s;%s", a.Class, a.Node, a.Port)
	}
	return fmt.Sprintf("%s:%s;%s;%s", a.Class, a.Pool, a.Node, a.Port)
}

// ParseAddress parses a raw "Class:pool;node;port" or "Class:node;port"
// string. It does not resolve the address against a Pool.
func ParseAddress(raw string) (Address, error) {
	class, body, found := strings.Cut(raw, ":")
	if !found {
		return Address{}, ErrInvalidAddress
	}

	parts := strings.Split(body, ";")
	switch len(parts) {
	case 2:
		return Address{Class: class, Node: parts[0], Port: parts[1]}, nil
	case 3:
		return Address{Class: class, Pool: parts[0], Node: parts[1], Port: parts[2]}, nil
	default:
		return Address{}, ErrInvalidAddress
	}
}

// Connection is one side of a point-to-point edge between an Output and
// one or more Inputs/Properties. It holds the edge's late-bindable address
// and the discovered peer. A resolved Output-side Connection's sink list
// equals the set of Input-side Connections whose source points back to
// it; setupConnection and removeConnection preserve that symmetry by
// editing both sides together.
type Connection struct {
	address Address
	mode    OpenMode

	source *OutputPort
	sink   Port // *InputPort or *PropertyPort
}

// NewConnection creates an unresolved Connection for addr.
func NewConnection(addr Address) *Connection {
	return &Connection{address: addr}
}

// Address returns the connection's current (canonical once resolved)
// address.
func (c *Connection) Address() Address {
	return c.address
}

// Mode reports which side this Connection represents, once resolved.
func (c *Connection) Mode() OpenMode {
	return c.mode
}

// IsOpen reports whether this side has a live peer. A nil Connection (a
// port that was never connected) is not open.
func (c *Connection) IsOpen() bool {
	return c != nil && c.mode != Unknown
}

// setupConnection binds an OutputPort to an InputPort or PropertyPort,
// editing both sides' Connection so the Output's sink list and the
// Input's source agree. It canonicalises both addresses from the
// discovered objects' current names; each address drops the pool name
// when the node it points at is not in a nested (non-root) pool.
func setupConnection(out *OutputPort, sink Port) error {
	if out == nil || sink == nil {
		return ErrWrongPortDirection
	}

	outConn := out.conn
	if outConn == nil {
		outConn = &Connection{}
	}
	outConn.mode = OpenOutput
	outConn.source = out
	outConn.sink = sink
	outConn.address = canonicalAddress(sink)
	out.setConnection(outConn)

	sinkConn := sink.Connection()
	if sinkConn == nil {
		sinkConn = &Connection{}
	}
	sinkConn.mode = OpenInput
	sinkConn.source = out
	sinkConn.sink = sink
	sinkConn.address = canonicalAddress(out)
	sink.setConnection(sinkConn)

	if in, ok := sink.(*InputPort); ok {
		out.addSink(in)
	}

	if n := out.Node(); n != nil {
		n.emit(Event{Kind: ConnectionOpened, Port: out, Mode: OpenOutput, Address: outConn.address})
	}
	if n := sink.Node(); n != nil {
		n.emit(Event{Kind: ConnectionOpened, Port: sink, Mode: OpenInput, Address: sinkConn.address})
	}
	return nil
}

// removeConnection tears down the link between out and sink symmetrically.
func removeConnection(out *OutputPort, sink Port) {
	if out == nil || sink == nil {
		return
	}
	if in, ok := sink.(*InputPort); ok {
		out.removeSink(in)
	}
	out.setConnection(nil)
	sink.setConnection(nil)

	if n := out.Node(); n != nil {
		n.emit(Event{Kind: ConnectionClosed, Port: out})
	}
	if n := sink.Node(); n != nil {
		n.emit(Event{Kind: ConnectionClosed, Port: sink})
	}
}

// canonicalAddress builds the canonical address pointing at p: the pool
// name is included only when p's node belongs to a non-root pool.
func canonicalAddress(p Port) Address {
	n := p.Node()
	if n == nil {
		return Address{}
	}
	addr := Address{Class: n.className, Node: n.name, Port: p.Name()}
	if n.pool != nil && n.pool.parent != nil {
		addr.Pool = n.pool.name
	}
	return addr
}

// resolve looks up addr against p (the Pool that owns the resolving
// node) when addr carries no pool segment, and otherwise against the pool
// p.findPool returns for that segment. On failure it
// returns ErrConnectionNotOpen; the caller is expected to set that on the
// owning node's error ring and leave the Connection's mode Unknown. A
// Connection that fails to resolve is not retried automatically: callers
// must invoke Pool.OpenAllConnections after bulk graph load.
func resolve(p *Pool, addr Address) (node *Node, port Port, err error) {
	target := p
	if addr.Pool != "" {
		target = p.findPool(addr.Pool)
	}
	if target == nil {
		return nil, nil, ErrConnectionNotOpen
	}

	node, ok := target.node(addr.Node)
	if !ok {
		return nil, nil, ErrConnectionNotOpen
	}

	port, ok = node.portByName(addr.Port)
	if !ok {
		return nil, nil, ErrConnectionNotOpen
	}

	return node, port, nil
}
