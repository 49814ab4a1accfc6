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

import "sync"

// innerEntry is one 1-in/1-out stage of a ProcessingList, plus the output
// it last produced (used as the bypass value for stages before the
// rerun-start index, and as the seed carry when a later edit restarts the
// chain mid-way).
type innerEntry struct {
	node   *Node
	output AnyData
	valid  bool
}

// ProcessingList is a Node that is also a container of inner 1-in/1-out
// nodes, run in order as a single in-place chain. It always schedules
// OneInput|NoThread so a push to its outer input traverses synchronously.
// Re-running at position k re-executes nodes k..n-1 only, reusing the
// cached outputs of nodes before k: this lets a parameter edit on an
// inner node rerun just the chain suffix instead of the whole pipeline.
type ProcessingList struct {
	*Node

	mu    sync.Mutex
	inner []*innerEntry

	pendingStart   int
	hasPendingFrom bool
	forwardRunning bool
}

// NewProcessingList creates an empty ProcessingList node.
func NewProcessingList(name string) *ProcessingList {
	pl := &ProcessingList{}
	n := NewNode("ProcessingList", name, nil)
	n.SetSchedule(OneInput | NoThread)
	n.AddInput("input")
	n.AddOutput("output")
	n.processor = pl
	pl.Node = n
	return pl
}

// Append adds inner as the new last stage of the chain. inner must expose
// exactly one input and one output; its own schedule is overridden to
// OneInput|NoThread since the list drives it directly and synchronously.
func (pl *ProcessingList) Append(inner *Node) {
	inner.SetSchedule(OneInput | NoThread)
	inner.OnProcessingDone(pl.innerDone)

	pl.mu.Lock()
	pl.inner = append(pl.inner, &innerEntry{node: inner})
	pl.mu.Unlock()
}

// Len returns the number of inner stages.
func (pl *ProcessingList) Len() int {
	pl.mu.Lock()
	defer pl.mu.Unlock()
	return len(pl.inner)
}

// At returns the i-th inner node.
func (pl *ProcessingList) At(i int) *Node {
	pl.mu.Lock()
	defer pl.mu.Unlock()
	if i < 0 || i >= len(pl.inner) {
		return nil
	}
	return pl.inner[i].node
}

// innerDone is registered on every inner node; it records that this
// stage's output changed out-of-band (a parameter edit, not a push that
// arrived through the outer input) and reloads the list starting from
// that stage's index, so the chain suffix recomputes from the edited
// value instead of the full chain rerunning from the outer input.
//
// Apply also drives each stage through Update(true), which fires this
// same callback as a side effect of the list's own forward run. That
// case must not be mistaken for an out-of-band edit: while forwardRunning
// is set, innerDone is a echo of our own loop and is ignored.
func (pl *ProcessingList) innerDone(inner *Node) {
	pl.mu.Lock()
	if pl.forwardRunning {
		pl.mu.Unlock()
		return
	}

	idx := -1
	for i, e := range pl.inner {
		if e.node == inner {
			idx = i
			break
		}
	}
	if idx < 0 {
		pl.mu.Unlock()
		return
	}
	pl.pendingStart = idx
	pl.hasPendingFrom = true
	pl.mu.Unlock()

	pl.Node.Reload()
}

// Apply runs the chain from the pending restart index (or 0) to the end,
// carrying the timestamp and the union of attributes across stages
// (later attributes win on collision). Disabled inner nodes pass through
// unchanged. An inner node's error stops the chain and propagates.
func (pl *ProcessingList) Apply(n *Node) error {
	pl.mu.Lock()
	start := 0
	if pl.hasPendingFrom {
		start = pl.pendingStart
		pl.hasPendingFrom = false
	}
	stages := make([]*innerEntry, len(pl.inner))
	copy(stages, pl.inner)
	pl.mu.Unlock()

	if len(stages) == 0 {
		n.OutputAt(0).SetData(n.InputAt(0).Data())
		return nil
	}
	if start > len(stages) {
		start = 0
	}

	var carry AnyData
	if start == 0 {
		carry = n.InputAt(0).Data()
	} else if stages[start-1].valid {
		carry = stages[start-1].output
	} else {
		carry = n.InputAt(0).Data()
		start = 0
	}

	// A run starting from 0 recomputes the whole chain, so any restart
	// request queued by a stage's own Update below (see innerDone) is
	// moot: drop it rather than let it misdirect the next outer push.
	if start == 0 {
		pl.mu.Lock()
		pl.hasPendingFrom = false
		pl.mu.Unlock()
	}

	pl.mu.Lock()
	pl.forwardRunning = true
	pl.mu.Unlock()
	defer func() {
		pl.mu.Lock()
		pl.forwardRunning = false
		pl.mu.Unlock()
	}()

	for i := start; i < len(stages); i++ {
		stage := stages[i]

		if !stage.node.Enabled() {
			continue
		}

		stage.node.InputAt(0).setSlotOnly(carry)
		stage.node.Update(true)

		out := stage.node.OutputAt(0).Data()
		if stage.node.errors.hasErrors() {
			return stage.node.errors.last()[len(stage.node.errors.last())-1]
		}

		merged := carry.MergeAttributes(out.Attributes())
		carry = merged.SetData(out.Data()).SetTime(out.Time())

		pl.mu.Lock()
		stage.output = carry
		stage.valid = true
		pl.mu.Unlock()
	}

	n.OutputAt(0).SetData(carry)
	return nil
}
