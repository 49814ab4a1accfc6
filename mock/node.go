// Package mock provides a black-box conformance test harness for
// vipflow.Node-based processors, mirroring the pipeline's convention of
// shipping a single reusable table-driven suite that any implementation
// can run against its own constructor.
package mock

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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	vipflow "github.com/brunotm/vipflow"
)

var feederSeq int64

// EchoProcessor copies InputAt(0) to OutputAt(0), counting how many times
// Apply ran. It is the minimal Processor the TestNode suite drives.
type EchoProcessor struct {
	mu    sync.Mutex
	calls int
}

// Apply implements vipflow.Processor.
func (e *EchoProcessor) Apply(n *vipflow.Node) error {
	e.mu.Lock()
	e.calls++
	e.mu.Unlock()

	in := n.InputAt(0)
	out := n.OutputAt(0)
	if in == nil || out == nil {
		return nil
	}
	out.SetData(in.Data())
	return nil
}

// Calls returns the number of completed Apply invocations.
func (e *EchoProcessor) Calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

// Supplier builds a fresh *vipflow.Node with a distinct name for each
// subtest, wired with one input ("in"), one output ("out"), and the
// given schedule flags.
type Supplier func(name string, schedule vipflow.ScheduleFlag) (*vipflow.Node, *EchoProcessor)

// NewEchoSupplier returns a Supplier constructing a plain EchoProcessor
// node, the default fixture used by TestNode when the caller has no
// custom Processor to verify.
func NewEchoSupplier() Supplier {
	return func(name string, schedule vipflow.ScheduleFlag) (*vipflow.Node, *EchoProcessor) {
		proc := &EchoProcessor{}
		n := vipflow.NewNode("Echo", name, proc)
		n.SetSchedule(schedule)
		n.AddInput("in")
		n.AddOutput("out")
		return n, proc
	}
}

// feed wires a throwaway producer node's output to target's first input
// through a real Pool/Connect round trip, then pushes v through it. Node's
// push protocol (Input.setData) is unexported outside the vipflow package
// by design — tests exercise it the same way any other external producer
// would, by going through a connected Output.
func feed(pool *vipflow.Pool, target *vipflow.Node, v vipflow.AnyData) {
	id := atomic.AddInt64(&feederSeq, 1)
	feeder := vipflow.NewNode("Feeder", fmt.Sprintf("%s-feeder-%d", target.Name(), id), nil)
	out := feeder.AddOutput("out")
	if err := pool.AddNode(feeder.Name(), feeder); err != nil {
		panic(err)
	}

	srcAddr := vipflow.Address{Class: "Feeder", Node: feeder.Name(), Port: "out"}
	dstAddr := vipflow.Address{Class: target.ClassName(), Node: target.Name(), Port: "in"}
	if err := pool.Connect(feeder, srcAddr, dstAddr); err != nil {
		panic(err)
	}
	out.SetData(v)
}

// TestNode runs a conformance suite against any Supplier, covering the
// push/update protocol, the schedule-flag matrix, and Destroy semantics.
// It is meant to be called from a package's own _test.go file, the same
// pattern the pipeline's store tests use for its multiple Store backends.
func TestNode(t *testing.T, supplier Supplier) {
	newPool := func(name string, n *vipflow.Node) *vipflow.Pool {
		pool := vipflow.NewPool(name, nil)
		if err := pool.AddNode(n.Name(), n); err != nil {
			panic(err)
		}
		return pool
	}

	t.Run("synchronous push runs apply before SetData returns", func(t *testing.T) {
		n, proc := supplier("sync-push", vipflow.OneInput|vipflow.NoThread)
		pool := newPool("sync-push-pool", n)
		feed(pool, n, vipflow.NewAnyData("hello"))
		assert.Equal(t, 1, proc.Calls())
		assert.Equal(t, "hello", n.OutputAt(0).Data().Data())
	})

	t.Run("asynchronous push eventually runs apply", func(t *testing.T) {
		n, proc := supplier("async-push", vipflow.OneInput|vipflow.Asynchronous)
		pool := newPool("async-push-pool", n)
		feed(pool, n, vipflow.NewAnyData("hello"))
		n.Wait(false, time.Second)
		assert.Equal(t, 1, proc.Calls())
	})

	t.Run("disabled node ignores update", func(t *testing.T) {
		n, proc := supplier("disabled", vipflow.OneInput|vipflow.NoThread)
		pool := newPool("disabled-pool", n)
		n.SetEnabled(false)
		feed(pool, n, vipflow.NewAnyData("hello"))
		assert.Equal(t, 0, proc.Calls())
	})

	t.Run("accept empty input off skips apply on never-produced input", func(t *testing.T) {
		n, proc := supplier("accept-empty-off", vipflow.OneInput|vipflow.NoThread)
		ok := n.Update(false)
		assert.False(t, ok)
		assert.Equal(t, 0, proc.Calls())
	})

	t.Run("accept empty input on runs despite never-produced input", func(t *testing.T) {
		n, proc := supplier("accept-empty-on", vipflow.OneInput|vipflow.AcceptEmptyInput|vipflow.NoThread)
		ok := n.Update(false)
		assert.True(t, ok)
		assert.Equal(t, 1, proc.Calls())
	})

	t.Run("destroy disables inputs and drains the task pool", func(t *testing.T) {
		n, proc := supplier("destroy", vipflow.OneInput|vipflow.Asynchronous)
		pool := newPool("destroy-pool", n)
		feed(pool, n, vipflow.NewAnyData("hello"))
		n.Destroy()
		assert.False(t, n.InputAt(0).Enabled())
		assert.Equal(t, 1, proc.Calls())
	})

	t.Run("concurrent pushes run apply without deadlock", func(t *testing.T) {
		n, proc := supplier("mutual-exclusion", vipflow.OneInput|vipflow.Asynchronous)
		pool := newPool("mutex-pool", n)
		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				feed(pool, n, vipflow.NewAnyData(i))
			}(i)
		}
		wg.Wait()
		n.Wait(false, 2*time.Second)
		assert.LessOrEqual(t, 1, proc.Calls())
	})
}
