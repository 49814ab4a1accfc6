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

import "time"

// LoopExecutor is a minimal vipflow.MainExecutor backed by a buffered
// channel: Post enqueues a callback, PumpFor drains and runs queued
// callbacks for up to the given duration. It stands in for a real UI event
// loop in headless contexts (tests, the CLI, a server-rendered dashboard),
// the same role the source system's single "main thread" plays for
// DisplayObject.
type LoopExecutor struct {
	queue chan func()
}

// NewLoopExecutor creates a LoopExecutor with the given queue capacity.
func NewLoopExecutor(capacity int) *LoopExecutor {
	if capacity <= 0 {
		capacity = 256
	}
	return &LoopExecutor{queue: make(chan func(), capacity)}
}

// Post enqueues fn, blocking if the queue is full.
func (e *LoopExecutor) Post(fn func()) {
	e.queue <- fn
}

// PumpFor runs queued callbacks as they arrive until d has elapsed; it
// keeps waiting for new callbacks when the queue is empty.
func (e *LoopExecutor) PumpFor(d time.Duration) {
	deadline := time.Now().Add(d)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return
		}
		select {
		case fn := <-e.queue:
			fn()
		case <-time.After(remaining):
			return
		}
	}
}

// Drain synchronously runs every callback currently queued, blocking
// until the queue is empty, used by tests that don't want to race a
// PumpFor deadline.
func (e *LoopExecutor) Drain() {
	for {
		select {
		case fn := <-e.queue:
			fn()
		default:
			return
		}
	}
}
