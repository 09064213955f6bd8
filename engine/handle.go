/*
 * Copyright 2024 The ChromaGo Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package engine

import (
	"sync"

	"github.com/gofrs/uuid/v5"

	"github.com/chromago/chromago/api/types"
)

// workerHandle is the awaitable result of one pipeline worker slot. Handles
// for slots that never spawn complete with a nil error when the run drains.
type workerHandle struct {
	id   uuid.UUID
	done chan struct{}

	mu   sync.Mutex
	err  error
	once sync.Once
}

var _ types.Handle = (*workerHandle)(nil)

func newWorkerHandle() *workerHandle {
	id, _ := uuid.NewV4()
	return &workerHandle{id: id, done: make(chan struct{})}
}

func (h *workerHandle) Id() uuid.UUID {
	return h.id
}

func (h *workerHandle) Done() <-chan struct{} {
	return h.done
}

func (h *workerHandle) Wait() error {
	<-h.done
	return h.Err()
}

func (h *workerHandle) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

// setErr records the worker's first error; later errors are dropped.
func (h *workerHandle) setErr(err error) {
	if err == nil {
		return
	}
	h.mu.Lock()
	if h.err == nil {
		h.err = err
	}
	h.mu.Unlock()
}

func (h *workerHandle) close() {
	h.once.Do(func() {
		close(h.done)
	})
}

// pointRec is one computed point prior to ordered emission.
type pointRec struct {
	index int
	value float64
}

// orderedEmitter flushes fragment results to a delivery's callback in
// planning order. Workers may finish fragments out of order; completions
// are staged and flushed once contiguous, so one delivery's points always
// arrive in ascending scan-index order without blocking any worker.
type orderedEmitter struct {
	mu      sync.Mutex
	next    int
	aborted bool
	staged  map[int][]pointRec
	onPoint types.OnPointFunc
}

func newOrderedEmitter(onPoint types.OnPointFunc) *orderedEmitter {
	return &orderedEmitter{staged: make(map[int][]pointRec), onPoint: onPoint}
}

// abort drops staged completions and discards everything emitted afterwards.
// Called when a fragment of the delivery failed: its sequence number will
// never arrive, so staged successors could never flush and would otherwise
// be held until the run is dropped. Points already delivered stand.
func (e *orderedEmitter) abort() {
	e.mu.Lock()
	e.aborted = true
	e.staged = nil
	e.mu.Unlock()
}

// emit hands over one finished fragment. Returns the number of points
// flushed to the callback during this call.
func (e *orderedEmitter) emit(seq int, points []pointRec) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.aborted {
		return 0
	}
	e.staged[seq] = points
	flushed := 0
	for {
		batch, ok := e.staged[e.next]
		if !ok {
			break
		}
		delete(e.staged, e.next)
		e.next++
		for _, p := range batch {
			e.onPoint(p.index, p.value)
			flushed++
		}
	}
	return flushed
}
