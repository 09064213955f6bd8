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
	"sync/atomic"
	"time"

	"github.com/chromago/chromago/api/types"
	"github.com/chromago/chromago/api/types/metrics"
)

// State is the scheduler lifecycle state.
type State int32

const (
	StateIdle State = iota
	StateScheduling
	StateDraining
	StateCompleted
)

func (s State) String() string {
	switch s {
	case StateScheduling:
		return "scheduling"
	case StateDraining:
		return "draining"
	case StateCompleted:
		return "completed"
	default:
		return "idle"
	}
}

const (
	// workerShortPoll is the blocking-dequeue interval used when more than
	// two workers are active.
	workerShortPoll = 2 * time.Millisecond
	// workerMaxTrips forces an exit check after this many empty short
	// polls, preventing indefinite spin during drain.
	workerMaxTrips = 8
	// workerBaseBackoff seeds the escalating idle sleep.
	workerBaseBackoff = time.Millisecond
	// workerBusyBackoffMax caps idle sleep while the producer is adding.
	workerBusyBackoffMax = 8 * time.Millisecond
	// workerDrainBackoffMax caps idle sleep once the producer finished.
	workerDrainBackoffMax = 50 * time.Millisecond
)

// workGroup is the unit handed to a worker: consecutive overlapping
// fragments plus the materialized scans covering their union. Immutable
// once enqueued.
type workGroup struct {
	fragments  []*fragment
	start      int // first fragment's start
	plannedEnd int // start + batchSize/2; grouping horizon
	end        int // max fragment end
	finals     int
	scanStart  int
	scans      []types.Scan
	err        error // producer-side decode failure, surfaced on the worker
}

// batchScheduler runs the producer/consumer pipeline: a single producer
// groups fragments, materializes their scans through the window and feeds a
// bounded queue; an adaptive worker pool drains it.
type batchScheduler struct {
	cfg    types.Config
	window *scanWindow
	met    *metrics.PipelineMetrics
	log    types.Logger
	pool   types.Pool

	queue          chan *workGroup
	handles        []*workerHandle
	nextSlot       int32
	activeWorkers  int32
	state          int32
	producerDone   chan struct{}
	workers        sync.WaitGroup
	finalThreshold int
}

func newBatchScheduler(window *scanWindow, cfg types.Config, met *metrics.PipelineMetrics, totalFinals int) *batchScheduler {
	threshold := totalFinals / cfg.ConsumerThreads
	if threshold < 1 {
		threshold = 1
	}
	s := &batchScheduler{
		cfg:            cfg,
		window:         window,
		met:            met,
		log:            cfg.Logger,
		pool:           cfg.Pool,
		queue:          make(chan *workGroup, cfg.MaxWorkBacklog),
		producerDone:   make(chan struct{}),
		finalThreshold: threshold,
	}
	s.handles = make([]*workerHandle, cfg.ConsumerThreads)
	for i := range s.handles {
		s.handles[i] = newWorkerHandle()
	}
	return s
}

// State returns the scheduler lifecycle state.
func (s *batchScheduler) State() State {
	return State(atomic.LoadInt32(&s.state))
}

// run queues all fragments for processing and returns immediately with the
// worker handles; callers await them explicitly.
func (s *batchScheduler) run(fragments []*fragment) []types.Handle {
	atomic.StoreInt32(&s.state, int32(StateScheduling))
	for _, f := range fragments {
		s.window.Plan(f.start, f.end)
	}
	// Two workers up front; further spawns only under sustained backlog.
	s.spawnWorker()
	s.spawnWorker()
	go s.produce(fragments)

	out := make([]types.Handle, len(s.handles))
	for i, h := range s.handles {
		out[i] = h
	}
	return out
}

// produce is the single-threaded planning/production path. It owns the scan
// window and the source; workers only ever receive materialized groups.
func (s *batchScheduler) produce(fragments []*fragment) {
	var group *workGroup
	flush := func() {
		if group == nil {
			return
		}
		s.enqueue(group)
		group = nil
	}
	for _, f := range fragments {
		if group != nil && f.start > group.plannedEnd {
			flush()
		}
		if group == nil {
			group = &workGroup{
				start:      f.start,
				plannedEnd: f.start + s.cfg.BatchSize/2,
				end:        f.end,
			}
		}
		group.fragments = append(group.fragments, f)
		if f.end > group.end {
			group.end = f.end
		}
		if f.isFinal {
			group.finals++
		}
		// Early flush balances parallelism against batch efficiency.
		if group.finals >= s.finalThreshold {
			flush()
		}
	}
	flush()

	atomic.StoreInt32(&s.state, int32(StateDraining))
	close(s.producerDone)

	s.workers.Wait()
	atomic.StoreInt32(&s.state, int32(StateCompleted))
	for _, h := range s.handles {
		h.close()
	}
}

// enqueue materializes the group's scans and pushes it onto the bounded
// queue. The send blocks once maxWorkBacklog groups are pending: this is the
// pipeline's backpressure, throttling how far scan reading runs ahead of
// scan processing.
func (s *batchScheduler) enqueue(g *workGroup) {
	scans, err := s.window.Slice(g.start, g.end)
	if err != nil {
		g.err = err
	} else {
		g.scanStart = g.start
		g.scans = scans
	}
	s.queue <- g
	s.met.IncrementGroupsEnqueued()
	s.met.ObserveQueueDepth(int64(len(s.queue)))
	s.trySpawn()
}

// trySpawn starts one more worker when below the floor of two, or when the
// queue shows sustained backlog and the pool is below consumerThreads.
// Never pre-emptive.
func (s *batchScheduler) trySpawn() {
	active := int(atomic.LoadInt32(&s.activeWorkers))
	if active >= s.cfg.ConsumerThreads {
		return
	}
	if active < 2 || len(s.queue) > 1 {
		s.spawnWorker()
	}
}

func (s *batchScheduler) spawnWorker() {
	slot := int(atomic.AddInt32(&s.nextSlot, 1)) - 1
	if slot >= len(s.handles) {
		return
	}
	h := s.handles[slot]
	atomic.AddInt32(&s.activeWorkers, 1)
	s.met.IncrementWorkersSpawned()
	s.workers.Add(1)
	task := func() {
		defer s.workers.Done()
		defer atomic.AddInt32(&s.activeWorkers, -1)
		defer h.close()
		s.workerLoop(h)
	}
	if s.pool != nil {
		if err := s.pool.Submit(task); err == nil {
			return
		}
		s.log.Printf("chromago: pool submit failed, falling back to goroutine")
	}
	go task()
}

// drained reports producer completion with an empty queue.
func (s *batchScheduler) drained() bool {
	select {
	case <-s.producerDone:
		return len(s.queue) == 0
	default:
		return false
	}
}

// workerLoop drains the queue. The dequeue strategy follows the pool size:
// with more than two active workers a short blocking dequeue with a trip
// counter keeps latency low without spinning through the drain; otherwise
// an escalating sleep backs off, shorter while the producer is still
// adding and longer once it signaled completion.
func (s *batchScheduler) workerLoop(h *workerHandle) {
	backoff := workerBaseBackoff
	trips := 0
	for {
		select {
		case g := <-s.queue:
			s.process(g, h)
			backoff = workerBaseBackoff
			trips = 0
			continue
		default:
		}
		if s.drained() {
			return
		}
		if atomic.LoadInt32(&s.activeWorkers) > 2 {
			select {
			case g := <-s.queue:
				s.process(g, h)
				backoff = workerBaseBackoff
				trips = 0
			case <-time.After(workerShortPoll):
				trips++
				if trips >= workerMaxTrips {
					trips = 0
					if s.drained() {
						return
					}
				}
			}
			continue
		}
		limit := workerBusyBackoffMax
		select {
		case <-s.producerDone:
			limit = workerDrainBackoffMax
		default:
		}
		time.Sleep(backoff)
		backoff *= 2
		if backoff > limit {
			backoff = limit
		}
	}
}

// process runs one group: per fragment, selector then point-value
// computation per scan, then ordered emission. A failure surfaces only on
// this worker's handle; siblings and other fragments are unaffected.
func (s *batchScheduler) process(g *workGroup, h *workerHandle) {
	if g.err != nil {
		h.setErr(g.err)
		s.met.IncrementFailed()
		// These fragments never reach their emitters, so later completions
		// for the same deliveries can never flush. Abort the emitters so
		// staged points are dropped instead of held for the rest of the run.
		for _, frag := range g.fragments {
			frag.delivery.emitter.abort()
		}
		return
	}
	for _, frag := range g.fragments {
		points := make([]pointRec, 0, frag.end-frag.start)
		for idx := frag.start; idx < frag.end; idx++ {
			scan := g.scans[idx-g.scanStart]
			s.met.AddScansProcessed(1)
			if frag.delivery.predicate != nil &&
				!frag.delivery.predicate(scan.Header, scan.Descriptor) {
				continue
			}
			s.met.AddScansMatched(1)
			points = append(points, pointRec{
				index: idx,
				value: frag.delivery.compute(scan.Data),
			})
		}
		flushed := frag.delivery.emitter.emit(frag.seq, points)
		s.met.AddPointsEmitted(int64(flushed))
	}
}
