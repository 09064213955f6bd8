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

// Package metrics holds the instrumented counters of the chromatogram
// pipeline. Counters are updated with atomics and safe for concurrent use.
package metrics

import (
	"sync/atomic"
)

// PipelineMetrics counts the work done by one pipeline run.
type PipelineMetrics struct {
	FragmentsPlanned int64 // fragments emitted by the planner
	GroupsEnqueued   int64 // work groups pushed to the bounded queue
	QueueDepthMax    int64 // highest observed pending-queue depth
	WorkersSpawned   int64 // workers started by the scheduler
	ScansProcessed   int64 // scans evaluated against a selector
	ScansMatched     int64 // scans that passed their selector
	PointsEmitted    int64 // points delivered to callbacks
	Failed           int64 // fragments that ended in an error
}

// NewPipelineMetrics creates a new instance of PipelineMetrics.
func NewPipelineMetrics() *PipelineMetrics {
	return &PipelineMetrics{}
}

// AddFragmentsPlanned increases the planned-fragment count.
func (m *PipelineMetrics) AddFragmentsPlanned(n int64) {
	atomic.AddInt64(&m.FragmentsPlanned, n)
}

// IncrementGroupsEnqueued increases the enqueued-group count.
func (m *PipelineMetrics) IncrementGroupsEnqueued() {
	atomic.AddInt64(&m.GroupsEnqueued, 1)
}

// ObserveQueueDepth records a pending-queue depth sample, keeping the max.
func (m *PipelineMetrics) ObserveQueueDepth(depth int64) {
	for {
		cur := atomic.LoadInt64(&m.QueueDepthMax)
		if depth <= cur || atomic.CompareAndSwapInt64(&m.QueueDepthMax, cur, depth) {
			return
		}
	}
}

// IncrementWorkersSpawned increases the spawned-worker count.
func (m *PipelineMetrics) IncrementWorkersSpawned() {
	atomic.AddInt64(&m.WorkersSpawned, 1)
}

// AddScansProcessed increases the processed-scan count.
func (m *PipelineMetrics) AddScansProcessed(n int64) {
	atomic.AddInt64(&m.ScansProcessed, n)
}

// AddScansMatched increases the matched-scan count.
func (m *PipelineMetrics) AddScansMatched(n int64) {
	atomic.AddInt64(&m.ScansMatched, n)
}

// AddPointsEmitted increases the delivered-point count.
func (m *PipelineMetrics) AddPointsEmitted(n int64) {
	atomic.AddInt64(&m.PointsEmitted, n)
}

// IncrementFailed increases the failed-fragment count.
func (m *PipelineMetrics) IncrementFailed() {
	atomic.AddInt64(&m.Failed, 1)
}

// Get returns a copy of the current metrics.
func (m *PipelineMetrics) Get() PipelineMetrics {
	return PipelineMetrics{
		FragmentsPlanned: atomic.LoadInt64(&m.FragmentsPlanned),
		GroupsEnqueued:   atomic.LoadInt64(&m.GroupsEnqueued),
		QueueDepthMax:    atomic.LoadInt64(&m.QueueDepthMax),
		WorkersSpawned:   atomic.LoadInt64(&m.WorkersSpawned),
		ScansProcessed:   atomic.LoadInt64(&m.ScansProcessed),
		ScansMatched:     atomic.LoadInt64(&m.ScansMatched),
		PointsEmitted:    atomic.LoadInt64(&m.PointsEmitted),
		Failed:           atomic.LoadInt64(&m.Failed),
	}
}

// Reset resets all metrics to zero.
func (m *PipelineMetrics) Reset() {
	atomic.StoreInt64(&m.FragmentsPlanned, 0)
	atomic.StoreInt64(&m.GroupsEnqueued, 0)
	atomic.StoreInt64(&m.QueueDepthMax, 0)
	atomic.StoreInt64(&m.WorkersSpawned, 0)
	atomic.StoreInt64(&m.ScansProcessed, 0)
	atomic.StoreInt64(&m.ScansMatched, 0)
	atomic.StoreInt64(&m.PointsEmitted, 0)
	atomic.StoreInt64(&m.Failed, 0)
}
