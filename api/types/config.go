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

package types

import (
	"runtime"
)

// Default sizing for the pipeline. Narrow-memory targets use the small
// values; everything else the wide ones.
const (
	DefaultBatchSizeNarrow = 200
	DefaultBatchSizeWide   = 800
	DefaultBacklogNarrow   = 5
	DefaultBacklogWide     = 20
	MinConsumerThreads     = 2
)

// Config holds the pipeline configuration. Zero values are replaced with
// the stated defaults by NewConfig / Normalize.
type Config struct {
	// BatchSize is the number of scans per planned fragment. Defaults to
	// 200 on narrow-memory targets and 800 otherwise.
	BatchSize int
	// ConsumerThreads caps the worker pool. Defaults to the logical core
	// count with a floor of 2.
	ConsumerThreads int
	// MaxWorkBacklog bounds the work queue; the producer blocks on enqueue
	// once it is reached. Defaults to 5 narrow / 20 wide.
	MaxWorkBacklog int
	// StrictTimeRange disables widening a delivery's scan range by one
	// point outside each edge. Default false.
	StrictTimeRange bool
	// ReadAhead enables vectorized prefetching of planned scan ranges when
	// the source implements BulkScanSource. Default false.
	ReadAhead bool
	// AccuratePrecursors tightens mass tolerance for non-dependent scans.
	AccuratePrecursors bool
	// FilterMassPrecision is the decimal-digit precision of filter masses:
	// 0 compares integer masses, -1 derives the precision from each filter.
	// NewConfig defaults to -1; a zero-value Config literal therefore
	// requests integer precision, not the derived default.
	FilterMassPrecision int
	// NarrowMemory selects the narrow defaults for BatchSize and
	// MaxWorkBacklog.
	NarrowMemory bool
	// Logger is the logging interface, defaulting to DefaultLogger().
	Logger Logger
	// Pool is an optional goroutine pool for pipeline workers. If nil,
	// plain `go func` is used.
	Pool Pool
}

// NewConfig creates a new Config with defaults applied, then runs the
// options.
func NewConfig(opts ...Option) Config {
	c := Config{
		FilterMassPrecision: -1,
		Logger:              DefaultLogger(),
	}
	for _, opt := range opts {
		opt(&c)
	}
	c.Normalize()
	return c
}

// Normalize fills unset fields with their defaults.
func (c *Config) Normalize() {
	if c.BatchSize <= 0 {
		if c.NarrowMemory {
			c.BatchSize = DefaultBatchSizeNarrow
		} else {
			c.BatchSize = DefaultBatchSizeWide
		}
	}
	if c.MaxWorkBacklog <= 0 {
		if c.NarrowMemory {
			c.MaxWorkBacklog = DefaultBacklogNarrow
		} else {
			c.MaxWorkBacklog = DefaultBacklogWide
		}
	}
	if c.ConsumerThreads <= 0 {
		c.ConsumerThreads = runtime.NumCPU()
	}
	if c.ConsumerThreads < MinConsumerThreads {
		c.ConsumerThreads = MinConsumerThreads
	}
	if c.Logger == nil {
		c.Logger = DefaultLogger()
	}
}
