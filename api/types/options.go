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

// Option is a function type that modifies the Config.
type Option func(*Config)

// WithBatchSize is an option that sets the fragment batch size.
func WithBatchSize(batchSize int) Option {
	return func(c *Config) {
		c.BatchSize = batchSize
	}
}

// WithConsumerThreads is an option that caps the worker pool size.
func WithConsumerThreads(threads int) Option {
	return func(c *Config) {
		c.ConsumerThreads = threads
	}
}

// WithMaxWorkBacklog is an option that bounds the pending work queue.
func WithMaxWorkBacklog(backlog int) Option {
	return func(c *Config) {
		c.MaxWorkBacklog = backlog
	}
}

// WithStrictTimeRange is an option that disables edge widening of delivery
// time ranges.
func WithStrictTimeRange(strict bool) Option {
	return func(c *Config) {
		c.StrictTimeRange = strict
	}
}

// WithReadAhead is an option that enables vectorized prefetching of planned
// scan ranges.
func WithReadAhead(readAhead bool) Option {
	return func(c *Config) {
		c.ReadAhead = readAhead
	}
}

// WithAccuratePrecursors is an option that tightens precursor mass tolerance
// for non-dependent scans.
func WithAccuratePrecursors(accurate bool) Option {
	return func(c *Config) {
		c.AccuratePrecursors = accurate
	}
}

// WithFilterMassPrecision is an option that sets the decimal-digit precision
// of filter masses; -1 derives it from each filter.
func WithFilterMassPrecision(precision int) Option {
	return func(c *Config) {
		c.FilterMassPrecision = precision
	}
}

// WithNarrowMemory is an option that selects the narrow-memory defaults.
func WithNarrowMemory(narrow bool) Option {
	return func(c *Config) {
		c.NarrowMemory = narrow
	}
}

// WithLogger is an option that sets the logger of the Config.
func WithLogger(logger Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithPool is an option that sets the goroutine pool of the Config.
func WithPool(pool Pool) Option {
	return func(c *Config) {
		c.Pool = pool
	}
}
