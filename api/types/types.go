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

// Package types defines the shared data model and caller-facing contracts of
// the ChromaGo chromatogram pipeline: scan headers and sample data, the
// filter-shaped scan descriptor, delivery requests, configuration, and the
// scan-source collaborator interface.
package types

import (
	"github.com/gofrs/uuid/v5"
)

// Configuration is a generic key/value document, used to describe deliveries
// and point specs loaded from external configuration.
type Configuration map[string]interface{}

// Range is a closed mass interval. Ranges order by Low.
type Range struct {
	Low  float64
	High float64
}

// Contains reports whether mass lies inside the closed interval.
func (r Range) Contains(mass float64) bool {
	return mass >= r.Low && mass <= r.High
}

// Width returns High-Low.
func (r Range) Width() float64 {
	return r.High - r.Low
}

// Less orders ranges by their lower bound.
func (r Range) Less(other Range) bool {
	return r.Low < other.Low
}

// TimeRange is a closed retention-time interval in minutes.
type TimeRange struct {
	Start float64
	End   float64
}

// ScanHeader identifies one acquired scan. Index is the zero-based position
// in the run; ScanNumber is the instrument-assigned number (usually Index+1).
// Segment and Event locate the acquisition method entry that produced the
// scan, and key the matched-event cache for fixed events.
type ScanHeader struct {
	Index         int
	ScanNumber    int
	RetentionTime float64
	Segment       int
	Event         int
}

// SampleData holds one scan's decoded peak arrays. Masses is ascending and
// both slices have equal length.
type SampleData struct {
	Masses      []float64
	Intensities []float64
}

// Scan is a fully materialized scan: header, filter-shaped descriptor and
// decoded sample data. Instances are immutable once built by the producer
// and may be read by any worker.
type Scan struct {
	Header     ScanHeader
	Descriptor *ScanDescriptor
	Data       SampleData
}

// ValueKind selects how a point value is computed from the scan peaks that
// fall inside the requested mass ranges.
type ValueKind int

const (
	// ValueSum sums scale*intensity over all ranges (TIC/XIC style).
	ValueSum ValueKind = iota
	// ValueMax takes the maximum scale*intensity over all ranges (base peak style).
	ValueMax
	// ValueMassOfMax returns the mass of the most intense peak instead of
	// its intensity (base-peak mass trace).
	ValueMassOfMax
)

// PointSpec is one (mass range, scale) term of a point-value computation.
type PointSpec struct {
	Range Range   `mapstructure:"range"`
	Scale float64 `mapstructure:"scale"`
}

// Selector decides which scans contribute points to a delivery. At most one
// field may be set; an empty selector accepts every scan.
type Selector struct {
	// FilterText is an instrument filter string, parsed through the scan
	// source (ScanSource.ParseFilter) at Generate time.
	FilterText string `mapstructure:"filter"`
	// Filter is an already-built filter expression. Takes precedence over
	// FilterText.
	Filter *FilterExpression `mapstructure:"-"`
	// CompoundNames selects scans whose descriptor compound name is in the
	// list.
	CompoundNames []string `mapstructure:"compoundNames"`
	// Expr is a boolean expression over descriptor fields, compiled with
	// expr-lang at Generate time, e.g. "msOrder == 2 && polarity == '+'".
	Expr string `mapstructure:"expr"`
	// Script is a JavaScript predicate body receiving the descriptor as
	// `scan`, compiled with goja at Generate time.
	Script string `mapstructure:"script"`
}

// IsEmpty reports whether the selector accepts every scan.
func (s Selector) IsEmpty() bool {
	return s.FilterText == "" && s.Filter == nil && len(s.CompoundNames) == 0 &&
		s.Expr == "" && s.Script == ""
}

// OnPointFunc receives one chromatogram point. scanIndex is the zero-based
// scan index; value is the computed scalar. Callbacks for one delivery are
// invoked in ascending scan-index order.
type OnPointFunc func(scanIndex int, value float64)

// Delivery is one chromatogram request: a retention-time range (nil means
// the whole run), a scan selector, the point-value terms and the callback
// receiving the resulting trace.
type Delivery struct {
	// Id correlates log lines and handles; assigned at Generate time when
	// left unset.
	Id uuid.UUID
	// TimeRange restricts the scans considered. Nil means all scans.
	TimeRange *TimeRange
	// Selector picks the contributing scans.
	Selector Selector
	// Points are the (range, scale) terms. Empty means whole-spectrum.
	Points []PointSpec
	// Kind selects the point-value computation. Defaults to ValueSum.
	Kind ValueKind
	// OnPoint receives each computed point. Required.
	OnPoint OnPointFunc
}

// Handle is the awaitable result of one pipeline worker. Generate returns
// one handle per spawned worker; callers that ignore handles simply let the
// in-flight work run to completion.
type Handle interface {
	// Id identifies the worker.
	Id() uuid.UUID
	// Done is closed when the worker has exited.
	Done() <-chan struct{}
	// Wait blocks until the worker exits and returns its first error.
	Wait() error
	// Err returns the worker's first error without blocking, or nil while
	// the worker is still running.
	Err() error
}

// Pool is the interface for a goroutine pool used to run pipeline workers.
// If not configured, plain `go func` is used. The default implementation is
// pool.WorkerPool.
type Pool interface {
	// Submit schedules a task on the pool.
	Submit(task func()) error
	// Release shuts the pool down.
	Release()
}
