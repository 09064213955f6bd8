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
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/chromago/chromago/api/types"
	"github.com/chromago/chromago/signal"
)

// DefaultGridResolution is the retention-time grid spacing in minutes used
// by ExtractBatch when the request leaves it unset.
const DefaultGridResolution = 0.005

// ErrAllSourcesFailed is returned by ExtractBatch when no source yielded a
// trace.
var ErrAllSourcesFailed = errors.New("all sources failed")

// BatchTarget is one trace to extract from every source: a selector plus the
// point-value computation.
type BatchTarget struct {
	Selector types.Selector
	Points   []types.PointSpec
	Kind     types.ValueKind
}

// BatchRequest describes a multi-source extraction. All traces share one
// retention-time grid so results from different sources align sample by
// sample.
type BatchRequest struct {
	// TimeRange is the grid extent. Required.
	TimeRange types.TimeRange
	// GridResolution is the grid spacing in minutes; 0 selects
	// DefaultGridResolution.
	GridResolution float64
	Targets        []BatchTarget
}

// BatchResult holds the aligned traces. Traces is indexed [source][target]
// with one intensity per grid point; a failed source has a nil row and its
// error in Errs.
type BatchResult struct {
	Grid   []float64
	Traces [][][]float64
	Errs   []error
}

// Trace returns the aligned intensities for one source/target pair, or nil
// if that source failed.
func (r *BatchResult) Trace(source, target int) []float64 {
	if r.Traces[source] == nil {
		return nil
	}
	return r.Traces[source][target]
}

// ExtractBatch extracts every target from every source in parallel and
// resamples all traces onto a common retention-time grid. Sources that fail
// are skipped with a warning; the call errs only when every source failed.
func ExtractBatch(sources []types.ScanSource, req BatchRequest, opts ...types.Option) (*BatchResult, error) {
	if len(sources) == 0 {
		return nil, types.ErrNoScanSource
	}
	if len(req.Targets) == 0 {
		return nil, ErrNoDeliveries
	}
	resolution := req.GridResolution
	if resolution <= 0 {
		resolution = DefaultGridResolution
	}
	cfg := types.NewConfig(opts...)

	result := &BatchResult{
		Grid:   signal.BuildGrid(req.TimeRange.Start, req.TimeRange.End, resolution),
		Traces: make([][][]float64, len(sources)),
		Errs:   make([]error, len(sources)),
	}

	var g errgroup.Group
	g.SetLimit(cfg.ConsumerThreads)
	for i := range sources {
		i := i
		g.Go(func() error {
			traces, err := extractOne(sources[i], req, result.Grid, cfg)
			if err != nil {
				cfg.Logger.Printf("chromago: source %d skipped: %v", i, err)
				result.Errs[i] = err
				return nil
			}
			result.Traces[i] = traces
			return nil
		})
	}
	_ = g.Wait()

	for _, t := range result.Traces {
		if t != nil {
			return result, nil
		}
	}
	return nil, fmt.Errorf("%w: %v", ErrAllSourcesFailed, result.Errs[0])
}

// traceCollector accumulates one delivery's points into a compressed
// signal. The ordered emitter serializes the callback and delivers ascending
// scan indexes, so appends are race-free and stay monotonic.
type traceCollector struct {
	sig *signal.CompressedSignal
	err error
}

func newTraceCollector() *traceCollector {
	return &traceCollector{sig: signal.NewCompressedSignal(0)}
}

func (c *traceCollector) onPoint(scanIndex int, value float64) {
	if err := c.sig.Append(scanIndex, value); err != nil && c.err == nil {
		c.err = err
	}
}

// extractOne runs all targets against a single source and resamples the raw
// traces onto the shared grid.
func extractOne(source types.ScanSource, req BatchRequest, grid []float64, cfg types.Config) ([][]float64, error) {
	eng, err := NewWithConfig(source, cfg)
	if err != nil {
		return nil, err
	}
	collectors := make([]*traceCollector, len(req.Targets))
	deliveries := make([]types.Delivery, len(req.Targets))
	tr := req.TimeRange
	for i, target := range req.Targets {
		c := newTraceCollector()
		collectors[i] = c
		deliveries[i] = types.Delivery{
			TimeRange: &tr,
			Selector:  target.Selector,
			Points:    target.Points,
			Kind:      target.Kind,
			OnPoint:   c.onPoint,
		}
	}
	handles, err := eng.Generate(deliveries)
	if err != nil {
		return nil, err
	}
	var firstErr error
	for _, h := range handles {
		if err := h.Wait(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if firstErr != nil {
		return nil, firstErr
	}

	traces := make([][]float64, len(req.Targets))
	for i, c := range collectors {
		if c.err != nil {
			return nil, c.err
		}
		n := c.sig.Len()
		rt := make([]float64, n)
		values := make([]float64, n)
		for j := 0; j < n; j++ {
			idx, v := c.sig.Point(j)
			h, err := source.ScanHeader(idx)
			if err != nil {
				return nil, fmt.Errorf("scan %d header: %w", idx, err)
			}
			rt[j] = h.RetentionTime
			values[j] = v
		}
		traces[i] = make([]float64, len(grid))
		signal.Resample(rt, values, grid, traces[i])
	}
	return traces, nil
}
