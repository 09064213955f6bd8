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

	"github.com/gofrs/uuid/v5"

	"github.com/chromago/chromago/api/types"
	"github.com/chromago/chromago/api/types/metrics"
	"github.com/chromago/chromago/filter"
	"github.com/chromago/chromago/signal"
)

var (
	// ErrNoDeliveries is returned by Generate for an empty delivery list.
	ErrNoDeliveries = errors.New("no deliveries given")
	// ErrNilOnPoint is returned by Generate when a delivery has no point
	// callback.
	ErrNilOnPoint = errors.New("delivery has no OnPoint callback")
)

// deliveryState is one delivery with its compiled predicate, point-value
// computer and ordered emitter. Built single-threaded at Generate time,
// immutable afterwards.
type deliveryState struct {
	spec      types.Delivery
	predicate filter.Predicate
	compute   signal.Computer
	emitter   *orderedEmitter
}

// Engine generates chromatograms from a scan source. One engine serves many
// Generate calls; each call runs its own producer and worker pool.
type Engine struct {
	cfg     types.Config
	source  types.ScanSource
	matcher *filter.Matcher
	met     *metrics.PipelineMetrics
}

// New creates an engine over the given scan source. The source is injected
// once here; there is no runtime lookup.
func New(source types.ScanSource, opts ...types.Option) (*Engine, error) {
	if source == nil {
		return nil, types.ErrNoScanSource
	}
	return NewWithConfig(source, types.NewConfig(opts...))
}

// NewWithConfig creates an engine from an already-built configuration.
func NewWithConfig(source types.ScanSource, cfg types.Config) (*Engine, error) {
	if source == nil {
		return nil, types.ErrNoScanSource
	}
	cfg.Normalize()
	return &Engine{
		cfg:     cfg,
		source:  source,
		matcher: filter.NewMatcherFromConfig(cfg),
		met:     metrics.NewPipelineMetrics(),
	}, nil
}

// Config returns the engine configuration.
func (e *Engine) Config() types.Config {
	return e.cfg
}

// Matcher returns the engine's filter matcher, shared caches included.
func (e *Engine) Matcher() *filter.Matcher {
	return e.matcher
}

// Metrics returns a snapshot of the pipeline counters.
func (e *Engine) Metrics() metrics.PipelineMetrics {
	return e.met.Get()
}

// Source returns the scan source the engine reads from.
func (e *Engine) Source() types.ScanSource {
	return e.source
}

// Generate queues all deliveries and returns immediately with awaitable
// handles, one per worker slot; it does not block until the work completes.
// Argument validation (empty delivery list, missing callbacks, malformed
// filter text) fails synchronously here before any worker starts. Errors
// during processing surface only through the owning worker's handle.
func (e *Engine) Generate(deliveries []types.Delivery) ([]types.Handle, error) {
	if len(deliveries) == 0 {
		return nil, ErrNoDeliveries
	}
	states := make([]*deliveryState, len(deliveries))
	for i := range deliveries {
		d := deliveries[i]
		if d.OnPoint == nil {
			return nil, fmt.Errorf("delivery %d: %w", i, ErrNilOnPoint)
		}
		if d.Id == uuid.Nil {
			d.Id, _ = uuid.NewV4()
		}
		predicate, err := e.compileSelector(d.Selector)
		if err != nil {
			return nil, fmt.Errorf("delivery %d (%s): %w", i, d.Id, err)
		}
		states[i] = &deliveryState{
			spec:      d,
			predicate: predicate,
			compute:   signal.NewComputer(d.Kind, d.Points),
			emitter:   newOrderedEmitter(d.OnPoint),
		}
	}

	fragments, err := planFragments(e.source, states, e.cfg)
	if err != nil {
		return nil, err
	}
	e.met.AddFragmentsPlanned(int64(len(fragments)))

	window := newScanWindow(e.source, e.cfg)
	scheduler := newBatchScheduler(window, e.cfg, e.met, len(deliveries))
	return scheduler.run(fragments), nil
}

// compileSelector turns a delivery selector into a predicate. A nil
// predicate matches every scan.
func (e *Engine) compileSelector(sel types.Selector) (filter.Predicate, error) {
	switch {
	case sel.Filter != nil:
		return filter.NewFilterPredicate(e.matcher, sel.Filter), nil
	case sel.FilterText != "":
		f, err := e.source.ParseFilter(sel.FilterText)
		if err != nil {
			return nil, err
		}
		return filter.NewFilterPredicate(e.matcher, f), nil
	case len(sel.CompoundNames) > 0:
		return filter.NewNamePredicate(sel.CompoundNames), nil
	case sel.Expr != "":
		return filter.NewExprPredicate(sel.Expr)
	case sel.Script != "":
		return filter.NewJsPredicate(sel.Script)
	default:
		return nil, nil
	}
}
