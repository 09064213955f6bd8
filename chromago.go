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

// Package chromago generates chromatograms from mass-spectrometry scan data.
//
// # Usage
//
// Create an engine over a scan source and submit deliveries. Each delivery
// names the scans it wants (a filter string, compound names or a script)
// and how to reduce each matching scan to a single intensity.
//
// Create Engine Instance
//
//	eng, err := chromago.New("run01", source)
//
// Define A Delivery
//
//	delivery := types.Delivery{
//		Selector: types.Selector{FilterText: "FTMS + c NSI Full ms2 524.2648@hcd28.00 [100.0000-1060.0000]"},
//		Points:   []types.PointSpec{{Range: types.Range{Low: 262.6356, High: 262.6456}}},
//		Kind:     types.ValueSum,
//		OnPoint: func(scanIndex int, value float64) {
//			// consume one chromatogram point
//		},
//	}
//
// Generate And Await
//
//	handles, err := eng.Generate([]types.Delivery{delivery})
//	for _, h := range handles {
//		if err := h.Wait(); err != nil {
//			// handle worker error
//		}
//	}
//
// Get Engine Instance
//
//	eng, ok := chromago.Get("run01")
package chromago

import (
	"sync"

	"github.com/chromago/chromago/api/types"
	"github.com/chromago/chromago/engine"
	"github.com/chromago/chromago/utils/json"
	"github.com/chromago/chromago/utils/maps"
)

// Engine is the chromatogram generation engine.
type Engine = engine.Engine

var DefaultChromaGo = &ChromaGo{}

// ChromaGo is a pool of engine instances keyed by id, one per open scan
// source.
type ChromaGo struct {
	engines sync.Map
}

// New creates an engine over the given scan source and stores it in the
// pool under id. An existing engine with the same id is returned unchanged,
// including when two New calls race on the same id.
func (g *ChromaGo) New(id string, source types.ScanSource, opts ...types.Option) (*Engine, error) {
	if v, ok := g.engines.Load(id); ok {
		return v.(*Engine), nil
	}
	eng, err := engine.New(source, opts...)
	if err != nil {
		return nil, err
	}
	if id != "" {
		if v, loaded := g.engines.LoadOrStore(id, eng); loaded {
			return v.(*Engine), nil
		}
	}
	return eng, nil
}

// Get returns the engine stored under id.
func (g *ChromaGo) Get(id string) (*Engine, bool) {
	v, ok := g.engines.Load(id)
	if ok {
		return v.(*Engine), ok
	}
	return nil, false
}

// Del removes the engine stored under id.
func (g *ChromaGo) Del(id string) {
	g.engines.Delete(id)
}

// Range iterates over all pooled engines.
func (g *ChromaGo) Range(f func(id string, eng *Engine) bool) {
	g.engines.Range(func(key, value any) bool {
		return f(key.(string), value.(*Engine))
	})
}

// New creates an engine and stores it in the default pool.
func New(id string, source types.ScanSource, opts ...types.Option) (*Engine, error) {
	return DefaultChromaGo.New(id, source, opts...)
}

// Get returns the engine stored under id in the default pool.
func Get(id string) (*Engine, bool) {
	return DefaultChromaGo.Get(id)
}

// Del removes the engine stored under id from the default pool.
func Del(id string) {
	DefaultChromaGo.Del(id)
}

// GenerateFromJSON decodes a JSON array of delivery descriptions and submits
// them to the engine. Every delivery reports its points through the shared
// onPoint callback; the callback additionally receives the delivery's
// position in the array.
func GenerateFromJSON(eng *Engine, src []byte, onPoint func(delivery int, scanIndex int, value float64)) ([]types.Handle, error) {
	var raw []types.Configuration
	if err := json.Unmarshal(src, &raw); err != nil {
		return nil, err
	}
	deliveries := make([]types.Delivery, len(raw))
	for i, cfg := range raw {
		i := i
		d, err := maps.DecodeDelivery(cfg, func(scanIndex int, value float64) {
			onPoint(i, scanIndex, value)
		})
		if err != nil {
			return nil, err
		}
		deliveries[i] = d
	}
	return eng.Generate(deliveries)
}
