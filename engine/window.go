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

// Package engine implements the chromatogram generation pipeline: fragment
// planning, the buffered scan window and the adaptive batch scheduler that
// runs the filter engine and point-value computation over scan streams.
package engine

import (
	"fmt"

	"github.com/chromago/chromago/api/types"
)

// indexRange is a half-open scan-index interval [start, end).
type indexRange struct {
	start int
	end   int
}

// scanWindow is a bounded, index-addressable cache over the scan source.
// It is owned by the single producer goroutine; workers only ever see
// materialized slices and never touch the window or the source.
type scanWindow struct {
	source    types.ScanSource
	bulk      types.BulkScanSource // nil unless read-ahead is usable
	lookahead int                  // batchSize/2
	cache     map[int]types.Scan
	planned   []indexRange
	log       types.Logger
}

func newScanWindow(source types.ScanSource, cfg types.Config) *scanWindow {
	w := &scanWindow{
		source:    source,
		lookahead: cfg.BatchSize / 2,
		cache:     make(map[int]types.Scan),
		log:       cfg.Logger,
	}
	if cfg.ReadAhead {
		if bulk, ok := source.(types.BulkScanSource); ok {
			w.bulk = bulk
		}
	}
	return w
}

// Plan marks a scan-index range as needed soon, enabling prefetch on the
// next Slice when the source supports bulk reads.
func (w *scanWindow) Plan(start, end int) {
	if end <= start {
		return
	}
	w.planned = append(w.planned, indexRange{start: start, end: end})
}

// Slice returns materialized scans covering [start, end), decoding missing
// entries on demand and evicting entries outside the lookahead window to
// bound memory.
func (w *scanWindow) Slice(start, end int) ([]types.Scan, error) {
	if end <= start {
		return nil, nil
	}

	missing := w.missingIn(start, end)
	if w.bulk != nil && len(missing) > 0 {
		// Extend the fetch through planned ranges inside the lookahead.
		fetchEnd := w.prefetchEnd(end)
		missing = w.missingIn(start, fetchEnd)
		if err := w.materializeBulk(missing); err != nil {
			return nil, err
		}
	} else {
		for _, idx := range missing {
			if err := w.materializeOne(idx); err != nil {
				return nil, err
			}
		}
	}

	scans := make([]types.Scan, end-start)
	for idx := start; idx < end; idx++ {
		scan, ok := w.cache[idx]
		if !ok {
			return nil, fmt.Errorf("scan %d not materialized", idx)
		}
		scans[idx-start] = scan
	}

	w.evict(start, end)
	return scans, nil
}

// missingIn lists the not-yet-cached indexes of [start, end).
func (w *scanWindow) missingIn(start, end int) []int {
	var missing []int
	for idx := start; idx < end; idx++ {
		if _, ok := w.cache[idx]; !ok {
			missing = append(missing, idx)
		}
	}
	return missing
}

// prefetchEnd extends end through planned ranges that begin inside the
// lookahead window.
func (w *scanWindow) prefetchEnd(end int) int {
	limit := end + w.lookahead
	fetchEnd := end
	for _, r := range w.planned {
		if r.start < limit && r.end > fetchEnd {
			fetchEnd = r.end
			if fetchEnd > limit {
				fetchEnd = limit
			}
		}
	}
	return fetchEnd
}

func (w *scanWindow) materializeOne(idx int) error {
	header, err := w.source.ScanHeader(idx)
	if err != nil {
		return fmt.Errorf("scan %d header: %w", idx, err)
	}
	descriptor, err := w.source.DescriptorForScan(header)
	if err != nil {
		return fmt.Errorf("scan %d descriptor: %w", idx, err)
	}
	data, err := w.source.ReadScan(header)
	if err != nil {
		return fmt.Errorf("scan %d read: %w", idx, err)
	}
	w.cache[idx] = types.Scan{Header: header, Descriptor: descriptor, Data: data}
	return nil
}

func (w *scanWindow) materializeBulk(indexes []int) error {
	if len(indexes) == 0 {
		return nil
	}
	headers := make([]types.ScanHeader, len(indexes))
	for i, idx := range indexes {
		h, err := w.source.ScanHeader(idx)
		if err != nil {
			return fmt.Errorf("scan %d header: %w", idx, err)
		}
		headers[i] = h
	}
	samples, err := w.bulk.ReadScans(headers)
	if err != nil {
		return fmt.Errorf("bulk read %d scans: %w", len(headers), err)
	}
	if len(samples) != len(headers) {
		return fmt.Errorf("bulk read returned %d of %d scans", len(samples), len(headers))
	}
	for i, h := range headers {
		descriptor, err := w.source.DescriptorForScan(h)
		if err != nil {
			return fmt.Errorf("scan %d descriptor: %w", h.Index, err)
		}
		w.cache[h.Index] = types.Scan{Header: h, Descriptor: descriptor, Data: samples[i]}
	}
	return nil
}

// evict drops cache entries behind the slice and beyond the lookahead, and
// forgets planned ranges that are now fully behind.
func (w *scanWindow) evict(start, end int) {
	limit := end + w.lookahead
	for idx := range w.cache {
		if idx < start || idx >= limit {
			delete(w.cache, idx)
		}
	}
	kept := w.planned[:0]
	for _, r := range w.planned {
		if r.end > start {
			kept = append(kept, r)
		}
	}
	w.planned = kept
}
