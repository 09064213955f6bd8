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
	"fmt"
	"sort"

	"github.com/chromago/chromago/api/types"
)

// fragment is one scan-index sub-range of a delivery: the scheduling unit.
// Fragments are created by the single-threaded planner and immutable once
// enqueued.
type fragment struct {
	delivery *deliveryState
	start    int // inclusive
	end      int // exclusive
	seq      int // per-delivery planning order
	isFinal  bool
}

// resolveRange maps a delivery's time range to a half-open scan-index range.
// Unless strict, the range widens by one point outside each edge so the
// trace brackets the requested window.
func resolveRange(source types.ScanSource, d *types.TimeRange, strict bool) (int, int, error) {
	count := source.ScanCount()
	if d == nil {
		return 0, count, nil
	}
	start, end, err := source.ResolveScanRange(d.Start, d.End)
	if err != nil {
		return 0, 0, fmt.Errorf("resolve scan range [%g, %g]: %w", d.Start, d.End, err)
	}
	if !strict {
		start--
		end++
	}
	if start < 0 {
		start = 0
	}
	if end > count {
		end = count
	}
	if start > end {
		start = end
	}
	return start, end, nil
}

// planFragments splits every delivery's scan range into ascending fragments
// of batchSize scans, marking each delivery's last fragment final, then
// merges all deliveries' fragments sorted by start index so overlapping
// ranges land adjacent and the scan window stays local.
func planFragments(source types.ScanSource, deliveries []*deliveryState, cfg types.Config) ([]*fragment, error) {
	var all []*fragment
	for _, ds := range deliveries {
		start, end, err := resolveRange(source, ds.spec.TimeRange, cfg.StrictTimeRange)
		if err != nil {
			return nil, err
		}
		if start >= end {
			// Empty range still needs a final fragment so the delivery
			// completes.
			all = append(all, &fragment{delivery: ds, start: start, end: start, isFinal: true})
			continue
		}
		seq := 0
		for at := start; at < end; at += cfg.BatchSize {
			fragEnd := at + cfg.BatchSize
			if fragEnd > end {
				fragEnd = end
			}
			all = append(all, &fragment{
				delivery: ds,
				start:    at,
				end:      fragEnd,
				seq:      seq,
				isFinal:  fragEnd == end,
			})
			seq++
		}
	}
	// Stable keeps each delivery's own fragments in planning order.
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].start < all[j].start
	})
	return all, nil
}
