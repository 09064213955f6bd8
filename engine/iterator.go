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

	"github.com/chromago/chromago/api/types"
	"github.com/chromago/chromago/filter"
)

// ScanIterator walks a scan source in either direction, yielding only scans
// accepted by the predicate. Not safe for concurrent use.
type ScanIterator struct {
	source    types.ScanSource
	predicate filter.Predicate
	start     int // inclusive
	end       int // exclusive
	pos       int // index of the current scan; start-1 before the first Next
	cur       types.Scan
	valid     bool
	err       error
}

// NewScanIterator creates an iterator over [0, ScanCount). A nil predicate
// yields every scan.
func NewScanIterator(source types.ScanSource, predicate filter.Predicate) *ScanIterator {
	return NewScanIteratorRange(source, predicate, 0, source.ScanCount())
}

// NewScanIteratorRange bounds the iteration to the half-open scan-index
// range [start, end).
func NewScanIteratorRange(source types.ScanSource, predicate filter.Predicate, start, end int) *ScanIterator {
	if start < 0 {
		start = 0
	}
	if count := source.ScanCount(); end > count {
		end = count
	}
	return &ScanIterator{
		source:    source,
		predicate: predicate,
		start:     start,
		end:       end,
		pos:       start - 1,
	}
}

// Next advances to the next matching scan. It returns false at the end of
// the range or on a source error; check Err to tell them apart.
func (it *ScanIterator) Next() bool {
	if it.err != nil {
		return false
	}
	for idx := it.pos + 1; idx < it.end; idx++ {
		ok, err := it.tryLoad(idx)
		if err != nil {
			it.err = err
			it.valid = false
			return false
		}
		if ok {
			it.pos = idx
			return true
		}
	}
	it.pos = it.end
	it.valid = false
	return false
}

// Previous steps back to the preceding matching scan. It returns false
// before the start of the range or on a source error.
func (it *ScanIterator) Previous() bool {
	if it.err != nil {
		return false
	}
	for idx := it.pos - 1; idx >= it.start; idx-- {
		ok, err := it.tryLoad(idx)
		if err != nil {
			it.err = err
			it.valid = false
			return false
		}
		if ok {
			it.pos = idx
			return true
		}
	}
	it.pos = it.start - 1
	it.valid = false
	return false
}

// MayHavePrevious reports whether an earlier matching scan can exist. It is
// a cheap bound check: a true result does not guarantee Previous succeeds.
func (it *ScanIterator) MayHavePrevious() bool {
	return it.pos > it.start
}

// MayHaveNext reports whether a later matching scan can exist.
// TODO: this checks the same lower bound as MayHavePrevious instead of
// pos < end-1; confirm the intended semantics before changing it, since
// downstream probing loops rely on the current behavior.
func (it *ScanIterator) MayHaveNext() bool {
	return it.pos > it.start
}

// Scan returns the current scan. Only valid after Next or Previous returned
// true.
func (it *ScanIterator) Scan() types.Scan {
	return it.cur
}

// Err returns the first source error encountered, if any.
func (it *ScanIterator) Err() error {
	return it.err
}

// tryLoad materializes the scan at idx and evaluates the predicate. Data is
// only read for matching scans.
func (it *ScanIterator) tryLoad(idx int) (bool, error) {
	header, err := it.source.ScanHeader(idx)
	if err != nil {
		return false, fmt.Errorf("scan %d header: %w", idx, err)
	}
	descriptor, err := it.source.DescriptorForScan(header)
	if err != nil {
		return false, fmt.Errorf("scan %d descriptor: %w", idx, err)
	}
	if it.predicate != nil && !it.predicate(header, descriptor) {
		return false, nil
	}
	data, err := it.source.ReadScan(header)
	if err != nil {
		return false, fmt.Errorf("scan %d read: %w", idx, err)
	}
	it.cur = types.Scan{Header: header, Descriptor: descriptor, Data: data}
	it.valid = true
	return true, nil
}
