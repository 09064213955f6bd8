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

package signal

import (
	"errors"

	"github.com/chromago/chromago/api/types"
)

// ErrNonMonotonicIndex is returned when points are appended out of order.
var ErrNonMonotonicIndex = errors.New("scan index not non-decreasing")

// Point is one expanded chromatogram point in absolute coordinates.
type Point struct {
	ScanNumber    int
	RetentionTime float64
	Intensity     float64
}

// CompressedSignal stores a chromatogram as (index offset, intensity) pairs
// relative to a shared first scan index, instead of full (scan number,
// retention time, intensity) triples. For large, unfiltered chromatograms
// this roughly triples the point density per byte; expansion to absolute
// coordinates happens lazily against the cached header list.
type CompressedSignal struct {
	firstIndex  int
	offsets     []uint32
	intensities []float64
}

// NewCompressedSignal creates an empty signal anchored at firstIndex.
func NewCompressedSignal(firstIndex int) *CompressedSignal {
	return &CompressedSignal{firstIndex: firstIndex}
}

// FirstIndex returns the anchor scan index.
func (s *CompressedSignal) FirstIndex() int {
	return s.firstIndex
}

// Len returns the number of stored points.
func (s *CompressedSignal) Len() int {
	return len(s.offsets)
}

// Append records one point. Scan indexes must be non-decreasing and not
// precede the anchor.
func (s *CompressedSignal) Append(scanIndex int, intensity float64) error {
	if scanIndex < s.firstIndex {
		return ErrNonMonotonicIndex
	}
	offset := uint32(scanIndex - s.firstIndex)
	if n := len(s.offsets); n > 0 && offset < s.offsets[n-1] {
		return ErrNonMonotonicIndex
	}
	s.offsets = append(s.offsets, offset)
	s.intensities = append(s.intensities, intensity)
	return nil
}

// Point returns the i-th stored point as (scan index, intensity). Indexes
// out of range are programmer errors and panic.
func (s *CompressedSignal) Point(i int) (int, float64) {
	return s.firstIndex + int(s.offsets[i]), s.intensities[i]
}

// Expand materializes the signal in absolute coordinates by indexing into
// the cached scan header list (indexed by absolute scan index).
func (s *CompressedSignal) Expand(headers []types.ScanHeader) []Point {
	points := make([]Point, len(s.offsets))
	for i, off := range s.offsets {
		h := headers[s.firstIndex+int(off)]
		points[i] = Point{
			ScanNumber:    h.ScanNumber,
			RetentionTime: h.RetentionTime,
			Intensity:     s.intensities[i],
		}
	}
	return points
}

// Compress builds a signal from (scan index, intensity) pairs already in
// ascending index order.
func Compress(firstIndex int, indexes []int, intensities []float64) (*CompressedSignal, error) {
	s := NewCompressedSignal(firstIndex)
	for i, idx := range indexes {
		if err := s.Append(idx, intensities[i]); err != nil {
			return nil, err
		}
	}
	return s, nil
}
