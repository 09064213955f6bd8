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
	"testing"

	"github.com/chromago/chromago/api/types"
	"github.com/chromago/chromago/filter"
	"github.com/chromago/chromago/test"
	"github.com/chromago/chromago/test/assert"
)

func ms1Only(h types.ScanHeader, d *types.ScanDescriptor) bool {
	return d != nil && d.Order == types.Ms
}

func TestIteratorForward(t *testing.T) {
	source := test.SimulatedRun(10, 524.2648, 0.01)
	it := NewScanIterator(source, ms1Only)

	var indexes []int
	for it.Next() {
		indexes = append(indexes, it.Scan().Header.Index)
	}
	assert.Nil(t, it.Err())
	assert.Equal(t, []int{0, 2, 4, 6, 8}, indexes)
}

func TestIteratorBackward(t *testing.T) {
	source := test.SimulatedRun(10, 524.2648, 0.01)
	it := NewScanIterator(source, ms1Only)

	// Walk to the end, then back.
	for it.Next() {
	}
	var indexes []int
	for it.Previous() {
		indexes = append(indexes, it.Scan().Header.Index)
	}
	assert.Nil(t, it.Err())
	assert.Equal(t, []int{8, 6, 4, 2, 0}, indexes)
	assert.False(t, it.MayHavePrevious())
}

func TestIteratorRange(t *testing.T) {
	source := test.SimulatedRun(20, 524.2648, 0.01)
	it := NewScanIteratorRange(source, ms1Only, 5, 11)
	var indexes []int
	for it.Next() {
		indexes = append(indexes, it.Scan().Header.Index)
	}
	assert.Equal(t, []int{6, 8, 10}, indexes)
}

func TestIteratorNilPredicate(t *testing.T) {
	source := test.SimulatedRun(5, 524.2648, 0.01)
	it := NewScanIterator(source, nil)
	count := 0
	for it.Next() {
		count++
	}
	assert.Equal(t, 5, count)
}

func TestIteratorFilterPredicate(t *testing.T) {
	source := test.SimulatedRun(20, 524.2648, 0.01)
	f, err := source.ParseFilter("ms2 524.2648@hcd28.00")
	assert.Nil(t, err)
	m := filter.NewMatcher(-1, false)
	it := NewScanIterator(source, filter.NewFilterPredicate(m, f))
	count := 0
	for it.Next() {
		assert.Equal(t, types.Ms2, it.Scan().Descriptor.Order)
		count++
	}
	assert.Equal(t, 10, count)
}

func TestIteratorReadError(t *testing.T) {
	source := test.SimulatedRun(10, 524.2648, 0.01)
	source.FailAt = 4
	it := NewScanIterator(source, nil)
	count := 0
	for it.Next() {
		count++
	}
	assert.Equal(t, 4, count)
	assert.NotNil(t, it.Err())
}

func TestIteratorProbes(t *testing.T) {
	source := test.SimulatedRun(10, 524.2648, 0.01)
	it := NewScanIterator(source, nil)
	assert.False(t, it.MayHavePrevious())
	assert.True(t, it.Next())
	assert.False(t, it.MayHavePrevious())
	assert.True(t, it.Next())
	assert.True(t, it.MayHavePrevious())
	// MayHaveNext tracks the same bound as MayHavePrevious for now; see the
	// note on the method.
	assert.Equal(t, it.MayHavePrevious(), it.MayHaveNext())
}
