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
	"math"
	"testing"

	"github.com/chromago/chromago/test/assert"
)

func TestBuildGrid(t *testing.T) {
	grid := BuildGrid(0, 1, 0.25)
	assert.Equal(t, 5, len(grid))
	assert.Equal(t, 0.0, grid[0])
	assert.Equal(t, 1.0, grid[4])
}

func TestResampleInterpolates(t *testing.T) {
	rt := []float64{0, 1, 2}
	intensity := []float64{0, 10, 0}
	grid := []float64{0, 0.5, 1, 1.5, 2}
	out := make([]float64, len(grid))
	Resample(rt, intensity, grid, out)
	assert.Equal(t, 0.0, out[0])
	assert.Equal(t, 5.0, out[1])
	assert.Equal(t, 10.0, out[2])
	assert.Equal(t, 5.0, out[3])
	assert.Equal(t, 0.0, out[4])
}

func TestResampleOutsideRangeIsZero(t *testing.T) {
	rt := []float64{1, 2}
	intensity := []float64{5, 5}
	grid := []float64{0, 0.5, 1.5, 2.5}
	out := make([]float64, len(grid))
	Resample(rt, intensity, grid, out)
	assert.Equal(t, 0.0, out[0])
	assert.Equal(t, 0.0, out[1])
	assert.Equal(t, 5.0, out[2])
	assert.Equal(t, 0.0, out[3])
}

func TestResampleEmptySource(t *testing.T) {
	grid := BuildGrid(0, 1, 0.5)
	out := []float64{9, 9, 9}
	Resample(nil, nil, grid, out)
	for _, v := range out {
		assert.Equal(t, 0.0, v)
	}
}

func TestResampleDuplicateTimes(t *testing.T) {
	rt := []float64{0, 1, 1, 2}
	intensity := []float64{0, 4, 6, 8}
	grid := []float64{1}
	out := make([]float64, 1)
	Resample(rt, intensity, grid, out)
	// Duplicate abscissa falls back to the left value, no NaN.
	assert.False(t, math.IsNaN(out[0]))
}
