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
	"testing"

	"github.com/chromago/chromago/api/types"
	"github.com/chromago/chromago/test/assert"
)

var sample = types.SampleData{
	Masses:      []float64{100, 200, 300, 400, 500},
	Intensities: []float64{10, 40, 30, 20, 50},
}

func TestWholeSpectrumSum(t *testing.T) {
	c := NewComputer(types.ValueSum, nil)
	assert.Equal(t, 150.0, c(sample))
}

func TestWholeSpectrumMax(t *testing.T) {
	c := NewComputer(types.ValueMax, nil)
	assert.Equal(t, 50.0, c(sample))
}

func TestWholeSpectrumMassOfMax(t *testing.T) {
	c := NewComputer(types.ValueMassOfMax, nil)
	assert.Equal(t, 500.0, c(sample))
}

func TestSingleRangeSum(t *testing.T) {
	c := NewComputer(types.ValueSum, []types.PointSpec{
		{Range: types.Range{Low: 150, High: 350}},
	})
	assert.Equal(t, 70.0, c(sample))
}

func TestSingleRangeBoundsInclusive(t *testing.T) {
	c := NewComputer(types.ValueSum, []types.PointSpec{
		{Range: types.Range{Low: 200, High: 400}},
	})
	assert.Equal(t, 90.0, c(sample))
}

func TestSingleRangeScaled(t *testing.T) {
	c := NewComputer(types.ValueSum, []types.PointSpec{
		{Range: types.Range{Low: 150, High: 350}, Scale: 2},
	})
	assert.Equal(t, 140.0, c(sample))
}

func TestUnsetScaleMeansIdentity(t *testing.T) {
	with := NewComputer(types.ValueMax, []types.PointSpec{
		{Range: types.Range{Low: 0, High: 1000}, Scale: 1},
	})
	without := NewComputer(types.ValueMax, []types.PointSpec{
		{Range: types.Range{Low: 0, High: 1000}},
	})
	assert.Equal(t, with(sample), without(sample))
}

func TestSingleRangeMassOfMax(t *testing.T) {
	c := NewComputer(types.ValueMassOfMax, []types.PointSpec{
		{Range: types.Range{Low: 150, High: 450}},
	})
	assert.Equal(t, 200.0, c(sample))
}

func TestMultiRangeSum(t *testing.T) {
	c := NewComputer(types.ValueSum, []types.PointSpec{
		{Range: types.Range{Low: 100, High: 100}},
		{Range: types.Range{Low: 400, High: 500}, Scale: 0.5},
	})
	assert.Equal(t, 45.0, c(sample))
}

func TestMultiRangeMax(t *testing.T) {
	c := NewComputer(types.ValueMax, []types.PointSpec{
		{Range: types.Range{Low: 100, High: 200}},
		{Range: types.Range{Low: 400, High: 500}, Scale: 0.1},
	})
	assert.Equal(t, 40.0, c(sample))
}

func TestEmptyRange(t *testing.T) {
	c := NewComputer(types.ValueSum, []types.PointSpec{
		{Range: types.Range{Low: 600, High: 700}},
	})
	assert.Equal(t, 0.0, c(sample))
}

func TestEmptyData(t *testing.T) {
	c := NewComputer(types.ValueSum, nil)
	assert.Equal(t, 0.0, c(types.SampleData{}))
}
