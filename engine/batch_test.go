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
	"testing"

	"github.com/chromago/chromago/api/types"
	"github.com/chromago/chromago/test"
	"github.com/chromago/chromago/test/assert"
)

func batchRequest() BatchRequest {
	return BatchRequest{
		TimeRange:      types.TimeRange{Start: 0, End: 4},
		GridResolution: 0.05,
		Targets: []BatchTarget{
			{Selector: types.Selector{Expr: "msOrder == 1"}, Kind: types.ValueSum},
			{
				Selector: types.Selector{FilterText: "ms2 524.2648@hcd28.00"},
				Points:   []types.PointSpec{{Range: types.Range{Low: 200, High: 400}}},
				Kind:     types.ValueSum,
			},
		},
	}
}

func TestExtractBatchAlignsSources(t *testing.T) {
	sources := []types.ScanSource{
		test.SimulatedRun(400, 524.2648, 0.01),
		test.SimulatedRun(500, 524.2648, 0.008),
	}
	result, err := ExtractBatch(sources, batchRequest(), types.WithBatchSize(64))
	assert.Nil(t, err)
	assert.Equal(t, 81, len(result.Grid))
	assert.Equal(t, 2, len(result.Traces))
	for s := range sources {
		assert.Nil(t, result.Errs[s])
		for target := 0; target < 2; target++ {
			trace := result.Trace(s, target)
			assert.Equal(t, len(result.Grid), len(trace))
		}
	}
	// The elution apex sits mid-run; the TIC trace must peak above its edges.
	tic := result.Trace(0, 0)
	mid := tic[len(tic)/2]
	assert.True(t, mid > tic[0])
	assert.True(t, mid > tic[len(tic)-1])
}

func TestExtractBatchSkipsFailedSource(t *testing.T) {
	bad := test.SimulatedRun(100, 524.2648, 0.01)
	bad.FailAt = 0
	sources := []types.ScanSource{
		bad,
		test.SimulatedRun(400, 524.2648, 0.01),
	}
	result, err := ExtractBatch(sources, batchRequest(), types.WithBatchSize(64))
	assert.Nil(t, err)
	assert.Nil(t, result.Traces[0])
	assert.NotNil(t, result.Errs[0])
	assert.NotNil(t, result.Traces[1])
	assert.Nil(t, result.Trace(0, 0))
}

func TestExtractBatchAllFailed(t *testing.T) {
	bad := test.SimulatedRun(100, 524.2648, 0.01)
	bad.FailAt = 0
	_, err := ExtractBatch([]types.ScanSource{bad}, batchRequest())
	assert.NotNil(t, err)
	assert.True(t, errors.Is(err, ErrAllSourcesFailed))
}

func TestTraceCollectorCompresses(t *testing.T) {
	c := newTraceCollector()
	c.onPoint(3, 10)
	c.onPoint(7, 20)
	c.onPoint(12, 30)
	assert.Nil(t, c.err)
	assert.Equal(t, 3, c.sig.Len())

	idx, v := c.sig.Point(1)
	assert.Equal(t, 7, idx)
	assert.Equal(t, 20.0, v)

	// A regressing index is recorded, not silently dropped.
	c.onPoint(5, 40)
	assert.NotNil(t, c.err)
}

func TestExtractBatchValidation(t *testing.T) {
	_, err := ExtractBatch(nil, batchRequest())
	assert.Equal(t, types.ErrNoScanSource, err)

	source := test.SimulatedRun(10, 524.2648, 0.01)
	_, err = ExtractBatch([]types.ScanSource{source}, BatchRequest{
		TimeRange: types.TimeRange{Start: 0, End: 1},
	})
	assert.Equal(t, ErrNoDeliveries, err)
}
