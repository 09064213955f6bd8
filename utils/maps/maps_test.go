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

package maps

import (
	"testing"

	"github.com/chromago/chromago/api/types"
	"github.com/chromago/chromago/test/assert"
)

func TestMap2Struct(t *testing.T) {
	m := map[string]interface{}{
		"range": map[string]interface{}{"low": 100.0, "high": 200.0},
		"scale": 2.5,
	}
	var spec types.PointSpec
	err := Map2Struct(m, &spec)
	assert.Nil(t, err)
	assert.Equal(t, 100.0, spec.Range.Low)
	assert.Equal(t, 200.0, spec.Range.High)
	assert.Equal(t, 2.5, spec.Scale)

	// Non-pointer output must fail.
	var spec2 types.PointSpec
	err = Map2Struct(m, spec2)
	assert.NotNil(t, err)

	// Non-map input must fail.
	err = Map2Struct("not a map", &spec2)
	assert.NotNil(t, err)
}

func TestDecodeDelivery(t *testing.T) {
	cfg := types.Configuration{
		"timeRange": map[string]interface{}{"start": 1.0, "end": 10.0},
		"filter":    "ms2 524.26",
		"points": []interface{}{
			map[string]interface{}{
				"range": map[string]interface{}{"low": 262.0, "high": 263.0},
			},
		},
		"kind": "max",
	}
	var got []float64
	d, err := DecodeDelivery(cfg, func(scanIndex int, value float64) {
		got = append(got, value)
	})
	assert.Nil(t, err)
	assert.NotNil(t, d.TimeRange)
	assert.Equal(t, 1.0, d.TimeRange.Start)
	assert.Equal(t, 10.0, d.TimeRange.End)
	assert.Equal(t, "ms2 524.26", d.Selector.FilterText)
	assert.Equal(t, 1, len(d.Points))
	assert.Equal(t, 262.0, d.Points[0].Range.Low)
	assert.Equal(t, types.ValueMax, d.Kind)
	assert.NotNil(t, d.OnPoint)

	d.OnPoint(0, 42.0)
	assert.Equal(t, 1, len(got))
}

func TestDecodeDeliveryUnknownKind(t *testing.T) {
	d, err := DecodeDelivery(types.Configuration{"kind": "unknown"}, nil)
	assert.Nil(t, err)
	// Unrecognized kinds fall back to sum.
	assert.Equal(t, types.ValueSum, d.Kind)
}
