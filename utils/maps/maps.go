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

// Package maps decodes loosely-typed configuration maps into typed delivery
// parameters.
package maps

import (
	"github.com/mitchellh/mapstructure"

	"github.com/chromago/chromago/api/types"
)

// Map2Struct takes an input structure and uses reflection to translate it to
// the output structure. output must be a pointer to a map or struct.
func Map2Struct(input interface{}, output interface{}) error {
	return mapstructure.Decode(input, output)
}

// deliveryConfig is the decodable subset of a delivery: everything except
// the callback and the parsed filter.
type deliveryConfig struct {
	TimeRange  *types.TimeRange  `mapstructure:"timeRange"`
	FilterText string            `mapstructure:"filter"`
	Compounds  []string          `mapstructure:"compounds"`
	Expr       string            `mapstructure:"expr"`
	Script     string            `mapstructure:"script"`
	Points     []types.PointSpec `mapstructure:"points"`
	Kind       string            `mapstructure:"kind"`
}

var valueKinds = map[string]types.ValueKind{
	"":          types.ValueSum,
	"sum":       types.ValueSum,
	"max":       types.ValueMax,
	"massOfMax": types.ValueMassOfMax,
}

// DecodeDelivery builds a delivery from a configuration map, e.g. one read
// from a JSON job description. The OnPoint callback is supplied separately
// since it cannot come from configuration.
func DecodeDelivery(cfg types.Configuration, onPoint types.OnPointFunc) (types.Delivery, error) {
	var dc deliveryConfig
	if err := Map2Struct(map[string]interface{}(cfg), &dc); err != nil {
		return types.Delivery{}, err
	}
	return types.Delivery{
		TimeRange: dc.TimeRange,
		Selector: types.Selector{
			FilterText:    dc.FilterText,
			CompoundNames: dc.Compounds,
			Expr:          dc.Expr,
			Script:        dc.Script,
		},
		Points:  dc.Points,
		Kind:    valueKinds[dc.Kind],
		OnPoint: onPoint,
	}, nil
}
