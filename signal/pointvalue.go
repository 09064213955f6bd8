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

// Package signal computes and stores chromatogram point values: per-scan
// scalar computation, the compressed point-series representation and
// retention-time grid resampling.
package signal

import (
	"math"
	"sort"

	"github.com/chromago/chromago/api/types"
)

// unitScaleTolerance: scales this close to 1 skip the multiply on the hot
// per-scan path.
const unitScaleTolerance = 1e-8

// Computer turns one scan's peak arrays into a scalar point value. Pure
// function of its input; safe for concurrent use.
type Computer func(data types.SampleData) float64

// NewComputer builds the cheapest computer variant for the given value kind
// and (range, scale) terms: whole-spectrum for no terms, a single-range fast
// path (skipping scaling when the scale is 1) and the general multi-range
// form.
func NewComputer(kind types.ValueKind, specs []types.PointSpec) Computer {
	if len(specs) > 0 {
		// An unset scale means identity.
		norm := make([]types.PointSpec, len(specs))
		for i, s := range specs {
			if s.Scale == 0 {
				s.Scale = 1
			}
			norm[i] = s
		}
		specs = norm
	}
	switch len(specs) {
	case 0:
		return wholeSpectrum(kind)
	case 1:
		return singleRange(kind, specs[0])
	default:
		return multiRange(kind, specs)
	}
}

func isUnitScale(scale float64) bool {
	return math.Abs(scale-1) <= unitScaleTolerance
}

func wholeSpectrum(kind types.ValueKind) Computer {
	switch kind {
	case types.ValueMax:
		return func(data types.SampleData) float64 {
			max := 0.0
			for _, v := range data.Intensities {
				if v > max {
					max = v
				}
			}
			return max
		}
	case types.ValueMassOfMax:
		return func(data types.SampleData) float64 {
			max, mass := 0.0, 0.0
			for i, v := range data.Intensities {
				if v > max {
					max = v
					mass = data.Masses[i]
				}
			}
			return mass
		}
	default:
		return func(data types.SampleData) float64 {
			sum := 0.0
			for _, v := range data.Intensities {
				sum += v
			}
			return sum
		}
	}
}

// rangeBounds returns the index interval [lo, hi) of masses inside r.
func rangeBounds(masses []float64, r types.Range) (int, int) {
	lo := sort.SearchFloat64s(masses, r.Low)
	hi := sort.Search(len(masses), func(i int) bool { return masses[i] > r.High })
	return lo, hi
}

func singleRange(kind types.ValueKind, spec types.PointSpec) Computer {
	unit := isUnitScale(spec.Scale)
	switch kind {
	case types.ValueMax:
		return func(data types.SampleData) float64 {
			lo, hi := rangeBounds(data.Masses, spec.Range)
			max := 0.0
			for i := lo; i < hi; i++ {
				if v := data.Intensities[i]; v > max {
					max = v
				}
			}
			if unit {
				return max
			}
			return max * spec.Scale
		}
	case types.ValueMassOfMax:
		return func(data types.SampleData) float64 {
			lo, hi := rangeBounds(data.Masses, spec.Range)
			max, mass := 0.0, 0.0
			for i := lo; i < hi; i++ {
				if v := data.Intensities[i]; v > max {
					max = v
					mass = data.Masses[i]
				}
			}
			return mass
		}
	default:
		if unit {
			return func(data types.SampleData) float64 {
				lo, hi := rangeBounds(data.Masses, spec.Range)
				sum := 0.0
				for i := lo; i < hi; i++ {
					sum += data.Intensities[i]
				}
				return sum
			}
		}
		return func(data types.SampleData) float64 {
			lo, hi := rangeBounds(data.Masses, spec.Range)
			sum := 0.0
			for i := lo; i < hi; i++ {
				sum += data.Intensities[i]
			}
			return sum * spec.Scale
		}
	}
}

func multiRange(kind types.ValueKind, specs []types.PointSpec) Computer {
	switch kind {
	case types.ValueMax:
		return func(data types.SampleData) float64 {
			max := 0.0
			for _, spec := range specs {
				lo, hi := rangeBounds(data.Masses, spec.Range)
				for i := lo; i < hi; i++ {
					v := data.Intensities[i]
					if !isUnitScale(spec.Scale) {
						v *= spec.Scale
					}
					if v > max {
						max = v
					}
				}
			}
			return max
		}
	case types.ValueMassOfMax:
		// Mass of the most intense peak across the range with the maximum
		// intensity; scales weight the comparison, not the returned mass.
		return func(data types.SampleData) float64 {
			max, mass := 0.0, 0.0
			for _, spec := range specs {
				lo, hi := rangeBounds(data.Masses, spec.Range)
				for i := lo; i < hi; i++ {
					v := data.Intensities[i]
					if !isUnitScale(spec.Scale) {
						v *= spec.Scale
					}
					if v > max {
						max = v
						mass = data.Masses[i]
					}
				}
			}
			return mass
		}
	default:
		return func(data types.SampleData) float64 {
			sum := 0.0
			for _, spec := range specs {
				lo, hi := rangeBounds(data.Masses, spec.Range)
				partial := 0.0
				for i := lo; i < hi; i++ {
					partial += data.Intensities[i]
				}
				if isUnitScale(spec.Scale) {
					sum += partial
				} else {
					sum += partial * spec.Scale
				}
			}
			return sum
		}
	}
}
