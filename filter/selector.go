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

package filter

import (
	"github.com/chromago/chromago/api/types"
)

// Predicate decides whether one scan contributes points to a delivery.
// Predicates must be safe for concurrent use; they run on pipeline workers.
type Predicate func(h types.ScanHeader, d *types.ScanDescriptor) bool

// MatchAll accepts every scan.
func MatchAll(types.ScanHeader, *types.ScanDescriptor) bool { return true }

// NewFilterPredicate selects scans matching the filter expression through
// the matcher (with the matched-event cache in front).
func NewFilterPredicate(m *Matcher, f *types.FilterExpression) Predicate {
	return func(h types.ScanHeader, d *types.ScanDescriptor) bool {
		return m.MatchesEvent(h, d, f)
	}
}

// NewNamePredicate selects scans whose descriptor compound name is one of
// the given names.
func NewNamePredicate(names []string) Predicate {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return func(_ types.ScanHeader, d *types.ScanDescriptor) bool {
		if d == nil {
			return false
		}
		_, ok := set[d.CompoundName]
		return ok
	}
}

// scanEnv exposes descriptor fields to expression and script selectors.
func scanEnv(h types.ScanHeader, d *types.ScanDescriptor) map[string]interface{} {
	env := map[string]interface{}{
		"index":         h.Index,
		"scanNumber":    h.ScanNumber,
		"rt":            h.RetentionTime,
		"segment":       h.Segment,
		"event":         h.Event,
		"msOrder":       0,
		"polarity":      "",
		"analyzer":      "",
		"scanMode":      "",
		"dataType":      "",
		"dependent":     false,
		"multiplex":     false,
		"compound":      "",
		"precursor":     0.0,
		"activation":    "",
		"energy":        0.0,
		"massRangeLow":  0.0,
		"massRangeHigh": 0.0,
	}
	if d == nil {
		return env
	}
	env["msOrder"] = int(d.Order)
	env["polarity"] = d.Polarity.String()
	env["analyzer"] = d.Analyzer.String()
	env["scanMode"] = d.Mode.String()
	env["dataType"] = d.DataType.String()
	env["dependent"] = d.Dependent == types.TriOn
	env["multiplex"] = d.Multiplex == types.TriOn
	env["compound"] = d.CompoundName
	if len(d.Stages) > 0 && len(d.Stages[0].Reactions) > 0 {
		r := d.Stages[0].Reactions[0]
		env["precursor"] = r.PrecursorMass
		env["activation"] = r.Activation.String()
		env["energy"] = r.CollisionEnergy
	}
	if len(d.MassRanges) > 0 {
		env["massRangeLow"] = d.MassRanges[0].Low
		env["massRangeHigh"] = d.MassRanges[len(d.MassRanges)-1].High
	}
	return env
}
