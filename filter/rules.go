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

// buildRules assembles the active rule set of a filter. Only fields the
// filter actually constrains produce rules; the mass-range check always runs
// last.
func buildRules(f *types.FilterExpression) []rule {
	if f.Meta != nil {
		return []rule{metaRule}
	}

	var rules []rule
	if f.Order != types.OrderAny {
		rules = append(rules, orderRule)
	}
	if f.Polarity != types.PolarityAny {
		rules = append(rules, polarityRule)
	}
	if f.Analyzer != types.AnalyzerAny {
		rules = append(rules, analyzerRule)
	}
	if f.DataType != types.DataAny {
		rules = append(rules, dataTypeRule)
	}
	if f.Mode != types.ScanModeAny {
		rules = append(rules, scanModeRule)
	}
	if f.Detector != types.DetectorAny {
		rules = append(rules, detectorRule)
	}
	if f.AccurateMass != types.AccurateMassAny {
		rules = append(rules, accurateMassRule)
	}
	if f.ScanTypeIndex != 0 {
		rules = append(rules, scanTypeRule)
	}
	rules = appendTriStateRules(rules, f)
	if !f.Flags.Empty() {
		rules = append(rules, flagsRule)
	}
	if len(f.Stages) > 0 {
		rules = append(rules, precursorRule)
	}
	if f.CompensationVoltage == types.TriOn && len(f.CompensationVoltageValues()) > 0 {
		rules = append(rules, compensationVoltageRule)
	}
	if f.SourceFragmentation == types.TriOn && len(f.SourceFragmentationValues()) > 0 {
		rules = append(rules, sourceFragmentationRule)
	}
	if len(f.MassRanges) > 0 {
		rules = append(rules, massRangeRule)
	}
	return rules
}

func orderRule(m *Matcher, d *types.ScanDescriptor, f *types.FilterExpression) bool {
	return d.Order == f.Order
}

func polarityRule(m *Matcher, d *types.ScanDescriptor, f *types.FilterExpression) bool {
	return d.Polarity == f.Polarity
}

func analyzerRule(m *Matcher, d *types.ScanDescriptor, f *types.FilterExpression) bool {
	return d.Analyzer == f.Analyzer
}

func dataTypeRule(m *Matcher, d *types.ScanDescriptor, f *types.FilterExpression) bool {
	return d.DataType == f.DataType
}

func scanModeRule(m *Matcher, d *types.ScanDescriptor, f *types.FilterExpression) bool {
	return d.Mode == f.Mode
}

func detectorRule(m *Matcher, d *types.ScanDescriptor, f *types.FilterExpression) bool {
	if d.Detector != f.Detector {
		return false
	}
	return withinTol(d.DetectorValue, f.DetectorValue, energyTolerance)
}

func accurateMassRule(m *Matcher, d *types.ScanDescriptor, f *types.FilterExpression) bool {
	return d.AccurateMass == f.AccurateMass
}

func scanTypeRule(m *Matcher, d *types.ScanDescriptor, f *types.FilterExpression) bool {
	return d.ScanTypeIndex == f.ScanTypeIndex
}

// appendTriStateRules adds one rule per constrained tri-state field.
func appendTriStateRules(rules []rule, f *types.FilterExpression) []rule {
	type accessor func(d *types.ScanDescriptor) types.TriState
	fields := []struct {
		want types.TriState
		get  accessor
	}{
		{f.Dependent, func(d *types.ScanDescriptor) types.TriState { return d.Dependent }},
		{f.Wideband, func(d *types.ScanDescriptor) types.TriState { return d.Wideband }},
		{f.Multiplex, func(d *types.ScanDescriptor) types.TriState { return d.Multiplex }},
		{f.Corona, func(d *types.ScanDescriptor) types.TriState { return d.Corona }},
		{f.Lock, func(d *types.ScanDescriptor) types.TriState { return d.Lock }},
		{f.Ultra, func(d *types.ScanDescriptor) types.TriState { return d.Ultra }},
		{f.Enhanced, func(d *types.ScanDescriptor) types.TriState { return d.Enhanced }},
		{f.SourceFragmentation, func(d *types.ScanDescriptor) types.TriState { return d.SourceFragmentation }},
		{f.CompensationVoltage, func(d *types.ScanDescriptor) types.TriState { return d.CompensationVoltage }},
	}
	for _, field := range fields {
		if field.want == types.TriAny {
			continue
		}
		want, get := field.want, field.get
		rules = append(rules, func(m *Matcher, d *types.ScanDescriptor, f *types.FilterExpression) bool {
			return triMatch(f.CriteriaMode, want, get(d))
		})
	}
	return rules
}

func flagsRule(m *Matcher, d *types.ScanDescriptor, f *types.FilterExpression) bool {
	ok := true
	f.Flags.ForEachSet(func(flag types.SubFlag, on bool) {
		if !ok {
			return
		}
		want := types.TriOff
		if on {
			want = types.TriOn
		}
		ok = triMatch(f.CriteriaMode, want, d.Flags.State(flag))
	})
	return ok
}

// precursorRule matches the filter's MSn stages against the descriptor's
// reaction chains. The fast path covers the common single-reaction,
// single-mass case with one tolerance comparison plus an energy check; the
// general path walks chains looking for a member whose activation type (and,
// if specified, energy) matches.
func precursorRule(m *Matcher, d *types.ScanDescriptor, f *types.FilterExpression) bool {
	if len(d.Stages) < len(f.Stages) {
		return false
	}
	tol := m.resolution(f, d)

	// Fast path: one filter stage with one reaction against one descriptor
	// chain with one member.
	if len(f.Stages) == 1 && len(f.Stages[0].Reactions) == 1 &&
		len(d.Stages) == 1 && len(d.Stages[0].Reactions) == 1 {
		want := f.Stages[0].Reactions[0]
		got := d.Stages[0].Reactions[0]
		if want.PrecursorValid && !withinTol(got.PrecursorMass, want.PrecursorMass, tol) {
			return false
		}
		if want.Activation != types.ActivationAny && got.Activation != want.Activation {
			return false
		}
		if want.EnergyValid && !withinTol(got.CollisionEnergy, want.CollisionEnergy, energyTolerance) {
			return false
		}
		return true
	}

	chains := m.chainsFor(d)
	for i, fs := range f.Stages {
		if len(fs.Reactions) == 0 {
			continue
		}
		want := fs.Reactions[0]
		if !stageMatches(chains[i], want, tol) {
			return false
		}
	}
	return true
}

// stageMatches reports whether some chain of the stage satisfies the
// requested reaction: precursor mass within tolerance and, unless the
// requested activation is Any, some chain member with the requested
// activation type and energy.
func stageMatches(chains [][]types.Reaction, want types.Reaction, tol float64) bool {
	for _, chain := range chains {
		if len(chain) == 0 {
			continue
		}
		if want.PrecursorValid && !withinTol(chain[0].PrecursorMass, want.PrecursorMass, tol) {
			continue
		}
		if want.Activation == types.ActivationAny {
			return true
		}
		for _, r := range chain {
			if r.Activation != want.Activation {
				continue
			}
			if want.EnergyValid && !withinTol(r.CollisionEnergy, want.CollisionEnergy, energyTolerance) {
				continue
			}
			return true
		}
	}
	return false
}

// compensationVoltageRule compares CV values from the shared source value
// table; the descriptor's CV values start after the fragmentation-reserved
// slots when source fragmentation is active.
func compensationVoltageRule(m *Matcher, d *types.ScanDescriptor, f *types.FilterExpression) bool {
	if !triMatch(f.CriteriaMode, types.TriOn, d.CompensationVoltage) {
		return false
	}
	want := f.CompensationVoltageValues()
	got := d.CompensationVoltageValues()
	if len(got) < len(want) {
		return false
	}
	for i, v := range want {
		if !withinTol(got[i], v, energyTolerance) {
			return false
		}
	}
	return true
}

// sourceFragmentationRule compares SID values and ranges.
func sourceFragmentationRule(m *Matcher, d *types.ScanDescriptor, f *types.FilterExpression) bool {
	if !triMatch(f.CriteriaMode, types.TriOn, d.SourceFragmentation) {
		return false
	}
	want := f.SourceFragmentationValues()
	got := d.SourceFragmentationValues()
	if len(got) < len(want) {
		return false
	}
	for i, v := range want {
		if !withinTol(got[i], v, energyTolerance) {
			return false
		}
	}
	if len(f.SourceFragmentationRanges) > 0 {
		tol := m.resolution(f, d) / 2
		if !rangesMatch(f.SourceFragmentationRanges, d.SourceFragmentationRanges, tol) {
			return false
		}
	}
	return true
}

// massRangeRule is the final check: with equal counts ranges compare
// position-wise, otherwise each filter range must find some descriptor range
// within tolerance.
func massRangeRule(m *Matcher, d *types.ScanDescriptor, f *types.FilterExpression) bool {
	tol := m.resolution(f, d) / 2
	return rangesMatch(f.MassRanges, d.MassRanges, tol)
}

func rangesMatch(want, got []types.Range, tol float64) bool {
	if len(want) == len(got) {
		for i, w := range want {
			if !withinTol(got[i].Low, w.Low, tol) || !withinTol(got[i].High, w.High, tol) {
				return false
			}
		}
		return true
	}
	for _, w := range want {
		found := false
		for _, g := range got {
			if withinTol(g.Low, w.Low, tol) && withinTol(g.High, w.High, tol) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// metaRule implements grouping filter tokens: MS order at least 2, the
// dependent flag as required, order within the requested MSn count and, when
// specific activation types are requested, at least one reaction anywhere in
// the descriptor carrying one of them.
func metaRule(m *Matcher, d *types.ScanDescriptor, f *types.FilterExpression) bool {
	meta := f.Meta
	if d.Order < types.Ms2 {
		return false
	}
	if meta.Dependent != types.TriAny && !triMatch(f.CriteriaMode, meta.Dependent, d.Dependent) {
		return false
	}
	if meta.MsnCount > 0 && int(d.Order) > meta.MsnCount {
		return false
	}
	if len(meta.Activations) == 0 {
		return true
	}
	for _, stage := range d.Stages {
		for _, r := range stage.Reactions {
			for _, a := range meta.Activations {
				if r.Activation == a {
					return true
				}
			}
		}
	}
	return false
}
