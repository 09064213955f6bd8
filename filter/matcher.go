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

// Package filter implements the scan filter engine: parsing instrument
// filter strings into filter expressions and matching scan descriptors
// against them with tolerance arithmetic.
package filter

import (
	"math"
	"sync"

	"github.com/chromago/chromago/api/types"
)

const (
	// energyTolerance bounds collision-energy comparisons.
	energyTolerance = 0.01
	// dependentResolution is the widened mass resolution for data-dependent
	// scans, whose precursor masses wander around the method value.
	dependentResolution = 0.4
	// accurateTighten divides the resolution for accurate, non-dependent
	// matching.
	accurateTighten = 1.001
	// defaultMassPrecision is assumed when neither the configuration nor
	// the filter states a decimal precision.
	defaultMassPrecision = 2
)

// rule is one active criterion of a filter. Rules run in order; the first
// failing rule decides the match.
type rule func(m *Matcher, d *types.ScanDescriptor, f *types.FilterExpression) bool

// ruleList carries the lazily built rule set of one filter. The sync.Once
// keeps concurrent first uses from racing on the build.
type ruleList struct {
	once  sync.Once
	rules []rule
}

// chainTable carries the lazily built reaction chains of one descriptor,
// one chain list per stage.
type chainTable struct {
	once   sync.Once
	stages [][][]types.Reaction
}

// eventKey keys the matched-event cache: one fixed, non-dependent method
// event tested against one filter.
type eventKey struct {
	segment int
	event   int
	filter  *types.FilterExpression
}

// Matcher decides whether scan descriptors satisfy filter expressions. It
// memoizes a per-filter rule list, a per-descriptor reaction-chain table and
// the per-(segment,event) outcome for fixed events. Safe for concurrent use.
type Matcher struct {
	// massPrecision is the configured decimal precision; -1 derives it from
	// each filter.
	massPrecision int
	// accurate tightens tolerance for non-dependent scans.
	accurate bool

	rules  sync.Map // *types.FilterExpression -> *ruleList
	chains sync.Map // *types.ScanDescriptor -> *chainTable
	events sync.Map // eventKey -> bool
}

// NewMatcher creates a matcher with the given mass precision (-1 = derive
// from the filter) and accurate-precursor mode.
func NewMatcher(massPrecision int, accuratePrecursors bool) *Matcher {
	return &Matcher{massPrecision: massPrecision, accurate: accuratePrecursors}
}

// NewMatcherFromConfig creates a matcher from the pipeline configuration.
func NewMatcherFromConfig(cfg types.Config) *Matcher {
	return NewMatcher(cfg.FilterMassPrecision, cfg.AccuratePrecursors)
}

// Matches reports whether the descriptor satisfies the filter. A filter with
// no active criteria matches everything.
func (m *Matcher) Matches(d *types.ScanDescriptor, f *types.FilterExpression) bool {
	if d == nil || f == nil {
		return f == nil
	}
	for _, r := range m.rulesFor(f) {
		if !r(m, d, f) {
			return false
		}
	}
	return true
}

// MatchesEvent is Matches with the matched-event cache in front: fixed,
// non-dependent method events have a stable outcome per (segment, event), so
// repeat tests are skipped. A miss falls back to full evaluation.
func (m *Matcher) MatchesEvent(h types.ScanHeader, d *types.ScanDescriptor, f *types.FilterExpression) bool {
	if d == nil || !d.Fixed || d.Dependent == types.TriOn {
		return m.Matches(d, f)
	}
	key := eventKey{segment: h.Segment, event: h.Event, filter: f}
	if v, ok := m.events.Load(key); ok {
		return v.(bool)
	}
	matched := m.Matches(d, f)
	m.events.Store(key, matched)
	return matched
}

// rulesFor returns the filter's rule list, building it on first use.
func (m *Matcher) rulesFor(f *types.FilterExpression) []rule {
	v, _ := m.rules.LoadOrStore(f, &ruleList{})
	rl := v.(*ruleList)
	rl.once.Do(func() {
		rl.rules = buildRules(f)
	})
	return rl.rules
}

// chainsFor returns the descriptor's reaction-chain table, building it on
// first use. A chain is a reaction plus all immediately following reactions
// flagged MultipleActivation.
func (m *Matcher) chainsFor(d *types.ScanDescriptor) [][][]types.Reaction {
	v, _ := m.chains.LoadOrStore(d, &chainTable{})
	ct := v.(*chainTable)
	ct.once.Do(func() {
		ct.stages = make([][][]types.Reaction, len(d.Stages))
		for i, stage := range d.Stages {
			var chains [][]types.Reaction
			for j, r := range stage.Reactions {
				if j == 0 || !r.MultipleActivation {
					chains = append(chains, nil)
				}
				last := len(chains) - 1
				chains[last] = append(chains[last], r)
			}
			ct.stages[i] = chains
		}
	})
	return ct.stages
}

// triMatch compares a filter tri-state against the other side. In criteria
// mode (filter derived from a filter) On requires exactly On and Off
// requires not-On; against a concrete scan, Any on either side passes and
// On/Off must match exactly.
func triMatch(criteriaMode bool, want, got types.TriState) bool {
	if criteriaMode {
		switch want {
		case types.TriOn:
			return got == types.TriOn
		case types.TriOff:
			return got != types.TriOn
		default:
			return true
		}
	}
	if want == types.TriAny || got == types.TriAny {
		return true
	}
	return want == got
}

// resolution returns the mass resolution used for tolerance checks between
// the filter and the descriptor. It defaults to half the instrument filter
// resolution, widens to 0.4 for data-dependent scans and tightens for
// accurate, non-dependent matching.
func (m *Matcher) resolution(f *types.FilterExpression, d *types.ScanDescriptor) float64 {
	if d.Dependent == types.TriOn {
		return dependentResolution
	}
	precision := m.massPrecision
	if precision < 0 {
		precision = f.MassPrecision
	}
	if precision < 0 {
		precision = defaultMassPrecision
	}
	res := math.Pow(10, -float64(precision)) / 2
	if m.accurate {
		res /= accurateTighten
	}
	return res
}

// withinTol reports |a-b| <= tol, boundary inclusive.
func withinTol(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}
