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

package types

import (
	"errors"
	"fmt"
)

// TriState is a ternary flag for optional filter criteria. Any is the zero
// value and acts as a wildcard in filter expressions.
type TriState int8

const (
	TriAny TriState = iota
	TriOn
	TriOff
)

// String returns the filter-string spelling of the flag state.
func (t TriState) String() string {
	switch t {
	case TriOn:
		return "on"
	case TriOff:
		return "off"
	default:
		return "any"
	}
}

// Polarity is the ion polarity of a scan.
type Polarity int8

const (
	PolarityAny Polarity = iota
	PolarityPositive
	PolarityNegative
)

func (p Polarity) String() string {
	switch p {
	case PolarityPositive:
		return "+"
	case PolarityNegative:
		return "-"
	default:
		return ""
	}
}

// MSOrder is the MS stage count of a scan. Positive values 1..10 are MSn
// orders; negative values are the special parent/neutral scan types.
type MSOrder int8

const (
	OrderNeutralGain MSOrder = -3
	OrderNeutralLoss MSOrder = -2
	OrderParent      MSOrder = -1
	OrderAny         MSOrder = 0
	Ms               MSOrder = 1
	Ms2              MSOrder = 2
	Ms3              MSOrder = 3
	Ms4              MSOrder = 4
	Ms5              MSOrder = 5
	Ms6              MSOrder = 6
	Ms7              MSOrder = 7
	Ms8              MSOrder = 8
	Ms9              MSOrder = 9
	Ms10             MSOrder = 10
)

// MaxOrder is the largest supported MSn order.
const MaxOrder = 10

func (o MSOrder) String() string {
	switch {
	case o == OrderNeutralGain:
		return "ng"
	case o == OrderNeutralLoss:
		return "nl"
	case o == OrderParent:
		return "par"
	case o == Ms:
		return "ms"
	case o >= Ms2 && o <= Ms10:
		return fmt.Sprintf("ms%d", int(o))
	default:
		return ""
	}
}

// ActivationType is the fragmentation/activation technique of a reaction.
type ActivationType int8

const (
	ActivationAny ActivationType = iota
	ActivationCID
	ActivationHCD
	ActivationETD
	ActivationECD
	ActivationEID
	ActivationMPD
	ActivationPQD
	ActivationUVPD
	ActivationNETD
	ActivationPTR
	ActivationSA
)

var activationNames = map[ActivationType]string{
	ActivationCID:  "cid",
	ActivationHCD:  "hcd",
	ActivationETD:  "etd",
	ActivationECD:  "ecd",
	ActivationEID:  "eid",
	ActivationMPD:  "mpd",
	ActivationPQD:  "pqd",
	ActivationUVPD: "uvpd",
	ActivationNETD: "netd",
	ActivationPTR:  "ptr",
	ActivationSA:   "sa",
}

func (a ActivationType) String() string {
	if s, ok := activationNames[a]; ok {
		return s
	}
	return ""
}

// ActivationFromToken resolves a lower-case filter-string token.
func ActivationFromToken(token string) (ActivationType, bool) {
	for k, v := range activationNames {
		if v == token {
			return k, true
		}
	}
	return ActivationAny, false
}

// MassAnalyzer is the analyzer that recorded the scan.
type MassAnalyzer int8

const (
	AnalyzerAny MassAnalyzer = iota
	AnalyzerITMS
	AnalyzerTQMS
	AnalyzerSQMS
	AnalyzerTOFMS
	AnalyzerFTMS
	AnalyzerSector
	AnalyzerASTMS
)

var analyzerNames = map[MassAnalyzer]string{
	AnalyzerITMS:   "ITMS",
	AnalyzerTQMS:   "TQMS",
	AnalyzerSQMS:   "SQMS",
	AnalyzerTOFMS:  "TOFMS",
	AnalyzerFTMS:   "FTMS",
	AnalyzerSector: "Sector",
	AnalyzerASTMS:  "ASTMS",
}

func (m MassAnalyzer) String() string {
	if s, ok := analyzerNames[m]; ok {
		return s
	}
	return ""
}

// AnalyzerFromToken resolves a filter-string analyzer token.
func AnalyzerFromToken(token string) (MassAnalyzer, bool) {
	for k, v := range analyzerNames {
		if v == token {
			return k, true
		}
	}
	return AnalyzerAny, false
}

// DetectorType states whether the detector value of a scan is meaningful.
type DetectorType int8

const (
	DetectorAny DetectorType = iota
	DetectorValid
)

// ScanDataType is the peak representation of a scan.
type ScanDataType int8

const (
	DataAny ScanDataType = iota
	DataCentroid
	DataProfile
)

func (d ScanDataType) String() string {
	switch d {
	case DataCentroid:
		return "c"
	case DataProfile:
		return "p"
	default:
		return ""
	}
}

// ScanMode is the acquisition mode of a scan.
type ScanMode int8

const (
	ScanModeAny ScanMode = iota
	ScanModeFull
	ScanModeSIM
	ScanModeSRM
	ScanModeCRM
	ScanModeZoom
	ScanModeQ1MS
	ScanModeQ3MS
)

var scanModeNames = map[ScanMode]string{
	ScanModeFull: "Full",
	ScanModeSIM:  "SIM",
	ScanModeSRM:  "SRM",
	ScanModeCRM:  "CRM",
	ScanModeZoom: "Z",
	ScanModeQ1MS: "Q1MS",
	ScanModeQ3MS: "Q3MS",
}

func (m ScanMode) String() string {
	if s, ok := scanModeNames[m]; ok {
		return s
	}
	return ""
}

// ScanModeFromToken resolves a filter-string scan-mode token.
func ScanModeFromToken(token string) (ScanMode, bool) {
	for k, v := range scanModeNames {
		if v == token {
			return k, true
		}
	}
	return ScanModeAny, false
}

// AccurateMassMode states how accurate-mass calibration was applied.
type AccurateMassMode int8

const (
	AccurateMassAny AccurateMassMode = iota
	AccurateMassOff
	AccurateMassInternal
	AccurateMassExternal
)

// Reaction is one MS/MS activation step: precursor mass, collision energy,
// activation technique and isolation geometry. MultipleActivation is set on
// every reaction after the first in a chain sharing the same precursor.
type Reaction struct {
	PrecursorMass      float64
	PrecursorValid     bool
	CollisionEnergy    float64
	EnergyValid        bool
	Activation         ActivationType
	IsolationWidth     float64
	IsolationOffset    float64
	MultipleActivation bool
}

// MsStage is one MSn stage: an ordered list of at least one reaction.
type MsStage struct {
	Reactions []Reaction
}

// PrecursorMass returns the stage precursor, the first reaction's mass.
func (s MsStage) PrecursorMass() float64 {
	if len(s.Reactions) == 0 {
		return 0
	}
	return s.Reactions[0].PrecursorMass
}

// MetaFilter is a grouping filter token: a set of activation techniques
// (any member may appear anywhere in the descriptor) plus an MSn-count
// threshold and an optional dependent-flag requirement.
type MetaFilter struct {
	Activations []ActivationType
	MsnCount    int
	Dependent   TriState
}

// ScanDescriptor is the filter-shaped description of one scan's acquisition
// parameters. The same shape serves as a filter expression (see
// FilterExpression); in a filter, zero values act as wildcards. Instances
// are immutable once constructed and are read concurrently.
type ScanDescriptor struct {
	Order    MSOrder
	Polarity Polarity
	Analyzer MassAnalyzer

	Detector      DetectorType
	DetectorValue float64

	DataType ScanDataType
	Mode     ScanMode

	Dependent           TriState
	Wideband            TriState
	Multiplex           TriState
	Corona              TriState
	Lock                TriState
	Ultra               TriState
	Enhanced            TriState
	SourceFragmentation TriState
	CompensationVoltage TriState

	// Flags holds the single-letter sub-flags as one bit-set with a value
	// mask and a was-explicitly-set mask.
	Flags FlagSet

	// Stages holds the MSn stages; order N>=2 with Multiplex != TriOn
	// implies exactly N-1 stages.
	Stages []MsStage

	// MassRanges are the scanned mass intervals, ordered by Low.
	MassRanges []Range

	// SourceFragmentationRanges are the SID mass intervals.
	SourceFragmentationRanges []Range

	// SourceValues is the shared numeric table for source-fragmentation and
	// compensation-voltage values. When source fragmentation is active the
	// CV values start after the fragmentation-reserved slots.
	SourceValues []float64

	ScanTypeIndex int
	AccurateMass  AccurateMassMode

	// CompoundName is the method compound label, used by name selection.
	CompoundName string

	// Fixed marks a non-data-dependent method event whose match outcome is
	// stable per (segment, event) and may be cached.
	Fixed bool
}

// ErrInvalidDescriptor is returned by Validate for a descriptor violating
// the stage/reaction invariants.
var ErrInvalidDescriptor = errors.New("invalid scan descriptor")

// Validate checks the structural invariants: order N>=2 without multiplex
// requires exactly N-1 stages, every stage has at least one reaction, the
// first reaction of a stage has MultipleActivation unset and later ones set.
func (d *ScanDescriptor) Validate() error {
	if d.Order >= Ms2 && d.Multiplex != TriOn {
		if len(d.Stages) != int(d.Order)-1 {
			return fmt.Errorf("%w: order %d requires %d stages, have %d",
				ErrInvalidDescriptor, d.Order, int(d.Order)-1, len(d.Stages))
		}
	}
	for i, stage := range d.Stages {
		if len(stage.Reactions) == 0 {
			return fmt.Errorf("%w: stage %d has no reactions", ErrInvalidDescriptor, i)
		}
		for j, r := range stage.Reactions {
			if j == 0 && r.MultipleActivation {
				return fmt.Errorf("%w: stage %d first reaction has multiple activation set",
					ErrInvalidDescriptor, i)
			}
			if j > 0 && !r.MultipleActivation {
				return fmt.Errorf("%w: stage %d reaction %d missing multiple activation",
					ErrInvalidDescriptor, i, j)
			}
		}
	}
	return nil
}

// CompensationVoltageValues returns the CV slice of the shared value table,
// skipping the source-fragmentation-reserved slots when SID is active.
func (d *ScanDescriptor) CompensationVoltageValues() []float64 {
	offset := 0
	if d.SourceFragmentation == TriOn {
		offset = len(d.SourceFragmentationRanges)
		if offset == 0 {
			offset = len(d.Stages)
		}
	}
	if offset >= len(d.SourceValues) {
		return nil
	}
	return d.SourceValues[offset:]
}

// SourceFragmentationValues returns the SID slice of the shared value table.
func (d *ScanDescriptor) SourceFragmentationValues() []float64 {
	if d.SourceFragmentation != TriOn {
		return nil
	}
	n := len(d.SourceFragmentationRanges)
	if n == 0 {
		n = len(d.Stages)
	}
	if n > len(d.SourceValues) {
		n = len(d.SourceValues)
	}
	return d.SourceValues[:n]
}

// FilterExpression is a ScanDescriptor in its filter role, plus matching
// metadata. Zero-valued fields are wildcards. Immutable once built.
type FilterExpression struct {
	ScanDescriptor

	// CriteriaMode marks a filter derived from another filter rather than
	// from a scan; tri-state comparison is stricter in that mode.
	CriteriaMode bool

	// Meta, when set, makes this a grouping filter (CID/HCD/ETD/... plus an
	// MSn-count threshold) instead of a field-by-field expression.
	Meta *MetaFilter

	// MassPrecision is the decimal-digit precision masses were written
	// with; < 0 means unknown (derive from configuration).
	MassPrecision int

	// Text is the original filter string, when parsed from one.
	Text string
}

// NewWildcardFilter returns a filter with no active criteria; it matches
// every descriptor.
func NewWildcardFilter() *FilterExpression {
	return &FilterExpression{MassPrecision: -1}
}

// FromDescriptor builds a filter expression constraining exactly the fields
// of the given descriptor. Matches(d, FromDescriptor(d)) is always true.
func FromDescriptor(d *ScanDescriptor) *FilterExpression {
	f := &FilterExpression{MassPrecision: -1}
	f.ScanDescriptor = *d
	f.ScanDescriptor.Stages = append([]MsStage(nil), d.Stages...)
	f.ScanDescriptor.MassRanges = append([]Range(nil), d.MassRanges...)
	f.ScanDescriptor.SourceFragmentationRanges = append([]Range(nil), d.SourceFragmentationRanges...)
	f.ScanDescriptor.SourceValues = append([]float64(nil), d.SourceValues...)
	return f
}
