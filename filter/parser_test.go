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
	"errors"
	"testing"

	"github.com/chromago/chromago/api/types"
	"github.com/chromago/chromago/test/assert"
)

func TestParseFullMs(t *testing.T) {
	f, err := Parse("FTMS + p NSI Full ms [200.00-2000.00]")
	assert.Nil(t, err)
	assert.Equal(t, types.AnalyzerFTMS, f.Analyzer)
	assert.Equal(t, types.PolarityPositive, f.Polarity)
	assert.Equal(t, types.DataProfile, f.DataType)
	assert.Equal(t, types.ScanModeFull, f.Mode)
	assert.Equal(t, types.Ms, f.Order)
	assert.Equal(t, 1, len(f.MassRanges))
	assert.Equal(t, 200.0, f.MassRanges[0].Low)
	assert.Equal(t, 2000.0, f.MassRanges[0].High)
	assert.Equal(t, 2, f.MassPrecision)
	assert.Equal(t, "FTMS + p NSI Full ms [200.00-2000.00]", f.Text)
}

func TestParseDependentMs2(t *testing.T) {
	f, err := Parse("FTMS + c NSI d Full ms2 524.2648@hcd28.00 [100.0000-1060.0000]")
	assert.Nil(t, err)
	assert.Equal(t, types.TriOn, f.Dependent)
	assert.Equal(t, types.DataCentroid, f.DataType)
	assert.Equal(t, types.Ms2, f.Order)
	assert.Equal(t, 1, len(f.Stages))
	assert.Equal(t, 1, len(f.Stages[0].Reactions))
	r := f.Stages[0].Reactions[0]
	assert.Equal(t, 524.2648, r.PrecursorMass)
	assert.True(t, r.PrecursorValid)
	assert.Equal(t, types.ActivationHCD, r.Activation)
	assert.Equal(t, 28.0, r.CollisionEnergy)
	assert.True(t, r.EnergyValid)
	assert.False(t, r.MultipleActivation)
	assert.Equal(t, 4, f.MassPrecision)
}

func TestParseMs3(t *testing.T) {
	f, err := Parse("ITMS + c NSI d Full ms3 500.30@cid30.00 400.20@hcd20.00 [100.00-1000.00]")
	assert.Nil(t, err)
	assert.Equal(t, types.Ms3, f.Order)
	assert.Equal(t, 2, len(f.Stages))
	assert.Equal(t, 500.3, f.Stages[0].PrecursorMass())
	assert.Equal(t, 400.2, f.Stages[1].PrecursorMass())
	assert.Equal(t, types.ActivationCID, f.Stages[0].Reactions[0].Activation)
	assert.Equal(t, types.ActivationHCD, f.Stages[1].Reactions[0].Activation)
}

func TestParseImplicitOrder(t *testing.T) {
	// Without an explicit msN token the order follows the precursor count.
	f, err := Parse("Full 524.2648@hcd28.00")
	assert.Nil(t, err)
	assert.Equal(t, types.Ms2, f.Order)
	assert.Equal(t, 1, len(f.Stages))
}

func TestParseMultipleActivation(t *testing.T) {
	f, err := Parse("+ c NSI d Full ms2 697.86@etd50.00@hcd20.00")
	assert.Nil(t, err)
	assert.Equal(t, 1, len(f.Stages))
	assert.Equal(t, 2, len(f.Stages[0].Reactions))
	first, second := f.Stages[0].Reactions[0], f.Stages[0].Reactions[1]
	assert.Equal(t, types.ActivationETD, first.Activation)
	assert.False(t, first.MultipleActivation)
	assert.Equal(t, types.ActivationHCD, second.Activation)
	assert.True(t, second.MultipleActivation)
	assert.Equal(t, 697.86, second.PrecursorMass)
}

func TestParseSRM(t *testing.T) {
	f, err := Parse("+ p NSI SRM ms2 524.26@cid30.00 [163.00-165.00, 261.00-263.00]")
	assert.Nil(t, err)
	assert.Equal(t, types.ScanModeSRM, f.Mode)
	assert.Equal(t, 2, len(f.MassRanges))
	assert.Equal(t, 163.0, f.MassRanges[0].Low)
	assert.Equal(t, 263.0, f.MassRanges[1].High)
}

func TestParseSourceFragmentation(t *testing.T) {
	f, err := Parse("FTMS + p NSI sid=35.00 Full ms [300.00-1700.00]")
	assert.Nil(t, err)
	assert.Equal(t, types.TriOn, f.SourceFragmentation)
	assert.Equal(t, 1, len(f.SourceValues))
	assert.Equal(t, 35.0, f.SourceValues[0])
	assert.Equal(t, 1, len(f.SourceFragmentationRanges))
	assert.Equal(t, 35.0, f.SourceFragmentationRanges[0].Low)
}

func TestParseCompensationVoltage(t *testing.T) {
	f, err := Parse("FTMS + p NSI cv=-40.00 Full ms [300.00-1700.00]")
	assert.Nil(t, err)
	assert.Equal(t, types.TriOn, f.CompensationVoltage)
	assert.Equal(t, 1, len(f.SourceValues))
	assert.Equal(t, -40.0, f.SourceValues[0])
	// Without sid the whole table is CV values.
	assert.Equal(t, 1, len(f.CompensationVoltageValues()))
	assert.Equal(t, -40.0, f.CompensationVoltageValues()[0])
}

func TestParseFlagsAndToggles(t *testing.T) {
	f, err := Parse("ITMS + c NSI !d w !k r Z ms [100.00-400.00]")
	assert.Nil(t, err)
	assert.Equal(t, types.TriOff, f.Dependent)
	assert.Equal(t, types.TriOn, f.Wideband)
	assert.Equal(t, types.TriOff, f.Lock)
	assert.Equal(t, types.ScanModeZoom, f.Mode)
	flag, ok := types.SubFlagFromLetter('r')
	assert.True(t, ok)
	assert.Equal(t, types.TriOn, f.Flags.State(flag))
}

func TestParseNegativeFlag(t *testing.T) {
	f, err := Parse("- p NSI !s Full ms")
	assert.Nil(t, err)
	assert.Equal(t, types.PolarityNegative, f.Polarity)
	flag, _ := types.SubFlagFromLetter('s')
	assert.Equal(t, types.TriOff, f.Flags.State(flag))
}

func TestParseMetaFilter(t *testing.T) {
	f, err := Parse("d msn @hcd,cid")
	assert.Nil(t, err)
	assert.NotNil(t, f.Meta)
	assert.Equal(t, types.TriOn, f.Meta.Dependent)
	assert.Equal(t, types.MaxOrder, f.Meta.MsnCount)
	assert.Equal(t, 2, len(f.Meta.Activations))
	// The grouping rule owns the order and dependent checks.
	assert.Equal(t, types.OrderAny, f.Order)
	assert.Equal(t, types.TriAny, f.Dependent)
}

func TestParseMetaFilterBoundedOrder(t *testing.T) {
	f, err := Parse("d ms3 @etd")
	assert.Nil(t, err)
	assert.NotNil(t, f.Meta)
	assert.Equal(t, 3, f.Meta.MsnCount)
	assert.Equal(t, types.OrderAny, f.Order)
}

func TestParseEmpty(t *testing.T) {
	f, err := Parse("")
	assert.Nil(t, err)
	assert.Equal(t, types.OrderAny, f.Order)
	assert.Equal(t, 0, len(f.Stages))
}

func TestParseErrors(t *testing.T) {
	cases := []string{
		"FTMS + p Full ms [100.00-200.00",     // unclosed bracket
		"FTMS + p Full ms [200.00-100.00]",    // inverted range
		"FTMS + p Full ms []",                 // empty range list
		"ms2",                                 // missing precursor step
		"ms2 500.00@xyz30.00",                 // unknown activation
		"ms11 500.00@cid30.00",                // order out of range
		"bogus ms",                            // unknown token
		"d msn @",                             // empty grouping token
		"d msn",                               // msn without grouping token
		"msn 500.00@cid30.00",                 // msn outside the grouping form
		"d msn @hcd 500.00@cid30.00",          // grouping with precursor step
		"FTMS + p Full ms2 500.00 600.00",     // too many precursors for ms2
	}
	for _, text := range cases {
		_, err := Parse(text)
		assert.NotNil(t, err, text)
		assert.True(t, errors.Is(err, types.ErrInvalidFilterFormat), text)
	}
}

func TestParsePrecisionTracksWidestMass(t *testing.T) {
	f, err := Parse("ms2 524.2@hcd28.00 [100.0000-1060.0000]")
	assert.Nil(t, err)
	assert.Equal(t, 4, f.MassPrecision)
}
