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
	"testing"

	"github.com/chromago/chromago/test/assert"
)

func TestValidateStageCount(t *testing.T) {
	d := &ScanDescriptor{Order: Ms3}
	err := d.Validate()
	assert.NotNil(t, err)
	assert.True(t, errors.Is(err, ErrInvalidDescriptor))

	d.Stages = []MsStage{
		{Reactions: []Reaction{{PrecursorMass: 500, PrecursorValid: true}}},
		{Reactions: []Reaction{{PrecursorMass: 400, PrecursorValid: true}}},
	}
	assert.Nil(t, d.Validate())
}

func TestValidateMultiplexRelaxesStageCount(t *testing.T) {
	d := &ScanDescriptor{
		Order:     Ms2,
		Multiplex: TriOn,
		Stages: []MsStage{
			{Reactions: []Reaction{{PrecursorMass: 500, PrecursorValid: true}}},
			{Reactions: []Reaction{{PrecursorMass: 600, PrecursorValid: true}}},
			{Reactions: []Reaction{{PrecursorMass: 700, PrecursorValid: true}}},
		},
	}
	assert.Nil(t, d.Validate())
}

func TestValidateEmptyStage(t *testing.T) {
	d := &ScanDescriptor{Order: Ms2, Stages: []MsStage{{}}}
	assert.NotNil(t, d.Validate())
}

func TestValidateMultipleActivationOrder(t *testing.T) {
	d := &ScanDescriptor{
		Order: Ms2,
		Stages: []MsStage{{Reactions: []Reaction{
			{PrecursorMass: 500, MultipleActivation: true},
		}}},
	}
	assert.NotNil(t, d.Validate())

	d2 := &ScanDescriptor{
		Order: Ms2,
		Stages: []MsStage{{Reactions: []Reaction{
			{PrecursorMass: 500},
			{PrecursorMass: 500},
		}}},
	}
	assert.NotNil(t, d2.Validate())
}

func TestSharedSourceValueTable(t *testing.T) {
	d := &ScanDescriptor{
		SourceFragmentation:       TriOn,
		CompensationVoltage:       TriOn,
		SourceFragmentationRanges: []Range{{Low: 35, High: 35}},
		SourceValues:              []float64{35, -40},
	}
	assert.Equal(t, []float64{35}, d.SourceFragmentationValues())
	assert.Equal(t, []float64{-40}, d.CompensationVoltageValues())
}

func TestSourceValueTableWithoutSid(t *testing.T) {
	d := &ScanDescriptor{
		CompensationVoltage: TriOn,
		SourceValues:        []float64{-40, -60},
	}
	assert.Nil(t, d.SourceFragmentationValues())
	assert.Equal(t, []float64{-40, -60}, d.CompensationVoltageValues())
}

func TestFromDescriptorCopiesSlices(t *testing.T) {
	d := &ScanDescriptor{
		Order:      Ms2,
		Stages:     []MsStage{{Reactions: []Reaction{{PrecursorMass: 500, PrecursorValid: true}}}},
		MassRanges: []Range{{Low: 100, High: 200}},
	}
	f := FromDescriptor(d)
	d.MassRanges[0].Low = 999
	assert.Equal(t, 100.0, f.MassRanges[0].Low)
}

func TestMSOrderString(t *testing.T) {
	assert.Equal(t, "ms", Ms.String())
	assert.Equal(t, "ms2", Ms2.String())
	assert.Equal(t, "ms10", Ms10.String())
	assert.Equal(t, "", OrderAny.String())
}

func TestTokenRoundTrips(t *testing.T) {
	a, ok := ActivationFromToken("hcd")
	assert.True(t, ok)
	assert.Equal(t, ActivationHCD, a)
	assert.Equal(t, "hcd", a.String())

	_, ok = ActivationFromToken("bogus")
	assert.False(t, ok)

	an, ok := AnalyzerFromToken("FTMS")
	assert.True(t, ok)
	assert.Equal(t, AnalyzerFTMS, an)

	mo, ok := ScanModeFromToken("SRM")
	assert.True(t, ok)
	assert.Equal(t, ScanModeSRM, mo)
}

func TestRange(t *testing.T) {
	r := Range{Low: 100, High: 200}
	assert.True(t, r.Contains(100))
	assert.True(t, r.Contains(200))
	assert.False(t, r.Contains(99.999))
	assert.Equal(t, 100.0, r.Width())
	assert.True(t, r.Less(Range{Low: 150}))
}
