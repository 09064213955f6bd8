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

// Package test provides in-memory scan sources for tests and examples.
package test

import (
	"fmt"
	"math"
	"sort"
	"sync/atomic"

	"github.com/chromago/chromago/api/types"
	"github.com/chromago/chromago/filter"
)

// MemoryScan is one pre-built scan of a MemorySource.
type MemoryScan struct {
	Header     types.ScanHeader
	Descriptor *types.ScanDescriptor
	Data       types.SampleData
}

// MemorySource is a scan source backed by a slice, implementing both
// ScanSource and BulkScanSource. Scans must be in ascending retention-time
// order.
type MemorySource struct {
	Scans []MemoryScan

	// FailAt, when >= 0, makes ReadScan and ReadScans fail for that scan
	// index. Used to exercise error paths.
	FailAt int

	headerReads int64
	scanReads   int64
	bulkReads   int64
}

// NewMemorySource creates a source over pre-built scans.
func NewMemorySource(scans []MemoryScan) *MemorySource {
	return &MemorySource{Scans: scans, FailAt: -1}
}

func (s *MemorySource) ScanCount() int {
	return len(s.Scans)
}

func (s *MemorySource) ScanHeader(index int) (types.ScanHeader, error) {
	atomic.AddInt64(&s.headerReads, 1)
	if index < 0 || index >= len(s.Scans) {
		return types.ScanHeader{}, fmt.Errorf("scan index %d out of range", index)
	}
	return s.Scans[index].Header, nil
}

func (s *MemorySource) ResolveScanRange(rtLow, rtHigh float64) (int, int, error) {
	start := sort.Search(len(s.Scans), func(i int) bool {
		return s.Scans[i].Header.RetentionTime >= rtLow
	})
	end := sort.Search(len(s.Scans), func(i int) bool {
		return s.Scans[i].Header.RetentionTime > rtHigh
	})
	return start, end, nil
}

func (s *MemorySource) ReadScan(header types.ScanHeader) (types.SampleData, error) {
	atomic.AddInt64(&s.scanReads, 1)
	if header.Index == s.FailAt {
		return types.SampleData{}, fmt.Errorf("simulated read failure at scan %d", header.Index)
	}
	return s.Scans[header.Index].Data, nil
}

func (s *MemorySource) ReadScans(headers []types.ScanHeader) ([]types.SampleData, error) {
	atomic.AddInt64(&s.bulkReads, 1)
	out := make([]types.SampleData, len(headers))
	for i, h := range headers {
		data, err := s.ReadScan(h)
		if err != nil {
			return nil, err
		}
		out[i] = data
	}
	return out, nil
}

func (s *MemorySource) DescriptorForScan(header types.ScanHeader) (*types.ScanDescriptor, error) {
	return s.Scans[header.Index].Descriptor, nil
}

func (s *MemorySource) ParseFilter(text string) (*types.FilterExpression, error) {
	return filter.Parse(text)
}

// HeaderReads returns how many single-header reads were served.
func (s *MemorySource) HeaderReads() int64 { return atomic.LoadInt64(&s.headerReads) }

// ScanReads returns how many single-scan reads were served.
func (s *MemorySource) ScanReads() int64 { return atomic.LoadInt64(&s.scanReads) }

// BulkReads returns how many bulk reads were served.
func (s *MemorySource) BulkReads() int64 { return atomic.LoadInt64(&s.bulkReads) }

var _ types.ScanSource = (*MemorySource)(nil)
var _ types.BulkScanSource = (*MemorySource)(nil)

// SimulatedRun builds a run of count scans alternating a full MS1 survey
// scan and a dependent MS2 scan on the given precursor, with a gaussian
// elution peak centered mid-run. Retention times advance by rtStep minutes.
func SimulatedRun(count int, precursor float64, rtStep float64) *MemorySource {
	scans := make([]MemoryScan, count)
	center := float64(count) / 2
	width := float64(count) / 8
	for i := 0; i < count; i++ {
		elution := math.Exp(-((float64(i) - center) * (float64(i) - center)) / (2 * width * width))
		header := types.ScanHeader{
			Index:         i,
			ScanNumber:    i + 1,
			RetentionTime: float64(i) * rtStep,
			Segment:       0,
			Event:         i % 2,
		}
		if i%2 == 0 {
			scans[i] = MemoryScan{
				Header: header,
				Descriptor: &types.ScanDescriptor{
					Order:      types.Ms,
					Polarity:   types.PolarityPositive,
					Analyzer:   types.AnalyzerFTMS,
					DataType:   types.DataProfile,
					Mode:       types.ScanModeFull,
					MassRanges: []types.Range{{Low: 200, High: 2000}},
					Fixed:      true,
				},
				Data: types.SampleData{
					Masses:      []float64{precursor - 1, precursor, precursor + 1},
					Intensities: []float64{elution * 1e5, elution * 1e6, elution * 2e5},
				},
			}
		} else {
			scans[i] = MemoryScan{
				Header: header,
				Descriptor: &types.ScanDescriptor{
					Order:     types.Ms2,
					Polarity:  types.PolarityPositive,
					Analyzer:  types.AnalyzerFTMS,
					DataType:  types.DataCentroid,
					Mode:      types.ScanModeFull,
					Dependent: types.TriOn,
					Stages: []types.MsStage{{Reactions: []types.Reaction{{
						PrecursorMass:   precursor,
						PrecursorValid:  true,
						Activation:      types.ActivationHCD,
						CollisionEnergy: 28,
						EnergyValid:     true,
					}}}},
					MassRanges: []types.Range{{Low: 100, High: 1060}},
				},
				Data: types.SampleData{
					Masses:      []float64{precursor / 2, precursor / 2 * 1.5},
					Intensities: []float64{elution * 5e4, elution * 3e4},
				},
			}
		}
	}
	return NewMemorySource(scans)
}
