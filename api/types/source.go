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

import "errors"

// ErrInvalidFilterFormat is returned when a filter string cannot be parsed.
var ErrInvalidFilterFormat = errors.New("invalid filter format")

// ErrNoScanSource is returned when a pipeline is used without a source.
var ErrNoScanSource = errors.New("no scan source configured")

// ScanSource is the raw scan collaborator consumed by the pipeline. It is
// injected once at construction; the pipeline's single producer goroutine is
// the only caller of ReadScan/ReadScans. Implementations own raw-file
// decoding, which is outside this library.
type ScanSource interface {
	// ScanCount returns the number of scans in the run.
	ScanCount() int
	// ScanHeader returns the header of the scan at the given index.
	ScanHeader(index int) (ScanHeader, error)
	// ResolveScanRange maps a retention-time interval to the half-open
	// scan-index range [start, end) covering it.
	ResolveScanRange(rtLow, rtHigh float64) (start, end int, err error)
	// ReadScan decodes the sample data of one scan.
	ReadScan(header ScanHeader) (SampleData, error)
	// DescriptorForScan returns the filter-shaped descriptor of one scan.
	DescriptorForScan(header ScanHeader) (*ScanDescriptor, error)
	// ParseFilter parses an instrument filter string. Malformed text fails
	// with an error wrapping ErrInvalidFilterFormat.
	ParseFilter(text string) (*FilterExpression, error)
}

// BulkScanSource is the optional vectorized read path. Sources that can
// decode a batch in one call implement it; the scan window uses it when
// read-ahead is enabled.
type BulkScanSource interface {
	ScanSource
	// ReadScans decodes sample data for all headers, in order.
	ReadScans(headers []ScanHeader) ([]SampleData, error)
}
