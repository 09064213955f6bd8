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

package signal

import "math"

// BuildGrid returns a uniform retention-time grid from start to end with the
// given spacing in minutes.
func BuildGrid(start, end, resolution float64) []float64 {
	n := int(math.Ceil((end-start)/resolution)) + 1
	grid := make([]float64, n)
	for i := range grid {
		grid[i] = start + float64(i)*resolution
	}
	return grid
}

// Resample linearly interpolates a trace onto grid points, writing into out
// (len(out) == len(grid)). Both the source and the grid are ascending, so a
// sliding source index avoids per-point binary searches. Grid points outside
// the source range get 0 (no extrapolation).
func Resample(rt, intensity, grid, out []float64) {
	if len(rt) == 0 || len(intensity) == 0 {
		for i := range out {
			out[i] = 0
		}
		return
	}
	n := len(rt)
	j := 0
	for i, t := range grid {
		if t < rt[0] || t > rt[n-1] {
			out[i] = 0
			continue
		}
		for j+1 < n && rt[j+1] < t {
			j++
		}
		if j+1 >= n {
			out[i] = intensity[n-1]
			continue
		}
		dt := rt[j+1] - rt[j]
		if dt <= 0 {
			out[i] = intensity[j]
			continue
		}
		frac := (t - rt[j]) / dt
		out[i] = intensity[j] + frac*(intensity[j+1]-intensity[j])
	}
}
