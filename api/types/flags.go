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

// SubFlag identifies one of the single-letter acquisition sub-flags that may
// appear in a filter string. Lower-case letters occupy bits 0..25, upper-case
// letters bits 26..51.
type SubFlag uint8

const (
	FlagLowerA SubFlag = iota
	FlagLowerB
	FlagLowerC
	FlagLowerD
	FlagLowerE
	FlagLowerF
	FlagLowerG
	FlagLowerH
	FlagLowerI
	FlagLowerJ
	FlagLowerK
	FlagLowerL
	FlagLowerM
	FlagLowerN
	FlagLowerO
	FlagLowerP
	FlagLowerQ
	FlagLowerR
	FlagLowerS
	FlagLowerT
	FlagLowerU
	FlagLowerV
	FlagLowerW
	FlagLowerX
	FlagLowerY
	FlagLowerZ
	FlagUpperA
	FlagUpperB
	FlagUpperC
	FlagUpperD
	FlagUpperE
	FlagUpperF
	FlagUpperG
	FlagUpperH
	FlagUpperI
	FlagUpperJ
	FlagUpperK
	FlagUpperL
	FlagUpperM
	FlagUpperN
	FlagUpperO
	FlagUpperP
	FlagUpperQ
	FlagUpperR
	FlagUpperS
	FlagUpperT
	FlagUpperU
	FlagUpperV
	FlagUpperW
	FlagUpperX
	FlagUpperY
	FlagUpperZ

	subFlagCount
)

// SubFlagFromLetter maps a filter-string letter to its flag id.
func SubFlagFromLetter(ch byte) (SubFlag, bool) {
	switch {
	case ch >= 'a' && ch <= 'z':
		return FlagLowerA + SubFlag(ch-'a'), true
	case ch >= 'A' && ch <= 'Z':
		return FlagUpperA + SubFlag(ch-'A'), true
	default:
		return 0, false
	}
}

// Letter returns the filter-string spelling of the flag.
func (f SubFlag) Letter() byte {
	if f >= FlagUpperA {
		return 'A' + byte(f-FlagUpperA)
	}
	return 'a' + byte(f)
}

// FlagSet packs all single-letter sub-flags into two masks: the flag values
// and whether each flag was explicitly set. An unset flag reads as TriAny.
type FlagSet struct {
	values uint64
	set    uint64
}

// Set records an explicit flag value.
func (s *FlagSet) Set(flag SubFlag, on bool) {
	bit := uint64(1) << flag
	s.set |= bit
	if on {
		s.values |= bit
	} else {
		s.values &^= bit
	}
}

// Clear removes the flag from the set mask; it reads as TriAny afterwards.
func (s *FlagSet) Clear(flag SubFlag) {
	bit := uint64(1) << flag
	s.set &^= bit
	s.values &^= bit
}

// IsSet reports whether the flag was explicitly set.
func (s FlagSet) IsSet(flag SubFlag) bool {
	return s.set&(uint64(1)<<flag) != 0
}

// State returns the flag as a tri-state: TriAny when never set.
func (s FlagSet) State(flag SubFlag) TriState {
	bit := uint64(1) << flag
	if s.set&bit == 0 {
		return TriAny
	}
	if s.values&bit != 0 {
		return TriOn
	}
	return TriOff
}

// Empty reports whether no flag was explicitly set.
func (s FlagSet) Empty() bool {
	return s.set == 0
}

// ForEachSet calls fn for every explicitly set flag in ascending order.
func (s FlagSet) ForEachSet(fn func(flag SubFlag, on bool)) {
	for f := SubFlag(0); f < subFlagCount; f++ {
		bit := uint64(1) << f
		if s.set&bit != 0 {
			fn(f, s.values&bit != 0)
		}
	}
}
