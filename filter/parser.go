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
	"fmt"
	"strconv"
	"strings"

	"github.com/chromago/chromago/api/types"
)

// ionization source tokens accepted (and not otherwise modeled) in filter
// strings, e.g. "FTMS + p NSI Full ms [200.00-2000.00]".
var ionizationTokens = map[string]bool{
	"NSI": true, "ESI": true, "APCI": true, "EI": true, "CI": true,
	"GD": true, "FAB": true, "TSP": true, "FD": true, "MALDI": true,
	"PD": true,
}

// Parse parses an instrument filter string into a filter expression.
// Malformed text fails with an error wrapping types.ErrInvalidFilterFormat.
//
// The grammar follows the instrument convention:
//
//	[analyzer] +|- [p|c] [ionization] [sid[=v]] [cv=v,...] [flags] [msx]
//	mode ms|msN|pr|cnl|cng [mass@act energy ...] [[low-high, ...]]
//
// A token starting with '@' selects the grouping (meta) form instead, e.g.
// "d msn @hcd,cid": any data-dependent MSn scan with an HCD or CID step.
func Parse(text string) (*types.FilterExpression, error) {
	p := &parser{text: text}
	f, err := p.parse()
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", types.ErrInvalidFilterFormat, text, err)
	}
	return f, nil
}

type parser struct {
	text      string
	precision int // max decimal digits seen in a mass
}

func (p *parser) parse() (*types.FilterExpression, error) {
	p.precision = -1
	f := types.NewWildcardFilter()
	f.Text = p.text

	body := strings.TrimSpace(p.text)
	if body == "" {
		return f, nil
	}

	// Mass ranges sit in trailing brackets.
	if i := strings.IndexByte(body, '['); i >= 0 {
		j := strings.LastIndexByte(body, ']')
		if j < i {
			return nil, fmt.Errorf("unclosed mass range bracket")
		}
		ranges, err := p.parseRanges(body[i+1 : j])
		if err != nil {
			return nil, err
		}
		f.MassRanges = ranges
		body = strings.TrimSpace(body[:i] + body[j+1:])
	}

	var (
		sidValues  []float64
		cvValues   []float64
		orderSeen  bool
		precursors []types.MsStage
		msnCount   int
	)

	tokens := strings.Fields(body)
	for idx := 0; idx < len(tokens); idx++ {
		tok := tokens[idx]
		switch {
		case tok == "+":
			f.Polarity = types.PolarityPositive
		case tok == "-":
			f.Polarity = types.PolarityNegative
		case tok == "p":
			f.DataType = types.DataProfile
		case tok == "c":
			f.DataType = types.DataCentroid
		case tok == "d":
			f.Dependent = types.TriOn
		case tok == "!d":
			f.Dependent = types.TriOff
		case tok == "w":
			f.Wideband = types.TriOn
		case tok == "!w":
			f.Wideband = types.TriOff
		case tok == "u":
			f.Ultra = types.TriOn
		case tok == "e":
			f.Enhanced = types.TriOn
		case tok == "k":
			f.Lock = types.TriOn
		case tok == "!k":
			f.Lock = types.TriOff
		case tok == "msx":
			f.Multiplex = types.TriOn
		case tok == "corona":
			f.Corona = types.TriOn
		case tok == "!corona":
			f.Corona = types.TriOff
		case tok == "sid" || strings.HasPrefix(tok, "sid="):
			f.SourceFragmentation = types.TriOn
			if strings.HasPrefix(tok, "sid=") {
				vals, err := p.parseValues(tok[len("sid="):])
				if err != nil {
					return nil, err
				}
				sidValues = vals
			}
		case strings.HasPrefix(tok, "cv="):
			f.CompensationVoltage = types.TriOn
			vals, err := p.parseValues(tok[len("cv="):])
			if err != nil {
				return nil, err
			}
			cvValues = vals
		case strings.HasPrefix(tok, "det="):
			v, err := p.parseMass(tok[len("det="):])
			if err != nil {
				return nil, err
			}
			f.Detector = types.DetectorValid
			f.DetectorValue = v
		case tok == "pr":
			f.Order = types.OrderParent
			orderSeen = true
		case tok == "cnl":
			f.Order = types.OrderNeutralLoss
			orderSeen = true
		case tok == "cng":
			f.Order = types.OrderNeutralGain
			orderSeen = true
		case tok == "msn":
			// Grouping form; an activation token must follow.
			msnCount = types.MaxOrder
			orderSeen = true
		case tok == "ms":
			f.Order = types.Ms
			orderSeen = true
		case strings.HasPrefix(tok, "ms") && len(tok) > 2 && tok[2] >= '1' && tok[2] <= '9':
			n, err := strconv.Atoi(tok[2:])
			if err != nil || n < 2 || n > types.MaxOrder {
				return nil, fmt.Errorf("bad ms order token %q", tok)
			}
			f.Order = types.MSOrder(n)
			orderSeen = true
		case strings.HasPrefix(tok, "@"):
			meta, err := p.parseMeta(tok[1:], msnCount, f.Dependent)
			if err != nil {
				return nil, err
			}
			f.Meta = meta
		case isAnalyzerToken(tok):
			f.Analyzer, _ = types.AnalyzerFromToken(tok)
		case isScanModeToken(tok):
			f.Mode, _ = types.ScanModeFromToken(tok)
		case ionizationTokens[tok]:
			// Source token, accepted but not constrained on.
		case looksLikePrecursor(tok):
			stage, err := p.parsePrecursor(tok)
			if err != nil {
				return nil, err
			}
			precursors = append(precursors, stage)
		case len(tok) == 1:
			if flag, ok := types.SubFlagFromLetter(tok[0]); ok {
				f.Flags.Set(flag, true)
			} else {
				return nil, fmt.Errorf("unknown token %q", tok)
			}
		case len(tok) == 2 && tok[0] == '!':
			if flag, ok := types.SubFlagFromLetter(tok[1]); ok {
				f.Flags.Set(flag, false)
			} else {
				return nil, fmt.Errorf("unknown token %q", tok)
			}
		default:
			return nil, fmt.Errorf("unknown token %q", tok)
		}
	}

	if msnCount != 0 && f.Meta == nil {
		return nil, fmt.Errorf("msn requires a grouping token")
	}

	if f.Meta != nil {
		if len(precursors) > 0 {
			return nil, fmt.Errorf("grouping filter cannot carry precursor steps")
		}
		// The grouping rule owns order and dependent checks.
		if f.Order >= types.Ms2 {
			f.Meta.MsnCount = int(f.Order)
			f.Order = types.OrderAny
		}
		f.Meta.Dependent = f.Dependent
		f.Dependent = types.TriAny
		return f, p.finish(f)
	}

	if len(precursors) > 0 {
		if !orderSeen {
			f.Order = types.MSOrder(len(precursors) + 1)
		}
		f.Stages = precursors
	}
	if orderSeen && f.Order >= types.Ms2 && f.Multiplex != types.TriOn &&
		len(precursors) != int(f.Order)-1 {
		return nil, fmt.Errorf("order %d requires %d precursor steps, have %d",
			f.Order, int(f.Order)-1, len(precursors))
	}

	// Shared value table: fragmentation-reserved slots first, then CV.
	if len(sidValues) > 0 || len(cvValues) > 0 {
		if f.SourceFragmentation == types.TriOn && len(sidValues) == 0 && len(cvValues) > 0 {
			return nil, fmt.Errorf("cv values require explicit sid values when sid is active")
		}
		f.SourceValues = append(sidValues, cvValues...)
		if f.SourceFragmentation == types.TriOn {
			ranges := make([]types.Range, len(sidValues))
			for i, v := range sidValues {
				ranges[i] = types.Range{Low: v, High: v}
			}
			f.SourceFragmentationRanges = ranges
		}
	}

	return f, p.finish(f)
}

func (p *parser) finish(f *types.FilterExpression) error {
	f.MassPrecision = p.precision
	return nil
}

// parseMeta parses the grouping token body, e.g. "hcd,cid".
func (p *parser) parseMeta(body string, msnCount int, dependent types.TriState) (*types.MetaFilter, error) {
	if body == "" {
		return nil, fmt.Errorf("empty grouping token")
	}
	meta := &types.MetaFilter{MsnCount: msnCount, Dependent: dependent}
	if meta.MsnCount == 0 {
		meta.MsnCount = types.MaxOrder
	}
	for _, name := range strings.Split(body, ",") {
		act, ok := types.ActivationFromToken(strings.ToLower(strings.TrimSpace(name)))
		if !ok {
			return nil, fmt.Errorf("unknown activation %q", name)
		}
		meta.Activations = append(meta.Activations, act)
	}
	return meta, nil
}

// looksLikePrecursor reports whether the token is a precursor step:
// "524.2648@hcd28.00", "697.86@etd50.00@hcd20.00" or a bare mass.
func looksLikePrecursor(tok string) bool {
	if tok == "" || (tok[0] < '0' || tok[0] > '9') {
		return false
	}
	for i := 0; i < len(tok); i++ {
		c := tok[i]
		if (c < '0' || c > '9') && c != '.' && c != '@' && !(c >= 'a' && c <= 'z') {
			return false
		}
	}
	return true
}

// parsePrecursor parses one precursor step into a stage. Multiple "@act"
// suffixes share the precursor and become a multiple-activation chain.
func (p *parser) parsePrecursor(tok string) (types.MsStage, error) {
	parts := strings.Split(tok, "@")
	mass, err := p.parseMass(parts[0])
	if err != nil {
		return types.MsStage{}, err
	}
	if len(parts) == 1 {
		return types.MsStage{Reactions: []types.Reaction{{
			PrecursorMass:  mass,
			PrecursorValid: true,
		}}}, nil
	}
	var reactions []types.Reaction
	for i, part := range parts[1:] {
		typeEnd := 0
		for typeEnd < len(part) && (part[typeEnd] < '0' || part[typeEnd] > '9') && part[typeEnd] != '.' {
			typeEnd++
		}
		act, ok := types.ActivationFromToken(part[:typeEnd])
		if !ok {
			return types.MsStage{}, fmt.Errorf("unknown activation %q", part[:typeEnd])
		}
		r := types.Reaction{
			PrecursorMass:      mass,
			PrecursorValid:     true,
			Activation:         act,
			MultipleActivation: i > 0,
		}
		if typeEnd < len(part) {
			energy, err := strconv.ParseFloat(part[typeEnd:], 64)
			if err != nil {
				return types.MsStage{}, fmt.Errorf("bad collision energy %q", part[typeEnd:])
			}
			r.CollisionEnergy = energy
			r.EnergyValid = true
		}
		reactions = append(reactions, r)
	}
	return types.MsStage{Reactions: reactions}, nil
}

// parseRanges parses "low-high, low-high, ...".
func (p *parser) parseRanges(body string) ([]types.Range, error) {
	var ranges []types.Range
	for _, part := range strings.Split(body, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		bounds := strings.Split(part, "-")
		if len(bounds) != 2 {
			return nil, fmt.Errorf("bad mass range %q", part)
		}
		low, err := p.parseMass(strings.TrimSpace(bounds[0]))
		if err != nil {
			return nil, err
		}
		high, err := p.parseMass(strings.TrimSpace(bounds[1]))
		if err != nil {
			return nil, err
		}
		if high < low {
			return nil, fmt.Errorf("inverted mass range %q", part)
		}
		ranges = append(ranges, types.Range{Low: low, High: high})
	}
	if len(ranges) == 0 {
		return nil, fmt.Errorf("empty mass range list")
	}
	return ranges, nil
}

func (p *parser) parseValues(body string) ([]float64, error) {
	var values []float64
	for _, part := range strings.Split(body, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, fmt.Errorf("bad numeric value %q", part)
		}
		values = append(values, v)
	}
	return values, nil
}

// parseMass parses a mass and tracks the widest decimal precision seen.
func (p *parser) parseMass(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("bad mass %q", s)
	}
	if i := strings.IndexByte(s, '.'); i >= 0 {
		if digits := len(s) - i - 1; digits > p.precision {
			p.precision = digits
		}
	}
	return v, nil
}

func isAnalyzerToken(tok string) bool {
	_, ok := types.AnalyzerFromToken(tok)
	return ok && tok != ""
}

func isScanModeToken(tok string) bool {
	_, ok := types.ScanModeFromToken(tok)
	return ok && tok != ""
}
