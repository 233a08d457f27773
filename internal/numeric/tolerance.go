// Package numeric normalizes numeric phrasing between claims and evidence
// before stance classification. A claim hedged with "roughly" must not read
// as contradicted by evidence whose figure is within tolerance of the
// claimed one; the decision engine relies on this happening upstream and
// never re-derives stricter numeric equality.
package numeric

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Figure is one numeric quantity found in text
type Figure struct {
	Value    float64
	Currency string // "$", "€", "£" or ""
	Percent  bool
	Raw      string // the matched source text
	Start    int    // byte offsets into the source
	End      int
}

var (
	approxQualifier  = regexp.MustCompile(`(?i)\b(roughly|about|approximately|around|nearly|almost|circa|an estimated|close to)\b`)
	preciseQualifier = regexp.MustCompile(`(?i)\b(exactly|precisely)\b`)

	figurePattern = regexp.MustCompile(`(?i)([$€£])?\s*(\d{1,3}(?:,\d{3})+(?:\.\d+)?|\d+(?:\.\d+)?)\s*(trillion|billion|million|thousand|bn)?\s*(%|percent\b)?`)
)

var magnitudes = map[string]float64{
	"thousand": 1e3,
	"million":  1e6,
	"billion":  1e9,
	"bn":       1e9,
	"trillion": 1e12,
}

// HasApproxQualifier reports whether the text hedges its figures
// ("roughly", "about", "approximately").
func HasApproxQualifier(text string) bool {
	return approxQualifier.MatchString(text)
}

// HasPreciseQualifier reports whether the text pins its figures
// ("exactly", "precisely").
func HasPreciseQualifier(text string) bool {
	return preciseQualifier.MatchString(text)
}

// Figures extracts all numeric quantities from text
func Figures(text string) []Figure {
	matches := figurePattern.FindAllStringSubmatchIndex(text, -1)
	figures := make([]Figure, 0, len(matches))

	for _, m := range matches {
		numStr := strings.ReplaceAll(text[m[4]:m[5]], ",", "")
		value, err := strconv.ParseFloat(numStr, 64)
		if err != nil {
			continue
		}

		// Span exactly the matched groups, not the optional whitespace the
		// pattern may have consumed around them, so rewrites splice cleanly.
		start, end := m[4], m[5]
		currency := ""
		if m[2] >= 0 {
			currency = text[m[2]:m[3]]
			start = m[2]
		}
		if m[6] >= 0 {
			value *= magnitudes[strings.ToLower(text[m[6]:m[7]])]
			end = m[7]
		}
		if m[8] >= 0 {
			end = m[9]
		}

		figures = append(figures, Figure{
			Value:    value,
			Currency: currency,
			Percent:  m[8] >= 0,
			Raw:      text[start:end],
			Start:    start,
			End:      end,
		})
	}

	return figures
}

// Normalizer rewrites in-tolerance evidence figures to the claim's phrasing
type Normalizer struct {
	ApproxTolerance float64 // relative band for hedged claims (±15%)
	ExactTolerance  float64 // near-exact band for pinned claims
}

// NewNormalizer creates a normalizer with the given tolerance bands
func NewNormalizer(approxTolerance, exactTolerance float64) *Normalizer {
	return &Normalizer{
		ApproxTolerance: approxTolerance,
		ExactTolerance:  exactTolerance,
	}
}

// Tolerance returns the relative tolerance the claim's qualifiers grant.
// Precision qualifiers win over approximation qualifiers when both appear.
// A claim with no qualifier gets no normalization: the stance model judges
// unhedged figures on its own.
func (n *Normalizer) Tolerance(claimText string) float64 {
	if HasPreciseQualifier(claimText) {
		return n.ExactTolerance
	}
	if HasApproxQualifier(claimText) {
		return n.ApproxTolerance
	}
	return 0
}

// Normalize rewrites evidence figures that fall within the claim's
// tolerance band to the claim's own phrasing, so the classifier sees
// agreement instead of a spurious numeric mismatch. Units must be
// compatible (same currency, percent matches percent). Returns the
// possibly-rewritten evidence text and whether any rewrite happened.
func (n *Normalizer) Normalize(claimText, evidenceText string) (string, bool) {
	tol := n.Tolerance(claimText)
	if tol <= 0 {
		return evidenceText, false
	}

	claimFigures := Figures(claimText)
	if len(claimFigures) == 0 {
		return evidenceText, false
	}

	evidenceFigures := Figures(evidenceText)
	if len(evidenceFigures) == 0 {
		return evidenceText, false
	}

	changed := false
	// Rewrite back to front so earlier byte offsets stay valid.
	for i := len(evidenceFigures) - 1; i >= 0; i-- {
		ev := evidenceFigures[i]
		for _, cf := range claimFigures {
			if !compatible(cf, ev) || ev.Value == cf.Value {
				continue
			}
			if !WithinTolerance(cf.Value, ev.Value, tol) {
				continue
			}
			evidenceText = evidenceText[:ev.Start] + cf.Raw + evidenceText[ev.End:]
			changed = true
			break
		}
	}

	return evidenceText, changed
}

// WithinTolerance reports whether value is within the relative tolerance
// band around the claimed figure.
func WithinTolerance(claimed, value, tolerance float64) bool {
	if claimed == 0 {
		return value == 0
	}
	return math.Abs(value-claimed)/math.Abs(claimed) <= tolerance
}

func compatible(a, b Figure) bool {
	if a.Percent != b.Percent {
		return false
	}
	if a.Currency != "" && b.Currency != "" && a.Currency != b.Currency {
		return false
	}
	return true
}
