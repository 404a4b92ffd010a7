// Package size converts the free-text size field of a guide entry
// ("28–33 cm (11–13 in)", "L 7½\"", "WS 35 cm") into centimeters.
package size

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/cognicore/songlex/pkg/songlex/internalerr"
)

// Default plausible body-length bounds in centimeters.
const (
	DefaultMinCM = 3.0
	DefaultMaxCM = 300.0
)

var (
	ErrEmpty       = fmt.Errorf("%w: empty size", internalerr.ErrInvalidInput)
	ErrNoUnit      = fmt.Errorf("%w: size has no unit", internalerr.ErrInvalidInput)
	ErrNoNumber    = fmt.Errorf("%w: size has no number", internalerr.ErrInvalidInput)
	ErrImplausible = fmt.Errorf("%w: %w", internalerr.ErrInvalidInput, internalerr.ErrImplausible)
)

// Length is a parsed size in centimeters. MinCM == MaxCM for single values.
type Length struct {
	MinCM    float64
	MaxCM    float64
	Unit     string // unit as written, canonicalized: cm, mm, m, in, ft
	Wingspan bool   // no body length was given, only a wingspan
}

// Mid returns the midpoint of the range.
func (l Length) Mid() float64 {
	return (l.MinCM + l.MaxCM) / 2
}

// Normalizer parses sizes with configurable bounds.
type Normalizer struct {
	MinCM       float64
	MaxCM       float64
	DefaultUnit string // applied to bare numbers; empty means reject them
}

// DefaultNormalizer returns a normalizer with the default plausible range.
func DefaultNormalizer() Normalizer {
	return Normalizer{MinCM: DefaultMinCM, MaxCM: DefaultMaxCM}
}

// Parse converts s with the default normalizer.
func Parse(s string) (Length, error) {
	return DefaultNormalizer().Parse(s)
}

var (
	unicodeFractions = map[rune]float64{
		'½': 0.5, '¼': 0.25, '¾': 0.75, '⅓': 1.0 / 3, '⅔': 2.0 / 3,
		'⅛': 0.125, '⅜': 0.375, '⅝': 0.625, '⅞': 0.875,
	}
	unicodeFractionPattern = regexp.MustCompile(`(\d*)\s*([½¼¾⅓⅔⅛⅜⅝⅞])`)
	mixedFractionPattern   = regexp.MustCompile(`(\d+)[\s-]+(\d+)/(\d+)`)
	simpleFractionPattern  = regexp.MustCompile(`(\d+)/(\d+)`)
	decimalCommaPattern    = regexp.MustCompile(`(\d),(\d+)`)
	rangeWordPattern       = regexp.MustCompile(`\s+(?:to|or)\s+`)

	measurePattern = regexp.MustCompile(
		`(\d+(?:\.\d+)?)(?:\s*-\s*(\d+(?:\.\d+)?))?\s*(cm|mm|inches|inch|in|ft|feet|foot|m|''|"|”|'|’)?`)
	wingspanPattern = regexp.MustCompile(`(?:\bws|wingspan|wing span)[\s:.=]*$`)
)

var unitFactors = map[string]float64{
	"cm": 1,
	"mm": 0.1,
	"m":  100,
	"in": 2.54,
	"ft": 30.48,
}

type measure struct {
	min, max float64
	unit     string
	wingspan bool
}

// Parse converts s into centimeters.
func (n Normalizer) Parse(s string) (Length, error) {
	text := prepare(s)
	if text == "" {
		return Length{}, ErrEmpty
	}

	measures := scan(text, n.DefaultUnit)
	if len(measures) == 0 {
		if strings.IndexFunc(text, unicode.IsDigit) >= 0 {
			return Length{}, fmt.Errorf("%w: %q", ErrNoUnit, s)
		}
		return Length{}, fmt.Errorf("%w: %q", ErrNoNumber, s)
	}

	m, ok := pick(measures)
	if !ok {
		return Length{}, fmt.Errorf("%w: %q", ErrNoUnit, s)
	}

	factor := unitFactors[m.unit]
	out := Length{
		MinCM:    round(m.min * factor),
		MaxCM:    round(m.max * factor),
		Unit:     m.unit,
		Wingspan: m.wingspan,
	}
	if out.MinCM > out.MaxCM {
		out.MinCM, out.MaxCM = out.MaxCM, out.MinCM
	}

	lo, hi := n.bounds()
	if out.MinCM <= 0 || out.MinCM < lo || out.MaxCM > hi {
		return Length{}, fmt.Errorf("%w: %q is %.1f-%.1f cm", ErrImplausible, s, out.MinCM, out.MaxCM)
	}
	return out, nil
}

func (n Normalizer) bounds() (float64, float64) {
	lo, hi := n.MinCM, n.MaxCM
	if lo <= 0 {
		lo = DefaultMinCM
	}
	if hi <= 0 {
		hi = DefaultMaxCM
	}
	return lo, hi
}

// prepare lowercases and rewrites fractions, decimal commas and range words
// so that measurePattern only has to handle plain decimals.
func prepare(s string) string {
	text := strings.ToLower(strings.TrimSpace(s))
	if text == "" {
		return ""
	}
	text = strings.NewReplacer("–", "-", "—", "-", "‒", "-", "−", "-", "\u00a0", " ").Replace(text)
	text = rangeWordPattern.ReplaceAllString(text, "-")
	// "1,200" groups thousands, "13,5" is a decimal comma.
	text = decimalCommaPattern.ReplaceAllStringFunc(text, func(match string) string {
		sub := decimalCommaPattern.FindStringSubmatch(match)
		if len(sub[2]) == 3 {
			return sub[1] + sub[2]
		}
		return sub[1] + "." + sub[2]
	})

	text = unicodeFractionPattern.ReplaceAllStringFunc(text, func(match string) string {
		sub := unicodeFractionPattern.FindStringSubmatch(match)
		whole := 0.0
		if sub[1] != "" {
			whole, _ = strconv.ParseFloat(sub[1], 64)
		}
		r := []rune(sub[2])[0]
		return formatNumber(whole + unicodeFractions[r])
	})
	text = mixedFractionPattern.ReplaceAllStringFunc(text, func(match string) string {
		sub := mixedFractionPattern.FindStringSubmatch(match)
		whole, _ := strconv.ParseFloat(sub[1], 64)
		return formatNumber(whole + fraction(sub[2], sub[3]))
	})
	text = simpleFractionPattern.ReplaceAllStringFunc(text, func(match string) string {
		sub := simpleFractionPattern.FindStringSubmatch(match)
		return formatNumber(fraction(sub[1], sub[2]))
	})
	return text
}

func scan(text, defaultUnit string) []measure {
	var out []measure
	for _, loc := range measurePattern.FindAllStringSubmatchIndex(text, -1) {
		unit := ""
		if loc[6] >= 0 {
			unit = text[loc[6]:loc[7]]
			// "in" of "inside", "m" of "male": a letter unit must end the word.
			if isLetterUnit(unit) && loc[7] < len(text) && isLetter(text[loc[7]:]) {
				unit = ""
			}
		}
		unit = canonicalUnit(unit)
		if unit == "" {
			unit = canonicalUnit(defaultUnit)
		}
		if unit == "" {
			continue
		}

		lo, err := strconv.ParseFloat(text[loc[2]:loc[3]], 64)
		if err != nil {
			continue
		}
		hi := lo
		if loc[4] >= 0 {
			if v, err := strconv.ParseFloat(text[loc[4]:loc[5]], 64); err == nil {
				hi = v
			}
		}

		out = append(out, measure{
			min:      lo,
			max:      hi,
			unit:     unit,
			wingspan: wingspanPattern.MatchString(text[:loc[0]]),
		})
	}
	return out
}

// pick chooses the body length: the first non-wingspan measure, replaced by
// the next one when that is its metric equivalent.
func pick(measures []measure) (measure, bool) {
	var lengths []measure
	for _, m := range measures {
		if !m.wingspan {
			lengths = append(lengths, m)
		}
	}
	if len(lengths) == 0 {
		m := measures[0]
		return m, true
	}
	first := lengths[0]
	if len(lengths) > 1 && !metric(first.unit) && metric(lengths[1].unit) {
		return lengths[1], true
	}
	return first, true
}

func canonicalUnit(u string) string {
	switch strings.TrimSuffix(u, ".") {
	case "cm":
		return "cm"
	case "mm":
		return "mm"
	case "m":
		return "m"
	case "in", "inch", "inches", `"`, "”", "''":
		return "in"
	case "ft", "feet", "foot", "'", "’":
		return "ft"
	}
	return ""
}

func metric(unit string) bool {
	return unit == "cm" || unit == "mm" || unit == "m"
}

func isLetterUnit(u string) bool {
	return u != "" && unicode.IsLetter(rune(u[0]))
}

func isLetter(rest string) bool {
	for _, r := range rest {
		return unicode.IsLetter(r)
	}
	return false
}

func fraction(num, den string) float64 {
	n, err1 := strconv.ParseFloat(num, 64)
	d, err2 := strconv.ParseFloat(den, 64)
	if err1 != nil || err2 != nil || d == 0 {
		return 0
	}
	return n / d
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func round(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}

// IsImplausible reports whether err came from the plausibility check.
func IsImplausible(err error) bool {
	return errors.Is(err, internalerr.ErrImplausible)
}
