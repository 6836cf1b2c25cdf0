package basedata

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrNotANumber is returned for placeholder or malformed numeric cells.
var ErrNotANumber = errors.New("not a number")

var magnitudes = []struct {
	suffixes []string
	factor   decimal.Decimal
}{
	{[]string{"Mrd.", "Mrd"}, decimal.New(1, 9)},
	{[]string{"Mio.", "Mio"}, decimal.New(1, 6)},
	{[]string{"Tsd.", "Tsd"}, decimal.New(1, 3)},
}

// digits with "." grouping in threes, optional "," fraction
var germanNumber = regexp.MustCompile(`^[+-]?(\d{1,3}(\.\d{3})+|\d+)(,\d+)?$`)

// ParseGermanNumber parses a de-DE formatted number such as "6.860",
// "3,10 Mio." or "-0,5". The provider's "--" placeholder is rejected.
func ParseGermanNumber(text string) (decimal.Decimal, error) {
	s := cleanText(text)
	if s == "" || s == "--" || s == "-" {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrNotANumber, text)
	}

	factor := decimal.New(1, 0)
scan:
	for _, m := range magnitudes {
		for _, suffix := range m.suffixes {
			if strings.HasSuffix(s, suffix) {
				s = strings.TrimSpace(strings.TrimSuffix(s, suffix))
				factor = m.factor
				break scan
			}
		}
	}

	if !germanNumber.MatchString(s) {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrNotANumber, text)
	}
	s = strings.TrimPrefix(s, "+")
	s = strings.ReplaceAll(s, ".", "")
	s = strings.Replace(s, ",", ".", 1)

	v, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q: %v", ErrNotANumber, text, err)
	}
	return v.Mul(factor), nil
}

// ParseLiquidity parses a liquidity count. Fractions are truncated; negative
// values are rejected.
func ParseLiquidity(text string) (int64, error) {
	v, err := ParseGermanNumber(text)
	if err != nil {
		return 0, err
	}
	if v.IsNegative() {
		return 0, fmt.Errorf("%w: negative liquidity %q", ErrNotANumber, text)
	}
	return v.IntPart(), nil
}
