package model

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// SubunitsPerUnit is the fixed ratio between the display unit and the
// smallest indivisible subunit the ledger accounts in.
const SubunitsPerUnit = 100_000_000

// subunitDigits is the number of fractional display digits one subunit spans.
const subunitDigits = 8

// ErrInvalidAmount is returned when a display amount cannot be expressed as a
// subunit count.
var ErrInvalidAmount = errors.New("invalid amount")

// maxDisplay is the first display value whose subunit count no longer fits in
// a uint64.
var maxDisplay = math.Ldexp(1, 64) / SubunitsPerUnit

// ToSubunits converts a display amount to an integer subunit count, rounding
// to the nearest subunit.
func ToSubunits(display float64) (uint64, error) {
	switch {
	case math.IsNaN(display) || math.IsInf(display, 0):
		return 0, fmt.Errorf("%w: %v", ErrInvalidAmount, display)
	case display < 0:
		return 0, fmt.Errorf("%w: %v is negative", ErrInvalidAmount, display)
	case display >= maxDisplay:
		return 0, fmt.Errorf("%w: %v overflows the subunit range", ErrInvalidAmount, display)
	}

	whole, frac := math.Modf(display)
	subunits := uint64(whole) * SubunitsPerUnit
	fracSubunits := uint64(math.Round(frac * SubunitsPerUnit))
	if subunits > math.MaxUint64-fracSubunits {
		return 0, fmt.Errorf("%w: %v overflows the subunit range", ErrInvalidAmount, display)
	}
	return subunits + fracSubunits, nil
}

// ToDisplay converts an integer subunit count to display units. The whole and
// fractional parts are converted separately so large balances keep their
// fractional precision.
func ToDisplay(subunits uint64) float64 {
	whole := subunits / SubunitsPerUnit
	frac := subunits % SubunitsPerUnit
	return float64(whole) + float64(frac)/SubunitsPerUnit
}

// ParseAmount converts decimal display text such as "5.25" to subunits
// without going through floating point.
func ParseAmount(text string) (uint64, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalidAmount)
	}
	wholeText, fracText, hasFrac := strings.Cut(text, ".")
	if wholeText == "" {
		wholeText = "0"
	}
	if hasFrac && fracText == "" {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, text)
	}
	if len(fracText) > subunitDigits {
		return 0, fmt.Errorf("%w: %q has more than %d fractional digits", ErrInvalidAmount, text, subunitDigits)
	}
	if strings.ContainsAny(wholeText, "+-") || strings.ContainsAny(fracText, "+-") {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, text)
	}

	whole, err := strconv.ParseUint(wholeText, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, text)
	}
	var frac uint64
	if fracText != "" {
		frac, err = strconv.ParseUint(fracText+strings.Repeat("0", subunitDigits-len(fracText)), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, text)
		}
	}
	if whole > (math.MaxUint64-frac)/SubunitsPerUnit {
		return 0, fmt.Errorf("%w: %q overflows the subunit range", ErrInvalidAmount, text)
	}
	return whole*SubunitsPerUnit + frac, nil
}

// FormatAmount renders a subunit count in display units with at least four
// fractional digits and no trailing zeros beyond that.
func FormatAmount(subunits uint64) string {
	frac := fmt.Sprintf("%0*d", subunitDigits, subunits%SubunitsPerUnit)
	frac = strings.TrimRight(frac, "0")
	for len(frac) < 4 {
		frac += "0"
	}
	return strconv.FormatUint(subunits/SubunitsPerUnit, 10) + "." + frac
}

// FormatDisplay renders a display amount the same way FormatAmount does.
func FormatDisplay(display float64) string {
	subunits, err := ToSubunits(display)
	if err != nil {
		return strconv.FormatFloat(display, 'f', -1, 64)
	}
	return FormatAmount(subunits)
}
