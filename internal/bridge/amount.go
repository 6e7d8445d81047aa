package bridge

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Monetary amounts cross the HTTP boundary as decimal strings and live as
// int64 minor units everywhere else. Conversion is pure integer arithmetic;
// floating point would drift across many small transactions.

// ParseAmount converts a human-readable decimal string to minor units.
// "12.5" with 6 decimals becomes 12500000. More fractional digits than the
// asset carries is an error, not a rounding.
func ParseAmount(value string, decimals int) (int64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("amount is empty")
	}
	if strings.HasPrefix(value, "-") {
		return 0, fmt.Errorf("amount must be positive")
	}

	whole := value
	frac := ""
	if i := strings.IndexByte(value, '.'); i >= 0 {
		whole, frac = value[:i], value[i+1:]
		if strings.IndexByte(frac, '.') >= 0 {
			return 0, fmt.Errorf("malformed amount %q", value)
		}
	}
	if whole == "" {
		whole = "0"
	}
	if len(frac) > decimals {
		return 0, fmt.Errorf("amount %q exceeds %d decimal places", value, decimals)
	}

	wholeUnits, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed amount %q", value)
	}

	fracUnits := int64(0)
	if frac != "" {
		fracUnits, err = strconv.ParseInt(frac, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("malformed amount %q", value)
		}
		// Right-pad to the asset's precision: ".5" at 6 decimals is 500000.
		for i := len(frac); i < decimals; i++ {
			fracUnits *= 10
		}
	}

	scale := pow10(decimals)
	if wholeUnits > (math.MaxInt64-fracUnits)/scale {
		return 0, fmt.Errorf("amount %q overflows minor units", value)
	}
	return wholeUnits*scale + fracUnits, nil
}

// FormatAmount renders minor units as a decimal string, trimming trailing
// fractional zeros.
func FormatAmount(minor int64, decimals int) string {
	scale := pow10(decimals)
	whole := minor / scale
	frac := minor % scale
	if frac == 0 {
		return strconv.FormatInt(whole, 10)
	}
	fracStr := strings.TrimRight(fmt.Sprintf("%0*d", decimals, frac), "0")
	return fmt.Sprintf("%d.%s", whole, fracStr)
}

func pow10(n int) int64 {
	out := int64(1)
	for i := 0; i < n; i++ {
		out *= 10
	}
	return out
}
