package ingest

import (
	"regexp"
	"strconv"
	"strings"
)

var amountNumberRegex = regexp.MustCompile(`\$?\s?[\d,]+(?:\.\d{2})?`)

// parseAmount extracts minimum/maximum award amounts from free text.
// Returns nil pointers when nothing numeric is found; single amounts are
// treated as a maximum unless the text says otherwise.
func parseAmount(text string) (amountMin, amountMax *float64) {
	textLower := strings.ToLower(text)

	var amounts []float64
	for _, m := range amountNumberRegex.FindAllString(text, -1) {
		clean := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(m), "$"))
		clean = strings.ReplaceAll(clean, ",", "")
		if val, err := strconv.ParseFloat(clean, 64); err == nil && val > 0 {
			amounts = append(amounts, val)
		}
	}

	if len(amounts) == 0 {
		return nil, nil
	}

	if len(amounts) == 1 {
		v := amounts[0]
		switch {
		case strings.Contains(textLower, "minimum") || strings.Contains(textLower, "at least"):
			return &v, nil
		default:
			// "up to", "maximum", or a bare figure all read as a ceiling.
			return nil, &v
		}
	}

	lo, hi := amounts[0], amounts[0]
	for _, a := range amounts {
		if a < lo {
			lo = a
		}
		if a > hi {
			hi = a
		}
	}
	if lo == hi {
		return nil, &hi
	}
	return &lo, &hi
}
