package dataset

import (
	"strconv"
	"strings"
)

// nullMarkers are cell values treated as "no observation". Matched after
// trimming, case-insensitively.
var nullMarkers = map[string]bool{
	"": true, "-": true, "n/a": true, "na": true, "null": true, "nan": true, "none": true,
}

// ParseAmount parses one accounting-format cell into a float64.
//
// Supported representations: thousands separators ("3,000.00"), parenthesized
// negatives ("(30,000.00)" == -30000), currency symbols ($, ฿), percent signs,
// and embedded spaces. The second return value is false when the cell holds no
// parsable number; that is a "missing" cell, never an error.
func ParseAmount(s string) (float64, bool) {
	raw := strings.TrimSpace(s)
	if nullMarkers[strings.ToLower(raw)] {
		return 0, false
	}
	// Accounting negatives wrap the number in parentheses.
	negative := false
	if i := strings.IndexByte(raw, '('); i >= 0 && strings.IndexByte(raw, ')') > i {
		negative = true
	}
	raw = strings.Map(func(r rune) rune {
		switch r {
		case ',', '(', ')', ' ', ' ', '$', '฿', '%':
			return -1
		}
		return r
	}, raw)
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	if negative && f > 0 {
		f = -f
	}
	return f, true
}
