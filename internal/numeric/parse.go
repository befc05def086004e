package numeric

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/width"
)

var (
	thousandsComma = regexp.MustCompile(`^[+-]?\d{1,3}(,\d{3})+(\.\d+)?$`)
	thousandsDot   = regexp.MustCompile(`^[+-]?\d{1,3}(\.\d{3})+(,\d+)?$`)
	plainNumber    = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)
)

var currencySymbols = []string{"USD", "EUR", "GBP", "JPY", "CNY", "$", "€", "£", "¥", "￥", "₹", "₩"}

// ParseNumber converts a numeric-looking string into a finite float64.
// It handles sign, accounting parentheses, currency symbols, percent signs
// and thousands separators in US and European conventions.
func ParseNumber(s string, international, japanese bool) (float64, bool) {
	clean := strings.TrimSpace(s)
	if clean == "" {
		return 0, false
	}

	if international {
		clean = foldDigits(clean)
	}
	if japanese {
		if v, ok := parseKanji(clean); ok {
			return v, true
		}
	}

	negative := false
	if strings.HasPrefix(clean, "(") && strings.HasSuffix(clean, ")") {
		clean = strings.TrimSuffix(strings.TrimPrefix(clean, "("), ")")
		negative = true
	}

	for _, symbol := range currencySymbols {
		clean = strings.ReplaceAll(clean, symbol, "")
	}
	clean = strings.TrimSuffix(strings.TrimSpace(clean), "%")
	clean = strings.TrimSpace(clean)
	// Spaces (including narrow no-break) only appear as group separators.
	clean = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == ' ' || r == '\'' {
			return -1
		}
		return r
	}, clean)

	switch {
	case plainNumber.MatchString(clean):
	case thousandsComma.MatchString(clean):
		clean = strings.ReplaceAll(clean, ",", "")
	case thousandsDot.MatchString(clean):
		clean = strings.ReplaceAll(clean, ".", "")
		clean = strings.ReplaceAll(clean, ",", ".")
	case strings.Count(clean, ",") == 1 && !strings.Contains(clean, "."):
		clean = strings.ReplaceAll(clean, ",", ".")
	}

	if !plainNumber.MatchString(clean) {
		return 0, false
	}
	v, err := strconv.ParseFloat(clean, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	if negative {
		v = -v
	}
	return v, true
}

// foldDigits maps full-width characters and any Unicode decimal digit to ASCII.
func foldDigits(s string) string {
	s = width.Fold.String(s)
	return strings.Map(func(r rune) rune {
		switch r {
		case '−': // minus sign
			return '-'
		case '٫': // arabic decimal separator
			return '.'
		case '٬': // arabic thousands separator
			return ','
		}
		if r > unicode.MaxASCII && unicode.Is(unicode.Nd, r) {
			return '0' + digitValue(r)
		}
		return r
	}, s)
}

// digitValue finds r's offset inside its block of decimal digits. Unicode
// allocates Nd digits in runs that are multiples of ten starting at zero.
func digitValue(r rune) rune {
	start := r
	for start > 0 && unicode.Is(unicode.Nd, start-1) {
		start--
	}
	return (r - start) % 10
}

var kanjiDigits = map[rune]int64{
	'〇': 0, '零': 0, '一': 1, '二': 2, '三': 3, '四': 4,
	'五': 5, '六': 6, '七': 7, '八': 8, '九': 9,
}

var kanjiSmallUnits = map[rune]int64{'十': 10, '百': 100, '千': 1000}

var kanjiLargeUnits = map[rune]int64{'万': 1e4, '億': 1e8, '兆': 1e12}

// parseKanji reads Japanese numerals such as 千二百三十四 or 三万五千.
// Positional forms like 二〇二四 are accepted as well.
func parseKanji(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	negative := false
	if strings.HasPrefix(s, "-") || strings.HasPrefix(s, "マイナス") {
		negative = true
		s = strings.TrimPrefix(strings.TrimPrefix(s, "-"), "マイナス")
	}

	runes := []rune(s)
	if len(runes) == 0 {
		return 0, false
	}
	hasUnit := false
	for _, r := range runes {
		if _, ok := kanjiDigits[r]; ok {
			continue
		}
		if _, ok := kanjiSmallUnits[r]; ok {
			hasUnit = true
			continue
		}
		if _, ok := kanjiLargeUnits[r]; ok {
			hasUnit = true
			continue
		}
		return 0, false
	}

	var total int64
	if !hasUnit {
		for _, r := range runes {
			total = total*10 + kanjiDigits[r]
		}
	} else {
		var section, digit int64
		for _, r := range runes {
			if d, ok := kanjiDigits[r]; ok {
				digit = d
				continue
			}
			if unit, ok := kanjiSmallUnits[r]; ok {
				if digit == 0 {
					digit = 1
				}
				section += digit * unit
				digit = 0
				continue
			}
			unit := kanjiLargeUnits[r]
			section += digit
			if section == 0 {
				section = 1
			}
			total += section * unit
			section, digit = 0, 0
		}
		total += section + digit
	}

	v := float64(total)
	if negative {
		v = -v
	}
	return v, true
}
