package normalizer

import (
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

var dateLayouts = []string{
	dateLayout,
	"2006/01/02",
	"2006.01.02",
	"01/02/2006",
	"1/2/2006",
	"01/02/06",
	"1/2/06",
	"01-02-2006",
	"1-2-2006",
	"01-02-06",
	"02.01.2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"Jan 2 2006",
	"2 Jan 2006",
	"02-Jan-2006",
	"2-Jan-06",
	"02-Jan-06",
	"20060102",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"01/02/2006 15:04:05",
	"1/2/2006 15:04",
}

var emptyMarkers = map[string]struct{}{
	"":    {},
	"-":   {},
	"--":  {},
	"n/a": {},
	"na":  {},
}

func isEmptyValue(s string) bool {
	_, ok := emptyMarkers[strings.ToLower(strings.TrimSpace(s))]
	return ok
}

// Bounds of an accepted number; positions are stored as NUMERIC(24,8).
const (
	maxNumberLen   = 64
	maxNumDigits   = 24
	maxAbsExponent = 20
)

// parseNumber strips currency symbols, thousands separators and whitespace.
// "(12.5)" is read as -12.5. With decimalComma set a comma is the decimal
// mark ("1.234,5" is 1234.5) unless a dot follows the last comma.
func parseNumber(s string, decimalComma bool) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if isEmptyValue(s) || len(s) > maxNumberLen {
		return decimal.Zero, false
	}

	if decimalComma && strings.LastIndex(s, ",") > strings.LastIndex(s, ".") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}

	var b strings.Builder
	for _, r := range s {
		switch {
		case unicode.IsDigit(r), r == '.', r == '-', r == '+', r == 'e', r == 'E':
			b.WriteRune(r)
		case r == ',', unicode.IsSpace(r), unicode.Is(unicode.Sc, r):
		default:
			return decimal.Zero, false
		}
	}

	d, err := decimal.NewFromString(b.String())
	if err != nil {
		return decimal.Zero, false
	}
	if exp := d.Exponent(); exp < -maxAbsExponent || exp > maxAbsExponent || d.NumDigits() > maxNumDigits {
		return decimal.Zero, false
	}
	if negative {
		d = d.Neg()
	}
	return d, true
}

// parseDate returns s as YYYY-MM-DD. Bare numbers in the Excel serial range
// are converted from the 1900 date system; smaller numbers, such as a bare
// year, are not dates.
func parseDate(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if isEmptyValue(s) {
		return "", false
	}

	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial <= maxExcelSerial {
		return fromExcelSerial(serial)
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(dateLayout), true
		}
	}
	return "", false
}

const (
	minExcelSerial = 3000    // 1908-03-18
	maxExcelSerial = 2958465 // 9999-12-31
)

var excelEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

func fromExcelSerial(serial float64) (string, bool) {
	if serial < minExcelSerial || serial > maxExcelSerial {
		return "", false
	}
	return excelEpoch.AddDate(0, 0, int(serial)).Format(dateLayout), true
}

func normalizeTicker(s string) string {
	s = strings.TrimSpace(s)
	if isEmptyValue(s) {
		return ""
	}
	return strings.ToUpper(strings.Join(strings.Fields(s), ""))
}

func normalizeName(s string) string {
	s = strings.TrimSpace(s)
	if isEmptyValue(s) {
		return ""
	}
	return strings.Join(strings.Fields(s), " ")
}
