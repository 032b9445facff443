package normalizer

import "strings"

type field int

const (
	fieldTicker field = iota
	fieldCompanyName
	fieldShares
	fieldPrice
	fieldDate
)

// aliases are ordered: for each field the first alias found among the
// headers wins.
var aliases = []struct {
	field field
	names []string
}{
	{fieldTicker, []string{"Symbol", "Ticker", "Ticker Symbol", "Stock Symbol", "Code"}},
	{fieldCompanyName, []string{"Company Name", "Company", "Name", "Description", "Security Name", "Security", "Investment", "Holding"}},
	{fieldShares, []string{"Shares", "Quantity", "Holdings Quantity", "Amount", "Units", "Qty"}},
	{fieldPrice, []string{"Purchase Price", "Price", "Cost Per Share", "Average Cost", "Avg Cost", "Unit Cost", "Buy Price", "Cost"}},
	{fieldDate, []string{"Purchase Date", "Date", "Date Acquired", "Acquired", "Trade Date", "Open Date"}},
}

var knownHeaders = func() map[string]struct{} {
	m := make(map[string]struct{})
	for _, a := range aliases {
		for _, name := range a.names {
			m[normalizeHeader(name)] = struct{}{}
		}
	}
	return m
}()

// normalizeHeader lowercases and collapses whitespace so that
// " Purchase  price:" and "purchase price" compare equal.
func normalizeHeader(s string) string {
	s = strings.TrimPrefix(s, "\ufeff")
	s = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '_', '\t', '\n', '\r':
			return ' '
		case '*':
			return -1
		}
		return r
	}, s)
	s = strings.TrimSuffix(strings.TrimSpace(s), ":")
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// columnMap maps each field to its column index in the header row.
type columnMap map[field]int

func isHeaderRow(row []string) bool {
	for _, cell := range row {
		if _, ok := knownHeaders[normalizeHeader(cell)]; ok {
			return true
		}
	}
	return false
}

func resolveColumns(header []string) columnMap {
	index := make(map[string]int, len(header))
	for i, cell := range header {
		name := normalizeHeader(cell)
		if _, taken := index[name]; !taken && name != "" {
			index[name] = i
		}
	}

	cols := make(columnMap)
	for _, a := range aliases {
		for _, name := range a.names {
			if i, ok := index[normalizeHeader(name)]; ok {
				cols[a.field] = i
				break
			}
		}
	}
	return cols
}

func (c columnMap) value(row []string, f field) string {
	i, ok := c[f]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
