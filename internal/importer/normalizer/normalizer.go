// Package normalizer turns an uploaded holdings document into candidate lots.
// Columns are matched by header name, so column order and extra columns do
// not matter.
package normalizer

import (
	"bytes"
	"errors"
	"fmt"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"github.com/KotFed0t/portfolio_tracker/internal/model"
	"github.com/shopspring/decimal"
)

var (
	ErrUnrecognizedFormat = errors.New("unrecognized import format")
	ErrMalformedInput     = errors.New("malformed import input")
)

type Kind string

const (
	KindCSV  Kind = "csv"
	KindHTML Kind = "html"
	KindXLSX Kind = "xlsx"
	KindJSON Kind = "json"
)

var kindHints = map[string]Kind{
	"csv":         KindCSV,
	"tsv":         KindCSV,
	"txt":         KindCSV,
	"text":        KindCSV,
	"delimited":   KindCSV,
	"html":        KindHTML,
	"htm":         KindHTML,
	"table":       KindHTML,
	"xlsx":        KindXLSX,
	"excel":       KindXLSX,
	"spreadsheet": KindXLSX,
	"json":        KindJSON,
	"rows":        KindJSON,
}

var contentTypes = map[string]Kind{
	"text/csv":                  KindCSV,
	"text/plain":                KindCSV,
	"text/tab-separated-values": KindCSV,
	"application/csv":           KindCSV,
	"text/html":                 KindHTML,
	"application/xhtml+xml":     KindHTML,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": KindXLSX,
	"application/json": KindJSON,
}

var zipMagic = []byte("PK\x03\x04")

// DetectKind picks the document kind. An explicit hint wins and must be
// known, then the file extension, then the content type, then the content.
func DetectKind(hint, filename, contentType string, data []byte) (Kind, error) {
	if hint = strings.ToLower(strings.TrimSpace(hint)); hint != "" {
		kind, ok := kindHints[hint]
		if !ok {
			return "", fmt.Errorf("%w: %q", ErrUnrecognizedFormat, hint)
		}
		return kind, nil
	}

	if ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), "."); ext != "" {
		if kind, ok := kindHints[ext]; ok {
			return kind, nil
		}
	}

	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
		if kind, ok := contentTypes[mediaType]; ok {
			return kind, nil
		}
	}

	return sniffKind(data), nil
}

func sniffKind(data []byte) Kind {
	if bytes.HasPrefix(data, zipMagic) {
		return KindXLSX
	}
	trimmed := bytes.TrimSpace(bytes.TrimPrefix(data, utf8BOM))
	if bytes.HasPrefix(trimmed, []byte("[")) {
		return KindJSON
	}
	if bytes.Contains(bytes.ToLower(trimmed), []byte("<table")) {
		return KindHTML
	}
	return KindCSV
}

type Result struct {
	// Total counts non-blank data rows below the header.
	Total      int
	Candidates []model.Candidate
}

type Normalizer struct {
	now func() time.Time
}

func New() *Normalizer {
	return &Normalizer{now: time.Now}
}

func (n *Normalizer) Normalize(kind Kind, data []byte) (Result, error) {
	var (
		rows      [][]string
		delimiter rune
		err       error
	)

	switch kind {
	case KindCSV:
		rows, delimiter, err = readDelimited(data)
	case KindHTML:
		rows, err = readHTMLTable(data)
	case KindXLSX:
		rows, err = readSpreadsheet(data)
	case KindJSON:
		rows, err = readRowObjects(data)
	default:
		return Result{}, fmt.Errorf("%w: %q", ErrUnrecognizedFormat, kind)
	}
	if err != nil {
		return Result{}, err
	}

	// semicolon separated exports come from locales with a decimal comma
	return n.fromRows(rows, delimiter == ';')
}

func (n *Normalizer) fromRows(rows [][]string, decimalComma bool) (Result, error) {
	headerAt := -1
	for i, row := range rows {
		if isHeaderRow(row) {
			headerAt = i
			break
		}
	}

	if headerAt < 0 {
		if countNonBlank(rows) == 0 {
			return Result{Candidates: []model.Candidate{}}, nil
		}
		return Result{}, fmt.Errorf("%w: no recognised column header", ErrMalformedInput)
	}

	cols := resolveColumns(rows[headerAt])
	today := n.now().Format(dateLayout)

	res := Result{Candidates: make([]model.Candidate, 0, len(rows)-headerAt-1)}
	for _, row := range rows[headerAt+1:] {
		if isBlank(row) {
			continue
		}
		res.Total++

		candidate, ok := toCandidate(cols, row, today, decimalComma)
		if !ok {
			continue
		}
		candidate.Row = res.Total
		res.Candidates = append(res.Candidates, candidate)
	}

	return res, nil
}

func toCandidate(cols columnMap, row []string, today string, decimalComma bool) (model.Candidate, bool) {
	c := model.Candidate{
		Ticker:      normalizeTicker(cols.value(row, fieldTicker)),
		CompanyName: normalizeName(cols.value(row, fieldCompanyName)),
	}
	if c.Ticker == "" && c.CompanyName == "" {
		return model.Candidate{}, false
	}

	shares, ok := parseNumber(cols.value(row, fieldShares), decimalComma)
	if !ok || !shares.IsPositive() {
		return model.Candidate{}, false
	}
	c.Shares = shares

	price, ok := parseNumber(cols.value(row, fieldPrice), decimalComma)
	if !ok || price.IsNegative() {
		price = decimal.Zero
	}
	c.PurchasePrice = price

	date, ok := parseDate(cols.value(row, fieldDate))
	if !ok {
		date = today
	}
	c.PurchaseDate = date

	return c, true
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func countNonBlank(rows [][]string) int {
	n := 0
	for _, row := range rows {
		if !isBlank(row) {
			n++
		}
	}
	return n
}
