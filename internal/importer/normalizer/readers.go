package normalizer

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var utf8BOM = []byte("\xef\xbb\xbf")

var delimiters = []rune{',', ';', '\t', '|'}

const sniffLines = 10

// sniffDelimiter picks the most frequent candidate over the first non-empty
// lines. Comma wins ties.
func sniffDelimiter(data []byte) rune {
	counts := make(map[rune]int, len(delimiters))
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for lines := 0; lines < sniffLines && scanner.Scan(); {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines++
		for _, d := range delimiters {
			counts[d] += strings.Count(line, string(d))
		}
	}

	best := delimiters[0]
	for _, d := range delimiters[1:] {
		if counts[d] > counts[best] {
			best = d
		}
	}
	return best
}

// readDelimited also reports the delimiter it settled on.
func readDelimited(data []byte) ([][]string, rune, error) {
	data = bytes.TrimPrefix(data, utf8BOM)

	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = sniffDelimiter(data)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	rows, err := r.ReadAll()
	if err != nil {
		return nil, r.Comma, fmt.Errorf("%w: %s", ErrMalformedInput, err)
	}
	return rows, r.Comma, nil
}

func readSpreadsheet(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMalformedInput, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrMalformedInput)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMalformedInput, err)
	}
	return rows, nil
}

// readHTMLTable returns the rows of the first table in the document that has
// at least one row. Rows of nested tables belong to the nested table only.
func readHTMLTable(data []byte) ([][]string, error) {
	doc, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMalformedInput, err)
	}

	var tables []*html.Node
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.Table {
			tables = append(tables, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	for _, table := range tables {
		rows := tableRows(table)
		if len(rows) > 0 {
			return rows, nil
		}
	}

	return nil, fmt.Errorf("%w: no table rows found", ErrMalformedInput)
}

func tableRows(table *html.Node) [][]string {
	var rows [][]string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			switch c.DataAtom {
			case atom.Table:
				// nested table
			case atom.Tr:
				if row := rowCells(c); len(row) > 0 {
					rows = append(rows, row)
				}
			default:
				walk(c)
			}
		}
	}
	walk(table)
	return rows
}

func rowCells(tr *html.Node) []string {
	var cells []string
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && (c.DataAtom == atom.Td || c.DataAtom == atom.Th) {
			cells = append(cells, strings.Join(strings.Fields(nodeText(c)), " "))
		}
	}
	return cells
}

func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch {
		case n.Type == html.TextNode:
			b.WriteString(n.Data)
		case n.Type == html.ElementNode && n.DataAtom == atom.Br:
			b.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

// readRowObjects reads a JSON array of objects, the shape browser-side
// spreadsheet parsers emit. Keys become the header in first-seen order.
func readRowObjects(data []byte) ([][]string, error) {
	dec := json.NewDecoder(bytes.NewReader(bytes.TrimPrefix(data, utf8BOM)))
	dec.UseNumber()

	if err := expectDelim(dec, '['); err != nil {
		return nil, err
	}

	var header []string
	columns := make(map[string]int)
	var objects []map[string]string

	for dec.More() {
		if err := expectDelim(dec, '{'); err != nil {
			return nil, err
		}
		obj := make(map[string]string)
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return nil, fmt.Errorf("%w: %s", ErrMalformedInput, err)
			}
			key, ok := keyTok.(string)
			if !ok {
				return nil, fmt.Errorf("%w: object key expected", ErrMalformedInput)
			}

			var raw any
			if err := dec.Decode(&raw); err != nil {
				return nil, fmt.Errorf("%w: %s", ErrMalformedInput, err)
			}

			if _, ok := columns[key]; !ok {
				columns[key] = len(header)
				header = append(header, key)
			}
			obj[key] = scalarString(raw)
		}
		if err := expectDelim(dec, '}'); err != nil {
			return nil, err
		}
		objects = append(objects, obj)
	}

	if err := expectDelim(dec, ']'); err != nil {
		return nil, err
	}

	if len(objects) == 0 {
		return nil, nil
	}

	rows := make([][]string, 0, len(objects)+1)
	rows = append(rows, header)
	for _, obj := range objects {
		row := make([]string, len(header))
		for key, v := range obj {
			row[columns[key]] = v
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: unexpected end of input", ErrMalformedInput)
		}
		return fmt.Errorf("%w: %s", ErrMalformedInput, err)
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("%w: expected %q", ErrMalformedInput, want)
	}
	return nil
}

func scalarString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		if t {
			return "true"
		}
		return "false"
	default:
		return ""
	}
}
