package normalizer

import (
	"strings"
	"testing"
	"time"

	"github.com/KotFed0t/portfolio_tracker/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func newTestNormalizer() *Normalizer {
	return &Normalizer{now: func() time.Time {
		return time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC)
	}}
}

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertCandidate(t *testing.T, want, got model.Candidate) {
	t.Helper()
	assert.Equal(t, want.Row, got.Row)
	assert.Equal(t, want.Ticker, got.Ticker)
	assert.Equal(t, want.CompanyName, got.CompanyName)
	assert.True(t, want.Shares.Equal(got.Shares), "shares: want %s got %s", want.Shares, got.Shares)
	assert.True(t, want.PurchasePrice.Equal(got.PurchasePrice), "price: want %s got %s", want.PurchasePrice, got.PurchasePrice)
	assert.Equal(t, want.PurchaseDate, got.PurchaseDate)
}

func TestNormalizeCSV(t *testing.T) {
	n := newTestNormalizer()

	res, err := n.Normalize(KindCSV, []byte("Symbol,Shares,Purchase Price\nAAPL,10,150.25\nMSFT,5,305.75\n"))
	require.NoError(t, err)

	assert.Equal(t, 2, res.Total)
	require.Len(t, res.Candidates, 2)
	assertCandidate(t, model.Candidate{Row: 1, Ticker: "AAPL", Shares: d("10"), PurchasePrice: d("150.25"), PurchaseDate: "2024-03-15"}, res.Candidates[0])
	assertCandidate(t, model.Candidate{Row: 2, Ticker: "MSFT", Shares: d("5"), PurchasePrice: d("305.75"), PurchaseDate: "2024-03-15"}, res.Candidates[1])
}

func TestNormalizeHeaderAliases(t *testing.T) {
	n := newTestNormalizer()

	shares, err := n.Normalize(KindCSV, []byte("Ticker,Shares,Price,Date\nvti,12.5,\"$1,200.00\",01/02/2023\n"))
	require.NoError(t, err)
	holdings, err := n.Normalize(KindCSV, []byte("Date Acquired;Holdings Quantity;Ticker Symbol;Average Cost\n2023-01-02;12.5;VTI;1200\n"))
	require.NoError(t, err)

	require.Len(t, shares.Candidates, 1)
	require.Len(t, holdings.Candidates, 1)
	assertCandidate(t, shares.Candidates[0], holdings.Candidates[0])
	assert.Equal(t, "2023-01-02", holdings.Candidates[0].PurchaseDate)
}

func TestNormalizeHeader(t *testing.T) {
	assert.Equal(t, "symbol", normalizeHeader("\ufeffSymbol"))
	assert.Equal(t, "purchase price", normalizeHeader(" Purchase_ price*:"))
}

func TestNormalizeDropsInvalidRows(t *testing.T) {
	n := newTestNormalizer()

	input := "My brokerage export\n" +
		"\n" +
		"Symbol,Company,Quantity,Cost\n" +
		"AAPL,,10,150\n" +
		"GOOG,,,100\n" +
		",,5,20\n" +
		"\n" +
		",Vanguard Total Bond,3,\n" +
		"TSLA,,-2,200\n" +
		"NVDA,,(4),200\n"

	res, err := n.Normalize(KindCSV, []byte(input))
	require.NoError(t, err)

	assert.Equal(t, 6, res.Total)
	require.Len(t, res.Candidates, 2)
	assertCandidate(t, model.Candidate{Row: 1, Ticker: "AAPL", Shares: d("10"), PurchasePrice: d("150"), PurchaseDate: "2024-03-15"}, res.Candidates[0])
	assertCandidate(t, model.Candidate{Row: 4, CompanyName: "Vanguard Total Bond", Shares: d("3"), PurchasePrice: decimal.Zero, PurchaseDate: "2024-03-15"}, res.Candidates[1])
}

func TestNormalizeHTML(t *testing.T) {
	n := newTestNormalizer()

	input := `<html><body>
		<p>Holdings</p>
		<table style="border-collapse:collapse">
			<thead><tr><th>Stock Symbol</th><th>Units</th><th>Buy Price</th><th>Trade Date</th></tr></thead>
			<tbody>
				<tr><td><b>amzn</b></td><td>1,000</td><td>$ 95.10</td><td>Jan 5, 2023</td></tr>
				<tr><td>META</td><td>2</td><td>n/a</td><td>44927</td></tr>
			</tbody>
		</table>
	</body></html>`

	res, err := n.Normalize(KindHTML, []byte(input))
	require.NoError(t, err)

	assert.Equal(t, 2, res.Total)
	require.Len(t, res.Candidates, 2)
	assertCandidate(t, model.Candidate{Row: 1, Ticker: "AMZN", Shares: d("1000"), PurchasePrice: d("95.10"), PurchaseDate: "2023-01-05"}, res.Candidates[0])
	assertCandidate(t, model.Candidate{Row: 2, Ticker: "META", Shares: d("2"), PurchasePrice: decimal.Zero, PurchaseDate: "2023-01-01"}, res.Candidates[1])
}

func TestNormalizeHTMLWithoutTable(t *testing.T) {
	_, err := newTestNormalizer().Normalize(KindHTML, []byte("<p>nothing here</p>"))
	assert.ErrorIs(t, err, ErrMalformedInput)
}

func TestNormalizeXLSX(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]any{"Security Name", "Symbol", "Qty", "Unit Cost", "Open Date"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]any{"Apple Inc.", "AAPL", 3, 120.5, "2022-11-30"}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]any{"Unknown Corp", "", 0, 10, ""}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	require.NoError(t, f.Close())

	res, err := newTestNormalizer().Normalize(KindXLSX, buf.Bytes())
	require.NoError(t, err)

	assert.Equal(t, 2, res.Total)
	require.Len(t, res.Candidates, 1)
	assertCandidate(t, model.Candidate{Row: 1, Ticker: "AAPL", CompanyName: "Apple Inc.", Shares: d("3"), PurchasePrice: d("120.5"), PurchaseDate: "2022-11-30"}, res.Candidates[0])
}

func TestNormalizeXLSXMalformed(t *testing.T) {
	_, err := newTestNormalizer().Normalize(KindXLSX, []byte("PK\x03\x04 not really a zip"))
	assert.ErrorIs(t, err, ErrMalformedInput)
}

func TestNormalizeJSONRows(t *testing.T) {
	input := `[
		{"Name": "Microsoft Corporation", "Amount": 4, "Price": "310.10"},
		{"Ticker": "vt", "Amount": 1.5, "Price": null, "Date": "2021-07-01"}
	]`

	res, err := newTestNormalizer().Normalize(KindJSON, []byte(input))
	require.NoError(t, err)

	assert.Equal(t, 2, res.Total)
	require.Len(t, res.Candidates, 2)
	assertCandidate(t, model.Candidate{Row: 1, CompanyName: "Microsoft Corporation", Shares: d("4"), PurchasePrice: d("310.10"), PurchaseDate: "2024-03-15"}, res.Candidates[0])
	assertCandidate(t, model.Candidate{Row: 2, Ticker: "VT", Shares: d("1.5"), PurchasePrice: decimal.Zero, PurchaseDate: "2021-07-01"}, res.Candidates[1])
}

func TestNormalizeSemicolonCSVUsesDecimalComma(t *testing.T) {
	res, err := newTestNormalizer().Normalize(KindCSV, []byte("Symbol;Shares;Purchase Price\nSAP;10;150,25\nASML;5;1.612,4\n"))
	require.NoError(t, err)

	require.Len(t, res.Candidates, 2)
	assertCandidate(t, model.Candidate{Row: 1, Ticker: "SAP", Shares: d("10"), PurchasePrice: d("150.25"), PurchaseDate: "2024-03-15"}, res.Candidates[0])
	assertCandidate(t, model.Candidate{Row: 2, Ticker: "ASML", Shares: d("5"), PurchasePrice: d("1612.4"), PurchaseDate: "2024-03-15"}, res.Candidates[1])
}

func TestNormalizeBareYearIsNotADate(t *testing.T) {
	res, err := newTestNormalizer().Normalize(KindCSV, []byte("Symbol,Shares,Date\nAAPL,1,2021\n"))
	require.NoError(t, err)

	require.Len(t, res.Candidates, 1)
	assert.Equal(t, "2024-03-15", res.Candidates[0].PurchaseDate)
}

func TestNormalizeDropsHugeExponents(t *testing.T) {
	input := `[{"Symbol": "AAPL", "Shares": 1e999999}, {"Symbol": "MSFT", "Shares": 1e-999999}]`

	start := time.Now()
	res, err := newTestNormalizer().Normalize(KindJSON, []byte(input))
	require.NoError(t, err)

	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, 2, res.Total)
	assert.Empty(t, res.Candidates)
}

func TestNormalizeErrors(t *testing.T) {
	n := newTestNormalizer()

	_, err := n.Normalize(Kind("pdf"), []byte("x"))
	assert.ErrorIs(t, err, ErrUnrecognizedFormat)

	_, err = n.Normalize(KindCSV, []byte("foo,bar\n1,2\n"))
	assert.ErrorIs(t, err, ErrMalformedInput)

	_, err = n.Normalize(KindJSON, []byte(`{"Symbol": "AAPL"}`))
	assert.ErrorIs(t, err, ErrMalformedInput)

	res, err := n.Normalize(KindCSV, []byte("\n\n"))
	require.NoError(t, err)
	assert.Equal(t, 0, res.Total)
	assert.Empty(t, res.Candidates)
}

func TestDetectKind(t *testing.T) {
	tests := []struct {
		name        string
		hint        string
		filename    string
		contentType string
		data        string
		want        Kind
		wantErr     error
	}{
		{name: "hint wins", hint: "HTML", filename: "a.csv", data: "a,b", want: KindHTML},
		{name: "unknown hint", hint: "pdf", wantErr: ErrUnrecognizedFormat},
		{name: "extension", filename: "export.XLSX", want: KindXLSX},
		{name: "content type", contentType: "text/csv; charset=utf-8", data: "<table>", want: KindCSV},
		{name: "sniff zip", contentType: "application/octet-stream", data: "PK\x03\x04...", want: KindXLSX},
		{name: "sniff html", data: "<div><TABLE><tr><td>x</td></tr></TABLE></div>", want: KindHTML},
		{name: "sniff json", data: "\n [{\"Symbol\":\"A\"}]", want: KindJSON},
		{name: "sniff csv", data: "Symbol;Shares\nA;1", want: KindCSV},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DetectKind(tt.hint, tt.filename, tt.contentType, []byte(tt.data))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSniffDelimiter(t *testing.T) {
	assert.Equal(t, ',', sniffDelimiter([]byte("a,b,c\n1,2,3")))
	assert.Equal(t, ';', sniffDelimiter([]byte("a;b;c\n1,5;2;3")))
	assert.Equal(t, '\t', sniffDelimiter([]byte("a\tb\n1\t2")))
	assert.Equal(t, '|', sniffDelimiter([]byte("a|b|c")))
	assert.Equal(t, ',', sniffDelimiter([]byte("a;b,c")))
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in           string
		decimalComma bool
		want         string
		ok           bool
	}{
		{"10", false, "10", true},
		{"150,25", false, "15025", true},
		{"150,25", true, "150.25", true},
		{"1.234,5", true, "1234.5", true},
		{"1,234.5", true, "1234.5", true},
		{"1.5e3", false, "1500", true},
		{"1e999999", false, "0", false},
		{"1e-999999", false, "0", false},
		{"1234567890123456789012345", false, "0", false},
		{strings.Repeat("1", 70), false, "0", false},
		{" $1,234.50 ", false, "1234.5", true},
		{"(12.5)", false, "-12.5", true},
		{"€ 3", false, "3", true},
		{"-", false, "0", false},
		{"abc", false, "0", false},
		{"", false, "0", false},
	}

	for _, tt := range tests {
		got, ok := parseNumber(tt.in, tt.decimalComma)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.True(t, d(tt.want).Equal(got), "%q: got %s", tt.in, got)
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"2023-05-06", "2023-05-06", true},
		{"5/6/2023", "2023-05-06", true},
		{"05/06/23", "2023-05-06", true},
		{"May 6, 2023", "2023-05-06", true},
		{"06-May-2023", "2023-05-06", true},
		{"20230506", "2023-05-06", true},
		{"45052", "2023-05-06", true},
		{"2021", "", false},
		{"12", "", false},
		{"2023-05-06T10:00:00Z", "2023-05-06", true},
		{"someday", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := parseDate(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}
