package quoteModel

type RawSearchResponse struct {
	Quotes []RawSearchQuote `json:"quotes"`
}

type RawSearchQuote struct {
	Symbol    string `json:"symbol"`
	Shortname string `json:"shortname"`
	Longname  string `json:"longname"`
	QuoteType string `json:"quoteType"`
	Exchange  string `json:"exchange"`
}

type RawChartResponse struct {
	Chart RawChart `json:"chart"`
}

type RawChart struct {
	Result []RawChartResult `json:"result"`
	Error  *RawChartError   `json:"error"`
}

type RawChartError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type RawChartResult struct {
	Meta       RawChartMeta `json:"meta"`
	Timestamp  []int64      `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Close []*float64 `json:"close"`
		} `json:"quote"`
	} `json:"indicators"`
}

type RawChartMeta struct {
	Symbol             string  `json:"symbol"`
	Currency           string  `json:"currency"`
	RegularMarketPrice float64 `json:"regularMarketPrice"`
	RegularMarketTime  int64   `json:"regularMarketTime"`
	ChartPreviousClose float64 `json:"chartPreviousClose"`
	PreviousClose      float64 `json:"previousClose"`
}
