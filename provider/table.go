// Copyright 2024
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package provider

import (
	"context"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/thobiast/magicformulabr/data"
)

const tickerColumn = "papel"

// column headings on the results page, normalized by normalizeHeader
var columnFields = map[string]data.Field{
	"cotação":    data.PriceField,
	"p/l":        data.PEField,
	"div.yield":  data.DividendYieldField,
	"ev/ebit":    data.EVtoEBITField,
	"ev/ebitda":  data.EVtoEBITDAField,
	"roic":       data.ROICField,
	"roe":        data.ROEField,
	"liq.2meses": data.LiquidityField,
}

func normalizeHeader(heading string) string {
	return strings.ToLower(strings.Join(strings.Fields(heading), ""))
}

// ParseResultTable reads the screener results table from an HTML document.
// Rows without a ticker are skipped and only the first row of a repeated
// ticker is kept.
func ParseResultTable(ctx context.Context, r io.Reader) ([]*data.CompanyRecord, error) {
	logger := zerolog.Ctx(ctx)

	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}

	table := doc.Find("table#resultado").First()
	if table.Length() == 0 {
		table = doc.Find("table").First()
	}

	if table.Length() == 0 {
		return nil, ErrTableNotFound
	}

	tickerIdx := -1
	columns := make(map[int]data.Field)
	rows := table.Find("tr")
	rows.First().Find("th, td").Each(func(idx int, cell *goquery.Selection) {
		heading := normalizeHeader(cell.Text())
		if heading == tickerColumn {
			tickerIdx = idx
			return
		}

		if field, ok := columnFields[heading]; ok {
			columns[idx] = field
		}
	})

	if tickerIdx < 0 {
		return nil, ErrTickerColumn
	}

	records := make([]*data.CompanyRecord, 0, 1000)
	seen := make(map[string]struct{})

	// the first row holds the headings even when it uses td cells
	rows.Slice(1, goquery.ToEnd).Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() <= tickerIdx {
			return
		}

		ticker := strings.TrimSpace(cells.Eq(tickerIdx).Text())
		if ticker == "" {
			logger.Debug().Msg("skipping row without ticker")
			return
		}

		if _, ok := seen[ticker]; ok {
			logger.Warn().Str("Ticker", ticker).Msg("duplicate ticker in results table, keeping first row")
			return
		}
		seen[ticker] = struct{}{}

		record := &data.CompanyRecord{Ticker: ticker}
		for idx, field := range columns {
			if idx >= cells.Length() {
				continue
			}
			record.Set(field, ParseNumber(cells.Eq(idx).Text()))
		}

		records = append(records, record)
	})

	return records, nil
}

// ParseNumber converts a Brazilian formatted number such as "1.234,56" or
// "4,49%" to a decimal. Blank, "-", and malformed values are returned invalid.
func ParseNumber(raw string) decimal.NullDecimal {
	value := strings.TrimSpace(raw)
	value = strings.TrimSpace(strings.TrimSuffix(value, "%"))
	if value == "" || value == "-" {
		return decimal.NullDecimal{}
	}

	value = strings.ReplaceAll(value, ".", "")
	value = strings.Replace(value, ",", ".", 1)

	parsed, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.NullDecimal{}
	}

	return decimal.NewNullDecimal(parsed)
}
