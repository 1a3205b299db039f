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
package display

import (
	"fmt"
	"io"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"

	"github.com/thobiast/magicformulabr/data"
)

type csvRow struct {
	Position            int    `csv:"position"`
	Ticker              string `csv:"ticker"`
	Price               string `csv:"price"`
	PE                  string `csv:"pe"`
	DividendYield       string `csv:"dividend_yield"`
	EVtoEBIT            string `csv:"ev_ebit"`
	EVtoEBITDA          string `csv:"ev_ebitda"`
	ROIC                string `csv:"roic"`
	ROE                 string `csv:"roe"`
	Liquidity           string `csv:"liquidity"`
	EarningsYieldRank   int    `csv:"earnings_yield_rank"`
	ReturnOnCapitalRank int    `csv:"return_on_capital_rank"`
	FinalRank           int    `csv:"final_rank"`
}

func csvValue(value decimal.NullDecimal) string {
	if !value.Valid {
		return ""
	}
	return value.Decimal.String()
}

// WriteCSV writes every ranked row, in rank order, as CSV with a header line
func WriteCSV(w io.Writer, rows []*data.RankedRow) error {
	out := make([]*csvRow, 0, len(rows))
	for idx, row := range rows {
		out = append(out, &csvRow{
			Position:            idx + 1,
			Ticker:              row.Ticker,
			Price:               csvValue(row.Price),
			PE:                  csvValue(row.PE),
			DividendYield:       csvValue(row.DividendYield),
			EVtoEBIT:            csvValue(row.EVtoEBIT),
			EVtoEBITDA:          csvValue(row.EVtoEBITDA),
			ROIC:                csvValue(row.ROIC),
			ROE:                 csvValue(row.ROE),
			Liquidity:           csvValue(row.Liquidity),
			EarningsYieldRank:   row.EarningsYieldRank,
			ReturnOnCapitalRank: row.ReturnOnCapitalRank,
			FinalRank:           row.FinalRank,
		})
	}

	return gocsv.Marshal(out, w)
}

// ExportFileName builds a file name such as magic-formula-ev-ebit-and-roic-2024-05-01.csv
func ExportFileName(method data.Method, at time.Time) string {
	return slug.Make(fmt.Sprintf("magic formula %s %s", method, at.Format("2006-01-02"))) + ".csv"
}
