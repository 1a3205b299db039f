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
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/shopspring/decimal"

	"github.com/thobiast/magicformulabr/data"
)

const EmptyRanking = "No companies passed the filtering criteria. The ranking is empty."

var percentFields = map[data.Field]bool{
	data.DividendYieldField: true,
	data.ROICField:          true,
	data.ROEField:           true,
}

// Column is one column of the ranking table
type Column struct {
	Header string
	Value  func(row *data.RankedRow) string
}

func fieldColumn(field data.Field) Column {
	return Column{
		Header: field.Label(),
		Value: func(row *data.RankedRow) string {
			return FormatValue(field, row.Value(field))
		},
	}
}

// FormatValue renders a field value with two decimals; absent values render as "-"
func FormatValue(field data.Field, value decimal.NullDecimal) string {
	if !value.Valid {
		return "-"
	}

	if field == data.LiquidityField {
		return value.Decimal.StringFixed(0)
	}

	formatted := value.Decimal.StringFixed(2)
	if percentFields[field] {
		formatted += "%"
	}
	return formatted
}

// Columns lists the table columns for method. Verbosity 1 adds every
// valuation multiple and 2 adds liquidity.
func Columns(method data.Method, verbosity int) []Column {
	fields := method.Fields()

	selected := []data.Field{data.PriceField, fields.EarningsYield, fields.ReturnOnCapital}
	if verbosity >= 1 {
		selected = append(selected, data.PEField, data.EVtoEBITField, data.EVtoEBITDAField)
	}
	selected = append(selected, data.ROICField, data.ROEField, data.DividendYieldField)
	if verbosity >= 2 {
		selected = append(selected, data.LiquidityField)
	}

	columns := []Column{{Header: "Ticker", Value: func(row *data.RankedRow) string { return row.Ticker }}}

	seen := make(map[data.Field]bool, len(selected))
	for _, field := range selected {
		if seen[field] {
			continue
		}
		seen[field] = true
		columns = append(columns, fieldColumn(field))
	}

	return append(columns,
		Column{Header: "Rank EY", Value: func(row *data.RankedRow) string { return strconv.Itoa(row.EarningsYieldRank) }},
		Column{Header: "Rank ROC", Value: func(row *data.RankedRow) string { return strconv.Itoa(row.ReturnOnCapitalRank) }},
		Column{Header: "Rank Final", Value: func(row *data.RankedRow) string { return strconv.Itoa(row.FinalRank) }},
	)
}

// RenderTable formats the first topN rows as a table numbered from 1. A topN
// of zero or less renders every row.
func RenderTable(rows []*data.RankedRow, method data.Method, topN, verbosity int) string {
	if len(rows) == 0 {
		return EmptyRanking
	}

	if topN > 0 && topN < len(rows) {
		rows = rows[:topN]
	}

	columns := Columns(method, verbosity)
	headers := make([]string, 0, len(columns)+1)
	headers = append(headers, "#")
	for _, column := range columns {
		headers = append(headers, column.Header)
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("63"))).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			style := lipgloss.NewStyle().Padding(0, 1)
			if row == table.HeaderRow {
				return style.Bold(true).Foreground(lipgloss.Color("212"))
			}
			if col > 1 {
				style = style.Align(lipgloss.Right)
			}
			return style
		})

	for idx, row := range rows {
		cells := make([]string, 0, len(headers))
		cells = append(cells, strconv.Itoa(idx+1))
		for _, column := range columns {
			cells = append(cells, column.Value(row))
		}
		t.Row(cells...)
	}

	return t.String()
}
