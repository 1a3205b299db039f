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
package formula

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/thobiast/magicformulabr/data"
)

// Filter reports whether a record should stay in the ranking. It is only
// consulted for records that have both method fields.
type Filter func(record *data.CompanyRecord, fields data.MethodFields) bool

// PositiveOnly drops records whose earnings yield or return on capital value is
// zero or negative
func PositiveOnly() Filter {
	return func(record *data.CompanyRecord, fields data.MethodFields) bool {
		return record.Value(fields.EarningsYield).Decimal.IsPositive() &&
			record.Value(fields.ReturnOnCapital).Decimal.IsPositive()
	}
}

// MinLiquidity drops records without liquidity or with liquidity less than or
// equal to minimum
func MinLiquidity(minimum decimal.Decimal) Filter {
	return func(record *data.CompanyRecord, _ data.MethodFields) bool {
		return record.Liquidity.Valid && record.Liquidity.Decimal.GreaterThan(minimum)
	}
}

type options struct {
	filters []Filter
	ties    TiePolicy
}

type Option func(*options)

func WithFilters(filters ...Filter) Option {
	return func(opts *options) {
		opts.filters = append(opts.filters, filters...)
	}
}

func WithTies(ties TiePolicy) Option {
	return func(opts *options) {
		opts.ties = ties
	}
}

// Rank computes the magic formula ranking of records using method. Records
// missing either method field are left out. The earnings yield field is ranked
// ascending, the return on capital field descending, and the final rank is their
// sum. Rows are ordered by final rank, then earnings yield rank, then ticker.
//
// Rank never modifies records and returns an empty slice when nothing survives
// filtering.
func Rank(records []*data.CompanyRecord, method data.Method, opts ...Option) ([]*data.RankedRow, error) {
	if !method.Valid() {
		return nil, fmt.Errorf("%w: %d", data.ErrInvalidMethod, int(method))
	}

	cfg := options{ties: Ordinal}
	for _, opt := range opts {
		opt(&cfg)
	}

	fields := method.Fields()
	candidates := selectCandidates(records, fields, cfg.filters)
	if len(candidates) == 0 {
		return []*data.RankedRow{}, nil
	}

	earningsYieldRanks := assignRanks(candidates, fields.EarningsYield, false, cfg.ties)
	returnOnCapitalRanks := assignRanks(candidates, fields.ReturnOnCapital, true, cfg.ties)

	rows := make([]*data.RankedRow, len(candidates))
	for idx, record := range candidates {
		rows[idx] = &data.RankedRow{
			CompanyRecord:       record,
			EarningsYieldRank:   earningsYieldRanks[idx],
			ReturnOnCapitalRank: returnOnCapitalRanks[idx],
			FinalRank:           earningsYieldRanks[idx] + returnOnCapitalRanks[idx],
		}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].FinalRank != rows[j].FinalRank {
			return rows[i].FinalRank < rows[j].FinalRank
		}
		if rows[i].EarningsYieldRank != rows[j].EarningsYieldRank {
			return rows[i].EarningsYieldRank < rows[j].EarningsYieldRank
		}
		return rows[i].Ticker < rows[j].Ticker
	})

	return rows, nil
}

func selectCandidates(records []*data.CompanyRecord, fields data.MethodFields, filters []Filter) []*data.CompanyRecord {
	candidates := make([]*data.CompanyRecord, 0, len(records))

RecordLoop:
	for _, record := range records {
		if record == nil {
			continue
		}

		if !record.Value(fields.EarningsYield).Valid || !record.Value(fields.ReturnOnCapital).Valid {
			continue
		}

		for _, keep := range filters {
			if !keep(record, fields) {
				continue RecordLoop
			}
		}

		candidates = append(candidates, record)
	}

	return candidates
}

// assignRanks returns the 1-based rank of each record (indexed like records)
// after a stable sort on field
func assignRanks(records []*data.CompanyRecord, field data.Field, descending bool, ties TiePolicy) []int {
	order := make([]int, len(records))
	for idx := range order {
		order[idx] = idx
	}

	sort.SliceStable(order, func(i, j int) bool {
		a := records[order[i]].Value(field).Decimal
		b := records[order[j]].Value(field).Decimal
		if descending {
			return a.GreaterThan(b)
		}
		return a.LessThan(b)
	})

	ranks := make([]int, len(records))
	for pos, idx := range order {
		rank := pos + 1
		if ties == MinRank && pos > 0 {
			prev := order[pos-1]
			if records[prev].Value(field).Decimal.Equal(records[idx].Value(field).Decimal) {
				rank = ranks[prev]
			}
		}
		ranks[idx] = rank
	}

	return ranks
}
