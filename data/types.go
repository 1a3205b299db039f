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
package data

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrEmptyTicker     = errors.New("ticker is empty")
	ErrDuplicateTicker = errors.New("duplicate ticker")
)

// Field identifies one numeric attribute of a CompanyRecord
type Field string

const (
	PriceField         Field = "price"
	PEField            Field = "pe"
	DividendYieldField Field = "dividend_yield"
	EVtoEBITField      Field = "ev_ebit"
	EVtoEBITDAField    Field = "ev_ebitda"
	ROICField          Field = "roic"
	ROEField           Field = "roe"
	LiquidityField     Field = "liquidity"
)

var fieldLabels = map[Field]string{
	PriceField:         "Price",
	PEField:            "P/E",
	DividendYieldField: "Div.Yield",
	EVtoEBITField:      "EV/EBIT",
	EVtoEBITDAField:    "EV/EBITDA",
	ROICField:          "ROIC",
	ROEField:           "ROE",
	LiquidityField:     "Liq.2m",
}

// Label returns the column heading used when displaying the field
func (f Field) Label() string {
	if label, ok := fieldLabels[f]; ok {
		return label
	}
	return string(f)
}

// CompanyRecord holds the fundamental indicators of one ticker. Values that
// could not be read from the source are left invalid rather than zero.
type CompanyRecord struct {
	Ticker        string              `json:"ticker"`
	Price         decimal.NullDecimal `json:"price"`
	PE            decimal.NullDecimal `json:"pe"`
	DividendYield decimal.NullDecimal `json:"dividend_yield"`
	EVtoEBIT      decimal.NullDecimal `json:"ev_ebit"`
	EVtoEBITDA    decimal.NullDecimal `json:"ev_ebitda"`
	ROIC          decimal.NullDecimal `json:"roic"`
	ROE           decimal.NullDecimal `json:"roe"`
	Liquidity     decimal.NullDecimal `json:"liquidity"`
}

// Value returns the record's value for field
func (record *CompanyRecord) Value(field Field) decimal.NullDecimal {
	switch field {
	case PriceField:
		return record.Price
	case PEField:
		return record.PE
	case DividendYieldField:
		return record.DividendYield
	case EVtoEBITField:
		return record.EVtoEBIT
	case EVtoEBITDAField:
		return record.EVtoEBITDA
	case ROICField:
		return record.ROIC
	case ROEField:
		return record.ROE
	case LiquidityField:
		return record.Liquidity
	default:
		return decimal.NullDecimal{}
	}
}

// Set stores value in field; unknown fields are ignored
func (record *CompanyRecord) Set(field Field, value decimal.NullDecimal) {
	switch field {
	case PriceField:
		record.Price = value
	case PEField:
		record.PE = value
	case DividendYieldField:
		record.DividendYield = value
	case EVtoEBITField:
		record.EVtoEBIT = value
	case EVtoEBITDAField:
		record.EVtoEBITDA = value
	case ROICField:
		record.ROIC = value
	case ROEField:
		record.ROE = value
	case LiquidityField:
		record.Liquidity = value
	}
}

// Equal reports whether both records carry the same ticker and values
func (record *CompanyRecord) Equal(other *CompanyRecord) bool {
	if record == nil || other == nil {
		return record == other
	}

	if record.Ticker != other.Ticker {
		return false
	}

	for _, field := range []Field{PriceField, PEField, DividendYieldField, EVtoEBITField,
		EVtoEBITDAField, ROICField, ROEField, LiquidityField} {
		if !nullEqual(record.Value(field), other.Value(field)) {
			return false
		}
	}

	return true
}

func nullEqual(a, b decimal.NullDecimal) bool {
	if a.Valid != b.Valid {
		return false
	}
	return !a.Valid || a.Decimal.Equal(b.Decimal)
}

// Snapshot is the full set of records returned by one fetch. Timestamp is the
// fetch time in seconds since the epoch.
type Snapshot struct {
	ID        uuid.UUID        `json:"id"`
	Timestamp int64            `json:"timestamp"`
	Records   []*CompanyRecord `json:"records"`
}

func NewSnapshot(records []*CompanyRecord, fetchedAt time.Time) *Snapshot {
	return &Snapshot{
		ID:        uuid.New(),
		Timestamp: fetchedAt.Unix(),
		Records:   records,
	}
}

// FetchedAt returns the snapshot timestamp as a time
func (snapshot *Snapshot) FetchedAt() time.Time {
	return time.Unix(snapshot.Timestamp, 0)
}

// Age returns how long before now the snapshot was fetched
func (snapshot *Snapshot) Age(now time.Time) time.Duration {
	return now.Sub(snapshot.FetchedAt())
}

// Validate checks that every ticker is non-empty and unique
func (snapshot *Snapshot) Validate() error {
	seen := make(map[string]struct{}, len(snapshot.Records))
	for idx, record := range snapshot.Records {
		if record == nil || record.Ticker == "" {
			return fmt.Errorf("%w: record %d", ErrEmptyTicker, idx)
		}

		if _, ok := seen[record.Ticker]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateTicker, record.Ticker)
		}

		seen[record.Ticker] = struct{}{}
	}

	return nil
}

// Equal reports whether two snapshots hold the same id, timestamp, and records
// in the same order
func (snapshot *Snapshot) Equal(other *Snapshot) bool {
	if snapshot == nil || other == nil {
		return snapshot == other
	}

	if snapshot.ID != other.ID || snapshot.Timestamp != other.Timestamp ||
		len(snapshot.Records) != len(other.Records) {
		return false
	}

	for idx := range snapshot.Records {
		if !snapshot.Records[idx].Equal(other.Records[idx]) {
			return false
		}
	}

	return true
}

// RankedRow is a CompanyRecord with its magic formula ranks. FinalRank is the
// sum of the two sub-ranks; lower is better.
type RankedRow struct {
	*CompanyRecord

	EarningsYieldRank   int
	ReturnOnCapitalRank int
	FinalRank           int
}
