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
package data_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"

	"github.com/thobiast/magicformulabr/data"
)

var _ = Describe("Method", func() {
	DescribeTable("maps selectors to fields",
		func(selector int, earningsYield, returnOnCapital data.Field, name string) {
			method, err := data.ParseMethod(selector)
			Expect(err).NotTo(HaveOccurred())
			Expect(method.Fields()).To(Equal(data.MethodFields{EarningsYield: earningsYield, ReturnOnCapital: returnOnCapital}))
			Expect(method.String()).To(Equal(name))
		},
		Entry("method 1", 1, data.PEField, data.ROEField, "P/E and ROE"),
		Entry("method 2", 2, data.EVtoEBITField, data.ROICField, "EV/EBIT and ROIC"),
		Entry("method 3", 3, data.EVtoEBITDAField, data.ROICField, "EV/EBITDA and ROIC"),
	)

	It("rejects unknown selectors", func() {
		for _, selector := range []int{0, 4, -1} {
			_, err := data.ParseMethod(selector)
			Expect(err).To(MatchError(data.ErrInvalidMethod))
		}
		Expect(data.Method(9).String()).To(Equal("Method(9)"))
	})
})

var _ = Describe("CompanyRecord", func() {
	It("reads and writes fields by name", func() {
		record := &data.CompanyRecord{Ticker: "PETR4"}
		record.Set(data.ROICField, decimal.NewNullDecimal(decimal.NewFromInt(12)))

		Expect(record.ROIC.Valid).To(BeTrue())
		Expect(record.Value(data.ROICField).Decimal.Equal(decimal.NewFromInt(12))).To(BeTrue())
		Expect(record.Value(data.ROEField).Valid).To(BeFalse())
		Expect(record.Value(data.Field("unknown")).Valid).To(BeFalse())
	})

	It("compares values numerically", func() {
		a := &data.CompanyRecord{Ticker: "VALE3", PE: decimal.NewNullDecimal(decimal.RequireFromString("5.0"))}
		b := &data.CompanyRecord{Ticker: "VALE3", PE: decimal.NewNullDecimal(decimal.RequireFromString("5"))}
		Expect(a.Equal(b)).To(BeTrue())

		b.ROE = decimal.NewNullDecimal(decimal.Zero)
		Expect(a.Equal(b)).To(BeFalse())
	})
})

var _ = Describe("Snapshot", func() {
	fetchedAt := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	It("measures age from the fetch time", func() {
		snapshot := data.NewSnapshot([]*data.CompanyRecord{{Ticker: "ITUB4"}}, fetchedAt)
		Expect(snapshot.FetchedAt().Equal(fetchedAt)).To(BeTrue())
		Expect(snapshot.Age(fetchedAt.Add(90 * time.Minute))).To(Equal(90 * time.Minute))
	})

	It("rejects empty and duplicate tickers", func() {
		empty := data.NewSnapshot([]*data.CompanyRecord{{Ticker: "ITUB4"}, {Ticker: ""}}, fetchedAt)
		Expect(empty.Validate()).To(MatchError(data.ErrEmptyTicker))

		dup := data.NewSnapshot([]*data.CompanyRecord{{Ticker: "ITUB4"}, {Ticker: "ITUB4"}}, fetchedAt)
		Expect(dup.Validate()).To(MatchError(data.ErrDuplicateTicker))

		Expect(data.NewSnapshot(nil, fetchedAt).Validate()).To(Succeed())
	})
})
