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
package provider_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"

	"github.com/thobiast/magicformulabr/data"
	"github.com/thobiast/magicformulabr/provider"
)

const resultsPage = `<html><body>
<table id="resultado">
<thead><tr>
  <th>Papel</th><th>Cotação</th><th>P/L</th><th>P/VP</th><th>Div.Yield</th>
  <th>EV/EBIT</th><th>EV/EBITDA</th><th>ROIC</th><th>ROE</th><th>Liq.2meses</th>
</tr></thead>
<tbody>
<tr><td><a href="detalhes.php?papel=ABCB4">ABCB4</a></td><td>21,50</td><td>9,14</td><td>1,02</td><td>4,49%</td>
  <td>6,20</td><td>5,10</td><td>12,30%</td><td>18,83%</td><td>1.234.567,00</td></tr>
<tr><td>WXYZ3</td><td>3,10</td><td>-2,40</td><td>0,50</td><td>0,00%</td>
  <td>-</td><td></td><td>-1,50%</td><td>60,60%</td><td>0,00</td></tr>
<tr><td>ABCB4</td><td>99,00</td><td>1,00</td><td>1,00</td><td>1,00%</td>
  <td>1,00</td><td>1,00</td><td>1,00%</td><td>1,00%</td><td>1,00</td></tr>
<tr><td> </td><td>1,00</td><td>1,00</td><td>1,00</td><td>1,00%</td>
  <td>1,00</td><td>1,00</td><td>1,00%</td><td>1,00%</td><td>1,00</td></tr>
</tbody>
</table>
</body></html>`

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

var _ = Describe("ParseNumber", func() {
	It("parses Brazilian formatted numbers", func() {
		Expect(provider.ParseNumber("1.234,56").Decimal.Equal(dec("1234.56"))).To(BeTrue())
		Expect(provider.ParseNumber(" 4,49% ").Decimal.Equal(dec("4.49"))).To(BeTrue())
		Expect(provider.ParseNumber("-3,1").Decimal.Equal(dec("-3.1"))).To(BeTrue())
		Expect(provider.ParseNumber("12").Valid).To(BeTrue())
	})

	It("treats blanks and garbage as absent", func() {
		for _, raw := range []string{"", "-", " % ", "n/a", "1,2,3"} {
			Expect(provider.ParseNumber(raw).Valid).To(BeFalse(), raw)
		}
	})
})

var _ = Describe("ParseResultTable", func() {
	It("maps columns to record fields", func() {
		records, err := provider.ParseResultTable(context.Background(), strings.NewReader(resultsPage))
		Expect(err).NotTo(HaveOccurred())
		Expect(records).To(HaveLen(2))

		first := records[0]
		Expect(first.Ticker).To(Equal("ABCB4"))
		Expect(first.Price.Decimal.Equal(dec("21.5"))).To(BeTrue())
		Expect(first.PE.Decimal.Equal(dec("9.14"))).To(BeTrue())
		Expect(first.DividendYield.Decimal.Equal(dec("4.49"))).To(BeTrue())
		Expect(first.EVtoEBIT.Decimal.Equal(dec("6.2"))).To(BeTrue())
		Expect(first.EVtoEBITDA.Decimal.Equal(dec("5.1"))).To(BeTrue())
		Expect(first.ROIC.Decimal.Equal(dec("12.3"))).To(BeTrue())
		Expect(first.ROE.Decimal.Equal(dec("18.83"))).To(BeTrue())
		Expect(first.Liquidity.Decimal.Equal(dec("1234567"))).To(BeTrue())

		second := records[1]
		Expect(second.Ticker).To(Equal("WXYZ3"))
		Expect(second.PE.Decimal.Equal(dec("-2.4"))).To(BeTrue())
		Expect(second.EVtoEBIT.Valid).To(BeFalse())
		Expect(second.EVtoEBITDA.Valid).To(BeFalse())
		Expect(second.ROIC.Decimal.Equal(dec("-1.5"))).To(BeTrue())
	})

	It("produces a valid snapshot", func() {
		records, err := provider.ParseResultTable(context.Background(), strings.NewReader(resultsPage))
		Expect(err).NotTo(HaveOccurred())
		Expect(data.NewSnapshot(records, time.Now()).Validate()).To(Succeed())
	})

	It("does not read a td heading row as a company", func() {
		records, err := provider.ParseResultTable(context.Background(), strings.NewReader(
			`<table><tr><td>Papel</td><td>P/L</td></tr><tr><td>PETR4</td><td>3,50</td></tr></table>`))
		Expect(err).NotTo(HaveOccurred())
		Expect(records).To(HaveLen(1))
		Expect(records[0].Ticker).To(Equal("PETR4"))
		Expect(records[0].PE.Decimal.Equal(dec("3.5"))).To(BeTrue())
	})

	It("fails without a ticker column", func() {
		_, err := provider.ParseResultTable(context.Background(),
			strings.NewReader(`<table><tr><th>Nome</th></tr><tr><td>x</td></tr></table>`))
		Expect(err).To(MatchError(provider.ErrTickerColumn))
	})

	It("fails without a table", func() {
		_, err := provider.ParseResultTable(context.Background(), strings.NewReader(`<p>maintenance</p>`))
		Expect(err).To(MatchError(provider.ErrTableNotFound))
	})
})

var _ = Describe("Fundamentus", func() {
	var (
		server  *httptest.Server
		handler http.HandlerFunc
	)

	BeforeEach(func() {
		handler = nil
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			handler(w, r)
		}))
	})

	AfterEach(func() {
		server.Close()
	})

	newSource := func() *provider.Fundamentus {
		return provider.NewFundamentus(provider.FundamentusConfig{
			URL:     server.URL + "/resultado.php",
			Timeout: 5 * time.Second,
		})
	}

	It("downloads and parses the results page", func() {
		var userAgent string
		handler = func(w http.ResponseWriter, r *http.Request) {
			userAgent = r.Header.Get("User-Agent")
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = w.Write([]byte(resultsPage))
		}

		records, err := newSource().Fetch(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(records).To(HaveLen(2))
		Expect(userAgent).To(Equal(provider.DefaultUserAgent))
	})

	It("decodes ISO-8859-1 pages", func() {
		handler = func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html; charset=ISO-8859-1")
			_, _ = w.Write([]byte("<table><tr><th>Papel</th><th>Cota\xe7\xe3o</th></tr><tr><td>PETR4</td><td>38,12</td></tr></table>"))
		}

		records, err := newSource().Fetch(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(records).To(HaveLen(1))
		Expect(records[0].Price.Decimal.Equal(dec("38.12"))).To(BeTrue())
	})

	It("returns a fetch error on a bad status code", func() {
		handler = func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}

		_, err := newSource().Fetch(context.Background())
		Expect(err).To(MatchError(provider.ErrFetch))
	})

	It("returns a fetch error when the page has no companies", func() {
		handler = func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`<table><tr><th>Papel</th></tr></table>`))
		}

		_, err := newSource().Fetch(context.Background())
		Expect(err).To(MatchError(provider.ErrFetch))
		Expect(err).To(MatchError(provider.ErrNoRecords))
	})

	It("returns a fetch error when the server is unreachable", func() {
		source := newSource()
		server.Close()

		_, err := source.Fetch(context.Background())
		Expect(err).To(MatchError(provider.ErrFetch))
	})
})
