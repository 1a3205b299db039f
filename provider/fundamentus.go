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
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
	"golang.org/x/net/html/charset"

	"github.com/thobiast/magicformulabr/data"
)

const (
	DefaultFundamentusURL = "http://fundamentus.com.br/resultado.php"
	DefaultUserAgent      = "Mozilla/5.0 (X11; Linux x86_64; rv:85.0) Gecko/20100101 Firefox/85.0"
	DefaultTimeout        = 60 * time.Second
)

type FundamentusConfig struct {
	URL       string
	UserAgent string
	Timeout   time.Duration
	Retries   int
}

// Fundamentus scrapes the stock screener results page of fundamentus.com.br,
// which lists every company on the Brazilian exchange in a single HTML table
type Fundamentus struct {
	url    string
	client *resty.Client
}

func NewFundamentus(cfg FundamentusConfig) *Fundamentus {
	if cfg.URL == "" {
		cfg.URL = DefaultFundamentusURL
	}

	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	client := resty.New().
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.Retries).
		SetHeader("User-Agent", cfg.UserAgent).
		SetHeader("Accept", "*/*").
		AddRetryCondition(func(resp *resty.Response, err error) bool {
			return resp != nil && resp.StatusCode() >= 500
		})

	return &Fundamentus{
		url:    cfg.URL,
		client: client,
	}
}

func (fundamentus *Fundamentus) Name() string {
	return "Fundamentus"
}

func (fundamentus *Fundamentus) Fetch(ctx context.Context) ([]*data.CompanyRecord, error) {
	logger := zerolog.Ctx(ctx)

	logger.Debug().Str("URL", fundamentus.url).Msg("downloading fundamentals")

	resp, err := fundamentus.client.R().
		SetContext(ctx).
		Get(fundamentus.url)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrFetch, fundamentus.url, err)
	}

	if resp.StatusCode() >= 300 {
		return nil, fmt.Errorf("%w: %s returned status code %d", ErrFetch, fundamentus.url, resp.StatusCode())
	}

	body, err := charset.NewReader(bytes.NewReader(resp.Body()), resp.Header().Get("Content-Type"))
	if err != nil {
		return nil, fmt.Errorf("%w: decoding response body: %w", ErrFetch, err)
	}

	records, err := ParseResultTable(ctx, body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %w", ErrFetch, ErrNoRecords)
	}

	logger.Debug().Int("NumRecords", len(records)).Dur("ResponseTime", resp.Time()).Msg("parsed fundamentals")

	return records, nil
}
