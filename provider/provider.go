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
	"errors"

	"github.com/thobiast/magicformulabr/data"
)

var (
	ErrFetch         = errors.New("fetch failed")
	ErrTableNotFound = errors.New("results table not found")
	ErrTickerColumn  = errors.New("ticker column not found")
	ErrNoRecords     = errors.New("no records returned")
)

// DataSource retrieves the current fundamentals of every listed company.
// Implementations return errors wrapping ErrFetch.
type DataSource interface {
	Name() string
	Fetch(ctx context.Context) ([]*data.CompanyRecord, error)
}
