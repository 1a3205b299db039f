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
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/xeonx/timeago"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/thobiast/magicformulabr/data"
)

// MethodsMarkdown describes every magic formula method in markdown
func MethodsMarkdown() string {
	builder := strings.Builder{}

	builder.WriteString("# Magic Formula Methods\n\n")
	builder.WriteString("Companies are ranked twice: once by an earnings yield proxy (lower multiple is better) ")
	builder.WriteString("and once by a return on capital proxy (higher is better). The final rank is the sum of ")
	builder.WriteString("both ranks and the lowest final rank is the most attractive company.\n\n")
	builder.WriteString("| Method | Earnings yield | Return on capital |\n")
	builder.WriteString("|---|---|---|\n")

	for _, method := range data.Methods() {
		fields := method.Fields()
		builder.WriteString(fmt.Sprintf("| %d | %s | %s |\n", int(method), fields.EarningsYield.Label(), fields.ReturnOnCapital.Label()))
	}

	builder.WriteString(fmt.Sprintf("\nThe default method is %d (%s).\n", int(data.DefaultMethod), data.DefaultMethod))

	return builder.String()
}

// CacheInfo describes the state of the cache file for CacheSummary
type CacheInfo struct {
	Path     string
	MaxAge   time.Duration
	Now      time.Time
	Snapshot *data.Snapshot
	LoadErr  error
}

// CacheSummary returns a description of the cache in markdown
func CacheSummary(info CacheInfo) (string, error) {
	p := message.NewPrinter(language.English)
	builder := strings.Builder{}

	if _, err := builder.WriteString("# Cache\n\n"); err != nil {
		return "", err
	}

	if _, err := builder.WriteString(fmt.Sprintf("File: %s\n\n", info.Path)); err != nil {
		return "", err
	}

	if info.Snapshot == nil {
		status := "empty"
		if info.LoadErr != nil {
			status = info.LoadErr.Error()
		}

		if _, err := builder.WriteString(fmt.Sprintf("Status: %s\n", status)); err != nil {
			return "", err
		}

		return builder.String(), nil
	}

	snapshot := info.Snapshot
	fetchedAt := snapshot.FetchedAt()

	status := "fresh"
	if snapshot.Age(info.Now) >= info.MaxAge {
		status = "expired"
	}

	if _, err := builder.WriteString(p.Sprintf("  * Snapshot: %s\n", snapshot.ID.String())); err != nil {
		return "", err
	}

	if _, err := builder.WriteString(p.Sprintf("  * Companies: %d\n", len(snapshot.Records))); err != nil {
		return "", err
	}

	if _, err := builder.WriteString(p.Sprintf("  * Max Age: %s\n\n", info.MaxAge)); err != nil {
		return "", err
	}

	age := timeago.English.FormatReference(fetchedAt, info.Now)
	if _, err := builder.WriteString(fmt.Sprintf("Last Updated: %s (%s)\n\n", age, fetchedAt.Local().Format("01/02/2006 15:04"))); err != nil {
		return "", err
	}

	if _, err := builder.WriteString(fmt.Sprintf("Status: %s\n", status)); err != nil {
		return "", err
	}

	return builder.String(), nil
}

// RenderMarkdown renders markdown for the terminal
func RenderMarkdown(markdown string) (string, error) {
	r, err := glamour.NewTermRenderer(
		// detect background color and pick either the default dark or light theme
		glamour.WithAutoStyle(),
		// wrap output at specific width (default is 80)
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return "", err
	}

	out, err := r.Render(markdown)
	if err != nil {
		return "", fmt.Errorf("could not render markdown: %w", err)
	}

	return out, nil
}
