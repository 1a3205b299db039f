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
package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/hako/durafmt"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/xeonx/timeago"

	"github.com/thobiast/magicformulabr/data"
	"github.com/thobiast/magicformulabr/display"
	"github.com/thobiast/magicformulabr/formula"
	"github.com/thobiast/magicformulabr/healthcheck"
)

var (
	forceUpdate bool
	interactive bool
	verbosity   int
	csvFile     string
)

func runRank(cmd *cobra.Command, args []string) {
	ctx := log.Logger.WithContext(context.Background())

	method, err := data.ParseMethod(viper.GetInt("rank.method"))
	if err != nil {
		log.Fatal().Err(err).Msg("invalid method")
	}

	if interactive {
		method = pickMethod(method)
	}

	ties, err := formula.ParseTiePolicy(viper.GetString("rank.ties"))
	if err != nil {
		log.Fatal().Err(err).Msg("invalid tie policy")
	}

	log.Debug().Int("Method", int(method)).Str("Ties", string(ties)).Int("Top", viper.GetInt("rank.top")).
		Bool("ForceUpdate", forceUpdate).Msg("ranking companies")

	myCache := newCache()
	source := newDataSource()

	startTime := time.Now()
	result, err := myCache.Get(ctx, source, forceUpdate)
	if err != nil {
		log.Fatal().Err(err).Str("Source", source.Name()).Str("CacheFile", myCache.Path()).Msg("could not load company data")
	}

	snapshot := result.Snapshot
	if !result.FromCache {
		log.Info().Str("RunTime", durafmt.Parse(time.Since(startTime)).String()).Int("NumRecords", len(snapshot.Records)).
			Str("Source", source.Name()).Msg("downloaded fundamentals")
	}

	if result.Stale {
		log.Warn().Err(result.FetchErr).Str("Updated", timeago.English.Format(snapshot.FetchedAt())).
			Msg("refresh failed, ranking stale cached data")
	}

	rows, err := formula.Rank(snapshot.Records, method, rankOptions(ties)...)
	if err != nil {
		log.Fatal().Err(err).Msg("ranking failed")
	}

	log.Debug().Int("NumRecords", len(snapshot.Records)).Int("NumRanked", len(rows)).Str("SnapshotID", snapshot.ID.String()).
		Msg("ranked companies")

	fmt.Fprintln(cmd.OutOrStdout(), display.RenderTable(rows, method, viper.GetInt("rank.top"), verbosity))

	if csvFile != "" {
		exportCSV(rows, method)
	}

	if pingURL := viper.GetString("healthchecks.ping_url"); pingURL != "" {
		if err := healthcheck.Ping(ctx, pingURL); err != nil {
			log.Warn().Err(err).Msg("health check ping failed")
		}
	}
}

func rankOptions(ties formula.TiePolicy) []formula.Option {
	filters := make([]formula.Filter, 0, 2)

	if viper.GetBool("rank.positive_only") {
		filters = append(filters, formula.PositiveOnly())
	}

	if minLiquidity := viper.GetFloat64("rank.min_liquidity"); minLiquidity >= 0 {
		filters = append(filters, formula.MinLiquidity(decimal.NewFromFloat(minLiquidity)))
	}

	return []formula.Option{formula.WithTies(ties), formula.WithFilters(filters...)}
}

func pickMethod(current data.Method) data.Method {
	options := make([]huh.Option[data.Method], 0, len(data.Methods()))
	for _, method := range data.Methods() {
		options = append(options, huh.NewOption(fmt.Sprintf("%d - %s", int(method), method), method))
	}

	selected := current
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[data.Method]().
				Title("Which fields should the magic formula use?").
				Options(options...).
				Value(&selected),
		),
	)

	if err := form.Run(); err != nil {
		log.Fatal().Err(err).Msg("failed to select method")
	}

	return selected
}

func exportCSV(rows []*data.RankedRow, method data.Method) {
	fn := csvFile
	if fn == "-" {
		fn = display.ExportFileName(method, time.Now())
	}

	if err := writeCSVFile(fn, rows); err != nil {
		log.Fatal().Err(err).Str("FileName", fn).Msg("could not write csv file")
	}

	log.Info().Str("FileName", fn).Int("NumRows", len(rows)).Msg("saved ranking")
}

func writeCSVFile(fn string, rows []*data.RankedRow) error {
	fh, err := os.Create(fn)
	if err != nil {
		return err
	}

	if err := display.WriteCSV(fh, rows); err != nil {
		fh.Close()
		return err
	}

	return fh.Close()
}

func init() {
	flags := rootCmd.Flags()

	flags.IntP("method", "m", int(data.DefaultMethod), "fields used by the magic formula (1: P/E and ROE, 2: EV/EBIT and ROIC, 3: EV/EBITDA and ROIC)")
	flags.IntP("top", "t", 20, "number of companies to show (0 shows all)")
	flags.String("ties", "ordinal", "rank equal values sequentially (ordinal) or with the lowest rank of the group (min)")
	flags.Bool("positive-only", true, "drop companies with a non-positive earnings yield or return on capital field")
	flags.Float64("min-liquidity", 0, "drop companies with 2 month liquidity at or below this value (negative disables)")
	flags.Duration("max-age", 0, "maximum age of cached data (default 24h)")
	flags.Bool("allow-stale", false, "rank expired cached data when the refresh fails")

	flags.BoolVar(&forceUpdate, "force-update", false, "refresh the cache with recent data")
	flags.BoolVarP(&interactive, "interactive", "i", false, "choose the method interactively")
	flags.CountVarP(&verbosity, "verbose", "v", "show more columns (-v, -vv)")
	flags.StringVar(&csvFile, "csv", "", "also write the full ranking to a CSV file (- picks a name)")

	bindPFlag("rank.method", flags.Lookup("method"))
	bindPFlag("rank.top", flags.Lookup("top"))
	bindPFlag("rank.ties", flags.Lookup("ties"))
	bindPFlag("rank.positive_only", flags.Lookup("positive-only"))
	bindPFlag("rank.min_liquidity", flags.Lookup("min-liquidity"))
	bindPFlag("cache.max_age", flags.Lookup("max-age"))
	bindPFlag("cache.allow_stale", flags.Lookup("allow-stale"))
}
