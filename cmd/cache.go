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
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/thobiast/magicformulabr/cache"
	"github.com/thobiast/magicformulabr/display"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the local copy of downloaded fundamentals",
}

// cacheInfoCmd represents the cache info command
var cacheInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Display information about the cached data",
	Run: func(cmd *cobra.Command, args []string) {
		myCache := newCache()

		info := display.CacheInfo{
			Path:   myCache.Path(),
			MaxAge: myCache.MaxAge(),
			Now:    time.Now(),
		}

		snapshot, err := myCache.Load()
		switch {
		case err == nil:
			info.Snapshot = snapshot
		case errors.Is(err, cache.ErrCacheMissing):
		default:
			info.LoadErr = err
		}

		summary, err := display.CacheSummary(info)
		if err != nil {
			log.Fatal().Err(err).Msg("could not create cache summary document")
		}

		out, err := display.RenderMarkdown(summary)
		if err != nil {
			log.Fatal().Err(err).Msg("could not render cache summary document")
		}

		fmt.Fprint(cmd.OutOrStdout(), out)
	},
}

// cacheClearCmd represents the cache clear command
var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove the cached data",
	Run: func(cmd *cobra.Command, args []string) {
		myCache := newCache()
		if err := myCache.Clear(); err != nil {
			log.Fatal().Err(err).Str("FileName", myCache.Path()).Msg("could not remove cache file")
		}

		log.Info().Str("FileName", myCache.Path()).Msg("cache cleared")
	},
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheInfoCmd)
	cacheCmd.AddCommand(cacheClearCmd)
}
