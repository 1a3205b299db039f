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
	"io/fs"
	"os"
	"path/filepath"

	"github.com/charmbracelet/huh"
	"github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/thobiast/magicformulabr/cache"
	"github.com/thobiast/magicformulabr/data"
	"github.com/thobiast/magicformulabr/provider"
)

// Config mirrors the keys read through viper and is written by `config init`
type Config struct {
	Log struct {
		Level string `toml:"level"`
	} `toml:"log"`

	Source struct {
		URL       string `toml:"url"`
		UserAgent string `toml:"user_agent"`
		Timeout   string `toml:"timeout"`
		Retries   int    `toml:"retries"`
	} `toml:"source"`

	Cache struct {
		File       string `toml:"file"`
		MaxAge     string `toml:"max_age"`
		AllowStale bool   `toml:"allow_stale"`
	} `toml:"cache"`

	Rank struct {
		Method       int     `toml:"method"`
		Top          int     `toml:"top"`
		PositiveOnly bool    `toml:"positive_only"`
		MinLiquidity float64 `toml:"min_liquidity"`
		Ties         string  `toml:"ties"`
	} `toml:"rank"`

	Healthchecks struct {
		PingURL string `toml:"ping_url"`
	} `toml:"healthchecks"`
}

// DefaultConfig returns the configuration used when no file or flag overrides it
func DefaultConfig() *Config {
	conf := &Config{}

	conf.Log.Level = "info"

	conf.Source.URL = provider.DefaultFundamentusURL
	conf.Source.UserAgent = provider.DefaultUserAgent
	conf.Source.Timeout = provider.DefaultTimeout.String()
	conf.Source.Retries = 2

	conf.Cache.MaxAge = cache.DefaultMaxAge.String()

	conf.Rank.Method = int(data.DefaultMethod)
	conf.Rank.Top = 20
	conf.Rank.PositiveOnly = true
	conf.Rank.Ties = "ordinal"

	return conf
}

func setDefaults() {
	conf := DefaultConfig()

	viper.SetDefault("log.level", conf.Log.Level)
	viper.SetDefault("source.url", conf.Source.URL)
	viper.SetDefault("source.user_agent", conf.Source.UserAgent)
	viper.SetDefault("source.timeout", conf.Source.Timeout)
	viper.SetDefault("source.retries", conf.Source.Retries)
	viper.SetDefault("cache.max_age", conf.Cache.MaxAge)
	viper.SetDefault("cache.allow_stale", conf.Cache.AllowStale)
	viper.SetDefault("rank.method", conf.Rank.Method)
	viper.SetDefault("rank.top", conf.Rank.Top)
	viper.SetDefault("rank.positive_only", conf.Rank.PositiveOnly)
	viper.SetDefault("rank.min_liquidity", conf.Rank.MinLiquidity)
	viper.SetDefault("rank.ties", conf.Rank.Ties)
}

var configForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

// configInitCmd writes the default configuration
var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a configuration file with the default settings",
	Run: func(cmd *cobra.Command, args []string) {
		configFN := cfgFile
		if configFN == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				log.Fatal().Err(err).Msg("could not determine user home directory")
			}
			configFN = filepath.Join(home, ".magicformula.toml")
		}

		if _, err := os.Stat(configFN); err == nil && !configForce {
			overwrite := false
			form := huh.NewForm(
				huh.NewGroup(
					huh.NewConfirm().
						Title("Configuration file " + configFN + " exists. Overwrite it?").
						Value(&overwrite),
				),
			)

			if err := form.Run(); err != nil {
				log.Fatal().Err(err).Msg("failed to run confirmation")
			}

			if !overwrite {
				log.Info().Msg("Not overwriting configuration file")
				return
			}
		} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
			log.Fatal().Err(err).Str("FileName", configFN).Msg("could not check configuration file")
		}

		configData, err := toml.Marshal(DefaultConfig())
		if err != nil {
			log.Fatal().Err(err).Msg("could not marshal configuration data")
		}

		err = os.WriteFile(configFN, configData, 0644)
		if err != nil {
			log.Fatal().Err(err).Str("FileName", configFN).Msg("could not save configuration to file")
		}

		log.Info().Str("ConfigFile", configFN).Msg("configuration saved")
	},
}

func cacheFileName() string {
	fn := viper.GetString("cache.file")
	if fn != "" {
		return fn
	}

	fn, err := cache.DefaultPath()
	if err != nil {
		log.Fatal().Err(err).Msg("could not determine cache file location; set cache.file")
	}

	return fn
}

func newCache() *cache.Cache {
	maxAge := viper.GetDuration("cache.max_age")
	if maxAge <= 0 {
		log.Warn().Str("MaxAge", viper.GetString("cache.max_age")).Msg("invalid cache.max_age, using default")
		maxAge = cache.DefaultMaxAge
	}

	return cache.New(cacheFileName(),
		cache.WithMaxAge(maxAge),
		cache.WithAllowStale(viper.GetBool("cache.allow_stale")),
	)
}

func newDataSource() provider.DataSource {
	timeout := viper.GetDuration("source.timeout")
	if timeout <= 0 {
		timeout = provider.DefaultTimeout
	}

	return provider.NewFundamentus(provider.FundamentusConfig{
		URL:       viper.GetString("source.url"),
		UserAgent: viper.GetString("source.user_agent"),
		Timeout:   timeout,
		Retries:   viper.GetInt("source.retries"),
	})
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configInitCmd.Flags().BoolVarP(&configForce, "force", "f", false, "overwrite an existing configuration file")
}
