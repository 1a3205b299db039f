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
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd ranks companies when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "magicformula",
	Short: "Rank companies listed on B3 with Joel Greenblatt's magic formula",
	Long: `magicformula downloads fundamental indicators for every company listed on
the Brazilian stock exchange from fundamentus.com.br and ranks them with Joel
Greenblatt's magic formula.

Each company is ranked twice: by an earnings yield proxy, where a lower multiple
is better, and by a return on capital proxy, where a higher return is better. The
two ranks are added and the companies with the lowest sum are shown first.

Methods:
    1 - P/E and ROE
    2 - EV/EBIT and ROIC
    3 - EV/EBITDA and ROIC

Downloaded data is cached for 24 hours; use --force-update to refresh it.`,
	Example: `  magicformula -m 1
  magicformula -v
  magicformula -m 3 -vv
  magicformula -m 3 --top 30 --force-update
  magicformula --csv ranking.csv`,
	Args: cobra.NoArgs,
	Run:  runRank,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.magicformula.toml)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "enable debug logging")
	rootCmd.PersistentFlags().String("cache-file", "", "cache file (default is magicformula/fundamentus.json in the user cache directory)")

	bindPFlag("log.debug", rootCmd.PersistentFlags().Lookup("debug"))
	bindPFlag("cache.file", rootCmd.PersistentFlags().Lookup("cache-file"))
}

func bindPFlag(key string, flag *pflag.Flag) {
	if err := viper.BindPFlag(key, flag); err != nil {
		log.Panic().Err(err).Str("Key", key).Msg("BindPFlag failed")
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	// a .env file in the working directory is optional
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	setDefaults()

	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".magicformula" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigType("toml")
		viper.SetConfigName(".magicformula")
	}

	viper.SetEnvPrefix("MAGICFORMULA")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	configErr := viper.ReadInConfig()

	setupLogging()

	var notFound viper.ConfigFileNotFoundError
	switch {
	case configErr == nil:
		log.Debug().Str("ConfigFN", viper.ConfigFileUsed()).Msg("Using config file")
	case cfgFile == "" && errors.As(configErr, &notFound):
	default:
		log.Fatal().Err(configErr).Msg("could not read config file")
	}
}

func setupLogging() {
	level, err := zerolog.ParseLevel(viper.GetString("log.level"))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	if viper.GetBool("log.debug") {
		level = zerolog.DebugLevel
	}

	zerolog.SetGlobalLevel(level)
}
