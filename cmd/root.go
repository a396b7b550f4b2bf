/*
Copyright (c) YugabyteDB, Inc.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/yugabyte/yb-querysummary/src/config"
	"github.com/yugabyte/yb-querysummary/src/utils"
)

const ENV_PREFIX = "YB_QUERYSUMMARY"

var (
	cfgFile string
	logDir  string
)

var rootCmd = &cobra.Command{
	Use:   "yb-querysummary",
	Short: "Extract facts from SQL statements and truncate them for display",
	Long: `Parses PostgreSQL statements and reports the tables, functions, CTEs and filter columns they use,
classifies them by statement type, and shortens them to a length budget while keeping them valid SQL.
Whole pg_stat_statements snapshots can be summarized with the summarize command.`,

	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		applyConfigToFlags(cmd)
		err := config.ApplyLogLevel()
		if err != nil {
			utils.ErrExit("%v", err)
		}
		InitLogging(logDir, cmd.Name())
	},

	Run: func(cmd *cobra.Command, args []string) {
		if len(args) == 0 {
			cmd.Help()
			os.Exit(0)
		}
	},
}

func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default is $HOME/.yb-querysummary.yaml)")
	rootCmd.PersistentFlags().StringVar(&config.LogLevel, "log-level", config.INFO,
		"log level for yb-querysummary. Accepted values: (trace, debug, info, warn, error, fatal, panic)")
	rootCmd.PersistentFlags().StringVar(&logDir, "log-dir", "",
		"directory for the log files. Logging is disabled when not set")
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".yb-querysummary")
	}

	viper.SetEnvPrefix(ENV_PREFIX)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// applyConfigToFlags fills every flag not given on the command line from the config file or the
// environment, e.g. --max-length from YB_QUERYSUMMARY_MAX_LENGTH.
func applyConfigToFlags(cmd *cobra.Command) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if f.Changed || !viper.IsSet(f.Name) {
			return
		}
		value := viper.GetString(f.Name)
		err := cmd.Flags().Set(f.Name, value)
		if err != nil {
			utils.ErrExit("invalid value %q for %s from config: %v", value, f.Name, err)
		}
	})
}
