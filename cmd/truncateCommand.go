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

	"github.com/spf13/cobra"

	"github.com/yugabyte/yb-querysummary/src/query/querytruncate"
	"github.com/yugabyte/yb-querysummary/src/summary"
	"github.com/yugabyte/yb-querysummary/src/utils"
)

var maxLength int

var truncateCmd = &cobra.Command{
	Use:   "truncate",
	Short: "Shorten SQL statements to a length budget, keeping them valid SQL where possible",

	PreRun: func(cmd *cobra.Command, args []string) {
		validateMaxLengthFlag()
	},

	Run: func(cmd *cobra.Command, args []string) {
		tree, err := readParseTree()
		if err != nil {
			utils.ErrExit("%v", err)
		}
		truncated, err := querytruncate.Truncate(tree, maxLength, parser)
		if err != nil {
			utils.ErrExit("truncating: %v", err)
		}
		fmt.Println(truncated)
	},
}

func init() {
	rootCmd.AddCommand(truncateCmd)
	registerInputFlags(truncateCmd)
	registerMaxLengthFlag(truncateCmd)
}

func registerMaxLengthFlag(cmd *cobra.Command) {
	cmd.Flags().IntVar(&maxLength, "max-length", summary.DEFAULT_MAX_LENGTH,
		"maximum length in bytes of the truncated statement")
}

// Below 4 bytes not even the hard cut with its "..." suffix fits.
func validateMaxLengthFlag() {
	if maxLength < 4 {
		utils.ErrExit("invalid --max-length %d: must be at least 4", maxLength)
	}
}
