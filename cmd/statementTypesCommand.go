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

	"github.com/spf13/cobra"

	"github.com/yugabyte/yb-querysummary/src/query/queryfacts"
	"github.com/yugabyte/yb-querysummary/src/utils"
)

var statementTypesCmd = &cobra.Command{
	Use:   "statement-types",
	Short: "Print the type of each statement, followed by the type of the query it embeds",

	PreRun: func(cmd *cobra.Command, args []string) {
		validateFormatFlag()
	},

	Run: func(cmd *cobra.Command, args []string) {
		tree, err := readParseTree()
		if err != nil {
			utils.ErrExit("%v", err)
		}
		types := queryfacts.StatementTypes(tree)
		if outputFormat == FORMAT_JSON {
			if types == nil {
				types = []string{}
			}
			err = printJSON(os.Stdout, types)
			if err != nil {
				utils.ErrExit("%v", err)
			}
			return
		}
		for _, t := range types {
			fmt.Println(t)
		}
	},
}

func init() {
	rootCmd.AddCommand(statementTypesCmd)
	registerInputFlags(statementTypesCmd)
	registerFormatFlag(statementTypesCmd)
}
