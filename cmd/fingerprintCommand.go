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

	"github.com/yugabyte/yb-querysummary/src/utils"
)

var fingerprintCmd = &cobra.Command{
	Use:   "fingerprint",
	Short: "Print the fingerprint of SQL statements. Statements differing only in constants share it",

	Run: func(cmd *cobra.Command, args []string) {
		query, err := readSQL()
		if err != nil {
			utils.ErrExit("%v", err)
		}
		fingerprint, err := parser.Fingerprint(query)
		if err != nil {
			utils.ErrExit("%v", err)
		}
		fmt.Println(fingerprint)
	},
}

var normalizeCmd = &cobra.Command{
	Use:   "normalize",
	Short: "Print SQL statements with their constants replaced by $n parameters",

	Run: func(cmd *cobra.Command, args []string) {
		query, err := readSQL()
		if err != nil {
			utils.ErrExit("%v", err)
		}
		normalized, err := parser.Normalize(query)
		if err != nil {
			utils.ErrExit("%v", err)
		}
		fmt.Println(normalized)
	},
}

func init() {
	rootCmd.AddCommand(fingerprintCmd)
	registerInputFlags(fingerprintCmd)

	rootCmd.AddCommand(normalizeCmd)
	registerInputFlags(normalizeCmd)
}
