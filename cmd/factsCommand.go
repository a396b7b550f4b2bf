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
	"io"
	"os"
	"sort"

	"github.com/gosuri/uitable"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/yugabyte/yb-querysummary/src/query/queryfacts"
	"github.com/yugabyte/yb-querysummary/src/utils"
)

var factsCmd = &cobra.Command{
	Use:   "facts",
	Short: "Report the tables, functions, CTEs and filter columns used by SQL statements",

	PreRun: func(cmd *cobra.Command, args []string) {
		validateFormatFlag()
	},

	Run: func(cmd *cobra.Command, args []string) {
		tree, err := readParseTree()
		if err != nil {
			utils.ErrExit("%v", err)
		}
		facts := queryfacts.Extract(tree, "")
		err = printFacts(os.Stdout, facts, outputFormat)
		if err != nil {
			utils.ErrExit("%v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(factsCmd)
	registerInputFlags(factsCmd)
	registerFormatFlag(factsCmd)
}

func printFacts(w io.Writer, facts *queryfacts.Facts, format string) error {
	if format == FORMAT_JSON {
		return printJSON(w, facts)
	}

	table := uitable.New()
	table.AddRow(headerfmt("KIND"), headerfmt("NAME"), headerfmt("CONTEXT"))
	for _, ref := range facts.TableRefs() {
		table.AddRow("table", ref.Name, ref.Context)
	}
	for _, ref := range facts.FunctionRefs() {
		table.AddRow("function", ref.Name, ref.Context)
	}
	for _, name := range facts.CTENames() {
		table.AddRow("cte", name, "")
	}
	aliases := facts.Aliases()
	aliasNames := lo.Keys(aliases)
	sort.Strings(aliasNames)
	for _, alias := range aliasNames {
		table.AddRow("alias", fmt.Sprintf("%s -> %s", alias, aliases[alias]), "")
	}
	for _, col := range facts.FilterColumns() {
		name := col.Column
		if col.Table != nil {
			name = *col.Table + "." + col.Column
		}
		table.AddRow("filter column", name, "")
	}
	_, err := fmt.Fprintln(w, table)
	if err != nil {
		return err
	}
	for _, warning := range facts.Warnings() {
		_, err = fmt.Fprintln(w, warnfmt("WARNING: "+warning))
		if err != nil {
			return err
		}
	}
	return nil
}
