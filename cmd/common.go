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
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	pg_query "github.com/pganalyze/pg_query_go/v6"
	"github.com/spf13/cobra"

	"github.com/yugabyte/yb-querysummary/src/query/queryparser"
	"github.com/yugabyte/yb-querysummary/src/utils"
)

const (
	FORMAT_TABLE = "table"
	FORMAT_JSON  = "json"
)

var (
	sqlText      string
	sqlFile      string
	jsonAST      bool
	outputFormat string

	parser = queryparser.NewPgQueryParser(false)

	headerfmt = color.New(color.FgGreen, color.Underline).SprintFunc()
	warnfmt   = color.New(color.FgYellow).SprintFunc()
)

func registerInputFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&sqlText, "sql", "",
		"SQL text to process")
	cmd.Flags().StringVar(&sqlFile, "file", "",
		"path of a file with the SQL text to process")
	cmd.Flags().BoolVar(&jsonAST, "json-ast", false,
		"the input is a parse tree in pg_query JSON form instead of SQL text")
}

func registerFormatFlag(cmd *cobra.Command) {
	cmd.Flags().StringVar(&outputFormat, "format", FORMAT_TABLE,
		"output format. Accepted values: (table, json)")
}

func validateFormatFlag() {
	outputFormat = strings.ToLower(outputFormat)
	if outputFormat != FORMAT_TABLE && outputFormat != FORMAT_JSON {
		utils.ErrExit("invalid --format %q. Accepted values: (table, json)", outputFormat)
	}
}

// readInput returns the text given by --sql or --file. Exactly one of them must be set.
func readInput() (string, error) {
	switch {
	case sqlText != "" && sqlFile != "":
		return "", fmt.Errorf("only one of --sql and --file can be given")
	case sqlText != "":
		return sqlText, nil
	case sqlFile != "":
		bytes, err := os.ReadFile(sqlFile)
		if err != nil {
			return "", fmt.Errorf("reading %q: %w", sqlFile, err)
		}
		return string(bytes), nil
	default:
		return "", fmt.Errorf("one of --sql and --file is required")
	}
}

func readParseTree() (*pg_query.ParseResult, error) {
	text, err := readInput()
	if err != nil {
		return nil, err
	}
	if jsonAST {
		return parser.ParseJSON(text)
	}
	return parser.Parse(text)
}

// readSQL returns SQL text. A JSON parse tree is deparsed first.
func readSQL() (string, error) {
	if !jsonAST {
		return readInput()
	}
	tree, err := readParseTree()
	if err != nil {
		return "", err
	}
	return parser.Deparse(tree)
}

func printJSON(w io.Writer, v any) error {
	bytes, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return fmt.Errorf("marshalling output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(bytes))
	return err
}
