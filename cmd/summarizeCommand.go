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
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/gosuri/uitable"
	"github.com/nightlyone/lockfile"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
	"golang.org/x/term"

	"github.com/yugabyte/yb-querysummary/src/pgss"
	"github.com/yugabyte/yb-querysummary/src/reportdb"
	"github.com/yugabyte/yb-querysummary/src/summary"
	"github.com/yugabyte/yb-querysummary/src/utils"
)

var (
	pgssCSVPath       string
	sourceDBURI       string
	pgssSchema        string
	parallelism       int
	reportDBPath      string
	mergeFingerprints bool
	disablePb         bool
)

var summarizeCmd = &cobra.Command{
	Use:   "summarize",
	Short: "Summarize every query of a pg_stat_statements snapshot",
	Long: `Reads pg_stat_statements from a CSV export or from a live PostgreSQL database, and for each query
reports its statement types, truncated text and the tables and functions it uses. The results can be stored
in a sqlite report db, which keeps one entry per run.`,

	PreRun: func(cmd *cobra.Command, args []string) {
		validateFormatFlag()
		validateMaxLengthFlag()
		validateSummarizeFlags()
	},

	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		entries, source, err := loadQueryStats(ctx)
		if err != nil {
			utils.ErrExit("loading pg_stat_statements: %v", err)
		}
		log.Infof("summarizing %d queries from %s", len(entries), source)

		summaries, err := summarizeWithProgress(ctx, entries)
		if err != nil {
			utils.ErrExit("summarizing queries: %v", err)
		}
		if mergeFingerprints {
			summaries = summary.MergeByFingerprint(summaries)
		}

		err = printSummaries(os.Stdout, summaries, outputFormat)
		if err != nil {
			utils.ErrExit("%v", err)
		}

		if reportDBPath != "" {
			runID, err := saveReport(ctx, source, summaries)
			if err != nil {
				utils.ErrExit("saving report: %v", err)
			}
			utils.PrintAndLog("Saved run %s in %s", runID, reportDBPath)
		}
	},
}

func init() {
	rootCmd.AddCommand(summarizeCmd)
	registerFormatFlag(summarizeCmd)
	registerMaxLengthFlag(summarizeCmd)

	summarizeCmd.Flags().StringVar(&pgssCSVPath, "pgss-csv", "",
		"path of a CSV export of pg_stat_statements")
	summarizeCmd.Flags().StringVar(&sourceDBURI, "source-db-uri", "",
		"connection uri of the PostgreSQL database to read pg_stat_statements from")
	summarizeCmd.Flags().StringVar(&pgssSchema, "pgss-schema", "",
		"schema in which the pg_stat_statements extension is installed (default: resolved through the search_path)")
	summarizeCmd.Flags().IntVar(&parallelism, "parallel", runtime.NumCPU(),
		"number of queries summarized in parallel")
	summarizeCmd.Flags().StringVar(&reportDBPath, "report-db", "",
		"path of the sqlite report db to store the summaries in")
	summarizeCmd.Flags().BoolVar(&mergeFingerprints, "merge-fingerprints", false,
		"merge the queries that share a fingerprint")
	summarizeCmd.Flags().BoolVar(&disablePb, "disable-pb", false,
		"disable the progress bar. It is always off when stderr is not a terminal")
}

func validateSummarizeFlags() {
	if (pgssCSVPath == "") == (sourceDBURI == "") {
		utils.ErrExit("exactly one of --pgss-csv and --source-db-uri is required")
	}
	if pgssCSVPath != "" && !utils.FileOrFolderExists(pgssCSVPath) {
		utils.ErrExit("pgss csv file %q doesn't exist", pgssCSVPath)
	}
	if parallelism <= 0 {
		utils.ErrExit("invalid --parallel %d: must be positive", parallelism)
	}
}

// loadQueryStats returns the entries and a description of where they came from, without credentials.
func loadQueryStats(ctx context.Context) ([]pgss.QueryStats, string, error) {
	if pgssCSVPath != "" {
		entries, err := pgss.ParseFromCSV(pgssCSVPath)
		return entries, pgssCSVPath, err
	}

	db, err := pgss.OpenPostgreSQL(sourceDBURI)
	if err != nil {
		return nil, "", err
	}
	defer db.Close()
	entries, err := pgss.CollectFromPostgreSQL(ctx, db, pgssSchema)
	return entries, redactURI(sourceDBURI), err
}

func redactURI(uri string) string {
	at := strings.LastIndex(uri, "@")
	scheme := strings.Index(uri, "://")
	if at < 0 || scheme < 0 || at < scheme {
		return uri
	}
	return uri[:scheme+3] + "XXX" + uri[at:]
}

func summarizeWithProgress(ctx context.Context, entries []pgss.QueryStats) ([]summary.QuerySummary, error) {
	summarizer := summary.NewSummarizer(parser, maxLength, parallelism)
	if disablePb || len(entries) == 0 || !term.IsTerminal(int(os.Stderr.Fd())) {
		return summarizer.Summarize(ctx, entries)
	}

	progress := mpb.New(mpb.WithOutput(os.Stderr))
	bar := progress.AddBar(int64(len(entries)),
		mpb.BarFillerClearOnComplete(),
		mpb.PrependDecorators(
			decor.Name("summarizing queries "),
			decor.CountersNoUnit("%d/%d", decor.WCSyncSpace),
		),
		mpb.AppendDecorators(
			decor.OnComplete(
				decor.NewPercentage("%.2f", decor.WCSyncSpaceR), "completed",
			),
			decor.OnComplete(
				decor.AverageETA(decor.ET_STYLE_GO), "",
			),
		),
	)
	summarizer.OnQueryDone = func() { bar.Increment() }

	summaries, err := summarizer.Summarize(ctx, entries)
	if err != nil {
		bar.Abort(false)
	}
	progress.Wait()
	return summaries, err
}

func printSummaries(w io.Writer, summaries []summary.QuerySummary, format string) error {
	if format == FORMAT_JSON {
		return printJSON(w, summaries)
	}

	table := uitable.New()
	table.MaxColWidth = 80
	table.Wrap = true
	table.AddRow(headerfmt("QUERYID"), headerfmt("CALLS"), headerfmt("TOTAL EXEC TIME (ms)"),
		headerfmt("STATEMENT TYPES"), headerfmt("TABLES"), headerfmt("QUERY"))
	for _, s := range summaries {
		if s.ParseError != "" {
			table.AddRow(s.QueryID, humanize.Comma(s.Calls), humanize.CommafWithDigits(s.TotalExecTime, 2), "", "",
				warnfmt("parse error: "+s.ParseError))
			continue
		}
		table.AddRow(s.QueryID, humanize.Comma(s.Calls), humanize.CommafWithDigits(s.TotalExecTime, 2),
			strings.Join(s.StatementTypes, ", "), strings.Join(s.Facts.Tables(), ", "), s.TruncatedQuery)
	}
	_, err := fmt.Fprintln(w, table)
	if err != nil {
		return err
	}

	failed := lo.CountBy(summaries, func(s summary.QuerySummary) bool { return s.ParseError != "" })
	if failed > 0 {
		_, err = fmt.Fprintln(w, warnfmt(fmt.Sprintf("%d of %d queries could not be parsed", failed, len(summaries))))
	}
	return err
}

// saveReport writes the run under a lock next to the report db, so concurrent runs never interleave.
func saveReport(ctx context.Context, source string, summaries []summary.QuerySummary) (string, error) {
	lockFilePath, err := filepath.Abs(reportDBPath + ".lck")
	if err != nil {
		return "", fmt.Errorf("getting absolute path for lockfile of %q: %w", reportDBPath, err)
	}
	lock, err := lockfile.New(lockFilePath)
	if err != nil {
		return "", fmt.Errorf("creating lockfile %q: %w", lockFilePath, err)
	}
	err = lock.TryLock()
	if err == lockfile.ErrBusy {
		return "", fmt.Errorf("another instance of yb-querysummary is writing to %s", reportDBPath)
	} else if err != nil {
		return "", fmt.Errorf("locking %s: %w", reportDBPath, err)
	}
	defer func() {
		err := lock.Unlock()
		if err != nil {
			log.Warnf("unable to unlock %q: %v", lockFilePath, err)
		}
	}()

	err = reportdb.InitReportDB(reportDBPath)
	if err != nil {
		return "", err
	}
	rdb, err := reportdb.NewReportDB(reportDBPath)
	if err != nil {
		return "", err
	}
	defer rdb.Close()
	return rdb.SaveRun(ctx, source, maxLength, summaries)
}
