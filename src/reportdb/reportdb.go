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

package reportdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"

	"github.com/yugabyte/yb-querysummary/src/query/queryfacts"
	"github.com/yugabyte/yb-querysummary/src/summary"
)

const (
	SQLITE_OPTIONS = "?_txlock=exclusive&_timeout=30000"

	SUMMARY_RUNS    = "summary_runs"
	QUERY_SUMMARIES = "query_summaries"
)

var queryColumns = []string{
	"run_id", "queryid", "query", "fingerprint", "calls", "rows",
	"total_exec_time", "mean_exec_time", "min_exec_time", "max_exec_time", "stddev_exec_time",
	"statement_types", "truncated_query", "select_tables", "dml_tables", "ddl_tables",
	"call_functions", "ddl_functions", "cte_names", "filter_columns", "parse_error",
}

// InitReportDB creates the report tables in the sqlite file at path, if they do not exist yet.
func InitReportDB(path string) error {
	conn, err := sql.Open("sqlite3", fmt.Sprintf("%s%s", path, SQLITE_OPTIONS))
	if err != nil {
		return fmt.Errorf("error opening report db %s: %w", path, err)
	}

	cmds := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			run_id TEXT PRIMARY KEY,
			source TEXT,
			max_length INTEGER,
			query_count INTEGER,
			created_at TEXT);`, SUMMARY_RUNS),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			run_id TEXT,
			queryid INTEGER,
			query TEXT,
			fingerprint TEXT,
			calls INTEGER,
			rows INTEGER,
			total_exec_time REAL,
			mean_exec_time REAL,
			min_exec_time REAL,
			max_exec_time REAL,
			stddev_exec_time REAL,
			statement_types TEXT,
			truncated_query TEXT,
			select_tables TEXT,
			dml_tables TEXT,
			ddl_tables TEXT,
			call_functions TEXT,
			ddl_functions TEXT,
			cte_names TEXT,
			filter_columns TEXT,
			parse_error TEXT,
			PRIMARY KEY(run_id, queryid, query));`, QUERY_SUMMARIES),
	}

	for _, cmd := range cmds {
		_, err = conn.Exec(cmd)
		if err != nil {
			return fmt.Errorf("error while initializing report db with query-%s: %w", cmd, err)
		}
	}

	err = conn.Close()
	if err != nil {
		return fmt.Errorf("error closing report db %s: %w", path, err)
	}
	return nil
}

type ReportDB struct {
	db   *sql.DB
	path string
}

func NewReportDB(path string) (*ReportDB, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("%s%s", path, SQLITE_OPTIONS))
	if err != nil {
		return nil, fmt.Errorf("error opening report db %s: %w", path, err)
	}
	return &ReportDB{db: db, path: path}, nil
}

func (r *ReportDB) Close() error {
	return r.db.Close()
}

// Run describes one summarize invocation.
type Run struct {
	ID         string
	Source     string
	MaxLength  int
	QueryCount int
	CreatedAt  time.Time
}

// SaveRun stores the run and all its summaries in one transaction and returns the new run id.
func (r *ReportDB) SaveRun(ctx context.Context, source string, maxLength int, summaries []summary.QuerySummary) (string, error) {
	runID := uuid.New().String()

	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return "", fmt.Errorf("error starting transaction for run %s: %w", runID, err)
	}
	defer func() {
		err := tx.Rollback()
		if err != nil && err != sql.ErrTxDone {
			log.Warnf("error while rollback the SaveRun txn: %v", err)
		}
	}()

	_, err = tx.ExecContext(ctx,
		fmt.Sprintf(`INSERT INTO %s (run_id, source, max_length, query_count, created_at) VALUES (?, ?, ?, ?, ?)`, SUMMARY_RUNS),
		runID, source, maxLength, len(summaries), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return "", fmt.Errorf("error inserting run %s: %w", runID, err)
	}

	stmtStr := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)`, QUERY_SUMMARIES,
		strings.Join(queryColumns, ", "), strings.Repeat("?, ", len(queryColumns)-1)+"?")
	stmt, err := tx.PrepareContext(ctx, stmtStr)
	if err != nil {
		return "", fmt.Errorf("error preparing statement for insert into %s: %w", QUERY_SUMMARIES, err)
	}
	defer stmt.Close()

	for _, s := range summaries {
		row, err := summaryRow(runID, s)
		if err != nil {
			return "", err
		}
		_, err = stmt.ExecContext(ctx, row...)
		if err != nil {
			return "", fmt.Errorf("error inserting summary of query %d into %s: %w", s.QueryID, QUERY_SUMMARIES, err)
		}
	}

	err = tx.Commit()
	if err != nil {
		return "", fmt.Errorf("error committing run %s: %w", runID, err)
	}
	log.Infof("saved %d query summaries as run %s in %s", len(summaries), runID, r.path)
	return runID, nil
}

func summaryRow(runID string, s summary.QuerySummary) ([]any, error) {
	var selectTables, dmlTables, ddlTables, callFunctions, ddlFunctions, cteNames []string
	var filterColumns []string
	if s.Facts != nil {
		selectTables = s.Facts.SelectTables()
		dmlTables = s.Facts.DmlTables()
		ddlTables = s.Facts.DdlTables()
		callFunctions = s.Facts.CallFunctions()
		ddlFunctions = s.Facts.DdlFunctions()
		cteNames = s.Facts.CTENames()
		filterColumns = lo.Map(s.Facts.FilterColumns(), func(c queryfacts.FilterColumn, _ int) string {
			if c.Table == nil {
				return c.Column
			}
			return *c.Table + "." + c.Column
		})
	}

	statementTypes, err := encodeList(s.StatementTypes)
	if err != nil {
		return nil, err
	}
	row := []any{runID, s.QueryID, s.Query, s.Fingerprint, s.Calls, s.Rows,
		s.TotalExecTime, s.MeanExecTime, s.MinExecTime, s.MaxExecTime, s.StddevExecTime,
		statementTypes, s.TruncatedQuery}
	for _, list := range [][]string{selectTables, dmlTables, ddlTables, callFunctions, ddlFunctions, cteNames, filterColumns} {
		encoded, err := encodeList(list)
		if err != nil {
			return nil, err
		}
		row = append(row, encoded)
	}
	return append(row, s.ParseError), nil
}

// lists are stored as json arrays, so an empty list reads back as [] rather than NULL
func encodeList(list []string) (string, error) {
	if list == nil {
		list = []string{}
	}
	bytes, err := json.Marshal(list)
	if err != nil {
		return "", fmt.Errorf("encoding %v: %w", list, err)
	}
	return string(bytes), nil
}

func decodeList(text string) ([]string, error) {
	var list []string
	err := json.Unmarshal([]byte(text), &list)
	if err != nil {
		return nil, fmt.Errorf("decoding %q: %w", text, err)
	}
	return list, nil
}

func (r *ReportDB) GetRuns(ctx context.Context) ([]Run, error) {
	rows, err := r.db.QueryContext(ctx,
		fmt.Sprintf(`SELECT run_id, source, max_length, query_count, created_at FROM %s ORDER BY created_at`, SUMMARY_RUNS))
	if err != nil {
		return nil, fmt.Errorf("error querying %s: %w", SUMMARY_RUNS, err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var createdAt string
		err = rows.Scan(&run.ID, &run.Source, &run.MaxLength, &run.QueryCount, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("error scanning %s: %w", SUMMARY_RUNS, err)
		}
		run.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
		if err != nil {
			return nil, fmt.Errorf("invalid created_at %q for run %s: %w", createdAt, run.ID, err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// StoredSummary is a query summary as read back from the report db.
type StoredSummary struct {
	QueryID        int64
	Query          string
	Fingerprint    string
	Calls          int64
	StatementTypes []string
	TruncatedQuery string
	SelectTables   []string
	DmlTables      []string
	DdlTables      []string
	CallFunctions  []string
	DdlFunctions   []string
	CTENames       []string
	FilterColumns  []string
	ParseError     string
}

func (r *ReportDB) GetQuerySummaries(ctx context.Context, runID string) ([]StoredSummary, error) {
	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(`SELECT queryid, query, fingerprint, calls, statement_types,
		truncated_query, select_tables, dml_tables, ddl_tables, call_functions, ddl_functions, cte_names,
		filter_columns, parse_error FROM %s WHERE run_id = ? ORDER BY queryid, query`, QUERY_SUMMARIES), runID)
	if err != nil {
		return nil, fmt.Errorf("error querying %s for run %s: %w", QUERY_SUMMARIES, runID, err)
	}
	defer rows.Close()

	var result []StoredSummary
	for rows.Next() {
		var s StoredSummary
		var statementTypes, selectTables, dmlTables, ddlTables, callFunctions, ddlFunctions, cteNames, filterColumns string
		err = rows.Scan(&s.QueryID, &s.Query, &s.Fingerprint, &s.Calls, &statementTypes, &s.TruncatedQuery,
			&selectTables, &dmlTables, &ddlTables, &callFunctions, &ddlFunctions, &cteNames, &filterColumns, &s.ParseError)
		if err != nil {
			return nil, fmt.Errorf("error scanning %s: %w", QUERY_SUMMARIES, err)
		}
		for _, pair := range []struct {
			text string
			dest *[]string
		}{
			{statementTypes, &s.StatementTypes},
			{selectTables, &s.SelectTables},
			{dmlTables, &s.DmlTables},
			{ddlTables, &s.DdlTables},
			{callFunctions, &s.CallFunctions},
			{ddlFunctions, &s.DdlFunctions},
			{cteNames, &s.CTENames},
			{filterColumns, &s.FilterColumns},
		} {
			*pair.dest, err = decodeList(pair.text)
			if err != nil {
				return nil, err
			}
		}
		result = append(result, s)
	}
	return result, rows.Err()
}
