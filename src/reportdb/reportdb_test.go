//go:build unit

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
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yugabyte/yb-querysummary/src/pgss"
	"github.com/yugabyte/yb-querysummary/src/query/queryparser"
	"github.com/yugabyte/yb-querysummary/src/summary"
)

func newTestReportDB(t *testing.T) *ReportDB {
	path := filepath.Join(t.TempDir(), "report.db")
	require.NoError(t, InitReportDB(path))
	// creating the tables twice is fine
	require.NoError(t, InitReportDB(path))

	rdb, err := NewReportDB(path)
	require.NoError(t, err)
	t.Cleanup(func() { rdb.Close() })
	return rdb
}

func TestSaveAndReadRun(t *testing.T) {
	ctx := context.Background()
	rdb := newTestReportDB(t)

	summarizer := summary.NewSummarizer(queryparser.NewPgQueryParser(false), summary.DEFAULT_MAX_LENGTH, 2)
	summaries, err := summarizer.Summarize(ctx, []pgss.QueryStats{
		{QueryID: 10, Query: "SELECT o.id FROM orders o WHERE o.total > $1", Calls: 3, Rows: 30},
		{QueryID: 20, Query: "DROP FUNCTION f(int)", Calls: 1},
		{QueryID: 30, Query: "SELEC 1", Calls: 1},
	})
	require.NoError(t, err)

	runID, err := rdb.SaveRun(ctx, "pgss.csv", summary.DEFAULT_MAX_LENGTH, summaries)
	require.NoError(t, err)
	assert.NotEmpty(t, runID)

	runs, err := rdb.GetRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, runID, runs[0].ID)
	assert.Equal(t, "pgss.csv", runs[0].Source)
	assert.Equal(t, 3, runs[0].QueryCount)

	stored, err := rdb.GetQuerySummaries(ctx, runID)
	require.NoError(t, err)
	require.Len(t, stored, 3)

	assert.EqualValues(t, 10, stored[0].QueryID)
	assert.EqualValues(t, 3, stored[0].Calls)
	assert.Equal(t, []string{"SelectStmt"}, stored[0].StatementTypes)
	assert.Equal(t, []string{"orders"}, stored[0].SelectTables)
	assert.Equal(t, []string{}, stored[0].DmlTables)
	assert.Equal(t, []string{"o.total"}, stored[0].FilterColumns)
	assert.Equal(t, summaries[0].Fingerprint, stored[0].Fingerprint)

	assert.Equal(t, []string{"f"}, stored[1].DdlFunctions)
	assert.Equal(t, []string{"DropStmt"}, stored[1].StatementTypes)

	assert.NotEmpty(t, stored[2].ParseError)
	assert.Equal(t, []string{}, stored[2].StatementTypes)
	assert.Equal(t, []string{}, stored[2].SelectTables)
}

func TestSeveralRunsInOneFile(t *testing.T) {
	ctx := context.Background()
	rdb := newTestReportDB(t)

	first := []summary.QuerySummary{{QueryStats: pgss.QueryStats{QueryID: 1, Query: "SELECT 1"}}}
	second := []summary.QuerySummary{
		{QueryStats: pgss.QueryStats{QueryID: 1, Query: "SELECT 1"}},
		{QueryStats: pgss.QueryStats{QueryID: 2, Query: "SELECT 2"}},
	}

	firstID, err := rdb.SaveRun(ctx, "a", 100, first)
	require.NoError(t, err)
	secondID, err := rdb.SaveRun(ctx, "b", 100, second)
	require.NoError(t, err)
	assert.NotEqual(t, firstID, secondID)

	runs, err := rdb.GetRuns(ctx)
	require.NoError(t, err)
	assert.Len(t, runs, 2)

	stored, err := rdb.GetQuerySummaries(ctx, secondID)
	require.NoError(t, err)
	assert.Len(t, stored, 2)

	stored, err = rdb.GetQuerySummaries(ctx, "no-such-run")
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestSaveRunRollsBackOnDuplicate(t *testing.T) {
	ctx := context.Background()
	rdb := newTestReportDB(t)

	duplicate := pgss.QueryStats{QueryID: 1, Query: "SELECT 1"}
	_, err := rdb.SaveRun(ctx, "dup", 100, []summary.QuerySummary{{QueryStats: duplicate}, {QueryStats: duplicate}})
	require.Error(t, err)

	runs, err := rdb.GetRuns(ctx)
	require.NoError(t, err)
	assert.Empty(t, runs)
}
