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
package summary

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	pg_query "github.com/pganalyze/pg_query_go/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yugabyte/yb-querysummary/src/errs"
	"github.com/yugabyte/yb-querysummary/src/pgss"
	"github.com/yugabyte/yb-querysummary/src/query/queryparser"
)

func TestSummarize(t *testing.T) {
	entries := []pgss.QueryStats{
		{QueryID: 1, Query: "SELECT * FROM orders WHERE id = $1", Calls: 10},
		{QueryID: 2, Query: "INSERT INTO audit SELECT * FROM orders", Calls: 1},
		{QueryID: 3, Query: "SELEC 1", Calls: 4},
		{QueryID: 4, Query: "WITH a AS (SELECT * FROM x) UPDATE y SET v = 1 FROM a", Calls: 2},
	}

	var done atomic.Int32
	summarizer := NewSummarizer(queryparser.NewPgQueryParser(false), DEFAULT_MAX_LENGTH, 3)
	summarizer.OnQueryDone = func() { done.Add(1) }

	summaries, err := summarizer.Summarize(context.Background(), entries)
	require.NoError(t, err)
	require.Len(t, summaries, len(entries))
	assert.EqualValues(t, len(entries), done.Load())

	for i, s := range summaries {
		assert.Equal(t, entries[i].QueryID, s.QueryID, "summaries keep the input order")
	}

	assert.Equal(t, []string{"SelectStmt"}, summaries[0].StatementTypes)
	assert.Equal(t, "SELECT * FROM orders WHERE id = $1", summaries[0].TruncatedQuery)
	assert.Equal(t, []string{"orders"}, summaries[0].Facts.SelectTables())
	assert.NotEmpty(t, summaries[0].Fingerprint)

	assert.Equal(t, []string{"InsertStmt", "SelectStmt"}, summaries[1].StatementTypes)
	assert.Equal(t, []string{"audit"}, summaries[1].Facts.DmlTables())
	assert.Equal(t, []string{"orders"}, summaries[1].Facts.SelectTables())

	assert.NotEmpty(t, summaries[2].ParseError)
	assert.Nil(t, summaries[2].Facts)
	assert.Empty(t, summaries[2].Fingerprint)
	assert.EqualValues(t, 4, summaries[2].Calls)

	assert.ElementsMatch(t, []string{"x", "y"}, summaries[3].Facts.Tables())
	assert.Equal(t, []string{"a"}, summaries[3].Facts.CTENames())
}

func TestSummarizeTruncatesToMaxLength(t *testing.T) {
	query := "SELECT customer_id, order_id, total, created_at, updated_at FROM orders WHERE total > 100 AND status = 'open'"
	summarizer := NewSummarizer(queryparser.NewPgQueryParser(false), 40, 1)

	summaries, err := summarizer.Summarize(context.Background(), []pgss.QueryStats{{QueryID: 1, Query: query}})
	require.NoError(t, err)
	assert.LessOrEqual(t, len(summaries[0].TruncatedQuery), 40)
	assert.Contains(t, summaries[0].TruncatedQuery, "...")
}

type failingDeparser struct {
	*queryparser.PgQueryParser
}

func (f failingDeparser) Deparse(tree *pg_query.ParseResult) (string, error) {
	return "", errs.NewDeparseError(errors.New("deparse exploded"))
}

func TestSummarizeFailsOnDeparseError(t *testing.T) {
	summarizer := NewSummarizer(failingDeparser{queryparser.NewPgQueryParser(false)}, DEFAULT_MAX_LENGTH, 2)

	_, err := summarizer.Summarize(context.Background(), []pgss.QueryStats{{QueryID: 7, Query: "SELECT 1"}})
	require.Error(t, err)
	var deparseErr *errs.DeparseError
	assert.True(t, errors.As(err, &deparseErr))
	assert.Contains(t, err.Error(), "query 7")
}

func TestSummarizeCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summarizer := NewSummarizer(queryparser.NewPgQueryParser(false), DEFAULT_MAX_LENGTH, 1)
	_, err := summarizer.Summarize(ctx, []pgss.QueryStats{{QueryID: 1, Query: "SELECT 1"}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMergeByFingerprint(t *testing.T) {
	summaries := []QuerySummary{
		{QueryStats: pgss.QueryStats{QueryID: 1, Query: "SELECT * FROM t WHERE id = 1", Calls: 2, TotalExecTime: 4}, Fingerprint: "aa"},
		{QueryStats: pgss.QueryStats{QueryID: 2, Query: "SELEC", Calls: 1}},
		{QueryStats: pgss.QueryStats{QueryID: 3, Query: "SELECT * FROM t WHERE id = 2", Calls: 6, TotalExecTime: 12}, Fingerprint: "aa"},
		{QueryStats: pgss.QueryStats{QueryID: 4, Query: "SELECT 1", Calls: 1}, Fingerprint: "bb"},
	}

	merged := MergeByFingerprint(summaries)
	require.Len(t, merged, 3)
	assert.EqualValues(t, 1, merged[0].QueryID)
	assert.EqualValues(t, 8, merged[0].Calls)
	assert.InDelta(t, 2.0, merged[0].MeanExecTime, 1e-9)
	assert.EqualValues(t, 2, merged[1].QueryID)
	assert.EqualValues(t, 4, merged[2].QueryID)
}

func TestMergeByFingerprintOfParsedQueries(t *testing.T) {
	summarizer := NewSummarizer(queryparser.NewPgQueryParser(false), DEFAULT_MAX_LENGTH, 2)
	summaries, err := summarizer.Summarize(context.Background(), []pgss.QueryStats{
		{QueryID: 1, Query: "SELECT * FROM t WHERE id = 1", Calls: 1},
		{QueryID: 2, Query: "SELECT * FROM t WHERE id = 2", Calls: 1},
	})
	require.NoError(t, err)
	assert.Equal(t, summaries[0].Fingerprint, summaries[1].Fingerprint)

	merged := MergeByFingerprint(summaries)
	require.Len(t, merged, 1)
	assert.EqualValues(t, 2, merged[0].Calls)
}
