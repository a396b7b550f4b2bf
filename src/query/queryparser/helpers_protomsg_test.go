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
package queryparser

import (
	"testing"

	pg_query "github.com/pganalyze/pg_query_go/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yugabyte/yb-querysummary/src/errs"
)

func TestGetColNameFromColumnRef(t *testing.T) {
	tests := []struct {
		Sql          string
		ExpectedCols [][2]string
	}{
		{`SELECT * FROM t WHERE c = 1`, [][2]string{{"", "c"}}},
		{`SELECT * FROM t WHERE t.c = 1`, [][2]string{{"t", "c"}}},
		{`SELECT * FROM t WHERE s.t.c = 1`, [][2]string{{"t", "c"}}},
	}
	for _, tc := range tests {
		var cols [][2]string
		for _, e := range WalkParseResult(mustParse(t, tc.Sql)) {
			colRef, ok := e.Node.Message().(*pg_query.ColumnRef)
			if !ok || !e.HasFilterColumns {
				continue
			}
			table, col, ok := GetColNameFromColumnRef(colRef)
			require.True(t, ok)
			cols = append(cols, [2]string{table, col})
		}
		assert.Equal(t, tc.ExpectedCols, cols, "sql: %s", tc.Sql)
	}
}

func TestGetFuncNameFromFuncCall(t *testing.T) {
	tree := mustParse(t, "SELECT pg_catalog.now(), lower('A')")
	var names []string
	for _, e := range WalkParseResult(tree) {
		if fc, ok := e.Node.Message().(*pg_query.FuncCall); ok {
			names = append(names, GetFuncNameFromFuncCall(fc))
		}
	}
	assert.ElementsMatch(t, []string{"pg_catalog.now", "lower"}, names)
}

func TestGetStatementType(t *testing.T) {
	tree := mustParse(t, "SELECT 1; INSERT INTO t VALUES (1); CREATE TABLE x (a int)")
	var types []string
	for _, rawStmt := range tree.Stmts {
		types = append(types, GetStatementType(rawStmt.Stmt))
	}
	assert.Equal(t, []string{PG_QUERY_SELECTSTMT_NODE, PG_QUERY_INSERTSTMT_NODE, PG_QUERY_CREATE_STMT_NODE}, types)
}

func TestPgQueryParserErrors(t *testing.T) {
	p := NewPgQueryParser(true)

	_, err := p.Parse("SELECT * FROM")
	var parseErr *errs.ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.NotEmpty(t, parseErr.Message)
	assert.Greater(t, parseErr.Cursorpos, 0)

	_, err = p.ParseJSON("{not json")
	var decodeErr *errs.DecodeError
	assert.ErrorAs(t, err, &decodeErr)
	assert.ErrorIs(t, err, errs.ErrInvalidJSON)
}

func TestPgQueryParserRoundTrip(t *testing.T) {
	p := NewPgQueryParser(false)

	jsonText, err := ParseToJSON("SELECT a FROM t WHERE b = 1")
	require.NoError(t, err)
	tree, err := p.ParseJSON(jsonText)
	require.NoError(t, err)

	sql, err := p.Deparse(tree)
	require.NoError(t, err)
	assert.Equal(t, "SELECT a FROM t WHERE b = 1", sql)

	first, err := p.Fingerprint("SELECT a FROM t WHERE b = 1")
	require.NoError(t, err)
	second, err := p.Fingerprint("select a from t where b = 42")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	normalized, err := p.Normalize("SELECT a FROM t WHERE b = 1")
	require.NoError(t, err)
	assert.Equal(t, "SELECT a FROM t WHERE b = $1", normalized)
}
