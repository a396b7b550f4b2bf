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
package queryfacts

import (
	"encoding/json"
	"testing"

	pg_query "github.com/pganalyze/pg_query_go/v6"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func extract(t *testing.T, sql string) *Facts {
	t.Helper()
	tree, err := pg_query.Parse(sql)
	require.NoError(t, err, sql)
	return Extract(tree, "")
}

func TestPreparedAndCursorQueries(t *testing.T) {
	facts := extract(t, "PREPARE p AS SELECT a FROM orders WHERE id = $1")
	assert.Equal(t, []string{"orders"}, facts.SelectTables())
	assert.Equal(t, []FilterColumn{{Column: "id"}}, facts.FilterColumns())

	facts = extract(t, "DECLARE cur CURSOR FOR SELECT lower(name) FROM users")
	assert.Equal(t, []string{"users"}, facts.SelectTables())
	assert.Equal(t, []string{"lower"}, facts.CallFunctions())
}

func TestFilterColumns(t *testing.T) {
	facts := extract(t, "SELECT * FROM x WHERE y = $1 AND z = 1")
	assert.Equal(t, []FilterColumn{{Table: nil, Column: "y"}, {Table: nil, Column: "z"}}, facts.FilterColumns())
	assert.Equal(t, []string{"x"}, facts.Tables())
	assert.Equal(t, []string{"x"}, facts.SelectTables())
}

func TestFilterColumnsExcludeProjectionAndOrdering(t *testing.T) {
	facts := extract(t, "SELECT a, b FROM t WHERE c > 0 GROUP BY a, b HAVING max(d) > 1 ORDER BY b")
	cols := lo.Map(facts.FilterColumns(), func(c FilterColumn, _ int) string { return c.Column })
	assert.Equal(t, []string{"c", "d"}, cols)
}

func TestCTENamesAreNotTables(t *testing.T) {
	facts := extract(t, "WITH a AS (SELECT * FROM x) SELECT * FROM a")
	assert.Equal(t, []string{"a"}, facts.CTENames())
	assert.Equal(t, []string{"x"}, facts.Tables())
}

func TestExtractTablesByContext(t *testing.T) {
	tests := []struct {
		Sql               string
		ExpectedSelect    []string
		ExpectedDml       []string
		ExpectedDdl       []string
		ExpectedAliases   map[string]string
		ExpectedFilterCol []FilterColumn
	}{
		{
			Sql:             `UPDATE users u SET name = 'x' FROM orders o WHERE u.id = o.user_id`,
			ExpectedSelect:  []string{"orders"},
			ExpectedDml:     []string{"users"},
			ExpectedDdl:     []string{},
			ExpectedAliases: map[string]string{"u": "users", "o": "orders"},
			ExpectedFilterCol: []FilterColumn{
				{Table: lo.ToPtr("o"), Column: "user_id"},
				{Table: lo.ToPtr("u"), Column: "id"},
			},
		},
		{
			Sql:               `INSERT INTO archive.events SELECT * FROM public.events WHERE created_at < now()`,
			ExpectedSelect:    []string{"public.events"},
			ExpectedDml:       []string{"archive.events"},
			ExpectedDdl:       []string{},
			ExpectedAliases:   map[string]string{},
			ExpectedFilterCol: []FilterColumn{{Column: "created_at"}},
		},
		{
			Sql:               `DELETE FROM t WHERE id IN (SELECT t_id FROM s)`,
			ExpectedSelect:    []string{"s"},
			ExpectedDml:       []string{"t"},
			ExpectedDdl:       []string{},
			ExpectedAliases:   map[string]string{},
			ExpectedFilterCol: []FilterColumn{{Column: "id"}},
		},
		{
			Sql:               `CREATE TABLE t2 AS SELECT * FROM t1`,
			ExpectedSelect:    []string{"t1"},
			ExpectedDml:       []string{},
			ExpectedDdl:       []string{"t2"},
			ExpectedAliases:   map[string]string{},
			ExpectedFilterCol: []FilterColumn{},
		},
		{
			Sql:               `DROP TABLE s.t, u`,
			ExpectedSelect:    []string{},
			ExpectedDml:       []string{},
			ExpectedDdl:       []string{"s.t", "u"},
			ExpectedAliases:   map[string]string{},
			ExpectedFilterCol: []FilterColumn{},
		},
		{
			Sql:               `DROP TRIGGER trg ON s.t`,
			ExpectedSelect:    []string{},
			ExpectedDml:       []string{},
			ExpectedDdl:       []string{"s.t"},
			ExpectedAliases:   map[string]string{},
			ExpectedFilterCol: []FilterColumn{},
		},
		{
			Sql:               `DROP RULE r ON t`,
			ExpectedSelect:    []string{},
			ExpectedDml:       []string{},
			ExpectedDdl:       []string{"t"},
			ExpectedAliases:   map[string]string{},
			ExpectedFilterCol: []FilterColumn{},
		},
		{
			Sql:               `ALTER TABLE t ADD COLUMN c int`,
			ExpectedSelect:    []string{},
			ExpectedDml:       []string{},
			ExpectedDdl:       []string{"t"},
			ExpectedAliases:   map[string]string{},
			ExpectedFilterCol: []FilterColumn{},
		},
	}

	for _, tc := range tests {
		facts := extract(t, tc.Sql)
		assert.Equal(t, tc.ExpectedSelect, facts.SelectTables(), "sql: %s", tc.Sql)
		assert.Equal(t, tc.ExpectedDml, facts.DmlTables(), "sql: %s", tc.Sql)
		assert.Equal(t, tc.ExpectedDdl, facts.DdlTables(), "sql: %s", tc.Sql)
		assert.Equal(t, tc.ExpectedAliases, facts.Aliases(), "sql: %s", tc.Sql)
		assert.Equal(t, tc.ExpectedFilterCol, facts.FilterColumns(), "sql: %s", tc.Sql)
	}
}

func TestExtractFunctions(t *testing.T) {
	tests := []struct {
		Sql          string
		ExpectedCall []string
		ExpectedDdl  []string
	}{
		{
			Sql:          `SELECT count(*), pg_catalog.now() FROM t WHERE lower(name) = 'x'`,
			ExpectedCall: []string{"count", "lower", "pg_catalog.now"},
			ExpectedDdl:  []string{},
		},
		{
			Sql:          `DROP FUNCTION f(int)`,
			ExpectedCall: []string{},
			ExpectedDdl:  []string{"f"},
		},
		{
			Sql:          `CREATE FUNCTION add(a int, b int) RETURNS int AS 'select a + b' LANGUAGE SQL`,
			ExpectedCall: []string{},
			ExpectedDdl:  []string{"add"},
		},
		{
			Sql:          `ALTER FUNCTION f(int) RENAME TO g`,
			ExpectedCall: []string{},
			ExpectedDdl:  []string{"f", "g"},
		},
	}

	for _, tc := range tests {
		facts := extract(t, tc.Sql)
		assert.Equal(t, tc.ExpectedCall, facts.CallFunctions(), "sql: %s", tc.Sql)
		assert.Equal(t, tc.ExpectedDdl, facts.DdlFunctions(), "sql: %s", tc.Sql)
	}
}

var propertyQueries = []string{
	`SELECT * FROM x WHERE y = $1 AND z = 1`,
	`WITH a AS (SELECT * FROM x) SELECT * FROM a`,
	`WITH a AS (SELECT * FROM x), b AS (SELECT * FROM a) SELECT * FROM b JOIN a ON true`,
	`WITH RECURSIVE r AS (SELECT 1 AS n UNION ALL SELECT n + 1 FROM r WHERE n < 5) SELECT * FROM r`,
	`WITH a AS (SELECT * FROM x) INSERT INTO t SELECT * FROM a`,
	`WITH a AS (SELECT 1 AS id) UPDATE t SET v = 1 FROM a WHERE t.id = a.id`,
	`WITH a AS (SELECT 1 AS id) DELETE FROM t USING a WHERE t.id = a.id`,
	`UPDATE users u SET name = upper(name) FROM orders o WHERE u.id = o.user_id`,
	`INSERT INTO t (a, b) VALUES (1, 2) ON CONFLICT (a) DO UPDATE SET b = excluded.b`,
	`CREATE TABLE t2 AS SELECT * FROM t1`,
	`CREATE VIEW v AS SELECT now(), * FROM t1`,
	`DROP TABLE t; DROP FUNCTION f(int); SELECT f(1) FROM t`,
	`TRUNCATE a, b; VACUUM c; LOCK TABLE d`,
}

func TestContextPartition(t *testing.T) {
	for _, sql := range propertyQueries {
		facts := extract(t, sql)

		tables := lo.Uniq(append(append(facts.SelectTables(), facts.DmlTables()...), facts.DdlTables()...))
		assert.ElementsMatch(t, facts.Tables(), tables, "sql: %s", sql)

		functions := lo.Uniq(append(facts.CallFunctions(), facts.DdlFunctions()...))
		assert.ElementsMatch(t, facts.Functions(), functions, "sql: %s", sql)
	}
}

func TestCTEExclusion(t *testing.T) {
	for _, sql := range propertyQueries {
		facts := extract(t, sql)
		for _, cte := range facts.CTENames() {
			assert.NotContains(t, facts.Tables(), cte, "sql: %s", sql)
		}
	}

	assert.Equal(t, []string{"x"}, extract(t, propertyQueries[2]).Tables())
	assert.Equal(t, []string{}, extract(t, propertyQueries[3]).Tables())
	assert.Equal(t, []string{"t", "x"}, extract(t, propertyQueries[4]).Tables())
	assert.Equal(t, []string{"t"}, extract(t, propertyQueries[5]).Tables())
	assert.Equal(t, []string{"t"}, extract(t, propertyQueries[6]).Tables())
}

func TestWarnings(t *testing.T) {
	tree, err := pg_query.Parse("SELECT 1")
	require.NoError(t, err)

	stderr := "WARNING:  nonstandard use of \\\\ in a string literal\nNOTICE:  something else\n  WARNING: second one  \n"
	facts := Extract(tree, stderr)
	assert.Equal(t, []string{
		"WARNING:  nonstandard use of \\\\ in a string literal",
		"WARNING: second one",
	}, facts.Warnings())

	assert.Empty(t, Extract(tree, "").Warnings())
}

func TestFactsJSON(t *testing.T) {
	facts := extract(t, "SELECT lower(name) FROM t AS x WHERE id = 1")
	bytes, err := json.Marshal(facts)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"tables": [{"name": "t", "context": "select"}],
		"functions": [{"name": "lower", "context": "call"}],
		"cte_names": [],
		"aliases": {"x": "t"},
		"filter_columns": [{"table": null, "column": "id"}],
		"warnings": []
	}`, string(bytes))
}
