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
package pgss

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/hashicorp/go-version"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pgssColumns = []string{"queryid", "query", "calls", "rows",
	"total_exec_time", "mean_exec_time", "min_exec_time", "max_exec_time", "stddev_exec_time"}

func TestCollectFromPostgreSQL(t *testing.T) {
	tests := []struct {
		name          string
		serverVersion string
		schemaName    string
		expectedQuery string
	}{
		{
			name:          "PostgreSQL 12 uses *_time columns",
			serverVersion: "12.18 (Debian 12.18-1.pgdg120+2)",
			expectedQuery: `total_time AS total_exec_time, mean_time AS mean_exec_time, min_time AS min_exec_time, max_time AS max_exec_time, stddev_time AS stddev_exec_time\s+FROM pg_stat_statements`,
		},
		{
			name:          "PostgreSQL 16 uses *_exec_time columns",
			serverVersion: "16.2",
			schemaName:    "monitoring",
			expectedQuery: `total_exec_time AS total_exec_time, mean_exec_time AS mean_exec_time, .* FROM "monitoring"\."pg_stat_statements"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			mock.ExpectQuery("SHOW server_version").
				WillReturnRows(sqlmock.NewRows([]string{"server_version"}).AddRow(tt.serverVersion))
			mock.ExpectQuery(tt.expectedQuery).
				WillReturnRows(sqlmock.NewRows(pgssColumns).
					AddRow(int64(1), " SELECT * FROM t WHERE a = $1 ", int64(10), int64(100), 20.0, 2.0, 1.0, 4.0, 0.5).
					AddRow(int64(2), "SELECT now()", int64(5), int64(5), 1.0, 0.2, 0.1, 0.3, nil).
					AddRow(int64(3), "SELECT * FROM t WHERE a = $1", int64(10), int64(50), 10.0, 1.0, 0.5, 2.0, 0.1))

			entries, err := CollectFromPostgreSQL(context.Background(), db, tt.schemaName)
			require.NoError(t, err)
			require.Len(t, entries, 2)

			assert.Equal(t, "SELECT * FROM t WHERE a = $1", entries[0].Query)
			assert.Equal(t, int64(20), entries[0].Calls)
			assert.Equal(t, int64(150), entries[0].Rows)
			assert.Equal(t, 1.5, entries[0].MeanExecTime)
			assert.Equal(t, 0.5, entries[0].MinExecTime)
			assert.Equal(t, 0.0, entries[1].StddevExecTime)

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestCollectFromPostgreSQLErrors(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SHOW server_version").
		WillReturnRows(sqlmock.NewRows([]string{"server_version"}).AddRow("not a version"))
	_, err = CollectFromPostgreSQL(context.Background(), db, "")
	assert.ErrorContains(t, err, "failed to parse server version")

	mock.ExpectQuery("SHOW server_version").
		WillReturnRows(sqlmock.NewRows([]string{"server_version"}).AddRow("15.4"))
	mock.ExpectQuery("FROM pg_stat_statements").WillReturnError(assert.AnError)
	_, err = CollectFromPostgreSQL(context.Background(), db, "")
	assert.ErrorIs(t, err, assert.AnError)

	mock.ExpectQuery("SHOW server_version").
		WillReturnRows(sqlmock.NewRows([]string{"server_version"}).AddRow("15.4"))
	missing := &pgconn.PgError{Code: UNDEFINED_TABLE, Message: `relation "pg_stat_statements" does not exist`}
	mock.ExpectQuery("FROM pg_stat_statements").WillReturnError(missing)
	_, err = CollectFromPostgreSQL(context.Background(), db, "")
	assert.ErrorContains(t, err, "CREATE EXTENSION pg_stat_statements")
	var pgErr *pgconn.PgError
	assert.ErrorAs(t, err, &pgErr)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBuildPgssQuery(t *testing.T) {
	pg11 := version.Must(version.NewVersion("11.22"))
	pg13 := version.Must(version.NewVersion("13.0"))

	assert.Contains(t, buildPgssQuery(pg11, ""), "total_time AS total_exec_time")
	assert.Contains(t, buildPgssQuery(pg13, ""), "total_exec_time AS total_exec_time")
	assert.Contains(t, buildPgssQuery(pg13, `we"ird`), `FROM "we""ird"."pg_stat_statements"`)
}
