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
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/hashicorp/go-version"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	log "github.com/sirupsen/logrus"
)

// SQLSTATE of a missing relation, which is what querying pg_stat_statements gives without the extension.
const UNDEFINED_TABLE = "42P01"

// pg_stat_statements renamed its timing columns in PostgreSQL 13.
var execTimeColumnsSince = version.Must(version.NewVersion("13"))

const pgssQueryTemplate = `SELECT queryid, query, calls, rows,
	%s AS total_exec_time, %s AS mean_exec_time, %s AS min_exec_time, %s AS max_exec_time, %s AS stddev_exec_time
FROM %s
WHERE queryid IS NOT NULL AND calls > 0`

func OpenPostgreSQL(uri string) (*sql.DB, error) {
	db, err := sql.Open("pgx", uri)
	if err != nil {
		return nil, fmt.Errorf("failed to open connection to postgres: %w", err)
	}
	return db, nil
}

// CollectFromPostgreSQL reads pg_stat_statements from a live PostgreSQL. schemaName is the schema
// the extension was created in; empty means it is resolved through the search_path.
func CollectFromPostgreSQL(ctx context.Context, db *sql.DB, schemaName string) ([]QueryStats, error) {
	serverVersion, err := getServerVersion(ctx, db)
	if err != nil {
		return nil, err
	}

	query := buildPgssQuery(serverVersion, schemaName)
	log.Infof("collecting pg_stat_statements from PostgreSQL %s", serverVersion)
	log.Debugf("pg_stat_statements query: %s", query)

	rows, err := db.QueryContext(ctx, query)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == UNDEFINED_TABLE {
		return nil, fmt.Errorf("pg_stat_statements is not available, run CREATE EXTENSION pg_stat_statements: %w", err)
	} else if err != nil {
		return nil, fmt.Errorf("failed to query pg_stat_statements: %w", err)
	}
	defer rows.Close()

	var entries []QueryStats
	for rows.Next() {
		var entry QueryStats
		var stddev sql.NullFloat64
		err := rows.Scan(&entry.QueryID, &entry.Query, &entry.Calls, &entry.Rows,
			&entry.TotalExecTime, &entry.MeanExecTime, &entry.MinExecTime, &entry.MaxExecTime, &stddev)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pg_stat_statements row: %w", err)
		}
		entry.Query = strings.TrimSpace(entry.Query)
		entry.StddevExecTime = stddev.Float64
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate over pg_stat_statements rows: %w", err)
	}

	log.Infof("collected %d entries from pg_stat_statements", len(entries))
	return MergeQueryStats(entries), nil
}

func getServerVersion(ctx context.Context, db *sql.DB) (*version.Version, error) {
	var versionStr string
	err := db.QueryRowContext(ctx, "SHOW server_version").Scan(&versionStr)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch server version: %w", err)
	}

	// e.g. "16.2 (Debian 16.2-1.pgdg120+2)"
	fields := strings.Fields(versionStr)
	if len(fields) == 0 {
		return nil, fmt.Errorf("empty server version")
	}
	serverVersion, err := version.NewVersion(fields[0])
	if err != nil {
		return nil, fmt.Errorf("failed to parse server version %q: %w", versionStr, err)
	}
	return serverVersion, nil
}

func buildPgssQuery(serverVersion *version.Version, schemaName string) string {
	timingColumns := []any{"total_time", "mean_time", "min_time", "max_time", "stddev_time"}
	if serverVersion.GreaterThanOrEqual(execTimeColumnsSince) {
		timingColumns = []any{"total_exec_time", "mean_exec_time", "min_exec_time", "max_exec_time", "stddev_exec_time"}
	}

	relation := "pg_stat_statements"
	if schemaName != "" {
		relation = pgx.Identifier{schemaName, "pg_stat_statements"}.Sanitize()
	}
	return fmt.Sprintf(pgssQueryTemplate, append(timingColumns, relation)...)
}
