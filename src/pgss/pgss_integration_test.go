//go:build integration

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
	"fmt"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	testcontainers "github.com/yugabyte/yb-querysummary/test/containers"
)

var supportedPgVersions = []string{"12", "13", "16"}

func TestCollectFromPostgreSQLContainer(t *testing.T) {
	for _, pgVersion := range supportedPgVersions {
		t.Run(fmt.Sprintf("PostgreSQL_%s", pgVersion), func(t *testing.T) {
			ctx := context.Background()
			container := testcontainers.NewTestContainer(testcontainers.POSTGRESQL, &testcontainers.ContainerConfig{
				DBVersion: pgVersion,
			})
			require.NoError(t, container.Start(ctx))
			defer container.Terminate(ctx)

			require.NoError(t, container.ExecuteSqls(
				"CREATE EXTENSION IF NOT EXISTS pg_stat_statements",
				"SELECT pg_stat_statements_reset()",
				"CREATE TABLE orders (id int PRIMARY KEY, total numeric)",
				"INSERT INTO orders VALUES (1, 10), (2, 20)",
				"SELECT * FROM orders WHERE total > 5",
				"SELECT * FROM orders WHERE total > 15",
			))

			db, err := container.GetConnection()
			require.NoError(t, err)
			defer db.Close()

			entries, err := CollectFromPostgreSQL(ctx, db, "")
			require.NoError(t, err)

			selectEntry, found := lo.Find(entries, func(e QueryStats) bool {
				return e.Query == "SELECT * FROM orders WHERE total > $1"
			})
			require.True(t, found, "entries: %v", entries)
			assert.Equal(t, int64(2), selectEntry.Calls)
			assert.Equal(t, int64(3), selectEntry.Rows)
			assert.GreaterOrEqual(t, selectEntry.MaxExecTime, selectEntry.MinExecTime)

			_, err = CollectFromPostgreSQL(ctx, db, "public")
			assert.NoError(t, err)
		})
	}
}
