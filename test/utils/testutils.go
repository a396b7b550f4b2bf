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
package testutils

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// CreateTempCSVFile writes data to a CSV file in a per-test temp dir and returns its path.
func CreateTempCSVFile(t *testing.T, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pg_stat_statements.csv")
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))
	return path
}

// === assertion helper functions
func AssertEqualStringSlices(t *testing.T, expected, actual []string) {
	t.Helper()
	expected = append([]string{}, expected...)
	actual = append([]string{}, actual...)
	sort.Strings(expected)
	sort.Strings(actual)
	assert.Equal(t, expected, actual)
}
