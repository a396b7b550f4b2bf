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

/*
Package pgss reads query statistics captured by the pg_stat_statements extension, either from a
CSV export or straight from a running PostgreSQL, and merges entries that share the same query text.
*/
package pgss

import (
	"math"
	"sort"
)

// QueryStats represents a pg_stat_statements entry
// All field names follow PostgreSQL 13+ conventions for consistency across versions
type QueryStats struct {
	QueryID int64  `json:"queryid" db:"queryid"`
	Query   string `json:"query" db:"query"`

	Calls int64 `json:"calls" db:"calls"`
	Rows  int64 `json:"rows" db:"rows"`

	// Timing metrics (all in milliseconds, normalized to PG 13+ column names)
	TotalExecTime  float64 `json:"total_exec_time" db:"total_exec_time"`   // total_time (PG11-12) -> total_exec_time (PG13+)
	MeanExecTime   float64 `json:"mean_exec_time" db:"mean_exec_time"`     // mean_time (PG11-12) -> mean_exec_time (PG13+)
	MinExecTime    float64 `json:"min_exec_time" db:"min_exec_time"`       // min_time (PG11-12) -> min_exec_time (PG13+)
	MaxExecTime    float64 `json:"max_exec_time" db:"max_exec_time"`       // max_time (PG11-12) -> max_exec_time (PG13+)
	StddevExecTime float64 `json:"stddev_exec_time" db:"stddev_exec_time"` // stddev_time (PG11-12) -> stddev_exec_time (PG13+)
}

// Merge folds the stats of another entry for the same query into q.
// stddev_exec_time keeps the value of q, combining it needs the per-entry sums of squares.
func (q *QueryStats) Merge(other QueryStats) {
	first := *q

	q.Calls = first.Calls + other.Calls
	q.Rows = first.Rows + other.Rows
	q.TotalExecTime = first.TotalExecTime + other.TotalExecTime
	if q.Calls > 0 {
		q.MeanExecTime = q.TotalExecTime / float64(q.Calls)
	}
	q.MinExecTime = math.Min(first.MinExecTime, other.MinExecTime)
	q.MaxExecTime = math.Max(first.MaxExecTime, other.MaxExecTime)
}

// MergeQueryStats merges the entries with the same query text. The result is sorted by QueryID.
func MergeQueryStats(entries []QueryStats) []QueryStats {
	queryMap := make(map[string]*QueryStats)
	var order []string

	for _, entry := range entries {
		if existing, ok := queryMap[entry.Query]; ok {
			existing.Merge(entry)
			continue
		}
		entry := entry
		queryMap[entry.Query] = &entry
		order = append(order, entry.Query)
	}

	merged := make([]QueryStats, 0, len(queryMap))
	for _, query := range order {
		merged = append(merged, *queryMap[query])
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].QueryID < merged[j].QueryID
	})
	return merged
}
