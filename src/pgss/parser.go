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
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
)

// ParseFromCSV parses a pg_stat_statements CSV export and returns the merged entries.
// Columns are matched by header name, so extra columns and any column order are accepted.
func ParseFromCSV(csvPath string) ([]QueryStats, error) {
	file, err := os.Open(csvPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open PGSS CSV file %s: %w", csvPath, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV headers: %w", err)
	}

	var entries []QueryStats
	lineNumber := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, fmt.Errorf("failed to read CSV row at line %d: %w", lineNumber, err)
		} else if len(headers) != len(record) {
			return nil, fmt.Errorf("invalid PGSS CSV structure: headers count does not match record count at line %d", lineNumber)
		}

		entry, err := parseCSVRecord(headers, record)
		if err != nil {
			return nil, fmt.Errorf("failed to parse CSV row at line %d: %w", lineNumber, err)
		}
		entries = append(entries, *entry)
		lineNumber++
	}

	log.Infof("PGSS CSV parsing completed with %d entries", len(entries))
	return MergeQueryStats(entries), nil
}

func parseCSVRecord(headers []string, record []string) (*QueryStats, error) {
	entry := &QueryStats{}

	getValue := func(columnName string) string {
		for i, header := range headers {
			if strings.TrimSpace(header) == columnName {
				return record[i]
			}
		}
		return ""
	}

	var err error
	queryIDValue := getValue("queryid")
	if queryIDValue == "" {
		return nil, fmt.Errorf("missing queryid")
	}
	entry.QueryID, err = strconv.ParseInt(queryIDValue, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid queryid: %s", queryIDValue)
	}

	entry.Query = strings.TrimSpace(getValue("query"))
	if entry.Query == "" {
		return nil, fmt.Errorf("missing or empty query")
	}

	callsValue := getValue("calls")
	if callsValue == "" {
		return nil, fmt.Errorf("missing calls")
	}
	entry.Calls, err = strconv.ParseInt(callsValue, 10, 64)
	if err != nil || entry.Calls <= 0 {
		return nil, fmt.Errorf("invalid calls: %s", callsValue)
	}

	// rows is optional
	if rowsValue := getValue("rows"); rowsValue != "" {
		if val, err := strconv.ParseInt(rowsValue, 10, 64); err == nil {
			entry.Rows = val
		}
	}

	floatFields := []struct {
		name   string
		target *float64
	}{
		{"total_exec_time", &entry.TotalExecTime},
		{"mean_exec_time", &entry.MeanExecTime},
		{"min_exec_time", &entry.MinExecTime},
		{"max_exec_time", &entry.MaxExecTime},
		{"stddev_exec_time", &entry.StddevExecTime},
	}
	for _, field := range floatFields {
		if err := parseFloatOrZero(getValue(field.name), field.name, field.target); err != nil {
			return nil, err
		}
	}
	return entry, nil
}

// parseFloatOrZero treats an empty value (NULL in the export) as 0.
func parseFloatOrZero(value, fieldName string, target *float64) (err error) {
	if value == "" {
		*target = 0.0
		return
	}

	*target, err = strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("invalid %s: %s", fieldName, value)
	}
	return
}
