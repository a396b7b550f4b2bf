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
Package summary runs fact extraction, truncation, fingerprinting and statement classification
over a batch of pg_stat_statements entries.
*/
package summary

import (
	"context"
	"errors"
	"fmt"

	pg_query "github.com/pganalyze/pg_query_go/v6"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/yugabyte/yb-querysummary/src/errs"
	"github.com/yugabyte/yb-querysummary/src/pgss"
	"github.com/yugabyte/yb-querysummary/src/query/queryfacts"
	"github.com/yugabyte/yb-querysummary/src/query/queryparser"
	"github.com/yugabyte/yb-querysummary/src/query/querytruncate"
)

const DEFAULT_MAX_LENGTH = 200

// QuerySummary is the result for one pg_stat_statements entry. When the query does not parse,
// ParseError is set and only the stats are filled in.
type QuerySummary struct {
	pgss.QueryStats
	Fingerprint    string            `json:"fingerprint,omitempty"`
	StatementTypes []string          `json:"statement_types,omitempty"`
	TruncatedQuery string            `json:"truncated_query,omitempty"`
	Facts          *queryfacts.Facts `json:"facts,omitempty"`
	ParseError     string            `json:"parse_error,omitempty"`
}

// Parser is what the summarizer needs from the SQL parser.
type Parser interface {
	queryparser.Deparser
	Parse(query string) (*pg_query.ParseResult, error)
	Fingerprint(query string) (string, error)
}

type Summarizer struct {
	parser      Parser
	truncator   *querytruncate.Truncator
	maxLength   int
	parallelism int

	// OnQueryDone, if set, is called once per finished entry. It must be safe for concurrent use.
	OnQueryDone func()
}

func NewSummarizer(parser Parser, maxLength int, parallelism int) *Summarizer {
	if parallelism <= 0 {
		parallelism = 1
	}
	return &Summarizer{
		parser:      parser,
		truncator:   querytruncate.NewTruncator(parser),
		maxLength:   maxLength,
		parallelism: parallelism,
	}
}

// Summarize returns one summary per entry, in the same order. Queries that fail to parse are
// reported in their summary; any other failure aborts the whole batch.
func (s *Summarizer) Summarize(ctx context.Context, entries []pgss.QueryStats) ([]QuerySummary, error) {
	summaries := make([]QuerySummary, len(entries))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.parallelism)
	for i := range entries {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			summary, err := s.summarizeQuery(entries[i])
			if err != nil {
				return fmt.Errorf("summarizing query %d: %w", entries[i].QueryID, err)
			}
			summaries[i] = summary
			if s.OnQueryDone != nil {
				s.OnQueryDone()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return summaries, nil
}

func (s *Summarizer) summarizeQuery(entry pgss.QueryStats) (QuerySummary, error) {
	summary := QuerySummary{QueryStats: entry}

	tree, err := s.parser.Parse(entry.Query)
	var parseErr *errs.ParseError
	if errors.As(err, &parseErr) {
		log.Warnf("skipping query %d: %v", entry.QueryID, parseErr)
		summary.ParseError = parseErr.Error()
		return summary, nil
	} else if err != nil {
		return summary, err
	}

	summary.Fingerprint, err = s.parser.Fingerprint(entry.Query)
	if err != nil {
		return summary, fmt.Errorf("fingerprint: %w", err)
	}
	summary.StatementTypes = queryfacts.StatementTypes(tree)
	summary.Facts = queryfacts.Extract(tree, "")
	summary.TruncatedQuery, err = s.truncator.Truncate(tree, s.maxLength)
	if err != nil {
		return summary, fmt.Errorf("truncate: %w", err)
	}
	return summary, nil
}

// MergeByFingerprint folds summaries with the same fingerprint into the first one seen, merging
// their stats. Summaries without a fingerprint are kept as they are.
func MergeByFingerprint(summaries []QuerySummary) []QuerySummary {
	var merged []QuerySummary
	index := make(map[string]int)
	for _, s := range summaries {
		if s.Fingerprint == "" {
			merged = append(merged, s)
			continue
		}
		if i, ok := index[s.Fingerprint]; ok {
			merged[i].QueryStats.Merge(s.QueryStats)
			continue
		}
		index[s.Fingerprint] = len(merged)
		merged = append(merged, s)
	}
	return merged
}
