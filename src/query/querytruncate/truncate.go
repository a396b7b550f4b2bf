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
Package querytruncate shortens SQL text to a byte budget by replacing parts of the parse tree
with placeholders, so the output is still a statement PostgreSQL would parse:

	SELECT a, b, c, d, e, f FROM xyz WHERE a = b   -> SELECT ... FROM xyz WHERE a = b

Only when no replacement is enough is the text cut, and then it always ends with "...".
*/
package querytruncate

import (
	"sort"
	"strings"
	"unicode/utf8"

	goerrors "github.com/go-errors/errors"
	pg_query "github.com/pganalyze/pg_query_go/v6"
	log "github.com/sirupsen/logrus"
	"google.golang.org/protobuf/proto"

	"github.com/yugabyte/yb-querysummary/src/errs"
	"github.com/yugabyte/yb-querysummary/src/query/queryparser"
)

type Deparser = queryparser.Deparser

const ellipsis = "..."

// Truncator is safe for concurrent use as long as its deparser is.
type Truncator struct {
	deparser Deparser
}

func NewTruncator(deparser Deparser) *Truncator {
	return &Truncator{deparser: deparser}
}

// Truncate is a shorthand for NewTruncator(deparser).Truncate(tree, maxLength).
func Truncate(tree *pg_query.ParseResult, maxLength int, deparser Deparser) (string, error) {
	return NewTruncator(deparser).Truncate(tree, maxLength)
}

/*
Truncate returns the deparsed tree if it fits maxLength bytes. Otherwise it works on a private
clone and replaces reducible attributes, deepest node first and then longest attribute first,
until the output fits. The tree passed in is never modified.
*/
func (t *Truncator) Truncate(tree *pg_query.ParseResult, maxLength int) (string, error) {
	output, err := t.deparser.Deparse(tree)
	if err != nil {
		return "", err
	}
	if len(output) <= maxLength {
		return output, nil
	}

	clone := proto.Clone(tree).(*pg_query.ParseResult)
	arena, entries := queryparser.WalkMut(clone)

	collector := &candidateCollector{deparser: t.deparser}
	for _, entry := range entries {
		if err := collector.collect(entry); err != nil {
			return "", err
		}
	}
	candidates := sortCandidates(collector.candidates)
	log.Debugf("truncating query of length %d to %d: %d candidates", len(output), maxLength, len(candidates))

	for len(candidates) > 0 {
		candidate := candidates[0]
		candidates = candidates[1:]

		if err := applyCandidate(arena, candidate); err != nil {
			return "", err
		}
		if candidate.Attr == attrCTEQuery {
			arena.Refresh(clone)
			candidates = retractUnreachable(arena, candidates)
		}

		sql, err := t.deparser.Deparse(clone)
		if err != nil {
			return "", err
		}
		output = cleanupPlaceholders(sql)
		log.Debugf("replaced %s of node %d at depth %d, length now %d", candidate.Attr, candidate.Node, candidate.Depth, len(output))
		if len(output) <= maxLength {
			return output, nil
		}
	}

	return hardTruncate(output, maxLength), nil
}

// sortCandidates orders deepest first, then longest first. Ties keep walk order.
func sortCandidates(candidates []PossibleTruncation) []PossibleTruncation {
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Depth != candidates[j].Depth {
			return candidates[i].Depth > candidates[j].Depth
		}
		return candidates[i].Length > candidates[j].Length
	})
	return candidates
}

func retractUnreachable(arena *queryparser.Arena, candidates []PossibleTruncation) []PossibleTruncation {
	kept := candidates[:0]
	for _, c := range candidates {
		if arena.IsReachable(c.Node) {
			kept = append(kept, c)
		} else {
			log.Debugf("retracting %s of node %d, the node is no longer part of the tree", c.Attr, c.Node)
		}
	}
	return kept
}

func applyCandidate(arena *queryparser.Arena, candidate PossibleTruncation) error {
	node, err := arena.Get(candidate.Node)
	if err != nil {
		return err
	}

	switch n := node.Message().(type) {
	case *pg_query.SelectStmt:
		switch candidate.Attr {
		case attrTargetList:
			n.TargetList = dummyTargetList()
			return nil
		case attrWhereClause:
			n.WhereClause = dummyColumn()
			return nil
		case attrValuesLists:
			n.ValuesLists = dummyValuesLists()
			return nil
		}
	case *pg_query.UpdateStmt:
		switch candidate.Attr {
		case attrTargetList:
			n.TargetList = dummyTargetList()
			return nil
		case attrWhereClause:
			n.WhereClause = dummyColumn()
			return nil
		}
	case *pg_query.OnConflictClause:
		switch candidate.Attr {
		case attrTargetList:
			n.TargetList = dummyTargetList()
			return nil
		case attrWhereClause:
			n.WhereClause = dummyColumn()
			return nil
		}
	case *pg_query.DeleteStmt:
		if candidate.Attr == attrWhereClause {
			n.WhereClause = dummyColumn()
			return nil
		}
	case *pg_query.CopyStmt:
		if candidate.Attr == attrWhereClause {
			n.WhereClause = dummyColumn()
			return nil
		}
	case *pg_query.IndexStmt:
		if candidate.Attr == attrWhereClause {
			n.WhereClause = dummyColumn()
			return nil
		}
	case *pg_query.RuleStmt:
		if candidate.Attr == attrWhereClause {
			n.WhereClause = dummyColumn()
			return nil
		}
	case *pg_query.InferClause:
		if candidate.Attr == attrWhereClause {
			n.WhereClause = dummyColumn()
			return nil
		}
	case *pg_query.InsertStmt:
		if candidate.Attr == attrCols {
			n.Cols = dummyInsertCols()
			return nil
		}
	case *pg_query.CommonTableExpr:
		if candidate.Attr == attrCTEQuery {
			n.Ctequery = dummyCTEQuery()
			return nil
		}
	}
	return goerrors.Errorf("node %d of kind %s has no attribute %s: %w", candidate.Node, node.Kind().Name(), candidate.Attr, errs.ErrInvalidPointer)
}

var placeholderReplacements = []struct{ old, new string }{
	{`SELECT WHERE "` + ellipsisName + `"`, ellipsis},
	{`"` + ellipsisName + `"`, ellipsis},
	{ellipsis + " AS " + ellipsis, ellipsis},
}

func cleanupPlaceholders(sql string) string {
	for _, r := range placeholderReplacements {
		sql = strings.ReplaceAll(sql, r.old, r.new)
	}
	return sql
}

// hardTruncate cuts sql to maxLength-3 bytes without splitting a character and appends "...".
// A budget too small for the ellipsis gives an empty string.
func hardTruncate(sql string, maxLength int) string {
	if maxLength < len(ellipsis) {
		return ""
	}
	cut := maxLength - len(ellipsis)
	if cut == 0 {
		return ellipsis
	}
	if cut >= len(sql) {
		return sql + ellipsis
	}
	for cut > 0 && !utf8.RuneStart(sql[cut]) {
		cut--
	}
	return sql[:cut] + ellipsis
}
