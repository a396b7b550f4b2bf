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
package querytruncate

import (
	"fmt"

	pg_query "github.com/pganalyze/pg_query_go/v6"

	"github.com/yugabyte/yb-querysummary/src/query/queryparser"
)

// attribute names the field of a node that a truncation replaces.
type attribute int

const (
	attrTargetList attribute = iota
	attrWhereClause
	attrValuesLists
	attrCols
	attrCTEQuery
)

func (a attribute) String() string {
	switch a {
	case attrTargetList:
		return "TargetList"
	case attrWhereClause:
		return "WhereClause"
	case attrValuesLists:
		return "ValuesLists"
	case attrCols:
		return "Cols"
	case attrCTEQuery:
		return "CTEQuery"
	}
	return fmt.Sprintf("attribute(%d)", int(a))
}

// PossibleTruncation is a candidate replacement: the attribute of the node, where the node sits,
// and roughly how many bytes the attribute takes in the deparsed statement.
type PossibleTruncation struct {
	Attr   attribute
	Node   queryparser.NodeID
	Depth  int32
	Length int
}

// Boilerplate of the synthetic statements used to measure an attribute on its own.
const (
	selectPrefixLen      = len("SELECT ")
	selectWherePrefixLen = len("SELECT WHERE ")
	valuesPrefixLen      = len("VALUES ")
	insertColsWrapperLen = len("INSERT INTO x () DEFAULT VALUES")
	updateSetPrefixLen   = len("UPDATE x SET ")
)

type candidateCollector struct {
	deparser   Deparser
	candidates []PossibleTruncation
}

func (c *candidateCollector) collect(entry queryparser.MutWalkEntry) error {
	id, depth := entry.Node.ID(), entry.Depth

	switch node := entry.Node.Message().(type) {
	case *pg_query.SelectStmt:
		if err := c.addTargetList(id, depth, node.GetTargetList(), false); err != nil {
			return err
		}
		if err := c.addWhereClause(id, depth, node.GetWhereClause()); err != nil {
			return err
		}
		if len(node.GetValuesLists()) > 0 {
			stmt := newSelectStmt()
			stmt.ValuesLists = node.GetValuesLists()
			return c.add(attrValuesLists, id, depth, newSelectStmtNode(stmt), valuesPrefixLen)
		}
	case *pg_query.UpdateStmt:
		if err := c.addTargetList(id, depth, node.GetTargetList(), true); err != nil {
			return err
		}
		return c.addWhereClause(id, depth, node.GetWhereClause())
	case *pg_query.OnConflictClause:
		if err := c.addTargetList(id, depth, node.GetTargetList(), true); err != nil {
			return err
		}
		return c.addWhereClause(id, depth, node.GetWhereClause())
	case *pg_query.DeleteStmt:
		return c.addWhereClause(id, depth, node.GetWhereClause())
	case *pg_query.CopyStmt:
		return c.addWhereClause(id, depth, node.GetWhereClause())
	case *pg_query.IndexStmt:
		return c.addWhereClause(id, depth, node.GetWhereClause())
	case *pg_query.RuleStmt:
		return c.addWhereClause(id, depth, node.GetWhereClause())
	case *pg_query.InferClause:
		return c.addWhereClause(id, depth, node.GetWhereClause())
	case *pg_query.InsertStmt:
		if len(node.GetCols()) > 0 {
			stmt := &pg_query.InsertStmt{
				Relation: newRangeVar("x"),
				Cols:     node.GetCols(),
				Override: pg_query.OverridingKind_OVERRIDING_NOT_SET,
			}
			return c.add(attrCols, id, depth, &pg_query.Node{Node: &pg_query.Node_InsertStmt{InsertStmt: stmt}}, insertColsWrapperLen)
		}
	case *pg_query.CommonTableExpr:
		if node.GetCtequery() != nil {
			return c.add(attrCTEQuery, id, depth, node.GetCtequery(), 0)
		}
	}
	return nil
}

// addTargetList measures a SELECT list as SELECT <list>, and a SET list as UPDATE x SET <list>.
func (c *candidateCollector) addTargetList(id queryparser.NodeID, depth int32, targets []*pg_query.Node, isSetList bool) error {
	if len(targets) == 0 {
		return nil
	}
	if isSetList {
		stmt := &pg_query.UpdateStmt{Relation: newRangeVar("x"), TargetList: targets}
		return c.add(attrTargetList, id, depth, &pg_query.Node{Node: &pg_query.Node_UpdateStmt{UpdateStmt: stmt}}, updateSetPrefixLen)
	}
	stmt := newSelectStmt()
	stmt.TargetList = targets
	return c.add(attrTargetList, id, depth, newSelectStmtNode(stmt), selectPrefixLen)
}

// WHERE CURRENT OF has nothing to shorten, and does not deparse outside of UPDATE or DELETE.
func (c *candidateCollector) addWhereClause(id queryparser.NodeID, depth int32, where *pg_query.Node) error {
	if where == nil || where.GetCurrentOfExpr() != nil {
		return nil
	}
	stmt := newSelectStmt()
	stmt.WhereClause = where
	return c.add(attrWhereClause, id, depth, newSelectStmtNode(stmt), selectWherePrefixLen)
}

// add deparses the synthetic statement and records the candidate with the boilerplate taken off.
func (c *candidateCollector) add(attr attribute, id queryparser.NodeID, depth int32, synthetic *pg_query.Node, boilerplate int) error {
	sql, err := c.deparser.Deparse(&pg_query.ParseResult{Stmts: []*pg_query.RawStmt{{Stmt: synthetic}}})
	if err != nil {
		return fmt.Errorf("measuring %s of node %d: %w", attr, id, err)
	}
	c.candidates = append(c.candidates, PossibleTruncation{
		Attr:   attr,
		Node:   id,
		Depth:  depth,
		Length: len(sql) - boilerplate,
	})
	return nil
}
