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
package queryparser

import (
	pg_query "github.com/pganalyze/pg_query_go/v6"
	log "github.com/sirupsen/logrus"
	"google.golang.org/protobuf/proto"
)

/*
ParseTree of each query by pg_query_go is a protobuf. The walker visits it breadth first
with an explicit queue, so that deeply nested queries never grow the Go stack, and the depth
of every node is known when it is visited.

Unlike a generic field-by-field traversal, only the children listed in pushChildren are
followed. That table encodes which part of a statement a node sits in:

	SELECT a FROM t WHERE b = 1

	SelectStmt               depth 0  none
	  ResTarget(a)           depth 1  select
	  A_Expr(b = 1)          depth 1  select  filter
	  RangeVar(t)            depth 1  select
	    ColumnRef(a)         depth 2  select
	    ColumnRef(b)         depth 2  select  filter
	    A_Const(1)           depth 2  select  filter

Any kind missing from the table is a leaf.
*/

// WalkEntry is one visited node of an immutable walk.
type WalkEntry struct {
	Node             NodeRef
	Depth            int32
	Context          UsageContext
	HasFilterColumns bool
}

// MutWalkEntry is one visited node of a mutable walk.
type MutWalkEntry struct {
	Node             NodeMut
	Depth            int32
	Context          UsageContext
	HasFilterColumns bool
}

type pendingNode struct {
	msg     proto.Message
	depth   int32
	context UsageContext
	filter  bool
}

// Walk visits root and its descendants. A *pg_query.ParseResult root walks every statement.
func Walk(root proto.Message) []WalkEntry {
	var roots []proto.Message
	if tree, ok := root.(*pg_query.ParseResult); ok {
		roots = parseResultRoots(tree)
	} else {
		roots = []proto.Message{root}
	}

	var entries []WalkEntry
	traverse(roots, func(cur pendingNode) {
		entries = append(entries, WalkEntry{
			Node:             NodeRef{msg: cur.msg},
			Depth:            cur.depth,
			Context:          cur.context,
			HasFilterColumns: cur.filter,
		})
	})
	return entries
}

func WalkParseResult(tree *pg_query.ParseResult) []WalkEntry {
	return Walk(tree)
}

// WalkMut visits the tree like Walk but registers every node in a fresh Arena and returns stable handles.
func WalkMut(tree *pg_query.ParseResult) (*Arena, []MutWalkEntry) {
	arena := NewArena()
	var entries []MutWalkEntry
	traverse(parseResultRoots(tree), func(cur pendingNode) {
		id := arena.Register(cur.msg)
		entries = append(entries, MutWalkEntry{
			Node:             NodeMut{arena: arena, id: id},
			Depth:            cur.depth,
			Context:          cur.context,
			HasFilterColumns: cur.filter,
		})
	})
	return arena, entries
}

func parseResultRoots(tree *pg_query.ParseResult) []proto.Message {
	var roots []proto.Message
	for _, rawStmt := range tree.GetStmts() {
		ref := ToRef(rawStmt.GetStmt())
		if ref.IsValid() {
			roots = append(roots, ref.msg)
		}
	}
	return roots
}

func traverse(roots []proto.Message, visit func(cur pendingNode)) {
	queue := make([]pendingNode, 0, len(roots))
	for _, root := range roots {
		ref := RefOf(root)
		if ref.IsValid() {
			queue = append(queue, pendingNode{msg: ref.msg, depth: 0, context: ContextNone})
		}
	}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		log.Debugf("Traversing NodeType: %s depth=%d context=%s", GetMsgFullName(cur.msg.ProtoReflect()), cur.depth, cur.context)
		visit(cur)

		push := func(child proto.Message, context UsageContext, filter bool) {
			ref := RefOf(child)
			if !ref.IsValid() {
				return
			}
			queue = append(queue, pendingNode{msg: ref.msg, depth: cur.depth + 1, context: context, filter: filter})
		}
		pushChildren(cur, push)
	}
}

type pushFunc func(child proto.Message, context UsageContext, filter bool)

func pushAll(push pushFunc, nodes []*pg_query.Node, context UsageContext, filter bool) {
	for _, node := range nodes {
		push(node, context, filter)
	}
}

func pushCTEs(push pushFunc, withClause *pg_query.WithClause, context UsageContext) {
	if withClause == nil {
		return
	}
	pushAll(push, withClause.GetCtes(), context, false)
}

// pushChildren is the single rule table shared by the immutable and the mutable walk.
func pushChildren(cur pendingNode, push pushFunc) {
	context, filter := cur.context, cur.filter

	switch n := cur.msg.(type) {
	// Statements that read
	case *pg_query.SelectStmt:
		pushAll(push, n.GetTargetList(), ContextSelect, false)
		push(n.GetWhereClause(), ContextSelect, true)
		pushAll(push, n.GetSortClause(), ContextSelect, false)
		pushAll(push, n.GetGroupClause(), ContextSelect, false)
		push(n.GetHavingClause(), ContextSelect, true)
		// CTEs go ahead of FROM so that a name is known as a CTE before it is seen as a relation
		pushCTEs(push, n.GetWithClause(), ContextSelect)
		pushAll(push, n.GetValuesLists(), ContextSelect, false)
		if n.GetOp() == SETOP_NONE {
			pushAll(push, n.GetFromClause(), ContextSelect, false)
		} else {
			push(n.GetLarg(), ContextSelect, false)
			push(n.GetRarg(), ContextSelect, false)
		}

	// Statements that modify the contents of a table
	case *pg_query.InsertStmt:
		pushCTEs(push, n.GetWithClause(), ContextDml)
		push(n.GetSelectStmt(), ContextDml, false)
		push(n.GetRelation(), ContextDml, false)
		push(n.GetOnConflictClause(), ContextDml, false)
	case *pg_query.UpdateStmt:
		pushCTEs(push, n.GetWithClause(), ContextDml)
		pushAll(push, n.GetTargetList(), ContextDml, false)
		push(n.GetWhereClause(), ContextDml, true)
		pushAll(push, n.GetFromClause(), ContextSelect, false)
		push(n.GetRelation(), ContextDml, false)
	case *pg_query.DeleteStmt:
		pushCTEs(push, n.GetWithClause(), ContextDml)
		push(n.GetWhereClause(), ContextDml, true)
		pushAll(push, n.GetUsingClause(), ContextSelect, false)
		push(n.GetRelation(), ContextDml, false)
	case *pg_query.MergeStmt:
		pushCTEs(push, n.GetWithClause(), ContextDml)
		push(n.GetJoinCondition(), ContextDml, true)
		push(n.GetSourceRelation(), ContextSelect, false)
		push(n.GetRelation(), ContextDml, false)
	case *pg_query.CopyStmt:
		push(n.GetQuery(), ContextDml, false)
		push(n.GetRelation(), ContextDml, false)
		push(n.GetWhereClause(), ContextDml, true)
	case *pg_query.CommonTableExpr:
		push(n.GetCtequery(), context, false)

	// Statements that change the schema
	case *pg_query.AlterTableStmt:
		push(n.GetRelation(), ContextDdl, false)
	case *pg_query.CreateStmt:
		push(n.GetRelation(), ContextDdl, false)
	case *pg_query.CreateTableAsStmt:
		push(n.GetQuery(), ContextDdl, false)
		push(n.GetInto().GetRel(), ContextDdl, false)
	case *pg_query.TruncateStmt:
		pushAll(push, n.GetRelations(), ContextDdl, false)
	case *pg_query.ViewStmt:
		push(n.GetQuery(), ContextDdl, false)
		push(n.GetView(), ContextDdl, false)
	case *pg_query.IndexStmt:
		push(n.GetRelation(), ContextDdl, false)
		pushAll(push, n.GetIndexParams(), ContextDdl, false)
		push(n.GetWhereClause(), ContextDdl, true)
	case *pg_query.CreateTrigStmt:
		push(n.GetRelation(), ContextDdl, false)
	case *pg_query.RuleStmt:
		push(n.GetRelation(), ContextDdl, false)
	case *pg_query.VacuumStmt:
		for _, rel := range n.GetRels() {
			push(rel.GetVacuumRelation().GetRelation(), ContextDdl, false)
		}
	case *pg_query.RefreshMatViewStmt:
		push(n.GetRelation(), ContextDdl, false)
	case *pg_query.GrantStmt:
		if n.GetObjtype() == OBJECT_TABLE {
			pushAll(push, n.GetObjects(), ContextDdl, false)
		}
	case *pg_query.LockStmt:
		pushAll(push, n.GetRelations(), ContextDdl, false)
	case *pg_query.ExplainStmt:
		push(n.GetQuery(), context, false)
	case *pg_query.PrepareStmt:
		push(n.GetQuery(), context, false)
	case *pg_query.DeclareCursorStmt:
		push(n.GetQuery(), context, false)

	// Expressions keep the context of the clause they appear in
	case *pg_query.A_Expr:
		push(n.GetLexpr(), context, filter)
		push(n.GetRexpr(), context, filter)
	case *pg_query.BoolExpr:
		pushAll(push, n.GetArgs(), context, filter)
	case *pg_query.BooleanTest:
		push(n.GetArg(), context, filter)
	case *pg_query.CaseExpr:
		push(n.GetArg(), context, filter)
		pushAll(push, n.GetArgs(), context, filter)
		push(n.GetDefresult(), context, filter)
	case *pg_query.CaseWhen:
		push(n.GetExpr(), context, filter)
		push(n.GetResult(), context, filter)
	case *pg_query.CoalesceExpr:
		pushAll(push, n.GetArgs(), context, filter)
	case *pg_query.MinMaxExpr:
		pushAll(push, n.GetArgs(), context, filter)
	case *pg_query.NullTest:
		push(n.GetArg(), context, filter)
	case *pg_query.FuncCall:
		pushAll(push, n.GetArgs(), context, filter)
	case *pg_query.ResTarget:
		push(n.GetVal(), context, filter)
	case *pg_query.SubLink:
		push(n.GetTestexpr(), context, filter)
		push(n.GetSubselect(), context, filter)
	case *pg_query.RowExpr:
		pushAll(push, n.GetArgs(), context, filter)
	case *pg_query.TypeCast:
		push(n.GetArg(), context, filter)
	case *pg_query.SortBy:
		push(n.GetNode(), context, filter)
	case *pg_query.List:
		pushAll(push, n.GetItems(), context, filter)
	case *pg_query.IndexElem:
		push(n.GetExpr(), context, filter)

	// FROM items
	case *pg_query.JoinExpr:
		push(n.GetLarg(), context, filter)
		push(n.GetRarg(), context, filter)
		push(n.GetQuals(), context, true)
	case *pg_query.RangeSubselect:
		push(n.GetSubquery(), context, filter)
	case *pg_query.RangeFunction:
		pushAll(push, n.GetFunctions(), context, filter)

	// INSERT ... ON CONFLICT
	case *pg_query.OnConflictClause:
		push(n.GetInfer(), context, filter)
		pushAll(push, n.GetTargetList(), context, filter)
		push(n.GetWhereClause(), context, true)
	case *pg_query.InferClause:
		pushAll(push, n.GetIndexElems(), context, filter)
		push(n.GetWhereClause(), context, true)
	}
}
