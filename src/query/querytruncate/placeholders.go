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
	pg_query "github.com/pganalyze/pg_query_go/v6"
)

// ellipsisName is the identifier of every placeholder node. It deparses as "…" (quoted).
const ellipsisName = "…"

func newColumnRefNode(name string) *pg_query.Node {
	return &pg_query.Node{
		Node: &pg_query.Node_ColumnRef{
			ColumnRef: &pg_query.ColumnRef{
				Fields:   []*pg_query.Node{newStringNode(name)},
				Location: -1,
			},
		},
	}
}

func newStringNode(str string) *pg_query.Node {
	return &pg_query.Node{Node: &pg_query.Node_String_{String_: &pg_query.String{Sval: str}}}
}

func newResTargetNode(name string, val *pg_query.Node) *pg_query.Node {
	return &pg_query.Node{
		Node: &pg_query.Node_ResTarget{
			ResTarget: &pg_query.ResTarget{Name: name, Val: val, Location: -1},
		},
	}
}

func newListNode(items ...*pg_query.Node) *pg_query.Node {
	return &pg_query.Node{Node: &pg_query.Node_List{List: &pg_query.List{Items: items}}}
}

func newSelectStmt() *pg_query.SelectStmt {
	return &pg_query.SelectStmt{
		Op:          pg_query.SetOperation_SETOP_NONE,
		LimitOption: pg_query.LimitOption_LIMIT_OPTION_DEFAULT,
	}
}

func newSelectStmtNode(stmt *pg_query.SelectStmt) *pg_query.Node {
	return &pg_query.Node{Node: &pg_query.Node_SelectStmt{SelectStmt: stmt}}
}

func newRangeVar(relname string) *pg_query.RangeVar {
	return &pg_query.RangeVar{Relname: relname, Inh: true, Relpersistence: "p", Location: -1}
}

// dummyColumn deparses as "…". It replaces a WHERE clause.
func dummyColumn() *pg_query.Node {
	return newColumnRefNode(ellipsisName)
}

// dummyTargetList deparses as "…" AS "…" in a SELECT list and as "…" = "…" in a SET list.
func dummyTargetList() []*pg_query.Node {
	return []*pg_query.Node{newResTargetNode(ellipsisName, dummyColumn())}
}

// dummyValuesLists deparses as VALUES ("…").
func dummyValuesLists() []*pg_query.Node {
	return []*pg_query.Node{newListNode(dummyColumn())}
}

// dummyInsertCols deparses as ("…").
func dummyInsertCols() []*pg_query.Node {
	return []*pg_query.Node{newResTargetNode(ellipsisName, nil)}
}

// dummyCTEQuery deparses as SELECT WHERE "…".
func dummyCTEQuery() *pg_query.Node {
	stmt := newSelectStmt()
	stmt.WhereClause = dummyColumn()
	return newSelectStmtNode(stmt)
}
