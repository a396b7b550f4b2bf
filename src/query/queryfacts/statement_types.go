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
package queryfacts

import (
	pg_query "github.com/pganalyze/pg_query_go/v6"
	"google.golang.org/protobuf/proto"

	"github.com/yugabyte/yb-querysummary/src/query/queryparser"
)

// statementKinds are the top level statements that get a label. Anything else is skipped.
var statementKinds = map[queryparser.Kind]bool{
	queryparser.PG_QUERY_SELECTSTMT_NODE:           true,
	queryparser.PG_QUERY_INSERTSTMT_NODE:           true,
	queryparser.PG_QUERY_UPDATESTMT_NODE:           true,
	queryparser.PG_QUERY_DELETESTMT_NODE:           true,
	queryparser.PG_QUERY_MERGE_STMT_NODE:           true,
	queryparser.PG_QUERY_COPY_STMT_NODE:            true,
	queryparser.PG_QUERY_EXPLAIN_STMT_NODE:         true,
	queryparser.PG_QUERY_CREATE_STMT_NODE:          true,
	queryparser.PG_QUERY_CREATE_TABLE_AS_STMT:      true,
	queryparser.PG_QUERY_ALTER_TABLE_STMT_NODE:     true,
	queryparser.PG_QUERY_DROP_STMT_NODE:            true,
	queryparser.PG_QUERY_TRUNCATE_STMT_NODE:        true,
	queryparser.PG_QUERY_VACUUM_STMT_NODE:          true,
	queryparser.PG_QUERY_VIEW_STMT_NODE:            true,
	queryparser.PG_QUERY_INDEX_STMT_NODE:           true,
	queryparser.PG_QUERY_CREATE_TRIG_STMT:          true,
	queryparser.PG_QUERY_RULE_STMT_NODE:            true,
	queryparser.PG_QUERY_REFRESH_MATVIEW_STMT_NODE: true,
	queryparser.PG_QUERY_GRANT_STMT_NODE:           true,
	queryparser.PG_QUERY_LOCK_STMT_NODE:            true,
	queryparser.PG_QUERY_CREATE_FUNCTION_STMT:      true,
	queryparser.PG_QUERY_RENAME_STMT_NODE:          true,
	queryparser.PG_QUERY_TRANSACTION_STMT_NODE:     true,
	queryparser.PG_QUERY_VARIABLE_SET_STMT_NODE:    true,
	queryparser.PG_QUERY_PREPARE_STMT_NODE:         true,
	queryparser.PG_QUERY_DECLARE_CURSOR_STMT_NODE:  true,
	"pg_query.VariableShowStmt":                    true,
	"pg_query.ExecuteStmt":                         true,
	"pg_query.DeallocateStmt":                      true,
	"pg_query.CallStmt":                            true,
	"pg_query.DoStmt":                              true,
	"pg_query.CreateSchemaStmt":                    true,
	"pg_query.CreateSeqStmt":                       true,
	"pg_query.AlterSeqStmt":                        true,
	"pg_query.CreateExtensionStmt":                 true,
	"pg_query.CreateEnumStmt":                      true,
	"pg_query.CompositeTypeStmt":                   true,
	"pg_query.AlterFunctionStmt":                   true,
	"pg_query.CommentStmt":                         true,
	"pg_query.ClusterStmt":                         true,
	"pg_query.ReindexStmt":                         true,
	"pg_query.ListenStmt":                          true,
	"pg_query.NotifyStmt":                          true,
	"pg_query.FetchStmt":                           true,
	"pg_query.ClosePortalStmt":                     true,
	"pg_query.DiscardStmt":                         true,
	"pg_query.CheckPointStmt":                      true,
}

/*
StatementTypes labels each top level statement with its node name. Statements that carry the
query they act on are followed by the label of that query:

	INSERT INTO t SELECT * FROM s       -> [InsertStmt SelectStmt]
	EXPLAIN CREATE TABLE t AS SELECT 1  -> [ExplainStmt CreateTableAsStmt SelectStmt]
*/
func StatementTypes(tree *pg_query.ParseResult) []string {
	var types []string
	for _, rawStmt := range tree.GetStmts() {
		types = appendStatementType(types, queryparser.ToRef(rawStmt.GetStmt()))
	}
	return types
}

func appendStatementType(types []string, ref queryparser.NodeRef) []string {
	if !ref.IsValid() || !statementKinds[ref.Kind()] {
		return types
	}
	types = append(types, ref.Kind().Name())
	if embedded := embeddedQuery(ref.Message()); embedded != nil {
		types = appendStatementType(types, queryparser.ToRef(embedded))
	}
	return types
}

func embeddedQuery(msg proto.Message) *pg_query.Node {
	switch stmt := msg.(type) {
	case *pg_query.InsertStmt:
		return stmt.GetSelectStmt()
	case *pg_query.CreateTableAsStmt:
		return stmt.GetQuery()
	case *pg_query.ViewStmt:
		return stmt.GetQuery()
	case *pg_query.ExplainStmt:
		return stmt.GetQuery()
	case *pg_query.CopyStmt:
		return stmt.GetQuery()
	case *pg_query.PrepareStmt:
		return stmt.GetQuery()
	case *pg_query.DeclareCursorStmt:
		return stmt.GetQuery()
	}
	return nil
}
