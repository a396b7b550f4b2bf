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

import pg_query "github.com/pganalyze/pg_query_go/v6"

const (
	PG_QUERY_NODE_NODE       = "pg_query.Node"
	PG_QUERY_PARSE_RESULT    = "pg_query.ParseResult"
	PG_QUERY_RAW_STMT_NODE   = "pg_query.RawStmt"
	PG_QUERY_STRING_NODE     = "pg_query.String"
	PG_QUERY_LIST_NODE       = "pg_query.List"
	PG_QUERY_ALIAS_NODE      = "pg_query.Alias"
	PG_QUERY_ASTAR_NODE      = "pg_query.A_Star"
	PG_QUERY_ACONST_NODE     = "pg_query.A_Const"
	PG_QUERY_PARAMREF_NODE   = "pg_query.ParamRef"
	PG_QUERY_RANGEVAR_NODE   = "pg_query.RangeVar"
	PG_QUERY_COLUMNREF_NODE  = "pg_query.ColumnRef"
	PG_QUERY_RESTARGET_NODE  = "pg_query.ResTarget"
	PG_QUERY_FUNCCALL_NODE   = "pg_query.FuncCall"
	PG_QUERY_CTE_NODE        = "pg_query.CommonTableExpr"
	PG_QUERY_WITH_CLAUSE     = "pg_query.WithClause"
	PG_QUERY_INDEXELEM_NODE  = "pg_query.IndexElem"
	PG_QUERY_OBJECT_WITH_ARG = "pg_query.ObjectWithArgs"

	// expressions
	PG_QUERY_AEXPR_NODE          = "pg_query.A_Expr"
	PG_QUERY_BOOLEXPR_NODE       = "pg_query.BoolExpr"
	PG_QUERY_BOOLEANTEST_NODE    = "pg_query.BooleanTest"
	PG_QUERY_CASEEXPR_NODE       = "pg_query.CaseExpr"
	PG_QUERY_CASEWHEN_NODE       = "pg_query.CaseWhen"
	PG_QUERY_COALESCEEXPR_NODE   = "pg_query.CoalesceExpr"
	PG_QUERY_MINMAXEXPR_NODE     = "pg_query.MinMaxExpr"
	PG_QUERY_NULLTEST_NODE       = "pg_query.NullTest"
	PG_QUERY_SUBLINK_NODE        = "pg_query.SubLink"
	PG_QUERY_ROWEXPR_NODE        = "pg_query.RowExpr"
	PG_QUERY_TYPECAST_NODE       = "pg_query.TypeCast"
	PG_QUERY_SORTBY_NODE         = "pg_query.SortBy"
	PG_QUERY_JOINEXPR_NODE       = "pg_query.JoinExpr"
	PG_QUERY_RANGESUBSELECT_NODE = "pg_query.RangeSubselect"
	PG_QUERY_RANGEFUNCTION_NODE  = "pg_query.RangeFunction"
	PG_QUERY_ONCONFLICT_NODE     = "pg_query.OnConflictClause"
	PG_QUERY_INFERCLAUSE_NODE    = "pg_query.InferClause"

	// statements
	PG_QUERY_SELECTSTMT_NODE           = "pg_query.SelectStmt"
	PG_QUERY_INSERTSTMT_NODE           = "pg_query.InsertStmt"
	PG_QUERY_UPDATESTMT_NODE           = "pg_query.UpdateStmt"
	PG_QUERY_DELETESTMT_NODE           = "pg_query.DeleteStmt"
	PG_QUERY_MERGE_STMT_NODE           = "pg_query.MergeStmt"
	PG_QUERY_COPY_STMT_NODE            = "pg_query.CopyStmt"
	PG_QUERY_EXPLAIN_STMT_NODE         = "pg_query.ExplainStmt"
	PG_QUERY_CREATE_STMT_NODE          = "pg_query.CreateStmt"
	PG_QUERY_CREATE_TABLE_AS_STMT      = "pg_query.CreateTableAsStmt"
	PG_QUERY_ALTER_TABLE_STMT_NODE     = "pg_query.AlterTableStmt"
	PG_QUERY_DROP_STMT_NODE            = "pg_query.DropStmt"
	PG_QUERY_TRUNCATE_STMT_NODE        = "pg_query.TruncateStmt"
	PG_QUERY_VACUUM_STMT_NODE          = "pg_query.VacuumStmt"
	PG_QUERY_VIEW_STMT_NODE            = "pg_query.ViewStmt"
	PG_QUERY_INDEX_STMT_NODE           = "pg_query.IndexStmt"
	PG_QUERY_CREATE_TRIG_STMT          = "pg_query.CreateTrigStmt"
	PG_QUERY_RULE_STMT_NODE            = "pg_query.RuleStmt"
	PG_QUERY_REFRESH_MATVIEW_STMT_NODE = "pg_query.RefreshMatViewStmt"
	PG_QUERY_GRANT_STMT_NODE           = "pg_query.GrantStmt"
	PG_QUERY_LOCK_STMT_NODE            = "pg_query.LockStmt"
	PG_QUERY_CREATE_FUNCTION_STMT      = "pg_query.CreateFunctionStmt"
	PG_QUERY_RENAME_STMT_NODE          = "pg_query.RenameStmt"
	PG_QUERY_TRANSACTION_STMT_NODE     = "pg_query.TransactionStmt"
	PG_QUERY_VARIABLE_SET_STMT_NODE    = "pg_query.VariableSetStmt"
	PG_QUERY_PREPARE_STMT_NODE         = "pg_query.PrepareStmt"
	PG_QUERY_DECLARE_CURSOR_STMT_NODE  = "pg_query.DeclareCursorStmt"

	SETOP_NONE = pg_query.SetOperation_SETOP_NONE

	OBJECT_TABLE    = pg_query.ObjectType_OBJECT_TABLE
	OBJECT_RULE     = pg_query.ObjectType_OBJECT_RULE
	OBJECT_TRIGGER  = pg_query.ObjectType_OBJECT_TRIGGER
	OBJECT_FUNCTION = pg_query.ObjectType_OBJECT_FUNCTION
)
