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
Package queryfacts reads a parse tree and reports what it touches: tables and functions, each
with the usage context it was reached in, plus CTE names, relation aliases and filter columns.
*/
package queryfacts

import (
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v6"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"

	"github.com/yugabyte/yb-querysummary/src/query/queryparser"
)

/*
Extract collects the facts of every statement in the tree in a single pass over the walk.
stderr is whatever the parser printed while parsing; its WARNING lines are kept as is.

CTE names are collected in the same pass as relations. A relation is dropped when its name is a
CTE seen earlier in the walk, regardless of nesting level. So a CTE that shadows a table used at
an inner scope hides that table too. This is a known limitation.
*/
func Extract(tree *pg_query.ParseResult, stderr string) *Facts {
	facts := newFacts()
	for _, entry := range queryparser.WalkParseResult(tree) {
		facts.collect(entry)
	}
	facts.warnings = parseWarnings(stderr)
	return facts
}

func (f *Facts) collect(entry queryparser.WalkEntry) {
	switch node := entry.Node.Message().(type) {
	case *pg_query.CommonTableExpr:
		log.Debugf("[CTE] fetched ctename=%s", node.GetCtename())
		f.cteNames[node.GetCtename()] = true

	case *pg_query.RangeVar:
		objectName := queryparser.GetObjectNameFromRangeVar(node)
		if f.cteNames[objectName] {
			log.Debugf("[RangeVar] skipping %s, it refers to a CTE", objectName)
			return
		}
		log.Debugf("[RangeVar] fetched objectname=%s context=%s", objectName, entry.Context)
		f.addTable(objectName, entry.Context)
		if alias := node.GetAlias().GetAliasname(); alias != "" {
			f.aliases[alias] = objectName
		}

	case *pg_query.ColumnRef:
		if !entry.HasFilterColumns {
			return
		}
		tableName, columnName, ok := queryparser.GetColNameFromColumnRef(node)
		if !ok {
			return
		}
		f.filterColumns[filterColumnKey{table: tableName, hasTable: tableName != "", column: columnName}] = true

	case *pg_query.FuncCall:
		funcName := queryparser.GetFuncNameFromFuncCall(node)
		if funcName == "" {
			return
		}
		log.Debugf("[Funccall] fetched objectname=%s", funcName)
		f.addFunction(funcName, queryparser.ContextCall)

	case *pg_query.DropStmt:
		f.collectDropStmt(node)

	case *pg_query.CreateFunctionStmt:
		names := queryparser.StringValues(node.GetFuncname())
		if len(names) > 0 {
			f.addFunction(names[0], queryparser.ContextDdl)
		}

	case *pg_query.RenameStmt:
		if node.GetRenameType() != queryparser.OBJECT_FUNCTION {
			return
		}
		names := queryparser.StringValues(node.GetObject().GetObjectWithArgs().GetObjname())
		if len(names) > 0 {
			f.addFunction(names[0], queryparser.ContextDdl)
		}
		if node.GetNewname() != "" {
			f.addFunction(node.GetNewname(), queryparser.ContextDdl)
		}
	}
}

/*
collectDropStmt handles the object names of DROP statements. Objects are name lists:

	DROP TABLE s.t             -> objects: [list:{s, t}]              -> table s.t
	DROP TRIGGER trg ON s.t    -> objects: [list:{s, t, trg}]         -> table s.t
	DROP FUNCTION f(int)       -> objects: [object_with_args:{f}]     -> function f
*/
func (f *Facts) collectDropStmt(stmt *pg_query.DropStmt) {
	switch stmt.GetRemoveType() {
	case queryparser.OBJECT_TABLE:
		for _, obj := range stmt.GetObjects() {
			names := queryparser.StringValues(obj.GetList().GetItems())
			if len(names) > 0 {
				f.addTable(strings.Join(names, "."), queryparser.ContextDdl)
			}
		}
	case queryparser.OBJECT_RULE, queryparser.OBJECT_TRIGGER:
		for _, obj := range stmt.GetObjects() {
			names := queryparser.StringValues(obj.GetList().GetItems())
			if len(names) > 1 {
				f.addTable(strings.Join(names[:len(names)-1], "."), queryparser.ContextDdl)
			}
		}
	case queryparser.OBJECT_FUNCTION:
		objects := stmt.GetObjects()
		if len(objects) == 0 {
			return
		}
		names := queryparser.StringValues(objects[0].GetObjectWithArgs().GetObjname())
		if len(names) > 0 {
			f.addFunction(names[0], queryparser.ContextDdl)
		}
	}
}

func (f *Facts) addTable(name string, context queryparser.UsageContext) {
	f.tables[TableRef{Name: name, Context: context}] = true
}

func (f *Facts) addFunction(name string, context queryparser.UsageContext) {
	f.functions[FunctionRef{Name: name, Context: context}] = true
}

func parseWarnings(stderr string) []string {
	lines := lo.Map(strings.Split(stderr, "\n"), func(line string, _ int) string {
		return strings.TrimSpace(line)
	})
	return lo.Filter(lines, func(line string, _ int) bool {
		return strings.HasPrefix(line, "WARNING")
	})
}
