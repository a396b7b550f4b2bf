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
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v6"
	"github.com/samber/lo"
	"google.golang.org/protobuf/reflect/protoreflect"
)

func GetMsgFullName(msg protoreflect.Message) string {
	return string(msg.Descriptor().FullName())
}

// getOneofActiveField retrieves the active field from a specified oneof in a Protobuf message.
// It returns the FieldDescriptor of the active field if a field is set, or nil if no field is set or the oneof is not found.
func getOneofActiveField(msg protoreflect.Message, oneofName string) protoreflect.FieldDescriptor {
	if msg == nil || !msg.IsValid() {
		return nil
	}

	oneofDescriptor := msg.Descriptor().Oneofs().ByName(protoreflect.Name(oneofName))
	if oneofDescriptor == nil {
		return nil
	}

	// Determine which field within the oneof is set
	return msg.WhichOneof(oneofDescriptor)
}

// GetStatementType returns the kind of a top level statement node, e.g. pg_query.SelectStmt
func GetStatementType(node *pg_query.Node) string {
	return string(ToRef(node).Kind())
}

/*
StringValues collects the sval of every String node in a name list.
Sample example:: funcname:{string:{sval:"pg_catalog"}} funcname:{string:{sval:"now"}} -> [pg_catalog now]
Non-string items like A_Star in a ColumnRef are skipped.
*/
func StringValues(nodes []*pg_query.Node) []string {
	var names []string
	for _, node := range nodes {
		if str := node.GetString_(); str != nil {
			names = append(names, str.GetSval())
		}
	}
	return names
}

// Sample example:: {func_call:{funcname:{string:{sval:"pg_catalog"}}  funcname:{string:{sval:"now"}}} -> pg_catalog.now
func GetFuncNameFromFuncCall(funcCall *pg_query.FuncCall) string {
	return strings.Join(StringValues(funcCall.GetFuncname()), ".")
}

// GetObjectNameFromRangeVar returns schema.relname, or just relname for unqualified relations
func GetObjectNameFromRangeVar(obj *pg_query.RangeVar) string {
	if obj == nil {
		return ""
	}
	schemaName := obj.GetSchemaname()
	relName := obj.GetRelname()
	return lo.Ternary(schemaName != "", schemaName+"."+relName, relName)
}

/*
GetColNameFromColumnRef returns the (table, column) pair of a column reference.
Fields are read from the end: the last string is the column and the one before it the table.

	{column_ref:{fields:{string:{sval:"s"}} fields:{string:{sval:"t"}} fields:{string:{sval:"c"}}}} -> ("t", "c")
	{column_ref:{fields:{string:{sval:"c"}}}} -> ("", "c")
*/
func GetColNameFromColumnRef(columnRef *pg_query.ColumnRef) (tableName string, columnName string, ok bool) {
	fields := lo.Reverse(StringValues(columnRef.GetFields()))
	if len(fields) == 0 {
		return "", "", false
	}
	if len(fields) > 1 {
		tableName = fields[1]
	}
	return tableName, fields[0], true
}
