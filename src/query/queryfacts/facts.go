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
	"encoding/json"
	"sort"

	"github.com/samber/lo"

	"github.com/yugabyte/yb-querysummary/src/query/queryparser"
)

type TableRef struct {
	Name    string                   `json:"name"`
	Context queryparser.UsageContext `json:"context"`
}

type FunctionRef struct {
	Name    string                   `json:"name"`
	Context queryparser.UsageContext `json:"context"`
}

// FilterColumn is a column referenced from a WHERE, JOIN ON or HAVING predicate. Table is nil for unqualified columns.
type FilterColumn struct {
	Table  *string `json:"table"`
	Column string  `json:"column"`
}

type filterColumnKey struct {
	table    string
	hasTable bool
	column   string
}

// Facts is everything Extract learned about the statements of one parse tree.
type Facts struct {
	tables        map[TableRef]bool
	functions     map[FunctionRef]bool
	cteNames      map[string]bool
	aliases       map[string]string
	filterColumns map[filterColumnKey]bool
	warnings      []string
}

func newFacts() *Facts {
	return &Facts{
		tables:        make(map[TableRef]bool),
		functions:     make(map[FunctionRef]bool),
		cteNames:      make(map[string]bool),
		aliases:       make(map[string]string),
		filterColumns: make(map[filterColumnKey]bool),
	}
}

// Tables returns the distinct names of all referenced tables, whatever the context.
func (f *Facts) Tables() []string {
	return sortedUniq(lo.Map(lo.Keys(f.tables), func(t TableRef, _ int) string { return t.Name }))
}

func (f *Facts) SelectTables() []string {
	return f.tablesIn(queryparser.ContextSelect)
}

func (f *Facts) DmlTables() []string {
	return f.tablesIn(queryparser.ContextDml)
}

func (f *Facts) DdlTables() []string {
	return f.tablesIn(queryparser.ContextDdl)
}

// TableRefs returns every (table, context) pair, sorted by name and then context.
func (f *Facts) TableRefs() []TableRef {
	refs := lo.Keys(f.tables)
	sort.Slice(refs, func(i, j int) bool {
		if refs[i].Name != refs[j].Name {
			return refs[i].Name < refs[j].Name
		}
		return refs[i].Context < refs[j].Context
	})
	return refs
}

func (f *Facts) Functions() []string {
	return sortedUniq(lo.Map(lo.Keys(f.functions), func(fn FunctionRef, _ int) string { return fn.Name }))
}

func (f *Facts) CallFunctions() []string {
	return f.functionsIn(queryparser.ContextCall)
}

func (f *Facts) DdlFunctions() []string {
	return f.functionsIn(queryparser.ContextDdl)
}

func (f *Facts) FunctionRefs() []FunctionRef {
	refs := lo.Keys(f.functions)
	sort.Slice(refs, func(i, j int) bool {
		if refs[i].Name != refs[j].Name {
			return refs[i].Name < refs[j].Name
		}
		return refs[i].Context < refs[j].Context
	})
	return refs
}

func (f *Facts) CTENames() []string {
	return sortedUniq(lo.Keys(f.cteNames))
}

// Aliases maps each relation alias to the table it stands for. The returned map is a copy.
func (f *Facts) Aliases() map[string]string {
	return lo.Assign(f.aliases)
}

func (f *Facts) FilterColumns() []FilterColumn {
	keys := lo.Keys(f.filterColumns)
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].hasTable != keys[j].hasTable {
			return !keys[i].hasTable
		}
		if keys[i].table != keys[j].table {
			return keys[i].table < keys[j].table
		}
		return keys[i].column < keys[j].column
	})
	return lo.Map(keys, func(k filterColumnKey, _ int) FilterColumn {
		col := FilterColumn{Column: k.column}
		if k.hasTable {
			col.Table = lo.ToPtr(k.table)
		}
		return col
	})
}

// Warnings returns the parser warnings in the order they were emitted.
func (f *Facts) Warnings() []string {
	return append([]string{}, f.warnings...)
}

func (f *Facts) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Tables        []TableRef        `json:"tables"`
		Functions     []FunctionRef     `json:"functions"`
		CTENames      []string          `json:"cte_names"`
		Aliases       map[string]string `json:"aliases"`
		FilterColumns []FilterColumn    `json:"filter_columns"`
		Warnings      []string          `json:"warnings"`
	}{
		Tables:        f.TableRefs(),
		Functions:     f.FunctionRefs(),
		CTENames:      f.CTENames(),
		Aliases:       f.Aliases(),
		FilterColumns: f.FilterColumns(),
		Warnings:      f.Warnings(),
	})
}

func (f *Facts) tablesIn(context queryparser.UsageContext) []string {
	refs := lo.Filter(lo.Keys(f.tables), func(t TableRef, _ int) bool { return t.Context == context })
	return sortedUniq(lo.Map(refs, func(t TableRef, _ int) string { return t.Name }))
}

func (f *Facts) functionsIn(context queryparser.UsageContext) []string {
	refs := lo.Filter(lo.Keys(f.functions), func(fn FunctionRef, _ int) bool { return fn.Context == context })
	return sortedUniq(lo.Map(refs, func(fn FunctionRef, _ int) string { return fn.Name }))
}

func sortedUniq(names []string) []string {
	names = lo.Uniq(names)
	sort.Strings(names)
	return names
}
