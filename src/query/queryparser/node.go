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
	"fmt"
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v6"
	"google.golang.org/protobuf/proto"
)

/*
Kind identifies the variant of a parse tree node by the full protobuf name of its message,
e.g. "pg_query.SelectStmt". Every variant of the pg_query.Node oneof is a distinct protobuf
message type, so the mapping from concrete type to Kind is total by construction and never
needs a hand-maintained table.
*/
type Kind string

// Name returns the kind without the "pg_query." package prefix, e.g. "SelectStmt".
func (k Kind) Name() string {
	return strings.TrimPrefix(string(k), "pg_query.")
}

/*
NodeRef is a read-only view of a parse tree node.
For a pg_query.Node wrapper the view points at the active oneof variant, so

	{select_stmt:{...}}  ->  NodeRef{Kind: pg_query.SelectStmt}

Nodes that are embedded directly (RangeVar in InsertStmt.relation, WithClause, OnConflictClause ...)
are viewed as they are.
*/
type NodeRef struct {
	msg proto.Message
}

// ToRef projects a pg_query.Node onto its active variant.
func ToRef(node *pg_query.Node) NodeRef {
	if node == nil {
		return NodeRef{}
	}
	msg := node.ProtoReflect()
	nodeField := getOneofActiveField(msg, "node")
	if nodeField == nil {
		return NodeRef{}
	}
	inner := msg.Get(nodeField).Message()
	if inner == nil || !inner.IsValid() {
		return NodeRef{}
	}
	return NodeRef{msg: inner.Interface()}
}

// RefOf returns the view of any parse tree message, unwrapping pg_query.Node if needed.
func RefOf(msg proto.Message) NodeRef {
	switch m := msg.(type) {
	case nil:
		return NodeRef{}
	case *pg_query.Node:
		return ToRef(m)
	}
	if !msg.ProtoReflect().IsValid() {
		return NodeRef{}
	}
	return NodeRef{msg: msg}
}

func (r NodeRef) IsValid() bool {
	return r.msg != nil
}

func (r NodeRef) Kind() Kind {
	if r.msg == nil {
		return ""
	}
	return Kind(GetMsgFullName(r.msg.ProtoReflect()))
}

// Message returns the underlying message. Callers must treat it as read-only.
func (r NodeRef) Message() proto.Message {
	return r.msg
}

// Same reports whether both views point at the same node, not at structurally equal nodes.
func (r NodeRef) Same(other NodeRef) bool {
	return r.msg != nil && r.msg == other.msg
}

func (r NodeRef) String() string {
	return fmt.Sprintf("NodeRef(%s)", r.Kind().Name())
}

// UsageContext records why a node was reached during a walk.
type UsageContext int

const (
	ContextNone UsageContext = iota
	ContextSelect
	ContextDml
	ContextDdl
	ContextCall
)

var usageContextNames = []string{"none", "select", "dml", "ddl", "call"}

func (c UsageContext) String() string {
	if int(c) < 0 || int(c) >= len(usageContextNames) {
		return fmt.Sprintf("UsageContext(%d)", int(c))
	}
	return usageContextNames[c]
}

func (c UsageContext) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *UsageContext) UnmarshalText(text []byte) error {
	for i, name := range usageContextNames {
		if name == string(text) {
			*c = UsageContext(i)
			return nil
		}
	}
	return fmt.Errorf("unknown usage context %q", string(text))
}
