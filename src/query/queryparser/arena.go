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

	goerrors "github.com/go-errors/errors"
	pg_query "github.com/pganalyze/pg_query_go/v6"
	"google.golang.org/protobuf/proto"

	"github.com/yugabyte/yb-querysummary/src/errs"
)

// NodeID is the stable index of a node inside an Arena.
type NodeID int

/*
Arena indexes the nodes visited by a mutable walk so that callers can hold on to
stable ids instead of live references into a tree they are about to mutate.

A slot always points at the node that was registered. What can go stale is the node's
position in the tree: once an ancestor's attribute is replaced, the old subtree is detached
from the root. Refresh recomputes which ids are still reachable, and Get refuses to hand out
a handle for a detached node.
*/
type Arena struct {
	nodes     []proto.Message
	ids       map[proto.Message]NodeID
	reachable map[NodeID]bool
}

func NewArena() *Arena {
	return &Arena{
		ids: make(map[proto.Message]NodeID),
	}
}

// Register adds a node to the arena and returns its id. Registering the same node twice returns the same id.
func (a *Arena) Register(msg proto.Message) NodeID {
	if id, ok := a.ids[msg]; ok {
		return id
	}
	id := NodeID(len(a.nodes))
	a.nodes = append(a.nodes, msg)
	a.ids[msg] = id
	if a.reachable != nil {
		a.reachable[id] = true
	}
	return id
}

func (a *Arena) Len() int {
	return len(a.nodes)
}

// IsReachable reports whether the node was reachable from the root at the last Refresh.
// Before the first Refresh every registered node counts as reachable.
func (a *Arena) IsReachable(id NodeID) bool {
	if int(id) < 0 || int(id) >= len(a.nodes) {
		return false
	}
	if a.reachable == nil {
		return true
	}
	return a.reachable[id]
}

// Get returns a mutable handle for the id, or errs.ErrInvalidPointer if the id is unknown or detached.
func (a *Arena) Get(id NodeID) (NodeMut, error) {
	if int(id) < 0 || int(id) >= len(a.nodes) {
		return NodeMut{}, goerrors.Errorf("node id %d out of range [0, %d): %w", id, len(a.nodes), errs.ErrInvalidPointer)
	}
	if !a.IsReachable(id) {
		return NodeMut{}, goerrors.Errorf("node id %d (%s) is no longer reachable from the root: %w",
			id, RefOf(a.nodes[id]).Kind().Name(), errs.ErrInvalidPointer)
	}
	return NodeMut{arena: a, id: id}, nil
}

// Refresh recomputes the reachable set with a fresh walk over the tree.
func (a *Arena) Refresh(tree *pg_query.ParseResult) {
	reachable := make(map[NodeID]bool, len(a.nodes))
	traverse(parseResultRoots(tree), func(cur pendingNode) {
		if id, ok := a.ids[cur.msg]; ok {
			reachable[id] = true
		}
	})
	a.reachable = reachable
}

// NodeMut is a mutable handle on a node registered in an Arena.
type NodeMut struct {
	arena *Arena
	id    NodeID
}

func (m NodeMut) ID() NodeID {
	return m.id
}

func (m NodeMut) IsValid() bool {
	return m.arena != nil && m.arena.IsReachable(m.id)
}

// Message returns the live node. The caller may mutate its fields.
func (m NodeMut) Message() proto.Message {
	if m.arena == nil {
		return nil
	}
	return m.arena.nodes[m.id]
}

func (m NodeMut) Kind() Kind {
	return RefOf(m.Message()).Kind()
}

// Ref returns a read-only view of the same node.
func (m NodeMut) Ref() NodeRef {
	return RefOf(m.Message())
}

// Same reports whether both handles refer to the same node of the same arena.
func (m NodeMut) Same(other NodeMut) bool {
	return m.arena != nil && m.arena == other.arena && m.id == other.id
}

func (m NodeMut) String() string {
	return fmt.Sprintf("NodeMut(%d, %s)", m.id, m.Kind().Name())
}
