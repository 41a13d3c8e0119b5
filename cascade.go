package goviewset

import (
	"context"
	"fmt"

	"github.com/samber/lo"
)

// RedactedName replaces the display name of secret rows in a delete preview.
const RedactedName = "<APITokenIsHidden>"

// Kind tells how a collected row may be presented to clients.
type Kind uint8

const (
	// KindRegular rows are shown with their display name.
	KindRegular Kind = iota
	// KindSecret rows hold credentials; their display name must never leave
	// the server.
	KindSecret
)

func (k Kind) String() string {
	switch k {
	case KindRegular:
		return "regular"
	case KindSecret:
		return "secret"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Object is a single row that would be removed by a cascading delete.
type Object struct {
	// Model schema name of the row, the Go type name of the model.
	Model string
	// ID value of the "id" column. Nil if the model has no such column.
	ID any
	// Repr human readable representation of the row.
	Repr string
	Kind Kind
}

// DependencyNode is an object together with the objects that are deleted
// because of it.
type DependencyNode struct {
	Object     Object
	Dependents DependencyTree
}

// DependencyTree is the nested result of collecting cascade dependents.
type DependencyTree []DependencyNode

// Collector computes every row reachable by a cascading delete of root.
// The root itself is the first node of the returned tree. Implementations
// must not modify any data.
type Collector interface {
	Collect(ctx context.Context, root any) (DependencyTree, error)
}

// Flatten walks the tree depth-first and returns all objects in encounter
// order.
func (t DependencyTree) Flatten() []Object {
	ret := make([]Object, 0, t.Len())

	var walk func(DependencyTree)
	walk = func(nodes DependencyTree) {
		for _, node := range nodes {
			ret = append(ret, node.Object)
			walk(node.Dependents)
		}
	}
	walk(t)

	return ret
}

// Len returns the number of objects in the tree, at every depth.
func (t DependencyTree) Len() int {
	return lo.SumBy(t, func(node DependencyNode) int {
		return 1 + node.Dependents.Len()
	})
}

// CascadeNode is the wire representation of an Object.
type CascadeNode struct {
	Model string `json:"model"`
	ID    any    `json:"id"`
	Name  string `json:"name"`
}

// CascadeNode converts the object for presentation, hiding secrets.
func (o Object) CascadeNode() CascadeNode {
	node := CascadeNode{
		Model: o.Model,
		ID:    o.ID,
	}

	switch o.Kind {
	case KindSecret:
		node.Name = RedactedName
	default:
		node.Name = o.Repr
	}

	return node
}

// CascadeNodes flattens the tree into presentable nodes.
func CascadeNodes(tree DependencyTree) []CascadeNode {
	return lo.Map(tree.Flatten(), func(o Object, _ int) CascadeNode {
		return o.CascadeNode()
	})
}

// DeletePreview lists everything a delete of root would remove, without
// deleting anything.
func DeletePreview(ctx context.Context, collector Collector, root any) ([]CascadeNode, error) {
	tree, err := collector.Collect(ctx, root)
	if err != nil {
		return nil, fmt.Errorf("cannot collect dependents: %w", err)
	}

	return CascadeNodes(tree), nil
}
