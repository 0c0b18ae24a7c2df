// Package tree holds the owned configuration tree produced by the decoder.
//
// A Node carries exactly one value variant, selected by Kind. Nodes share no
// memory with the foreign library they were decoded from and can outlive it.
package tree

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind selects which value field of a Node is meaningful.
type Kind uint8

const (
	KindInt Kind = iota
	KindBool
	KindString
	KindArray
	KindIPPort
	KindFloat
	KindObject
)

var kindNames = [...]string{
	KindInt:    "int",
	KindBool:   "bool",
	KindString: "string",
	KindArray:  "array",
	KindIPPort: "ipport",
	KindFloat:  "float",
	KindObject: "object",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Node is one owned configuration entry.
type Node struct {
	Key  string
	Kind Kind

	Int      int64
	Bool     bool
	Str      string
	IPPort   int32
	Float    float32
	Children []*Node
}

// Scalar constructors.

func Int(key string, v int64) *Node     { return &Node{Key: key, Kind: KindInt, Int: v} }
func Bool(key string, v bool) *Node     { return &Node{Key: key, Kind: KindBool, Bool: v} }
func String(key, v string) *Node        { return &Node{Key: key, Kind: KindString, Str: v} }
func IPPort(key string, v int32) *Node  { return &Node{Key: key, Kind: KindIPPort, IPPort: v} }
func Float(key string, v float32) *Node { return &Node{Key: key, Kind: KindFloat, Float: v} }

// Array returns an array node holding items in order.
func Array(key string, items ...*Node) *Node {
	return &Node{Key: key, Kind: KindArray, Children: items}
}

// Object returns an object node holding fields in order.
func Object(key string, fields ...*Node) *Node {
	return &Node{Key: key, Kind: KindObject, Children: fields}
}

// IsContainer reports whether n holds children.
func (n *Node) IsContainer() bool {
	return n.Kind == KindArray || n.Kind == KindObject
}

// Equal reports whether two trees are structurally identical: same keys,
// kinds, values and child order.
func (n *Node) Equal(o *Node) bool {
	if n == nil || o == nil {
		return n == o
	}
	if n.Key != o.Key || n.Kind != o.Kind {
		return false
	}
	switch n.Kind {
	case KindInt:
		return n.Int == o.Int
	case KindBool:
		return n.Bool == o.Bool
	case KindString:
		return n.Str == o.Str
	case KindIPPort:
		return n.IPPort == o.IPPort
	case KindFloat:
		return n.Float == o.Float
	}
	if len(n.Children) != len(o.Children) {
		return false
	}
	for i := range n.Children {
		if !n.Children[i].Equal(o.Children[i]) {
			return false
		}
	}
	return true
}

// Get returns the first direct child named key, or nil.
func (n *Node) Get(key string) *Node {
	if n == nil {
		return nil
	}
	for _, c := range n.Children {
		if c.Key == key {
			return c
		}
	}
	return nil
}

// Lookup resolves a dotted path such as "server.listen.0". Numeric segments
// index arrays; everything else matches object keys.
func (n *Node) Lookup(path string) (*Node, error) {
	cur := n
	if path == "" {
		return cur, nil
	}
	for _, seg := range strings.Split(path, ".") {
		if cur == nil || !cur.IsContainer() {
			return nil, fmt.Errorf("path %q: %q is not a container", path, seg)
		}
		if cur.Kind == KindArray {
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 || i >= len(cur.Children) {
				return nil, fmt.Errorf("path %q: no index %q", path, seg)
			}
			cur = cur.Children[i]
			continue
		}
		next := cur.Get(seg)
		if next == nil {
			return nil, fmt.Errorf("path %q: no key %q", path, seg)
		}
		cur = next
	}
	return cur, nil
}

// Walk visits n and its descendants depth first, parents before children.
// Returning false from fn skips the node's children.
func (n *Node) Walk(fn func(depth int, n *Node) bool) {
	n.walk(0, fn)
}

func (n *Node) walk(depth int, fn func(int, *Node) bool) {
	if n == nil || !fn(depth, n) {
		return
	}
	for _, c := range n.Children {
		c.walk(depth+1, fn)
	}
}

// Count returns the number of nodes in the tree rooted at n.
func (n *Node) Count() int {
	total := 0
	n.Walk(func(int, *Node) bool {
		total++
		return true
	})
	return total
}

// ValueString formats a scalar value for display. Containers render as their
// child count.
func (n *Node) ValueString() string {
	switch n.Kind {
	case KindInt:
		return strconv.FormatInt(n.Int, 10)
	case KindBool:
		return strconv.FormatBool(n.Bool)
	case KindString:
		return strconv.Quote(n.Str)
	case KindIPPort:
		return strconv.FormatInt(int64(n.IPPort), 10)
	case KindFloat:
		return strconv.FormatFloat(float64(n.Float), 'g', -1, 32)
	case KindArray:
		return fmt.Sprintf("[%d]", len(n.Children))
	case KindObject:
		return fmt.Sprintf("{%d}", len(n.Children))
	}
	return n.Kind.String()
}
