package tree

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/zclconf/go-cty/cty"
	"gopkg.in/yaml.v2"
)

// ToCty converts n's value to a cty value. Objects become cty objects, so a
// key may appear only once per object.
func ToCty(n *Node) (cty.Value, error) {
	switch n.Kind {
	case KindInt:
		return cty.NumberIntVal(n.Int), nil
	case KindBool:
		return cty.BoolVal(n.Bool), nil
	case KindString:
		return cty.StringVal(n.Str), nil
	case KindIPPort:
		return cty.NumberIntVal(int64(n.IPPort)), nil
	case KindFloat:
		f := float64(n.Float)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return cty.NilVal, fmt.Errorf("%s: %v has no cty representation", n.Key, n.Float)
		}
		return cty.NumberFloatVal(shortFloat(n.Float)), nil
	case KindArray:
		if len(n.Children) == 0 {
			return cty.EmptyTupleVal, nil
		}
		vals := make([]cty.Value, 0, len(n.Children))
		for _, c := range n.Children {
			v, err := ToCty(c)
			if err != nil {
				return cty.NilVal, err
			}
			vals = append(vals, v)
		}
		return cty.TupleVal(vals), nil
	case KindObject:
		if len(n.Children) == 0 {
			return cty.EmptyObjectVal, nil
		}
		attrs := make(map[string]cty.Value, len(n.Children))
		for _, c := range n.Children {
			if _, dup := attrs[c.Key]; dup {
				return cty.NilVal, fmt.Errorf("object %q: duplicate key %q", n.Key, c.Key)
			}
			v, err := ToCty(c)
			if err != nil {
				return cty.NilVal, err
			}
			attrs[c.Key] = v
		}
		return cty.ObjectVal(attrs), nil
	}
	return cty.NilVal, fmt.Errorf("node %q: unsupported kind %s", n.Key, n.Kind)
}

// RenderHCL writes an object tree back out as HCL. Object children become
// blocks, everything else an attribute.
func RenderHCL(root *Node) ([]byte, error) {
	if root == nil {
		return nil, nil
	}
	if root.Kind != KindObject {
		return nil, fmt.Errorf("root must be an object, got %s", root.Kind)
	}
	f := hclwrite.NewEmptyFile()
	if err := writeBody(f.Body(), root.Children); err != nil {
		return nil, err
	}
	return hclwrite.Format(f.Bytes()), nil
}

func writeBody(body *hclwrite.Body, children []*Node) error {
	for i, c := range children {
		if !hclsyntax.ValidIdentifier(c.Key) {
			return fmt.Errorf("key %q is not a valid HCL identifier", c.Key)
		}
		if c.Kind == KindObject {
			if i > 0 {
				body.AppendNewline()
			}
			block := body.AppendNewBlock(c.Key, nil)
			if err := writeBody(block.Body(), c.Children); err != nil {
				return fmt.Errorf("%s: %w", c.Key, err)
			}
			continue
		}
		if body.GetAttribute(c.Key) != nil {
			return fmt.Errorf("duplicate attribute %q", c.Key)
		}
		v, err := ToCty(c)
		if err != nil {
			return err
		}
		body.SetAttributeValue(c.Key, v)
	}
	return nil
}

// RenderYAML writes the tree as YAML, keeping object key order.
func RenderYAML(root *Node) ([]byte, error) {
	if root == nil {
		return []byte("null\n"), nil
	}
	return yaml.Marshal(toYAML(root))
}

func toYAML(n *Node) interface{} {
	switch n.Kind {
	case KindInt:
		return n.Int
	case KindBool:
		return n.Bool
	case KindString:
		return n.Str
	case KindIPPort:
		return n.IPPort
	case KindFloat:
		return shortFloat(n.Float)
	case KindArray:
		items := make([]interface{}, 0, len(n.Children))
		for _, c := range n.Children {
			items = append(items, toYAML(c))
		}
		return items
	}
	m := make(yaml.MapSlice, 0, len(n.Children))
	for _, c := range n.Children {
		m = append(m, yaml.MapItem{Key: c.Key, Value: toYAML(c)})
	}
	return m
}

// RenderJSON writes the tree as indented JSON, keeping object key order.
func RenderJSON(root *Node) ([]byte, error) {
	if root == nil {
		return []byte("null\n"), nil
	}
	var buf bytes.Buffer
	if err := writeJSON(&buf, root); err != nil {
		return nil, err
	}
	var out bytes.Buffer
	if err := json.Indent(&out, buf.Bytes(), "", "  "); err != nil {
		return nil, err
	}
	out.WriteByte('\n')
	return out.Bytes(), nil
}

func writeJSON(buf *bytes.Buffer, n *Node) error {
	var scalar interface{}
	switch n.Kind {
	case KindInt:
		scalar = n.Int
	case KindBool:
		scalar = n.Bool
	case KindString:
		scalar = n.Str
	case KindIPPort:
		scalar = n.IPPort
	case KindFloat:
		scalar = n.Float
	case KindArray, KindObject:
		open, closing := byte('['), byte(']')
		if n.Kind == KindObject {
			open, closing = '{', '}'
		}
		buf.WriteByte(open)
		for i, c := range n.Children {
			if i > 0 {
				buf.WriteByte(',')
			}
			if n.Kind == KindObject {
				k, _ := json.Marshal(c.Key)
				buf.Write(k)
				buf.WriteByte(':')
			}
			if err := writeJSON(buf, c); err != nil {
				return err
			}
		}
		buf.WriteByte(closing)
		return nil
	default:
		return fmt.Errorf("node %q: unsupported kind %s", n.Key, n.Kind)
	}
	b, err := json.Marshal(scalar)
	if err != nil {
		return fmt.Errorf("node %q: %w", n.Key, err)
	}
	buf.Write(b)
	return nil
}

// shortFloat widens f to float64 without exposing float32 rounding noise,
// so 0.1 stays 0.1 rather than 0.10000000149011612.
func shortFloat(f float32) float64 {
	v, err := strconv.ParseFloat(strconv.FormatFloat(float64(f), 'g', -1, 32), 64)
	if err != nil {
		return float64(f)
	}
	return v
}
