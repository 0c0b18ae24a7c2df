package engine

import (
	"fmt"
	"math"
	"math/big"
	"sort"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"

	"grimm.is/nereon/internal/cabi"
)

// builder turns an HCL body into linked records inside one arena.
type builder struct {
	arena *arena
	eval  *hcl.EvalContext
}

func (b *builder) body(parent *cabi.Record, body hcl.Body) error {
	if sb, ok := body.(*hclsyntax.Body); ok {
		return b.syntaxBody(parent, sb)
	}

	// JSON bodies have no block structure of their own; every top-level
	// property is an attribute.
	attrs, diags := body.JustAttributes()
	if diags.HasErrors() {
		return fmt.Errorf("decode error: %s", diags.Error())
	}
	list := make([]*hcl.Attribute, 0, len(attrs))
	for _, a := range attrs {
		list = append(list, a)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].Range.Start.Byte < list[j].Range.Start.Byte
	})
	for _, a := range list {
		if err := b.attribute(parent, a.Name, a.Expr); err != nil {
			return err
		}
	}
	return nil
}

// syntaxBody emits attributes and blocks in source order.
func (b *builder) syntaxBody(parent *cabi.Record, body *hclsyntax.Body) error {
	type item struct {
		pos   int
		attr  *hclsyntax.Attribute
		block *hclsyntax.Block
	}
	items := make([]item, 0, len(body.Attributes)+len(body.Blocks))
	for _, a := range body.Attributes {
		items = append(items, item{pos: a.SrcRange.Start.Byte, attr: a})
	}
	for _, blk := range body.Blocks {
		items = append(items, item{pos: blk.TypeRange.Start.Byte, block: blk})
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].pos < items[j].pos })

	for _, it := range items {
		if it.attr != nil {
			if err := b.attribute(parent, it.attr.Name, it.attr.Expr); err != nil {
				return err
			}
			continue
		}
		obj, err := b.object(parent, it.block.Type)
		if err != nil {
			return err
		}
		for _, label := range it.block.Labels {
			if obj, err = b.object(obj, label); err != nil {
				return err
			}
		}
		if err := b.syntaxBody(obj, it.block.Body); err != nil {
			return fmt.Errorf("%s: %w", it.block.Type, err)
		}
	}
	return nil
}

func (b *builder) attribute(parent *cabi.Record, name string, expr hcl.Expression) error {
	rec, err := b.expr(name, expr)
	if err != nil {
		return err
	}
	appendChildren(parent, rec)
	return nil
}

// expr lays out an expression. Object and tuple constructors are walked item
// by item so that keys keep their source order; cty objects iterate sorted.
func (b *builder) expr(key string, expr hcl.Expression) (*cabi.Record, error) {
	switch e := expr.(type) {
	case *hclsyntax.ObjectConsExpr:
		rec, err := b.arena.record(key, cabi.TagObject)
		if err != nil {
			return nil, err
		}
		seen := make(map[string]bool, len(e.Items))
		for _, item := range e.Items {
			k, err := b.objectKey(item.KeyExpr)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", key, err)
			}
			if seen[k] {
				return nil, fmt.Errorf("%s: duplicate key %q", key, k)
			}
			seen[k] = true
			child, err := b.expr(k, item.ValueExpr)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", key, err)
			}
			appendChildren(rec, child)
		}
		return rec, nil

	case *hclsyntax.TupleConsExpr:
		rec, err := b.arena.record(key, cabi.TagArray)
		if err != nil {
			return nil, err
		}
		for _, ex := range e.Exprs {
			child, err := b.expr("", ex)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", key, err)
			}
			appendChildren(rec, child)
		}
		return rec, nil
	}

	v, diags := expr.Value(b.eval)
	if diags.HasErrors() {
		return nil, fmt.Errorf("%s: %s", key, diags.Error())
	}
	return b.value(key, v)
}

func (b *builder) objectKey(expr hcl.Expression) (string, error) {
	v, diags := expr.Value(b.eval)
	if diags.HasErrors() {
		return "", fmt.Errorf("object key: %s", diags.Error())
	}
	if v.IsNull() || !v.IsKnown() {
		return "", fmt.Errorf("object key is null or unknown")
	}
	v, err := convert.Convert(v, cty.String)
	if err != nil {
		return "", fmt.Errorf("object key: %w", err)
	}
	return v.AsString(), nil
}

// object returns parent's object child named key, creating it if needed.
func (b *builder) object(parent *cabi.Record, key string) (*cabi.Record, error) {
	for c := parent.FirstChild(); c != nil; c = c.NextRecord() {
		if c.Type != cabi.TagObject {
			continue
		}
		if k, err := cabi.CString(c.Key[:]); err == nil && k == key {
			return c, nil
		}
	}
	rec, err := b.arena.record(key, cabi.TagObject)
	if err != nil {
		return nil, err
	}
	appendChildren(parent, rec)
	return rec, nil
}

// value lays out one cty value, recursing into collections.
func (b *builder) value(key string, v cty.Value) (*cabi.Record, error) {
	if v.IsNull() {
		return nil, fmt.Errorf("%s: null value", key)
	}
	if !v.IsWhollyKnown() {
		return nil, fmt.Errorf("%s: value is not known", key)
	}
	v, _ = v.Unmark()
	ty := v.Type()

	switch {
	case ty.Equals(cty.String):
		return b.arena.stringRecord(key, v.AsString())

	case ty.Equals(cty.Bool):
		rec, err := b.arena.record(key, cabi.TagBool)
		if err != nil {
			return nil, err
		}
		rec.Data.PutBool(v.True())
		return rec, nil

	case ty.Equals(cty.Number):
		bf := v.AsBigFloat()
		if bf.IsInt() {
			if i, acc := bf.Int64(); acc == big.Exact {
				rec, err := b.arena.record(key, cabi.TagInt)
				if err != nil {
					return nil, err
				}
				rec.Data.PutInt64(i)
				return rec, nil
			}
		}
		f, err := float32Of(bf)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		rec, err := b.arena.record(key, cabi.TagFloat)
		if err != nil {
			return nil, err
		}
		rec.Data.PutFloat32(f)
		return rec, nil

	case ty.IsTupleType() || ty.IsListType() || ty.IsSetType():
		rec, err := b.arena.record(key, cabi.TagArray)
		if err != nil {
			return nil, err
		}
		for it := v.ElementIterator(); it.Next(); {
			_, ev := it.Element()
			child, err := b.value("", ev)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", key, err)
			}
			appendChildren(rec, child)
		}
		return rec, nil

	case ty.IsObjectType() || ty.IsMapType():
		rec, err := b.arena.record(key, cabi.TagObject)
		if err != nil {
			return nil, err
		}
		for it := v.ElementIterator(); it.Next(); {
			k, ev := it.Element()
			child, err := b.value(k.AsString(), ev)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", key, err)
			}
			appendChildren(rec, child)
		}
		return rec, nil
	}

	return nil, fmt.Errorf("%s: unsupported type %s", key, ty.FriendlyName())
}

// float32Of narrows a number to the float payload, rejecting values outside
// the float32 range.
func float32Of(bf *big.Float) (float32, error) {
	f, _ := bf.Float32()
	if math.IsInf(float64(f), 0) {
		return 0, fmt.Errorf("number %s overflows float32", bf.Text('g', 10))
	}
	return f, nil
}

// evalContext exposes the environment as the env object.
func (e *Engine) evalContext() *hcl.EvalContext {
	vars := make(map[string]cty.Value)
	for _, kv := range e.environ() {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || !hclsyntax.ValidIdentifier(k) {
			continue
		}
		vars[k] = cty.StringVal(v)
	}
	env := cty.EmptyObjectVal
	if len(vars) > 0 {
		env = cty.ObjectVal(vars)
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{"env": env},
	}
}
