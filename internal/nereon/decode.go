package nereon

import (
	"fmt"
	"iter"
	"unsafe"

	"grimm.is/nereon/internal/cabi"
	"grimm.is/nereon/internal/tree"
)

// decodeRoot decodes the tree hanging off ctx.cfg. libnereon always returns a
// defunct wrapper record there; the configuration root is its first child.
// A nil cfg or a wrapper without children means no configuration was loaded.
func decodeRoot(cfg unsafe.Pointer) (*tree.Node, error) {
	if cfg == nil {
		return nil, nil
	}
	wrapper := (*cabi.Record)(cfg)
	root := wrapper.FirstChild()
	if root == nil {
		return nil, nil
	}
	return decodeNode(root)
}

// decodeNode copies one record and its descendants. Every tag gets exactly one
// payload reading; anything outside the published enum aborts the decode.
func decodeNode(rec *cabi.Record) (*tree.Node, error) {
	key, err := cabi.CString(rec.Key[:])
	if err != nil {
		return nil, fmt.Errorf("%w: record key: %w", ErrInvalidText, err)
	}

	switch rec.Type {
	case cabi.TagInt:
		return tree.Int(key, rec.Data.Int64()), nil

	case cabi.TagBool:
		return tree.Bool(key, rec.Data.Bool()), nil

	case cabi.TagString:
		s, err := cabi.GoString(rec.Data.Pointer())
		if err != nil {
			return nil, fmt.Errorf("%w: value of %q: %w", ErrInvalidText, key, err)
		}
		return tree.String(key, s), nil

	case cabi.TagArray:
		items, err := decodeChildren(rec)
		if err != nil {
			return nil, err
		}
		return tree.Array(key, items...), nil

	case cabi.TagIPPort:
		return tree.IPPort(key, rec.Data.Int32()), nil

	case cabi.TagFloat:
		return tree.Float(key, rec.Data.Float32()), nil

	case cabi.TagObject:
		fields, err := decodeChildren(rec)
		if err != nil {
			return nil, err
		}
		return tree.Object(key, fields...), nil

	default:
		return nil, &UnknownTagError{Tag: rec.Type, Key: key}
	}
}

// decodeChildren decodes rec's child list in sibling order.
func decodeChildren(rec *cabi.Record) ([]*tree.Node, error) {
	var nodes []*tree.Node
	for child := range siblings(rec.FirstChild()) {
		n, err := decodeNode(child)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

// siblings yields first and each record reachable through Next, stopping at
// nil. The sequence reads foreign memory, so it must be consumed while the
// owning context is open.
func siblings(first *cabi.Record) iter.Seq[*cabi.Record] {
	return func(yield func(*cabi.Record) bool) {
		for rec := first; rec != nil; rec = rec.NextRecord() {
			if !yield(rec) {
				return
			}
		}
	}
}
