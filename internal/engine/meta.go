package engine

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/zclconf/go-cty/cty"

	"grimm.is/nereon/internal/cabi"
)

type metaFile struct {
	Options []metaOption `hcl:"option,block"`
}

type metaOption struct {
	Name        string         `hcl:"name,label"`
	Type        string         `hcl:"type"`
	Helper      bool           `hcl:"helper,optional"`
	SwitchShort string         `hcl:"switch_short,optional"`
	SwitchLong  string         `hcl:"switch_long,optional"`
	DescShort   string         `hcl:"desc_short,optional"`
	DescLong    string         `hcl:"desc_long,optional"`
	Env         string         `hcl:"env,optional"`
	ConfigKey   string         `hcl:"config_key,optional"`
	Default     hcl.Expression `hcl:"default,optional"`
}

var metaTypes = map[string]cabi.Tag{
	"int":    cabi.TagInt,
	"bool":   cabi.TagBool,
	"string": cabi.TagString,
	"array":  cabi.TagArray,
	"ipport": cabi.TagIPPort,
	"float":  cabi.TagFloat,
	"object": cabi.TagObject,
}

// loadMeta parses an option metadata file into a contiguous record array.
func (e *Engine) loadMeta(a *arena, path string) ([]cabi.Meta, error) {
	file, err := parseFile(path)
	if err != nil {
		return nil, err
	}

	var mf metaFile
	ectx := e.evalContext()
	if diags := gohcl.DecodeBody(file.Body, ectx, &mf); diags.HasErrors() {
		return nil, fmt.Errorf("decode error: %s", diags.Error())
	}
	if len(mf.Options) == 0 {
		return nil, nil
	}

	metas := a.metaArray(len(mf.Options))
	for i, opt := range mf.Options {
		if err := fillMeta(a, &metas[i], opt, ectx); err != nil {
			return nil, fmt.Errorf("option %q: %w", opt.Name, err)
		}
	}
	return metas, nil
}

func fillMeta(a *arena, m *cabi.Meta, opt metaOption, ectx *hcl.EvalContext) error {
	tag, ok := metaTypes[strings.ToLower(opt.Type)]
	if !ok {
		return fmt.Errorf("unknown type %q", opt.Type)
	}
	m.Type = tag
	m.Helper = opt.Helper

	fields := []struct {
		dst  []byte
		val  string
		name string
	}{
		{m.Name[:], opt.Name, "name"},
		{m.SwShort[:], opt.SwitchShort, "switch_short"},
		{m.SwLong[:], opt.SwitchLong, "switch_long"},
		{m.DescShort[:], opt.DescShort, "desc_short"},
		{m.DescLong[:], opt.DescLong, "desc_long"},
		{m.Env[:], opt.Env, "env"},
		{m.Key[:], opt.ConfigKey, "config_key"},
	}
	for _, f := range fields {
		if err := cabi.PutCString(f.dst, f.val); err != nil {
			return fmt.Errorf("%s: %w", f.name, err)
		}
	}

	if opt.Default == nil {
		return nil
	}
	v, diags := opt.Default.Value(ectx)
	if diags.HasErrors() {
		return fmt.Errorf("default: %s", diags.Error())
	}
	if v.IsNull() {
		return nil
	}
	return putDefault(a, &m.Data, tag, v)
}

// putDefault stores a scalar default in the payload the way the record of the
// same tag would carry it. Containers have no default.
func putDefault(a *arena, p *cabi.Payload, tag cabi.Tag, v cty.Value) error {
	switch tag {
	case cabi.TagString:
		if !v.Type().Equals(cty.String) {
			return fmt.Errorf("default: want string, got %s", v.Type().FriendlyName())
		}
		ptr, err := a.cstring(v.AsString())
		if err != nil {
			return fmt.Errorf("default: %w", err)
		}
		p.PutPointer(ptr)
	case cabi.TagBool:
		if !v.Type().Equals(cty.Bool) {
			return fmt.Errorf("default: want bool, got %s", v.Type().FriendlyName())
		}
		p.PutBool(v.True())
	case cabi.TagInt, cabi.TagIPPort, cabi.TagFloat:
		if !v.Type().Equals(cty.Number) {
			return fmt.Errorf("default: want number, got %s", v.Type().FriendlyName())
		}
		bf := v.AsBigFloat()
		switch tag {
		case cabi.TagFloat:
			f, err := float32Of(bf)
			if err != nil {
				return fmt.Errorf("default: %w", err)
			}
			p.PutFloat32(f)
		default:
			i, acc := bf.Int64()
			if acc != big.Exact {
				return fmt.Errorf("default: %s is not an integer", bf.Text('g', -1))
			}
			if tag == cabi.TagIPPort {
				if i < 0 || i > 65535 {
					return fmt.Errorf("default: port %d out of range", i)
				}
				p.PutInt32(int32(i))
			} else {
				p.PutInt64(i)
			}
		}
	default:
		return fmt.Errorf("default not supported for %s options", tagName(tag))
	}
	return nil
}

func tagName(tag cabi.Tag) string {
	for name, t := range metaTypes {
		if t == tag {
			return name
		}
	}
	return fmt.Sprintf("type %d", tag)
}
