package cmd

import (
	"fmt"
	"io"

	"grimm.is/nereon/internal/brand"
	"grimm.is/nereon/internal/i18n"
	"grimm.is/nereon/internal/nereon"
	"grimm.is/nereon/internal/tree"
)

// RunCheck opens src, decodes it and reports node and metadata counts.
func RunCheck(w io.Writer, src Source) error {
	if src.Config == "" && src.Meta == "" {
		return fmt.Errorf("usage: %s check [-meta file] <config-file>", brand.BinaryName)
	}
	lib, err := src.Library()
	if err != nil {
		return err
	}

	var (
		root  *tree.Node
		metas int
	)
	err = nereon.WithSession(lib, src.Config, src.Meta, func(s *nereon.Session) error {
		if metas, err = s.MetaCount(); err != nil {
			return err
		}
		root, err = s.Decode()
		return err
	})
	if err != nil {
		return fmt.Errorf("configuration invalid: %w", err)
	}

	nodes := 0
	if root != nil {
		nodes = root.Count()
	}
	Printer.Fprintln(w, Printer.Sprintf(i18n.MsgValid, src.Config, nodes))
	if src.Meta != "" {
		Printer.Fprintln(w, Printer.Sprintf(i18n.MsgMetadata, metas))
	}
	return nil
}
