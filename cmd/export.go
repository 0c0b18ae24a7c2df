package cmd

import (
	"fmt"
	"io"

	"grimm.is/nereon/internal/tree"
)

// Export formats.
const (
	FormatHCL  = "hcl"
	FormatYAML = "yaml"
	FormatJSON = "json"
)

// Render encodes root in the named format.
func Render(root *tree.Node, format string) ([]byte, error) {
	switch format {
	case FormatHCL:
		return tree.RenderHCL(root)
	case FormatYAML:
		return tree.RenderYAML(root)
	case FormatJSON:
		return tree.RenderJSON(root)
	}
	return nil, fmt.Errorf("unknown format %q (want hcl, yaml or json)", format)
}

// RunExport decodes src and writes it in format.
func RunExport(w io.Writer, src Source, format string) error {
	root, err := src.Decode()
	if err != nil {
		return err
	}
	out, err := Render(root, format)
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}
	_, err = w.Write(out)
	return err
}
