// Package cmd implements the nereon subcommands.
package cmd

import (
	"fmt"

	"grimm.is/nereon/internal/brand"
	"grimm.is/nereon/internal/i18n"
	"grimm.is/nereon/internal/nereon"
	"grimm.is/nereon/internal/tree"
)

// Printer is the global message printer for the CLI
var Printer = i18n.NewCLIPrinter()

// Source names the files to decode and the backend that decodes them.
type Source struct {
	Config  string
	Meta    string
	Backend string
}

// DefaultSource returns the brand's configuration file and, if present, its
// metadata file.
func DefaultSource() Source {
	return Source{
		Config: brand.DefaultConfigPath(),
		Meta:   brand.DefaultMetaPath(),
	}
}

// Library resolves the backend.
func (s Source) Library() (nereon.Library, error) {
	return nereon.LibraryByName(s.Backend)
}

// Decode runs one full open, decode and close cycle.
func (s Source) Decode() (*tree.Node, error) {
	lib, err := s.Library()
	if err != nil {
		return nil, err
	}
	return s.decodeWith(lib)
}

func (s Source) decodeWith(lib nereon.Library) (*tree.Node, error) {
	root, err := nereon.Decode(lib, s.Config, s.Meta)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.Config, err)
	}
	return root, nil
}
