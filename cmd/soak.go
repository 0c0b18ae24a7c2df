package cmd

import (
	"errors"
	"fmt"
	"io"

	"grimm.is/nereon/internal/engine"
	"grimm.is/nereon/internal/i18n"
	"grimm.is/nereon/internal/metrics"
)

// ErrLeak is returned by RunSoak when contexts outlive their sessions.
var ErrLeak = errors.New("contexts leaked")

// RunSoak runs n open, decode and close cycles against src and checks that
// every context was released and every decode produced the same tree.
func RunSoak(w io.Writer, src Source, n int) error {
	if n <= 0 {
		return fmt.Errorf("cycle count must be positive, got %d", n)
	}
	lib, err := src.Library()
	if err != nil {
		return err
	}

	reg := metrics.Get()
	before := reg.OpenSessions()

	first, err := src.decodeWith(lib)
	if err != nil {
		return err
	}
	for i := 1; i < n; i++ {
		root, err := src.decodeWith(lib)
		if err != nil {
			return fmt.Errorf("cycle %d: %w", i, err)
		}
		if !first.Equal(root) {
			return fmt.Errorf("cycle %d: tree differs from first decode", i)
		}
	}

	leaked := int(reg.OpenSessions() - before)
	if e, ok := lib.(*engine.Engine); ok {
		leaked += e.Stats().Contexts
	}

	nodes := 0
	if first != nil {
		nodes = first.Count()
	}
	Printer.Fprintln(w, Printer.Sprintf(i18n.MsgSoakResult, n, nodes, leaked))
	if leaked != 0 {
		return ErrLeak
	}
	return nil
}
