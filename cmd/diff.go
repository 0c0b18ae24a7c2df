package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/pmezard/go-difflib/difflib"

	"grimm.is/nereon/internal/i18n"
	"grimm.is/nereon/internal/tree"
)

// ErrTreesDiffer is returned by RunDiff when the two trees are not equal.
var ErrTreesDiffer = errors.New("configuration trees differ")

// RunDiff decodes two configurations with the same backend and prints a
// unified diff of their YAML renderings.
func RunDiff(w io.Writer, a, b Source) error {
	left, err := a.Decode()
	if err != nil {
		return err
	}
	right, err := b.Decode()
	if err != nil {
		return err
	}

	if left.Equal(right) {
		Printer.Fprintln(w, Printer.Sprintf(i18n.MsgIdentical))
		return nil
	}

	text, err := unifiedDiff(left, right, a.Config, b.Config)
	if err != nil {
		return err
	}
	fmt.Fprint(w, text)
	return ErrTreesDiffer
}

func unifiedDiff(left, right *tree.Node, fromFile, toFile string) (string, error) {
	l, err := tree.RenderYAML(left)
	if err != nil {
		return "", err
	}
	r, err := tree.RenderYAML(right)
	if err != nil {
		return "", err
	}
	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(l)),
		B:        difflib.SplitLines(string(r)),
		FromFile: fromFile,
		ToFile:   toFile,
		Context:  3,
	}
	return difflib.GetUnifiedDiffString(diff)
}
