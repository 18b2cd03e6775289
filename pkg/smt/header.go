package smt

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnsupportedHeader is returned when a formula header does not have the
// DECLS, (assert ...) shape produced by the CFG toolchain.
var ErrUnsupportedHeader = errors.New("unsupported formula header")

// LoadHeader loads a toolchain formula into the environment. The header is a
// list of declare-fun lines followed by exactly one assert command. Comment
// lines (// or ;) and blank lines among the declarations are skipped; blank
// lines inside the assertion are dropped.
func (e *Environment) LoadHeader(text string) error {
	parts := strings.Split(text, "(assert")
	if len(parts) != 2 {
		return fmt.Errorf("%w: expected exactly one assert, found %d", ErrUnsupportedHeader, len(parts)-1)
	}

	for _, d := range strings.Split(strings.TrimSpace(parts[0]), "\n") {
		line := strings.TrimSpace(d)
		switch {
		case line == "", strings.HasPrefix(line, "//"), strings.HasPrefix(line, ";"):
			continue
		case strings.Contains(line, "declare-fun"):
			e.AddDeclaration(line)
		default:
			return fmt.Errorf("%w: unsupported declaration %q", ErrUnsupportedHeader, line)
		}
	}

	var lines []string
	for _, l := range strings.Split("(assert"+parts[1], "\n") {
		if strings.TrimSpace(l) != "" {
			lines = append(lines, l)
		}
	}
	e.AssertRaw(strings.Join(lines, "\n"))
	return nil
}
