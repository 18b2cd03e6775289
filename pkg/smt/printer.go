package smt

import (
	"strconv"
	"strings"
)

// Printer renders terms as text.
type Printer interface {
	Print(t Term) string
}

// DefaultPrinter prints SMT-LIB2 syntax.
var DefaultPrinter Printer = SMTLIB2Printer{}

// SMTLIB2Printer prints terms in SMT-LIB2 prefix syntax.
// Empty conjunctions print as true, empty disjunctions as false and empty
// sums as 0.
type SMTLIB2Printer struct{}

// Print implements Printer.
func (p SMTLIB2Printer) Print(t Term) string {
	var sb strings.Builder
	p.write(&sb, t)
	return sb.String()
}

func (p SMTLIB2Printer) write(sb *strings.Builder, t Term) {
	switch t.Kind {
	case KindVar, KindRaw:
		sb.WriteString(t.Name)
	case KindInt:
		if t.Value < 0 {
			sb.WriteString("(- ")
			sb.WriteString(strconv.FormatUint(uint64(-(t.Value+1))+1, 10))
			sb.WriteString(")")
			return
		}
		sb.WriteString(strconv.FormatInt(t.Value, 10))
	case KindAnd, KindOr, KindPlus:
		if len(t.Args) == 0 {
			sb.WriteString(emptyNary(t.Kind))
			return
		}
		p.apply(sb, t.Kind.String(), t.Args)
	default:
		p.apply(sb, t.Kind.String(), t.Args)
	}
}

func (p SMTLIB2Printer) apply(sb *strings.Builder, op string, args []Term) {
	sb.WriteString("(")
	sb.WriteString(op)
	for _, a := range args {
		sb.WriteString(" ")
		p.write(sb, a)
	}
	sb.WriteString(")")
}

func emptyNary(k Kind) string {
	switch k {
	case KindAnd:
		return "true"
	case KindOr:
		return "false"
	default:
		return "0"
	}
}
