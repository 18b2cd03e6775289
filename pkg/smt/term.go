// Package smt builds SMT-LIB2 optimization problems.
// Terms are a small tagged AST; printing is done by a separate Printer so the
// encoders can be tested on structure as well as on text.
package smt

// Sort is the SMT-LIB sort of a declared function.
type Sort string

const (
	SortInt  Sort = "Int"
	SortReal Sort = "Real"
	SortBool Sort = "Bool"
)

// Kind tags the node type of a Term.
type Kind int

const (
	KindVar Kind = iota
	KindInt
	KindRaw
	KindNot
	KindAnd
	KindOr
	KindPlus
	KindTimes
	KindNeg
	KindDiff
	KindLeq
	KindEqual
	KindIte
	KindImply
)

var kindNames = [...]string{
	KindVar:   "var",
	KindInt:   "int",
	KindRaw:   "raw",
	KindNot:   "not",
	KindAnd:   "and",
	KindOr:    "or",
	KindPlus:  "+",
	KindTimes: "*",
	KindNeg:   "-",
	KindDiff:  "-",
	KindLeq:   "<=",
	KindEqual: "=",
	KindIte:   "ite",
	KindImply: "=>",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Term is a symbolic SMT term.
// Name holds the identifier of a Var or the verbatim text of a Raw term,
// Value holds the literal of an Int term, Args the operands of everything else.
type Term struct {
	Kind  Kind
	Name  string
	Value int64
	Args  []Term
}

// Var references a declared constant.
func Var(name string) Term {
	return Term{Kind: KindVar, Name: name}
}

// Int is an integer literal.
func Int(v int64) Term {
	return Term{Kind: KindInt, Value: v}
}

// Raw wraps already formatted SMT-LIB text. Raw terms are printed verbatim
// and cannot be evaluated.
func Raw(text string) Term {
	return Term{Kind: KindRaw, Name: text}
}

// Not negates t.
func Not(t Term) Term {
	return Term{Kind: KindNot, Args: []Term{t}}
}

// And is the conjunction of terms. A single operand is returned unchanged.
func And(terms ...Term) Term {
	return nary(KindAnd, terms)
}

// Or is the disjunction of terms. A single operand is returned unchanged.
func Or(terms ...Term) Term {
	return nary(KindOr, terms)
}

// Plus is the arithmetic sum of terms. A single operand is returned unchanged.
func Plus(terms ...Term) Term {
	return nary(KindPlus, terms)
}

func nary(kind Kind, terms []Term) Term {
	if len(terms) == 1 {
		return terms[0]
	}
	args := make([]Term, len(terms))
	copy(args, terms)
	return Term{Kind: kind, Args: args}
}

// Times multiplies two terms.
func Times(a, b Term) Term {
	return Term{Kind: KindTimes, Args: []Term{a, b}}
}

// Neg is the unary minus of t.
func Neg(t Term) Term {
	return Term{Kind: KindNeg, Args: []Term{t}}
}

// Diff is a - b.
func Diff(a, b Term) Term {
	return Term{Kind: KindDiff, Args: []Term{a, b}}
}

// Leq is a <= b.
func Leq(a, b Term) Term {
	return Term{Kind: KindLeq, Args: []Term{a, b}}
}

// Lt is a < b, expressed as not (b <= a).
func Lt(a, b Term) Term {
	return Not(Leq(b, a))
}

// Equal is a = b.
func Equal(a, b Term) Term {
	return Term{Kind: KindEqual, Args: []Term{a, b}}
}

// Ite is if c then a else b.
func Ite(c, a, b Term) Term {
	return Term{Kind: KindIte, Args: []Term{c, a, b}}
}

// Imply is a => b.
func Imply(a, b Term) Term {
	return Term{Kind: KindImply, Args: []Term{a, b}}
}

// Iff is a <=> b, expressed as two implications.
func Iff(a, b Term) Term {
	return And(Imply(a, b), Imply(b, a))
}

// String renders the term with the default SMT-LIB2 printer.
func (t Term) String() string {
	return DefaultPrinter.Print(t)
}
