package smt

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Environment accumulates an SMT-LIB2 optimization problem and prints it.
// Declarations and hard assertions are deduplicated on their exact text;
// everything is printed in insertion order.
// Incremental solving is not supported and no text is checked for
// well-formedness.
type Environment struct {
	printer Printer
	counter int

	options        []option
	declarations   []string
	declared       map[string]struct{}
	assertions     []string
	asserted       map[string]struct{}
	terms          []Term
	softAssertions []string
	objectives     []string
	comments       []string
}

type option struct {
	name  string
	value string
}

// EnvOption configures an Environment.
type EnvOption func(*Environment)

// WithPrinter replaces the SMT-LIB2 printer.
func WithPrinter(p Printer) EnvOption {
	return func(e *Environment) {
		e.printer = p
	}
}

// NewEnvironment creates an empty environment.
func NewEnvironment(opts ...EnvOption) *Environment {
	e := &Environment{printer: DefaultPrinter}
	for _, opt := range opts {
		opt(e)
	}
	e.Reset()
	return e
}

// Reset clears the environment, including the fresh-name counter.
func (e *Environment) Reset() {
	e.counter = 0
	e.options = nil
	e.declarations = nil
	e.declared = make(map[string]struct{})
	e.assertions = nil
	e.asserted = make(map[string]struct{})
	e.terms = nil
	e.softAssertions = nil
	e.objectives = nil
	e.comments = nil
}

// SetOption sets a solver option. Values are printed lower-cased; setting an
// option twice keeps its first position and the last value.
func (e *Environment) SetOption(name string, value any) {
	v := strings.ToLower(fmt.Sprint(value))
	for i := range e.options {
		if e.options[i].name == name {
			e.options[i].value = v
			return
		}
	}
	e.options = append(e.options, option{name: name, value: v})
}

// Option returns the printed value of an option.
func (e *Environment) Option(name string) (string, bool) {
	for _, o := range e.options {
		if o.name == name {
			return o.value, true
		}
	}
	return "", false
}

// DeclareFun declares a nullary function and returns a reference to it.
func (e *Environment) DeclareFun(name string, sort Sort) Term {
	e.AddDeclaration("(declare-fun " + name + " () " + string(sort) + ")")
	return Var(name)
}

// DeclarePrivateFun declares a function with a fresh internal name.
func (e *Environment) DeclarePrivateFun(sort Sort) Term {
	name := "var_" + strconv.Itoa(e.counter)
	e.counter++
	return e.DeclareFun(name, sort)
}

// AddDeclaration adds a preformatted declaration.
func (e *Environment) AddDeclaration(decl string) {
	if _, ok := e.declared[decl]; ok {
		return
	}
	e.declared[decl] = struct{}{}
	e.declarations = append(e.declarations, decl)
}

// Assert adds a hard assertion.
func (e *Environment) Assert(terms ...Term) {
	for _, t := range terms {
		if e.addAssertion("(assert " + e.printer.Print(t) + ")") {
			e.terms = append(e.terms, t)
		}
	}
}

// AssertRaw adds preformatted assertion text. Text that does not already
// contain an assert command is wrapped in one.
func (e *Environment) AssertRaw(text string) {
	if !strings.Contains(text, "assert") {
		text = "(assert " + text + ")"
	}
	e.addAssertion(text)
}

func (e *Environment) addAssertion(a string) bool {
	if _, ok := e.asserted[a]; ok {
		return false
	}
	e.asserted[a] = struct{}{}
	e.assertions = append(e.assertions, a)
	return true
}

// AssertSoft adds a weighted soft assertion to the group id.
// Soft assertions are not deduplicated, repeating one changes its weight.
func (e *Environment) AssertSoft(t Term, weight int64, id string) {
	e.softAssertions = append(e.softAssertions,
		fmt.Sprintf("(assert-soft %s :weight %d :id %s)", e.printer.Print(t), weight, id))
}

// ObjectiveOption configures an objective.
type ObjectiveOption func(*objective)

type objective struct {
	lower, upper *int64
}

// WithLowerBound sets the :local-lb of an objective.
func WithLowerBound(v int64) ObjectiveOption {
	return func(o *objective) { o.lower = &v }
}

// WithUpperBound sets the :local-ub of an objective.
func WithUpperBound(v int64) ObjectiveOption {
	return func(o *objective) { o.upper = &v }
}

// Maximize adds t to the objectives to be maximized.
func (e *Environment) Maximize(t Term, opts ...ObjectiveOption) {
	e.addObjective("maximize", t, opts)
}

// Minimize adds t to the objectives to be minimized.
func (e *Environment) Minimize(t Term, opts ...ObjectiveOption) {
	e.addObjective("minimize", t, opts)
}

func (e *Environment) addObjective(kind string, t Term, opts []ObjectiveOption) {
	var o objective
	for _, opt := range opts {
		opt(&o)
	}
	var sb strings.Builder
	sb.WriteString("(" + kind + " " + e.printer.Print(t))
	if o.lower != nil {
		sb.WriteString(" :local-lb " + e.printer.Print(Int(*o.lower)))
	}
	if o.upper != nil {
		sb.WriteString(" :local-ub " + e.printer.Print(Int(*o.upper)))
	}
	sb.WriteString(")")
	e.objectives = append(e.objectives, sb.String())
}

// AddComment adds a comment printed after the problem.
func (e *Environment) AddComment(comment string) {
	e.comments = append(e.comments, "; "+comment)
}

// Declarations returns the declarations in insertion order.
func (e *Environment) Declarations() []string {
	return append([]string(nil), e.declarations...)
}

// Assertions returns the hard assertions in insertion order.
func (e *Environment) Assertions() []string {
	return append([]string(nil), e.assertions...)
}

// AssertedTerms returns the hard assertions added through Assert, without
// the raw ones.
func (e *Environment) AssertedTerms() []Term {
	return append([]Term(nil), e.terms...)
}

// SoftAssertions returns the soft assertions in insertion order.
func (e *Environment) SoftAssertions() []string {
	return append([]string(nil), e.softAssertions...)
}

// Objectives returns the objectives in insertion order.
func (e *Environment) Objectives() []string {
	return append([]string(nil), e.objectives...)
}

// Comments returns the trailing comments.
func (e *Environment) Comments() []string {
	return append([]string(nil), e.comments...)
}

// WriteTo prints the problem: options, declarations, assertions, soft
// assertions, objectives, check-sat, the model request, the statistics
// request and the comments.
func (e *Environment) WriteTo(w io.Writer) (int64, error) {
	var buf bytes.Buffer
	for _, o := range e.options {
		fmt.Fprintf(&buf, "(set-option :%s %s)\n", o.name, o.value)
	}
	for _, section := range [][]string{e.declarations, e.assertions, e.softAssertions, e.objectives} {
		for _, line := range section {
			buf.WriteString(line)
			buf.WriteByte('\n')
		}
	}
	buf.WriteString("(check-sat)\n")
	if v, _ := e.Option("produce-models"); v == "true" {
		buf.WriteString("(set-model -1)\n(get-model)\n")
	} else {
		buf.WriteString(";(set-model -1)\n;(get-model)\n")
	}
	buf.WriteString(";(get-info :all-statistics)\n")
	for _, c := range e.comments {
		buf.WriteString(c)
		buf.WriteByte('\n')
	}
	return buf.WriteTo(w)
}

// String returns the printed problem.
func (e *Environment) String() string {
	var sb strings.Builder
	_, _ = e.WriteTo(&sb)
	return sb.String()
}
