package smt

import (
	"errors"
	"fmt"
)

// ErrNotEvaluable is returned for raw terms, unbound variables and ill-sorted
// operands.
var ErrNotEvaluable = errors.New("term not evaluable")

// Value is the value of a term under a Model. Numeric values are integers;
// every cost in the encodings is integral.
type Value struct {
	IsBool bool
	Bool   bool
	Num    int64
}

// BoolValue wraps a Boolean.
func BoolValue(b bool) Value { return Value{IsBool: true, Bool: b} }

// NumValue wraps an integer.
func NumValue(n int64) Value { return Value{Num: n} }

// Model assigns values to variable names.
type Model map[string]Value

// Eval evaluates t under m.
func Eval(t Term, m Model) (Value, error) {
	switch t.Kind {
	case KindVar:
		v, ok := m[t.Name]
		if !ok {
			return Value{}, fmt.Errorf("%w: unbound variable %s", ErrNotEvaluable, t.Name)
		}
		return v, nil
	case KindInt:
		return NumValue(t.Value), nil
	case KindRaw:
		return Value{}, fmt.Errorf("%w: raw term %q", ErrNotEvaluable, t.Name)
	case KindNot:
		b, err := evalBool(t.Args[0], m)
		return BoolValue(!b), err
	case KindAnd, KindOr:
		acc := t.Kind == KindAnd
		for _, a := range t.Args {
			b, err := evalBool(a, m)
			if err != nil {
				return Value{}, err
			}
			if t.Kind == KindAnd {
				acc = acc && b
			} else {
				acc = acc || b
			}
		}
		return BoolValue(acc), nil
	case KindPlus:
		var sum int64
		for _, a := range t.Args {
			n, err := evalNum(a, m)
			if err != nil {
				return Value{}, err
			}
			sum += n
		}
		return NumValue(sum), nil
	case KindTimes, KindDiff:
		a, b, err := evalNums(t.Args[0], t.Args[1], m)
		if err != nil {
			return Value{}, err
		}
		if t.Kind == KindTimes {
			return NumValue(a * b), nil
		}
		return NumValue(a - b), nil
	case KindNeg:
		n, err := evalNum(t.Args[0], m)
		return NumValue(-n), err
	case KindLeq:
		a, b, err := evalNums(t.Args[0], t.Args[1], m)
		return BoolValue(a <= b), err
	case KindEqual:
		a, err := Eval(t.Args[0], m)
		if err != nil {
			return Value{}, err
		}
		b, err := Eval(t.Args[1], m)
		if err != nil {
			return Value{}, err
		}
		if a.IsBool != b.IsBool {
			return Value{}, fmt.Errorf("%w: mixed sorts in %s", ErrNotEvaluable, t)
		}
		return BoolValue(a == b), nil
	case KindIte:
		c, err := evalBool(t.Args[0], m)
		if err != nil {
			return Value{}, err
		}
		if c {
			return Eval(t.Args[1], m)
		}
		return Eval(t.Args[2], m)
	case KindImply:
		a, err := evalBool(t.Args[0], m)
		if err != nil {
			return Value{}, err
		}
		if !a {
			return BoolValue(true), nil
		}
		b, err := evalBool(t.Args[1], m)
		return BoolValue(b), err
	}
	return Value{}, fmt.Errorf("%w: unknown kind %d", ErrNotEvaluable, t.Kind)
}

// Holds reports whether the Boolean term t is true under m.
func Holds(t Term, m Model) (bool, error) {
	return evalBool(t, m)
}

func evalBool(t Term, m Model) (bool, error) {
	v, err := Eval(t, m)
	if err != nil {
		return false, err
	}
	if !v.IsBool {
		return false, fmt.Errorf("%w: %s is not Boolean", ErrNotEvaluable, t)
	}
	return v.Bool, nil
}

func evalNum(t Term, m Model) (int64, error) {
	v, err := Eval(t, m)
	if err != nil {
		return 0, err
	}
	if v.IsBool {
		return 0, fmt.Errorf("%w: %s is not numeric", ErrNotEvaluable, t)
	}
	return v.Num, nil
}

func evalNums(a, b Term, m Model) (int64, int64, error) {
	x, err := evalNum(a, m)
	if err != nil {
		return 0, 0, err
	}
	y, err := evalNum(b, m)
	return x, y, err
}
