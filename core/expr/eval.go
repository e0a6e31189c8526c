/*
SPDX-License-Identifier: Apache-2.0

Copyright 2024 The GigaGrid Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    https://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package expr

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/google/gigagrid/core/columns"
)

// Kind is the dynamic type of a Value.
type Kind int

const (
	KindNull Kind = iota
	KindNumber
	KindString
	KindBool
	KindList
)

// Value is the result of evaluating an expression.
type Value struct {
	kind Kind
	num  float64
	str  string
	b    bool
	list []Value
}

// Null is the value of missing columns and of the null literal.
var Null = Value{}

func Number(f float64) Value   { return Value{kind: KindNumber, num: f} }
func String(s string) Value    { return Value{kind: KindString, str: s} }
func Bool(b bool) Value        { return Value{kind: KindBool, b: b} }
func List(items []Value) Value { return Value{kind: KindList, list: items} }

// FromAny converts a raw record value. Strings stay strings even when they
// look numeric; comparisons coerce them as needed.
func FromAny(v any) Value {
	switch x := v.(type) {
	case nil:
		return Null
	case bool:
		return Bool(x)
	case string:
		return String(x)
	}
	if f, ok := columns.ToNumber(v); ok {
		return Number(f)
	}
	return String(columns.FormatKey(v))
}

func (v Value) Kind() Kind   { return v.kind }
func (v Value) IsNull() bool { return v.kind == KindNull }

// AsNumber returns the numeric form of numbers, numeric strings and bools.
func (v Value) AsNumber() (float64, bool) {
	switch v.kind {
	case KindNumber:
		return v.num, true
	case KindString:
		return columns.ToNumber(v.str)
	case KindBool:
		if v.b {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

// Truthy reports whether v counts as true in a boolean context.
func (v Value) Truthy() bool {
	switch v.kind {
	case KindNumber:
		return v.num != 0
	case KindString:
		return v.str != ""
	case KindBool:
		return v.b
	case KindList:
		return len(v.list) > 0
	}
	return false
}

func (v Value) String() string {
	switch v.kind {
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindString:
		return v.str
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindList:
		parts := make([]string, len(v.list))
		for i, item := range v.list {
			parts[i] = item.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	}
	return "null"
}

// Equal compares with numeric coercion when either side is a number.
func (v Value) Equal(o Value) bool {
	if v.kind == KindNull || o.kind == KindNull {
		return v.kind == o.kind
	}
	if v.kind == KindNumber || o.kind == KindNumber {
		a, okA := v.AsNumber()
		b, okB := o.AsNumber()
		return okA && okB && a == b
	}
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindString:
		return v.str == o.str
	case KindBool:
		return v.b == o.b
	case KindList:
		if len(v.list) != len(o.list) {
			return false
		}
		for i := range v.list {
			if !v.list[i].Equal(o.list[i]) {
				return false
			}
		}
		return true
	}
	return false
}

// compare orders two non-null values, numerically when either is a number.
func compare(a, b Value) int {
	if a.kind == KindNumber || b.kind == KindNumber {
		x, okX := a.AsNumber()
		y, okY := b.AsNumber()
		if okX && okY {
			switch {
			case x < y:
				return -1
			case x > y:
				return 1
			}
			return 0
		}
	}
	return strings.Compare(a.String(), b.String())
}

// Getter returns the raw value of a column for the row being evaluated.
type Getter func(tag string) any

// Evaluator evaluates an AST against rows.
type Evaluator struct {
	ast Node
}

// NewEvaluator creates an evaluator for ast.
func NewEvaluator(ast Node) *Evaluator {
	return &Evaluator{ast: ast}
}

// Eval evaluates the expression for one row.
func (e *Evaluator) Eval(get Getter) (Value, error) {
	return e.eval(e.ast, get)
}

func (e *Evaluator) eval(node Node, get Getter) (Value, error) {
	switch n := node.(type) {
	case *Literal:
		return n.Value, nil
	case *Ident:
		return FromAny(get(n.Name)), nil
	case *ListLit:
		items := make([]Value, len(n.Items))
		for i, item := range n.Items {
			v, err := e.eval(item, get)
			if err != nil {
				return Null, err
			}
			items[i] = v
		}
		return List(items), nil
	case *UnaryOp:
		v, err := e.eval(n.Expr, get)
		if err != nil {
			return Null, err
		}
		if n.Op == TOKEN_NOT {
			return Bool(!v.Truthy()), nil
		}
		if v.IsNull() {
			return Null, nil
		}
		f, ok := v.AsNumber()
		if !ok {
			return Null, fmt.Errorf("cannot negate %s", v)
		}
		return Number(-f), nil
	case *BinaryOp:
		return e.evalBinary(n, get)
	case *CallExpr:
		args := make([]Value, len(n.Args))
		for i, arg := range n.Args {
			v, err := e.eval(arg, get)
			if err != nil {
				return Null, err
			}
			args[i] = v
		}
		return callFunc(n.Func, args)
	}
	return Null, fmt.Errorf("unknown node type %T", node)
}

func (e *Evaluator) evalBinary(n *BinaryOp, get Getter) (Value, error) {
	left, err := e.eval(n.Left, get)
	if err != nil {
		return Null, err
	}
	// short circuit
	switch n.Op {
	case TOKEN_AND:
		if !left.Truthy() {
			return Bool(false), nil
		}
	case TOKEN_OR:
		if left.Truthy() {
			return Bool(true), nil
		}
	}
	right, err := e.eval(n.Right, get)
	if err != nil {
		return Null, err
	}

	switch n.Op {
	case TOKEN_AND, TOKEN_OR:
		return Bool(right.Truthy()), nil
	case TOKEN_EQ:
		return Bool(left.Equal(right)), nil
	case TOKEN_NE:
		return Bool(!left.Equal(right)), nil
	case TOKEN_LT, TOKEN_GT, TOKEN_LE, TOKEN_GE:
		if left.IsNull() || right.IsNull() {
			return Bool(false), nil
		}
		c := compare(left, right)
		switch n.Op {
		case TOKEN_LT:
			return Bool(c < 0), nil
		case TOKEN_GT:
			return Bool(c > 0), nil
		case TOKEN_LE:
			return Bool(c <= 0), nil
		default:
			return Bool(c >= 0), nil
		}
	case TOKEN_IN:
		return evalIn(left, right)
	}
	return evalArithmetic(n.Op, left, right)
}

func evalIn(needle, haystack Value) (Value, error) {
	switch haystack.kind {
	case KindList:
		for _, item := range haystack.list {
			if needle.Equal(item) {
				return Bool(true), nil
			}
		}
		return Bool(false), nil
	case KindString:
		if needle.IsNull() {
			return Bool(false), nil
		}
		return Bool(strings.Contains(haystack.str, needle.String())), nil
	case KindNull:
		return Bool(false), nil
	}
	return Null, fmt.Errorf("'in' needs a list or string, got %s", haystack)
}

func evalArithmetic(op TokenType, left, right Value) (Value, error) {
	if left.IsNull() || right.IsNull() {
		return Null, nil
	}
	if op == TOKEN_PLUS && (left.kind == KindString || right.kind == KindString) {
		_, lNum := left.AsNumber()
		_, rNum := right.AsNumber()
		if !(lNum && rNum) {
			return String(left.String() + right.String()), nil
		}
	}
	a, okA := left.AsNumber()
	b, okB := right.AsNumber()
	if !okA || !okB {
		return Null, fmt.Errorf("unsupported operand types for %s: %s and %s", op, left, right)
	}
	switch op {
	case TOKEN_PLUS:
		return Number(a + b), nil
	case TOKEN_MINUS:
		return Number(a - b), nil
	case TOKEN_STAR:
		return Number(a * b), nil
	case TOKEN_SLASH:
		if b == 0 {
			return Null, fmt.Errorf("division by zero")
		}
		return Number(a / b), nil
	case TOKEN_PERCENT:
		if b == 0 {
			return Null, fmt.Errorf("modulo by zero")
		}
		return Number(math.Mod(a, b)), nil
	}
	return Null, fmt.Errorf("unknown operator %s", op)
}

type builtin struct {
	arity int
	fn    func(args []Value) (Value, error)
}

var builtins = map[string]builtin{
	"lower": {1, func(a []Value) (Value, error) { return String(strings.ToLower(a[0].String())), nil }},
	"upper": {1, func(a []Value) (Value, error) { return String(strings.ToUpper(a[0].String())), nil }},
	"trim":  {1, func(a []Value) (Value, error) { return String(strings.TrimSpace(a[0].String())), nil }},
	"len": {1, func(a []Value) (Value, error) {
		if a[0].kind == KindList {
			return Number(float64(len(a[0].list))), nil
		}
		if a[0].IsNull() {
			return Number(0), nil
		}
		return Number(float64(utf8.RuneCountInString(a[0].String()))), nil
	}},
	"contains": {2, func(a []Value) (Value, error) {
		return Bool(!a[0].IsNull() && strings.Contains(a[0].String(), a[1].String())), nil
	}},
	"startswith": {2, func(a []Value) (Value, error) {
		return Bool(!a[0].IsNull() && strings.HasPrefix(a[0].String(), a[1].String())), nil
	}},
	"endswith": {2, func(a []Value) (Value, error) {
		return Bool(!a[0].IsNull() && strings.HasSuffix(a[0].String(), a[1].String())), nil
	}},
	"isnull": {1, func(a []Value) (Value, error) { return Bool(a[0].IsNull()), nil }},
	"abs": {1, func(a []Value) (Value, error) {
		return numeric1("abs", a[0], math.Abs)
	}},
	"round": {1, func(a []Value) (Value, error) {
		return numeric1("round", a[0], math.Round)
	}},
}

func numeric1(name string, v Value, fn func(float64) float64) (Value, error) {
	if v.IsNull() {
		return Null, nil
	}
	f, ok := v.AsNumber()
	if !ok {
		return Null, fmt.Errorf("%s() needs a number, got %s", name, v)
	}
	return Number(fn(f)), nil
}

func callFunc(name string, args []Value) (Value, error) {
	b, ok := builtins[name]
	if !ok {
		return Null, fmt.Errorf("unknown function %s()", name)
	}
	if len(args) != b.arity {
		return Null, fmt.Errorf("%s() takes %d argument(s), got %d", name, b.arity, len(args))
	}
	return b.fn(args)
}
