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

/*
Package expr implements the filter expression language used by EXPR filters.

Syntax:
  - Literals: 42, 3.14, "text", 'text', true, false, null, [1, 2, "x"]
  - Column references: region, unit_price, `Unit Price`
  - Arithmetic: +, -, *, /, %  (+ also concatenates strings)
  - Comparison: ==, !=, <, >, <=, >=, in, not in
  - Logical: and, or, not
  - Functions: lower(s), upper(s), trim(s), len(x), contains(s, sub),
    startswith(s, prefix), endswith(s, suffix), isnull(x), abs(n), round(n)

Missing columns evaluate to null. Ordering comparisons against null are
false; arithmetic with null yields null.
*/
package expr

import (
	"fmt"

	"github.com/google/gigagrid/core/columns"
)

// Expression represents a compiled expression ready for evaluation
type Expression struct {
	source    string
	ast       Node
	evaluator *Evaluator
}

// Compile parses an expression and checks its function calls.
func Compile(source string) (*Expression, error) {
	if source == "" {
		return nil, fmt.Errorf("empty expression")
	}
	parser, err := NewParser(source)
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	ast, err := parser.Parse()
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	if err := checkCalls(ast); err != nil {
		return nil, err
	}
	return &Expression{
		source:    source,
		ast:       ast,
		evaluator: NewEvaluator(ast),
	}, nil
}

func checkCalls(n Node) error {
	switch x := n.(type) {
	case *CallExpr:
		b, ok := builtins[x.Func]
		if !ok {
			return fmt.Errorf("unknown function %s()", x.Func)
		}
		if len(x.Args) != b.arity {
			return fmt.Errorf("%s() takes %d argument(s), got %d", x.Func, b.arity, len(x.Args))
		}
		for _, arg := range x.Args {
			if err := checkCalls(arg); err != nil {
				return err
			}
		}
	case *BinaryOp:
		if err := checkCalls(x.Left); err != nil {
			return err
		}
		return checkCalls(x.Right)
	case *UnaryOp:
		return checkCalls(x.Expr)
	case *ListLit:
		for _, item := range x.Items {
			if err := checkCalls(item); err != nil {
				return err
			}
		}
	}
	return nil
}

// Source returns the original expression source
func (e *Expression) Source() string {
	return e.source
}

// Columns returns the column tags referenced by the expression.
func (e *Expression) Columns() []string {
	return Idents(e.ast)
}

// Eval evaluates the expression with column values from get.
func (e *Expression) Eval(get Getter) (Value, error) {
	return e.evaluator.Eval(get)
}

// EvalRecord evaluates the expression against a record.
func (e *Expression) EvalRecord(rec columns.Record) (Value, error) {
	return e.evaluator.Eval(func(tag string) any { return rec[tag] })
}

// Matches reports whether the expression is truthy for rec. Evaluation
// errors count as no match.
func (e *Expression) Matches(rec columns.Record) bool {
	v, err := e.EvalRecord(rec)
	return err == nil && v.Truthy()
}
