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

// Node represents a node in the AST
type Node interface {
	node()
}

// Literal is a number, string, boolean or null constant.
type Literal struct {
	Value Value
}

func (n *Literal) node() {}

// Ident references a column by tag.
type Ident struct {
	Name string
}

func (n *Ident) node() {}

// ListLit is a bracketed list, used as the right side of "in".
type ListLit struct {
	Items []Node
}

func (n *ListLit) node() {}

// BinaryOp represents a binary operation
type BinaryOp struct {
	Op    TokenType
	Left  Node
	Right Node
}

func (n *BinaryOp) node() {}

// UnaryOp represents a unary operation
type UnaryOp struct {
	Op   TokenType
	Expr Node
}

func (n *UnaryOp) node() {}

// CallExpr represents a function call
type CallExpr struct {
	Func string
	Args []Node
}

func (n *CallExpr) node() {}

// Idents returns the distinct column tags referenced by n, in order of
// first reference.
func Idents(n Node) []string {
	var out []string
	seen := map[string]bool{}
	var walk func(Node)
	walk = func(n Node) {
		switch x := n.(type) {
		case *Ident:
			if !seen[x.Name] {
				seen[x.Name] = true
				out = append(out, x.Name)
			}
		case *ListLit:
			for _, item := range x.Items {
				walk(item)
			}
		case *BinaryOp:
			walk(x.Left)
			walk(x.Right)
		case *UnaryOp:
			walk(x.Expr)
		case *CallExpr:
			for _, arg := range x.Args {
				walk(arg)
			}
		}
	}
	walk(n)
	return out
}
