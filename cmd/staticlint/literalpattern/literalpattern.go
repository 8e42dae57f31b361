// Package literalpattern defines an analyzer that keeps MongoDB regular
// expressions built from user input literal.
//
// Search terms are matched as plain substrings, so every primitive.Regex
// composite literal must take its Pattern from regexp.QuoteMeta or from
// the Pattern method of query.Matcher, which escapes its term.
package literalpattern

import (
	"go/ast"
	"go/types"
	"strings"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/passes/inspect"
	"golang.org/x/tools/go/ast/astutil"
	"golang.org/x/tools/go/ast/inspector"
)

const (
	primitivePath = "go.mongodb.org/mongo-driver/bson/primitive"
	queryPathTail = "/internal/query"
)

var Analyzer = &analysis.Analyzer{
	Name:     "literalpattern",
	Doc:      "reports primitive.Regex literals whose Pattern is not escaped with regexp.QuoteMeta",
	Requires: []*analysis.Analyzer{inspect.Analyzer},
	Run:      run,
}

func run(pass *analysis.Pass) (interface{}, error) {
	insp := pass.ResultOf[inspect.Analyzer].(*inspector.Inspector)

	nodeFilter := []ast.Node{(*ast.CompositeLit)(nil)}
	insp.Preorder(nodeFilter, func(n ast.Node) {
		lit := n.(*ast.CompositeLit)
		if !isPrimitiveRegex(pass.TypesInfo.TypeOf(lit)) {
			return
		}

		pattern := patternExpr(lit)
		if pattern == nil || isEscaped(pass, pattern) {
			return
		}

		pass.Reportf(pattern.Pos(), "primitive.Regex pattern must be escaped with regexp.QuoteMeta")
	})

	return nil, nil
}

func isPrimitiveRegex(t types.Type) bool {
	named, ok := t.(*types.Named)
	if !ok {
		return false
	}

	obj := named.Obj()
	return obj.Pkg() != nil && obj.Pkg().Path() == primitivePath && obj.Name() == "Regex"
}

// patternExpr returns the expression assigned to the Pattern field, or nil
// when the literal leaves it empty.
func patternExpr(lit *ast.CompositeLit) ast.Expr {
	for i, elt := range lit.Elts {
		kv, ok := elt.(*ast.KeyValueExpr)
		if !ok {
			if i == 0 {
				return elt
			}
			continue
		}

		if key, ok := kv.Key.(*ast.Ident); ok && key.Name == "Pattern" {
			return kv.Value
		}
	}

	return nil
}

func isEscaped(pass *analysis.Pass, expr ast.Expr) bool {
	expr = astutil.Unparen(expr)

	if lit, ok := expr.(*ast.BasicLit); ok {
		return !strings.ContainsAny(lit.Value, `\.+*?()|[]{}^$`)
	}

	call, ok := expr.(*ast.CallExpr)
	if !ok {
		return false
	}

	sel, ok := call.Fun.(*ast.SelectorExpr)
	if !ok {
		return false
	}

	callee, ok := pass.TypesInfo.Uses[sel.Sel].(*types.Func)
	if !ok || callee.Pkg() == nil {
		return false
	}

	switch {
	case callee.Pkg().Path() == "regexp" && callee.Name() == "QuoteMeta":
		return true
	case strings.HasSuffix(callee.Pkg().Path(), queryPathTail) && callee.Name() == "Pattern":
		return callee.Type().(*types.Signature).Recv() != nil
	}

	return false
}
