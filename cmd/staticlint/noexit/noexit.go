// Package noexit содержит анализатор, запрещающий завершать процесс из функции main пакета main.
//
// Запрещены os.Exit и log.Fatal, log.Fatalf, log.Fatalln: они обходят отложенные вызовы,
// и сервер не успевает корректно остановиться.
package noexit

import (
	"go/ast"
	"go/types"
	"strings"

	"golang.org/x/tools/go/analysis"
)

// Analyzer проверяет тело main на вызовы, завершающие процесс
var Analyzer = &analysis.Analyzer{
	Name: "noexit",
	Doc:  "forbids os.Exit and log.Fatal* calls in function main of package main",
	Run:  run,
}

// forbidden: пакет -> функции, завершающие процесс
var forbidden = map[string]map[string]bool{
	"os":  {"Exit": true},
	"log": {"Fatal": true, "Fatalf": true, "Fatalln": true},
}

func run(pass *analysis.Pass) (interface{}, error) {
	if pass.Pkg.Name() != "main" {
		return nil, nil
	}

	for _, file := range pass.Files {
		filename := pass.Fset.Position(file.Pos()).Filename
		if strings.HasSuffix(filename, "_test.go") || ast.IsGenerated(file) {
			continue
		}

		for _, decl := range file.Decls {
			fn, ok := decl.(*ast.FuncDecl)
			if !ok || fn.Recv != nil || fn.Name.Name != "main" || fn.Body == nil {
				continue
			}

			ast.Inspect(fn.Body, func(n ast.Node) bool {
				// замыкания внутри main выполняются не в main
				if _, ok := n.(*ast.FuncLit); ok {
					return false
				}
				call, ok := n.(*ast.CallExpr)
				if !ok {
					return true
				}
				sel, ok := call.Fun.(*ast.SelectorExpr)
				if !ok {
					return true
				}
				obj, ok := pass.TypesInfo.Uses[sel.Sel].(*types.Func)
				if !ok || obj.Pkg() == nil {
					return true
				}
				if forbidden[obj.Pkg().Path()][obj.Name()] {
					pass.Reportf(call.Pos(), "direct call to %s.%s in function main", obj.Pkg().Name(), obj.Name())
				}
				return true
			})
		}
	}
	return nil, nil
}
