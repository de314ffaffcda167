// Command staticlint запускает набор анализаторов, которым проверяется код сервиса.
//
// В набор входят:
//
//   - анализаторы golang.org/x/tools/go/analysis/passes: nilness, shadow,
//     unreachable, printf, assign, atomic, bools, buildtag, copylocks,
//     lostcancel, httpresponse, unusedresult;
//   - все анализаторы класса SA из staticcheck.io;
//   - ST1000 (комментарий пакета) и ST1005 (текст ошибок) из stylecheck;
//   - S1000 и S1002 из simple;
//   - errcheck: непроверенные ошибки;
//   - noexit: запрет завершения процесса из функции main пакета main.
//
// Запуск:
//
//	go run ./cmd/staticlint ./...
package main

import (
	"github.com/kisielk/errcheck/errcheck"
	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/multichecker"
	"golang.org/x/tools/go/analysis/passes/assign"
	"golang.org/x/tools/go/analysis/passes/atomic"
	"golang.org/x/tools/go/analysis/passes/bools"
	"golang.org/x/tools/go/analysis/passes/buildtag"
	"golang.org/x/tools/go/analysis/passes/copylock"
	"golang.org/x/tools/go/analysis/passes/httpresponse"
	"golang.org/x/tools/go/analysis/passes/lostcancel"
	"golang.org/x/tools/go/analysis/passes/nilness"
	"golang.org/x/tools/go/analysis/passes/printf"
	"golang.org/x/tools/go/analysis/passes/shadow"
	"golang.org/x/tools/go/analysis/passes/unreachable"
	"golang.org/x/tools/go/analysis/passes/unusedresult"
	"honnef.co/go/tools/simple"
	"honnef.co/go/tools/staticcheck"
	"honnef.co/go/tools/stylecheck"

	"github.com/tempizhere/avbv/cmd/staticlint/noexit"
)

// extraChecks перечисляет проверки stylecheck и simple, включаемые поимённо
var extraChecks = map[string]bool{
	"ST1000": true,
	"ST1005": true,
	"S1000":  true,
	"S1002":  true,
}

func analyzers() []*analysis.Analyzer {
	list := []*analysis.Analyzer{
		nilness.Analyzer,
		shadow.Analyzer,
		unreachable.Analyzer,
		printf.Analyzer,
		assign.Analyzer,
		atomic.Analyzer,
		bools.Analyzer,
		buildtag.Analyzer,
		copylock.Analyzer,
		lostcancel.Analyzer,
		httpresponse.Analyzer,
		unusedresult.Analyzer,
	}

	for _, a := range staticcheck.Analyzers {
		list = append(list, a.Analyzer)
	}
	for _, a := range stylecheck.Analyzers {
		if extraChecks[a.Analyzer.Name] {
			list = append(list, a.Analyzer)
		}
	}
	for _, a := range simple.Analyzers {
		if extraChecks[a.Analyzer.Name] {
			list = append(list, a.Analyzer)
		}
	}

	return append(list, errcheck.Analyzer, noexit.Analyzer)
}

func main() {
	multichecker.Main(analyzers()...)
}
