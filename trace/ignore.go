package trace

import (
	"path/filepath"
	"runtime"
	"strings"
	"unicode"
)

// internalNames are this package's own entry points: a session must
// not trace itself if its methods are somehow instrumented.
var internalNames = map[string]struct{}{
	"handleEvent":       {},
	"handleEnter":       {},
	"handleExit":        {},
	"shouldIgnore":      {},
	"captureValue":      {},
	"expandValue":       {},
	"toStructured":      {},
	"writeTree":         {},
	"writeNode":         {},
	"exportInteractive": {},
	"registerAutoStop":  {},
}

var stdlibRoot = filepath.Join(runtime.GOROOT(), "src") + string(filepath.Separator)

// shouldIgnore reports whether a call site should be excluded from
// capture. Pure predicate, checked per enter event.
func (t *Tracer) shouldIgnore(originFile string, routineName string) bool {
	if isSyntheticName(routineName) {
		return true
	}
	if _, ok := internalNames[bareName(routineName)]; ok {
		return true
	}
	for _, pattern := range t.cfg.excludePatterns {
		if strings.Contains(originFile, pattern) {
			return true
		}
	}
	if !t.cfg.includeStdlib && strings.HasPrefix(originFile, stdlibRoot) {
		return true
	}
	return false
}

// bareName strips the package path and receiver from a fully
// qualified routine name: "pkg/sub.(*T).Method" -> "Method".
func bareName(name string) string {
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	return name
}

// isSyntheticName reports whether a routine name is
// compiler-generated rather than written by hand: closures
// ("pkg.Caller.func1"), linker thunks, or names from sources that
// mark anonymous routines with a reserved "<" prefix.
func isSyntheticName(name string) bool {
	if name == "" || strings.HasPrefix(name, "<") {
		return true
	}
	bare := bareName(name)
	if rest := strings.TrimPrefix(bare, "func"); rest != bare && isAllDigits(rest) {
		// closure names like "main.main.func1"
		return true
	}
	return !isIdentifier(bare)
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if unicode.IsLetter(r) || r == '_' {
			continue
		}
		if i > 0 && unicode.IsDigit(r) {
			continue
		}
		return false
	}
	return true
}
