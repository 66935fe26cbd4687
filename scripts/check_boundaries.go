package main

import (
	"fmt"
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/mod/modfile"
)

// layerRule lists what a layer under contexts/<context>/<service>/ may import.
// Service-relative entries are joined onto the service import path; the
// contracts flag admits <module>/contracts; thirdParty admits anything that is
// neither stdlib nor part of this module.
type layerRule struct {
	service    []string
	contracts  bool
	thirdParty bool
}

var layerRules = map[string]layerRule{
	"domain":      {service: []string{"domain"}},
	"ports":       {service: []string{"domain"}, contracts: true},
	"application": {service: []string{"application", "domain", "ports"}, contracts: true},
	"transport":   {},
	"adapters": {
		service:    []string{"adapters", "application", "domain", "ports", "transport"},
		contracts:  true,
		thirdParty: true,
	},
}

type violation struct {
	File   string
	Line   int
	Import string
	Rule   string
}

func main() {
	module, err := modulePath("go.mod")
	if err != nil {
		fmt.Fprintf(os.Stderr, "read module path: %v\n", err)
		os.Exit(2)
	}
	violations := collectViolations(module, "contexts")
	if len(violations) == 0 {
		fmt.Println("boundary checks passed")
		return
	}

	sort.Slice(violations, func(i, j int) bool {
		if violations[i].File != violations[j].File {
			return violations[i].File < violations[j].File
		}
		if violations[i].Line != violations[j].Line {
			return violations[i].Line < violations[j].Line
		}
		return violations[i].Import < violations[j].Import
	})
	fmt.Println("boundary violations found:")
	for _, v := range violations {
		fmt.Printf("- %s:%d imports %q (%s)\n", v.File, v.Line, v.Import, v.Rule)
	}
	os.Exit(1)
}

func modulePath(goMod string) (string, error) {
	raw, err := os.ReadFile(goMod)
	if err != nil {
		return "", err
	}
	path := modfile.ModulePath(raw)
	if path == "" {
		return "", fmt.Errorf("%s has no module directive", goMod)
	}
	return path, nil
}

func collectViolations(module string, root string) []violation {
	var violations []violation
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
			return nil
		}
		parts := strings.Split(filepath.ToSlash(path), "/")
		if len(parts) < 4 || parts[0] != "contexts" {
			return nil
		}
		service := fmt.Sprintf("%s/contexts/%s/%s", module, parts[1], parts[2])
		violations = append(violations, checkFile(path, module, service, parts[3])...)
		return nil
	})
	return violations
}

// checkFile applies the cross-service rule to every file and the layer table
// to files inside a known layer. Files at the service root (module.go) are
// the composition point and may import any layer of their own service.
func checkFile(path string, module string, service string, layer string) []violation {
	normalized := filepath.ToSlash(path)
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, nil, parser.ImportsOnly)
	if err != nil {
		return []violation{{File: normalized, Line: 1, Rule: "file must parse"}}
	}

	rule, layered := layerRules[layer]
	var violations []violation
	for _, imp := range file.Imports {
		importPath := strings.Trim(imp.Path.Value, "\"")
		report := func(reason string) {
			violations = append(violations, violation{
				File:   normalized,
				Line:   fset.Position(imp.Pos()).Line,
				Import: importPath,
				Rule:   reason,
			})
		}

		switch {
		case hasPrefix(importPath, module+"/contexts") && !hasPrefix(importPath, service):
			report("imports another service")
		case hasPrefix(importPath, module+"/internal") || hasPrefix(importPath, module+"/cmd"):
			report("services must not import process wiring")
		case layered && !rule.allows(importPath, module, service):
			report(layer + " import is outside its layer rule")
		}
	}
	return violations
}

func (r layerRule) allows(importPath string, module string, service string) bool {
	switch {
	case hasPrefix(importPath, service):
		for _, layer := range r.service {
			if hasPrefix(importPath, service+"/"+layer) {
				return true
			}
		}
		return false
	case hasPrefix(importPath, module+"/contracts"):
		return r.contracts
	case hasPrefix(importPath, module):
		return false
	case isStdlib(importPath):
		return true
	default:
		return r.thirdParty
	}
}

func hasPrefix(path string, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

// isStdlib treats any path whose first element has no dot as standard library.
func isStdlib(importPath string) bool {
	first, _, _ := strings.Cut(importPath, "/")
	return !strings.Contains(first, ".")
}
