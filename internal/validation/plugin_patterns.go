// Package validation checks processor plugin sources for patterns that break
// the loader contract: hardcoded database identifiers and taxa, items built
// outside the pass graph, and processors writing to the store themselves.
package validation

import (
	"bufio"
	"go/ast"
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Error is one violation found in plugin code.
type Error struct {
	File    string
	Line    int
	Message string
	Code    string
}

// SupportDirs are plugin subdirectories holding test support code; they may
// carry literal fixtures and are not validated.
var SupportDirs = map[string]bool{"testhelper": true, "testdata": true}

// ValidatePluginDirectory validates every non-test Go file below dir.
func ValidatePluginDirectory(dir string) []Error {
	var errors []Error

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			if path != dir && SupportDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
			return nil
		}
		errors = append(errors, validatePluginFile(path)...)
		return nil
	})
	if err != nil {
		errors = append(errors, Error{
			File:    dir,
			Message: "Failed to walk directory: " + err.Error(),
		})
	}
	return errors
}

func validatePluginFile(filePath string) []Error {
	errors := validateFileText(filePath)
	return append(errors, validateFileAST(filePath)...)
}

type antiPattern struct {
	re      *regexp.Regexp
	message string
}

var antiPatterns = []antiPattern{
	{
		re:      regexp.MustCompile(`(?i)\b(type_id|cvterm_id)\s*=\s*\d+`),
		message: "Resolve cvterms by name through chado.Reader.CVTermIDs instead of hardcoded ids",
	},
	{
		re:      regexp.MustCompile(`(?i)\borganism_id\s*=\s*\d+`),
		message: "Resolve organisms from the configured directory instead of hardcoded ids",
	},
	{
		re:      regexp.MustCompile(`(?i)\bTaxonID\s*[:=]=?\s*"\d+"`),
		message: "Taxon ids come from the source configuration or file header",
	},
}

func validateFileText(filePath string) []Error {
	var errors []Error

	file, err := os.Open(filepath.Clean(filePath))
	if err != nil {
		return append(errors, Error{
			File:    filePath,
			Message: "Failed to open file: " + err.Error(),
		})
	}
	defer func() {
		_ = file.Close()
	}()

	scanner := bufio.NewScanner(file)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		if strings.TrimSpace(line) == "" || isCommentLine(line) {
			continue
		}
		for _, p := range antiPatterns {
			if p.re.MatchString(line) {
				errors = append(errors, Error{
					File:    filePath,
					Line:    lineNum,
					Message: p.message,
					Code:    strings.TrimSpace(line),
				})
			}
		}
	}
	return errors
}

// graphItems are the domain types a processor must obtain from the pass
// graph, which derives their identifiers.
var graphItems = map[string]bool{
	"Organism":             true,
	"Strain":               true,
	"Publication":          true,
	"Chromosome":           true,
	"Location":             true,
	"Gene":                 true,
	"GeneticMarker":        true,
	"QTL":                  true,
	"GeneticMap":           true,
	"LinkageGroup":         true,
	"LinkageGroupPosition": true,
	"LinkageGroupRange":    true,
	"GeneFamily":           true,
	"Homologue":            true,
	"SyntenyBlock":         true,
	"SyntenicRegion":       true,
}

// storeWrites are calls that persist items; processors leave emission to
// the service.
var storeWrites = map[string]string{
	"RunInTransaction": "Processors build the pass graph; the service emits it in one transaction",
	"Emit":             "Processors build the pass graph; the service emits it in one transaction",
	"Put":              "Processors must not write items to a store",
}

func validateFileAST(filePath string) []Error {
	var errors []Error

	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, filePath, nil, 0)
	if err != nil {
		return errors
	}
	domainName := importName(file, "legfed/pkg/domain")

	ast.Inspect(file, func(n ast.Node) bool {
		switch node := n.(type) {
		case *ast.CompositeLit:
			if name, ok := qualified(node.Type, domainName); ok && graphItems[name] {
				pos := fset.Position(node.Pos())
				errors = append(errors, Error{
					File:    pos.Filename,
					Line:    pos.Line,
					Message: "Obtain " + name + " from the pass graph so its identifier is derived consistently",
					Code:    "domain." + name + "{...}",
				})
			}
		case *ast.CallExpr:
			if sel, ok := node.Fun.(*ast.SelectorExpr); ok {
				if msg, bad := storeWrites[sel.Sel.Name]; bad {
					pos := fset.Position(node.Pos())
					errors = append(errors, Error{
						File:    pos.Filename,
						Line:    pos.Line,
						Message: msg,
						Code:    sel.Sel.Name + "(...)",
					})
				}
			}
		}
		return true
	})
	return errors
}

// importName returns the local name of path in file, or "" when it is not
// imported.
func importName(file *ast.File, path string) string {
	for _, imp := range file.Imports {
		if strings.Trim(imp.Path.Value, `"`) != path {
			continue
		}
		if imp.Name != nil {
			return imp.Name.Name
		}
		return path[strings.LastIndex(path, "/")+1:]
	}
	return ""
}

func qualified(expr ast.Expr, pkg string) (string, bool) {
	if pkg == "" {
		return "", false
	}
	sel, ok := expr.(*ast.SelectorExpr)
	if !ok {
		return "", false
	}
	ident, ok := sel.X.(*ast.Ident)
	if !ok || ident.Name != pkg {
		return "", false
	}
	return sel.Sel.Name, true
}

func isCommentLine(line string) bool {
	trimmed := strings.TrimSpace(line)
	return strings.HasPrefix(trimmed, "//") || strings.HasPrefix(trimmed, "/*")
}
