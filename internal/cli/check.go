package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"vueblade/internal/app"
	"vueblade/pkg/engine"
	"vueblade/pkg/fastjson"
)

const checkUsage = "Usage: vueblade check [--json] <path/to/view.blade.html>"

func HandleCheck(args []string) {
	os.Exit(runCheck(args, app.LoadConfig(), os.Stdout))
}

func runCheck(args []string, cfg app.Config, out io.Writer) int {
	isJSON := false
	path := ""

	for _, arg := range args {
		if arg == "--json" {
			isJSON = true
		} else {
			path = arg
		}
	}

	if path == "" {
		fmt.Fprintln(out, checkUsage)
		return 1
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return reportCheck(out, isJSON, []engine.Diagnostic{asDiagnostic(err, path)}, nil)
	}

	if _, err := app.NewCompiler(cfg).CompileNamed(path, string(content)); err != nil {
		return reportCheck(out, isJSON, []engine.Diagnostic{asDiagnostic(err, path)}, nil)
	}

	// Unclosed @vue is legal outside strict mode but still worth a warning.
	var warnings []engine.Diagnostic
	if !cfg.Strict {
		strict := cfg
		strict.Strict = true
		if _, err := app.NewCompiler(strict).CompileNamed(path, string(content)); err != nil {
			diag := asDiagnostic(err, path)
			diag.Type = "warning"
			warnings = append(warnings, diag)
		}
	}

	return reportCheck(out, isJSON, nil, warnings)
}

func reportCheck(out io.Writer, isJSON bool, errs, warnings []engine.Diagnostic) int {
	success := len(errs) == 0

	if isJSON {
		if errs == nil {
			errs = []engine.Diagnostic{}
		}
		if warnings == nil {
			warnings = []engine.Diagnostic{}
		}
		b, _ := fastjson.MarshalIndent(map[string]interface{}{
			"success":  success,
			"errors":   errs,
			"warnings": warnings,
		}, "", "  ")
		fmt.Fprintln(out, string(b))
		if !success {
			return 1
		}
		return 0
	}

	if !success {
		for _, diag := range errs {
			fmt.Fprintf(out, "❌ Syntax Error: %v\n", diag)
		}
		return 1
	}

	for _, diag := range warnings {
		fmt.Fprintf(out, "⚠️  Warning: %v\n", diag)
	}
	fmt.Fprintln(out, "✅ View Valid")
	return 0
}

func asDiagnostic(err error, path string) engine.Diagnostic {
	var diag engine.Diagnostic
	if errors.As(err, &diag) {
		if diag.Filename == "" {
			diag.Filename = path
		}
		return diag
	}
	return engine.Diagnostic{
		Type:     "error",
		Message:  err.Error(),
		Filename: path,
		Err:      err,
	}
}
