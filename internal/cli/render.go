package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"vueblade/internal/app"
)

const renderUsage = "Usage: vueblade render <path/to/view.blade.html> [--data file.json|file.yaml] [--minify]"

func HandleRender(args []string) {
	os.Exit(runRender(args, app.LoadConfig(), os.Stdout, os.Stderr))
}

func runRender(args []string, cfg app.Config, out, errOut io.Writer) int {
	path := ""
	dataPath := ""

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--minify":
			cfg.Minify = true
		case "--data":
			if i+1 >= len(args) {
				fmt.Fprintln(errOut, renderUsage)
				return 1
			}
			i++
			dataPath = args[i]
		default:
			path = args[i]
		}
	}

	if path == "" {
		fmt.Fprintln(errOut, renderUsage)
		return 1
	}

	data := map[string]interface{}{}
	if dataPath != "" {
		var err error
		data, err = app.LoadDataFile(dataPath)
		if err != nil {
			fmt.Fprintf(errOut, "❌ Data Error: %v\n", err)
			return 1
		}
	}

	content, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(errOut, "❌ Read Error: %v\n", err)
		return 1
	}

	a := app.NewAppContext(cfg)
	root, err := a.Compiler.CompileNamed(path, string(content))
	if err != nil {
		fmt.Fprintf(errOut, "❌ Syntax Error: %v\n", err)
		return 1
	}

	html, err := a.RenderTree(context.Background(), root, data)
	if err != nil {
		fmt.Fprintf(errOut, "❌ Render Error: %v\n", err)
		return 1
	}

	io.WriteString(out, html)
	return 0
}
