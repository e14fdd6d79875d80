package main

import (
	"fmt"
	"os"

	"vueblade/internal/cli"
	"vueblade/pkg/logger"

	"github.com/joho/godotenv"
)

const usage = `vueblade - Blade views with @vue components

Usage:
  vueblade check [--json] <view.blade.html>
  vueblade render <view.blade.html> [--data file.json|file.yaml] [--minify]
  vueblade serve [--port 3000] [--views dir]
  vueblade slots [--json]
  vueblade version`

func main() {
	godotenv.Load()

	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(1)
	}

	// Rendered output goes to stdout; keep logs off it.
	logger.SetupWriter(os.Getenv("APP_ENV"), os.Stderr)

	cmd := os.Args[1]
	switch cmd {
	case "check":
		cli.HandleCheck(os.Args[2:])
	case "render":
		cli.HandleRender(os.Args[2:])
	case "serve":
		cli.HandleServe(os.Args[2:])
	case "slots":
		cli.HandleSlots(os.Args[2:])
	case "version":
		cli.HandleVersion()
	default:
		fmt.Println(usage)
		os.Exit(1)
	}
}
