package cli

import (
	"fmt"
	"io"
	"os"
	"runtime"
)

// Version is the current version of vueblade
const Version = "1.0.0"

// HandleVersion prints the current version of vueblade
func HandleVersion() {
	printVersion(os.Stdout)
}

func printVersion(out io.Writer) {
	fmt.Fprintf(out, "vueblade version %s %s/%s\n", Version, runtime.GOOS, runtime.GOARCH)
}
