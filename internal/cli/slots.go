package cli

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"vueblade/internal/app"
	"vueblade/pkg/engine"
	"vueblade/pkg/fastjson"
)

// HandleSlots lists the render slots a compiled view may use.
func HandleSlots(args []string) {
	os.Exit(runSlots(args, os.Stdout))
}

func runSlots(args []string, out io.Writer) int {
	eng := engine.NewEngine()
	app.RegisterAllSlots(eng, nil)

	if len(args) > 0 && args[0] == "--json" {
		b, _ := fastjson.MarshalIndent(eng.GetDocumentation(), "", "  ")
		fmt.Fprintln(out, string(b))
		return 0
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, name := range eng.GetSortedSlotNames() {
		meta := eng.Docs[name]
		fmt.Fprintf(tw, "%s\t%s\t%s\n", name, meta.Description, meta.Example)
	}
	tw.Flush()
	return 0
}
