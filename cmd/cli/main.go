package main

import (
	"fmt"
	"os"

	"github.com/de-tools/backcountry/pkg/runtime/terminal"
	"github.com/de-tools/backcountry/pkg/services/sources"
)

func main() {
	cli := terminal.NewCLI(terminal.Options{
		Catalog: sources.BuiltinCatalog(),
		Output:  os.Stdout,
	})

	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
