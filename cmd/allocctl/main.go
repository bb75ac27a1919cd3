package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"
)

var version = "dev"

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("allocctl"),
		kong.Description("Offline allocation planning over a JSON snapshot of students, tutors and classes."),
		kong.UsageOnError(),
		kong.Vars{"version": version},
	)

	if err := ctx.Run(newRunContext(cli.Input, os.Stdout)); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
