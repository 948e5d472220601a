package main

import (
	"os"

	"github.com/merchkit/freegift/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		cmd.PrintErrln("Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
