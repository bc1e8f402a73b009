package main

import (
	"github.com/shortly-io/shortly/cmd"

	// Subcommands register themselves with the root command.
	_ "github.com/shortly-io/shortly/cmd/cli"
	_ "github.com/shortly-io/shortly/cmd/server"
)

func main() {
	cmd.Execute()
}
