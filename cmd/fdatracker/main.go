package main

import (
	"fmt"
	"os"

	"github.com/mwantia/fdatracker/cmd/fdatracker/cli"
	"github.com/mwantia/fdatracker/cmd/fdatracker/cli/client"
	"github.com/mwantia/fdatracker/cmd/fdatracker/cli/server"
)

var (
	version = "0.0.1-dev"
	commit  = "main"
)

func main() {
	info := cli.VersionInfo{
		Version: version,
		Commit:  commit,
	}
	root := cli.NewRootCommand(info)

	root.AddCommand(cli.NewVersionCommand(info))

	root.AddCommand(server.NewAgentCommand())
	root.AddCommand(server.NewConfigCommand())
	root.AddCommand(server.NewMigrateCommand())
	root.AddCommand(server.NewTokenCommand())

	root.AddCommand(client.NewDataCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
