// Package main is the entry point for kanbanctl, the kanban server operator CLI.
package main

import (
	"os"

	"github.com/listenupapp/kanban-server/cmd/kanbanctl/commands"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.SetVersionInfo(version, commit, date)
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
