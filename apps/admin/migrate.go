package main

import (
	"github.com/spf13/cobra"

	"github.com/sistematutorias/tutorias/storage/database"
)

var gooseRunFunc = database.MigrateTo // mockable

func (cli *commandLine) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate COMMAND [ARGS...]",
		Short: "Run a goose command against the embedded migrations",
		Long: `Run a goose command against the embedded migrations.

Commands: up, up-by-one, up-to VERSION, down, down-to VERSION, redo, reset, status, version, fix.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cli.db == nil {
				return errNoDatabase
			}
			return gooseRunFunc(cli.db, args[0], args[1:]...)
		},
	}
}
