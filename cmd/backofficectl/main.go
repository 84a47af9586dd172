package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "backofficectl",
	Short:        "Back office maintenance CLI",
	Long:         "Operational commands for the back office: schema migration, admin bootstrap and job queue maintenance.",
	SilenceUsage: true,
}

func init() {
	// Database
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedAdminCmd)
	rootCmd.AddCommand(reconcileCmd)

	// Auth
	rootCmd.AddCommand(hashPasswordCmd)

	// Queue
	rootCmd.AddCommand(dlqStatusCmd)
	rootCmd.AddCommand(dlqReplayCmd)
}
