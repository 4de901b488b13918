package main

import (
	"fmt"

	"booking-service/internal/config"

	"github.com/spf13/cobra"
)

var (
	Version   = "dev"
	CommitSHA = "none"
)

type rootOptions struct {
	configDirs []string
}

func (o *rootOptions) load() (*config.Config, error) {
	return config.Load(o.configDirs...)
}

func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "bookingctl",
		Short:         "Operator tool for the booking service schedule and database",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringSliceVar(&opts.configDirs, "config-dir", nil, "directories searched for booking.yaml (default . and ./config)")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newRulesCmd(opts))
	root.AddCommand(newSlotsCmd(opts))
	root.AddCommand(newMigrateCmd(opts))
	root.AddCommand(newHashPasswordCmd())

	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version info",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "bookingctl %s (commit=%s)\n", Version, CommitSHA)
		},
	}
}
