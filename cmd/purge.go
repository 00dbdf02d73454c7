package cmd

import (
	"errors"
	"fmt"

	"attendance/config"

	"github.com/spf13/cobra"
)

var purgeConfirmed bool

var errPurgeNotConfirmed = errors.New("refusing to delete every attendance record without --yes")

var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete all attendance records",
	Long: `purge removes every attendance record from the database and the
cache. The spreadsheet mirror is left untouched.`,
	Args: cobra.NoArgs,
	RunE: runPurge,
}

func init() {
	purgeCmd.Flags().BoolVar(&purgeConfirmed, "yes", false, "Confirm the deletion")
}

func runPurge(cmd *cobra.Command, args []string) error {
	if !purgeConfirmed {
		return errPurgeNotConfirmed
	}

	cfg := config.Get()
	log, logCloser, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logCloser.Close()

	comps, err := config.InitComponents(cmd.Context(), cfg, log, false)
	if err != nil {
		return err
	}
	defer comps.Close()

	n, err := comps.Service.Purge(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d attendance records\n", n)
	return nil
}
