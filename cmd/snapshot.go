package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var snapshotCmd = &cobra.Command{
	Use:           "snapshot",
	Short:         "Take a snapshot of the stored tree",
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runSnapshot,
}

func init() {
	snapshotCmd.Flags().Bool("list", false, "list retained snapshots instead of taking one")
	rootCmd.AddCommand(snapshotCmd)
}

func runSnapshot(cmd *cobra.Command, _ []string) error {
	a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer a.Close()
	out := cmd.OutOrStdout()

	if list, _ := cmd.Flags().GetBool("list"); list {
		for i, snap := range a.fs.Snapshots() {
			fmt.Fprintf(out, "%d %s %s (%s)\n", i, snap.ID, snap.Created.Format("2006-01-02 15:04:05"), humanize.Time(snap.Created))
		}
		return nil
	}

	snap, err := a.fs.Snapshot()
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s %s\n", snap.ID, snap.Digest)
	return nil
}
