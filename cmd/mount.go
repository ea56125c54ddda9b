package main

import (
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/brettbedarf/simfs/internal/util"
	"github.com/brettbedarf/simfs/server"
)

var mountCmd = &cobra.Command{
	Use:   "mount <mountpoint>",
	Short: "Export the tree read-only over FUSE",
	Long: `Mount a read-only copy of the tree as it is when the command starts.
Permission bits, sizes and times are kept; nodes owned by the acting user
appear owned by the mounting user. Stop with Ctrl-C to unmount.`,
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runMount,
}

func init() {
	mountCmd.Flags().Bool("umount", false,
		"Unmount the mountpoint first if needed before mounting again. Useful for debuggers that don't exit properly.")
	rootCmd.AddCommand(mountCmd)
}

func runMount(cmd *cobra.Command, args []string) error {
	a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer a.Close()
	logger := util.GetLogger("main")
	mnt := args[0]

	// Try unmount if requested
	if umount, _ := cmd.Flags().GetBool("umount"); umount {
		// we ignore error here if not already mounted
		exec.Command("fusermount", "-u", mnt).Run() // nolint:errcheck
	}

	export := server.New(a.cfg, a.fs.Root())
	if err := export.Serve(mnt); err != nil {
		return err
	}

	// Setup signal handling for graceful shutdown
	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	logger.Info().Str("mountpoint", mnt).Msg("Filesystem mounted successfully")

	sig := <-signalChan
	logger.Info().Str("signal", sig.String()).Msg("Received signal, unmounting filesystem")
	if err := export.Unmount(); err != nil {
		logger.Error().Err(err).Msg("Failed to unmount filesystem")
		return err
	}
	logger.Info().Msg("Filesystem unmounted successfully")
	return nil
}
