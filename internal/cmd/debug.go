package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jra3/pkgctl/internal/config"
	"github.com/jra3/pkgctl/internal/envcache"
	"github.com/jra3/pkgctl/pkg/depotfs"
)

var debugCmd = &cobra.Command{
	Use:   "debug",
	Short: "Diagnostic subcommands not part of the stable CLI surface",
}

var debugMountCmd = &cobra.Command{
	Use:   "mount mountpoint",
	Short: "Mount a read-only view of the resolved manifest's package trees",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return printErr(fmt.Errorf("loading config: %w", err))
		}

		wd, err := os.Getwd()
		if err != nil {
			return printErr(err)
		}
		env, err := envcache.Load(wd)
		if err != nil {
			return printErr(fmt.Errorf("loading environment: %w", err))
		}

		mountpoint := args[0]
		if err := os.MkdirAll(mountpoint, 0755); err != nil {
			return printErr(fmt.Errorf("creating mountpoint: %w", err))
		}

		debug := debugFlag(cmd)
		server, err := depotfs.Mount(env, cfg.DepotRoots, mountpoint, debug)
		if err != nil {
			return printErr(fmt.Errorf("mounting: %w", err))
		}

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			<-sigChan
			fmt.Println("\nunmounting...")
			server.Unmount()
		}()

		fmt.Printf("mounted at %s, press Ctrl+C to unmount\n", mountpoint)
		server.Wait()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(debugCmd)
	debugCmd.AddCommand(debugMountCmd)
}
