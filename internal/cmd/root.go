// Package cmd implements pkgctl's Cobra command tree (SPEC_FULL.md §1):
// a root command plus one subcommand per Operation Dispatcher entry
// point, following the teacher's cmd/linear-fuse -> internal/cmd split
// (root command + persistent flags for config path / verbosity).
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jra3/pkgctl/internal/config"
	"github.com/jra3/pkgctl/internal/depot"
	"github.com/jra3/pkgctl/internal/envcache"
	"github.com/jra3/pkgctl/internal/ops"
	"github.com/jra3/pkgctl/internal/runtime"
)

var rootCmd = &cobra.Command{
	Use:   "pkgctl",
	Short: "Manage a package environment's project, manifest, and depot",
	Long:  `pkgctl resolves, installs, precompiles, and garbage-collects packages across one or more content-addressed depots.`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (not read: configuration always comes from $XDG_CONFIG_HOME/pkgctl/config.yaml or ~/.config/pkgctl/config.yaml)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "enable verbose logging")
}

func debugFlag(cmd *cobra.Command) bool {
	debug, _ := cmd.Flags().GetBool("debug")
	if !debug {
		debug, _ = cmd.Root().PersistentFlags().GetBool("debug")
	}
	return debug
}

// buildDispatcher loads ambient config and constructs a Dispatcher over
// the current directory's environment. Out-of-scope collaborators
// (Resolver, Downloader, Registry, BuildRunner, GitClient, TestRunner —
// spec §1) are left nil: a caller embedding pkgctl as a library supplies
// real ones, and the dispatcher itself rejects operations that need a
// collaborator that wasn't configured (see internal/ops).
func buildDispatcher(cmd *cobra.Command) (*ops.Dispatcher, *envcache.Cache, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}

	wd, err := os.Getwd()
	if err != nil {
		return nil, nil, fmt.Errorf("getwd: %w", err)
	}

	env, err := envcache.Load(wd)
	if err != nil {
		return nil, nil, fmt.Errorf("loading environment: %w", err)
	}

	var depotRoot depot.Root
	if len(cfg.DepotRoots) > 0 {
		depotRoot = depot.Root(cfg.DepotRoots[0])
	}

	rt := runtime.New(nil)
	if debugFlag(cmd) {
		rt.Logger.SetPrefix("[pkgctl] ")
	}

	d := &ops.Dispatcher{
		RT:    rt,
		Depot: depotRoot,
	}
	return d, env, nil
}

func printErr(err error) error {
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
	}
	return err
}
