package cmd

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/jra3/pkgctl/internal/config"
	"github.com/jra3/pkgctl/internal/depot"
	"github.com/jra3/pkgctl/internal/gc"
	"github.com/jra3/pkgctl/internal/ops"
)

var gcCmd = &cobra.Command{
	Use:   "gc",
	Short: "Sweep every configured depot for content no longer reachable from any environment",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return printErr(err)
		}

		roots := make([]depot.Root, len(cfg.DepotRoots))
		for i, r := range cfg.DepotRoots {
			roots[i] = depot.Root(r)
		}

		driver := &gc.Driver{Depots: roots, Verbose: debugFlag(cmd)}
		d := &ops.Dispatcher{}
		result, err := d.GC(cmd.Context(), driver, ops.GCOptions{
			CollectDelay: cfg.GC.CollectDelay,
			Verbose:      debugFlag(cmd),
		})
		if err != nil {
			return printErr(err)
		}

		fmt.Printf("gc: removed %d packages, %d artifacts, %d clones, %d scratch dirs, freed %s (%d errors)\n",
			result.DeletedPackages, result.DeletedArtifacts, result.DeletedClones, result.DeletedScratch,
			humanize.Bytes(uint64(result.FreedBytes)), result.DeleteErrors)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(gcCmd)
}
