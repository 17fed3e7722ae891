package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jra3/pkgctl/internal/pkgid"
	"github.com/jra3/pkgctl/internal/precompile"
	"github.com/jra3/pkgctl/internal/precompile/progress"
)

var precompileClear bool

var precompileCmd = &cobra.Command{
	Use:   "precompile",
	Short: "Precompile every package in the manifest's dependency graph",
	RunE: func(cmd *cobra.Command, args []string) error {
		d, env, err := buildDispatcher(cmd)
		if err != nil {
			return printErr(err)
		}

		var renderer *progress.Renderer[pkgid.ID]
		d.OnSchedulerStart = func(sched *precompile.Scheduler) {
			renderer = progress.New(os.Stderr, 500*time.Millisecond, sched.Total(), sched.Done, sched.Queue(), pkgid.ID.String)
			renderer.Start()
		}

		report, err := d.Precompile(cmd.Context(), env, precompileClear)
		if renderer != nil {
			renderer.Stop()
		}
		if err != nil {
			return printErr(err)
		}
		fmt.Printf("precompile: %d done, %d already precompiled, %d failed, %d skipped, %d circular\n",
			report.NDone, report.NAlreadyPrecompiled, len(report.Failed), len(report.Skipped), len(report.Circular))
		return nil
	},
}

func init() {
	precompileCmd.Flags().BoolVar(&precompileClear, "clear", true, "clear the suspended-package list before compiling")
	rootCmd.AddCommand(precompileCmd)
}
