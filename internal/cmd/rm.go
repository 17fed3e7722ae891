package cmd

import (
	"github.com/spf13/cobra"

	"github.com/jra3/pkgctl/internal/ops"
	"github.com/jra3/pkgctl/internal/specvalidate"
)

var rmManifestOnly bool

var rmCmd = &cobra.Command{
	Use:   "rm Package...",
	Short: "Remove packages from the active project",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, env, err := buildDispatcher(cmd)
		if err != nil {
			return printErr(err)
		}
		mode := specvalidate.ModeProject
		if rmManifestOnly {
			mode = specvalidate.ModeManifest
		}
		specs := parseNameSpecs(args, mode)
		return printErr(d.Rm(cmd.Context(), env, specs, ops.RmOptions{Mode: mode}))
	},
}

func init() {
	rmCmd.Flags().BoolVar(&rmManifestOnly, "manifest", false, "remove from the manifest and from the project's dependencies")
	rootCmd.AddCommand(rmCmd)
}
