package cmd

import (
	"github.com/spf13/cobra"

	"github.com/jra3/pkgctl/internal/ops"
	"github.com/jra3/pkgctl/internal/specvalidate"
)

var pinCmd = &cobra.Command{
	Use:   "pin Package...",
	Short: "Pin packages to their currently resolved version",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, env, err := buildDispatcher(cmd)
		if err != nil {
			return printErr(err)
		}
		specs := parseNameSpecs(args, specvalidate.ModeManifest)
		return printErr(d.Pin(cmd.Context(), env, specs))
	},
}

var freeCmd = &cobra.Command{
	Use:   "free Package...",
	Short: "Unpin packages and clear path/repo tracking",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, env, err := buildDispatcher(cmd)
		if err != nil {
			return printErr(err)
		}
		specs := parseNameSpecs(args, specvalidate.ModeManifest)
		return printErr(d.Free(cmd.Context(), env, specs, ops.FreeOptions{Mode: specvalidate.ModeManifest}))
	},
}

func init() {
	rootCmd.AddCommand(pinCmd)
	rootCmd.AddCommand(freeCmd)
}
