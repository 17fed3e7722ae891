package cmd

import (
	"github.com/spf13/cobra"

	"github.com/jra3/pkgctl/internal/ops"
	"github.com/jra3/pkgctl/internal/specvalidate"
)

var upLevel string

var upCmd = &cobra.Command{
	Use:   "up [Package...]",
	Short: "Upgrade packages (or the whole manifest) within a version-bump level",
	RunE: func(cmd *cobra.Command, args []string) error {
		d, env, err := buildDispatcher(cmd)
		if err != nil {
			return printErr(err)
		}
		specs := parseNameSpecs(args, specvalidate.ModeManifest)
		return printErr(d.Up(cmd.Context(), env, specs, ops.UpOptions{Level: upLevel, Mode: specvalidate.ModeManifest}))
	},
}

func init() {
	upCmd.Flags().StringVar(&upLevel, "level", "minor", "maximum version bump: fixed, patch, minor, major")
	rootCmd.AddCommand(upCmd)
}
