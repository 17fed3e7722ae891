package cmd

import (
	"github.com/spf13/cobra"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Re-resolve the manifest against the current project without bumping versions",
	RunE: func(cmd *cobra.Command, args []string) error {
		d, env, err := buildDispatcher(cmd)
		if err != nil {
			return printErr(err)
		}
		return printErr(d.Resolve(cmd.Context(), env, nil))
	},
}

func init() {
	rootCmd.AddCommand(resolveCmd)
}
