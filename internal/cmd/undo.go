package cmd

import (
	"github.com/spf13/cobra"
)

var undoCmd = &cobra.Command{
	Use:   "undo",
	Short: "Restore the project and manifest to the previous undo snapshot",
	RunE: func(cmd *cobra.Command, args []string) error {
		d, env, err := buildDispatcher(cmd)
		if err != nil {
			return printErr(err)
		}
		return printErr(d.Undo(env))
	},
}

var redoCmd = &cobra.Command{
	Use:   "redo",
	Short: "Re-apply a snapshot previously undone",
	RunE: func(cmd *cobra.Command, args []string) error {
		d, env, err := buildDispatcher(cmd)
		if err != nil {
			return printErr(err)
		}
		return printErr(d.Redo(env))
	},
}

func init() {
	rootCmd.AddCommand(undoCmd)
	rootCmd.AddCommand(redoCmd)
}
