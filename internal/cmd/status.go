package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jra3/pkgctl/internal/ops"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show packages added, removed, or changed since this environment was loaded",
	RunE: func(cmd *cobra.Command, args []string) error {
		d, env, err := buildDispatcher(cmd)
		if err != nil {
			return printErr(err)
		}

		for _, entry := range d.Status(env, ops.StatusOptions{}) {
			switch {
			case entry.Added:
				fmt.Printf("+ %s %s\n", entry.Name, entry.UUID)
			case entry.Removed:
				fmt.Printf("- %s %s\n", entry.Name, entry.UUID)
			case entry.Changed:
				fmt.Printf("~ %s %s\n", entry.Name, entry.UUID)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
