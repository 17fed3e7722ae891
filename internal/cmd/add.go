package cmd

import (
	"github.com/spf13/cobra"

	"github.com/jra3/pkgctl/internal/ops"
	"github.com/jra3/pkgctl/internal/specvalidate"
)

var addCmd = &cobra.Command{
	Use:   "add [Package[@version]]...",
	Short: "Add packages to the active project",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, env, err := buildDispatcher(cmd)
		if err != nil {
			return printErr(err)
		}
		specs := parseAddSpecs(args, specvalidate.ModeProject)
		return printErr(d.Add(cmd.Context(), env, specs, ops.AddOptions{}))
	},
}

var developCmd = &cobra.Command{
	Use:   "develop Package=/path/to/checkout",
	Short: "Track a package against a local checkout",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, env, err := buildDispatcher(cmd)
		if err != nil {
			return printErr(err)
		}

		specs := make([]specvalidate.Spec, 0, len(args))
		for _, arg := range args {
			name, path, _ := splitOnce(arg, '=')
			specs = append(specs, specvalidate.Spec{
				Name:     name,
				Tracking: specvalidate.PathTracking{Path: path},
			})
		}
		return printErr(d.Develop(cmd.Context(), env, specs, ops.DevelopOptions{}))
	},
}

func splitOnce(s string, sep byte) (string, string, bool) {
	for i := 0; i < len(s); i++ {
		if s[i] == sep {
			return s[:i], s[i+1:], true
		}
	}
	return s, "", false
}

func init() {
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(developCmd)
}
