package cmd

import (
	"github.com/spf13/cobra"

	"github.com/jra3/pkgctl/internal/ops"
)

var (
	instantiatePlatform       string
	instantiateUpdateRegistry bool
)

var instantiateCmd = &cobra.Command{
	Use:   "instantiate",
	Short: "Materialise every manifest entry's source and artifacts into the depot",
	RunE: func(cmd *cobra.Command, args []string) error {
		d, env, err := buildDispatcher(cmd)
		if err != nil {
			return printErr(err)
		}
		opts := ops.InstantiateOptions{
			Platform:       instantiatePlatform,
			UpdateRegistry: instantiateUpdateRegistry,
			Verbose:        debugFlag(cmd),
		}
		return printErr(d.Instantiate(cmd.Context(), env, opts))
	},
}

func init() {
	instantiateCmd.Flags().StringVar(&instantiatePlatform, "platform", "", "target platform triple for artifact downloads (default: none, no artifacts downloaded)")
	instantiateCmd.Flags().BoolVar(&instantiateUpdateRegistry, "update-registry", false, "refresh the registry before instantiating")
	rootCmd.AddCommand(instantiateCmd)
}
