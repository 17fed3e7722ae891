package cmd

import (
	"github.com/spf13/cobra"

	"github.com/jra3/pkgctl/internal/ops"
	"github.com/jra3/pkgctl/internal/specvalidate"
)

var testCoverage bool

var testCmd = &cobra.Command{
	Use:   "test [Package...]",
	Short: "Run each package's test suite via the configured test runner",
	RunE: func(cmd *cobra.Command, args []string) error {
		d, env, err := buildDispatcher(cmd)
		if err != nil {
			return printErr(err)
		}
		specs := parseNameSpecs(args, specvalidate.ModeManifest)
		return printErr(d.Test(cmd.Context(), env, specs, ops.TestOptions{Coverage: testCoverage}))
	},
}

var buildCmd = &cobra.Command{
	Use:   "build [Package...]",
	Short: "Run each package's build script via the configured build runner",
	RunE: func(cmd *cobra.Command, args []string) error {
		d, env, err := buildDispatcher(cmd)
		if err != nil {
			return printErr(err)
		}
		specs := parseNameSpecs(args, specvalidate.ModeManifest)
		return printErr(d.Build(cmd.Context(), env, specs))
	},
}

func init() {
	testCmd.Flags().BoolVar(&testCoverage, "coverage", false, "collect coverage during the test run")
	rootCmd.AddCommand(testCmd)
	rootCmd.AddCommand(buildCmd)
}
