package cmd

import (
	"strings"

	"github.com/jra3/pkgctl/internal/specvalidate"
)

// parseAddSpecs turns CLI arguments like "Foo", "Foo@1.2.3", or
// "Foo#main" (git-tree style @version / #revision suffixes, matching
// the original tool's REPL syntax) into specs: registry-tracked, except
// that the "#revision" form yields a repo-tracked spec.
func parseAddSpecs(args []string, mode specvalidate.Mode) []specvalidate.Spec {
	specs := make([]specvalidate.Spec, 0, len(args))
	for _, arg := range args {
		s := specvalidate.Spec{Mode: mode, Tracking: specvalidate.RegistryTracking{}}
		switch {
		case strings.Contains(arg, "@"):
			parts := strings.SplitN(arg, "@", 2)
			s.Name = parts[0]
			s.VersionLower = parts[1]
			s.VersionUpper = parts[1]
		case strings.Contains(arg, "#"):
			parts := strings.SplitN(arg, "#", 2)
			s.Name = parts[0]
			s.Tracking = specvalidate.RepoTracking{Revision: parts[1]}
		default:
			s.Name = arg
		}
		specs = append(specs, s)
	}
	return specs
}

// parseNameSpecs turns plain package-name arguments into bare specs for
// operations that only need a name/uuid to resolve against an existing
// environment (rm, pin, free, test, build).
func parseNameSpecs(args []string, mode specvalidate.Mode) []specvalidate.Spec {
	specs := make([]specvalidate.Spec, 0, len(args))
	for _, arg := range args {
		specs = append(specs, specvalidate.Spec{Name: arg, Mode: mode})
	}
	return specs
}
