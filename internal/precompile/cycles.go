package precompile

import (
	"os"
	"runtime"
	"strconv"

	"github.com/jra3/pkgctl/internal/pkgid"
)

// detectCycles runs a DFS over depsMap and returns every package that
// participates in a cycle. Detected via an explicit recursion-stack set
// rather than relying on runtime stack overflow (spec §9 design note).
func detectCycles(depsMap map[pkgid.ID][]pkgid.ID) map[pkgid.ID]struct{} {
	const (
		white = 0 // unvisited
		gray  = 1 // on the current recursion stack
		black = 2 // fully explored
	)
	color := make(map[pkgid.ID]int, len(depsMap))
	circular := map[pkgid.ID]struct{}{}

	var visit func(id pkgid.ID, stack []pkgid.ID)
	visit = func(id pkgid.ID, stack []pkgid.ID) {
		color[id] = gray
		stack = append(stack, id)
		for _, dep := range depsMap[id] {
			switch color[dep] {
			case white:
				visit(dep, stack)
			case gray:
				// dep is on the current stack: every node from dep's
				// position onward (inclusive) is part of a cycle.
				for i, s := range stack {
					if s == dep {
						for _, c := range stack[i:] {
							circular[c] = struct{}{}
						}
						break
					}
				}
				circular[id] = struct{}{}
			}
		}
		color[id] = black
	}

	for id := range depsMap {
		if color[id] == white {
			visit(id, nil)
		}
	}
	return circular
}

func defaultParallelism() int {
	if n, err := strconv.Atoi(os.Getenv("JULIA_NUM_PRECOMPILE_TASKS")); err == nil && n > 0 {
		return n
	}
	return runtime.NumCPU() + 1
}
