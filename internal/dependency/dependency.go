// Package dependency computes parallel load plans: the requested
// component set is partitioned into dependency levels so that
// everything in a level can load concurrently once every earlier level
// has finished. Grounded in the original Python
// app/core/parallel_loader.py (_build_dependency_graph,
// _topological_sort, get_load_plan) and in the cycle-detection pattern
// from other_examples' moolen-spectre lifecycle manager.
package dependency

import (
	"fmt"
	"sort"
)

// CycleDetectedError is returned when the requested subgraph is not
// acyclic; parallel_loader.py instead logs a warning and flushes the
// remainder as a single final level, but an explicit error lets callers
// in this codebase decide how to react (SPEC_FULL.md §9).
type CycleDetectedError struct {
	Remaining []string
}

func (e *CycleDetectedError) Error() string {
	return fmt.Sprintf("dependency: cycle detected, components never became ready: %v", e.Remaining)
}

// ComponentLookup gives the resolver just enough information about a
// component to build a load plan, without depending on the registry
// package directly.
type ComponentLookup interface {
	Dependencies(name string) []string
	ResourceRequirement(name string) int
	LoadPriority(name string) int
}

// Plan is the result of resolving a requested component set into
// ordered, independently-loadable levels (spec.md §4.4 DependencyGraph
// / LoadPlan).
type Plan struct {
	Levels                [][]string
	EstimatedTimeSeconds  float64
	ParallelizationFactor float64
}

// Resolve partitions requested into dependency levels via Kahn's
// algorithm restricted to the requested subgraph: a component's
// in-degree counts only dependencies that are themselves in the
// requested set. Within a level, names are sorted for determinism.
func Resolve(requested []string, lookup ComponentLookup) (Plan, error) {
	inSet := make(map[string]bool, len(requested))
	for _, name := range requested {
		inSet[name] = true
	}

	inDegree := make(map[string]int, len(requested))
	dependents := make(map[string][]string)

	for _, name := range requested {
		deps := lookup.Dependencies(name)
		count := 0
		for _, dep := range deps {
			if inSet[dep] {
				count++
				dependents[dep] = append(dependents[dep], name)
			}
		}
		inDegree[name] = count
	}

	remaining := make(map[string]bool, len(requested))
	for _, name := range requested {
		remaining[name] = true
	}

	var levels [][]string
	for len(remaining) > 0 {
		var ready []string
		for name := range remaining {
			if inDegree[name] == 0 {
				ready = append(ready, name)
			}
		}
		if len(ready) == 0 {
			var stuck []string
			for name := range remaining {
				stuck = append(stuck, name)
			}
			sortByPriority(stuck, lookup)
			levels = append(levels, stuck)
			return buildPlan(levels, nil, lookup), &CycleDetectedError{Remaining: stuck}
		}

		sortByPriority(ready, lookup)
		levels = append(levels, ready)

		for _, name := range ready {
			delete(remaining, name)
			for _, dependent := range dependents[name] {
				inDegree[dependent]--
			}
		}
	}

	return buildPlan(levels, nil, lookup), nil
}

// sortByPriority orders a level ascending by load priority, tie-broken
// by name, matching registry.Registry.ByPriority's comparator
// (spec.md §4.4 step 3).
func sortByPriority(names []string, lookup ComponentLookup) {
	sort.Slice(names, func(i, j int) bool {
		pi, pj := lookup.LoadPriority(names[i]), lookup.LoadPriority(names[j])
		if pi != pj {
			return pi < pj
		}
		return names[i] < names[j]
	})
}

// buildPlan follows parallel_loader.py's get_load_plan time model with
// one deliberate correction: the original sums its members' times per
// level, but each level runs its members concurrently, so here a level's
// duration is bounded by its slowest component (max(requirement_mb/100,
// 0.5) seconds); levels run
// one after another, so the plan's estimated time is the sum of
// per-level durations. parallelization_factor is component count over
// level count, matching the original's crude "how much wider than tall"
// measure.
func buildPlan(levels [][]string, _ any, lookup ComponentLookup) Plan {
	totalSeconds := 0.0
	componentCount := 0
	for _, level := range levels {
		levelSeconds := 0.0
		for _, name := range level {
			req := lookup.ResourceRequirement(name)
			seconds := float64(req) / 100.0
			if seconds < 0.5 {
				seconds = 0.5
			}
			if seconds > levelSeconds {
				levelSeconds = seconds
			}
			componentCount++
		}
		totalSeconds += levelSeconds
	}

	factor := 1.0
	if len(levels) > 0 {
		factor = float64(componentCount) / float64(len(levels))
	}

	return Plan{
		Levels:                levels,
		EstimatedTimeSeconds:  totalSeconds,
		ParallelizationFactor: factor,
	}
}
