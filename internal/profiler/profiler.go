// Package profiler builds a post-startup report of where time went and
// suggests optimizations, grounded in the original Python
// app/profiling/startup_profiler.py. Profiles are persisted with
// bytedance/sonic instead of encoding/json (SPEC_FULL.md §6).
package profiler

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/bytedance/sonic"

	"github.com/systemsim/component-loader/internal/registry"
)

// heavyComponentMB mirrors startup_profiler.py's hardcoded 100MB
// "heavy component" threshold for the lazy-load suggestion rule.
const heavyComponentMB = 100

// bottleneckShare is the fraction of total duration a single
// component's load time must exceed to be flagged a bottleneck.
const bottleneckShare = 0.2

// ComponentProfile is one component's contribution to a startup
// (spec.md §4.7 ComponentProfile).
type ComponentProfile struct {
	Name       string
	LoadTimeMS float64
	IsBlocking bool
	LoadOrder  int
	Success    bool
	ResourceMB int
	DepsCount  int
}

// Profile is the full report for one startup run (spec.md §4.7
// StartupProfile).
type Profile struct {
	GeneratedAt        time.Time
	TotalDurationMS    float64
	Components         []ComponentProfile
	SuccessfulCount    int
	FailedCount        int
	ParallelEfficiency float64
	Bottlenecks        []string
	Suggestions        []string
}

// Build constructs a Profile from the registry's current state. Each
// component's LoadOrder is its index in order (0 for names absent from
// order), and components are sorted by it; it is whatever sequence the
// caller passes, not a measured load-start time, so under parallel
// loading it is NOT a meaningful serialization (spec.md §9 open
// question resolved: load_order is advisory only, kept for parity with
// the original report format).
func Build(all []registry.Component, order []string, totalDurationMS float64) *Profile {
	positions := make(map[string]int, len(order))
	for i, name := range order {
		positions[name] = i
	}

	var (
		components      []ComponentProfile
		successfulCount int
		failedCount     int
		totalSerialMS   float64
	)

	for _, c := range all {
		if c.State.LoadTimeMS <= 0 {
			continue
		}
		success := c.State.Status == registry.StatusLoaded
		if success {
			successfulCount++
		} else if c.State.Status == registry.StatusFailed {
			failedCount++
		}

		cp := ComponentProfile{
			Name:       c.Metadata.Name,
			LoadTimeMS: c.State.LoadTimeMS,
			IsBlocking: len(c.Metadata.Dependencies) > 0,
			LoadOrder:  positions[c.Metadata.Name],
			Success:    success,
			ResourceMB: c.Metadata.ResourceRequirement,
			DepsCount:  len(c.Metadata.Dependencies),
		}
		components = append(components, cp)
		totalSerialMS += c.State.LoadTimeMS
	}

	sort.Slice(components, func(i, j int) bool { return components[i].LoadOrder < components[j].LoadOrder })

	efficiency := 1.0
	if totalDurationMS > 0 {
		efficiency = totalSerialMS / totalDurationMS
	}

	var bottlenecks []string
	for _, cp := range components {
		if totalDurationMS > 0 && cp.LoadTimeMS > totalDurationMS*bottleneckShare {
			bottlenecks = append(bottlenecks, cp.Name)
		}
	}

	p := &Profile{
		GeneratedAt:        time.Now(),
		TotalDurationMS:    totalDurationMS,
		Components:         components,
		SuccessfulCount:    successfulCount,
		FailedCount:        failedCount,
		ParallelEfficiency: efficiency,
		Bottlenecks:        bottlenecks,
	}
	p.Suggestions = generateSuggestions(p)
	return p
}

// generateSuggestions mirrors startup_profiler.py's
// _generate_suggestions rule set.
func generateSuggestions(p *Profile) []string {
	var suggestions []string

	if len(p.Bottlenecks) > 0 {
		suggestions = append(suggestions, fmt.Sprintf(
			"Components %v dominate startup time; consider loading them lazily or in the background", p.Bottlenecks))
	}

	var heavy []string
	for _, cp := range p.Components {
		if cp.ResourceMB > heavyComponentMB {
			heavy = append(heavy, cp.Name)
		}
	}
	if len(heavy) > 0 {
		suggestions = append(suggestions, fmt.Sprintf(
			"Heavy components %v (>100MB) should be lazy-loaded on first use rather than at startup", heavy))
	}

	if p.ParallelEfficiency < 0.3 {
		suggestions = append(suggestions,
			"Parallel efficiency is low; flatten the dependency graph to unlock more concurrent loading")
	}

	maxDeps := 0
	for _, cp := range p.Components {
		if cp.DepsCount > maxDeps {
			maxDeps = cp.DepsCount
		}
	}
	if maxDeps > 3 {
		suggestions = append(suggestions,
			"Some components have more than 3 dependencies; restructuring the dependency graph may shorten the critical path")
	}

	if p.TotalDurationMS > 3000 {
		suggestions = append(suggestions,
			"Total startup exceeds 3s; investigate the critical path for further parallelization opportunities")
	}

	return suggestions
}

// Save writes profile as JSON to dir/startup_profile_<timestamp>.json
// using bytedance/sonic, matching save_profile's naming scheme.
func Save(dir string, profile *Profile, timestamp string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, fmt.Sprintf("startup_profile_%s.json", timestamp))

	data, err := sonic.MarshalIndent(profile, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// Load reads a previously saved Profile back from disk.
func Load(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var p Profile
	if err := sonic.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// ComponentDelta is one component's load-time change between two
// profiles.
type ComponentDelta struct {
	Name     string
	BeforeMS float64
	AfterMS  float64
	DeltaMS  float64
}

// Comparison is the result of comparing two profiles (spec.md §4.7
// compare_profiles).
type Comparison struct {
	DurationDeltaPercent float64
	EfficiencyDelta      float64
	TopComponentDeltas   []ComponentDelta
}

// Compare diffs two profiles, matching startup_profiler.py's
// compare_profiles (percent duration change, efficiency delta, top 10
// per-component deltas sorted by absolute magnitude).
func Compare(before, after *Profile) Comparison {
	var durationDeltaPercent float64
	if before.TotalDurationMS > 0 {
		durationDeltaPercent = (after.TotalDurationMS - before.TotalDurationMS) / before.TotalDurationMS * 100
	}

	beforeByName := make(map[string]float64, len(before.Components))
	for _, cp := range before.Components {
		beforeByName[cp.Name] = cp.LoadTimeMS
	}

	var deltas []ComponentDelta
	seen := make(map[string]bool)
	for _, cp := range after.Components {
		b := beforeByName[cp.Name]
		deltas = append(deltas, ComponentDelta{Name: cp.Name, BeforeMS: b, AfterMS: cp.LoadTimeMS, DeltaMS: cp.LoadTimeMS - b})
		seen[cp.Name] = true
	}
	for name, b := range beforeByName {
		if !seen[name] {
			deltas = append(deltas, ComponentDelta{Name: name, BeforeMS: b, AfterMS: 0, DeltaMS: -b})
		}
	}

	sort.Slice(deltas, func(i, j int) bool { return abs(deltas[i].DeltaMS) > abs(deltas[j].DeltaMS) })
	if len(deltas) > 10 {
		deltas = deltas[:10]
	}

	return Comparison{
		DurationDeltaPercent: durationDeltaPercent,
		EfficiencyDelta:      after.ParallelEfficiency - before.ParallelEfficiency,
		TopComponentDeltas:   deltas,
	}
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
