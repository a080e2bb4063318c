package dependency

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLookup struct {
	deps  map[string][]string
	reqs  map[string]int
	prios map[string]int
}

func (f fakeLookup) Dependencies(name string) []string  { return f.deps[name] }
func (f fakeLookup) ResourceRequirement(name string) int { return f.reqs[name] }
func (f fakeLookup) LoadPriority(name string) int        { return f.prios[name] }

func TestResolveLinearChainProducesOneComponentPerLevel(t *testing.T) {
	lookup := fakeLookup{
		deps: map[string][]string{
			"config":   {},
			"database": {"config"},
			"backup":   {"database"},
		},
		reqs: map[string]int{"config": 10, "database": 50, "backup": 50},
	}

	plan, err := Resolve([]string{"config", "database", "backup"}, lookup)
	require.NoError(t, err)
	require.Len(t, plan.Levels, 3)
	assert.Equal(t, []string{"config"}, plan.Levels[0])
	assert.Equal(t, []string{"database"}, plan.Levels[1])
	assert.Equal(t, []string{"backup"}, plan.Levels[2])
	assert.Equal(t, 1.0, plan.ParallelizationFactor)
}

func TestResolveIndependentComponentsShareOneLevel(t *testing.T) {
	lookup := fakeLookup{
		deps: map[string][]string{"config": {}, "logger": {}, "guardian": {}},
		reqs: map[string]int{"config": 10, "logger": 10, "guardian": 5},
	}

	plan, err := Resolve([]string{"config", "logger", "guardian"}, lookup)
	require.NoError(t, err)
	require.Len(t, plan.Levels, 1)
	assert.ElementsMatch(t, []string{"config", "logger", "guardian"}, plan.Levels[0])
	assert.Equal(t, 3.0, plan.ParallelizationFactor)
}

func TestResolveDependencyOutsideRequestedSetIsIgnored(t *testing.T) {
	lookup := fakeLookup{
		deps: map[string][]string{"database": {"config"}},
		reqs: map[string]int{"database": 50},
	}

	plan, err := Resolve([]string{"database"}, lookup)
	require.NoError(t, err)
	require.Len(t, plan.Levels, 1)
	assert.Equal(t, []string{"database"}, plan.Levels[0])
}

func TestResolveDetectsCycle(t *testing.T) {
	lookup := fakeLookup{
		deps: map[string][]string{"a": {"b"}, "b": {"a"}},
		reqs: map[string]int{"a": 10, "b": 10},
	}

	_, err := Resolve([]string{"a", "b"}, lookup)
	require.Error(t, err)
	var cycle *CycleDetectedError
	require.ErrorAs(t, err, &cycle)
	assert.ElementsMatch(t, []string{"a", "b"}, cycle.Remaining)
}

func TestBuildPlanTimeIsBoundedBySlowestComponentPerLevel(t *testing.T) {
	lookup := fakeLookup{
		deps: map[string][]string{"sandbox": {}, "web_search": {}},
		reqs: map[string]int{"sandbox": 500, "web_search": 20},
	}

	plan, err := Resolve([]string{"sandbox", "web_search"}, lookup)
	require.NoError(t, err)
	require.Len(t, plan.Levels, 1)
	assert.InDelta(t, 5.0, plan.EstimatedTimeSeconds, 0.001, "level time is max(500/100, 20/100)=5.0, not their sum")
}
