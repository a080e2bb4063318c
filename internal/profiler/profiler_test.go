package profiler

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systemsim/component-loader/internal/registry"
)

func makeComponent(name string, loadTimeMS float64, status registry.Status, deps []string, resourceMB int) registry.Component {
	return registry.Component{
		Metadata: registry.Metadata{Name: name, Dependencies: deps, ResourceRequirement: resourceMB},
		State:    registry.RuntimeState{Status: status, LoadTimeMS: loadTimeMS},
	}
}

func TestBuildFlagsBottleneckOverTwentyPercent(t *testing.T) {
	all := []registry.Component{
		makeComponent("config", 50, registry.StatusLoaded, nil, 5),
		makeComponent("sandbox", 600, registry.StatusLoaded, nil, 500),
	}
	p := Build(all, []string{"config", "sandbox"}, 1000)

	assert.Contains(t, p.Bottlenecks, "sandbox")
	assert.NotContains(t, p.Bottlenecks, "config")
}

func TestBuildSuggestsLazyLoadForHeavyComponents(t *testing.T) {
	all := []registry.Component{
		makeComponent("knowledge_graph", 80, registry.StatusLoaded, nil, 150),
	}
	p := Build(all, []string{"knowledge_graph"}, 200)

	found := false
	for _, s := range p.Suggestions {
		if strings.Contains(s, "Heavy components") {
			found = true
		}
	}
	assert.True(t, found)
}

func TestBuildCountsSuccessAndFailure(t *testing.T) {
	all := []registry.Component{
		makeComponent("config", 10, registry.StatusLoaded, nil, 5),
		makeComponent("browser", 10, registry.StatusFailed, nil, 500),
	}
	p := Build(all, []string{"config", "browser"}, 100)

	assert.Equal(t, 1, p.SuccessfulCount)
	assert.Equal(t, 1, p.FailedCount)
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	p := Build([]registry.Component{makeComponent("config", 10, registry.StatusLoaded, nil, 5)}, []string{"config"}, 50)

	path, err := Save(dir, p, "20260101_000000")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "startup_profile_20260101_000000.json"), path)

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, p.TotalDurationMS, loaded.TotalDurationMS)
	require.Len(t, loaded.Components, 1)
	assert.Equal(t, "config", loaded.Components[0].Name)

	_, err = os.Stat(path)
	require.NoError(t, err)
}

func TestCompareRanksTopDeltasByMagnitude(t *testing.T) {
	before := Build([]registry.Component{
		makeComponent("database", 500, registry.StatusLoaded, nil, 50),
		makeComponent("config", 20, registry.StatusLoaded, nil, 5),
	}, []string{"database", "config"}, 600)

	after := Build([]registry.Component{
		makeComponent("database", 50, registry.StatusLoaded, nil, 50),
		makeComponent("config", 25, registry.StatusLoaded, nil, 5),
	}, []string{"database", "config"}, 100)

	cmp := Compare(before, after)
	require.NotEmpty(t, cmp.TopComponentDeltas)
	assert.Equal(t, "database", cmp.TopComponentDeltas[0].Name, "largest magnitude delta ranks first")
	assert.Less(t, cmp.DurationDeltaPercent, 0.0)
}
