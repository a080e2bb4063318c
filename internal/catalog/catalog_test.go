package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systemsim/component-loader/internal/config"
	"github.com/systemsim/component-loader/internal/registry"
)

func TestRegisterPopulatesAndValidatesFullCatalog(t *testing.T) {
	reg := registry.New()
	cfg := config.Load()

	require.NoError(t, Register(reg, cfg))

	all := reg.All()
	assert.GreaterOrEqual(t, len(all), 18)

	for _, name := range []string{"config", "database", "guardian", "sandbox", "browser", "cache"} {
		c, err := reg.Get(name)
		require.NoError(t, err, "expected %s to be registered", name)
		assert.Equal(t, registry.StatusNotLoaded, c.State.Status)
	}
}

func TestBrowserAndBackupHavePreconditionsDisabledByDefault(t *testing.T) {
	reg := registry.New()
	require.NoError(t, Register(reg, config.Load()))

	assert.False(t, reg.CanLoad("browser"))
	assert.False(t, reg.CanLoad("backup"))
}
