package lazyloader

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systemsim/component-loader/internal/errorisolation"
	"github.com/systemsim/component-loader/internal/registry"
)

func newLoader(t *testing.T) (*Loader, *registry.Registry) {
	t.Helper()
	reg := registry.New()
	iso := errorisolation.New(3)
	return New(reg, iso, 0), reg
}

func TestLoadSucceedsAndCaches(t *testing.T) {
	loader, reg := newLoader(t)
	require.NoError(t, reg.Register(registry.Metadata{
		Name:   "config",
		Loader: func() (any, error) { return "config-instance", nil },
	}))

	var progressSeen []int
	loader.RegisterProgressCallback(func(name string, percent int) { progressSeen = append(progressSeen, percent) })

	instance, err := loader.Load(context.Background(), "config", false)
	require.NoError(t, err)
	assert.Equal(t, "config-instance", instance)
	assert.Equal(t, []int{0, 30, 60, 100}, progressSeen)

	comp, err := reg.Get("config")
	require.NoError(t, err)
	assert.Equal(t, registry.StatusLoaded, comp.State.Status)

	again, err := loader.Load(context.Background(), "config", false)
	require.NoError(t, err)
	assert.Equal(t, "config-instance", again)
}

func TestLoadReturnsMissingDependencies(t *testing.T) {
	loader, reg := newLoader(t)
	require.NoError(t, reg.Register(registry.Metadata{Name: "config"}))
	require.NoError(t, reg.Register(registry.Metadata{
		Name:         "database",
		Dependencies: []string{"config"},
		Loader:       func() (any, error) { return "db", nil },
	}))

	_, err := loader.Load(context.Background(), "database", false)
	require.Error(t, err)
	var missing *ErrMissingDependencies
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, []string{"config"}, missing.Missing)
}

func TestLoadFailurePropagatesAndNotifiesProgressMinusOne(t *testing.T) {
	loader, reg := newLoader(t)
	require.NoError(t, reg.Register(registry.Metadata{
		Name:   "sandbox",
		Loader: func() (any, error) { return nil, errors.New("container runtime missing") },
	}))

	var lastPercent int
	loader.RegisterProgressCallback(func(name string, percent int) { lastPercent = percent })

	_, err := loader.Load(context.Background(), "sandbox", false)
	require.Error(t, err)
	assert.Equal(t, -1, lastPercent)

	comp, err := reg.Get("sandbox")
	require.NoError(t, err)
	assert.Equal(t, registry.StatusFailed, comp.State.Status)
	require.NotNil(t, comp.State.LastError)
}

func TestLoadAlreadyLoadingIsRejected(t *testing.T) {
	loader, reg := newLoader(t)
	require.NoError(t, reg.Register(registry.Metadata{Name: "browser"}))
	_, err := reg.BeginLoading("browser")
	require.NoError(t, err)

	_, err = loader.Load(context.Background(), "browser", false)
	require.Error(t, err)
	var already *ErrAlreadyLoading
	assert.ErrorAs(t, err, &already)
}

func TestLoadRespectsContextTimeout(t *testing.T) {
	reg := registry.New()
	iso := errorisolation.New(3)
	loader := New(reg, iso, 20*time.Millisecond)

	require.NoError(t, reg.Register(registry.Metadata{
		Name: "slow_component",
		Loader: func() (any, error) {
			time.Sleep(200 * time.Millisecond)
			return "too-late", nil
		},
	}))

	_, err := loader.Load(context.Background(), "slow_component", false)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestUnloadInvokesCleanupAndResetsStatus(t *testing.T) {
	loader, reg := newLoader(t)
	cleaned := false
	instance := &fakeCleanable{cleanup: func() error { cleaned = true; return nil }}

	require.NoError(t, reg.Register(registry.Metadata{
		Name:   "workflow",
		Loader: func() (any, error) { return instance, nil },
	}))

	_, err := loader.Load(context.Background(), "workflow", false)
	require.NoError(t, err)

	require.NoError(t, loader.Unload("workflow"))
	assert.True(t, cleaned)

	comp, err := reg.Get("workflow")
	require.NoError(t, err)
	assert.Equal(t, registry.StatusNotLoaded, comp.State.Status)
}

type fakeCleanable struct {
	cleanup func() error
}

func (f *fakeCleanable) Cleanup() error { return f.cleanup() }
