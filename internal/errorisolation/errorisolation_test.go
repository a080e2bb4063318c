package errorisolation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSafeLoadSuccessClearsPriorError(t *testing.T) {
	iso := New(5)

	_, err := iso.SafeLoad("database", func() (any, error) {
		return nil, errors.New("connection refused")
	})
	require.Error(t, err)

	instance, err := iso.SafeLoad("database", func() (any, error) {
		return "db-instance", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "db-instance", instance)

	_, ok := iso.LastError("database")
	assert.False(t, ok, "success must clear the prior error")
}

func TestSafeLoadRecordsIncrementingRetryCount(t *testing.T) {
	iso := New(5)

	for expected := 0; expected < 3; expected++ {
		_, err := iso.SafeLoad("sandbox", func() (any, error) {
			return nil, errors.New("boom")
		})
		require.Error(t, err)
		cerr, ok := iso.LastError("sandbox")
		require.True(t, ok)
		assert.Equal(t, expected, cerr.RetryCount)
	}
}

func TestSafeLoadRecoversPanic(t *testing.T) {
	iso := New(5)

	_, err := iso.SafeLoad("browser", func() (any, error) {
		panic("loader exploded")
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loader exploded")
}

func TestCallbacksFireAndSwallowTheirOwnPanics(t *testing.T) {
	iso := New(5)
	var successSeen, failureSeen string

	iso.RegisterSuccessCallback(func(component string, instance any) {
		successSeen = component
		panic("observer misbehaving")
	})
	iso.RegisterFailureCallback(func(cerr *ComponentError) {
		failureSeen = cerr.Component
		panic("observer misbehaving")
	})

	_, err := iso.SafeLoad("config", func() (any, error) { return "cfg", nil })
	require.NoError(t, err)
	assert.Equal(t, "config", successSeen)

	_, err = iso.SafeLoad("network", func() (any, error) { return nil, errors.New("down") })
	require.Error(t, err)
	assert.Equal(t, "network", failureSeen)
}

func TestCanRetryFalseOnceMaxRetriesReached(t *testing.T) {
	iso := New(2)

	for i, want := range []bool{true, true, false} {
		_, err := iso.SafeLoad("sandbox", func() (any, error) { return nil, errors.New("boom") })
		require.Error(t, err)
		assert.Equal(t, want, iso.CanRetry("sandbox"), "after failure #%d", i+1)
	}
}

func TestMarkCannotRetryIsSticky(t *testing.T) {
	iso := New(5)

	_, _ = iso.SafeLoad("browser", func() (any, error) { return nil, errors.New("nope") })
	assert.True(t, iso.CanRetry("browser"))

	iso.MarkCannotRetry("browser")
	assert.False(t, iso.CanRetry("browser"))

	_, _ = iso.SafeLoad("browser", func() (any, error) { return nil, errors.New("nope again") })
	assert.False(t, iso.CanRetry("browser"), "CanRetry must stay sticky across further failures")
}
