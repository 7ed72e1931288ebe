package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_Development(t *testing.T) {
	err := Init("development", "debug")
	require.NoError(t, err)
	assert.NotNil(t, Get())
	Sync()
}

func TestInit_Production(t *testing.T) {
	err := Init("production", "warn")
	require.NoError(t, err)
	assert.NotNil(t, Get())
}

func TestInit_BadLevelFallsBack(t *testing.T) {
	// An unparseable level keeps the config default instead of failing.
	err := Init("development", "loud")
	require.NoError(t, err)
	assert.NotNil(t, Get())
}

func TestGet_Uninitialized(t *testing.T) {
	old := globalLogger
	globalLogger = nil
	defer func() { globalLogger = old }()

	assert.NotNil(t, Get())
	assert.NotPanics(t, func() { Get().Info("noop") })
}
