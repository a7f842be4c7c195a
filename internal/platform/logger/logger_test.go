package logger_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskdeck/taskdeck-api/internal/platform/logger"
)

func TestSetup(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error", "WARN"} {
		log, err := logger.Setup(level)
		require.NoError(t, err, "level %q", level)
		assert.NotNil(t, log)
	}

	// Unknown levels warn and fall back to info rather than failing startup.
	log, err := logger.Setup("verbose")
	require.NoError(t, err)
	assert.NotNil(t, log)
}

func TestContextCarry(t *testing.T) {
	t.Parallel()

	base := logger.Noop()
	ctx := logger.WithContext(context.Background(), base)

	assert.Equal(t, base, logger.FromContext(ctx))
	assert.Equal(t, base, logger.FromContextOrDefault(ctx, nil))
}

func TestFromContextFallsBack(t *testing.T) {
	t.Parallel()

	// An empty context still yields a usable logger.
	assert.NotNil(t, logger.FromContext(context.Background()))

	fallback := logger.Noop()
	assert.Equal(t, fallback, logger.FromContextOrDefault(context.Background(), fallback))
}
