package tracing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iota-uz/legacy-import/pkg/configuration"
)

func TestSetup_DisabledReturnsNoopShutdown(t *testing.T) {
	t.Parallel()

	shutdown, err := Setup(context.Background(), configuration.OpenTelemetryOptions{Enabled: false})
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}
