package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func TestFileLogger_WritesJSONToFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "logs", "import.log")
	f, logger, err := FileLogger(logrus.InfoLevel, path)
	require.NoError(t, err)
	require.NotNil(t, f)
	t.Cleanup(func() { _ = f.Close() })

	logger.WithField("kind", "customers").Info("batch done")

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(raw), `"kind":"customers"`)
	require.Contains(t, string(raw), `"msg":"batch done"`)
}

func TestFileLogger_EmptyPathSkipsFile(t *testing.T) {
	t.Parallel()

	f, logger, err := FileLogger(logrus.DebugLevel, "")
	require.NoError(t, err)
	require.Nil(t, f)
	require.Equal(t, logrus.DebugLevel, logger.GetLevel())
}
