package itf

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSanitizeDBName(t *testing.T) {
	t.Parallel()
	require.Equal(t, "testimport_apply_dry_run", sanitizeDBName("TestImport/Apply (dry-run)"))
	require.Equal(t, "test_db", sanitizeDBName("///"))

	long := sanitizeDBName("Test" + strings.Repeat("VeryLongSubtestName/", 6))
	require.Len(t, long, maxDBNameLength)
	require.NotEqual(t, long, sanitizeDBName("Test"+strings.Repeat("VeryLongSubtestName/", 7)))
}
