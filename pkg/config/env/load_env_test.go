package env

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("FINEREGR_TEST_A=from-file\nFINEREGR_TEST_B=from-file\n"), 0o644))

	t.Setenv("ENV_PATH", "")
	t.Setenv("FINEREGR_TEST_B", "from-env")
	require.NoError(t, os.Unsetenv("FINEREGR_TEST_A"))
	t.Cleanup(func() { os.Unsetenv("FINEREGR_TEST_A") })

	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "from-file", os.Getenv("FINEREGR_TEST_A"))
	assert.Equal(t, "from-env", os.Getenv("FINEREGR_TEST_B"))
}

func TestLoadDotEnv_Missing(t *testing.T) {
	missing := filepath.Join(t.TempDir(), ".env")

	t.Setenv("ENV_PATH", "")
	assert.NoError(t, LoadDotEnv(missing))

	t.Setenv("ENV_PATH", missing)
	assert.Error(t, LoadDotEnv(".env"))
}
