package server

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHealthCheckers(t *testing.T) {
	ctx := context.Background()
	assert.True(t, NewOkHealthChecker().Healthy(ctx))

	dir := t.TempDir()
	assert.True(t, NewDirHealthChecker(dir).Healthy(ctx))
	assert.False(t, NewDirHealthChecker(filepath.Join(dir, "missing")).Healthy(ctx))
}
