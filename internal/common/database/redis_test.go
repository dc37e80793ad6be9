// internal/common/database/redis_test.go
package database

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"school-match-workers/internal/common/config"
)

func TestNewRedis_RequiresAddress(t *testing.T) {
	_, err := NewRedis(config.RedisConfig{})
	assert.Error(t, err)
}

func TestDeleteByPattern(t *testing.T) {
	mr := miniredis.RunT(t)
	rc, err := NewRedis(config.RedisConfig{Address: mr.Addr()})
	require.NoError(t, err)
	defer rc.Close()

	ctx := context.Background()
	require.NoError(t, rc.Ping(ctx))

	for _, k := range []string{"catalog:school:1", "catalog:school:2", "catalog:programs:1", "plan:abc"} {
		require.NoError(t, mr.Set(k, "x"))
	}

	n, err := rc.DeleteByPattern(ctx, "catalog:*")
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.True(t, mr.Exists("plan:abc"))
	assert.False(t, mr.Exists("catalog:school:1"))

	n, err = rc.DeleteByPattern(ctx, "catalog:*")
	require.NoError(t, err)
	assert.Zero(t, n)
}
