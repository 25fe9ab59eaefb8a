package cache

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BruksfildServices01/clinic-scheduler/internal/config"
)

func TestNewRedisPing(t *testing.T) {
	mr := miniredis.RunT(t)

	rdb := NewRedis(&config.Config{RedisAddr: mr.Addr()})
	defer rdb.Close()

	require.NoError(t, Ping(context.Background(), rdb))

	mr.Close()
	assert.Error(t, Ping(context.Background(), rdb))
}
