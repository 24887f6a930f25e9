package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// ConnectRevoker returns a RedisRevoker when addr is set and reachable.
// With no addr it logs a warning and falls back to a MemoryRevoker. The
// returned close function releases the Redis client, if any.
func ConnectRevoker(ctx context.Context, addr, password string, logger *slog.Logger) (Revoker, func() error, error) {
	if addr == "" {
		logger.Warn("REDIS_ADDR is not set, session revocation is kept in process")
		return NewMemoryRevoker(), func() error { return nil }, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, nil, fmt.Errorf("session: connect redis %s: %w", addr, err)
	}

	logger.Info("session revocation backed by redis", "addr", addr)
	return NewRedisRevoker(rdb, ""), rdb.Close, nil
}
