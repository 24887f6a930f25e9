package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Revoker remembers revoked token IDs until their expiry.
type Revoker interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// MemoryRevoker keeps revoked IDs in process. Revocations are lost on
// restart and are not shared between replicas.
type MemoryRevoker struct {
	mu      sync.Mutex
	revoked map[string]time.Time
	now     func() time.Time
}

var _ Revoker = (*MemoryRevoker)(nil)

func NewMemoryRevoker() *MemoryRevoker {
	return &MemoryRevoker{
		revoked: make(map[string]time.Time),
		now:     time.Now,
	}
}

func (r *MemoryRevoker) Revoke(_ context.Context, tokenID string, until time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.prune()
	r.revoked[tokenID] = until
	return nil
}

func (r *MemoryRevoker) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	until, ok := r.revoked[tokenID]
	return ok && r.now().Before(until), nil
}

// Len reports how many revocations are held, expired ones included.
func (r *MemoryRevoker) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.revoked)
}

// prune drops expired entries. Caller holds mu.
func (r *MemoryRevoker) prune() {
	now := r.now()
	for tokenID, until := range r.revoked {
		if !now.Before(until) {
			delete(r.revoked, tokenID)
		}
	}
}

// RedisRevoker stores revocations as expiring Redis keys so every replica
// sees a logout.
type RedisRevoker struct {
	rdb    redis.UniversalClient
	prefix string
}

var _ Revoker = (*RedisRevoker)(nil)

// NewRedisRevoker stores keys as "<prefix><token id>".
func NewRedisRevoker(rdb redis.UniversalClient, prefix string) *RedisRevoker {
	if prefix == "" {
		prefix = "backoffice:session:revoked:"
	}
	return &RedisRevoker{rdb: rdb, prefix: prefix}
}

func (r *RedisRevoker) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}
	return r.rdb.Set(ctx, r.prefix+tokenID, "1", ttl).Err()
}

func (r *RedisRevoker) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	err := r.rdb.Get(ctx, r.prefix+tokenID).Err()
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, redis.Nil):
		return false, nil
	default:
		return false, err
	}
}
