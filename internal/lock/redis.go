package lock

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "parkslot:lock:"

// releaseScript deletes the key only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker shares locks between processes through SET NX PX.
// TTL bounds how long a crashed holder can block others.
type RedisLocker struct {
	Client        *redis.Client
	TTL           time.Duration
	RetryInterval time.Duration
}

func NewRedisLocker(client *redis.Client, ttl time.Duration) *RedisLocker {
	return &RedisLocker{
		Client:        client,
		TTL:           ttl,
		RetryInterval: 25 * time.Millisecond,
	}
}

func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	redisKey := redisKeyPrefix + key
	token := uuid.NewString()

	ticker := time.NewTicker(l.RetryInterval)
	defer ticker.Stop()
	for {
		ok, err := l.Client.SetNX(ctx, redisKey, token, l.TTL).Result()
		if err != nil {
			return nil, fmt.Errorf("error acquiring lock %s: %w", redisKey, err)
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}

	unlock := func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		released, err := releaseScript.Run(releaseCtx, l.Client, []string{redisKey}, token).Int()
		if err != nil {
			log.Printf("Could not release lock %s: %v", redisKey, err)
			return
		}
		if released == 0 {
			log.Printf("Lock %s expired before release; hold time exceeded TTL %s", redisKey, l.TTL)
		}
	}
	return unlock, nil
}
