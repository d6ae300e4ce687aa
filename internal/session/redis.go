package session

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// consumeScript deletes the OTP hash only when both the stored email and
// code match the presented values. Returns 1 on delete, 0 otherwise.
var consumeScript = redis.NewScript(`
local email = redis.call('HGET', KEYS[1], 'email')
local code = redis.call('HGET', KEYS[1], 'code')
if email == ARGV[1] and code == ARGV[2] then
  redis.call('DEL', KEYS[1])
  return 1
end
return 0
`)

// RedisStore keeps OTP session state in Redis with TTL-based expiry.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func otpKey(sid string) string {
	return fmt.Sprintf("otp:%s", sid)
}

func (r *RedisStore) Put(ctx context.Context, sid string, code Code, ttl time.Duration) error {
	key := otpKey(sid)

	pipe := r.client.TxPipeline()
	pipe.Del(ctx, key)
	pipe.HSet(ctx, key, map[string]interface{}{
		"code":       code.Code,
		"email":      code.Email,
		"expires_at": code.ExpiresAt.Unix(),
	})
	pipe.Expire(ctx, key, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to store otp code: %w", err)
	}
	return nil
}

func (r *RedisStore) Get(ctx context.Context, sid string) (Code, error) {
	data, err := r.client.HGetAll(ctx, otpKey(sid)).Result()
	if err != nil {
		return Code{}, fmt.Errorf("failed to get otp code: %w", err)
	}
	if len(data) == 0 {
		return Code{}, ErrNotFound
	}

	expiresAtUnix, err := strconv.ParseInt(data["expires_at"], 10, 64)
	if err != nil {
		return Code{}, fmt.Errorf("corrupt otp entry: %w", err)
	}

	return Code{
		Code:      data["code"],
		Email:     data["email"],
		ExpiresAt: time.Unix(expiresAtUnix, 0),
	}, nil
}

func (r *RedisStore) Delete(ctx context.Context, sid string) error {
	if err := r.client.Del(ctx, otpKey(sid)).Err(); err != nil {
		return fmt.Errorf("failed to delete otp code: %w", err)
	}
	return nil
}

func (r *RedisStore) ConsumeIfMatch(ctx context.Context, sid, email, code string) (bool, error) {
	n, err := consumeScript.Run(ctx, r.client, []string{otpKey(sid)}, email, code).Int()
	if err != nil {
		return false, fmt.Errorf("failed to consume otp code: %w", err)
	}
	return n == 1, nil
}

func (r *RedisStore) Ping() error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return r.client.Ping(ctx).Err()
}
