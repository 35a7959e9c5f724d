package auth

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/redis/go-redis/v9"
)

// OTPTTL is how long a one-time code stays redeemable.
const OTPTTL = 10 * time.Minute

// OTPStore holds one-time codes keyed by email. Codes expire and are
// consumed on first successful match.
type OTPStore interface {
	Put(ctx context.Context, key, value string, ttl time.Duration) error
	TakeIfMatch(ctx context.Context, key, value string) (bool, error)
}

// RedisOTPStore keeps codes in redis so they survive restarts and are
// shared across instances.
type RedisOTPStore struct {
	client *redis.Client
}

func NewRedisOTPStore(client *redis.Client) *RedisOTPStore {
	return &RedisOTPStore{client: client}
}

func otpKey(key string) string {
	return "otp:" + key
}

func (s *RedisOTPStore) Put(ctx context.Context, key, value string, ttl time.Duration) error {
	return s.client.Set(ctx, otpKey(key), value, ttl).Err()
}

// takeIfMatchScript deletes the key only when it holds the expected
// value, so a code cannot be redeemed twice.
var takeIfMatchScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

func (s *RedisOTPStore) TakeIfMatch(ctx context.Context, key, value string) (bool, error) {
	n, err := takeIfMatchScript.Run(ctx, s.client, []string{otpKey(key)}, value).Int()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// GenerateOTP returns a random six-digit code.
func GenerateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
