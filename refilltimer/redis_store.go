package refilltimer

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	timerKeyPrefix    = "refill:timer:"
	durationKeyPrefix = "refill:duration:"

	fieldDeadlineMs   = "deadline_ms"
	fieldDurationSec  = "duration_sec"
	fieldLastRefillID = "last_refill_id"
)

// clearDeadlineScript -> hapus hash hanya jika deadline_ms masih sama
var clearDeadlineScript = redis.NewScript(`
if redis.call("HGET", KEYS[1], ARGV[1]) == ARGV[2] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisStore -> Store di Redis: hash refill:timer:<code> dan key refill:duration:<code>
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// ConnectRedis membuka koneksi dan memastikan server bisa di-ping
func ConnectRedis(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}
	return client, nil
}

func timerKey(code string) string    { return timerKeyPrefix + code }
func durationKey(code string) string { return durationKeyPrefix + code }

func (r *RedisStore) Deadline(ctx context.Context, code string) (Deadline, bool, error) {
	vals, err := r.client.HMGet(ctx, timerKey(code), fieldDeadlineMs, fieldDurationSec).Result()
	if err != nil {
		return Deadline{}, false, fmt.Errorf("read refill deadline %s: %w", code, err)
	}
	ms, ok := parseInt(vals[0])
	if !ok {
		return Deadline{}, false, nil
	}
	secs, _ := parseInt(vals[1])
	return Deadline{
		At:       time.UnixMilli(ms),
		Duration: time.Duration(secs) * time.Second,
	}, true, nil
}

// SetDeadline tanpa TTL: deadline yang lewat saat server mati tetap
// diproses Resume, berapapun lama downtime-nya
func (r *RedisStore) SetDeadline(ctx context.Context, code string, d Deadline) error {
	err := r.client.HSet(ctx, timerKey(code),
		fieldDeadlineMs, d.At.UnixMilli(),
		fieldDurationSec, int64(d.Duration/time.Second),
	).Err()
	if err != nil {
		return fmt.Errorf("save refill deadline %s: %w", code, err)
	}
	return nil
}

func (r *RedisStore) LastRefillID(ctx context.Context, code string) (uint, bool, error) {
	v, err := r.client.HGet(ctx, timerKey(code), fieldLastRefillID).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("read last refill id %s: %w", code, err)
	}
	id, err := strconv.ParseUint(v, 10, 64)
	if err != nil || id == 0 {
		return 0, false, nil
	}
	return uint(id), true, nil
}

func (r *RedisStore) SetLastRefillID(ctx context.Context, code string, id uint) error {
	if err := r.client.HSet(ctx, timerKey(code), fieldLastRefillID, id).Err(); err != nil {
		return fmt.Errorf("save last refill id %s: %w", code, err)
	}
	return nil
}

func (r *RedisStore) ConfiguredDuration(ctx context.Context, code string) (time.Duration, bool, error) {
	secs, err := r.client.Get(ctx, durationKey(code)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("read configured duration %s: %w", code, err)
	}
	return time.Duration(secs) * time.Second, true, nil
}

func (r *RedisStore) SetConfiguredDuration(ctx context.Context, code string, d time.Duration) error {
	if err := r.client.Set(ctx, durationKey(code), int64(d/time.Second), 0).Err(); err != nil {
		return fmt.Errorf("save configured duration %s: %w", code, err)
	}
	return nil
}

func (r *RedisStore) Clear(ctx context.Context, code string) error {
	if err := r.client.Del(ctx, timerKey(code)).Err(); err != nil {
		return fmt.Errorf("clear refill timer %s: %w", code, err)
	}
	return nil
}

func (r *RedisStore) ClearDeadline(ctx context.Context, code string, at time.Time) (bool, error) {
	n, err := clearDeadlineScript.Run(ctx, r.client, []string{timerKey(code)},
		fieldDeadlineMs, strconv.FormatInt(at.UnixMilli(), 10)).Int64()
	if err != nil {
		return false, fmt.Errorf("clear refill timer %s: %w", code, err)
	}
	return n > 0, nil
}

func (r *RedisStore) TableCodes(ctx context.Context) ([]string, error) {
	codes := []string{}
	iter := r.client.Scan(ctx, 0, timerKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		ok, err := r.client.HExists(ctx, key, fieldDeadlineMs).Result()
		if err != nil {
			return nil, fmt.Errorf("inspect %s: %w", key, err)
		}
		if ok {
			codes = append(codes, strings.TrimPrefix(key, timerKeyPrefix))
		}
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan refill timers: %w", err)
	}
	sort.Strings(codes)
	return codes, nil
}

func parseInt(v interface{}) (int64, bool) {
	s, ok := v.(string)
	if !ok || s == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
