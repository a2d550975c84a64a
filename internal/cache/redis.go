package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"barberpro/backend/internal/domain"
)

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// Redis shares cached slots between server instances. Failures are logged
// and treated as misses.
type Redis struct {
	rdb *redis.Client
	ttl time.Duration
	log *slog.Logger
}

type redisSlot struct {
	Start int `json:"s"`
	End   int `json:"e"`
}

func NewRedisClient(cfg RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

func NewRedis(rdb *redis.Client, ttl time.Duration, log *slog.Logger) *Redis {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}
	return &Redis{rdb: rdb, ttl: ttl, log: log.With(slog.String("component", "cache.redis"))}
}

func (c *Redis) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func (c *Redis) Get(ctx context.Context, key Key) ([]domain.Interval, bool) {
	raw, err := c.rdb.Get(ctx, key.String()).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn("slot cache read failed", slog.String("key", key.String()), slog.Any("err", err))
		}
		return nil, false
	}
	var stored []redisSlot
	if err := json.Unmarshal(raw, &stored); err != nil {
		c.log.Warn("slot cache entry corrupt", slog.String("key", key.String()), slog.Any("err", err))
		return nil, false
	}
	out := make([]domain.Interval, 0, len(stored))
	for _, s := range stored {
		out = append(out, domain.Interval{Start: domain.ClockTime(s.Start), End: domain.ClockTime(s.End)})
	}
	return out, true
}

func (c *Redis) Generation(ctx context.Context, key Key) Generation {
	vals, err := c.rdb.MGet(ctx, providerGenKey(key.ProviderID), dayGenKey(key.ProviderID, key.Date)).Result()
	if err != nil {
		// An unreadable generation never matches, so the following Set is skipped.
		c.log.Warn("slot cache generation read failed", slog.String("key", key.String()), slog.Any("err", err))
		return Generation{Provider: -1, Day: -1}
	}
	return Generation{Provider: parseGen(vals[0]), Day: parseGen(vals[1])}
}

// Set writes under WATCH on both generation keys, so a concurrent
// invalidation aborts the write.
func (c *Redis) Set(ctx context.Context, key Key, slots []domain.Interval, gen Generation) {
	stored := make([]redisSlot, 0, len(slots))
	for _, s := range slots {
		stored = append(stored, redisSlot{Start: int(s.Start), End: int(s.End)})
	}
	raw, err := json.Marshal(stored)
	if err != nil {
		return
	}

	pKey, dKey := providerGenKey(key.ProviderID), dayGenKey(key.ProviderID, key.Date)
	err = c.rdb.Watch(ctx, func(tx *redis.Tx) error {
		vals, err := tx.MGet(ctx, pKey, dKey).Result()
		if err != nil {
			return err
		}
		if (Generation{Provider: parseGen(vals[0]), Day: parseGen(vals[1])}) != gen {
			return errStaleGeneration
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key.String(), raw, c.ttl)
			return nil
		})
		return err
	}, pKey, dKey)
	switch {
	case err == nil, errors.Is(err, errStaleGeneration), errors.Is(err, redis.TxFailedErr):
	default:
		c.log.Warn("slot cache write failed", slog.String("key", key.String()), slog.Any("err", err))
	}
}

func (c *Redis) InvalidateDay(ctx context.Context, providerID uuid.UUID, date time.Time) {
	c.bump(ctx, dayGenKey(providerID, domain.FormatDate(date)))
	c.deleteMatching(ctx, "slots:"+providerID.String()+":"+domain.FormatDate(date)+":*")
}

func (c *Redis) InvalidateProvider(ctx context.Context, providerID uuid.UUID) {
	c.bump(ctx, providerGenKey(providerID))
	c.deleteMatching(ctx, "slots:"+providerID.String()+":*")
}

func (c *Redis) deleteMatching(ctx context.Context, pattern string) {
	var keys []string
	iter := c.rdb.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		c.log.Warn("slot cache scan failed", slog.String("pattern", pattern), slog.Any("err", err))
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		c.log.Warn("slot cache invalidation failed", slog.String("pattern", pattern), slog.Any("err", err))
	}
}

var errStaleGeneration = errors.New("slot cache generation changed")

// Generation keys outlive any entry written against them.
const genKeyTTL = 24 * time.Hour

func providerGenKey(providerID uuid.UUID) string {
	return "slotgen:" + providerID.String()
}

func dayGenKey(providerID uuid.UUID, date string) string {
	return "slotgen:" + providerID.String() + ":" + date
}

func (c *Redis) bump(ctx context.Context, genKey string) {
	pipe := c.rdb.TxPipeline()
	pipe.Incr(ctx, genKey)
	pipe.Expire(ctx, genKey, genKeyTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		c.log.Warn("slot cache generation bump failed", slog.String("key", genKey), slog.Any("err", err))
	}
}

func parseGen(v any) int64 {
	s, ok := v.(string)
	if !ok {
		return 0
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return -1
	}
	return n
}
