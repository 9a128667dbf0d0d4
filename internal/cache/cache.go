// Package cache implements the TTL Cache (§4.G): a Redis-backed
// read-through/write-through cache for Zone and Concert snapshots, and a
// cache of finished TicketResultEvents (success or failure) keyed by ticket id so
// a client that times out waiting can still GET its result later. The
// generic in-memory Cache[T] the pack's assessment service uses is adapted
// here into a Redis client, since multiple API processes must share one
// cache rather than each holding its own.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ticketline/reservation-core/internal/domain"
	"github.com/ticketline/reservation-core/internal/events"
)

const (
	zonePrefix      = "zone:"
	concertPrefix   = "concert:"
	resultPrefix    = "result:"
	zoneIndexPrefix = "concert_zones:"
)

// Cache wraps a Redis client with the entity and result-replay TTLs the
// core needs.
type Cache struct {
	rdb       *redis.Client
	entityTTL time.Duration
	resultTTL time.Duration
	log       *slog.Logger
}

// New builds a Cache over an already-connected Redis client.
func New(rdb *redis.Client, entityTTL, resultTTL time.Duration, log *slog.Logger) *Cache {
	return &Cache{rdb: rdb, entityTTL: entityTTL, resultTTL: resultTTL, log: log.With(slog.String("component", "ttl_cache"))}
}

// GetZone returns a cached Zone, or ok=false on a miss or decode failure.
func (c *Cache) GetZone(ctx context.Context, id string) (*domain.Zone, bool) {
	var z domain.Zone
	if !c.getJSON(ctx, zonePrefix+id, &z) {
		return nil, false
	}
	return &z, true
}

// SetZone caches a Zone snapshot for entityTTL and records its id in its
// concert's zone index, so a later InvalidateZonesByConcert can find it
// without scanning the whole keyspace.
func (c *Cache) SetZone(ctx context.Context, z *domain.Zone) {
	c.setJSON(ctx, zonePrefix+z.ID, z, c.entityTTL)
	indexKey := zoneIndexPrefix + z.ConcertID
	if err := c.rdb.SAdd(ctx, indexKey, z.ID).Err(); err != nil {
		c.log.Warn("cache_index_add_err", slog.String("key", indexKey), slog.Any("err", err))
		return
	}
	if err := c.rdb.Expire(ctx, indexKey, c.entityTTL).Err(); err != nil {
		c.log.Warn("cache_index_expire_err", slog.String("key", indexKey), slog.Any("err", err))
	}
}

// InvalidateZone removes a Zone from cache, e.g. after a capacity
// redesign reseeds its admission counter from the store.
func (c *Cache) InvalidateZone(ctx context.Context, id string) {
	if err := c.rdb.Del(ctx, zonePrefix+id).Err(); err != nil {
		c.log.Warn("cache_del_err", slog.String("key", zonePrefix+id), slog.Any("err", err))
	}
}

// GetConcert returns a cached Concert, or ok=false on a miss.
func (c *Cache) GetConcert(ctx context.Context, id string) (*domain.Concert, bool) {
	var cc domain.Concert
	if !c.getJSON(ctx, concertPrefix+id, &cc) {
		return nil, false
	}
	return &cc, true
}

// SetConcert caches a Concert snapshot for entityTTL.
func (c *Cache) SetConcert(ctx context.Context, cc *domain.Concert) {
	c.setJSON(ctx, concertPrefix+cc.ID, cc, c.entityTTL)
}

// GetResult returns a cached TicketResultEvent for replay, or ok=false on
// a miss — the caller then falls back to a store read.
func (c *Cache) GetResult(ctx context.Context, ticketID string) (*events.TicketResultEvent, bool) {
	var evt events.TicketResultEvent
	if !c.getJSON(ctx, resultPrefix+ticketID, &evt) {
		return nil, false
	}
	return &evt, true
}

// SetResult caches a finished TicketResultEvent for resultTTL (~1h per
// §4.C), so a client that already timed out can still GET the outcome.
func (c *Cache) SetResult(ctx context.Context, evt events.TicketResultEvent) {
	c.setJSON(ctx, resultPrefix+evt.TicketID, evt, c.resultTTL)
}

// InvalidateZonesByConcert removes every cached Zone belonging to concertID
// — and only that concert's zones — plus the cached Concert snapshot
// itself, since its embedded Zones list is now stale. Membership comes from
// the zone index SetZone maintains, so this never scans the keyspace the
// way a KEYS or bare-prefix SCAN would.
func (c *Cache) InvalidateZonesByConcert(ctx context.Context, concertID string) error {
	indexKey := zoneIndexPrefix + concertID
	zoneIDs, err := c.rdb.SMembers(ctx, indexKey).Result()
	if err != nil {
		return fmt.Errorf("cache: read zone index for concert %s: %w", concertID, err)
	}

	keys := make([]string, 0, len(zoneIDs)+2)
	for _, id := range zoneIDs {
		keys = append(keys, zonePrefix+id)
	}
	keys = append(keys, indexKey, concertPrefix+concertID)

	if err := c.rdb.Unlink(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("cache: unlink: %w", err)
	}
	c.log.Info("cache_invalidated", slog.String("concertId", concertID), slog.Int("zones", len(zoneIDs)))
	return nil
}

func (c *Cache) getJSON(ctx context.Context, key string, dst any) bool {
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn("cache_get_err", slog.String("key", key), slog.Any("err", err))
		}
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		c.log.Warn("cache_decode_err", slog.String("key", key), slog.Any("err", err))
		return false
	}
	return true
}

func (c *Cache) setJSON(ctx context.Context, key string, v any, ttl time.Duration) {
	raw, err := json.Marshal(v)
	if err != nil {
		c.log.Warn("cache_encode_err", slog.String("key", key), slog.Any("err", err))
		return
	}
	if err := c.rdb.Set(ctx, key, raw, ttl).Err(); err != nil {
		c.log.Warn("cache_set_err", slog.String("key", key), slog.Any("err", err))
	}
}
