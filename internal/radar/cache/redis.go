package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	types "github.com/yungbote/project-radar/internal/domain"
)

const (
	fieldPayload = "payload"
	fieldFrozen  = "frozen"
)

// KEYS[1]=entry KEYS[2]=generation
// ARGV[1]=payload ARGV[2]=frozen flag ARGV[3]=draft ttl ms ARGV[4]=expected generation or ''
var putScript = goredis.NewScript(`
if redis.call('HGET', KEYS[1], 'frozen') == '1' then
  return 0
end
if ARGV[4] ~= '' and (redis.call('GET', KEYS[2]) or '0') ~= ARGV[4] then
  return 0
end
redis.call('HSET', KEYS[1], 'payload', ARGV[1], 'frozen', ARGV[2])
if ARGV[2] == '1' then
  redis.call('PERSIST', KEYS[1])
else
  redis.call('PEXPIRE', KEYS[1], ARGV[3])
end
return 1
`)

var invalidateScript = goredis.NewScript(`
if redis.call('HGET', KEYS[1], 'frozen') == '1' then
  return 0
end
redis.call('INCR', KEYS[2])
return redis.call('DEL', KEYS[1])
`)

// cacheRecord carries the artifact bytes, which the entity hides from JSON.
type cacheRecord struct {
	Rendering *types.RadarRendering `json:"rendering"`
	Artifact  []byte                `json:"artifact"`
}

type redisCache struct {
	rdb    goredis.UniversalClient
	prefix string
	ttl    time.Duration
}

func NewRedis(rdb goredis.UniversalClient, prefix string, draftTTL time.Duration) Cache {
	if prefix == "" {
		prefix = "radar:rendering:"
	}
	if draftTTL <= 0 {
		draftTTL = DefaultDraftTTL
	}
	return &redisCache{rdb: rdb, prefix: prefix, ttl: draftTTL}
}

// key and genKey share a hash tag so the scripts stay on one cluster slot.
func (c *redisCache) key(editionID uuid.UUID) string {
	return c.prefix + "{" + editionID.String() + "}"
}

func (c *redisCache) genKey(editionID uuid.UUID) string {
	return c.key(editionID) + ":gen"
}

func (c *redisCache) Get(ctx context.Context, editionID uuid.UUID) (*Entry, bool, error) {
	vals, err := c.rdb.HMGet(ctx, c.key(editionID), fieldPayload, fieldFrozen).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("rendering cache get: %w", err)
	}
	payload, _ := vals[0].(string)
	if payload == "" {
		return nil, false, nil
	}
	var rec cacheRecord
	if err := json.Unmarshal([]byte(payload), &rec); err != nil {
		return nil, false, fmt.Errorf("rendering cache decode: %w", err)
	}
	if rec.Rendering == nil {
		return nil, false, nil
	}
	rec.Rendering.Artifact = rec.Artifact
	frozen, _ := vals[1].(string)
	return &Entry{Rendering: rec.Rendering, Frozen: frozen == "1"}, true, nil
}

func (c *redisCache) Put(ctx context.Context, editionID uuid.UUID, r *types.RadarRendering, frozen bool) (bool, error) {
	return c.put(ctx, editionID, r, frozen, "")
}

func (c *redisCache) PutDraft(ctx context.Context, editionID uuid.UUID, r *types.RadarRendering, gen uint64) (bool, error) {
	return c.put(ctx, editionID, r, false, strconv.FormatUint(gen, 10))
}

func (c *redisCache) put(ctx context.Context, editionID uuid.UUID, r *types.RadarRendering, frozen bool, gen string) (bool, error) {
	if r == nil {
		return false, fmt.Errorf("rendering cache put: nil rendering")
	}
	raw, err := json.Marshal(cacheRecord{Rendering: r, Artifact: r.Artifact})
	if err != nil {
		return false, fmt.Errorf("rendering cache encode: %w", err)
	}
	flag := "0"
	if frozen {
		flag = "1"
	}
	n, err := putScript.Run(ctx, c.rdb, []string{c.key(editionID), c.genKey(editionID)}, string(raw), flag, c.ttl.Milliseconds(), gen).Int()
	if err != nil {
		return false, fmt.Errorf("rendering cache put: %w", err)
	}
	return n == 1, nil
}

func (c *redisCache) Invalidate(ctx context.Context, editionID uuid.UUID) error {
	if err := invalidateScript.Run(ctx, c.rdb, []string{c.key(editionID), c.genKey(editionID)}).Err(); err != nil && !errors.Is(err, goredis.Nil) {
		return fmt.Errorf("rendering cache invalidate: %w", err)
	}
	return nil
}

func (c *redisCache) Generation(ctx context.Context, editionID uuid.UUID) (uint64, error) {
	gen, err := c.rdb.Get(ctx, c.genKey(editionID)).Uint64()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("rendering cache generation: %w", err)
	}
	return gen, nil
}
