package guard

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	authDomain "github.com/betshield/betshield-api/internal/auth/domain"
)

const defaultRedisKeyPrefix = "guard:"

// RedisStore keeps attempts in Redis so every API instance shares the same
// counters. Each key is a sorted set scored by attempt time in microseconds.
// Members are "<unix nanos>:<outcome>:<nonce>" so simultaneous attempts never
// collide. Reserve, Record and Release run as Lua scripts and are atomic per key.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// KEYS[1] key
// ARGV prune bound, since, limit, failures only, score, member, ttl ms
var reserveScript = redis.NewScript(`
local key = KEYS[1]
redis.call('ZREMRANGEBYSCORE', key, '-inf', ARGV[1])
local members = redis.call('ZRANGEBYSCORE', key, '(' .. ARGV[2], '+inf')
local result = {0}
for _, member in ipairs(members) do
  if ARGV[4] == '0' or not string.find(member, ':success:', 1, true) then
    result[#result + 1] = member
  end
end
if #result - 1 < tonumber(ARGV[3]) then
  redis.call('ZADD', key, ARGV[5], ARGV[6])
  redis.call('PEXPIRE', key, ARGV[7])
  result[1] = 1
end
return result
`)

// KEYS[1] key
// ARGV prune bound, outcome, score, member, ttl ms
var recordScript = redis.NewScript(`
local key = KEYS[1]
redis.call('ZREMRANGEBYSCORE', key, '-inf', ARGV[1])
for _, member in ipairs(redis.call('ZRANGE', key, 0, -1)) do
  local at, nonce = string.match(member, '^(%d+):pending:(.+)$')
  if at then
    local score = redis.call('ZSCORE', key, member)
    redis.call('ZREM', key, member)
    redis.call('ZADD', key, score, at .. ':' .. ARGV[2] .. ':' .. nonce)
    redis.call('PEXPIRE', key, ARGV[5])
    return 1
  end
end
redis.call('ZADD', key, ARGV[3], ARGV[4])
redis.call('PEXPIRE', key, ARGV[5])
return 0
`)

// KEYS[1] key
var releaseScript = redis.NewScript(`
for _, member in ipairs(redis.call('ZRANGE', KEYS[1], 0, -1)) do
  if string.find(member, ':pending:', 1, true) then
    return redis.call('ZREM', KEYS[1], member)
  end
end
return 0
`)

// NewRedisStore creates a RedisStore. An empty prefix defaults to "guard:".
func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = defaultRedisKeyPrefix
	}
	return &RedisStore{client: client, prefix: prefix}
}

// Reserve counts and appends in one script run so concurrent callers on any
// instance never admit more than limit attempts.
func (s *RedisStore) Reserve(
	ctx context.Context,
	key string,
	rec authDomain.AttemptRecord,
	since time.Time,
	limit int,
	failuresOnly bool,
	ttl time.Duration,
) (Reservation, error) {
	onlyFailures := "0"
	if failuresOnly {
		onlyFailures = "1"
	}

	reply, err := reserveScript.Run(ctx, s.client, []string{s.prefix + key},
		micros(rec.At.Add(-ttl)),
		micros(since),
		limit,
		onlyFailures,
		micros(rec.At),
		newMember(rec),
		ttl.Milliseconds(),
	).Slice()
	if err != nil {
		return Reservation{}, fmt.Errorf("failed to reserve attempt: %w", err)
	}
	if len(reply) == 0 {
		return Reservation{}, errors.New("failed to reserve attempt: empty reply")
	}

	admitted, ok := reply[0].(int64)
	if !ok {
		return Reservation{}, fmt.Errorf("failed to reserve attempt: unexpected reply %v", reply[0])
	}

	res := Reservation{Admitted: admitted == 1}
	for _, value := range reply[1:] {
		member, ok := value.(string)
		if !ok {
			return Reservation{}, fmt.Errorf("failed to reserve attempt: unexpected member %v", value)
		}
		counted, err := parseMember(member)
		if err != nil {
			return Reservation{}, err
		}
		counted.ClientKey = key
		res.Counted = append(res.Counted, counted)
	}
	return res, nil
}

// Record settles the oldest pending member of key, or adds rec when none is pending.
func (s *RedisStore) Record(ctx context.Context, key string, rec authDomain.AttemptRecord, ttl time.Duration) error {
	err := recordScript.Run(ctx, s.client, []string{s.prefix + key},
		micros(rec.At.Add(-ttl)),
		string(rec.Outcome),
		micros(rec.At),
		newMember(rec),
		ttl.Milliseconds(),
	).Err()
	if err != nil {
		return fmt.Errorf("failed to record attempt: %w", err)
	}
	return nil
}

// Release removes the oldest pending member of key.
func (s *RedisStore) Release(ctx context.Context, key string) error {
	if err := releaseScript.Run(ctx, s.client, []string{s.prefix + key}).Err(); err != nil {
		return fmt.Errorf("failed to release attempt: %w", err)
	}
	return nil
}

// Attempts returns the records of key after since, oldest first.
func (s *RedisStore) Attempts(ctx context.Context, key string, since time.Time) ([]authDomain.AttemptRecord, error) {
	members, err := s.client.ZRangeByScore(ctx, s.prefix+key, &redis.ZRangeBy{
		Min: "(" + micros(since),
		Max: "+inf",
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load attempts: %w", err)
	}

	records := make([]authDomain.AttemptRecord, 0, len(members))
	for _, member := range members {
		rec, err := parseMember(member)
		if err != nil {
			return nil, err
		}
		rec.ClientKey = key
		records = append(records, rec)
	}
	return records, nil
}

// Reset deletes key.
func (s *RedisStore) Reset(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return fmt.Errorf("failed to reset attempts: %w", err)
	}
	return nil
}

func newMember(rec authDomain.AttemptRecord) string {
	return fmt.Sprintf("%d:%s:%s", rec.At.UnixNano(), rec.Outcome, uuid.NewString())
}

func micros(t time.Time) string {
	return strconv.FormatInt(t.UnixMicro(), 10)
}

func parseMember(member string) (authDomain.AttemptRecord, error) {
	parts := strings.SplitN(member, ":", 3)
	if len(parts) != 3 {
		return authDomain.AttemptRecord{}, fmt.Errorf("malformed attempt member %q", member)
	}
	nanos, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return authDomain.AttemptRecord{}, fmt.Errorf("malformed attempt timestamp %q: %w", member, err)
	}
	return authDomain.AttemptRecord{
		At:      time.Unix(0, nanos),
		Outcome: authDomain.Outcome(parts[1]),
	}, nil
}
