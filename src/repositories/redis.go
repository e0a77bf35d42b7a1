package repositories

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/khabaroff/license-gate/src/models"
	"github.com/redis/go-redis/v9"
)

const (
	redisClientPrefix    = "license:client:"
	redisClientIndex     = "license:clients"
	redisMaintenanceKey  = "license:maintenance"
	redisResultNotFound  = -1
	redisResultExhausted = -2
)

// incrementScript applies the quota guard and HINCRBY atomically on the server.
// The reply is {status, field, value, ...}: the hash is read inside the same
// call so a confirmed increment always comes back with its record.
var incrementScript = redis.NewScript(`
	local key = KEYS[1]
	if redis.call('EXISTS', key) == 0 then
		return {-1}
	end
	local limit = tonumber(redis.call('HGET', key, 'monthly_limit') or '0') or 0
	local used = tonumber(redis.call('HGET', key, 'used') or '0') or 0
	if limit > 0 and used >= limit then
		return {-2}
	end
	redis.call('HINCRBY', key, 'used', 1)
	local reply = redis.call('HGETALL', key)
	table.insert(reply, 1, 0)
	return reply
`)

// resetScript zeroes every indexed counter in one step
var resetScript = redis.NewScript(`
	local prefix = ARGV[1]
	local changed = 0
	for _, apiKey in ipairs(redis.call('SMEMBERS', KEYS[1])) do
		local key = prefix .. apiKey
		local used = tonumber(redis.call('HGET', key, 'used') or '0') or 0
		if used > 0 then
			redis.call('HSET', key, 'used', 0)
			changed = changed + 1
		end
	end
	return changed
`)

// RedisClientRepository stores each record as a hash plus a set index of keys
type RedisClientRepository struct {
	client *redis.Client
}

// NewRedisClientRepository creates a repository on an existing client
func NewRedisClientRepository(client *redis.Client) *RedisClientRepository {
	return &RedisClientRepository{client: client}
}

func redisClientKey(apiKey string) string {
	return redisClientPrefix + apiKey
}

func formatBool(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func decodeRedisClient(apiKey string, fields map[string]string) (*models.ClientRecord, error) {
	c := &models.ClientRecord{
		APIKey:  apiKey,
		Name:    fields["name"],
		Active:  fields["active"] != "0",
		Blocked: fields["blocked"] == "1",
	}

	var err error
	if v := fields["monthly_limit"]; v != "" {
		if c.MonthlyLimit, err = strconv.ParseInt(v, 10, 64); err != nil {
			return nil, fmt.Errorf("invalid monthly_limit for %s: %w", apiKey, err)
		}
	}
	if v := fields["used"]; v != "" {
		if c.Used, err = strconv.ParseInt(v, 10, 64); err != nil {
			return nil, fmt.Errorf("invalid used for %s: %w", apiKey, err)
		}
	}
	if v := fields["expires_at"]; v != "" && v != "0" {
		ts, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid expires_at for %s: %w", apiKey, err)
		}
		c.ExpiresAt = &ts
	}
	return c, nil
}

// Get retrieves a record by api key
func (r *RedisClientRepository) Get(ctx context.Context, apiKey string) (*models.ClientRecord, error) {
	fields, err := r.client.HGetAll(ctx, redisClientKey(apiKey)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get client: %w", err)
	}
	if len(fields) == 0 {
		return nil, ErrClientNotFound
	}
	return decodeRedisClient(apiKey, fields)
}

// IncrementUsed runs the guarded increment script
func (r *RedisClientRepository) IncrementUsed(ctx context.Context, apiKey string) (*models.ClientRecord, error) {
	reply, err := incrementScript.Run(ctx, r.client, []string{redisClientKey(apiKey)}).Slice()
	if err != nil {
		return nil, fmt.Errorf("failed to increment usage: %w", err)
	}
	if len(reply) == 0 {
		return nil, errors.New("failed to increment usage: empty script reply")
	}

	status, ok := reply[0].(int64)
	if !ok {
		return nil, fmt.Errorf("failed to increment usage: unexpected script status %v", reply[0])
	}
	switch status {
	case redisResultNotFound:
		return nil, ErrClientNotFound
	case redisResultExhausted:
		return nil, ErrQuotaExhausted
	}

	fields := make(map[string]string, (len(reply)-1)/2)
	for i := 1; i+1 < len(reply); i += 2 {
		name, _ := reply[i].(string)
		value, _ := reply[i+1].(string)
		fields[name] = value
	}
	return decodeRedisClient(apiKey, fields)
}

// List returns all indexed records ordered by api key
func (r *RedisClientRepository) List(ctx context.Context) ([]*models.ClientRecord, error) {
	apiKeys, err := r.client.SMembers(ctx, redisClientIndex).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list client keys: %w", err)
	}
	sort.Strings(apiKeys)

	pipe := r.client.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(apiKeys))
	for i, apiKey := range apiKeys {
		cmds[i] = pipe.HGetAll(ctx, redisClientKey(apiKey))
	}
	if len(apiKeys) > 0 {
		if _, err := pipe.Exec(ctx); err != nil {
			return nil, fmt.Errorf("failed to load clients: %w", err)
		}
	}

	records := make([]*models.ClientRecord, 0, len(apiKeys))
	for i, apiKey := range apiKeys {
		fields := cmds[i].Val()
		if len(fields) == 0 {
			continue
		}
		c, err := decodeRedisClient(apiKey, fields)
		if err != nil {
			return nil, err
		}
		records = append(records, c)
	}
	return records, nil
}

// Upsert writes the hash and index entry in one transaction.
// An existing usage counter is kept; the record's Used only seeds new keys.
func (r *RedisClientRepository) Upsert(ctx context.Context, record *models.ClientRecord) error {
	if err := record.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	var expiresAt int64
	if record.HasExpiry() {
		expiresAt = *record.ExpiresAt
	}

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, redisClientKey(record.APIKey), map[string]interface{}{
			"name":          record.Name,
			"active":        formatBool(record.Active),
			"blocked":       formatBool(record.Blocked),
			"expires_at":    expiresAt,
			"monthly_limit": record.MonthlyLimit,
		})
		pipe.HSetNX(ctx, redisClientKey(record.APIKey), "used", record.Used)
		pipe.SAdd(ctx, redisClientIndex, record.APIKey)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to upsert client: %w", err)
	}
	return nil
}

// ResetUsage zeroes every counter
func (r *RedisClientRepository) ResetUsage(ctx context.Context) (int64, error) {
	changed, err := resetScript.Run(ctx, r.client, []string{redisClientIndex}, redisClientPrefix).Int64()
	if err != nil {
		return 0, fmt.Errorf("failed to reset usage: %w", err)
	}
	return changed, nil
}

// Ping checks the connection
func (r *RedisClientRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// RedisMaintenanceRepository keeps the flag in a single string key
type RedisMaintenanceRepository struct {
	client *redis.Client
}

// NewRedisMaintenanceRepository creates the flag repository
func NewRedisMaintenanceRepository(client *redis.Client) *RedisMaintenanceRepository {
	return &RedisMaintenanceRepository{client: client}
}

// Get returns false when the key was never written
func (m *RedisMaintenanceRepository) Get(ctx context.Context) (bool, error) {
	val, err := m.client.Get(ctx, redisMaintenanceKey).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read maintenance flag: %w", err)
	}
	return val == "1", nil
}

// Set writes the flag
func (m *RedisMaintenanceRepository) Set(ctx context.Context, active bool) error {
	if err := m.client.Set(ctx, redisMaintenanceKey, formatBool(active), 0).Err(); err != nil {
		return fmt.Errorf("failed to write maintenance flag: %w", err)
	}
	return nil
}

var (
	_ ClientRepository      = (*RedisClientRepository)(nil)
	_ MaintenanceRepository = (*RedisMaintenanceRepository)(nil)
)
