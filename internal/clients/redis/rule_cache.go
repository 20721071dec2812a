package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	types "github.com/clearform/assurance-backend/internal/domain"
	"github.com/clearform/assurance-backend/internal/platform/logger"
)

const activeRulesKey = "trigger_rules:active"

// RuleCache is a read-through cache in front of the trigger rule
// library. The library changes rarely and is read on every
// recommendation pass, so a short TTL is enough.
type RuleCache interface {
	GetActiveRules(ctx context.Context) ([]*types.TriggerRule, bool)
	SetActiveRules(ctx context.Context, rules []*types.TriggerRule) error
	Invalidate(ctx context.Context) error
	Close() error
}

type ruleCache struct {
	log *logger.Logger
	rdb *goredis.Client
	ttl time.Duration
}

func NewRuleCache(log *logger.Logger) (RuleCache, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}

	ttl := 5 * time.Minute
	if raw := strings.TrimSpace(os.Getenv("RULE_CACHE_TTL")); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("bad RULE_CACHE_TTL %q: %w", raw, err)
		}
		ttl = parsed
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &ruleCache{
		log: log.With("service", "RuleCache"),
		rdb: rdb,
		ttl: ttl,
	}, nil
}

func (c *ruleCache) GetActiveRules(ctx context.Context) ([]*types.TriggerRule, bool) {
	if c == nil || c.rdb == nil {
		return nil, false
	}
	raw, err := c.rdb.Get(ctx, activeRulesKey).Bytes()
	if err != nil {
		if err != goredis.Nil {
			c.log.Warn("rule cache read failed", "error", err)
		}
		return nil, false
	}
	var rules []*types.TriggerRule
	if err := json.Unmarshal(raw, &rules); err != nil {
		c.log.Warn("bad rule cache payload", "error", err)
		return nil, false
	}
	return rules, true
}

func (c *ruleCache) SetActiveRules(ctx context.Context, rules []*types.TriggerRule) error {
	if c == nil || c.rdb == nil {
		return fmt.Errorf("rule cache not initialized")
	}
	raw, err := json.Marshal(rules)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, activeRulesKey, raw, c.ttl).Err()
}

func (c *ruleCache) Invalidate(ctx context.Context) error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Del(ctx, activeRulesKey).Err()
}

func (c *ruleCache) Close() error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}
