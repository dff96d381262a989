package redis

import (
	"bytes"
	"context"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	redislib "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/fastygo/liveassist/domain"
	"github.com/fastygo/liveassist/repository"
)

// ruleCache is a read-through cache of active rules keyed by owner.
// Entries expire after ttl; rule edits become visible once the entry lapses.
type ruleCache struct {
	client *redislib.Client
	next   repository.RuleRepository
	prefix string
	ttl    time.Duration
	logger *zap.Logger
}

// NewRuleCache wraps next with a Redis cache. Redis errors fall through to next.
func NewRuleCache(client *redislib.Client, next repository.RuleRepository, ttl time.Duration, logger *zap.Logger) repository.RuleRepository {
	if client == nil || ttl <= 0 {
		return next
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ruleCache{
		client: client,
		next:   next,
		prefix: "rules:active:",
		ttl:    ttl,
		logger: logger,
	}
}

func (r *ruleCache) ListActive(ctx context.Context, ownerID int64) ([]domain.Rule, error) {
	key := r.key(ownerID)

	cached, err := r.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		rules, decodeErr := decodeRules(cached)
		if decodeErr == nil {
			return rules, nil
		}
		r.logger.Warn("discarding unreadable rule cache entry", zap.String("key", key), zap.Error(decodeErr))
	case err != redislib.Nil:
		r.logger.Warn("rule cache read failed", zap.String("key", key), zap.Error(err))
	}

	rules, err := r.next.ListActive(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(rules)
	if err != nil {
		return rules, nil
	}
	if err := r.client.Set(ctx, key, payload, r.ttl).Err(); err != nil {
		r.logger.Warn("rule cache write failed", zap.String("key", key), zap.Error(err))
	}
	return rules, nil
}

func (r *ruleCache) key(ownerID int64) string {
	return fmt.Sprintf("%s%d", r.prefix, ownerID)
}

func decodeRules(raw []byte) ([]domain.Rule, error) {
	var rules []domain.Rule
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&rules); err != nil {
		return nil, err
	}
	return rules, nil
}
