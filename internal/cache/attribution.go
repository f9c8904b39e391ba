package cache

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// AttributionState 会话推广归因快照
// 每个会话最多一条记录，后捕获的推广人覆盖先捕获的。
// 该结构仅用于服务端 Redis 存储
type AttributionState struct {
	AffiliateID uint  `json:"affiliate_id"`
	CapturedAt  int64 `json:"captured_at"`
}

func attributionKey(sessionKey string) string {
	return fmt.Sprintf("ref:session:%s", strings.TrimSpace(sessionKey))
}

// RedisAttributionStore 基于 Redis 的归因令牌存储
type RedisAttributionStore struct {
	ttl time.Duration
}

// NewRedisAttributionStore 创建 Redis 归因存储
func NewRedisAttributionStore(ttl time.Duration) *RedisAttributionStore {
	if ttl <= 0 {
		ttl = 720 * time.Hour
	}
	return &RedisAttributionStore{ttl: ttl}
}

// Capture 写入或覆盖会话归因
func (s *RedisAttributionStore) Capture(ctx context.Context, sessionKey string, affiliateID uint) error {
	if strings.TrimSpace(sessionKey) == "" || affiliateID == 0 {
		return nil
	}
	state := AttributionState{
		AffiliateID: affiliateID,
		CapturedAt:  time.Now().Unix(),
	}
	return SetJSON(ctx, attributionKey(sessionKey), state, s.ttl)
}

// Peek 读取会话归因但不消费
func (s *RedisAttributionStore) Peek(ctx context.Context, sessionKey string) (uint, bool, error) {
	if strings.TrimSpace(sessionKey) == "" {
		return 0, false, nil
	}
	var state AttributionState
	hit, err := GetJSON(ctx, attributionKey(sessionKey), &state)
	if err != nil || !hit {
		return 0, hit, err
	}
	return state.AffiliateID, true, nil
}

// Consume 读取并删除会话归因。
// GETDEL 保证并发下单时同一令牌只会被消费一次。
func (s *RedisAttributionStore) Consume(ctx context.Context, sessionKey string) (uint, bool, error) {
	if strings.TrimSpace(sessionKey) == "" {
		return 0, false, nil
	}
	var state AttributionState
	hit, err := GetDelJSON(ctx, attributionKey(sessionKey), &state)
	if err != nil || !hit {
		return 0, hit, err
	}
	return state.AffiliateID, true, nil
}

// Clear 清除会话归因
func (s *RedisAttributionStore) Clear(ctx context.Context, sessionKey string) error {
	if strings.TrimSpace(sessionKey) == "" {
		return nil
	}
	return Del(ctx, attributionKey(sessionKey))
}
