// Package cache dealer 隐藏列表的 Redis 实现
package cache

import (
	"context"
	"fmt"
	"strconv"

	"github.com/wyfcoding/leadmarket/internal/dealer/domain"
	"github.com/wyfcoding/leadmarket/pkg/cache"
)

// hiddenLeadStore 以 Redis set 保存每个 dealer 的隐藏列表
// key: dealer:{id}:hidden_leads
type hiddenLeadStore struct {
	redis *cache.RedisCache
}

// NewHiddenLeadStore 创建隐藏列表存储实例
func NewHiddenLeadStore(redis *cache.RedisCache) domain.HiddenLeadStore {
	return &hiddenLeadStore{redis: redis}
}

func hiddenKey(dealerID uint) string {
	return fmt.Sprintf("dealer:%d:hidden_leads", dealerID)
}

func (s *hiddenLeadStore) Hide(ctx context.Context, dealerID, leadID uint) error {
	return s.redis.SAdd(ctx, hiddenKey(dealerID), leadID)
}

func (s *hiddenLeadStore) Unhide(ctx context.Context, dealerID, leadID uint) error {
	return s.redis.SRem(ctx, hiddenKey(dealerID), leadID)
}

func (s *hiddenLeadStore) Hidden(ctx context.Context, dealerID uint) ([]uint, error) {
	members, err := s.redis.SMembers(ctx, hiddenKey(dealerID))
	if err != nil {
		return nil, err
	}

	ids := make([]uint, 0, len(members))
	for _, m := range members {
		id, err := strconv.ParseUint(m, 10, 32)
		if err != nil {
			// 脏数据跳过，不让一个坏成员拖垮整个列表
			continue
		}
		ids = append(ids, uint(id))
	}
	return ids, nil
}
