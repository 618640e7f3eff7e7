package application

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/leadmarket/internal/apperr"
	"github.com/wyfcoding/leadmarket/internal/pricing/domain"
	"github.com/wyfcoding/leadmarket/pkg/cache"
)

const (
	settingsCacheKey = "leadmarket:settings"
	settingsCacheTTL = 5 * time.Minute
)

// SettingsService 全局价格设置服务，读路径走 Redis cache-aside
type SettingsService struct {
	repo      domain.SettingsRepository
	cache     *cache.RedisCache
	publisher domain.EventPublisher
	logger    *slog.Logger
}

// NewSettingsService 创建设置服务实例
func NewSettingsService(repo domain.SettingsRepository, c *cache.RedisCache, publisher domain.EventPublisher, logger *slog.Logger) *SettingsService {
	return &SettingsService{
		repo:      repo,
		cache:     c,
		publisher: publisher,
		logger:    logger.With("service", "pricing_settings"),
	}
}

// GetSettings 读取全局设置
func (s *SettingsService) GetSettings(ctx context.Context) (*domain.Settings, error) {
	if s.cache != nil {
		var cached domain.Settings
		hit, err := s.cache.GetJSON(ctx, settingsCacheKey, &cached)
		if err == nil && hit {
			return &cached, nil
		}
	}

	settings, err := s.repo.Get(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, settingsCacheKey, settings, settingsCacheTTL); err != nil {
			s.logger.WarnContext(ctx, "failed to cache settings", "error", err)
		}
	}
	return settings, nil
}

// UpdateSettingsCommand 设置更新命令
type UpdateSettingsCommand struct {
	StandardPrice         decimal.Decimal
	DiscountedPrice       decimal.Decimal
	AgeDiscountEnabled    bool
	AgeDiscountDays       int
	AgeDiscountPercentage decimal.Decimal
}

// UpdateSettings 更新全局设置并失效缓存
func (s *SettingsService) UpdateSettings(ctx context.Context, cmd UpdateSettingsCommand) (*domain.Settings, error) {
	if cmd.StandardPrice.IsNegative() || cmd.DiscountedPrice.IsNegative() {
		return nil, apperr.Validation("prices must not be negative")
	}
	if cmd.AgeDiscountDays < 0 {
		return nil, apperr.Validation("age discount days must not be negative")
	}

	settings, err := s.repo.Get(ctx)
	if err != nil {
		return nil, err
	}

	settings.StandardPrice = cmd.StandardPrice
	settings.DiscountedPrice = cmd.DiscountedPrice
	settings.AgeDiscountEnabled = cmd.AgeDiscountEnabled
	settings.AgeDiscountDays = cmd.AgeDiscountDays
	settings.AgeDiscountPercentage = cmd.AgeDiscountPercentage

	if err := s.repo.Save(ctx, settings); err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Delete(ctx, settingsCacheKey); err != nil {
			s.logger.WarnContext(ctx, "failed to invalidate settings cache", "error", err)
		}
	}

	if s.publisher != nil {
		event := domain.SettingsUpdatedEvent{
			StandardPrice:         settings.StandardPrice,
			DiscountedPrice:       settings.DiscountedPrice,
			AgeDiscountEnabled:    settings.AgeDiscountEnabled,
			AgeDiscountDays:       settings.AgeDiscountDays,
			AgeDiscountPercentage: settings.AgeDiscountPercentage,
			OccurredOn:            time.Now(),
		}
		if err := s.publisher.PublishSettingsUpdated(ctx, event); err != nil {
			s.logger.WarnContext(ctx, "failed to publish settings updated event", "error", err)
		}
	}

	return settings, nil
}
