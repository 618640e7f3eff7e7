// Package outbox 事务性发件箱：事件先随业务事务落库，再由中继异步投递到 Kafka
package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/wyfcoding/leadmarket/pkg/logger"
)

// Message 发件箱消息记录
type Message struct {
	ID          uint       `gorm:"primaryKey"`
	Topic       string     `gorm:"column:topic;type:varchar(100);not null"`
	Key         string     `gorm:"column:msg_key;type:varchar(100)"`
	Payload     string     `gorm:"column:payload;type:text;not null"`
	CreatedAt   time.Time  `gorm:"column:created_at"`
	PublishedAt *time.Time `gorm:"column:published_at;index"`
}

func (Message) TableName() string { return "outbox_messages" }

// Producer 中继使用的消息投递接口
type Producer interface {
	SendRaw(ctx context.Context, topic string, key string, payload []byte) error
}

// Manager 发件箱管理器
type Manager struct {
	db       *gorm.DB
	producer Producer
	interval time.Duration
	batch    int
}

// NewManager 创建发件箱管理器
func NewManager(db *gorm.DB, producer Producer, interval time.Duration) *Manager {
	if interval <= 0 {
		interval = time.Second
	}
	return &Manager{
		db:       db,
		producer: producer,
		interval: interval,
		batch:    100,
	}
}

// DB 发件箱所在的数据库句柄
func (m *Manager) DB() *gorm.DB { return m.db }

// Publish 非事务场景下写入发件箱
func (m *Manager) Publish(ctx context.Context, topic, key string, event any) error {
	return m.PublishInTx(ctx, m.db, topic, key, event)
}

// PublishInTx 在给定事务中写入发件箱，与业务写入同生共死
func (m *Manager) PublishInTx(ctx context.Context, tx *gorm.DB, topic, key string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal outbox event: %w", err)
	}
	msg := &Message{
		Topic:   topic,
		Key:     key,
		Payload: string(payload),
	}
	return tx.WithContext(ctx).Create(msg).Error
}

// Run 中继循环：按批读取未投递消息发往 Kafka，随 ctx 取消退出
func (m *Manager) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	logger.Info(ctx, "Outbox relay started", "interval", m.interval.String())
	for {
		select {
		case <-ctx.Done():
			logger.Info(context.Background(), "Outbox relay stopped")
			return
		case <-ticker.C:
			if err := m.relayOnce(ctx); err != nil {
				logger.Error(ctx, "Outbox relay pass failed", "error", err)
			}
		}
	}
}

func (m *Manager) relayOnce(ctx context.Context) error {
	var pending []Message
	err := m.db.WithContext(ctx).
		Where("published_at IS NULL").
		Order("id ASC").
		Limit(m.batch).
		Find(&pending).Error
	if err != nil {
		return err
	}

	for _, msg := range pending {
		if err := m.producer.SendRaw(ctx, msg.Topic, msg.Key, []byte(msg.Payload)); err != nil {
			// 投递失败的消息留在发件箱，下一轮重试
			return err
		}
		now := time.Now()
		err = m.db.WithContext(ctx).Model(&Message{}).
			Where("id = ?", msg.ID).
			Update("published_at", now).Error
		if err != nil {
			return err
		}
	}
	return nil
}
