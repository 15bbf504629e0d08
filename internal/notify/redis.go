package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/metrics"
	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/model"
	"github.com/laitim2001/ai-document-extraction-project-sub002/pkg/logger"
)

// DefaultReloadChannel 配置重载广播默认频道
const DefaultReloadChannel = "doc:config:reload"

// ReloadNotifier 通过 Redis 频道广播配置变更, 其他实例据此失效本地缓存
type ReloadNotifier struct {
	client  redis.UniversalClient
	channel string
}

// NewReloadNotifier 创建 Redis 重载通知器
func NewReloadNotifier(client redis.UniversalClient, channel string) *ReloadNotifier {
	if channel == "" {
		channel = DefaultReloadChannel
	}
	return &ReloadNotifier{client: client, channel: channel}
}

// Name 通知器名称
func (n *ReloadNotifier) Name() string {
	return "redis"
}

// Notify 广播配置变更事件
func (n *ReloadNotifier) Notify(ctx context.Context, event *model.ConfigChangeEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		metrics.RecordConfigEventPublished(n.Name(), false)
		return fmt.Errorf("marshal change event failed: %w", err)
	}

	if err := n.client.Publish(ctx, n.channel, payload).Err(); err != nil {
		metrics.RecordConfigEventPublished(n.Name(), false)
		return fmt.Errorf("publish reload message failed: %w", err)
	}

	metrics.RecordConfigEventPublished(n.Name(), true)
	return nil
}

// ReloadHandler 收到变更广播后的回调
type ReloadHandler func(event *model.ConfigChangeEvent)

// ReloadSubscriber 订阅配置重载广播
type ReloadSubscriber struct {
	client  redis.UniversalClient
	channel string
	pubsub  *redis.PubSub
	closed  int32
}

// NewReloadSubscriber 创建重载广播订阅器
func NewReloadSubscriber(client redis.UniversalClient, channel string) *ReloadSubscriber {
	if channel == "" {
		channel = DefaultReloadChannel
	}
	return &ReloadSubscriber{client: client, channel: channel}
}

// Subscribe 订阅频道并启动消息处理协程
func (s *ReloadSubscriber) Subscribe(ctx context.Context, handler ReloadHandler) error {
	pubsub := s.client.Subscribe(ctx, s.channel)

	// 等待订阅确认
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return fmt.Errorf("subscribe channel %s failed: %w", s.channel, err)
	}
	s.pubsub = pubsub

	go s.handleMessages(handler)

	logger.Info("subscribed to reload channel", zap.String("channel", s.channel))
	return nil
}

func (s *ReloadSubscriber) handleMessages(handler ReloadHandler) {
	for msg := range s.pubsub.Channel() {
		var event model.ConfigChangeEvent
		if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
			logger.Warn("invalid reload message",
				zap.String("channel", msg.Channel),
				zap.Error(err),
			)
			continue
		}
		handler(&event)
	}
}

// Close 取消订阅
func (s *ReloadSubscriber) Close() error {
	if !atomic.CompareAndSwapInt32(&s.closed, 0, 1) {
		return nil
	}
	if s.pubsub != nil {
		return s.pubsub.Close()
	}
	return nil
}
