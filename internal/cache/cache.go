package cache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/metrics"
	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/model"
	apperrors "github.com/laitim2001/ai-document-extraction-project-sub002/pkg/errors"
)

// DefaultTTL 快照默认存活时间
const DefaultTTL = 30 * time.Second

// Loader 缓存回源接口, 加密配置返回解密后的明文
type Loader interface {
	LoadAll(ctx context.Context) (map[string]model.ParsedValue, error)
	LoadOne(ctx context.Context, key string) (model.ParsedValue, error)
}

// Cache 配置读缓存
// 维护全量快照, 过期后整体刷新; 单键失效后该键按需回源, 其余快照不受影响
type Cache struct {
	loader Loader
	ttl    time.Duration

	mu       sync.RWMutex
	values   map[string]model.ParsedValue
	loadedAt time.Time

	single singleflight.Group
}

// New 创建配置缓存
func New(loader Loader, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		loader: loader,
		ttl:    ttl,
		values: make(map[string]model.ParsedValue),
	}
}

// Get 读取配置值
func (c *Cache) Get(ctx context.Context, key string) (model.ParsedValue, error) {
	c.mu.RLock()
	fresh := c.freshLocked()
	value, ok := c.values[key]
	c.mu.RUnlock()

	if fresh && ok {
		metrics.RecordCacheHit()
		return value, nil
	}

	metrics.RecordCacheMiss()

	if fresh {
		// 快照有效但单键缺失, 多为定向失效后的首次读取, 按键回源
		return c.loadOne(ctx, key)
	}

	if err := c.refresh(ctx); err != nil {
		return model.ParsedValue{}, err
	}

	c.mu.RLock()
	value, ok = c.values[key]
	c.mu.RUnlock()
	if !ok {
		return model.ParsedValue{}, apperrors.ErrConfigNotFound
	}
	return value, nil
}

// Snapshot 返回当前全量快照的副本, 过期时先刷新
func (c *Cache) Snapshot(ctx context.Context) (map[string]model.ParsedValue, error) {
	c.mu.RLock()
	fresh := c.freshLocked()
	c.mu.RUnlock()

	if !fresh {
		if err := c.refresh(ctx); err != nil {
			return nil, err
		}
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]model.ParsedValue, len(c.values))
	for k, v := range c.values {
		out[k] = v
	}
	return out, nil
}

// Invalidate 失效单个键, 下次读取按键回源
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	delete(c.values, key)
	c.mu.Unlock()
}

// InvalidateAll 失效全部缓存, 下次读取整体刷新
func (c *Cache) InvalidateAll() {
	c.mu.Lock()
	c.values = make(map[string]model.ParsedValue)
	c.loadedAt = time.Time{}
	c.mu.Unlock()
}

// freshLocked 判断快照是否仍在存活期内, 调用方需持有读锁
func (c *Cache) freshLocked() bool {
	return !c.loadedAt.IsZero() && time.Since(c.loadedAt) <= c.ttl
}

// refresh 整体刷新快照, 并发调用合并为一次回源
func (c *Cache) refresh(ctx context.Context) error {
	_, err, _ := c.single.Do("refresh", func() (interface{}, error) {
		values, err := c.loader.LoadAll(ctx)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.values = values
		c.loadedAt = time.Now()
		c.mu.Unlock()
		metrics.RecordCacheRefresh("full")
		return nil, nil
	})
	return err
}

// loadOne 按键回源, 同键并发调用合并为一次
func (c *Cache) loadOne(ctx context.Context, key string) (model.ParsedValue, error) {
	v, err, _ := c.single.Do("key:"+key, func() (interface{}, error) {
		value, err := c.loader.LoadOne(ctx, key)
		if err != nil {
			return model.ParsedValue{}, err
		}
		c.mu.Lock()
		c.values[key] = value
		c.mu.Unlock()
		metrics.RecordCacheRefresh("single")
		return value, nil
	})
	if err != nil {
		return model.ParsedValue{}, err
	}
	return v.(model.ParsedValue), nil
}
