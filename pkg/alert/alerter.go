// Package alert 提供运维告警通知 (webhook)
package alert

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/laitim2001/ai-document-extraction-project-sub002/pkg/logger"
)

// Severity 告警级别
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Alert 告警消息
type Alert struct {
	Title       string            `json:"title"`
	Message     string            `json:"message"`
	Severity    Severity          `json:"severity"`
	Source      string            `json:"source"`      // 服务名
	Environment string            `json:"environment"` // dev/staging/prod
	Tags        map[string]string `json:"tags,omitempty"`
	Timestamp   time.Time         `json:"timestamp"`
}

// Alerter 告警发送接口
type Alerter interface {
	// Send 同步发送告警
	Send(ctx context.Context, alert *Alert) error

	// SendAsync 异步发送告警
	SendAsync(ctx context.Context, alert *Alert)
}

// Config 告警配置
type Config struct {
	Enabled     bool   `yaml:"enabled"`
	Environment string `yaml:"environment"`
	ServiceName string `yaml:"service_name"`

	// Webhook 配置 (Teams, Slack 或通用 JSON)
	WebhookURL     string `yaml:"webhook_url"`
	WebhookType    string `yaml:"webhook_type"` // teams, slack, generic
	WebhookTimeout int    `yaml:"webhook_timeout"`

	// 每分钟限流
	RateLimitPerMinute int `yaml:"rate_limit_per_minute"`
}

// webhookAlerter 基于 webhook 的告警实现
type webhookAlerter struct {
	cfg    *Config
	client *http.Client

	mu           sync.Mutex
	alertCount   int
	windowStart  time.Time
	asyncAlertCh chan *Alert
	stopCh       chan struct{}
	wg           sync.WaitGroup
}

// NewAlerter 根据配置创建告警器, 未启用时返回 noop 实现
func NewAlerter(cfg *Config) Alerter {
	if cfg == nil || !cfg.Enabled {
		return &noopAlerter{}
	}

	timeout := 10 * time.Second
	if cfg.WebhookTimeout > 0 {
		timeout = time.Duration(cfg.WebhookTimeout) * time.Second
	}

	a := &webhookAlerter{
		cfg: cfg,
		client: &http.Client{
			Timeout: timeout,
		},
		windowStart:  time.Now(),
		asyncAlertCh: make(chan *Alert, 100),
		stopCh:       make(chan struct{}),
	}

	a.wg.Add(1)
	go a.asyncWorker()

	return a
}

// Send 同步发送告警
func (a *webhookAlerter) Send(ctx context.Context, alert *Alert) error {
	if !a.checkRateLimit() {
		logger.Warn("alert rate limited",
			zap.String("title", alert.Title),
			zap.String("severity", string(alert.Severity)))
		return nil
	}

	a.fill(alert)
	return a.sendWebhook(ctx, alert)
}

// SendAsync 异步发送告警, 队列满时丢弃
func (a *webhookAlerter) SendAsync(ctx context.Context, alert *Alert) {
	a.fill(alert)

	select {
	case a.asyncAlertCh <- alert:
	default:
		logger.Warn("alert channel full, dropping alert",
			zap.String("title", alert.Title))
	}
}

func (a *webhookAlerter) fill(alert *Alert) {
	alert.Source = a.cfg.ServiceName
	alert.Environment = a.cfg.Environment
	if alert.Timestamp.IsZero() {
		alert.Timestamp = time.Now()
	}
}

// asyncWorker 处理异步告警队列
func (a *webhookAlerter) asyncWorker() {
	defer a.wg.Done()

	for {
		select {
		case <-a.stopCh:
			return
		case alert := <-a.asyncAlertCh:
			if a.checkRateLimit() {
				if err := a.sendWebhook(context.Background(), alert); err != nil {
					logger.Error("async alert send failed",
						zap.String("title", alert.Title),
						zap.Error(err))
				}
			}
		}
	}
}

// checkRateLimit 检查是否超出限流窗口
func (a *webhookAlerter) checkRateLimit() bool {
	if a.cfg.RateLimitPerMinute <= 0 {
		return true
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	now := time.Now()
	if now.Sub(a.windowStart) > time.Minute {
		a.windowStart = now
		a.alertCount = 0
	}

	if a.alertCount >= a.cfg.RateLimitPerMinute {
		return false
	}

	a.alertCount++
	return true
}

// sendWebhook 按配置的格式发送 webhook
func (a *webhookAlerter) sendWebhook(ctx context.Context, alert *Alert) error {
	var payload []byte
	var err error

	switch a.cfg.WebhookType {
	case "teams":
		payload, err = a.formatTeams(alert)
	case "slack":
		payload, err = a.formatSlack(alert)
	default:
		payload, err = json.Marshal(alert)
	}

	if err != nil {
		return fmt.Errorf("format alert failed: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.WebhookURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request failed: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("send webhook failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	return nil
}

// formatTeams 格式化为 Teams MessageCard
func (a *webhookAlerter) formatTeams(alert *Alert) ([]byte, error) {
	color := "0076D7"
	switch alert.Severity {
	case SeverityWarning:
		color = "FFC107"
	case SeverityCritical:
		color = "DC3545"
	}

	facts := []map[string]string{
		{"name": "環境", "value": alert.Environment},
		{"name": "服務", "value": alert.Source},
		{"name": "時間", "value": alert.Timestamp.Format("2006-01-02 15:04:05")},
	}
	for k, v := range alert.Tags {
		facts = append(facts, map[string]string{"name": k, "value": v})
	}

	payload := map[string]interface{}{
		"@type":      "MessageCard",
		"@context":   "http://schema.org/extensions",
		"themeColor": color,
		"summary":    alert.Title,
		"sections": []map[string]interface{}{
			{
				"activityTitle": alert.Title,
				"text":          alert.Message,
				"facts":         facts,
			},
		},
	}

	return json.Marshal(payload)
}

// formatSlack 格式化为 Slack attachment
func (a *webhookAlerter) formatSlack(alert *Alert) ([]byte, error) {
	color := "#36a64f"
	switch alert.Severity {
	case SeverityWarning:
		color = "#ffc107"
	case SeverityCritical:
		color = "#dc3545"
	}

	payload := map[string]interface{}{
		"attachments": []map[string]interface{}{
			{
				"color": color,
				"title": alert.Title,
				"text":  alert.Message,
				"fields": []map[string]interface{}{
					{"title": "Environment", "value": alert.Environment, "short": true},
					{"title": "Service", "value": alert.Source, "short": true},
				},
				"footer": "doc-admin alert",
				"ts":     alert.Timestamp.Unix(),
			},
		},
	}

	return json.Marshal(payload)
}

// Stop 优雅停止异步发送
func (a *webhookAlerter) Stop() {
	close(a.stopCh)
	a.wg.Wait()
}

// noopAlerter 告警未启用时的空实现
type noopAlerter struct{}

func (n *noopAlerter) Send(ctx context.Context, alert *Alert) error {
	return nil
}

func (n *noopAlerter) SendAsync(ctx context.Context, alert *Alert) {}
