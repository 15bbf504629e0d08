package notify

import (
	"context"
	"fmt"

	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/metrics"
	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/model"
	"github.com/laitim2001/ai-document-extraction-project-sub002/pkg/alert"
)

// AlertNotifier 将需要重启生效的配置变更上报告警渠道
type AlertNotifier struct {
	alerter alert.Alerter
}

// NewAlertNotifier 创建告警通知器
func NewAlertNotifier(alerter alert.Alerter) *AlertNotifier {
	return &AlertNotifier{alerter: alerter}
}

// Name 通知器名称
func (n *AlertNotifier) Name() string {
	return "alert"
}

// Notify 上报配置变更
// 只有重启生效的变更才告警, 立即生效的变更不打扰值班
func (n *AlertNotifier) Notify(ctx context.Context, event *model.ConfigChangeEvent) error {
	if event.EffectType != model.EffectRestartRequired {
		return nil
	}

	err := n.alerter.Send(ctx, &alert.Alert{
		Severity: alert.SeverityWarning,
		Title:    "配置变更需要重启生效",
		Message: fmt.Sprintf("配置 %s 已由 %s 执行 %s, 需重启相关服务后生效",
			event.ConfigKey, event.Actor, event.Action),
		Tags: map[string]string{
			"config_key": event.ConfigKey,
			"action":     string(event.Action),
			"category":   event.Category,
		},
	})
	metrics.RecordConfigEventPublished(n.Name(), err == nil)
	return err
}
