package notify

import (
	"context"

	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/metrics"
	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/model"
	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/repository"
)

// AuditNotifier 将配置变更事件落为审计日志
// 配置引擎只面向通知器接口, 审计作为其中一个接收端挂接
type AuditNotifier struct {
	auditRepo *repository.AuditLogRepository
}

// NewAuditNotifier 创建审计通知器
func NewAuditNotifier(auditRepo *repository.AuditLogRepository) *AuditNotifier {
	return &AuditNotifier{auditRepo: auditRepo}
}

// Name 通知器名称
func (n *AuditNotifier) Name() string {
	return "audit"
}

// Notify 写入一条审计日志, 事件体不含配置值
func (n *AuditNotifier) Notify(ctx context.Context, event *model.ConfigChangeEvent) error {
	log := &model.AuditLog{
		AdminUsername: event.Actor,
		Action:        auditAction(event.Action),
		ResourceType:  model.ResourceTypeSystemConfig,
		ResourceID:    event.ConfigKey,
		Description:   describeAction(event.Action),
		NewValue: model.JSONMap{
			"event_id":    event.ID,
			"action":      string(event.Action),
			"category":    event.Category,
			"effect_type": string(event.EffectType),
		},
		Status: model.AuditStatusSuccess,
	}

	if err := n.auditRepo.Create(ctx, log); err != nil {
		metrics.RecordConfigEventPublished("audit", false)
		return err
	}
	metrics.RecordConfigEventPublished("audit", true)
	return nil
}

func auditAction(action model.ChangeAction) model.AuditAction {
	switch action {
	case model.ChangeActionRollback:
		return model.AuditActionRollback
	case model.ChangeActionReset:
		return model.AuditActionReset
	case model.ChangeActionReload:
		return model.AuditActionReload
	case model.ChangeActionRotate:
		return model.AuditActionRotateKey
	default:
		return model.AuditActionUpdate
	}
}

func describeAction(action model.ChangeAction) string {
	switch action {
	case model.ChangeActionRollback:
		return "回滚系统配置"
	case model.ChangeActionReset:
		return "恢复配置默认值"
	case model.ChangeActionReload:
		return "重载配置缓存"
	case model.ChangeActionRotate:
		return "轮换配置主密钥"
	default:
		return "更新系统配置"
	}
}
