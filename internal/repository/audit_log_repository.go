package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/model"
	apperrors "github.com/laitim2001/ai-document-extraction-project-sub002/pkg/errors"
)

// AuditLogRepository 审计日志仓储
type AuditLogRepository struct {
	*Repository
}

// NewAuditLogRepository 创建审计日志仓储
func NewAuditLogRepository(db *gorm.DB) *AuditLogRepository {
	return &AuditLogRepository{Repository: NewRepository(db)}
}

// Create 创建审计日志
func (r *AuditLogRepository) Create(ctx context.Context, log *model.AuditLog) error {
	if err := r.DB(ctx).Create(log).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrStorage, err)
	}
	return nil
}

// GetByID 根据 ID 获取审计日志, 不存在时返回 (nil, nil)
func (r *AuditLogRepository) GetByID(ctx context.Context, id int64) (*model.AuditLog, error) {
	var log model.AuditLog
	err := r.DB(ctx).First(&log, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStorage, err)
	}
	return &log, nil
}

// AuditLogFilter 审计日志过滤条件
type AuditLogFilter struct {
	AdminID      *int64
	Action       model.AuditAction
	ResourceType model.ResourceType
	ResourceID   string
	Status       model.AuditStatus
	StartTime    *int64
	EndTime      *int64
}

// List 获取审计日志列表
func (r *AuditLogRepository) List(ctx context.Context, page *model.Pagination, filter *AuditLogFilter) ([]*model.AuditLog, error) {
	var logs []*model.AuditLog

	query := r.DB(ctx).Model(&model.AuditLog{})

	if filter != nil {
		if filter.AdminID != nil {
			query = query.Where("admin_id = ?", *filter.AdminID)
		}
		if filter.Action != "" {
			query = query.Where("action = ?", filter.Action)
		}
		if filter.ResourceType != "" {
			query = query.Where("resource_type = ?", filter.ResourceType)
		}
		if filter.ResourceID != "" {
			query = query.Where("resource_id = ?", filter.ResourceID)
		}
		if filter.Status != "" {
			query = query.Where("status = ?", filter.Status)
		}
		if filter.StartTime != nil {
			query = query.Where("created_at >= ?", *filter.StartTime)
		}
		if filter.EndTime != nil {
			query = query.Where("created_at <= ?", *filter.EndTime)
		}
	}

	if err := query.Count(&page.Total).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStorage, err)
	}

	err := query.Order("created_at DESC").
		Offset(page.GetOffset()).
		Limit(page.GetLimit()).
		Find(&logs).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStorage, err)
	}
	return logs, nil
}

// ListByResource 根据资源获取审计日志
func (r *AuditLogRepository) ListByResource(ctx context.Context, resourceType model.ResourceType, resourceID string, limit int) ([]*model.AuditLog, error) {
	var logs []*model.AuditLog
	err := r.DB(ctx).
		Where("resource_type = ? AND resource_id = ?", resourceType, resourceID).
		Order("created_at DESC").
		Limit(limit).
		Find(&logs).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStorage, err)
	}
	return logs, nil
}

// DeleteOldLogs 删除过期日志
func (r *AuditLogRepository) DeleteOldLogs(ctx context.Context, beforeTime int64) (int64, error) {
	result := r.DB(ctx).
		Where("created_at < ?", beforeTime).
		Delete(&model.AuditLog{})
	if result.Error != nil {
		return 0, apperrors.Wrap(apperrors.ErrStorage, result.Error)
	}
	return result.RowsAffected, nil
}
