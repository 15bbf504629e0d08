package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/model"
	apperrors "github.com/laitim2001/ai-document-extraction-project-sub002/pkg/errors"
)

// WorkflowRepository 工作流执行仓储
type WorkflowRepository struct {
	*Repository
}

// NewWorkflowRepository 创建工作流执行仓储
func NewWorkflowRepository(db *gorm.DB) *WorkflowRepository {
	return &WorkflowRepository{Repository: NewRepository(db)}
}

// Create 创建执行记录
func (r *WorkflowRepository) Create(ctx context.Context, exec *model.WorkflowExecution) error {
	if err := r.DB(ctx).Create(exec).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrStorage, err)
	}
	return nil
}

// GetByID 根据 ID 获取执行记录, 不存在时返回 (nil, nil)
func (r *WorkflowRepository) GetByID(ctx context.Context, id int64) (*model.WorkflowExecution, error) {
	var exec model.WorkflowExecution
	err := r.DB(ctx).First(&exec, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStorage, err)
	}
	return &exec, nil
}

// WorkflowFilter 执行记录过滤条件
type WorkflowFilter struct {
	DocumentID   string
	WorkflowType string
	Status       model.WorkflowStatus
	StartTime    *int64
	EndTime      *int64
}

// List 获取执行记录列表
func (r *WorkflowRepository) List(ctx context.Context, page *model.Pagination, filter *WorkflowFilter) ([]*model.WorkflowExecution, error) {
	var execs []*model.WorkflowExecution

	query := r.DB(ctx).Model(&model.WorkflowExecution{})
	if filter != nil {
		if filter.DocumentID != "" {
			query = query.Where("document_id = ?", filter.DocumentID)
		}
		if filter.WorkflowType != "" {
			query = query.Where("workflow_type = ?", filter.WorkflowType)
		}
		if filter.Status != "" {
			query = query.Where("status = ?", filter.Status)
		}
		if filter.StartTime != nil {
			query = query.Where("started_at >= ?", *filter.StartTime)
		}
		if filter.EndTime != nil {
			query = query.Where("started_at <= ?", *filter.EndTime)
		}
	}

	if err := query.Count(&page.Total).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStorage, err)
	}

	err := query.Order("started_at DESC, id DESC").
		Offset(page.GetOffset()).
		Limit(page.GetLimit()).
		Find(&execs).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStorage, err)
	}
	return execs, nil
}

// UpdateStatusCAS 以旧状态做条件更新执行状态
// 旧状态不匹配说明记录已被并发处理, 返回 ErrConcurrencyConflict
func (r *WorkflowRepository) UpdateStatusCAS(ctx context.Context, id int64, oldStatus, newStatus model.WorkflowStatus) error {
	updates := map[string]interface{}{
		"status": newStatus,
	}
	if newStatus.IsTerminal() {
		updates["completed_at"] = time.Now().UnixMilli()
	}

	result := r.DB(ctx).Model(&model.WorkflowExecution{}).
		Where("id = ? AND status = ?", id, oldStatus).
		Updates(updates)
	if result.Error != nil {
		return apperrors.Wrap(apperrors.ErrStorage, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrConcurrencyConflict
	}
	return nil
}

// IncrementRetry 重试计数加一并重置为待处理
func (r *WorkflowRepository) IncrementRetry(ctx context.Context, id int64) error {
	result := r.DB(ctx).Model(&model.WorkflowExecution{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":        model.WorkflowStatusPending,
			"retry_count":   gorm.Expr("retry_count + 1"),
			"completed_at":  nil,
			"error_message": "",
		})
	if result.Error != nil {
		return apperrors.Wrap(apperrors.ErrStorage, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrWorkflowNotFound
	}
	return nil
}

// Stats 统计工作流总览
func (r *WorkflowRepository) Stats(ctx context.Context) (*model.WorkflowStats, error) {
	stats := &model.WorkflowStats{LastUpdatedAt: time.Now().UnixMilli()}

	if err := r.DB(ctx).Model(&model.WorkflowExecution{}).Count(&stats.TotalExecutions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStorage, err)
	}

	todayStart := time.Now().Truncate(24 * time.Hour).UnixMilli()
	if err := r.DB(ctx).Model(&model.WorkflowExecution{}).
		Where("started_at >= ?", todayStart).
		Count(&stats.TodayExecutions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStorage, err)
	}

	type statusCount struct {
		Status model.WorkflowStatus
		Count  int64
	}
	var counts []statusCount
	if err := r.DB(ctx).Model(&model.WorkflowExecution{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Scan(&counts).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStorage, err)
	}
	for _, c := range counts {
		switch c.Status {
		case model.WorkflowStatusPending:
			stats.PendingCount = c.Count
		case model.WorkflowStatusProcessing:
			stats.ProcessingCount = c.Count
		case model.WorkflowStatusCompleted:
			stats.CompletedCount = c.Count
		case model.WorkflowStatusFailed:
			stats.FailedCount = c.Count
		case model.WorkflowStatusNeedsReview:
			stats.NeedsReviewCount = c.Count
		}
	}

	var avgConfidence *float64
	if err := r.DB(ctx).Model(&model.WorkflowExecution{}).
		Select("AVG(confidence)").
		Where("confidence IS NOT NULL").
		Scan(&avgConfidence).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStorage, err)
	}
	if avgConfidence != nil {
		stats.AvgConfidence = *avgConfidence
	}

	var avgDuration *float64
	if err := r.DB(ctx).Model(&model.WorkflowExecution{}).
		Select("AVG(completed_at - started_at)").
		Where("completed_at IS NOT NULL").
		Scan(&avgDuration).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStorage, err)
	}
	if avgDuration != nil {
		stats.AvgDurationMs = *avgDuration
	}

	return stats, nil
}
