package service

import (
	"context"

	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/metrics"
	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/model"
	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/repository"
	apperrors "github.com/laitim2001/ai-document-extraction-project-sub002/pkg/errors"
)

// configKeyMaxRetries 重试上限的配置键, 缺失时使用 defaultMaxRetries
const (
	configKeyMaxRetries = "ingestion.max_retries"
	defaultMaxRetries   = 3
)

// WorkflowService 工作流执行看板服务
// 执行记录由提取管道写入, 这里只做查询、统计、重试与人工复核
type WorkflowService struct {
	workflowRepo *repository.WorkflowRepository
	auditRepo    *repository.AuditLogRepository
	configs      *ConfigService
}

// NewWorkflowService 创建工作流看板服务
func NewWorkflowService(workflowRepo *repository.WorkflowRepository, auditRepo *repository.AuditLogRepository, configs *ConfigService) *WorkflowService {
	return &WorkflowService{
		workflowRepo: workflowRepo,
		auditRepo:    auditRepo,
		configs:      configs,
	}
}

// WorkflowQuery 执行记录查询条件
type WorkflowQuery struct {
	DocumentID   string               `form:"document_id"`
	WorkflowType string               `form:"workflow_type"`
	Status       model.WorkflowStatus `form:"status"`
	StartTime    *int64               `form:"start_time"`
	EndTime      *int64               `form:"end_time"`
}

// List 获取执行记录列表
func (s *WorkflowService) List(ctx context.Context, page *model.Pagination, query *WorkflowQuery) ([]*model.WorkflowExecution, error) {
	filter := &repository.WorkflowFilter{}
	if query != nil {
		if query.Status != "" && !query.Status.IsValid() {
			return nil, apperrors.ErrInvalidRequest.WithMessagef("未知执行状态: %s", query.Status)
		}
		filter.DocumentID = query.DocumentID
		filter.WorkflowType = query.WorkflowType
		filter.Status = query.Status
		filter.StartTime = query.StartTime
		filter.EndTime = query.EndTime
	}
	return s.workflowRepo.List(ctx, page, filter)
}

// GetByID 根据 ID 获取执行记录
func (s *WorkflowService) GetByID(ctx context.Context, id int64) (*model.WorkflowExecution, error) {
	exec, err := s.workflowRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if exec == nil {
		return nil, apperrors.ErrWorkflowNotFound
	}
	return exec, nil
}

// Stats 获取工作流总览统计
func (s *WorkflowService) Stats(ctx context.Context) (*model.WorkflowStats, error) {
	stats, err := s.workflowRepo.Stats(ctx)
	if err != nil {
		return nil, err
	}

	metrics.UpdateWorkflowGauge(string(model.WorkflowStatusPending), float64(stats.PendingCount))
	metrics.UpdateWorkflowGauge(string(model.WorkflowStatusProcessing), float64(stats.ProcessingCount))
	metrics.UpdateWorkflowGauge(string(model.WorkflowStatusCompleted), float64(stats.CompletedCount))
	metrics.UpdateWorkflowGauge(string(model.WorkflowStatusFailed), float64(stats.FailedCount))
	metrics.UpdateWorkflowGauge(string(model.WorkflowStatusNeedsReview), float64(stats.NeedsReviewCount))

	return stats, nil
}

// Retry 将失败的执行重置为待处理, 重试次数受配置上限约束
func (s *WorkflowService) Retry(ctx context.Context, id, operatorID int64, operator string) (*model.WorkflowExecution, error) {
	exec, err := s.workflowRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if exec == nil {
		return nil, apperrors.ErrWorkflowNotFound
	}
	if exec.Status != model.WorkflowStatusFailed {
		return nil, apperrors.ErrValidation.WithMessage("仅失败的执行可以重试")
	}
	if exec.RetryCount >= s.maxRetries(ctx) {
		return nil, apperrors.ErrValidation.WithMessagef("重试次数已达上限 %d", s.maxRetries(ctx))
	}

	if err := s.workflowRepo.IncrementRetry(ctx, id); err != nil {
		return nil, err
	}

	metrics.RecordWorkflowOperation("retry")
	s.recordAudit(ctx, operatorID, operator, model.AuditActionRetry, exec, "重试工作流执行",
		model.JSONMap{"status": exec.Status, "retry_count": exec.RetryCount},
		model.JSONMap{"status": model.WorkflowStatusPending, "retry_count": exec.RetryCount + 1})

	return s.workflowRepo.GetByID(ctx, id)
}

// Review 人工复核待复核的执行, 通过置为完成, 驳回置为失败
// 旧状态不匹配说明已被并发处理, 返回 ErrConcurrencyConflict
func (s *WorkflowService) Review(ctx context.Context, id int64, approve bool, operatorID int64, operator string) (*model.WorkflowExecution, error) {
	exec, err := s.workflowRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if exec == nil {
		return nil, apperrors.ErrWorkflowNotFound
	}
	if exec.Status != model.WorkflowStatusNeedsReview {
		return nil, apperrors.ErrValidation.WithMessage("仅待复核的执行可以复核")
	}

	newStatus := model.WorkflowStatusCompleted
	description := "复核通过工作流执行"
	if !approve {
		newStatus = model.WorkflowStatusFailed
		description = "复核驳回工作流执行"
	}

	if err := s.workflowRepo.UpdateStatusCAS(ctx, id, model.WorkflowStatusNeedsReview, newStatus); err != nil {
		return nil, err
	}

	metrics.RecordWorkflowOperation("review")
	s.recordAudit(ctx, operatorID, operator, model.AuditActionUpdate, exec, description,
		model.JSONMap{"status": exec.Status},
		model.JSONMap{"status": newStatus})

	return s.workflowRepo.GetByID(ctx, id)
}

// maxRetries 从配置中心读取重试上限, 读取失败时使用默认值
func (s *WorkflowService) maxRetries(ctx context.Context) int {
	if s.configs == nil {
		return defaultMaxRetries
	}
	v, err := s.configs.GetNumber(ctx, configKeyMaxRetries)
	if err != nil || v <= 0 {
		return defaultMaxRetries
	}
	return int(v)
}

// recordAudit 记录工作流操作审计
func (s *WorkflowService) recordAudit(ctx context.Context, operatorID int64, operator string, action model.AuditAction,
	exec *model.WorkflowExecution, description string, oldValue, newValue model.JSONMap) {

	s.auditRepo.Create(ctx, &model.AuditLog{
		AdminID:       operatorID,
		AdminUsername: operator,
		Action:        action,
		ResourceType:  model.ResourceTypeWorkflow,
		ResourceID:    exec.DocumentID,
		Description:   description,
		OldValue:      oldValue,
		NewValue:      newValue,
		Status:        model.AuditStatusSuccess,
	})
}
