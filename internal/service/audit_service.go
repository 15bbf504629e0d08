package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"strconv"
	"time"

	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/metrics"
	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/model"
	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/repository"
	apperrors "github.com/laitim2001/ai-document-extraction-project-sub002/pkg/errors"
)

// exportPageSize 导出时的单次最大行数
const exportPageSize = 10000

// AuditService 审计日志查询服务
// 日志的写入方是配置变更通知器、认证服务与审计中间件, 本服务只负责查询与导出
type AuditService struct {
	auditRepo *repository.AuditLogRepository
}

// NewAuditService 创建审计服务
func NewAuditService(auditRepo *repository.AuditLogRepository) *AuditService {
	return &AuditService{auditRepo: auditRepo}
}

// Create 创建审计日志
func (s *AuditService) Create(ctx context.Context, log *model.AuditLog) error {
	if err := s.auditRepo.Create(ctx, log); err != nil {
		return err
	}
	metrics.RecordAuditLog(string(log.Action), string(log.ResourceType), string(log.Status))
	return nil
}

// AuditLogQuery 审计日志查询条件
type AuditLogQuery struct {
	AdminID      *int64             `form:"admin_id"`
	Action       model.AuditAction  `form:"action"`
	ResourceType model.ResourceType `form:"resource_type"`
	ResourceID   string             `form:"resource_id"`
	Status       model.AuditStatus  `form:"status"`
	StartTime    *int64             `form:"start_time"`
	EndTime      *int64             `form:"end_time"`
}

// List 获取审计日志列表
func (s *AuditService) List(ctx context.Context, page *model.Pagination, query *AuditLogQuery) ([]*model.AuditLog, error) {
	filter := &repository.AuditLogFilter{}
	if query != nil {
		filter.AdminID = query.AdminID
		filter.Action = query.Action
		filter.ResourceType = query.ResourceType
		filter.ResourceID = query.ResourceID
		filter.Status = query.Status
		filter.StartTime = query.StartTime
		filter.EndTime = query.EndTime
	}

	metrics.AuditLogQueriesTotal.Inc()
	return s.auditRepo.List(ctx, page, filter)
}

// GetByID 根据 ID 获取审计日志
func (s *AuditService) GetByID(ctx context.Context, id int64) (*model.AuditLog, error) {
	log, err := s.auditRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if log == nil {
		return nil, apperrors.ErrNotFound.WithMessage("审计日志不存在")
	}
	return log, nil
}

// GetByResource 获取指定资源最近的审计日志
func (s *AuditService) GetByResource(ctx context.Context, resourceType model.ResourceType, resourceID string, limit int) ([]*model.AuditLog, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.auditRepo.ListByResource(ctx, resourceType, resourceID, limit)
}

// Export 导出审计日志, format 支持 csv 与 json, 默认 csv
func (s *AuditService) Export(ctx context.Context, query *AuditLogQuery, format string) ([]byte, string, error) {
	page := &model.Pagination{Page: 1, PageSize: exportPageSize}
	logs, err := s.List(ctx, page, query)
	if err != nil {
		return nil, "", err
	}

	if format == "json" {
		data, err := json.Marshal(logs)
		if err != nil {
			return nil, "", apperrors.Wrap(apperrors.ErrInternal, err)
		}
		return data, "audit_logs.json", nil
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"id", "admin_id", "admin_username", "action", "resource_type", "resource_id", "description", "status", "created_at"}); err != nil {
		return nil, "", apperrors.Wrap(apperrors.ErrInternal, err)
	}
	for _, log := range logs {
		record := []string{
			strconv.FormatInt(log.ID, 10),
			strconv.FormatInt(log.AdminID, 10),
			log.AdminUsername,
			string(log.Action),
			string(log.ResourceType),
			log.ResourceID,
			log.Description,
			string(log.Status),
			strconv.FormatInt(log.CreatedAt, 10),
		}
		if err := w.Write(record); err != nil {
			return nil, "", apperrors.Wrap(apperrors.ErrInternal, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, "", apperrors.Wrap(apperrors.ErrInternal, err)
	}

	return buf.Bytes(), "audit_logs.csv", nil
}

// PurgeOld 删除保留期之前的审计日志, 返回删除条数
func (s *AuditService) PurgeOld(ctx context.Context, retention time.Duration) (int64, error) {
	before := time.Now().Add(-retention).UnixMilli()
	return s.auditRepo.DeleteOldLogs(ctx, before)
}
