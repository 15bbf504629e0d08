package service

import (
	"context"
	"regexp"

	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/metrics"
	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/model"
	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/repository"
	apperrors "github.com/laitim2001/ai-document-extraction-project-sub002/pkg/errors"
)

// MailRuleService 邮箱监控规则服务
// 规则的实际匹配由采集服务执行, 这里只负责规则的维护与校验
type MailRuleService struct {
	ruleRepo  *repository.MailRuleRepository
	auditRepo *repository.AuditLogRepository
}

// NewMailRuleService 创建邮箱规则服务
func NewMailRuleService(ruleRepo *repository.MailRuleRepository, auditRepo *repository.AuditLogRepository) *MailRuleService {
	return &MailRuleService{
		ruleRepo:  ruleRepo,
		auditRepo: auditRepo,
	}
}

// CreateMailRuleRequest 创建规则请求
type CreateMailRuleRequest struct {
	Name            string   `json:"name" binding:"required,max=100"`
	Folder          string   `json:"folder" binding:"max=200"`
	SenderWhitelist []string `json:"sender_whitelist"`
	SubjectPattern  string   `json:"subject_pattern" binding:"max=500"`
	TargetWorkflow  string   `json:"target_workflow" binding:"required,max=50"`
	Priority        int      `json:"priority"`
	Enabled         bool     `json:"enabled"`
	Description     string   `json:"description" binding:"max=500"`
	OperatorID      int64    `json:"-"`
	Operator        string   `json:"-"`
}

// Create 创建规则
func (s *MailRuleService) Create(ctx context.Context, req *CreateMailRuleRequest) (*model.MailRule, error) {
	if err := validateRule(req.SubjectPattern, req.Priority); err != nil {
		return nil, err
	}

	existing, err := s.ruleRepo.GetByName(ctx, req.Name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperrors.ErrDuplicateKey.WithMessage("规则名已存在")
	}

	rule := &model.MailRule{
		Name:            req.Name,
		Folder:          req.Folder,
		SenderWhitelist: req.SenderWhitelist,
		SubjectPattern:  req.SubjectPattern,
		TargetWorkflow:  req.TargetWorkflow,
		Priority:        req.Priority,
		Enabled:         req.Enabled,
		Description:     req.Description,
		CreatedBy:       req.Operator,
		UpdatedBy:       req.Operator,
	}

	if err := s.ruleRepo.Create(ctx, rule); err != nil {
		return nil, err
	}

	metrics.RecordMailRuleOperation("create")
	s.recordAudit(ctx, req.OperatorID, req.Operator, model.AuditActionCreate, rule.Name,
		"创建邮箱规则", nil, s.ruleToJSONMap(rule))

	return rule, nil
}

// UpdateMailRuleRequest 更新规则请求, 指针字段为空时保持原值
type UpdateMailRuleRequest struct {
	ID              int64     `json:"-"`
	Folder          *string   `json:"folder"`
	SenderWhitelist *[]string `json:"sender_whitelist"`
	SubjectPattern  *string   `json:"subject_pattern"`
	TargetWorkflow  *string   `json:"target_workflow"`
	Priority        *int      `json:"priority"`
	Description     *string   `json:"description"`
	OperatorID      int64     `json:"-"`
	Operator        string    `json:"-"`
}

// Update 更新规则, 规则名不可变更
func (s *MailRuleService) Update(ctx context.Context, req *UpdateMailRuleRequest) (*model.MailRule, error) {
	rule, err := s.ruleRepo.GetByID(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	if rule == nil {
		return nil, apperrors.ErrRuleNotFound
	}

	oldValue := s.ruleToJSONMap(rule)

	if req.Folder != nil {
		rule.Folder = *req.Folder
	}
	if req.SenderWhitelist != nil {
		rule.SenderWhitelist = *req.SenderWhitelist
	}
	if req.SubjectPattern != nil {
		rule.SubjectPattern = *req.SubjectPattern
	}
	if req.TargetWorkflow != nil {
		if *req.TargetWorkflow == "" {
			return nil, apperrors.ErrInvalidRequest.WithMessage("目标工作流不能为空")
		}
		rule.TargetWorkflow = *req.TargetWorkflow
	}
	if req.Priority != nil {
		rule.Priority = *req.Priority
	}
	if req.Description != nil {
		rule.Description = *req.Description
	}
	rule.UpdatedBy = req.Operator

	if err := validateRule(rule.SubjectPattern, rule.Priority); err != nil {
		return nil, err
	}

	if err := s.ruleRepo.Update(ctx, rule); err != nil {
		return nil, err
	}

	metrics.RecordMailRuleOperation("update")
	s.recordAudit(ctx, req.OperatorID, req.Operator, model.AuditActionUpdate, rule.Name,
		"更新邮箱规则", oldValue, s.ruleToJSONMap(rule))

	return rule, nil
}

// UpdateEnabled 启用或停用规则
func (s *MailRuleService) UpdateEnabled(ctx context.Context, id int64, enabled bool, operatorID int64, operator string) error {
	rule, err := s.ruleRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if rule == nil {
		return apperrors.ErrRuleNotFound
	}

	if err := s.ruleRepo.UpdateEnabled(ctx, id, enabled, operator); err != nil {
		return err
	}

	operation := "enable"
	description := "启用邮箱规则"
	if !enabled {
		operation = "disable"
		description = "停用邮箱规则"
	}
	metrics.RecordMailRuleOperation(operation)
	s.recordAudit(ctx, operatorID, operator, model.AuditActionUpdate, rule.Name,
		description, model.JSONMap{"enabled": rule.Enabled}, model.JSONMap{"enabled": enabled})

	return nil
}

// Delete 删除规则
func (s *MailRuleService) Delete(ctx context.Context, id, operatorID int64, operator string) error {
	rule, err := s.ruleRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if rule == nil {
		return apperrors.ErrRuleNotFound
	}

	if err := s.ruleRepo.Delete(ctx, id); err != nil {
		return err
	}

	metrics.RecordMailRuleOperation("delete")
	s.recordAudit(ctx, operatorID, operator, model.AuditActionDelete, rule.Name,
		"删除邮箱规则", s.ruleToJSONMap(rule), nil)

	return nil
}

// GetByID 根据 ID 获取规则
func (s *MailRuleService) GetByID(ctx context.Context, id int64) (*model.MailRule, error) {
	rule, err := s.ruleRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rule == nil {
		return nil, apperrors.ErrRuleNotFound
	}
	return rule, nil
}

// List 获取规则列表, 按优先级从高到低
func (s *MailRuleService) List(ctx context.Context, page *model.Pagination, enabled *bool) ([]*model.MailRule, error) {
	return s.ruleRepo.List(ctx, page, enabled)
}

// ListEnabled 获取启用的规则, 供采集服务同步
func (s *MailRuleService) ListEnabled(ctx context.Context) ([]*model.MailRule, error) {
	return s.ruleRepo.ListEnabled(ctx)
}

// validateRule 校验主题模式可编译且优先级在合法区间内
func validateRule(pattern string, priority int) error {
	if pattern != "" {
		if _, err := regexp.Compile(pattern); err != nil {
			return apperrors.ErrInvalidPattern.WithMessagef("主题模式无法编译: %v", err)
		}
	}
	if priority < 0 || priority > model.MailRulePriorityMax {
		return apperrors.ErrInvalidRequest.WithMessagef("优先级必须在 0-%d 之间", model.MailRulePriorityMax)
	}
	return nil
}

// ruleToJSONMap 规则转审计字段
func (s *MailRuleService) ruleToJSONMap(rule *model.MailRule) model.JSONMap {
	return model.JSONMap{
		"name":             rule.Name,
		"folder":           rule.Folder,
		"sender_whitelist": rule.SenderWhitelist,
		"subject_pattern":  rule.SubjectPattern,
		"target_workflow":  rule.TargetWorkflow,
		"priority":         rule.Priority,
		"enabled":          rule.Enabled,
	}
}

// recordAudit 记录邮箱规则操作审计
func (s *MailRuleService) recordAudit(ctx context.Context, operatorID int64, operator string, action model.AuditAction,
	resourceID, description string, oldValue, newValue model.JSONMap) {

	s.auditRepo.Create(ctx, &model.AuditLog{
		AdminID:       operatorID,
		AdminUsername: operator,
		Action:        action,
		ResourceType:  model.ResourceTypeMailRule,
		ResourceID:    resourceID,
		Description:   description,
		OldValue:      oldValue,
		NewValue:      newValue,
		Status:        model.AuditStatusSuccess,
	})
}
