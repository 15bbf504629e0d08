package service

import (
	"context"

	"golang.org/x/crypto/bcrypt"

	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/metrics"
	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/model"
	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/repository"
	apperrors "github.com/laitim2001/ai-document-extraction-project-sub002/pkg/errors"
)

// AdminService 管理员账号管理服务
type AdminService struct {
	adminRepo *repository.AdminRepository
	auditRepo *repository.AuditLogRepository
}

// NewAdminService 创建管理员服务
func NewAdminService(adminRepo *repository.AdminRepository, auditRepo *repository.AuditLogRepository) *AdminService {
	return &AdminService{
		adminRepo: adminRepo,
		auditRepo: auditRepo,
	}
}

// CreateAdminRequest 创建管理员请求
type CreateAdminRequest struct {
	Username   string     `json:"username" binding:"required,min=3,max=50"`
	Password   string     `json:"password" binding:"required,min=8"`
	Nickname   string     `json:"nickname" binding:"max=50"`
	Email      string     `json:"email" binding:"omitempty,email"`
	Role       model.Role `json:"role" binding:"required"`
	OperatorID int64      `json:"-"`
	Operator   string     `json:"-"`
}

// Create 创建管理员
func (s *AdminService) Create(ctx context.Context, req *CreateAdminRequest) (*model.Admin, error) {
	if _, ok := model.RolePermissions[req.Role]; !ok {
		return nil, apperrors.ErrInvalidRequest.WithMessagef("未知角色: %s", req.Role)
	}

	existing, err := s.adminRepo.GetByUsername(ctx, req.Username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperrors.ErrDuplicateKey.WithMessage("用户名已存在")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternal, err)
	}

	admin := &model.Admin{
		Username:     req.Username,
		PasswordHash: string(hash),
		Nickname:     req.Nickname,
		Email:        req.Email,
		Role:         req.Role,
		Status:       model.AdminStatusActive,
		CreatedBy:    req.Operator,
		UpdatedBy:    req.Operator,
	}

	if err := s.adminRepo.Create(ctx, admin); err != nil {
		return nil, err
	}

	metrics.RecordAdminOperation("create", string(model.ResourceTypeAdmin))
	s.recordAudit(ctx, req.OperatorID, req.Operator, model.AuditActionCreate, admin.Username,
		"创建管理员", nil, model.JSONMap{"username": admin.Username, "role": admin.Role})

	admin.PasswordHash = ""
	return admin, nil
}

// UpdateAdminRequest 更新管理员请求
type UpdateAdminRequest struct {
	ID         int64      `json:"-"`
	Nickname   string     `json:"nickname" binding:"max=50"`
	Email      string     `json:"email" binding:"omitempty,email"`
	Role       model.Role `json:"role"`
	OperatorID int64      `json:"-"`
	Operator   string     `json:"-"`
}

// Update 更新管理员资料与角色
func (s *AdminService) Update(ctx context.Context, req *UpdateAdminRequest) (*model.Admin, error) {
	admin, err := s.adminRepo.GetByID(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	if admin == nil {
		return nil, apperrors.ErrAdminNotFound
	}

	oldValue := model.JSONMap{
		"nickname": admin.Nickname,
		"email":    admin.Email,
		"role":     admin.Role,
	}

	if req.Nickname != "" {
		admin.Nickname = req.Nickname
	}
	if req.Email != "" {
		admin.Email = req.Email
	}
	if req.Role != "" {
		if _, ok := model.RolePermissions[req.Role]; !ok {
			return nil, apperrors.ErrInvalidRequest.WithMessagef("未知角色: %s", req.Role)
		}
		admin.Role = req.Role
	}
	admin.UpdatedBy = req.Operator

	if err := s.adminRepo.Update(ctx, admin); err != nil {
		return nil, err
	}

	metrics.RecordAdminOperation("update", string(model.ResourceTypeAdmin))
	s.recordAudit(ctx, req.OperatorID, req.Operator, model.AuditActionUpdate, admin.Username,
		"更新管理员信息", oldValue, model.JSONMap{
			"nickname": admin.Nickname,
			"email":    admin.Email,
			"role":     admin.Role,
		})

	admin.PasswordHash = ""
	return admin, nil
}

// UpdateStatus 启用或禁用管理员
// 不允许操作者禁用自己, 防止唯一超级管理员把自己锁在门外
func (s *AdminService) UpdateStatus(ctx context.Context, id int64, status model.AdminStatus, operatorID int64, operator string) error {
	if status != model.AdminStatusActive && status != model.AdminStatusDisabled {
		return apperrors.ErrInvalidRequest.WithMessage("未知账号状态")
	}
	if id == operatorID && status == model.AdminStatusDisabled {
		return apperrors.ErrInvalidRequest.WithMessage("不能禁用当前登录账号")
	}

	admin, err := s.adminRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if admin == nil {
		return apperrors.ErrAdminNotFound
	}

	if err := s.adminRepo.UpdateStatus(ctx, id, status, operator); err != nil {
		return err
	}

	operation := "enable"
	description := "启用管理员"
	if status == model.AdminStatusDisabled {
		operation = "disable"
		description = "禁用管理员"
	}
	metrics.RecordAdminOperation(operation, string(model.ResourceTypeAdmin))
	s.recordAudit(ctx, operatorID, operator, model.AuditActionUpdate, admin.Username,
		description, model.JSONMap{"status": admin.Status}, model.JSONMap{"status": status})

	return nil
}

// GetByID 根据 ID 获取管理员
func (s *AdminService) GetByID(ctx context.Context, id int64) (*model.Admin, error) {
	admin, err := s.adminRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if admin == nil {
		return nil, apperrors.ErrAdminNotFound
	}
	admin.PasswordHash = ""
	return admin, nil
}

// List 获取管理员列表
func (s *AdminService) List(ctx context.Context, page *model.Pagination) ([]*model.Admin, error) {
	admins, err := s.adminRepo.List(ctx, page)
	if err != nil {
		return nil, err
	}
	for _, admin := range admins {
		admin.PasswordHash = ""
	}
	return admins, nil
}

// ResetPassword 管理员重置他人密码
func (s *AdminService) ResetPassword(ctx context.Context, id int64, newPassword string, operatorID int64, operator string) error {
	admin, err := s.adminRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if admin == nil {
		return apperrors.ErrAdminNotFound
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternal, err)
	}

	admin.PasswordHash = string(hash)
	admin.UpdatedBy = operator

	if err := s.adminRepo.Update(ctx, admin); err != nil {
		return err
	}

	metrics.RecordAdminOperation("reset_password", string(model.ResourceTypeAdmin))
	s.recordAudit(ctx, operatorID, operator, model.AuditActionUpdate, admin.Username,
		"重置管理员密码", nil, nil)

	return nil
}

// recordAudit 记录管理员账号操作审计
func (s *AdminService) recordAudit(ctx context.Context, operatorID int64, operator string, action model.AuditAction,
	resourceID, description string, oldValue, newValue model.JSONMap) {

	s.auditRepo.Create(ctx, &model.AuditLog{
		AdminID:       operatorID,
		AdminUsername: operator,
		Action:        action,
		ResourceType:  model.ResourceTypeAdmin,
		ResourceID:    resourceID,
		Description:   description,
		OldValue:      oldValue,
		NewValue:      newValue,
		Status:        model.AuditStatusSuccess,
	})
}
