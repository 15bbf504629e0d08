package service

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/metrics"
	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/model"
	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/repository"
	apperrors "github.com/laitim2001/ai-document-extraction-project-sub002/pkg/errors"
)

const tokenIssuer = "doc-admin"

// AuthService 管理员认证服务
type AuthService struct {
	adminRepo    *repository.AdminRepository
	auditRepo    *repository.AuditLogRepository
	jwtSecret    []byte
	jwtExpire    time.Duration
	maxAttempts  int
	lockDuration time.Duration
}

// AuthConfig 认证服务配置
type AuthConfig struct {
	JWTSecret    string
	JWTExpire    time.Duration
	MaxAttempts  int
	LockDuration time.Duration
}

// NewAuthService 创建认证服务
func NewAuthService(adminRepo *repository.AdminRepository, auditRepo *repository.AuditLogRepository, cfg *AuthConfig) *AuthService {
	return &AuthService{
		adminRepo:    adminRepo,
		auditRepo:    auditRepo,
		jwtSecret:    []byte(cfg.JWTSecret),
		jwtExpire:    cfg.JWTExpire,
		maxAttempts:  cfg.MaxAttempts,
		lockDuration: cfg.LockDuration,
	}
}

// Claims JWT Claims
type Claims struct {
	AdminID     int64      `json:"admin_id"`
	Username    string     `json:"username"`
	Role        model.Role `json:"role"`
	Permissions []string   `json:"permissions"`
	jwt.RegisteredClaims
}

// LoginRequest 登录请求
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse 登录响应
type LoginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt int64        `json:"expires_at"`
	Admin     *model.Admin `json:"admin"`
}

// Login 登录
// 用户不存在与密码错误返回同一错误, 不暴露账号是否存在
func (s *AuthService) Login(ctx context.Context, req *LoginRequest, ip, userAgent string) (*LoginResponse, error) {
	admin, err := s.adminRepo.GetByUsername(ctx, req.Username)
	if err != nil {
		return nil, err
	}
	if admin == nil {
		metrics.RecordLogin("failed")
		s.recordLoginAudit(ctx, 0, req.Username, ip, userAgent, false, "用户不存在")
		return nil, apperrors.ErrInvalidCredentials
	}

	if admin.Status != model.AdminStatusActive {
		metrics.RecordLogin("failed")
		s.recordLoginAudit(ctx, admin.ID, admin.Username, ip, userAgent, false, "账号已禁用")
		return nil, apperrors.ErrAdminDisabled
	}

	if admin.IsLocked() {
		metrics.RecordLogin("locked")
		s.recordLoginAudit(ctx, admin.ID, admin.Username, ip, userAgent, false, "账号已锁定")
		return nil, apperrors.ErrAdminLocked
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(req.Password)); err != nil {
		s.adminRepo.UpdateLoginFailed(ctx, admin.ID, s.maxAttempts, s.lockDuration)
		metrics.RecordLogin("failed")
		s.recordLoginAudit(ctx, admin.ID, admin.Username, ip, userAgent, false, "密码错误")
		return nil, apperrors.ErrInvalidCredentials
	}

	expiresAt := time.Now().Add(s.jwtExpire)
	token, err := s.generateToken(admin, expiresAt)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternal, err)
	}

	if err := s.adminRepo.UpdateLoginSuccess(ctx, admin.ID, ip); err != nil {
		return nil, err
	}

	metrics.RecordLogin("success")
	s.recordLoginAudit(ctx, admin.ID, admin.Username, ip, userAgent, true, "")

	admin.PasswordHash = ""
	return &LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt.UnixMilli(),
		Admin:     admin,
	}, nil
}

// Refresh 在旧令牌仍然有效期间换发新令牌
// 重新加载账号以拾取角色或状态变更
func (s *AuthService) Refresh(ctx context.Context, claims *Claims) (*LoginResponse, error) {
	admin, err := s.adminRepo.GetByID(ctx, claims.AdminID)
	if err != nil {
		return nil, err
	}
	if admin == nil {
		return nil, apperrors.ErrAdminNotFound
	}
	if admin.Status != model.AdminStatusActive {
		return nil, apperrors.ErrAdminDisabled
	}

	expiresAt := time.Now().Add(s.jwtExpire)
	token, err := s.generateToken(admin, expiresAt)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternal, err)
	}

	admin.PasswordHash = ""
	return &LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt.UnixMilli(),
		Admin:     admin,
	}, nil
}

// generateToken 生成 JWT Token
func (s *AuthService) generateToken(admin *model.Admin, expiresAt time.Time) (string, error) {
	claims := &Claims{
		AdminID:     admin.ID,
		Username:    admin.Username,
		Role:        admin.Role,
		Permissions: model.RolePermissions[admin.Role],
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
			Issuer:    tokenIssuer,
			Subject:   admin.Username,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// ValidateToken 验证 JWT Token
func (s *AuthService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, apperrors.ErrTokenInvalid
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			metrics.RecordTokenValidation("expired")
			return nil, apperrors.ErrTokenExpired
		}
		metrics.RecordTokenValidation("invalid")
		return nil, apperrors.ErrTokenInvalid
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		metrics.RecordTokenValidation("invalid")
		return nil, apperrors.ErrTokenInvalid
	}

	metrics.RecordTokenValidation("valid")
	return claims, nil
}

// Logout 登出, 仅记录审计
func (s *AuthService) Logout(ctx context.Context, adminID int64, username, ip, userAgent string) error {
	return s.auditRepo.Create(ctx, &model.AuditLog{
		AdminID:       adminID,
		AdminUsername: username,
		IPAddress:     ip,
		UserAgent:     userAgent,
		Action:        model.AuditActionLogout,
		ResourceType:  model.ResourceTypeAdmin,
		ResourceID:    username,
		Description:   "管理员登出",
		Status:        model.AuditStatusSuccess,
	})
}

// ChangePassword 修改本人密码
func (s *AuthService) ChangePassword(ctx context.Context, adminID int64, oldPassword, newPassword string) error {
	admin, err := s.adminRepo.GetByID(ctx, adminID)
	if err != nil {
		return err
	}
	if admin == nil {
		return apperrors.ErrAdminNotFound
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(oldPassword)); err != nil {
		return apperrors.ErrInvalidCredentials.WithMessage("原密码错误")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternal, err)
	}

	admin.PasswordHash = string(hash)
	admin.UpdatedBy = admin.Username
	return s.adminRepo.Update(ctx, admin)
}

// HashPassword 密码哈希
func (s *AuthService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrInternal, err)
	}
	return string(hash), nil
}

// recordLoginAudit 记录登录审计
func (s *AuthService) recordLoginAudit(ctx context.Context, adminID int64, username, ip, userAgent string, success bool, reason string) {
	status := model.AuditStatusSuccess
	description := "管理员登录成功"
	if !success {
		status = model.AuditStatusFailed
		description = "管理员登录失败"
	}

	s.auditRepo.Create(ctx, &model.AuditLog{
		AdminID:       adminID,
		AdminUsername: username,
		IPAddress:     ip,
		UserAgent:     userAgent,
		Action:        model.AuditActionLogin,
		ResourceType:  model.ResourceTypeAdmin,
		ResourceID:    username,
		Description:   description,
		Status:        status,
		ErrorMessage:  reason,
	})
}
