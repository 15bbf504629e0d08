package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/model"
	apperrors "github.com/laitim2001/ai-document-extraction-project-sub002/pkg/errors"
)

// AdminRepository 管理员仓储
type AdminRepository struct {
	*Repository
}

// NewAdminRepository 创建管理员仓储
func NewAdminRepository(db *gorm.DB) *AdminRepository {
	return &AdminRepository{Repository: NewRepository(db)}
}

// Create 创建管理员
func (r *AdminRepository) Create(ctx context.Context, admin *model.Admin) error {
	if err := r.DB(ctx).Create(admin).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperrors.ErrDuplicateKey
		}
		return apperrors.Wrap(apperrors.ErrStorage, err)
	}
	return nil
}

// Update 更新管理员
func (r *AdminRepository) Update(ctx context.Context, admin *model.Admin) error {
	if err := r.DB(ctx).Save(admin).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrStorage, err)
	}
	return nil
}

// GetByID 根据 ID 获取管理员, 不存在时返回 (nil, nil)
func (r *AdminRepository) GetByID(ctx context.Context, id int64) (*model.Admin, error) {
	var admin model.Admin
	err := r.DB(ctx).First(&admin, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStorage, err)
	}
	return &admin, nil
}

// GetByUsername 根据用户名获取管理员, 不存在时返回 (nil, nil)
func (r *AdminRepository) GetByUsername(ctx context.Context, username string) (*model.Admin, error) {
	var admin model.Admin
	err := r.DB(ctx).Where("username = ?", username).First(&admin).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStorage, err)
	}
	return &admin, nil
}

// List 获取管理员列表
func (r *AdminRepository) List(ctx context.Context, page *model.Pagination) ([]*model.Admin, error) {
	var admins []*model.Admin

	query := r.DB(ctx).Model(&model.Admin{})
	if err := query.Count(&page.Total).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStorage, err)
	}

	err := query.Order("id DESC").
		Offset(page.GetOffset()).
		Limit(page.GetLimit()).
		Find(&admins).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStorage, err)
	}
	return admins, nil
}

// UpdateStatus 更新管理员状态
func (r *AdminRepository) UpdateStatus(ctx context.Context, id int64, status model.AdminStatus, updatedBy string) error {
	result := r.DB(ctx).Model(&model.Admin{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_by": updatedBy,
		})
	if result.Error != nil {
		return apperrors.Wrap(apperrors.ErrStorage, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrAdminNotFound
	}
	return nil
}

// UpdateLoginSuccess 更新登录成功信息
func (r *AdminRepository) UpdateLoginSuccess(ctx context.Context, id int64, ip string) error {
	now := time.Now().UnixMilli()
	err := r.DB(ctx).Model(&model.Admin{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"last_login_at":  now,
			"last_login_ip":  ip,
			"login_attempts": 0,
			"locked_until":   nil,
		}).Error
	if err != nil {
		return apperrors.Wrap(apperrors.ErrStorage, err)
	}
	return nil
}

// UpdateLoginFailed 更新登录失败信息, 达到上限后锁定账户
func (r *AdminRepository) UpdateLoginFailed(ctx context.Context, id int64, maxAttempts int, lockDuration time.Duration) error {
	var admin model.Admin
	if err := r.DB(ctx).First(&admin, id).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrStorage, err)
	}

	updates := map[string]interface{}{
		"login_attempts": admin.LoginAttempts + 1,
	}
	if admin.LoginAttempts+1 >= maxAttempts {
		updates["locked_until"] = time.Now().Add(lockDuration).UnixMilli()
	}

	if err := r.DB(ctx).Model(&model.Admin{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrStorage, err)
	}
	return nil
}

// Count 统计管理员数量
func (r *AdminRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.DB(ctx).Model(&model.Admin{}).Count(&count).Error; err != nil {
		return 0, apperrors.Wrap(apperrors.ErrStorage, err)
	}
	return count, nil
}
