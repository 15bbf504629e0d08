package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/model"
	apperrors "github.com/laitim2001/ai-document-extraction-project-sub002/pkg/errors"
)

// ConfigRepository 系统配置仓储
type ConfigRepository struct {
	*Repository
}

// NewConfigRepository 创建系统配置仓储
func NewConfigRepository(db *gorm.DB) *ConfigRepository {
	return &ConfigRepository{Repository: NewRepository(db)}
}

// Create 创建配置项
func (r *ConfigRepository) Create(ctx context.Context, entry *model.ConfigEntry) error {
	if err := r.DB(ctx).Create(entry).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperrors.ErrDuplicateKey
		}
		return apperrors.Wrap(apperrors.ErrStorage, err)
	}
	return nil
}

// GetByKey 根据配置键获取配置项, 不存在时返回 (nil, nil)
func (r *ConfigRepository) GetByKey(ctx context.Context, key string) (*model.ConfigEntry, error) {
	var entry model.ConfigEntry
	err := r.DB(ctx).Where("config_key = ?", key).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStorage, err)
	}
	return &entry, nil
}

// List 获取配置列表, 支持分类过滤与键名/描述模糊搜索
func (r *ConfigRepository) List(ctx context.Context, page *model.Pagination, category, search string) ([]*model.ConfigEntry, error) {
	var entries []*model.ConfigEntry

	query := r.DB(ctx).Model(&model.ConfigEntry{})
	if category != "" {
		query = query.Where("category = ?", category)
	}
	if search != "" {
		pattern := "%" + search + "%"
		query = query.Where("config_key LIKE ? OR description LIKE ?", pattern, pattern)
	}

	if err := query.Count(&page.Total).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStorage, err)
	}

	err := query.Order("config_key ASC").
		Offset(page.GetOffset()).
		Limit(page.GetLimit()).
		Find(&entries).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStorage, err)
	}
	return entries, nil
}

// ListAll 获取全部配置项
func (r *ConfigRepository) ListAll(ctx context.Context) ([]*model.ConfigEntry, error) {
	var entries []*model.ConfigEntry
	err := r.DB(ctx).
		Order("category ASC, config_key ASC").
		Find(&entries).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStorage, err)
	}
	return entries, nil
}

// ListByCategory 根据分类获取配置项
func (r *ConfigRepository) ListByCategory(ctx context.Context, category string) ([]*model.ConfigEntry, error) {
	var entries []*model.ConfigEntry
	err := r.DB(ctx).
		Where("category = ?", category).
		Order("config_key ASC").
		Find(&entries).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStorage, err)
	}
	return entries, nil
}

// ListEncrypted 获取全部加密配置项, 主密钥轮换时逐条重加密
func (r *ConfigRepository) ListEncrypted(ctx context.Context) ([]*model.ConfigEntry, error) {
	var entries []*model.ConfigEntry
	err := r.DB(ctx).
		Where("is_encrypted = ?", true).
		Order("config_key ASC").
		Find(&entries).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStorage, err)
	}
	return entries, nil
}

// UpdateValueCAS 以版本号做乐观锁更新配置值
// 版本不匹配说明存在并发写入, 返回 ErrConcurrencyConflict
func (r *ConfigRepository) UpdateValueCAS(ctx context.Context, key, value string, expectedVersion int64, updatedBy string) error {
	result := r.DB(ctx).Model(&model.ConfigEntry{}).
		Where("config_key = ? AND version = ?", key, expectedVersion).
		Updates(map[string]interface{}{
			"config_value": value,
			"version":      expectedVersion + 1,
			"updated_by":   updatedBy,
		})
	if result.Error != nil {
		return apperrors.Wrap(apperrors.ErrStorage, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrConcurrencyConflict
	}
	return nil
}

// GetVersion 获取分类版本, 不存在时返回 (nil, nil)
func (r *ConfigRepository) GetVersion(ctx context.Context, category string) (*model.ConfigVersion, error) {
	var version model.ConfigVersion
	err := r.DB(ctx).Where("category = ?", category).First(&version).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStorage, err)
	}
	return &version, nil
}

// GetAllVersions 获取所有分类版本
func (r *ConfigRepository) GetAllVersions(ctx context.Context) ([]*model.ConfigVersion, error) {
	var versions []*model.ConfigVersion
	if err := r.DB(ctx).Order("category ASC").Find(&versions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStorage, err)
	}
	return versions, nil
}

// BumpVersion 递增分类版本号, 首次写入时创建记录
func (r *ConfigRepository) BumpVersion(ctx context.Context, category, updatedBy string) (int64, error) {
	var version model.ConfigVersion
	err := r.DB(ctx).Where("category = ?", category).First(&version).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		version = model.ConfigVersion{
			Category:  category,
			Version:   1,
			UpdatedBy: updatedBy,
		}
		if err := r.DB(ctx).Create(&version).Error; err != nil {
			return 0, apperrors.Wrap(apperrors.ErrStorage, err)
		}
		return 1, nil
	}
	if err != nil {
		return 0, apperrors.Wrap(apperrors.ErrStorage, err)
	}

	newVersion := version.Version + 1
	err = r.DB(ctx).Model(&model.ConfigVersion{}).
		Where("category = ?", category).
		Updates(map[string]interface{}{
			"version":    newVersion,
			"updated_by": updatedBy,
		}).Error
	if err != nil {
		return 0, apperrors.Wrap(apperrors.ErrStorage, err)
	}
	return newVersion, nil
}
