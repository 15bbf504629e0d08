package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/model"
	apperrors "github.com/laitim2001/ai-document-extraction-project-sub002/pkg/errors"
)

// MailRuleRepository 邮箱规则仓储
type MailRuleRepository struct {
	*Repository
}

// NewMailRuleRepository 创建邮箱规则仓储
func NewMailRuleRepository(db *gorm.DB) *MailRuleRepository {
	return &MailRuleRepository{Repository: NewRepository(db)}
}

// Create 创建规则
func (r *MailRuleRepository) Create(ctx context.Context, rule *model.MailRule) error {
	if err := r.DB(ctx).Create(rule).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperrors.ErrDuplicateKey
		}
		return apperrors.Wrap(apperrors.ErrStorage, err)
	}
	return nil
}

// Update 更新规则
func (r *MailRuleRepository) Update(ctx context.Context, rule *model.MailRule) error {
	if err := r.DB(ctx).Save(rule).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrStorage, err)
	}
	return nil
}

// Delete 删除规则
func (r *MailRuleRepository) Delete(ctx context.Context, id int64) error {
	result := r.DB(ctx).Delete(&model.MailRule{}, id)
	if result.Error != nil {
		return apperrors.Wrap(apperrors.ErrStorage, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrRuleNotFound
	}
	return nil
}

// GetByID 根据 ID 获取规则, 不存在时返回 (nil, nil)
func (r *MailRuleRepository) GetByID(ctx context.Context, id int64) (*model.MailRule, error) {
	var rule model.MailRule
	err := r.DB(ctx).First(&rule, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStorage, err)
	}
	return &rule, nil
}

// GetByName 根据规则名获取规则, 不存在时返回 (nil, nil)
func (r *MailRuleRepository) GetByName(ctx context.Context, name string) (*model.MailRule, error) {
	var rule model.MailRule
	err := r.DB(ctx).Where("name = ?", name).First(&rule).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStorage, err)
	}
	return &rule, nil
}

// List 获取规则列表
func (r *MailRuleRepository) List(ctx context.Context, page *model.Pagination, enabled *bool) ([]*model.MailRule, error) {
	var rules []*model.MailRule

	query := r.DB(ctx).Model(&model.MailRule{})
	if enabled != nil {
		query = query.Where("enabled = ?", *enabled)
	}

	if err := query.Count(&page.Total).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStorage, err)
	}

	err := query.Order("priority DESC, id ASC").
		Offset(page.GetOffset()).
		Limit(page.GetLimit()).
		Find(&rules).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStorage, err)
	}
	return rules, nil
}

// ListEnabled 获取启用的规则, 按优先级从高到低
func (r *MailRuleRepository) ListEnabled(ctx context.Context) ([]*model.MailRule, error) {
	var rules []*model.MailRule
	err := r.DB(ctx).
		Where("enabled = ?", true).
		Order("priority DESC, id ASC").
		Find(&rules).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStorage, err)
	}
	return rules, nil
}

// UpdateEnabled 启用或停用规则
func (r *MailRuleRepository) UpdateEnabled(ctx context.Context, id int64, enabled bool, updatedBy string) error {
	result := r.DB(ctx).Model(&model.MailRule{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"enabled":    enabled,
			"updated_by": updatedBy,
		})
	if result.Error != nil {
		return apperrors.Wrap(apperrors.ErrStorage, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrRuleNotFound
	}
	return nil
}
