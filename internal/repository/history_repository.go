package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/model"
	apperrors "github.com/laitim2001/ai-document-extraction-project-sub002/pkg/errors"
)

// HistoryRepository 配置历史仓储, 只追加
// 历史记录一经写入不再更新或删除
type HistoryRepository struct {
	*Repository
}

// NewHistoryRepository 创建配置历史仓储
func NewHistoryRepository(db *gorm.DB) *HistoryRepository {
	return &HistoryRepository{Repository: NewRepository(db)}
}

// Append 追加历史记录
func (r *HistoryRepository) Append(ctx context.Context, record *model.HistoryRecord) error {
	if err := r.DB(ctx).Create(record).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrStorage, err)
	}
	return nil
}

// GetByID 根据 ID 获取历史记录, 不存在时返回 (nil, nil)
func (r *HistoryRepository) GetByID(ctx context.Context, id int64) (*model.HistoryRecord, error) {
	var record model.HistoryRecord
	err := r.DB(ctx).First(&record, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStorage, err)
	}
	return &record, nil
}

// ListForKey 获取指定配置键的历史记录, 按变更时间倒序
func (r *HistoryRepository) ListForKey(ctx context.Context, key string, page *model.Pagination) ([]*model.HistoryRecord, error) {
	var records []*model.HistoryRecord

	query := r.DB(ctx).Model(&model.HistoryRecord{}).Where("config_key = ?", key)
	if err := query.Count(&page.Total).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStorage, err)
	}

	err := query.Order("changed_at DESC, id DESC").
		Offset(page.GetOffset()).
		Limit(page.GetLimit()).
		Find(&records).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStorage, err)
	}
	return records, nil
}

// LatestForKey 获取指定配置键最新的一条历史记录, 不存在时返回 (nil, nil)
func (r *HistoryRepository) LatestForKey(ctx context.Context, key string) (*model.HistoryRecord, error) {
	var record model.HistoryRecord
	err := r.DB(ctx).
		Where("config_key = ?", key).
		Order("changed_at DESC, id DESC").
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStorage, err)
	}
	return &record, nil
}

// CountForKey 统计指定配置键的历史记录数
func (r *HistoryRepository) CountForKey(ctx context.Context, key string) (int64, error) {
	var count int64
	err := r.DB(ctx).Model(&model.HistoryRecord{}).
		Where("config_key = ?", key).
		Count(&count).Error
	if err != nil {
		return 0, apperrors.Wrap(apperrors.ErrStorage, err)
	}
	return count, nil
}

// VerifyChain 校验指定配置键历史链的一致性
// 按时间正序逐条检查每条记录的 previous_value 等于前一条的 new_value,
// 种子记录视为链起点, 不与其前驱比较
func (r *HistoryRepository) VerifyChain(ctx context.Context, key string) (bool, error) {
	var records []*model.HistoryRecord
	err := r.DB(ctx).
		Where("config_key = ?", key).
		Order("changed_at ASC, id ASC").
		Find(&records).Error
	if err != nil {
		return false, apperrors.Wrap(apperrors.ErrStorage, err)
	}

	for i := 1; i < len(records); i++ {
		if records[i].IsSeed() {
			continue
		}
		if records[i].PreviousValue != records[i-1].NewValue {
			return false, nil
		}
	}
	return true, nil
}
