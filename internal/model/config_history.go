package model

// ChangeReasonSeed 种子数据的固定变更原因, 链校验遇到该标记时视为链重置
const ChangeReasonSeed = "seed"

// HistoryRecord 配置变更历史, 只追加, 不更新不删除
// 加密配置的 previous_value/new_value 存掩码值, 原密文保存在 previous_envelope 供回滚使用
type HistoryRecord struct {
	ID               int64  `gorm:"primaryKey;column:id" json:"id"`
	ConfigKey        string `gorm:"column:config_key;size:100;index:idx_config_history_key_time,priority:1" json:"config_key"`
	PreviousValue    string `gorm:"column:previous_value;type:text" json:"previous_value"`
	NewValue         string `gorm:"column:new_value;type:text" json:"new_value"`
	PreviousEnvelope string `gorm:"column:previous_envelope;type:text" json:"-"`
	IsRollback       bool   `gorm:"column:is_rollback;default:false" json:"is_rollback"`
	RollbackSourceID *int64 `gorm:"column:rollback_source_id" json:"rollback_source_id,omitempty"`
	ChangeReason     string `gorm:"column:change_reason;size:500" json:"change_reason,omitempty"`
	ChangedBy        string `gorm:"column:changed_by;size:50" json:"changed_by"`
	ChangedAt        int64  `gorm:"column:changed_at;autoCreateTime:milli;index:idx_config_history_key_time,priority:2" json:"changed_at"`
}

// TableName 表名
func (HistoryRecord) TableName() string {
	return "admin_config_histories"
}

// IsSeed 判断是否为种子记录
func (r *HistoryRecord) IsSeed() bool {
	return r.ChangeReason == ChangeReasonSeed
}
