package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
)

// ValueType 配置值类型 (封闭集合, 所有 switch 必须覆盖全部分支)
type ValueType string

const (
	ValueTypeString  ValueType = "string"
	ValueTypeNumber  ValueType = "number"
	ValueTypeBoolean ValueType = "boolean"
	ValueTypeJSON    ValueType = "json"
	ValueTypeSecret  ValueType = "secret"
	ValueTypeEnum    ValueType = "enum"
)

// IsValid 判断值类型是否合法
func (t ValueType) IsValid() bool {
	switch t {
	case ValueTypeString, ValueTypeNumber, ValueTypeBoolean, ValueTypeJSON, ValueTypeSecret, ValueTypeEnum:
		return true
	}
	return false
}

// ParsedValue 缓存中的运行时配置值, 加密配置已解密为明文
type ParsedValue struct {
	Raw  string
	Type ValueType
}

// EffectType 配置生效方式, 仅用于告知调用方, 引擎本身不执行生效动作
type EffectType string

const (
	// EffectImmediate 立即生效
	EffectImmediate EffectType = "immediate"
	// EffectRestartRequired 需要重启相关服务后生效
	EffectRestartRequired EffectType = "restart_required"
	// EffectScheduled 按计划任务周期生效
	EffectScheduled EffectType = "scheduled"
)

// IsValid 判断生效方式是否合法
func (t EffectType) IsValid() bool {
	switch t {
	case EffectImmediate, EffectRestartRequired, EffectScheduled:
		return true
	}
	return false
}

// ValidationRules 配置项约束规则, 为空表示仅做类型检查
type ValidationRules struct {
	// Optional 显式标记可空, 默认空值会被拒绝
	Optional  bool     `json:"optional,omitempty"`
	Min       *float64 `json:"min,omitempty"`
	Max       *float64 `json:"max,omitempty"`
	MinLength *int     `json:"min_length,omitempty"`
	MaxLength *int     `json:"max_length,omitempty"`
	Pattern   string   `json:"pattern,omitempty"`
	Options   []string `json:"options,omitempty"`
}

// Value 实现 driver.Valuer 接口
func (r ValidationRules) Value() (driver.Value, error) {
	return json.Marshal(r)
}

// Scan 实现 sql.Scanner 接口 (兼容 postgres []byte 与 sqlite string)
func (r *ValidationRules) Scan(value interface{}) error {
	if value == nil {
		*r = ValidationRules{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, r)
	case string:
		return json.Unmarshal([]byte(v), r)
	default:
		return errors.New("unsupported type for ValidationRules")
	}
}

// ConfigEntry 配置项, 每个 key 一行
// config_key 创建后不可变; is_encrypted 创建时固定, 切换会导致存量密文无法解读
type ConfigEntry struct {
	ID           int64           `gorm:"primaryKey;column:id" json:"id"`
	ConfigKey    string          `gorm:"column:config_key;size:100;uniqueIndex" json:"config_key"`
	ConfigValue  string          `gorm:"column:config_value;type:text" json:"config_value"`
	DefaultValue string          `gorm:"column:default_value;type:text" json:"default_value"`
	ValueType    ValueType       `gorm:"column:value_type;size:20;default:string" json:"value_type"`
	EffectType   EffectType      `gorm:"column:effect_type;size:30;default:immediate" json:"effect_type"`
	Validation   ValidationRules `gorm:"column:validation;type:jsonb" json:"validation"`
	IsEncrypted  bool            `gorm:"column:is_encrypted;default:false" json:"is_encrypted"`
	IsReadOnly   bool            `gorm:"column:is_read_only;default:false" json:"is_read_only"`
	Category     string          `gorm:"column:category;size:50;default:general;index" json:"category"`
	Description  string          `gorm:"column:description;size:500" json:"description"`
	Version      int64           `gorm:"column:version;default:1" json:"version"`
	CreatedBy    string          `gorm:"column:created_by;size:50" json:"created_by"`
	CreatedAt    int64           `gorm:"column:created_at;autoCreateTime:milli" json:"created_at"`
	UpdatedBy    string          `gorm:"column:updated_by;size:50" json:"updated_by"`
	UpdatedAt    int64           `gorm:"column:updated_at;autoUpdateTime:milli" json:"updated_at"`
}

// TableName 表名
func (ConfigEntry) TableName() string {
	return "admin_system_configs"
}

// ConfigVersion 配置版本计数, 随分类下任意配置变更递增, 供前端轮询
type ConfigVersion struct {
	ID        int64  `gorm:"primaryKey;column:id" json:"id"`
	Category  string `gorm:"column:category;size:50;uniqueIndex" json:"category"`
	Version   int64  `gorm:"column:version" json:"version"`
	UpdatedBy string `gorm:"column:updated_by;size:50" json:"updated_by"`
	UpdatedAt int64  `gorm:"column:updated_at;autoUpdateTime:milli" json:"updated_at"`
}

// TableName 表名
func (ConfigVersion) TableName() string {
	return "admin_config_versions"
}

// 配置分类常量
const (
	CategoryGeneral      = "general"
	CategoryOCR          = "ocr"
	CategoryMapping      = "mapping"
	CategoryIngestion    = "ingestion"
	CategoryNotification = "notification"
	CategorySecurity     = "security"
)
