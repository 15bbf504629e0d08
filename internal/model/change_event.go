package model

// ChangeAction 配置变更动作
type ChangeAction string

const (
	ChangeActionUpdate   ChangeAction = "update"
	ChangeActionRollback ChangeAction = "rollback"
	ChangeActionReset    ChangeAction = "reset"
	ChangeActionReload   ChangeAction = "reload"
	ChangeActionRotate   ChangeAction = "rotate"
)

// ConfigChangeEvent 配置变更事件, 提交成功后投递给变更通知器
// 事件体不包含配置值, 加密配置的值不允许离开存储层
type ConfigChangeEvent struct {
	ID         string       `json:"id"`
	ConfigKey  string       `json:"config_key"`
	Action     ChangeAction `json:"action"`
	EffectType EffectType   `json:"effect_type"`
	Category   string       `json:"category"`
	Actor      string       `json:"actor"`
	Timestamp  int64        `json:"timestamp"`
}
