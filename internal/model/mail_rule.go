package model

// MailRulePriorityMax 规则优先级上限
const MailRulePriorityMax = 1000

// MailRule 邮箱监控规则, 决定哪些来信进入哪条提取工作流
type MailRule struct {
	ID              int64      `gorm:"primaryKey;column:id" json:"id"`
	Name            string     `gorm:"column:name;size:100;uniqueIndex" json:"name"`
	Folder          string     `gorm:"column:folder;size:200" json:"folder"`
	SenderWhitelist StringList `gorm:"column:sender_whitelist;type:jsonb" json:"sender_whitelist"`
	SubjectPattern  string     `gorm:"column:subject_pattern;size:500" json:"subject_pattern"`
	TargetWorkflow  string     `gorm:"column:target_workflow;size:50" json:"target_workflow"`
	Priority        int        `gorm:"column:priority;default:0;index" json:"priority"`
	Enabled         bool       `gorm:"column:enabled;default:false" json:"enabled"`
	Description     string     `gorm:"column:description;size:500" json:"description"`
	CreatedBy       string     `gorm:"column:created_by;size:50" json:"created_by"`
	CreatedAt       int64      `gorm:"column:created_at;autoCreateTime:milli" json:"created_at"`
	UpdatedBy       string     `gorm:"column:updated_by;size:50" json:"updated_by"`
	UpdatedAt       int64      `gorm:"column:updated_at;autoUpdateTime:milli" json:"updated_at"`
}

// TableName 表名
func (MailRule) TableName() string {
	return "admin_mail_rules"
}
