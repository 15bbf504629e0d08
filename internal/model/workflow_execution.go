package model

// WorkflowStatus 工作流执行状态
type WorkflowStatus string

const (
	WorkflowStatusPending     WorkflowStatus = "pending"      // 等待处理
	WorkflowStatusProcessing  WorkflowStatus = "processing"   // 处理中
	WorkflowStatusCompleted   WorkflowStatus = "completed"    // 已完成
	WorkflowStatusFailed      WorkflowStatus = "failed"       // 失败
	WorkflowStatusNeedsReview WorkflowStatus = "needs_review" // 待人工复核
)

// IsValid 校验状态取值
func (s WorkflowStatus) IsValid() bool {
	switch s {
	case WorkflowStatusPending, WorkflowStatusProcessing, WorkflowStatusCompleted,
		WorkflowStatusFailed, WorkflowStatusNeedsReview:
		return true
	}
	return false
}

// IsTerminal 是否为终态, 终态执行不允许重试以外的状态迁移
func (s WorkflowStatus) IsTerminal() bool {
	return s == WorkflowStatusCompleted || s == WorkflowStatusFailed
}

// WorkflowExecution 文档提取工作流执行记录
type WorkflowExecution struct {
	ID            int64          `gorm:"primaryKey;column:id" json:"id"`
	DocumentID    string         `gorm:"column:document_id;size:100;index" json:"document_id"`
	WorkflowType  string         `gorm:"column:workflow_type;size:50;index" json:"workflow_type"`
	Status        WorkflowStatus `gorm:"column:status;size:20;index" json:"status"`
	ForwarderCode *string        `gorm:"column:forwarder_code;size:50" json:"forwarder_code,omitempty"`
	Confidence    *float64       `gorm:"column:confidence" json:"confidence,omitempty"`
	ErrorMessage  string         `gorm:"column:error_message;size:1000" json:"error_message,omitempty"`
	RetryCount    int            `gorm:"column:retry_count;default:0" json:"retry_count"`
	StartedAt     int64          `gorm:"column:started_at;autoCreateTime:milli;index" json:"started_at"`
	CompletedAt   *int64         `gorm:"column:completed_at" json:"completed_at,omitempty"`
}

// TableName 表名
func (WorkflowExecution) TableName() string {
	return "admin_workflow_executions"
}

// WorkflowStats 工作流总览统计
type WorkflowStats struct {
	TotalExecutions  int64   `json:"total_executions"`
	TodayExecutions  int64   `json:"today_executions"`
	PendingCount     int64   `json:"pending_count"`
	ProcessingCount  int64   `json:"processing_count"`
	CompletedCount   int64   `json:"completed_count"`
	FailedCount      int64   `json:"failed_count"`
	NeedsReviewCount int64   `json:"needs_review_count"`
	AvgConfidence    float64 `json:"avg_confidence"`
	AvgDurationMs    float64 `json:"avg_duration_ms"`
	LastUpdatedAt    int64   `json:"last_updated_at"`
}
