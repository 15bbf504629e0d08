package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/model"
	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/repository"
	apperrors "github.com/laitim2001/ai-document-extraction-project-sub002/pkg/errors"
)

func setupMailRuleService(t *testing.T) (*MailRuleService, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	err = db.AutoMigrate(&model.MailRule{}, &model.AuditLog{})
	require.NoError(t, err)

	svc := NewMailRuleService(repository.NewMailRuleRepository(db), repository.NewAuditLogRepository(db))
	return svc, db
}

func createTestRule(t *testing.T, svc *MailRuleService, name string, priority int, enabled bool) *model.MailRule {
	t.Helper()
	rule, err := svc.Create(context.Background(), &CreateMailRuleRequest{
		Name:            name,
		Folder:          "INBOX/invoices",
		SenderWhitelist: []string{"billing@acme.com"},
		SubjectPattern:  `(?i)invoice\s+#\d+`,
		TargetWorkflow:  "invoice",
		Priority:        priority,
		Enabled:         enabled,
		OperatorID:      1,
		Operator:        "root",
	})
	require.NoError(t, err)
	return rule
}

func TestMailRuleService_Create(t *testing.T) {
	svc, db := setupMailRuleService(t)

	rule := createTestRule(t, svc, "acme-invoices", 10, true)
	assert.NotZero(t, rule.ID)
	assert.Equal(t, "root", rule.CreatedBy)

	// 白名单往返存取
	var loaded model.MailRule
	require.NoError(t, db.First(&loaded, rule.ID).Error)
	assert.True(t, loaded.SenderWhitelist.Contains("billing@acme.com"))
	assert.Equal(t, `(?i)invoice\s+#\d+`, loaded.SubjectPattern)

	// 创建留有审计
	var count int64
	db.Model(&model.AuditLog{}).Where("action = ? AND resource_type = ?", model.AuditActionCreate, model.ResourceTypeMailRule).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestMailRuleService_CreateDuplicateName(t *testing.T) {
	svc, _ := setupMailRuleService(t)

	createTestRule(t, svc, "acme-invoices", 10, true)

	_, err := svc.Create(context.Background(), &CreateMailRuleRequest{
		Name:           "acme-invoices",
		TargetWorkflow: "invoice",
		Operator:       "root",
	})
	assert.ErrorIs(t, err, apperrors.ErrDuplicateKey)
}

func TestMailRuleService_CreateValidation(t *testing.T) {
	svc, _ := setupMailRuleService(t)
	ctx := context.Background()

	// 无法编译的主题模式
	_, err := svc.Create(ctx, &CreateMailRuleRequest{
		Name:           "broken-pattern",
		SubjectPattern: `invoice(`,
		TargetWorkflow: "invoice",
		Operator:       "root",
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidPattern)

	// 优先级越界
	_, err = svc.Create(ctx, &CreateMailRuleRequest{
		Name:           "priority-too-high",
		TargetWorkflow: "invoice",
		Priority:       model.MailRulePriorityMax + 1,
		Operator:       "root",
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidRequest)

	_, err = svc.Create(ctx, &CreateMailRuleRequest{
		Name:           "priority-negative",
		TargetWorkflow: "invoice",
		Priority:       -1,
		Operator:       "root",
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidRequest)

	// 空模式表示匹配所有来信, 允许
	_, err = svc.Create(ctx, &CreateMailRuleRequest{
		Name:           "catch-all",
		TargetWorkflow: "generic",
		Operator:       "root",
	})
	assert.NoError(t, err)
}

func TestMailRuleService_Update(t *testing.T) {
	svc, _ := setupMailRuleService(t)
	ctx := context.Background()

	rule := createTestRule(t, svc, "acme-invoices", 10, true)

	// 部分更新, 未提供的字段保持原值
	newPattern := `(?i)receipt`
	newPriority := 50
	updated, err := svc.Update(ctx, &UpdateMailRuleRequest{
		ID:             rule.ID,
		SubjectPattern: &newPattern,
		Priority:       &newPriority,
		OperatorID:     1,
		Operator:       "admin2",
	})
	require.NoError(t, err)
	assert.Equal(t, newPattern, updated.SubjectPattern)
	assert.Equal(t, 50, updated.Priority)
	assert.Equal(t, "INBOX/invoices", updated.Folder)
	assert.Equal(t, "admin2", updated.UpdatedBy)

	// 更新后的模式同样要能编译
	badPattern := `[z-a]`
	_, err = svc.Update(ctx, &UpdateMailRuleRequest{ID: rule.ID, SubjectPattern: &badPattern, Operator: "root"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidPattern)

	// 目标工作流不能清空
	empty := ""
	_, err = svc.Update(ctx, &UpdateMailRuleRequest{ID: rule.ID, TargetWorkflow: &empty, Operator: "root"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidRequest)

	_, err = svc.Update(ctx, &UpdateMailRuleRequest{ID: 9999, Operator: "root"})
	assert.ErrorIs(t, err, apperrors.ErrRuleNotFound)
}

func TestMailRuleService_UpdateEnabled(t *testing.T) {
	svc, db := setupMailRuleService(t)
	ctx := context.Background()

	rule := createTestRule(t, svc, "acme-invoices", 10, true)

	err := svc.UpdateEnabled(ctx, rule.ID, false, 1, "root")
	require.NoError(t, err)

	loaded, err := svc.GetByID(ctx, rule.ID)
	require.NoError(t, err)
	assert.False(t, loaded.Enabled)

	err = svc.UpdateEnabled(ctx, rule.ID, true, 1, "root")
	require.NoError(t, err)

	loaded, err = svc.GetByID(ctx, rule.ID)
	require.NoError(t, err)
	assert.True(t, loaded.Enabled)

	// 启停各留一条审计
	var count int64
	db.Model(&model.AuditLog{}).Where("description IN ?", []string{"启用邮箱规则", "停用邮箱规则"}).Count(&count)
	assert.Equal(t, int64(2), count)

	err = svc.UpdateEnabled(ctx, 9999, true, 1, "root")
	assert.ErrorIs(t, err, apperrors.ErrRuleNotFound)
}

func TestMailRuleService_Delete(t *testing.T) {
	svc, db := setupMailRuleService(t)
	ctx := context.Background()

	rule := createTestRule(t, svc, "acme-invoices", 10, true)

	err := svc.Delete(ctx, rule.ID, 1, "root")
	require.NoError(t, err)

	loaded, err := svc.GetByID(ctx, rule.ID)
	assert.ErrorIs(t, err, apperrors.ErrRuleNotFound)
	assert.Nil(t, loaded)

	// 删除审计保留规则旧值
	var auditLog model.AuditLog
	require.NoError(t, db.Where("action = ?", model.AuditActionDelete).First(&auditLog).Error)
	assert.Equal(t, "acme-invoices", auditLog.ResourceID)
	assert.NotNil(t, auditLog.OldValue)

	err = svc.Delete(ctx, rule.ID, 1, "root")
	assert.ErrorIs(t, err, apperrors.ErrRuleNotFound)
}

func TestMailRuleService_List(t *testing.T) {
	svc, _ := setupMailRuleService(t)
	ctx := context.Background()

	createTestRule(t, svc, "low-priority", 1, true)
	createTestRule(t, svc, "high-priority", 100, true)
	createTestRule(t, svc, "disabled-rule", 50, false)

	// 按优先级从高到低
	page := &model.Pagination{}
	rules, err := svc.List(ctx, page, nil)
	require.NoError(t, err)
	require.Len(t, rules, 3)
	assert.Equal(t, int64(3), page.Total)
	assert.Equal(t, "high-priority", rules[0].Name)
	assert.Equal(t, "disabled-rule", rules[1].Name)
	assert.Equal(t, "low-priority", rules[2].Name)

	// 仅启用
	enabled := true
	page = &model.Pagination{}
	rules, err = svc.List(ctx, page, &enabled)
	require.NoError(t, err)
	require.Len(t, rules, 2)

	// 采集服务的同步视图只含启用规则
	syncRules, err := svc.ListEnabled(ctx)
	require.NoError(t, err)
	require.Len(t, syncRules, 2)
	assert.Equal(t, "high-priority", syncRules[0].Name)
	assert.Equal(t, "low-priority", syncRules[1].Name)
}
