package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/model"
	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/repository"
	apperrors "github.com/laitim2001/ai-document-extraction-project-sub002/pkg/errors"
)

func setupAdminTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	err = db.AutoMigrate(&model.Admin{}, &model.AuditLog{})
	require.NoError(t, err)

	return db
}

func newAdminService(t *testing.T) (*AdminService, *gorm.DB) {
	db := setupAdminTestDB(t)
	return NewAdminService(repository.NewAdminRepository(db), repository.NewAuditLogRepository(db)), db
}

func TestAdminService_Create_Success(t *testing.T) {
	svc, _ := newAdminService(t)
	ctx := context.Background()

	admin, err := svc.Create(ctx, &CreateAdminRequest{
		Username:   "newadmin",
		Password:   "password123",
		Nickname:   "New Admin",
		Email:      "newadmin@test.com",
		Role:       model.RoleOperator,
		OperatorID: 1,
		Operator:   "root",
	})
	require.NoError(t, err)
	require.NotNil(t, admin)
	assert.Equal(t, "newadmin", admin.Username)
	assert.Equal(t, "New Admin", admin.Nickname)
	assert.Equal(t, model.RoleOperator, admin.Role)
	assert.Equal(t, model.AdminStatusActive, admin.Status)
	assert.Equal(t, "root", admin.CreatedBy)
	assert.Empty(t, admin.PasswordHash) // 密码应被清除
}

func TestAdminService_Create_DuplicateUsername(t *testing.T) {
	svc, _ := newAdminService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, &CreateAdminRequest{
		Username: "admin", Password: "password123", Role: model.RoleOperator, Operator: "root",
	})
	require.NoError(t, err)

	admin, err := svc.Create(ctx, &CreateAdminRequest{
		Username: "admin", Password: "password456", Role: model.RoleOperator, Operator: "root",
	})
	assert.Nil(t, admin)
	assert.ErrorIs(t, err, apperrors.ErrDuplicateKey)
}

func TestAdminService_Create_UnknownRole(t *testing.T) {
	svc, _ := newAdminService(t)

	admin, err := svc.Create(context.Background(), &CreateAdminRequest{
		Username: "admin", Password: "password123", Role: model.Role("overlord"), Operator: "root",
	})
	assert.Nil(t, admin)
	assert.ErrorIs(t, err, apperrors.ErrInvalidRequest)
}

func TestAdminService_Update_Success(t *testing.T) {
	svc, _ := newAdminService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, &CreateAdminRequest{
		Username: "admin", Password: "password123", Nickname: "Admin",
		Email: "admin@test.com", Role: model.RoleOperator, Operator: "root",
	})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, &UpdateAdminRequest{
		ID:       created.ID,
		Nickname: "Updated Admin",
		Email:    "updated@test.com",
		Role:     model.RoleSuperAdmin,
		Operator: "root",
	})
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, "Updated Admin", updated.Nickname)
	assert.Equal(t, "updated@test.com", updated.Email)
	assert.Equal(t, model.RoleSuperAdmin, updated.Role)
	assert.Equal(t, "root", updated.UpdatedBy)
}

func TestAdminService_Update_NotFound(t *testing.T) {
	svc, _ := newAdminService(t)

	updated, err := svc.Update(context.Background(), &UpdateAdminRequest{
		ID: 9999, Nickname: "Updated Admin", Operator: "root",
	})
	assert.Nil(t, updated)
	assert.ErrorIs(t, err, apperrors.ErrAdminNotFound)
}

func TestAdminService_UpdateStatus_DisableAndEnable(t *testing.T) {
	svc, db := newAdminService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, &CreateAdminRequest{
		Username: "admin", Password: "password123", Role: model.RoleOperator, Operator: "root",
	})
	require.NoError(t, err)

	// 禁用
	err = svc.UpdateStatus(ctx, created.ID, model.AdminStatusDisabled, 999, "root")
	require.NoError(t, err)

	admin, err := svc.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AdminStatusDisabled, admin.Status)

	// 重新启用
	err = svc.UpdateStatus(ctx, created.ID, model.AdminStatusActive, 999, "root")
	require.NoError(t, err)

	admin, err = svc.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AdminStatusActive, admin.Status)

	// 状态变更留有审计
	var auditCount int64
	db.Model(&model.AuditLog{}).Where("action = ?", model.AuditActionUpdate).Count(&auditCount)
	assert.Equal(t, int64(2), auditCount)
}

func TestAdminService_UpdateStatus_SelfDisableRejected(t *testing.T) {
	svc, _ := newAdminService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, &CreateAdminRequest{
		Username: "admin", Password: "password123", Role: model.RoleSuperAdmin, Operator: "root",
	})
	require.NoError(t, err)

	// 不能禁用当前登录账号
	err = svc.UpdateStatus(ctx, created.ID, model.AdminStatusDisabled, created.ID, created.Username)
	assert.ErrorIs(t, err, apperrors.ErrInvalidRequest)

	admin, err := svc.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AdminStatusActive, admin.Status)
}

func TestAdminService_UpdateStatus_NotFound(t *testing.T) {
	svc, _ := newAdminService(t)

	err := svc.UpdateStatus(context.Background(), 9999, model.AdminStatusDisabled, 1, "root")
	assert.ErrorIs(t, err, apperrors.ErrAdminNotFound)
}

func TestAdminService_GetByID(t *testing.T) {
	svc, _ := newAdminService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, &CreateAdminRequest{
		Username: "admin", Password: "password123", Role: model.RoleOperator, Operator: "root",
	})
	require.NoError(t, err)

	admin, err := svc.GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, admin)
	assert.Equal(t, "admin", admin.Username)
	assert.Empty(t, admin.PasswordHash) // 密码应被清除

	_, err = svc.GetByID(ctx, 9999)
	assert.ErrorIs(t, err, apperrors.ErrAdminNotFound)
}

func TestAdminService_List_Pagination(t *testing.T) {
	svc, _ := newAdminService(t)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		_, err := svc.Create(ctx, &CreateAdminRequest{
			Username: fmt.Sprintf("admin%02d", i),
			Password: "password123",
			Role:     model.RoleOperator,
			Operator: "root",
		})
		require.NoError(t, err)
	}

	page1 := &model.Pagination{Page: 1, PageSize: 3}
	admins1, err := svc.List(ctx, page1)
	require.NoError(t, err)
	assert.Len(t, admins1, 3)
	assert.Equal(t, int64(10), page1.Total)

	page2 := &model.Pagination{Page: 2, PageSize: 3}
	admins2, err := svc.List(ctx, page2)
	require.NoError(t, err)
	assert.Len(t, admins2, 3)

	// 密码一律清除
	for _, admin := range append(admins1, admins2...) {
		assert.Empty(t, admin.PasswordHash)
	}
}

func TestAdminService_ResetPassword(t *testing.T) {
	svc, db := newAdminService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, &CreateAdminRequest{
		Username: "admin", Password: "oldpassword", Role: model.RoleOperator, Operator: "root",
	})
	require.NoError(t, err)

	err = svc.ResetPassword(ctx, created.ID, "newpassword9", 1, "root")
	require.NoError(t, err)

	// 密码哈希已更换且留有审计
	var stored model.Admin
	require.NoError(t, db.First(&stored, created.ID).Error)
	assert.NotEmpty(t, stored.PasswordHash)

	var auditLogs []model.AuditLog
	db.Where("description = ?", "重置管理员密码").Find(&auditLogs)
	assert.Len(t, auditLogs, 1)

	err = svc.ResetPassword(ctx, 9999, "newpassword9", 1, "root")
	assert.ErrorIs(t, err, apperrors.ErrAdminNotFound)
}

func TestPagination_GetOffset(t *testing.T) {
	tests := []struct {
		name     string
		page     model.Pagination
		expected int
	}{
		{"page 1", model.Pagination{Page: 1, PageSize: 10}, 0},
		{"page 2", model.Pagination{Page: 2, PageSize: 10}, 10},
		{"page 3", model.Pagination{Page: 3, PageSize: 20}, 40},
		{"page 0 (invalid)", model.Pagination{Page: 0, PageSize: 10}, 0},
		{"negative page", model.Pagination{Page: -1, PageSize: 10}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.page.GetOffset())
		})
	}
}

func TestPagination_GetLimit(t *testing.T) {
	tests := []struct {
		name     string
		page     model.Pagination
		expected int
	}{
		{"normal", model.Pagination{PageSize: 10}, 10},
		{"zero (default)", model.Pagination{PageSize: 0}, 20},
		{"negative (default)", model.Pagination{PageSize: -1}, 20},
		{"max exceeded", model.Pagination{PageSize: 200}, 100},
		{"max exactly", model.Pagination{PageSize: 100}, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.page.GetLimit())
		})
	}
}
