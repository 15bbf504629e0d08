package app

import (
	"gorm.io/gorm"

	"github.com/laitim2001/ai-document-extraction-project-sub002/migrations"
	"github.com/laitim2001/ai-document-extraction-project-sub002/pkg/logger"
	"github.com/laitim2001/ai-document-extraction-project-sub002/pkg/migrate"
)

// AutoMigrate 执行内嵌的数据库迁移
func AutoMigrate(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	migrator := migrate.NewMigrator(sqlDB, "doc-admin", logger.L())
	return migrator.AutoMigrate(migrations.FS, ".")
}
