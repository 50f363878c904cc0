// Package testutil provides shared helpers for package tests.
package testutil

import (
	"path/filepath"
	"testing"

	"RockFM/model"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// NewDB 打开一个一次性的 sqlite 测试库并迁移全部业务模型。
// TranslateError 与生产配置保持一致，唯一约束路径在测试里
// 和 MySQL 下走同一套判定。
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "rockfm_test.db") + "?_busy_timeout=5000"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}

	if err := db.AutoMigrate(
		&model.User{},
		&model.Room{},
		&model.RoomMember{},
		&model.Track{},
		&model.QueueEntry{},
		&model.VoteRecord{},
	); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}
