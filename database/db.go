// Package database manages the sqlite connection, schema migration and
// first-run seeding for the user-center service.
package database

import (
	"log"
	"os"
	"path"
	"strings"

	"user-center/config"
	"user-center/database/model"
	"user-center/util/crypto"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var db *gorm.DB

const (
	defaultAdminName     = "Administrator"
	defaultAdminEmail    = "admin@example.com"
	defaultAdminPassword = "admin"
)

func initModels() error {
	models := []any{
		&model.User{},
		&model.ActivityLog{},
	}
	for _, m := range models {
		if err := db.AutoMigrate(m); err != nil {
			log.Printf("Error auto migrating model: %v", err)
			return err
		}
	}
	return nil
}

// initAdmin seeds the first admin account so a fresh install is reachable.
func initAdmin() error {
	var count int64
	if err := db.Model(&model.User{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := crypto.HashPassword(defaultAdminPassword)
	if err != nil {
		return err
	}
	admin := &model.User{
		Slug:     NewUserSlug(),
		Name:     defaultAdminName,
		Email:    defaultAdminEmail,
		Password: hash,
		Role:     model.RoleAdmin,
		Active:   true,
	}
	return db.Create(admin).Error
}

// InitDB opens (creating if needed) the sqlite database at dbPath, applies
// pragmas and migrations, and seeds the default admin.
func InitDB(dbPath string) error {
	dir := path.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return err
	}

	var gormLogger gormlogger.Interface
	if config.IsDebug() {
		gormLogger = gormlogger.Default
	} else {
		gormLogger = gormlogger.Discard
	}

	c := &gorm.Config{
		Logger:                 gormLogger,
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
	}

	dsn := dbPath + "?cache=shared&_journal_mode=WAL&_synchronous=NORMAL"
	var err error
	db, err = gorm.Open(sqlite.Open(dsn), c)
	if err != nil {
		return err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	for _, pragma := range []string{
		"PRAGMA cache_size = -64000;",
		"PRAGMA temp_store = MEMORY;",
		"PRAGMA foreign_keys = ON;",
	} {
		if _, err = sqlDB.Exec(pragma); err != nil {
			return err
		}
	}

	if err := initModels(); err != nil {
		return err
	}
	return initAdmin()
}

func CloseDB() error {
	if db != nil {
		if err := Checkpoint(); err != nil {
			log.Printf("error executing checkpoint: %v", err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	}
	return nil
}

func GetDB() *gorm.DB {
	return db
}

func IsNotFound(err error) bool {
	return err == gorm.ErrRecordNotFound
}

// IsDuplicate reports whether err is a sqlite unique-constraint violation,
// the storage-level backstop for email/slug uniqueness races.
func IsDuplicate(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// NewUserSlug generates the public identifier for a user record.
func NewUserSlug() string {
	return "USR_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

// NewLogSlug generates the public identifier for an activity-log record.
func NewLogSlug() string {
	return "LOG_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

func Checkpoint() error {
	return db.Exec("PRAGMA wal_checkpoint;").Error
}
