package database

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Migration struct {
	ID        uint   `gorm:"primaryKey"`
	Version   string `gorm:"uniqueIndex;size:255"`
	AppliedAt time.Time
}

// RunMigrations applies the *.sql files in dir that have not been recorded
// yet, in file name order. Files prefixed with rollback_ are skipped.
func RunMigrations(db *gorm.DB, dir string) error {
	if err := db.AutoMigrate(&Migration{}); err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	files, err := filepath.Glob(filepath.Join(dir, "*.sql"))
	if err != nil {
		return fmt.Errorf("read migrations directory: %w", err)
	}
	sort.Strings(files)

	for _, file := range files {
		version := filepath.Base(file)
		if strings.HasPrefix(version, "rollback_") {
			continue
		}

		var count int64
		if err := db.Model(&Migration{}).Where("version = ?", version).Count(&count).Error; err != nil {
			return fmt.Errorf("check migration %s: %w", version, err)
		}
		if count > 0 {
			zap.L().Debug("skipping applied migration", zap.String("version", version))
			continue
		}

		sqlContent, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", version, err)
		}

		err = db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Exec(string(sqlContent)).Error; err != nil {
				return err
			}
			return tx.Create(&Migration{Version: version, AppliedAt: time.Now()}).Error
		})
		if err != nil {
			return fmt.Errorf("apply migration %s: %w", version, err)
		}

		zap.L().Info("applied migration", zap.String("version", version))
	}

	return nil
}

func RollbackMigration(db *gorm.DB, dir, version string) error {
	var migration Migration
	if err := db.Where("version = ?", version).First(&migration).Error; err != nil {
		return fmt.Errorf("migration not found: %s", version)
	}

	rollbackFile := filepath.Join(dir, "rollback_"+version)
	sqlContent, err := os.ReadFile(rollbackFile)
	if err != nil {
		return fmt.Errorf("rollback file not found: %s", rollbackFile)
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(string(sqlContent)).Error; err != nil {
			return err
		}
		return tx.Delete(&migration).Error
	})
	if err != nil {
		return fmt.Errorf("rollback migration %s: %w", version, err)
	}

	zap.L().Info("rolled back migration", zap.String("version", version))
	return nil
}

func GetAppliedMigrations(db *gorm.DB) ([]Migration, error) {
	var migrations []Migration
	if err := db.Order("applied_at DESC").Find(&migrations).Error; err != nil {
		return nil, err
	}
	return migrations, nil
}
