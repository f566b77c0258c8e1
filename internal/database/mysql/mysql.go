package mysql

import (
	"fmt"

	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"

	"finassist/internal/config"
	"finassist/internal/models"
)

// Open connects to MySQL and migrates the document metadata schema.
// The handle is constructed once in main and passed explicitly to every
// component that needs it.
func Open(cfg *config.MySQLConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		cfg.Username, cfg.Password, cfg.Address, cfg.Database)

	db, err := gorm.Open(gormmysql.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MySQL: %w", err)
	}

	if err := db.AutoMigrate(&models.Document{}); err != nil {
		return nil, fmt.Errorf("failed to migrate document schema: %w", err)
	}

	return db, nil
}
