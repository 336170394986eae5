package db

import (
	"errors"  // Error inspection
	"fmt"     // Error wrapping
	"strings" // Message inspection
	"time"    // Pool lifetimes

	"camera_market/internal/apperror" // Error taxonomy
	"camera_market/internal/config"   // Custom package for configuration

	"github.com/go-sql-driver/mysql" // MySQL error codes
	gormmysql "gorm.io/driver/mysql" // MySQL driver for GORM
	"gorm.io/driver/postgres"        // Postgres driver for GORM
	"gorm.io/gorm"                   // GORM ORM library
	"gorm.io/gorm/logger"            // GORM logger
)

// mysqlDuplicateEntry is ER_DUP_ENTRY
const mysqlDuplicateEntry = 1062

// Open connects to the configured database
func Open(cfg *config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector // Driver specific dialector
	switch cfg.DBDriver {
	case "postgres":
		dialector = postgres.Open(cfg.DSN()) // Postgres connection
	default:
		dialector = gormmysql.Open(cfg.DSN()) // MySQL connection
	}
	db, err := gorm.Open(dialector, Options())
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.DBDriver, err)
	}
	sqlDB, err := db.DB() // Underlying pool
	if err != nil {
		return nil, fmt.Errorf("get sql db: %w", err)
	}
	sqlDB.SetMaxOpenConns(50)                 // Bound concurrent connections
	sqlDB.SetMaxIdleConns(25)                 // Keep warm connections around
	sqlDB.SetConnMaxLifetime(5 * time.Minute) // Recycle connections
	return db, nil
}

// Options is the gorm configuration shared by every dialector
func Options() *gorm.Config {
	return &gorm.Config{
		TranslateError: true,                                // Map unique violations to gorm.ErrDuplicatedKey
		Logger:         logger.Default.LogMode(logger.Warn), // Only slow queries and errors
	}
}

// IsUniqueViolation reports whether err came from a unique constraint
func IsUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true // Translated by the dialector
	}
	var myErr *mysql.MySQLError // Untranslated MySQL error
	if errors.As(err, &myErr) && myErr.Number == mysqlDuplicateEntry {
		return true
	}
	// SQLite reports constraint failures by message only when untranslated
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// Unavailable wraps an unexpected store failure as a transient error
func Unavailable(err error) error {
	return apperror.Unavailable("database", err)
}
