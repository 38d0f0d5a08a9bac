// Package postgres persists accounts, contacts and messages with gorm.
// PostgreSQL is the production driver; sqlite is accepted for local runs and tests.
package postgres

import (
	"fmt"
	"time"

	pgdriver "gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Store implements ports.MessageRepository, ports.AccountRepository and
// ports.ContactRepository on a single gorm connection.
type Store struct {
	db *gorm.DB
}

// Open connects to the database named by driver ("postgres" or "sqlite").
func Open(driver, dsn string) (*Store, error) {
	var dialector gorm.Dialector
	switch driver {
	case "", "postgres":
		dialector = pgdriver.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql db: %w", err)
	}
	if driver == "sqlite" {
		// An in-memory sqlite database lives and dies with its connection.
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetConnMaxLifetime(5 * time.Minute)
	}

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}

	return &Store{db: db}, nil
}

// Migrate creates or updates the tables.
func (s *Store) Migrate() error {
	if err := s.db.AutoMigrate(&accountRecord{}, &contactRecord{}, &messageRecord{}); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

// Tables lists the table names managed by Migrate.
func Tables() []string {
	return []string{accountRecord{}.TableName(), contactRecord{}.TableName(), messageRecord{}.TableName()}
}

// HasTable reports whether name exists in the connected database.
func (s *Store) HasTable(name string) bool {
	return s.db.Migrator().HasTable(name)
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
