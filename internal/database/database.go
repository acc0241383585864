// Package database opens the shared connection pool. The volunteer registry
// talks to it through gorm and the form audit log through sqlx.
package database

import (
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"community-registration/volunteer-forms-backend/internal/config"
)

type DB struct {
	Gorm *gorm.DB
	SQL  *sqlx.DB
}

// Open connects to the configured database. Both handles share one pool.
func Open(cfg config.DatabaseConfig, logger *zap.Logger) (*DB, error) {
	var (
		sqlDB     *sqlx.DB
		dialector gorm.Dialector
		err       error
	)

	switch cfg.Driver {
	case config.DriverPostgres:
		sqlDB, err = sqlx.Connect("postgres", cfg.GetDatabaseURL())
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		dialector = postgres.New(postgres.Config{Conn: sqlDB.DB})
	case config.DriverSQLite:
		sqlDB, err = sqlx.Connect("sqlite3", sqliteDSN(cfg.Path))
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite database: %w", err)
		}
		dialector = &sqlite.Dialector{DriverName: "sqlite3", Conn: sqlDB.DB}
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	configurePool(sqlDB, cfg)

	gdb, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to initialize gorm: %w", err)
	}

	logger.Info("Connected to database", zap.String("driver", cfg.Driver))
	return &DB{Gorm: gdb, SQL: sqlDB}, nil
}

func (d *DB) Close() error {
	return d.SQL.Close()
}

func sqliteDSN(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_foreign_keys=on&_busy_timeout=5000"
}

func configurePool(db *sqlx.DB, cfg config.DatabaseConfig) {
	// Every connection to an in-memory sqlite database sees its own empty
	// database.
	if cfg.Driver == config.DriverSQLite && isMemory(cfg.Path) {
		db.SetMaxOpenConns(1)
		return
	}
	if cfg.MaxConnections > 0 {
		db.SetMaxOpenConns(cfg.MaxConnections)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.MaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.MaxLifetime)
	}
}

func isMemory(path string) bool {
	return path == ":memory:" || strings.Contains(path, "mode=memory")
}
