package db

import (
	"database/sql"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"stockfolio/internal/config"
)

type DB struct {
	Gorm *gorm.DB
	SQL  *sql.DB
}

func Open(cfg config.DBConfig) (*DB, error) {
	gcfg := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}

	gdb, err := gorm.Open(postgres.Open(cfg.DSN), gcfg)
	if err != nil {
		return nil, err
	}

	sqldb, err := gdb.DB()
	if err != nil {
		return nil, err
	}

	sqldb.SetMaxOpenConns(cfg.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.MaxIdleConns)
	sqldb.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqldb.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	return &DB{Gorm: gdb, SQL: sqldb}, nil
}

func Close(db *DB) error {
	if db == nil || db.SQL == nil {
		return nil
	}
	return db.SQL.Close()
}

// Ping reports whether the database is reachable. A missing handle is an
// error here, not a pass: the readiness probe depends on it.
func Ping(db *DB) error {
	if db == nil || db.SQL == nil {
		return sql.ErrConnDone
	}
	return db.SQL.Ping()
}

// SetTimezone pins the session timezone. SET TIME ZONE takes no bind
// parameters, so the value is quoted as a literal.
func SetTimezone(db *DB, tz string) error {
	if tz == "" {
		return nil
	}
	literal := strings.ReplaceAll(tz, "'", "''")
	_, err := db.SQL.Exec("SET TIME ZONE '" + literal + "'")
	return err
}
