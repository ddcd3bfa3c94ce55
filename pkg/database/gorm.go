package database

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Kind names a supported database engine.
type Kind string

const (
	KindPostgres Kind = "postgresql"
	KindMySQL    Kind = "mysql"
	KindSQLite   Kind = "sqlite"
)

// ParseKind accepts the engine names used in configuration files.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "postgresql", "postgres", "pg":
		return KindPostgres, nil
	case "mysql", "mariadb":
		return KindMySQL, nil
	case "sqlite", "sqlite3":
		return KindSQLite, nil
	default:
		return "", fmt.Errorf("unsupported database kind: %q", s)
	}
}

// GormConfig describes a postgres server by parts. NewGormDBFromDSN covers everything else.
type GormConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

func getLogger(level logger.LogLevel) logger.Interface {
	return logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
			ParameterizedQueries:      true,
			Colorful:                  true,
		},
	)
}

func configureConnectionPool(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return nil
}

func dialector(kind Kind, dsn string) (gorm.Dialector, error) {
	switch kind {
	case KindPostgres:
		return postgres.Open(dsn), nil
	case KindMySQL:
		return mysql.Open(dsn), nil
	default:
		return nil, fmt.Errorf("gorm has no dialector for %q", kind)
	}
}

func NewGormDB(cfg GormConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		cfg.Host, cfg.User, cfg.Password, cfg.DBName, cfg.Port, cfg.SSLMode)
	return NewGormDBFromDSN(KindPostgres, dsn)
}

// NewGormDBFromDSN opens a postgres or mysql connection with the shared pool settings.
// Generated SQL is logged at Warn only, audit writes at the same level.
func NewGormDBFromDSN(kind Kind, dsn string) (*gorm.DB, error) {
	d, err := dialector(kind, dsn)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(d, &gorm.Config{
		Logger: getLogger(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", kind, err)
	}

	if err := configureConnectionPool(db); err != nil {
		return nil, err
	}

	return db, nil
}
