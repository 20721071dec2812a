package db

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/clearform/assurance-backend/internal/platform/envutil"
	"github.com/clearform/assurance-backend/internal/platform/logger"
)

type Service struct {
	db  *gorm.DB
	log *logger.Logger
}

// New connects to the configured database. Postgres is the production
// driver; DB_DRIVER=sqlite gives a single-file local database for
// development (family locking needs Postgres, so the issue and
// create-version transactions are only safe under concurrency there).
func New(logg *logger.Logger) (*Service, error) {
	serviceLog := logg.With("service", "DBService")

	gormLog := gormLogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormLogger.Config{
			SlowThreshold:             1 * time.Second,
			LogLevel:                  gormLogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	cfg := &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   gormLog,
	}

	driver := strings.ToLower(envutil.GetEnv("DB_DRIVER", "postgres", logg))
	switch driver {
	case "sqlite":
		path := envutil.GetEnv("SQLITE_PATH", "assurance.db", logg)
		gdb, err := gorm.Open(sqlite.Open(path), cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite database: %w", err)
		}
		return &Service{db: gdb, log: serviceLog}, nil
	case "postgres":
		host := envutil.GetEnv("POSTGRES_HOST", "localhost", logg)
		port := envutil.GetEnv("POSTGRES_PORT", "5432", logg)
		user := envutil.GetEnv("POSTGRES_USER", "postgres", logg)
		password := envutil.GetEnv("POSTGRES_PASSWORD", "", logg)
		name := envutil.GetEnv("POSTGRES_NAME", "assurance", logg)
		sslMode := envutil.GetEnv("POSTGRES_SSLMODE", "disable", logg)

		dsn := fmt.Sprintf(
			"postgres://%s:%s@%s:%s/%s?sslmode=%s",
			user, password, host, port, name, sslMode,
		)
		gdb, err := gorm.Open(postgres.Open(dsn), cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
		}
		if err := gdb.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`).Error; err != nil {
			return nil, fmt.Errorf("failed to enable uuid-ossp extension: %w", err)
		}
		return &Service{db: gdb, log: serviceLog}, nil
	default:
		return nil, fmt.Errorf("unknown DB_DRIVER %q", driver)
	}
}

func (s *Service) DB() *gorm.DB { return s.db }
