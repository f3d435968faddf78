// Package postgres persists events and matches and reads detections using
// GORM on Postgres. Every statement runs in auto-commit mode.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/couchcryptid/quake-match/internal/domain"
)

// Store is one database session for one invocation.
type Store struct {
	db     *gorm.DB
	sql    *sql.DB
	clock  clockwork.Clock
	logger *slog.Logger
}

// Open connects to Postgres and verifies the connection. Failures are
// KindConnection errors.
func Open(ctx context.Context, dsn string, clock clockwork.Clock, log *slog.Logger) (*Store, error) {
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		// Each statement commits on its own; there is no insert-then-match transaction.
		SkipDefaultTransaction: true,
		TranslateError:         true,
		NowFunc:                func() time.Time { return clock.Now().UTC() },
		// gorm's own ping ignores ctx; the first connection is made by PingContext below.
		DisableAutomaticPing: true,
	})
	if err != nil {
		return nil, domain.NewError(domain.KindConnection, "open database", err)
	}

	sqldb, err := gdb.DB()
	if err != nil {
		return nil, domain.NewError(domain.KindConnection, "open database", err)
	}
	// One invocation, one session.
	sqldb.SetMaxOpenConns(1)
	sqldb.SetMaxIdleConns(1)

	if err := sqldb.PingContext(ctx); err != nil {
		_ = sqldb.Close()
		return nil, domain.NewError(domain.KindConnection, "ping database", err)
	}

	return &Store{db: gdb, sql: sqldb, clock: clock, logger: log}, nil
}

// Close ends the session.
func (s *Store) Close() error {
	if s == nil || s.sql == nil {
		return nil
	}
	if err := s.sql.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

// matchDetectionFK ties matches to the detection they annotate. It is added
// only once the detections table exists.
const matchDetectionFK = `
DO $$
BEGIN
	IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'fk_matches_detection') THEN
		ALTER TABLE matches ADD CONSTRAINT fk_matches_detection
			FOREIGN KEY (detection_id) REFERENCES detections (detection_id);
	END IF;
END $$`

// AutoMigrate creates the events and matches tables. Detections belong to the
// detection pipeline and are migrated only when withDetections is set (tests).
func (s *Store) AutoMigrate(ctx context.Context, withDetections bool) error {
	db := s.db.WithContext(ctx)
	models := []any{&EventRow{}, &MatchRow{}}
	if withDetections {
		models = append(models, &DetectionRow{})
	}
	if err := db.AutoMigrate(models...); err != nil {
		return domain.NewError(domain.KindConnection, "migrate schema", err)
	}
	if !db.Migrator().HasTable(&DetectionRow{}) {
		s.logger.Warn("detections table missing, matches foreign key not created")
		return nil
	}
	if err := db.Exec(matchDetectionFK).Error; err != nil {
		return domain.NewError(domain.KindConnection, "migrate schema", err)
	}
	return nil
}
