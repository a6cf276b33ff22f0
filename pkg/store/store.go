package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/glebarez/sqlite"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/skyops/apodsync/pkg/config"
)

// Store provides persistence for APOD entries.
type Store interface {
	Start(ctx context.Context) error
	Stop() error

	// EnsureSchema creates the entries table if it does not exist.
	// Safe to call repeatedly and from overlapping runs.
	EnsureSchema(ctx context.Context) error

	// UpsertEntry inserts or replaces the entry for its date. Reruns
	// for the same date converge to a single row, last writer wins.
	UpsertEntry(ctx context.Context, entry *Entry) error

	GetEntry(ctx context.Context, date string) (*Entry, error)
	LatestEntry(ctx context.Context) (*Entry, error)
	CountEntries(ctx context.Context) (int64, error)
}

// Compile-time interface check.
var _ Store = (*store)(nil)

type store struct {
	log logrus.FieldLogger
	cfg *config.DatabaseConfig
	db  *gorm.DB
}

// NewStore creates a new Store backed by the configured database driver.
func NewStore(
	log logrus.FieldLogger,
	cfg *config.DatabaseConfig,
) Store {
	return &store{
		log: log.WithField("component", "store"),
		cfg: cfg,
	}
}

// Start opens the database connection and ensures the schema.
func (s *store) Start(ctx context.Context) error {
	var dialector gorm.Dialector

	gormCfg := &gorm.Config{
		Logger: logger.Discard,
	}

	switch s.cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(s.cfg.SQLite.Path)
	case "postgres":
		dsn := fmt.Sprintf(
			"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			s.cfg.Postgres.Host,
			s.cfg.Postgres.Port,
			s.cfg.Postgres.User,
			s.cfg.Postgres.Password,
			s.cfg.Postgres.Database,
			s.cfg.Postgres.SSLMode,
		)
		dialector = postgres.Open(dsn)
	default:
		return fmt.Errorf("unsupported database driver: %s", s.cfg.Driver)
	}

	db, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}

	s.db = db

	if err := s.EnsureSchema(ctx); err != nil {
		return err
	}

	s.log.WithField("driver", s.cfg.Driver).
		Info("Database connected")

	return nil
}

// Stop closes the underlying database connection.
func (s *store) Stop() error {
	if s.db == nil {
		return nil
	}

	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("getting underlying db: %w", err)
	}

	return sqlDB.Close()
}

// EnsureSchema creates the entries table if absent. AutoMigrate uses
// create-if-not-exists primitives, so overlapping calls do not race.
func (s *store) EnsureSchema(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&Entry{}); err != nil {
		return fmt.Errorf("ensuring schema: %w", err)
	}

	return nil
}

// UpsertEntry inserts or updates the entry keyed by date. The write is
// a single INSERT ... ON CONFLICT statement, so two overlapping runs
// for the same date resolve to the last writer without a read-then-write
// race.
func (s *store) UpsertEntry(ctx context.Context, entry *Entry) error {
	if err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "date"}},
			UpdateAll: true,
		}).
		Create(entry).Error; err != nil {
		return fmt.Errorf("upserting entry for %s: %w", entry.Date, err)
	}

	return nil
}

// GetEntry returns the entry for a date, or nil if none is stored.
func (s *store) GetEntry(ctx context.Context, date string) (*Entry, error) {
	var entry Entry
	if err := s.db.WithContext(ctx).
		Where("date = ?", date).
		First(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}

		return nil, fmt.Errorf("getting entry for %s: %w", date, err)
	}

	return &entry, nil
}

// LatestEntry returns the entry with the most recent date, or nil if
// the table is empty.
func (s *store) LatestEntry(ctx context.Context) (*Entry, error) {
	var entry Entry
	if err := s.db.WithContext(ctx).
		Order("date DESC").
		First(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}

		return nil, fmt.Errorf("getting latest entry: %w", err)
	}

	return &entry, nil
}

// CountEntries returns the total number of stored entries.
func (s *store) CountEntries(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).
		Model(&Entry{}).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("counting entries: %w", err)
	}

	return count, nil
}
