package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"time"

	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/gfornaciari/ebook-subscribe-api/internal/models"
	"github.com/gfornaciari/ebook-subscribe-api/internal/repository"
)

const (
	driverName    = "sqlite"
	dialect       = "sqlite3"
	migrationsDir = "migrations"
)

//go:embed migrations/*.sql
var migrations embed.FS

var errEmptyPath = errors.New("database path cannot be empty")

// SubscriberRepository keeps subscribers in an embedded SQLite file.
type SubscriberRepository struct {
	conn *repository.Lazy[*sql.DB]
	log  zerolog.Logger
}

func NewSubscriberRepository(
	path string,
	connectTimeout time.Duration,
	logger zerolog.Logger,
) *SubscriberRepository {
	logger = logger.With().Str("component", "SQLiteSubscriberRepository").Logger()
	r := &SubscriberRepository{log: logger}
	r.conn = repository.NewLazy(func(ctx context.Context) (*sql.DB, error) {
		return r.open(ctx, path)
	}, r.release, connectTimeout)
	return r
}

func (r *SubscriberRepository) open(ctx context.Context, path string) (*sql.DB, error) {
	if path == "" {
		return nil, errEmptyPath
	}

	r.log.Info().Str("path", path).Msg("opening sqlite database")
	db, err := sql.Open(driverName, "file:"+path+"?mode=rwc&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, err
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	if err := migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	r.log.Info().Str("path", path).Msg("sqlite database ready")
	return db, nil
}

func (r *SubscriberRepository) release(db *sql.DB) {
	r.log.Warn().Msg("closing sqlite database opened after close")
	_ = db.Close()
}

func migrate(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect(dialect); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, migrationsDir)
}

// Upsert creates the subscriber or refreshes name, status, source and updated_at in place.
func (r *SubscriberRepository) Upsert(ctx context.Context, email, name string) error {
	db, err := r.conn.Get(ctx)
	if err != nil {
		r.log.Error().Err(err).Ctx(ctx).Msg("failed to open database")
		return repository.NewStoreError("connect", err)
	}

	start := time.Now()
	now := start.UTC()
	_, err = db.ExecContext(ctx,
		`INSERT INTO subscribers (email, name, status, source, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(email) DO UPDATE SET
		     name       = excluded.name,
		     status     = excluded.status,
		     source     = excluded.source,
		     updated_at = excluded.updated_at`,
		email, name, string(models.StatusSubscribed), models.DefaultSource, now, now,
	)
	if err != nil {
		r.log.Error().Err(err).Ctx(ctx).
			Str("email", email).
			Dur("duration", time.Since(start)).
			Msg("failed to upsert subscriber")
		return repository.NewStoreError("upsert", err)
	}

	r.log.Debug().Ctx(ctx).
		Str("email", email).
		Dur("duration", time.Since(start)).
		Msg("subscriber upserted")
	return nil
}

func (r *SubscriberRepository) FindByEmail(ctx context.Context, email string) (models.Subscriber, error) {
	db, err := r.conn.Get(ctx)
	if err != nil {
		return models.Subscriber{}, repository.NewStoreError("connect", err)
	}

	var (
		sub    models.Subscriber
		status string
	)
	err = db.QueryRowContext(ctx,
		`SELECT email, name, status, source, created_at, updated_at
		 FROM subscribers
		 WHERE email = ?`,
		email,
	).Scan(&sub.Email, &sub.Name, &status, &sub.Source, &sub.CreatedAt, &sub.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Subscriber{}, repository.ErrNotFound
	}
	if err != nil {
		return models.Subscriber{}, repository.NewStoreError("find", err)
	}
	sub.Status = models.Status(status)

	return sub, nil
}

func (r *SubscriberRepository) Ping(ctx context.Context) error {
	db, err := r.conn.Get(ctx)
	if err != nil {
		return repository.NewStoreError("connect", err)
	}
	if err := db.PingContext(ctx); err != nil {
		return repository.NewStoreError("ping", err)
	}
	return nil
}

func (r *SubscriberRepository) Close(_ context.Context) error {
	db, ok := r.conn.Reset()
	if !ok {
		return nil
	}
	r.log.Info().Msg("closing sqlite database")
	return db.Close()
}
