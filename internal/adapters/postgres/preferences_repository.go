package postgres_adapter

import (
	"context"
	"errors"
	"fmt"

	"moderation-console/internal/contextkeys"
	"moderation-console/internal/core/port"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const createPreferencesTable = `
CREATE TABLE IF NOT EXISTS moderator_preferences (
	profile    TEXT        NOT NULL,
	key        TEXT        NOT NULL,
	value      TEXT        NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (profile, key)
)`

// DBTX - часть pgxpool.Pool, которой пользуется репозиторий.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresPreferencesRepository - общее хранилище настроек для нескольких
// рабочих мест модератора. Ключи одного профиля изолированы от других.
type PostgresPreferencesRepository struct {
	db      DBTX
	profile string
}

var _ port.KeyValueStorePort = (*PostgresPreferencesRepository)(nil)

func NewPostgresPreferencesRepository(db DBTX, profile string) (*PostgresPreferencesRepository, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle cannot be nil")
	}
	if profile == "" {
		profile = "default"
	}
	return &PostgresPreferencesRepository{db: db, profile: profile}, nil
}

// EnsureSchema создает таблицу настроек, если ее еще нет.
func (r *PostgresPreferencesRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, createPreferencesTable); err != nil {
		return fmt.Errorf("failed to create preferences table: %w", err)
	}
	return nil
}

func (r *PostgresPreferencesRepository) logger(ctx context.Context, method, key string) port.LoggerPort {
	return contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"component": "PostgresPreferencesRepository",
		"method":    method,
		"profile":   r.profile,
		"key":       key,
	})
}

func (r *PostgresPreferencesRepository) Get(ctx context.Context, key string) (string, bool, error) {
	query := `SELECT value FROM moderator_preferences WHERE profile = $1 AND key = $2`

	var value string
	err := r.db.QueryRow(ctx, query, r.profile, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		r.logger(ctx, "Get", key).Error("Failed to read preference", err, nil)
		return "", false, fmt.Errorf("failed to read preference %s: %w", key, err)
	}
	return value, true, nil
}

func (r *PostgresPreferencesRepository) Set(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO moderator_preferences (profile, key, value, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (profile, key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`

	if _, err := r.db.Exec(ctx, query, r.profile, key, value); err != nil {
		r.logger(ctx, "Set", key).Error("Failed to write preference", err, nil)
		return fmt.Errorf("failed to write preference %s: %w", key, err)
	}
	return nil
}

func (r *PostgresPreferencesRepository) Delete(ctx context.Context, key string) error {
	query := `DELETE FROM moderator_preferences WHERE profile = $1 AND key = $2`

	cmdTag, err := r.db.Exec(ctx, query, r.profile, key)
	if err != nil {
		r.logger(ctx, "Delete", key).Error("Failed to delete preference", err, nil)
		return fmt.Errorf("failed to delete preference %s: %w", key, err)
	}
	if cmdTag.RowsAffected() == 0 {
		r.logger(ctx, "Delete", key).Debug("Preference was not stored, nothing to delete.", nil)
	}
	return nil
}
