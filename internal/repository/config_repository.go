package repository

import (
	"context"
	"errors"
	"time"

	"grana/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type ConfigRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewConfigRepository(db *pgxpool.Pool, logger *zap.Logger) *ConfigRepository {
	return &ConfigRepository{
		db:     db,
		logger: logger,
	}
}

func (r *ConfigRepository) Get(ctx context.Context, key string) (*models.SystemConfig, error) {
	query := squirrel.Select("key", "value", "description", "updated_at").
		From("system_config").
		Where(squirrel.Eq{"key": key}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	var cfg models.SystemConfig
	err = r.db.QueryRow(ctx, sql, args...).Scan(&cfg.Key, &cfg.Value, &cfg.Description, &cfg.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (r *ConfigRepository) Set(ctx context.Context, key, value string) error {
	query := squirrel.Insert("system_config").
		Columns("key", "value", "description", "updated_at").
		Values(key, value, "", time.Now()).
		Suffix("ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at").
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

func (r *ConfigRepository) List(ctx context.Context) ([]*models.SystemConfig, error) {
	query := squirrel.Select("key", "value", "description", "updated_at").
		From("system_config").
		OrderBy("key").
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var configs []*models.SystemConfig
	for rows.Next() {
		var cfg models.SystemConfig
		if err := rows.Scan(&cfg.Key, &cfg.Value, &cfg.Description, &cfg.UpdatedAt); err != nil {
			return nil, err
		}
		configs = append(configs, &cfg)
	}
	return configs, rows.Err()
}

// SeedDefaults inserts the default settings, leaving existing values
// untouched.
func (r *ConfigRepository) SeedDefaults(ctx context.Context) error {
	builder := squirrel.Insert("system_config").
		Columns("key", "value", "description", "updated_at").
		Suffix("ON CONFLICT (key) DO NOTHING").
		PlaceholderFormat(squirrel.Dollar)

	now := time.Now()
	for _, def := range models.DefaultSystemConfigs() {
		builder = builder.Values(def.Key, def.Value, def.Description, now)
	}

	sql, args, err := builder.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}
