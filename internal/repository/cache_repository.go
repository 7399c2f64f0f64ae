package repository

import (
	"context"
	"time"

	"grana/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// CacheRepository stores description -> category assignments produced by
// the external classifier so repeated merchants never hit the model twice.
type CacheRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewCacheRepository(db *pgxpool.Pool, logger *zap.Logger) *CacheRepository {
	return &CacheRepository{
		db:     db,
		logger: logger,
	}
}

// Lookup returns the cached category for each description that has one.
func (r *CacheRepository) Lookup(ctx context.Context, descriptions []string) (map[string]models.TransactionCategory, error) {
	if len(descriptions) == 0 {
		return map[string]models.TransactionCategory{}, nil
	}

	query := squirrel.Select("description", "category").
		From("classification_cache").
		Where(squirrel.Eq{"description": descriptions}).
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

	resolved := make(map[string]models.TransactionCategory)
	for rows.Next() {
		var desc, category string
		if err := rows.Scan(&desc, &category); err != nil {
			return nil, err
		}
		resolved[desc] = models.TransactionCategory(category)
	}
	return resolved, rows.Err()
}

// Upsert writes or replaces cache entries for the given descriptions.
func (r *CacheRepository) Upsert(ctx context.Context, entries map[string]models.TransactionCategory) error {
	if len(entries) == 0 {
		return nil
	}

	now := time.Now()
	builder := squirrel.Insert("classification_cache").
		Columns("description", "category", "updated_at").
		Suffix("ON CONFLICT (description) DO UPDATE SET category = EXCLUDED.category, updated_at = EXCLUDED.updated_at").
		PlaceholderFormat(squirrel.Dollar)
	for desc, category := range entries {
		builder = builder.Values(desc, string(category), now)
	}

	sql, args, err := builder.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

// Count returns the number of cached assignments.
func (r *CacheRepository) Count(ctx context.Context) (int64, error) {
	query := squirrel.Select("COUNT(*)").
		From("classification_cache").
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return 0, err
	}

	var count int64
	err = r.db.QueryRow(ctx, sql, args...).Scan(&count)
	return count, err
}
