package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"grana/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const categoryColumns = "id, user_id, name, type, keywords, created_at, updated_at"

type CategoryRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewCategoryRepository(db *pgxpool.Pool, logger *zap.Logger) *CategoryRepository {
	return &CategoryRepository{
		db:     db,
		logger: logger,
	}
}

func (r *CategoryRepository) Create(ctx context.Context, category *models.Category) error {
	query := squirrel.Insert("categories").
		Columns("id", "user_id", "name", "type", "keywords", "created_at", "updated_at").
		Values(category.ID, category.UserID, category.Name, string(category.Type),
			joinKeywords(category.Keywords), category.CreatedAt, category.UpdatedAt).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

func (r *CategoryRepository) GetByID(ctx context.Context, userID, id uuid.UUID) (*models.Category, error) {
	query := squirrel.Select(categoryColumns).
		From("categories").
		Where(squirrel.Eq{"id": id, "user_id": userID}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	category, err := scanCategory(r.db.QueryRow(ctx, sql, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return category, nil
}

func (r *CategoryRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Category, error) {
	query := squirrel.Select(categoryColumns).
		From("categories").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("name").
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

	var categories []*models.Category
	for rows.Next() {
		category, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		categories = append(categories, category)
	}
	return categories, rows.Err()
}

func (r *CategoryRepository) Update(ctx context.Context, category *models.Category) error {
	query := squirrel.Update("categories").
		Set("name", category.Name).
		Set("type", string(category.Type)).
		Set("keywords", joinKeywords(category.Keywords)).
		Set("updated_at", time.Now()).
		Where(squirrel.Eq{"id": category.ID, "user_id": category.UserID}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *CategoryRepository) Delete(ctx context.Context, userID, id uuid.UUID) error {
	query := squirrel.Delete("categories").
		Where(squirrel.Eq{"id": id, "user_id": userID}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanCategory(row pgx.Row) (*models.Category, error) {
	var (
		category models.Category
		catType  string
		keywords string
	)
	if err := row.Scan(
		&category.ID, &category.UserID, &category.Name, &catType, &keywords,
		&category.CreatedAt, &category.UpdatedAt,
	); err != nil {
		return nil, err
	}
	category.Type = models.CategoryType(catType)
	category.Keywords = splitKeywords(keywords)
	return &category, nil
}

func joinKeywords(keywords []string) string {
	return strings.Join(keywords, ",")
}

func splitKeywords(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	keywords := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			keywords = append(keywords, p)
		}
	}
	return keywords
}
