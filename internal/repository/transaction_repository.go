package repository

import (
	"context"
	"time"

	"grana/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const transactionColumns = "id, user_id, date, purchase_date, competence_date, description, amount, " +
	"direction, bank, cost_center, ai_category, ai_confidence, manual_category, tags, " +
	"installment, installment_num, installment_total, due_date, processed, created_at, updated_at"

// KeyTriple is one (date, description, amount) element of the natural key
// within a user's stored transactions.
type KeyTriple struct {
	Date        time.Time
	Description string
	Amount      decimal.Decimal
}

// CategoryTotal aggregates amounts per effective category.
type CategoryTotal struct {
	Category string
	Total    decimal.Decimal
	Count    int64
}

// MonthlyTotal aggregates amounts per calendar month (YYYY-MM).
type MonthlyTotal struct {
	Month string
	Total decimal.Decimal
	Count int64
}

type TransactionRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewTransactionRepository(db *pgxpool.Pool, logger *zap.Logger) *TransactionRepository {
	return &TransactionRepository{
		db:     db,
		logger: logger,
	}
}

// SaveBatch persists a batch of transactions atomically: either every row
// commits or none does.
func (r *TransactionRepository) SaveBatch(ctx context.Context, txs []*models.Transaction) error {
	if len(txs) == 0 {
		return nil
	}

	builder := squirrel.Insert("transactions").
		Columns("id", "user_id", "date", "purchase_date", "competence_date", "description", "amount",
			"direction", "bank", "cost_center", "ai_category", "ai_confidence", "manual_category", "tags",
			"installment", "installment_num", "installment_total", "due_date", "processed", "created_at", "updated_at").
		PlaceholderFormat(squirrel.Dollar)

	for _, tx := range txs {
		builder = builder.Values(
			tx.ID, tx.UserID, tx.Date, tx.PurchaseDate, tx.CompetenceDate, tx.Description, tx.Amount,
			tx.Direction, tx.Bank, tx.CostCenter, categoryText(tx.AICategory), tx.AIConfidence, categoryText(tx.ManualCategory), tx.Tags,
			tx.Installment, tx.InstallmentNum, tx.InstallmentTot, tx.DueDate, tx.Processed, tx.CreatedAt, tx.UpdatedAt,
		)
	}

	sql, args, err := builder.ToSql()
	if err != nil {
		return &PersistenceError{Op: "building insert", Err: err}
	}

	dbTx, err := r.db.Begin(ctx)
	if err != nil {
		return &PersistenceError{Op: "begin", Err: err}
	}
	defer dbTx.Rollback(ctx)

	if _, err := dbTx.Exec(ctx, sql, args...); err != nil {
		return &PersistenceError{Op: "insert batch", Err: err}
	}
	if err := dbTx.Commit(ctx); err != nil {
		return &PersistenceError{Op: "commit", Err: err}
	}
	return nil
}

// ListKeyRange returns every stored (date, description, amount) triple for
// a user within the inclusive date range — one bounded query for the
// dedup check, not one per row.
func (r *TransactionRepository) ListKeyRange(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]KeyTriple, error) {
	query := squirrel.Select("date", "description", "amount").
		From("transactions").
		Where(squirrel.Eq{"user_id": userID}).
		Where(squirrel.GtOrEq{"date": from}).
		Where(squirrel.LtOrEq{"date": to}).
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

	var triples []KeyTriple
	for rows.Next() {
		var t KeyTriple
		if err := rows.Scan(&t.Date, &t.Description, &t.Amount); err != nil {
			return nil, err
		}
		triples = append(triples, t)
	}
	return triples, rows.Err()
}

// ListUnclassified returns the user's transactions without a manual
// category, newest first.
func (r *TransactionRepository) ListUnclassified(ctx context.Context, userID uuid.UUID, limit int) ([]*models.Transaction, error) {
	query := squirrel.Select(transactionColumns).
		From("transactions").
		Where(squirrel.Eq{"user_id": userID, "manual_category": nil}).
		OrderBy("date DESC").
		Limit(uint64(limit)).
		PlaceholderFormat(squirrel.Dollar)

	return r.list(ctx, query)
}

// ListByUser returns every transaction owned by the user, newest first.
func (r *TransactionRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Transaction, error) {
	query := squirrel.Select(transactionColumns).
		From("transactions").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("date DESC").
		PlaceholderFormat(squirrel.Dollar)

	return r.list(ctx, query)
}

// ListRecentManuallyClassified returns the most recent transactions that
// carry a manual category, used as training samples.
func (r *TransactionRepository) ListRecentManuallyClassified(ctx context.Context, userLimit int) ([]*models.Transaction, error) {
	query := squirrel.Select(transactionColumns).
		From("transactions").
		Where(squirrel.NotEq{"manual_category": nil}).
		OrderBy("updated_at DESC").
		Limit(uint64(userLimit)).
		PlaceholderFormat(squirrel.Dollar)

	return r.list(ctx, query)
}

// SetManualCategory assigns the manual category of one transaction. The
// manual assignment takes precedence over the AI one when reading.
func (r *TransactionRepository) SetManualCategory(ctx context.Context, userID, id uuid.UUID, category models.TransactionCategory) error {
	query := squirrel.Update("transactions").
		Set("manual_category", string(category)).
		Set("updated_at", time.Now()).
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

// Count returns total and manually-classified transaction counts.
func (r *TransactionRepository) Count(ctx context.Context, userID uuid.UUID) (total, manual int64, err error) {
	query := squirrel.Select("COUNT(*)", "COUNT(manual_category)").
		From("transactions").
		Where(squirrel.Eq{"user_id": userID}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return 0, 0, err
	}

	err = r.db.QueryRow(ctx, sql, args...).Scan(&total, &manual)
	return total, manual, err
}

// CategoryTotals aggregates amounts per effective category (manual wins
// over AI) since the given date.
func (r *TransactionRepository) CategoryTotals(ctx context.Context, userID uuid.UUID, since time.Time) ([]CategoryTotal, error) {
	query := squirrel.Select(
		"COALESCE(manual_category, ai_category, 'OTHER') AS category",
		"COALESCE(SUM(amount), 0)",
		"COUNT(*)").
		From("transactions").
		Where(squirrel.Eq{"user_id": userID}).
		Where(squirrel.GtOrEq{"date": since}).
		GroupBy("1").
		OrderBy("2 ASC").
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

	var totals []CategoryTotal
	for rows.Next() {
		var t CategoryTotal
		if err := rows.Scan(&t.Category, &t.Total, &t.Count); err != nil {
			return nil, err
		}
		totals = append(totals, t)
	}
	return totals, rows.Err()
}

// MonthlyTotals aggregates amounts per month since the given date.
func (r *TransactionRepository) MonthlyTotals(ctx context.Context, userID uuid.UUID, since time.Time) ([]MonthlyTotal, error) {
	query := squirrel.Select(
		"to_char(date, 'YYYY-MM') AS month",
		"COALESCE(SUM(amount), 0)",
		"COUNT(*)").
		From("transactions").
		Where(squirrel.Eq{"user_id": userID}).
		Where(squirrel.GtOrEq{"date": since}).
		GroupBy("1").
		OrderBy("1 ASC").
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

	var totals []MonthlyTotal
	for rows.Next() {
		var t MonthlyTotal
		if err := rows.Scan(&t.Month, &t.Total, &t.Count); err != nil {
			return nil, err
		}
		totals = append(totals, t)
	}
	return totals, rows.Err()
}

func (r *TransactionRepository) list(ctx context.Context, query squirrel.SelectBuilder) ([]*models.Transaction, error) {
	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txs []*models.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

func scanTransaction(row pgx.Row) (*models.Transaction, error) {
	var (
		tx        models.Transaction
		aiCat     *string
		manualCat *string
	)
	if err := row.Scan(
		&tx.ID, &tx.UserID, &tx.Date, &tx.PurchaseDate, &tx.CompetenceDate, &tx.Description, &tx.Amount,
		&tx.Direction, &tx.Bank, &tx.CostCenter, &aiCat, &tx.AIConfidence, &manualCat, &tx.Tags,
		&tx.Installment, &tx.InstallmentNum, &tx.InstallmentTot, &tx.DueDate, &tx.Processed, &tx.CreatedAt, &tx.UpdatedAt,
	); err != nil {
		return nil, err
	}
	tx.AICategory = categoryFromText(aiCat)
	tx.ManualCategory = categoryFromText(manualCat)
	return &tx, nil
}

func categoryText(c *models.TransactionCategory) *string {
	if c == nil {
		return nil
	}
	s := string(*c)
	return &s
}

func categoryFromText(s *string) *models.TransactionCategory {
	if s == nil {
		return nil
	}
	c := models.TransactionCategory(*s)
	return &c
}
