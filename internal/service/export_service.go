package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"grana/internal/dto"
	"grana/internal/models"
	"grana/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const backupVersion = 1

var exportHeader = []string{
	"date", "purchase_date", "description", "amount", "direction",
	"bank", "cost_center", "category", "tags", "installment",
}

// CategoryStore is the category persistence surface the backup flow
// needs. *repository.CategoryRepository satisfies it.
type CategoryStore interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Category, error)
	Create(ctx context.Context, category *models.Category) error
}

// ExportService renders a user's transactions as CSV, Excel or a JSON
// backup document, and restores backups through the regular duplicate
// detection.
type ExportService struct {
	txRepo     *repository.TransactionRepository
	categories CategoryStore
	ingest     *IngestService
	logger     *zap.Logger
}

func NewExportService(txRepo *repository.TransactionRepository, categories CategoryStore, ingest *IngestService, logger *zap.Logger) *ExportService {
	return &ExportService{
		txRepo:     txRepo,
		categories: categories,
		ingest:     ingest,
		logger:     logger,
	}
}

// ExportCSV renders every transaction of the user as a CSV document.
func (s *ExportService) ExportCSV(ctx context.Context, userID uuid.UUID) ([]byte, error) {
	txs, err := s.txRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(exportHeader); err != nil {
		return nil, err
	}
	for _, tx := range txs {
		if err := w.Write(exportRecord(tx)); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ExportExcel renders the user's transactions plus category and monthly
// summaries as an Excel workbook.
func (s *ExportService) ExportExcel(ctx context.Context, userID uuid.UUID, months int) ([]byte, error) {
	txs, err := s.txRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	since := time.Now().AddDate(0, -months, 0)
	categories, err := s.txRepo.CategoryTotals(ctx, userID, since)
	if err != nil {
		return nil, err
	}
	monthly, err := s.txRepo.MonthlyTotals(ctx, userID, since)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	const txSheet = "Transactions"
	f.SetSheetName(f.GetSheetName(0), txSheet)
	for col, title := range exportHeader {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		f.SetCellValue(txSheet, cell, title)
	}
	for row, tx := range txs {
		for col, value := range exportRecord(tx) {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(txSheet, cell, value)
		}
	}

	const catSheet = "Category Summary"
	if _, err := f.NewSheet(catSheet); err != nil {
		return nil, err
	}
	f.SetCellValue(catSheet, "A1", "category")
	f.SetCellValue(catSheet, "B1", "total")
	f.SetCellValue(catSheet, "C1", "count")
	for i, c := range categories {
		row := i + 2
		f.SetCellValue(catSheet, fmt.Sprintf("A%d", row), c.Category)
		f.SetCellValue(catSheet, fmt.Sprintf("B%d", row), c.Total.StringFixed(2))
		f.SetCellValue(catSheet, fmt.Sprintf("C%d", row), c.Count)
	}

	const monthSheet = "Monthly Summary"
	if _, err := f.NewSheet(monthSheet); err != nil {
		return nil, err
	}
	f.SetCellValue(monthSheet, "A1", "month")
	f.SetCellValue(monthSheet, "B1", "total")
	f.SetCellValue(monthSheet, "C1", "count")
	for i, m := range monthly {
		row := i + 2
		f.SetCellValue(monthSheet, fmt.Sprintf("A%d", row), m.Month)
		f.SetCellValue(monthSheet, fmt.Sprintf("B%d", row), m.Total.StringFixed(2))
		f.SetCellValue(monthSheet, fmt.Sprintf("C%d", row), m.Count)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ExportBackup produces the JSON backup document for one user:
// every transaction plus the user-defined categories.
func (s *ExportService) ExportBackup(ctx context.Context, userID uuid.UUID, username string) ([]byte, error) {
	txs, err := s.txRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	categories, err := s.categories.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	doc := dto.BackupDocument{
		Version:       backupVersion,
		ExportedAt:    time.Now(),
		Username:      username,
		Count:         len(txs),
		CategoryCount: len(categories),
		Transactions:  make([]dto.BackupTransaction, 0, len(txs)),
		Categories:    make([]dto.BackupCategory, 0, len(categories)),
	}
	for _, tx := range txs {
		doc.Transactions = append(doc.Transactions, toBackupTransaction(tx))
	}
	for _, cat := range categories {
		doc.Categories = append(doc.Categories, dto.BackupCategory{
			Name:     cat.Name,
			Type:     string(cat.Type),
			Keywords: cat.Keywords,
		})
	}

	return json.MarshalIndent(doc, "", "  ")
}

// RestoreBackup imports a JSON backup. Transaction rows already stored
// are skipped by the same natural-key dedup used for statement uploads;
// categories already present by name are skipped.
func (s *ExportService) RestoreBackup(ctx context.Context, userID uuid.UUID, data []byte) (*dto.RestoreResponse, error) {
	var doc dto.BackupDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("invalid backup document: %w", err)
	}
	if doc.Version != backupVersion {
		return nil, fmt.Errorf("unsupported backup version %d", doc.Version)
	}

	batch := make([]*models.Transaction, 0, len(doc.Transactions))
	now := time.Now()
	for i, bt := range doc.Transactions {
		amount, err := decimal.NewFromString(bt.Amount)
		if err != nil {
			return nil, fmt.Errorf("invalid amount in backup row %d: %w", i, err)
		}
		batch = append(batch, &models.Transaction{
			ID:             uuid.New(),
			UserID:         userID,
			Date:           bt.Date,
			PurchaseDate:   bt.PurchaseDate,
			CompetenceDate: bt.CompetenceDate,
			Description:    bt.Description,
			Amount:         amount,
			Direction:      models.Direction(bt.Direction),
			Bank:           bt.Bank,
			CostCenter:     bt.CostCenter,
			AICategory:     categoryPtr(bt.AICategory),
			AIConfidence:   bt.AIConfidence,
			ManualCategory: categoryPtr(bt.ManualCategory),
			Tags:           bt.Tags,
			Installment:    bt.Installment,
			InstallmentNum: bt.InstallmentNum,
			InstallmentTot: bt.InstallmentTot,
			DueDate:        bt.DueDate,
			Processed:      true,
			CreatedAt:      now,
			UpdatedAt:      now,
		})
	}

	saved, duplicates, err := s.ingest.SaveNew(ctx, userID, batch)
	if err != nil {
		return nil, err
	}

	catSaved, catSkipped, err := s.restoreCategories(ctx, userID, doc.Categories, now)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Backup restored",
		zap.Int("saved", saved),
		zap.Int("duplicates", duplicates),
		zap.Int("categories_saved", catSaved),
	)
	return &dto.RestoreResponse{
		Saved:             saved,
		Duplicates:        duplicates,
		CategoriesSaved:   catSaved,
		CategoriesSkipped: catSkipped,
	}, nil
}

func (s *ExportService) restoreCategories(ctx context.Context, userID uuid.UUID, categories []dto.BackupCategory, now time.Time) (saved, skipped int, err error) {
	if len(categories) == 0 {
		return 0, 0, nil
	}

	existing, err := s.categories.ListByUser(ctx, userID)
	if err != nil {
		return 0, 0, err
	}
	names := make(map[string]struct{}, len(existing))
	for _, cat := range existing {
		names[strings.ToLower(cat.Name)] = struct{}{}
	}

	for i, bc := range categories {
		name := strings.TrimSpace(bc.Name)
		if name == "" {
			return 0, 0, fmt.Errorf("empty category name in backup row %d", i)
		}
		catType := models.CategoryType(bc.Type)
		if !models.ValidCategoryType(catType) {
			return 0, 0, fmt.Errorf("invalid category type %q in backup row %d", bc.Type, i)
		}
		if _, dup := names[strings.ToLower(name)]; dup {
			skipped++
			continue
		}
		if err := s.categories.Create(ctx, &models.Category{
			ID:        uuid.New(),
			UserID:    userID,
			Name:      name,
			Type:      catType,
			Keywords:  bc.Keywords,
			CreatedAt: now,
			UpdatedAt: now,
		}); err != nil {
			return 0, 0, err
		}
		names[strings.ToLower(name)] = struct{}{}
		saved++
	}
	return saved, skipped, nil
}

func exportRecord(tx *models.Transaction) []string {
	installment := ""
	if tx.Installment {
		installment = "yes"
		if tx.InstallmentNum != nil && tx.InstallmentTot != nil {
			installment = fmt.Sprintf("%d/%d", *tx.InstallmentNum, *tx.InstallmentTot)
		}
	}
	return []string{
		tx.Date.Format("2006-01-02"),
		tx.PurchaseDate.Format("2006-01-02"),
		tx.Description,
		tx.Amount.StringFixed(2),
		string(tx.Direction),
		tx.Bank,
		tx.CostCenter,
		string(tx.Category()),
		tx.Tags,
		installment,
	}
}

func toBackupTransaction(tx *models.Transaction) dto.BackupTransaction {
	bt := dto.BackupTransaction{
		Date:           tx.Date,
		PurchaseDate:   tx.PurchaseDate,
		CompetenceDate: tx.CompetenceDate,
		Description:    tx.Description,
		Amount:         tx.Amount.StringFixed(2),
		Direction:      string(tx.Direction),
		Bank:           tx.Bank,
		CostCenter:     tx.CostCenter,
		AIConfidence:   tx.AIConfidence,
		Tags:           tx.Tags,
		Installment:    tx.Installment,
		InstallmentNum: tx.InstallmentNum,
		InstallmentTot: tx.InstallmentTot,
		DueDate:        tx.DueDate,
	}
	if tx.AICategory != nil {
		s := string(*tx.AICategory)
		bt.AICategory = &s
	}
	if tx.ManualCategory != nil {
		s := string(*tx.ManualCategory)
		bt.ManualCategory = &s
	}
	return bt
}

func categoryPtr(s *string) *models.TransactionCategory {
	if s == nil {
		return nil
	}
	c := models.TransactionCategory(*s)
	return &c
}
