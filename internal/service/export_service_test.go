package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"grana/internal/dto"
	"grana/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeCategoryStore struct {
	categories []*models.Category
}

func (f *fakeCategoryStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Category, error) {
	var out []*models.Category
	for _, c := range f.categories {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeCategoryStore) Create(ctx context.Context, category *models.Category) error {
	f.categories = append(f.categories, category)
	return nil
}

func backupDoc(t *testing.T) []byte {
	t.Helper()
	manual := "FOOD"
	doc := dto.BackupDocument{
		Version:       backupVersion,
		ExportedAt:    time.Now(),
		Username:      "tester",
		Count:         2,
		CategoryCount: 1,
		Transactions: []dto.BackupTransaction{
			{
				Date:           time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
				PurchaseDate:   time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
				CompetenceDate: time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
				Description:    "MERCADO CENTRAL",
				Amount:         "-89.90",
				Direction:      "DEBIT",
				Bank:           "itau",
				CostCenter:     "Checking Account",
				ManualCategory: &manual,
			},
			{
				Date:           time.Date(2024, 1, 12, 0, 0, 0, 0, time.UTC),
				PurchaseDate:   time.Date(2024, 1, 12, 0, 0, 0, 0, time.UTC),
				CompetenceDate: time.Date(2024, 1, 12, 0, 0, 0, 0, time.UTC),
				Description:    "PIX RECEBIDO",
				Amount:         "1234.56",
				Direction:      "CREDIT",
				Bank:           "itau",
				CostCenter:     "Transfer",
			},
		},
		Categories: []dto.BackupCategory{
			{Name: "Streaming", Type: "FIXED", Keywords: []string{"netflix", "spotify"}},
		},
	}
	data, err := json.Marshal(doc)
	require.NoError(t, err)
	return data
}

func TestRestoreBackup(t *testing.T) {
	store := &fakeStore{}
	cats := &fakeCategoryStore{}
	exporter := NewExportService(nil, cats, newTestIngest(store), zap.NewNop())
	userID := uuid.New()

	result, err := exporter.RestoreBackup(context.Background(), userID, backupDoc(t))
	require.NoError(t, err)
	assert.Equal(t, 2, result.Saved)
	assert.Zero(t, result.Duplicates)
	assert.Equal(t, 1, result.CategoriesSaved)
	assert.Zero(t, result.CategoriesSkipped)
	require.Len(t, store.saved, 2)
	assert.Equal(t, userID, store.saved[0].UserID)
	assert.True(t, store.saved[0].Processed)
	require.Len(t, cats.categories, 1)
	assert.Equal(t, "Streaming", cats.categories[0].Name)
	assert.Equal(t, models.CategoryTypeFixed, cats.categories[0].Type)
	assert.Equal(t, []string{"netflix", "spotify"}, cats.categories[0].Keywords)

	// A second restore of the same document only reports duplicates.
	result, err = exporter.RestoreBackup(context.Background(), userID, backupDoc(t))
	require.NoError(t, err)
	assert.Zero(t, result.Saved)
	assert.Equal(t, 2, result.Duplicates)
	assert.Zero(t, result.CategoriesSaved)
	assert.Equal(t, 1, result.CategoriesSkipped)
	assert.Len(t, cats.categories, 1)
}

func TestRestoreBackupInvalid(t *testing.T) {
	exporter := NewExportService(nil, &fakeCategoryStore{}, newTestIngest(&fakeStore{}), zap.NewNop())

	_, err := exporter.RestoreBackup(context.Background(), uuid.New(), []byte("{not json"))
	require.Error(t, err)

	wrongVersion := []byte(`{"version": 99, "transactions": []}`)
	_, err = exporter.RestoreBackup(context.Background(), uuid.New(), wrongVersion)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported backup version")

	badAmount := []byte(`{"version": 1, "transactions": [{"description": "X", "amount": "abc"}]}`)
	_, err = exporter.RestoreBackup(context.Background(), uuid.New(), badAmount)
	require.Error(t, err)

	badCategory := []byte(`{"version": 1, "categories": [{"name": "X", "type": "BOGUS"}]}`)
	_, err = exporter.RestoreBackup(context.Background(), uuid.New(), badCategory)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid category type")
}
