package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"grana/internal/classifier"
	"grana/internal/models"
	"grana/internal/normalize"
	"grana/internal/parser"
	"grana/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeStore struct {
	saved    []*models.Transaction
	saveErr  error
	listErr  error
	listZone *time.Location
	queries  int
}

func (f *fakeStore) SaveBatch(ctx context.Context, txs []*models.Transaction) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = append(f.saved, txs...)
	return nil
}

func (f *fakeStore) ListKeyRange(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]repository.KeyTriple, error) {
	f.queries++
	if f.listErr != nil {
		return nil, f.listErr
	}
	var triples []repository.KeyTriple
	for _, tx := range f.saved {
		if tx.UserID != userID || tx.Date.Before(from) || tx.Date.After(to) {
			continue
		}
		date := tx.Date
		if f.listZone != nil {
			date = date.In(f.listZone)
		}
		triples = append(triples, repository.KeyTriple{
			Date:        date,
			Description: tx.Description,
			Amount:      tx.Amount,
		})
	}
	return triples, nil
}

func newTestIngest(store TransactionStore) *IngestService {
	keyword := classifier.NewKeywordStrategy()
	strategies := map[string]classifier.Strategy{keyword.Name(): keyword}
	return NewIngestService(store, strategies, keyword.Name(), zap.NewNop())
}

const statementCSV = "Data;Descrição;Valor\n" +
	"10/01/2024;MERCADO CENTRAL;-89,90\n" +
	"12/01/2024;UBER TRIP;-23,50\n" +
	"12/01/2024;UBER TRIP;-23,50\n"

func TestProcessFilesSavesAndClassifies(t *testing.T) {
	store := &fakeStore{}
	s := newTestIngest(store)
	userID := uuid.New()

	resp, err := s.ProcessFiles(context.Background(), userID, "itau", "", []UploadFile{
		{Name: "extrato.csv", Data: []byte(statementCSV)},
	})
	require.NoError(t, err)
	require.Len(t, resp.Files, 1)

	// Intra-file duplicate collapses before persistence.
	assert.Equal(t, 2, resp.Files[0].Total)
	assert.Equal(t, 2, resp.Files[0].Saved)
	assert.Equal(t, 0, resp.Files[0].Duplicates)
	assert.Empty(t, resp.Files[0].Error)
	require.Len(t, store.saved, 2)

	for _, tx := range store.saved {
		assert.Equal(t, userID, tx.UserID)
		assert.Equal(t, "itau", tx.Bank)
		assert.True(t, tx.Processed)
		require.NotNil(t, tx.AICategory)
	}
}

func TestProcessFilesIdempotentReupload(t *testing.T) {
	store := &fakeStore{}
	s := newTestIngest(store)
	userID := uuid.New()
	file := UploadFile{Name: "extrato.csv", Data: []byte(statementCSV)}

	_, err := s.ProcessFiles(context.Background(), userID, "itau", "", []UploadFile{file})
	require.NoError(t, err)

	resp, err := s.ProcessFiles(context.Background(), userID, "itau", "", []UploadFile{file})
	require.NoError(t, err)

	assert.Equal(t, 0, resp.Saved)
	assert.Equal(t, 2, resp.Duplicates)
	assert.Len(t, store.saved, 2)
}

func TestProcessFilesIdempotentAcrossTimezones(t *testing.T) {
	// Timestamps scanned back from TIMESTAMPTZ columns carry the database
	// session zone, not the zone they were written in.
	store := &fakeStore{listZone: time.FixedZone("BRT", -3*60*60)}
	s := newTestIngest(store)
	userID := uuid.New()
	file := UploadFile{Name: "extrato.csv", Data: []byte(statementCSV)}

	_, err := s.ProcessFiles(context.Background(), userID, "itau", "", []UploadFile{file})
	require.NoError(t, err)

	resp, err := s.ProcessFiles(context.Background(), userID, "itau", "", []UploadFile{file})
	require.NoError(t, err)
	assert.Zero(t, resp.Saved)
	assert.Equal(t, 2, resp.Duplicates)
	assert.Len(t, store.saved, 2)
}

func TestProcessFilesIsolatesBrokenFile(t *testing.T) {
	store := &fakeStore{}
	s := newTestIngest(store)

	resp, err := s.ProcessFiles(context.Background(), uuid.New(), "itau", "", []UploadFile{
		{Name: "broken.csv", Data: []byte("Data;Valor\n10/01/2024;-1,00\n")},
		{Name: "extrato.csv", Data: []byte(statementCSV)},
	})
	require.NoError(t, err)
	require.Len(t, resp.Files, 2)

	assert.NotEmpty(t, resp.Files[0].Error)
	assert.Zero(t, resp.Files[0].Saved)
	assert.Empty(t, resp.Files[1].Error)
	assert.Equal(t, 2, resp.Files[1].Saved)
	assert.Equal(t, 2, resp.Saved)
}

func TestProcessFilesUnknownStrategy(t *testing.T) {
	s := newTestIngest(&fakeStore{})

	_, err := s.ProcessFiles(context.Background(), uuid.New(), "itau", "nope", []UploadFile{
		{Name: "extrato.csv", Data: []byte(statementCSV)},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown classification strategy")
}

func TestProcessFilesPersistenceFailure(t *testing.T) {
	store := &fakeStore{saveErr: &repository.PersistenceError{Op: "insert batch", Err: errors.New("boom")}}
	s := newTestIngest(store)

	resp, err := s.ProcessFiles(context.Background(), uuid.New(), "itau", "", []UploadFile{
		{Name: "extrato.csv", Data: []byte(statementCSV)},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Files[0].Error)
	assert.Zero(t, resp.Saved)
}

func TestSaveNewEmptyBatch(t *testing.T) {
	store := &fakeStore{}
	s := newTestIngest(store)

	saved, duplicates, err := s.SaveNew(context.Background(), uuid.New(), nil)
	require.NoError(t, err)
	assert.Zero(t, saved)
	assert.Zero(t, duplicates)
	assert.Zero(t, store.queries)
}

func TestSaveNewScopedToUser(t *testing.T) {
	store := &fakeStore{}
	s := newTestIngest(store)
	userA := uuid.New()
	userB := uuid.New()

	mk := func(userID uuid.UUID) []*models.Transaction {
		raws, err := normalizeCSV(statementCSV, userID)
		require.NoError(t, err)
		return raws
	}

	savedA, _, err := s.SaveNew(context.Background(), userA, mk(userA))
	require.NoError(t, err)
	assert.Equal(t, 2, savedA)

	// The same rows for another user are not duplicates.
	savedB, dupB, err := s.SaveNew(context.Background(), userB, mk(userB))
	require.NoError(t, err)
	assert.Equal(t, 2, savedB)
	assert.Zero(t, dupB)
}

func normalizeCSV(data string, userID uuid.UUID) ([]*models.Transaction, error) {
	raws, err := parser.ParseCSV([]byte(data))
	if err != nil {
		return nil, err
	}
	return normalize.Batch(raws, userID, "itau"), nil
}
