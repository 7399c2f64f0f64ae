package service

import (
	"context"
	"fmt"
	"time"

	"grana/internal/classifier"
	"grana/internal/dto"
	"grana/internal/models"
	"grana/internal/normalize"
	"grana/internal/parser"
	"grana/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TransactionStore is the persistence surface the ingestion pipeline
// needs: an atomic batch write and the key-range read behind duplicate
// detection.
type TransactionStore interface {
	SaveBatch(ctx context.Context, txs []*models.Transaction) error
	ListKeyRange(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]repository.KeyTriple, error)
}

// UploadFile is one statement file received from the upload endpoint.
type UploadFile struct {
	Name string
	Data []byte
}

// IngestService runs the statement pipeline: parse, normalize, classify,
// deduplicate, persist. Files are processed independently; one broken
// file never discards the others.
type IngestService struct {
	store           TransactionStore
	strategies      map[string]classifier.Strategy
	defaultStrategy string
	logger          *zap.Logger
}

func NewIngestService(store TransactionStore, strategies map[string]classifier.Strategy, defaultStrategy string, logger *zap.Logger) *IngestService {
	return &IngestService{
		store:           store,
		strategies:      strategies,
		defaultStrategy: defaultStrategy,
		logger:          logger,
	}
}

// Strategies lists the names of the available classification strategies.
func (s *IngestService) Strategies() []string {
	names := make([]string, 0, len(s.strategies))
	for name := range s.strategies {
		names = append(names, name)
	}
	return names
}

// ProcessFiles ingests a set of uploaded statement files for one user.
// The returned response carries a per-file result; a parse or persistence
// failure is reported on that file alone. The error return is reserved
// for invalid requests, such as an unknown strategy.
func (s *IngestService) ProcessFiles(ctx context.Context, userID uuid.UUID, bank, strategyName string, files []UploadFile) (*dto.UploadResponse, error) {
	strategy, err := s.strategyFor(strategyName)
	if err != nil {
		return nil, err
	}

	resp := &dto.UploadResponse{Files: make([]dto.FileResult, 0, len(files))}
	for _, file := range files {
		result := s.processFile(ctx, userID, bank, strategy, file)
		resp.Files = append(resp.Files, result)
		resp.Saved += result.Saved
		resp.Duplicates += result.Duplicates
		resp.Total += result.Total
	}
	return resp, nil
}

func (s *IngestService) processFile(ctx context.Context, userID uuid.UUID, bank string, strategy classifier.Strategy, file UploadFile) dto.FileResult {
	result := dto.FileResult{File: file.Name}

	raws, err := parser.Parse(file.Name, file.Data)
	if err != nil {
		s.logger.Warn("Statement parse failed",
			zap.String("file", file.Name),
			zap.Error(err),
		)
		result.Error = err.Error()
		return result
	}
	for i := range raws {
		raws[i].Description = sanitizeUTF8(raws[i].Description)
	}

	batch := normalize.Batch(raws, userID, bank)
	result.Total = len(batch)
	if len(batch) == 0 {
		return result
	}

	if _, err := strategy.Classify(ctx, batch); err != nil {
		// Unresolved transactions already defaulted to OTHER; surface the
		// degradation without failing the file.
		s.logger.Warn("Classification degraded",
			zap.String("file", file.Name),
			zap.String("strategy", strategy.Name()),
			zap.Error(err),
		)
		result.Warning = fmt.Sprintf("classification incomplete: %v", err)
	}
	for _, tx := range batch {
		tx.Processed = true
	}

	saved, duplicates, err := s.SaveNew(ctx, userID, batch)
	if err != nil {
		s.logger.Error("Statement persistence failed",
			zap.String("file", file.Name),
			zap.Error(err),
		)
		result.Error = err.Error()
		return result
	}

	result.Saved = saved
	result.Duplicates = duplicates
	s.logger.Info("Statement processed",
		zap.String("file", file.Name),
		zap.Int("saved", saved),
		zap.Int("duplicates", duplicates),
		zap.Int("total", result.Total),
	)
	return result
}

// SaveNew persists the transactions of one batch that are not already
// stored, comparing on the (date, description, amount) natural key. The
// lookup is bounded to the batch's own date range. Returns how many rows
// were saved and how many were duplicates.
func (s *IngestService) SaveNew(ctx context.Context, userID uuid.UUID, batch []*models.Transaction) (saved, duplicates int, err error) {
	if len(batch) == 0 {
		return 0, 0, nil
	}

	from, to := batch[0].Date, batch[0].Date
	for _, tx := range batch[1:] {
		if tx.Date.Before(from) {
			from = tx.Date
		}
		if tx.Date.After(to) {
			to = tx.Date
		}
	}

	triples, err := s.store.ListKeyRange(ctx, userID, from, to)
	if err != nil {
		return 0, 0, err
	}
	existing := make(map[string]struct{}, len(triples))
	for _, t := range triples {
		existing[normalize.Key(t.Date, t.Description, t.Amount)] = struct{}{}
	}

	fresh := make([]*models.Transaction, 0, len(batch))
	for _, tx := range batch {
		key := normalize.Key(tx.Date, tx.Description, tx.Amount)
		if _, dup := existing[key]; dup {
			continue
		}
		existing[key] = struct{}{}
		fresh = append(fresh, tx)
	}

	if err := s.store.SaveBatch(ctx, fresh); err != nil {
		return 0, 0, err
	}
	return len(fresh), len(batch) - len(fresh), nil
}

func (s *IngestService) strategyFor(name string) (classifier.Strategy, error) {
	if name == "" {
		name = s.defaultStrategy
	}
	strategy, ok := s.strategies[name]
	if !ok {
		return nil, fmt.Errorf("unknown classification strategy %q", name)
	}
	return strategy, nil
}

// ManualSampleSource adapts stored manually-classified transactions into
// training samples for the trained classifier.
type ManualSampleSource struct {
	repo *repository.TransactionRepository
}

func NewManualSampleSource(repo *repository.TransactionRepository) *ManualSampleSource {
	return &ManualSampleSource{repo: repo}
}

func (s *ManualSampleSource) RecentManualSamples(ctx context.Context, limit int) ([]classifier.Sample, error) {
	txs, err := s.repo.ListRecentManuallyClassified(ctx, limit)
	if err != nil {
		return nil, err
	}

	samples := make([]classifier.Sample, 0, len(txs))
	for _, tx := range txs {
		if tx.ManualCategory == nil {
			continue
		}
		samples = append(samples, classifier.Sample{
			Description: tx.Description,
			Category:    *tx.ManualCategory,
		})
	}
	return samples, nil
}
