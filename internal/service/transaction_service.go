package service

import (
	"context"
	"fmt"

	"grana/internal/classifier"
	"grana/internal/dto"
	"grana/internal/models"
	"grana/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const unclassifiedPageSize = 50

type TransactionService struct {
	txRepo    *repository.TransactionRepository
	cacheRepo *repository.CacheRepository
	bayes     *classifier.BayesStrategy
	logger    *zap.Logger
}

func NewTransactionService(txRepo *repository.TransactionRepository, cacheRepo *repository.CacheRepository, bayes *classifier.BayesStrategy, logger *zap.Logger) *TransactionService {
	return &TransactionService{
		txRepo:    txRepo,
		cacheRepo: cacheRepo,
		bayes:     bayes,
		logger:    logger,
	}
}

// ListUnclassified returns transactions still waiting for a manual
// category, newest first.
func (s *TransactionService) ListUnclassified(ctx context.Context, userID uuid.UUID) ([]dto.TransactionResponse, error) {
	txs, err := s.txRepo.ListUnclassified(ctx, userID, unclassifiedPageSize)
	if err != nil {
		return nil, err
	}
	return toTransactionResponses(txs), nil
}

// SetManualCategory records a manual category for one transaction. The
// trained classifier is marked stale so the new label joins its corpus.
func (s *TransactionService) SetManualCategory(ctx context.Context, userID, id uuid.UUID, category string) error {
	cat := models.TransactionCategory(category)
	if !models.ValidCategory(cat) {
		return fmt.Errorf("unknown category %q", category)
	}

	if err := s.txRepo.SetManualCategory(ctx, userID, id, cat); err != nil {
		return err
	}
	if s.bayes != nil {
		s.bayes.MarkDirty()
	}
	return nil
}

func (s *TransactionService) Stats(ctx context.Context, userID uuid.UUID) (*dto.TransactionStatsResponse, error) {
	total, manual, err := s.txRepo.Count(ctx, userID)
	if err != nil {
		return nil, err
	}

	cached, err := s.cacheRepo.Count(ctx)
	if err != nil {
		s.logger.Warn("Failed to count classification cache", zap.Error(err))
		cached = 0
	}

	return &dto.TransactionStatsResponse{
		Total:            total,
		ManualClassified: manual,
		CachedAssigns:    cached,
	}, nil
}

func toTransactionResponses(txs []*models.Transaction) []dto.TransactionResponse {
	out := make([]dto.TransactionResponse, 0, len(txs))
	for _, tx := range txs {
		out = append(out, toTransactionResponse(tx))
	}
	return out
}

func toTransactionResponse(tx *models.Transaction) dto.TransactionResponse {
	resp := dto.TransactionResponse{
		ID:             tx.ID.String(),
		Date:           tx.Date,
		PurchaseDate:   tx.PurchaseDate,
		CompetenceDate: tx.CompetenceDate,
		Description:    tx.Description,
		Amount:         tx.Amount.StringFixed(2),
		Direction:      string(tx.Direction),
		Bank:           tx.Bank,
		CostCenter:     tx.CostCenter,
		Category:       string(tx.Category()),
		AIConfidence:   tx.AIConfidence,
		Tags:           tx.Tags,
		Installment:    tx.Installment,
		InstallmentNum: tx.InstallmentNum,
		InstallmentTot: tx.InstallmentTot,
		DueDate:        tx.DueDate,
	}
	if tx.AICategory != nil {
		s := string(*tx.AICategory)
		resp.AICategory = &s
	}
	if tx.ManualCategory != nil {
		s := string(*tx.ManualCategory)
		resp.ManualCategory = &s
	}
	return resp
}
