package service

import (
	"context"
	"fmt"
	"time"

	"grana/internal/classifier"
	"grana/internal/dto"
	"grana/internal/models"
	"grana/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type CategoryService struct {
	repo     *repository.CategoryRepository
	keywords *classifier.KeywordStrategy
	bayes    *classifier.BayesStrategy
	logger   *zap.Logger
}

func NewCategoryService(repo *repository.CategoryRepository, keywords *classifier.KeywordStrategy, bayes *classifier.BayesStrategy, logger *zap.Logger) *CategoryService {
	return &CategoryService{
		repo:     repo,
		keywords: keywords,
		bayes:    bayes,
		logger:   logger,
	}
}

func (s *CategoryService) Create(ctx context.Context, userID uuid.UUID, req *dto.CategoryRequest) (*dto.CategoryResponse, error) {
	catType := models.CategoryType(req.Type)
	if !models.ValidCategoryType(catType) {
		return nil, fmt.Errorf("unknown category type %q", req.Type)
	}

	now := time.Now()
	category := &models.Category{
		ID:        uuid.New(),
		UserID:    userID,
		Name:      req.Name,
		Type:      catType,
		Keywords:  req.Keywords,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, category); err != nil {
		return nil, err
	}

	resp := toCategoryResponse(category)
	return &resp, nil
}

func (s *CategoryService) List(ctx context.Context, userID uuid.UUID) ([]dto.CategoryResponse, error) {
	categories, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]dto.CategoryResponse, 0, len(categories))
	for _, c := range categories {
		out = append(out, toCategoryResponse(c))
	}
	return out, nil
}

func (s *CategoryService) Update(ctx context.Context, userID, id uuid.UUID, req *dto.CategoryRequest) (*dto.CategoryResponse, error) {
	catType := models.CategoryType(req.Type)
	if !models.ValidCategoryType(catType) {
		return nil, fmt.Errorf("unknown category type %q", req.Type)
	}

	category, err := s.repo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	category.Name = req.Name
	category.Type = catType
	category.Keywords = req.Keywords
	if err := s.repo.Update(ctx, category); err != nil {
		return nil, err
	}

	resp := toCategoryResponse(category)
	return &resp, nil
}

func (s *CategoryService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	return s.repo.Delete(ctx, userID, id)
}

// AddKeyword extends the built-in keyword list of one spending category
// and schedules a retrain of the trained classifier.
func (s *CategoryService) AddKeyword(ctx context.Context, req *dto.AddKeywordRequest) error {
	category := models.TransactionCategory(req.Category)
	if !models.ValidCategory(category) {
		return fmt.Errorf("unknown category %q", req.Category)
	}

	if !s.keywords.AddKeyword(category, req.Keyword) {
		return fmt.Errorf("keyword %q already present or empty", req.Keyword)
	}
	if s.bayes != nil {
		s.bayes.MarkDirty()
	}
	s.logger.Info("Keyword added",
		zap.String("category", req.Category),
		zap.String("keyword", req.Keyword),
	)
	return nil
}

func toCategoryResponse(c *models.Category) dto.CategoryResponse {
	return dto.CategoryResponse{
		ID:        c.ID.String(),
		Name:      c.Name,
		Type:      string(c.Type),
		Keywords:  c.Keywords,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}
