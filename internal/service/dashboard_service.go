package service

import (
	"context"
	"time"

	"grana/internal/dto"
	"grana/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const defaultDashboardMonths = 12

type DashboardService struct {
	txRepo *repository.TransactionRepository
	logger *zap.Logger
}

func NewDashboardService(txRepo *repository.TransactionRepository, logger *zap.Logger) *DashboardService {
	return &DashboardService{
		txRepo: txRepo,
		logger: logger,
	}
}

// Overview aggregates the user's transactions over the trailing window:
// income/expense totals plus per-category and per-month breakdowns.
func (s *DashboardService) Overview(ctx context.Context, userID uuid.UUID, months int) (*dto.DashboardResponse, error) {
	if months <= 0 {
		months = defaultDashboardMonths
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

	var income, expenses decimal.Decimal
	catResp := make([]dto.CategoryTotalResponse, 0, len(categories))
	for _, c := range categories {
		catResp = append(catResp, dto.CategoryTotalResponse{
			Category: c.Category,
			Total:    c.Total.StringFixed(2),
			Count:    c.Count,
		})
		if c.Total.IsPositive() {
			income = income.Add(c.Total)
		} else {
			expenses = expenses.Add(c.Total)
		}
	}

	monthResp := make([]dto.MonthlyTotalResponse, 0, len(monthly))
	for _, m := range monthly {
		monthResp = append(monthResp, dto.MonthlyTotalResponse{
			Month: m.Month,
			Total: m.Total.StringFixed(2),
			Count: m.Count,
		})
	}

	return &dto.DashboardResponse{
		Since:      since.Format("2006-01-02"),
		Income:     income.StringFixed(2),
		Expenses:   expenses.Abs().StringFixed(2),
		Balance:    income.Add(expenses).StringFixed(2),
		Categories: catResp,
		Months:     monthResp,
	}, nil
}
