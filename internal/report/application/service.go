package application

import (
	"context"
	"log/slog"
	"time"
)

type Period string

const (
	Daily   Period = "daily"
	Weekly  Period = "weekly"
	Monthly Period = "monthly"
)

// RangeFor maps a reporting period onto [start of period, now], UTC.
// Unknown periods fall back to daily, matching lenient query handling.
func RangeFor(period Period, now time.Time) (time.Time, time.Time) {
	now = now.UTC()
	var start time.Time
	switch period {
	case Weekly:
		// Week starts on Sunday.
		day := now.AddDate(0, 0, -int(now.Weekday()))
		start = time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	case Monthly:
		start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	default:
		start = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	}
	return start, now
}

type SalesReport struct {
	Period            Period            `json:"period"`
	SalesByProduct    []ProductSales    `json:"salesByProduct"`
	RevenueByCategory []CategoryRevenue `json:"revenueByCategory"`
}

type Service struct {
	log  *slog.Logger
	repo ReportRepository
}

func NewService(log *slog.Logger, repo ReportRepository) *Service {
	return &Service{log: log, repo: repo}
}

func (s *Service) Sales(ctx context.Context, period Period) (SalesReport, error) {
	start, end := RangeFor(period, time.Now())

	byProduct, err := s.repo.SalesByProduct(ctx, start, end)
	if err != nil {
		return SalesReport{}, err
	}
	byCategory, err := s.repo.RevenueByCategory(ctx, start, end)
	if err != nil {
		return SalesReport{}, err
	}
	if byProduct == nil {
		byProduct = []ProductSales{}
	}
	if byCategory == nil {
		byCategory = []CategoryRevenue{}
	}
	return SalesReport{
		Period:            period,
		SalesByProduct:    byProduct,
		RevenueByCategory: byCategory,
	}, nil
}
