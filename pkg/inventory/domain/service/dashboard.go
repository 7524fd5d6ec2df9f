package service

import (
	"context"

	"stockly/pkg/common/dates"
	"stockly/pkg/inventory/domain/model"
)

type DashboardStats struct {
	TotalProducts     int
	TotalItems        int
	ExpiringSoonCount int
	LowStockCount     int
	ExpiredCount      int
	AlertWindow       int
}

// SummarizeDashboard counts products expiring within w days (today included),
// expired products and templated products below their ideal quantity.
func SummarizeDashboard(products []model.Product, templates []model.TemplateItem, w int, today dates.CalendarDate) DashboardStats {
	stats := DashboardStats{TotalProducts: len(products), AlertWindow: w}

	for _, p := range products {
		stats.TotalItems += p.CurrentStock

		switch ClassifyExpiry(p.ExpiryDate, w, today).Status {
		case Expired:
			stats.ExpiredCount++
		case Today, Tomorrow, Soon:
			stats.ExpiringSoonCount++
		}
	}

	byID := indexProducts(products)
	for _, t := range templates {
		if p, ok := byID[t.ProductID]; ok && deficit(p, t) > 0 {
			stats.LowStockCount++
		}
	}
	return stats
}

type DashboardAggregator interface {
	Stats(ctx context.Context) (*DashboardStats, error)
}

func NewDashboardAggregator(
	products model.ProductRepository,
	templates model.TemplateRepository,
	window AlertWindowProvider,
	clock dates.Clock,
) DashboardAggregator {
	return &dashboardAggregator{products: products, templates: templates, window: window, clock: clock}
}

type dashboardAggregator struct {
	products  model.ProductRepository
	templates model.TemplateRepository
	window    AlertWindowProvider
	clock     dates.Clock
}

func (a *dashboardAggregator) Stats(ctx context.Context) (*DashboardStats, error) {
	w, err := a.window.AlertWindow(ctx)
	if err != nil {
		return nil, err
	}
	products, err := a.products.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	templates, err := a.templates.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	stats := SummarizeDashboard(products, templates, w, dates.Today(a.clock))
	return &stats, nil
}
