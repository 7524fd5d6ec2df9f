package service

import (
	"cmp"
	"context"
	"slices"

	"stockly/pkg/common/dates"
	"stockly/pkg/inventory/domain/model"
)

type ExpiryStatus int

const (
	NoDate ExpiryStatus = iota
	Expired
	Today
	Tomorrow
	Soon
	Fresh
)

func (s ExpiryStatus) String() string {
	switch s {
	case Expired:
		return "expired"
	case Today:
		return "today"
	case Tomorrow:
		return "tomorrow"
	case Soon:
		return "soon"
	case Fresh:
		return "fresh"
	default:
		return "no-date"
	}
}

// Collapsed folds Tomorrow into Soon for views without a separate tomorrow bucket.
func (s ExpiryStatus) Collapsed() ExpiryStatus {
	if s == Tomorrow {
		return Soon
	}
	return s
}

type ExpiryClassification struct {
	Status    ExpiryStatus
	DaysUntil int
	HasDate   bool
	// Alert is true for dated items with DaysUntil <= alert window, expired included.
	Alert bool
}

// ClassifyExpiry buckets an expiry date relative to today for alert window w.
func ClassifyExpiry(expiry *dates.CalendarDate, w int, today dates.CalendarDate) ExpiryClassification {
	if expiry == nil {
		return ExpiryClassification{Status: NoDate}
	}

	d := expiry.DaysSince(today)
	c := ExpiryClassification{DaysUntil: d, HasDate: true, Alert: d <= w}
	switch {
	case d < 0:
		c.Status = Expired
	case d == 0:
		c.Status = Today
	case d > w:
		c.Status = Fresh
	case d == 1:
		c.Status = Tomorrow
	default:
		c.Status = Soon
	}
	return c
}

type ExpiringProduct struct {
	Product        model.Product
	Classification ExpiryClassification
}

// ExpiryGroups splits a needs-attention list the way the expiry screen shows it.
// Each group keeps the urgency order of the input.
type ExpiryGroups struct {
	Expired  []ExpiringProduct
	Today    []ExpiringProduct
	Tomorrow []ExpiringProduct
	Soon     []ExpiringProduct
	NoDate   []ExpiringProduct
}

// GroupByStatus buckets items by status. With collapseTomorrow the Tomorrow
// group stays empty and its items land in Soon.
func GroupByStatus(items []ExpiringProduct, collapseTomorrow bool) ExpiryGroups {
	var g ExpiryGroups
	for _, item := range items {
		status := item.Classification.Status
		if collapseTomorrow {
			status = status.Collapsed()
		}
		switch status {
		case Expired:
			g.Expired = append(g.Expired, item)
		case Today:
			g.Today = append(g.Today, item)
		case Tomorrow:
			g.Tomorrow = append(g.Tomorrow, item)
		case Soon:
			g.Soon = append(g.Soon, item)
		case NoDate:
			g.NoDate = append(g.NoDate, item)
		}
	}
	return g
}

// NeedsAttention keeps products whose expiry is within the alert window and
// sorts them by days left. Undated products are appended last when requested.
func NeedsAttention(products []model.Product, w int, today dates.CalendarDate, includeUndated bool) []ExpiringProduct {
	items := make([]ExpiringProduct, 0, len(products))
	for _, p := range products {
		c := ClassifyExpiry(p.ExpiryDate, w, today)
		if c.Alert || (includeUndated && !c.HasDate) {
			items = append(items, ExpiringProduct{Product: p, Classification: c})
		}
	}
	SortByUrgency(items)
	return items
}

func SortByUrgency(items []ExpiringProduct) {
	slices.SortStableFunc(items, func(a, b ExpiringProduct) int {
		ca, cb := a.Classification, b.Classification
		if ca.HasDate != cb.HasDate {
			if ca.HasDate {
				return -1
			}
			return 1
		}
		if c := cmp.Compare(ca.DaysUntil, cb.DaysUntil); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Product.Name, b.Product.Name); c != 0 {
			return c
		}
		return cmp.Compare(a.Product.ID, b.Product.ID)
	})
}

type ExpiryClassifier interface {
	Classify(ctx context.Context, expiry *dates.CalendarDate) (ExpiryClassification, error)
	NeedsAttention(ctx context.Context, products []model.Product, includeUndated bool) ([]ExpiringProduct, error)
}

func NewExpiryClassifier(window AlertWindowProvider, clock dates.Clock) ExpiryClassifier {
	return &expiryClassifier{window: window, clock: clock}
}

type expiryClassifier struct {
	window AlertWindowProvider
	clock  dates.Clock
}

func (c *expiryClassifier) Classify(ctx context.Context, expiry *dates.CalendarDate) (ExpiryClassification, error) {
	w, err := c.window.AlertWindow(ctx)
	if err != nil {
		return ExpiryClassification{}, err
	}
	return ClassifyExpiry(expiry, w, dates.Today(c.clock)), nil
}

func (c *expiryClassifier) NeedsAttention(ctx context.Context, products []model.Product, includeUndated bool) ([]ExpiringProduct, error) {
	w, err := c.window.AlertWindow(ctx)
	if err != nil {
		return nil, err
	}
	return NeedsAttention(products, w, dates.Today(c.clock), includeUndated), nil
}
