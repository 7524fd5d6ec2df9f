package tests

import (
	"context"
	"errors"
	"fmt"
	"time"

	"stockly/pkg/common/dates"
	"stockly/pkg/inventory/domain/model"
)

var today = dates.CalendarDate{Year: 2025, Month: time.June, Day: 10}

func fixedClock() dates.Clock {
	return dates.ClockFunc(func() time.Time {
		return time.Date(today.Year, today.Month, today.Day, 9, 30, 0, 0, time.UTC)
	})
}

func inDays(n int) *dates.CalendarDate {
	d := today.AddDays(n)
	return &d
}

type mockBatchRepository struct {
	products map[string]bool
	batches  map[string][]model.Batch
	finds    int
	applies  int
	failNext error
}

func newMockBatchRepository() *mockBatchRepository {
	return &mockBatchRepository{products: map[string]bool{}, batches: map[string][]model.Batch{}}
}

func (m *mockBatchRepository) add(productID string, batches ...model.Batch) {
	m.products[productID] = true
	for _, b := range batches {
		b.ProductID = productID
		m.batches[productID] = append(m.batches[productID], b)
	}
}

func (m *mockBatchRepository) quantities(productID string) map[string]int {
	out := map[string]int{}
	for _, b := range m.batches[productID] {
		out[b.ID] = b.Quantity
	}
	return out
}

func (m *mockBatchRepository) FindByProductID(_ context.Context, productID string) ([]model.Batch, error) {
	m.finds++
	if !m.products[productID] {
		return nil, model.ErrProductNotFound
	}
	clone := make([]model.Batch, len(m.batches[productID]))
	copy(clone, m.batches[productID])
	return clone, nil
}

func (m *mockBatchRepository) ApplyConsumption(_ context.Context, productID string, changes []model.BatchChange) error {
	m.applies++
	if m.failNext != nil {
		err := m.failNext
		m.failNext = nil
		return err
	}

	next := map[string]int{}
	for _, c := range changes {
		next[c.BatchID] = c.Quantity
	}
	kept := m.batches[productID][:0]
	for _, b := range m.batches[productID] {
		if q, ok := next[b.ID]; ok {
			b.Quantity = q
		}
		if b.Quantity > 0 {
			kept = append(kept, b)
		}
	}
	m.batches[productID] = kept
	return nil
}

func (m *mockBatchRepository) Receive(_ context.Context, batch model.Batch) error {
	if !m.products[batch.ProductID] {
		return model.ErrProductNotFound
	}
	m.batches[batch.ProductID] = append(m.batches[batch.ProductID], batch)
	return nil
}

func (m *mockBatchRepository) SetExpiry(_ context.Context, productID string, expiry *dates.CalendarDate) error {
	if !m.products[productID] {
		return model.ErrProductNotFound
	}
	for i := range m.batches[productID] {
		m.batches[productID][i].ExpiryDate = expiry
	}
	return nil
}

type mockProductRepository struct {
	store map[string]*model.Product
	seq   int
}

func newMockProductRepository(products ...model.Product) *mockProductRepository {
	m := &mockProductRepository{store: map[string]*model.Product{}}
	for _, p := range products {
		clone := p
		m.store[p.ID] = &clone
	}
	return m
}

func (m *mockProductRepository) NextID() (string, error) {
	m.seq++
	return fmt.Sprintf("product-%d", m.seq), nil
}

func (m *mockProductRepository) GetAll(context.Context) ([]model.Product, error) {
	out := make([]model.Product, 0, len(m.store))
	for _, p := range m.store {
		out = append(out, *p)
	}
	return out, nil
}

func (m *mockProductRepository) GetByID(_ context.Context, id string) (*model.Product, error) {
	if p, ok := m.store[id]; ok {
		clone := *p
		return &clone, nil
	}
	return nil, model.ErrProductNotFound
}

func (m *mockProductRepository) Create(_ context.Context, p *model.Product) error {
	clone := *p
	m.store[p.ID] = &clone
	return nil
}

func (m *mockProductRepository) Update(_ context.Context, p *model.Product) error {
	if _, ok := m.store[p.ID]; !ok {
		return model.ErrProductNotFound
	}
	clone := *p
	m.store[p.ID] = &clone
	return nil
}

func (m *mockProductRepository) Delete(_ context.Context, id string) error {
	if _, ok := m.store[id]; !ok {
		return model.ErrProductNotFound
	}
	delete(m.store, id)
	return nil
}

func (m *mockProductRepository) UpdateStock(_ context.Context, id string, newStock int) error {
	p, ok := m.store[id]
	if !ok {
		return model.ErrProductNotFound
	}
	if newStock < 0 {
		return model.ErrNegativeStock
	}
	p.CurrentStock = newStock
	return nil
}

type mockTemplateRepository struct {
	items []model.TemplateItem
}

func (m *mockTemplateRepository) GetAll(context.Context) ([]model.TemplateItem, error) {
	return append([]model.TemplateItem(nil), m.items...), nil
}

func (m *mockTemplateRepository) GetByProductID(_ context.Context, productID string) (*model.TemplateItem, error) {
	for _, t := range m.items {
		if t.ProductID == productID {
			clone := t
			return &clone, nil
		}
	}
	return nil, model.ErrTemplateNotFound
}

func (m *mockTemplateRepository) Upsert(_ context.Context, productID string, ideal int, priority model.Priority) (*model.TemplateItem, error) {
	for i := range m.items {
		if m.items[i].ProductID == productID {
			m.items[i].IdealQuantity = ideal
			m.items[i].Priority = priority
			clone := m.items[i]
			return &clone, nil
		}
	}
	t := model.TemplateItem{ID: "t-" + productID, ProductID: productID, IdealQuantity: ideal, Priority: priority}
	m.items = append(m.items, t)
	return &t, nil
}

func (m *mockTemplateRepository) DeleteByProductID(_ context.Context, productID string) error {
	kept := m.items[:0]
	for _, t := range m.items {
		if t.ProductID != productID {
			kept = append(kept, t)
		}
	}
	m.items = kept
	return nil
}

type mockSettingsRepository struct {
	values map[string]string
	reads  int
	err    error
}

func (m *mockSettingsRepository) Get(_ context.Context, key string) (string, bool, error) {
	m.reads++
	if m.err != nil {
		return "", false, m.err
	}
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *mockSettingsRepository) Set(_ context.Context, key, value string) error {
	if m.values == nil {
		m.values = map[string]string{}
	}
	m.values[key] = value
	return nil
}

var errStoreDown = errors.New("store unavailable")
