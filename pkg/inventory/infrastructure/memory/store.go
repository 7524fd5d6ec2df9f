// Package memory keeps the inventory in process memory. It backs the
// STOCKLY_STORE=memory mode and the application tests.
package memory

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"

	"stockly/pkg/common/dates"
	"stockly/pkg/inventory/domain/model"
)

type Store struct {
	mu        sync.Mutex
	clock     dates.Clock
	products  map[string]model.Product
	templates map[string]model.TemplateItem // keyed by product id
	batches   map[string][]model.Batch      // keyed by product id
	settings  map[string]string
	movements []model.StockMovement
}

func NewStore(clock dates.Clock) *Store {
	return &Store{
		clock:     clock,
		products:  make(map[string]model.Product),
		templates: make(map[string]model.TemplateItem),
		batches:   make(map[string][]model.Batch),
		settings:  make(map[string]string),
	}
}

func (s *Store) Products() model.ProductRepository   { return productRepository{s} }
func (s *Store) Templates() model.TemplateRepository { return templateRepository{s} }
func (s *Store) Batches() model.BatchRepository      { return batchRepository{s} }
func (s *Store) Settings() model.SettingsRepository  { return settingsRepository{s} }
func (s *Store) Movements() model.MovementRepository { return movementRepository{s} }

type productRepository struct{ s *Store }

func (r productRepository) NextID() (string, error) { return uuid.NewString(), nil }

func (r productRepository) GetAll(_ context.Context) ([]model.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	products := make([]model.Product, 0, len(r.s.products))
	for _, p := range r.s.products {
		products = append(products, cloneProduct(p))
	}
	slices.SortFunc(products, func(a, b model.Product) int {
		if c := cmp.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return products, nil
}

func (r productRepository) GetByID(_ context.Context, id string) (*model.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.products[id]
	if !ok {
		return nil, model.ErrProductNotFound
	}
	clone := cloneProduct(p)
	return &clone, nil
}

func (r productRepository) Create(_ context.Context, product *model.Product) error {
	if product.CurrentStock < 0 {
		return model.ErrNegativeStock
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.products[product.ID] = cloneProduct(*product)
	return nil
}

func (r productRepository) Update(_ context.Context, product *model.Product) error {
	if product.CurrentStock < 0 {
		return model.ErrNegativeStock
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.products[product.ID]; !ok {
		return model.ErrProductNotFound
	}
	r.s.products[product.ID] = cloneProduct(*product)
	return nil
}

// Delete removes the product together with its template item and batches.
func (r productRepository) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.products[id]; !ok {
		return model.ErrProductNotFound
	}
	delete(r.s.products, id)
	delete(r.s.templates, id)
	delete(r.s.batches, id)
	return nil
}

func (r productRepository) UpdateStock(_ context.Context, id string, newStock int) error {
	if newStock < 0 {
		return model.ErrNegativeStock
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.products[id]
	if !ok {
		return model.ErrProductNotFound
	}
	p.CurrentStock = newStock
	p.UpdatedAt = r.s.clock.Now()
	r.s.products[id] = p
	return nil
}

type templateRepository struct{ s *Store }

func (r templateRepository) GetAll(_ context.Context) ([]model.TemplateItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	items := make([]model.TemplateItem, 0, len(r.s.templates))
	for _, t := range r.s.templates {
		items = append(items, t)
	}
	slices.SortFunc(items, func(a, b model.TemplateItem) int { return cmp.Compare(a.ProductID, b.ProductID) })
	return items, nil
}

func (r templateRepository) GetByProductID(_ context.Context, productID string) (*model.TemplateItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	t, ok := r.s.templates[productID]
	if !ok {
		return nil, model.ErrTemplateNotFound
	}
	return &t, nil
}

func (r templateRepository) Upsert(_ context.Context, productID string, idealQuantity int, priority model.Priority) (*model.TemplateItem, error) {
	if idealQuantity < 0 {
		return nil, model.ErrNegativeIdealQuantity
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.products[productID]; !ok {
		return nil, model.ErrProductNotFound
	}

	now := r.s.clock.Now()
	t, ok := r.s.templates[productID]
	if !ok {
		t = model.TemplateItem{ID: uuid.NewString(), ProductID: productID, CreatedAt: now}
	}
	t.IdealQuantity = idealQuantity
	t.Priority = priority
	t.UpdatedAt = now
	r.s.templates[productID] = t
	return &t, nil
}

func (r templateRepository) DeleteByProductID(_ context.Context, productID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.templates[productID]; !ok {
		return model.ErrTemplateNotFound
	}
	delete(r.s.templates, productID)
	return nil
}

// batchRepository keeps each product's currentStock and expiryDate in line
// with its batches after every change.
type batchRepository struct{ s *Store }

func (r batchRepository) FindByProductID(_ context.Context, productID string) ([]model.Batch, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.products[productID]; !ok {
		return nil, model.ErrProductNotFound
	}
	return slices.Clone(r.s.batches[productID]), nil
}

func (r batchRepository) ApplyConsumption(_ context.Context, productID string, changes []model.BatchChange) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.products[productID]; !ok {
		return model.ErrProductNotFound
	}

	batches := slices.Clone(r.s.batches[productID])
	for _, change := range changes {
		if change.Quantity < 0 {
			return model.ErrNegativeStock
		}
		i := slices.IndexFunc(batches, func(b model.Batch) bool { return b.ID == change.BatchID })
		if i < 0 {
			return model.ErrInsufficientStock
		}
		batches[i].Quantity = change.Quantity
	}
	batches = slices.DeleteFunc(batches, func(b model.Batch) bool { return b.Quantity == 0 })

	r.s.batches[productID] = batches
	r.s.syncProduct(productID)
	return nil
}

func (r batchRepository) Receive(_ context.Context, batch model.Batch) error {
	if batch.Quantity <= 0 {
		return model.ErrInvalidQuantity
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.products[batch.ProductID]
	if !ok {
		return model.ErrProductNotFound
	}
	if err := model.CheckStockAddition(p.CurrentStock, batch.Quantity); err != nil {
		return err
	}
	if batch.ExpiryDate == nil && len(r.s.batches[batch.ProductID]) == 0 {
		batch.ExpiryDate = cloneDate(p.ExpiryDate)
	}
	if batch.ID == "" {
		batch.ID = uuid.NewString()
	}
	if batch.CreatedAt.IsZero() {
		batch.CreatedAt = r.s.clock.Now()
	}

	r.s.batches[batch.ProductID] = append(r.s.batches[batch.ProductID], batch)
	r.s.syncProduct(batch.ProductID)
	return nil
}

func (r batchRepository) SetExpiry(_ context.Context, productID string, expiry *dates.CalendarDate) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.products[productID]
	if !ok {
		return model.ErrProductNotFound
	}
	batches := r.s.batches[productID]
	if len(batches) == 0 {
		p.ExpiryDate = cloneDate(expiry)
		p.UpdatedAt = r.s.clock.Now()
		r.s.products[productID] = p
		return nil
	}
	for i := range batches {
		batches[i].ExpiryDate = cloneDate(expiry)
	}
	r.s.syncProduct(productID)
	return nil
}

// syncProduct must be called with mu held.
func (s *Store) syncProduct(productID string) {
	p := s.products[productID]
	p.CurrentStock = 0
	p.ExpiryDate = nil
	for _, b := range s.batches[productID] {
		p.CurrentStock += b.Quantity
		if b.ExpiryDate != nil && (p.ExpiryDate == nil || b.ExpiryDate.Before(*p.ExpiryDate)) {
			expiry := *b.ExpiryDate
			p.ExpiryDate = &expiry
		}
	}
	p.UpdatedAt = s.clock.Now()
	s.products[productID] = p
}

type settingsRepository struct{ s *Store }

func (r settingsRepository) Get(_ context.Context, key string) (string, bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	v, ok := r.s.settings[key]
	return v, ok, nil
}

func (r settingsRepository) Set(_ context.Context, key, value string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.settings[key] = value
	return nil
}

type movementRepository struct{ s *Store }

func (r movementRepository) Append(_ context.Context, movement model.StockMovement) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.movements = append(r.s.movements, movement)
	return nil
}

func (r movementRepository) FindByProductID(_ context.Context, productID string) ([]model.StockMovement, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var movements []model.StockMovement
	for _, m := range r.s.movements {
		if m.ProductID == productID {
			movements = append(movements, m)
		}
	}
	return movements, nil
}

func cloneProduct(p model.Product) model.Product {
	p.ExpiryDate = cloneDate(p.ExpiryDate)
	return p
}

func cloneDate(d *dates.CalendarDate) *dates.CalendarDate {
	if d == nil {
		return nil
	}
	clone := *d
	return &clone
}
