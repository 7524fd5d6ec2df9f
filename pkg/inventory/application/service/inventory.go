package service

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"stockly/pkg/common/dates"
	"stockly/pkg/inventory/domain/model"
	domain "stockly/pkg/inventory/domain/service"
)

type EventDispatcher interface {
	Dispatch(ctx context.Context, event model.Event) error
}

type Repositories struct {
	Products  model.ProductRepository
	Templates model.TemplateRepository
	Settings  model.SettingsRepository
	Batches   model.BatchRepository
}

type NewProduct struct {
	Name         string
	Category     string
	Description  string
	InitialStock int
	ExpiryDate   *dates.CalendarDate
}

// ProductPatch changes only the fields that are set. ClearExpiry removes the
// expiry date and wins over ExpiryDate.
type ProductPatch struct {
	Name        *string
	Category    *string
	Description *string
	ExpiryDate  *dates.CalendarDate
	ClearExpiry bool
}

type InventoryService interface {
	CreateProduct(ctx context.Context, input NewProduct) (*model.Product, error)
	UpdateProduct(ctx context.Context, productID string, patch ProductPatch) (*model.Product, error)
	DeleteProduct(ctx context.Context, productID string) error
	GetProduct(ctx context.Context, productID string) (*model.Product, error)
	ListProducts(ctx context.Context) ([]model.Product, error)

	Consume(ctx context.Context, productID string, quantity int) (*domain.ConsumptionResult, error)
	Discard(ctx context.Context, productID string, quantity int) (*domain.ConsumptionResult, error)
	Purchase(ctx context.Context, productID string, quantity int, expiry *dates.CalendarDate) (*model.Product, error)
	AdjustStock(ctx context.Context, productID string, delta int) (*model.Product, error)
	SetStock(ctx context.Context, productID string, stock int) (*model.Product, error)

	SetIdealQuantity(ctx context.Context, productID string, idealQuantity int, priority string) (*model.TemplateItem, error)
	RemoveTemplate(ctx context.Context, productID string) error
	ListTemplates(ctx context.Context) ([]model.TemplateItem, error)

	ShoppingList(ctx context.Context) ([]domain.ShoppingListEntry, error)
	Dashboard(ctx context.Context) (*domain.DashboardStats, error)
	Expiring(ctx context.Context, includeUndated bool) ([]domain.ExpiringProduct, error)
	ExpiringGroups(ctx context.Context, includeUndated, collapseTomorrow bool) (*domain.ExpiryGroups, error)

	ExpiryAlertDays(ctx context.Context) (int, error)
	SetExpiryAlertDays(ctx context.Context, days int) error
}

func NewInventoryService(repos Repositories, dispatcher EventDispatcher, clock dates.Clock, logger logrus.FieldLogger) InventoryService {
	window := domain.NewSettingsAlertWindow(repos.Settings)
	return &inventoryService{
		repos:      repos,
		dispatcher: dispatcher,
		clock:      clock,
		logger:     logger,
		window:     window,
		engine:     domain.NewConsumptionEngine(repos.Batches),
		classifier: domain.NewExpiryClassifier(window, clock),
		shopping:   domain.NewShoppingListGenerator(repos.Products, repos.Templates),
		dashboard:  domain.NewDashboardAggregator(repos.Products, repos.Templates, window, clock),
	}
}

type inventoryService struct {
	repos      Repositories
	dispatcher EventDispatcher
	clock      dates.Clock
	logger     logrus.FieldLogger

	window     domain.AlertWindowProvider
	engine     domain.ConsumptionEngine
	classifier domain.ExpiryClassifier
	shopping   domain.ShoppingListGenerator
	dashboard  domain.DashboardAggregator
}

func (s *inventoryService) CreateProduct(ctx context.Context, input NewProduct) (*model.Product, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, model.ErrEmptyProductName
	}
	if input.InitialStock < 0 {
		return nil, model.ErrNegativeStock
	}
	if err := model.CheckStockAddition(0, input.InitialStock); err != nil {
		return nil, err
	}

	productID, err := s.repos.Products.NextID()
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	product := &model.Product{
		ID:          productID,
		Name:        name,
		Category:    model.NormalizeCategory(input.Category),
		Description: strings.TrimSpace(input.Description),
		ExpiryDate:  input.ExpiryDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repos.Products.Create(ctx, product); err != nil {
		return nil, err
	}
	created := model.ProductCreated{ProductID: productID, Name: name}

	if input.InitialStock == 0 {
		s.dispatchEvents(ctx, created)
		return product, nil
	}

	product, err = s.storeBatch(ctx, productID, input.InitialStock, input.ExpiryDate)
	if err != nil {
		// The product must not outlive its failed initial stock.
		if delErr := s.repos.Products.Delete(ctx, productID); delErr != nil {
			s.logger.WithError(delErr).WithField("productID", productID).Error("failed to remove product after initial stock was rejected")
		}
		return nil, err
	}

	s.dispatchEvents(ctx, created, model.ProductStockChanged{
		ProductID:    productID,
		Movement:     model.MovementAdd,
		ChangeAmount: input.InitialStock,
		NewQuantity:  product.CurrentStock,
	})
	return product, nil
}

// UpdateProduct applies the patch. An expiry change is written to the
// product's batches as well so later stock changes keep it.
func (s *inventoryService) UpdateProduct(ctx context.Context, productID string, patch ProductPatch) (*model.Product, error) {
	product, err := s.executeOnProduct(ctx, productID, func(p *model.Product) error {
		if patch.Name != nil {
			name := strings.TrimSpace(*patch.Name)
			if name == "" {
				return model.ErrEmptyProductName
			}
			p.Name = name
		}
		if patch.Category != nil {
			p.Category = model.NormalizeCategory(*patch.Category)
		}
		if patch.Description != nil {
			p.Description = strings.TrimSpace(*patch.Description)
		}
		switch {
		case patch.ClearExpiry:
			p.ExpiryDate = nil
		case patch.ExpiryDate != nil:
			p.ExpiryDate = patch.ExpiryDate
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !patch.ClearExpiry && patch.ExpiryDate == nil {
		return product, nil
	}

	if err := s.repos.Batches.SetExpiry(ctx, productID, product.ExpiryDate); err != nil {
		return nil, err
	}
	return s.repos.Products.GetByID(ctx, productID)
}

func (s *inventoryService) DeleteProduct(ctx context.Context, productID string) error {
	if _, err := s.repos.Products.GetByID(ctx, productID); err != nil {
		return err
	}
	if err := s.repos.Templates.DeleteByProductID(ctx, productID); err != nil && !errors.Is(err, model.ErrTemplateNotFound) {
		return err
	}
	if err := s.repos.Products.Delete(ctx, productID); err != nil {
		return err
	}

	s.dispatchEvents(ctx, model.ProductDeleted{ProductID: productID})
	return nil
}

func (s *inventoryService) GetProduct(ctx context.Context, productID string) (*model.Product, error) {
	return s.repos.Products.GetByID(ctx, productID)
}

func (s *inventoryService) ListProducts(ctx context.Context) ([]model.Product, error) {
	return s.repos.Products.GetAll(ctx)
}

func (s *inventoryService) Consume(ctx context.Context, productID string, quantity int) (*domain.ConsumptionResult, error) {
	return s.consume(ctx, productID, quantity, model.MovementRemove)
}

// Discard takes expired units out of stock in the same FIFO order as Consume.
func (s *inventoryService) Discard(ctx context.Context, productID string, quantity int) (*domain.ConsumptionResult, error) {
	return s.consume(ctx, productID, quantity, model.MovementExpired)
}

func (s *inventoryService) Purchase(ctx context.Context, productID string, quantity int, expiry *dates.CalendarDate) (*model.Product, error) {
	if quantity <= 0 {
		return nil, model.ErrInvalidQuantity
	}
	return s.receive(ctx, productID, quantity, expiry)
}

func (s *inventoryService) AdjustStock(ctx context.Context, productID string, delta int) (*model.Product, error) {
	switch {
	case delta > 0:
		return s.receive(ctx, productID, delta, nil)
	case delta < 0:
		if _, err := s.consume(ctx, productID, -delta, model.MovementRemove); err != nil {
			return nil, err
		}
		return s.repos.Products.GetByID(ctx, productID)
	}
	return nil, model.ErrInvalidQuantity
}

func (s *inventoryService) SetStock(ctx context.Context, productID string, stock int) (*model.Product, error) {
	if stock < 0 {
		return nil, model.ErrNegativeStock
	}

	product, err := s.repos.Products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product.CurrentStock == stock {
		return product, nil
	}
	return s.AdjustStock(ctx, productID, stock-product.CurrentStock)
}

func (s *inventoryService) SetIdealQuantity(ctx context.Context, productID string, idealQuantity int, priority string) (*model.TemplateItem, error) {
	if idealQuantity < 0 {
		return nil, model.ErrNegativeIdealQuantity
	}
	p, err := model.ParsePriority(priority)
	if err != nil {
		return nil, err
	}
	if _, err := s.repos.Products.GetByID(ctx, productID); err != nil {
		return nil, err
	}

	item, err := s.repos.Templates.Upsert(ctx, productID, idealQuantity, p)
	if err != nil {
		return nil, err
	}

	s.dispatchEvents(ctx, model.TemplateItemChanged{ProductID: productID, IdealQuantity: idealQuantity, Priority: p})
	return item, nil
}

func (s *inventoryService) RemoveTemplate(ctx context.Context, productID string) error {
	if err := s.repos.Templates.DeleteByProductID(ctx, productID); err != nil {
		return err
	}

	s.dispatchEvents(ctx, model.TemplateItemRemoved{ProductID: productID})
	return nil
}

func (s *inventoryService) ListTemplates(ctx context.Context) ([]model.TemplateItem, error) {
	return s.repos.Templates.GetAll(ctx)
}

func (s *inventoryService) ShoppingList(ctx context.Context) ([]domain.ShoppingListEntry, error) {
	return s.shopping.Generate(ctx)
}

func (s *inventoryService) Dashboard(ctx context.Context) (*domain.DashboardStats, error) {
	return s.dashboard.Stats(ctx)
}

func (s *inventoryService) Expiring(ctx context.Context, includeUndated bool) ([]domain.ExpiringProduct, error) {
	products, err := s.repos.Products.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	return s.classifier.NeedsAttention(ctx, products, includeUndated)
}

func (s *inventoryService) ExpiringGroups(ctx context.Context, includeUndated, collapseTomorrow bool) (*domain.ExpiryGroups, error) {
	items, err := s.Expiring(ctx, includeUndated)
	if err != nil {
		return nil, err
	}
	groups := domain.GroupByStatus(items, collapseTomorrow)
	return &groups, nil
}

func (s *inventoryService) ExpiryAlertDays(ctx context.Context) (int, error) {
	return s.window.AlertWindow(ctx)
}

func (s *inventoryService) SetExpiryAlertDays(ctx context.Context, days int) error {
	if days < 0 {
		return model.ErrInvalidAlertWindow
	}
	return s.repos.Settings.Set(ctx, model.ExpiryAlertDaysKey, strconv.Itoa(days))
}

func (s *inventoryService) consume(ctx context.Context, productID string, quantity int, movement model.MovementType) (*domain.ConsumptionResult, error) {
	result, err := s.engine.Consume(ctx, productID, quantity)
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"productID": productID,
		"quantity":  quantity,
		"batches":   len(result.Draws),
		"movement":  movement,
	}).Debug("stock consumed")

	s.dispatchEvents(ctx, model.ProductStockChanged{
		ProductID:    productID,
		Movement:     movement,
		ChangeAmount: -quantity,
		NewQuantity:  result.RemainingStock,
	})
	return result, nil
}

func (s *inventoryService) receive(ctx context.Context, productID string, quantity int, expiry *dates.CalendarDate) (*model.Product, error) {
	product, err := s.storeBatch(ctx, productID, quantity, expiry)
	if err != nil {
		return nil, err
	}

	s.dispatchEvents(ctx, model.ProductStockChanged{
		ProductID:    productID,
		Movement:     model.MovementAdd,
		ChangeAmount: quantity,
		NewQuantity:  product.CurrentStock,
	})
	return product, nil
}

func (s *inventoryService) storeBatch(ctx context.Context, productID string, quantity int, expiry *dates.CalendarDate) (*model.Product, error) {
	batch := model.Batch{
		ID:         uuid.NewString(),
		ProductID:  productID,
		Quantity:   quantity,
		ExpiryDate: expiry,
		CreatedAt:  s.clock.Now(),
	}
	if err := s.repos.Batches.Receive(ctx, batch); err != nil {
		return nil, err
	}
	return s.repos.Products.GetByID(ctx, productID)
}

func (s *inventoryService) executeOnProduct(ctx context.Context, productID string, action func(p *model.Product) error) (*model.Product, error) {
	product, err := s.repos.Products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	if err := action(product); err != nil {
		return nil, err
	}
	product.UpdatedAt = s.clock.Now()

	if err := s.repos.Products.Update(ctx, product); err != nil {
		return nil, err
	}

	s.dispatchEvents(ctx, model.ProductUpdated{ProductID: productID})
	return product, nil
}

func (s *inventoryService) dispatchEvents(ctx context.Context, events ...model.Event) {
	for _, event := range events {
		if err := s.dispatcher.Dispatch(ctx, event); err != nil {
			s.logger.WithError(err).WithField("event", event.Type()).Error("failed to dispatch event")
		}
	}
}
