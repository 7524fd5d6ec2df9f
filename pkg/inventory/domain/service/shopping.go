package service

import (
	"cmp"
	"context"
	"slices"

	"stockly/pkg/inventory/domain/model"
)

type ShoppingListEntry struct {
	ProductID      string
	ProductName    string
	Category       string
	NeededQuantity int
	Priority       model.Priority
}

// GenerateShoppingList emits one entry per templated product below its ideal
// quantity. Order: priority rank descending, then category (name when the
// product has none), then name, then id.
func GenerateShoppingList(products []model.Product, templates []model.TemplateItem) []ShoppingListEntry {
	byID := indexProducts(products)

	entries := make([]ShoppingListEntry, 0, len(templates))
	for _, t := range templates {
		p, ok := byID[t.ProductID]
		if !ok {
			continue
		}
		needed := deficit(p, t)
		if needed <= 0 {
			continue
		}
		entries = append(entries, ShoppingListEntry{
			ProductID:      p.ID,
			ProductName:    p.Name,
			Category:       p.Category,
			NeededQuantity: needed,
			Priority:       t.Priority,
		})
	}

	slices.SortStableFunc(entries, compareShoppingEntries)
	return entries
}

func compareShoppingEntries(a, b ShoppingListEntry) int {
	if c := cmp.Compare(b.Priority.Rank(), a.Priority.Rank()); c != 0 {
		return c
	}
	if c := cmp.Compare(a.sortKey(), b.sortKey()); c != 0 {
		return c
	}
	if c := cmp.Compare(a.ProductName, b.ProductName); c != 0 {
		return c
	}
	return cmp.Compare(a.ProductID, b.ProductID)
}

func (e ShoppingListEntry) sortKey() string {
	if e.Category == "" {
		return e.ProductName
	}
	return e.Category
}

func deficit(p model.Product, t model.TemplateItem) int {
	return t.IdealQuantity - p.CurrentStock
}

func indexProducts(products []model.Product) map[string]model.Product {
	byID := make(map[string]model.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	return byID
}

type ShoppingListGenerator interface {
	Generate(ctx context.Context) ([]ShoppingListEntry, error)
}

func NewShoppingListGenerator(products model.ProductRepository, templates model.TemplateRepository) ShoppingListGenerator {
	return &shoppingListGenerator{products: products, templates: templates}
}

type shoppingListGenerator struct {
	products  model.ProductRepository
	templates model.TemplateRepository
}

func (g *shoppingListGenerator) Generate(ctx context.Context) ([]ShoppingListEntry, error) {
	products, err := g.products.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	templates, err := g.templates.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	return GenerateShoppingList(products, templates), nil
}
