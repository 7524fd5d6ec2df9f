package tests

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockly/pkg/inventory/domain/model"
	"stockly/pkg/inventory/domain/service"
)

func setupBatches(t *testing.T) (service.ConsumptionEngine, *mockBatchRepository) {
	t.Helper()
	repo := newMockBatchRepository()
	repo.add("milk",
		model.Batch{ID: "b3", Quantity: 4, ExpiryDate: inDays(9)},
		model.Batch{ID: "b1", Quantity: 2, ExpiryDate: inDays(1)},
		model.Batch{ID: "b2", Quantity: 3, ExpiryDate: inDays(5)},
	)
	return service.NewConsumptionEngine(repo), repo
}

func TestConsumeFIFO(t *testing.T) {
	engine, repo := setupBatches(t)

	result, err := engine.Consume(context.Background(), "milk", 3)

	require.NoError(t, err)
	require.Len(t, result.Draws, 2)
	assert.Equal(t, "b1", result.Draws[0].BatchID)
	assert.Equal(t, 2, result.Draws[0].Taken)
	assert.Equal(t, 0, result.Draws[0].Remaining)
	assert.Equal(t, "b2", result.Draws[1].BatchID)
	assert.Equal(t, 1, result.Draws[1].Taken)
	assert.Equal(t, 6, result.RemainingStock)

	assert.Equal(t, map[string]int{"b2": 2, "b3": 4}, repo.quantities("milk"))
}

func TestConsumeExactBatchRemovesIt(t *testing.T) {
	engine, repo := setupBatches(t)

	_, err := engine.Consume(context.Background(), "milk", 2)

	require.NoError(t, err)
	assert.Equal(t, map[string]int{"b2": 3, "b3": 4}, repo.quantities("milk"))
}

func TestConsumeInsufficientStock(t *testing.T) {
	engine, repo := setupBatches(t)
	before := repo.quantities("milk")

	_, err := engine.Consume(context.Background(), "milk", 10)

	require.ErrorIs(t, err, model.ErrInsufficientStock)
	var shortErr *model.InsufficientStockError
	require.True(t, errors.As(err, &shortErr))
	assert.Equal(t, 1, shortErr.Shortfall)
	assert.Equal(t, 10, shortErr.Requested)
	assert.Equal(t, 0, repo.applies)
	assert.Equal(t, before, repo.quantities("milk"))
}

func TestConsumeInvalidQuantity(t *testing.T) {
	engine, repo := setupBatches(t)

	for _, q := range []int{0, -3} {
		_, err := engine.Consume(context.Background(), "milk", q)
		assert.ErrorIs(t, err, model.ErrInvalidQuantity)
	}
	assert.Equal(t, 0, repo.finds, "store must not be touched")
}

func TestConsumeUnknownProduct(t *testing.T) {
	engine, _ := setupBatches(t)

	_, err := engine.Consume(context.Background(), "bread", 1)
	assert.ErrorIs(t, err, model.ErrProductNotFound)
}

func TestConsumeStoreFailureCommitsNothing(t *testing.T) {
	engine, repo := setupBatches(t)
	repo.failNext = errStoreDown

	_, err := engine.Consume(context.Background(), "milk", 1)

	assert.ErrorIs(t, err, errStoreDown)
	assert.Equal(t, map[string]int{"b1": 2, "b2": 3, "b3": 4}, repo.quantities("milk"))
}

func TestConsumeNeverGoesNegative(t *testing.T) {
	engine, repo := setupBatches(t)

	for _, q := range []int{4, 6, 1, 2, 2} {
		_, _ = engine.Consume(context.Background(), "milk", q)
		for id, qty := range repo.quantities("milk") {
			assert.GreaterOrEqual(t, qty, 0, id)
		}
	}
	// 9 units: 4 leaves 5, 6 fails, then 1, 2 and 2 drain the rest.
	assert.Empty(t, repo.quantities("milk"))
}

func TestPlanConsumption(t *testing.T) {
	created := time.Date(2025, time.May, 1, 0, 0, 0, 0, time.UTC)

	t.Run("Undated batches go last", func(t *testing.T) {
		plan, err := service.PlanConsumption("eggs", []model.Batch{
			{ID: "undated", Quantity: 5},
			{ID: "dated", Quantity: 1, ExpiryDate: inDays(30)},
		}, 2)

		require.NoError(t, err)
		require.Len(t, plan.Draws, 2)
		assert.Equal(t, "dated", plan.Draws[0].BatchID)
		assert.Equal(t, "undated", plan.Draws[1].BatchID)
		assert.Equal(t, 4, plan.Draws[1].Remaining)
	})

	t.Run("Same expiry uses creation order", func(t *testing.T) {
		plan, err := service.PlanConsumption("eggs", []model.Batch{
			{ID: "newer", Quantity: 5, ExpiryDate: inDays(3), CreatedAt: created.Add(time.Hour)},
			{ID: "older", Quantity: 5, ExpiryDate: inDays(3), CreatedAt: created},
		}, 1)

		require.NoError(t, err)
		assert.Equal(t, "older", plan.Draws[0].BatchID)
	})

	t.Run("Empty batches are ignored", func(t *testing.T) {
		plan, err := service.PlanConsumption("eggs", []model.Batch{
			{ID: "empty", Quantity: 0, ExpiryDate: inDays(-2)},
			{ID: "full", Quantity: 2},
		}, 2)

		require.NoError(t, err)
		require.Len(t, plan.Draws, 1)
		assert.Equal(t, []model.BatchChange{{BatchID: "full", Quantity: 0}}, plan.Changes())
	})

	t.Run("No batches at all", func(t *testing.T) {
		_, err := service.PlanConsumption("eggs", nil, 2)

		var shortErr *model.InsufficientStockError
		require.ErrorAs(t, err, &shortErr)
		assert.Equal(t, 2, shortErr.Shortfall)
	})

	t.Run("Batch total past the maximum", func(t *testing.T) {
		_, err := service.PlanConsumption("eggs", []model.Batch{
			{ID: "a", Quantity: math.MaxInt},
			{ID: "b", Quantity: 1},
		}, 1)

		assert.ErrorIs(t, err, model.ErrStockOverflow)
	})
}

func TestCheckStockAddition(t *testing.T) {
	assert.NoError(t, model.CheckStockAddition(model.MaxStock-1, 1))
	assert.ErrorIs(t, model.CheckStockAddition(model.MaxStock, 1), model.ErrStockOverflow)
	assert.ErrorIs(t, model.CheckStockAddition(0, math.MaxInt), model.ErrStockOverflow)
}

func TestSingleRowStockModel(t *testing.T) {
	products := newMockProductRepository(model.Product{ID: "p1", Name: "Yogurt", CurrentStock: 5, ExpiryDate: inDays(2)})
	batches := service.NewProductBatchRepository(products)
	engine := service.NewConsumptionEngine(batches)
	ctx := context.Background()

	t.Run("Consume subtracts from current stock", func(t *testing.T) {
		result, err := engine.Consume(ctx, "p1", 2)

		require.NoError(t, err)
		assert.Equal(t, 3, result.RemainingStock)
		assert.Equal(t, 3, products.store["p1"].CurrentStock)
	})

	t.Run("Consume more than stock fails untouched", func(t *testing.T) {
		_, err := engine.Consume(ctx, "p1", 4)

		var shortErr *model.InsufficientStockError
		require.ErrorAs(t, err, &shortErr)
		assert.Equal(t, 1, shortErr.Shortfall)
		assert.Equal(t, 3, products.store["p1"].CurrentStock)
	})

	t.Run("Consume to zero keeps the product row", func(t *testing.T) {
		_, err := engine.Consume(ctx, "p1", 3)

		require.NoError(t, err)
		require.Contains(t, products.store, "p1")
		assert.Equal(t, 0, products.store["p1"].CurrentStock)

		_, err = engine.Consume(ctx, "p1", 1)
		assert.ErrorIs(t, err, model.ErrInsufficientStock)
	})

	t.Run("Receive with expiry replaces the product date", func(t *testing.T) {
		err := batches.Receive(ctx, model.Batch{ProductID: "p1", Quantity: 6, ExpiryDate: inDays(12)})

		require.NoError(t, err)
		assert.Equal(t, 6, products.store["p1"].CurrentStock)
		assert.Equal(t, inDays(12), products.store["p1"].ExpiryDate)
	})

	t.Run("Receive without expiry keeps the product date", func(t *testing.T) {
		err := batches.Receive(ctx, model.Batch{ProductID: "p1", Quantity: 1})

		require.NoError(t, err)
		assert.Equal(t, 7, products.store["p1"].CurrentStock)
		assert.Equal(t, inDays(12), products.store["p1"].ExpiryDate)
	})

	t.Run("Receive past the maximum stock fails untouched", func(t *testing.T) {
		err := batches.Receive(ctx, model.Batch{ProductID: "p1", Quantity: model.MaxStock})

		assert.ErrorIs(t, err, model.ErrStockOverflow)
		assert.Equal(t, 7, products.store["p1"].CurrentStock)
	})

	t.Run("SetExpiry rewrites the product date", func(t *testing.T) {
		require.NoError(t, batches.SetExpiry(ctx, "p1", inDays(-1)))
		assert.Equal(t, inDays(-1), products.store["p1"].ExpiryDate)
	})

	t.Run("Unknown product", func(t *testing.T) {
		_, err := engine.Consume(ctx, "missing", 1)
		assert.ErrorIs(t, err, model.ErrProductNotFound)
	})
}
