package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"stockly/pkg/common/dates"
	"stockly/pkg/inventory/application/service"
)

func TestParseEnvDefaults(t *testing.T) {
	c, err := parseEnv()

	require.NoError(t, err)
	assert.Equal(t, ":8080", c.ServeRESTAddress)
	assert.Equal(t, ":8081", c.ServeGRPCAddress)
	assert.Equal(t, storeMySQL, c.Store)
	assert.Equal(t, stockModelBatch, c.StockModel)
}

func TestParseEnvOverrides(t *testing.T) {
	t.Setenv("STOCKLY_STORE", "memory")
	t.Setenv("STOCKLY_STOCK_MODEL", "product")
	t.Setenv("STOCKLY_LOCATION", "UTC")

	c, err := parseEnv()

	require.NoError(t, err)
	assert.Equal(t, storeMemory, c.Store)
	assert.Equal(t, stockModelProduct, c.StockModel)
	loc, err := c.location()
	require.NoError(t, err)
	assert.Equal(t, "UTC", loc.String())
}

func TestParseEnvRejectsUnknownStore(t *testing.T) {
	t.Setenv("STOCKLY_STORE", "sqlite")

	_, err := parseEnv()

	assert.Error(t, err)
}

func TestMemoryContainer(t *testing.T) {
	t.Setenv("STOCKLY_STORE", "memory")
	t.Setenv("STOCKLY_LOCATION", "UTC")
	c, err := parseEnv()
	require.NoError(t, err)

	cont, err := newContainer(c)

	require.NoError(t, err)
	assert.NotNil(t, cont.inventory)
	assert.NoError(t, cont.Close())
}

func TestMemoryContainerKeepsSnapshot(t *testing.T) {
	t.Setenv("STOCKLY_STORE", "memory")
	t.Setenv("STOCKLY_LOCATION", "UTC")
	t.Setenv("STOCKLY_MEMORY_SNAPSHOT", filepath.Join(t.TempDir(), "inventory.json"))
	c, err := parseEnv()
	require.NoError(t, err)

	cont, err := newContainer(c)
	require.NoError(t, err)
	_, err = cont.inventory.CreateProduct(context.Background(), service.NewProduct{Name: "Rice", InitialStock: 2})
	require.NoError(t, err)
	require.NoError(t, cont.Close())

	reopened, err := newContainer(c)
	require.NoError(t, err)
	products, err := reopened.inventory.ListProducts(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, 2, products[0].CurrentStock)
}

func TestExpiringCommandGrouped(t *testing.T) {
	t.Setenv("STOCKLY_STORE", "memory")
	t.Setenv("STOCKLY_LOCATION", "UTC")
	t.Setenv("STOCKLY_MEMORY_SNAPSHOT", filepath.Join(t.TempDir(), "inventory.json"))
	c, err := parseEnv()
	require.NoError(t, err)

	cont, err := newContainer(c)
	require.NoError(t, err)
	today := dates.Today(dates.SystemClock{Location: time.UTC})
	tomorrow, expired := today.AddDays(1), today.AddDays(-2)
	for _, p := range []service.NewProduct{
		{Name: "Ham", InitialStock: 1, ExpiryDate: &tomorrow},
		{Name: "Milk", InitialStock: 1, ExpiryDate: &expired},
	} {
		_, err = cont.inventory.CreateProduct(context.Background(), p)
		require.NoError(t, err)
	}
	require.NoError(t, cont.Close())

	var out bytes.Buffer
	app := &cli.App{Writer: &out, Commands: []*cli.Command{expiringCommand()}}

	require.NoError(t, app.Run([]string{appID, "expiring", "--grouped", "--collapse-tomorrow"}))

	assert.Contains(t, out.String(), "Expired:\n")
	assert.Contains(t, out.String(), "Soon:\n")
	assert.NotContains(t, out.String(), "Tomorrow:")
	assert.Contains(t, out.String(), "Ham")
}
