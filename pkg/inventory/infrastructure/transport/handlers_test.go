package transport

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockly/pkg/common/dates"
	"stockly/pkg/inventory/application/service"
	"stockly/pkg/inventory/infrastructure/memory"
)

func setupServer(t *testing.T) *httptest.Server {
	t.Helper()
	log.SetOutput(io.Discard)

	clock := dates.ClockFunc(func() time.Time { return time.Date(2025, time.June, 10, 9, 30, 0, 0, time.UTC) })
	logger, _ := logtest.NewNullLogger()
	store := memory.NewStore(clock)
	inventory := service.NewInventoryService(service.Repositories{
		Products:  store.Products(),
		Templates: store.Templates(),
		Settings:  store.Settings(),
		Batches:   store.Batches(),
	}, service.NewMovementDispatcher(store.Movements(), clock, logger), clock, logger)

	srv := httptest.NewServer(Router(inventory, time.UTC))
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, srv *httptest.Server, method, path, body string, out any) int {
	t.Helper()
	req, err := http.NewRequest(method, srv.URL+"/api/v1"+path, strings.NewReader(body))
	require.NoError(t, err)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func createProduct(t *testing.T, srv *httptest.Server, body string) productResponse {
	t.Helper()
	var p productResponse
	require.Equal(t, http.StatusCreated, do(t, srv, http.MethodPost, "/products", body, &p))
	return p
}

func TestProductLifecycle(t *testing.T) {
	srv := setupServer(t)

	p := createProduct(t, srv, `{"name":"Milk","category":"Dairy","initialStock":3,"expiryDate":"12/06/2025"}`)
	assert.Equal(t, 3, p.CurrentStock)
	assert.Equal(t, "12/06/2025", p.ExpiryDisplay)
	require.NotNil(t, p.ExpiryDate)
	assert.Equal(t, "2025-06-12T00:00:00Z", *p.ExpiryDate)

	var updated productResponse
	status := do(t, srv, http.MethodPatch, "/products/"+p.ID, `{"name":"Whole milk","expiryDate":""}`, &updated)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Whole milk", updated.Name)
	assert.Nil(t, updated.ExpiryDate)
	assert.Equal(t, dates.NoDateLabel, updated.ExpiryDisplay)

	var list []productResponse
	require.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/products", "", &list))
	assert.Len(t, list, 1)

	assert.Equal(t, http.StatusNoContent, do(t, srv, http.MethodDelete, "/products/"+p.ID, "", nil))

	var errResp errorResponse
	assert.Equal(t, http.StatusNotFound, do(t, srv, http.MethodGet, "/products/"+p.ID, "", &errResp))
}

func TestConsumeEndpoint(t *testing.T) {
	srv := setupServer(t)
	p := createProduct(t, srv, `{"name":"Yogurt","initialStock":2,"expiryDate":"2025-06-11"}`)

	var purchased productResponse
	require.Equal(t, http.StatusOK, do(t, srv, http.MethodPost, "/products/"+p.ID+"/purchase", `{"quantity":4,"expiryDate":"2025-06-20"}`, &purchased))
	assert.Equal(t, 6, purchased.CurrentStock)

	t.Run("Draws soonest expiry first", func(t *testing.T) {
		var result consumptionResponse
		require.Equal(t, http.StatusOK, do(t, srv, http.MethodPost, "/products/"+p.ID+"/consume", `{"quantity":3}`, &result))
		assert.Equal(t, 3, result.RemainingStock)
		require.Len(t, result.Draws, 2)
		assert.Equal(t, 2, result.Draws[0].Taken)
		assert.Equal(t, "2025-06-11T00:00:00Z", *result.Draws[0].ExpiryDate)
	})

	t.Run("Insufficient stock is a conflict", func(t *testing.T) {
		var errResp errorResponse
		status := do(t, srv, http.MethodPost, "/products/"+p.ID+"/consume", `{"quantity":5}`, &errResp)
		assert.Equal(t, http.StatusConflict, status)
		assert.Equal(t, 2, errResp.Shortfall)
	})

	t.Run("Invalid quantity is a bad request", func(t *testing.T) {
		var errResp errorResponse
		assert.Equal(t, http.StatusBadRequest, do(t, srv, http.MethodPost, "/products/"+p.ID+"/consume", `{"quantity":0}`, &errResp))
		assert.Equal(t, http.StatusBadRequest, do(t, srv, http.MethodPost, "/products/"+p.ID+"/consume", `{"amount":1}`, &errResp))
	})

	t.Run("Unknown product", func(t *testing.T) {
		var errResp errorResponse
		assert.Equal(t, http.StatusNotFound, do(t, srv, http.MethodPost, "/products/nope/consume", `{"quantity":1}`, &errResp))
	})
}

func TestRejectsInvalidDate(t *testing.T) {
	srv := setupServer(t)

	var errResp errorResponse
	status := do(t, srv, http.MethodPost, "/products", `{"name":"Bread","expiryDate":"31/02/2025"}`, &errResp)

	assert.Equal(t, http.StatusBadRequest, status)
}

func TestShoppingListAndDashboard(t *testing.T) {
	srv := setupServer(t)
	rice := createProduct(t, srv, `{"name":"Rice","category":"Grains","initialStock":1}`)
	createProduct(t, srv, `{"name":"Ham","initialStock":1,"expiryDate":"09/06/2025"}`)
	createProduct(t, srv, `{"name":"Cheese","initialStock":2,"expiryDate":"13/06/2025"}`)

	var item templateResponse
	require.Equal(t, http.StatusOK, do(t, srv, http.MethodPut, "/products/"+rice.ID+"/template", `{"idealQuantity":4,"priority":"high"}`, &item))
	assert.Equal(t, "high", string(item.Priority))

	var list []shoppingEntryResponse
	require.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/shopping-list", "", &list))
	require.Len(t, list, 1)
	assert.Equal(t, 3, list[0].NeededQuantity)

	var stats dashboardResponse
	require.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/dashboard", "", &stats))
	assert.Equal(t, dashboardResponse{
		TotalProducts:     3,
		TotalItems:        4,
		ExpiringSoonCount: 1,
		LowStockCount:     1,
		ExpiredCount:      1,
		ExpiryAlertDays:   7,
	}, stats)

	var expiring []expiringResponse
	require.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/expiring?includeUndated=true", "", &expiring))
	require.Len(t, expiring, 3)
	assert.Equal(t, "expired", expiring[0].Status)
	assert.Equal(t, "soon", expiring[1].Status)
	assert.Equal(t, "no-date", expiring[2].Status)
	assert.Nil(t, expiring[2].DaysUntilExpiry)

	var errResp errorResponse
	assert.Equal(t, http.StatusBadRequest, do(t, srv, http.MethodPut, "/products/"+rice.ID+"/template", `{"idealQuantity":4,"priority":"asap"}`, &errResp))
	assert.Equal(t, http.StatusNoContent, do(t, srv, http.MethodDelete, "/products/"+rice.ID+"/template", "", nil))
	assert.Equal(t, http.StatusNotFound, do(t, srv, http.MethodDelete, "/products/"+rice.ID+"/template", "", &errResp))
}

func TestAlertDaysSetting(t *testing.T) {
	srv := setupServer(t)

	var days alertDaysResponse
	require.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/settings/expiry-alert-days", "", &days))
	assert.Equal(t, 7, days.ExpiryAlertDays)

	require.Equal(t, http.StatusOK, do(t, srv, http.MethodPut, "/settings/expiry-alert-days", `{"expiryAlertDays":2}`, &days))
	require.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/settings/expiry-alert-days", "", &days))
	assert.Equal(t, 2, days.ExpiryAlertDays)

	var errResp errorResponse
	assert.Equal(t, http.StatusBadRequest, do(t, srv, http.MethodPut, "/settings/expiry-alert-days", `{"expiryAlertDays":-3}`, &errResp))
}

func TestExpiringGrouped(t *testing.T) {
	srv := setupServer(t)
	createProduct(t, srv, `{"name":"Ham","initialStock":1,"expiryDate":"11/06/2025"}`)
	createProduct(t, srv, `{"name":"Cheese","initialStock":1,"expiryDate":"14/06/2025"}`)
	createProduct(t, srv, `{"name":"Milk","initialStock":1,"expiryDate":"08/06/2025"}`)

	var groups expiryGroupsResponse
	require.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/expiring?grouped=true", "", &groups))
	require.Len(t, groups.Expired, 1)
	assert.Equal(t, "Milk", groups.Expired[0].Product.Name)
	require.Len(t, groups.Tomorrow, 1)
	assert.Equal(t, "Ham", groups.Tomorrow[0].Product.Name)
	assert.Len(t, groups.Soon, 1)
	assert.Empty(t, groups.Today)

	groups = expiryGroupsResponse{}
	require.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/expiring?grouped=true&collapseTomorrow=true", "", &groups))
	assert.Empty(t, groups.Tomorrow)
	require.Len(t, groups.Soon, 2)
	assert.Equal(t, "tomorrow", groups.Soon[0].Status)
}

func TestStockOverflowIsBadRequest(t *testing.T) {
	srv := setupServer(t)
	p := createProduct(t, srv, `{"name":"Rice","initialStock":2147483647}`)

	var errResp errorResponse
	assert.Equal(t, http.StatusBadRequest, do(t, srv, http.MethodPost, "/products/"+p.ID+"/purchase", `{"quantity":1}`, &errResp))
	assert.Equal(t, http.StatusBadRequest, do(t, srv, http.MethodPost, "/products", `{"name":"Beans","initialStock":2147483648}`, &errResp))
}

func TestRequestsAreLoggedWithStatus(t *testing.T) {
	srv := setupServer(t)
	hook := logtest.NewGlobal()
	defer hook.Reset()

	var errResp errorResponse
	require.Equal(t, http.StatusNotFound, do(t, srv, http.MethodGet, "/products/missing", "", &errResp))

	require.Eventually(t, func() bool {
		entry := hook.LastEntry()
		return entry != nil && entry.Message == "request served"
	}, time.Second, 10*time.Millisecond)

	entry := hook.LastEntry()
	assert.Equal(t, http.StatusNotFound, entry.Data["status"])
	assert.Equal(t, "/api/v1/products/missing", entry.Data["path"])
}
