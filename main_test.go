package main

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderconsole/internal/config"
	"orderconsole/internal/console"
	"orderconsole/internal/dates"
	"orderconsole/internal/fieldstore"
	"orderconsole/internal/repositories"
	"orderconsole/internal/restclient"
	"orderconsole/internal/services"
)

func TestMain(m *testing.M) {
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

func quietLogger() *log.Entry {
	l := log.New()
	l.SetOutput(io.Discard)
	return log.NewEntry(l)
}

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	service := services.NewOrderService(repositories.NewMockOrderRepository(), nil, quietLogger())
	return NewApp(service, prometheus.NewRegistry(), quietLogger())
}

func TestHealthcheck(t *testing.T) {
	app := newTestApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/healthcheck", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.JSONEq(t, `{"status": 200, "message": "Healthy"}`, string(body))
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}

func TestUnknownRouteIsJSON(t *testing.T) {
	app := newTestApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/nowhere", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), `"message"`)
}

func TestMetricsEndpoint(t *testing.T) {
	app := newTestApp(t)

	_, err := app.Test(httptest.NewRequest(http.MethodGet, "/healthcheck", nil), -1)
	require.NoError(t, err)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), `orders_http_requests_total{method="GET",route="/healthcheck",status="200"} 1`)
}

func TestOpenRepositoryMemoryAndSQLite(t *testing.T) {
	repo, closeRepo, err := openRepository(config.ServerConfig{DatabaseDriver: config.DriverMemory}, quietLogger())
	require.NoError(t, err)
	closeRepo()
	assert.IsType(t, &repositories.MockOrderRepository{}, repo)

	repo, closeRepo, err = openRepository(config.ServerConfig{
		DatabaseDriver: config.DriverSQLite,
		DatabaseDSN:    "file:open_repository?mode=memory&cache=shared",
	}, quietLogger())
	require.NoError(t, err)
	defer closeRepo()
	assert.IsType(t, &repositories.GORMOrderRepository{}, repo)

	_, _, err = openRepository(config.ServerConfig{DatabaseDriver: "mysql"}, quietLogger())
	assert.Error(t, err)
}

// TestConsoleAgainstService drives the console through a real HTTP round trip.
func TestConsoleAgainstService(t *testing.T) {
	srv := httptest.NewServer(adaptor.FiberApp(newTestApp(t)))
	t.Cleanup(srv.Close)

	client, err := restclient.New(restclient.Config{BaseURL: srv.URL, Timeout: 5 * time.Second, Logger: quietLogger()})
	require.NoError(t, err)

	store := fieldstore.NewMemoryStore()
	reconciler := console.NewReconciler(store, dates.NewNormalizer(time.Local), console.WithLogger(quietLogger()))
	d := console.NewDispatcher(store, client, reconciler, quietLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	go func() { _ = d.Run(ctx) }()

	set := func(name, value string) {
		require.NoError(t, d.Update(ctx, func(s fieldstore.Store) { s.Set(name, value) }))
	}
	run := func(action console.Action) {
		_, err := d.Do(ctx, action)
		require.NoError(t, err)
	}

	set(fieldstore.OrderCustomer, "42")
	set(fieldstore.OrderDate, "2024-03-01")
	run(console.ActionCreate)
	assert.Equal(t, console.StatusSuccess, store.Status())
	assert.Equal(t, "1", store.Get(fieldstore.OrderID))
	assert.Equal(t, "2024-03-01", store.Get(fieldstore.OrderDate))

	set(fieldstore.OrderDate, "2024-03-05")
	run(console.ActionUpdate)
	assert.Equal(t, console.StatusSuccess, store.Status())
	assert.Equal(t, "2024-03-05", store.Get(fieldstore.OrderDate))

	run(console.ActionClear)
	assert.Empty(t, store.Get(fieldstore.OrderID))

	set(fieldstore.OrderID, "1")
	run(console.ActionRetrieve)
	assert.Equal(t, "42", store.Get(fieldstore.OrderCustomer))
	assert.Equal(t, "2024-03-05", store.Get(fieldstore.OrderDate))

	run(console.ActionSearch)
	table, ok := store.Table(fieldstore.SearchResults)
	require.True(t, ok)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, []string{"1", "42", "2024-03-05", ""}, table.Rows[0])

	run(console.ActionRetrieveItems)
	items, ok := store.Table(fieldstore.ItemResults)
	require.True(t, ok)
	assert.Empty(t, items.Rows)
	assert.Equal(t, console.StatusSuccess, store.Status())

	run(console.ActionDelete)
	assert.Equal(t, console.StatusDeleted, store.Status())
	assert.Empty(t, store.Get(fieldstore.OrderID))

	set(fieldstore.OrderID, "1")
	run(console.ActionRetrieve)
	assert.Equal(t, "Order with id '1' was not found.", store.Status())
	assert.Empty(t, store.Get(fieldstore.OrderCustomer))

	set(fieldstore.OrderCustomer, "")
	set(fieldstore.OrderDate, "")
	run(console.ActionCreate)
	assert.Equal(t, "Validation failed", store.Status())
}
