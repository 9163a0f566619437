package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/siempreabierto/internal/config"
	delivery "github.com/siempreabierto/internal/delivery/http"
	"github.com/siempreabierto/internal/delivery/http/handler"
	"github.com/siempreabierto/internal/repository/sqlstore/testhelpers"
	"github.com/siempreabierto/internal/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type apiError struct {
	Code    string                 `json:"code"`
	Details map[string]interface{} `json:"details"`
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *apiError       `json:"error"`
}

func newTestServer(t *testing.T) *fiber.App {
	t.Helper()

	tdb := testhelpers.SetupTestDB(t)
	t.Cleanup(tdb.Close)

	cfg := config.Default()
	logger := tdb.Logger
	store := tdb.Store

	ledger := usecase.NewLedger(logger)
	settings := usecase.NewSettingsUseCase(store, ledger, logger)
	_, err := settings.Initialize(context.Background())
	require.NoError(t, err)

	places := usecase.NewPlaceUseCase(store, ledger, settings, cfg.Geo, logger)
	restrictions := usecase.NewRestrictionUseCase(store, ledger, settings, cfg.Geo, logger)
	contributions := usecase.NewContributionUseCase(store, ledger, settings, usecase.SyncOptions{}, logger)
	live := handler.NewLiveHandler(places, restrictions, contributions, logger)

	server := delivery.NewServer(cfg, logger, delivery.Handlers{
		Places:        handler.NewPlaceHandler(places, logger),
		Restrictions:  handler.NewRestrictionHandler(restrictions, logger),
		Helpers:       handler.NewHelperHandler(usecase.NewHelperUseCase(store, ledger, settings, cfg.Geo, logger), logger),
		HelpRequests:  handler.NewHelpRequestHandler(usecase.NewHelpRequestUseCase(store, ledger, settings, cfg.Geo, logger), logger),
		Routes:        handler.NewRouteHandler(usecase.NewRouteUseCase(store, ledger, settings, cfg.Geo, logger), logger),
		Contributions: handler.NewContributionHandler(contributions, logger),
		Settings:      handler.NewSettingsHandler(settings, logger),
		Stats:         handler.NewStatsHandler(usecase.NewStatsUseCase(store.Stats(), nil, time.Minute, logger), logger),
		Live:          live,
	})
	t.Cleanup(live.Close)

	return server.App()
}

func do(t *testing.T, app *fiber.App, method, path string, body interface{}) (*http.Response, envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	}
	return resp, env
}

func createdID(t *testing.T, env envelope) int64 {
	t.Helper()
	var data struct {
		ID int64 `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.Positive(t, data.ID)
	return data.ID
}

func TestServer_Health(t *testing.T) {
	app := newTestServer(t)

	resp, _ := do(t, app, http.MethodGet, "/api/v1/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServer_PlaceLifecycle(t *testing.T) {
	app := newTestServer(t)

	resp, env := do(t, app, http.MethodPost, "/api/v1/places", map[string]interface{}{
		"name":     "Taller Paco 24h",
		"category": "workshop_24h",
		"lat":      testhelpers.Madrid.Lat,
		"lon":      testhelpers.Madrid.Lon,
		"is_24h":   true,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	id := createdID(t, env)

	resp, env = do(t, app, http.MethodGet, fmt.Sprintf("/api/v1/places/%d", id), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var place struct {
		Name   string `json:"name"`
		Region string `json:"region"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &place))
	assert.Equal(t, "Taller Paco 24h", place.Name)
	assert.Equal(t, "madrid", place.Region)

	var result struct {
		Total int `json:"total"`
		Items []struct {
			ID         int64    `json:"id"`
			DistanceKm *float64 `json:"distance_km"`
		} `json:"items"`
	}

	// ~12.5 km from Getafe: outside a 10 km circle
	tooSmall := fmt.Sprintf("/api/v1/places/nearby?lat=%f&lon=%f&radius_km=10", testhelpers.Getafe.Lat, testhelpers.Getafe.Lon)
	resp, env = do(t, app, http.MethodGet, tooSmall, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, 0, result.Total)

	nearby := fmt.Sprintf("/api/v1/places/nearby?lat=%f&lon=%f&radius_km=15", testhelpers.Getafe.Lat, testhelpers.Getafe.Lon)
	resp, env = do(t, app, http.MethodGet, nearby, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	result.Items = nil
	require.NoError(t, json.Unmarshal(env.Data, &result))
	require.Equal(t, 1, result.Total)
	assert.Equal(t, id, result.Items[0].ID)
	require.NotNil(t, result.Items[0].DistanceKm)
	assert.InDelta(t, 12.5, *result.Items[0].DistanceKm, 0.5)

	resp, _ = do(t, app, http.MethodPost, fmt.Sprintf("/api/v1/places/%d/confirm", id), map[string]string{
		"user_id":   "user_other",
		"user_name": "Marta",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, env = do(t, app, http.MethodGet, fmt.Sprintf("/api/v1/contributions/history/place/%d", id), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var history []struct {
		Action string `json:"action"`
		UserID string `json:"user_id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &history))
	require.Len(t, history, 2)
	assert.Equal(t, "confirm", history[0].Action)
	assert.Equal(t, "user_other", history[0].UserID)
	assert.Equal(t, "create", history[1].Action)

	resp, _ = do(t, app, http.MethodDelete, fmt.Sprintf("/api/v1/places/%d", id), map[string]string{"reason": "closed"})
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, env = do(t, app, http.MethodGet, nearby, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Zero(t, result.Total)
}

func TestServer_Errors(t *testing.T) {
	app := newTestServer(t)

	tests := []struct {
		name       string
		method     string
		path       string
		body       interface{}
		wantStatus int
		wantCode   string
	}{
		{
			name:       "validation",
			method:     http.MethodPost,
			path:       "/api/v1/places",
			body:       map[string]interface{}{"category": "workshop", "lat": 40.4, "lon": -3.7},
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "VALIDATION_ERROR",
		},
		{
			name:       "unknown category",
			method:     http.MethodPost,
			path:       "/api/v1/places",
			body:       map[string]interface{}{"name": "Bar Pepe", "category": "casino", "lat": 40.4, "lon": -3.7},
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "VALIDATION_ERROR",
		},
		{
			name:       "not found",
			method:     http.MethodGet,
			path:       "/api/v1/places/999",
			wantStatus: http.StatusNotFound,
			wantCode:   "PLACE_NOT_FOUND",
		},
		{
			name:       "bad id",
			method:     http.MethodGet,
			path:       "/api/v1/restrictions/abc",
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_REQUEST",
		},
		{
			name:       "bad history target",
			method:     http.MethodGet,
			path:       "/api/v1/contributions/history/parking/1",
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_TARGET",
		},
		{
			name:       "unknown region",
			method:     http.MethodGet,
			path:       "/api/v1/places/region/atlantis",
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_REGION",
		},
		{
			name:       "missing coordinates",
			method:     http.MethodGet,
			path:       "/api/v1/restrictions/nearby?radius_km=5",
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "VALIDATION_ERROR",
		},
		{
			name:       "unknown endpoint",
			method:     http.MethodGet,
			path:       "/api/v1/nope",
			wantStatus: http.StatusNotFound,
			wantCode:   "ENDPOINT_NOT_FOUND",
		},
		{
			name:       "websocket without upgrade",
			method:     http.MethodGet,
			path:       "/api/v1/ws/places/nearby?lat=40.4&lon=-3.7",
			wantStatus: http.StatusUpgradeRequired,
			wantCode:   "UPGRADE_REQUIRED",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, env := do(t, app, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			require.NotNil(t, env.Error)
			assert.Equal(t, tt.wantCode, env.Error.Code)
		})
	}
}

func TestServer_ValidationDetails(t *testing.T) {
	app := newTestServer(t)

	resp, env := do(t, app, http.MethodPost, "/api/v1/help-requests", map[string]interface{}{
		"lat":                  testhelpers.Madrid.Lat,
		"lon":                  testhelpers.Madrid.Lon,
		"location_description": "Calle Mayor 5, portal 2",
		"problem_type":         "battery",
	})
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	require.NotNil(t, env.Error)
	assert.Contains(t, env.Error.Details["location_description"], "public reference point")
}

func TestServer_ValidationDetails_ProblemDescription(t *testing.T) {
	app := newTestServer(t)

	resp, env := do(t, app, http.MethodPost, "/api/v1/help-requests", map[string]interface{}{
		"lat":                  testhelpers.Madrid.Lat,
		"lon":                  testhelpers.Madrid.Lon,
		"location_description": "A-4 km 15 sentido Madrid, arcén derecho",
		"problem_type":         "battery",
		"problem_description":  "Estoy en mi casa, calle Mayor 5, piso 3",
	})
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	require.NotNil(t, env.Error)
	assert.Contains(t, env.Error.Details["problem_description"], "public reference point")
}

func TestServer_PrimeMeridian(t *testing.T) {
	app := newTestServer(t)

	resp, env := do(t, app, http.MethodPost, "/api/v1/places", map[string]interface{}{
		"name":     "Gasolinera Meridiano",
		"category": "gas_station",
		"lat":      39.9,
		"lon":      0,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	id := createdID(t, env)

	resp, env = do(t, app, http.MethodGet, "/api/v1/places/nearby?lat=39.9&lon=0&radius_km=5", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var result struct {
		Items []struct {
			ID     int64  `json:"id"`
			Region string `json:"region"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &result))
	require.Len(t, result.Items, 1)
	assert.Equal(t, id, result.Items[0].ID)
	assert.Equal(t, "valenciana", result.Items[0].Region)

	// без координаты - по-прежнему ошибка валидации
	resp, env = do(t, app, http.MethodGet, "/api/v1/places/nearby?lat=39.9&radius_km=5", nil)
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	require.NotNil(t, env.Error)
	assert.Equal(t, "is required", env.Error.Details["lon"])
}

func TestServer_HelpRequestTransitions(t *testing.T) {
	app := newTestServer(t)

	resp, env := do(t, app, http.MethodPost, "/api/v1/help-requests", map[string]interface{}{
		"lat":                  testhelpers.Getafe.Lat,
		"lon":                  testhelpers.Getafe.Lon,
		"location_description": "Area de servicio km 12 A-4",
		"problem_type":         "flat_tire",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	id := createdID(t, env)

	resp, env = do(t, app, http.MethodPost, fmt.Sprintf("/api/v1/help-requests/%d/complete", id), nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	require.NotNil(t, env.Error)
	assert.Equal(t, "INVALID_TRANSITION", env.Error.Code)

	resp, _ = do(t, app, http.MethodPost, fmt.Sprintf("/api/v1/help-requests/%d/cancel", id), nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = do(t, app, http.MethodPost, fmt.Sprintf("/api/v1/help-requests/%d/cancel", id), nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestServer_RestrictionAlerts(t *testing.T) {
	app := newTestServer(t)

	resp, _ := do(t, app, http.MethodPost, "/api/v1/restrictions", map[string]interface{}{
		"name":       "Puente bajo M-30",
		"type":       "height",
		"lat":        testhelpers.Madrid.Lat,
		"lon":        testhelpers.Madrid.Lon,
		"max_height": 3.5,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, _ = do(t, app, http.MethodPut, "/api/v1/settings/vehicle", map[string]interface{}{
		"vehicle_type": "truck_large",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// ~2 km к северу от ограничения
	path := fmt.Sprintf("/api/v1/restrictions/alerts?lat=%f&lon=%f&radius_km=5", testhelpers.Madrid.Lat+0.018, testhelpers.Madrid.Lon)
	resp, env := do(t, app, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var alerts struct {
		Total  int `json:"total"`
		Alerts []struct {
			Severity string `json:"severity"`
		} `json:"alerts"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &alerts))
	require.Equal(t, 1, alerts.Total)
	assert.Equal(t, "high", alerts.Alerts[0].Severity)

	// явная высота из запроса важнее профиля ТС
	resp, env = do(t, app, http.MethodGet, path+"&height=3.0", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(env.Data, &alerts))
	assert.Zero(t, alerts.Total)
}

func TestServer_LedgerSyncLocal(t *testing.T) {
	app := newTestServer(t)

	resp, _ := do(t, app, http.MethodPost, "/api/v1/places", map[string]interface{}{
		"name":     "Gasolinera Repsol",
		"category": "gas_station",
		"lat":      testhelpers.Alcala.Lat,
		"lon":      testhelpers.Alcala.Lon,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, env := do(t, app, http.MethodGet, "/api/v1/contributions/stats", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var stats struct {
		Total    int64 `json:"total"`
		Unsynced int64 `json:"unsynced"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &stats))
	assert.Equal(t, int64(1), stats.Total)
	assert.Equal(t, int64(1), stats.Unsynced)

	resp, env = do(t, app, http.MethodPost, "/api/v1/contributions/sync", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var sync struct {
		Synced int64 `json:"synced"`
		Remote bool  `json:"remote"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &sync))
	assert.Equal(t, int64(1), sync.Synced)
	assert.False(t, sync.Remote)

	resp, env = do(t, app, http.MethodGet, "/api/v1/contributions/stats", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(env.Data, &stats))
	assert.Zero(t, stats.Unsynced)
}

func TestServer_Metrics(t *testing.T) {
	app := newTestServer(t)

	do(t, app, http.MethodGet, "/api/v1/health", nil)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "siempreabierto_http_requests_total")
}
