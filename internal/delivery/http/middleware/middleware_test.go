package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogger_LevelByStatus(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)

	app := fiber.New()
	app.Use(Logger(zap.New(core)))
	app.Get("/ok", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })
	app.Get("/bad", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusBadRequest) })
	app.Get("/boom", func(c *fiber.Ctx) error { return fiber.ErrServiceUnavailable })

	for _, path := range []string{"/ok", "/bad", "/boom"} {
		_, err := app.Test(httptest.NewRequest("GET", path, nil))
		require.NoError(t, err)
	}

	entries := logs.All()
	require.Len(t, entries, 3)
	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, zapcore.ErrorLevel, entries[2].Level)
	assert.Equal(t, int64(fiber.StatusServiceUnavailable), entries[2].ContextMap()["status"])
}

func TestRecovery(t *testing.T) {
	app := fiber.New()
	app.Use(Recovery())
	app.Get("/", func(c *fiber.Ctx) error { panic("boom") })

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
}

func TestCORS(t *testing.T) {
	tests := []struct {
		name    string
		allowed string
		origin  string
		want    string
	}{
		{"any origin", "", "http://example.com", "*"},
		{"listed origin", "http://localhost:3000", "http://localhost:3000", "http://localhost:3000"},
		{"unlisted origin", "http://localhost:3000", "http://evil.example", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Use(CORS(tt.allowed))
			app.Get("/", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

			req := httptest.NewRequest("GET", "/", nil)
			req.Header.Set("Origin", tt.origin)
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.Header.Get("Access-Control-Allow-Origin"))
		})
	}
}

func TestMetrics_LabelsSurviveRequestBuffers(t *testing.T) {
	app := fiber.New()
	app.Use(Metrics())
	app.Get("/metrics-labels/:id", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })
	app.Post("/metrics-labels", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusCreated) })
	app.Delete("/metrics-labels/:id", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) })

	for i := 0; i < 5; i++ {
		for _, r := range []struct{ method, path string }{
			{"POST", "/metrics-labels"},
			{"GET", "/metrics-labels/1"},
			{"DELETE", "/metrics-labels/1"},
			{"GET", "/metrics-labels/2"},
		} {
			_, err := app.Test(httptest.NewRequest(r.method, r.path, nil))
			require.NoError(t, err)
		}
	}

	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)

	methods := map[string]bool{}
	for _, mf := range families {
		if mf.GetName() != "siempreabierto_http_requests_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() == "method" {
					methods[l.GetValue()] = true
				}
			}
		}
	}
	assert.Equal(t, map[string]bool{"GET": true, "POST": true, "DELETE": true}, methods)
}
