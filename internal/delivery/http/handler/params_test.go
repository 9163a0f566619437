package handler

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/siempreabierto/internal/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseID(t *testing.T) {
	tests := []struct {
		path    string
		want    int64
		wantErr bool
	}{
		{"/items/42", 42, false},
		{"/items/0", 0, true},
		{"/items/-3", 0, true},
		{"/items/abc", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			app := fiber.New()
			var got int64
			var gotErr error
			app.Get("/items/:id", func(c *fiber.Ctx) error {
				got, gotErr = parseID(c)
				return nil
			})

			_, err := app.Test(httptest.NewRequest("GET", tt.path, nil))
			require.NoError(t, err)
			if tt.wantErr {
				assert.True(t, errors.Is(gotErr, errors.ErrInvalidRequest))
				return
			}
			require.NoError(t, gotErr)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestQueryLimit(t *testing.T) {
	tests := map[string]int{
		"/":            defaultListLimit,
		"/?limit=10":   10,
		"/?limit=0":    defaultListLimit,
		"/?limit=-5":   defaultListLimit,
		"/?limit=9999": maxListLimit,
	}

	for path, want := range tests {
		t.Run(path, func(t *testing.T) {
			app := fiber.New()
			var got int
			app.Get("/", func(c *fiber.Ctx) error {
				got = queryLimit(c)
				return nil
			})

			_, err := app.Test(httptest.NewRequest("GET", path, nil))
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestParseBody(t *testing.T) {
	type payload struct {
		Name string `json:"name" validate:"required,min=2"`
	}

	tests := []struct {
		name     string
		body     string
		wantCode string
	}{
		{"valid", `{"name":"Paco"}`, ""},
		{"malformed", `{"name":`, "INVALID_REQUEST"},
		{"empty body fails validation", "", "VALIDATION_ERROR"},
		{"too short", `{"name":"P"}`, "VALIDATION_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			var gotErr error
			app.Post("/", func(c *fiber.Ctx) error {
				var p payload
				gotErr = parseBody(c, &p)
				return nil
			})

			req := httptest.NewRequest("POST", "/", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			_, err := app.Test(req)
			require.NoError(t, err)

			if tt.wantCode == "" {
				assert.NoError(t, gotErr)
				return
			}
			var appErr *errors.AppError
			require.ErrorAs(t, gotErr, &appErr)
			assert.Equal(t, tt.wantCode, appErr.Code)
		})
	}
}
