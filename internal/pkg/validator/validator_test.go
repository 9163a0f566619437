package validator

import (
	"testing"

	apperrors "github.com/siempreabierto/internal/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type helpForm struct {
	Location string `json:"location_description" validate:"required,public_location"`
	Region   string `json:"region" validate:"omitempty,region"`
	Category string `json:"category" validate:"omitempty,category"`
}

func TestCheckPublicLocation(t *testing.T) {
	tests := []struct {
		name string
		text string
		ok   bool
	}{
		{"service area", "Área de servicio A-4 km 23, sentido sur", true},
		{"fuel station", "Gasolinera Repsol salida 12 de la M-40", true},
		{"too short", "km 23", false},
		{"street", "Calle Mayor 5, Getafe centro", false},
		{"abbreviated street", "En c/ Alcalá junto al bar", false},
		{"home", "Delante de mi casa en el pueblo", false},
		{"floor", "Portal 3, piso segundo izquierda", false},
		{"word inside another word", "Parking del polideportivo municipal", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.ok, CheckPublicLocation(tt.text) == "")
		})
	}
}

func TestNoPrivateAddress(t *testing.T) {
	type problemForm struct {
		Description *string `json:"problem_description" validate:"omitempty,no_private_address"`
	}
	text := func(s string) *string { return &s }

	assert.Empty(t, CheckNoPrivateAddress("Sin batería"))
	assert.NotEmpty(t, CheckNoPrivateAddress("Estoy en mi casa, calle Mayor 5, piso 3"))

	require.NoError(t, Validate(&problemForm{}))
	require.NoError(t, Validate(&problemForm{Description: text("Pinchazo, rueda trasera")}))

	err := Validate(&problemForm{Description: text("Estoy en mi casa, calle Mayor 5, piso 3")})
	require.Error(t, err)
	appErr, ok := err.(*apperrors.AppError)
	require.True(t, ok)
	assert.Contains(t, appErr.Details["problem_description"], "public reference point")
}

func TestValidate_ReturnsValidationError(t *testing.T) {
	err := Validate(&helpForm{Location: "Calle Mayor 5, Getafe centro", Region: "atlantis", Category: "spa"})
	require.Error(t, err)

	appErr, ok := err.(*apperrors.AppError)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrValidation.Code, appErr.Code)
	assert.Contains(t, appErr.Details["location_description"], "exact address")
	assert.Equal(t, "unknown region code", appErr.Details["region"])
	assert.Equal(t, "unknown place category", appErr.Details["category"])
}

func TestValidate_Valid(t *testing.T) {
	err := Validate(&helpForm{Location: "Área de servicio A-4 km 23", Region: "madrid", Category: "workshop"})
	assert.NoError(t, err)
}
