package errors

import "net/http"

var (
	ErrNotFound = New(
		"NOT_FOUND",
		"Record not found",
		http.StatusNotFound,
	)

	ErrPlaceNotFound = New(
		"PLACE_NOT_FOUND",
		"Place not found",
		http.StatusNotFound,
	)

	ErrRestrictionNotFound = New(
		"RESTRICTION_NOT_FOUND",
		"Restriction not found",
		http.StatusNotFound,
	)

	ErrHelperNotFound = New(
		"HELPER_NOT_FOUND",
		"Helper not found",
		http.StatusNotFound,
	)

	ErrHelpRequestNotFound = New(
		"HELP_REQUEST_NOT_FOUND",
		"Help request not found",
		http.StatusNotFound,
	)

	ErrRouteNotFound = New(
		"ROUTE_NOT_FOUND",
		"Route not found",
		http.StatusNotFound,
	)

	ErrInvalidCoordinates = New(
		"INVALID_COORDINATES",
		"Invalid coordinates provided",
		http.StatusBadRequest,
	)

	ErrInvalidRadius = New(
		"INVALID_RADIUS",
		"Invalid radius value",
		http.StatusBadRequest,
	)

	ErrInvalidRegion = New(
		"INVALID_REGION",
		"Region could not be determined",
		http.StatusBadRequest,
	)

	ErrInvalidTarget = New(
		"INVALID_TARGET",
		"Invalid contribution target",
		http.StatusBadRequest,
	)

	ErrValidation = New(
		"VALIDATION_ERROR",
		"Validation failed",
		http.StatusUnprocessableEntity,
	)

	ErrInvalidTransition = New(
		"INVALID_TRANSITION",
		"Invalid status transition",
		http.StatusConflict,
	)

	ErrHelperAlreadyExists = New(
		"HELPER_ALREADY_EXISTS",
		"A helper profile already exists for this user",
		http.StatusConflict,
	)

	ErrSettingsNotInitialized = New(
		"SETTINGS_NOT_INITIALIZED",
		"User settings are not initialized",
		http.StatusServiceUnavailable,
	)

	ErrDatabaseError = New(
		"DATABASE_ERROR",
		"Database operation failed",
		http.StatusInternalServerError,
	)

	ErrCacheError = New(
		"CACHE_ERROR",
		"Cache operation failed",
		http.StatusInternalServerError,
	)

	ErrSyncFailed = New(
		"SYNC_FAILED",
		"Contribution sync failed",
		http.StatusBadGateway,
	)

	ErrInvalidRequest = New(
		"INVALID_REQUEST",
		"Invalid request parameters",
		http.StatusBadRequest,
	)

	ErrInternalServer = New(
		"INTERNAL_SERVER_ERROR",
		"Internal server error",
		http.StatusInternalServerError,
	)
)
