package sqlstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/siempreabierto/internal/domain/repository"
	"go.uber.org/zap"
)

const (
	tablePlaces        = repository.TablePlaces
	tableRestrictions  = repository.TableRestrictions
	tableHelpers       = repository.TableHelpers
	tableHelpRequests  = repository.TableHelpRequests
	tableRoutes        = repository.TableRoutes
	tableSettings      = repository.TableSettings
	tableContributions = repository.TableContributions
)

// Tables - все таблицы хранилища
var Tables = []string{
	tablePlaces, tableRestrictions, tableHelpers, tableHelpRequests,
	tableRoutes, tableSettings, tableContributions,
}

// {{pk}} и {{blob}} подставляются в зависимости от диалекта
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS places (
		id {{pk}},
		name TEXT NOT NULL,
		category TEXT NOT NULL,
		subcategory TEXT,
		latitude DOUBLE PRECISION NOT NULL,
		longitude DOUBLE PRECISION NOT NULL,
		address TEXT,
		city TEXT,
		province TEXT,
		region TEXT NOT NULL,
		phone TEXT,
		phone2 TEXT,
		schedule TEXT,
		is_24h BOOLEAN NOT NULL DEFAULT FALSE,
		usually_open TEXT,
		fits_trailer BOOLEAN,
		fits_bus BOOLEAN,
		fits_truck BOOLEAN,
		max_height DOUBLE PRECISION,
		max_width DOUBLE PRECISION,
		max_weight DOUBLE PRECISION,
		price_range TEXT,
		services TEXT,
		notes TEXT,
		contributed_by TEXT NOT NULL,
		source TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		last_confirmed_at TIMESTAMP,
		last_confirmed_by TEXT,
		is_verified BOOLEAN NOT NULL DEFAULT FALSE,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		report_count INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS idx_places_lat_lon ON places (latitude, longitude)`,
	`CREATE INDEX IF NOT EXISTS idx_places_category ON places (category)`,
	`CREATE INDEX IF NOT EXISTS idx_places_region ON places (region)`,

	`CREATE TABLE IF NOT EXISTS restrictions (
		id {{pk}},
		latitude DOUBLE PRECISION NOT NULL,
		longitude DOUBLE PRECISION NOT NULL,
		name TEXT NOT NULL,
		description TEXT,
		road_name TEXT,
		km_point TEXT,
		type TEXT NOT NULL,
		max_height DOUBLE PRECISION,
		max_width DOUBLE PRECISION,
		max_weight DOUBLE PRECISION,
		max_length DOUBLE PRECISION,
		direction TEXT,
		alternative_route TEXT,
		notes TEXT,
		city TEXT,
		province TEXT,
		region TEXT NOT NULL,
		contributed_by TEXT NOT NULL,
		source TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		last_confirmed_at TIMESTAMP,
		last_confirmed_by TEXT,
		is_verified BOOLEAN NOT NULL DEFAULT FALSE,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		report_count INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS idx_restrictions_lat_lon ON restrictions (latitude, longitude)`,

	`CREATE TABLE IF NOT EXISTS helpers (
		id {{pk}},
		nickname TEXT NOT NULL,
		local_user_id TEXT NOT NULL,
		latitude DOUBLE PRECISION NOT NULL,
		longitude DOUBLE PRECISION NOT NULL,
		city TEXT,
		province TEXT,
		region TEXT NOT NULL,
		coverage_radius_km INTEGER NOT NULL,
		phone TEXT,
		phone_visible BOOLEAN NOT NULL DEFAULT FALSE,
		contact_notes TEXT,
		vehicle_type TEXT NOT NULL,
		can_help_with TEXT NOT NULL,
		has_tools BOOLEAN NOT NULL DEFAULT FALSE,
		has_jump_cables BOOLEAN NOT NULL DEFAULT FALSE,
		has_tow_rope BOOLEAN NOT NULL DEFAULT FALSE,
		has_compressor BOOLEAN NOT NULL DEFAULT FALSE,
		is_available BOOLEAN NOT NULL DEFAULT TRUE,
		available_schedule TEXT,
		available_notes TEXT,
		help_count INTEGER NOT NULL DEFAULT 0,
		rating DOUBLE PRECISION,
		rating_count INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		last_active_at TIMESTAMP NOT NULL,
		is_verified BOOLEAN NOT NULL DEFAULT FALSE,
		is_active BOOLEAN NOT NULL DEFAULT TRUE
	)`,
	`CREATE INDEX IF NOT EXISTS idx_helpers_lat_lon ON helpers (latitude, longitude)`,
	`CREATE INDEX IF NOT EXISTS idx_helpers_local_user ON helpers (local_user_id)`,

	`CREATE TABLE IF NOT EXISTS help_requests (
		id {{pk}},
		requester_id TEXT NOT NULL,
		requester_name TEXT,
		requester_phone TEXT,
		latitude DOUBLE PRECISION NOT NULL,
		longitude DOUBLE PRECISION NOT NULL,
		location_description TEXT,
		problem_type TEXT NOT NULL,
		problem_description TEXT,
		vehicle_type TEXT,
		vehicle_description TEXT,
		status TEXT NOT NULL,
		helper_id BIGINT,
		helper_name TEXT,
		created_at TIMESTAMP NOT NULL,
		accepted_at TIMESTAMP,
		completed_at TIMESTAMP,
		was_helpful BOOLEAN,
		rating INTEGER,
		feedback TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_help_requests_status ON help_requests (status)`,

	`CREATE TABLE IF NOT EXISTS routes (
		id {{pk}},
		name TEXT NOT NULL,
		description TEXT,
		geometry {{blob}},
		origin_name TEXT NOT NULL,
		origin_lat DOUBLE PRECISION NOT NULL,
		origin_lon DOUBLE PRECISION NOT NULL,
		destination_name TEXT NOT NULL,
		destination_lat DOUBLE PRECISION NOT NULL,
		destination_lon DOUBLE PRECISION NOT NULL,
		distance_km DOUBLE PRECISION NOT NULL,
		estimated_minutes INTEGER NOT NULL,
		region TEXT,
		toll_roads BOOLEAN NOT NULL DEFAULT FALSE,
		toll_cost DOUBLE PRECISION,
		vehicle_type TEXT NOT NULL,
		suitable_for_truck BOOLEAN NOT NULL DEFAULT FALSE,
		suitable_for_bus BOOLEAN NOT NULL DEFAULT FALSE,
		suitable_for_camper BOOLEAN NOT NULL DEFAULT FALSE,
		has_height_restrictions BOOLEAN NOT NULL DEFAULT FALSE,
		min_height_on_route DOUBLE PRECISION,
		has_weight_restrictions BOOLEAN NOT NULL DEFAULT FALSE,
		max_weight_on_route DOUBLE PRECISION,
		restriction_notes TEXT,
		is_public BOOLEAN NOT NULL DEFAULT TRUE,
		is_community_recommended BOOLEAN NOT NULL DEFAULT FALSE,
		upvotes INTEGER NOT NULL DEFAULT 0,
		downvotes INTEGER NOT NULL DEFAULT 0,
		community_notes TEXT,
		contributed_by TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		is_favorite BOOLEAN NOT NULL DEFAULT FALSE,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		usage_count INTEGER NOT NULL DEFAULT 0,
		last_used_at TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_routes_origin ON routes (origin_lat, origin_lon)`,

	`CREATE TABLE IF NOT EXISTS user_settings (
		id INTEGER PRIMARY KEY,
		local_user_id TEXT NOT NULL,
		nickname TEXT,
		vehicle_type TEXT NOT NULL,
		vehicle_height DOUBLE PRECISION,
		vehicle_width DOUBLE PRECISION,
		vehicle_weight DOUBLE PRECISION,
		vehicle_length DOUBLE PRECISION,
		vehicle_plate TEXT,
		vehicle_description TEXT,
		dark_mode BOOLEAN NOT NULL DEFAULT TRUE,
		map_zoom_default DOUBLE PRECISION NOT NULL,
		show_restrictions_on_map BOOLEAN NOT NULL DEFAULT TRUE,
		show_helpers_on_map BOOLEAN NOT NULL DEFAULT TRUE,
		distance_unit TEXT NOT NULL,
		avoid_tolls BOOLEAN NOT NULL DEFAULT FALSE,
		avoid_highways BOOLEAN NOT NULL DEFAULT FALSE,
		prefer_truck_routes BOOLEAN NOT NULL DEFAULT FALSE,
		notify_restrictions BOOLEAN NOT NULL DEFAULT TRUE,
		notify_nearby_helpers BOOLEAN NOT NULL DEFAULT FALSE,
		restriction_alert_distance INTEGER NOT NULL,
		is_helper BOOLEAN NOT NULL DEFAULT FALSE,
		helper_profile_id BIGINT,
		downloaded_regions TEXT NOT NULL,
		total_contributions INTEGER NOT NULL DEFAULT 0,
		places_added INTEGER NOT NULL DEFAULT 0,
		confirmations_made INTEGER NOT NULL DEFAULT 0,
		help_provided INTEGER NOT NULL DEFAULT 0,
		last_sync_at TIMESTAMP,
		auto_sync BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		accepted_terms_at TIMESTAMP,
		accepted_privacy_at TIMESTAMP
	)`,

	`CREATE TABLE IF NOT EXISTS contributions (
		id {{pk}},
		target_type TEXT NOT NULL,
		target_id BIGINT NOT NULL,
		target_name TEXT,
		action TEXT NOT NULL,
		field_changed TEXT,
		old_value TEXT,
		new_value TEXT,
		notes TEXT,
		user_id TEXT NOT NULL,
		user_name TEXT,
		created_at TIMESTAMP NOT NULL,
		is_synced BOOLEAN NOT NULL DEFAULT FALSE,
		synced_at TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_contributions_target ON contributions (target_type, target_id)`,
	`CREATE INDEX IF NOT EXISTS idx_contributions_user ON contributions (user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_contributions_synced ON contributions (is_synced)`,
}

// Migrate создает таблицы и индексы, если их нет
func (db *DB) Migrate(ctx context.Context) error {
	pk, blob := "INTEGER PRIMARY KEY AUTOINCREMENT", "BLOB"
	if db.IsPostgres() {
		pk, blob = "BIGSERIAL PRIMARY KEY", "BYTEA"
	}
	r := strings.NewReplacer("{{pk}}", pk, "{{blob}}", blob)

	for i, stmt := range migrations {
		if _, err := db.ExecContext(ctx, r.Replace(stmt)); err != nil {
			db.logger.Error("Migration failed", zap.Int("step", i), zap.Error(err))
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}

	db.logger.Info("Database schema ready", zap.Int("statements", len(migrations)))
	return nil
}
