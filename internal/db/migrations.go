package db

import (
	"fmt"

	"gorm.io/gorm"
)

var migrationStatements = []string{
	`CREATE TABLE IF NOT EXISTS monitored_plates (
		id              BIGSERIAL PRIMARY KEY,
		plate_number    TEXT NOT NULL,
		status          TEXT NOT NULL,
		description     TEXT,
		owner_name      TEXT,
		vehicle_model   TEXT,
		vehicle_color   TEXT,
		is_active       BOOLEAN NOT NULL DEFAULT true,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_monitored_plates_number ON monitored_plates(plate_number) WHERE is_active;`,
	`CREATE TABLE IF NOT EXISTS cameras (
		id              BIGSERIAL PRIMARY KEY,
		name            TEXT NOT NULL,
		location        TEXT,
		latitude        NUMERIC(10,8),
		longitude       NUMERIC(11,8),
		is_active       BOOLEAN NOT NULL DEFAULT true,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
	);`,
	`CREATE TABLE IF NOT EXISTS detections (
		id                  BIGSERIAL PRIMARY KEY,
		plate_number        TEXT,
		camera_id           BIGINT REFERENCES cameras(id),
		image_path          TEXT,
		confidence_score    NUMERIC(5,2),
		latitude            NUMERIC(10,8),
		longitude           NUMERIC(11,8),
		is_monitored        BOOLEAN NOT NULL DEFAULT false,
		monitored_plate_id  BIGINT REFERENCES monitored_plates(id),
		alert_sent          BOOLEAN NOT NULL DEFAULT false,
		ocr_meta            JSONB,
		created_at          TIMESTAMPTZ NOT NULL DEFAULT now()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_detections_plate_number ON detections(plate_number);`,
	`CREATE INDEX IF NOT EXISTS idx_detections_created_at ON detections(created_at);`,
	`CREATE TABLE IF NOT EXISTS alerts (
		id                  BIGSERIAL PRIMARY KEY,
		detection_id        BIGINT REFERENCES detections(id),
		monitored_plate_id  BIGINT REFERENCES monitored_plates(id),
		channel             TEXT NOT NULL,
		recipient           TEXT,
		message             TEXT,
		status              TEXT NOT NULL DEFAULT 'sent',
		created_at          TIMESTAMPTZ NOT NULL DEFAULT now()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_alerts_detection_id ON alerts(detection_id);`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM cameras) THEN
			INSERT INTO cameras (name, location, latitude, longitude) VALUES ('Camera Mobile', 'Mobile surveillance', -23.5505, -46.6333);
		END IF;
	END
	$$;`,
}

func runMigrations(db *gorm.DB) error {
	for i, stmt := range migrationStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
