package database

import (
	"context"
	"database/sql"
)

// schema lists every table the server needs, in dependency order.
// Statements are idempotent so Migrate can run on every boot.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		username      VARCHAR(64)  NOT NULL UNIQUE,
		password_hash VARCHAR(100) NOT NULL,
		role          VARCHAR(16)  NOT NULL,
		student_no    VARCHAR(32)  NULL,
		is_active     TINYINT(1)   NOT NULL DEFAULT 1,
		created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id          BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		user_id     BIGINT UNSIGNED NOT NULL,
		token_hash  CHAR(64)  NOT NULL UNIQUE,
		expires_at  DATETIME  NOT NULL,
		revoked_at  DATETIME  NULL
	)`,
	`CREATE TABLE IF NOT EXISTS buildings (
		id              BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		name            VARCHAR(64)  NOT NULL UNIQUE,
		location        VARCHAR(255) NOT NULL DEFAULT '',
		manager_contact VARCHAR(64)  NOT NULL DEFAULT '',
		created_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS rooms (
		id           BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		building_id  BIGINT UNSIGNED NOT NULL,
		room_number  VARCHAR(32) NOT NULL,
		capacity     INT NOT NULL,
		room_type    VARCHAR(32) NOT NULL DEFAULT '',
		created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		UNIQUE KEY uq_rooms_building_number (building_id, room_number),
		CONSTRAINT fk_rooms_building FOREIGN KEY (building_id) REFERENCES buildings(id)
	)`,
	`CREATE TABLE IF NOT EXISTS beds (
		id          BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		room_id     BIGINT UNSIGNED NOT NULL,
		bed_number  VARCHAR(16) NOT NULL,
		status      VARCHAR(16) NOT NULL DEFAULT 'AVAILABLE',
		student_no  VARCHAR(32) NULL,
		created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		UNIQUE KEY uq_beds_room_number (room_id, bed_number),
		UNIQUE KEY ix_beds_student (student_no),
		CONSTRAINT fk_beds_room FOREIGN KEY (room_id) REFERENCES rooms(id)
	)`,
	`CREATE TABLE IF NOT EXISTS students (
		student_no     VARCHAR(32) PRIMARY KEY,
		name           VARCHAR(64) NOT NULL,
		gender         VARCHAR(8)  NOT NULL,
		phone          VARCHAR(32) NOT NULL DEFAULT '',
		major          VARCHAR(64) NOT NULL DEFAULT '',
		dorm_building  VARCHAR(64) NULL,
		room_number    VARCHAR(32) NULL,
		bed_number     VARCHAR(16) NULL,
		created_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS room_applications (
		id            BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		student_no    VARCHAR(32) NOT NULL,
		bed_id        BIGINT UNSIGNED NOT NULL,
		status        VARCHAR(16) NOT NULL DEFAULT 'PENDING',
		apply_time    DATETIME NOT NULL,
		process_time  DATETIME NULL,
		processed_by  VARCHAR(64) NULL,
		reject_reason VARCHAR(255) NULL,
		KEY ix_applications_student_status (student_no, status),
		KEY ix_applications_status (status),
		CONSTRAINT fk_applications_bed FOREIGN KEY (bed_id) REFERENCES beds(id)
	)`,
	`CREATE TABLE IF NOT EXISTS stay_records (
		id             BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		student_no     VARCHAR(32) NOT NULL,
		bed_id         BIGINT UNSIGNED NOT NULL,
		check_in_date  DATE NOT NULL,
		check_out_date DATE NULL,
		status         VARCHAR(24) NOT NULL DEFAULT 'CURRENTLY_LIVING',
		KEY ix_stays_student_status (student_no, status)
	)`,
	`CREATE TABLE IF NOT EXISTS audit_logs (
		id          BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		actor       VARCHAR(64)  NOT NULL,
		action      VARCHAR(48)  NOT NULL,
		student_no  VARCHAR(32)  NOT NULL,
		bed_id      BIGINT UNSIGNED NOT NULL,
		detail      VARCHAR(255) NOT NULL DEFAULT '',
		created_at  DATETIME NOT NULL
	)`,
}

// Migrate creates any missing tables.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
