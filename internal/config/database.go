package config

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/rs/zerolog"
)

// SetupDatabase initializes the database connection pool
func SetupDatabase(cfg *Config) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", cfg.Database.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	return db, nil
}

// RoomSeed is a room row inserted by Migrate when the rooms table is empty.
type RoomSeed struct {
	Class     string
	DailyRate int64
}

// Migrate creates the tables if they don't exist and seeds the given rooms
// into an empty rooms table.
func Migrate(db *sqlx.DB, rooms []RoomSeed, logger zerolog.Logger) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS patients (
			id BIGSERIAL PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			address TEXT NOT NULL DEFAULT '',
			contact VARCHAR(64) NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS rooms (
			id BIGSERIAL PRIMARY KEY,
			class VARCHAR(32) NOT NULL,
			daily_rate BIGINT NOT NULL CHECK (daily_rate > 0)
		)`,
		`CREATE TABLE IF NOT EXISTS stays (
			id BIGSERIAL PRIMARY KEY,
			patient_id BIGINT NOT NULL REFERENCES patients(id),
			room_id BIGINT NOT NULL REFERENCES rooms(id),
			check_in DATE NOT NULL,
			check_out DATE NOT NULL
		)`,
		// ids come from the application's gap allocator, not a sequence
		`CREATE TABLE IF NOT EXISTS transactions (
			id BIGINT PRIMARY KEY,
			patient_id BIGINT NOT NULL REFERENCES patients(id),
			total BIGINT NOT NULL CHECK (total >= 0),
			paid BOOLEAN NOT NULL DEFAULT FALSE,
			date DATE NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS users (
			id BIGSERIAL PRIMARY KEY,
			username VARCHAR(64) UNIQUE NOT NULL,
			email VARCHAR(255) UNIQUE NOT NULL,
			password VARCHAR(255) NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,
	}

	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create tables: %w", err)
		}
	}

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_transactions_patient_id ON transactions(patient_id)",
		"CREATE INDEX IF NOT EXISTS idx_stays_patient_id ON stays(patient_id)",
	}
	for _, idx := range indexes {
		if _, err := db.Exec(idx); err != nil {
			// indexes are not critical
			logger.Warn().Err(err).Str("statement", idx).Msg("failed to create index")
		}
	}

	var count int
	if err := db.Get(&count, "SELECT COUNT(*) FROM rooms"); err != nil {
		return fmt.Errorf("failed to count rooms: %w", err)
	}
	if count > 0 {
		return nil
	}
	for _, r := range rooms {
		if _, err := db.Exec("INSERT INTO rooms (class, daily_rate) VALUES ($1, $2)", r.Class, r.DailyRate); err != nil {
			return fmt.Errorf("failed to seed rooms: %w", err)
		}
	}
	logger.Info().Int("rooms", len(rooms)).Msg("seeded room classes")

	return nil
}
