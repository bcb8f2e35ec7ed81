package utils

import (
	"context"
	"errors"
	"fmt"
	"time"

	"heist-bot/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

// Ledger is the durable store behind the heist flow: the currency balance,
// the heist profile, the last /crime settings and the audit log.
type Ledger interface {
	FetchBalance(ctx context.Context, userID int64) (int64, error)
	LoadProfile(ctx context.Context, userID int64) (models.ProfileRecord, error)
	SaveProfile(ctx context.Context, rec models.ProfileRecord) error
	// SettleHeist applies the balance delta, the profile and the audit row
	// together and returns the balance after it. Either all of them land or
	// none do. The balance never drops below zero.
	SettleHeist(ctx context.Context, s models.HeistSettlement) (int64, error)
	// LoadSettings returns nil when the player never configured a heist.
	LoadSettings(ctx context.Context, userID int64) (*models.CrimeSettings, error)
	SaveSettings(ctx context.Context, s models.CrimeSettings) error
}

// Database is the Postgres Ledger.
type Database struct {
	pool *pgxpool.Pool
}

var _ Ledger = (*Database)(nil)

// querier is satisfied by both the pool and a transaction
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS users (
	id          BIGINT PRIMARY KEY,
	balance     BIGINT NOT NULL DEFAULT 0,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS profiles (
	user_id     BIGINT PRIMARY KEY,
	heat        BIGINT NOT NULL DEFAULT 0,
	pp          INT NOT NULL DEFAULT 0,
	thief_skill INT NOT NULL DEFAULT 5,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS crime_settings (
	user_id     BIGINT PRIMARY KEY,
	mode        TEXT NULL,
	risk        TEXT NULL,
	loadout     TEXT[] NOT NULL DEFAULT '{}',
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS logs (
	id          BIGSERIAL PRIMARY KEY,
	user_id     BIGINT NOT NULL,
	action      TEXT NOT NULL,
	target_id   BIGINT NULL,
	amount      BIGINT NULL,
	description TEXT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_logs_user_created ON logs(user_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_logs_action ON logs(action);`

// SetupDatabase opens the pool, checks connectivity and bootstraps the schema
func SetupDatabase(ctx context.Context, cfg *Config) (*Database, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	poolCfg.MaxConns = cfg.DBMaxConn
	poolCfg.MinConns = 1
	poolCfg.MaxConnLifetime = 45 * time.Minute
	poolCfg.MaxConnIdleTime = 5 * time.Minute
	poolCfg.HealthCheckPeriod = 30 * time.Second
	poolCfg.ConnConfig.RuntimeParams = map[string]string{
		"application_name":                    "heist-bot",
		"timezone":                            "UTC",
		"statement_timeout":                   "30s",
		"idle_in_transaction_session_timeout": "60s",
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to reach database: %w", err)
	}

	db := &Database{pool: pool}
	if err := db.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return db, nil
}

// EnsureSchema creates the tables if they do not exist yet
func (d *Database) EnsureSchema(ctx context.Context) error {
	if _, err := d.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close releases the pool
func (d *Database) Close() {
	if d.pool != nil {
		d.pool.Close()
	}
}

// Ping checks the pool for /health.
func (d *Database) Ping(ctx context.Context) error {
	return d.pool.Ping(ctx)
}

func ensureUser(ctx context.Context, q querier, userID int64) error {
	_, err := q.Exec(ctx, `INSERT INTO users (id, balance) VALUES ($1, 0) ON CONFLICT (id) DO NOTHING`, userID)
	if err != nil {
		return fmt.Errorf("failed to create user %d: %w", userID, err)
	}
	return nil
}

// FetchBalance returns the ledger balance, creating the row at zero
func (d *Database) FetchBalance(ctx context.Context, userID int64) (int64, error) {
	if err := ensureUser(ctx, d.pool, userID); err != nil {
		return 0, err
	}
	var balance int64
	if err := d.pool.QueryRow(ctx, `SELECT balance FROM users WHERE id = $1`, userID).Scan(&balance); err != nil {
		return 0, fmt.Errorf("failed to fetch balance: %w", err)
	}
	return balance, nil
}

// SettleHeist writes one resolution in a single transaction. The balance
// update is one statement so concurrent writers never lose an update.
func (d *Database) SettleHeist(ctx context.Context, s models.HeistSettlement) (int64, error) {
	if err := s.Validate(); err != nil {
		return 0, err
	}
	userID := s.Profile.UserID

	var balance int64
	err := pgx.BeginFunc(ctx, d.pool, func(tx pgx.Tx) error {
		if err := ensureUser(ctx, tx, userID); err != nil {
			return err
		}
		err := tx.QueryRow(ctx, `
			UPDATE users
			SET balance = GREATEST(balance + $2, 0), updated_at = now()
			WHERE id = $1
			RETURNING balance`, userID, s.Delta).Scan(&balance)
		if err != nil {
			return fmt.Errorf("failed to apply balance delta: %w", err)
		}
		if err := saveProfile(ctx, tx, s.Profile); err != nil {
			return err
		}
		return insertLog(ctx, tx, s.Log)
	})
	if err != nil {
		return 0, fmt.Errorf("failed to settle heist for %d: %w", userID, err)
	}

	log.Debug().Int64("user_id", userID).Int64("delta", s.Delta).Int64("balance", balance).Msg("heist settled")
	return balance, nil
}

// LoadProfile returns the stored profile or a fresh default one
func (d *Database) LoadProfile(ctx context.Context, userID int64) (models.ProfileRecord, error) {
	rec := models.ProfileRecord{UserID: userID}
	err := d.pool.QueryRow(ctx, `
		SELECT heat, pp, thief_skill, updated_at
		FROM profiles WHERE user_id = $1`, userID).Scan(&rec.Heat, &rec.PP, &rec.ThiefSkill, &rec.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.NewProfileRecord(userID), nil
	}
	if err != nil {
		return models.ProfileRecord{}, fmt.Errorf("failed to load profile: %w", err)
	}
	return rec, nil
}

// SaveProfile upserts the heist progression of a player
func (d *Database) SaveProfile(ctx context.Context, rec models.ProfileRecord) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	return saveProfile(ctx, d.pool, rec)
}

func saveProfile(ctx context.Context, q querier, rec models.ProfileRecord) error {
	_, err := q.Exec(ctx, `
		INSERT INTO profiles (user_id, heat, pp, thief_skill)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO UPDATE
		SET heat = EXCLUDED.heat,
		    pp = EXCLUDED.pp,
		    thief_skill = EXCLUDED.thief_skill,
		    updated_at = now()`, rec.UserID, rec.Heat, rec.PP, rec.ThiefSkill)
	if err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}

// LoadSettings returns the last saved /crime configuration
func (d *Database) LoadSettings(ctx context.Context, userID int64) (*models.CrimeSettings, error) {
	var mode, risk *string
	var loadout []string
	var updated time.Time
	err := d.pool.QueryRow(ctx, `
		SELECT mode, risk, loadout, updated_at
		FROM crime_settings WHERE user_id = $1`, userID).Scan(&mode, &risk, &loadout, &updated)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load crime settings: %w", err)
	}

	s := &models.CrimeSettings{UserID: userID, Loadout: loadout, UpdatedAt: updated}
	if mode != nil {
		s.Mode = *mode
	}
	if risk != nil {
		s.Risk = *risk
	}
	return s, nil
}

// SaveSettings upserts the /crime configuration of a player
func (d *Database) SaveSettings(ctx context.Context, s models.CrimeSettings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	loadout := s.Loadout
	if loadout == nil {
		loadout = []string{}
	}
	_, err := d.pool.Exec(ctx, `
		INSERT INTO crime_settings (user_id, mode, risk, loadout, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (user_id) DO UPDATE
		SET mode = EXCLUDED.mode,
		    risk = EXCLUDED.risk,
		    loadout = EXCLUDED.loadout,
		    updated_at = now()`, s.UserID, nullIfEmpty(s.Mode), nullIfEmpty(s.Risk), loadout)
	if err != nil {
		return fmt.Errorf("failed to save crime settings: %w", err)
	}
	return nil
}

func insertLog(ctx context.Context, q querier, entry models.ActionLog) error {
	_, err := q.Exec(ctx, `
		INSERT INTO logs (user_id, action, target_id, amount, description, created_at)
		VALUES ($1, $2, $3, $4, $5, now())`,
		entry.UserID, entry.Action, entry.TargetID, entry.Amount, nullIfEmpty(entry.Description))
	if err != nil {
		return fmt.Errorf("failed to log action %s: %w", entry.Action, err)
	}
	return nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
