package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/rotisserie/eris"

	"github.com/Simplici0/quickestimate/internal/db"
	"github.com/Simplici0/quickestimate/internal/lead"
	"github.com/Simplici0/quickestimate/internal/migrations"
	"github.com/Simplici0/quickestimate/internal/pricing"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	sqlDB   *sql.DB
	closeFn func()
	now     func() time.Time
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(1)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}

	sqlDB := stdlib.OpenDBFromPool(pool)
	return &PostgresStore{
		pool:  pool,
		sqlDB: sqlDB,
		closeFn: func() {
			sqlDB.Close() //nolint:errcheck
			pool.Close()
		},
		now: time.Now,
	}, nil
}

// withSSLMode requires TLS on connString unless it already names an sslmode.
func withSSLMode(connString string) string {
	if strings.Contains(connString, "sslmode=") {
		return connString
	}
	if u, err := url.Parse(connString); err == nil && (u.Scheme == "postgres" || u.Scheme == "postgresql") {
		q := u.Query()
		q.Set("sslmode", "require")
		u.RawQuery = q.Encode()
		return u.String()
	}
	return strings.TrimSpace(connString + " sslmode=require")
}

func (s *PostgresStore) Driver() string { return DriverPostgres }

func (s *PostgresStore) Migrate(ctx context.Context) error {
	if s.sqlDB == nil {
		return eris.New("postgres: migrate requires a database/sql handle")
	}
	return migrations.Up(ctx, s.sqlDB, migrations.Postgres)
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) GetSettings(ctx context.Context) (pricing.Settings, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx, `SELECT value FROM app_settings WHERE key = $1`, settingsKey).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return pricing.Settings{}, eris.Wrap(ErrNotFound, "postgres: get settings")
	}
	if err != nil {
		return pricing.Settings{}, eris.Wrap(err, "postgres: get settings")
	}
	settings, err := unmarshalSettings(raw)
	if err != nil {
		return pricing.Settings{}, eris.Wrap(err, "postgres: get settings")
	}
	return settings, nil
}

func (s *PostgresStore) ReplaceSettings(ctx context.Context, settings pricing.Settings) error {
	raw, err := json.Marshal(settings)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal settings")
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO app_settings (key, value, updated_at) VALUES ($1, $2::jsonb, $3)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
	`, settingsKey, string(raw), s.now().UTC())
	return eris.Wrap(err, "postgres: replace settings")
}

func (s *PostgresStore) EnsureSettings(ctx context.Context, defaults pricing.Settings) (bool, error) {
	raw, err := json.Marshal(defaults)
	if err != nil {
		return false, eris.Wrap(err, "postgres: marshal settings")
	}
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO app_settings (key, value, updated_at) VALUES ($1, $2::jsonb, $3)
		ON CONFLICT (key) DO NOTHING
	`, settingsKey, string(raw), s.now().UTC())
	if err != nil {
		return false, eris.Wrap(err, "postgres: ensure settings")
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PostgresStore) CreateLead(ctx context.Context, sub lead.Submission) (int64, error) {
	snap, err := marshalSnapshot(sub)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: create lead")
	}

	var id int64
	err = s.pool.QueryRow(ctx, `
		INSERT INTO leads (created_at, name, phone, email, zip, project_type, photos_json, inputs_json, estimate_json)
		VALUES ($1, $2, $3, $4, $5, $6, $7::json, $8::json, $9::json)
		RETURNING id
	`,
		s.now().UTC(), sub.Name, sub.Phone, sub.Email, sub.Zip, string(sub.Inputs.ProjectType),
		string(snap.photos), string(snap.inputs), string(snap.estimate),
	).Scan(&id)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: insert lead")
	}
	return id, nil
}

func (s *PostgresStore) ListLeads(ctx context.Context, filter LeadFilter) ([]lead.Summary, error) {
	query := `SELECT id, created_at, name, phone, email, zip, project_type FROM leads`
	var args []any
	if filter.ProjectType != "" {
		args = append(args, filter.ProjectType)
		query += ` WHERE project_type = $1`
	}
	query += ` ORDER BY created_at DESC, id DESC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += ` LIMIT $` + strconv.Itoa(len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += ` OFFSET $` + strconv.Itoa(len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list leads")
	}
	defer rows.Close()

	leads := []lead.Summary{}
	for rows.Next() {
		summary, err := scanSummary(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan lead")
		}
		leads = append(leads, summary)
	}
	return leads, eris.Wrap(rows.Err(), "postgres: iterate leads")
}

func (s *PostgresStore) ListLeadRecords(ctx context.Context) ([]lead.Record, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, created_at, name, phone, email, zip, project_type,
			photos_json::text, inputs_json::text, estimate_json::text
		FROM leads
		ORDER BY created_at DESC, id DESC
	`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list lead records")
	}
	defer rows.Close()

	records := []lead.Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan lead record")
		}
		records = append(records, rec)
	}
	return records, eris.Wrap(rows.Err(), "postgres: iterate lead records")
}

func (s *PostgresStore) GetLead(ctx context.Context, id int64) (*lead.Record, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, created_at, name, phone, email, zip, project_type,
			photos_json::text, inputs_json::text, estimate_json::text
		FROM leads
		WHERE id = $1
	`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "postgres: get lead %d", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get lead %d", id)
	}
	return &rec, nil
}

func (s *PostgresStore) CreateSession(ctx context.Context, tokenHash string, expiresAt time.Time) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO admin_sessions (token_hash, created_at, expires_at) VALUES ($1, $2, $3)`,
		tokenHash, s.now().UTC(), expiresAt.UTC(),
	)
	return eris.Wrap(err, "postgres: insert session")
}

func (s *PostgresStore) DeleteSession(ctx context.Context, tokenHash string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM admin_sessions WHERE token_hash = $1`, tokenHash)
	return eris.Wrap(err, "postgres: delete session")
}

func (s *PostgresStore) IsSessionValid(ctx context.Context, tokenHash string) (bool, error) {
	var one int
	err := s.pool.QueryRow(ctx,
		`SELECT 1 FROM admin_sessions WHERE token_hash = $1 AND expires_at > $2 LIMIT 1`,
		tokenHash, s.now().UTC(),
	).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, eris.Wrap(err, "postgres: check session")
	}
	return true, nil
}

func (s *PostgresStore) PruneExpiredSessions(ctx context.Context) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM admin_sessions WHERE expires_at <= $1`, s.now().UTC())
	if err != nil {
		return 0, eris.Wrap(err, "postgres: prune sessions")
	}
	return tag.RowsAffected(), nil
}
