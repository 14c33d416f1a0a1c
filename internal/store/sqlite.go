package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/rotisserie/eris"

	"github.com/Simplici0/quickestimate/internal/db"
	"github.com/Simplici0/quickestimate/internal/lead"
	"github.com/Simplici0/quickestimate/internal/migrations"
	"github.com/Simplici0/quickestimate/internal/pricing"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLite opens the SQLite database at path.
func NewSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, eris.New("sqlite: empty database path")
	}
	conn, err := db.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	return &SQLiteStore{db: conn, now: time.Now}, nil
}

func (s *SQLiteStore) Driver() string { return DriverSQLite }

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	return migrations.Up(ctx, s.db, migrations.SQLite)
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) GetSettings(ctx context.Context) (pricing.Settings, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM app_settings WHERE key = ?`, settingsKey).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return pricing.Settings{}, eris.Wrap(ErrNotFound, "sqlite: get settings")
	}
	if err != nil {
		return pricing.Settings{}, eris.Wrap(err, "sqlite: get settings")
	}
	settings, err := unmarshalSettings([]byte(raw))
	if err != nil {
		return pricing.Settings{}, eris.Wrap(err, "sqlite: get settings")
	}
	return settings, nil
}

func (s *SQLiteStore) ReplaceSettings(ctx context.Context, settings pricing.Settings) error {
	raw, err := json.Marshal(settings)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal settings")
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO app_settings (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, settingsKey, string(raw), s.now().UTC())
	return eris.Wrap(err, "sqlite: replace settings")
}

func (s *SQLiteStore) EnsureSettings(ctx context.Context, defaults pricing.Settings) (bool, error) {
	raw, err := json.Marshal(defaults)
	if err != nil {
		return false, eris.Wrap(err, "sqlite: marshal settings")
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO app_settings (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (key) DO NOTHING
	`, settingsKey, string(raw), s.now().UTC())
	if err != nil {
		return false, eris.Wrap(err, "sqlite: ensure settings")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, eris.Wrap(err, "sqlite: ensure settings rows affected")
	}
	return n > 0, nil
}

func (s *SQLiteStore) CreateLead(ctx context.Context, sub lead.Submission) (int64, error) {
	snap, err := marshalSnapshot(sub)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: create lead")
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO leads (created_at, name, phone, email, zip, project_type, photos_json, inputs_json, estimate_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		s.now().UTC(), sub.Name, sub.Phone, sub.Email, sub.Zip, string(sub.Inputs.ProjectType),
		string(snap.photos), string(snap.inputs), string(snap.estimate),
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: insert lead")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: lead id")
	}
	return id, nil
}

func (s *SQLiteStore) ListLeads(ctx context.Context, filter LeadFilter) ([]lead.Summary, error) {
	query := `SELECT id, created_at, name, phone, email, zip, project_type FROM leads`
	var args []any
	if filter.ProjectType != "" {
		query += ` WHERE project_type = ?`
		args = append(args, filter.ProjectType)
	}
	query += ` ORDER BY created_at DESC, id DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, filter.Limit, max(filter.Offset, 0))
	} else if filter.Offset > 0 {
		query += ` LIMIT -1 OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list leads")
	}
	defer rows.Close()

	leads := []lead.Summary{}
	for rows.Next() {
		summary, err := scanSummary(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan lead")
		}
		leads = append(leads, summary)
	}
	return leads, eris.Wrap(rows.Err(), "sqlite: iterate leads")
}

func (s *SQLiteStore) ListLeadRecords(ctx context.Context) ([]lead.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, created_at, name, phone, email, zip, project_type, photos_json, inputs_json, estimate_json
		FROM leads
		ORDER BY created_at DESC, id DESC
	`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list lead records")
	}
	defer rows.Close()

	records := []lead.Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan lead record")
		}
		records = append(records, rec)
	}
	return records, eris.Wrap(rows.Err(), "sqlite: iterate lead records")
}

func (s *SQLiteStore) GetLead(ctx context.Context, id int64) (*lead.Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, created_at, name, phone, email, zip, project_type, photos_json, inputs_json, estimate_json
		FROM leads
		WHERE id = ?
	`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "sqlite: get lead %d", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get lead %d", id)
	}
	return &rec, nil
}

func (s *SQLiteStore) CreateSession(ctx context.Context, tokenHash string, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO admin_sessions (token_hash, created_at, expires_at) VALUES (?, ?, ?)`,
		tokenHash, s.now().UTC(), expiresAt.UTC(),
	)
	return eris.Wrap(err, "sqlite: insert session")
}

func (s *SQLiteStore) DeleteSession(ctx context.Context, tokenHash string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM admin_sessions WHERE token_hash = ?`, tokenHash)
	return eris.Wrap(err, "sqlite: delete session")
}

func (s *SQLiteStore) IsSessionValid(ctx context.Context, tokenHash string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM admin_sessions WHERE token_hash = ? AND expires_at > ? LIMIT 1`,
		tokenHash, s.now().UTC(),
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, eris.Wrap(err, "sqlite: check session")
	}
	return true, nil
}

func (s *SQLiteStore) PruneExpiredSessions(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM admin_sessions WHERE expires_at <= ?`, s.now().UTC())
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prune sessions")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prune sessions rows affected")
	}
	return n, nil
}
