// Package store persists pricing settings, captured leads and admin
// sessions. SQLite and Postgres backends are interchangeable behind Store.
package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"

	"github.com/Simplici0/quickestimate/internal/lead"
	"github.com/Simplici0/quickestimate/internal/pricing"
)

// ErrNotFound is wrapped by lookups that match no row.
var ErrNotFound = eris.New("not found")

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// settingsKey is the app_settings row holding the pricing settings document.
const settingsKey = "estimate_settings"

// LeadFilter specifies criteria for listing leads. A zero Limit lists all.
type LeadFilter struct {
	ProjectType string `json:"projectType,omitempty"`
	Limit       int    `json:"limit,omitempty"`
	Offset      int    `json:"offset,omitempty"`
}

// SettingsStore holds the single pricing settings record.
type SettingsStore interface {
	GetSettings(ctx context.Context) (pricing.Settings, error)
	// ReplaceSettings overwrites the whole record. There is no merge.
	ReplaceSettings(ctx context.Context, s pricing.Settings) error
	// EnsureSettings writes defaults when no record exists yet and
	// reports whether it did.
	EnsureSettings(ctx context.Context, defaults pricing.Settings) (bool, error)
}

// LeadStore appends and reads captured leads. Leads are never updated.
type LeadStore interface {
	CreateLead(ctx context.Context, sub lead.Submission) (int64, error)
	ListLeads(ctx context.Context, filter LeadFilter) ([]lead.Summary, error)
	ListLeadRecords(ctx context.Context) ([]lead.Record, error)
	GetLead(ctx context.Context, id int64) (*lead.Record, error)
}

// SessionStore tracks admin sessions by token hash.
type SessionStore interface {
	CreateSession(ctx context.Context, tokenHash string, expiresAt time.Time) error
	DeleteSession(ctx context.Context, tokenHash string) error
	IsSessionValid(ctx context.Context, tokenHash string) (bool, error)
	PruneExpiredSessions(ctx context.Context) (int64, error)
}

// Store defines the persistence interface for the estimator.
type Store interface {
	SettingsStore
	LeadStore
	SessionStore

	// Lifecycle
	Driver() string
	Migrate(ctx context.Context) error
	Close() error
}

// Options selects and configures a backend.
type Options struct {
	// Driver is "sqlite" or "postgres". Empty picks postgres when
	// DatabaseURL is set.
	Driver      string
	SQLitePath  string
	DatabaseURL string
	RequireSSL  bool
	Pool        *PoolConfig
}

// ResolveDriver returns the backend Options select.
func (o Options) ResolveDriver() string {
	if o.Driver != "" {
		return o.Driver
	}
	if o.DatabaseURL != "" {
		return DriverPostgres
	}
	return DriverSQLite
}

// Open connects to the backend selected by opts. Migrations are not run.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch driver := opts.ResolveDriver(); driver {
	case DriverSQLite:
		return NewSQLite(ctx, opts.SQLitePath)
	case DriverPostgres:
		if opts.DatabaseURL == "" {
			return nil, eris.New("store: postgres driver requires a database url")
		}
		connString := opts.DatabaseURL
		if opts.RequireSSL {
			connString = withSSLMode(connString)
		}
		return NewPostgres(ctx, connString, opts.Pool)
	default:
		return nil, eris.Errorf("store: unknown driver %q", driver)
	}
}

// snapshot is the JSON form of a submission's three stored documents.
type snapshot struct {
	photos   []byte
	inputs   []byte
	estimate []byte
}

func marshalSnapshot(sub lead.Submission) (snapshot, error) {
	photos := sub.Photos
	if photos == nil {
		photos = []string{}
	}

	var (
		snap snapshot
		err  error
	)
	if snap.photos, err = json.Marshal(photos); err != nil {
		return snapshot{}, eris.Wrap(err, "marshal photos")
	}
	if snap.inputs, err = json.Marshal(sub.Inputs); err != nil {
		return snapshot{}, eris.Wrap(err, "marshal inputs")
	}
	if snap.estimate, err = json.Marshal(sub.Estimate); err != nil {
		return snapshot{}, eris.Wrap(err, "marshal estimate")
	}
	return snap, nil
}

func unmarshalSettings(raw []byte) (pricing.Settings, error) {
	var s pricing.Settings
	if err := json.Unmarshal(raw, &s); err != nil {
		return pricing.Settings{}, eris.Wrap(err, "unmarshal settings")
	}
	return s, nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanSummary(row scannable) (lead.Summary, error) {
	var s lead.Summary
	err := row.Scan(&s.ID, &s.CreatedAt, &s.Name, &s.Phone, &s.Email, &s.Zip, &s.ProjectType)
	return s, err
}

func scanRecord(row scannable) (lead.Record, error) {
	var (
		r                        lead.Record
		photos, inputs, estimate []byte
	)
	err := row.Scan(
		&r.ID, &r.CreatedAt, &r.Name, &r.Phone, &r.Email, &r.Zip, &r.ProjectType,
		&photos, &inputs, &estimate,
	)
	if err != nil {
		return lead.Record{}, err
	}
	r.Photos = json.RawMessage(photos)
	r.Inputs = json.RawMessage(inputs)
	r.Estimate = json.RawMessage(estimate)
	return r, nil
}
