package migrations

import (
	"context"
	"database/sql"
	"embed"
	"io/fs"

	"github.com/pressly/goose/v3"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

//go:embed sqlite/*.sql postgres/*.sql
var embedded embed.FS

// Dialect selects the migration set and goose dialect.
type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
)

func newProvider(db *sql.DB, dialect Dialect) (*goose.Provider, error) {
	var gooseDialect goose.Dialect
	switch dialect {
	case SQLite:
		gooseDialect = goose.DialectSQLite3
	case Postgres:
		gooseDialect = goose.DialectPostgres
	default:
		return nil, eris.Errorf("migrations: unknown dialect %q", dialect)
	}

	fsys, err := fs.Sub(embedded, string(dialect))
	if err != nil {
		return nil, eris.Wrapf(err, "migrations: open %s migrations", dialect)
	}

	provider, err := goose.NewProvider(gooseDialect, db, fsys)
	if err != nil {
		return nil, eris.Wrap(err, "migrations: create goose provider")
	}
	return provider, nil
}

// Up runs all pending embedded migrations for dialect.
func Up(ctx context.Context, db *sql.DB, dialect Dialect) error {
	provider, err := newProvider(db, dialect)
	if err != nil {
		return err
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return eris.Wrap(err, "migrations: run goose up")
	}
	for _, r := range results {
		zap.L().Info("migration applied",
			zap.String("dialect", string(dialect)),
			zap.Int64("version", r.Source.Version),
			zap.Duration("duration", r.Duration),
		)
	}
	return nil
}

// Version reports the current schema version for dialect.
func Version(ctx context.Context, db *sql.DB, dialect Dialect) (int64, error) {
	provider, err := newProvider(db, dialect)
	if err != nil {
		return 0, err
	}
	version, err := provider.GetDBVersion(ctx)
	if err != nil {
		return 0, eris.Wrap(err, "migrations: read version")
	}
	return version, nil
}
