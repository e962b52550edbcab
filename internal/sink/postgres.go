package sink

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"

	"call-insights-go/internal/types"
)

const createTable = `CREATE TABLE IF NOT EXISTS call_analyses (
	id           BIGSERIAL PRIMARY KEY,
	record_id    TEXT NOT NULL,
	run_id       TEXT NOT NULL,
	source       TEXT NOT NULL,
	template     TEXT NOT NULL DEFAULT '',
	backend      TEXT NOT NULL DEFAULT '',
	transcript   TEXT NOT NULL DEFAULT '',
	analysis     TEXT NOT NULL DEFAULT '',
	fields       JSONB,
	processed_at TIMESTAMPTZ NOT NULL
)`

const insertRecord = `INSERT INTO call_analyses
	(record_id, run_id, source, template, backend, transcript, analysis, fields, processed_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Postgres appends records to the call_analyses table. There is no unique
// key on the source, so reprocessing adds a row.
type Postgres struct {
	db    execer
	close func() error
}

// OpenPostgres connects with the pgx stdlib driver and creates the table.
func OpenPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	p := &Postgres{db: db, close: db.Close}
	if err := p.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return p, nil
}

func (p *Postgres) migrate(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, createTable); err != nil {
		return fmt.Errorf("create call_analyses: %w", err)
	}
	return nil
}

func (p *Postgres) Name() string { return "postgres" }

func (p *Postgres) Persist(ctx context.Context, rec types.Record) error {
	var fields any
	if len(rec.Fields) > 0 {
		b, err := json.Marshal(rec.Fields)
		if err != nil {
			return err
		}
		fields = string(b)
	}
	_, err := p.db.ExecContext(ctx, insertRecord,
		rec.ID, rec.RunID, rec.Source, rec.Template, rec.Backend,
		rec.Transcript, rec.Analysis, fields, rec.ProcessedAt)
	return err
}

func (p *Postgres) Close() error {
	if p.close == nil {
		return nil
	}
	return p.close()
}
