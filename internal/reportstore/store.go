package reportstore

import (
	"context"
	"database/sql"
	"errors"
	"time"

	_ "embed"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var Schema string

var tracer = otel.Tracer("internal/reportstore")

var ErrNotFound = errors.New("report not found")

// Report is one fetched payload. Kind is the kind of report, Key
// distinguishes reports of the same kind (ex. the month of a sales report).
type Report struct {
	Kind        string
	Key         string
	FetchedAt   time.Time
	ContentKind string
	Source      string
	Body        []byte
}

// Store keeps every fetched version of a report.
type Store struct {
	db *sql.DB
}

// Open opens (and creates if needed) the sqlite database at path, ":memory:"
// gives a store that lives as long as the process.
func Open(path string) (Store, error) {
	if path == "" {
		path = ":memory:"
	}
	database, err := sql.Open("sqlite", path)
	if err != nil {
		return Store{}, err
	}
	// sqlite allows one writer, and every :memory: connection is its own db
	database.SetMaxOpenConns(1)

	_, err = database.Exec(Schema)
	if err != nil {
		database.Close()
		return Store{}, err
	}
	return Store{db: database}, nil
}

func (s Store) Close() error {
	return s.db.Close()
}

// Save stores a report, saving the same kind, key and fetch time twice
// replaces the first one.
func (s Store) Save(ctx context.Context, report Report) error {
	ctx, span := tracer.Start(ctx, "Save")
	defer span.End()
	span.SetAttributes(
		attribute.String("kind", report.Kind),
		attribute.String("key", report.Key),
		attribute.Int("size", len(report.Body)),
	)

	body := report.Body
	if body == nil {
		body = []byte{}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(
		ctx,
		`insert or replace into report(kind, key, fetched_at, content_kind, source, body)
		values (?, ?, ?, ?, ?, ?)`,
		report.Kind,
		report.Key,
		report.FetchedAt.Unix(),
		report.ContentKind,
		report.Source,
		body,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return tx.Commit()
}

func scanReport(row interface{ Scan(dest ...any) error }) (Report, error) {
	var report Report
	var fetchedAt int64
	err := row.Scan(
		&report.Kind,
		&report.Key,
		&fetchedAt,
		&report.ContentKind,
		&report.Source,
		&report.Body,
	)
	if err != nil {
		return Report{}, err
	}
	report.FetchedAt = time.Unix(fetchedAt, 0)
	return report, nil
}

// Latest returns the most recently fetched version of a report.
func (s Store) Latest(ctx context.Context, kind, key string) (Report, error) {
	ctx, span := tracer.Start(ctx, "Latest")
	defer span.End()

	row := s.db.QueryRowContext(
		ctx,
		`select kind, key, fetched_at, content_kind, source, body from report
		where kind = ? and key = ?
		order by fetched_at desc
		limit 1`,
		kind, key,
	)
	report, err := scanReport(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Report{}, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Report{}, err
	}
	return report, nil
}

// List returns the latest version of every report of a kind, most recently
// fetched first.
func (s Store) List(ctx context.Context, kind string) ([]Report, error) {
	ctx, span := tracer.Start(ctx, "List")
	defer span.End()

	rows, err := s.db.QueryContext(
		ctx,
		`select r.kind, r.key, r.fetched_at, r.content_kind, r.source, r.body from report r
		where r.kind = ? and r.fetched_at = (
			select max(fetched_at) from report where kind = r.kind and key = r.key
		)
		order by r.fetched_at desc, r.key desc`,
		kind,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	defer rows.Close()

	var reports []Report
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, report)
	}
	return reports, rows.Err()
}

// Prune deletes all but the `keep` most recent versions of a report.
func (s Store) Prune(ctx context.Context, kind, key string, keep int) (int64, error) {
	ctx, span := tracer.Start(ctx, "Prune")
	defer span.End()

	res, err := s.db.ExecContext(
		ctx,
		`delete from report where kind = ? and key = ? and fetched_at not in (
			select fetched_at from report where kind = ? and key = ?
			order by fetched_at desc limit ?
		)`,
		kind, key, kind, key, keep,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, err
	}
	return res.RowsAffected()
}
