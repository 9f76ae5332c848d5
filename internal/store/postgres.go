// Package store implements the import persistence layer on PostgreSQL.
package store

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"github.com/JonMunkholm/bizdir/internal/core"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schemaSQL string

// uniqueViolation is the PostgreSQL SQLSTATE for unique constraint failures.
const uniqueViolation = "23505"

// Postgres is a core.Store backed by a pgx connection pool.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres creates a store using pool.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// EnsureSchema creates the owners, categories and businesses tables if missing.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// Ping verifies the database is reachable.
func (p *Postgres) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// ListCategories returns every category ordered by name.
func (p *Postgres) ListCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := p.pool.Query(ctx, `SELECT id::text, name FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}

	categories, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (core.Category, error) {
		var c core.Category
		err := row.Scan(&c.ID, &c.Name)
		return c, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan categories: %w", err)
	}
	return categories, nil
}

// BeginBatch opens the transaction an import runs inside.
func (p *Postgres) BeginBatch(ctx context.Context) (core.BatchTx, error) {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: begin: %v", core.ErrBatchAborted, err)
	}
	return &batchTx{tx: tx}, nil
}

// batchTx isolates each row behind a savepoint. PostgreSQL aborts the whole
// transaction on any statement error, so a failed row must be rolled back
// to its savepoint before the next row can run.
type batchTx struct {
	tx   pgx.Tx
	rows int
}

func (b *batchTx) WithinRow(ctx context.Context, fn func(core.RowTx) error) error {
	b.rows++
	savepoint := fmt.Sprintf("sp_%d", b.rows)

	if _, err := b.tx.Exec(ctx, "SAVEPOINT "+savepoint); err != nil {
		return fmt.Errorf("%w: create savepoint: %v", core.ErrBatchAborted, err)
	}

	if err := fn(rowTx{q: b.tx}); err != nil {
		if _, rbErr := b.tx.Exec(ctx, "ROLLBACK TO SAVEPOINT "+savepoint); rbErr != nil {
			return fmt.Errorf("%w: rollback savepoint: %v", core.ErrBatchAborted, rbErr)
		}
		return err
	}

	if _, err := b.tx.Exec(ctx, "RELEASE SAVEPOINT "+savepoint); err != nil {
		return fmt.Errorf("%w: release savepoint: %v", core.ErrBatchAborted, err)
	}
	return nil
}

func (b *batchTx) Commit(ctx context.Context) error {
	return b.tx.Commit(ctx)
}

// Rollback is a no-op after a successful Commit.
func (b *batchTx) Rollback(ctx context.Context) error {
	err := b.tx.Rollback(ctx)
	if errors.Is(err, pgx.ErrTxClosed) {
		return nil
	}
	return err
}

// querier is the subset of pgx.Tx used by row operations.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type rowTx struct {
	q querier
}

func (r rowTx) OwnerExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.q.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM owners WHERE lower(email) = lower($1))`, email,
	).Scan(&exists)
	return exists, err
}

func (r rowTx) SlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	err := r.q.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM businesses WHERE slug = $1)`, slug,
	).Scan(&exists)
	return exists, err
}

func (r rowTx) CreateOwner(ctx context.Context, o core.NewOwner) error {
	_, err := r.q.Exec(ctx,
		`INSERT INTO owners (id, name, email, password_hash) VALUES ($1, $2, $3, $4)`,
		o.ID, o.Name, o.Email, o.PasswordHash,
	)
	return describe(err)
}

func (r rowTx) CreateBusiness(ctx context.Context, b core.NewBusiness) error {
	_, err := r.q.Exec(ctx,
		`INSERT INTO businesses
			(id, owner_id, name, slug, email, description, phone, website, address, category_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		b.ID, b.OwnerID, b.Name, b.Slug, b.Email,
		b.Description, b.Phone, b.Website, b.Address, b.CategoryID,
	)
	return describe(err)
}

// describe turns constraint violations into short row-level messages.
func describe(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("duplicate key violates %s", pgErr.ConstraintName)
	}
	return err
}

// RecordImport appends a completed run to the import history.
func (p *Postgres) RecordImport(ctx context.Context, run core.ImportRun) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO import_runs
			(id, file_name, total, created, failed, skipped, duration_ms, imported_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		run.ID, run.FileName, run.Total, run.Created, run.Failed, run.Skipped,
		run.DurationMs, run.ImportedAt,
	)
	if err != nil {
		return fmt.Errorf("record import: %w", err)
	}
	return nil
}

// ListImports returns up to limit runs, newest first.
func (p *Postgres) ListImports(ctx context.Context, limit int) ([]core.ImportRun, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT id::text, file_name, total, created, failed, skipped, duration_ms, imported_at
		 FROM import_runs
		 ORDER BY imported_at DESC
		 LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list imports: %w", err)
	}

	runs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (core.ImportRun, error) {
		var r core.ImportRun
		err := row.Scan(&r.ID, &r.FileName, &r.Total, &r.Created, &r.Failed, &r.Skipped, &r.DurationMs, &r.ImportedAt)
		return r, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan imports: %w", err)
	}
	return runs, nil
}
