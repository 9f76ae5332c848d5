package core

import (
	"context"
	"errors"
)

// ErrBatchAborted marks a failure of the batch transaction itself, as opposed
// to a failure of a single row. Stores wrap infrastructure errors with it.
var ErrBatchAborted = errors.New("import transaction aborted")

// PasswordHasher hashes generated owner passwords.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
}

// NewOwner is an owner account to be created.
type NewOwner struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
}

// NewBusiness is a business listing to be created for an owner.
type NewBusiness struct {
	ID          string
	OwnerID     string
	Name        string
	Slug        string
	Email       string
	Description *string
	Phone       *string
	Website     *string
	Address     *string
	CategoryID  *string
}

// Store is the persistence collaborator used by imports.
type Store interface {
	// BeginBatch opens the transaction an import runs inside.
	BeginBatch(ctx context.Context) (BatchTx, error)

	// ListCategories returns every category for name lookups.
	ListCategories(ctx context.Context) ([]Category, error)
}

// BatchTx is a batch transaction. Each row runs in its own nested scope so a
// failing row is undone without affecting rows committed before it.
type BatchTx interface {
	// WithinRow runs fn in a nested scope that is discarded if fn fails.
	// Errors wrapping ErrBatchAborted mean the batch can no longer continue.
	WithinRow(ctx context.Context, fn func(RowTx) error) error

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// RowTx exposes the operations available while processing one row.
type RowTx interface {
	OwnerExists(ctx context.Context, email string) (bool, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	CreateOwner(ctx context.Context, owner NewOwner) error
	CreateBusiness(ctx context.Context, business NewBusiness) error
}
