package core

// importer.go commits validated rows to the store.
//
// Rows are processed strictly in input order inside one batch transaction.
// Each row runs in its own nested scope: a failing row is recorded and
// undone, and the loop moves on. Only a failure of the batch transaction
// itself stops the run.

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// fallbackSlug is used when a business name contains no slug characters.
const fallbackSlug = "business"

// Importer creates owners and businesses from validated rows.
type Importer struct {
	store    Store
	hasher   PasswordHasher
	password func() (string, error)
	newID    func() string
}

// NewImporter creates an Importer backed by store and hasher.
func NewImporter(store Store, hasher PasswordHasher) *Importer {
	return &Importer{
		store:    store,
		hasher:   hasher,
		password: GeneratePassword,
		newID:    func() string { return uuid.New().String() },
	}
}

// CommitOptions controls category resolution for a batch.
type CommitOptions struct {
	BatchCategoryID string     // overrides per-row categories when set
	Categories      []Category // pre-fetched categories for name lookups
}

// Commit creates an owner and a business for every row that does not already
// have an owner. It returns an error only when the batch transaction fails;
// row-level failures are reported in the summary.
func (im *Importer) Commit(ctx context.Context, rows []ParsedRow, opts CommitOptions) (ImportSummary, error) {
	var summary ImportSummary

	tx, err := im.store.BeginBatch(ctx)
	if err != nil {
		return summary, fmt.Errorf("begin import: %w", err)
	}
	defer tx.Rollback(ctx)

	// Slugs taken by rows committed earlier in this batch.
	taken := make(map[string]struct{})

	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return summary, fmt.Errorf("import cancelled at row %d: %w", row.Line, err)
		}

		var (
			created *createdRow
			skipped bool
		)

		err := tx.WithinRow(ctx, func(rtx RowTx) error {
			var err error
			created, skipped, err = im.commitRow(ctx, rtx, row, opts, taken)
			return err
		})

		switch {
		case errors.Is(err, ErrBatchAborted):
			return summary, fmt.Errorf("row %d: %w", row.Line, err)
		case err != nil:
			summary.Failed = append(summary.Failed, FailedRow{
				Row:    row.Line,
				Errors: []ParseError{{Row: row.Line, Message: err.Error(), Kind: KindCommit}},
			})
		case skipped:
			summary.Skipped = append(summary.Skipped, SkippedRow{Row: row.Line, Email: NormalizeEmail(row.Get("email"))})
		default:
			taken[created.slug] = struct{}{}
			summary.Created = append(summary.Created, created.CreatedBusiness)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return ImportSummary{}, fmt.Errorf("commit import: %w", err)
	}

	summary.Counts = ImportCounts{
		Total:   len(rows),
		Created: len(summary.Created),
		Failed:  len(summary.Failed),
		Skipped: len(summary.Skipped),
	}
	return summary, nil
}

type createdRow struct {
	CreatedBusiness
	slug string
}

// commitRow processes a single row. A nil result with skipped=false never
// occurs without an error.
func (im *Importer) commitRow(ctx context.Context, rtx RowTx, row ParsedRow, opts CommitOptions, taken map[string]struct{}) (*createdRow, bool, error) {
	email := NormalizeEmail(row.Get("email"))

	exists, err := rtx.OwnerExists(ctx, email)
	if err != nil {
		return nil, false, fmt.Errorf("check owner: %w", err)
	}
	if exists {
		return nil, true, nil
	}

	req := MapRow(row, opts.Categories, opts.BatchCategoryID)

	password, err := im.password()
	if err != nil {
		return nil, false, err
	}

	hash, err := im.hasher.Hash(password)
	if err != nil {
		return nil, false, fmt.Errorf("hash password: %w", err)
	}

	slug, err := im.uniqueSlug(ctx, rtx, req.Name, taken)
	if err != nil {
		return nil, false, err
	}

	owner := NewOwner{
		ID:           im.newID(),
		Name:         req.AdminName,
		Email:        req.Email,
		PasswordHash: hash,
	}
	if err := rtx.CreateOwner(ctx, owner); err != nil {
		return nil, false, fmt.Errorf("create owner: %w", err)
	}

	business := NewBusiness{
		ID:          im.newID(),
		OwnerID:     owner.ID,
		Name:        req.Name,
		Slug:        slug,
		Email:       req.Email,
		Description: req.Description,
		Phone:       req.Phone,
		Website:     req.Website,
		Address:     req.Address,
		CategoryID:  req.CategoryID,
	}
	if err := rtx.CreateBusiness(ctx, business); err != nil {
		return nil, false, fmt.Errorf("create business: %w", err)
	}

	return &createdRow{
		CreatedBusiness: CreatedBusiness{
			ID:       business.ID,
			Name:     business.Name,
			Email:    owner.Email,
			Password: password,
		},
		slug: slug,
	}, false, nil
}

// uniqueSlug appends -1, -2, ... to the name's slug until it collides with
// neither an existing business nor a slug taken earlier in the batch.
func (im *Importer) uniqueSlug(ctx context.Context, rtx RowTx, name string, taken map[string]struct{}) (string, error) {
	base := Slugify(name)
	if base == "" {
		base = fallbackSlug
	}

	candidate := base
	for n := 1; ; n++ {
		if _, ok := taken[candidate]; !ok {
			exists, err := rtx.SlugExists(ctx, candidate)
			if err != nil {
				return "", fmt.Errorf("check slug: %w", err)
			}
			if !exists {
				return candidate, nil
			}
		}
		candidate = fmt.Sprintf("%s-%d", base, n)
	}
}
