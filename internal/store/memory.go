package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/JonMunkholm/bizdir/internal/core"
)

// Memory is an in-process core.Store for development and tests. Batch and
// row writes are buffered and become visible only when committed.
type Memory struct {
	mu         sync.Mutex
	owners     map[string]core.NewOwner    // lower-cased email -> owner
	businesses map[string]core.NewBusiness // slug -> business
	categories []core.Category
	runs       []core.ImportRun
}

// NewMemory creates an empty store holding categories.
func NewMemory(categories ...core.Category) *Memory {
	return &Memory{
		owners:     make(map[string]core.NewOwner),
		businesses: make(map[string]core.NewBusiness),
		categories: categories,
	}
}

func (m *Memory) ListCategories(context.Context) ([]core.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]core.Category(nil), m.categories...), nil
}

func (m *Memory) BeginBatch(context.Context) (core.BatchTx, error) {
	return &memBatch{store: m, pending: newMemWrites()}, nil
}

// Businesses returns committed businesses ordered by slug.
func (m *Memory) Businesses() []core.NewBusiness {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]core.NewBusiness, 0, len(m.businesses))
	for _, b := range m.businesses {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out
}

// Owner returns the committed owner for email.
func (m *Memory) Owner(email string) (core.NewOwner, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.owners[strings.ToLower(email)]
	return o, ok
}

type memWrites struct {
	owners     map[string]core.NewOwner
	businesses map[string]core.NewBusiness
}

func newMemWrites() *memWrites {
	return &memWrites{
		owners:     make(map[string]core.NewOwner),
		businesses: make(map[string]core.NewBusiness),
	}
}

func (w *memWrites) mergeInto(owners map[string]core.NewOwner, businesses map[string]core.NewBusiness) {
	for k, v := range w.owners {
		owners[k] = v
	}
	for k, v := range w.businesses {
		businesses[k] = v
	}
}

// conflictsWith reports writes that another batch committed first.
func (w *memWrites) conflictsWith(owners map[string]core.NewOwner, businesses map[string]core.NewBusiness) error {
	for k := range w.owners {
		if _, ok := owners[k]; ok {
			return fmt.Errorf("duplicate key violates owners_email_key (%s)", k)
		}
	}
	for k := range w.businesses {
		if _, ok := businesses[k]; ok {
			return fmt.Errorf("duplicate key violates businesses_slug_key (%s)", k)
		}
	}
	return nil
}

type memBatch struct {
	store   *Memory
	pending *memWrites
	done    bool
}

func (b *memBatch) WithinRow(ctx context.Context, fn func(core.RowTx) error) error {
	if b.done {
		return fmt.Errorf("%w: batch already finished", core.ErrBatchAborted)
	}
	row := &memRow{batch: b, writes: newMemWrites()}
	if err := fn(row); err != nil {
		return err
	}
	row.writes.mergeInto(b.pending.owners, b.pending.businesses)
	return nil
}

func (b *memBatch) Commit(context.Context) error {
	if b.done {
		return fmt.Errorf("%w: batch already finished", core.ErrBatchAborted)
	}
	b.done = true

	b.store.mu.Lock()
	defer b.store.mu.Unlock()
	if err := b.pending.conflictsWith(b.store.owners, b.store.businesses); err != nil {
		return fmt.Errorf("%w: %v", core.ErrBatchAborted, err)
	}
	b.pending.mergeInto(b.store.owners, b.store.businesses)
	return nil
}

func (b *memBatch) Rollback(context.Context) error {
	b.done = true
	return nil
}

type memRow struct {
	batch  *memBatch
	writes *memWrites
}

func (r *memRow) ownerExists(email string) bool {
	key := strings.ToLower(email)
	if _, ok := r.writes.owners[key]; ok {
		return true
	}
	if _, ok := r.batch.pending.owners[key]; ok {
		return true
	}
	r.batch.store.mu.Lock()
	defer r.batch.store.mu.Unlock()
	_, ok := r.batch.store.owners[key]
	return ok
}

func (r *memRow) slugExists(slug string) bool {
	if _, ok := r.writes.businesses[slug]; ok {
		return true
	}
	if _, ok := r.batch.pending.businesses[slug]; ok {
		return true
	}
	r.batch.store.mu.Lock()
	defer r.batch.store.mu.Unlock()
	_, ok := r.batch.store.businesses[slug]
	return ok
}

func (r *memRow) OwnerExists(_ context.Context, email string) (bool, error) {
	return r.ownerExists(email), nil
}

func (r *memRow) SlugExists(_ context.Context, slug string) (bool, error) {
	return r.slugExists(slug), nil
}

func (r *memRow) CreateOwner(_ context.Context, o core.NewOwner) error {
	if r.ownerExists(o.Email) {
		return fmt.Errorf("duplicate key violates owners_email_key")
	}
	r.writes.owners[strings.ToLower(o.Email)] = o
	return nil
}

func (r *memRow) CreateBusiness(_ context.Context, b core.NewBusiness) error {
	if r.slugExists(b.Slug) {
		return fmt.Errorf("duplicate key violates businesses_slug_key")
	}
	if b.CategoryID != nil && !r.batch.store.hasCategory(*b.CategoryID) {
		return fmt.Errorf("foreign key violation: category %s does not exist", *b.CategoryID)
	}
	r.writes.businesses[b.Slug] = b
	return nil
}

func (m *Memory) hasCategory(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.categories {
		if c.ID == id {
			return true
		}
	}
	return false
}

// RecordImport appends run to the in-memory history.
func (m *Memory) RecordImport(_ context.Context, run core.ImportRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, run)
	return nil
}

// ListImports returns up to limit runs, newest first.
func (m *Memory) ListImports(_ context.Context, limit int) ([]core.ImportRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]core.ImportRun, 0, min(limit, len(m.runs)))
	for i := len(m.runs) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.runs[i])
	}
	return out, nil
}
