// Package batch drives multi-row creation and deletion of catalog entities
// against the backing service and keeps the confirmed collection in sync
// with acknowledged results.
package batch

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/niksmo/storefront/internal/core/domain"
	"golang.org/x/sync/errgroup"
)

const defaultConcurrency = 8

// A Draft is an unvalidated input row.
type Draft[D any] interface {
	comparable
	Validate() error
	With(field, value string) (D, error)
}

// A Resource binds a draft type to the entity the backing service confirms.
type Resource[D, E any] interface {
	Kind() domain.Kind
	List(context.Context) ([]E, error)
	Create(context.Context, D) (E, error)
	Delete(ctx context.Context, id string) error
	ID(E) string
}

// An Updater is implemented by resources whose entities can be edited.
type Updater[E any] interface {
	ValidateUpdate(E) error
	Update(ctx context.Context, id string, e E) (E, error)
}

// A RowError ties a draft row to the reason it was not created.
type RowError[D any] struct {
	Index int
	Row   D
	Err   error
}

type Result[D, E any] struct {
	// Accepted holds the server confirmed entities in original row order.
	Accepted []E

	// Failed holds valid rows whose create request failed.
	Failed []RowError[D]

	// Rejected holds rows that did not pass validation.
	Rejected      []RowError[D]
	RejectedCount int
}

type Opt func(*options)

type options struct {
	concurrency int
}

// WithConcurrency bounds the number of create requests in flight per batch.
// Non-positive n means no bound.
func WithConcurrency(n int) Opt {
	return func(o *options) {
		o.concurrency = n
	}
}

// A Manager owns one confirmed collection, its draft rows and the set of ids
// with a delete in flight.
type Manager[D Draft[D], E any] struct {
	res         Resource[D, E]
	concurrency int

	mu        sync.Mutex
	confirmed []E
	drafts    []D
	deleting  map[string]struct{}
}

func NewManager[D Draft[D], E any](res Resource[D, E], opts ...Opt) *Manager[D, E] {
	o := options{concurrency: defaultConcurrency}
	for _, opt := range opts {
		opt(&o)
	}
	if o.concurrency <= 0 {
		o.concurrency = -1
	}

	var zero D
	return &Manager[D, E]{
		res:         res,
		concurrency: o.concurrency,
		drafts:      []D{zero},
		deleting:    make(map[string]struct{}),
	}
}

func (m *Manager[D, E]) Kind() domain.Kind {
	return m.res.Kind()
}

// Load replaces the confirmed collection with the backing service state.
//
// On failure the collection is left as it was.
func (m *Manager[D, E]) Load(ctx context.Context) error {
	const op = "Manager.Load"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	vs, err := m.res.List(ctx)
	if err != nil {
		return fmt.Errorf("%s: %s: %w", op, m.res.Kind(), err)
	}

	m.mu.Lock()
	m.confirmed = slices.Clone(vs)
	m.mu.Unlock()

	slog.Debug("collection loaded",
		"op", op, "kind", m.res.Kind(), "n", len(vs))
	return nil
}

// Confirmed returns a copy of the confirmed collection.
func (m *Manager[D, E]) Confirmed() []E {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.confirmed)
}

// Find returns the confirmed entity with id.
func (m *Manager[D, E]) Find(id string) (E, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range m.confirmed {
		if m.res.ID(v) == id {
			return v, true
		}
	}
	var zero E
	return zero, false
}

// ValidateRow reports whether row would be submitted.
func (m *Manager[D, E]) ValidateRow(row D) error {
	return row.Validate()
}

func (m *Manager[D, E]) Drafts() []D {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.drafts)
}

// AddDraft appends an empty row and returns its index.
func (m *Manager[D, E]) AddDraft() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	var zero D
	m.drafts = append(m.drafts, zero)
	return len(m.drafts) - 1
}

func (m *Manager[D, E]) SetDraft(i int, row D) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i < 0 || i >= len(m.drafts) {
		return fmt.Errorf("%w: %d", domain.ErrRowIndex, i)
	}
	m.drafts[i] = row
	return nil
}

// SetDraftField sets a single field of row i.
func (m *Manager[D, E]) SetDraftField(i int, field, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i < 0 || i >= len(m.drafts) {
		return fmt.Errorf("%w: %d", domain.ErrRowIndex, i)
	}
	row, err := m.drafts[i].With(field, value)
	if err != nil {
		return err
	}
	m.drafts[i] = row
	return nil
}

// ResetDrafts discards all rows, leaving a single empty one.
func (m *Manager[D, E]) ResetDrafts() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resetDrafts()
}

func (m *Manager[D, E]) resetDrafts() {
	var zero D
	m.drafts = []D{zero}
}

// SubmitDrafts submits the current draft rows, skipping empty ones.
func (m *Manager[D, E]) SubmitDrafts(ctx context.Context) (Result[D, E], error) {
	var zero D
	rows := slices.DeleteFunc(m.Drafts(), func(row D) bool {
		return row == zero
	})
	return m.Submit(ctx, rows)
}

// Submit creates every valid row concurrently, one request per row.
//
// With no valid rows a [*domain.ValidationError] is returned and no request
// is made. Otherwise the acknowledged entities are appended to the confirmed
// collection in row order. If any request failed, the partial result is
// returned together with a [*domain.SubmissionError] and the failed rows
// become the new drafts. On full success drafts reset to one empty row.
func (m *Manager[D, E]) Submit(ctx context.Context, rows []D) (Result[D, E], error) {
	const op = "Manager.Submit"
	log := slog.With("op", op, "kind", m.res.Kind())

	var res Result[D, E]

	valid := make([]int, 0, len(rows))
	for i, row := range rows {
		if err := row.Validate(); err != nil {
			res.Rejected = append(res.Rejected, RowError[D]{i, row, err})
			continue
		}
		valid = append(valid, i)
	}
	res.RejectedCount = len(res.Rejected)

	if len(valid) == 0 {
		verr := &domain.ValidationError{Reasons: []string{"no valid rows"}}
		for _, r := range res.Rejected {
			verr.Reasons = append(verr.Reasons, fmt.Sprintf("row %d: %v", r.Index, r.Err))
		}
		return res, fmt.Errorf("%s: %w", op, verr)
	}

	type outcome struct {
		v   E
		err error
	}
	outcomes := make([]outcome, len(valid))

	var g errgroup.Group
	g.SetLimit(m.concurrency)
	for slot, i := range valid {
		row := rows[i]
		g.Go(func() error {
			v, err := m.res.Create(ctx, row)
			outcomes[slot] = outcome{v, err}
			return nil
		})
	}
	_ = g.Wait()

	var failures []error
	for slot, i := range valid {
		o := outcomes[slot]
		if o.err != nil {
			res.Failed = append(res.Failed, RowError[D]{i, rows[i], o.err})
			failures = append(failures, fmt.Errorf("row %d: %w", i, o.err))
			continue
		}
		res.Accepted = append(res.Accepted, o.v)
	}

	m.mu.Lock()
	m.confirmed = append(m.confirmed, res.Accepted...)
	if len(res.Failed) == 0 {
		m.resetDrafts()
	} else {
		m.drafts = m.drafts[:0]
		for _, f := range res.Failed {
			m.drafts = append(m.drafts, f.Row)
		}
	}
	m.mu.Unlock()

	log.Info("batch submitted",
		"accepted", len(res.Accepted),
		"failed", len(res.Failed),
		"rejected", res.RejectedCount,
	)

	if len(failures) != 0 {
		return res, fmt.Errorf("%s: %w", op, &domain.SubmissionError{
			Submitted: len(valid),
			Failures:  failures,
		})
	}
	return res, nil
}

// Deleting reports whether a delete for id is in flight.
func (m *Manager[D, E]) Deleting(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.deleting[id]
	return ok
}

// Delete removes the entity with id from the backing service and, on
// success, from the confirmed collection.
//
// A delete for an id that already has one in flight fails with
// [domain.ErrDeletePending] without issuing a request.
func (m *Manager[D, E]) Delete(ctx context.Context, id string) error {
	const op = "Manager.Delete"

	m.mu.Lock()
	if _, ok := m.deleting[id]; ok {
		m.mu.Unlock()
		return fmt.Errorf("%s: %q: %w", op, id, domain.ErrDeletePending)
	}
	m.deleting[id] = struct{}{}
	m.mu.Unlock()

	err := m.res.Delete(ctx, id)

	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.deleting, id)
	if err != nil {
		return fmt.Errorf("%s: %s %q: %w", op, m.res.Kind(), id, err)
	}
	m.confirmed = slices.DeleteFunc(m.confirmed, func(v E) bool {
		return m.res.ID(v) == id
	})

	slog.Info("entity deleted", "op", op, "kind", m.res.Kind(), "id", id)
	return nil
}

// Update edits the entity with id and replaces the confirmed copy with the
// server echo. Resources that are not an [Updater] fail with
// [domain.ErrUnsupported].
func (m *Manager[D, E]) Update(ctx context.Context, id string, v E) (E, error) {
	const op = "Manager.Update"
	var zero E

	u, ok := m.res.(Updater[E])
	if !ok {
		return zero, fmt.Errorf("%s: %s: %w", op, m.res.Kind(), domain.ErrUnsupported)
	}

	if err := u.ValidateUpdate(v); err != nil {
		return zero, fmt.Errorf("%s: %w", op, err)
	}

	got, err := u.Update(ctx, id, v)
	if err != nil {
		return zero, fmt.Errorf("%s: %s %q: %w", op, m.res.Kind(), id, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.confirmed {
		if m.res.ID(m.confirmed[i]) == id {
			m.confirmed[i] = got
			break
		}
	}
	return got, nil
}
