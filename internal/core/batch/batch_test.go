package batch_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/niksmo/storefront/internal/core/batch"
	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCatalog struct {
	mu       sync.Mutex
	products []domain.Product
	added    []domain.Product
	addFn    func(domain.Product) (domain.Product, error)
	deleteFn func(id string) error
	updateFn func(id string, p domain.Product) (domain.Product, error)
	listErr  error
}

func (f *fakeCatalog) GetProducts(context.Context) ([]domain.Product, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.products, nil
}

func (f *fakeCatalog) AddProduct(_ context.Context, p domain.Product) (domain.Product, error) {
	f.mu.Lock()
	f.added = append(f.added, p)
	f.mu.Unlock()
	if f.addFn != nil {
		return f.addFn(p)
	}
	return p, nil
}

func (f *fakeCatalog) UpdateProduct(_ context.Context, id string, p domain.Product) (domain.Product, error) {
	if f.updateFn != nil {
		return f.updateFn(id, p)
	}
	return p, nil
}

func (f *fakeCatalog) DeleteProduct(_ context.Context, id string) error {
	if f.deleteFn != nil {
		return f.deleteFn(id)
	}
	return nil
}

func (f *fakeCatalog) addedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.added)
}

type fakeCustomers struct {
	addFn func(domain.Customer) (domain.Customer, error)
}

func (fakeCustomers) GetCustomers(context.Context) ([]domain.Customer, error) {
	return []domain.Customer{{ID: "c1", Name: "Ann", Email: "ann@example.com"}}, nil
}

func (f fakeCustomers) AddCustomer(_ context.Context, c domain.Customer) (domain.Customer, error) {
	if f.addFn != nil {
		return f.addFn(c)
	}
	c.ID = "id-" + c.Name
	return c, nil
}

func (fakeCustomers) DeleteCustomer(context.Context, string) error { return nil }

func row(id, name, price string) domain.ProductDraft {
	return domain.ProductDraft{ID: id, Name: name, Price: price}
}

func TestSubmit(t *testing.T) {
	t.Run("OnlyValidRowsSubmitted", func(t *testing.T) {
		gw := &fakeCatalog{}
		m := batch.NewProductsManager(gw)

		res, err := m.Submit(t.Context(), []domain.ProductDraft{
			row("1", "A", "10"),
			row("", "", "0"),
		})
		require.NoError(t, err)

		assert.Equal(t, 1, gw.addedCount())
		assert.Equal(t, 1, res.RejectedCount)
		require.Len(t, res.Accepted, 1)
		assert.Equal(t, "1", res.Accepted[0].ID)
		assert.True(t, decimal.NewFromInt(10).Equal(res.Accepted[0].Price))
		assert.Equal(t, 1, res.Rejected[0].Index)

		assert.Len(t, m.Confirmed(), 1)
		assert.Equal(t, []domain.ProductDraft{{}}, m.Drafts())
	})

	t.Run("NoValidRows", func(t *testing.T) {
		gw := &fakeCatalog{}
		m := batch.NewProductsManager(gw)
		gw.products = []domain.Product{{ID: "x", Name: "X", Price: decimal.NewFromInt(1)}}
		require.NoError(t, m.Load(t.Context()))
		require.NoError(t, m.SetDraftField(0, "name", "kept"))

		res, err := m.Submit(t.Context(), []domain.ProductDraft{row("", "B", "-1")})
		require.Error(t, err)

		var verr *domain.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.ErrorIs(t, err, domain.ErrValidation)
		assert.Equal(t, 1, res.RejectedCount)
		assert.Zero(t, gw.addedCount())
		assert.Len(t, m.Confirmed(), 1)
		assert.Equal(t, "kept", m.Drafts()[0].Name)
	})

	t.Run("OutOfOrderCompletionKeepsRowOrder", func(t *testing.T) {
		release := map[string]chan struct{}{
			"1": make(chan struct{}),
			"2": make(chan struct{}),
			"3": make(chan struct{}),
		}
		started := make(chan string, 3)
		done := make(chan string, 3)

		gw := &fakeCatalog{addFn: func(p domain.Product) (domain.Product, error) {
			started <- p.ID
			<-release[p.ID]
			done <- p.ID
			p.Name = "confirmed " + p.Name
			return p, nil
		}}
		m := batch.NewProductsManager(gw)

		type submitted struct {
			res batch.Result[domain.ProductDraft, domain.Product]
			err error
		}
		out := make(chan submitted, 1)
		go func() {
			res, err := m.Submit(context.Background(), []domain.ProductDraft{
				row("1", "A", "1"), row("2", "B", "2"), row("3", "C", "3"),
			})
			out <- submitted{res, err}
		}()

		for range 3 {
			<-started
		}
		for _, id := range []string{"2", "3", "1"} {
			close(release[id])
			assert.Equal(t, id, <-done)
		}

		got := <-out
		require.NoError(t, got.err)
		ids := make([]string, 0, len(got.res.Accepted))
		for _, p := range got.res.Accepted {
			ids = append(ids, p.ID)
		}
		assert.Equal(t, []string{"1", "2", "3"}, ids)
		assert.Equal(t, "confirmed A", got.res.Accepted[0].Name)
		assert.Equal(t, got.res.Accepted, m.Confirmed())
	})

	t.Run("PartialFailure", func(t *testing.T) {
		errDown := errors.New("connection reset")
		gw := &fakeCatalog{addFn: func(p domain.Product) (domain.Product, error) {
			if p.ID == "2" {
				return domain.Product{}, &domain.TransportError{Op: "AddProduct", Err: errDown}
			}
			return p, nil
		}}
		m := batch.NewProductsManager(gw)

		res, err := m.Submit(t.Context(), []domain.ProductDraft{
			row("1", "A", "1"), row("2", "B", "2"), row("3", "C", "3"),
		})
		require.Error(t, err)

		var serr *domain.SubmissionError
		require.ErrorAs(t, err, &serr)
		assert.Equal(t, 3, serr.Submitted)
		assert.ErrorIs(t, err, domain.ErrSubmission)
		assert.ErrorIs(t, err, domain.ErrTransport)
		assert.ErrorIs(t, err, errDown)

		require.Len(t, res.Accepted, 2)
		assert.Equal(t, "1", res.Accepted[0].ID)
		assert.Equal(t, "3", res.Accepted[1].ID)
		require.Len(t, res.Failed, 1)
		assert.Equal(t, 1, res.Failed[0].Index)

		assert.Len(t, m.Confirmed(), 2)
		assert.Equal(t, []domain.ProductDraft{row("2", "B", "2")}, m.Drafts())
	})

	t.Run("Customers", func(t *testing.T) {
		m := batch.NewCustomersManager(fakeCustomers{})

		res, err := m.Submit(t.Context(), []domain.CustomerDraft{
			{Name: "Bob", Email: "bob@"},
			{Name: "Bob", Email: "bob@example.com"},
		})
		require.NoError(t, err)
		assert.Equal(t, 1, res.RejectedCount)
		require.Len(t, res.Accepted, 1)
		assert.Equal(t, "id-Bob", res.Accepted[0].ID)
	})
}

func TestSubmitDrafts(t *testing.T) {
	gw := &fakeCatalog{}
	m := batch.NewProductsManager(gw, batch.WithConcurrency(1))

	require.NoError(t, m.SetDraft(0, row("1", "A", "5")))
	m.AddDraft()
	i := m.AddDraft()
	require.NoError(t, m.SetDraft(i, row("2", "B", "6")))

	res, err := m.SubmitDrafts(t.Context())
	require.NoError(t, err)
	assert.Len(t, res.Accepted, 2)
	assert.Zero(t, res.RejectedCount)
	assert.Equal(t, []domain.ProductDraft{{}}, m.Drafts())
}

func TestDrafts(t *testing.T) {
	m := batch.NewCustomersManager(fakeCustomers{})

	assert.ErrorIs(t, m.SetDraftField(1, "name", "x"), domain.ErrRowIndex)
	assert.ErrorIs(t, m.SetDraftField(0, "phone", "x"), domain.ErrUnknownField)
	assert.ErrorIs(t, m.SetDraft(-1, domain.CustomerDraft{}), domain.ErrRowIndex)

	require.NoError(t, m.SetDraftField(0, "email", "a@b.co"))
	assert.Equal(t, 1, m.AddDraft())
	assert.Len(t, m.Drafts(), 2)

	m.ResetDrafts()
	assert.Equal(t, []domain.CustomerDraft{{}}, m.Drafts())
}

func TestDelete(t *testing.T) {
	seed := []domain.Product{
		{ID: "1", Name: "A", Price: decimal.NewFromInt(1)},
		{ID: "2", Name: "B", Price: decimal.NewFromInt(2)},
	}

	t.Run("RemovesOnSuccess", func(t *testing.T) {
		gw := &fakeCatalog{products: seed}
		m := batch.NewProductsManager(gw)
		require.NoError(t, m.Load(t.Context()))

		require.NoError(t, m.Delete(t.Context(), "1"))
		assert.Equal(t, seed[1:], m.Confirmed())
		assert.False(t, m.Deleting("1"))
	})

	t.Run("NotFoundLeavesCollection", func(t *testing.T) {
		gw := &fakeCatalog{products: seed, deleteFn: func(string) error {
			return domain.ErrNotFound
		}}
		m := batch.NewProductsManager(gw)
		require.NoError(t, m.Load(t.Context()))

		err := m.Delete(t.Context(), "1")
		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.Equal(t, seed, m.Confirmed())
		assert.False(t, m.Deleting("1"))
	})

	t.Run("DuplicateInFlightRejected", func(t *testing.T) {
		entered := make(chan struct{})
		release := make(chan struct{})
		var calls int
		gw := &fakeCatalog{products: seed, deleteFn: func(string) error {
			calls++
			close(entered)
			<-release
			return nil
		}}
		m := batch.NewProductsManager(gw)
		require.NoError(t, m.Load(t.Context()))

		errc := make(chan error, 1)
		go func() { errc <- m.Delete(context.Background(), "2") }()
		<-entered

		assert.True(t, m.Deleting("2"))
		assert.ErrorIs(t, m.Delete(t.Context(), "2"), domain.ErrDeletePending)

		close(release)
		require.NoError(t, <-errc)
		assert.Equal(t, 1, calls)
		assert.Equal(t, seed[:1], m.Confirmed())
	})
}

func TestUpdate(t *testing.T) {
	seed := []domain.Product{{ID: "1", Name: "A", Price: decimal.NewFromInt(1)}}

	t.Run("ReplacesWithEcho", func(t *testing.T) {
		gw := &fakeCatalog{products: seed, updateFn: func(id string, p domain.Product) (domain.Product, error) {
			p.Name = "normalized"
			return p, nil
		}}
		m := batch.NewProductsManager(gw)
		require.NoError(t, m.Load(t.Context()))

		edit := seed[0]
		edit.Price = decimal.NewFromInt(3)
		got, err := m.Update(t.Context(), "1", edit)
		require.NoError(t, err)
		assert.Equal(t, "normalized", got.Name)

		p, ok := m.Find("1")
		require.True(t, ok)
		assert.Equal(t, "normalized", p.Name)
	})

	t.Run("RejectsNonPositivePrice", func(t *testing.T) {
		m := batch.NewProductsManager(&fakeCatalog{products: seed})
		require.NoError(t, m.Load(t.Context()))

		edit := seed[0]
		edit.Price = decimal.Zero
		_, err := m.Update(t.Context(), "1", edit)
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("CustomersUnsupported", func(t *testing.T) {
		m := batch.NewCustomersManager(fakeCustomers{})
		_, err := m.Update(t.Context(), "c1", domain.Customer{})
		assert.ErrorIs(t, err, domain.ErrUnsupported)
	})
}

func TestLoad(t *testing.T) {
	errDown := errors.New("down")
	gw := &fakeCatalog{listErr: errDown}
	m := batch.NewProductsManager(gw)

	assert.ErrorIs(t, m.Load(t.Context()), errDown)
	assert.Empty(t, m.Confirmed())
}
