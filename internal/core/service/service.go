// Package service is the storefront session facade. It combines the cart,
// the role gate and the catalog managers and checks the session role at
// every operation boundary.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/niksmo/storefront/internal/core/batch"
	"github.com/niksmo/storefront/internal/core/cart"
	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
	"github.com/niksmo/storefront/internal/core/session"
	"golang.org/x/sync/errgroup"
)

type (
	ProductsResult  = batch.Result[domain.ProductDraft, domain.Product]
	CustomersResult = batch.Result[domain.CustomerDraft, domain.Customer]
)

type action int

const (
	actionBrowse action = iota
	actionCart
	actionManage
)

type discard struct{}

func (discard) Publish(context.Context, domain.SessionEvent) {}

type Service struct {
	gate      *session.Gate
	products  *batch.ProductsManager
	customers *batch.CustomersManager
	publisher port.EventPublisher
	now       func() time.Time

	mu   sync.Mutex
	cart cart.Cart
}

// New returns the facade. A nil publisher discards events.
func New(
	gate *session.Gate,
	products *batch.ProductsManager,
	customers *batch.CustomersManager,
	publisher port.EventPublisher,
) *Service {
	if publisher == nil {
		publisher = discard{}
	}
	return &Service{
		gate:      gate,
		products:  products,
		customers: customers,
		publisher: publisher,
		now:       time.Now,
	}
}

// Start restores the persisted role and loads the catalog for it.
func (s *Service) Start(ctx context.Context) error {
	const op = "Service.Start"

	if _, err := s.gate.Restore(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.Load(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Load fetches products, and for administrators customers, concurrently.
func (s *Service) Load(ctx context.Context) error {
	const op = "Service.Load"

	role := s.gate.Role()
	p := role.Permissions()

	g, ctx := errgroup.WithContext(ctx)
	if p.BrowseCatalog {
		g.Go(func() error { return s.products.Load(ctx) })
	}
	if p.ManageCatalog {
		g.Go(func() error { return s.customers.Load(ctx) })
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *Service) Role() domain.Role {
	return s.gate.Role()
}

func (s *Service) Login(ctx context.Context, creds domain.Credentials) (domain.Role, error) {
	const op = "Service.Login"

	role, err := s.gate.Login(ctx, creds)
	if err != nil {
		return role, fmt.Errorf("%s: %w", op, err)
	}
	s.publish(ctx, domain.SessionEvent{Type: domain.EventSessionLoggedIn})
	return role, nil
}

// Logout clears the session role and the cart.
func (s *Service) Logout(ctx context.Context) error {
	const op = "Service.Logout"

	s.publish(ctx, domain.SessionEvent{Type: domain.EventSessionLoggedOut})

	s.mu.Lock()
	s.cart = cart.Clear(s.cart)
	s.mu.Unlock()

	if err := s.gate.Logout(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *Service) authorize(a action) error {
	role := s.gate.Role()
	p := role.Permissions()

	var ok bool
	switch a {
	case actionBrowse:
		ok = p.BrowseCatalog
	case actionCart:
		ok = p.UseCart
	case actionManage:
		ok = p.ManageCatalog
	}
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrForbidden, role)
	}
	return nil
}

func (s *Service) Products() ([]domain.Product, error) {
	if err := s.authorize(actionBrowse); err != nil {
		return nil, err
	}
	return s.products.Confirmed(), nil
}

func (s *Service) Customers() ([]domain.Customer, error) {
	if err := s.authorize(actionManage); err != nil {
		return nil, err
	}
	return s.customers.Confirmed(), nil
}

func (s *Service) Cart() cart.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart
}

// AddToCart adds one unit of a catalog product.
func (s *Service) AddToCart(ctx context.Context, productID string) (cart.Cart, error) {
	const op = "Service.AddToCart"

	if err := s.authorize(actionCart); err != nil {
		return s.Cart(), fmt.Errorf("%s: %w", op, err)
	}

	p, ok := s.products.Find(productID)
	if !ok {
		return s.Cart(), fmt.Errorf("%s: product %q: %w", op, productID, domain.ErrNotFound)
	}

	c := s.apply(func(c cart.Cart) cart.Cart { return cart.AddItem(c, p) })
	s.publishQuantity(ctx, domain.EventCartItemAdded, c, productID)
	return c, nil
}

func (s *Service) RemoveFromCart(ctx context.Context, productID string) (cart.Cart, error) {
	return s.mutateCart(ctx, productID, cart.RemoveItem)
}

func (s *Service) IncreaseQuantity(ctx context.Context, productID string) (cart.Cart, error) {
	return s.mutateCart(ctx, productID, cart.IncreaseQuantity)
}

func (s *Service) DecreaseQuantity(ctx context.Context, productID string) (cart.Cart, error) {
	return s.mutateCart(ctx, productID, cart.DecreaseQuantity)
}

func (s *Service) mutateCart(
	ctx context.Context, productID string, fn func(cart.Cart, string) cart.Cart,
) (cart.Cart, error) {
	if err := s.authorize(actionCart); err != nil {
		return s.Cart(), err
	}

	var before cart.Cart
	c := s.apply(func(c cart.Cart) cart.Cart {
		before = c
		return fn(c, productID)
	})

	_, had := before.Get(productID)
	if !had {
		return c, nil
	}
	if _, has := c.Get(productID); has {
		s.publishQuantity(ctx, domain.EventCartQuantitySet, c, productID)
	} else {
		s.publish(ctx, domain.SessionEvent{
			Type:      domain.EventCartItemRemoved,
			ProductID: productID,
		})
	}
	return c, nil
}

func (s *Service) apply(fn func(cart.Cart) cart.Cart) cart.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cart = fn(s.cart)
	return s.cart
}

func (s *Service) ProductDrafts() ([]domain.ProductDraft, error) {
	if err := s.authorize(actionManage); err != nil {
		return nil, err
	}
	return s.products.Drafts(), nil
}

func (s *Service) CustomerDrafts() ([]domain.CustomerDraft, error) {
	if err := s.authorize(actionManage); err != nil {
		return nil, err
	}
	return s.customers.Drafts(), nil
}

// AddDraft appends an empty row of kind and returns its index.
func (s *Service) AddDraft(kind domain.Kind) (int, error) {
	if err := s.authorize(actionManage); err != nil {
		return 0, err
	}
	switch kind {
	case domain.KindProduct:
		return s.products.AddDraft(), nil
	case domain.KindCustomer:
		return s.customers.AddDraft(), nil
	}
	return 0, fmt.Errorf("%w: %q", domain.ErrUnknownKind, kind)
}

func (s *Service) SetDraftField(kind domain.Kind, row int, field, value string) error {
	if err := s.authorize(actionManage); err != nil {
		return err
	}
	switch kind {
	case domain.KindProduct:
		return s.products.SetDraftField(row, field, value)
	case domain.KindCustomer:
		return s.customers.SetDraftField(row, field, value)
	}
	return fmt.Errorf("%w: %q", domain.ErrUnknownKind, kind)
}

func (s *Service) ResetDrafts(kind domain.Kind) error {
	if err := s.authorize(actionManage); err != nil {
		return err
	}
	switch kind {
	case domain.KindProduct:
		s.products.ResetDrafts()
		return nil
	case domain.KindCustomer:
		s.customers.ResetDrafts()
		return nil
	}
	return fmt.Errorf("%w: %q", domain.ErrUnknownKind, kind)
}

func (s *Service) SubmitProducts(ctx context.Context) (ProductsResult, error) {
	const op = "Service.SubmitProducts"

	if err := s.authorize(actionManage); err != nil {
		return ProductsResult{}, fmt.Errorf("%s: %w", op, err)
	}

	res, err := s.products.SubmitDrafts(ctx)
	ids := make([]string, 0, len(res.Accepted))
	for _, p := range res.Accepted {
		ids = append(ids, p.ID)
	}
	s.publishBatch(ctx, domain.KindProduct, ids, len(res.Failed), res.RejectedCount)
	if err != nil {
		return res, fmt.Errorf("%s: %w", op, err)
	}
	return res, nil
}

func (s *Service) SubmitCustomers(ctx context.Context) (CustomersResult, error) {
	const op = "Service.SubmitCustomers"

	if err := s.authorize(actionManage); err != nil {
		return CustomersResult{}, fmt.Errorf("%s: %w", op, err)
	}

	res, err := s.customers.SubmitDrafts(ctx)
	ids := make([]string, 0, len(res.Accepted))
	for _, c := range res.Accepted {
		ids = append(ids, c.ID)
	}
	s.publishBatch(ctx, domain.KindCustomer, ids, len(res.Failed), res.RejectedCount)
	if err != nil {
		return res, fmt.Errorf("%s: %w", op, err)
	}
	return res, nil
}

// Deleting reports whether a delete of kind and id is in flight.
func (s *Service) Deleting(kind domain.Kind, id string) bool {
	switch kind {
	case domain.KindProduct:
		return s.products.Deleting(id)
	case domain.KindCustomer:
		return s.customers.Deleting(id)
	}
	return false
}

func (s *Service) Delete(ctx context.Context, kind domain.Kind, id string) error {
	const op = "Service.Delete"

	if err := s.authorize(actionManage); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	var err error
	switch kind {
	case domain.KindProduct:
		err = s.products.Delete(ctx, id)
	case domain.KindCustomer:
		err = s.customers.Delete(ctx, id)
	default:
		err = fmt.Errorf("%w: %q", domain.ErrUnknownKind, kind)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.publish(ctx, domain.SessionEvent{
		Type:      domain.EventEntityDeleted,
		Kind:      kind,
		EntityIDs: []string{id},
	})
	return nil
}

// EditProduct sets one field of a confirmed product and submits the update.
func (s *Service) EditProduct(
	ctx context.Context, id, field, value string,
) (domain.Product, error) {
	const op = "Service.EditProduct"

	if err := s.authorize(actionManage); err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	p, ok := s.products.Find(id)
	if !ok {
		return domain.Product{}, fmt.Errorf("%s: product %q: %w", op, id, domain.ErrNotFound)
	}

	p, err := p.With(field, value)
	if err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	got, err := s.products.Update(ctx, id, p)
	if err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	s.publish(ctx, domain.SessionEvent{
		Type:      domain.EventEntityUpdated,
		Kind:      domain.KindProduct,
		EntityIDs: []string{got.ID},
	})
	return got, nil
}

func (s *Service) publishQuantity(
	ctx context.Context, t domain.EventType, c cart.Cart, productID string,
) {
	it, _ := c.Get(productID)
	s.publish(ctx, domain.SessionEvent{
		Type:      t,
		ProductID: productID,
		Quantity:  it.Quantity,
	})
}

func (s *Service) publishBatch(
	ctx context.Context, kind domain.Kind, ids []string, failed, rejected int,
) {
	if len(ids)+failed == 0 {
		return
	}
	s.publish(ctx, domain.SessionEvent{
		Type:      domain.EventBatchSubmitted,
		Kind:      kind,
		EntityIDs: ids,
		Accepted:  len(ids),
		Failed:    failed,
		Rejected:  rejected,
	})
}

func (s *Service) publish(ctx context.Context, evt domain.SessionEvent) {
	evt.ID = uuid.NewString()
	evt.Role = s.gate.Role()
	evt.OccurredAt = s.now().UTC()

	slog.Debug("session event", "op", "Service.publish", "type", evt.Type)
	s.publisher.Publish(ctx, evt)
}
