package batch

import (
	"context"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
)

var (
	_ Resource[domain.ProductDraft, domain.Product]   = Products{}
	_ Updater[domain.Product]                         = Products{}
	_ Resource[domain.CustomerDraft, domain.Customer] = Customers{}
)

type (
	ProductsManager  = Manager[domain.ProductDraft, domain.Product]
	CustomersManager = Manager[domain.CustomerDraft, domain.Customer]
)

// Products binds product drafts to the catalog endpoints.
type Products struct {
	gw port.ProductsGateway
}

func NewProducts(gw port.ProductsGateway) Products {
	return Products{gw}
}

func (Products) Kind() domain.Kind { return domain.KindProduct }

func (Products) ID(p domain.Product) string { return p.ID }

func (r Products) List(ctx context.Context) ([]domain.Product, error) {
	return r.gw.GetProducts(ctx)
}

func (r Products) Create(ctx context.Context, d domain.ProductDraft) (domain.Product, error) {
	p, err := d.Product()
	if err != nil {
		return domain.Product{}, err
	}
	return r.gw.AddProduct(ctx, p)
}

func (r Products) Delete(ctx context.Context, id string) error {
	return r.gw.DeleteProduct(ctx, id)
}

func (Products) ValidateUpdate(p domain.Product) error {
	return domain.ValidateProduct(p)
}

func (r Products) Update(ctx context.Context, id string, p domain.Product) (domain.Product, error) {
	return r.gw.UpdateProduct(ctx, id, p)
}

// Customers binds customer drafts to the customer endpoints.
type Customers struct {
	gw port.CustomersGateway
}

func NewCustomers(gw port.CustomersGateway) Customers {
	return Customers{gw}
}

func (Customers) Kind() domain.Kind { return domain.KindCustomer }

func (Customers) ID(c domain.Customer) string { return c.ID }

func (r Customers) List(ctx context.Context) ([]domain.Customer, error) {
	return r.gw.GetCustomers(ctx)
}

func (r Customers) Create(ctx context.Context, d domain.CustomerDraft) (domain.Customer, error) {
	c, err := d.Customer()
	if err != nil {
		return domain.Customer{}, err
	}
	return r.gw.AddCustomer(ctx, c)
}

func (r Customers) Delete(ctx context.Context, id string) error {
	return r.gw.DeleteCustomer(ctx, id)
}

func NewProductsManager(gw port.ProductsGateway, opts ...Opt) *ProductsManager {
	return NewManager[domain.ProductDraft, domain.Product](NewProducts(gw), opts...)
}

func NewCustomersManager(gw port.CustomersGateway, opts ...Opt) *CustomersManager {
	return NewManager[domain.CustomerDraft, domain.Customer](NewCustomers(gw), opts...)
}
