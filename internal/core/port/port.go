package port

import (
	"context"

	"github.com/niksmo/storefront/internal/core/domain"
)

type ProductsGateway interface {
	GetProducts(context.Context) ([]domain.Product, error)
	AddProduct(context.Context, domain.Product) (domain.Product, error)
	UpdateProduct(ctx context.Context, id string, p domain.Product) (domain.Product, error)
	DeleteProduct(ctx context.Context, id string) error
}

type CustomersGateway interface {
	GetCustomers(context.Context) ([]domain.Customer, error)
	AddCustomer(context.Context, domain.Customer) (domain.Customer, error)
	DeleteCustomer(ctx context.Context, id string) error
}

type Authenticator interface {
	Login(context.Context, domain.Credentials) (domain.Role, error)
}

// An APIGateway is the full request/response surface of the backing service.
type APIGateway interface {
	ProductsGateway
	CustomersGateway
	Authenticator
}

// A RoleStore persists the session role across restarts.
//
// Load returns [domain.RoleUnset] when nothing is stored.
type RoleStore interface {
	Load(context.Context) (domain.Role, error)
	Save(context.Context, domain.Role) error
	Clear(context.Context) error
}

// An EventPublisher ships session events. Publish must not block on
// delivery.
type EventPublisher interface {
	Publish(context.Context, domain.SessionEvent)
}
