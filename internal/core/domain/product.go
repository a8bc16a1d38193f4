package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

type (
	// A Product is a catalog entry owned by the backing service.
	Product struct {
		ID          string
		Name        string
		Description string
		Price       decimal.Decimal
		Image       string
	}

	Customer struct {
		ID    string
		Name  string
		Email string
	}
)

// Kind names the resource a batch operates on.
type Kind string

const (
	KindProduct  Kind = "product"
	KindCustomer Kind = "customer"
)

func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindProduct, "products":
		return KindProduct, nil
	case KindCustomer, "customers":
		return KindCustomer, nil
	}
	return "", ErrUnknownKind
}

// With returns a copy of the product with field set to value.
func (p Product) With(field, value string) (Product, error) {
	switch strings.ToLower(field) {
	case "name":
		p.Name = value
	case "description":
		p.Description = value
	case "price":
		price, err := decimal.NewFromString(strings.TrimSpace(value))
		if err != nil {
			return p, &ValidationError{Reasons: []string{fmt.Sprintf("price %q is not a number", value)}}
		}
		p.Price = price
	case "image":
		p.Image = value
	default:
		return p, fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	return p, nil
}
