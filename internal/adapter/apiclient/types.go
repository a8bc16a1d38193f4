package apiclient

import (
	"encoding/json"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/shopspring/decimal"
)

type (
	Product struct {
		ID          string      `json:"id"`
		Name        string      `json:"name"`
		Description string      `json:"description"`
		Price       json.Number `json:"price"`
		Image       string      `json:"image"`
	}

	Customer struct {
		ID    string `json:"id,omitempty"`
		Name  string `json:"name"`
		Email string `json:"email"`
	}
)

type (
	LoginRequest struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}

	LoginResponse struct {
		Role string `json:"role"`
	}
)

func productFromDomain(p domain.Product) Product {
	return Product{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       json.Number(p.Price.String()),
		Image:       p.Image,
	}
}

func (p Product) toDomain() (domain.Product, error) {
	price := decimal.Zero
	if p.Price != "" {
		v, err := decimal.NewFromString(p.Price.String())
		if err != nil {
			return domain.Product{}, err
		}
		price = v
	}
	return domain.Product{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       price,
		Image:       p.Image,
	}, nil
}

func customerFromDomain(c domain.Customer) Customer {
	return Customer{ID: c.ID, Name: c.Name, Email: c.Email}
}

func (c Customer) toDomain() domain.Customer {
	return domain.Customer{ID: c.ID, Name: c.Name, Email: c.Email}
}
