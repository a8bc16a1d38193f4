package domain

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// local@domain.tld without whitespace, at least one dot after the "@".
var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type (
	// A ProductDraft is an unvalidated product input row.
	//
	// Price is kept as typed so that validation can report a parse failure.
	ProductDraft struct {
		ID          string
		Name        string
		Description string
		Price       string
		Image       string
	}

	// A CustomerDraft is an unvalidated customer input row.
	CustomerDraft struct {
		Name  string
		Email string
	}
)

// Validate reports whether the row is fit for submission.
//
// The row is valid iff ID and Name are non-empty and Price parses as a
// number greater than zero.
func (d ProductDraft) Validate() error {
	var reasons []string
	if strings.TrimSpace(d.ID) == "" {
		reasons = append(reasons, "id is empty")
	}
	if strings.TrimSpace(d.Name) == "" {
		reasons = append(reasons, "name is empty")
	}
	if _, err := parsePrice(d.Price); err != nil {
		reasons = append(reasons, err.Error())
	}
	if len(reasons) != 0 {
		return &ValidationError{Reasons: reasons}
	}
	return nil
}

// Product converts a valid draft into the entity sent to the backing service.
func (d ProductDraft) Product() (Product, error) {
	const op = "ProductDraft.Product"

	if err := d.Validate(); err != nil {
		return Product{}, fmt.Errorf("%s: %w", op, err)
	}
	price, _ := parsePrice(d.Price)
	return Product{
		ID:          strings.TrimSpace(d.ID),
		Name:        strings.TrimSpace(d.Name),
		Description: d.Description,
		Price:       price,
		Image:       strings.TrimSpace(d.Image),
	}, nil
}

// With returns a copy of the draft with field set to value.
func (d ProductDraft) With(field, value string) (ProductDraft, error) {
	switch strings.ToLower(field) {
	case "id":
		d.ID = value
	case "name":
		d.Name = value
	case "description":
		d.Description = value
	case "price":
		d.Price = value
	case "image":
		d.Image = value
	default:
		return d, fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	return d, nil
}

// Validate reports whether the row is fit for submission.
//
// The row is valid iff Name is non-empty and Email has the
// local@domain.tld shape.
func (d CustomerDraft) Validate() error {
	var reasons []string
	if strings.TrimSpace(d.Name) == "" {
		reasons = append(reasons, "name is empty")
	}
	if !emailRe.MatchString(d.Email) {
		reasons = append(reasons, fmt.Sprintf("email %q is malformed", d.Email))
	}
	if len(reasons) != 0 {
		return &ValidationError{Reasons: reasons}
	}
	return nil
}

func (d CustomerDraft) Customer() (Customer, error) {
	const op = "CustomerDraft.Customer"

	if err := d.Validate(); err != nil {
		return Customer{}, fmt.Errorf("%s: %w", op, err)
	}
	return Customer{
		Name:  strings.TrimSpace(d.Name),
		Email: d.Email,
	}, nil
}

func (d CustomerDraft) With(field, value string) (CustomerDraft, error) {
	switch strings.ToLower(field) {
	case "name":
		d.Name = value
	case "email":
		d.Email = value
	default:
		return d, fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	return d, nil
}

// ValidateProduct checks an already built product, e.g. an edited one.
func ValidateProduct(p Product) error {
	var reasons []string
	if strings.TrimSpace(p.Name) == "" {
		reasons = append(reasons, "name is empty")
	}
	if !p.Price.IsPositive() {
		reasons = append(reasons, "price must be positive")
	}
	if len(reasons) != 0 {
		return &ValidationError{Reasons: reasons}
	}
	return nil
}

func parsePrice(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Decimal{}, fmt.Errorf("price is empty")
	}
	price, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("price %q is not a number", s)
	}
	if !price.IsPositive() {
		return decimal.Decimal{}, fmt.Errorf("price %q must be positive", s)
	}
	return price, nil
}
