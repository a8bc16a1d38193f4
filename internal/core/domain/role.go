package domain

import (
	"fmt"
	"strings"
)

type Role int

const (
	RoleUnset Role = iota
	RoleAdmin
	RoleCustomer
)

func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return "ADMIN"
	case RoleCustomer:
		return "CUSTOMER"
	case RoleUnset:
		return "UNSET"
	}
	return fmt.Sprintf("Role(%d)", int(r))
}

// ParseRole accepts role names case-insensitively. Empty string is RoleUnset.
func ParseRole(s string) (Role, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ADMIN":
		return RoleAdmin, nil
	case "CUSTOMER":
		return RoleCustomer, nil
	case "", "UNSET":
		return RoleUnset, nil
	}
	return RoleUnset, fmt.Errorf("%w: %q", ErrUnknownRole, s)
}

func (r Role) MarshalText() ([]byte, error) {
	if r == RoleUnset {
		return []byte{}, nil
	}
	return []byte(r.String()), nil
}

func (r *Role) UnmarshalText(b []byte) error {
	v, err := ParseRole(string(b))
	if err != nil {
		return err
	}
	*r = v
	return nil
}

// Permissions lists what a session in a role may do.
type Permissions struct {
	BrowseCatalog bool
	UseCart       bool
	ManageCatalog bool
}

func (r Role) Permissions() Permissions {
	switch r {
	case RoleAdmin:
		return Permissions{BrowseCatalog: true, UseCart: true, ManageCatalog: true}
	case RoleCustomer:
		return Permissions{BrowseCatalog: true, UseCart: true}
	case RoleUnset:
		return Permissions{BrowseCatalog: true, UseCart: true}
	}
	return Permissions{}
}

// CanManageCatalog is the predicate guarding batch add, edit and delete.
func CanManageCatalog(r Role) bool {
	return r.Permissions().ManageCatalog
}

type Credentials struct {
	Username string
	Password string
}
