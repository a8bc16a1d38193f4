package domain_test

import (
	"testing"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	for in, want := range map[string]domain.Role{
		"ADMIN":    domain.RoleAdmin,
		"admin":    domain.RoleAdmin,
		"Customer": domain.RoleCustomer,
		"":         domain.RoleUnset,
	} {
		got, err := domain.ParseRole(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := domain.ParseRole("root")
	assert.ErrorIs(t, err, domain.ErrUnknownRole)
}

func TestCanManageCatalog(t *testing.T) {
	assert.True(t, domain.CanManageCatalog(domain.RoleAdmin))
	assert.False(t, domain.CanManageCatalog(domain.RoleCustomer))
	assert.False(t, domain.CanManageCatalog(domain.RoleUnset))
	assert.False(t, domain.CanManageCatalog(domain.Role(42)))
}

func TestPermissions(t *testing.T) {
	assert.True(t, domain.RoleUnset.Permissions().UseCart)
	assert.False(t, domain.RoleUnset.Permissions().ManageCatalog)
	assert.Equal(t, domain.Permissions{}, domain.Role(-1).Permissions())
	assert.True(t, domain.RoleCustomer.Permissions().BrowseCatalog)
}

func TestRoleText(t *testing.T) {
	b, err := domain.RoleCustomer.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "CUSTOMER", string(b))

	var r domain.Role
	require.NoError(t, r.UnmarshalText([]byte("admin")))
	assert.Equal(t, domain.RoleAdmin, r)
}
