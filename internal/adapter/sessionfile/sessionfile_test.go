package sessionfile_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/niksmo/storefront/internal/adapter/sessionfile"
	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore(t *testing.T) {
	t.Run("MissingFileIsUnset", func(t *testing.T) {
		s := sessionfile.New(filepath.Join(t.TempDir(), "none", "session.yaml"))
		role, err := s.Load(t.Context())
		require.NoError(t, err)
		assert.Equal(t, domain.RoleUnset, role)
	})

	t.Run("SaveLoadClear", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "state", "session.yaml")
		s := sessionfile.New(path)

		require.NoError(t, s.Save(t.Context(), domain.RoleAdmin))

		b, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(b), "userRole: ADMIN")

		role, err := sessionfile.New(path).Load(t.Context())
		require.NoError(t, err)
		assert.Equal(t, domain.RoleAdmin, role)

		require.NoError(t, s.Clear(t.Context()))
		role, err = s.Load(t.Context())
		require.NoError(t, err)
		assert.Equal(t, domain.RoleUnset, role)
	})

	t.Run("KeepsOtherKeys", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "session.yaml")
		require.NoError(t, os.WriteFile(path, []byte("theme: dark\nuserRole: customer\n"), 0o600))
		s := sessionfile.New(path)

		role, err := s.Load(t.Context())
		require.NoError(t, err)
		assert.Equal(t, domain.RoleCustomer, role)

		require.NoError(t, s.Clear(t.Context()))
		b, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "theme: dark\n", string(b))
	})

	t.Run("UnknownRole", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "session.yaml")
		require.NoError(t, os.WriteFile(path, []byte("userRole: root\n"), 0o600))

		_, err := sessionfile.New(path).Load(t.Context())
		assert.ErrorIs(t, err, domain.ErrUnknownRole)
	})
}
