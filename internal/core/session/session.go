// Package session holds the role of the current storefront session.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
)

// A Gate is the explicit session context. Its role changes only on a
// successful login result and on logout.
type Gate struct {
	auth  port.Authenticator
	store port.RoleStore

	mu   sync.RWMutex
	role domain.Role
}

func NewGate(auth port.Authenticator, store port.RoleStore) *Gate {
	return &Gate{auth: auth, store: store}
}

func (g *Gate) Role() domain.Role {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.role
}

func (g *Gate) CanManageCatalog() bool {
	return domain.CanManageCatalog(g.Role())
}

// Restore adopts the persisted role. Absence of a stored value is
// [domain.RoleUnset].
func (g *Gate) Restore(ctx context.Context) (domain.Role, error) {
	const op = "Gate.Restore"

	role, err := g.store.Load(ctx)
	if err != nil {
		return domain.RoleUnset, fmt.Errorf("%s: %w", op, err)
	}

	g.mu.Lock()
	g.role = role
	g.mu.Unlock()

	slog.Debug("session restored", "op", op, "role", role)
	return role, nil
}

// Login authenticates the credentials and moves the session out of
// [domain.RoleUnset]. An authenticated session must log out first.
func (g *Gate) Login(ctx context.Context, creds domain.Credentials) (domain.Role, error) {
	const op = "Gate.Login"

	if g.Role() != domain.RoleUnset {
		return g.Role(), fmt.Errorf("%s: %w", op, domain.ErrSessionActive)
	}

	role, err := g.auth.Login(ctx, creds)
	if err != nil {
		return domain.RoleUnset, fmt.Errorf("%s: %w", op, err)
	}

	switch role {
	case domain.RoleAdmin, domain.RoleCustomer:
	case domain.RoleUnset:
		return domain.RoleUnset, fmt.Errorf("%s: login returned no role: %w",
			op, domain.ErrUnknownRole)
	default:
		return domain.RoleUnset, fmt.Errorf("%s: %w: %v", op, domain.ErrUnknownRole, role)
	}

	g.mu.Lock()
	if g.role != domain.RoleUnset {
		g.mu.Unlock()
		return g.Role(), fmt.Errorf("%s: %w", op, domain.ErrSessionActive)
	}
	g.role = role
	g.mu.Unlock()

	if err := g.store.Save(ctx, role); err != nil {
		slog.Warn("failed to persist role", "op", op, "err", err)
	}

	slog.Info("logged in", "op", op, "role", role)
	return role, nil
}

// Logout clears the session back to [domain.RoleUnset].
func (g *Gate) Logout(ctx context.Context) error {
	const op = "Gate.Logout"

	g.mu.Lock()
	g.role = domain.RoleUnset
	g.mu.Unlock()

	if err := g.store.Clear(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	slog.Info("logged out", "op", op)
	return nil
}
