// Package sessionfile persists the session role in a local YAML file.
package sessionfile

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
	"gopkg.in/yaml.v3"
)

var _ port.RoleStore = (*Store)(nil)

// RoleKey is the fixed name the role is stored under.
const RoleKey = "userRole"

type Store struct {
	path string
}

func New(path string) Store {
	return Store{path}
}

func (s Store) Load(ctx context.Context) (domain.Role, error) {
	const op = "Store.Load"

	if err := ctx.Err(); err != nil {
		return domain.RoleUnset, fmt.Errorf("%s: %w", op, err)
	}

	values, err := s.read()
	if err != nil {
		return domain.RoleUnset, fmt.Errorf("%s: %w", op, err)
	}

	role, err := domain.ParseRole(values[RoleKey])
	if err != nil {
		return domain.RoleUnset, fmt.Errorf("%s: %w", op, err)
	}
	return role, nil
}

func (s Store) Save(ctx context.Context, role domain.Role) error {
	const op = "Store.Save"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	values, err := s.read()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if role == domain.RoleUnset {
		delete(values, RoleKey)
	} else {
		values[RoleKey] = role.String()
	}

	if err := s.write(values); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Clear removes the stored role. Other keys in the file are kept.
func (s Store) Clear(ctx context.Context) error {
	return s.Save(ctx, domain.RoleUnset)
}

func (s Store) read() (map[string]string, error) {
	values := make(map[string]string)

	b, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return values, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(b, &values); err != nil {
		return nil, fmt.Errorf("malformed session file %q: %w", s.path, err)
	}
	if values == nil {
		values = make(map[string]string)
	}
	return values, nil
}

func (s Store) write(values map[string]string) error {
	b, err := yaml.Marshal(values)
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".session-*")
	if err != nil {
		return err
	}
	defer func() {
		if err := os.Remove(tmp.Name()); err != nil && !errors.Is(err, fs.ErrNotExist) {
			slog.Warn("failed to remove temp file", "op", "Store.write", "err", err)
		}
	}()

	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}
