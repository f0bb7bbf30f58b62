package store

import (
	"context"
	"fmt"
)

// Open connects to the configured backend and ensures its schema exists.
func Open(ctx context.Context, driver, url string) (Store, error) {
	switch driver {
	case "postgres":
		s, err := NewPostgresStore(ctx, url)
		if err != nil {
			return nil, err
		}
		if err := s.Migrate(ctx); err != nil {
			s.Close()
			return nil, err
		}
		return s, nil
	case "sqlite", "":
		if url == "" {
			url = ":memory:"
		}
		return NewSQLiteStore(ctx, url)
	default:
		return nil, fmt.Errorf("unknown database driver %q", driver)
	}
}
