package repository

import "time"

// PostgresOption applies a configuration option to the PostgresStore.
type PostgresOption func(*PostgresStore)

// WithMigrate runs pending migrations when the store is opened.
func WithMigrate(enabled bool) PostgresOption {
	return func(s *PostgresStore) {
		s.migrate = enabled
	}
}

// WithMaxOpenConns caps the connection pool.
func WithMaxOpenConns(n int) PostgresOption {
	return func(s *PostgresStore) {
		if n > 0 {
			s.maxOpenConns = n
		}
	}
}

// WithDialTimeout bounds connection establishment.
func WithDialTimeout(d time.Duration) PostgresOption {
	return func(s *PostgresStore) {
		if d > 0 {
			s.dialTimeout = d
		}
	}
}
