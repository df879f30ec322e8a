package store

import (
	"database/sql"
	"fmt"
)

// Store is the narrow data-access layer over the SQL database. Handlers and
// the chat pipeline never touch *sql.DB directly.
type Store struct {
	db     *sql.DB
	cipher *keyCipher
}

// New builds a Store. API key encryption is enabled when DARKCHAT_APIKEY_KEY
// is set; otherwise key values are stored as-is.
func New(db *sql.DB) (*Store, error) {
	cipher, err := newKeyCipherFromEnv()
	if err != nil {
		return nil, fmt.Errorf("init key cipher: %w", err)
	}
	return &Store{db: db, cipher: cipher}, nil
}

// DB exposes the underlying handle for migrations and tests.
func (s *Store) DB() *sql.DB {
	return s.db
}
