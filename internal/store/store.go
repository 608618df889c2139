// Package store is the gorm persistence layer for the inventory.
package store

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when a looked-up record does not exist
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique field is already taken
	ErrDuplicate = errors.New("record already exists")
	// ErrInvalidTransition is returned when a command is already terminal
	ErrInvalidTransition = errors.New("invalid status transition")
)

// Store wraps a gorm handle
type Store struct {
	db *gorm.DB
}

// New creates a Store
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// DB exposes the underlying handle
func (s *Store) DB() *gorm.DB {
	return s.db
}

func (s *Store) withCtx(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// Page is a 1-based page request; zero PageSize means unbounded
type Page struct {
	Page     int
	PageSize int
}

func (p Page) apply(q *gorm.DB) *gorm.DB {
	if p.PageSize <= 0 {
		return q
	}
	page := p.Page
	if page < 1 {
		page = 1
	}
	return q.Offset((page - 1) * p.PageSize).Limit(p.PageSize)
}

// stringsOf converts a slice of string enums for use in IN clauses
func stringsOf[T ~string](in []T) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = string(v)
	}
	return out
}
