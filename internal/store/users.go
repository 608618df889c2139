package store

import (
	"context"
	"fmt"

	"go_netinv/internal/model"
)

// GetUserByUsername loads a user by username
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	var u model.User
	if err := s.withCtx(ctx).Where("username = ?", username).First(&u).Error; err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

// CreateUser inserts u; a taken username yields ErrDuplicate
func (s *Store) CreateUser(ctx context.Context, u *model.User) error {
	var count int64
	if err := s.withCtx(ctx).Model(&model.User{}).Where("username = ?", u.Username).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("user %q: %w", u.Username, ErrDuplicate)
	}
	return s.withCtx(ctx).Create(u).Error
}
