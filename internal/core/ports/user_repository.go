package ports

import (
	"context"

	"github.com/taskboard/taskboard-api/internal/core/domain"
)

// UserRepository persists users keyed by uid.
type UserRepository interface {
	// FindByUID returns domain.ErrUserNotFound when the uid is unknown.
	FindByUID(ctx context.Context, uid string) (*domain.User, error)
	// Insert returns domain.ErrUserExists when the uid is already stored.
	Insert(ctx context.Context, user *domain.User) error
}
