package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/taskboard/taskboard-api/internal/core/domain"
	"github.com/taskboard/taskboard-api/internal/core/ports"
)

// RegistrationCache remembers uids already known to be stored (Redis).
type RegistrationCache interface {
	IsRegistered(ctx context.Context, uid string) (bool, error)
	MarkRegistered(ctx context.Context, uid string) error
}

type noopRegistrationCache struct{}

func (noopRegistrationCache) IsRegistered(context.Context, string) (bool, error) { return false, nil }
func (noopRegistrationCache) MarkRegistered(context.Context, string) error       { return nil }

// UserRegistry implements idempotent first-seen registration.
type UserRegistry struct {
	repo  ports.UserRepository
	cache RegistrationCache
	log   zerolog.Logger
	now   func() time.Time
}

var _ ports.UserRegistry = (*UserRegistry)(nil)

// NewUserRegistry returns a registry. cache may be nil.
func NewUserRegistry(repo ports.UserRepository, cache RegistrationCache, log zerolog.Logger) *UserRegistry {
	if cache == nil {
		cache = noopRegistrationCache{}
	}
	return &UserRegistry{repo: repo, cache: cache, log: log, now: utcNow}
}

// Register stores the user unless its uid is already known. Calling it on
// every client session start is safe.
func (r *UserRegistry) Register(ctx context.Context, in ports.RegisterUserInput) (bool, error) {
	if in.UID == "" {
		return false, domain.NewValidationError(domain.FieldUID, "User ID (uid) is required")
	}

	// 1. Cache hit means the record exists; a cache failure only costs a lookup.
	known, err := r.cache.IsRegistered(ctx, in.UID)
	if err != nil {
		r.log.Warn().Err(err).Str("uid", in.UID).Msg("registration cache check failed, falling back to store")
	} else if known {
		return false, nil
	}

	// 2. Store lookup.
	_, err = r.repo.FindByUID(ctx, in.UID)
	switch {
	case err == nil:
		r.remember(ctx, in.UID)
		return false, nil
	case !errors.Is(err, domain.ErrUserNotFound):
		return false, fmt.Errorf("register user: %w", err)
	}

	// 3. First sighting. Losing an insert race to another session is still "exists".
	user := &domain.User{
		UID:       in.UID,
		Email:     in.Email,
		Name:      in.Name,
		CreatedAt: r.now(),
	}
	if err := r.repo.Insert(ctx, user); err != nil {
		if errors.Is(err, domain.ErrUserExists) {
			r.remember(ctx, in.UID)
			return false, nil
		}
		return false, fmt.Errorf("register user: %w", err)
	}

	r.remember(ctx, in.UID)
	r.log.Info().Str("uid", in.UID).Msg("user registered")
	return true, nil
}

func (r *UserRegistry) remember(ctx context.Context, uid string) {
	if err := r.cache.MarkRegistered(ctx, uid); err != nil {
		r.log.Warn().Err(err).Str("uid", uid).Msg("failed to cache registration")
	}
}

// utcNow is millisecond-precise so values survive a round trip through the store.
func utcNow() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}
