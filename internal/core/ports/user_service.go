package ports

import "context"

// RegisterUserInput carries the identity reported by a client at session start.
type RegisterUserInput struct {
	UID   string
	Email string
	Name  string
}

// UserRegistry records users the first time they are seen.
type UserRegistry interface {
	// Register reports created=true only for the call that stored the user.
	Register(ctx context.Context, input RegisterUserInput) (created bool, err error)
}
