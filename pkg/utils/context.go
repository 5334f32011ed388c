package utils

import (
	"context"

	"github.com/google/uuid"
)

type principalKey struct{}

// principal is what the auth middleware knows about the caller.
type principal struct {
	userID uuid.UUID
	role   string
	token  string
}

func principalFrom(ctx context.Context) (principal, bool) {
	p, ok := ctx.Value(principalKey{}).(principal)
	return p, ok
}

func SetUserContext(ctx context.Context, userID uuid.UUID, role string) context.Context {
	p, _ := principalFrom(ctx)
	p.userID, p.role = userID, role
	return context.WithValue(ctx, principalKey{}, p)
}

func SetTokenContext(ctx context.Context, token string) context.Context {
	p, _ := principalFrom(ctx)
	p.token = token
	return context.WithValue(ctx, principalKey{}, p)
}

func GetUserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	p, ok := principalFrom(ctx)
	if !ok || p.userID == uuid.Nil {
		return uuid.Nil, false
	}
	return p.userID, true
}

func GetRoleFromContext(ctx context.Context) (string, bool) {
	p, ok := principalFrom(ctx)
	if !ok || p.role == "" {
		return "", false
	}
	return p.role, true
}

func GetTokenFromContext(ctx context.Context) (string, bool) {
	p, ok := principalFrom(ctx)
	if !ok || p.token == "" {
		return "", false
	}
	return p.token, true
}
