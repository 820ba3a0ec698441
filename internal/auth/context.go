package auth

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

type contextKey string

const (
	teamIDKey contextKey = "teamID"
	userIDKey contextKey = "userID"
)

// ContextWithTeamID returns a new context that carries the authenticated team scope.
func ContextWithTeamID(ctx context.Context, id uuid.UUID) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, teamIDKey, id)
}

// TeamIDFromContext retrieves the authenticated team scope from the context, if any.
func TeamIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	if ctx == nil {
		return uuid.Nil, false
	}
	value := ctx.Value(teamIDKey)
	if value == nil {
		return uuid.Nil, false
	}
	id, ok := value.(uuid.UUID)
	if !ok {
		return uuid.Nil, false
	}
	if id == uuid.Nil {
		return uuid.Nil, false
	}
	return id, true
}

// ContextWithUserID returns a new context that carries the acting user.
func ContextWithUserID(ctx context.Context, id uuid.UUID) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, userIDKey, id)
}

// UserIDFromContext retrieves the acting user from the context, if any.
func UserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	if ctx == nil {
		return uuid.Nil, false
	}
	value := ctx.Value(userIDKey)
	if value == nil {
		return uuid.Nil, false
	}
	id, ok := value.(uuid.UUID)
	if !ok {
		return uuid.Nil, false
	}
	if id == uuid.Nil {
		return uuid.Nil, false
	}
	return id, true
}

// EnforceTeamScope ensures the provided team matches the authenticated scope when present.
func EnforceTeamScope(ctx context.Context, teamID uuid.UUID) error {
	if teamID == uuid.Nil {
		return fmt.Errorf("teamId is required")
	}
	scopedID, ok := TeamIDFromContext(ctx)
	if !ok {
		return nil
	}
	if scopedID != teamID {
		return fmt.Errorf("teamId %s does not match authenticated scope", teamID)
	}
	return nil
}
