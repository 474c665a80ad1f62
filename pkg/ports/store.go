package ports

import (
	"context"
	"time"
)

// Token is the durable part of a login: the backend user id and when it was stored.
type Token struct {
	UserID  string    `json:"user_id"`
	SavedAt time.Time `json:"saved_at"`
}

// TokenStore persists the logged-in user id per client.
// A client is one CLI installation or one browser-facing deployment.
type TokenStore interface {
	// Save stores the token for a client, replacing any previous one.
	Save(ctx context.Context, clientID string, token Token) error

	// Load retrieves the token of a client.
	// Returns domain.ErrTokenNotFound if nothing is stored.
	Load(ctx context.Context, clientID string) (Token, error)

	// Delete removes the token of a client. Deleting a missing token is not an error.
	Delete(ctx context.Context, clientID string) error

	// List returns the clients that currently hold a token.
	List(ctx context.Context) ([]string, error)
}
