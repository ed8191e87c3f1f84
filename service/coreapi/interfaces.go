package coreapi

import "context"

// TokenProvider hands out valid bearer tokens. Services hold one without owning its state.
//
//go:generate mockgen -source=interfaces.go -package coreapi -destination mock_token_provider.go TokenProvider
type TokenProvider interface {
	IsProvisioned() bool
	Token(ctx context.Context, product Product) (Token, error)
	OAuthToken(ctx context.Context, product Product, authReqID string) (Token, error)
}
