package port

import "errors"

// Sentinel errors used across ports.
var (
	ErrNoSession     = errors.New("no session created")
	ErrMissingTokens = errors.New("missing access token or refresh token")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrRoomNotFound  = errors.New("chat room not found")
)

// ProviderError carries a human-readable message authored by the identity
// provider. These pass through to the user verbatim; everything else maps
// to a fixed generic message.
type ProviderError struct {
	Message string
}

func (e *ProviderError) Error() string {
	return e.Message
}
