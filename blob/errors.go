package blob

import "github.com/pkg/errors"

// Errors returned by key construction, decoding and ref access.
// Callers match them with errors.Is; the returned errors carry context.
var (
	ErrInvalidDigestLength = errors.New("invalid digest length")
	ErrMalformedKeyString  = errors.New("malformed key string")
	ErrInvalidHandle       = errors.New("invalid handle")
	ErrAlreadyReleased     = errors.New("already released")
)
