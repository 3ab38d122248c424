package platform

import "errors"

// Typed failures surfaced to the sync coordinator so it can distinguish
// retryable from terminal conditions. Wrap with fmt.Errorf("...: %w") and
// match with errors.Is.
var (
	// ErrPlatformUnavailable marks transient transport failures; the next
	// scheduled pass retries, the current one does not.
	ErrPlatformUnavailable = errors.New("platform unavailable")

	// ErrAuthRejected marks a credential the platform refused.
	ErrAuthRejected = errors.New("platform rejected credentials")

	// ErrMalformedPayload marks a response that could not be decoded.
	ErrMalformedPayload = errors.New("malformed platform payload")

	// ErrNoRefreshToken is returned by Refresh callers when the connection
	// stores no refresh credential.
	ErrNoRefreshToken = errors.New("no refresh token stored")

	// ErrRefreshRejected is terminal until the user re-authorizes.
	ErrRefreshRejected = errors.New("platform rejected refresh token")
)
