package auth

import "errors"

// Token and credential failures. Callers compare with errors.Is.
var (
	// ErrSignatureInvalid means the token was tampered with or signed with another key.
	ErrSignatureInvalid = errors.New("token signature is invalid")

	// ErrMalformed means the token structure or claims could not be parsed.
	ErrMalformed = errors.New("token is malformed")

	// ErrUnsupported means the token uses an unrecognized algorithm or type.
	ErrUnsupported = errors.New("token encoding is not supported")

	// ErrExpired means the token decoded cleanly but its validity window has passed.
	ErrExpired = errors.New("token has expired")

	// ErrAuthenticationFailed means the presented credentials were rejected.
	ErrAuthenticationFailed = errors.New("invalid credentials")

	// ErrRefreshFailed means a token could not be refreshed.
	ErrRefreshFailed = errors.New("token cannot be refreshed")

	// ErrRefreshWindowExceeded means the token expired longer ago than the refresh grace allows.
	ErrRefreshWindowExceeded = errors.New("token expired outside the refresh window")

	// ErrMissingOrMalformedHeader means no usable bearer authorization value was sent.
	ErrMissingOrMalformedHeader = errors.New("missing or malformed bearer authorization header")

	// ErrSubjectMismatch means the token subject differs from the expected principal.
	ErrSubjectMismatch = errors.New("token subject does not match principal")

	// ErrUnknownPrincipal means the token refers to a principal the store no longer knows.
	ErrUnknownPrincipal = errors.New("token principal is unknown")
)
