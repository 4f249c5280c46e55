package domain

import "time"

// Principal is the authenticated identity a token represents.
type Principal struct {
	ID      int64
	Subject string
}

// Credential is a login attempt. It is consumed once and never stored.
type Credential struct {
	Subject string
	Secret  string
}

// PrincipalRecord is the stored form of a principal, including the secret digest.
type PrincipalRecord struct {
	Principal
	SecretHash string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
