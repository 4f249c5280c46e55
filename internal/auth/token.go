package auth

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/Jack-Libra/coffeenote/internal/domain"
)

const (
	// MinSigningKeyLength is the HS256 key size in bytes.
	MinSigningKeyLength = 32

	tokenType      = "JWT"
	maxTokenLength = 8 << 10
)

// SigningKey is the process-wide HMAC secret shared by the encode and decode paths.
type SigningKey struct {
	secret []byte
}

// NewSigningKey derives the signing key from configured secret material.
func NewSigningKey(secret string) (SigningKey, error) {
	if len(secret) < MinSigningKeyLength {
		return SigningKey{}, fmt.Errorf("signing key must be at least %d bytes, got %d", MinSigningKeyLength, len(secret))
	}
	key := make([]byte, len(secret))
	copy(key, secret)
	return SigningKey{secret: key}, nil
}

// Timestamp is a JWT NumericDate kept at millisecond resolution, so two
// tokens minted within the same second still carry distinct expiries.
type Timestamp struct {
	time.Time
}

func newTimestamp(t time.Time) *Timestamp {
	return &Timestamp{Time: t.Truncate(time.Millisecond)}
}

// MarshalJSON writes seconds since the epoch with three fractional digits.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	ms := t.UnixMilli()
	if ms < 0 {
		return nil, fmt.Errorf("timestamp %s precedes the epoch", t.Time)
	}
	return []byte(fmt.Sprintf("%d.%03d", ms/1000, ms%1000)), nil
}

// UnmarshalJSON parses a NumericDate digit by digit; going through float64
// would lose the last millisecond for current epoch values.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	whole, frac, _ := strings.Cut(raw, ".")

	sec, err := strconv.ParseUint(whole, 10, 63)
	if err != nil {
		// Exponent notation from other encoders.
		f, ferr := strconv.ParseFloat(raw, 64)
		if ferr != nil || f < 0 {
			return fmt.Errorf("invalid numeric date %q", raw)
		}
		t.Time = time.UnixMilli(int64(f * 1000))
		return nil
	}

	var nanos uint64
	if frac != "" {
		if len(frac) > 9 {
			frac = frac[:9]
		}
		nanos, err = strconv.ParseUint(frac+strings.Repeat("0", 9-len(frac)), 10, 64)
		if err != nil {
			return fmt.Errorf("invalid numeric date %q", raw)
		}
	}
	t.Time = time.Unix(int64(sec), int64(nanos)).Truncate(time.Millisecond)
	return nil
}

func (t *Timestamp) numericDate() *jwt.NumericDate {
	if t == nil {
		return nil
	}
	return &jwt.NumericDate{Time: t.Time}
}

// Claims describes the JWT payload. IssuedAt and ExpiresAt shadow the
// second-resolution fields of the embedded registered claims.
type Claims struct {
	PrincipalID int64      `json:"principal_id"`
	IssuedAt    *Timestamp `json:"iat,omitempty"`
	ExpiresAt   *Timestamp `json:"exp,omitempty"`
	jwt.RegisteredClaims
}

// GetIssuedAt implements jwt.Claims.
func (c *Claims) GetIssuedAt() (*jwt.NumericDate, error) {
	return c.IssuedAt.numericDate(), nil
}

// GetExpirationTime implements jwt.Claims.
func (c *Claims) GetExpirationTime() (*jwt.NumericDate, error) {
	return c.ExpiresAt.numericDate(), nil
}

// Principal returns the identity the claims assert.
func (c *Claims) Principal() domain.Principal {
	return domain.Principal{ID: c.PrincipalID, Subject: c.Subject}
}

// IssuedAtTime returns the issue instant.
func (c *Claims) IssuedAtTime() time.Time {
	if c.IssuedAt == nil {
		return time.Time{}
	}
	return c.IssuedAt.Time
}

// ExpiresAtTime returns the expiry instant.
func (c *Claims) ExpiresAtTime() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

// Codec signs and verifies HS256 tokens. It performs no I/O and holds no
// mutable state, so a single instance serves all requests concurrently.
type Codec struct {
	key    SigningKey
	parser *jwt.Parser
	newID  func() string
}

// NewCodec builds a codec bound to key.
func NewCodec(key SigningKey) *Codec {
	return &Codec{
		key: key,
		// Expiry is the lifecycle manager's concern, so registered-claim
		// validation is disabled here.
		parser: jwt.NewParser(jwt.WithoutClaimsValidation(), jwt.WithStrictDecoding()),
		newID:  uuid.NewString,
	}
}

// Encode signs claims for principal valid from issuedAt for ttl.
func (c *Codec) Encode(principal domain.Principal, issuedAt time.Time, ttl time.Duration) (string, error) {
	if principal.Subject == "" {
		return "", errors.New("principal subject is required")
	}
	if len(c.key.secret) == 0 {
		return "", errors.New("signing key is not configured")
	}

	claims := &Claims{
		PrincipalID: principal.ID,
		IssuedAt:    newTimestamp(issuedAt),
		ExpiresAt:   newTimestamp(issuedAt.Add(ttl)),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:      c.newID(),
			Subject: principal.Subject,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.key.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Decode verifies the signature and returns the claims. It never checks expiry.
func (c *Codec) Decode(tokenStr string) (*Claims, error) {
	if tokenStr == "" || len(tokenStr) > maxTokenLength {
		return nil, ErrMalformed
	}

	claims := &Claims{}
	parsed, err := c.parser.ParseWithClaims(tokenStr, claims, c.keyFunc)
	if err != nil {
		return nil, classifyTokenError(err)
	}
	if !parsed.Valid {
		return nil, ErrSignatureInvalid
	}
	if claims.Subject == "" || claims.IssuedAt == nil || claims.ExpiresAt == nil {
		return nil, fmt.Errorf("%w: missing required claims", ErrMalformed)
	}
	return claims, nil
}

func (c *Codec) keyFunc(token *jwt.Token) (interface{}, error) {
	if alg := token.Method.Alg(); alg != jwt.SigningMethodHS256.Alg() {
		return nil, fmt.Errorf("unexpected signing method %q", alg)
	}
	if typ, _ := token.Header["typ"].(string); typ != tokenType {
		return nil, fmt.Errorf("unexpected token type %q", typ)
	}
	return c.key.secret, nil
}

// classifyTokenError maps jwt library failures onto the package taxonomy.
func classifyTokenError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return fmt.Errorf("%w: %v", ErrSignatureInvalid, err)
	case errors.Is(err, jwt.ErrTokenUnverifiable):
		return fmt.Errorf("%w: %v", ErrUnsupported, err)
	default:
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
}
