package auth

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jack-Libra/coffeenote/internal/domain"
)

const testSecret = "test-signing-secret-0123456789abcdefghij"

var fixedNow = time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)

func newTestCodec(t *testing.T, secret string) *Codec {
	t.Helper()
	key, err := NewSigningKey(secret)
	require.NoError(t, err)
	return NewCodec(key)
}

// flipSignatureByte corrupts one raw byte of the signature segment and
// re-encodes it, so the result is still well-formed base64url.
func flipSignatureByte(t *testing.T, token string) string {
	t.Helper()
	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	sig, err := base64.RawURLEncoding.DecodeString(parts[2])
	require.NoError(t, err)
	sig[0] ^= 0xFF
	parts[2] = base64.RawURLEncoding.EncodeToString(sig)
	return strings.Join(parts, ".")
}

func TestNewSigningKey(t *testing.T) {
	t.Parallel()

	_, err := NewSigningKey("too-short")
	require.Error(t, err)

	_, err = NewSigningKey(strings.Repeat("k", MinSigningKeyLength))
	require.NoError(t, err)
}

func TestCodec_RoundTrip(t *testing.T) {
	t.Parallel()

	codec := newTestCodec(t, testSecret)
	principal := domain.Principal{ID: 2, Subject: "admin"}

	token, err := codec.Encode(principal, fixedNow, time.Hour)
	require.NoError(t, err)
	assert.Len(t, strings.Split(token, "."), 3)

	claims, err := codec.Decode(token)
	require.NoError(t, err)
	assert.Equal(t, principal, claims.Principal())
	assert.Equal(t, fixedNow, claims.IssuedAtTime().UTC())
	assert.Equal(t, fixedNow.Add(time.Hour), claims.ExpiresAtTime().UTC())
	assert.NotEmpty(t, claims.ID)
}

func TestCodec_DistinctTokensInSameInstant(t *testing.T) {
	t.Parallel()

	codec := newTestCodec(t, testSecret)
	principal := domain.Principal{ID: 1, Subject: "testuser"}

	first, err := codec.Encode(principal, fixedNow, time.Hour)
	require.NoError(t, err)
	second, err := codec.Encode(principal, fixedNow, time.Hour)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestCodec_EncodeRequiresSubject(t *testing.T) {
	t.Parallel()

	codec := newTestCodec(t, testSecret)
	_, err := codec.Encode(domain.Principal{ID: 1}, fixedNow, time.Hour)
	require.Error(t, err)
}

func TestCodec_DecodeIgnoresExpiry(t *testing.T) {
	t.Parallel()

	codec := newTestCodec(t, testSecret)
	token, err := codec.Encode(domain.Principal{ID: 1, Subject: "testuser"}, time.Now().Add(-48*time.Hour), time.Hour)
	require.NoError(t, err)

	claims, err := codec.Decode(token)
	require.NoError(t, err)
	assert.Equal(t, "testuser", claims.Subject)
}

func TestCodec_TamperedSignature(t *testing.T) {
	t.Parallel()

	codec := newTestCodec(t, testSecret)
	token, err := codec.Encode(domain.Principal{ID: 1, Subject: "testuser"}, fixedNow, time.Hour)
	require.NoError(t, err)

	_, err = codec.Decode(flipSignatureByte(t, token))
	assert.ErrorIs(t, err, ErrSignatureInvalid)
}

func TestCodec_AnyCharacterMutationFails(t *testing.T) {
	t.Parallel()

	codec := newTestCodec(t, testSecret)
	token, err := codec.Encode(domain.Principal{ID: 1, Subject: "testuser"}, fixedNow, time.Hour)
	require.NoError(t, err)

	for _, idx := range []int{0, len(token) / 2, len(token) - 2} {
		if token[idx] == '.' {
			continue
		}
		mutated := []byte(token)
		if mutated[idx] == 'A' {
			mutated[idx] = 'B'
		} else {
			mutated[idx] = 'A'
		}
		_, err := codec.Decode(string(mutated))
		assert.Error(t, err, "mutation at %d", idx)
	}
}

func TestCodec_WrongKey(t *testing.T) {
	t.Parallel()

	token, err := newTestCodec(t, testSecret).Encode(domain.Principal{ID: 1, Subject: "testuser"}, fixedNow, time.Hour)
	require.NoError(t, err)

	_, err = newTestCodec(t, strings.Repeat("x", 40)).Decode(token)
	assert.ErrorIs(t, err, ErrSignatureInvalid)
}

func TestCodec_Malformed(t *testing.T) {
	t.Parallel()

	codec := newTestCodec(t, testSecret)
	cases := map[string]string{
		"empty":         "",
		"garbage":       "not-a-token",
		"two segments":  "abc.def",
		"bad base64":    "###.###.###",
		"oversized":     strings.Repeat("a", maxTokenLength+1),
		"four segments": "a.b.c.d",
	}
	for name, token := range cases {
		token := token
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, err := codec.Decode(token)
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestCodec_MissingClaimsAreMalformed(t *testing.T) {
	t.Parallel()

	codec := newTestCodec(t, testSecret)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		PrincipalID: 1,
		IssuedAt:    newTimestamp(fixedNow),
		ExpiresAt:   newTimestamp(fixedNow.Add(time.Hour)),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = codec.Decode(token)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestCodec_UnsupportedAlgorithm(t *testing.T) {
	t.Parallel()

	codec := newTestCodec(t, testSecret)
	claims := &Claims{
		PrincipalID: 1,
		IssuedAt:    newTimestamp(fixedNow),
		ExpiresAt:   newTimestamp(fixedNow.Add(time.Hour)),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: "testuser",
		},
	}

	t.Run("HS512", func(t *testing.T) {
		t.Parallel()
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(testSecret))
		require.NoError(t, err)
		_, err = codec.Decode(token)
		assert.ErrorIs(t, err, ErrUnsupported)
	})

	t.Run("none", func(t *testing.T) {
		t.Parallel()
		token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = codec.Decode(token)
		assert.ErrorIs(t, err, ErrUnsupported)
	})

	t.Run("wrong typ header", func(t *testing.T) {
		t.Parallel()
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
		token.Header["typ"] = "at+jwt"
		signed, err := token.SignedString([]byte(testSecret))
		require.NoError(t, err)
		_, err = codec.Decode(signed)
		assert.ErrorIs(t, err, ErrUnsupported)
	})
}

func TestCodec_KeepsMillisecondPrecision(t *testing.T) {
	t.Parallel()

	codec := newTestCodec(t, testSecret)
	issuedAt := fixedNow.Add(400*time.Millisecond + 123456*time.Nanosecond)

	token, err := codec.Encode(domain.Principal{ID: 2, Subject: "admin"}, issuedAt, 24*time.Hour)
	require.NoError(t, err)

	claims, err := codec.Decode(token)
	require.NoError(t, err)
	assert.True(t, claims.IssuedAtTime().Equal(fixedNow.Add(400*time.Millisecond)))
	assert.True(t, claims.ExpiresAtTime().Equal(fixedNow.Add(24*time.Hour+400*time.Millisecond)))

	exp, err := claims.GetExpirationTime()
	require.NoError(t, err)
	assert.True(t, exp.Time.Equal(claims.ExpiresAtTime()))
}

func TestTimestamp_JSON(t *testing.T) {
	t.Parallel()

	// 1767225600.400 is not exactly representable as a float64.
	instant := time.Date(2026, time.January, 1, 0, 0, 0, 400*int(time.Millisecond), time.UTC)
	encoded, err := json.Marshal(newTimestamp(instant))
	require.NoError(t, err)
	assert.Equal(t, "1767225600.400", string(encoded))

	var decoded Timestamp
	require.NoError(t, json.Unmarshal(encoded, &decoded))
	assert.True(t, decoded.Equal(instant))

	cases := map[string]time.Time{
		"1767225600":           time.Unix(1767225600, 0),
		"1767225600.5":         time.Unix(1767225600, 500*int64(time.Millisecond)),
		"1767225600.123456789": time.Unix(1767225600, 123*int64(time.Millisecond)),
		"1.7672256e9":          time.Unix(1767225600, 0),
	}
	for raw, want := range cases {
		var ts Timestamp
		require.NoError(t, json.Unmarshal([]byte(raw), &ts), raw)
		assert.True(t, ts.Equal(want), "%s decoded as %s", raw, ts.Time)
	}

	for _, raw := range []string{`"1767225600"`, "-5", "12.x", "true"} {
		var ts Timestamp
		assert.Error(t, json.Unmarshal([]byte(raw), &ts), raw)
	}
}
