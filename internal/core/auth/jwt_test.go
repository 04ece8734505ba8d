package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newJWTer(c *clock) *JWTer {
	return &JWTer{Secret: []byte("test-secret"), TTL: time.Minute, Now: c.now}
}

var ana = UserClaims{Username: "ana", Name: "Ana", Email: "ana@example.com", Status: "ACTIVE"}

func TestIssueAndVerify(t *testing.T) {
	c := &clock{t: time.Unix(1_700_000_000, 0)}
	j := newJWTer(c)

	tok, err := j.Issue("64b7f0c2a1b2c3d4e5f60718", ana)
	require.NoError(t, err)

	claims, err := j.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "64b7f0c2a1b2c3d4e5f60718", claims.Subject)
	assert.Equal(t, ana, claims.User)
	assert.Equal(t, c.t.Add(time.Minute).Unix(), claims.ExpiresAt.Unix())
	assert.Equal(t, 1, j.TTLMinutes())
}

func TestVerifyRejectsExpired(t *testing.T) {
	c := &clock{t: time.Unix(1_700_000_000, 0)}
	j := newJWTer(c)
	tok, err := j.Issue("sub-1", ana)
	require.NoError(t, err)

	c.t = c.t.Add(61 * time.Second)
	_, err = j.Verify(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsTamperedSignature(t *testing.T) {
	c := &clock{t: time.Now()}
	j := newJWTer(c)
	tok, err := j.Issue("sub-1", ana)
	require.NoError(t, err)

	parts := strings.Split(tok, ".")
	require.Len(t, parts, 3)
	sig := []byte(parts[2])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	tampered := parts[0] + "." + parts[1] + "." + string(sig)

	_, err = j.Verify(tampered)
	assert.ErrorIs(t, err, ErrInvalidToken)

	other := &JWTer{Secret: []byte("other"), TTL: time.Minute, Now: c.now}
	_, err = other.Verify(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsMalformedAndOtherAlgorithms(t *testing.T) {
	j := newJWTer(&clock{t: time.Now()})
	_, err := j.Verify("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "sub-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}})
	s, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = j.Verify(s)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRequiresSubject(t *testing.T) {
	j := newJWTer(&clock{t: time.Now()})
	tok, err := j.Issue("", ana)
	require.NoError(t, err)
	_, err = j.Verify(tok)
	assert.ErrorIs(t, err, ErrInvalidPayload)
}

func TestIssuerIsChecked(t *testing.T) {
	c := &clock{t: time.Now()}
	issuing := &JWTer{Secret: []byte("s"), Issuer: "shop", TTL: time.Minute, Now: c.now}
	tok, err := issuing.Issue("sub-1", ana)
	require.NoError(t, err)

	_, err = issuing.Verify(tok)
	require.NoError(t, err)

	strict := &JWTer{Secret: []byte("s"), Issuer: "someone-else", TTL: time.Minute, Now: c.now}
	_, err = strict.Verify(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestDecodeUncheckedIgnoresSignatureAndExpiry(t *testing.T) {
	c := &clock{t: time.Unix(1_600_000_000, 0)}
	tok, err := newJWTer(c).Issue("sub-9", ana)
	require.NoError(t, err)

	claims, ok := DecodeUnchecked(tok)
	require.True(t, ok)
	assert.Equal(t, "sub-9", claims.Subject)
	assert.Equal(t, "ana", claims.User.Username)

	_, ok = DecodeUnchecked("garbage")
	assert.False(t, ok)
}

func TestSubjectContext(t *testing.T) {
	_, ok := SubjectFrom(context.Background())
	assert.False(t, ok)

	sub, ok := SubjectFrom(WithSubject(context.Background(), "sub-1"))
	assert.True(t, ok)
	assert.Equal(t, "sub-1", sub)
}
