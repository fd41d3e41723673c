// Package playback issues and verifies the short-lived tokens that gate
// access to the media streaming endpoint. A token binds one video to one
// user for a bounded window; verification is stateless so every range
// request a player issues can be checked without server-side session
// state.
package playback

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultTTL bounds exposure if a playback URL leaks (browser history,
// referrers, shared links) while still covering a full viewing session.
const DefaultTTL = 4 * time.Hour

// Distinct verification failures; the endpoint logs the specific kind but
// answers clients with a generic message.
var (
	ErrTokenMalformed = errors.New("playback: malformed token")
	ErrTokenSignature = errors.New("playback: invalid token signature")
	ErrTokenExpired   = errors.New("playback: token expired")
)

// Claims are the verified contents of a playback token.
type Claims struct {
	VideoID string
	UserID  string
}

type tokenClaims struct {
	VideoID string `json:"vid"`
	jwt.RegisteredClaims
}

// Codec holds the signing secret and clock for playback tokens. It is
// constructed once at startup and injected wherever tokens are minted or
// checked; the secret never lives in package-level state.
type Codec struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// CodecOption configures Codec behavior.
type CodecOption func(*Codec)

// WithTTL overrides the default token lifetime.
func WithTTL(ttl time.Duration) CodecOption {
	return func(c *Codec) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) CodecOption {
	return func(c *Codec) {
		if fn != nil {
			c.now = fn
		}
	}
}

// NewCodec constructs a Codec. The secret must be non-empty.
func NewCodec(secret, issuer string, opts ...CodecOption) (*Codec, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, errors.New("playback: signing secret is not configured")
	}
	c := &Codec{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    DefaultTTL,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// TTL returns the configured token lifetime.
func (c *Codec) TTL() time.Duration { return c.ttl }

// Issue mints a signed token for one video and one user. The caller is
// responsible for having checked entitlement first. The result is a JWT
// compact serialization, safe to embed in a URL path segment.
func (c *Codec) Issue(videoID, userID string, ttl time.Duration) (string, time.Time, error) {
	videoID = strings.TrimSpace(videoID)
	userID = strings.TrimSpace(userID)
	if videoID == "" || userID == "" {
		return "", time.Time{}, errors.New("playback: videoID and userID are required")
	}
	if ttl <= 0 {
		ttl = c.ttl
	}
	now := c.now().UTC()
	expiresAt := now.Add(ttl)
	claims := tokenClaims{
		VideoID: videoID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign playback token: %w", err)
	}
	return signed, expiresAt, nil
}

// Verify checks signature and expiry and extracts the claims. It performs
// no I/O; the only time-dependent input is the expiry check, evaluated
// against the codec's clock on every call.
func (c *Codec) Verify(token string) (Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Claims{}, ErrTokenMalformed
	}
	parsed, err := jwt.ParseWithClaims(token, &tokenClaims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, ErrTokenSignature
		}
		return c.secret, nil
	}, jwt.WithTimeFunc(func() time.Time { return c.now().UTC() }))
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return Claims{}, ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return Claims{}, ErrTokenSignature
		default:
			return Claims{}, ErrTokenMalformed
		}
	}
	claims, ok := parsed.Claims.(*tokenClaims)
	if !ok || !parsed.Valid {
		return Claims{}, ErrTokenMalformed
	}
	if c.issuer != "" && claims.Issuer != c.issuer {
		return Claims{}, ErrTokenMalformed
	}
	if strings.TrimSpace(claims.VideoID) == "" || strings.TrimSpace(claims.Subject) == "" {
		return Claims{}, ErrTokenMalformed
	}
	return Claims{VideoID: claims.VideoID, UserID: claims.Subject}, nil
}
