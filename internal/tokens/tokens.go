// Package tokens attaches credentials to outgoing metrics requests.
package tokens

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const Issuer = "vinceanalytics/dash"

// Signer decorates request headers with credentials.
type Signer interface {
	Sign(ctx context.Context, h http.Header) error
}

type SignerFunc func(ctx context.Context, h http.Header) error

func (f SignerFunc) Sign(ctx context.Context, h http.Header) error {
	return f(ctx, h)
}

// Bearer is a static api token.
type Bearer string

func (b Bearer) Sign(_ context.Context, h http.Header) error {
	if b == "" {
		return nil
	}
	h.Set("Authorization", "Bearer "+string(b))
	return nil
}

// JWT issues a short lived token signed with Key for every request.
type JWT struct {
	Key      ed25519.PrivateKey
	Subject  string
	Audience []string
	TTL      time.Duration
	Now      func() time.Time
}

func (j *JWT) Sign(_ context.Context, h http.Header) error {
	s, err := j.Issue()
	if err != nil {
		return err
	}
	h.Set("Authorization", "Bearer "+s)
	return nil
}

func (j *JWT) Issue() (string, error) {
	if len(j.Key) != ed25519.PrivateKeySize {
		return "", errors.New("tokens: missing ed25519 signing key")
	}
	now := time.Now
	if j.Now != nil {
		now = j.Now
	}
	ttl := j.TTL
	if ttl <= 0 {
		ttl = time.Minute
	}
	today := now().UTC()
	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, jwt.RegisteredClaims{
		Issuer:    Issuer,
		Subject:   j.Subject,
		Audience:  j.Audience,
		ExpiresAt: jwt.NewNumericDate(today.Add(ttl)),
		NotBefore: jwt.NewNumericDate(today),
		IssuedAt:  jwt.NewNumericDate(today),
		ID:        uuid.NewString(),
	})
	return token.SignedString(j.Key)
}

// Verify parses token with the public half of key. It is the check the backend
// runs on every signed request.
func Verify(key ed25519.PrivateKey, token string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	t, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return key.Public(), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodEdDSA.Alg()}), jwt.WithIssuer(Issuer))
	if err != nil {
		return nil, err
	}
	if !t.Valid {
		return nil, errors.New("tokens: invalid token")
	}
	return claims, nil
}

// Chain applies every non nil signer in order.
type Chain []Signer

func (c Chain) Sign(ctx context.Context, h http.Header) error {
	for _, s := range c {
		if s == nil {
			continue
		}
		if err := s.Sign(ctx, h); err != nil {
			return err
		}
	}
	return nil
}

// Headers sets fixed header values, like the project scoped headers the dashboard
// sends with some reads.
type Headers map[string]string

func (x Headers) Sign(_ context.Context, h http.Header) error {
	for k, v := range x {
		h.Set(k, v)
	}
	return nil
}

// LoadKey reads a PEM encoded PKCS8 ed25519 private key.
func LoadKey(path string) (ed25519.PrivateKey, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseKey(b)
}

func ParseKey(b []byte) (ed25519.PrivateKey, error) {
	data, _ := pem.Decode(b)
	if data == nil {
		return nil, errors.New("tokens: invalid secret key. Make sure you provide a PEM encoded ed25519 private key")
	}
	priv, err := x509.ParsePKCS8PrivateKey(data.Bytes)
	if err != nil {
		return nil, err
	}
	key, ok := priv.(ed25519.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("tokens: expected ed25519 key got %T", priv)
	}
	return key, nil
}

// GenerateKey returns a new PEM encoded PKCS8 ed25519 private key.
func GenerateKey() ([]byte, error) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}
	b, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		return nil, err
	}
	return pem.EncodeToMemory(&pem.Block{
		Type:  "PRIVATE KEY",
		Bytes: b,
	}), nil
}
