package tokens

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBearer(t *testing.T) {
	h := http.Header{}
	require.NoError(t, Bearer("secret").Sign(context.Background(), h))
	require.Equal(t, "Bearer secret", h.Get("Authorization"))

	h = http.Header{}
	require.NoError(t, Bearer("").Sign(context.Background(), h))
	require.Empty(t, h.Get("Authorization"))
}

func TestJWT(t *testing.T) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	j := &JWT{Key: priv, Subject: "dashboard", Audience: []string{"metrics"}, TTL: time.Hour}
	h := http.Header{}
	require.NoError(t, j.Sign(context.Background(), h))

	auth := h.Get("Authorization")
	require.True(t, strings.HasPrefix(auth, "Bearer "))
	claims, err := Verify(priv, strings.TrimPrefix(auth, "Bearer "))
	require.NoError(t, err)
	require.Equal(t, "dashboard", claims.Subject)
	require.Equal(t, Issuer, claims.Issuer)
	require.NotEmpty(t, claims.ID)

	_, other, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	_, err = Verify(other, strings.TrimPrefix(auth, "Bearer "))
	require.Error(t, err)
}

func TestJWTExpired(t *testing.T) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	j := &JWT{Key: priv, TTL: time.Minute, Now: func() time.Time {
		return time.Now().Add(-time.Hour)
	}}
	s, err := j.Issue()
	require.NoError(t, err)
	_, err = Verify(priv, s)
	require.Error(t, err)
}

func TestJWTMissingKey(t *testing.T) {
	err := (&JWT{}).Sign(context.Background(), http.Header{})
	require.Error(t, err)
}

func TestChain(t *testing.T) {
	h := http.Header{}
	c := Chain{nil, Bearer("a"), Headers{"x-website-name": "example.com"}}
	require.NoError(t, c.Sign(context.Background(), h))
	require.Equal(t, "Bearer a", h.Get("Authorization"))
	require.Equal(t, "example.com", h.Get("X-Website-Name"))

	fail := SignerFunc(func(context.Context, http.Header) error {
		return os.ErrPermission
	})
	require.ErrorIs(t, Chain{fail, Bearer("b")}.Sign(context.Background(), http.Header{}), os.ErrPermission)
}

func TestLoadKey(t *testing.T) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	der, err := x509.MarshalPKCS8PrivateKey(priv)
	require.NoError(t, err)
	file := filepath.Join(t.TempDir(), "key.pem")
	require.NoError(t, os.WriteFile(file, pem.EncodeToMemory(&pem.Block{
		Type:  "PRIVATE KEY",
		Bytes: der,
	}), 0600))

	got, err := LoadKey(file)
	require.NoError(t, err)
	require.Equal(t, priv, got)

	_, err = ParseKey([]byte("not pem"))
	require.Error(t, err)
}

func TestGenerateKey(t *testing.T) {
	b, err := GenerateKey()
	require.NoError(t, err)
	key, err := ParseKey(b)
	require.NoError(t, err)
	s, err := (&JWT{Key: key}).Issue()
	require.NoError(t, err)
	_, err = Verify(key, s)
	require.NoError(t, err)
}
