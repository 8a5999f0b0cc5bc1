// Package authtest mints RS256 credentials and serves fake key endpoints for
// tests. Tokens are produced with go-jose so they are built independently of
// the jwx-based verifier under test.
package authtest

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/json"
	"encoding/pem"
	"math/big"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/go-jose/go-jose/v4/jwt"
	"github.com/stretchr/testify/require"
)

// Defaults used by ValidClaims.
const (
	Audience = "proj1"
	Issuer   = "https://issuer.example/proj1"
	Subject  = "user-42"
)

// NewRSAKey generates a 2048-bit RSA key.
func NewRSAKey(t testing.TB) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return key
}

// CertificatePEM returns a self-signed certificate for key, PEM encoded the
// way the identity provider publishes it.
func CertificatePEM(t testing.TB, key *rsa.PrivateKey) string {
	t.Helper()
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "securetoken.system.gserviceaccount.com"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(24 * time.Hour),
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)
	return string(pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}))
}

// PublicKeyPEM returns the PKIX "PUBLIC KEY" encoding of key's public half.
func PublicKeyPEM(t testing.TB, key *rsa.PrivateKey) string {
	t.Helper()
	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	return string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}))
}

// PrivateKeyPEM returns the PKCS#1 "RSA PRIVATE KEY" encoding of key.
func PrivateKeyPEM(key *rsa.PrivateKey) string {
	return string(pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)}))
}

// ValidClaims returns claims that pass verification against Audience and
// Issuer at now.
func ValidClaims(now time.Time) map[string]any {
	return map[string]any{
		"aud": Audience,
		"iss": Issuer,
		"sub": Subject,
		"iat": now.Add(-time.Minute).Unix(),
		"exp": now.Add(time.Hour).Unix(),
	}
}

// Sign returns a compact RS256 token over claims. An empty kid omits the
// header.
func Sign(t testing.TB, key *rsa.PrivateKey, kid string, claims map[string]any) string {
	t.Helper()
	opts := (&jose.SignerOptions{}).WithType("JWT")
	if kid != "" {
		opts = opts.WithHeader("kid", kid)
	}
	signer, err := jose.NewSigner(jose.SigningKey{Algorithm: jose.RS256, Key: key}, opts)
	require.NoError(t, err)

	token, err := jwt.Signed(signer).Claims(claims).Serialize()
	require.NoError(t, err)
	return token
}

// KeyServer is a fake key endpoint whose response can change between fetches.
type KeyServer struct {
	server   *httptest.Server
	requests atomic.Int32

	mu           sync.Mutex
	body         []byte
	status       int
	cacheControl string
	gate         chan struct{}
}

// NewKeyServer serves certs as a JSON object until closed by t's cleanup.
func NewKeyServer(t testing.TB, certs map[string]string) *KeyServer {
	t.Helper()
	s := &KeyServer{status: http.StatusOK}
	s.SetCerts(t, certs)
	s.server = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.server.Close)
	return s
}

func (s *KeyServer) serve(w http.ResponseWriter, _ *http.Request) {
	s.requests.Add(1)

	s.mu.Lock()
	body, status, cacheControl, gate := s.body, s.status, s.cacheControl, s.gate
	s.mu.Unlock()

	if gate != nil {
		<-gate
	}

	w.Header().Set("Content-Type", "application/json")
	if cacheControl != "" {
		w.Header().Set("Cache-Control", cacheControl)
	}
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// URL returns the endpoint address.
func (s *KeyServer) URL() *url.URL {
	u, _ := url.Parse(s.server.URL)
	return u
}

// SetCerts replaces the served key set.
func (s *KeyServer) SetCerts(t testing.TB, certs map[string]string) {
	t.Helper()
	body, err := json.Marshal(certs)
	require.NoError(t, err)
	s.SetBody(body)
}

// SetBody replaces the raw response body.
func (s *KeyServer) SetBody(body []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.body = body
}

// SetStatus replaces the response status code.
func (s *KeyServer) SetStatus(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status
}

// SetCacheControl sets the Cache-Control header sent with each response.
func (s *KeyServer) SetCacheControl(v string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cacheControl = v
}

// Hold makes requests block until the returned release func is called.
func (s *KeyServer) Hold() (release func()) {
	gate := make(chan struct{})
	s.mu.Lock()
	s.gate = gate
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			s.gate = nil
			s.mu.Unlock()
			close(gate)
		})
	}
}

// Requests returns how many requests the endpoint has received.
func (s *KeyServer) Requests() int {
	return int(s.requests.Load())
}
