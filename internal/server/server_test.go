package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/authify/authgate"
	"github.com/authify/authgate/core"
	"github.com/authify/authgate/internal/authtest"
	"github.com/authify/authgate/internal/config"
	"github.com/authify/authgate/jwks"
	"github.com/authify/authgate/validator"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fixture struct {
	server *Server
	token  string
	reg    *prometheus.Registry
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Port:            8081,
			AllowedOrigins:  []string{"http://localhost:3000"},
			ShutdownTimeout: time.Second,
		},
		Auth: config.AuthConfig{ProjectID: authtest.Audience},
		Observability: config.ObservabilityConfig{
			LogLevel:       "info",
			LogFormat:      "json",
			MetricsEnabled: true,
		},
	}
}

func newFixture(t *testing.T, cfg *config.Config) *fixture {
	t.Helper()

	key := authtest.NewRSAKey(t)
	keys := authtest.NewKeyServer(t, map[string]string{"k1": authtest.CertificatePEM(t, key)})

	reg := prometheus.NewRegistry()
	metrics, err := authgate.NewPrometheusMetrics(reg)
	require.NoError(t, err)

	provider, err := jwks.NewProvider(jwks.WithKeysURL(keys.URL()))
	require.NoError(t, err)
	cache, err := jwks.NewCache(provider, jwks.WithMetrics(metrics))
	require.NoError(t, err)
	require.NoError(t, cache.Prime(context.Background()))

	v, err := validator.New(
		validator.WithKeyCache(cache),
		validator.WithIssuer(authtest.Issuer),
		validator.WithAudience(authtest.Audience),
	)
	require.NoError(t, err)

	c, err := core.New(core.WithValidator(v), core.WithMetrics(metrics))
	require.NoError(t, err)

	logger, _ := logtest.NewNullLogger()
	s, err := New(cfg, Deps{Core: c, Logger: logger, Gatherer: reg})
	require.NoError(t, err)

	return &fixture{
		server: s,
		token:  authtest.Sign(t, key, "k1", authtest.ValidClaims(time.Now())),
		reg:    reg,
	}
}

func (f *fixture) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)
	return rec
}

func TestServer_PublicRoutes(t *testing.T) {
	f := newFixture(t, testConfig())

	rec := f.do(httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())

	rec = f.do(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, banner, rec.Body.String())
}

func TestServer_Me(t *testing.T) {
	f := newFixture(t, testConfig())

	t.Run("answers the identity for a valid credential", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
		req.Header.Set("Authorization", "Bearer "+f.token)

		rec := f.do(req)

		require.Equal(t, http.StatusOK, rec.Code)
		var id core.Identity
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &id))
		assert.Equal(t, authtest.Subject, id.UID)
	})

	for name, header := range map[string]string{
		"missing":      "",
		"wrong scheme": "Basic " + f.token,
		"garbage":      "Bearer not-a-token",
	} {
		t.Run("rejects a "+name+" credential", func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}

			rec := f.do(req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.JSONEq(t, `{"error":{"code":"UNAUTHORIZED","message":"Invalid or missing credentials."}}`, rec.Body.String())
			assert.Equal(t, `Bearer realm="api"`, rec.Header().Get("WWW-Authenticate"))
		})
	}
}

func TestServer_Protected(t *testing.T) {
	f := newFixture(t, testConfig())
	f.server.Protected().POST("/posts", func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})

	rec := f.do(httptest.NewRequest(http.MethodPost, "/api/v1/posts", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/posts", nil)
	req.Header.Set("Authorization", "Bearer "+f.token)
	rec = f.do(req)
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestServer_Metrics(t *testing.T) {
	t.Run("exposed when enabled", func(t *testing.T) {
		f := newFixture(t, testConfig())

		rec := f.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "authgate_signing_keys 1")
	})

	t.Run("hidden when disabled", func(t *testing.T) {
		cfg := testConfig()
		cfg.Observability.MetricsEnabled = false
		f := newFixture(t, cfg)

		rec := f.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestServer_CORS(t *testing.T) {
	f := newFixture(t, testConfig())

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/auth/me", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	req.Header.Set("Access-Control-Request-Headers", "Authorization")

	rec := f.do(req)

	assert.NotEqual(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = f.do(req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestID(t *testing.T) {
	f := newFixture(t, testConfig())

	rec := f.do(httptest.NewRequest(http.MethodGet, "/health", nil))
	generated := rec.Header().Get(requestIDHeader)
	assert.Len(t, generated, 36)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	rec = f.do(req)
	assert.Equal(t, "abc-123", rec.Header().Get(requestIDHeader))
}

func TestNew_RequiresCore(t *testing.T) {
	_, err := New(testConfig(), Deps{})
	assert.Error(t, err)
}

func TestServer_Run(t *testing.T) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := lis.Addr().(*net.TCPAddr).Port
	require.NoError(t, lis.Close())

	cfg := testConfig()
	cfg.Server.Port = port
	f := newFixture(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.server.Run(ctx) }()

	url := fmt.Sprintf("http://127.0.0.1:%d/health", port)
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after the context was canceled")
	}
}
