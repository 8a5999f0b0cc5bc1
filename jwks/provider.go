package jwks

import (
	"context"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"

	"github.com/authify/authgate/core"
)

// DefaultKeysURL publishes the X.509 certificates that sign Firebase ID tokens.
const DefaultKeysURL = "https://www.googleapis.com/robot/v1/metadata/x509/securetoken@system.gserviceaccount.com"

const (
	defaultTimeout = 10 * time.Second

	// 1MB is generous; the endpoint usually answers with a few KB.
	maxResponseSize = 1 << 20
)

var (
	// ErrNetwork is returned when the key endpoint could not be reached,
	// timed out, or answered with a non-200 status.
	ErrNetwork = errors.New("key endpoint unreachable")

	// ErrParse is returned when the response is not a JSON object mapping key
	// ids to PEM strings, or when none of its keys are usable.
	ErrParse = errors.New("key endpoint response invalid")
)

// Provider fetches the identity provider's published signing keys.
// It performs exactly one request per Fetch and never retries.
type Provider struct {
	KeysURL *url.URL
	Client  *http.Client
	logger  core.Logger
	now     func() time.Time
}

// NewProvider builds and returns a new *Provider.
//
// Optional options:
//   - WithKeysURL: key endpoint (default: DefaultKeysURL)
//   - WithCustomClient: custom HTTP client
//   - WithTimeout: timeout of the default HTTP client (default: 10s)
//   - WithProviderLogger: logger for dropped keys
//
// Example:
//
//	provider, err := jwks.NewProvider(
//	    jwks.WithTimeout(5*time.Second),
//	)
func NewProvider(opts ...ProviderOption) (*Provider, error) {
	defaultURL, err := url.Parse(DefaultKeysURL)
	if err != nil {
		return nil, err
	}

	p := &Provider{
		KeysURL: defaultURL,
		Client:  &http.Client{Timeout: defaultTimeout},
		now:     time.Now,
	}

	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}

	return p, nil
}

// Fetch downloads the current key set and returns it as a complete snapshot.
//
// Keys whose PEM cannot be parsed are dropped with a warning. If no key
// survives the fetch fails with ErrParse, so a broken response never replaces
// a working snapshot.
func (p *Provider) Fetch(ctx context.Context) (*Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.KeysURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %w", ErrNetwork, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: request returned status %d, expected 200", ErrNetwork, resp.StatusCode)
	}

	var certs map[string]string
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseSize)).Decode(&certs); err != nil {
		if isTransportError(err) {
			return nil, fmt.Errorf("%w: reading response: %w", ErrNetwork, err)
		}
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}
	if certs == nil {
		return nil, fmt.Errorf("%w: expected a JSON object of key id to PEM", ErrParse)
	}

	kids := make([]string, 0, len(certs))
	for kid := range certs {
		kids = append(kids, kid)
	}
	sort.Strings(kids)

	keys := make([]SigningKey, 0, len(certs))
	for _, kid := range kids {
		key, err := parseSigningKey(kid, certs[kid])
		if err != nil {
			if p.logger != nil {
				p.logger.Warn("dropping unparseable signing key", "kid", kid, "error", err)
			}
			continue
		}
		keys = append(keys, key)
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("%w: no usable keys among %d entries", ErrParse, len(certs))
	}

	return NewSnapshot(keys, p.now(), parseCacheControl(resp.Header.Get("Cache-Control"))), nil
}

// parseSigningKey turns one PEM entry into an RS256 SigningKey. Certificates
// and PKIX/PKCS#1 public keys are accepted; anything private is refused.
func parseSigningKey(kid, pemData string) (SigningKey, error) {
	if kid == "" {
		return SigningKey{}, errors.New("empty key id")
	}

	block, _ := pem.Decode([]byte(pemData))
	if block == nil {
		return SigningKey{}, errors.New("no PEM block found")
	}

	var key jwk.Key
	switch block.Type {
	case "CERTIFICATE":
		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return SigningKey{}, fmt.Errorf("parsing certificate: %w", err)
		}
		pub, ok := cert.PublicKey.(*rsa.PublicKey)
		if !ok {
			return SigningKey{}, fmt.Errorf("certificate key is %T, expected RSA", cert.PublicKey)
		}
		key, err = jwk.FromRaw(pub)
		if err != nil {
			return SigningKey{}, err
		}
	case "PUBLIC KEY", "RSA PUBLIC KEY":
		var err error
		key, err = jwk.ParseKey([]byte(pemData), jwk.WithPEM(true))
		if err != nil {
			return SigningKey{}, fmt.Errorf("parsing public key: %w", err)
		}
	default:
		return SigningKey{}, fmt.Errorf("unsupported PEM block %q", block.Type)
	}

	if _, ok := key.(jwk.RSAPublicKey); !ok {
		return SigningKey{}, fmt.Errorf("key type %s is not an RSA public key", key.KeyType())
	}
	if err := key.Set(jwk.KeyIDKey, kid); err != nil {
		return SigningKey{}, err
	}
	if err := key.Set(jwk.AlgorithmKey, jwa.RS256); err != nil {
		return SigningKey{}, err
	}

	return SigningKey{KeyID: kid, Algorithm: jwa.RS256, Key: key}, nil
}

func isTransportError(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled)
}

// parseCacheControl extracts max-age from a Cache-Control header.
// Returns 0 if max-age is not present, not a positive integer, or above 7 days.
func parseCacheControl(cacheControl string) time.Duration {
	const (
		maxAgePrefix = "max-age="
		maxTTL       = 7 * 24 * time.Hour
	)

	for _, directive := range strings.Split(cacheControl, ",") {
		directive = strings.TrimSpace(directive)
		if !strings.HasPrefix(directive, maxAgePrefix) {
			continue
		}
		seconds, err := strconv.ParseInt(strings.TrimPrefix(directive, maxAgePrefix), 10, 64)
		if err != nil || seconds <= 0 {
			continue
		}
		if seconds > int64(maxTTL/time.Second) {
			return 0
		}

		return time.Duration(seconds) * time.Second
	}

	return 0
}
