package authgate

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/authify/authgate/core"
)

func Test_AuthHeaderTokenExtractor(t *testing.T) {
	testCases := []struct {
		name      string
		header    string
		wantToken string
		wantError bool
	}{
		{name: "no header", header: ""},
		{name: "bearer token", header: "Bearer i-am-a-token", wantToken: "i-am-a-token"},
		{name: "lowercase scheme", header: "bearer i-am-a-token", wantToken: "i-am-a-token"},
		{name: "uppercase scheme", header: "BEARER i-am-a-token", wantToken: "i-am-a-token"},
		{name: "extra whitespace", header: "Bearer   i-am-a-token ", wantToken: "i-am-a-token"},
		{name: "basic scheme", header: "Basic dXNlcjpwYXNz", wantError: true},
		{name: "scheme only", header: "Bearer", wantError: true},
		{name: "too many parts", header: "Bearer a b", wantError: true},
		{name: "token without scheme", header: "i-am-a-token", wantError: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}

			token, err := AuthHeaderTokenExtractor(req)

			if tc.wantError {
				assert.ErrorIs(t, err, core.ErrCredentialMissing)
				assert.ErrorIs(t, err, core.ErrUnauthenticated)
				assert.Empty(t, token)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tc.wantToken, token)
		})
	}
}
