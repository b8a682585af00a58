package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthMiddleware(t *testing.T) {
	const apiKey = "secret-key"

	mw := AuthMiddleware(apiKey, nil, NewSuspiciousActivityDetector())
	protected := mw(okHandler())

	tests := []struct {
		name           string
		path           string
		key            string
		expectedStatus int
	}{
		{"valid key", "/api/v1/progress", apiKey, http.StatusOK},
		{"missing key", "/api/v1/progress", "", http.StatusUnauthorized},
		{"wrong key", "/api/v1/progress", "wrong", http.StatusUnauthorized},
		{"healthz is public", "/healthz", "", http.StatusOK},
		{"readyz is public", "/readyz", "", http.StatusOK},
		{"metrics is public", "/metrics", "", http.StatusOK},
		{"swagger is public", "/swagger/index.html", "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.key != "" {
				req.Header.Set(HeaderAPIKey, tt.key)
			}
			rec := httptest.NewRecorder()
			protected.ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
		})
	}
}

func TestSecurityHeadersMiddleware(t *testing.T) {
	mw := SecurityHeadersMiddleware()
	h := mw(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, HeaderValueNoSniff, rec.Header().Get(HeaderContentType))
	assert.Equal(t, HeaderValueSameOrigin, rec.Header().Get(HeaderFrameOptions))
	assert.Equal(t, HeaderValueXSSBlock, rec.Header().Get(HeaderXSSProtection))
	assert.Equal(t, HeaderValueReferrerStrictOrigin, rec.Header().Get(HeaderReferrerPolicy))
}

func TestExtractIP(t *testing.T) {
	tests := []struct {
		name           string
		remoteAddr     string
		forwardedFor   string
		trustedProxies []string
		expected       string
	}{
		{
			name:       "direct connection",
			remoteAddr: "203.0.113.5:4412",
			expected:   "203.0.113.5",
		},
		{
			name:           "forwarded-for ignored from untrusted source",
			remoteAddr:     "203.0.113.5:4412",
			forwardedFor:   "198.51.100.7",
			trustedProxies: []string{"10.0.0.1"},
			expected:       "203.0.113.5",
		},
		{
			name:           "forwarded-for honored from trusted proxy",
			remoteAddr:     "10.0.0.1:9000",
			forwardedFor:   "198.51.100.7",
			trustedProxies: []string{"10.0.0.1"},
			expected:       "198.51.100.7",
		},
		{
			name:           "rightmost hop wins with proxy chain",
			remoteAddr:     "10.0.0.1:9000",
			forwardedFor:   "198.51.100.7, 192.0.2.10",
			trustedProxies: []string{"10.0.0.1"},
			expected:       "192.0.2.10",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.forwardedFor != "" {
				req.Header.Set(HeaderForwardedFor, tt.forwardedFor)
			}

			assert.Equal(t, tt.expected, extractIP(req, tt.trustedProxies))
		})
	}
}

func TestRateLimit(t *testing.T) {
	detector := NewSuspiciousActivityDetector()

	for i := 0; i < 1000; i++ {
		assert.True(t, detector.RecordRequest("203.0.113.5"))
	}
	assert.False(t, detector.RecordRequest("203.0.113.5"))

	// Other IPs are unaffected.
	assert.True(t, detector.RecordRequest("198.51.100.7"))
}
