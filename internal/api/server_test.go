package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/shopify-repricer/internal/config"
)

func TestServer_AddrFromConfig(t *testing.T) {
	srv := NewServer(config.ServerConfig{Host: "127.0.0.1", Port: 9461}, NewHandlers(&stubProcessor{}, nil, nil, nil, testSecret))

	assert.Equal(t, "127.0.0.1:9461", srv.Addr())
}

func TestServer_ServesConfiguredRoutes(t *testing.T) {
	srv := NewServer(config.ServerConfig{Host: "0.0.0.0", Port: 8080}, NewHandlers(&stubProcessor{}, nil, nil, NewHealthChecker(nil, nil), testSecret))
	require.NotNil(t, srv.Handler())

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}
