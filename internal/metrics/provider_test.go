package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProvider(t *testing.T) {
	provider, err := NewProvider("test_app")
	require.NoError(t, err)

	assert.NotNil(t, provider.MeterProvider())
	assert.Equal(t, "test_app", provider.Namespace())
	assert.NoError(t, provider.Shutdown(context.Background()))
}

func TestProvider_HandlerExposesRuntimeMetrics(t *testing.T) {
	provider, err := NewProvider("test_app")
	require.NoError(t, err)
	defer func() {
		assert.NoError(t, provider.Shutdown(context.Background()))
	}()

	w := httptest.NewRecorder()
	provider.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

func TestProvider_ShutdownNilProvider(t *testing.T) {
	provider := &Provider{}
	assert.NoError(t, provider.Shutdown(context.Background()))
}
