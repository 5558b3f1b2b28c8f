package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// assertMetricLine checks that the Prometheus output has a sample with the given
// name, a label subset and a value. OTel scope labels may appear between labels.
func assertMetricLine(t *testing.T, output, name, labels, value string) {
	t.Helper()
	pattern := name + `\{[^}]*` + labels + `[^}]*\} ` + value
	assert.Regexp(t, pattern, output)
}

func scrape(t *testing.T, provider *Provider) string {
	t.Helper()
	w := httptest.NewRecorder()
	provider.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	return w.Body.String()
}

func TestBusinessMetrics(t *testing.T) {
	provider, err := NewProvider("bm_test")
	require.NoError(t, err)
	defer func() {
		assert.NoError(t, provider.Shutdown(context.Background()))
	}()

	bm, err := NewBusinessMetrics(provider.MeterProvider(), "bm_test")
	require.NoError(t, err)

	ctx := context.Background()
	bm.RecordOperation(ctx, "auth", "login", "success")
	bm.RecordOperation(ctx, "auth", "login", "success")
	bm.RecordOperation(ctx, "auth", "login", "error")
	bm.RecordDuration(ctx, "auth", "register", 120*time.Millisecond, "success")
	bm.RecordGuardDecision(ctx, "login-lockout", "rejected")

	output := scrape(t, provider)

	assertMetricLine(t, output, "bm_test_operations_total",
		`domain="auth",operation="login",[^}]*status="success"`, "2")
	assertMetricLine(t, output, "bm_test_operations_total",
		`domain="auth",operation="login",[^}]*status="error"`, "1")
	assert.Contains(t, output, "bm_test_operation_duration_seconds")
	assertMetricLine(t, output, "bm_test_guard_decisions_total",
		`decision="rejected",guard="login-lockout"`, "1")
}

func TestNoOpBusinessMetrics(t *testing.T) {
	bm := NewNoOpBusinessMetrics()
	assert.NotPanics(t, func() {
		bm.RecordOperation(context.Background(), "auth", "login", "success")
		bm.RecordDuration(context.Background(), "auth", "login", time.Second, "error")
		bm.RecordGuardDecision(context.Background(), "auth-ip", "allowed")
	})
}
