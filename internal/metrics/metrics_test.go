package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRegisterIsIdempotentAndServed(t *testing.T) {
	Register()
	Register()

	RequestsSubmitted.WithLabelValues("admit").Inc()
	assert.GreaterOrEqual(t, testutil.ToFloat64(RequestsSubmitted.WithLabelValues("admit")), 1.0)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "tocafy_requests_submitted_total")
}
