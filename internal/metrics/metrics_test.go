package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedgerCounter(t *testing.T) {
	before := testutil.ToFloat64(LedgerEntriesTotal.WithLabelValues("place", "create"))
	LedgerEntriesTotal.WithLabelValues("place", "create").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(LedgerEntriesTotal.WithLabelValues("place", "create")))
}

func TestHandlerExposesMetrics(t *testing.T) {
	SyncPublishedTotal.Add(0)
	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "siempreabierto_sync_published_total"))
}
