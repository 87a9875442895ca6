package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestInstrumentHandlerUsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(InstrumentHandler)
	r.Get("/api/letters/{letterId}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	before := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/api/letters/{letterId}", "418"))
	for _, id := range []string{"1", "2"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/letters/"+id, nil))
		assert.Equal(t, http.StatusTeapot, rec.Code)
	}
	after := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/api/letters/{letterId}", "418"))
	assert.Equal(t, before+2, after)
}

func TestRecordJob(t *testing.T) {
	before := testutil.ToFloat64(jobRuns.WithLabelValues("auto_event", "true"))
	RecordJob("auto_event", 20*time.Millisecond, true)
	assert.Equal(t, before+1, testutil.ToFloat64(jobRuns.WithLabelValues("auto_event", "true")))
}

func TestHandlerServesRegistry(t *testing.T) {
	RecordEventsCreated(1)
	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "moamoa_events_auto_created_total")
}
