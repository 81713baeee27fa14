package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Armin-kho/fx-crossrates/internal/crossrate"
	"github.com/Armin-kho/fx-crossrates/internal/utils"
)

func TestObserveRun(t *testing.T) {
	m := New("")
	at := time.Unix(1_760_900_000, 0)

	m.ObserveRun("success", 2*time.Second, at)
	m.ObserveRun("failure", time.Second, at.Add(time.Hour))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RunsTotal.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RunsTotal.WithLabelValues("failure")))
	assert.Equal(t, float64(at.Unix()), testutil.ToFloat64(m.LastSuccess))
}

func TestObserveBundle(t *testing.T) {
	calc := crossrate.NewCalculator(utils.FixedClock{T: time.Unix(1_760_900_000, 0)}, time.UTC, 0)
	b, err := calc.Compute(crossrate.RateMap{"USD": "1.25", "HUF": "400", "ILS": "4"})
	require.NoError(t, err)

	m := New("")
	m.ObserveBundle(b)
	assert.Equal(t, 320.0, testutil.ToFloat64(m.Rate.WithLabelValues("USD", "HUF")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Rate.WithLabelValues("ILS", "ILS")))
	assert.Equal(t, 16, testutil.CollectAndCount(m.Rate))

	families, err := m.Gatherer().Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "fxrates_rate")
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *RunMetrics
	m.ObserveRun("success", time.Second, time.Now())
	m.ObserveBundle(crossrate.Bundle{})
	assert.NoError(t, m.Push(context.Background()))
}

func TestPush(t *testing.T) {
	var gotMethod, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath = r.Method, r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	m := New(srv.URL)
	m.ObserveRun("success", time.Second, time.Now())
	require.NoError(t, m.Push(context.Background()))
	assert.Equal(t, http.MethodPut, gotMethod)
	assert.Equal(t, "/metrics/job/fx_crossrates", gotPath)

	assert.NoError(t, New("").Push(context.Background()))
}
