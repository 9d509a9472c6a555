package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCountersRegisterAndCount(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New("bondoutfit", reg)

	m.IncTransition("CHECKED_IN", "scan")
	m.IncTransition("CHECKED_IN", "scan")
	m.AddSweepVisits("missed", 3)
	m.AddSweepVisits("warned", 0)
	m.ObserveRequest("GET", "/api/visits/{id}", "200", 0.02)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.VisitTransitions.WithLabelValues("CHECKED_IN", "scan")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.SweepVisits.WithLabelValues("missed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "/api/visits/{id}", "200")))

	families, err := reg.Gather()
	assert.NoError(t, err)
	assert.NotEmpty(t, families)
}
