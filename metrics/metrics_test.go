package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestStatusClass(t *testing.T) {
	for status, want := range map[int]string{
		0:   "error",
		200: "2xx",
		204: "2xx",
		401: "4xx",
		502: "5xx",
		999: "error",
	} {
		assert.Equal(t, want, StatusClass(status), "status %d", status)
	}
}

func TestObserveUpstream(t *testing.T) {
	before := testutil.ToFloat64(UpstreamCallsTotal.WithLabelValues("cash-in", "5xx"))
	ObserveUpstream("cash-in", 503, 0.2)
	assert.Equal(t, before+1, testutil.ToFloat64(UpstreamCallsTotal.WithLabelValues("cash-in", "5xx")))
}
