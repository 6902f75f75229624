package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCountReply(t *testing.T) {
	before := testutil.ToFloat64(chatReplies.WithLabelValues("personalized"))
	CountReply("personalized")
	assert.Equal(t, before+1, testutil.ToFloat64(chatReplies.WithLabelValues("personalized")))
}

func TestObserveHTTPDefaultsRoute(t *testing.T) {
	before := testutil.ToFloat64(httpRequests.WithLabelValues("unmatched", "GET", "404"))
	ObserveHTTP("", "GET", 404, time.Millisecond)
	assert.Equal(t, before+1, testutil.ToFloat64(httpRequests.WithLabelValues("unmatched", "GET", "404")))
}

func TestObserveModelLatencyOutcome(t *testing.T) {
	ObserveModelLatency(time.Second, errors.New("x"))
	ObserveModelLatency(time.Second, nil)
	assert.Equal(t, 2, testutil.CollectAndCount(modelLatency))
}
