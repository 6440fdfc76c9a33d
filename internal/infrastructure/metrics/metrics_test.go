package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordCacheHitAndMiss(t *testing.T) {
	hitsBefore := testutil.ToFloat64(MatchCacheHits)
	missesBefore := testutil.ToFloat64(MatchCacheMisses)

	RecordCacheHit()
	RecordCacheHit()
	RecordCacheMiss()

	assert.Equal(t, hitsBefore+2, testutil.ToFloat64(MatchCacheHits))
	assert.Equal(t, missesBefore+1, testutil.ToFloat64(MatchCacheMisses))
}

func TestRecorder_RunCounters(t *testing.T) {
	recorder := NewRecorder()

	successBefore := testutil.ToFloat64(MatchRunsTotal.WithLabelValues("success"))
	failureBefore := testutil.ToFloat64(MatchRunsTotal.WithLabelValues("failure"))

	recorder.RecordRun(0.5, 10, 25*time.Millisecond)
	recorder.RecordRunResult(3, 1, 2)
	recorder.RecordRunFailure()

	assert.Equal(t, successBefore+1, testutil.ToFloat64(MatchRunsTotal.WithLabelValues("success")))
	assert.Equal(t, failureBefore+1, testutil.ToFloat64(MatchRunsTotal.WithLabelValues("failure")))
	assert.Equal(t, 0.5, testutil.ToFloat64(MatchRunBaseline))
	assert.Equal(t, 3.0, testutil.ToFloat64(MatchPairsProduced.WithLabelValues("friend")))
	assert.Equal(t, 1.0, testutil.ToFloat64(MatchPairsProduced.WithLabelValues("date")))
	assert.Equal(t, 2.0, testutil.ToFloat64(MatchGroupsProduced))
}
