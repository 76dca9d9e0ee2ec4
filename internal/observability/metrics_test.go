package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestTrackQueryRecordsLatency(t *testing.T) {
	m := NewDatabaseMetrics(nil)

	before := testutil.CollectAndCount(DatabaseQueryLatency)
	done := m.TrackQuery("get_by_id", "track_query_table")
	done()

	assert.Greater(t, testutil.CollectAndCount(DatabaseQueryLatency), before)
}

func TestRecordAuthAttemptOutcomes(t *testing.T) {
	RecordAuthAttempt("login_outcome_test", true)
	RecordAuthAttempt("login_outcome_test", false)
	RecordAuthAttempt("login_outcome_test", false)

	success := testutil.ToFloat64(AuthAttemptsTotal.WithLabelValues("login_outcome_test", "success"))
	failure := testutil.ToFloat64(AuthAttemptsTotal.WithLabelValues("login_outcome_test", "failure"))
	assert.Equal(t, float64(1), success)
	assert.Equal(t, float64(2), failure)
}
