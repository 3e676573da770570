package scheduler

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"galleryapi/internal/service"
	serviceMocks "galleryapi/internal/service/mocks"
)

func TestScheduleCleanup(t *testing.T) {
	s, err := New(prometheus.NewRegistry(), time.UTC)
	require.NoError(t, err)

	t.Run("valid daily spec", func(t *testing.T) {
		_, err := s.ScheduleCleanup("59 23 * * *", new(serviceMocks.MockCleanupRunner))
		assert.NoError(t, err)
	})

	t.Run("invalid spec", func(t *testing.T) {
		_, err := s.ScheduleCleanup("not a cron spec", new(serviceMocks.MockCleanupRunner))
		assert.Error(t, err)
	})
}

func TestRunCleanupCountsOutcomes(t *testing.T) {
	s, err := New(prometheus.NewRegistry(), time.UTC)
	require.NoError(t, err)

	job := new(serviceMocks.MockCleanupRunner)
	job.On("Run", mock.Anything).
		Return(service.CleanupSummary{Success: true, DeletedCount: 2}).Once()
	job.On("Run", mock.Anything).
		Return(service.CleanupSummary{Success: false, Error: "db down"}).Once()

	s.runCleanup(job)
	s.runCleanup(job)

	assert.Equal(t, float64(1), testutil.ToFloat64(s.runs.WithLabelValues("success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(s.runs.WithLabelValues("failure")))
	job.AssertExpectations(t)
}

func TestDuplicateMetricRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()

	_, err := New(reg, time.UTC)
	require.NoError(t, err)

	_, err = New(reg, time.UTC)
	assert.Error(t, err)
}
