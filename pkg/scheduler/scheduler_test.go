package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skyops/apodsync/pkg/config"
	"github.com/skyops/apodsync/pkg/pipeline"
)

type countingRunner struct {
	calls atomic.Int64
	dates []string
}

func (r *countingRunner) Run(
	_ context.Context, logicalDate string,
) *pipeline.RunResult {
	r.calls.Add(1)
	r.dates = append(r.dates, logicalDate)

	return &pipeline.RunResult{
		RunID:       "test-run",
		LogicalDate: logicalDate,
		Status:      pipeline.RunSucceeded,
	}
}

func TestNextFire(t *testing.T) {
	fireAt := 2 * time.Hour

	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{
			name: "before todays trigger",
			now:  time.Date(2024, 1, 1, 0, 30, 0, 0, time.UTC),
			want: time.Date(2024, 1, 1, 2, 0, 0, 0, time.UTC),
		},
		{
			name: "after todays trigger rolls to tomorrow",
			now:  time.Date(2024, 1, 1, 2, 0, 1, 0, time.UTC),
			want: time.Date(2024, 1, 2, 2, 0, 0, 0, time.UTC),
		},
		{
			name: "exactly at trigger rolls to tomorrow",
			now:  time.Date(2024, 1, 1, 2, 0, 0, 0, time.UTC),
			want: time.Date(2024, 1, 2, 2, 0, 0, 0, time.UTC),
		},
		{
			name: "end of month",
			now:  time.Date(2024, 1, 31, 23, 0, 0, 0, time.UTC),
			want: time.Date(2024, 2, 1, 2, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NextFire(tt.now, fireAt))
		})
	}
}

func TestScheduler_CatchupOnStart(t *testing.T) {
	runner := &countingRunner{}
	history := pipeline.NewHistory(8)

	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)

	s := New(log, &config.ScheduleConfig{
		Enabled:        true,
		FireAt:         "02:00",
		CatchupOnStart: true,
	}, runner, history)

	require.NoError(t, s.Start(context.Background()))

	require.Eventually(t, func() bool {
		return runner.calls.Load() == 1
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, s.Stop())

	assert.Equal(t, []string{
		time.Now().UTC().Format(pipeline.DateLayout),
	}, runner.dates)

	results := history.List()
	require.Len(t, results, 1)
	assert.Equal(t, pipeline.RunSucceeded, results[0].Status)
}

func TestScheduler_NoCatchupWaitsForTrigger(t *testing.T) {
	runner := &countingRunner{}

	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)

	s := New(log, &config.ScheduleConfig{
		Enabled: true,
		FireAt:  "02:00",
	}, runner, nil)

	require.NoError(t, s.Start(context.Background()))

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, s.Stop())

	assert.Equal(t, int64(0), runner.calls.Load())
}
