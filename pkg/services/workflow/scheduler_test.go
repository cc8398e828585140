package workflow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClock(t *testing.T) {
	c, err := ParseClock("06:05")
	require.NoError(t, err)
	assert.Equal(t, Clock{Hour: 6, Minute: 5}, c)
	assert.Equal(t, "06:05", c.String())

	for _, bad := range []string{"", "6", "25:00", "06:61", "6am"} {
		_, err := ParseClock(bad)
		assert.Error(t, err, bad)
	}
}

func TestScheduler_Next(t *testing.T) {
	jst := time.FixedZone("JST", 9*3600)
	s := NewScheduler(Clock{Hour: 5, Minute: 30}, nil)

	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{"before wake time", time.Date(2025, 1, 10, 4, 0, 0, 0, jst), time.Date(2025, 1, 10, 5, 30, 0, 0, jst)},
		{"exactly at wake time", time.Date(2025, 1, 10, 5, 30, 0, 0, jst), time.Date(2025, 1, 11, 5, 30, 0, 0, jst)},
		{"after wake time", time.Date(2025, 1, 10, 22, 0, 0, 0, jst), time.Date(2025, 1, 11, 5, 30, 0, 0, jst)},
		{"month end", time.Date(2025, 1, 31, 6, 0, 0, 0, jst), time.Date(2025, 2, 1, 5, 30, 0, 0, jst)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.want.Equal(s.Next(tt.now)), "got %s", s.Next(tt.now))
		})
	}
}

func TestScheduler_Run(t *testing.T) {
	t.Run("runs the job at each wake time until cancelled", func(t *testing.T) {
		// Given
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		now := time.Date(2025, 1, 10, 4, 0, 0, 0, time.UTC)
		var ran []time.Time
		var waits []time.Duration
		s := NewScheduler(Clock{Hour: 5, Minute: 0}, func(_ context.Context, at time.Time) error {
			ran = append(ran, at)
			if len(ran) == 2 {
				cancel()
			}
			return errors.New("ignored")
		})
		s.nowFn = func() time.Time { return now }
		s.afterFn = func(d time.Duration) <-chan time.Time {
			waits = append(waits, d)
			now = now.Add(d)
			ch := make(chan time.Time, 1)
			ch <- now
			return ch
		}

		// When
		err := s.Run(ctx)

		// Then
		require.NoError(t, err)
		require.Len(t, ran, 2)
		assert.Equal(t, time.Date(2025, 1, 10, 5, 0, 0, 0, time.UTC), ran[0])
		assert.Equal(t, time.Date(2025, 1, 11, 5, 0, 0, 0, time.UTC), ran[1])
		assert.Equal(t, time.Hour, waits[0])
		assert.Equal(t, 24*time.Hour, waits[1])
	})

	t.Run("run immediately", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		calls := 0
		s := NewScheduler(Clock{Hour: 5}, func(context.Context, time.Time) error {
			calls++
			cancel()
			return nil
		})
		s.RunImmediately = true
		s.afterFn = func(time.Duration) <-chan time.Time { return make(chan time.Time) }

		require.NoError(t, s.Run(ctx))
		assert.Equal(t, 1, calls)
	})

	t.Run("no job", func(t *testing.T) {
		assert.Error(t, NewScheduler(Clock{}, nil).Run(context.Background()))
	})
}
