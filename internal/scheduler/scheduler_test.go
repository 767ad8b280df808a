package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingRunner struct {
	count int32
}

func (r *countingRunner) TriggerRun(ctx context.Context) error {
	atomic.AddInt32(&r.count, 1)
	return nil
}

func TestScheduleFiresRunner(t *testing.T) {
	runner := &countingRunner{}
	s := New(runner, zerolog.Nop())

	_, err := s.Schedule("* * * * * *") // every second
	require.NoError(t, err)

	s.Start()
	defer s.Stop()

	time.Sleep(2200 * time.Millisecond)
	assert.GreaterOrEqual(t, atomic.LoadInt32(&runner.count), int32(2))
}

func TestScheduleRejectsInvalidSpec(t *testing.T) {
	s := New(&countingRunner{}, zerolog.Nop())
	_, err := s.Schedule("not a cron spec")
	assert.Error(t, err)
}
