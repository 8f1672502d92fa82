package scheduler

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingPruner struct {
	calls int32
}

func (p *countingPruner) Prune(time.Time) int {
	atomic.AddInt32(&p.calls, 1)
	return 1
}

func TestSchedulerPrunesOnStart(t *testing.T) {
	p := &countingPruner{}
	s := New(time.Second, p)
	require.NoError(t, s.Start())
	defer s.Stop()

	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&p.calls) >= 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSchedulerWithoutPruner(t *testing.T) {
	s := New(time.Minute, nil)
	assert.NoError(t, s.Start())
	s.Stop()
}
