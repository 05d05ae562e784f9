package runner

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DoyleJ11/gops-apitest/internal/state"
)

// scriptedSubscriptions hands out one prepared outbox per subscribe call.
type scriptedSubscriptions struct {
	outboxes     []chan Snapshot
	subscribed   int
	unsubscribed int
}

func (s *scriptedSubscriptions) subscribe(context.Context) (<-chan Snapshot, func(), error) {
	out := s.outboxes[s.subscribed]
	s.subscribed++
	return out, func() { s.unsubscribed++ }, nil
}

func TestWaitIdle_ResubscribesWhenDroppedAsSlow(t *testing.T) {
	dropped := make(chan Snapshot, 1)
	dropped <- Snapshot{Seq: 1, InFlight: 1, State: state.Loading{}}
	close(dropped)

	fresh := make(chan Snapshot, 2)
	fresh <- Snapshot{Seq: 1, InFlight: 1, State: state.Loading{}}
	fresh <- Snapshot{Seq: 1, InFlight: 0, State: state.Failed{Message: state.ErrorMessage}}

	subs := &scriptedSubscriptions{outboxes: []chan Snapshot{dropped, fresh}}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	snap, err := waitIdle(ctx, make(chan struct{}), subs.subscribe)
	require.NoError(t, err)
	assert.Equal(t, 0, snap.InFlight)
	assert.Equal(t, state.Failed{Message: state.ErrorMessage}, snap.State)
	assert.Equal(t, 2, subs.subscribed)
	assert.Equal(t, 2, subs.unsubscribed)
}

func TestWaitIdle_StoppedRunner(t *testing.T) {
	closed := make(chan Snapshot)
	close(closed)
	done := make(chan struct{})
	close(done)

	subs := &scriptedSubscriptions{outboxes: []chan Snapshot{closed}}
	_, err := waitIdle(context.Background(), done, subs.subscribe)
	assert.ErrorIs(t, err, ErrStopped)
	assert.Equal(t, 1, subs.subscribed)
}
