package runner

import (
	"context"

	"github.com/google/uuid"
)

const settleBuffer = 16

// Settle blocks until no request is in flight and returns that snapshot.
// Call it after the fetches it should wait for have returned their seq.
func (r *Runner) Settle(ctx context.Context) (Snapshot, error) {
	return waitIdle(ctx, r.ctx.Done(), r.subscribe)
}

// subscribe registers a fresh settle subscriber and returns its outbox and
// the func that removes it.
func (r *Runner) subscribe(ctx context.Context) (<-chan Snapshot, func(), error) {
	id := "settle-" + uuid.NewString()
	out := make(chan Snapshot, settleBuffer)

	select {
	case r.inbox <- Subscribe{ID: id, Outbox: out}:
	case <-r.ctx.Done():
		return nil, nil, ErrStopped
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	}
	unsubscribe := func() {
		select {
		case r.inbox <- Unsubscribe{ID: id}:
		case <-r.ctx.Done():
		}
	}
	return out, unsubscribe, nil
}

// waitIdle reads snapshots until one has nothing in flight. A closed outbox
// while the runner is alive means the subscriber was dropped as slow, so it
// subscribes again; the first snapshot after that is current.
func waitIdle(ctx context.Context, done <-chan struct{},
	subscribe func(context.Context) (<-chan Snapshot, func(), error)) (Snapshot, error) {
	for {
		out, unsubscribe, err := subscribe(ctx)
		if err != nil {
			return Snapshot{}, err
		}
		snap, idle, err := readUntilIdle(ctx, done, out)
		unsubscribe()
		if err != nil {
			return Snapshot{}, err
		}
		if idle {
			return snap, nil
		}
	}
}

func readUntilIdle(ctx context.Context, done <-chan struct{}, out <-chan Snapshot) (Snapshot, bool, error) {
	for {
		select {
		case snap, ok := <-out:
			if !ok {
				select {
				case <-done:
					return Snapshot{}, false, ErrStopped
				default:
					return Snapshot{}, false, nil
				}
			}
			if snap.InFlight == 0 {
				return snap, true, nil
			}
		case <-done:
			return Snapshot{}, false, ErrStopped
		case <-ctx.Done():
			return Snapshot{}, false, ctx.Err()
		}
	}
}
