package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/DoyleJ11/gops-apitest/internal/apiclient"
	"github.com/DoyleJ11/gops-apitest/internal/history"
	"github.com/DoyleJ11/gops-apitest/internal/state"
)

var ErrStopped = errors.New("runner stopped")

const recordTimeout = 5 * time.Second

type Fetcher interface {
	Get(ctx context.Context, endpoint apiclient.Endpoint) (apiclient.Result, error)
}

type Recorder interface {
	Record(ctx context.Context, a history.Attempt) error
}

type Ordering string

const (
	// OrderArrival applies every completion; the last one to arrive wins.
	OrderArrival Ordering = "arrival"
	// OrderLatest applies a completion only if it belongs to the newest request.
	OrderLatest Ordering = "latest"
)

func ParseOrdering(s string) (Ordering, error) {
	switch Ordering(s) {
	case "", OrderArrival:
		return OrderArrival, nil
	case OrderLatest:
		return OrderLatest, nil
	default:
		return "", fmt.Errorf("unknown ordering %q", s)
	}
}

type Options struct {
	Session        string
	Ordering       Ordering
	RequestTimeout time.Duration // 0 = wait forever
	Logger         *zap.Logger
	Recorder       Recorder // optional
}

type Msg interface{ isRunnerMsg() }

type Fetch struct {
	Endpoint apiclient.Endpoint
	Reply    chan uint64 // optional, receives the request seq
}

func (Fetch) isRunnerMsg() {}

type Subscribe struct {
	ID     string
	Outbox chan Snapshot
}

func (Subscribe) isRunnerMsg() {}

type Unsubscribe struct{ ID string }

func (Unsubscribe) isRunnerMsg() {}

type GetState struct {
	Reply chan View
}

func (GetState) isRunnerMsg() {}

type Shutdown struct{}

func (Shutdown) isRunnerMsg() {}

// completed is posted back by the request goroutine.
type completed struct {
	seq      uint64
	endpoint apiclient.Endpoint
	result   apiclient.Result
	err      error
}

func (completed) isRunnerMsg() {}

type Snapshot struct {
	Version  int
	Seq      uint64 // newest request issued so far
	InFlight int
	State    state.State
}

type View struct {
	Version        int
	Seq            uint64
	InFlight       int
	NumSubscribers int
	State          state.State
}

type Runner struct {
	inbox    chan Msg
	state    state.State
	version  int
	seq      uint64
	inFlight int
	subs     map[string]chan Snapshot

	fetcher Fetcher
	opts    Options
	log     *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
}

func New(parent context.Context, fetcher Fetcher, opts Options) *Runner {
	ctx, cancel := context.WithCancel(parent)

	if opts.Ordering == "" {
		opts.Ordering = OrderArrival
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Session != "" {
		log = log.With(zap.String("session", opts.Session))
	}

	r := &Runner{
		inbox:   make(chan Msg, 64),
		state:   state.Idle{},
		subs:    make(map[string]chan Snapshot),
		fetcher: fetcher,
		opts:    opts,
		log:     log,
		ctx:     ctx,
		cancel:  cancel,
	}

	go r.loop()
	return r
}

func (r *Runner) loop() {
	for {
		select {
		case <-r.ctx.Done():
			r.shutdown()
			return

		case m := <-r.inbox:
			switch msg := m.(type) {
			case Fetch:
				r.start(msg)

			case completed:
				r.complete(msg)

			case Subscribe:
				r.subs[msg.ID] = msg.Outbox
				select {
				case msg.Outbox <- r.snapshot():
				default:
					close(msg.Outbox)
					delete(r.subs, msg.ID)
				}

			case Unsubscribe:
				delete(r.subs, msg.ID)

			case GetState:
				msg.Reply <- View{
					Version:        r.version,
					Seq:            r.seq,
					InFlight:       r.inFlight,
					NumSubscribers: len(r.subs),
					State:          r.state,
				}

			case Shutdown:
				r.shutdown()
				return
			}
		}
	}
}

func (r *Runner) start(msg Fetch) {
	r.seq++
	r.inFlight++
	seq := r.seq

	r.transition(state.Event{Type: state.EvtStarted})
	if msg.Reply != nil {
		msg.Reply <- seq
	}

	go r.do(seq, msg.Endpoint)
}

// do runs off the loop. The request is not tied to the runner's lifetime:
// teardown does not cancel it, its completion is just never applied.
func (r *Runner) do(seq uint64, endpoint apiclient.Endpoint) {
	ctx := context.WithoutCancel(r.ctx)
	if r.opts.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.opts.RequestTimeout)
		defer cancel()
	}

	started := time.Now()
	res, err := r.fetcher.Get(ctx, endpoint)
	finished := time.Now()

	// the request deadline may already have passed; the row must still land
	recCtx, cancel := context.WithTimeout(context.WithoutCancel(r.ctx), recordTimeout)
	r.record(recCtx, seq, endpoint, res, err, started, finished)
	cancel()

	select {
	case r.inbox <- completed{seq: seq, endpoint: endpoint, result: res, err: err}:
	case <-r.ctx.Done():
		r.log.Debug("runner gone, dropping completion",
			zap.Uint64("seq", seq), zap.String("endpoint", string(endpoint)))
	}
}

func (r *Runner) complete(msg completed) {
	r.inFlight--

	if msg.err != nil {
		r.log.Warn("API Error",
			zap.Uint64("seq", msg.seq),
			zap.String("endpoint", string(msg.endpoint)),
			zap.Error(msg.err))
	}

	if r.opts.Ordering == OrderLatest && msg.seq != r.seq {
		r.log.Debug("dropping stale completion",
			zap.Uint64("seq", msg.seq), zap.Uint64("latest", r.seq))
		// the newest request may already be done; keep subscribers' InFlight honest
		r.broadcast(r.snapshot())
		return
	}

	evt := state.Event{Type: state.EvtResolved, Response: msg.result.Response}
	if msg.err != nil {
		evt = state.Event{Type: state.EvtRejected}
	}
	r.transition(evt)
}

func (r *Runner) transition(evt state.Event) {
	next, err := state.Apply(r.state, evt)
	if err != nil {
		r.log.Error("state transition failed", zap.String("event", string(evt.Type)), zap.Error(err))
		return
	}
	r.state = next
	r.version++
	r.broadcast(r.snapshot())
}

func (r *Runner) record(ctx context.Context, seq uint64, endpoint apiclient.Endpoint, res apiclient.Result, err error, started, finished time.Time) {
	if r.opts.Recorder == nil {
		return
	}
	a := history.Attempt{
		Session:    r.opts.Session,
		Endpoint:   string(endpoint),
		Seq:        seq,
		Outcome:    history.OutcomeSuccess,
		HTTPStatus: res.StatusCode,
		StartedAt:  started,
		FinishedAt: finished,
	}
	if err != nil {
		a.Outcome = history.OutcomeError
		a.Detail = err.Error()
	}
	if rerr := r.opts.Recorder.Record(ctx, a); rerr != nil {
		r.log.Warn("recording attempt failed", zap.Uint64("seq", seq), zap.Error(rerr))
	}
}

func (r *Runner) snapshot() Snapshot {
	return Snapshot{Version: r.version, Seq: r.seq, InFlight: r.inFlight, State: r.state}
}

func (r *Runner) shutdown() {
	for id, ch := range r.subs {
		close(ch)
		delete(r.subs, id)
	}
	r.cancel()
}

func (r *Runner) broadcast(snap Snapshot) {
	for id, ch := range r.subs {
		select {
		case ch <- snap:
		default:
			// slow subscriber, drop it
			close(ch)
			delete(r.subs, id)
		}
	}
}

func (r *Runner) Inbox() chan<- Msg { return r.inbox }

// Done is closed once the runner has shut down.
func (r *Runner) Done() <-chan struct{} { return r.ctx.Done() }

func (r *Runner) Session() string { return r.opts.Session }

// FetchHealth starts GET /api/health and returns its seq, or 0 if the runner
// has stopped.
func (r *Runner) FetchHealth() uint64 { return r.fetch(apiclient.EndpointHealth) }

// FetchHello starts GET /api/hello and returns its seq, or 0 if the runner
// has stopped.
func (r *Runner) FetchHello() uint64 { return r.fetch(apiclient.EndpointHello) }

func (r *Runner) Fetch(endpoint apiclient.Endpoint) uint64 { return r.fetch(endpoint) }

func (r *Runner) fetch(endpoint apiclient.Endpoint) uint64 {
	reply := make(chan uint64, 1)
	select {
	case r.inbox <- Fetch{Endpoint: endpoint, Reply: reply}:
	case <-r.ctx.Done():
		return 0
	}
	select {
	case seq := <-reply:
		return seq
	case <-r.ctx.Done():
		return 0
	}
}

func (r *Runner) Current(ctx context.Context) (View, error) {
	reply := make(chan View, 1)
	select {
	case r.inbox <- GetState{Reply: reply}:
	case <-r.ctx.Done():
		return View{}, ErrStopped
	case <-ctx.Done():
		return View{}, ctx.Err()
	}
	select {
	case v := <-reply:
		return v, nil
	case <-r.ctx.Done():
		return View{}, ErrStopped
	case <-ctx.Done():
		return View{}, ctx.Err()
	}
}
