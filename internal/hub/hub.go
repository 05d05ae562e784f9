package hub

import (
	"context"
	"errors"

	"github.com/DoyleJ11/gops-apitest/internal/runner"
)

// ErrStopped is returned by the helpers once the hub loop has exited.
var ErrStopped = errors.New("hub stopped")

// Factory mounts a fresh runner for a session code.
type Factory func(ctx context.Context, code string) *runner.Runner

type HubMsg interface{ isHubMsg() }

// CreateSession mounts a runner for a fresh code. The reply is nil when the
// code is already taken.
type CreateSession struct {
	Code  string
	Reply chan *runner.Runner
}

type GetSession struct {
	Code  string
	Reply chan *runner.Runner
}

type EnsureSession struct {
	Code  string
	Reply chan *runner.Runner
}

type RemoveSession struct {
	Code  string
	Reply chan bool // optional, true if the session existed
}

type CountSessions struct {
	Reply chan int
}

type Hub struct {
	inbox    chan HubMsg
	sessions map[string]*runner.Runner
	mount    Factory
	ctx      context.Context
	cancel   context.CancelFunc
}

type ShutdownHub struct{}

func (CreateSession) isHubMsg() {}
func (GetSession) isHubMsg()    {}
func (EnsureSession) isHubMsg() {}
func (RemoveSession) isHubMsg() {}
func (CountSessions) isHubMsg() {}
func (ShutdownHub) isHubMsg()   {}

func NewHub(parent context.Context, mount Factory) *Hub {
	ctx, cancel := context.WithCancel(parent)
	h := &Hub{
		inbox:    make(chan HubMsg, 64),
		sessions: make(map[string]*runner.Runner),
		mount:    mount,
		ctx:      ctx,
		cancel:   cancel,
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

func (h *Hub) Done() <-chan struct{} { return h.ctx.Done() }

func (h *Hub) loop() {
	for {
		select {
		case <-h.ctx.Done():
			h.unmountAll()
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case CreateSession:
				if h.sessions[msg.Code] != nil {
					msg.Reply <- nil
					break
				}
				msg.Reply <- h.mountSession(msg.Code)

			case EnsureSession:
				if r := h.sessions[msg.Code]; r != nil {
					msg.Reply <- r
					break
				}
				msg.Reply <- h.mountSession(msg.Code)

			case GetSession:
				msg.Reply <- h.sessions[msg.Code] // may be nil

			case RemoveSession:
				r, ok := h.sessions[msg.Code]
				if ok {
					delete(h.sessions, msg.Code)
					stop(r)
				}
				if msg.Reply != nil {
					msg.Reply <- ok
				}

			case CountSessions:
				msg.Reply <- len(h.sessions)

			case ShutdownHub:
				h.unmountAll()
				h.cancel()
				return
			}
		}
	}
}

func (h *Hub) mountSession(code string) *runner.Runner {
	r := h.mount(h.ctx, code)
	h.sessions[code] = r
	return r
}

func (h *Hub) unmountAll() {
	for code, r := range h.sessions {
		stop(r)
		delete(h.sessions, code)
	}
}

func stop(r *runner.Runner) {
	select {
	case r.Inbox() <- runner.Shutdown{}:
	case <-r.Done():
	}
}

// ask posts msg and waits for its reply, giving up when the hub stops or ctx
// is done.
func ask[T any](ctx context.Context, h *Hub, msg HubMsg, reply chan T) (T, error) {
	var zero T
	select {
	case h.inbox <- msg:
	case <-h.ctx.Done():
		return zero, ErrStopped
	case <-ctx.Done():
		return zero, ctx.Err()
	}
	select {
	case v := <-reply:
		return v, nil
	case <-h.ctx.Done():
		return zero, ErrStopped
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// Lookup returns the runner mounted for code, nil if there is none.
func (h *Hub) Lookup(ctx context.Context, code string) (*runner.Runner, error) {
	reply := make(chan *runner.Runner, 1)
	return ask(ctx, h, GetSession{Code: code, Reply: reply}, reply)
}

// Create mounts a runner for code, nil if the code is taken.
func (h *Hub) Create(ctx context.Context, code string) (*runner.Runner, error) {
	reply := make(chan *runner.Runner, 1)
	return ask(ctx, h, CreateSession{Code: code, Reply: reply}, reply)
}

// Remove unmounts code and reports whether it was mounted.
func (h *Hub) Remove(ctx context.Context, code string) (bool, error) {
	reply := make(chan bool, 1)
	return ask(ctx, h, RemoveSession{Code: code, Reply: reply}, reply)
}

// Shutdown stops the hub and waits for every runner to be unmounted.
func (h *Hub) Shutdown(ctx context.Context) error {
	select {
	case h.inbox <- ShutdownHub{}:
	case <-h.ctx.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-h.ctx.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
