// ABOUTME: Request/response state container binding one endpoint to {data, loading, error}
// ABOUTME: Routes session expiry to an injected handler instead of the error field

package fetch

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"sync"

	"github.com/poremland/open-rss-client/internal/client"
)

// Requester is the subset of the API client a Resource needs
type Requester interface {
	GetWithAuth(ctx context.Context, path string) (client.Body, error)
	PostWithAuth(ctx context.Context, path string, body any, ct client.ContentType) (client.Body, error)
}

// Decoder converts a response body into T
type Decoder[T any] func(client.Body) (T, error)

// State is a point-in-time copy of a Resource
type State[T any] struct {
	Data    T
	HasData bool
	Loading bool
	Error   string
}

// Resource binds a single endpoint and method to observable fetch state.
//
// Overlapping Execute calls are allowed and not de-duplicated: each settles
// into the state in the order responses arrive. Loading stays true until the
// last in-flight call settles.
type Resource[T any] struct {
	req         Requester
	path        string
	method      string
	contentType client.ContentType
	decode      Decoder[T]
	onExpired   func(ctx context.Context)

	mu       sync.Mutex
	state    State[T]
	inflight int
	subs     map[int]func(State[T])
	nextSub  int
}

// Option configures a Resource
type Option[T any] func(*Resource[T])

// WithInitial seeds Data before the first request
func WithInitial[T any](v T) Option[T] {
	return func(r *Resource[T]) {
		r.state.Data = v
		r.state.HasData = true
	}
}

// WithPost binds the resource to POST with the given body encoding
func WithPost[T any](ct client.ContentType) Option[T] {
	return func(r *Resource[T]) {
		r.method = http.MethodPost
		r.contentType = ct
	}
}

// WithDecoder replaces the default JSON decoder
func WithDecoder[T any](d Decoder[T]) Option[T] {
	return func(r *Resource[T]) { r.decode = d }
}

// OnSessionExpired sets the handler run when the server answers 401
func OnSessionExpired[T any](fn func(ctx context.Context)) Option[T] {
	return func(r *Resource[T]) { r.onExpired = fn }
}

// New creates a resource for path. The default method is GET and the
// default decoder unmarshals JSON into T.
func New[T any](req Requester, path string, opts ...Option[T]) *Resource[T] {
	r := &Resource[T]{
		req:    req,
		path:   path,
		method: http.MethodGet,
		decode: decodeJSON[T],
		subs:   map[int]func(State[T]){},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func decodeJSON[T any](body client.Body) (T, error) {
	var v T
	err := body.Decode(&v)
	return v, err
}

// Path returns the bound endpoint
func (r *Resource[T]) Path() string { return r.path }

// Execute issues the request. On success the response replaces Data and is
// returned. On session expiry the expiry handler runs and Error stays empty.
// Any other failure sets Error and keeps the previous Data.
func (r *Resource[T]) Execute(ctx context.Context, body any) (T, error) {
	r.mu.Lock()
	r.inflight++
	r.state.Loading = true
	r.state.Error = ""
	r.mu.Unlock()
	r.notify()

	v, err := r.do(ctx, body)

	expired := errors.Is(err, client.ErrSessionExpired)
	r.mu.Lock()
	r.inflight--
	r.state.Loading = r.inflight > 0
	switch {
	case err == nil:
		r.state.Data = v
		r.state.HasData = true
	case expired:
		r.state.Error = ""
	default:
		r.state.Error = err.Error()
	}
	r.mu.Unlock()
	r.notify()

	if err != nil {
		var zero T
		if expired {
			slog.Info("Session expired during fetch", "path", r.path)
			if r.onExpired != nil {
				r.onExpired(ctx)
			}
		} else {
			slog.Error("Fetch failed", "path", r.path, "error", err)
		}
		return zero, err
	}
	return v, nil
}

func (r *Resource[T]) do(ctx context.Context, body any) (T, error) {
	var (
		raw client.Body
		err error
	)
	if r.method == http.MethodPost {
		raw, err = r.req.PostWithAuth(ctx, r.path, body, r.contentType)
	} else {
		raw, err = r.req.GetWithAuth(ctx, r.path)
	}
	if err != nil {
		var zero T
		return zero, err
	}
	return r.decode(raw)
}

// Snapshot returns a copy of the current state
func (r *Resource[T]) Snapshot() State[T] {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// InFlight returns how many Execute calls have not settled yet
func (r *Resource[T]) InFlight() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.inflight
}

// Data returns the current data
func (r *Resource[T]) Data() T {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.Data
}

// SetData replaces Data with the result of fn applied to the current value.
// Used for optimistic local edits that skip a round-trip.
func (r *Resource[T]) SetData(fn func(T) T) {
	r.mu.Lock()
	r.state.Data = fn(r.state.Data)
	r.state.HasData = true
	r.mu.Unlock()
	r.notify()
}

// Subscribe registers fn to receive every state change. The returned func unsubscribes.
func (r *Resource[T]) Subscribe(fn func(State[T])) func() {
	r.mu.Lock()
	id := r.nextSub
	r.nextSub++
	r.subs[id] = fn
	r.mu.Unlock()
	return func() {
		r.mu.Lock()
		delete(r.subs, id)
		r.mu.Unlock()
	}
}

func (r *Resource[T]) notify() {
	r.mu.Lock()
	st := r.state
	ids := make([]int, 0, len(r.subs))
	for id := range r.subs {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	fns := make([]func(State[T]), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, r.subs[id])
	}
	r.mu.Unlock()

	for _, fn := range fns {
		fn(st)
	}
}
