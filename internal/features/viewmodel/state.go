package viewmodel

import (
	"context"
	"sync"

	"traffic-share-client/internal/common/errors"
)

// State is what every screen renders: a loading flag, the last payload and a
// readable error.
type State[T any] struct {
	IsLoading bool   `json:"is_loading"`
	Data      *T     `json:"data,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Identity resolves the logged in user for endpoints keyed by telegram id
type Identity interface {
	TelegramID() (int64, error)
}

// Holder guards one State. Loads replace it wholesale.
type Holder[T any] struct {
	mu    sync.RWMutex
	state State[T]
}

func (h *Holder[T]) Get() State[T] {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.state
}

func (h *Holder[T]) Set(s State[T]) {
	h.mu.Lock()
	h.state = s
	h.mu.Unlock()
}

// Run marks the state loading, calls fn and stores its result or error
// message. When ctx is cancelled before fn returns the result is dropped and
// the previous state kept.
func (h *Holder[T]) Run(ctx context.Context, fn func(ctx context.Context) (*T, error)) (State[T], error) {
	h.mu.Lock()
	prev := h.state
	h.state.IsLoading = true
	h.mu.Unlock()

	data, err := fn(ctx)

	if ctx.Err() != nil {
		prev.IsLoading = false
		h.Set(prev)
		return prev, ctx.Err()
	}

	next := State[T]{}
	if err != nil {
		next.Error = errors.UserMessage(err)
	} else {
		next.Data = data
	}
	h.Set(next)
	return next, err
}

// Fail records err without calling the backend
func (h *Holder[T]) Fail(err error) State[T] {
	next := State[T]{Error: errors.UserMessage(err)}
	h.Set(next)
	return next
}
