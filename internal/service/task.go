package service

import (
	"context"
	"sync/atomic"
)

// Task es el handle de una operacion iniciada antes de que alguien la espere.
// Se resuelve una sola vez; Await puede llamarse desde varios goroutines.
type Task[T any] struct {
	done     chan struct{}
	resolved atomic.Bool
	val      T
	err      error
}

// StartTask lanza fn en un goroutine. ctx es el contexto de la operacion, no del que espera.
func StartTask[T any](ctx context.Context, fn func(ctx context.Context) (T, error)) *Task[T] {
	t := &Task[T]{done: make(chan struct{})}
	go func() {
		defer close(t.done)
		t.val, t.err = fn(ctx)
		t.resolved.Store(true)
	}()
	return t
}

// ResolvedTask devuelve un Task ya terminado.
func ResolvedTask[T any](val T, err error) *Task[T] {
	t := &Task[T]{done: make(chan struct{}), val: val, err: err}
	t.resolved.Store(true)
	close(t.done)
	return t
}

// Await espera el resultado o que ctx termine; cancelar ctx no cancela la operacion.
func (t *Task[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-t.done:
		return t.val, t.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

func (t *Task[T]) Done() <-chan struct{} { return t.done }

func (t *Task[T]) Resolved() bool { return t.resolved.Load() }
