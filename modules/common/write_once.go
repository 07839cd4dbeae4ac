package common

import "github.com/moznion/go-optional"

// WriteOnce holds a value that starts unset and can be assigned exactly once.
type WriteOnce[T any] struct {
	value optional.Option[T]
}

// Set assigns the value. Returns false, leaving the stored value untouched, if it was
// already assigned.
func (w *WriteOnce[T]) Set(v T) bool {
	if w.value.IsSome() {
		return false
	}
	w.value = optional.Some(v)
	return true
}

func (w *WriteOnce[T]) IsSet() bool {
	return w.value.IsSome()
}

func (w *WriteOnce[T]) Get() optional.Option[T] {
	return w.value
}
