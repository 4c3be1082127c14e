// Package railway implements the short-circuiting composition used by every
// member interaction: a value travels along a chain of checks until the first
// one vetoes, after which the chain stays vetoed.
package railway

import "github.com/aretw0/parley/pkg/domain"

// Railway is either a Success carrying a value or a Failure carrying a veto.
// Values are immutable; every step returns a new Railway.
type Railway[T any] struct {
	value T
	veto  domain.InteractionVeto
	ok    bool
}

func Success[T any](value T) Railway[T] {
	return Railway[T]{value: value, ok: true}
}

func Failure[T any](veto domain.InteractionVeto) Railway[T] {
	return Railway[T]{veto: veto}
}

func (r Railway[T]) IsSuccess() bool { return r.ok }

func (r Railway[T]) IsFailure() bool { return !r.ok }

// GetSuccess returns the value if r is a Success.
func (r Railway[T]) GetSuccess() (T, bool) {
	return r.value, r.ok
}

// GetVeto returns the veto if r is a Failure.
func (r Railway[T]) GetVeto() (domain.InteractionVeto, bool) {
	return r.veto, !r.ok
}

// GetSuccessElseFail returns the value, or the error built by onFailure.
func (r Railway[T]) GetSuccessElseFail(onFailure func(domain.InteractionVeto) error) (T, error) {
	if r.ok {
		return r.value, nil
	}
	var zero T
	return zero, onFailure(r.veto)
}

// Chain evaluates f on a Success. On a Failure f is not called and r is
// returned unchanged.
func (r Railway[T]) Chain(f func(T) Railway[T]) Railway[T] {
	if !r.ok {
		return r
	}
	return f(r.value)
}

// Update runs a check against the value. A nil result keeps r as it is; a
// veto turns it into a Failure.
func (r Railway[T]) Update(check func(T) *domain.InteractionVeto) Railway[T] {
	if !r.ok {
		return r
	}
	if veto := check(r.value); veto != nil {
		return Failure[T](*veto)
	}
	return r
}

// Map transforms the value of a Success.
func Map[T, U any](r Railway[T], f func(T) U) Railway[U] {
	if !r.ok {
		return Failure[U](r.veto)
	}
	return Success(f(r.value))
}

// FlatMap chains a step that changes the carried type.
func FlatMap[T, U any](r Railway[T], f func(T) Railway[U]) Railway[U] {
	if !r.ok {
		return Failure[U](r.veto)
	}
	return f(r.value)
}
