// Package bindable provides the two reactive primitives the negotiation models
// are built from: a settable value that notifies listeners, and a lazily
// computed value that recomputes on the first read after an invalidation.
//
// Neither type is safe for concurrent use. A negotiation model belongs to a
// single interaction; hosts that share one across goroutines must lock around
// mutate-and-invalidate sequences (see pkg/session).
package bindable

// Listener is notified after a Bindable changed.
type Listener[T any] func(old, new T)

// Bindable is a settable value with change listeners.
type Bindable[T any] struct {
	value     T
	listeners []Listener[T]
}

// New creates a Bindable holding the initial value.
func New[T any](initial T) *Bindable[T] {
	return &Bindable[T]{value: initial}
}

func (b *Bindable[T]) Value() T {
	return b.value
}

// Set stores v and notifies all listeners in registration order.
func (b *Bindable[T]) Set(v T) {
	old := b.value
	b.value = v
	for _, l := range b.listeners {
		l(old, v)
	}
}

// AddListener registers l for subsequent changes.
func (b *Bindable[T]) AddListener(l Listener[T]) {
	b.listeners = append(b.listeners, l)
}

// Lazy holds a value computed on demand. Invalidate only marks the value
// stale; the supplier runs on the next read, once.
type Lazy[T any] struct {
	supplier func() T
	value    T
	valid    bool
}

// NewLazy creates a stale Lazy around supplier.
func NewLazy[T any](supplier func() T) *Lazy[T] {
	return &Lazy[T]{supplier: supplier}
}

// Value returns the cached value, recomputing it if stale.
func (l *Lazy[T]) Value() T {
	if !l.valid {
		l.value = l.supplier()
		l.valid = true
	}
	return l.value
}

// Invalidate marks the value stale. Invalidating a stale value is a no-op.
func (l *Lazy[T]) Invalidate() {
	if !l.valid {
		return
	}
	var zero T
	l.value = zero
	l.valid = false
}

// IsMemoized reports whether a cached value is present.
func (l *Lazy[T]) IsMemoized() bool {
	return l.valid
}
