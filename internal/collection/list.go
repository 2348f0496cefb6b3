// Package collection provides an ordered container whose elements remember
// their own position, giving constant-time removal of arbitrary elements.
package collection

// Indexed is implemented by elements stored in a List. The list writes the
// element's current offset through SetListIndex after every mutation.
type Indexed interface {
	ListIndex() int
	SetListIndex(int)
}

// List is an append-ordered slice of Indexed elements with O(1) removal.
// Removal swaps the last element into the freed slot, so order is insertion
// order only until the first removal. A List is not safe for concurrent use;
// owners guard it with their own lock.
type List[T Indexed] struct {
	items []T
	equal func(a, b T) bool
}

// New returns an empty list. equal decides element identity for Remove and
// Contains when a stored position turns out to be stale.
func New[T Indexed](equal func(a, b T) bool) *List[T] {
	return &List[T]{equal: equal}
}

// Add appends item, records its position and returns it.
func (l *List[T]) Add(item T) int {
	idx := len(l.items)
	item.SetListIndex(idx)
	l.items = append(l.items, item)
	return idx
}

// Remove deletes item and reports whether it was present.
func (l *List[T]) Remove(item T) bool {
	_, ok := l.Take(item)
	return ok
}

// Take removes the stored element equal to item and returns it. The stored
// element may be a different value than item when equality is by identity
// fields.
func (l *List[T]) Take(item T) (T, bool) {
	idx := l.indexOf(item)
	if idx < 0 {
		var zero T
		return zero, false
	}
	return l.RemoveAt(idx), true
}

// RemoveAt deletes and returns the element at offset idx.
func (l *List[T]) RemoveAt(idx int) T {
	removed := l.items[idx]
	last := len(l.items) - 1
	if idx != last {
		moved := l.items[last]
		l.items[idx] = moved
		moved.SetListIndex(idx)
	}

	var zero T
	l.items[last] = zero
	l.items = l.items[:last]
	removed.SetListIndex(-1)
	return removed
}

// Contains reports whether an element equal to item is present.
func (l *List[T]) Contains(item T) bool {
	return l.indexOf(item) >= 0
}

// indexOf trusts the element's stored position when it still points at an
// equal element, and falls back to a linear scan otherwise.
func (l *List[T]) indexOf(item T) int {
	if idx := item.ListIndex(); idx >= 0 && idx < len(l.items) && l.equal(l.items[idx], item) {
		return idx
	}
	for i, existing := range l.items {
		if l.equal(existing, item) {
			return i
		}
	}
	return -1
}

// Find returns the first element matching pred.
func (l *List[T]) Find(pred func(T) bool) (T, bool) {
	for _, item := range l.items {
		if pred(item) {
			return item, true
		}
	}
	var zero T
	return zero, false
}

// Len returns the number of elements.
func (l *List[T]) Len() int {
	return len(l.items)
}

// At returns the element at offset i.
func (l *List[T]) At(i int) T {
	return l.items[i]
}

// Snapshot returns a copy of the elements in their current order.
func (l *List[T]) Snapshot() []T {
	out := make([]T, len(l.items))
	copy(out, l.items)
	return out
}

// Reset replaces the contents with items and renumbers every element.
func (l *List[T]) Reset(items []T) {
	l.items = make([]T, len(items))
	copy(l.items, items)
	for i, item := range l.items {
		item.SetListIndex(i)
	}
}

// Clear removes every element.
func (l *List[T]) Clear() {
	for _, item := range l.items {
		item.SetListIndex(-1)
	}
	l.items = nil
}
