package runtime

import "github.com/aretw0/tendril/pkg/domain"

// Queue is the FIFO of pending events.
//
// Drain hands the whole buffer to the caller and leaves an empty one in
// place, so events pushed while a drain is running are kept for the next one.
type Queue struct {
	pending []domain.Event
	spare   []domain.Event
}

// Push appends an event.
func (q *Queue) Push(ev domain.Event) {
	q.pending = append(q.pending, ev)
}

// Len returns the number of pending events.
func (q *Queue) Len() int { return len(q.pending) }

// Drain swaps the pending buffer out and returns it in FIFO order.
// The returned slice is valid until the next call to Drain.
func (q *Queue) Drain() []domain.Event {
	out := q.pending
	q.pending = q.spare[:0]
	q.spare = out
	return out
}

// Remove drops a pending event by id.
func (q *Queue) Remove(id string) bool {
	for i, ev := range q.pending {
		if ev.ID == id {
			q.pending = append(q.pending[:i], q.pending[i+1:]...)
			return true
		}
	}
	return false
}

// Pending returns a copy of the pending events.
func (q *Queue) Pending() []domain.Event {
	return append([]domain.Event(nil), q.pending...)
}
