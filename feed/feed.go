package feed

import (
	"sync"
)

// Feed broadcasts values to any number of subscribers without ever blocking the sender.
// Every subscription buffers one value and a newer value replaces an unread one, so a slow
// subscriber always sees the latest value but may miss the ones before it.
type Feed[T any] struct {
	mu     sync.Mutex // protects subs, nextID and closed.
	subs   map[uint64]*Subscription[T]
	nextID uint64
	closed bool
}

type Subscription[T any] struct {
	c         chan T
	f         *Feed[T]
	unsubOnce sync.Once
	id        uint64
}

// Recv returns the channel values are delivered on. It is closed on Unsubscribe and when
// the feed is closed.
func (s *Subscription[T]) Recv() <-chan T {
	return s.c
}

func (s *Subscription[T]) Unsubscribe() {
	s.f.mu.Lock()
	defer s.f.mu.Unlock()
	s.close()
}

// close must be called with f.mu held
func (s *Subscription[T]) close() {
	s.unsubOnce.Do(func() {
		close(s.c)
		delete(s.f.subs, s.id)
	})
}

func New[T any]() *Feed[T] {
	return &Feed[T]{
		subs: make(map[uint64]*Subscription[T], 0),
	}
}

// Subscribe returns a new subscription. Subscribing to a closed feed returns a subscription
// whose channel is already closed.
func (f *Feed[T]) Subscribe() *Subscription[T] {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := &Subscription[T]{
		c:  make(chan T, 1),
		f:  f,
		id: f.nextID,
	}
	f.nextID++
	f.subs[s.id] = s
	if f.closed {
		s.close()
	}
	return s
}

// Send broadcasts v to all subscribers.
func (f *Feed[T]) Send(v T) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, sub := range f.subs {
		select {
		case sub.c <- v:
		default:
			// Drop the unread value to make room for v.
			select {
			case <-sub.c:
			// The default case happens when the subscriber receives it concurrently.
			default:
			}

			// Only Send writes to the channel and it holds the lock, so this cannot block.
			sub.c <- v
		}
	}
}

// Close ends every subscription. Sending on a closed feed is a no-op.
func (f *Feed[T]) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	for _, sub := range f.subs {
		sub.close()
	}
}
