// Package notifier fans task reload events out to open viewer streams.
package notifier

import "sync"

// Event announces that a task was reloaded.
type Event struct {
	// Source names the reloaded task. Empty means every viewer should refresh.
	Source string
	// Seq increases by one with every broadcast.
	Seq uint64
}

// Notifier delivers events to subscribers. Each subscriber holds at most one
// pending event: a slow listener sees only the latest.
type Notifier struct {
	mu        sync.Mutex
	seq       uint64
	listeners map[chan Event]struct{}
}

// New creates a Notifier without subscribers.
func New() *Notifier {
	return &Notifier{listeners: make(map[chan Event]struct{})}
}

// Subscribe registers a listener. The returned cancel func removes it and
// closes the channel; calling it more than once is safe.
func (n *Notifier) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 1)
	n.mu.Lock()
	n.listeners[ch] = struct{}{}
	n.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			n.mu.Lock()
			delete(n.listeners, ch)
			n.mu.Unlock()
			close(ch)
		})
	}
}

// Broadcast sends an event for source to every listener and returns it.
// It never blocks.
func (n *Notifier) Broadcast(source string) Event {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.seq++
	ev := Event{Source: source, Seq: n.seq}
	for ch := range n.listeners {
		select {
		case ch <- ev:
		default:
			// Replace the stale pending event. Only Broadcast sends, and it
			// holds the lock, so the buffer is free after the drain.
			select {
			case <-ch:
			default:
			}
			ch <- ev
		}
	}
	return ev
}

// Listeners returns the number of subscribers.
func (n *Notifier) Listeners() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.listeners)
}
