package store

import (
	"log/slog"
	"sync"
)

const (
	ChangeRecords     = "records"
	ChangePreferences = "preferences"
)

// Event announces a committed ledger change for one user.
type Event struct {
	UserID string
	Kind   string
	Date   string
}

type subscriber struct {
	userID string
	ch     chan Event
}

// Notifier is the in-process stand-in for the document store's change
// streams. Subscribers register explicitly and get a disposer back;
// publishes never block on a slow consumer.
type Notifier struct {
	mu     sync.Mutex
	nextID int64
	subs   map[int64]*subscriber
}

func NewNotifier() *Notifier {
	return &Notifier{subs: make(map[int64]*subscriber)}
}

// Subscribe registers a listener for one user's changes. The returned
// disposer unregisters the listener and closes its channel; it is safe to
// call more than once.
func (n *Notifier) Subscribe(userID string) (<-chan Event, func()) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.nextID++
	id := n.nextID
	sub := &subscriber{userID: userID, ch: make(chan Event, 16)}
	n.subs[id] = sub

	var once sync.Once
	dispose := func() {
		once.Do(func() {
			n.mu.Lock()
			defer n.mu.Unlock()
			if _, ok := n.subs[id]; ok {
				delete(n.subs, id)
				close(sub.ch)
			}
		})
	}
	return sub.ch, dispose
}

// Publish fans an event out to the user's subscribers. Events for
// subscribers with full buffers are dropped: consumers re-fold from the
// store on every event, so a later event carries the same information.
func (n *Notifier) Publish(event Event) {
	n.mu.Lock()
	defer n.mu.Unlock()

	for _, sub := range n.subs {
		if sub.userID != event.UserID {
			continue
		}
		select {
		case sub.ch <- event:
		default:
			slog.Debug("dropping change event for slow subscriber", "userId", event.UserID, "kind", event.Kind)
		}
	}
}
