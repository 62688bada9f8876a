package validator

import (
	"sort"
	"sync"
)

// Notification is one active warning shown to the user. The ID doubles as a
// monotonically increasing stream index, so clients can resume after it.
type Notification struct {
	ID      uint64 `json:"id"`
	Message string `json:"message"`

	key    string
	sticky bool
}

// Notifier aggregates warnings into stable, dismissible notifications.
// A recompute that yields the same message for the same key keeps the
// existing notification instead of raising a duplicate.
type Notifier struct {
	mu     sync.RWMutex
	seq    uint64
	active map[string]Notification
	// dismissed message per key; the key stays quiet until its message changes
	muted map[string]string
}

// NewNotifier creates an empty notification center.
func NewNotifier() *Notifier {
	return &Notifier{
		active: make(map[string]Notification),
		muted:  make(map[string]string),
	}
}

// Sync reconciles the computed issue set with the active notifications.
// Cleared issues are dropped, surviving ones keep their identity, new or
// reworded ones get a fresh id. Sticky notifications are left alone.
func (n *Notifier) Sync(issues []Issue) {
	n.mu.Lock()
	defer n.mu.Unlock()

	current := make(map[string]string, len(issues))
	for _, issue := range issues {
		current[issue.Key] = issue.Message
	}

	for key, note := range n.active {
		if note.sticky {
			continue
		}
		if msg, ok := current[key]; !ok || msg != note.Message {
			delete(n.active, key)
		}
	}
	for key, muted := range n.muted {
		if msg, ok := current[key]; !ok || msg != muted {
			delete(n.muted, key)
		}
	}

	for key, msg := range current {
		if _, ok := n.active[key]; ok {
			continue
		}
		if n.muted[key] == msg {
			continue
		}
		n.seq++
		n.active[key] = Notification{ID: n.seq, Message: msg, key: key}
	}
}

// Raise adds a one-off notification outside the recomputed issue set, e.g.
// a failed import. It stays until the user dismisses it.
func (n *Notifier) Raise(key, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.seq++
	n.active[key] = Notification{ID: n.seq, Message: message, key: key, sticky: true}
}

// Dismiss removes the notification with the given id. A recomputed issue
// with the same key and message will not reappear; a changed one will.
func (n *Notifier) Dismiss(id uint64) bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	for key, note := range n.active {
		if note.ID != id {
			continue
		}
		delete(n.active, key)
		if !note.sticky {
			n.muted[key] = note.Message
		}
		return true
	}
	return false
}

// Active returns the live notifications ordered by id.
func (n *Notifier) Active() []Notification {
	n.mu.RLock()
	defer n.mu.RUnlock()

	return n.sorted(0)
}

// EventsAfter returns the live notifications raised after the provided
// stream index.
func (n *Notifier) EventsAfter(index uint64) []Notification {
	n.mu.RLock()
	defer n.mu.RUnlock()

	return n.sorted(index)
}

func (n *Notifier) sorted(after uint64) []Notification {
	out := make([]Notification, 0, len(n.active))
	for _, note := range n.active {
		if note.ID > after {
			out = append(out, note)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
