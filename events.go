package passvault

import (
	"sync"
	"time"
)

// EventType names a vault lifecycle transition delivered to subscribers.
type EventType string

const (
	// EventVaultUnlocked fires after a successful Setup or Unlock.
	EventVaultUnlocked EventType = "vault-unlocked"

	// EventVaultLocked fires on every Unlocked to Locked transition,
	// whatever triggered it: an explicit Lock, the inactivity timer, a
	// sign-out, or an account switch. Each transition fires exactly once.
	EventVaultLocked EventType = "vault-locked"

	// EventSetupRequired fires when an unlock is attempted for an account
	// that has no master-password binding yet.
	EventSetupRequired EventType = "setup-required"
)

// Event is the notification payload delivered to [Vault.Subscribe] callbacks.
type Event struct {
	// Type is the transition that occurred.
	Type EventType

	// AccountID is the account the transition concerns, when known.
	AccountID string

	// At is when the transition was observed.
	At time.Time
}

// eventNotifier fans events out to subscribers. Callbacks run outside the
// registry lock so a subscriber may call back into the vault (or remove
// itself) without deadlocking.
type eventNotifier struct {
	mu        sync.Mutex
	nextID    int
	listeners map[int]func(Event)
}

func (n *eventNotifier) subscribe(fn func(Event)) func() {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.listeners == nil {
		n.listeners = make(map[int]func(Event))
	}
	id := n.nextID
	n.nextID++
	n.listeners[id] = fn

	return func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		delete(n.listeners, id)
	}
}

func (n *eventNotifier) emit(eventType EventType, accountID string) {
	event := Event{Type: eventType, AccountID: accountID, At: time.Now()}

	n.mu.Lock()
	fns := make([]func(Event), 0, len(n.listeners))
	for _, fn := range n.listeners {
		fns = append(fns, fn)
	}
	n.mu.Unlock()

	for _, fn := range fns {
		fn(event)
	}
}
