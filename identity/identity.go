// Package identity abstracts where the vault learns who its user is.
//
// The vault itself never authenticates anyone. Authentication happens
// elsewhere (an account server, an OAuth flow, a desktop shell) and the
// result is surfaced here as a [Provider]: a stable account identifier, an
// email for display, and change notifications when the user signs in or out.
//
// Three implementations cover the usual deployments:
//   - [StaticProvider] — a fixed account, for offline and single-user setups;
//   - [TokenProvider] — account identity carried in a signed JWT handed over
//     by the host application;
//   - [RemoteProvider] — account identity fetched and refreshed from an HTTP
//     endpoint.
package identity

//go:generate mockgen -source=identity.go -destination=../internal/mock/identity_provider_mock.go -package=mock

import (
	"context"
	"errors"
	"sync"
)

// Sentinel errors returned by [Provider] implementations. Use [errors.Is]
// to match against them.
var (
	// ErrInvalidToken is returned when a supplied identity token fails
	// signature, issuer, or claim validation.
	ErrInvalidToken = errors.New("invalid identity token")

	// ErrNotSignedIn is returned by operations that require an authenticated
	// account when no user is currently signed in.
	ErrNotSignedIn = errors.New("not signed in")
)

// AuthState is a snapshot of the authentication state delivered to
// [Provider.OnAuthStateChange] listeners.
type AuthState struct {
	// AccountID is the stable identifier of the signed-in account, empty
	// when signed out.
	AccountID string

	// Email is the display address of the signed-in account, empty when
	// signed out.
	Email string

	// SignedIn reports whether an account is currently authenticated.
	SignedIn bool
}

// Provider supplies the vault with the identity of its current user.
// Implementations must be safe for concurrent use.
type Provider interface {
	// AccountID returns the stable identifier of the signed-in account, or
	// an empty string when no user is signed in. The identifier namespaces
	// all blobs the vault persists, so it must not change between sessions
	// of the same account.
	AccountID() string

	// Email returns the display address of the signed-in account, or an
	// empty string when no user is signed in.
	Email() string

	// OnAuthStateChange registers fn to be invoked whenever the
	// authentication state changes (sign-in, sign-out, account switch).
	// The returned function removes the registration; calling it more than
	// once is safe.
	OnAuthStateChange(fn func(AuthState)) func()

	// SignOut ends the current session. Implementations clear their local
	// state and notify listeners; whether a remote session is terminated
	// too is implementation-specific.
	SignOut(ctx context.Context) error
}

// notifier implements listener registration and fan-out for providers.
// Callbacks run outside the registry lock so a listener may re-enter the
// provider (or unsubscribe itself) without deadlocking.
type notifier struct {
	mu        sync.Mutex
	nextID    int
	listeners map[int]func(AuthState)
}

func (n *notifier) subscribe(fn func(AuthState)) func() {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.listeners == nil {
		n.listeners = make(map[int]func(AuthState))
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

func (n *notifier) emit(state AuthState) {
	n.mu.Lock()
	fns := make([]func(AuthState), 0, len(n.listeners))
	for _, fn := range n.listeners {
		fns = append(fns, fn)
	}
	n.mu.Unlock()

	for _, fn := range fns {
		fn(state)
	}
}
