package identity

import (
	"context"
	"sync"
)

// StaticProvider is a [Provider] with a fixed, pre-authenticated account.
// It suits offline installs, single-user desktop deployments, and tests,
// where there is no account server to ask.
type StaticProvider struct {
	notifier

	mu        sync.RWMutex
	accountID string
	email     string
	signedIn  bool
}

// NewStaticProvider returns a provider that reports accountID and email as
// the signed-in account from the moment of construction.
func NewStaticProvider(accountID, email string) *StaticProvider {
	return &StaticProvider{
		accountID: accountID,
		email:     email,
		signedIn:  true,
	}
}

// AccountID implements [Provider].
func (p *StaticProvider) AccountID() string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if !p.signedIn {
		return ""
	}
	return p.accountID
}

// Email implements [Provider].
func (p *StaticProvider) Email() string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if !p.signedIn {
		return ""
	}
	return p.email
}

// OnAuthStateChange implements [Provider].
func (p *StaticProvider) OnAuthStateChange(fn func(AuthState)) func() {
	return p.subscribe(fn)
}

// SignOut implements [Provider]. The account cannot sign back in through
// this provider; construct a new one to start a fresh session.
func (p *StaticProvider) SignOut(_ context.Context) error {
	p.mu.Lock()
	if !p.signedIn {
		p.mu.Unlock()
		return nil
	}
	p.signedIn = false
	p.mu.Unlock()

	p.emit(AuthState{})

	return nil
}
