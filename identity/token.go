package identity

import (
	"context"
	"fmt"
	"sync"

	"github.com/golang-jwt/jwt/v5"

	"github.com/MKhiriev/passvault/logger"
)

// tokenClaims is the claim set carried by identity tokens: the registered
// claims plus the account email.
//
// The subject (sub) claim holds the account identifier; issuer (iss) must
// match the value the provider was constructed with.
type tokenClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// TokenProvider is a [Provider] fed by signed HMAC-SHA256 JWT tokens. The
// host application authenticates the user however it likes, obtains a token
// from its account service, and hands it over via [TokenProvider.SetToken];
// the provider verifies the signature and issuer and exposes the subject
// claim as the account identifier.
type TokenProvider struct {
	notifier

	signKey string
	issuer  string
	log     *logger.Logger

	mu    sync.RWMutex
	state AuthState
}

// NewTokenProvider constructs a [TokenProvider] that accepts tokens signed
// with signKey and issued by issuer. The provider starts signed out.
func NewTokenProvider(signKey, issuer string, log *logger.Logger) *TokenProvider {
	if log == nil {
		log = logger.Nop()
	}

	return &TokenProvider{
		signKey: signKey,
		issuer:  issuer,
		log:     log,
	}
}

// SetToken validates tokenString and, on success, signs the carried account
// in. Listeners are notified if the authentication state actually changed
// (a refreshed token for the same account is absorbed silently).
//
// Returns [ErrInvalidToken] if the signature, issuer, expiry, or subject
// claim does not hold up. A failed SetToken leaves the previous state
// untouched.
func (p *TokenProvider) SetToken(tokenString string) error {
	claims, err := p.validateAndParse(tokenString)
	if err != nil {
		p.log.Err(err).Str("func", "TokenProvider.SetToken").Msg("token rejected")
		return err
	}

	next := AuthState{
		AccountID: claims.Subject,
		Email:     claims.Email,
		SignedIn:  true,
	}

	p.mu.Lock()
	changed := p.state != next
	p.state = next
	p.mu.Unlock()

	if changed {
		p.emit(next)
	}

	return nil
}

// AccountID implements [Provider].
func (p *TokenProvider) AccountID() string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.state.AccountID
}

// Email implements [Provider].
func (p *TokenProvider) Email() string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.state.Email
}

// OnAuthStateChange implements [Provider].
func (p *TokenProvider) OnAuthStateChange(fn func(AuthState)) func() {
	return p.subscribe(fn)
}

// SignOut implements [Provider]. It discards the current token state; the
// token itself is not revoked anywhere, it simply stops being honoured here.
func (p *TokenProvider) SignOut(_ context.Context) error {
	p.mu.Lock()
	if !p.state.SignedIn {
		p.mu.Unlock()
		return nil
	}
	p.state = AuthState{}
	p.mu.Unlock()

	p.emit(AuthState{})

	return nil
}

func (p *TokenProvider) validateAndParse(tokenString string) (*tokenClaims, error) {
	claims := &tokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		return []byte(p.signKey), nil
	}, jwt.WithIssuer(p.issuer))
	if err != nil {
		return nil, fmt.Errorf("%w: error occurred validating and parsing token: %w", ErrInvalidToken, err)
	}

	subject, err := token.Claims.GetSubject()
	if err != nil {
		return nil, fmt.Errorf("%w: error occurred during getting subject from token: %w", ErrInvalidToken, err)
	}
	if subject == "" {
		return nil, fmt.Errorf("%w: empty subject", ErrInvalidToken)
	}

	return claims, nil
}
