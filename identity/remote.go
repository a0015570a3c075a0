package identity

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/MKhiriev/passvault/logger"
)

// Defaults applied by [NewRemoteProvider] when the corresponding
// [RemoteConfig] field is left zero.
const (
	DefaultUserInfoPath = "/api/auth/userinfo"
	DefaultPollInterval = 5 * time.Minute
	defaultHTTPTimeout  = 15 * time.Second
)

// RemoteConfig describes the account endpoint a [RemoteProvider] talks to.
type RemoteConfig struct {
	// BaseURL is the account server root, e.g. "https://accounts.example.com".
	BaseURL string

	// UserInfoPath is the GET endpoint returning the current account as
	// {"accountId": ..., "email": ...}. Defaults to [DefaultUserInfoPath].
	UserInfoPath string

	// SignOutPath, when non-empty, is POSTed on [RemoteProvider.SignOut] to
	// terminate the server-side session as well.
	SignOutPath string

	// Token is the bearer token proving the session to the account server.
	Token string

	// PollInterval is how often the provider re-reads the account endpoint
	// once started. Defaults to [DefaultPollInterval].
	PollInterval time.Duration

	// Timeout bounds each HTTP request. Defaults to 15 seconds.
	Timeout time.Duration
}

type userInfoResponse struct {
	AccountID string `json:"accountId"`
	Email     string `json:"email"`
}

// RemoteProvider is a [Provider] that learns the current account from an
// HTTP endpoint and keeps it fresh with periodic polling. A 401 from the
// endpoint flips the provider to signed out, which is how a session revoked
// on the server propagates to the vault.
type RemoteProvider struct {
	notifier

	client *resty.Client
	cfg    RemoteConfig
	log    *logger.Logger

	mu    sync.RWMutex
	state AuthState

	jobMu  sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewRemoteProvider constructs a [RemoteProvider] for cfg. The provider is
// signed out and idle until [RemoteProvider.Start] is called.
func NewRemoteProvider(cfg RemoteConfig, log *logger.Logger) *RemoteProvider {
	if log == nil {
		log = logger.Nop()
	}
	if cfg.UserInfoPath == "" {
		cfg.UserInfoPath = DefaultUserInfoPath
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultHTTPTimeout
	}

	cli := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout)

	return &RemoteProvider{
		client: cli,
		cfg:    cfg,
		log:    log,
	}
}

// Start performs an initial account fetch and then launches a background
// goroutine that re-reads the endpoint every poll interval. A previously
// running poller is stopped first. The goroutine exits when ctx is cancelled
// or [RemoteProvider.Stop] is called.
//
// The initial fetch error is returned so callers can distinguish "account
// server unreachable" from "started fine"; the background poller logs and
// keeps going on later failures.
func (p *RemoteProvider) Start(ctx context.Context) error {
	p.Stop()

	err := p.refresh(ctx)

	p.jobMu.Lock()
	jobCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.wg.Add(1)
	p.jobMu.Unlock()

	go func() {
		defer p.wg.Done()
		t := time.NewTicker(p.cfg.PollInterval)
		defer t.Stop()

		for {
			select {
			case <-jobCtx.Done():
				return
			case <-t.C:
				if refreshErr := p.refresh(jobCtx); refreshErr != nil {
					p.log.Err(refreshErr).Str("func", "RemoteProvider.Start").Msg("account refresh failed")
				}
			}
		}
	}()

	return err
}

// Stop cancels the background poller and blocks until it has fully exited.
// Safe to call when the poller is not running.
func (p *RemoteProvider) Stop() {
	p.jobMu.Lock()
	cancel := p.cancel
	p.cancel = nil
	p.jobMu.Unlock()

	if cancel != nil {
		cancel()
	}
	p.wg.Wait()
}

// AccountID implements [Provider].
func (p *RemoteProvider) AccountID() string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.state.AccountID
}

// Email implements [Provider].
func (p *RemoteProvider) Email() string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.state.Email
}

// OnAuthStateChange implements [Provider].
func (p *RemoteProvider) OnAuthStateChange(fn func(AuthState)) func() {
	return p.subscribe(fn)
}

// SignOut implements [Provider]. It stops the poller, optionally notifies
// the server (when SignOutPath is configured), and clears the local state.
// A failed server call is logged but does not keep the local session alive.
func (p *RemoteProvider) SignOut(ctx context.Context) error {
	p.Stop()

	if p.cfg.SignOutPath != "" {
		resp, err := p.client.R().
			SetContext(ctx).
			SetAuthToken(p.cfg.Token).
			Post(p.cfg.SignOutPath)
		if err != nil {
			p.log.Err(err).Str("func", "RemoteProvider.SignOut").Msg("sign-out request failed")
		} else if resp.IsError() {
			p.log.Warn().
				Str("func", "RemoteProvider.SignOut").
				Int("status", resp.StatusCode()).
				Msg("sign-out request rejected")
		}
	}

	p.setState(AuthState{})

	return nil
}

// refresh reads the userinfo endpoint and updates the provider state.
func (p *RemoteProvider) refresh(ctx context.Context) error {
	var info userInfoResponse
	resp, err := p.client.R().
		SetContext(ctx).
		SetAuthToken(p.cfg.Token).
		SetResult(&info).
		Get(p.cfg.UserInfoPath)
	if err != nil {
		return fmt.Errorf("userinfo request: %w", err)
	}

	if resp.StatusCode() == http.StatusUnauthorized {
		p.setState(AuthState{})
		return ErrNotSignedIn
	}
	if resp.IsError() {
		return fmt.Errorf("userinfo request failed: %s", resp.Status())
	}
	if info.AccountID == "" {
		return fmt.Errorf("%w: userinfo response has empty accountId", ErrInvalidToken)
	}

	p.setState(AuthState{
		AccountID: info.AccountID,
		Email:     info.Email,
		SignedIn:  true,
	})

	return nil
}

// setState stores next and notifies listeners if the state actually changed.
func (p *RemoteProvider) setState(next AuthState) {
	p.mu.Lock()
	changed := p.state != next
	p.state = next
	p.mu.Unlock()

	if changed {
		p.emit(next)
	}
}
