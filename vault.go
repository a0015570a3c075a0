package passvault

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/MKhiriev/passvault/config"
	"github.com/MKhiriev/passvault/identity"
	"github.com/MKhiriev/passvault/internal/crypto"
	"github.com/MKhiriev/passvault/internal/service"
	"github.com/MKhiriev/passvault/internal/session"
	"github.com/MKhiriev/passvault/logger"
	"github.com/MKhiriev/passvault/models"
	"github.com/MKhiriev/passvault/storage"
)

// Vault is the composition root of the secrets vault: one session, one
// account binding, one encrypted record container, wired to a pluggable
// [storage.Store] and [identity.Provider].
//
// All methods are safe for concurrent use. The zero value is not usable;
// construct with [New] or [Open].
type Vault struct {
	store    storage.Store
	provider identity.Provider
	keychain crypto.KeyChainService
	session  session.Manager
	services *service.Services
	events   *eventNotifier
	log      *logger.Logger

	unsubscribeAuth func()

	// ownsStore / ownsProvider mark components built by [Open], which
	// Close therefore also tears down. Host-supplied components are the
	// host's to close.
	ownsStore    bool
	ownsProvider bool

	mu            sync.Mutex
	activeAccount string
	closed        bool
}

// New wires a Vault from explicit components. The store and provider stay
// owned by the caller: [Vault.Close] will not close them. A nil log is
// replaced with a silent logger.
func New(cfg config.Vault, store storage.Store, provider identity.Provider, log *logger.Logger) *Vault {
	if log == nil {
		log = logger.Nop()
	}

	v := &Vault{
		store:    store,
		provider: provider,
		keychain: crypto.NewKeyChainService(cfg.KDFIterations),
		events:   &eventNotifier{},
		log:      log,
	}
	v.session = session.NewManager(v.keychain, cfg.AutoLockTimeout, v.handleAutoLock, log)

	if cfg.ContainerKey == "" {
		cfg.ContainerKey = config.DefaultContainerKey
	}
	v.services = service.NewServices(store, v.keychain, v.session, cfg, log)
	v.unsubscribeAuth = provider.OnAuthStateChange(v.handleAuthChange)

	return v
}

// Open is the configuration-driven constructor: it builds the storage
// adapter and identity provider named by cfg and wires a Vault over them.
// Components built here are owned by the Vault and closed by [Vault.Close].
func Open(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Vault, error) {
	if log == nil {
		log = logger.Nop()
	}

	store, err := storage.New(ctx, cfg.Storage, log)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	provider, err := providerFromConfig(ctx, cfg.Identity, log)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	v := New(cfg.Vault, store, provider, log)
	v.ownsStore = true
	v.ownsProvider = true
	return v, nil
}

// providerFromConfig builds the identity provider named by cfg. The remote
// provider is started here; a failed initial account fetch is logged and
// tolerated, since the poller recovers on its own once the account server
// is reachable.
func providerFromConfig(ctx context.Context, cfg config.Identity, log *logger.Logger) (identity.Provider, error) {
	switch cfg.Provider {
	case "", "static":
		return identity.NewStaticProvider(cfg.AccountID, cfg.Email), nil

	case "token":
		return identity.NewTokenProvider(cfg.TokenSignKey, cfg.TokenIssuer, log), nil

	case "remote":
		provider := identity.NewRemoteProvider(identity.RemoteConfig{
			BaseURL:      cfg.BaseURL,
			PollInterval: cfg.PollInterval,
		}, log)
		if err := provider.Start(ctx); err != nil {
			log.Warn().Str("func", "providerFromConfig").Err(err).Msg("initial account fetch failed, polling continues")
		}
		return provider, nil

	default:
		return nil, fmt.Errorf("unknown identity provider: %q", cfg.Provider)
	}
}

// Setup performs the one-time master-password setup for the signed-in
// account and leaves the vault unlocked. See [service.BindingService.Setup]
// for the error contract; [ErrNotSignedIn] is returned when no account is
// available to bind.
func (v *Vault) Setup(ctx context.Context, passphrase string) error {
	accountID := v.provider.AccountID()
	if accountID == "" {
		return identity.ErrNotSignedIn
	}

	if err := v.services.BindingService.Setup(ctx, accountID, v.provider.Email(), passphrase); err != nil {
		return err
	}

	v.setActiveAccount(accountID)
	v.events.emit(EventVaultUnlocked, accountID)
	return nil
}

// Unlock derives the session key from the passphrase and the stored binding
// and proves it against the vault contents. [ErrNoBinding] additionally
// fires a [EventSetupRequired] event so UIs can branch into the setup flow.
func (v *Vault) Unlock(ctx context.Context, passphrase string) error {
	accountID := v.provider.AccountID()
	if accountID == "" {
		return identity.ErrNotSignedIn
	}

	err := v.services.BindingService.Unlock(ctx, accountID, passphrase)
	if errors.Is(err, service.ErrNoBinding) {
		v.events.emit(EventSetupRequired, accountID)
		return err
	}
	if err != nil {
		return err
	}

	v.setActiveAccount(accountID)
	v.events.emit(EventVaultUnlocked, accountID)
	return nil
}

// Lock discards the session key. Idempotent; the [EventVaultLocked] event
// fires only when the vault was actually unlocked.
func (v *Vault) Lock() {
	if v.session.Lock() {
		v.events.emit(EventVaultLocked, v.currentAccount())
	}
}

// IsUnlocked reports whether a session key is currently held.
func (v *Vault) IsUnlocked() bool {
	return v.session.IsUnlocked()
}

// Status reports whether the signed-in account has completed setup, without
// touching the session.
func (v *Vault) Status(ctx context.Context) (models.BindingStatus, error) {
	accountID := v.provider.AccountID()
	if accountID == "" {
		return models.BindingStatus{}, identity.ErrNotSignedIn
	}
	return v.services.BindingService.Status(ctx, accountID)
}

// Reset wipes the master-password binding and every stored record of the
// signed-in account. Gated by the binding-reset config flag and refused with
// [ErrResetDisabled] otherwise.
func (v *Vault) Reset(ctx context.Context) error {
	accountID := v.provider.AccountID()
	if accountID == "" {
		return identity.ErrNotSignedIn
	}

	wasUnlocked := v.session.IsUnlocked()
	if err := v.services.BindingService.Reset(ctx, accountID); err != nil {
		return err
	}
	if wasUnlocked {
		v.events.emit(EventVaultLocked, accountID)
	}
	return nil
}

// Save encrypts and stores a record, inserting or replacing by (ID, Type).
// See [service.RecordService.Save].
func (v *Vault) Save(ctx context.Context, record models.Record) (models.Record, error) {
	return v.services.RecordService.Save(ctx, record)
}

// Get decrypts and returns all records of the given type, along with the
// number of records that could not be decrypted.
func (v *Vault) Get(ctx context.Context, recordType models.RecordType) ([]models.Record, int, error) {
	return v.services.RecordService.Get(ctx, recordType)
}

// Update re-encrypts an existing record; [ErrRecordNotFound] if there is no
// record with the given ID and type.
func (v *Vault) Update(ctx context.Context, record models.Record) (models.Record, error) {
	return v.services.RecordService.Update(ctx, record)
}

// Delete removes one record by ID and type. Absent records are not an error.
func (v *Vault) Delete(ctx context.Context, recordID string, recordType models.RecordType) error {
	return v.services.RecordService.Delete(ctx, recordID, recordType)
}

// DeleteMany removes all records of the given type whose ID is listed.
func (v *Vault) DeleteMany(ctx context.Context, recordIDs []string, recordType models.RecordType) error {
	return v.services.RecordService.DeleteMany(ctx, recordIDs, recordType)
}

// Stats aggregates record counts and the most recent modification time
// without decrypting anything.
func (v *Vault) Stats(ctx context.Context) (models.Stats, error) {
	return v.services.RecordService.Stats(ctx)
}

// Export serializes the still-encrypted container as a backup payload.
func (v *Vault) Export(ctx context.Context) ([]byte, error) {
	return v.services.RecordService.Export(ctx)
}

// Import applies an exported container, either merging into or replacing
// the current contents. Structurally invalid payloads are rejected whole
// with [ErrInvalidContainer].
func (v *Vault) Import(ctx context.Context, data []byte, merge bool) error {
	return v.services.RecordService.Import(ctx, data, merge)
}

// Subscribe registers fn for vault lifecycle events. The returned function
// removes the subscription; calling it more than once is safe.
func (v *Vault) Subscribe(fn func(Event)) func() {
	return v.events.subscribe(fn)
}

// SignOut locks the vault first, so the session key is discarded before the
// identity goes away, and then signs out of the identity provider.
func (v *Vault) SignOut(ctx context.Context) error {
	v.Lock()
	return v.provider.SignOut(ctx)
}

// Close locks the vault and releases everything it owns: the auth-state
// subscription always, the storage adapter and identity provider only when
// [Open] built them. Safe to call more than once.
func (v *Vault) Close() error {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return nil
	}
	v.closed = true
	v.mu.Unlock()

	if v.unsubscribeAuth != nil {
		v.unsubscribeAuth()
	}
	v.Lock()

	if v.ownsProvider {
		if stopper, ok := v.provider.(interface{ Stop() }); ok {
			stopper.Stop()
		}
	}
	if v.ownsStore {
		if err := v.store.Close(); err != nil {
			return fmt.Errorf("close storage: %w", err)
		}
	}
	return nil
}

// handleAutoLock runs once per inactivity lock, after the session manager
// has already discarded the key.
func (v *Vault) handleAutoLock() {
	v.log.Info().Str("func", "Vault.handleAutoLock").Msg("vault locked by inactivity")
	v.events.emit(EventVaultLocked, v.currentAccount())
}

// handleAuthChange locks the vault when the signed-in account goes away or
// changes: a session key belonging to the previous account must not outlive
// it. A state change for the same account (e.g. a token refresh) is ignored.
func (v *Vault) handleAuthChange(state identity.AuthState) {
	if state.SignedIn && state.AccountID == v.currentAccount() {
		return
	}
	if v.session.Lock() {
		v.log.Info().Str("func", "Vault.handleAuthChange").Msg("vault locked by identity change")
		v.events.emit(EventVaultLocked, v.currentAccount())
	}
}

func (v *Vault) setActiveAccount(accountID string) {
	v.mu.Lock()
	v.activeAccount = accountID
	v.mu.Unlock()
}

func (v *Vault) currentAccount() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.activeAccount
}
