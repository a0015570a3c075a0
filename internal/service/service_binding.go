// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/MKhiriev/passvault/internal/crypto"
	"github.com/MKhiriev/passvault/internal/session"
	"github.com/MKhiriev/passvault/internal/validators"
	"github.com/MKhiriev/passvault/logger"
	"github.com/MKhiriev/passvault/models"
	"github.com/MKhiriev/passvault/storage"
)

// bindingKeyPrefix namespaces binding blobs by account inside the shared
// blob store.
const bindingKeyPrefix = "binding:"

func bindingKey(accountID string) string {
	return bindingKeyPrefix + accountID
}

type bindingService struct {
	store      storage.Store
	keychain   crypto.KeyChainService
	session    session.Manager
	containers *containerRepository
	passphrase validators.Validator
	allowReset bool
	logger     *logger.Logger

	mu sync.Mutex
}

// NewBindingService wires a [BindingService] from its collaborators.
// allowReset gates the destructive [BindingService.Reset] path and should
// stay off outside development builds.
func NewBindingService(
	store storage.Store,
	keychain crypto.KeyChainService,
	sess session.Manager,
	containers *containerRepository,
	allowReset bool,
	log *logger.Logger,
) BindingService {
	return &bindingService{
		store:      store,
		keychain:   keychain,
		session:    sess,
		containers: containers,
		passphrase: validators.NewPassphraseValidator(),
		allowReset: allowReset,
		logger:     log,
	}
}

// Setup implements [BindingService].
func (b *bindingService) Setup(ctx context.Context, accountID, email, passphrase string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	existing, err := b.loadBinding(ctx, accountID)
	if err != nil && !errors.Is(err, ErrNoBinding) {
		return err
	}
	if existing != nil {
		return ErrAlreadySet
	}

	if err = b.passphrase.Validate(ctx, passphrase); err != nil {
		return fmt.Errorf("%w: %w", ErrWeakPassword, err)
	}

	// Derive once with a generated salt to obtain it; the throwaway key
	// only proves the derivation path works.
	probe, salt, err := b.keychain.DeriveKey(passphrase, nil)
	if err != nil {
		b.logger.Err(err).Str("func", "bindingService.Setup").Msg("key derivation failed")
		return fmt.Errorf("%w: %w", ErrCrypto, err)
	}
	probe.Destroy()

	if ok := b.session.Unlock(passphrase, salt); !ok {
		return fmt.Errorf("%w: session unlock failed", ErrCrypto)
	}

	now := time.Now().UnixMilli()
	binding := models.MasterPasswordBinding{
		AccountID:         accountID,
		Email:             email,
		Salt:              salt,
		SetupTimestamp:    now,
		LastUsedTimestamp: now,
		Immutable:         true,
	}

	if err = b.saveBinding(ctx, binding); err != nil {
		// do not leave an unlocked session behind a failed setup
		b.session.Lock()
		return err
	}

	b.logger.Info().
		Str("func", "bindingService.Setup").
		Str("account_id", accountID).
		Msg("master password binding created")

	return nil
}

// Unlock implements [BindingService].
func (b *bindingService) Unlock(ctx context.Context, accountID, passphrase string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	binding, err := b.loadBinding(ctx, accountID)
	if err != nil {
		return err
	}

	if ok := b.session.Unlock(passphrase, binding.Salt); !ok {
		return fmt.Errorf("%w: session unlock failed", ErrCrypto)
	}

	if err = b.proveSessionKey(ctx); err != nil {
		b.session.Lock()
		return err
	}

	binding.LastUsedTimestamp = time.Now().UnixMilli()
	if err = b.saveBinding(ctx, *binding); err != nil {
		// the unlock itself succeeded; a failed timestamp refresh is not
		// worth locking the user out over
		b.logger.Warn().
			Str("func", "bindingService.Unlock").
			Str("account_id", accountID).
			Msg("failed to refresh binding last-used timestamp")
	}

	return nil
}

// Status implements [BindingService].
func (b *bindingService) Status(ctx context.Context, accountID string) (models.BindingStatus, error) {
	raw, err := b.store.Get(ctx, bindingKey(accountID))
	if errors.Is(err, storage.ErrNotFound) {
		return models.BindingStatus{}, nil
	}
	if err != nil {
		return models.BindingStatus{}, fmt.Errorf("load binding: %w", err)
	}

	binding, ok := decodeBinding(raw, accountID)
	if !ok {
		// read-only projection: report absent, leave the discarding to Unlock
		return models.BindingStatus{}, nil
	}

	return models.BindingStatus{
		IsSet:        true,
		SetupTime:    time.UnixMilli(binding.SetupTimestamp),
		LastUsedTime: time.UnixMilli(binding.LastUsedTimestamp),
	}, nil
}

// Reset implements [BindingService].
func (b *bindingService) Reset(ctx context.Context, accountID string) error {
	if !b.allowReset {
		return ErrResetDisabled
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.session.Lock()

	if err := b.containers.Delete(ctx); err != nil {
		return err
	}
	if err := b.store.Delete(ctx, bindingKey(accountID)); err != nil {
		return fmt.Errorf("delete binding: %w", err)
	}

	b.logger.Warn().
		Str("func", "bindingService.Reset").
		Str("account_id", accountID).
		Msg("binding and container wiped")

	return nil
}

// loadBinding returns the trusted binding for accountID. A missing blob
// yields ErrNoBinding. A blob that does not decode, fails basic shape
// checks, or belongs to a different account is discarded from storage and
// also yields ErrNoBinding: a binding is only ever trusted whole.
func (b *bindingService) loadBinding(ctx context.Context, accountID string) (*models.MasterPasswordBinding, error) {
	key := bindingKey(accountID)

	raw, err := b.store.Get(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNoBinding
	}
	if err != nil {
		return nil, fmt.Errorf("load binding: %w", err)
	}

	binding, ok := decodeBinding(raw, accountID)
	if !ok {
		b.logger.Warn().
			Str("func", "bindingService.loadBinding").
			Str("account_id", accountID).
			Msg("discarding foreign or corrupt binding")

		if delErr := b.store.Delete(ctx, key); delErr != nil {
			return nil, fmt.Errorf("discard corrupt binding: %w", delErr)
		}
		return nil, ErrNoBinding
	}

	return binding, nil
}

func (b *bindingService) saveBinding(ctx context.Context, binding models.MasterPasswordBinding) error {
	payload, err := json.Marshal(binding)
	if err != nil {
		return fmt.Errorf("encode binding: %w", err)
	}

	if err = b.store.Set(ctx, bindingKey(binding.AccountID), string(payload)); err != nil {
		return fmt.Errorf("persist binding: %w", err)
	}

	return nil
}

// proveSessionKey checks the freshly derived session key against the vault
// contents by unwrapping the first stored record key. An empty container
// proves nothing and passes vacuously; any unwrap failure is reported as
// ErrInvalidPassword with no further detail.
func (b *bindingService) proveSessionKey(ctx context.Context) error {
	sessionKey, err := b.session.Key()
	if err != nil {
		return err
	}

	container, err := b.containers.Load(ctx)
	if err != nil {
		return err
	}
	if len(container.Records) == 0 {
		return nil
	}

	recordKey, err := b.keychain.UnwrapKey(container.Records[0].WrappedKey, sessionKey)
	if err != nil {
		return ErrInvalidPassword
	}
	recordKey.Destroy()

	return nil
}

// decodeBinding parses a stored binding blob and applies the trust checks:
// account match, a usable salt, and the immutability marker.
func decodeBinding(raw string, accountID string) (*models.MasterPasswordBinding, bool) {
	var binding models.MasterPasswordBinding
	if err := json.Unmarshal([]byte(raw), &binding); err != nil {
		return nil, false
	}
	if binding.AccountID != accountID {
		return nil, false
	}
	if len(binding.Salt) == 0 {
		return nil, false
	}
	if !binding.Immutable {
		return nil, false
	}

	return &binding, true
}
