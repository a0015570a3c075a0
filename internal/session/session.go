// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package session

import (
	"sync"
	"time"

	"github.com/MKhiriev/passvault/internal/crypto"
	"github.com/MKhiriev/passvault/logger"
)

// DefaultAutoLock is the sliding inactivity window after which an unlocked
// session locks itself.
const DefaultAutoLock = 15 * time.Minute

// manager is the private implementation of [Manager].
type manager struct {
	keychain   crypto.KeyChainService
	timeout    time.Duration
	onAutoLock func()
	log        *logger.Logger

	mu         sync.Mutex
	key        *crypto.Key
	salt       []byte
	unlockedAt time.Time
	timer      *time.Timer
	// gen invalidates in-flight timer fires: every re-arm, lock, and
	// unlock bumps it, and a fire whose generation no longer matches is a
	// stale one and must not touch the session.
	gen uint64
}

// NewManager constructs the session [Manager]. A timeout of zero or below
// falls back to [DefaultAutoLock]. onAutoLock, when non-nil, is invoked once
// per inactivity lock, after the key has been discarded and outside any
// internal lock, so the callback may call back into the manager.
func NewManager(keychain crypto.KeyChainService, timeout time.Duration, onAutoLock func(), log *logger.Logger) Manager {
	if timeout <= 0 {
		timeout = DefaultAutoLock
	}
	if log == nil {
		log = logger.Nop()
	}

	return &manager{
		keychain:   keychain,
		timeout:    timeout,
		onAutoLock: onAutoLock,
		log:        log,
	}
}

// Unlock implements [Manager]. The passphrase itself is never retained or
// logged; only the derived key is kept.
func (m *manager) Unlock(passphrase string, salt []byte) bool {
	key, usedSalt, err := m.keychain.DeriveKey(passphrase, salt)
	if err != nil {
		m.log.Err(err).Str("func", "Unlock").Msg("session key derivation failed")
		return false
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.discardLocked()
	m.key = key
	m.salt = append([]byte(nil), usedSalt...)
	m.unlockedAt = time.Now()
	m.armLocked()

	m.log.Debug().Str("func", "Unlock").Msg("session unlocked")
	return true
}

// Lock implements [Manager].
func (m *manager) Lock() bool {
	m.mu.Lock()
	changed := m.key != nil
	m.discardLocked()
	m.mu.Unlock()

	if changed {
		m.log.Debug().Str("func", "Lock").Msg("session locked")
	}
	return changed
}

// IsUnlocked implements [Manager].
func (m *manager) IsUnlocked() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.key != nil
}

// Key implements [Manager].
func (m *manager) Key() (*crypto.Key, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.key == nil {
		return nil, ErrVaultLocked
	}

	// Sliding window: any key access pushes the deadline out.
	m.armLocked()
	return m.key, nil
}

// armLocked starts a fresh single-shot auto-lock timer, invalidating any
// previously scheduled fire. Caller holds mu.
func (m *manager) armLocked() {
	m.gen++
	gen := m.gen
	if m.timer != nil {
		m.timer.Stop()
	}
	m.timer = time.AfterFunc(m.timeout, func() {
		m.autoLock(gen)
	})
}

// discardLocked zeroizes the key material, clears the session state, and
// cancels the timer. Caller holds mu.
func (m *manager) discardLocked() {
	m.gen++
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	if m.key != nil {
		m.key.Destroy()
		m.key = nil
	}
	for i := range m.salt {
		m.salt[i] = 0
	}
	m.salt = nil
	m.unlockedAt = time.Time{}
}

// autoLock is the timer callback. A stale generation means the session was
// manually locked, re-unlocked, or touched after this fire was scheduled; in
// that case the fire is ignored.
func (m *manager) autoLock(gen uint64) {
	m.mu.Lock()
	if gen != m.gen || m.key == nil {
		m.mu.Unlock()
		return
	}
	m.discardLocked()
	callback := m.onAutoLock
	m.mu.Unlock()

	m.log.Info().Str("func", "autoLock").Dur("timeout", m.timeout).Msg("session auto-locked after inactivity")
	if callback != nil {
		callback()
	}
}
