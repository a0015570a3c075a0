// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package passvault is an embeddable zero-knowledge secrets vault.
//
// Every record is encrypted on the client under its own random key, which
// is in turn wrapped under a session key derived from the user's master
// passphrase (PBKDF2-SHA256, AES-256-GCM). Whatever sits behind the
// [storage.Store] interface only ever sees ciphertext: neither the master
// passphrase nor anything derived from it is persisted or transmitted.
//
// The master passphrase is bound to the account exactly once and cannot be
// changed afterwards; there is deliberately no recovery path. A forgotten
// passphrase means the data is gone, which is the property that makes the
// vault zero-knowledge.
//
// Typical embedding:
//
//	cfg, err := config.GetConfig()
//	if err != nil { ... }
//
//	vault, err := passvault.Open(ctx, cfg, logger.NewLogger("vault"))
//	if err != nil { ... }
//	defer vault.Close()
//
//	if err := vault.Unlock(ctx, passphrase); errors.Is(err, passvault.ErrNoBinding) {
//		err = vault.Setup(ctx, passphrase) // first run
//	}
//
//	saved, err := vault.Save(ctx, models.Record{
//		Type: models.RecordTypePassword,
//		Data: models.PasswordData{Site: "example.com", Login: "user", Secret: "hunter2"},
//	})
//
// The session auto-locks after a sliding inactivity window; subscribe to
// [EventVaultLocked] to react in the UI. All sentinel errors are re-exported
// from this package for matching with [errors.Is].
package passvault
