package session

import "errors"

// ErrVaultLocked is returned by [Manager.Key] while no session is active.
// Always recoverable: the caller prompts for the passphrase and unlocks.
// Callers should use [errors.Is] to test for it.
var ErrVaultLocked = errors.New("vault is locked")
