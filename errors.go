package passvault

import (
	"github.com/MKhiriev/passvault/identity"
	"github.com/MKhiriev/passvault/internal/crypto"
	"github.com/MKhiriev/passvault/internal/service"
	"github.com/MKhiriev/passvault/internal/session"
	"github.com/MKhiriev/passvault/storage"
)

// The sentinel errors of the vault, re-exported so embedders can match them
// with [errors.Is] without importing internal packages. Each is documented
// where it is defined.
var (
	// ErrAlreadySet: the one-time master-password setup was already done.
	ErrAlreadySet = service.ErrAlreadySet

	// ErrWeakPassword: the passphrase fails the setup strength policy.
	ErrWeakPassword = service.ErrWeakPassword

	// ErrNoBinding: no master-password binding exists; setup is required.
	ErrNoBinding = service.ErrNoBinding

	// ErrInvalidPassword: the passphrase failed the decryption proof.
	ErrInvalidPassword = service.ErrInvalidPassword

	// ErrCrypto: key derivation or random generation failed.
	ErrCrypto = service.ErrCrypto

	// ErrRecordNotFound: Update targeted a record that does not exist.
	ErrRecordNotFound = service.ErrRecordNotFound

	// ErrInvalidContainer: an import payload was structurally invalid and
	// was rejected whole.
	ErrInvalidContainer = service.ErrInvalidContainer

	// ErrResetDisabled: binding reset attempted without the config gate.
	ErrResetDisabled = service.ErrResetDisabled

	// ErrVaultLocked: the operation needs an unlocked session.
	ErrVaultLocked = session.ErrVaultLocked

	// ErrDecryption: an authenticated decryption failed (wrong key or
	// tampered data).
	ErrDecryption = crypto.ErrDecryptionFailed

	// ErrStorage: the persistence backend failed; never a crypto problem.
	ErrStorage = storage.ErrStorage

	// ErrNotSignedIn: the identity provider reports no signed-in account.
	ErrNotSignedIn = identity.ErrNotSignedIn
)
