package crypto

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/MKhiriev/passvault/models"
)

func TestDeriveKey_GeneratesSaltWhenAbsent(t *testing.T) {
	svc := NewKeyChainService(0)

	_, s1, err := svc.DeriveKey("correct horse battery staple", nil)
	if err != nil {
		t.Fatalf("DeriveKey error: %v", err)
	}
	_, s2, err := svc.DeriveKey("correct horse battery staple", nil)
	if err != nil {
		t.Fatalf("DeriveKey error: %v", err)
	}

	if len(s1) != 32 {
		t.Fatalf("salt length = %d, want 32", len(s1))
	}
	if len(s2) != 32 {
		t.Fatalf("salt length = %d, want 32", len(s2))
	}
	if bytes.Equal(s1, s2) {
		t.Fatalf("expected salts to differ, but they are equal")
	}
}

func TestDeriveKey_DeterministicForSameInputs(t *testing.T) {
	svc := NewKeyChainService(0)

	salt := bytes.Repeat([]byte{0xAB}, 32)

	k1, _, err := svc.DeriveKey("same passphrase", salt)
	if err != nil {
		t.Fatalf("DeriveKey error: %v", err)
	}
	k2, _, err := svc.DeriveKey("same passphrase", salt)
	if err != nil {
		t.Fatalf("DeriveKey error: %v", err)
	}

	// The key bytes are not observable, so determinism is proven by
	// interoperability: k2 must open what k1 sealed.
	blob, err := svc.Encrypt([]byte("plaintext"), k1)
	if err != nil {
		t.Fatalf("Encrypt error: %v", err)
	}
	plain, err := svc.Decrypt(blob, k2)
	if err != nil {
		t.Fatalf("Decrypt with re-derived key error: %v", err)
	}
	if !bytes.Equal(plain, []byte("plaintext")) {
		t.Fatalf("round trip through re-derived key mismatch")
	}
}

func TestEncryptDecrypt_RoundTrip(t *testing.T) {
	svc := NewKeyChainService(0)

	key, _, err := svc.DeriveKey("Tr0ub4dor&3xyz", bytes.Repeat([]byte{0x01}, 32))
	if err != nil {
		t.Fatalf("DeriveKey error: %v", err)
	}

	plaintext := []byte(`{"site":"example.com","secret":"hunter2"}`)

	blob, err := svc.Encrypt(plaintext, key)
	if err != nil {
		t.Fatalf("Encrypt error: %v", err)
	}
	if len(blob.IV) != 12 {
		t.Fatalf("IV length = %d, want 12", len(blob.IV))
	}
	if len(blob.Ciphertext) <= len(plaintext) {
		t.Fatalf("ciphertext length = %d, want > %d (must include auth tag)", len(blob.Ciphertext), len(plaintext))
	}

	got, err := svc.Decrypt(blob, key)
	if err != nil {
		t.Fatalf("Decrypt error: %v", err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Fatalf("decrypted plaintext mismatch")
	}
}

func TestDecrypt_WrongPassphraseKeyFails(t *testing.T) {
	svc := NewKeyChainService(0)
	salt := bytes.Repeat([]byte{0x07}, 32)

	right, _, err := svc.DeriveKey("right passphrase", salt)
	if err != nil {
		t.Fatalf("DeriveKey error: %v", err)
	}
	wrong, _, err := svc.DeriveKey("wrong passphrase", salt)
	if err != nil {
		t.Fatalf("DeriveKey error: %v", err)
	}

	blob, err := svc.Encrypt([]byte("secret payload"), right)
	if err != nil {
		t.Fatalf("Encrypt error: %v", err)
	}

	if _, err := svc.Decrypt(blob, wrong); !errors.Is(err, ErrDecryptionFailed) {
		t.Fatalf("Decrypt with wrong key: got %v, want ErrDecryptionFailed", err)
	}
}

func TestDecrypt_TamperedCiphertextFails(t *testing.T) {
	svc := NewKeyChainService(0)

	key, _, _ := svc.DeriveKey("p", bytes.Repeat([]byte{0x03}, 32))
	blob, err := svc.Encrypt([]byte("payload"), key)
	if err != nil {
		t.Fatalf("Encrypt error: %v", err)
	}

	blob.Ciphertext[0] ^= 0xFF

	if _, err := svc.Decrypt(blob, key); !errors.Is(err, ErrDecryptionFailed) {
		t.Fatalf("Decrypt of tampered blob: got %v, want ErrDecryptionFailed", err)
	}
}

func TestDecrypt_BadIVLengthFails(t *testing.T) {
	svc := NewKeyChainService(0)

	key, _, _ := svc.DeriveKey("p", bytes.Repeat([]byte{0x03}, 32))
	blob, err := svc.Encrypt([]byte("payload"), key)
	if err != nil {
		t.Fatalf("Encrypt error: %v", err)
	}

	blob.IV = blob.IV[:8]

	if _, err := svc.Decrypt(blob, key); !errors.Is(err, ErrDecryptionFailed) {
		t.Fatalf("Decrypt with truncated IV: got %v, want ErrDecryptionFailed", err)
	}
}

func TestEncrypt_FreshIVEveryCall(t *testing.T) {
	svc := NewKeyChainService(0)

	key, _, _ := svc.DeriveKey("p", bytes.Repeat([]byte{0x05}, 32))
	plaintext := []byte("identical input")

	seen := make(map[string]struct{}, 1000)
	for i := 0; i < 1000; i++ {
		blob, err := svc.Encrypt(plaintext, key)
		if err != nil {
			t.Fatalf("Encrypt error on trial %d: %v", i, err)
		}
		iv := string(blob.IV)
		if _, dup := seen[iv]; dup {
			t.Fatalf("duplicate IV on trial %d", i)
		}
		seen[iv] = struct{}{}
	}
}

func TestWrapUnwrapKey_RoundTrip(t *testing.T) {
	svc := NewKeyChainService(0)

	sessionKey, _, err := svc.DeriveKey("master passphrase", nil)
	if err != nil {
		t.Fatalf("DeriveKey error: %v", err)
	}
	recordKey, err := svc.GenerateRecordKey()
	if err != nil {
		t.Fatalf("GenerateRecordKey error: %v", err)
	}

	data, err := svc.Encrypt([]byte("record payload"), recordKey)
	if err != nil {
		t.Fatalf("Encrypt error: %v", err)
	}

	wrapped, err := svc.WrapKey(recordKey, sessionKey)
	if err != nil {
		t.Fatalf("WrapKey error: %v", err)
	}

	unwrapped, err := svc.UnwrapKey(wrapped, sessionKey)
	if err != nil {
		t.Fatalf("UnwrapKey error: %v", err)
	}

	plain, err := svc.Decrypt(data, unwrapped)
	if err != nil {
		t.Fatalf("Decrypt with unwrapped key error: %v", err)
	}
	if !bytes.Equal(plain, []byte("record payload")) {
		t.Fatalf("payload mismatch after wrap/unwrap round trip")
	}
}

func TestUnwrapKey_WrongSessionKeyFails(t *testing.T) {
	svc := NewKeyChainService(0)
	salt := bytes.Repeat([]byte{0x0C}, 32)

	sessionKey, _, _ := svc.DeriveKey("right", salt)
	otherKey, _, _ := svc.DeriveKey("wrong", salt)
	recordKey, err := svc.GenerateRecordKey()
	if err != nil {
		t.Fatalf("GenerateRecordKey error: %v", err)
	}

	wrapped, err := svc.WrapKey(recordKey, sessionKey)
	if err != nil {
		t.Fatalf("WrapKey error: %v", err)
	}

	if _, err := svc.UnwrapKey(wrapped, otherKey); !errors.Is(err, ErrDecryptionFailed) {
		t.Fatalf("UnwrapKey with wrong session key: got %v, want ErrDecryptionFailed", err)
	}
}

func TestGenerateRecordKey_IndependentPerCall(t *testing.T) {
	svc := NewKeyChainService(0)

	k1, err := svc.GenerateRecordKey()
	if err != nil {
		t.Fatalf("GenerateRecordKey error: %v", err)
	}
	k2, err := svc.GenerateRecordKey()
	if err != nil {
		t.Fatalf("GenerateRecordKey error: %v", err)
	}

	blob, err := svc.Encrypt([]byte("x"), k1)
	if err != nil {
		t.Fatalf("Encrypt error: %v", err)
	}
	if _, err := svc.Decrypt(blob, k2); !errors.Is(err, ErrDecryptionFailed) {
		t.Fatalf("expected second record key to be unable to open the first key's blob, got %v", err)
	}
}

func TestDestroyedKey_Rejected(t *testing.T) {
	svc := NewKeyChainService(0)

	key, err := svc.GenerateRecordKey()
	if err != nil {
		t.Fatalf("GenerateRecordKey error: %v", err)
	}
	key.Destroy()
	key.Destroy() // second call must be harmless

	if _, err := svc.Encrypt([]byte("x"), key); !errors.Is(err, ErrInvalidKey) {
		t.Fatalf("Encrypt with destroyed key: got %v, want ErrInvalidKey", err)
	}
	if _, err := svc.Decrypt(models.EncryptedBlob{IV: make([]byte, 12)}, key); !errors.Is(err, ErrInvalidKey) {
		t.Fatalf("Decrypt with destroyed key: got %v, want ErrInvalidKey", err)
	}
	if _, err := svc.WrapKey(key, key); !errors.Is(err, ErrInvalidKey) {
		t.Fatalf("WrapKey with destroyed key: got %v, want ErrInvalidKey", err)
	}
}

func TestKey_FormattedOutputIsRedacted(t *testing.T) {
	svc := NewKeyChainService(0)

	key, err := svc.GenerateRecordKey()
	if err != nil {
		t.Fatalf("GenerateRecordKey error: %v", err)
	}

	for _, formatted := range []string{
		fmt.Sprintf("%v", key),
		fmt.Sprintf("%s", key),
		fmt.Sprintf("%#v", key),
	} {
		if !strings.Contains(formatted, "redacted") {
			t.Fatalf("formatted key %q does not mask material", formatted)
		}
		if strings.ContainsAny(formatted, "[") {
			t.Fatalf("formatted key %q looks like a byte dump", formatted)
		}
	}
}
