package crypto

// Key is an in-memory handle to a 256-bit symmetric key. The raw bytes are
// unexported and the type exposes no accessor for them: keys enter and leave
// this package only through derive, generate, wrap and unwrap calls. That
// encapsulation is the module's equivalent of a platform non-extractable
// key — code outside internal/crypto cannot serialize, log, or persist the
// key material.
type Key struct {
	raw []byte
}

func newKey(raw []byte) *Key {
	return &Key{raw: raw}
}

// Destroy zeroizes the key material and leaves the handle unusable. Any
// later use of the key fails with [ErrInvalidKey]. Safe to call twice.
func (k *Key) Destroy() {
	if k == nil {
		return
	}
	for i := range k.raw {
		k.raw[i] = 0
	}
	k.raw = nil
}

// valid reports whether the handle still carries usable key material.
func (k *Key) valid() bool {
	return k != nil && len(k.raw) == keySize
}

// String masks the key material so a Key can never leak through formatted
// output such as %v or %s.
func (k *Key) String() string {
	return "crypto.Key(redacted)"
}

// GoString masks the key material for %#v formatting.
func (k *Key) GoString() string {
	return k.String()
}
