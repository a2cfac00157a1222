// Package vault keeps per-admin drive credentials encrypted at rest.
//
// Ciphertexts have the form "<kid>.<base64url(nonce||sealed)>" where kid is a
// fingerprint of the process key. A ciphertext produced under another key is
// rejected before any decryption is attempted.
package vault

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/docdrive/internal/common"
	"github.com/dmitrijs2005/docdrive/internal/cryptox"
)

// keySalt is the fixed salt used when stretching a passphrase into a key.
var keySalt = []byte("docdrive/credential-vault/v1")

// Vault encrypts and decrypts credential blobs under one immutable key.
type Vault struct {
	key []byte
	kid string
}

// New returns a Vault for a cryptox.KeySize key. The key is copied.
func New(key []byte) (*Vault, error) {
	if len(key) != cryptox.KeySize {
		return nil, fmt.Errorf("vault key must be %d bytes, got %d", cryptox.KeySize, len(key))
	}
	k := make([]byte, len(key))
	copy(k, key)
	return &Vault{key: k, kid: cryptox.KeyID(k)}, nil
}

// KeyFromSecret turns the configured secret into a vault key. A base64 value
// (standard or URL alphabet, padded or not) that decodes to exactly 32 bytes
// is used directly; anything else is stretched with Argon2id.
func KeyFromSecret(secret string) ([]byte, error) {
	if secret == "" {
		return nil, errors.New("encryption key is empty")
	}

	for _, enc := range []*base64.Encoding{
		base64.StdEncoding, base64.URLEncoding,
		base64.RawStdEncoding, base64.RawURLEncoding,
	} {
		if b, err := enc.DecodeString(secret); err == nil && len(b) == cryptox.KeySize {
			return b, nil
		}
	}

	return cryptox.DeriveMasterKey([]byte(secret), keySalt), nil
}

// KeyID is the fingerprint tagged onto every ciphertext.
func (v *Vault) KeyID() string { return v.kid }

// Encrypt serializes blob to JSON and seals it.
func (v *Vault) Encrypt(blob any) (string, error) {
	sealed, err := cryptox.SealJSON(blob, v.key)
	if err != nil {
		return "", fmt.Errorf("encrypt credentials: %w", err)
	}
	return v.kid + "." + base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a ciphertext produced by Encrypt and unmarshals it into out.
// Every failure matches common.ErrCredentialIntegrity.
func (v *Vault) Decrypt(ciphertext string, out any) error {
	kid, payload, ok := strings.Cut(ciphertext, ".")
	if !ok || kid == "" || payload == "" {
		return fmt.Errorf("%w: malformed ciphertext", common.ErrCredentialIntegrity)
	}
	if kid != v.kid {
		return fmt.Errorf("%w: key id %s does not match %s", common.ErrCredentialIntegrity, kid, v.kid)
	}

	sealed, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrCredentialIntegrity, err)
	}

	if err := cryptox.OpenJSON(sealed, v.key, out); err != nil {
		return fmt.Errorf("%w: %v", common.ErrCredentialIntegrity, err)
	}
	return nil
}

// EncryptServiceAccount is Encrypt specialised for service-account credentials.
func (v *Vault) EncryptServiceAccount(sa *ServiceAccount) (string, error) {
	return v.Encrypt(sa)
}

// DecryptServiceAccount opens a stored service-account ciphertext.
func (v *Vault) DecryptServiceAccount(ciphertext string) (*ServiceAccount, error) {
	sa := &ServiceAccount{}
	if err := v.Decrypt(ciphertext, sa); err != nil {
		return nil, err
	}
	return sa, nil
}
