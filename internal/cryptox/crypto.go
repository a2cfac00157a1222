// Package cryptox contains the symmetric primitives behind the credential vault:
// Argon2id key stretching, a short key fingerprint, and AES-GCM sealing of
// JSON-serializable values.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"

	"golang.org/x/crypto/argon2"
)

// KeySize is the AES-256 key length used throughout the server.
const KeySize = 32

// ErrShortCiphertext is returned when the sealed payload cannot even hold a nonce.
var ErrShortCiphertext = errors.New("ciphertext too short")

// MakeVerifier returns SHA-256 of the key. It is safe to persist or display.
func MakeVerifier(key []byte) []byte {
	hash := sha256.Sum256(key)
	return hash[:]
}

// KeyID is a short printable fingerprint of key, derived from MakeVerifier.
func KeyID(key []byte) string {
	return hex.EncodeToString(MakeVerifier(key)[:4])
}

// DeriveMasterKey stretches a passphrase into a KeySize key with Argon2id.
func DeriveMasterKey(password []byte, salt []byte) []byte {
	return argon2.IDKey(password, salt, 1, 64*1024, 4, KeySize)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// SealJSON serializes v to JSON and encrypts it with AES-GCM under key.
// The random nonce is prepended to the returned ciphertext.
func SealJSON(v any, key []byte) ([]byte, error) {
	plaintext, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	aesgcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, aesgcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}

	return aesgcm.Seal(nonce, nonce, plaintext, nil), nil
}

// OpenJSON reverses SealJSON: it splits off the nonce, authenticates and
// decrypts the payload, then unmarshals the JSON into v.
func OpenJSON(sealed []byte, key []byte, v any) error {
	aesgcm, err := newGCM(key)
	if err != nil {
		return err
	}

	ns := aesgcm.NonceSize()
	if len(sealed) < ns {
		return ErrShortCiphertext
	}

	plaintext, err := aesgcm.Open(nil, sealed[:ns], sealed[ns:], nil)
	if err != nil {
		return err
	}

	return json.Unmarshal(plaintext, v)
}
