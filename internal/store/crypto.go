package store

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

const apiKeyCipherEnv = "DARKCHAT_APIKEY_KEY"

var errInvalidCiphertext = errors.New("invalid key ciphertext")

type keyCipher struct {
	aead cipher.AEAD
}

// newKeyCipherFromEnv returns nil when no key is configured, which disables
// at-rest encryption rather than failing startup.
func newKeyCipherFromEnv() (*keyCipher, error) {
	raw := strings.TrimSpace(os.Getenv(apiKeyCipherEnv))
	if raw == "" {
		return nil, nil
	}
	key, err := decodeCipherKey(raw)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", apiKeyCipherEnv, err)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("gcm: %w", err)
	}
	return &keyCipher{aead: aead}, nil
}

func decodeCipherKey(raw string) ([]byte, error) {
	if len(raw) == 32 {
		return []byte(raw), nil
	}
	key, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, err
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("invalid key length %d, want 32", len(key))
	}
	return key, nil
}

func (c *keyCipher) Encrypt(plain string) (string, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("nonce: %w", err)
	}
	cipherText := c.aead.Seal(nil, nonce, []byte(plain), nil)
	buf := append(nonce, cipherText...)
	return base64.StdEncoding.EncodeToString(buf), nil
}

func (c *keyCipher) Decrypt(input string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(input)
	if err != nil {
		return "", errInvalidCiphertext
	}
	ns := c.aead.NonceSize()
	if len(data) < ns {
		return "", errInvalidCiphertext
	}
	nonce := data[:ns]
	cipherText := data[ns:]
	plain, err := c.aead.Open(nil, nonce, cipherText, nil)
	if err != nil {
		return "", errInvalidCiphertext
	}
	return string(plain), nil
}

// sealKey encrypts the value when a cipher is configured.
func (s *Store) sealKey(plain string) (string, error) {
	if s.cipher == nil {
		return plain, nil
	}
	return s.cipher.Encrypt(plain)
}

// openKey decrypts a stored value, tolerating legacy plaintext rows.
func (s *Store) openKey(stored string) string {
	if s.cipher == nil {
		return stored
	}
	plain, err := s.cipher.Decrypt(stored)
	if err != nil {
		return stored
	}
	return plain
}
