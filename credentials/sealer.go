package credentials

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"github.com/jrsteele09/go-auth-console/internal/errors"
	"golang.org/x/crypto/chacha20poly1305"
)

// Sealer protects token material at rest
type Sealer interface {
	Seal(plaintext string) (string, error)
	Open(sealed string) (string, error)
}

// NewSealer returns an XChaCha20-Poly1305 sealer for a base64 encoded
// 32 byte key, or a pass-through sealer when key is empty.
func NewSealer(key string) (Sealer, error) {
	if key == "" {
		return PlainSealer{}, nil
	}

	raw, err := base64.StdEncoding.DecodeString(key)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidStorageKey, "decode: %v", err)
	}
	if len(raw) != chacha20poly1305.KeySize {
		return nil, errors.Wrapf(errors.ErrInvalidStorageKey, "want %d bytes, got %d", chacha20poly1305.KeySize, len(raw))
	}

	aead, err := chacha20poly1305.NewX(raw)
	if err != nil {
		return nil, fmt.Errorf("[credentials NewSealer] %w", err)
	}
	return &AEADSealer{aead: aead}, nil
}

type PlainSealer struct{}

func (PlainSealer) Seal(plaintext string) (string, error) { return plaintext, nil }
func (PlainSealer) Open(sealed string) (string, error)    { return sealed, nil }

type AEADSealer struct {
	aead cipher.AEAD
}

func (s *AEADSealer) Seal(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}
	nonce := make([]byte, s.aead.NonceSize(), s.aead.NonceSize()+len(plaintext)+s.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("[AEADSealer Seal] nonce: %w", err)
	}
	sealed := s.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.RawStdEncoding.EncodeToString(sealed), nil
}

func (s *AEADSealer) Open(sealed string) (string, error) {
	if sealed == "" {
		return "", nil
	}
	raw, err := base64.RawStdEncoding.DecodeString(sealed)
	if err != nil {
		return "", errors.Wrapf(errors.ErrCorruptRecord, "decode")
	}
	if len(raw) < s.aead.NonceSize() {
		return "", errors.Wrapf(errors.ErrCorruptRecord, "short ciphertext")
	}
	nonce, ciphertext := raw[:s.aead.NonceSize()], raw[s.aead.NonceSize():]
	plaintext, err := s.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", errors.Wrapf(errors.ErrCorruptRecord, "open")
	}
	return string(plaintext), nil
}

// GenerateKey returns a fresh base64 storage key
func GenerateKey() (string, error) {
	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := rand.Read(key); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(key), nil
}
