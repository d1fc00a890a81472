package snapshot

import (
	"context"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"

	"github.com/yndnr/syncx-go/internal/storage"
)

const (
	// MinPassphraseLength is the shortest accepted passphrase.
	MinPassphraseLength = 8

	sealAlgorithm = "xchacha20-poly1305"
	saltKey       = "meta/snapshot-salt"
	saltLength    = 16

	argon2Time    = 3
	argon2Memory  = 64 * 1024
	argon2Threads = 4
)

var (
	ErrPassphraseTooShort = fmt.Errorf("snapshot: passphrase too short (minimum %d characters)", MinPassphraseLength)
	ErrEncrypted          = errors.New("snapshot: record is encrypted and no passphrase is configured")
	ErrDecryptionFailed   = errors.New("snapshot: decryption failed (wrong passphrase or tampered record)")
)

// sealer encrypts payloads with a key derived from the store passphrase.
type sealer struct {
	aead cipher.AEAD
}

func newSealer(passphrase, salt []byte) (*sealer, error) {
	key := argon2.IDKey(passphrase, salt, argon2Time, argon2Memory, argon2Threads, chacha20poly1305.KeySize)
	defer clear(key)
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	return &sealer{aead: aead}, nil
}

// seal returns nonce || ciphertext. ad binds the result to its record key,
// so a record copied under another key fails to open.
func (s *sealer) seal(plaintext, ad []byte) ([]byte, error) {
	n := s.aead.NonceSize()
	nonce := make([]byte, n, n+len(plaintext)+s.aead.Overhead())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("snapshot: nonce: %w", err)
	}
	return s.aead.Seal(nonce, nonce, plaintext, ad), nil
}

func (s *sealer) open(sealed, ad []byte) ([]byte, error) {
	n := s.aead.NonceSize()
	if len(sealed) < n+s.aead.Overhead() {
		return nil, ErrDecryptionFailed
	}
	out, err := s.aead.Open(nil, sealed[:n], sealed[n:], ad)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	return out, nil
}

// sealerFor returns the store's sealer, deriving it on first use. The salt
// is created once per store and kept beside the snapshots. A store without
// a passphrase has no sealer.
func (s *Store) sealerFor(ctx context.Context) (*sealer, error) {
	if len(s.passphrase) == 0 {
		return nil, nil
	}
	s.sealMu.Lock()
	defer s.sealMu.Unlock()
	if s.sealer != nil {
		return s.sealer, nil
	}

	salt, err := s.kv.Get(ctx, []byte(saltKey))
	if errors.Is(err, storage.ErrKeyNotFound) {
		salt = make([]byte, saltLength)
		if _, err := io.ReadFull(rand.Reader, salt); err != nil {
			return nil, fmt.Errorf("snapshot: salt: %w", err)
		}
		if err := s.kv.Set(ctx, []byte(saltKey), salt); err != nil {
			return nil, fmt.Errorf("snapshot: store salt: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("snapshot: read salt: %w", err)
	}

	sl, err := newSealer(s.passphrase, salt)
	if err != nil {
		return nil, err
	}
	s.sealer = sl
	return sl, nil
}

// plaintext returns the decrypted payload of a record stored under key.
func plaintext(sl *sealer, key []byte, hdr header, payload []byte) ([]byte, error) {
	switch hdr.Encryption {
	case "":
		return payload, nil
	case sealAlgorithm:
		if sl == nil {
			return nil, ErrEncrypted
		}
		return sl.open(payload, key)
	default:
		return nil, fmt.Errorf("snapshot: unsupported encryption %q", hdr.Encryption)
	}
}
