package session

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"os"

	"golang.org/x/crypto/argon2"
)

// Tokens are sealed at rest with AES-GCM under an argon2-derived key. When
// no explicit secret is configured the key is derived from the hostname, so
// this keeps tokens out of casual inspection and copied state files, not
// out of the hands of someone with full control of the machine.

const saltSize = 16

type sealer struct {
	aead cipher.AEAD
}

func newSealer(secret string, salt []byte) (*sealer, error) {
	if secret == "" {
		host, err := os.Hostname()
		if err != nil {
			host = "docdeck"
		}
		secret = "docdeck:" + host
	}
	key := argon2.IDKey([]byte(secret), salt, 1, 64*1024, 4, 32)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &sealer{aead: aead}, nil
}

func (s *sealer) seal(plaintext []byte) (ciphertext, nonce []byte, err error) {
	nonce = make([]byte, s.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, nil, err
	}
	return s.aead.Seal(nil, nonce, plaintext, nil), nonce, nil
}

func (s *sealer) open(ciphertext, nonce []byte) ([]byte, error) {
	return s.aead.Open(nil, nonce, ciphertext, nil)
}

func randomSalt() ([]byte, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}
	return salt, nil
}
