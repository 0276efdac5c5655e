package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"os/user"
	"strings"

	"golang.org/x/crypto/scrypt"
)

const (
	// envelopePrefix marks a stored value as encrypted. Values without it
	// are treated as plaintext and passed through Decrypt unchanged.
	envelopePrefix = "enc:"

	keySalt   = "bybit-cli-v1"
	keyLength = 32
	ivLength  = 16
	tagLength = 16

	scryptN = 16384
	scryptR = 8
	scryptP = 1
)

var (
	ErrDecryptionFailed = errors.New("decryption failed: authentication error")
	ErrInvalidEnvelope  = errors.New("invalid encrypted envelope")
)

// Cipher encrypts and decrypts secret strings with AES-256-GCM.
// The key is derived once at construction; deriving it is deliberately
// expensive, so callers should create one Cipher per process and reuse it.
type Cipher struct {
	aead cipher.AEAD
}

// NewCipher derives an encryption key and returns a ready-to-use Cipher.
// When passphrase is empty, the key is derived from the machine identity
// (hostname + OS username), which binds the vault to the current user/host.
func NewCipher(passphrase string) (*Cipher, error) {
	if passphrase == "" {
		identity, err := machineIdentity()
		if err != nil {
			return nil, err
		}
		passphrase = identity
	}

	key, err := scrypt.Key([]byte(passphrase), []byte(keySalt), scryptN, scryptR, scryptP, keyLength)
	if err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	aead, err := cipher.NewGCMWithNonceSize(block, ivLength)
	if err != nil {
		return nil, err
	}

	return &Cipher{aead: aead}, nil
}

// Encrypt seals plaintext into a self-describing envelope:
// "enc:" + base64(iv + authTag + ciphertext). A fresh random IV is used on
// every call, so encrypting the same plaintext twice yields different output.
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	iv := make([]byte, ivLength)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return "", err
	}

	sealed := c.aead.Seal(nil, iv, []byte(plaintext), nil)

	// Seal appends the auth tag after the ciphertext; the envelope layout
	// puts the tag between the IV and the ciphertext.
	ciphertext := sealed[:len(sealed)-tagLength]
	tag := sealed[len(sealed)-tagLength:]

	payload := make([]byte, 0, ivLength+tagLength+len(ciphertext))
	payload = append(payload, iv...)
	payload = append(payload, tag...)
	payload = append(payload, ciphertext...)

	return envelopePrefix + base64.StdEncoding.EncodeToString(payload), nil
}

// Decrypt opens an envelope produced by Encrypt. Values without the envelope
// prefix are returned unchanged, which lets never-encrypted legacy data be
// read transparently and upgraded lazily.
func (c *Cipher) Decrypt(value string) (string, error) {
	if !IsEncrypted(value) {
		return value, nil
	}

	payload, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(value, envelopePrefix))
	if err != nil {
		return "", ErrInvalidEnvelope
	}

	if len(payload) < ivLength+tagLength {
		return "", ErrInvalidEnvelope
	}

	iv := payload[:ivLength]
	tag := payload[ivLength : ivLength+tagLength]
	ciphertext := payload[ivLength+tagLength:]

	sealed := make([]byte, 0, len(ciphertext)+tagLength)
	sealed = append(sealed, ciphertext...)
	sealed = append(sealed, tag...)

	plaintext, err := c.aead.Open(nil, iv, sealed, nil)
	if err != nil {
		return "", ErrDecryptionFailed
	}

	return string(plaintext), nil
}

// IsEncrypted reports whether value carries the envelope prefix.
func IsEncrypted(value string) bool {
	return strings.HasPrefix(value, envelopePrefix)
}

func machineIdentity() (string, error) {
	host, err := os.Hostname()
	if err != nil {
		return "", fmt.Errorf("failed to read hostname: %w", err)
	}

	current, err := user.Current()
	if err != nil {
		return "", fmt.Errorf("failed to read current user: %w", err)
	}

	return fmt.Sprintf("%s:%s", host, current.Username), nil
}
