// Package crypto encrypts payment account details at rest.
//
// Values are sealed with AES-256-GCM under a per-tenant key derived from the
// master key with HKDF-SHA256, and stored as base64(iv):base64(tag):base64(ciphertext).
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/loyalty/backend/internal/domain/reward"
	"golang.org/x/crypto/hkdf"
)

const (
	keySize   = 32
	nonceSize = 12
	tagSize   = 16

	// hkdfSalt separates payment keys from any other key derived from the same master
	hkdfSalt = "loyalty-payment-account"
)

var (
	ErrInvalidMasterKey = errors.New("crypto: master key must be 32 bytes")
	ErrMalformed        = errors.New("crypto: value is not in iv:tag:ciphertext format")
	ErrDecrypt          = errors.New("crypto: unable to decrypt value")
)

// PaymentCipher implements reward.PaymentCipher
type PaymentCipher struct {
	master []byte

	mu    sync.RWMutex
	aeads map[uuid.UUID]cipher.AEAD
}

// NewPaymentCipher creates a cipher from a 32-byte master key
func NewPaymentCipher(masterKey []byte) (*PaymentCipher, error) {
	if len(masterKey) != keySize {
		return nil, ErrInvalidMasterKey
	}
	key := make([]byte, keySize)
	copy(key, masterKey)
	return &PaymentCipher{
		master: key,
		aeads:  make(map[uuid.UUID]cipher.AEAD),
	}, nil
}

// Encrypt seals plaintext under the tenant's key with a fresh random IV
func (c *PaymentCipher) Encrypt(tenantID uuid.UUID, plaintext string) (string, error) {
	aead, err := c.tenantAEAD(tenantID)
	if err != nil {
		return "", err
	}

	iv := make([]byte, nonceSize)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return "", fmt.Errorf("crypto: generate iv: %w", err)
	}

	sealed := aead.Seal(nil, iv, []byte(plaintext), nil)
	ct, tag := sealed[:len(sealed)-tagSize], sealed[len(sealed)-tagSize:]

	enc := base64.StdEncoding
	return enc.EncodeToString(iv) + ":" + enc.EncodeToString(tag) + ":" + enc.EncodeToString(ct), nil
}

// Decrypt opens a value produced by Encrypt for the same tenant
func (c *PaymentCipher) Decrypt(tenantID uuid.UUID, value string) (string, error) {
	iv, tag, ct, err := split(value)
	if err != nil {
		return "", err
	}

	aead, err := c.tenantAEAD(tenantID)
	if err != nil {
		return "", err
	}

	sealed := make([]byte, 0, len(ct)+len(tag))
	sealed = append(sealed, ct...)
	sealed = append(sealed, tag...)
	plain, err := aead.Open(nil, iv, sealed, nil)
	if err != nil {
		return "", ErrDecrypt
	}
	return string(plain), nil
}

// IsEncrypted reports whether value looks like Encrypt output
func IsEncrypted(value string) bool {
	_, _, _, err := split(value)
	return err == nil
}

func split(value string) (iv, tag, ct []byte, err error) {
	parts := strings.Split(value, ":")
	if len(parts) != 3 {
		return nil, nil, nil, ErrMalformed
	}
	enc := base64.StdEncoding
	if iv, err = enc.DecodeString(parts[0]); err != nil || len(iv) != nonceSize {
		return nil, nil, nil, ErrMalformed
	}
	if tag, err = enc.DecodeString(parts[1]); err != nil || len(tag) != tagSize {
		return nil, nil, nil, ErrMalformed
	}
	if ct, err = enc.DecodeString(parts[2]); err != nil {
		return nil, nil, nil, ErrMalformed
	}
	return iv, tag, ct, nil
}

func (c *PaymentCipher) tenantAEAD(tenantID uuid.UUID) (cipher.AEAD, error) {
	if tenantID == uuid.Nil {
		return nil, errors.New("crypto: tenant id is required")
	}

	c.mu.RLock()
	aead, ok := c.aeads[tenantID]
	c.mu.RUnlock()
	if ok {
		return aead, nil
	}

	key := make([]byte, keySize)
	reader := hkdf.New(sha256.New, c.master, []byte(hkdfSalt), []byte(tenantID.String()))
	if _, err := io.ReadFull(reader, key); err != nil {
		return nil, fmt.Errorf("crypto: derive tenant key: %w", err)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("crypto: create AES cipher: %w", err)
	}
	aead, err = cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("crypto: create GCM: %w", err)
	}

	c.mu.Lock()
	c.aeads[tenantID] = aead
	c.mu.Unlock()
	return aead, nil
}

// Ensure PaymentCipher implements reward.PaymentCipher
var _ reward.PaymentCipher = (*PaymentCipher)(nil)
