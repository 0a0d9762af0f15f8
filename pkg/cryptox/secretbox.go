package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
)

// MasterKeyEnv is consulted when no master key path is configured.
const MasterKeyEnv = "TWOFA_MASTER_KEY"

var ErrSealedSecret = errors.New("cryptox: cannot open sealed secret")

var (
	masterKeyMu   sync.Mutex
	masterKey     []byte
	masterKeyPath string
)

// SetMasterKeyPath configures where to load the master encryption key from
// and drops any cached key. If not set, the key is taken from MasterKeyEnv.
func SetMasterKeyPath(path string) {
	masterKeyMu.Lock()
	defer masterKeyMu.Unlock()
	masterKeyPath = path
	masterKey = nil
}

// loadMasterKey derives a 32-byte AES-256 key from either:
// 1. File specified by masterKeyPath (if set)
// 2. MasterKeyEnv environment variable
// 3. A random key for development; sealed data won't survive a restart
func loadMasterKey() ([]byte, error) {
	var keyMaterial []byte

	switch {
	case masterKeyPath != "":
		data, err := os.ReadFile(masterKeyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read master key file: %w", err)
		}
		keyMaterial = data
	case os.Getenv(MasterKeyEnv) != "":
		keyMaterial = []byte(os.Getenv(MasterKeyEnv))
	default:
		ephemeral, err := randomString(entropy256)
		if err != nil {
			return nil, fmt.Errorf("failed to generate ephemeral master key: %w", err)
		}
		keyMaterial = []byte(ephemeral)
	}

	hash := sha256.Sum256(keyMaterial)
	return hash[:], nil
}

func getMasterKey() ([]byte, error) {
	masterKeyMu.Lock()
	defer masterKeyMu.Unlock()

	if masterKey != nil {
		return masterKey, nil
	}
	key, err := loadMasterKey()
	if err != nil {
		return nil, err
	}
	masterKey = key
	return masterKey, nil
}

func newGCM() (cipher.AEAD, error) {
	key, err := getMasterKey()
	if err != nil {
		return nil, fmt.Errorf("failed to get master key: %w", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	return cipher.NewGCM(block)
}

// SealSecret encrypts plaintext with AES-256-GCM under the master key and
// binds it to scope (used as additional data), so a value sealed for one
// user cannot be moved onto another. The result is base64 of
// [12-byte nonce][ciphertext][16-byte tag].
func SealSecret(plaintext, scope string) (string, error) {
	gcm, err := newGCM()
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := gcm.Seal(nonce, nonce, []byte(plaintext), []byte(scope))
	return base64.RawStdEncoding.EncodeToString(sealed), nil
}

// OpenSecret reverses SealSecret. A wrong key, wrong scope or tampered value
// yields ErrSealedSecret.
func OpenSecret(sealed, scope string) (string, error) {
	gcm, err := newGCM()
	if err != nil {
		return "", err
	}

	data, err := base64.RawStdEncoding.DecodeString(sealed)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrSealedSecret, err)
	}

	nonceSize := gcm.NonceSize()
	if len(data) < nonceSize+gcm.Overhead() {
		return "", fmt.Errorf("%w: ciphertext too short", ErrSealedSecret)
	}

	nonce, ciphertext := data[:nonceSize], data[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, []byte(scope))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrSealedSecret, err)
	}

	return string(plaintext), nil
}
