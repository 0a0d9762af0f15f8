package jwtx

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"sync"
)

var ErrDuplicateKID = errors.New("jwtx: duplicate kid")

// KeySet holds the public half of every signer the service trusts. It backs
// both token verification and the published JWKS document.
type KeySet struct {
	mu   sync.RWMutex
	pub  map[string]ed25519.PublicKey
	jwks []JWK
}

func NewKeySet() *KeySet {
	return &KeySet{pub: make(map[string]ed25519.PublicKey)}
}

// AddSigner publishes the signer's public key under its kid.
func (k *KeySet) AddSigner(s Signer) error {
	jwk := s.PublicJWK()
	pub, err := jwk.PublicKey()
	if err != nil {
		return err
	}

	k.mu.Lock()
	defer k.mu.Unlock()
	if _, dup := k.pub[jwk.Kid]; dup {
		return fmt.Errorf("%w %q", ErrDuplicateKID, jwk.Kid)
	}
	k.pub[jwk.Kid] = pub
	k.jwks = append(k.jwks, jwk)
	return nil
}

func (k *KeySet) lookup(kid string) (ed25519.PublicKey, bool) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	pk, ok := k.pub[kid]
	return pk, ok
}

// PublicJWKS returns a copy safe to serialise without holding the lock.
func (k *KeySet) PublicJWKS() JWKS {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return JWKS{Keys: append([]JWK(nil), k.jwks...)}
}

// IsReady reports whether at least one key is loaded. Readiness depends on it.
func (k *KeySet) IsReady() bool {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return len(k.pub) > 0
}
