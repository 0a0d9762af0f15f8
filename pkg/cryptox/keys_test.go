package cryptox_test

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"

	"github.com/aussiebroadwan/twofa/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParseEd25519Key(t *testing.T) {
	pemKey, err := cryptox.GenerateEd25519Key()
	require.NoError(t, err)

	key, err := cryptox.ParseEd25519Key(pemKey)
	require.NoError(t, err)
	require.Len(t, key, 64)

	other, err := cryptox.GenerateEd25519Key()
	require.NoError(t, err)
	require.NotEqual(t, pemKey, other)
}

func TestParseEd25519KeyRejects(t *testing.T) {
	ec, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	der, err := x509.MarshalPKCS8PrivateKey(ec)
	require.NoError(t, err)

	tests := map[string][]byte{
		"garbage":     []byte("not-a-pem-key"),
		"wrong block": pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: der}),
		"bad der":     pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: []byte{1, 2, 3}}),
		"ecdsa key":   pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}),
	}
	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := cryptox.ParseEd25519Key(in)
			require.ErrorIs(t, err, cryptox.ErrInvalidKey)
		})
	}
}

func TestLoadEd25519Key(t *testing.T) {
	dir := t.TempDir()
	pemKey, err := cryptox.GenerateEd25519Key()
	require.NoError(t, err)

	good := filepath.Join(dir, "signing.pem")
	require.NoError(t, os.WriteFile(good, pemKey, 0o600))
	got, err := cryptox.LoadEd25519Key(good)
	require.NoError(t, err)
	require.Equal(t, pemKey, got)

	bad := filepath.Join(dir, "bad.pem")
	require.NoError(t, os.WriteFile(bad, []byte("nope"), 0o600))
	_, err = cryptox.LoadEd25519Key(bad)
	require.ErrorIs(t, err, cryptox.ErrInvalidKey)

	_, err = cryptox.LoadEd25519Key(filepath.Join(dir, "missing.pem"))
	require.ErrorIs(t, err, os.ErrNotExist)
}
