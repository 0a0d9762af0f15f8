package app

import (
	"log/slog"

	"github.com/aussiebroadwan/twofa/pkg/cryptox"
	"github.com/aussiebroadwan/twofa/pkg/jwtx"
)

// InitSigningKey loads the Ed25519 signing key, or generates one when no file
// is configured. Tokens signed with a generated key do not survive a restart.
// The kid is the key's thumbprint either way, so a file-backed key keeps its
// kid across restarts.
func InitSigningKey(cfg Config, logger *slog.Logger) (*jwtx.EdDSASigner, *jwtx.KeySet, error) {
	var pemKey []byte
	var err error

	if cfg.SigningKeyFile != "" {
		pemKey, err = cryptox.LoadEd25519Key(cfg.SigningKeyFile)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("signing key loaded", "path", cfg.SigningKeyFile)
	} else {
		pemKey, err = cryptox.GenerateEd25519Key()
		if err != nil {
			return nil, nil, err
		}
		logger.Warn("generated ephemeral signing key, tokens will not survive a restart")
	}

	signer, err := jwtx.NewSignerEdDSA("", pemKey)
	if err != nil {
		return nil, nil, err
	}

	keys := jwtx.NewKeySet()
	if err := keys.AddSigner(signer); err != nil {
		return nil, nil, err
	}

	logger.Info("signing key ready", "alg", signer.Alg(), "kid", signer.KID())
	return signer, keys, nil
}
