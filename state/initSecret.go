package state

import (
	"fmt"
	"os"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
)

const minRSAKeyBits = 2048

// InitSecret loads the RSA public key used to verify bearer tokens. Tokens
// are issued elsewhere, so this service never holds a private key.
func InitSecret(publicKeyPath string) (*JwtSecret, error) {
	pemBytes, err := os.ReadFile(publicKeyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read public key %s: %w", publicKeyPath, err)
	}

	pubKey, err := jwt.ParseRSAPublicKeyFromPEM(pemBytes)
	if err != nil {
		return nil, fmt.Errorf("invalid public key: %w", err)
	}
	if bits := pubKey.N.BitLen(); bits < minRSAKeyBits {
		return nil, fmt.Errorf("invalid public key: %d-bit modulus, need at least %d", bits, minRSAKeyBits)
	}

	log.Info().Str("path", publicKeyPath).Int("bits", pubKey.N.BitLen()).Msg("JWT verification key loaded")
	return &JwtSecret{Public: pubKey}, nil
}
