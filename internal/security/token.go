package security

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"strings"

	"github.com/example/alerttray/internal/config"
)

const controlTokenPrefix = "alerttray-control|"

// ResolveControlToken returns the token guarding the control endpoint,
// deriving a stable value from the config secret when no explicit token is
// provided.
func ResolveControlToken(secret string) string {
	if compiled := strings.TrimSpace(config.CompiledSecret); compiled != "" {
		return DeriveControlToken(compiled)
	}

	token := strings.TrimSpace(os.Getenv("ALERTTRAY_CONTROL_TOKEN"))
	if token != "" {
		return token
	}

	return DeriveControlToken(secret)
}

// DeriveControlToken hashes the provided secret into a deterministic token.
func DeriveControlToken(secret string) string {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(controlTokenPrefix + secret))
	return hex.EncodeToString(sum[:])
}
