package config

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/crypto/scrypt"
)

const (
	configDirName  = "alerttray"
	configFileName = "config.enc"
	saltSize       = 16
	nonceSize      = 12

	// DefaultRefreshIntervalMinutes is the alert polling cadence used when the
	// stored configuration does not specify one.
	DefaultRefreshIntervalMinutes = 60
)

// fileMagic prefixes every encrypted config so a foreign or truncated file
// is rejected before key derivation.
var fileMagic = []byte("ATR1")

// Config represents the persisted configuration file.
type Config struct {
	AccessToken            string   `json:"accessToken,omitempty"`
	TokenObtainedUTC       string   `json:"tokenObtainedUtc,omitempty"`
	SelectedRepos          []string `json:"selectedRepos"`
	RefreshIntervalMinutes int      `json:"refreshIntervalMinutes"`
}

// HasCredential reports whether an access token is stored.
func (c *Config) HasCredential() bool {
	return c != nil && strings.TrimSpace(c.AccessToken) != ""
}

// TokenObtainedAt parses the stored acquisition timestamp. A zero time is
// returned when none is recorded.
func (c *Config) TokenObtainedAt() time.Time {
	if c == nil || c.TokenObtainedUTC == "" {
		return time.Time{}
	}
	ts, err := time.Parse(time.RFC3339, c.TokenObtainedUTC)
	if err != nil {
		return time.Time{}
	}
	return ts
}

// SetCredential replaces the stored credential.
func (c *Config) SetCredential(token string, obtained time.Time) {
	c.AccessToken = token
	c.TokenObtainedUTC = obtained.UTC().Format(time.RFC3339)
}

// ClearCredential drops the stored credential. Preferences are kept.
func (c *Config) ClearCredential() {
	c.AccessToken = ""
	c.TokenObtainedUTC = ""
}

// ClearSignedInState drops the credential together with the preferences
// that only make sense while signed in.
func (c *Config) ClearSignedInState() {
	c.ClearCredential()
	c.SelectedRepos = []string{}
}

func (c *Config) applyDefaults() {
	if c.RefreshIntervalMinutes <= 0 {
		c.RefreshIntervalMinutes = DefaultRefreshIntervalMinutes
	}
	if c.SelectedRepos == nil {
		c.SelectedRepos = []string{}
	}
}

// Path returns the resolved configuration file path.
func Path() (string, error) {
	if custom := os.Getenv("ALERTTRAY_CONFIG_PATH"); custom != "" {
		if err := os.MkdirAll(filepath.Dir(custom), 0o700); err != nil {
			return "", fmt.Errorf("ensure custom config directory: %w", err)
		}
		return custom, nil
	}

	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("determine user config dir: %w", err)
	}

	dir := filepath.Join(base, configDirName)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("ensure config directory: %w", err)
	}

	return filepath.Join(dir, configFileName), nil
}

// ResolveSecret returns the passphrase protecting the configuration file,
// preferring the value compiled into the binary.
func ResolveSecret() (string, error) {
	if compiled := strings.TrimSpace(CompiledSecret); compiled != "" {
		return compiled, nil
	}
	if secret := strings.TrimSpace(os.Getenv("ALERTTRAY_SECRET")); secret != "" {
		return secret, nil
	}
	return "", errors.New("ALERTTRAY_SECRET environment variable is required")
}

func loadFile(path, passphrase string) (*Config, error) {
	if passphrase == "" {
		return nil, errors.New("missing passphrase for configuration decryption")
	}

	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		cfg := &Config{}
		cfg.applyDefaults()
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	data, err := decrypt(raw, passphrase)
	if err != nil {
		return nil, fmt.Errorf("decrypt config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.applyDefaults()

	return &cfg, nil
}

func saveFile(path string, cfg *Config, passphrase string) error {
	if passphrase == "" {
		return errors.New("missing passphrase for configuration encryption")
	}
	if cfg == nil {
		return errors.New("nil configuration")
	}

	raw, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	data, err := encrypt(raw, passphrase)
	if err != nil {
		return fmt.Errorf("encrypt config: %w", err)
	}

	tempFile := path + ".tmp"
	if err := os.WriteFile(tempFile, data, 0o600); err != nil {
		return fmt.Errorf("write encrypted config: %w", err)
	}

	if err := os.Rename(tempFile, path); err != nil {
		_ = os.Remove(tempFile)
		return fmt.Errorf("replace config: %w", err)
	}
	return nil
}

func encrypt(plaintext []byte, passphrase string) ([]byte, error) {
	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}

	gcm, err := newGCM(passphrase, salt)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, nonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}

	// The header is authenticated as additional data so it cannot be swapped.
	sealed := gcm.Seal(nil, nonce, plaintext, fileMagic)

	out := make([]byte, 0, len(fileMagic)+saltSize+nonceSize+len(sealed))
	out = append(out, fileMagic...)
	out = append(out, salt...)
	out = append(out, nonce...)
	out = append(out, sealed...)
	return out, nil
}

func decrypt(ciphertext []byte, passphrase string) ([]byte, error) {
	if !bytes.HasPrefix(ciphertext, fileMagic) {
		return nil, errors.New("unrecognised config format")
	}
	body := ciphertext[len(fileMagic):]
	if len(body) < saltSize+nonceSize {
		return nil, errors.New("ciphertext too short")
	}

	salt := body[:saltSize]
	nonce := body[saltSize : saltSize+nonceSize]
	payload := body[saltSize+nonceSize:]

	gcm, err := newGCM(passphrase, salt)
	if err != nil {
		return nil, err
	}

	return gcm.Open(nil, nonce, payload, fileMagic)
}

func newGCM(passphrase string, salt []byte) (cipher.AEAD, error) {
	key, err := deriveKey(passphrase, salt)
	if err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create gcm: %w", err)
	}
	return gcm, nil
}

func deriveKey(passphrase string, salt []byte) ([]byte, error) {
	const (
		keyLength = 32
		n         = 1 << 15
		r         = 8
		p         = 1
	)

	key, err := scrypt.Key([]byte(passphrase), salt, n, r, p, keyLength)
	if err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}
	return key, nil
}
