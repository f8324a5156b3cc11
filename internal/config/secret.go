package config

// CompiledSecret holds the configuration passphrase embedded at build time via
// -ldflags "-X github.com/example/alerttray/internal/config.CompiledSecret=...".
// When empty, ALERTTRAY_SECRET is read from the environment instead.
var CompiledSecret string
