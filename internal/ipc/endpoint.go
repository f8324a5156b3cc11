package ipc

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultControlAddr = "127.0.0.1:47864"
	controlAddrEnv     = "ALERTTRAY_CONTROL_ADDR"
)

// ErrNotLoopback is returned for control addresses reachable from other hosts.
var ErrNotLoopback = errors.New("control endpoint must be a loopback address")

// Endpoint is where the running tray instance accepts control requests from
// later launches and the CLI. It is always a loopback TCP address.
type Endpoint struct {
	Network string
	Address string
}

// DefaultEndpoint returns the control endpoint, honouring
// ALERTTRAY_CONTROL_ADDR. An override that fails ParseEndpoint is logged and
// ignored.
func DefaultEndpoint() Endpoint {
	if addr := strings.TrimSpace(os.Getenv(controlAddrEnv)); addr != "" {
		e, err := ParseEndpoint(addr)
		if err == nil {
			return e
		}
		log.Printf("ignoring %s: %v", controlAddrEnv, err)
	}
	return Endpoint{Network: "tcp", Address: defaultControlAddr}
}

// ParseEndpoint accepts host:port where host is localhost or a loopback IP.
// Port 0 is allowed so tests can bind an ephemeral port.
func ParseEndpoint(addr string) (Endpoint, error) {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return Endpoint{}, fmt.Errorf("parse control address %q: %w", addr, err)
	}
	if n, err := strconv.Atoi(port); err != nil || n < 0 || n > 65535 {
		return Endpoint{}, fmt.Errorf("control address %q: invalid port", addr)
	}
	if !isLoopbackHost(host) {
		return Endpoint{}, fmt.Errorf("%w: %q", ErrNotLoopback, addr)
	}
	return Endpoint{Network: "tcp", Address: addr}, nil
}

func isLoopbackHost(host string) bool {
	if strings.EqualFold(host, "localhost") {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func (e Endpoint) validate() error {
	if e.Network != "tcp" && e.Network != "tcp4" && e.Network != "tcp6" {
		return fmt.Errorf("control endpoint network %q is not tcp", e.Network)
	}
	_, err := ParseEndpoint(e.Address)
	return err
}

// Listen binds the endpoint. Non-loopback addresses are refused.
func (e Endpoint) Listen() (net.Listener, error) {
	if err := e.validate(); err != nil {
		return nil, err
	}
	return net.Listen(e.Network, e.Address)
}

// DialContext connects to the running instance.
func (e Endpoint) DialContext(ctx context.Context) (net.Conn, error) {
	if err := e.validate(); err != nil {
		return nil, err
	}
	d := &net.Dialer{Timeout: 5 * time.Second}
	return d.DialContext(ctx, e.Network, e.Address)
}

func (e Endpoint) String() string {
	return fmt.Sprintf("%s://%s", e.Network, e.Address)
}
