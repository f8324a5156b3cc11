package service

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"time"

	"github.com/example/alerttray/internal/ipc"
	"github.com/example/alerttray/internal/protocol"
)

// Handler is the running instance's side of the control protocol.
type Handler interface {
	Activate()
	PauseAutoHide()
	ResumeAutoHide()
	Status() protocol.Status
}

// Server accepts control requests from later launches of the binary. Only
// one Server can hold the endpoint, which makes it the single-instance lock.
type Server struct {
	token    string
	endpoint ipc.Endpoint
	handler  Handler
	listener net.Listener
}

// ErrAlreadyRunning is returned by Listen when another instance owns the
// control endpoint.
var ErrAlreadyRunning = errors.New("another instance is already running")

// Listen binds the control endpoint.
func Listen(endpoint ipc.Endpoint, token string, handler Handler) (*Server, error) {
	if token == "" {
		return nil, fmt.Errorf("control token could not be resolved; set ALERTTRAY_CONTROL_TOKEN or ALERTTRAY_SECRET")
	}
	listener, err := endpoint.Listen()
	if errors.Is(err, ipc.ErrNotLoopback) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("%w: listen on %s: %v", ErrAlreadyRunning, endpoint.String(), err)
	}
	return &Server{
		token:    token,
		endpoint: endpoint,
		handler:  handler,
		listener: listener,
	}, nil
}

// Endpoint exposes the listening endpoint for logging and diagnostics.
func (s *Server) Endpoint() string {
	return s.listener.Addr().String()
}

// Run serves requests until the context is canceled.
func (s *Server) Run(ctx context.Context) error {
	defer s.listener.Close()

	log.Printf("control endpoint listening on %s", s.Endpoint())

	go func() {
		<-ctx.Done()
		_ = s.listener.Close()
	}()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return context.Canceled
			default:
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				log.Printf("temporary accept error: %v", err)
				time.Sleep(250 * time.Millisecond)
				continue
			}
			return fmt.Errorf("accept connection: %w", err)
		}

		go s.handleConnection(ctx, conn)
	}
}

func (s *Server) handleConnection(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	} else {
		_ = conn.SetDeadline(time.Now().Add(30 * time.Second))
	}

	decoder := json.NewDecoder(conn)
	encoder := json.NewEncoder(conn)

	var req protocol.Request
	if err := decoder.Decode(&req); err != nil {
		log.Printf("control: failed to decode request: %v", err)
		return
	}

	if !s.authorize(req.Token) {
		_ = encoder.Encode(protocol.Response{Error: "unauthorized"})
		return
	}

	switch req.Command {
	case protocol.CommandActivate:
		s.handler.Activate()
		_ = encoder.Encode(protocol.Response{})
	case protocol.CommandPause:
		s.handler.PauseAutoHide()
		status := s.handler.Status()
		_ = encoder.Encode(protocol.Response{Status: &status})
	case protocol.CommandResume:
		s.handler.ResumeAutoHide()
		status := s.handler.Status()
		_ = encoder.Encode(protocol.Response{Status: &status})
	case protocol.CommandStatus:
		status := s.handler.Status()
		_ = encoder.Encode(protocol.Response{Status: &status})
	default:
		_ = encoder.Encode(protocol.Response{Error: fmt.Sprintf("unknown command: %s", req.Command)})
	}
}

func (s *Server) authorize(token string) bool {
	if token == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(s.token)) == 1
}
