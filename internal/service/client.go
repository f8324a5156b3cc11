package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/example/alerttray/internal/ipc"
	"github.com/example/alerttray/internal/protocol"
)

// Call sends one request to the running instance and returns its reply.
func Call(ctx context.Context, endpoint ipc.Endpoint, token, command string) (protocol.Response, error) {
	conn, err := endpoint.DialContext(ctx)
	if err != nil {
		return protocol.Response{}, fmt.Errorf("dial %s: %w", endpoint.String(), err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	} else {
		_ = conn.SetDeadline(time.Now().Add(10 * time.Second))
	}

	if err := json.NewEncoder(conn).Encode(protocol.Request{Token: token, Command: command}); err != nil {
		return protocol.Response{}, fmt.Errorf("send request: %w", err)
	}

	var resp protocol.Response
	if err := json.NewDecoder(conn).Decode(&resp); err != nil {
		return protocol.Response{}, fmt.Errorf("decode response: %w", err)
	}
	if resp.Error != "" {
		return resp, errors.New(resp.Error)
	}
	return resp, nil
}

// Activate asks the running instance to present its window.
func Activate(ctx context.Context, endpoint ipc.Endpoint, token string) error {
	_, err := Call(ctx, endpoint, token, protocol.CommandActivate)
	return err
}

// PauseAutoHide stops focus loss from hiding the running instance's window
// until ResumeAutoHide.
func PauseAutoHide(ctx context.Context, endpoint ipc.Endpoint, token string) (protocol.Status, error) {
	return callForStatus(ctx, endpoint, token, protocol.CommandPause)
}

// ResumeAutoHide re-arms focus-loss hiding.
func ResumeAutoHide(ctx context.Context, endpoint ipc.Endpoint, token string) (protocol.Status, error) {
	return callForStatus(ctx, endpoint, token, protocol.CommandResume)
}

// QueryStatus fetches the running instance's state.
func QueryStatus(ctx context.Context, endpoint ipc.Endpoint, token string) (protocol.Status, error) {
	return callForStatus(ctx, endpoint, token, protocol.CommandStatus)
}

func callForStatus(ctx context.Context, endpoint ipc.Endpoint, token, command string) (protocol.Status, error) {
	resp, err := Call(ctx, endpoint, token, command)
	if err != nil {
		return protocol.Status{}, err
	}
	if resp.Status == nil {
		return protocol.Status{}, errors.New("empty status response")
	}
	return *resp.Status, nil
}
