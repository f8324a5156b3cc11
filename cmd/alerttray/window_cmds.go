package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/alerttray/internal/ipc"
	"github.com/example/alerttray/internal/protocol"
	"github.com/example/alerttray/internal/service"
)

// newWindowCmd drives the running instance's window. pause and resume are
// meant for popups opened from inside the window.
func newWindowCmd(env environment) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "window",
		Short: "Control the running instance's window",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Bring the window to the front",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withControl(cmd.Context(), env, func(ctx context.Context, token string) error {
					return service.Activate(ctx, env.endpoint(), token)
				})
			},
		},
		newAutoHideCmd(env, "pause", "Keep the window open when it loses focus", service.PauseAutoHide),
		newAutoHideCmd(env, "resume", "Hide the window on focus loss again", service.ResumeAutoHide),
	)
	return cmd
}

type statusCall func(context.Context, ipc.Endpoint, string) (protocol.Status, error)

func newAutoHideCmd(env environment, use, short string, call statusCall) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withControl(cmd.Context(), env, func(ctx context.Context, token string) error {
				status, err := call(ctx, env.endpoint(), token)
				if err != nil {
					return err
				}
				state := "armed"
				if status.Paused {
					state = "paused"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Window %s, auto-hide %s.\n", status.Window, state)
				return nil
			})
		},
	}
}

func withControl(ctx context.Context, env environment, fn func(context.Context, string) error) error {
	token, err := env.controlToken()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := fn(ctx, token); err != nil {
		return fmt.Errorf("alerttray is not running or did not answer: %w", err)
	}
	return nil
}
