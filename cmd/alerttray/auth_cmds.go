package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/alerttray/internal/auth"
	"github.com/example/alerttray/internal/service"
)

func newLoginCmd(env environment) *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to GitHub in the browser",
		Long: `Sign in to GitHub using the OAuth authorization-code flow.

The browser is opened at GitHub's authorization page and the redirect is
received on a loopback listener. The resulting token replaces any stored
one. If the browser cannot be opened, visit the printed URL manually.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			open := env.openURL
			settings := env.settings()
			if timeout > 0 {
				settings.Timeout = timeout
			}
			env.settings = func() auth.Settings { return settings }

			manager, _, err := env.manager(auth.WithBrowser(func(u string) error {
				fmt.Fprintf(out, "Opening your browser to sign in:\n  %s\n", u)
				return open(u)
			}))
			if err != nil {
				return err
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			if _, err := manager.Acquire(ctx); err != nil {
				return describeAuthError(err)
			}

			identity, err := manager.CurrentIdentity(ctx)
			if err != nil || identity == nil {
				fmt.Fprintln(out, "Signed in.")
				return nil
			}
			fmt.Fprintf(out, "Signed in as %s.\n", identity.Login)
			return nil
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", auth.DefaultAcquireTimeout, "how long to wait for the browser")
	return cmd
}

func newTokenCmd(env environment) *cobra.Command {
	return &cobra.Command{
		Use:   "token [TOKEN]",
		Short: "Store a personal access token",
		Long: `Store a GitHub personal access token instead of signing in through the
browser. The token is checked against GitHub once before it is stored.
Without an argument the token is read from standard input.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			token := ""
			if len(args) == 1 {
				token = args[0]
			} else {
				line, err := readLine(cmd.InOrStdin())
				if err != nil {
					return err
				}
				token = line
			}

			manager, _, err := env.manager()
			if err != nil {
				return err
			}
			if err := manager.SetSessionFromToken(cmd.Context(), token); err != nil {
				return describeAuthError(err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Token stored.")
			return nil
		},
	}
}

func newLogoutCmd(env environment) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored credential",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, _, err := env.manager()
			if err != nil {
				return err
			}
			if err := manager.Revoke(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
			return nil
		},
	}
}

func newStatusCmd(env environment) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the sign-in state and the running instance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			manager, _, err := env.manager()
			if err != nil {
				return err
			}

			session, ok, err := manager.Session()
			if err != nil {
				return err
			}
			identity, err := manager.CurrentIdentity(cmd.Context())
			if err != nil {
				return err
			}
			switch {
			case identity != nil:
				fmt.Fprintf(out, "Signed in as %s (since %s)\n", displayLogin(identity), session.ObtainedAt.Local().Format(time.RFC1123))
			case ok:
				fmt.Fprintln(out, "Not signed in (stored token was rejected and has been removed)")
			default:
				fmt.Fprintln(out, "Not signed in")
			}

			token, err := env.controlToken()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Second)
			defer cancel()
			status, err := service.QueryStatus(ctx, env.endpoint(), token)
			if err != nil {
				fmt.Fprintln(out, "Tray: not running")
				return nil
			}
			fmt.Fprintf(out, "Tray: running, window %s", status.Window)
			if status.Acquiring {
				fmt.Fprint(out, ", waiting for browser sign-in")
			}
			fmt.Fprintln(out)
			return nil
		},
	}
}

func newAuthURLCmd(env environment) *cobra.Command {
	return &cobra.Command{
		Use:   "auth-url",
		Short: "Print the GitHub authorization URL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), auth.NewManager(env.settings(), nil).AuthorizationURL())
			return nil
		},
	}
}

func displayLogin(identity *auth.Identity) string {
	if identity.Login == "" {
		return "unknown user"
	}
	return identity.Login
}

func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read token: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// describeAuthError turns an AuthError into the message shown to the user
// while keeping it matchable with errors.As.
func describeAuthError(err error) error {
	var authErr *auth.AuthError
	if !errors.As(err, &authErr) {
		return err
	}

	var hint string
	switch authErr.Kind {
	case auth.KindPortUnavailable:
		hint = "the sign-in callback port is in use; is another sign-in running?"
	case auth.KindAcquisitionInProgress:
		hint = "a sign-in is already in progress"
	case auth.KindDenied:
		hint = "GitHub reported that access was denied"
	case auth.KindTimedOut:
		hint = "timed out waiting for the browser"
	case auth.KindCancelled:
		hint = "sign-in was cancelled"
	case auth.KindExchange:
		var exErr *auth.ExchangeError
		if errors.As(err, &exErr) && exErr.Kind == auth.ExchangeNetwork {
			hint = "could not reach GitHub"
		} else {
			hint = "GitHub rejected the sign-in"
		}
	case auth.KindInvalidToken:
		hint = "GitHub did not accept the token"
	default:
		return err
	}
	return fmt.Errorf("%s: %w", hint, err)
}
