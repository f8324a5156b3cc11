package main

import (
	"github.com/spf13/cobra"

	"github.com/example/alerttray/internal/logging"
)

var version = "dev"

func newRootCmd(env environment) *cobra.Command {
	var debug bool

	root := &cobra.Command{
		Use:   "alerttray",
		Short: "GitHub security alerts in the system tray",
		Long: `alerttray keeps a status icon in the system tray and an alerts window
anchored next to it. Run without arguments to start the tray; a second
launch brings the running instance's window to the front.

The sign-in commands manage the single stored GitHub credential.`,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if debug {
				logging.EnableDebug()
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTray(cmd.Context(), env)
		},
	}
	root.SetVersionTemplate(`{{printf "alerttray version %s\n" .Version}}`)
	root.PersistentFlags().BoolVar(&debug, "debug", false, "enable verbose debug logging")

	root.AddCommand(
		newLoginCmd(env),
		newTokenCmd(env),
		newLogoutCmd(env),
		newStatusCmd(env),
		newAuthURLCmd(env),
		newWindowCmd(env),
	)
	return root
}
