// Package cli defines the cobra command tree of the orangesites client.
// This file holds the root command, which resumes the session and opens the
// capture wizard.
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/abdallahh166/Orangesites-sub000/internal/apperr"
)

var (
	envFile   string
	noPersist bool
	version   = "dev" // set via ldflags at build time
)

var rootCmd = &cobra.Command{
	Use:   "orangesites",
	Short: "Field inspection capture for telecom sites",
	Long: `orangesites records site inspections from the terminal.
Pick a site, select the components you inspect, attach before and after
photos, and submit the visit. Drafts are saved as you go and resume where
you left off.`,
	Version:       version,
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE:          runRoot,
}

// Execute runs the root command. Called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", apperr.Message(err))
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Read settings from this .env file")
	rootCmd.PersistentFlags().BoolVar(&noPersist, "no-persist", false, "Keep tokens in memory only for this run")

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(passwordCmd)
	rootCmd.AddCommand(captureCmd)
	rootCmd.AddCommand(draftCmd)
	rootCmd.AddCommand(versionCmd)
}

// runRoot resumes a stored session. Without one it greets and points at
// login; otherwise it opens the wizard.
func runRoot(cmd *cobra.Command, _ []string) error {
	env, err := setup(cmd.Context())
	if err != nil {
		return err
	}
	defer env.Close()

	user, err := env.session.Init(cmd.Context())
	if err != nil && !errors.Is(err, apperr.ErrSessionExpired) {
		return err
	}
	if user == nil {
		printGreeting(cmd.OutOrStdout(), err != nil)
		return nil
	}
	if !isTerminal(cmd.OutOrStdout()) {
		return cmd.Help()
	}
	return runWizard(cmd, env, user)
}
