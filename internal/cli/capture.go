package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abdallahh166/Orangesites-sub000/internal/apperr"
	"github.com/abdallahh166/Orangesites-sub000/internal/capture"
	"github.com/abdallahh166/Orangesites-sub000/internal/tui"
	"github.com/abdallahh166/Orangesites-sub000/pkg/domain"
)

// closeTimeout bounds the final draft save when the wizard exits.
const closeTimeout = 10 * time.Second

var captureCmd = &cobra.Command{
	Use:   "capture",
	Short: "Record a site inspection",
	Long: `Open the capture wizard. A saved draft younger than the draft lifetime
is resumed at the furthest step its data supports.`,
	Args: cobra.NoArgs,
	RunE: runCapture,
}

func runCapture(cmd *cobra.Command, _ []string) error {
	if !isTerminal(cmd.OutOrStdout()) {
		return errors.New("capture needs an interactive terminal")
	}
	env, err := setup(cmd.Context())
	if err != nil {
		return err
	}
	defer env.Close()

	user, err := env.session.Init(cmd.Context())
	if err != nil {
		return err
	}
	if user == nil {
		return errNotSignedIn
	}
	return runWizard(cmd, env, user)
}

// runWizard resumes or starts a draft and hands the terminal to the TUI.
func runWizard(cmd *cobra.Command, env *environment, user *domain.UserProfile) error {
	var relay tui.SaveStatusRelay
	wf := capture.NewWorkflow(env.drafts, env.api, capture.Options{
		Key:          env.cfg.DraftKey,
		Quiet:        env.cfg.AutosaveQuiet,
		Background:   env.cfg.AutosaveBackground,
		MapError:     env.session.HandleAPIError,
		OnSaveStatus: relay.Forward,
		Logger:       env.log.Named("capture"),
	})

	restored, err := wf.Restore(cmd.Context())
	if err != nil {
		// The wizard still works; saves will report their own failures.
		env.log.Warn("restore draft", zap.Error(err))
		printf(cmd.ErrOrStderr(), "warning: %s\n", apperr.Message(err))
	}

	app := tui.NewApp(wf, env.api, tui.Options{
		User:     user,
		Restored: restored,
		MapError: env.session.HandleAPIError,
	})
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	relay.Attach(p)
	_, runErr := p.Run()

	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()
	if err := wf.Close(ctx); err != nil {
		env.log.Warn("final draft save", zap.Error(err))
		printf(cmd.ErrOrStderr(), "warning: %s\n", apperr.Message(err))
	}
	if runErr != nil {
		return fmt.Errorf("tui error: %w", runErr)
	}
	return nil
}
