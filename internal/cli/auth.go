package cli

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abdallahh166/Orangesites-sub000/internal/tokenstore"
	"github.com/abdallahh166/Orangesites-sub000/pkg/domain"
)

var errNotSignedIn = errors.New("not signed in; run: orangesites login")

var (
	loginEmail    string
	loginRemember bool

	registerName  string
	registerEmail string
	registerPhone string

	logoutDiscardDraft bool
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in with your email and password",
	Long: `Sign in to the inspection service.

Without --remember the session lives in a runtime directory the OS clears
when you log out of the machine. With --remember it survives reboots.`,
	Args: cobra.NoArgs,
	RunE: runLogin,
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account and sign in",
	Args:  cobra.NoArgs,
	RunE:  runRegister,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and forget stored tokens",
	Long: `Sign out of the inspection service. The refresh token is revoked on the
server when it can be reached; local tokens are removed either way.

The capture draft on this device is kept unless --discard-draft is given.`,
	Args: cobra.NoArgs,
	RunE: runLogout,
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	Args:  cobra.NoArgs,
	RunE:  runWhoami,
}

func init() {
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "Account email (prompted when empty)")
	loginCmd.Flags().BoolVar(&loginRemember, "remember", false, "Keep the session across reboots")

	registerCmd.Flags().StringVar(&registerName, "name", "", "Full name (prompted when empty)")
	registerCmd.Flags().StringVar(&registerEmail, "email", "", "Account email (prompted when empty)")
	registerCmd.Flags().StringVar(&registerPhone, "phone", "", "Phone number (optional)")

	logoutCmd.Flags().BoolVar(&logoutDiscardDraft, "discard-draft", false, "Also delete the saved capture draft")
}

func runLogin(cmd *cobra.Command, _ []string) error {
	env, err := setup(cmd.Context())
	if err != nil {
		return err
	}
	defer env.Close()

	p := newPrompter(cmd)
	email := strings.TrimSpace(loginEmail)
	if email == "" {
		if email, err = p.required("Email: ", "email"); err != nil {
			return err
		}
	}
	password, err := p.secret("Password: ")
	if err != nil {
		return err
	}
	if password == "" {
		return errors.New("password is required")
	}

	user, err := env.session.Login(cmd.Context(), email, password, loginRemember)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	printf(out, "Signed in as %s (%s).\n", user.FullName, user.Role)
	if !loginRemember {
		printf(out, "This session ends when you log out of this machine. Use --remember to keep it.\n")
	}
	printf(out, "Run `orangesites capture` to start an inspection.\n")
	return nil
}

func runRegister(cmd *cobra.Command, _ []string) error {
	env, err := setup(cmd.Context())
	if err != nil {
		return err
	}
	defer env.Close()

	p := newPrompter(cmd)
	req := domain.RegisterRequest{
		FullName: strings.TrimSpace(registerName),
		Email:    strings.TrimSpace(registerEmail),
		Phone:    strings.TrimSpace(registerPhone),
	}
	if req.FullName == "" {
		if req.FullName, err = p.required("Full name: ", "name"); err != nil {
			return err
		}
	}
	if req.Email == "" {
		if req.Email, err = p.required("Email: ", "email"); err != nil {
			return err
		}
	}
	if req.Password, err = p.newPassword("Password: "); err != nil {
		return err
	}

	user, err := env.session.Register(cmd.Context(), req)
	if err != nil {
		return err
	}
	printf(cmd.OutOrStdout(), "Welcome, %s. You are signed in.\n", user.FullName)
	return nil
}

func runLogout(cmd *cobra.Command, _ []string) error {
	env, err := setup(cmd.Context())
	if err != nil {
		return err
	}
	defer env.Close()

	if err := env.session.Logout(cmd.Context()); err != nil {
		return err
	}
	if logoutDiscardDraft {
		if err := env.drafts.Discard(cmd.Context(), env.cfg.DraftKey); err != nil {
			return err
		}
	}
	printf(cmd.OutOrStdout(), "Signed out.\n")
	return nil
}

func runWhoami(cmd *cobra.Command, _ []string) error {
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
	snap := env.session.Snapshot()
	out := cmd.OutOrStdout()
	printf(out, "%s <%s>\n", user.FullName, user.Email)
	printf(out, "role     %s\n", user.Role)
	if user.Phone != "" {
		printf(out, "phone    %s\n", user.Phone)
	}
	printf(out, "session  %s\n", sessionLabel(snap.Tier))
	return nil
}

func sessionLabel(t tokenstore.Tier) string {
	if t == tokenstore.Remembered {
		return "remembered"
	}
	return "this login only"
}
