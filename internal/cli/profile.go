package cli

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abdallahh166/Orangesites-sub000/pkg/domain"
)

var (
	profileName  string
	profilePhone string

	resetEmail string
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage your profile",
}

var profileUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Change your name or phone number",
	Args:  cobra.NoArgs,
	RunE:  runProfileUpdate,
}

var passwordCmd = &cobra.Command{
	Use:   "password",
	Short: "Change or reset your password",
}

var passwordChangeCmd = &cobra.Command{
	Use:   "change",
	Short: "Change the password of the signed-in account",
	Args:  cobra.NoArgs,
	RunE:  runPasswordChange,
}

var passwordResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Email a password reset link",
	Long:  "Ask the server to email a password reset link. No sign-in is needed.",
	Args:  cobra.NoArgs,
	RunE:  runPasswordReset,
}

func init() {
	profileUpdateCmd.Flags().StringVar(&profileName, "name", "", "New full name")
	profileUpdateCmd.Flags().StringVar(&profilePhone, "phone", "", "New phone number")
	profileCmd.AddCommand(profileUpdateCmd)

	passwordResetCmd.Flags().StringVar(&resetEmail, "email", "", "Account email (prompted when empty)")
	passwordCmd.AddCommand(passwordChangeCmd)
	passwordCmd.AddCommand(passwordResetCmd)
}

func runProfileUpdate(cmd *cobra.Command, _ []string) error {
	req := domain.UpdateProfileRequest{
		FullName: strings.TrimSpace(profileName),
		Phone:    strings.TrimSpace(profilePhone),
	}
	if req.FullName == "" && req.Phone == "" {
		return errors.New("nothing to update; pass --name or --phone")
	}

	env, err := setup(cmd.Context())
	if err != nil {
		return err
	}
	defer env.Close()

	if err := signedIn(cmd, env); err != nil {
		return err
	}
	user, err := env.session.UpdateProfile(cmd.Context(), req)
	if err != nil {
		return err
	}
	printf(cmd.OutOrStdout(), "Profile updated: %s", user.FullName)
	if user.Phone != "" {
		printf(cmd.OutOrStdout(), ", %s", user.Phone)
	}
	printf(cmd.OutOrStdout(), "\n")
	return nil
}

func runPasswordChange(cmd *cobra.Command, _ []string) error {
	env, err := setup(cmd.Context())
	if err != nil {
		return err
	}
	defer env.Close()

	if err := signedIn(cmd, env); err != nil {
		return err
	}
	p := newPrompter(cmd)
	current, err := p.secret("Current password: ")
	if err != nil {
		return err
	}
	next, err := p.newPassword("New password: ")
	if err != nil {
		return err
	}
	if err := env.session.ChangePassword(cmd.Context(), current, next); err != nil {
		return err
	}
	printf(cmd.OutOrStdout(), "Password changed.\n")
	return nil
}

func runPasswordReset(cmd *cobra.Command, _ []string) error {
	env, err := setup(cmd.Context())
	if err != nil {
		return err
	}
	defer env.Close()

	email := strings.TrimSpace(resetEmail)
	if email == "" {
		if email, err = newPrompter(cmd).required("Email: ", "email"); err != nil {
			return err
		}
	}
	if err := env.session.ResetPassword(cmd.Context(), email); err != nil {
		return err
	}
	printf(cmd.OutOrStdout(), "If %s has an account, a reset link is on its way.\n", email)
	return nil
}

// signedIn restores the stored session or fails with a hint to log in.
func signedIn(cmd *cobra.Command, env *environment) error {
	user, err := env.session.Init(cmd.Context())
	if err != nil {
		return err
	}
	if user == nil {
		return errNotSignedIn
	}
	return nil
}
