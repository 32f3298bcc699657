package cmd

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/soreli/soreli-cli/internal/api"
	"github.com/soreli/soreli-cli/internal/idp"
	"github.com/soreli/soreli-cli/internal/view"
)

var (
	loginEmail    string
	loginPassword string
	loginGoogle   bool

	registerEmail    string
	registerPassword string
	registerName     string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in with email/password or an external provider",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if loginGoogle {
			if app.Google == nil {
				return fmt.Errorf("no external provider configured; set identity.google in the config")
			}
			state := uuid.NewString()
			fmt.Fprintf(cmd.OutOrStdout(), "Open this URL in your browser and approve access:\n\n  %s\n\nPaste the authorization code: ", app.Google.AuthURL(state))

			reader := bufio.NewReader(cmd.InOrStdin())
			code, err := reader.ReadString('\n')
			if err != nil {
				return fmt.Errorf("reading authorization code: %w", err)
			}
			code = strings.TrimSpace(code)

			token, err := app.Google.ExchangeCode(ctx, code)
			if err != nil {
				return signInError(cmd, err)
			}
			if err := app.Sessions.SignInWithIDP(ctx, app.Google.ProviderID(), token.AccessToken); err != nil {
				return signInError(cmd, err)
			}
		} else {
			if loginEmail == "" || loginPassword == "" {
				return fmt.Errorf("both --email and --password are required")
			}
			if err := app.Sessions.SignIn(ctx, loginEmail, loginPassword); err != nil {
				return signInError(cmd, err)
			}
		}

		snap := app.Sessions.Snapshot()
		fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s\n", snap.Identity.Email)
		return nil
	},
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create a new account",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if registerEmail == "" || registerPassword == "" {
			return fmt.Errorf("both --email and --password are required")
		}

		if err := app.Sessions.Register(ctx, registerEmail, registerPassword); err != nil {
			return signInError(cmd, err)
		}
		if registerName != "" {
			if err := app.Sessions.UpdateProfile(ctx, registerName, ""); err != nil {
				fmt.Fprint(cmd.ErrOrStderr(), view.Error(err))
			}
		}

		// Mirror the account into the backend so role resolution has a row.
		if err := app.API.CreateUser(ctx, api.NewUser{
			Email: registerEmail,
			Name:  registerName,
		}); err != nil {
			fmt.Fprint(cmd.ErrOrStderr(), view.Error(err))
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Registered and signed in as %s\n", registerEmail)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and clear the stored credential",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := app.Sessions.SignOut(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the current identity and role",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		roleState := app.Roles.State()
		if app.Sessions.Authenticated() {
			roleState = app.Roles.Resolve(ctx)
		}
		fmt.Fprint(cmd.OutOrStdout(), view.Whoami(app.Sessions.Snapshot(), roleState))
		return nil
	},
}

// signInError prints the classified authentication failure inline; the
// resolving flag has already settled back to false in the store
func signInError(cmd *cobra.Command, err error) error {
	switch idp.CodeOf(err) {
	case idp.CodeInvalidCredential:
		fmt.Fprintln(cmd.ErrOrStderr(), "Invalid email or password.")
	case idp.CodeEmailInUse:
		fmt.Fprintln(cmd.ErrOrStderr(), "That email is already registered.")
	case idp.CodeCancelled:
		fmt.Fprintln(cmd.ErrOrStderr(), "Sign-in cancelled.")
	case idp.CodeNetwork:
		fmt.Fprintln(cmd.ErrOrStderr(), "Could not reach the identity service. Check your connection.")
	}
	return err
}

func init() {
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "account email")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "account password")
	loginCmd.Flags().BoolVar(&loginGoogle, "google", false, "sign in with Google")

	registerCmd.Flags().StringVar(&registerEmail, "email", "", "account email")
	registerCmd.Flags().StringVar(&registerPassword, "password", "", "account password")
	registerCmd.Flags().StringVar(&registerName, "name", "", "display name")

	rootCmd.AddCommand(loginCmd, registerCmd, logoutCmd, whoamiCmd)
}
