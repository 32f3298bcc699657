package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/soreli/soreli-cli/internal/api"
	"github.com/soreli/soreli-cli/internal/guard"
	"github.com/soreli/soreli-cli/internal/view"
)

var upgradeCmd = &cobra.Command{
	Use:   "upgrade",
	Short: "Start the premium upgrade checkout",
	Long: `Creates a checkout session and prints the payment URL. Complete the
payment in a browser, then run "soreli upgrade confirm <session-id>".`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGuarded(cmd, guard.RequireAuth(), func(ctx context.Context) error {
			session, err := app.API.CreateCheckoutSession(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Open this URL to complete payment:\n  %s\n", session.URL)
			fmt.Fprintf(cmd.OutOrStdout(), "Then run: soreli upgrade confirm %s\n", session.SessionID)
			return nil
		})
	},
}

var upgradeConfirmCmd = &cobra.Command{
	Use:   "confirm <session-id>",
	Short: "Report a completed checkout",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGuarded(cmd, guard.RequireAuth(), func(ctx context.Context) error {
			if err := app.API.ConfirmCheckout(ctx, args[0]); err != nil {
				return err
			}
			// Entitlements changed server side; drop the cached role so the
			// next guarded command sees the premium flag.
			app.Roles.Invalidate()
			fmt.Fprintln(cmd.OutOrStdout(), "Checkout confirmed. Premium access may take a moment to apply.")
			return nil
		})
	},
}

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Update your display name and photo",
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		photo, _ := cmd.Flags().GetString("photo")
		if name == "" && photo == "" {
			return fmt.Errorf("nothing to update: pass --name or --photo")
		}

		return runGuarded(cmd, guard.RequireAuth(), func(ctx context.Context) error {
			if err := app.Sessions.UpdateProfile(ctx, name, photo); err != nil {
				return err
			}
			snap := app.Sessions.Snapshot()
			if snap.Identity != nil {
				patch := api.UserPatch{Name: name, PhotoURL: photo}
				if err := app.API.UpdateUser(ctx, snap.Identity.Email, patch); err != nil {
					return err
				}
			}
			fmt.Fprint(cmd.OutOrStdout(), view.Whoami(app.Sessions.Snapshot(), app.Roles.State()))
			return nil
		})
	},
}

func init() {
	profileCmd.Flags().String("name", "", "new display name")
	profileCmd.Flags().String("photo", "", "new photo URL")
	upgradeCmd.AddCommand(upgradeConfirmCmd)
	rootCmd.AddCommand(upgradeCmd, profileCmd)
}
