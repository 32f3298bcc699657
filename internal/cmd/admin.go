package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/soreli/soreli-cli/internal/api"
	"github.com/soreli/soreli-cli/internal/guard"
	"github.com/soreli/soreli-cli/internal/role"
	"github.com/soreli/soreli-cli/internal/view"
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Moderation and administration",
}

var adminStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show the moderation dashboard counters",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGuarded(cmd, guard.RequireRole(role.RoleAdmin), func(ctx context.Context) error {
			stats, err := app.API.AdminStats(ctx)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), view.AdminStats(stats))
			return nil
		})
	},
}

var (
	adminUsersPage   int
	adminUsersLimit  int
	adminUsersSearch string
)

var adminUsersCmd = &cobra.Command{
	Use:   "users",
	Short: "List platform users",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGuarded(cmd, guard.RequireRole(role.RoleAdmin), func(ctx context.Context) error {
			page, err := app.API.AdminUsers(ctx, api.UserQuery{
				Page:   adminUsersPage,
				Limit:  adminUsersLimit,
				Search: adminUsersSearch,
			})
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), view.Users(page.Users))
			if page.Total > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "%d users total\n", page.Total)
			}
			return nil
		})
	},
}

var adminPromoteCmd = &cobra.Command{
	Use:   "promote <user-id>",
	Short: "Grant a user the admin role",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGuarded(cmd, guard.RequireRole(role.RoleAdmin), func(ctx context.Context) error {
			return app.API.PromoteUser(ctx, args[0])
		})
	},
}

var adminDemoteCmd = &cobra.Command{
	Use:   "demote <user-id>",
	Short: "Revoke a user's admin role",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGuarded(cmd, guard.RequireRole(role.RoleAdmin), func(ctx context.Context) error {
			return app.API.DemoteUser(ctx, args[0])
		})
	},
}

var adminDeleteUserCmd = &cobra.Command{
	Use:   "delete-user <user-id>",
	Short: "Remove a user account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGuarded(cmd, guard.RequireRole(role.RoleAdmin), func(ctx context.Context) error {
			return app.API.AdminDeleteUser(ctx, args[0])
		})
	},
}

var adminLessonsCmd = &cobra.Command{
	Use:   "lessons",
	Short: "List all lessons for moderation",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGuarded(cmd, guard.RequireRole(role.RoleAdmin), func(ctx context.Context) error {
			lessons, err := app.API.AdminLessons(ctx)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), view.Lessons(lessons))
			return nil
		})
	},
}

var adminFeatureCmd = &cobra.Command{
	Use:   "feature <lesson-id>",
	Short: "Toggle a lesson's featured flag",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGuarded(cmd, guard.RequireRole(role.RoleAdmin), func(ctx context.Context) error {
			return app.API.FeatureLesson(ctx, args[0])
		})
	},
}

var adminReviewCmd = &cobra.Command{
	Use:   "review <lesson-id>",
	Short: "Mark a lesson as reviewed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGuarded(cmd, guard.RequireRole(role.RoleAdmin), func(ctx context.Context) error {
			return app.API.ReviewLesson(ctx, args[0])
		})
	},
}

var adminDeleteLessonCmd = &cobra.Command{
	Use:   "delete-lesson <lesson-id>",
	Short: "Remove any lesson",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGuarded(cmd, guard.RequireRole(role.RoleAdmin), func(ctx context.Context) error {
			return app.API.AdminDeleteLesson(ctx, args[0])
		})
	},
}

var adminReportsCmd = &cobra.Command{
	Use:   "reports",
	Short: "List the moderation queue",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGuarded(cmd, guard.RequireRole(role.RoleAdmin), func(ctx context.Context) error {
			reports, err := app.API.ReportedLessons(ctx)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), view.Reports(reports))
			return nil
		})
	},
}

var adminIgnoreReportCmd = &cobra.Command{
	Use:   "ignore-report <report-id>",
	Short: "Dismiss a report, keeping the lesson",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGuarded(cmd, guard.RequireRole(role.RoleAdmin), func(ctx context.Context) error {
			return app.API.IgnoreReport(ctx, args[0])
		})
	},
}

var adminDeleteReportedCmd = &cobra.Command{
	Use:   "delete-reported <report-id>",
	Short: "Remove a reported lesson and its report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGuarded(cmd, guard.RequireRole(role.RoleAdmin), func(ctx context.Context) error {
			return app.API.DeleteReportedLesson(ctx, args[0])
		})
	},
}

var adminGrowthCmd = &cobra.Command{
	Use:   "growth",
	Short: "Show user and lesson growth series",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGuarded(cmd, guard.RequireRole(role.RoleAdmin), func(ctx context.Context) error {
			users, err := app.API.UserGrowth(ctx)
			if err != nil {
				return err
			}
			lessons, err := app.API.LessonGrowth(ctx)
			if err != nil {
				return err
			}
			for _, p := range users {
				fmt.Fprintf(cmd.OutOrStdout(), "users   %s  %d\n", p.Date, p.Count)
			}
			for _, p := range lessons {
				fmt.Fprintf(cmd.OutOrStdout(), "lessons %s  %d\n", p.Date, p.Count)
			}
			return nil
		})
	},
}

var adminProfileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Show or update the administrator profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		photo, _ := cmd.Flags().GetString("photo")

		return runGuarded(cmd, guard.RequireRole(role.RoleAdmin), func(ctx context.Context) error {
			if name != "" || photo != "" {
				patch := api.UserPatch{Name: name, PhotoURL: photo}
				if err := app.API.UpdateAdminProfile(ctx, patch); err != nil {
					return err
				}
			}
			profile, err := app.API.AdminProfile(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s <%s>\n", profile.Name, profile.Email)
			return nil
		})
	},
}

var adminContributorsCmd = &cobra.Command{
	Use:   "contributors",
	Short: "Show the most active authors",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGuarded(cmd, guard.RequireRole(role.RoleAdmin), func(ctx context.Context) error {
			contributors, err := app.API.TopContributors(ctx)
			if err != nil {
				return err
			}
			for _, c := range contributors {
				fmt.Fprintf(cmd.OutOrStdout(), "%s <%s>  %d lessons, %d likes\n", c.Name, c.Email, c.Lessons, c.Likes)
			}
			return nil
		})
	},
}

func init() {
	adminUsersCmd.Flags().IntVar(&adminUsersPage, "page", 1, "page number (1-indexed)")
	adminUsersCmd.Flags().IntVar(&adminUsersLimit, "limit", 10, "results per page")
	adminUsersCmd.Flags().StringVar(&adminUsersSearch, "search", "", "search by email")

	adminProfileCmd.Flags().String("name", "", "new display name")
	adminProfileCmd.Flags().String("photo", "", "new photo URL")

	adminCmd.AddCommand(
		adminStatsCmd,
		adminUsersCmd,
		adminPromoteCmd,
		adminDemoteCmd,
		adminDeleteUserCmd,
		adminLessonsCmd,
		adminFeatureCmd,
		adminReviewCmd,
		adminDeleteLessonCmd,
		adminReportsCmd,
		adminIgnoreReportCmd,
		adminDeleteReportedCmd,
		adminGrowthCmd,
		adminContributorsCmd,
		adminProfileCmd,
	)
	rootCmd.AddCommand(adminCmd)
}
