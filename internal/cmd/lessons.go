package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/soreli/soreli-cli/internal/api"
	"github.com/soreli/soreli-cli/internal/guard"
	"github.com/soreli/soreli-cli/internal/view"
)

var (
	listPage     int
	listLimit    int
	listSearch   string
	listCategory string
	listTone     string

	addTitle       string
	addDescription string
	addCategory    string
	addTone        string
	addPrivate     bool
	addPremium     bool

	editTitle       string
	editDescription string
	editCategory    string
	editTone        string
)

var lessonsCmd = &cobra.Command{
	Use:   "lessons",
	Short: "Browse and manage lessons",
}

var lessonsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List public lessons",
	RunE: func(cmd *cobra.Command, args []string) error {
		// Public endpoint: works anonymously, no guard.
		page, err := app.API.PublicLessons(cmd.Context(), api.LessonQuery{
			Page:     listPage,
			Limit:    listLimit,
			Search:   listSearch,
			Category: listCategory,
			Tone:     listTone,
		})
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), view.LessonPage(page, listPage))
		return nil
	},
}

var lessonsGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show one public lesson",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		lesson, err := app.API.PublicLesson(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), view.Lesson(lesson))
		return nil
	},
}

var lessonsFeaturedCmd = &cobra.Command{
	Use:   "featured",
	Short: "Show featured lessons",
	RunE: func(cmd *cobra.Command, args []string) error {
		lessons, err := app.API.FeaturedLessons(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), view.Lessons(lessons))
		return nil
	},
}

var lessonsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Publish a new lesson",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGuarded(cmd, guard.RequireAuth(), func(ctx context.Context) error {
			if addTitle == "" || addDescription == "" {
				// Validation failures stay local to the form; they never
				// reach the guard or session layers.
				return fmt.Errorf("both --title and --description are required")
			}

			lesson := api.NewLesson{
				Title:       addTitle,
				Description: addDescription,
				Category:    addCategory,
				Tone:        addTone,
				Visibility:  api.VisibilityPublic,
				Access:      api.AccessFree,
			}
			if addPrivate {
				lesson.Visibility = api.VisibilityPrivate
			}
			if addPremium {
				lesson.Access = api.AccessPremium
			}

			created, err := app.API.CreateLesson(ctx, lesson)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Published %q (id %s)\n", created.Title, created.ID)
			return nil
		})
	},
}

var lessonsEditCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Edit one of your own lessons",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGuarded(cmd, guard.RequireAuth(), func(ctx context.Context) error {
			if editTitle == "" || editDescription == "" {
				return fmt.Errorf("both --title and --description are required")
			}

			update := api.LessonUpdate{
				Title:       editTitle,
				Description: editDescription,
				Category:    editCategory,
				Tone:        editTone,
			}
			if err := app.API.UpdateLesson(ctx, args[0], update); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %q\n", editTitle)
			return nil
		})
	},
}

var lessonsMineCmd = &cobra.Command{
	Use:   "mine",
	Short: "List your own lessons",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGuarded(cmd, guard.RequireAuth(), func(ctx context.Context) error {
			lessons, err := app.API.MyLessons(ctx, app.Sessions.Snapshot().Identity.Email)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), view.Lessons(lessons))
			return nil
		})
	},
}

var lessonsFavoritesCmd = &cobra.Command{
	Use:   "favorites",
	Short: "List your favorite lessons",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGuarded(cmd, guard.RequireAuth(), func(ctx context.Context) error {
			lessons, err := app.API.Favorites(ctx, app.Sessions.Snapshot().Identity.Email)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), view.Lessons(lessons))
			return nil
		})
	},
}

var lessonsLikeCmd = &cobra.Command{
	Use:   "like <id>",
	Short: "Toggle your like on a lesson",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGuarded(cmd, guard.RequireAuth(), func(ctx context.Context) error {
			return app.API.LikeLesson(ctx, args[0])
		})
	},
}

var lessonsUnfavoriteCmd = &cobra.Command{
	Use:   "unfavorite <id>",
	Short: "Remove a lesson from your favorites",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGuarded(cmd, guard.RequireAuth(), func(ctx context.Context) error {
			return app.API.RemoveFavorite(ctx, args[0])
		})
	},
}

var lessonsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete one of your own lessons",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGuarded(cmd, guard.RequireAuth(), func(ctx context.Context) error {
			return app.API.DeleteLesson(ctx, args[0])
		})
	},
}

var lessonsVisibilityCmd = &cobra.Command{
	Use:   "visibility <id> <public|private>",
	Short: "Change a lesson's visibility",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGuarded(cmd, guard.RequireAuth(), func(ctx context.Context) error {
			visibility := api.Visibility(args[1])
			if visibility != api.VisibilityPublic && visibility != api.VisibilityPrivate {
				return fmt.Errorf("visibility must be public or private")
			}
			return app.API.SetLessonVisibility(ctx, args[0], visibility)
		})
	},
}

var lessonsAccessCmd = &cobra.Command{
	Use:   "access <id> <free|premium>",
	Short: "Change a lesson's access level",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGuarded(cmd, guard.RequireAuth(), func(ctx context.Context) error {
			access := api.Access(args[1])
			if access != api.AccessFree && access != api.AccessPremium {
				return fmt.Errorf("access must be free or premium")
			}
			return app.API.SetLessonAccess(ctx, args[0], access)
		})
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show platform counters",
	RunE: func(cmd *cobra.Command, args []string) error {
		stats, err := app.API.StatsOverview(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), view.StatsOverview(stats))
		return nil
	},
}

func init() {
	lessonsListCmd.Flags().IntVar(&listPage, "page", 1, "page number (1-indexed)")
	lessonsListCmd.Flags().IntVar(&listLimit, "limit", 6, "results per page")
	lessonsListCmd.Flags().StringVar(&listSearch, "search", "", "search term")
	lessonsListCmd.Flags().StringVar(&listCategory, "category", "", "filter by category")
	lessonsListCmd.Flags().StringVar(&listTone, "tone", "", "filter by tone")

	lessonsAddCmd.Flags().StringVar(&addTitle, "title", "", "lesson title")
	lessonsAddCmd.Flags().StringVar(&addDescription, "description", "", "lesson body")
	lessonsAddCmd.Flags().StringVar(&addCategory, "category", "", "lesson category")
	lessonsAddCmd.Flags().StringVar(&addTone, "tone", "", "lesson tone")
	lessonsAddCmd.Flags().BoolVar(&addPrivate, "private", false, "only visible to you")
	lessonsAddCmd.Flags().BoolVar(&addPremium, "premium", false, "gate behind the premium entitlement")

	lessonsEditCmd.Flags().StringVar(&editTitle, "title", "", "lesson title")
	lessonsEditCmd.Flags().StringVar(&editDescription, "description", "", "lesson body")
	lessonsEditCmd.Flags().StringVar(&editCategory, "category", "", "lesson category")
	lessonsEditCmd.Flags().StringVar(&editTone, "tone", "", "lesson tone")

	lessonsCmd.AddCommand(
		lessonsListCmd,
		lessonsGetCmd,
		lessonsFeaturedCmd,
		lessonsAddCmd,
		lessonsEditCmd,
		lessonsMineCmd,
		lessonsFavoritesCmd,
		lessonsLikeCmd,
		lessonsUnfavoriteCmd,
		lessonsDeleteCmd,
		lessonsVisibilityCmd,
		lessonsAccessCmd,
	)
	rootCmd.AddCommand(lessonsCmd, statsCmd)
}
