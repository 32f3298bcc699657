// Package view renders API data for the terminal. It is a thin presentation
// layer; all gating decisions happen in guard before anything reaches here.
package view

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/soreli/soreli-cli/internal/api"
	"github.com/soreli/soreli-cli/internal/guard"
	"github.com/soreli/soreli-cli/internal/role"
	"github.com/soreli/soreli-cli/internal/session"
)

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	headerStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99"))
	mutedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	badgeStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	forbiddenStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("196")).
			Padding(0, 1)
)

// Lessons renders a lesson list
func Lessons(lessons []api.Lesson) string {
	if len(lessons) == 0 {
		return mutedStyle.Render("No lessons found.") + "\n"
	}

	var b strings.Builder
	for _, lesson := range lessons {
		title := titleStyle.Render(lesson.Title)
		if lesson.Access == api.AccessPremium {
			title += " " + badgeStyle.Render("[premium]")
		}
		if lesson.Featured {
			title += " " + badgeStyle.Render("[featured]")
		}
		b.WriteString(title)
		b.WriteString("\n")
		b.WriteString(mutedStyle.Render(fmt.Sprintf("  %s · %s · by %s · %d likes",
			lesson.Category, lesson.Tone, lesson.AuthorName, lesson.Likes)))
		b.WriteString("\n")
		b.WriteString(mutedStyle.Render("  id: " + lesson.ID))
		b.WriteString("\n\n")
	}
	return b.String()
}

// LessonPage renders one page of a paginated list
func LessonPage(page *api.LessonPage, current int) string {
	var b strings.Builder
	b.WriteString(Lessons(page.Items))
	if page.TotalPages > 0 {
		b.WriteString(mutedStyle.Render(fmt.Sprintf("Page %d of %d", current, page.TotalPages)))
		b.WriteString("\n")
	} else if page.Total > 0 {
		b.WriteString(mutedStyle.Render(fmt.Sprintf("%d lessons total", page.Total)))
		b.WriteString("\n")
	}
	return b.String()
}

// Lesson renders a single lesson in full
func Lesson(lesson *api.Lesson) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(lesson.Title))
	b.WriteString("\n\n")
	b.WriteString(lesson.Description)
	b.WriteString("\n\n")
	b.WriteString(mutedStyle.Render(fmt.Sprintf("%s · %s · by %s <%s> · %d likes · %d favorites",
		lesson.Category, lesson.Tone, lesson.AuthorName, lesson.AuthorEmail, lesson.Likes, lesson.Favorites)))
	b.WriteString("\n")
	return b.String()
}

// Whoami renders the current identity and role state
func Whoami(snap session.Snapshot, roleState role.State) string {
	if snap.Resolving {
		return Pending()
	}
	if snap.Identity == nil {
		return mutedStyle.Render("Not signed in.") + "\n"
	}

	var b strings.Builder
	name := snap.Identity.DisplayName
	if name == "" {
		name = snap.Identity.Email
	}
	b.WriteString(headerStyle.Render(name))
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render(snap.Identity.Email))
	b.WriteString("\n")

	switch roleState.Phase {
	case role.PhaseResolved:
		line := "role: " + string(roleState.Record.Role)
		if roleState.Record.Premium {
			line += " " + badgeStyle.Render("[premium]")
		}
		b.WriteString(line)
		b.WriteString("\n")
	case role.PhaseFailed:
		b.WriteString(errorStyle.Render("role: lookup failed"))
		b.WriteString("\n")
	default:
		b.WriteString(mutedStyle.Render("role: resolving"))
		b.WriteString("\n")
	}
	return b.String()
}

// Pending renders the placeholder shown while session or role state settles
func Pending() string {
	return mutedStyle.Render("Loading…") + "\n"
}

// Forbidden renders the access denied view. No redirect: being signed in but
// not allowed is distinct from not being signed in.
func Forbidden(reason string) string {
	msg := errorStyle.Render("Forbidden") + "\n" + "You do not have access to this area."
	if reason != "" {
		msg += "\n" + mutedStyle.Render(reason)
	}
	return forbiddenStyle.Render(msg) + "\n"
}

// SignInRedirect renders the unauthenticated redirect, preserving the origin
func SignInRedirect(d guard.Decision) string {
	var b strings.Builder
	b.WriteString(errorStyle.Render("Sign-in required"))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("Run %s first.", headerStyle.Render("soreli login")))
	b.WriteString("\n")
	if d.From != "" {
		b.WriteString(mutedStyle.Render(fmt.Sprintf("You will return to %q after signing in.", d.From)))
		b.WriteString("\n")
	}
	return b.String()
}

// StatsOverview renders the public counters
func StatsOverview(stats *api.StatsOverview) string {
	return fmt.Sprintf("%s\n%d lessons · %d users · %d favorites · %d contributors\n",
		headerStyle.Render("Soreli"),
		stats.Lessons, stats.Users, stats.Favorites, stats.Contributors)
}

// AdminStats renders the moderation dashboard counters
func AdminStats(stats *api.AdminStats) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Moderation dashboard"))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("users: %d (premium %d)\n", stats.TotalUsers, stats.PremiumUsers))
	b.WriteString(fmt.Sprintf("lessons: %d (public %d)\n", stats.TotalLessons, stats.PublicLessons))
	b.WriteString(fmt.Sprintf("reported: %d\n", stats.ReportedLessons))
	return b.String()
}

// Users renders the admin user listing
func Users(users []api.PlatformUser) string {
	if len(users) == 0 {
		return mutedStyle.Render("No users.") + "\n"
	}
	var b strings.Builder
	for _, user := range users {
		line := fmt.Sprintf("%s  %s", headerStyle.Render(user.Email), user.Role)
		if user.Premium {
			line += " " + badgeStyle.Render("[premium]")
		}
		b.WriteString(line)
		b.WriteString("\n")
		b.WriteString(mutedStyle.Render("  id: " + user.ID))
		b.WriteString("\n")
	}
	return b.String()
}

// Reports renders the moderation queue
func Reports(reports []api.ReportedLesson) string {
	if len(reports) == 0 {
		return mutedStyle.Render("No reported lessons.") + "\n"
	}
	var b strings.Builder
	for _, report := range reports {
		b.WriteString(titleStyle.Render(report.Title))
		b.WriteString("\n")
		b.WriteString(fmt.Sprintf("  reason: %s\n", report.Reason))
		b.WriteString(mutedStyle.Render(fmt.Sprintf("  reported by %s · report id: %s", report.ReportedBy, report.ID)))
		b.WriteString("\n")
	}
	return b.String()
}

// Error renders an operation failure inline
func Error(err error) string {
	return errorStyle.Render("Error: ") + err.Error() + "\n"
}
