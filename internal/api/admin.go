package api

import (
	"context"
	"net/url"
	"strconv"
)

// AdminStats returns the moderation dashboard counters
func (c *Client) AdminStats(ctx context.Context) (*AdminStats, error) {
	var stats AdminStats
	if err := c.get(ctx, "/admin/stats", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// AdminLessons lists all lessons for moderation
func (c *Client) AdminLessons(ctx context.Context) ([]Lesson, error) {
	var lessons []Lesson
	if err := c.get(ctx, "/admin/lessons", nil, &lessons); err != nil {
		return nil, err
	}
	return lessons, nil
}

// AdminDeleteLesson removes any lesson
func (c *Client) AdminDeleteLesson(ctx context.Context, id string) error {
	return c.delete(ctx, "/admin/lessons/"+url.PathEscape(id))
}

// FeatureLesson toggles a lesson's featured flag
func (c *Client) FeatureLesson(ctx context.Context, id string) error {
	return c.patch(ctx, "/admin/lessons/"+url.PathEscape(id)+"/feature", nil, nil)
}

// ReviewLesson marks a lesson as reviewed
func (c *Client) ReviewLesson(ctx context.Context, id string) error {
	return c.patch(ctx, "/admin/lessons/"+url.PathEscape(id)+"/review", nil, nil)
}

// ReportedLessons lists the moderation queue
func (c *Client) ReportedLessons(ctx context.Context) ([]ReportedLesson, error) {
	var reports []ReportedLesson
	if err := c.get(ctx, "/admin/reported-lessons", nil, &reports); err != nil {
		return nil, err
	}
	return reports, nil
}

// IgnoreReport dismisses a report, keeping the lesson
func (c *Client) IgnoreReport(ctx context.Context, id string) error {
	return c.patch(ctx, "/admin/reported-lessons/"+url.PathEscape(id)+"/ignore", nil, nil)
}

// DeleteReportedLesson removes a reported lesson and its report
func (c *Client) DeleteReportedLesson(ctx context.Context, id string) error {
	return c.delete(ctx, "/admin/reported-lessons/"+url.PathEscape(id))
}

// AdminUsers lists platform users with pagination and email search
func (c *Client) AdminUsers(ctx context.Context, q UserQuery) (*UserPage, error) {
	query := url.Values{}
	if q.Page > 0 {
		query.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		query.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Search != "" {
		query.Set("search", q.Search)
	}

	var page UserPage
	if err := c.get(ctx, "/admin/users", query, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// PromoteUser grants a user the admin role
func (c *Client) PromoteUser(ctx context.Context, userID string) error {
	return c.patch(ctx, "/admin/users/"+url.PathEscape(userID)+"/promote", nil, nil)
}

// DemoteUser revokes a user's admin role
func (c *Client) DemoteUser(ctx context.Context, userID string) error {
	return c.patch(ctx, "/admin/users/"+url.PathEscape(userID)+"/demote", nil, nil)
}

// AdminDeleteUser removes a user account
func (c *Client) AdminDeleteUser(ctx context.Context, userID string) error {
	return c.delete(ctx, "/admin/users/"+url.PathEscape(userID))
}

// UserGrowth returns the user signups series
func (c *Client) UserGrowth(ctx context.Context) ([]GrowthPoint, error) {
	var points []GrowthPoint
	if err := c.get(ctx, "/admin/user-growth", nil, &points); err != nil {
		return nil, err
	}
	return points, nil
}

// LessonGrowth returns the lesson creation series
func (c *Client) LessonGrowth(ctx context.Context) ([]GrowthPoint, error) {
	var points []GrowthPoint
	if err := c.get(ctx, "/admin/lesson-growth", nil, &points); err != nil {
		return nil, err
	}
	return points, nil
}

// TopContributors returns the most active authors
func (c *Client) TopContributors(ctx context.Context) ([]Contributor, error) {
	var contributors []Contributor
	if err := c.get(ctx, "/admin/top-contributors", nil, &contributors); err != nil {
		return nil, err
	}
	return contributors, nil
}

// AdminProfile returns the administrator's own profile
func (c *Client) AdminProfile(ctx context.Context) (*AdminProfile, error) {
	var profile AdminProfile
	if err := c.get(ctx, "/admin/profile", nil, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// UpdateAdminProfile patches the administrator's own profile
func (c *Client) UpdateAdminProfile(ctx context.Context, patch UserPatch) error {
	return c.patch(ctx, "/admin/profile", patch, nil)
}
