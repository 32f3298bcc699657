package api

import (
	"context"
	"net/url"
	"strconv"
)

// PublicLessons lists public lessons with pagination and filters. Works
// anonymously; premium-gated items come back locked for non-premium callers.
func (c *Client) PublicLessons(ctx context.Context, q LessonQuery) (*LessonPage, error) {
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
	if q.Category != "" {
		query.Set("category", q.Category)
	}
	if q.Tone != "" {
		query.Set("tone", q.Tone)
	}

	var page LessonPage
	if err := c.get(ctx, "/lessons/public", query, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// PublicLesson fetches one public lesson by id
func (c *Client) PublicLesson(ctx context.Context, id string) (*Lesson, error) {
	var lesson Lesson
	if err := c.get(ctx, "/lessons/public/"+url.PathEscape(id), nil, &lesson); err != nil {
		return nil, err
	}
	return &lesson, nil
}

// FeaturedLessons returns the curated featured set
func (c *Client) FeaturedLessons(ctx context.Context) ([]Lesson, error) {
	var lessons []Lesson
	if err := c.get(ctx, "/lessons/featured", nil, &lessons); err != nil {
		return nil, err
	}
	return lessons, nil
}

// CreateLesson publishes a new lesson for the signed-in user
func (c *Client) CreateLesson(ctx context.Context, lesson NewLesson) (*Lesson, error) {
	var created Lesson
	if err := c.post(ctx, "/lessons", lesson, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateLesson replaces the editable fields of one of the caller's own lessons
func (c *Client) UpdateLesson(ctx context.Context, id string, update LessonUpdate) error {
	return c.put(ctx, "/lessons/"+url.PathEscape(id), update, nil)
}

// MyLessons lists lessons authored by the given user
func (c *Client) MyLessons(ctx context.Context, email string) ([]Lesson, error) {
	query := url.Values{"email": []string{email}}
	var lessons []Lesson
	if err := c.get(ctx, "/my-lessons", query, &lessons); err != nil {
		return nil, err
	}
	return lessons, nil
}

// DeleteLesson removes one of the caller's own lessons
func (c *Client) DeleteLesson(ctx context.Context, id string) error {
	return c.delete(ctx, "/lessons/"+url.PathEscape(id))
}

// SetLessonVisibility toggles a lesson between public and private
func (c *Client) SetLessonVisibility(ctx context.Context, id string, visibility Visibility) error {
	return c.patch(ctx, "/lessons/"+url.PathEscape(id)+"/visibility", map[string]any{
		"visibility": visibility,
	}, nil)
}

// SetLessonAccess toggles a lesson between free and premium access
func (c *Client) SetLessonAccess(ctx context.Context, id string, access Access) error {
	return c.patch(ctx, "/lessons/"+url.PathEscape(id)+"/access", map[string]any{
		"accessLevel": access,
	}, nil)
}

// LikeLesson toggles the caller's like on a lesson
func (c *Client) LikeLesson(ctx context.Context, id string) error {
	return c.patch(ctx, "/lessons/like/"+url.PathEscape(id), nil, nil)
}

// Favorites lists the caller's favorited lessons
func (c *Client) Favorites(ctx context.Context, email string) ([]Lesson, error) {
	query := url.Values{"email": []string{email}}
	var lessons []Lesson
	if err := c.get(ctx, "/lessons/favorites", query, &lessons); err != nil {
		return nil, err
	}
	return lessons, nil
}

// RemoveFavorite removes a lesson from the caller's favorites
func (c *Client) RemoveFavorite(ctx context.Context, lessonID string) error {
	return c.patch(ctx, "/lessons/remove-favorite/"+url.PathEscape(lessonID), nil, nil)
}

// StatsOverview returns the public landing page counters
func (c *Client) StatsOverview(ctx context.Context) (*StatsOverview, error) {
	var stats StatsOverview
	if err := c.get(ctx, "/stats/overview", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}
