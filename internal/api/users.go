package api

import (
	"context"
	"net/url"
)

// CreateUser mirrors a newly registered identity into the backend user table
func (c *Client) CreateUser(ctx context.Context, user NewUser) error {
	return c.post(ctx, "/users", user, nil)
}

// UserRole fetches the role and premium entitlement for an identity. Keyed by
// email, which the platform treats as unique per account.
func (c *Client) UserRole(ctx context.Context, email string) (*RoleRecord, error) {
	var record RoleRecord
	if err := c.get(ctx, "/users/"+url.PathEscape(email)+"/role", nil, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

// UpdateUser patches the caller's own backend profile record
func (c *Client) UpdateUser(ctx context.Context, email string, patch UserPatch) error {
	return c.patch(ctx, "/user/"+url.PathEscape(email), patch, nil)
}
