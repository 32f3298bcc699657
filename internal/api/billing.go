package api

import (
	"context"
	"net/url"
)

// CheckoutSession is the opaque external payment redirect. The client only
// forwards the user to URL; confirmation arrives out of band via webhook.
type CheckoutSession struct {
	SessionID string `json:"sessionId"`
	URL       string `json:"url"`
}

// CreateCheckoutSession starts the premium upgrade flow
func (c *Client) CreateCheckoutSession(ctx context.Context) (*CheckoutSession, error) {
	var session CheckoutSession
	if err := c.post(ctx, "/create-checkout-session", nil, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// ConfirmCheckout reports a completed checkout back to the backend. The
// webhook remains authoritative; this only accelerates the UI update.
func (c *Client) ConfirmCheckout(ctx context.Context, sessionID string) error {
	return c.patch(ctx, "/checkout-success/"+url.PathEscape(sessionID), nil, nil)
}
