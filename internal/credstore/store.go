// Package credstore persists the signed-in credential between runs so the
// client does not force a fresh sign-in on every start.
package credstore

import (
	"context"
	"errors"

	"github.com/soreli/soreli-cli/internal/idp"
)

// ErrNotFound is returned when no credential has been saved
var ErrNotFound = errors.New("credential not found")

// Store defines persistence for the current signed-in credential.
// Implementations must tolerate Clear on an empty store.
type Store interface {
	Load(ctx context.Context) (*idp.Credential, error)
	Save(ctx context.Context, cred *idp.Credential) error
	Clear(ctx context.Context) error
}
