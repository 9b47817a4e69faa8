package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"beauty-kart/internal/model"
)

// IdentityKey is the session key holding the authenticated identity.
const IdentityKey = "identity"

// LoadIdentity returns the identity stored in the session, or nil when the
// session is anonymous.
func LoadIdentity(ctx context.Context, store Store) (*model.Identity, error) {
	data, err := store.Get(ctx, IdentityKey)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load identity: %w", err)
	}

	var identity model.Identity
	if err := json.Unmarshal(data, &identity); err != nil {
		return nil, fmt.Errorf("failed to decode identity: %w", err)
	}
	if identity.ClientID == "" {
		return nil, nil
	}
	return &identity, nil
}

// SaveIdentity stores identity in the session.
func SaveIdentity(ctx context.Context, store Store, identity model.Identity) error {
	data, err := json.Marshal(identity)
	if err != nil {
		return fmt.Errorf("failed to encode identity: %w", err)
	}
	if err := store.Set(ctx, IdentityKey, data); err != nil {
		return fmt.Errorf("failed to save identity: %w", err)
	}
	return nil
}

// ClearIdentity removes the identity from the session.
func ClearIdentity(ctx context.Context, store Store) error {
	if err := store.Delete(ctx, IdentityKey); err != nil {
		return fmt.Errorf("failed to clear identity: %w", err)
	}
	return nil
}
