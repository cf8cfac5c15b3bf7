package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Doxa-Code/omnichannel/internal/models"
)

// SaveCart upserts a cart row.
func (d *Database) SaveCart(ctx context.Context, cart *models.Cart) error {
	return retryableDBOperation(ctx, func() error {
		_, err := d.db.ExecContext(ctx, upsertCartQuery,
			cart.ID, cart.ConversationID, string(cart.Status), cart.CancelReason, cart.CanceledAt)
		if err != nil {
			return fmt.Errorf("failed to save cart: %w", err)
		}
		return nil
	}, "SaveCart")
}

// GetOpenCartByConversationID returns the open cart tied to a conversation,
// (nil, nil) when there is none.
func (d *Database) GetOpenCartByConversationID(ctx context.Context, conversationID string) (*models.Cart, error) {
	var cart models.Cart
	var status string
	err := d.db.QueryRowContext(ctx, selectOpenCartByConversationQuery, conversationID).
		Scan(&cart.ID, &cart.ConversationID, &status, &cart.CancelReason, &cart.CanceledAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}
	cart.Status = models.CartStatus(status)
	return &cart, nil
}

// SaveSettings upserts the per-workspace settings row.
func (d *Database) SaveSettings(ctx context.Context, settings models.Settings) error {
	return retryableDBOperation(ctx, func() error {
		_, err := d.db.ExecContext(ctx, upsertSettingsQuery, settings.WorkspaceID, settings.QueueURL)
		if err != nil {
			return fmt.Errorf("failed to save settings: %w", err)
		}
		return nil
	}, "SaveSettings")
}

// GetSettings returns workspace settings; missing rows yield zero-value
// settings with the workspace id filled in.
func (d *Database) GetSettings(ctx context.Context, workspaceID string) (models.Settings, error) {
	var settings models.Settings
	err := d.db.QueryRowContext(ctx, selectSettingsQuery, workspaceID).
		Scan(&settings.WorkspaceID, &settings.QueueURL)
	if err == sql.ErrNoRows {
		return models.Settings{WorkspaceID: workspaceID}, nil
	}
	if err != nil {
		return models.Settings{}, fmt.Errorf("failed to get settings: %w", err)
	}
	return settings, nil
}
