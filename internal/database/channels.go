package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Doxa-Code/omnichannel/internal/models"
)

// SaveChannel upserts a channel row. The credentials envelope is encrypted at
// rest when encryption is enabled; the provider account id stays plaintext so
// webhook routing can hit the index.
func (d *Database) SaveChannel(ctx context.Context, channel *models.Channel) error {
	envelope, err := models.EncodeCredentials(channel.Credentials)
	if err != nil {
		return fmt.Errorf("failed to encode credentials: %w", err)
	}

	encrypted, err := d.encryptor.EncryptIfEnabled(string(envelope))
	if err != nil {
		return fmt.Errorf("failed to encrypt credentials: %w", err)
	}

	return retryableDBOperation(ctx, func() error {
		_, err := d.db.ExecContext(ctx, upsertChannelQuery,
			channel.ID, channel.WorkspaceID, channel.Name,
			string(channel.Type), string(channel.Status),
			channel.ProviderAccountID(), encrypted,
		)
		if err != nil {
			return fmt.Errorf("failed to save channel: %w", err)
		}
		return nil
	}, "SaveChannel")
}

// GetChannel loads a channel by id, (nil, nil) when missing.
func (d *Database) GetChannel(ctx context.Context, id string) (*models.Channel, error) {
	return d.scanChannel(d.db.QueryRowContext(ctx, selectChannelQuery, id))
}

// GetChannelByProviderAccountID resolves the connected channel owning a
// provider account id (e.g. the phone_number_id on a Meta webhook).
func (d *Database) GetChannelByProviderAccountID(ctx context.Context, providerAccountID string) (*models.Channel, error) {
	if providerAccountID == "" {
		return nil, nil
	}
	return d.scanChannel(d.db.QueryRowContext(ctx, selectChannelByProviderAccountQuery, providerAccountID))
}

// ListChannelsByWorkspace returns every channel in a workspace.
func (d *Database) ListChannelsByWorkspace(ctx context.Context, workspaceID string) ([]*models.Channel, error) {
	rows, err := d.db.QueryContext(ctx, selectChannelsByWorkspaceQuery, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list channels: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var channels []*models.Channel
	for rows.Next() {
		channel, err := d.scanChannelRow(rows)
		if err != nil {
			return nil, err
		}
		channels = append(channels, channel)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate channels: %w", err)
	}
	return channels, nil
}

func (d *Database) scanChannel(row *sql.Row) (*models.Channel, error) {
	channel, err := d.scanChannelRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return channel, err
}

func (d *Database) scanChannelRow(row rowScanner) (*models.Channel, error) {
	var channel models.Channel
	var channelType, status, encrypted string
	var createdAt time.Time

	err := row.Scan(&channel.ID, &channel.WorkspaceID, &channel.Name,
		&channelType, &status, &encrypted, &createdAt)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan channel: %w", err)
	}

	envelope, err := d.encryptor.DecryptIfEnabled(encrypted)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt credentials: %w", err)
	}

	creds, err := models.DecodeCredentials([]byte(envelope))
	if err != nil {
		return nil, fmt.Errorf("failed to decode credentials: %w", err)
	}

	channel.Type = models.ChannelType(channelType)
	channel.Status = models.ChannelStatus(status)
	channel.Credentials = creds
	channel.CreatedAt = createdAt
	return &channel, nil
}
