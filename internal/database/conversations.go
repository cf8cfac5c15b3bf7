package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Doxa-Code/omnichannel/internal/models"
)

// SaveConversation persists the conversation summary and every owned message
// in one transaction. Both the summary row and the message rows are upserts:
// replaying a save is harmless, and a message replayed with new content
// overwrites the stored row.
func (d *Database) SaveConversation(ctx context.Context, conv *models.Conversation) error {
	return retryableDBOperation(ctx, func() error {
		tx, err := d.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}
		defer func() {
			_ = tx.Rollback()
		}()

		var attendantID, attendantName, sectorID, sectorName *string
		if conv.Attendant != nil {
			attendantID, attendantName = &conv.Attendant.ID, &conv.Attendant.Name
		}
		if conv.Sector != nil {
			sectorID, sectorName = &conv.Sector.ID, &conv.Sector.Name
		}

		if _, err := tx.ExecContext(ctx, upsertConversationQuery,
			conv.ID, conv.WorkspaceID, conv.ChannelID,
			conv.Contact.Phone, conv.Contact.Name, conv.Contact.Thumbnail,
			string(conv.Status), attendantID, attendantName, sectorID, sectorName,
			conv.OpenedAt, conv.ClosedAt,
		); err != nil {
			return fmt.Errorf("failed to save conversation: %w", err)
		}

		for _, m := range conv.Messages() {
			if _, err := tx.ExecContext(ctx, upsertMessageQuery,
				m.ID, conv.ID, string(m.Type), m.Content,
				string(m.Sender.Type), m.Sender.ID, m.Sender.Name,
				m.Internal, string(m.Status), m.ViewedAt, m.CreatedAt,
			); err != nil {
				return fmt.Errorf("failed to save message %s: %w", m.ID, err)
			}
		}

		return tx.Commit()
	}, "SaveConversation")
}

// GetConversation loads a conversation with all of its messages. Returns
// (nil, nil) when no row exists.
func (d *Database) GetConversation(ctx context.Context, id string) (*models.Conversation, error) {
	return d.scanConversationWithMessages(ctx, selectConversationQuery, id)
}

// GetActiveConversationByContact returns the newest non-closed conversation
// for a contact on a channel, or (nil, nil).
func (d *Database) GetActiveConversationByContact(ctx context.Context, contactPhone, channelID string) (*models.Conversation, error) {
	return d.scanConversationWithMessages(ctx, selectActiveConversationByContactQuery, contactPhone, channelID)
}

// GetConversationIDByMessageID resolves the conversation owning a message id.
// Returns "" when the message is unknown.
func (d *Database) GetConversationIDByMessageID(ctx context.Context, messageID string) (string, error) {
	var conversationID string
	err := d.db.QueryRowContext(ctx, selectMessageConversationQuery, messageID).Scan(&conversationID)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to resolve message conversation: %w", err)
	}
	return conversationID, nil
}

// ListConversationsByWorkspace returns every conversation in a workspace,
// most recently updated first, each fully hydrated with its messages.
func (d *Database) ListConversationsByWorkspace(ctx context.Context, workspaceID string) ([]*models.Conversation, error) {
	rows, err := d.db.QueryContext(ctx, selectConversationsByWorkspaceQuery, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var states []models.ConversationState
	for rows.Next() {
		state, err := scanConversationRow(rows)
		if err != nil {
			return nil, err
		}
		states = append(states, state)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate conversations: %w", err)
	}

	conversations := make([]*models.Conversation, 0, len(states))
	for i := range states {
		messages, err := d.loadMessages(ctx, states[i].ID)
		if err != nil {
			return nil, err
		}
		states[i].Messages = messages
		conversations = append(conversations, models.RestoreConversation(states[i]))
	}
	return conversations, nil
}

// ExpireStaleConversations flips waiting conversations untouched since the
// cutoff to expired. Returns the number of conversations expired.
func (d *Database) ExpireStaleConversations(ctx context.Context, before time.Time) (int64, error) {
	// updated_at is a CURRENT_TIMESTAMP string in UTC; compare lexically
	result, err := d.db.ExecContext(ctx, expireStaleConversationsQuery, before.UTC().Format("2006-01-02 15:04:05"))
	if err != nil {
		return 0, fmt.Errorf("failed to expire conversations: %w", err)
	}
	expired, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count expired conversations: %w", err)
	}
	return expired, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanConversationRow(row rowScanner) (models.ConversationState, error) {
	var state models.ConversationState
	var status string
	var attendantID, attendantName, sectorID, sectorName sql.NullString

	err := row.Scan(
		&state.ID, &state.WorkspaceID, &state.ChannelID,
		&state.Contact.Phone, &state.Contact.Name, &state.Contact.Thumbnail,
		&status, &attendantID, &attendantName, &sectorID, &sectorName,
		&state.OpenedAt, &state.ClosedAt,
	)
	if err != nil {
		return state, err
	}

	state.Status = models.ConversationStatus(status)
	if attendantID.Valid {
		state.Attendant = &models.Attendant{ID: attendantID.String, Name: attendantName.String}
	}
	if sectorID.Valid {
		state.Sector = &models.Sector{ID: sectorID.String, Name: sectorName.String}
	}
	return state, nil
}

func (d *Database) scanConversationWithMessages(ctx context.Context, query string, args ...interface{}) (*models.Conversation, error) {
	state, err := scanConversationRow(d.db.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}

	messages, err := d.loadMessages(ctx, state.ID)
	if err != nil {
		return nil, err
	}
	state.Messages = messages

	return models.RestoreConversation(state), nil
}

func (d *Database) loadMessages(ctx context.Context, conversationID string) ([]*models.Message, error) {
	rows, err := d.db.QueryContext(ctx, selectMessagesByConversationQuery, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to load messages: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var messages []*models.Message
	for rows.Next() {
		var id, msgType, content, senderType, senderID, senderName, status string
		var internal bool
		var viewedAt *time.Time
		var createdAt time.Time
		if err := rows.Scan(&id, &msgType, &content, &senderType, &senderID, &senderName,
			&internal, &status, &viewedAt, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, models.RestoreMessage(
			id,
			models.MessageType(msgType),
			content,
			models.Sender{Type: models.SenderType(senderType), ID: senderID, Name: senderName},
			createdAt,
			internal,
			models.MessageStatus(status),
			viewedAt,
		))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate messages: %w", err)
	}
	return messages, nil
}
