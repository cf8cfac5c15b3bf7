package database

// Conversation queries
const (
	upsertConversationQuery = `
		INSERT INTO conversations (
			id, workspace_id, channel_id, contact_phone, contact_name,
			contact_thumbnail, status, attendant_id, attendant_name,
			sector_id, sector_name, opened_at, closed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			contact_name = excluded.contact_name,
			contact_thumbnail = excluded.contact_thumbnail,
			attendant_id = excluded.attendant_id,
			attendant_name = excluded.attendant_name,
			sector_id = excluded.sector_id,
			sector_name = excluded.sector_name,
			opened_at = excluded.opened_at,
			closed_at = excluded.closed_at
	`

	upsertMessageQuery = `
		INSERT INTO messages (
			id, conversation_id, type, content, sender_type, sender_id,
			sender_name, internal, status, viewed_at, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			content = excluded.content,
			status = excluded.status,
			viewed_at = excluded.viewed_at
	`

	selectConversationQuery = `
		SELECT id, workspace_id, channel_id, contact_phone, contact_name,
		       contact_thumbnail, status, attendant_id, attendant_name,
		       sector_id, sector_name, opened_at, closed_at
		FROM conversations
		WHERE id = ?
	`

	selectActiveConversationByContactQuery = `
		SELECT id, workspace_id, channel_id, contact_phone, contact_name,
		       contact_thumbnail, status, attendant_id, attendant_name,
		       sector_id, sector_name, opened_at, closed_at
		FROM conversations
		WHERE contact_phone = ? AND channel_id = ? AND status != 'closed'
		ORDER BY created_at DESC
		LIMIT 1
	`

	selectConversationsByWorkspaceQuery = `
		SELECT id, workspace_id, channel_id, contact_phone, contact_name,
		       contact_thumbnail, status, attendant_id, attendant_name,
		       sector_id, sector_name, opened_at, closed_at
		FROM conversations
		WHERE workspace_id = ?
		ORDER BY updated_at DESC
	`

	selectMessagesByConversationQuery = `
		SELECT id, type, content, sender_type, sender_id, sender_name,
		       internal, status, viewed_at, created_at
		FROM messages
		WHERE conversation_id = ?
		ORDER BY created_at ASC, id ASC
	`

	selectMessageConversationQuery = `
		SELECT conversation_id FROM messages WHERE id = ?
	`

	expireStaleConversationsQuery = `
		UPDATE conversations
		SET status = 'expired'
		WHERE status = 'waiting' AND updated_at < ?
	`
)

// Channel queries
const (
	upsertChannelQuery = `
		INSERT INTO channels (
			id, workspace_id, name, type, status, provider_account_id, credentials
		) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			status = excluded.status,
			provider_account_id = excluded.provider_account_id,
			credentials = excluded.credentials
	`

	selectChannelQuery = `
		SELECT id, workspace_id, name, type, status, credentials, created_at
		FROM channels
		WHERE id = ?
	`

	selectChannelByProviderAccountQuery = `
		SELECT id, workspace_id, name, type, status, credentials, created_at
		FROM channels
		WHERE provider_account_id = ? AND status = 'connected'
		LIMIT 1
	`

	selectChannelsByWorkspaceQuery = `
		SELECT id, workspace_id, name, type, status, credentials, created_at
		FROM channels
		WHERE workspace_id = ?
		ORDER BY created_at ASC
	`
)

// Contact, sector, user and membership queries
const (
	upsertContactQuery = `
		INSERT INTO contacts (phone, name, thumbnail)
		VALUES (?, ?, ?)
		ON CONFLICT(phone) DO UPDATE SET
			name = excluded.name,
			thumbnail = excluded.thumbnail
	`

	selectContactQuery = `
		SELECT phone, name, thumbnail FROM contacts WHERE phone = ?
	`

	upsertSectorQuery = `
		INSERT INTO sectors (id, workspace_id, name)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name
	`

	selectSectorQuery = `
		SELECT id, name FROM sectors WHERE id = ?
	`

	upsertUserQuery = `
		INSERT INTO users (id, name, email, type)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			email = excluded.email,
			type = excluded.type
	`

	selectUserQuery = `
		SELECT id, name, email, type FROM users WHERE id = ?
	`

	upsertMembershipQuery = `
		INSERT INTO memberships (id, workspace_id, user_id, permissions)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(workspace_id, user_id) DO UPDATE SET
			permissions = excluded.permissions
	`

	selectMembershipQuery = `
		SELECT id, workspace_id, user_id, permissions
		FROM memberships
		WHERE workspace_id = ? AND user_id = ?
	`
)

// Cart and settings queries
const (
	upsertCartQuery = `
		INSERT INTO carts (id, conversation_id, status, cancel_reason, canceled_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			cancel_reason = excluded.cancel_reason,
			canceled_at = excluded.canceled_at
	`

	selectOpenCartByConversationQuery = `
		SELECT id, conversation_id, status, cancel_reason, canceled_at
		FROM carts
		WHERE conversation_id = ? AND status = 'open'
		LIMIT 1
	`

	upsertSettingsQuery = `
		INSERT INTO settings (workspace_id, queue_url)
		VALUES (?, ?)
		ON CONFLICT(workspace_id) DO UPDATE SET queue_url = excluded.queue_url
	`

	selectSettingsQuery = `
		SELECT workspace_id, queue_url FROM settings WHERE workspace_id = ?
	`
)
