package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/Doxa-Code/omnichannel/internal/models"
)

// SaveContact upserts the contact directory entry keyed by phone.
func (d *Database) SaveContact(ctx context.Context, contact models.Contact) error {
	return retryableDBOperation(ctx, func() error {
		_, err := d.db.ExecContext(ctx, upsertContactQuery, contact.Phone, contact.Name, contact.Thumbnail)
		if err != nil {
			return fmt.Errorf("failed to save contact: %w", err)
		}
		return nil
	}, "SaveContact")
}

// GetContact returns the stored contact or (zero, false).
func (d *Database) GetContact(ctx context.Context, phone string) (models.Contact, bool, error) {
	var contact models.Contact
	err := d.db.QueryRowContext(ctx, selectContactQuery, phone).
		Scan(&contact.Phone, &contact.Name, &contact.Thumbnail)
	if err == sql.ErrNoRows {
		return models.Contact{}, false, nil
	}
	if err != nil {
		return models.Contact{}, false, fmt.Errorf("failed to get contact: %w", err)
	}
	return contact, true, nil
}

// SaveSector upserts a sector inside a workspace.
func (d *Database) SaveSector(ctx context.Context, workspaceID string, sector models.Sector) error {
	return retryableDBOperation(ctx, func() error {
		_, err := d.db.ExecContext(ctx, upsertSectorQuery, sector.ID, workspaceID, sector.Name)
		if err != nil {
			return fmt.Errorf("failed to save sector: %w", err)
		}
		return nil
	}, "SaveSector")
}

// GetSector returns the stored sector or (zero, false).
func (d *Database) GetSector(ctx context.Context, id string) (models.Sector, bool, error) {
	var sector models.Sector
	err := d.db.QueryRowContext(ctx, selectSectorQuery, id).Scan(&sector.ID, &sector.Name)
	if err == sql.ErrNoRows {
		return models.Sector{}, false, nil
	}
	if err != nil {
		return models.Sector{}, false, fmt.Errorf("failed to get sector: %w", err)
	}
	return sector, true, nil
}

// SaveUser upserts a platform user.
func (d *Database) SaveUser(ctx context.Context, user *models.User) error {
	return retryableDBOperation(ctx, func() error {
		_, err := d.db.ExecContext(ctx, upsertUserQuery, user.ID, user.Name, user.Email, string(user.Type))
		if err != nil {
			return fmt.Errorf("failed to save user: %w", err)
		}
		return nil
	}, "SaveUser")
}

// GetUser loads a user by id, (nil, nil) when missing.
func (d *Database) GetUser(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	var userType string
	err := d.db.QueryRowContext(ctx, selectUserQuery, id).
		Scan(&user.ID, &user.Name, &user.Email, &userType)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	user.Type = models.UserType(userType)
	return &user, nil
}

// SaveMembership upserts a membership; permissions persist as a JSON array.
func (d *Database) SaveMembership(ctx context.Context, membership *models.Membership) error {
	permissions, err := json.Marshal(membership.Permissions())
	if err != nil {
		return fmt.Errorf("failed to marshal permissions: %w", err)
	}
	return retryableDBOperation(ctx, func() error {
		_, err := d.db.ExecContext(ctx, upsertMembershipQuery,
			membership.ID, membership.WorkspaceID, membership.UserID, string(permissions))
		if err != nil {
			return fmt.Errorf("failed to save membership: %w", err)
		}
		return nil
	}, "SaveMembership")
}

// GetMembership loads a user's membership in a workspace, (nil, nil) when the
// user does not belong to it.
func (d *Database) GetMembership(ctx context.Context, workspaceID, userID string) (*models.Membership, error) {
	var id, wsID, uID, rawPermissions string
	err := d.db.QueryRowContext(ctx, selectMembershipQuery, workspaceID, userID).
		Scan(&id, &wsID, &uID, &rawPermissions)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get membership: %w", err)
	}

	var permissions []models.PolicyName
	if err := json.Unmarshal([]byte(rawPermissions), &permissions); err != nil {
		return nil, fmt.Errorf("failed to unmarshal permissions: %w", err)
	}
	return models.RestoreMembership(id, wsID, uID, permissions), nil
}
