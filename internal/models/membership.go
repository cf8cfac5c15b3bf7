package models

import (
	"github.com/google/uuid"

	apperrors "github.com/Doxa-Code/omnichannel/internal/errors"
)

// PolicyName names a permission grantable to a workspace member.
type PolicyName string

const (
	PolicySendMessage       PolicyName = "send:message"
	PolicyCloseConversation PolicyName = "close:conversation"
	PolicyViewConversations PolicyName = "view:conversations"
	PolicyManageCarts       PolicyName = "manage:carts"
	PolicyManageConnections PolicyName = "manage:connections"
)

// Membership scopes a user's authority within one workspace.
type Membership struct {
	ID          string
	UserID      string
	WorkspaceID string

	permissions map[PolicyName]struct{}
}

// NewMembership creates a membership with no permissions.
func NewMembership(workspaceID, userID string) (*Membership, error) {
	if workspaceID == "" || userID == "" {
		return nil, apperrors.NewInvalidCreation("membership")
	}
	return &Membership{
		ID:          uuid.NewString(),
		UserID:      userID,
		WorkspaceID: workspaceID,
		permissions: make(map[PolicyName]struct{}),
	}, nil
}

// RestoreMembership rebuilds a persisted membership.
func RestoreMembership(id, workspaceID, userID string, permissions []PolicyName) *Membership {
	m := &Membership{
		ID:          id,
		UserID:      userID,
		WorkspaceID: workspaceID,
		permissions: make(map[PolicyName]struct{}, len(permissions)),
	}
	for _, p := range permissions {
		m.permissions[p] = struct{}{}
	}
	return m
}

func (m *Membership) AddPermission(permission PolicyName) {
	m.permissions[permission] = struct{}{}
}

func (m *Membership) HasPermission(permission PolicyName) bool {
	_, ok := m.permissions[permission]
	return ok
}

// Permissions returns the granted permissions in unspecified order.
func (m *Membership) Permissions() []PolicyName {
	out := make([]PolicyName, 0, len(m.permissions))
	for p := range m.permissions {
		out = append(out, p)
	}
	return out
}

// UserType classifies a platform user.
type UserType string

const (
	UserTypeSystem    UserType = "system"
	UserTypeRegular   UserType = "user"
	UserTypeSuperuser UserType = "superuser"
)

// User is a platform operator account.
type User struct {
	ID    string
	Name  string
	Email string
	Type  UserType
}

func NewUser(name, email string, userType UserType) (*User, error) {
	if name == "" || email == "" {
		return nil, apperrors.NewInvalidCreation("user")
	}
	if userType == "" {
		userType = UserTypeRegular
	}
	return &User{ID: uuid.NewString(), Name: name, Email: email, Type: userType}, nil
}

// IsSuperUser reports whether the user bypasses membership permission checks.
func (u *User) IsSuperUser() bool {
	return u.Type == UserTypeSuperuser
}
