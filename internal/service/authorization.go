package service

import (
	"context"

	apperrors "github.com/Doxa-Code/omnichannel/internal/errors"
	"github.com/Doxa-Code/omnichannel/internal/models"
)

// AuthorizationService answers whether a user may perform an operation inside
// a workspace. Superusers bypass membership checks entirely.
type AuthorizationService struct {
	store Store
}

func NewAuthorizationService(store Store) *AuthorizationService {
	return &AuthorizationService{store: store}
}

// Authorize returns nil when the user holds the permission in the workspace.
// Unknown users, non-members and missing permissions all map to
// NOT_AUTHORIZED; the caller never learns which.
func (s *AuthorizationService) Authorize(ctx context.Context, workspaceID, userID string, permission models.PolicyName) error {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return apperrors.NewDatabaseError("get user", err)
	}
	if user == nil {
		return apperrors.NewNotAuthorized("unknown user")
	}
	if user.IsSuperUser() {
		return nil
	}

	membership, err := s.store.GetMembership(ctx, workspaceID, userID)
	if err != nil {
		return apperrors.NewDatabaseError("get membership", err)
	}
	if membership == nil {
		return apperrors.NewNotAuthorized("user is not a workspace member")
	}
	if !membership.HasPermission(permission) {
		return apperrors.NewNotAuthorized("missing permission " + string(permission))
	}
	return nil
}
