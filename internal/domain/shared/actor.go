package shared

import (
	"context"

	"github.com/google/uuid"
)

// Role is the caller's role within a tenant
type Role string

const (
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
	RoleViewer Role = "viewer"
)

// Actor identifies who performs an operation. Every use case takes one
// explicitly, so tenant scoping never depends on ambient state.
type Actor struct {
	TenantID    uuid.UUID
	UserID      uuid.UUID
	DisplayName string
	Role        Role
}

// NewActor builds an actor, defaulting the role to member
func NewActor(tenantID, userID uuid.UUID, displayName string, role Role) Actor {
	if role == "" {
		role = RoleMember
	}
	return Actor{TenantID: tenantID, UserID: userID, DisplayName: displayName, Role: role}
}

// Validate checks that the actor carries a tenant and a user
func (a Actor) Validate() error {
	if a.TenantID == uuid.Nil {
		return NewAuthorizationError("MISSING_TENANT", "Tenant is required")
	}
	if a.UserID == uuid.Nil {
		return NewAuthorizationError("MISSING_USER", "User is required")
	}
	return nil
}

// PermissionChecker decides whether an actor may perform a class of action
type PermissionChecker interface {
	RequireWritePermission(ctx context.Context, actor Actor) error
	RequireApprovePermission(ctx context.Context, actor Actor) error
}

// RolePermissions grants write access to every role except viewer and
// approval to owners and admins.
type RolePermissions struct{}

// RequireWritePermission implements PermissionChecker
func (RolePermissions) RequireWritePermission(_ context.Context, actor Actor) error {
	if err := actor.Validate(); err != nil {
		return err
	}
	if actor.Role == RoleViewer {
		return NewAuthorizationError("WRITE_FORBIDDEN", "Viewers cannot modify data")
	}
	return nil
}

// RequireApprovePermission implements PermissionChecker
func (RolePermissions) RequireApprovePermission(_ context.Context, actor Actor) error {
	if err := actor.Validate(); err != nil {
		return err
	}
	if actor.Role != RoleOwner && actor.Role != RoleAdmin {
		return NewAuthorizationError("APPROVE_FORBIDDEN", "Only owners and admins can approve purchase orders")
	}
	return nil
}
