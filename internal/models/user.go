package models

import "slices"

// Permission is a console capability granted through the user's roles.
type Permission string

const (
	PermViewDashboard Permission = "VIEW_DASHBOARD"
	PermManageConfig  Permission = "MANAGE_CONFIG"
	PermViewResults   Permission = "VIEW_RESULTS"
	PermManageUsers   Permission = "MANAGE_USERS"
	PermCreateOrder   Permission = "CREATE_ORDER"
	PermViewOrders    Permission = "VIEW_ORDERS"
)

// User is the authenticated account returned by /auth/login and /auth/me.
type User struct {
	ID              any          `json:"id"`
	Name            string       `json:"name"`
	Email           string       `json:"email"`
	Username        string       `json:"username,omitempty"`
	Role            string       `json:"role,omitempty"`
	Department      string       `json:"department,omitempty"`
	Permissions     []Permission `json:"permissions,omitempty"`
	PermissionCodes []Permission `json:"permissionCodes,omitempty"`
	RoleCodes       []string     `json:"roleCodes,omitempty"`
}

// EffectivePermissions returns the explicit permission list, or the permission
// codes granted through roles when the former is empty.
func (u *User) EffectivePermissions() []Permission {
	if u == nil {
		return nil
	}
	if len(u.Permissions) > 0 {
		return u.Permissions
	}
	return u.PermissionCodes
}

// HasPermission reports whether the user holds perm.
func (u *User) HasPermission(perm Permission) bool {
	return slices.Contains(u.EffectivePermissions(), perm)
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password,omitempty"`
}

// LoginResponse is the payload of a successful login.
type LoginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}
