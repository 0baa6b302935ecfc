package domain

import (
	"strings"
	"time"
)

// Role is the single source of truth for authorization.
type Role string

const (
	RoleUser      Role = "user"
	RoleAdmin     Role = "admin"
	RoleSuperuser Role = "superuser"
)

// ParseRole validates a role string.
func ParseRole(raw string) (Role, bool) {
	switch Role(strings.TrimSpace(strings.ToLower(raw))) {
	case RoleUser:
		return RoleUser, true
	case RoleAdmin:
		return RoleAdmin, true
	case RoleSuperuser:
		return RoleSuperuser, true
	}
	return "", false
}

// User is an account that files or triages tickets.
type User struct {
	ID           int64
	Username     string
	Email        string
	FirstName    string
	LastName     string
	PasswordHash string
	DepartmentID *int64
	Role         Role
	IsActive     bool
	// PlatformSuperuser is the imported legacy flag. It only matters to ReconcileRole.
	PlatformSuperuser bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// IsSuperuser reports whether the user may triage tickets.
func (u *User) IsSuperuser() bool {
	return u != nil && u.Role == RoleSuperuser
}

// IsStaff reports whether the user receives staff notifications.
func (u *User) IsStaff() bool {
	return u != nil && (u.Role == RoleAdmin || u.Role == RoleSuperuser)
}

// DisplayName is "first last" when a first name is set, otherwise the username.
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	if strings.TrimSpace(u.FirstName) != "" {
		return strings.TrimSpace(u.FirstName + " " + u.LastName)
	}
	return u.Username
}

// ReconcileRole folds the legacy platform flag into the domain role.
func ReconcileRole(role Role, platformSuperuser bool) Role {
	if platformSuperuser {
		return RoleSuperuser
	}
	if _, ok := ParseRole(string(role)); !ok {
		return RoleUser
	}
	return role
}
