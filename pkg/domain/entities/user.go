package entities

import (
	"slices"
	"strings"
	"time"

	"github.com/vsinha/brewerp/pkg/domain/apperror"
)

// Role is the coarse permission level of a user inside their company
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleStaff   Role = "staff"
	RoleViewer  Role = "viewer"
)

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleStaff, RoleViewer:
		return true
	}
	return false
}

// Permission names an action guarded by role
type Permission string

const (
	PermRead            Permission = "read"
	PermManageTenant    Permission = "manage_tenant"
	PermManageUsers     Permission = "manage_users"
	PermManageMaster    Permission = "manage_master"
	PermManagePurchases Permission = "manage_purchases"
	PermApprovePurchase Permission = "approve_purchase"
	PermReceiveGoods    Permission = "receive_goods"
	PermMoveStock       Permission = "move_stock"
	PermViewReports     Permission = "view_reports"
)

var rolePermissions = map[Role][]Permission{
	RoleAdmin: {
		PermRead, PermManageTenant, PermManageUsers, PermManageMaster, PermManagePurchases,
		PermApprovePurchase, PermReceiveGoods, PermMoveStock, PermViewReports,
	},
	RoleManager: {
		PermRead, PermManageMaster, PermManagePurchases, PermApprovePurchase,
		PermReceiveGoods, PermMoveStock, PermViewReports,
	},
	RoleStaff:  {PermRead, PermReceiveGoods, PermMoveStock},
	RoleViewer: {PermRead, PermViewReports},
}

// Can reports whether the role grants p
func (r Role) Can(p Permission) bool {
	return slices.Contains(rolePermissions[r], p)
}

// User is a login belonging to a company
type User struct {
	ID           string    `json:"id"`
	CompanyID    string    `json:"company_id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Role         Role      `json:"role"`
	BranchIDs    []string  `json:"branch_ids"`
	PasswordHash string    `json:"-"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NewUser creates a validated, active User. The password hash is set by the caller.
func NewUser(companyID, email, name string, role Role, branchIDs []string, now time.Time) (*User, error) {
	if branchIDs == nil {
		branchIDs = []string{}
	}
	u := &User{
		ID:        NewID(),
		CompanyID: companyID,
		Email:     NormalizeEmail(email),
		Name:      strings.TrimSpace(name),
		Role:      role,
		BranchIDs: branchIDs,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := u.Validate(); err != nil {
		return nil, err
	}
	return u, nil
}

// Validate checks the user fields
func (u *User) Validate() error {
	v := apperror.NewValidationError()
	if u.CompanyID == "" {
		v.Add("company_id", "is required")
	}
	if !validEmail(u.Email) {
		v.Add("email", "must be a valid email address")
	}
	if u.Name == "" {
		v.Add("name", "is required")
	}
	if !u.Role.Valid() {
		v.Add("role", "must be one of admin, manager, staff, viewer")
	}
	seen := make(map[string]bool, len(u.BranchIDs))
	for _, id := range u.BranchIDs {
		if id == "" || seen[id] {
			v.Add("branch_ids", "must be distinct, non-empty branch ids")
			break
		}
		seen[id] = true
	}
	return v.Err()
}

// CanAccessBranch reports whether the user may act on branchID.
// Users without a branch list may access every branch of their company.
func (u *User) CanAccessBranch(branchID string) bool {
	return len(u.BranchIDs) == 0 || slices.Contains(u.BranchIDs, branchID)
}

// Session is a stored bearer token. Only the token hash is persisted.
type Session struct {
	TokenHash string    `json:"-"`
	UserID    string    `json:"user_id"`
	CompanyID string    `json:"company_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the session is no longer valid at now
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// MinPasswordLength is the shortest accepted password
const MinPasswordLength = 8

// ValidatePassword checks password strength rules
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return apperror.Invalid("password", "must be at least %d characters", MinPasswordLength)
	}
	if len(password) > 72 {
		return apperror.Invalid("password", "must be at most 72 bytes")
	}
	return nil
}
