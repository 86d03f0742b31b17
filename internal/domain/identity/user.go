// Package identity contains the user aggregate and role definitions.
package identity

import (
	"strings"

	"github.com/farmtohome/backend/internal/domain/shared"
)

// Role defines what a user may do in the marketplace
type Role string

const (
	RoleCustomer Role = "customer"
	RoleFarmer   Role = "farmer"
	RoleAdmin    Role = "admin"
)

// IsValid checks if the role is one of the defined roles
func (r Role) IsValid() bool {
	switch r {
	case RoleCustomer, RoleFarmer, RoleAdmin:
		return true
	}
	return false
}

// User is a registered account: a customer, a farmer, or an admin
type User struct {
	shared.BaseAggregateRoot
	Name         string `gorm:"size:120;not null"`
	Email        string `gorm:"size:255;not null;uniqueIndex"`
	Phone        string `gorm:"size:20"`
	PasswordHash string `gorm:"size:255;not null"`
	Role         Role   `gorm:"size:20;not null;index"`
	IsActive     bool   `gorm:"not null;default:true"`
}

// TableName returns the database table name
func (User) TableName() string {
	return "users"
}

// NewUser creates a new active user with an already-hashed password
func NewUser(name, email, phone, passwordHash string, role Role) (*User, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))

	if name == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Name is required")
	}
	if email == "" || !strings.Contains(email, "@") {
		return nil, shared.NewDomainError("INVALID_INPUT", "A valid email is required")
	}
	if passwordHash == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Password hash is required")
	}
	if !role.IsValid() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Role must be customer, farmer or admin")
	}

	return &User{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		Email:             email,
		Phone:             strings.TrimSpace(phone),
		PasswordHash:      passwordHash,
		Role:              role,
		IsActive:          true,
	}, nil
}

// Deactivate suspends the account
func (u *User) Deactivate() {
	u.IsActive = false
}

// Activate re-enables a suspended account
func (u *User) Activate() {
	u.IsActive = true
}

// ChangePassword replaces the stored password hash
func (u *User) ChangePassword(passwordHash string) error {
	if passwordHash == "" {
		return shared.NewDomainError("INVALID_INPUT", "Password hash is required")
	}
	u.PasswordHash = passwordHash
	return nil
}

// IsCustomer reports whether the user is a customer
func (u *User) IsCustomer() bool { return u.Role == RoleCustomer }

// IsFarmer reports whether the user is a farmer
func (u *User) IsFarmer() bool { return u.Role == RoleFarmer }

// IsAdmin reports whether the user is an admin
func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }
