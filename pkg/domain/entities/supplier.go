package entities

import (
	"strings"
	"time"

	"github.com/vsinha/brewerp/pkg/domain/apperror"
)

// Supplier is a vendor purchase orders are placed with
type Supplier struct {
	ID           string    `json:"id"`
	CompanyID    string    `json:"company_id"`
	Code         string    `json:"code"`
	Name         string    `json:"name"`
	Email        string    `json:"email,omitempty"`
	Phone        string    `json:"phone,omitempty"`
	LeadTimeDays int       `json:"lead_time_days"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Normalize canonicalizes codes before validation
func (s *Supplier) Normalize() {
	s.Code = NormalizeCode(s.Code)
	s.Name = strings.TrimSpace(s.Name)
	s.Email = NormalizeEmail(s.Email)
	s.Phone = strings.TrimSpace(s.Phone)
}

// Validate checks the supplier fields
func (s *Supplier) Validate() error {
	v := apperror.NewValidationError()
	if s.CompanyID == "" {
		v.Add("company_id", "is required")
	}
	if !validCode(s.Code) {
		v.Add("code", "must be 1-32 characters of A-Z, 0-9, '-' or '_'")
	}
	if s.Name == "" {
		v.Add("name", "is required")
	}
	if s.Email != "" && !validEmail(s.Email) {
		v.Add("email", "must be a valid email address")
	}
	if s.LeadTimeDays < 0 {
		v.Add("lead_time_days", "cannot be negative")
	}
	return v.Err()
}
