package entities

import (
	"strings"
	"time"

	"golang.org/x/text/currency"

	"github.com/vsinha/brewerp/pkg/domain/apperror"
)

// DefaultCurrency is used when a company is registered without one
const DefaultCurrency = "USD"

// Company is the tenant boundary. Every other document belongs to exactly one company.
type Company struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Code      string    `json:"code"`
	Currency  string    `json:"currency"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewCompany creates a validated, active Company
func NewCompany(name, code, currencyCode string, now time.Time) (*Company, error) {
	if strings.TrimSpace(currencyCode) == "" {
		currencyCode = DefaultCurrency
	}
	c := &Company{
		ID:        NewID(),
		Name:      strings.TrimSpace(name),
		Code:      NormalizeCode(code),
		Currency:  strings.ToUpper(strings.TrimSpace(currencyCode)),
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks the company fields
func (c *Company) Validate() error {
	v := apperror.NewValidationError()
	if c.Name == "" {
		v.Add("name", "is required")
	} else if len(c.Name) > 200 {
		v.Add("name", "must be at most 200 characters")
	}
	if !validCode(c.Code) {
		v.Add("code", "must be 1-32 characters of A-Z, 0-9, '-' or '_'")
	}
	if !ValidCurrency(c.Currency) {
		v.Add("currency", "must be an ISO 4217 currency code")
	}
	return v.Err()
}

// ValidCurrency reports whether code is a known ISO 4217 currency
func ValidCurrency(code string) bool {
	if len(code) != 3 {
		return false
	}
	_, err := currency.ParseISO(code)
	return err == nil
}

// Country groups branches that share a jurisdiction and currency
type Country struct {
	ID        string    `json:"id"`
	CompanyID string    `json:"company_id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Currency  string    `json:"currency"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewCountry creates a validated Country
func NewCountry(companyID, code, name, currencyCode string, now time.Time) (*Country, error) {
	c := &Country{
		ID:        NewID(),
		CompanyID: companyID,
		Code:      NormalizeCode(code),
		Name:      strings.TrimSpace(name),
		Currency:  strings.ToUpper(strings.TrimSpace(currencyCode)),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks the country fields
func (c *Country) Validate() error {
	v := apperror.NewValidationError()
	if c.CompanyID == "" {
		v.Add("company_id", "is required")
	}
	if len(c.Code) != 2 || !isUpperAlpha(c.Code) {
		v.Add("code", "must be an ISO 3166 alpha-2 code")
	}
	if c.Name == "" {
		v.Add("name", "is required")
	}
	if !ValidCurrency(c.Currency) {
		v.Add("currency", "must be an ISO 4217 currency code")
	}
	return v.Err()
}

func isUpperAlpha(s string) bool {
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

// Branch is a physical site (brewery, taproom, warehouse) holding stock
type Branch struct {
	ID        string    `json:"id"`
	CompanyID string    `json:"company_id"`
	CountryID string    `json:"country_id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Address   string    `json:"address,omitempty"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewBranch creates a validated, active Branch
func NewBranch(companyID, countryID, code, name, address string, now time.Time) (*Branch, error) {
	b := &Branch{
		ID:        NewID(),
		CompanyID: companyID,
		CountryID: countryID,
		Code:      NormalizeCode(code),
		Name:      strings.TrimSpace(name),
		Address:   strings.TrimSpace(address),
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}

// Validate checks the branch fields
func (b *Branch) Validate() error {
	v := apperror.NewValidationError()
	if b.CompanyID == "" {
		v.Add("company_id", "is required")
	}
	if b.CountryID == "" {
		v.Add("country_id", "is required")
	}
	if !validCode(b.Code) {
		v.Add("code", "must be 1-32 characters of A-Z, 0-9, '-' or '_'")
	}
	if b.Name == "" {
		v.Add("name", "is required")
	}
	return v.Err()
}
