package repositories

import (
	"context"
	"time"

	"github.com/vsinha/brewerp/pkg/domain/entities"
)

// CompanyRepository provides access to tenants
type CompanyRepository interface {
	CreateCompany(ctx context.Context, company *entities.Company) error
	GetCompany(ctx context.Context, id string) (*entities.Company, error)
	GetCompanyByCode(ctx context.Context, code string) (*entities.Company, error)
	UpdateCompany(ctx context.Context, company *entities.Company) error
	ListCompanies(ctx context.Context, activeOnly bool) ([]*entities.Company, error)
}

// CountryRepository provides access to the countries of a company
type CountryRepository interface {
	CreateCountry(ctx context.Context, country *entities.Country) error
	GetCountry(ctx context.Context, companyID, id string) (*entities.Country, error)
	UpdateCountry(ctx context.Context, country *entities.Country) error
	DeleteCountry(ctx context.Context, companyID, id string) error
	ListCountries(ctx context.Context, companyID string) ([]*entities.Country, error)
}

// BranchRepository provides access to the branches of a company
type BranchRepository interface {
	CreateBranch(ctx context.Context, branch *entities.Branch) error
	GetBranch(ctx context.Context, companyID, id string) (*entities.Branch, error)
	GetBranchByCode(ctx context.Context, companyID, code string) (*entities.Branch, error)
	UpdateBranch(ctx context.Context, branch *entities.Branch) error
	DeleteBranch(ctx context.Context, companyID, id string) error
	ListBranches(ctx context.Context, companyID string) ([]*entities.Branch, error)
}

// UserRepository provides access to users
type UserRepository interface {
	CreateUser(ctx context.Context, user *entities.User) error
	GetUser(ctx context.Context, companyID, id string) (*entities.User, error)
	// GetUserByEmail looks a user up across all companies; emails are globally unique.
	GetUserByEmail(ctx context.Context, email string) (*entities.User, error)
	UpdateUser(ctx context.Context, user *entities.User) error
	DeleteUser(ctx context.Context, companyID, id string) error
	ListUsers(ctx context.Context, companyID string, opts ListOptions) ([]*entities.User, error)
}

// SessionRepository stores bearer-token sessions
type SessionRepository interface {
	CreateSession(ctx context.Context, session *entities.Session) error
	GetSession(ctx context.Context, tokenHash string) (*entities.Session, error)
	DeleteSession(ctx context.Context, tokenHash string) error
	DeleteUserSessions(ctx context.Context, userID string) error
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}
