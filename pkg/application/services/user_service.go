package services

import (
	"context"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/vsinha/brewerp/pkg/application/dto"
	"github.com/vsinha/brewerp/pkg/domain/apperror"
	"github.com/vsinha/brewerp/pkg/domain/entities"
	"github.com/vsinha/brewerp/pkg/domain/repositories"
	"github.com/vsinha/brewerp/pkg/infrastructure/config"
)

// UserService is the admin view of the company's users
type UserService struct {
	base
	cost int
}

// NewUserService creates a new user service
func NewUserService(opts Options, cfg config.AuthConfig) *UserService {
	cost := cfg.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &UserService{base: newBase(opts), cost: cost}
}

func checkBranches(ctx context.Context, repos repositories.Repositories, companyID string, ids []string) error {
	for _, id := range ids {
		if _, err := repos.Branches().GetBranch(ctx, companyID, id); err != nil {
			if isNotFound(err) {
				return apperror.Invalid("branch_ids", "branch %s does not exist", id)
			}
			return err
		}
	}
	return nil
}

func (s *UserService) ListUsers(ctx context.Context, p Principal, opts repositories.ListOptions) ([]*entities.User, error) {
	if err := p.Require(entities.PermManageUsers); err != nil {
		return nil, err
	}
	return s.store.Users().ListUsers(ctx, p.CompanyID, opts)
}

func (s *UserService) GetUser(ctx context.Context, p Principal, id string) (*entities.User, error) {
	if err := p.Require(entities.PermManageUsers); err != nil {
		return nil, err
	}
	return s.store.Users().GetUser(ctx, p.CompanyID, id)
}

// CreateUser adds a user to the company. Emails are unique across all companies.
func (s *UserService) CreateUser(ctx context.Context, p Principal, in dto.UserInput) (*entities.User, error) {
	if err := p.Require(entities.PermManageUsers); err != nil {
		return nil, err
	}
	user, err := entities.NewUser(p.CompanyID, in.Email, in.Name, in.Role, in.BranchIDs, s.now())
	if err != nil {
		return nil, err
	}
	user.Active = boolOr(in.Active, true)
	if user.PasswordHash, err = hashPassword(in.Password, s.cost); err != nil {
		return nil, err
	}

	err = s.store.WithTx(ctx, func(ctx context.Context, tx repositories.Repositories) error {
		if err := checkBranches(ctx, tx, p.CompanyID, user.BranchIDs); err != nil {
			return err
		}
		return tx.Users().CreateUser(ctx, user)
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// UpdateUser edits a user. Admins cannot demote or deactivate themselves.
// The password is changed through the auth service.
func (s *UserService) UpdateUser(ctx context.Context, p Principal, id string, in dto.UserInput) (*entities.User, error) {
	if err := p.Require(entities.PermManageUsers); err != nil {
		return nil, err
	}

	var user *entities.User
	err := s.store.WithTx(ctx, func(ctx context.Context, tx repositories.Repositories) error {
		var err error
		if user, err = tx.Users().GetUser(ctx, p.CompanyID, id); err != nil {
			return err
		}
		active := boolOr(in.Active, user.Active)
		if id == p.UserID {
			if in.Role != user.Role {
				return apperror.Invalid("role", "you cannot change your own role")
			}
			if !active {
				return apperror.Invalid("active", "you cannot deactivate yourself")
			}
		}

		user.Email = entities.NormalizeEmail(in.Email)
		user.Name = strings.TrimSpace(in.Name)
		user.Role = in.Role
		user.BranchIDs = in.BranchIDs
		if user.BranchIDs == nil {
			user.BranchIDs = []string{}
		}
		user.Active = active
		user.UpdatedAt = s.now()
		if err := user.Validate(); err != nil {
			return err
		}
		if err := checkBranches(ctx, tx, p.CompanyID, user.BranchIDs); err != nil {
			return err
		}
		if err := tx.Users().UpdateUser(ctx, user); err != nil {
			return err
		}
		if !user.Active {
			return tx.Sessions().DeleteUserSessions(ctx, user.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// DeleteUser removes a user and their sessions
func (s *UserService) DeleteUser(ctx context.Context, p Principal, id string) error {
	if err := p.Require(entities.PermManageUsers); err != nil {
		return err
	}
	if id == p.UserID {
		return apperror.InvalidState("you cannot delete yourself")
	}
	return s.store.Users().DeleteUser(ctx, p.CompanyID, id)
}
