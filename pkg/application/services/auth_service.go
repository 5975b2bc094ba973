package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/vsinha/brewerp/pkg/application/dto"
	"github.com/vsinha/brewerp/pkg/domain/apperror"
	"github.com/vsinha/brewerp/pkg/domain/entities"
	"github.com/vsinha/brewerp/pkg/domain/repositories"
	"github.com/vsinha/brewerp/pkg/infrastructure/config"
)

var errBadCredentials = errors.New("invalid email or password")

// AuthService registers tenants and manages bearer-token sessions
type AuthService struct {
	base
	cfg config.AuthConfig

	dummyOnce sync.Once
	dummy     []byte
}

// NewAuthService creates a new auth service
func NewAuthService(opts Options, cfg config.AuthConfig) *AuthService {
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	return &AuthService{base: newBase(opts), cfg: cfg}
}

// HashToken is the session key stored for a bearer token
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func hashPassword(password string, cost int) (string, error) {
	if err := entities.ValidatePassword(password); err != nil {
		return "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// RegisterCompany creates a tenant and its first admin user in one transaction
func (s *AuthService) RegisterCompany(ctx context.Context, in dto.RegisterCompanyInput) (*dto.RegisterResult, error) {
	now := s.now()
	v := apperror.NewValidationError()

	company, err := entities.NewCompany(in.CompanyName, in.CompanyCode, in.Currency, now)
	if err != nil {
		v.Merge("company", err)
	}
	// A throwaway id keeps admin validation independent of company errors.
	companyID := entities.NewID()
	if company != nil {
		companyID = company.ID
	}
	user, err := entities.NewUser(companyID, in.AdminEmail, in.AdminName, entities.RoleAdmin, nil, now)
	if err != nil {
		v.Merge("admin", err)
	}
	hash, err := hashPassword(in.Password, s.cfg.BcryptCost)
	if err != nil {
		v.Merge("admin", err)
	}
	if err := v.Err(); err != nil {
		return nil, err
	}
	user.PasswordHash = hash

	err = s.store.WithTx(ctx, func(ctx context.Context, tx repositories.Repositories) error {
		if err := tx.Companies().CreateCompany(ctx, company); err != nil {
			return err
		}
		return tx.Users().CreateUser(ctx, user)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("company registered",
		zap.String("company_id", company.ID),
		zap.String("code", company.Code))
	return &dto.RegisterResult{Company: company, User: user}, nil
}

// Login checks credentials and opens a session. The returned token is only
// ever known to the caller; the store keeps its hash. Every credential failure
// reports the same error.
func (s *AuthService) Login(ctx context.Context, in dto.LoginInput) (*dto.LoginResult, error) {
	user, err := s.store.Users().GetUserByEmail(ctx, entities.NormalizeEmail(in.Email))
	switch {
	case isNotFound(err):
		// Spend the same time as a real comparison.
		_ = bcrypt.CompareHashAndPassword(s.dummyHash(), []byte(in.Password))
		return nil, unauthorized(errBadCredentials)
	case err != nil:
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return nil, unauthorized(errBadCredentials)
	}
	if !user.Active {
		return nil, unauthorized(errBadCredentials)
	}
	company, err := s.store.Companies().GetCompany(ctx, user.CompanyID)
	if err != nil {
		return nil, err
	}
	if !company.Active {
		return nil, unauthorized(errBadCredentials)
	}

	now := s.now()
	if _, err := s.store.Sessions().DeleteExpiredSessions(ctx, now); err != nil {
		s.logger.Warn("failed to purge expired sessions", zap.Error(err))
	}

	token := uuid.NewString()
	session := &entities.Session{
		TokenHash: HashToken(token),
		UserID:    user.ID,
		CompanyID: user.CompanyID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.cfg.TokenTTL),
	}
	if err := s.store.Sessions().CreateSession(ctx, session); err != nil {
		return nil, err
	}

	s.logger.Info("user logged in",
		zap.String("company_id", user.CompanyID),
		zap.String("user_id", user.ID))
	return &dto.LoginResult{
		Token:     token,
		ExpiresAt: session.ExpiresAt.Format(time.RFC3339),
		User:      user,
	}, nil
}

func (s *AuthService) dummyHash() []byte {
	s.dummyOnce.Do(func() {
		s.dummy, _ = bcrypt.GenerateFromPassword([]byte("brewerp-dummy-password"), s.cfg.BcryptCost)
	})
	return s.dummy
}

func unauthorized(reason error) error {
	return fmt.Errorf("%v: %w", reason, apperror.ErrUnauthorized)
}

// Authenticate resolves a bearer token to its principal
func (s *AuthService) Authenticate(ctx context.Context, token string) (Principal, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Principal{}, unauthorized(errors.New("missing token"))
	}
	session, err := s.store.Sessions().GetSession(ctx, HashToken(token))
	switch {
	case isNotFound(err):
		return Principal{}, unauthorized(errors.New("invalid token"))
	case err != nil:
		return Principal{}, err
	}
	if session.Expired(s.now()) {
		return Principal{}, unauthorized(errors.New("session expired"))
	}

	user, err := s.store.Users().GetUser(ctx, session.CompanyID, session.UserID)
	switch {
	case isNotFound(err):
		return Principal{}, unauthorized(errors.New("invalid token"))
	case err != nil:
		return Principal{}, err
	}
	if !user.Active {
		return Principal{}, unauthorized(errors.New("user is inactive"))
	}
	company, err := s.store.Companies().GetCompany(ctx, user.CompanyID)
	if err != nil {
		return Principal{}, err
	}
	if !company.Active {
		return Principal{}, unauthorized(errors.New("company is inactive"))
	}

	return Principal{
		UserID:    user.ID,
		CompanyID: user.CompanyID,
		Email:     user.Email,
		Role:      user.Role,
		BranchIDs: user.BranchIDs,
	}, nil
}

// Logout ends the session of token
func (s *AuthService) Logout(ctx context.Context, token string) error {
	err := s.store.Sessions().DeleteSession(ctx, HashToken(strings.TrimSpace(token)))
	if isNotFound(err) {
		return nil
	}
	return err
}

// Me returns the user behind the principal
func (s *AuthService) Me(ctx context.Context, p Principal) (*entities.User, error) {
	return s.store.Users().GetUser(ctx, p.CompanyID, p.UserID)
}

// ChangePassword replaces the caller's password and signs out every session
func (s *AuthService) ChangePassword(ctx context.Context, p Principal, in dto.ChangePasswordInput) error {
	hash, err := hashPassword(in.NewPassword, s.cfg.BcryptCost)
	if err != nil {
		return apperror.Invalid("new_password", "must be %d to 72 characters", entities.MinPasswordLength)
	}

	return s.store.WithTx(ctx, func(ctx context.Context, tx repositories.Repositories) error {
		user, err := tx.Users().GetUser(ctx, p.CompanyID, p.UserID)
		if err != nil {
			return err
		}
		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.OldPassword)); err != nil {
			return apperror.Invalid("old_password", "is incorrect")
		}
		user.PasswordHash = hash
		user.UpdatedAt = s.now()
		if err := tx.Users().UpdateUser(ctx, user); err != nil {
			return err
		}
		return tx.Sessions().DeleteUserSessions(ctx, user.ID)
	})
}

// PurgeExpiredSessions deletes sessions that expired before now
func (s *AuthService) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	n, err := s.store.Sessions().DeleteExpiredSessions(ctx, s.now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Debug("expired sessions purged", zap.Int64("count", n))
	}
	return n, nil
}
