package services

import (
	"errors"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/vsinha/brewerp/pkg/domain/apperror"
	"github.com/vsinha/brewerp/pkg/domain/entities"
	"github.com/vsinha/brewerp/pkg/domain/repositories"
	"github.com/vsinha/brewerp/pkg/infrastructure/events"
)

// Options carries the collaborators every service shares
type Options struct {
	Store     repositories.Store
	Publisher events.Publisher
	Logger    *zap.Logger
	// Clock returns the current time; UTC wall clock when nil
	Clock func() time.Time
}

func (o Options) withDefaults() Options {
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.Clock == nil {
		o.Clock = func() time.Time { return time.Now().UTC() }
	}
	return o
}

// base holds shared service plumbing
type base struct {
	store     repositories.Store
	publisher events.Publisher
	logger    *zap.Logger
	clock     func() time.Time
}

func newBase(opts Options) base {
	opts = opts.withDefaults()
	return base{
		store:     opts.Store,
		publisher: opts.Publisher,
		logger:    opts.Logger,
		clock:     opts.Clock,
	}
}

func (b *base) now() time.Time {
	return b.clock().UTC()
}

// publish delivers events after a commit. Failures are logged: the change is
// already durable and subscribers only derive state from it.
func (b *base) publish(evts ...events.Event) {
	if b.publisher == nil {
		return
	}
	for _, e := range evts {
		if err := b.publisher.Publish(e); err != nil {
			b.logger.Warn("failed to publish event",
				zap.String("event_type", e.Type()),
				zap.String("company_id", e.StreamID()),
				zap.Error(err))
		}
	}
}

// Principal is the authenticated caller. Every service call is scoped to its company.
type Principal struct {
	UserID    string        `json:"user_id"`
	CompanyID string        `json:"company_id"`
	Email     string        `json:"email,omitempty"`
	Role      entities.Role `json:"role"`
	BranchIDs []string      `json:"branch_ids"`
}

// SystemPrincipal acts as an administrator of companyID; used by the CLI and seeding
func SystemPrincipal(companyID string) Principal {
	return Principal{UserID: "system", CompanyID: companyID, Role: entities.RoleAdmin, BranchIDs: []string{}}
}

// Require fails with ErrForbidden when the role lacks perm
func (p Principal) Require(perm entities.Permission) error {
	if !p.Role.Can(perm) {
		return apperror.Forbidden("role %s may not %s", p.Role, perm)
	}
	return nil
}

// CanAccessBranch reports whether the principal may act on branchID
func (p Principal) CanAccessBranch(branchID string) bool {
	return len(p.BranchIDs) == 0 || slices.Contains(p.BranchIDs, branchID)
}

// RequireBranch fails with ErrForbidden when branchID is outside the principal's branches
func (p Principal) RequireBranch(branchID string) error {
	if !p.CanAccessBranch(branchID) {
		return apperror.Forbidden("no access to branch %s", branchID)
	}
	return nil
}

// isNotFound reports whether err means the document does not exist
func isNotFound(err error) bool {
	return errors.Is(err, apperror.ErrNotFound)
}

// must turns a missing reference into a validation error on field
func must(err error, field string) error {
	if isNotFound(err) {
		return apperror.Invalid(field, "does not exist")
	}
	return err
}

// allPages walks a paged listing until a short page
func allPages[T any](list func(opts repositories.ListOptions) ([]T, error)) ([]T, error) {
	var out []T
	opts := repositories.ListOptions{Limit: repositories.MaxListLimit}
	for {
		page, err := list(opts)
		if err != nil {
			return nil, err
		}
		out = append(out, page...)
		if len(page) < opts.Limit {
			return out, nil
		}
		opts.Offset += len(page)
	}
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}
