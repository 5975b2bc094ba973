package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vsinha/brewerp/pkg/application/dto"
	"github.com/vsinha/brewerp/pkg/domain/apperror"
	"github.com/vsinha/brewerp/pkg/domain/entities"
	"github.com/vsinha/brewerp/pkg/domain/repositories"
	domain "github.com/vsinha/brewerp/pkg/domain/services"
	"github.com/vsinha/brewerp/pkg/infrastructure/events"
)

// AlertOutcome is what an evaluation did to the alert of one (branch, item) pair
type AlertOutcome int

const (
	AlertUnchanged AlertOutcome = iota
	AlertRaised
	AlertRefreshed
	AlertResolved
)

// AlertService raises and resolves low-stock alerts
type AlertService struct {
	base
	handler *alertHandler
}

// NewAlertService creates a new alert service
func NewAlertService(opts Options) *AlertService {
	s := &AlertService{base: newBase(opts)}
	s.handler = &alertHandler{service: s}
	return s
}

// Evaluate compares the on-hand balance of an item at a branch with its
// reorder level. It raises an alert when the balance is at or below the level
// and none is open, refreshes an open alert that still applies, and resolves
// one that no longer does. Inactive items and branches never keep an alert open.
func (s *AlertService) Evaluate(ctx context.Context, companyID, branchID, itemID string) (AlertOutcome, error) {
	var (
		outcome = AlertUnchanged
		alert   *entities.LowStockAlert
	)
	err := s.store.WithTx(ctx, func(ctx context.Context, tx repositories.Repositories) error {
		item, err := tx.Items().GetItem(ctx, companyID, itemID)
		if err != nil {
			return err
		}
		branch, err := tx.Branches().GetBranch(ctx, companyID, branchID)
		if err != nil {
			return err
		}

		onHand := decimal.Zero
		bal, err := tx.Stock().GetBalance(ctx, companyID, branchID, itemID)
		switch {
		case err == nil:
			onHand = bal.Quantity
		case !isNotFound(err):
			return err
		}

		open, err := tx.Alerts().GetOpenAlert(ctx, companyID, branchID, itemID)
		if err != nil && !isNotFound(err) {
			return err
		}

		now := s.now()
		below := item.Active && branch.Active && domain.BelowReorderLevel(item, onHand)
		switch {
		case below && open == nil:
			alert = &entities.LowStockAlert{
				ID:           entities.NewID(),
				CompanyID:    companyID,
				BranchID:     branchID,
				ItemID:       itemID,
				Quantity:     onHand,
				ReorderLevel: item.ReorderLevel,
				SuggestedQty: domain.SuggestOrderQty(item, onHand),
				Status:       entities.AlertOpen,
				RaisedAt:     now,
			}
			if err := tx.Alerts().CreateAlert(ctx, alert); err != nil {
				if errors.Is(err, apperror.ErrConflict) {
					// Raised concurrently by another evaluation.
					return nil
				}
				return err
			}
			outcome = AlertRaised
		case below:
			if open.Quantity.Equal(onHand) && open.ReorderLevel.Equal(item.ReorderLevel) {
				return nil
			}
			open.Quantity = onHand
			open.ReorderLevel = item.ReorderLevel
			open.SuggestedQty = domain.SuggestOrderQty(item, onHand)
			alert, outcome = open, AlertRefreshed
			return tx.Alerts().UpdateAlert(ctx, open)
		case open != nil:
			open.Quantity = onHand
			open.Resolve(now)
			alert, outcome = open, AlertResolved
			return tx.Alerts().UpdateAlert(ctx, open)
		}
		return nil
	})
	if err != nil {
		return AlertUnchanged, fmt.Errorf("evaluate low stock for item %s at branch %s: %w", itemID, branchID, err)
	}

	switch outcome {
	case AlertRaised:
		s.publish(events.NewAlertRaisedEvent(alert))
	case AlertResolved:
		s.publish(events.NewAlertResolvedEvent(alert))
	}
	return outcome, nil
}

// Scan evaluates every (active branch, active item) pair of the principal's
// company, plus every open alert
func (s *AlertService) Scan(ctx context.Context, p Principal) (*dto.ScanResult, error) {
	if err := p.Require(entities.PermMoveStock); err != nil {
		return nil, err
	}
	return s.ScanCompany(ctx, p.CompanyID)
}

// ScanCompany is Scan without a caller, for background jobs
func (s *AlertService) ScanCompany(ctx context.Context, companyID string) (*dto.ScanResult, error) {
	branches, err := s.store.Branches().ListBranches(ctx, companyID)
	if err != nil {
		return nil, err
	}
	items, err := s.store.Items().AllItems(ctx, companyID)
	if err != nil {
		return nil, err
	}
	open, err := allPages(func(opts repositories.ListOptions) ([]*entities.LowStockAlert, error) {
		return s.store.Alerts().ListAlerts(ctx, companyID, repositories.AlertFilter{
			Status:      entities.AlertOpen,
			ListOptions: opts,
		})
	})
	if err != nil {
		return nil, err
	}

	type pair struct{ branchID, itemID string }
	var pairs []pair
	seen := make(map[pair]bool)
	for _, b := range branches {
		if !b.Active {
			continue
		}
		for _, item := range items {
			if !item.Active {
				continue
			}
			k := pair{b.ID, item.ID}
			seen[k] = true
			pairs = append(pairs, k)
		}
	}
	for _, a := range open {
		if k := (pair{a.BranchID, a.ItemID}); !seen[k] {
			seen[k] = true
			pairs = append(pairs, k)
		}
	}

	result := &dto.ScanResult{}
	for _, k := range pairs {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		outcome, err := s.Evaluate(ctx, companyID, k.branchID, k.itemID)
		if err != nil {
			return result, err
		}
		result.Evaluated++
		switch outcome {
		case AlertRaised:
			result.Raised++
		case AlertResolved:
			result.Resolved++
		}
	}

	s.logger.Info("low-stock scan finished",
		zap.String("company_id", companyID),
		zap.Int("evaluated", result.Evaluated),
		zap.Int("raised", result.Raised),
		zap.Int("resolved", result.Resolved))
	return result, nil
}

// ScanAll scans every active company. A failing company is logged and skipped.
func (s *AlertService) ScanAll(ctx context.Context) (*dto.ScanResult, error) {
	companies, err := s.store.Companies().ListCompanies(ctx, true)
	if err != nil {
		return nil, err
	}
	total := &dto.ScanResult{}
	for _, c := range companies {
		r, err := s.ScanCompany(ctx, c.ID)
		if err != nil {
			if ctx.Err() != nil {
				return total, ctx.Err()
			}
			s.logger.Error("low-stock scan failed", zap.String("company_id", c.ID), zap.Error(err))
			continue
		}
		total.Evaluated += r.Evaluated
		total.Raised += r.Raised
		total.Resolved += r.Resolved
	}
	return total, nil
}

// ListAlerts returns a page of alerts, newest first
func (s *AlertService) ListAlerts(ctx context.Context, p Principal, filter repositories.AlertFilter) ([]*entities.LowStockAlert, error) {
	if err := p.Require(entities.PermRead); err != nil {
		return nil, err
	}
	if filter.Status != "" && filter.Status != entities.AlertOpen && filter.Status != entities.AlertResolved {
		return nil, apperror.Invalid("status", "must be open or resolved")
	}
	if filter.BranchID != "" {
		if err := p.RequireBranch(filter.BranchID); err != nil {
			return nil, err
		}
	}
	filter.Scope = p.BranchIDs
	return s.store.Alerts().ListAlerts(ctx, p.CompanyID, filter)
}

// Handler re-evaluates alerts for every pair a stock event touched. The same
// handler is returned on every call so it can be unsubscribed.
func (s *AlertService) Handler() events.Handler {
	return s.handler
}

// HandledEvents lists the event types Handler reacts to
func (s *AlertService) HandledEvents() []string {
	return []string{events.StockMovedEvent, events.StockTransferredEvent}
}

type alertHandler struct {
	service *AlertService
}

func (h *alertHandler) CanHandle(eventType string) bool {
	return eventType == events.StockMovedEvent || eventType == events.StockTransferredEvent
}

func (h *alertHandler) Handle(ctx context.Context, event events.Event) error {
	var movements []entities.StockMovement
	switch data := event.Data().(type) {
	case events.StockMoved:
		movements = []entities.StockMovement{data.Movement}
	case events.StockTransferred:
		movements = data.Movements
	default:
		return fmt.Errorf("unexpected payload %T for %s", data, event.Type())
	}

	done := make(map[[2]string]bool)
	var errs []error
	for _, m := range movements {
		k := [2]string{m.BranchID, m.ItemID}
		if done[k] {
			continue
		}
		done[k] = true
		if _, err := h.service.Evaluate(ctx, m.CompanyID, m.BranchID, m.ItemID); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
