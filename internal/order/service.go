package order

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

const (
	// Attempts at the version-guarded total update before giving up.
	totalUpdateAttempts = 3
	// Effectively-unbounded page when the orchestrator needs every line.
	allLinesPageSize = math.MaxInt32
)

type Service interface {
	CreateOrder(ctx context.Context, accountID string) (*Order, error)
	GetOrderByID(ctx context.Context, id uuid.UUID) (*Order, error)
	ListOrders(ctx context.Context, f OrderFilter) ([]Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, newStatus Status) (*Order, error)
	Confirm(ctx context.Context, id uuid.UUID) (*Order, error)
	AddLine(ctx context.Context, orderID uuid.UUID, gameID string, quantity int) (*DetailLine, error)
	GetLine(ctx context.Context, orderID, lineID uuid.UUID) (*DetailLine, error)
	ListLines(ctx context.Context, orderID uuid.UUID, page, size int) ([]DetailLine, error)
	BuildSummary(ctx context.Context, orderID uuid.UUID) (*OrderSummary, error)
}

type service struct {
	repo      Repository
	catalog   CatalogGateway
	accounts  AccountGateway
	reviews   ReviewGateway
	licenses  LicenseGateway
	allocator *Allocator

	// Review policy applied to every summary request.
	approvedReviewsOnly bool
}

func NewService(repo Repository, catalog CatalogGateway, accounts AccountGateway, reviews ReviewGateway, licenses LicenseGateway, approvedReviewsOnly bool) Service {
	return &service{
		repo:                repo,
		catalog:             catalog,
		accounts:            accounts,
		reviews:             reviews,
		licenses:            licenses,
		allocator:           NewAllocator(licenses),
		approvedReviewsOnly: approvedReviewsOnly,
	}
}

// CreateOrder persists a PENDING order with a zero total after checking the
// account exists. Nothing is persisted when the account lookup fails.
func (s *service) CreateOrder(ctx context.Context, accountID string) (*Order, error) {
	if accountID == "" {
		return nil, Validationf("account id is required")
	}

	if _, err := s.accounts.GetProfile(ctx, accountID); err != nil {
		if errors.Is(err, ErrNotFound) {
			log.Warn().Str("account_id", accountID).Msg("service: rejected order for unknown account")
			return nil, &Error{Kind: KindValidation, Resource: "account", ID: accountID, Msg: "account not found"}
		}
		return nil, err
	}

	id, err := uuid.NewV4()
	if err != nil {
		return nil, fmt.Errorf("service: failed to generate order id: %w", err)
	}

	now := time.Now().UTC()
	o := &Order{
		ID:        id,
		AccountID: accountID,
		Status:    StatusPending,
		Total:     decimal.Zero,
		Version:   0,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.CreateOrder(ctx, o); err != nil {
		log.Error().Err(err).Str("account_id", accountID).Msg("service: failed to create order")
		return nil, fmt.Errorf("service: failed to create order: %w", err)
	}

	log.Info().Stringer("order_id", o.ID).Str("account_id", accountID).Msg("service: order created")
	return o, nil
}

func (s *service) GetOrderByID(ctx context.Context, id uuid.UUID) (*Order, error) {
	return s.repo.GetOrderByID(ctx, id)
}

func (s *service) ListOrders(ctx context.Context, f OrderFilter) ([]Order, error) {
	if f.Size <= 0 {
		f.Size = 20
	}
	if f.Page < 0 {
		f.Page = 0
	}
	return s.repo.ListOrders(ctx, f)
}

// UpdateStatus validates the transition against the state machine and applies
// it. Setting the current status again is a no-op.
func (s *service) UpdateStatus(ctx context.Context, id uuid.UUID, newStatus Status) (*Order, error) {
	if _, known := allowedTransitions[newStatus]; !known {
		return nil, Validationf("unknown order status %q", newStatus)
	}

	current, err := s.repo.GetOrderByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status == newStatus {
		return current, nil
	}
	if !allowedTransitions[current.Status][newStatus] {
		return nil, Validationf("invalid status transition from %s to %s", current.Status, newStatus)
	}

	if err := s.repo.UpdateStatus(ctx, id, newStatus); err != nil {
		return nil, err
	}
	current.Status = newStatus

	log.Info().Stringer("order_id", id).Stringer("status", newStatus).Msg("service: order status updated")
	return current, nil
}

// Confirm recomputes the total from the stored lines, persists it under the
// version guard, and moves the order to CONFIRMED.
func (s *service) Confirm(ctx context.Context, id uuid.UUID) (*Order, error) {
	o, err := s.repo.GetOrderByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.Status != StatusPending {
		return nil, Validationf("invalid status transition from %s to %s", o.Status, StatusConfirmed)
	}

	for attempt := 0; attempt < totalUpdateAttempts; attempt++ {
		lines, err := s.repo.ListDetailsByOrder(ctx, id, 0, allLinesPageSize)
		if err != nil {
			return nil, err
		}
		total := decimal.Zero
		for _, l := range lines {
			total = total.Add(l.LineTotal())
		}

		err = s.repo.UpdateTotal(ctx, id, total, o.Version)
		if err == nil {
			o.Total = total
			o.Version++
			break
		}
		if !errors.Is(err, ErrVersionConflict) {
			return nil, err
		}
		if attempt == totalUpdateAttempts-1 {
			return nil, Conflict(id.String())
		}
		if o, err = s.repo.GetOrderByID(ctx, id); err != nil {
			return nil, err
		}
	}

	return s.UpdateStatus(ctx, id, StatusConfirmed)
}

// AddLine prices one game for the order, claims a license for it, persists
// the line, and folds subtotal+tax into the order total under the optimistic
// guard. Any failure before the line insert leaves the order untouched.
func (s *service) AddLine(ctx context.Context, orderID uuid.UUID, gameID string, quantity int) (*DetailLine, error) {
	if gameID == "" {
		return nil, Validationf("game id is required")
	}
	if quantity <= 0 {
		return nil, Validationf("quantity must be positive, got %d", quantity)
	}

	o, err := s.repo.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.Status != StatusPending {
		return nil, Validationf("cannot add a line to a %s order", o.Status)
	}

	game, err := s.catalog.GetGame(ctx, gameID)
	if err != nil {
		return nil, err
	}

	subtotal, tax := Price(quantity, game.Price)

	lic, err := s.allocator.Allocate(ctx, gameID)
	if err != nil {
		if errors.Is(err, ErrOutOfStock) {
			log.Warn().Stringer("order_id", orderID).Str("game_id", gameID).Msg("service: no license available")
		}
		return nil, err
	}

	lineID, err := uuid.NewV4()
	if err != nil {
		return nil, fmt.Errorf("service: failed to generate line id: %w", err)
	}
	line := &DetailLine{
		ID:        lineID,
		OrderID:   orderID,
		GameID:    gameID,
		Quantity:  quantity,
		UnitPrice: game.Price,
		Subtotal:  subtotal,
		Tax:       tax,
		LicenseID: &lic.ID,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.CreateDetail(ctx, line); err != nil {
		log.Error().Err(err).Stringer("order_id", orderID).Str("game_id", gameID).Msg("service: failed to persist detail line")
		return nil, err
	}

	if err := s.applyTotalIncrement(ctx, o, subtotal.Add(tax)); err != nil {
		return nil, err
	}

	log.Info().
		Stringer("order_id", orderID).
		Str("game_id", gameID).
		Str("license_id", lic.ID).
		Str("line_total", subtotal.Add(tax).String()).
		Msg("service: detail line added")
	return line, nil
}

// applyTotalIncrement folds one line's increment into the order total. When
// the version guard rejects the write the order is reloaded and only the
// increment is reapplied; the line itself is never recomputed.
func (s *service) applyTotalIncrement(ctx context.Context, o *Order, increment decimal.Decimal) error {
	current := o
	for attempt := 0; attempt < totalUpdateAttempts; attempt++ {
		err := s.repo.UpdateTotal(ctx, current.ID, current.Total.Add(increment), current.Version)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrVersionConflict) {
			return err
		}

		reloaded, err := s.repo.GetOrderByID(ctx, current.ID)
		if err != nil {
			return err
		}
		current = reloaded
	}

	log.Error().Stringer("order_id", o.ID).Msg("service: total update attempts exhausted")
	return Conflict(o.ID.String())
}

func (s *service) GetLine(ctx context.Context, orderID, lineID uuid.UUID) (*DetailLine, error) {
	line, err := s.repo.GetDetailByID(ctx, lineID)
	if err != nil {
		return nil, err
	}
	if line.OrderID != orderID {
		return nil, Validationf("detail %s does not belong to order %s", lineID, orderID)
	}
	return line, nil
}

func (s *service) ListLines(ctx context.Context, orderID uuid.UUID, page, size int) ([]DetailLine, error) {
	if _, err := s.repo.GetOrderByID(ctx, orderID); err != nil {
		return nil, err
	}
	if size <= 0 {
		size = 50
	}
	if page < 0 {
		page = 0
	}
	return s.repo.ListDetailsByOrder(ctx, orderID, page, size)
}
