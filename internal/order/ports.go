package order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Game is the catalog service's view of an item, read-only here.
type Game struct {
	ID          string
	Name        string
	Price       decimal.Decimal
	Photo       string
	ReleaseDate time.Time
	CategoryID  string
	GenreID     string
	StateID     string
}

// AccountProfile is the account service's view of an order owner.
type AccountProfile struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	RoleID    string    `json:"role_id"`
	StateID   string    `json:"state_id"`
	CreatedAt time.Time `json:"created_at"`
}

type LicenseStatus string

const (
	LicenseAvailable LicenseStatus = "AVAILABLE"
	LicenseAssigned  LicenseStatus = "ASSIGNED"
)

// License is the license service's record for a redeemable game key.
type License struct {
	ID        string
	Key       string
	ExpiresAt time.Time
	Status    LicenseStatus
	GameID    string
}

// One narrow port per peer service. Adapters map 404 to a not-found Error
// and everything else that fails to an upstream-unavailable Error, so the
// orchestrator never sees transport detail.

type CatalogGateway interface {
	GetGame(ctx context.Context, id string) (*Game, error)
}

type AccountGateway interface {
	GetProfile(ctx context.Context, id string) (*AccountProfile, error)
}

type ReviewGateway interface {
	// AverageRating returns the review average for a game; a game with no
	// reviews yields zero, not an error.
	AverageRating(ctx context.Context, gameID string, approvedOnly bool) (decimal.Decimal, error)
}

type LicenseGateway interface {
	// ListAvailable returns AVAILABLE licenses for a game ordered by
	// ascending id. An empty page is a valid result.
	ListAvailable(ctx context.Context, gameID string, page, size int) ([]License, error)
	GetByID(ctx context.Context, id string) (*License, error)
	// Claim transitions a license AVAILABLE -> ASSIGNED. A claim that lost a
	// race fails with ErrLicenseClaimed.
	Claim(ctx context.Context, id string) (*License, error)
}
