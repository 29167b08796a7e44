package order

import (
	"time"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusCancelled Status = "CANCELLED"
)

func (s Status) String() string {
	return string(s)
}

var allowedTransitions = map[Status]map[Status]bool{
	StatusPending: {
		StatusConfirmed: true,
		StatusCancelled: true,
	},
	StatusConfirmed: {},
	StatusCancelled: {},
}

// Order is a purchase record owned by one account. Total is the running sum
// of subtotal+tax over its detail lines; only the orchestrator mutates it,
// guarded by Version.
type Order struct {
	ID        uuid.UUID       `json:"id" db:"id"`
	AccountID string          `json:"account_id" db:"account_id"`
	Status    Status          `json:"status" db:"status"`
	Total     decimal.Decimal `json:"total" db:"total"`
	Version   int64           `json:"-" db:"version"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt time.Time       `json:"updated_at" db:"updated_at"`
}

// DetailLine is one purchased game within an order. Lines are created by
// AddLine and never deleted. LicenseID is set once allocation succeeds and
// is unique across all lines.
type DetailLine struct {
	ID        uuid.UUID       `json:"id" db:"id"`
	OrderID   uuid.UUID       `json:"order_id" db:"order_id"`
	GameID    string          `json:"game_id" db:"game_id"`
	Quantity  int             `json:"quantity" db:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price" db:"unit_price"`
	Subtotal  decimal.Decimal `json:"subtotal" db:"subtotal"`
	Tax       decimal.Decimal `json:"tax" db:"tax"`
	LicenseID *string         `json:"license_id,omitempty" db:"license_id"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
}

// LineTotal is subtotal + tax.
func (l DetailLine) LineTotal() decimal.Decimal {
	return l.Subtotal.Add(l.Tax)
}

// OrderSummary is the ephemeral cross-service view of an order. It is rebuilt
// on every request and never persisted.
type OrderSummary struct {
	OrderID   uuid.UUID       `json:"order_id"`
	Status    Status          `json:"status"`
	Total     decimal.Decimal `json:"total"`
	CreatedAt time.Time       `json:"created_at"`
	Account   AccountProfile  `json:"account"`
	Lines     []SummaryLine   `json:"lines"`
}

// SummaryLine carries one detail line enriched with catalog, review and
// license data. Enrichment fields stay zero when the upstream record is gone.
type SummaryLine struct {
	LineID        uuid.UUID       `json:"line_id"`
	GameID        string          `json:"game_id"`
	GameName      string          `json:"game_name,omitempty"`
	GameState     string          `json:"game_state,omitempty"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	Quantity      int             `json:"quantity"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	Tax           decimal.Decimal `json:"tax"`
	LineTotal     decimal.Decimal `json:"line_total"`
	ReviewAverage decimal.Decimal `json:"review_average"`
	LicenseID     string          `json:"license_id,omitempty"`
	LicenseKey    string          `json:"license_key,omitempty"`
	LicenseStatus string          `json:"license_status,omitempty"`
}
