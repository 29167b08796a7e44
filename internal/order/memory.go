package order

import (
	"context"
	"sort"
	"sync"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
)

// memoryRepository is an in-memory Repository with the same version-guard
// semantics as the Postgres one. Used by tests and local runs without a
// database.
type memoryRepository struct {
	mu       sync.RWMutex
	orders   map[uuid.UUID]Order
	details  map[uuid.UUID]DetailLine
	licenses map[string]uuid.UUID // license id -> owning line
}

func NewMemoryRepository() Repository {
	return &memoryRepository{
		orders:   make(map[uuid.UUID]Order),
		details:  make(map[uuid.UUID]DetailLine),
		licenses: make(map[string]uuid.UUID),
	}
}

func (m *memoryRepository) CreateOrder(_ context.Context, o *Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[o.ID] = *o
	return nil
}

func (m *memoryRepository) GetOrderByID(_ context.Context, id uuid.UUID) (*Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, NotFound("order", id.String())
	}
	cp := o
	return &cp, nil
}

func (m *memoryRepository) ListOrders(_ context.Context, f OrderFilter) ([]Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var orders []Order
	for _, o := range m.orders {
		if f.AccountID != "" && o.AccountID != f.AccountID {
			continue
		}
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		orders = append(orders, o)
	}
	sort.Slice(orders, func(i, j int) bool {
		if !orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].CreatedAt.After(orders[j].CreatedAt)
		}
		return orders[i].ID.String() < orders[j].ID.String()
	})
	return pageSlice(orders, f.Page, f.Size), nil
}

func (m *memoryRepository) UpdateStatus(_ context.Context, id uuid.UUID, status Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return NotFound("order", id.String())
	}
	o.Status = status
	m.orders[id] = o
	return nil
}

func (m *memoryRepository) UpdateTotal(_ context.Context, id uuid.UUID, total decimal.Decimal, version int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return NotFound("order", id.String())
	}
	if o.Version != version {
		return ErrVersionConflict
	}
	o.Total = total
	o.Version++
	m.orders[id] = o
	return nil
}

func (m *memoryRepository) CreateDetail(_ context.Context, d *DetailLine) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d.LicenseID != nil {
		if _, taken := m.licenses[*d.LicenseID]; taken {
			return &Error{Kind: KindConflict, Resource: "license", Msg: "license already attached to a line"}
		}
		m.licenses[*d.LicenseID] = d.ID
	}
	m.details[d.ID] = *d
	return nil
}

func (m *memoryRepository) GetDetailByID(_ context.Context, id uuid.UUID) (*DetailLine, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.details[id]
	if !ok {
		return nil, NotFound("detail", id.String())
	}
	cp := d
	return &cp, nil
}

func (m *memoryRepository) ListDetailsByOrder(_ context.Context, orderID uuid.UUID, page, size int) ([]DetailLine, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var lines []DetailLine
	for _, d := range m.details {
		if d.OrderID == orderID {
			lines = append(lines, d)
		}
	}
	sort.Slice(lines, func(i, j int) bool {
		if !lines[i].CreatedAt.Equal(lines[j].CreatedAt) {
			return lines[i].CreatedAt.Before(lines[j].CreatedAt)
		}
		return lines[i].ID.String() < lines[j].ID.String()
	})
	return pageSlice(lines, page, size), nil
}

func pageSlice[T any](items []T, page, size int) []T {
	start := page * size
	if start >= len(items) || start < 0 {
		return nil
	}
	end := len(items)
	if size < end-start {
		end = start + size
	}
	return items[start:end]
}
