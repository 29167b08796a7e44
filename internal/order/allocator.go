package order

import (
	"context"
	"errors"
)

// Licenses are selected in pages of this size, ascending by id.
const allocatorPageSize = 20

// Allocator claims exactly one available license per added line. The claim is
// a conditional AVAILABLE -> ASSIGNED transition on the license service; a
// lost race triggers exactly one re-selection against the remaining pool.
// Claims are never blind-retried: a transport failure on the claim surfaces
// as-is, since retrying could assign two licenses.
type Allocator struct {
	licenses LicenseGateway
}

func NewAllocator(licenses LicenseGateway) *Allocator {
	return &Allocator{licenses: licenses}
}

// Allocate returns an ASSIGNED license for gameID or an out-of-stock error.
func (a *Allocator) Allocate(ctx context.Context, gameID string) (*License, error) {
	var skip string
	for attempt := 0; attempt < 2; attempt++ {
		candidate, err := a.selectAvailable(ctx, gameID, skip)
		if err != nil {
			return nil, err
		}
		if candidate == nil {
			return nil, OutOfStock(gameID)
		}

		claimed, err := a.licenses.Claim(ctx, candidate.ID)
		if err == nil {
			return claimed, nil
		}
		if !errors.Is(err, ErrLicenseClaimed) {
			return nil, err
		}
		// Lost the race; re-select once, skipping the lost candidate.
		skip = candidate.ID
	}
	return nil, OutOfStock(gameID)
}

// selectAvailable returns the first AVAILABLE license for gameID by ascending
// id, or nil when the pool is exhausted.
func (a *Allocator) selectAvailable(ctx context.Context, gameID, skip string) (*License, error) {
	for page := 0; ; page++ {
		batch, err := a.licenses.ListAvailable(ctx, gameID, page, allocatorPageSize)
		if err != nil {
			return nil, err
		}
		for i := range batch {
			lic := batch[i]
			if lic.Status != LicenseAvailable || lic.ID == skip {
				continue
			}
			return &lic, nil
		}
		if len(batch) < allocatorPageSize {
			return nil, nil
		}
	}
}
