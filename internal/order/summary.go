package order

import (
	"context"
	"errors"
	"sync"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
)

// BuildSummary joins the order, its lines, and the peer services into one
// read-only view. Enrichment reads fan out concurrently and all complete
// before the summary is returned. A missing upstream record for one line
// degrades that line's enrichment fields; an unreachable upstream aborts the
// whole call.
func (s *service) BuildSummary(ctx context.Context, orderID uuid.UUID) (*OrderSummary, error) {
	o, err := s.repo.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	lines, err := s.repo.ListDetailsByOrder(ctx, orderID, 0, allLinesPageSize)
	if err != nil {
		return nil, err
	}

	summary := &OrderSummary{
		OrderID:   o.ID,
		Status:    o.Status,
		Total:     o.Total,
		CreatedAt: o.CreatedAt,
		Lines:     make([]SummaryLine, len(lines)),
	}

	var (
		wg    sync.WaitGroup
		errMu sync.Mutex
		fatal error
	)
	fail := func(err error) {
		errMu.Lock()
		if fatal == nil {
			fatal = err
		}
		errMu.Unlock()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		profile, err := s.accounts.GetProfile(ctx, o.AccountID)
		switch {
		case err == nil:
			summary.Account = *profile
		case errors.Is(err, ErrNotFound):
			// Account gone since the order was placed; the section stays empty.
			log.Warn().Stringer("order_id", o.ID).Str("account_id", o.AccountID).Msg("service: account missing during summary")
		default:
			fail(err)
		}
	}()

	for i := range lines {
		wg.Add(1)
		go func(i int, ln DetailLine) {
			defer wg.Done()
			view, err := s.enrichLine(ctx, ln)
			if err != nil {
				fail(err)
				return
			}
			summary.Lines[i] = view
		}(i, lines[i])
	}

	wg.Wait()
	if fatal != nil {
		return nil, fatal
	}
	return summary, nil
}

// enrichLine decorates one detail line with catalog, review and license data.
// Each lookup degrades independently on not-found; any other failure is fatal
// for the summary.
func (s *service) enrichLine(ctx context.Context, ln DetailLine) (SummaryLine, error) {
	view := SummaryLine{
		LineID:    ln.ID,
		GameID:    ln.GameID,
		UnitPrice: ln.UnitPrice,
		Quantity:  ln.Quantity,
		Subtotal:  ln.Subtotal,
		Tax:       ln.Tax,
		LineTotal: ln.LineTotal(),
	}

	game, err := s.catalog.GetGame(ctx, ln.GameID)
	switch {
	case err == nil:
		view.GameName = game.Name
		view.GameState = game.StateID
	case errors.Is(err, ErrNotFound):
		log.Warn().Stringer("line_id", ln.ID).Str("game_id", ln.GameID).Msg("service: game missing during summary")
	default:
		return SummaryLine{}, err
	}

	avg, err := s.reviews.AverageRating(ctx, ln.GameID, s.approvedReviewsOnly)
	switch {
	case err == nil:
		view.ReviewAverage = avg
	case errors.Is(err, ErrNotFound):
		// No reviews; the average stays zero.
	default:
		return SummaryLine{}, err
	}

	if ln.LicenseID != nil {
		view.LicenseID = *ln.LicenseID
		lic, err := s.licenses.GetByID(ctx, *ln.LicenseID)
		switch {
		case err == nil:
			view.LicenseKey = lic.Key
			view.LicenseStatus = string(lic.Status)
		case errors.Is(err, ErrNotFound):
			log.Warn().Stringer("line_id", ln.ID).Str("license_id", *ln.LicenseID).Msg("service: license missing during summary")
		default:
			return SummaryLine{}, err
		}
	}

	return view, nil
}
