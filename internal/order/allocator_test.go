package order_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gamestore/order-service/internal/order"
)

type mockLicenseGateway struct {
	listAvailableFunc func(ctx context.Context, gameID string, page, size int) ([]order.License, error)
	getByIDFunc       func(ctx context.Context, id string) (*order.License, error)
	claimFunc         func(ctx context.Context, id string) (*order.License, error)
}

func (m *mockLicenseGateway) ListAvailable(ctx context.Context, gameID string, page, size int) ([]order.License, error) {
	return m.listAvailableFunc(ctx, gameID, page, size)
}

func (m *mockLicenseGateway) GetByID(ctx context.Context, id string) (*order.License, error) {
	return m.getByIDFunc(ctx, id)
}

func (m *mockLicenseGateway) Claim(ctx context.Context, id string) (*order.License, error) {
	return m.claimFunc(ctx, id)
}

func availableLicense(id, gameID string) order.License {
	return order.License{ID: id, Key: "KEY-" + id, Status: order.LicenseAvailable, GameID: gameID}
}

func claimConflict(id string) error {
	return &order.Error{Kind: order.KindConflict, Resource: "license", ID: id, Msg: "license already claimed"}
}

func TestAllocator_Allocate(t *testing.T) {
	ctx := context.Background()

	t.Run("claims_first_available", func(t *testing.T) {
		gw := &mockLicenseGateway{
			listAvailableFunc: func(_ context.Context, gameID string, page, size int) ([]order.License, error) {
				if page > 0 {
					return nil, nil
				}
				return []order.License{availableLicense("LIC-1", gameID), availableLicense("LIC-2", gameID)}, nil
			},
			claimFunc: func(_ context.Context, id string) (*order.License, error) {
				return &order.License{ID: id, Key: "KEY-" + id, Status: order.LicenseAssigned}, nil
			},
		}

		lic, err := order.NewAllocator(gw).Allocate(ctx, "GAME-1")

		require.NoError(t, err)
		assert.Equal(t, "LIC-1", lic.ID)
		assert.Equal(t, order.LicenseAssigned, lic.Status)
	})

	t.Run("empty_pool_is_out_of_stock", func(t *testing.T) {
		gw := &mockLicenseGateway{
			listAvailableFunc: func(_ context.Context, _ string, _, _ int) ([]order.License, error) {
				return nil, nil
			},
		}

		_, err := order.NewAllocator(gw).Allocate(ctx, "GAME-1")

		assert.True(t, errors.Is(err, order.ErrOutOfStock))
	})

	t.Run("lost_race_retries_once_with_next_license", func(t *testing.T) {
		claims := 0
		gw := &mockLicenseGateway{
			listAvailableFunc: func(_ context.Context, gameID string, page, size int) ([]order.License, error) {
				if page > 0 {
					return nil, nil
				}
				return []order.License{availableLicense("LIC-1", gameID), availableLicense("LIC-2", gameID)}, nil
			},
			claimFunc: func(_ context.Context, id string) (*order.License, error) {
				claims++
				if id == "LIC-1" {
					return nil, claimConflict(id)
				}
				return &order.License{ID: id, Key: "KEY-" + id, Status: order.LicenseAssigned}, nil
			},
		}

		lic, err := order.NewAllocator(gw).Allocate(ctx, "GAME-1")

		require.NoError(t, err)
		assert.Equal(t, "LIC-2", lic.ID)
		assert.Equal(t, 2, claims)
	})

	t.Run("two_lost_races_surface_out_of_stock", func(t *testing.T) {
		gw := &mockLicenseGateway{
			listAvailableFunc: func(_ context.Context, gameID string, page, size int) ([]order.License, error) {
				if page > 0 {
					return nil, nil
				}
				return []order.License{availableLicense("LIC-1", gameID), availableLicense("LIC-2", gameID)}, nil
			},
			claimFunc: func(_ context.Context, id string) (*order.License, error) {
				return nil, claimConflict(id)
			},
		}

		_, err := order.NewAllocator(gw).Allocate(ctx, "GAME-1")

		assert.True(t, errors.Is(err, order.ErrOutOfStock))
	})

	t.Run("lost_race_with_exhausted_pool_is_out_of_stock", func(t *testing.T) {
		gw := &mockLicenseGateway{
			listAvailableFunc: func(_ context.Context, gameID string, page, size int) ([]order.License, error) {
				if page > 0 {
					return nil, nil
				}
				return []order.License{availableLicense("LIC-1", gameID)}, nil
			},
			claimFunc: func(_ context.Context, id string) (*order.License, error) {
				return nil, claimConflict(id)
			},
		}

		_, err := order.NewAllocator(gw).Allocate(ctx, "GAME-1")

		assert.True(t, errors.Is(err, order.ErrOutOfStock))
	})

	t.Run("claim_transport_failure_is_not_retried", func(t *testing.T) {
		claims := 0
		gw := &mockLicenseGateway{
			listAvailableFunc: func(_ context.Context, gameID string, page, size int) ([]order.License, error) {
				if page > 0 {
					return nil, nil
				}
				return []order.License{availableLicense("LIC-1", gameID)}, nil
			},
			claimFunc: func(_ context.Context, id string) (*order.License, error) {
				claims++
				return nil, order.Unavailable("license", errors.New("connection refused"))
			},
		}

		_, err := order.NewAllocator(gw).Allocate(ctx, "GAME-1")

		assert.True(t, errors.Is(err, order.ErrUnavailable))
		assert.Equal(t, 1, claims)
	})

	t.Run("skips_non_available_entries", func(t *testing.T) {
		gw := &mockLicenseGateway{
			listAvailableFunc: func(_ context.Context, gameID string, page, size int) ([]order.License, error) {
				if page > 0 {
					return nil, nil
				}
				assigned := availableLicense("LIC-1", gameID)
				assigned.Status = order.LicenseAssigned
				return []order.License{assigned, availableLicense("LIC-2", gameID)}, nil
			},
			claimFunc: func(_ context.Context, id string) (*order.License, error) {
				return &order.License{ID: id, Status: order.LicenseAssigned}, nil
			},
		}

		lic, err := order.NewAllocator(gw).Allocate(ctx, "GAME-1")

		require.NoError(t, err)
		assert.Equal(t, "LIC-2", lic.ID)
	})
}
