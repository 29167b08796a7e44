package client

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"time"

	"github.com/gamestore/order-service/internal/order"
)

type LicenseClient struct {
	c *baseClient
}

func NewLicenseClient(baseURL string, cfg Config) *LicenseClient {
	return &LicenseClient{c: newBaseClient(baseURL, "license", cfg)}
}

type licenseResponse struct {
	ID        string    `json:"id"`
	Key       string    `json:"key"`
	ExpiresAt time.Time `json:"expiresAt"`
	StateID   string    `json:"stateId"`
	GameID    string    `json:"gameId"`
}

func (r licenseResponse) toDomain() order.License {
	return order.License{
		ID:        r.ID,
		Key:       r.Key,
		ExpiresAt: r.ExpiresAt,
		Status:    order.LicenseStatus(r.StateID),
		GameID:    r.GameID,
	}
}

// ListAvailable returns AVAILABLE licenses for a game, ordered by ascending
// id by the license service. An empty page is a valid answer.
func (c *LicenseClient) ListAvailable(ctx context.Context, gameID string, page, size int) ([]order.License, error) {
	query := url.Values{
		"page":   {strconv.Itoa(page)},
		"size":   {strconv.Itoa(size)},
		"status": {string(order.LicenseAvailable)},
	}

	var resp []licenseResponse
	err := c.c.getJSON(ctx, "/internal/licenses/game/"+gameID, query, &resp)
	if err != nil {
		if errors.Is(err, errNotFound) {
			// An unknown game simply has no licenses.
			return nil, nil
		}
		return nil, err
	}

	licenses := make([]order.License, 0, len(resp))
	for _, r := range resp {
		licenses = append(licenses, r.toDomain())
	}
	return licenses, nil
}

func (c *LicenseClient) GetByID(ctx context.Context, id string) (*order.License, error) {
	var resp licenseResponse
	err := c.c.getJSON(ctx, "/internal/licenses/"+id, nil, &resp)
	if err != nil {
		if errors.Is(err, errNotFound) {
			return nil, order.NotFound("license", id)
		}
		return nil, err
	}
	lic := resp.toDomain()
	return &lic, nil
}

// Claim asks the license service for the conditional AVAILABLE -> ASSIGNED
// transition. A 409 means another caller won the race. Never retried here:
// a blind retry could assign the same license twice.
func (c *LicenseClient) Claim(ctx context.Context, id string) (*order.License, error) {
	var resp licenseResponse
	err := c.c.postJSON(ctx, "/internal/licenses/"+id+"/claim", nil, &resp)
	if err != nil {
		switch {
		case errors.Is(err, errNotFound):
			return nil, order.NotFound("license", id)
		case errors.Is(err, errConflict):
			return nil, &order.Error{Kind: order.KindConflict, Resource: "license", ID: id, Msg: "license already claimed"}
		}
		return nil, err
	}
	lic := resp.toDomain()
	return &lic, nil
}
