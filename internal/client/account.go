package client

import (
	"context"
	"errors"
	"time"

	"github.com/gamestore/order-service/internal/order"
)

type AccountClient struct {
	c *baseClient
}

func NewAccountClient(baseURL string, cfg Config) *AccountClient {
	return &AccountClient{c: newBaseClient(baseURL, "account", cfg)}
}

type profileResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	RoleID    string    `json:"roleId"`
	StateID   string    `json:"stateId"`
	CreatedAt time.Time `json:"createdAt"`
}

func (c *AccountClient) GetProfile(ctx context.Context, id string) (*order.AccountProfile, error) {
	var resp profileResponse
	err := c.c.getJSON(ctx, "/internal/accounts/"+id, nil, &resp)
	if err != nil {
		if errors.Is(err, errNotFound) {
			return nil, order.NotFound("account", id)
		}
		return nil, err
	}
	return &order.AccountProfile{
		ID:        resp.ID,
		Name:      resp.Name,
		Email:     resp.Email,
		Phone:     resp.Phone,
		RoleID:    resp.RoleID,
		StateID:   resp.StateID,
		CreatedAt: resp.CreatedAt,
	}, nil
}
