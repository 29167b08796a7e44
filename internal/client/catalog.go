package client

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gamestore/order-service/internal/order"
)

type CatalogClient struct {
	c *baseClient
}

func NewCatalogClient(baseURL string, cfg Config) *CatalogClient {
	return &CatalogClient{c: newBaseClient(baseURL, "catalog", cfg)}
}

type gameResponse struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Photo       string          `json:"photo"`
	ReleaseDate time.Time       `json:"releaseDate"`
	CategoryID  string          `json:"categoryId"`
	GenreID     string          `json:"genreId"`
	StateID     string          `json:"stateId"`
}

func (c *CatalogClient) GetGame(ctx context.Context, id string) (*order.Game, error) {
	var resp gameResponse
	err := c.c.getJSON(ctx, "/internal/catalog/games/"+id, nil, &resp)
	if err != nil {
		if errors.Is(err, errNotFound) {
			return nil, order.NotFound("game", id)
		}
		return nil, err
	}
	return &order.Game{
		ID:          resp.ID,
		Name:        resp.Name,
		Price:       resp.Price,
		Photo:       resp.Photo,
		ReleaseDate: resp.ReleaseDate,
		CategoryID:  resp.CategoryID,
		GenreID:     resp.GenreID,
		StateID:     resp.StateID,
	}, nil
}
