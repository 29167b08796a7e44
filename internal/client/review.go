package client

import (
	"context"
	"errors"
	"net/url"
	"strconv"

	"github.com/shopspring/decimal"
)

type ReviewClient struct {
	c *baseClient
}

func NewReviewClient(baseURL string, cfg Config) *ReviewClient {
	return &ReviewClient{c: newBaseClient(baseURL, "review", cfg)}
}

// AverageRating fetches the review average for a game. The review service
// answers 404 for a game with no reviews; that maps to a zero average here,
// not an error.
func (c *ReviewClient) AverageRating(ctx context.Context, gameID string, approvedOnly bool) (decimal.Decimal, error) {
	query := url.Values{"approvedOnly": {strconv.FormatBool(approvedOnly)}}

	var avg decimal.Decimal
	err := c.c.getJSON(ctx, "/internal/reviews/average/"+gameID, query, &avg)
	if err != nil {
		if errors.Is(err, errNotFound) {
			return decimal.Zero, nil
		}
		return decimal.Zero, err
	}
	return avg, nil
}
