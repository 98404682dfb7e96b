package gateway

import (
	"context"
	"net/http"
)

// FetchBags retrieves the full bag snapshot for the owner.
func (c *Client) FetchBags(ctx context.Context) ([]RemoteBag, error) {
	var raw []RemoteBag
	if err := c.doJSON(ctx, http.MethodGet, keyBags, c.userPath("bags"), nil, &raw); err != nil {
		return nil, err
	}

	bags := make([]RemoteBag, 0, len(raw))
	for _, b := range raw {
		if err := c.validate.Struct(b); err != nil {
			c.logger.Warn("skipping malformed remote bag", "id", b.ID, "error", err)
			continue
		}
		bags = append(bags, b)
	}
	return bags, nil
}

// CreateBag pushes a locally created bag and returns the bound remote record.
func (c *Client) CreateBag(ctx context.Context, body BagCreate) (*RemoteBag, error) {
	var created RemoteBag
	if err := c.doJSON(ctx, http.MethodPost, keyBags, c.userPath("bags"), body, &created); err != nil {
		return nil, err
	}
	if err := c.validate.Struct(created); err != nil {
		return nil, wrapDecoding(err, "create bag response")
	}
	return &created, nil
}

// UpdateBag replaces the mutable fields of a bound bag.
func (c *Client) UpdateBag(ctx context.Context, backendID string, body BagUpdate) error {
	return c.doJSON(ctx, http.MethodPut, keyBags, c.userPath("bags", backendID), body, nil)
}

// DeleteBag removes a bag from the backend.
func (c *Client) DeleteBag(ctx context.Context, backendID string) error {
	return c.doJSON(ctx, http.MethodDelete, keyBags, c.userPath("bags", backendID), nil, nil)
}
