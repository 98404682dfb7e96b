package gateway

import (
	"context"
	"net/http"

	"github.com/lumieapp/lumie-sync/internal/errors"
)

// FetchProducts retrieves the full product snapshot for the owner, each
// record carrying its nested telemetry and tag/bag backend identifiers.
func (c *Client) FetchProducts(ctx context.Context) ([]RemoteProduct, error) {
	var raw []RemoteProduct
	if err := c.doJSON(ctx, http.MethodGet, keyProducts, c.userPath("products"), nil, &raw); err != nil {
		return nil, err
	}

	products := make([]RemoteProduct, 0, len(raw))
	for _, p := range raw {
		if err := c.validate.Struct(p); err != nil {
			c.logger.Warn("skipping malformed remote product", "id", p.ID, "error", err)
			continue
		}
		products = append(products, p)
	}
	return products, nil
}

// GetProduct retrieves one product by backend identifier.
func (c *Client) GetProduct(ctx context.Context, backendID string) (*RemoteProduct, error) {
	var p RemoteProduct
	if err := c.doJSON(ctx, http.MethodGet, keyProducts, c.userPath("products", backendID), nil, &p); err != nil {
		return nil, err
	}
	if err := c.validate.Struct(p); err != nil {
		return nil, wrapDecoding(err, "get product response")
	}
	return &p, nil
}

// CreateProduct pushes a locally created product and returns the bound
// remote record. Telemetry sub-entities are never part of this call.
func (c *Client) CreateProduct(ctx context.Context, body ProductCreate) (*RemoteProduct, error) {
	var created RemoteProduct
	if err := c.doJSON(ctx, http.MethodPost, keyProducts, c.userPath("products"), body, &created); err != nil {
		return nil, err
	}
	if err := c.validate.Struct(created); err != nil {
		return nil, wrapDecoding(err, "create product response")
	}
	return &created, nil
}

// UpdateProduct applies a patch (field updates or single relationship
// add/remove) to a bound product.
func (c *Client) UpdateProduct(ctx context.Context, backendID string, patch ProductPatch) error {
	return c.doJSON(ctx, http.MethodPut, keyProducts, c.userPath("products", backendID), patch, nil)
}

// DeleteProduct removes a product from the backend. The backend cascades
// the delete to nested telemetry.
func (c *Client) DeleteProduct(ctx context.Context, backendID string) error {
	return c.doJSON(ctx, http.MethodDelete, keyProducts, c.userPath("products", backendID), nil, nil)
}

// wrapDecoding wraps a validation failure on a decoded payload as a
// decoding error: the bytes parsed but the shape is not what we expect.
func wrapDecoding(err error, what string) error {
	return errors.Wrap(err, errors.CodeDecoding, what)
}
